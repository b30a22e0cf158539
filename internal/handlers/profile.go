package handlers

import (
	"net/http"

	"movierama/internal/apperr"
	"movierama/internal/services"

	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	profiles *services.ProfileService
}

func NewProfileHandler(profiles *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Show GET /api/users/:id/profile
func (h *ProfileHandler) Show(c *gin.Context) {
	userID, ok := idParam(c, "id")
	if !ok {
		respondError(c, apperr.Wrapf(apperr.ErrUserNotFound, "invalid user id %q", c.Param("id")))
		return
	}
	p, err := h.profiles.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
