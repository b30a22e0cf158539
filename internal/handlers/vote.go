package handlers

import (
	"net/http"

	"movierama/internal/apperr"
	"movierama/internal/middleware"
	"movierama/internal/models"
	"movierama/internal/services"

	"github.com/gin-gonic/gin"
)

type VoteHandler struct {
	ledger *services.Ledger
}

func NewVoteHandler(ledger *services.Ledger) *VoteHandler {
	return &VoteHandler{ledger: ledger}
}

// React POST /api/secured/items/:id/react?reaction=LIKE|HATE
// Repeating the same reaction withdraws it; the other reaction replaces it.
func (h *VoteHandler) React(c *gin.Context) {
	itemID, ok := idParam(c, "id")
	if !ok {
		respondError(c, apperr.Wrapf(apperr.ErrItemNotFound, "invalid item id %q", c.Param("id")))
		return
	}
	kind, ok := models.ParseReactionKind(c.Query("reaction"))
	if !ok {
		respondError(c, apperr.ErrInvalidReactionKind)
		return
	}

	outcome, err := h.ledger.CastVote(c.Request.Context(), itemID, middleware.ViewerID(c), kind)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"outcome": outcome})
}
