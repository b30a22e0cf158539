package handlers

import (
	"net/http"

	"movierama/internal/apperr"
	"movierama/internal/middleware"
	"movierama/internal/models"
	"movierama/internal/services"

	"github.com/gin-gonic/gin"
)

type ItemHandler struct {
	pager       *services.Pager
	items       *services.ItemService
	defaultSize int
}

func NewItemHandler(pager *services.Pager, items *services.ItemService, defaultSize int) *ItemHandler {
	return &ItemHandler{pager: pager, items: items, defaultSize: defaultSize}
}

// List GET /api/items
func (h *ItemHandler) List(c *gin.Context) {
	h.list(c, models.AllItems())
}

// ListByOwner GET /api/users/:id/items
func (h *ItemHandler) ListByOwner(c *gin.Context) {
	ownerID, ok := idParam(c, "id")
	if !ok {
		respondError(c, apperr.Wrapf(apperr.ErrUserNotFound, "invalid user id %q", c.Param("id")))
		return
	}
	h.list(c, models.ItemsByOwner(ownerID))
}

func (h *ItemHandler) list(c *gin.Context, scope models.Scope) {
	req, err := pageRequest(c, scope, h.defaultSize)
	if err != nil {
		respondError(c, err)
		return
	}
	page, err := h.pager.GetPage(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Create POST /api/secured/items
func (h *ItemHandler) Create(c *gin.Context) {
	var in services.NewItem
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, apperr.Wrap(apperr.ErrInvalidItem, err))
		return
	}

	item, err := h.items.CreateItem(c.Request.Context(), middleware.ViewerID(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, services.Summary(item))
}
