package handlers

import (
	"net/http"

	"movierama/internal/apperr"
	"movierama/internal/middleware"
	"movierama/internal/models"
	"movierama/internal/services"
	"movierama/internal/utils"

	"github.com/gin-gonic/gin"
)

// respondError maps err to its status and a {"error", "code"} body.
func respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	code, ok := apperr.CodeOf(err)
	msg := err.Error()
	if !ok || status >= http.StatusInternalServerError {
		// 不向客户端暴露内部错误细节
		_ = c.Error(err)
		msg = http.StatusText(status)
		if !ok {
			code = "internal"
		}
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg, "code": code})
}

// pageRequest reads page, size, sortBy and sortDirection from the query string.
// A missing size uses defaultSize; a malformed one is rejected.
func pageRequest(c *gin.Context, scope models.Scope, defaultSize int) (services.PageRequest, error) {
	page, ok := utils.StringToInt(c.Query("page"), 0)
	if !ok {
		return services.PageRequest{}, apperr.Wrapf(apperr.ErrInvalidPage, "page must be an integer")
	}
	size, ok := utils.StringToInt(c.Query("size"), defaultSize)
	if !ok {
		return services.PageRequest{}, apperr.Wrapf(apperr.ErrInvalidPageSize, "size must be an integer")
	}
	return services.PageRequest{
		Scope:     scope,
		Sort:      c.Query("sortBy"),
		Direction: c.Query("sortDirection"),
		Page:      page,
		Size:      size,
		ViewerID:  middleware.ViewerID(c),
	}, nil
}

func idParam(c *gin.Context, name string) (uint, bool) {
	id := utils.StringToUint(c.Param(name))
	return id, id != 0
}
