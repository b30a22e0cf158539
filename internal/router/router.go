package router

import (
	"net/http"

	"movierama/internal/handlers"
	"movierama/internal/middleware"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Items    *handlers.ItemHandler
	Votes    *handlers.VoteHandler
	Profiles *handlers.ProfileHandler
	Health   gin.HandlerFunc
	Metrics  http.Handler
}

// RegisterRoutes expects LoadViewer to be installed on r already.
func RegisterRoutes(r *gin.Engine, h Handlers) {
	if h.Health != nil {
		r.GET("/healthz", h.Health)
	}
	if h.Metrics != nil {
		r.GET("/metrics", gin.WrapH(h.Metrics))
	}

	// 公共接口
	api := r.Group("/api")
	{
		api.GET("/items", h.Items.List)                 // 全部条目，分页排序
		api.GET("/users/:id/items", h.Items.ListByOwner) // 某用户提交的条目
		api.GET("/users/:id/profile", h.Profiles.Show)   // 用户资料
	}

	// 需要登录的接口
	secured := r.Group("/api/secured")
	secured.Use(middleware.AuthRequired())
	{
		secured.POST("/items", h.Items.Create)          // 提交条目
		secured.POST("/items/:id/react", h.Votes.React) // LIKE / HATE，重复提交撤销
	}
}
