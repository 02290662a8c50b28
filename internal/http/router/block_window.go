package router

import (
	"github.com/gin-gonic/gin"

	"releaseguard.app/guard/internal/http/handler"
)

// BlockWindowRouter sets up block window routes
// - reads are public
// - create, import and delete require the admin API key
func BlockWindowRouter(rg *gin.RouterGroup, requireAdmin gin.HandlerFunc, h *handler.BlockWindowHandler) {
	rg.GET("", h.List)
	rg.GET("/active", h.ListActive)
	rg.GET("/:id", h.Get)

	admin := rg.Group("")
	admin.Use(requireAdmin)
	{
		admin.POST("", h.Create)
		admin.POST("/import", h.Import)
		admin.DELETE("/:id", h.Delete)
	}
}
