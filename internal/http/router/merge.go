package router

import (
	"github.com/gin-gonic/gin"

	"releaseguard.app/guard/internal/http/handler"
)

func MergeRouter(rg *gin.RouterGroup, h *handler.MergeHandler) {
	rg.GET("/block-status", h.CheckBlockStatus)
}

func IssueRouter(rg *gin.RouterGroup, h *handler.IssueHandler) {
	rg.GET("", h.Get)
	rg.GET("/block-status", h.CheckBlockStatus)
}

func PullRequestRouter(rg *gin.RouterGroup, h *handler.PullRequestHandler) {
	rg.GET("", h.Get)
}
