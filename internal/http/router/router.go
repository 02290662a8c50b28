package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"releaseguard.app/guard/internal/http/handler"
	"releaseguard.app/guard/internal/http/middleware"
	"releaseguard.app/guard/internal/service"
)

type RouterConfig struct {
	AdminAPIKey string
	// Location renders and parses zone-less window timestamps.
	Location *time.Location
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	mergeService := services.Merge()

	v1 := router.Group("/api/v1")
	{
		MergeRouter(v1.Group("/merge"), handler.NewMergeHandler(mergeService, loc))
		IssueRouter(v1.Group("/issues"), handler.NewIssueHandler(mergeService, loc))
		PullRequestRouter(v1.Group("/pull-requests"), handler.NewPullRequestHandler(mergeService))

		blockWindowHandler := handler.NewBlockWindowHandler(services.BlockSchedule(), loc)
		BlockWindowRouter(v1.Group("/block-windows"), middleware.RequireAdminAPIKey(cfg.AdminAPIKey), blockWindowHandler)
	}
}
