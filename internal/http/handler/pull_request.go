package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"releaseguard.app/guard/internal/gate"
	"releaseguard.app/guard/internal/http/dto"
	"releaseguard.app/guard/internal/service"
)

type PullRequestHandler struct {
	mergeService service.MergeService
}

func NewPullRequestHandler(mergeService service.MergeService) *PullRequestHandler {
	return &PullRequestHandler{mergeService: mergeService}
}

func (h *PullRequestHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	url := c.Query("url")
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	pr, err := h.mergeService.GetPullRequest(ctx, url)
	if err != nil {
		respondError(c, err, "failed to get pull request")
		return
	}

	c.JSON(http.StatusOK, dto.ToPullRequestResponse(pr, gate.IsUrgentPullRequest(pr)))
}
