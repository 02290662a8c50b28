package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"releaseguard.app/guard/internal/http/dto"
	"releaseguard.app/guard/internal/service"
)

type IssueHandler struct {
	mergeService service.MergeService
	loc          *time.Location
}

func NewIssueHandler(mergeService service.MergeService, loc *time.Location) *IssueHandler {
	return &IssueHandler{
		mergeService: mergeService,
		loc:          loc,
	}
}

func (h *IssueHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	key := c.Query("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key is required"})
		return
	}

	issue, err := h.mergeService.GetIssue(ctx, key)
	if err != nil {
		respondError(c, err, "failed to get issue")
		return
	}

	c.JSON(http.StatusOK, dto.ToIssueResponse(issue))
}

// CheckBlockStatus answers the issue-level check, ignoring block windows.
func (h *IssueHandler) CheckBlockStatus(c *gin.Context) {
	ctx := c.Request.Context()

	var q dto.IssueBlockStatusQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters"})
		return
	}

	at, ok := parseOptionalTime(c, q.At, h.loc)
	if !ok {
		return
	}

	decision, err := h.mergeService.CheckIssueBlockStatus(ctx, service.MergeCheckRequest{
		IssueKey:       q.Key,
		PullRequestURL: q.PullRequest,
		At:             at,
	})
	if err != nil {
		respondError(c, err, "failed to check issue block status")
		return
	}

	c.JSON(http.StatusOK, dto.ToDecisionResponse(decision))
}
