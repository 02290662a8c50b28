package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"releaseguard.app/guard/internal/http/dto"
	"releaseguard.app/guard/internal/service"
)

type MergeHandler struct {
	mergeService service.MergeService
	loc          *time.Location
}

func NewMergeHandler(mergeService service.MergeService, loc *time.Location) *MergeHandler {
	return &MergeHandler{
		mergeService: mergeService,
		loc:          loc,
	}
}

// CheckBlockStatus runs the full merge gate for an issue key, a change URL, or both.
func (h *MergeHandler) CheckBlockStatus(c *gin.Context) {
	ctx := c.Request.Context()

	var q dto.MergeBlockStatusQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters"})
		return
	}

	at, ok := parseOptionalTime(c, q.At, h.loc)
	if !ok {
		return
	}

	decision, err := h.mergeService.CheckMergeBlockStatus(ctx, service.MergeCheckRequest{
		IssueKey:       q.IssueKey,
		PullRequestURL: q.PullRequest,
		At:             at,
	})
	if err != nil {
		respondError(c, err, "failed to check merge block status")
		return
	}

	c.JSON(http.StatusOK, dto.ToDecisionResponse(decision))
}

// parseOptionalTime writes a 400 and returns false when raw is set but malformed.
func parseOptionalTime(c *gin.Context, raw string, loc *time.Location) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, true
	}
	t, err := service.ParseTimestamp(raw, loc)
	if err != nil {
		respondError(c, err, "invalid timestamp")
		return time.Time{}, false
	}
	return t, true
}
