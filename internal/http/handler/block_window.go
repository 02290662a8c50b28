package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"releaseguard.app/guard/common/id"
	"releaseguard.app/guard/internal/http/dto"
	"releaseguard.app/guard/internal/service"
)

type BlockWindowHandler struct {
	scheduleService service.BlockScheduleService
	loc             *time.Location
	now             func() time.Time
}

func NewBlockWindowHandler(scheduleService service.BlockScheduleService, loc *time.Location) *BlockWindowHandler {
	return &BlockWindowHandler{
		scheduleService: scheduleService,
		loc:             loc,
		now:             time.Now,
	}
}

func (h *BlockWindowHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	var q dto.ListBlockWindowsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page and per_page must be non-negative integers"})
		return
	}

	windows, err := h.scheduleService.List(ctx, q.Page, q.PerPage)
	if err != nil {
		respondError(c, err, "failed to list block windows")
		return
	}

	perPage := q.PerPage
	if perPage <= 0 {
		perPage = service.DefaultWindowsPerPage
	}
	c.JSON(http.StatusOK, dto.ListBlockWindowsResponse{
		Windows: dto.ToBlockWindowResponses(windows, h.loc),
		Page:    q.Page,
		PerPage: min(perPage, service.MaxWindowsPerPage),
	})
}

func (h *BlockWindowHandler) ListActive(c *gin.Context) {
	ctx := c.Request.Context()

	var q dto.ActiveBlockWindowsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "branch is required"})
		return
	}

	at, ok := parseOptionalTime(c, q.At, h.loc)
	if !ok {
		return
	}
	if at.IsZero() {
		at = h.now()
	}

	windows, err := h.scheduleService.ListActive(ctx, q.Branch, at)
	if err != nil {
		respondError(c, err, "failed to list active block windows")
		return
	}

	c.JSON(http.StatusOK, gin.H{"windows": dto.ToBlockWindowResponses(windows, h.loc)})
}

func (h *BlockWindowHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	windowID, err := id.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid block window id"})
		return
	}

	w, err := h.scheduleService.Get(ctx, windowID)
	if err != nil {
		respondError(c, err, "failed to get block window")
		return
	}

	c.JSON(http.StatusOK, dto.ToBlockWindowResponse(*w, h.loc))
}

// Create declares a new blackout window (admin only).
func (h *BlockWindowHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateBlockWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: branch, starts_at and ends_at are required"})
		return
	}

	params, err := h.createParams(req)
	if err != nil {
		respondError(c, err, "invalid block window")
		return
	}

	w, err := h.scheduleService.Create(ctx, params)
	if err != nil {
		respondError(c, err, "failed to create block window")
		return
	}

	slog.InfoContext(ctx, "block window created via admin API", "window_id", w.ID, "branch", w.Branch)
	c.JSON(http.StatusCreated, dto.ToBlockWindowResponse(*w, h.loc))
}

// Import creates a batch of blackout windows atomically (admin only).
func (h *BlockWindowHandler) Import(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ImportBlockWindowsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: windows must list branch, starts_at and ends_at"})
		return
	}

	params := make([]service.CreateBlockWindowParams, 0, len(req.Windows))
	for i, w := range req.Windows {
		p, err := h.createParams(w)
		if err != nil {
			respondError(c, fmt.Errorf("window %d: %w", i+1, err), "invalid block window")
			return
		}
		params = append(params, p)
	}

	windows, err := h.scheduleService.Import(ctx, params)
	if err != nil {
		respondError(c, err, "failed to import block windows")
		return
	}

	slog.InfoContext(ctx, "block windows imported via admin API", "count", len(windows))
	c.JSON(http.StatusCreated, gin.H{"windows": dto.ToBlockWindowResponses(windows, h.loc)})
}

// Delete removes a blackout window (admin only).
func (h *BlockWindowHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	windowID, err := id.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid block window id"})
		return
	}

	w, err := h.scheduleService.Delete(ctx, windowID)
	if err != nil {
		respondError(c, err, "failed to delete block window")
		return
	}

	c.JSON(http.StatusOK, dto.ToBlockWindowResponse(*w, h.loc))
}

func (h *BlockWindowHandler) createParams(req dto.CreateBlockWindowRequest) (service.CreateBlockWindowParams, error) {
	startsAt, err := service.ParseTimestamp(req.StartsAt, h.loc)
	if err != nil {
		return service.CreateBlockWindowParams{}, fmt.Errorf("starts_at: %w", err)
	}
	endsAt, err := service.ParseTimestamp(req.EndsAt, h.loc)
	if err != nil {
		return service.CreateBlockWindowParams{}, fmt.Errorf("ends_at: %w", err)
	}
	return service.CreateBlockWindowParams{
		Branch:    req.Branch,
		StartsAt:  startsAt,
		EndsAt:    endsAt,
		Reason:    req.Reason,
		CreatedBy: req.CreatedBy,
	}, nil
}
