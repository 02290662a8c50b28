package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"releaseguard.app/guard/internal/domain"
)

// respondError maps domain errors onto HTTP statuses. Unknown errors are logged
// and answered with fallback.
func respondError(c *gin.Context, err error, fallback string) {
	ctx := c.Request.Context()

	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": clientMessage(err, domain.ErrInvalidRequest)})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": clientMessage(err, domain.ErrNotFound)})
	case errors.Is(err, domain.ErrUpstream):
		slog.WarnContext(ctx, "upstream failure", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "issue tracker or code host unavailable"})
	default:
		slog.ErrorContext(ctx, fallback, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// clientMessage turns "invalid request: branch is required" into
// "branch is required" and "block window 7: not found" into "block window 7 not found".
func clientMessage(err error, sentinel error) string {
	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, sentinel.Error()+": "); ok {
		return rest
	}
	if rest, ok := strings.CutSuffix(msg, ": "+sentinel.Error()); ok {
		return rest + " " + sentinel.Error()
	}
	return msg
}
