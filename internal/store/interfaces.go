package store

import (
	"context"
	"errors"
	"time"

	"releaseguard.app/guard/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// BlockWindowStore defines the contract for block window data access
type BlockWindowStore interface {
	Create(ctx context.Context, w *model.BlockWindow) error
	GetByID(ctx context.Context, id int64) (*model.BlockWindow, error)
	List(ctx context.Context, limit, offset int32) ([]model.BlockWindow, error)
	// ListActive returns the windows for branch covering at, ordered by start.
	ListActive(ctx context.Context, branch string, at time.Time) ([]model.BlockWindow, error)
	Delete(ctx context.Context, id int64) (*model.BlockWindow, error)
	// DeleteExpired removes windows that ended strictly before the given instant.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
