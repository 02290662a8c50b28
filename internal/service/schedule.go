package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"releaseguard.app/guard/common/id"
	"releaseguard.app/guard/internal/domain"
	"releaseguard.app/guard/internal/model"
	"releaseguard.app/guard/internal/store"
)

const (
	DefaultWindowsPerPage = 10
	MaxWindowsPerPage     = 100
)

type CreateBlockWindowParams struct {
	Branch    string
	StartsAt  time.Time
	EndsAt    time.Time
	Reason    string
	CreatedBy string
}

// BlockScheduleService manages operator-declared blackout windows.
type BlockScheduleService interface {
	Create(ctx context.Context, params CreateBlockWindowParams) (*model.BlockWindow, error)
	// Import creates all windows or none.
	Import(ctx context.Context, params []CreateBlockWindowParams) ([]model.BlockWindow, error)
	Get(ctx context.Context, id int64) (*model.BlockWindow, error)
	List(ctx context.Context, page, perPage int) ([]model.BlockWindow, error)
	ListActive(ctx context.Context, branch string, at time.Time) ([]model.BlockWindow, error)
	Delete(ctx context.Context, id int64) (*model.BlockWindow, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

type blockScheduleService struct {
	windows  store.BlockWindowStore
	txRunner TxRunner
}

func NewBlockScheduleService(windows store.BlockWindowStore, txRunner TxRunner) BlockScheduleService {
	return &blockScheduleService{windows: windows, txRunner: txRunner}
}

func newBlockWindow(params CreateBlockWindowParams) (*model.BlockWindow, error) {
	branch := strings.TrimSpace(params.Branch)
	switch {
	case branch == "":
		return nil, fmt.Errorf("%w: branch is required", domain.ErrInvalidRequest)
	case params.StartsAt.IsZero() || params.EndsAt.IsZero():
		return nil, fmt.Errorf("%w: start and end are required", domain.ErrInvalidRequest)
	case params.EndsAt.Before(params.StartsAt):
		return nil, fmt.Errorf("%w: end must not be before start", domain.ErrInvalidRequest)
	}

	return &model.BlockWindow{
		ID:        id.New(),
		Branch:    branch,
		StartsAt:  params.StartsAt,
		EndsAt:    params.EndsAt,
		Reason:    strings.TrimSpace(params.Reason),
		CreatedBy: strings.TrimSpace(params.CreatedBy),
	}, nil
}

func (s *blockScheduleService) Create(ctx context.Context, params CreateBlockWindowParams) (*model.BlockWindow, error) {
	w, err := newBlockWindow(params)
	if err != nil {
		return nil, err
	}

	if err := s.windows.Create(ctx, w); err != nil {
		return nil, fmt.Errorf("creating block window: %w", err)
	}

	slog.InfoContext(ctx, "block window created",
		"window_id", w.ID,
		"branch", w.Branch,
		"starts_at", w.StartsAt,
		"ends_at", w.EndsAt,
		"created_by", w.CreatedBy)

	return w, nil
}

func (s *blockScheduleService) Import(ctx context.Context, params []CreateBlockWindowParams) ([]model.BlockWindow, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("%w: no windows to import", domain.ErrInvalidRequest)
	}

	windows := make([]*model.BlockWindow, 0, len(params))
	for i, p := range params {
		w, err := newBlockWindow(p)
		if err != nil {
			return nil, fmt.Errorf("window %d: %w", i+1, err)
		}
		windows = append(windows, w)
	}

	err := s.txRunner.WithTx(ctx, func(stores StoreProvider) error {
		for _, w := range windows {
			if err := stores.BlockWindows().Create(ctx, w); err != nil {
				return fmt.Errorf("creating block window for %s: %w", w.Branch, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("importing block windows: %w", err)
	}

	created := make([]model.BlockWindow, len(windows))
	for i, w := range windows {
		created[i] = *w
	}

	slog.InfoContext(ctx, "block windows imported", "count", len(created))
	return created, nil
}

func (s *blockScheduleService) Get(ctx context.Context, id int64) (*model.BlockWindow, error) {
	w, err := s.windows.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("block window %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("getting block window: %w", err)
	}
	return w, nil
}

func (s *blockScheduleService) List(ctx context.Context, page, perPage int) ([]model.BlockWindow, error) {
	if page < 0 {
		return nil, fmt.Errorf("%w: page must not be negative", domain.ErrInvalidRequest)
	}
	if perPage <= 0 {
		perPage = DefaultWindowsPerPage
	}
	perPage = min(perPage, MaxWindowsPerPage)
	if page > math.MaxInt32/perPage {
		return nil, fmt.Errorf("%w: page %d is out of range", domain.ErrInvalidRequest, page)
	}

	windows, err := s.windows.List(ctx, int32(perPage), int32(page*perPage))
	if err != nil {
		return nil, fmt.Errorf("listing block windows: %w", err)
	}
	return windows, nil
}

func (s *blockScheduleService) ListActive(ctx context.Context, branch string, at time.Time) ([]model.BlockWindow, error) {
	branch = strings.TrimSpace(branch)
	if branch == "" {
		return nil, fmt.Errorf("%w: branch is required", domain.ErrInvalidRequest)
	}

	windows, err := s.windows.ListActive(ctx, branch, at)
	if err != nil {
		return nil, fmt.Errorf("listing active block windows: %w", err)
	}
	return windows, nil
}

func (s *blockScheduleService) Delete(ctx context.Context, id int64) (*model.BlockWindow, error) {
	w, err := s.windows.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("block window %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("deleting block window: %w", err)
	}

	slog.InfoContext(ctx, "block window deleted", "window_id", w.ID, "branch", w.Branch)
	return w, nil
}

func (s *blockScheduleService) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.windows.DeleteExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("purging expired block windows: %w", err)
	}
	return n, nil
}
