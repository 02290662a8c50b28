package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"releaseguard.app/guard/core/db/sqlc"
	"releaseguard.app/guard/internal/model"
)

type blockWindowStore struct {
	queries *sqlc.Queries
}

func newBlockWindowStore(queries *sqlc.Queries) BlockWindowStore {
	return &blockWindowStore{queries: queries}
}

func (s *blockWindowStore) Create(ctx context.Context, w *model.BlockWindow) error {
	row, err := s.queries.CreateBlockWindow(ctx, sqlc.CreateBlockWindowParams{
		ID:        w.ID,
		Branch:    w.Branch,
		StartsAt:  timestamptz(w.StartsAt),
		EndsAt:    timestamptz(w.EndsAt),
		Reason:    w.Reason,
		CreatedBy: w.CreatedBy,
	})
	if err != nil {
		return err
	}
	*w = toBlockWindowModel(row)
	return nil
}

func (s *blockWindowStore) GetByID(ctx context.Context, id int64) (*model.BlockWindow, error) {
	row, err := s.queries.GetBlockWindow(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	w := toBlockWindowModel(row)
	return &w, nil
}

func (s *blockWindowStore) List(ctx context.Context, limit, offset int32) ([]model.BlockWindow, error) {
	rows, err := s.queries.ListBlockWindows(ctx, sqlc.ListBlockWindowsParams{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, err
	}
	return toBlockWindowModels(rows), nil
}

func (s *blockWindowStore) ListActive(ctx context.Context, branch string, at time.Time) ([]model.BlockWindow, error) {
	rows, err := s.queries.ListActiveBlockWindows(ctx, sqlc.ListActiveBlockWindowsParams{
		Branch: branch,
		At:     timestamptz(at),
	})
	if err != nil {
		return nil, err
	}
	return toBlockWindowModels(rows), nil
}

func (s *blockWindowStore) Delete(ctx context.Context, id int64) (*model.BlockWindow, error) {
	row, err := s.queries.DeleteBlockWindow(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	w := toBlockWindowModel(row)
	return &w, nil
}

func (s *blockWindowStore) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	return s.queries.DeleteExpiredBlockWindows(ctx, timestamptz(before))
}

func timestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func toBlockWindowModel(row sqlc.BlockWindow) model.BlockWindow {
	return model.BlockWindow{
		ID:        row.ID,
		Branch:    row.Branch,
		StartsAt:  row.StartsAt.Time,
		EndsAt:    row.EndsAt.Time,
		Reason:    row.Reason,
		CreatedBy: row.CreatedBy,
		CreatedAt: row.CreatedAt.Time,
	}
}

func toBlockWindowModels(rows []sqlc.BlockWindow) []model.BlockWindow {
	windows := make([]model.BlockWindow, len(rows))
	for i, row := range rows {
		windows[i] = toBlockWindowModel(row)
	}
	return windows
}
