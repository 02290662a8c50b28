package store

import (
	"releaseguard.app/guard/core/db/sqlc"
)

type Stores struct {
	queries *sqlc.Queries
}

func NewStores(queries *sqlc.Queries) *Stores {
	return &Stores{queries: queries}
}

func (s *Stores) BlockWindows() BlockWindowStore {
	return newBlockWindowStore(s.queries)
}
