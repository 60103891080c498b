package store

import (
	"context"
	"time"

	"warshipfetch/pkg/model"
)

// CacheStore handles generic key-value caching of raw responses.
type CacheStore interface {
	// GetCache returns the value for key if it is younger than maxAge (0 = any age).
	GetCache(ctx context.Context, key string, maxAge time.Duration) ([]byte, bool)
	SetCache(ctx context.Context, key string, val []byte) error
}

// RunStore persists snapshots of fetched tables.
type RunStore interface {
	SaveRun(ctx context.Context, run *model.FetchRun, table model.ResultTable) error
	GetRunShips(ctx context.Context, runID string) (model.ResultTable, error)
	LatestRun(ctx context.Context) (*model.FetchRun, error)
}
