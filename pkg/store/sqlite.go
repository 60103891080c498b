package store

import (
	"bytes"
	"compress/gzip"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"warshipfetch/pkg/db"
	"warshipfetch/pkg/model"
)

// ErrNotFound is returned when a requested run does not exist.
var ErrNotFound = errors.New("not found")

// Store composes all sub-interfaces for full store access.
// Consumers should depend on specific sub-interfaces when possible.
type Store interface {
	CacheStore
	RunStore

	// Close closes the store connection.
	Close() error
}

// SQLiteStore implements Store.
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore creates a store on an initialized database.
func NewSQLiteStore(d *db.DB) *SQLiteStore {
	return &SQLiteStore{db: d}
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Runs ---

// SaveRun writes the run header and its rows (in table order) in one transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *model.FetchRun, table model.ResultTable) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	run.RowCount = table.Len()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO fetch_run (id, source, started_at, row_count) VALUES (?, ?, ?, ?)`,
		run.ID, run.Source, run.StartedAt.UnixMilli(), run.RowCount)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO warship (run_id, position, wikidata_id, name, image_url, length, displacement)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range table {
		r := &table[i]
		_, err = stmt.ExecContext(ctx, run.ID, i,
			nullString(r.WikidataID), nullString(r.Name), nullString(r.ImageURL),
			nullString(r.Length), nullString(r.Displacement))
		if err != nil {
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetRunShips returns the rows of a run in their original order.
func (s *SQLiteStore) GetRunShips(ctx context.Context, runID string) (model.ResultTable, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT wikidata_id, name, image_url, length, displacement
		 FROM warship WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var table model.ResultTable
	for rows.Next() {
		var id, name, img, length, disp sql.NullString
		if err := rows.Scan(&id, &name, &img, &length, &disp); err != nil {
			return nil, err
		}
		table = append(table, model.ShipRecord{
			WikidataID:   fromNull(id),
			Name:         fromNull(name),
			ImageURL:     fromNull(img),
			Length:       fromNull(length),
			Displacement: fromNull(disp),
		})
	}
	return table, rows.Err()
}

// LatestRun returns the most recently started run.
func (s *SQLiteStore) LatestRun(ctx context.Context) (*model.FetchRun, error) {
	var run model.FetchRun
	var started int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, source, started_at, row_count FROM fetch_run ORDER BY started_at DESC LIMIT 1`).
		Scan(&run.ID, &run.Source, &started, &run.RowCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	run.StartedAt = time.UnixMilli(started)
	return &run, nil
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func fromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return model.StringPtr(ns.String)
}

// --- Cache ---

func (s *SQLiteStore) GetCache(ctx context.Context, key string, maxAge time.Duration) ([]byte, bool) {
	query := "SELECT value FROM cache WHERE key = ?"
	args := []any{key}
	if maxAge > 0 {
		query += " AND created_at >= ?"
		args = append(args, time.Now().Add(-maxAge).UTC())
	}

	var val []byte
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		slog.Warn("Cache read failed", "key", key, "error", err)
		return nil, false
	}

	// Transparent Decompression
	if len(val) > 2 && val[0] == 0x1f && val[1] == 0x8b {
		decompressed, err := decompress(val)
		if err == nil {
			return decompressed, true
		}
		slog.Warn("Cache entry not decompressible, returning raw", "key", key, "error", err)
	}

	return val, true
}

func (s *SQLiteStore) SetCache(ctx context.Context, key string, val []byte) error {
	compressed, err := compress(val)
	if err == nil {
		val = compressed
	}

	query := `INSERT OR REPLACE INTO cache (key, value, created_at) VALUES (?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query, key, val, time.Now().UTC())
	return err
}

// --- Compression Pooling ---

var (
	gzipWriterPool = sync.Pool{
		New: func() interface{} {
			return gzip.NewWriter(io.Discard)
		},
	}
	bufferPool = sync.Pool{
		New: func() interface{} {
			return new(bytes.Buffer)
		},
	}
)

func compress(data []byte) ([]byte, error) {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufferPool.Put(buf)

	w := gzipWriterPool.Get().(*gzip.Writer)
	defer gzipWriterPool.Put(w)
	w.Reset(buf)

	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	// Must copy because buf is returned to pool
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

func decompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
