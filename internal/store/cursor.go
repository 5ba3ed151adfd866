package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fairsplit/syncengine/internal/model"
)

// PgCursors persists the last successful pull per entity type in the
// sync_cursor table. Entity types without a row have never been pulled and
// get a full (non-incremental) fetch.
type PgCursors struct {
	pool PgxIface
}

func NewPgCursors(pool PgxIface) *PgCursors {
	return &PgCursors{pool: pool}
}

func (c *PgCursors) LastPull(ctx context.Context, typ model.EntityType) (time.Time, error) {
	var t time.Time
	query := `SELECT last_pull FROM sync_cursor WHERE entity_type = $1`
	err := c.pool.QueryRow(ctx, query, string(typ)).Scan(&t)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read sync cursor for %s: %w", typ, err)
	}
	return t, nil
}

func (c *PgCursors) SetLastPull(ctx context.Context, typ model.EntityType, t time.Time) error {
	query := `
		INSERT INTO sync_cursor (entity_type, last_pull) VALUES ($1, $2)
		ON CONFLICT (entity_type) DO UPDATE SET last_pull = EXCLUDED.last_pull`
	if _, err := c.pool.Exec(ctx, query, string(typ), t); err != nil {
		return fmt.Errorf("failed to set sync cursor for %s: %w", typ, err)
	}
	return nil
}

// MemoryCursors is the in-memory Cursors implementation.
type MemoryCursors struct {
	mu    sync.Mutex
	pulls map[model.EntityType]time.Time
}

func NewMemoryCursors() *MemoryCursors {
	return &MemoryCursors{pulls: make(map[model.EntityType]time.Time)}
}

func (c *MemoryCursors) LastPull(_ context.Context, typ model.EntityType) (time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pulls[typ], nil
}

func (c *MemoryCursors) SetLastPull(_ context.Context, typ model.EntityType, t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pulls[typ] = t
	return nil
}
