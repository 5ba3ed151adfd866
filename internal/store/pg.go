package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fairsplit/syncengine/internal/model"
)

// syncCols are the bookkeeping columns every entity table shares, in the
// order the generic store reads and writes them.
var syncCols = []string{"local_id", "remote_id", "updated_at", "deleted_at", "sync_status"}

// recordPtr constrains L to a pointer to a struct embedding model.Meta.
type recordPtr[T any] interface {
	*T
	model.Record
}

// Mapper describes the entity-specific columns of one table. Together with
// the shared sync columns it lets one generic store serve every entity type
// instead of a hand-written store per type.
type Mapper[L model.Record] struct {
	Table   string
	Columns []string
	// Values returns the column values of rec in Columns order.
	Values func(rec L) []any
	// Fields returns scan destinations into rec in Columns order.
	Fields func(rec L) []any
}

// Pg is the PostgreSQL-backed local store for one entity type.
type Pg[T any, L recordPtr[T]] struct {
	pool       PgxIface
	m          Mapper[L]
	selectCols string
}

// NewPg creates a store over pool for the table described by m.
func NewPg[T any, L recordPtr[T]](pool PgxIface, m Mapper[L]) *Pg[T, L] {
	cols := append(append([]string{}, syncCols...), m.Columns...)
	return &Pg[T, L]{
		pool:       pool,
		m:          m,
		selectCols: strings.Join(cols, ", "),
	}
}

func (s *Pg[T, L]) scanRow(row pgx.Row) (L, error) {
	var none L
	var zero T
	rec := L(&zero)
	meta := rec.SyncMeta()

	var remoteID *string
	var status string
	dest := []any{&meta.LocalID, &remoteID, &meta.UpdatedAt, &meta.DeletedAt, &status}
	dest = append(dest, s.m.Fields(rec)...)

	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return none, ErrNotFound
		}
		return none, fmt.Errorf("failed to scan %s row: %w", s.m.Table, err)
	}
	if remoteID != nil {
		meta.RemoteID = *remoteID
	}
	meta.Status = model.Status(status)
	return rec, nil
}

// Get retrieves one record by local id.
func (s *Pg[T, L]) Get(ctx context.Context, localID int64) (L, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE local_id = $1`, s.selectCols, s.m.Table)
	return s.scanRow(s.pool.QueryRow(ctx, query, localID))
}

// GetByRemoteID retrieves one record by its remote id.
func (s *Pg[T, L]) GetByRemoteID(ctx context.Context, remoteID string) (L, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE remote_id = $1`, s.selectCols, s.m.Table)
	return s.scanRow(s.pool.QueryRow(ctx, query, remoteID))
}

// Upsert inserts rec when LocalID is zero, assigning a fresh local id, and
// updates the existing row otherwise.
func (s *Pg[T, L]) Upsert(ctx context.Context, rec L) (L, error) {
	var none L
	meta := rec.SyncMeta()

	var remoteID any
	if meta.RemoteID != "" {
		remoteID = meta.RemoteID
	}
	args := []any{remoteID, meta.UpdatedAt, meta.DeletedAt, string(meta.Status)}
	args = append(args, s.m.Values(rec)...)

	if meta.LocalID == 0 {
		cols := append([]string{"remote_id", "updated_at", "deleted_at", "sync_status"}, s.m.Columns...)
		placeholders := make([]string, len(cols))
		for i := range cols {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
		}
		query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING local_id`,
			s.m.Table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
		if err := s.pool.QueryRow(ctx, query, args...).Scan(&meta.LocalID); err != nil {
			return none, fmt.Errorf("failed to insert into %s: %w", s.m.Table, err)
		}
		return rec, nil
	}

	sets := []string{"remote_id = $2", "updated_at = $3", "deleted_at = $4", "sync_status = $5"}
	for i, col := range s.m.Columns {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, i+6))
	}
	query := fmt.Sprintf(`UPDATE %s SET %s WHERE local_id = $1`, s.m.Table, strings.Join(sets, ", "))
	tag, err := s.pool.Exec(ctx, query, append([]any{meta.LocalID}, args...)...)
	if err != nil {
		return none, fmt.Errorf("failed to update %s/%d: %w", s.m.Table, meta.LocalID, err)
	}
	if tag.RowsAffected() == 0 {
		return none, ErrNotFound
	}
	return rec, nil
}

// SetStatus updates only the lifecycle status of a record.
func (s *Pg[T, L]) SetStatus(ctx context.Context, localID int64, status model.Status) error {
	query := fmt.Sprintf(`UPDATE %s SET sync_status = $2 WHERE local_id = $1`, s.m.Table)
	tag, err := s.pool.Exec(ctx, query, localID, string(status))
	if err != nil {
		return fmt.Errorf("failed to set status on %s/%d: %w", s.m.Table, localID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDelete sets the tombstone. The row survives until the remote deletion
// is confirmed and HardDelete runs.
func (s *Pg[T, L]) SoftDelete(ctx context.Context, localID int64, at time.Time) error {
	query := fmt.Sprintf(
		`UPDATE %s SET deleted_at = $2, updated_at = $2, sync_status = $3 WHERE local_id = $1`,
		s.m.Table)
	tag, err := s.pool.Exec(ctx, query, localID, at, string(model.StatusLocallyDeleted))
	if err != nil {
		return fmt.Errorf("failed to soft-delete %s/%d: %w", s.m.Table, localID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// HardDelete removes the row for good.
func (s *Pg[T, L]) HardDelete(ctx context.Context, localID int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE local_id = $1`, s.m.Table)
	if _, err := s.pool.Exec(ctx, query, localID); err != nil {
		return fmt.Errorf("failed to hard-delete %s/%d: %w", s.m.Table, localID, err)
	}
	return nil
}

// ListByStatus returns records in any of the given statuses, oldest update
// first so earlier edits push before later ones.
func (s *Pg[T, L]) ListByStatus(ctx context.Context, statuses ...model.Status) ([]L, error) {
	names := make([]string, len(statuses))
	for i, st := range statuses {
		names[i] = string(st)
	}
	query := fmt.Sprintf(
		`SELECT %s FROM %s WHERE sync_status = ANY($1) ORDER BY updated_at ASC, local_id ASC`,
		s.selectCols, s.m.Table)

	rows, err := s.pool.Query(ctx, query, names)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s by status: %w", s.m.Table, err)
	}
	defer rows.Close()

	var recs []L
	for rows.Next() {
		rec, err := s.scanRow(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s rows: %w", s.m.Table, err)
	}
	return recs, nil
}
