package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/fairsplit/syncengine/internal/model"
	"github.com/fairsplit/syncengine/internal/store"
)

// PgMap is the PostgreSQL-backed identity map over the identity_map table.
type PgMap struct {
	pool store.PgxIface
}

// NewPgMap creates an identity map on top of an existing pool.
func NewPgMap(pool store.PgxIface) *PgMap {
	return &PgMap{pool: pool}
}

// ResolveRemoteID returns the remote id for (typ, localID), or ErrNotFound.
func (m *PgMap) ResolveRemoteID(ctx context.Context, typ model.EntityType, localID int64) (string, error) {
	var remoteID string
	query := `SELECT remote_id FROM identity_map WHERE entity_type = $1 AND local_id = $2`
	err := m.pool.QueryRow(ctx, query, string(typ), localID).Scan(&remoteID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve remote id for %s/%d: %w", typ, localID, err)
	}
	return remoteID, nil
}

// ResolveLocalID returns the local id for (typ, remoteID), or ErrNotFound.
func (m *PgMap) ResolveLocalID(ctx context.Context, typ model.EntityType, remoteID string) (int64, error) {
	var localID int64
	query := `SELECT local_id FROM identity_map WHERE entity_type = $1 AND remote_id = $2`
	err := m.pool.QueryRow(ctx, query, string(typ), remoteID).Scan(&localID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve local id for %s/%s: %w", typ, remoteID, err)
	}
	return localID, nil
}

// Record upserts the mapping pair. Re-recording an identical pair is a
// no-op; a pair that contradicts an existing mapping on either side is
// rejected by the table's uniqueness constraints.
func (m *PgMap) Record(ctx context.Context, typ model.EntityType, localID int64, remoteID string) error {
	query := `
		INSERT INTO identity_map (entity_type, local_id, remote_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (entity_type, local_id) DO NOTHING`
	_, err := m.pool.Exec(ctx, query, string(typ), localID, remoteID)
	if err != nil {
		return fmt.Errorf("failed to record identity mapping %s/%d -> %s: %w", typ, localID, remoteID, err)
	}

	// DO NOTHING swallows both the idempotent case and a genuinely
	// conflicting pair. Read back to tell them apart.
	existing, err := m.ResolveRemoteID(ctx, typ, localID)
	if err != nil {
		return err
	}
	if existing != remoteID {
		return fmt.Errorf("identity mapping conflict for %s/%d: have %s, got %s", typ, localID, existing, remoteID)
	}

	logrus.WithFields(logrus.Fields{
		"entity_type": typ,
		"local_id":    localID,
		"remote_id":   remoteID,
	}).Debug("Recorded identity mapping")
	return nil
}

// Drop removes the mapping for (typ, localID).
func (m *PgMap) Drop(ctx context.Context, typ model.EntityType, localID int64) error {
	query := `DELETE FROM identity_map WHERE entity_type = $1 AND local_id = $2`
	if _, err := m.pool.Exec(ctx, query, string(typ), localID); err != nil {
		return fmt.Errorf("failed to drop identity mapping %s/%d: %w", typ, localID, err)
	}
	return nil
}
