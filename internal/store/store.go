package store

import (
	"context"
	"errors"
	"time"

	"github.com/fairsplit/syncengine/internal/model"
)

// ErrNotFound signals that no record matches the given id.
var ErrNotFound = errors.New("record not found")

// Local is the per-entity CRUD surface the sync engine and the repository
// facades consume. The UI layer additionally observes changes reactively;
// the engine only needs this non-reactive part.
type Local[L model.Record] interface {
	Get(ctx context.Context, localID int64) (L, error)
	GetByRemoteID(ctx context.Context, remoteID string) (L, error)
	// Upsert inserts rec when it has no local id yet (the store assigns
	// one) and updates it otherwise. Returns the stored record.
	Upsert(ctx context.Context, rec L) (L, error)
	SetStatus(ctx context.Context, localID int64, status model.Status) error
	SoftDelete(ctx context.Context, localID int64, at time.Time) error
	HardDelete(ctx context.Context, localID int64) error
	// ListByStatus returns records in any of the given statuses, oldest
	// update first.
	ListByStatus(ctx context.Context, statuses ...model.Status) ([]L, error)
}

// Cursors tracks the last successful pull per entity type.
type Cursors interface {
	// LastPull returns the zero time when the type was never pulled.
	LastPull(ctx context.Context, typ model.EntityType) (time.Time, error)
	SetLastPull(ctx context.Context, typ model.EntityType, t time.Time) error
}
