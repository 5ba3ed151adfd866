// Package identity maintains the bidirectional mapping between local ids
// assigned by the local store and durable ids assigned by the remote store.
package identity

import (
	"context"
	"errors"

	"github.com/fairsplit/syncengine/internal/model"
)

// ErrNotFound signals that no mapping exists yet. This is a normal outcome,
// not a failure: callers defer the operation or fall back to a default.
var ErrNotFound = errors.New("identity mapping not found")

// Resolver is the read side of the identity map.
type Resolver interface {
	// ResolveRemoteID returns the remote id mapped to (typ, localID),
	// or ErrNotFound.
	ResolveRemoteID(ctx context.Context, typ model.EntityType, localID int64) (string, error)
	// ResolveLocalID returns the local id mapped to (typ, remoteID),
	// or ErrNotFound.
	ResolveLocalID(ctx context.Context, typ model.EntityType, remoteID string) (int64, error)
}

// Map is the full identity map contract. Record is an idempotent upsert:
// recording an already-present pair is a no-op, recording a pair that
// conflicts with an existing mapping on either side is an error.
type Map interface {
	Resolver
	Record(ctx context.Context, typ model.EntityType, localID int64, remoteID string) error
	// Drop removes the mapping for (typ, localID). Only called after the
	// record itself is hard-deleted on both sides.
	Drop(ctx context.Context, typ model.EntityType, localID int64) error
}
