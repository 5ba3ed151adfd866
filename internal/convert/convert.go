// Package convert translates local records to and from their remote
// representations, resolving every foreign key through the identity map.
package convert

import (
	"context"
	"errors"
	"fmt"

	"github.com/fairsplit/syncengine/internal/identity"
	"github.com/fairsplit/syncengine/internal/model"
)

// UnresolvedReferenceError means a foreign key could not be resolved through
// the identity map yet. It is a deferral, not a failure: the referenced
// record simply has not synced. Callers retry on a later pass.
type UnresolvedReferenceError struct {
	Type  model.EntityType // the referenced entity type
	Field string           // the field that could not be resolved
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("unresolved reference %s (%s)", e.Field, e.Type)
}

// Unwrap lets errors.Is match identity.ErrNotFound.
func (e *UnresolvedReferenceError) Unwrap() error { return identity.ErrNotFound }

// IsUnresolved reports whether err is an unresolved-reference deferral.
func IsUnresolved(err error) bool {
	var u *UnresolvedReferenceError
	return errors.As(err, &u)
}

// ConversionError is a bug-class error: the local and remote shapes disagree
// in a way the converter cannot reconcile. The record is left untouched.
type ConversionError struct {
	Type   model.EntityType
	Reason string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("conversion error for %s: %s", e.Type, e.Reason)
}

// ToRemoteFunc builds the remote representation of a local record.
type ToRemoteFunc[L model.Record, R model.Remote] func(ctx context.Context, ids identity.Resolver, rec L) (R, error)

// FromRemoteFunc materializes a local record from a remote one. existing is
// the current local counterpart, or the zero value (nil) for brand-new
// remote records; purely-local fields on existing must be preserved.
type FromRemoteFunc[L model.Record, R model.Remote] func(ctx context.Context, ids identity.Resolver, rem R, existing L) (L, error)

// Converter pairs the two directions for one entity type. One generic
// converter parameterized by the entity's conversion functions replaces a
// hand-written converter class per type.
type Converter[L model.Record, R model.Remote] struct {
	typ        model.EntityType
	ids        identity.Resolver
	toRemote   ToRemoteFunc[L, R]
	fromRemote FromRemoteFunc[L, R]
}

// New creates a converter for one entity type.
func New[L model.Record, R model.Remote](
	typ model.EntityType,
	ids identity.Resolver,
	toRemote ToRemoteFunc[L, R],
	fromRemote FromRemoteFunc[L, R],
) *Converter[L, R] {
	return &Converter[L, R]{typ: typ, ids: ids, toRemote: toRemote, fromRemote: fromRemote}
}

// Type returns the entity type this converter serves.
func (c *Converter[L, R]) Type() model.EntityType { return c.typ }

// ToRemote converts rec, resolving every foreign key. Either every required
// reference resolves or the whole conversion fails with
// UnresolvedReferenceError; a partially-resolved record is never produced.
func (c *Converter[L, R]) ToRemote(ctx context.Context, rec L) (R, error) {
	return c.toRemote(ctx, c.ids, rec)
}

// FromRemote converts rem back into a local record, merging into existing
// when supplied so purely-local fields survive.
func (c *Converter[L, R]) FromRemote(ctx context.Context, rem R, existing L) (L, error) {
	return c.fromRemote(ctx, c.ids, rem, existing)
}

// requireRemote resolves a required local foreign key to its remote id.
func requireRemote(ctx context.Context, ids identity.Resolver, typ model.EntityType, localID int64, field string) (string, error) {
	remoteID, err := ids.ResolveRemoteID(ctx, typ, localID)
	if errors.Is(err, identity.ErrNotFound) {
		return "", &UnresolvedReferenceError{Type: typ, Field: field}
	}
	if err != nil {
		return "", err
	}
	return remoteID, nil
}

// requireLocal resolves a required remote foreign key to its local id,
// falling back to the caller-supplied existing value when the mapping is
// absent. fallback is nil when there is no existing record to fall back to.
func requireLocal(ctx context.Context, ids identity.Resolver, typ model.EntityType, remoteID, field string, fallback *int64) (int64, error) {
	localID, err := ids.ResolveLocalID(ctx, typ, remoteID)
	if errors.Is(err, identity.ErrNotFound) {
		if fallback != nil {
			return *fallback, nil
		}
		return 0, &UnresolvedReferenceError{Type: typ, Field: field}
	}
	if err != nil {
		return 0, err
	}
	return localID, nil
}

// syncedMeta builds the Meta of a freshly pulled record: the remote store's
// id and timestamp are authoritative, the local id survives from the
// existing record (zero for brand-new remote records).
func syncedMeta(rem *model.RemoteMeta, localID int64) model.Meta {
	return model.Meta{
		LocalID:   localID,
		RemoteID:  rem.ID,
		UpdatedAt: rem.UpdatedAt,
		Status:    model.StatusSynced,
	}
}
