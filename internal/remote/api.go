// Package remote defines the remote store contract the sync engine calls
// out to, an etcd-backed implementation of it, and an in-memory fake.
package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fairsplit/syncengine/internal/model"
)

// API is the per-entity-type remote store surface. All calls are
// request/response; the engine assumes no streaming or push notification of
// remote changes. Implementations must honor ctx deadlines.
type API[R model.Remote] interface {
	// Create stores a new record. The remote store assigns the durable id
	// and the canonical timestamp; both come back on the returned model.
	Create(ctx context.Context, m R) (R, error)
	// Update overwrites the record with the given remote id.
	Update(ctx context.Context, remoteID string, m R) (R, error)
	Delete(ctx context.Context, remoteID string) error
	// ListChangedSince returns records updated strictly after since. A zero
	// since returns everything.
	ListChangedSince(ctx context.Context, since time.Time) ([]R, error)
}

// RejectedError is a remote validation or business error. The record is
// marked SYNC_FAILED; retrying without changing it will not help.
type RejectedError struct {
	Op     string
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("remote rejected %s: %s", e.Op, e.Reason)
}

// UnavailableError means the remote endpoint could not be reached at all.
// Recoverable: the next scheduled pass retries, statuses stay untouched.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("remote unavailable during %s: %v", e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// IsRejected reports whether err is a remote rejection.
func IsRejected(err error) bool {
	var r *RejectedError
	return errors.As(err, &r)
}

// IsUnavailable reports whether err means the remote endpoint was
// unreachable, including per-call deadline expiry.
func IsUnavailable(err error) bool {
	var u *UnavailableError
	if errors.As(err, &u) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
