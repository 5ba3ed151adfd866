// Package repo provides the write-through facades the application layer
// talks to. Every mutation lands in the local store first and always
// succeeds there; reaching the remote store is opportunistic, and a failed
// attempt just leaves the record for the next scheduled sync pass.
package repo

import (
	"context"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fairsplit/syncengine/internal/model"
	"github.com/fairsplit/syncengine/internal/store"
	"github.com/fairsplit/syncengine/internal/sync"
)

// Repository is the facade for one entity type.
type Repository[L model.Record, R model.Remote] struct {
	typ   model.EntityType
	store store.Local[L]
	mgr   *sync.Manager[L, R]
	locks *sync.KeyedLock

	// background moves the opportunistic push off the caller's goroutine.
	background  bool
	pushTimeout time.Duration
	now         func() time.Time
	log         *logrus.Entry

	wg stdsync.WaitGroup
}

// Option tweaks a Repository.
type Option func(*options)

type options struct {
	background  bool
	pushTimeout time.Duration
	now         func() time.Time
}

// WithBackgroundPush runs the opportunistic push asynchronously, so a slow
// network never delays the caller.
func WithBackgroundPush() Option {
	return func(o *options) { o.background = true }
}

// WithPushTimeout bounds the opportunistic push attempt.
func WithPushTimeout(d time.Duration) Option {
	return func(o *options) { o.pushTimeout = d }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New builds the facade on top of the manager serving the same entity type.
// local must be the same store the manager writes to, and locks the same
// KeyedLock, so facade writes and sync merges serialize per record.
func New[L model.Record, R model.Remote](
	mgr *sync.Manager[L, R],
	local store.Local[L],
	locks *sync.KeyedLock,
	opts ...Option,
) *Repository[L, R] {
	o := options{pushTimeout: 10 * time.Second, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Repository[L, R]{
		typ:         mgr.Type(),
		store:       local,
		mgr:         mgr,
		locks:       locks,
		background:  o.background,
		pushTimeout: o.pushTimeout,
		now:         o.now,
		log:         logrus.WithField("repository", mgr.Type()),
	}
}

// Create stores a new record locally and tries to push it. The returned
// record carries the assigned local id; the remote id follows once a push
// succeeds.
func (r *Repository[L, R]) Create(ctx context.Context, rec L) (L, error) {
	meta := rec.SyncMeta()
	meta.LocalID = 0
	meta.RemoteID = ""
	meta.DeletedAt = nil
	meta.Status = model.StatusLocalOnly
	meta.Touch(r.now())

	stored, err := r.store.Upsert(ctx, rec)
	if err != nil {
		var none L
		return none, err
	}
	r.pushBestEffort(stored.SyncMeta().LocalID)
	return stored, nil
}

// Update marks the record pending and stores it, then tries to push.
func (r *Repository[L, R]) Update(ctx context.Context, rec L) (L, error) {
	meta := rec.SyncMeta()
	if meta.LocalID == 0 {
		var none L
		return none, fmt.Errorf("update of %s without local id", r.typ)
	}

	r.locks.Lock(r.typ, meta.LocalID)
	meta.MarkPending(r.now())
	stored, err := r.store.Upsert(ctx, rec)
	r.locks.Unlock(r.typ, meta.LocalID)
	if err != nil {
		var none L
		return none, err
	}

	r.pushBestEffort(meta.LocalID)
	return stored, nil
}

// Delete tombstones the record. The row disappears once the remote store
// confirms the delete on some later push.
func (r *Repository[L, R]) Delete(ctx context.Context, localID int64) error {
	r.locks.Lock(r.typ, localID)
	err := r.store.SoftDelete(ctx, localID, r.now())
	r.locks.Unlock(r.typ, localID)
	if err != nil {
		return err
	}

	r.pushBestEffort(localID)
	return nil
}

// Get returns one record by local id.
func (r *Repository[L, R]) Get(ctx context.Context, localID int64) (L, error) {
	return r.store.Get(ctx, localID)
}

// GetByRemoteID returns one record by its remote id.
func (r *Repository[L, R]) GetByRemoteID(ctx context.Context, remoteID string) (L, error) {
	return r.store.GetByRemoteID(ctx, remoteID)
}

// ListUnsynced returns every record still awaiting a successful push.
func (r *Repository[L, R]) ListUnsynced(ctx context.Context) ([]L, error) {
	return r.store.ListByStatus(ctx, model.PushableStatuses()...)
}

// ListFailed returns records the remote store rejected.
func (r *Repository[L, R]) ListFailed(ctx context.Context) ([]L, error) {
	return r.store.ListByStatus(ctx, model.StatusSyncFailed)
}

// Retry re-queues a rejected record after the user repaired it.
func (r *Repository[L, R]) Retry(ctx context.Context, localID int64) error {
	r.locks.Lock(r.typ, localID)
	err := r.store.SetStatus(ctx, localID, model.StatusPendingSync)
	r.locks.Unlock(r.typ, localID)
	if err != nil {
		return err
	}

	r.pushBestEffort(localID)
	return nil
}

// Wait blocks until every background push attempt has finished. Call on
// shutdown; pending records survive regardless.
func (r *Repository[L, R]) Wait() {
	r.wg.Wait()
}

// pushBestEffort attempts one immediate push. Failure is fine: the record
// keeps its pushable status and the next scheduled pass picks it up. The
// attempt runs on its own context so a cancelled caller does not abort it.
func (r *Repository[L, R]) pushBestEffort(localID int64) {
	push := func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.pushTimeout)
		defer cancel()
		if err := r.mgr.PushRecord(ctx, localID); err != nil {
			r.log.WithField("local_id", localID).WithError(err).
				Debug("Push deferred to next sync pass")
		}
	}
	if !r.background {
		push()
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		push()
	}()
}
