package sync

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fairsplit/syncengine/internal/convert"
	"github.com/fairsplit/syncengine/internal/identity"
	"github.com/fairsplit/syncengine/internal/model"
	"github.com/fairsplit/syncengine/internal/remote"
	"github.com/fairsplit/syncengine/internal/resolve"
	"github.com/fairsplit/syncengine/internal/store"
)

// Manager runs the push-then-pull pass for one entity type. One instance
// per type; the orchestrator runs them sequentially in tier order.
//
// Push walks every record whose status needs it, oldest first. Pull lists
// remote changes since the stored cursor and merges them under
// last-write-wins. Both phases are idempotent: a second pass over an
// unchanged world performs no writes.
type Manager[L model.Record, R model.Remote] struct {
	typ     model.EntityType
	store   store.Local[L]
	remote  remote.API[R]
	conv    *convert.Converter[L, R]
	ids     identity.Map
	cursors store.Cursors
	locks   *KeyedLock
	merge   resolve.StickyMerge[L]
	timeout time.Duration
	log     *logrus.Entry
}

// NewManager wires a manager for one entity type. merge may be nil when the
// type has no sticky flags to re-apply after a remote overwrite.
func NewManager[L model.Record, R model.Remote](
	typ model.EntityType,
	local store.Local[L],
	api remote.API[R],
	conv *convert.Converter[L, R],
	ids identity.Map,
	cursors store.Cursors,
	locks *KeyedLock,
	merge resolve.StickyMerge[L],
	cfg Config,
) *Manager[L, R] {
	cfg = cfg.withDefaults()
	return &Manager[L, R]{
		typ:     typ,
		store:   local,
		remote:  api,
		conv:    conv,
		ids:     ids,
		cursors: cursors,
		locks:   locks,
		merge:   merge,
		timeout: cfg.RequestTimeout,
		log:     logrus.WithField("entity_type", typ),
	}
}

// Type returns the entity type this manager serves.
func (m *Manager[L, R]) Type() model.EntityType { return m.typ }

// Tier returns the dependency tier this manager syncs in.
func (m *Manager[L, R]) Tier() int { return m.typ.Tier() }

// Run executes one full pass: push first, so local edits reach the remote
// store before its answers overwrite them, then pull.
func (m *Manager[L, R]) Run(ctx context.Context) TypeReport {
	report := TypeReport{Type: m.typ}

	if err := m.push(ctx, &report); err != nil {
		report.PhaseErr = err
		m.logPhaseAbort("push", err)
		return report
	}
	if err := m.pull(ctx, &report); err != nil {
		report.PhaseErr = err
		m.logPhaseAbort("pull", err)
	}
	return report
}

// logPhaseAbort separates an unreachable remote, which the next scheduled
// pass retries on its own, from errors worth waking somebody up for.
func (m *Manager[L, R]) logPhaseAbort(phase string, err error) {
	log := m.log.WithField("phase", phase).WithError(err)
	if remote.IsUnavailable(err) {
		log.Info("Phase aborted, remote unreachable until next pass")
	} else {
		log.Warn("Phase aborted")
	}
}

// push sends every pushable record to the remote store. A transport failure
// aborts the phase with every remaining status untouched; rejections and
// unresolved references are per-record outcomes and the walk continues.
func (m *Manager[L, R]) push(ctx context.Context, report *TypeReport) error {
	records, err := m.store.ListByStatus(ctx, model.PushableStatuses()...)
	if err != nil {
		return err
	}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		meta := rec.SyncMeta()
		m.locks.Lock(m.typ, meta.LocalID)
		err := m.pushOne(ctx, rec, report)
		m.locks.Unlock(m.typ, meta.LocalID)
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager[L, R]) pushOne(ctx context.Context, rec L, report *TypeReport) error {
	if rec.SyncMeta().Status == model.StatusLocallyDeleted {
		return m.pushDelete(ctx, rec, report)
	}
	return m.pushUpsert(ctx, rec, report)
}

// pushUpsert sends one create or update and, on success, persists the
// authoritative id and timestamp the remote store answered with.
func (m *Manager[L, R]) pushUpsert(ctx context.Context, rec L, report *TypeReport) error {
	meta := rec.SyncMeta()
	log := m.log.WithField("local_id", meta.LocalID)

	rem, err := m.conv.ToRemote(ctx, rec)
	if convert.IsUnresolved(err) {
		// The referenced record has not synced yet; a later pass retries.
		log.WithError(err).Debug("Deferring push, reference unresolved")
		report.record(meta.LocalID, meta.RemoteID, OutcomeSkipped, err.Error())
		return nil
	}
	if err != nil {
		log.WithError(err).Error("Conversion failed, record left untouched")
		report.record(meta.LocalID, meta.RemoteID, OutcomeFailed, err.Error())
		return nil
	}

	// An earlier pass may have reached the remote store without the local
	// write landing afterwards. The identity map is the durable record of
	// that, so a mapped id always wins over a missing local RemoteID;
	// creating again would strand a duplicate remote document.
	remoteID := meta.RemoteID
	if remoteID == "" {
		mapped, resolveErr := m.ids.ResolveRemoteID(ctx, m.typ, meta.LocalID)
		switch {
		case resolveErr == nil:
			log.WithField("remote_id", mapped).Debug("Adopting mapped remote id")
			remoteID = mapped
		case !errors.Is(resolveErr, identity.ErrNotFound):
			return resolveErr
		}
	}

	var (
		resp    R
		outcome Outcome
	)
	callCtx, cancel := context.WithTimeout(ctx, m.timeout)
	if remoteID == "" {
		resp, err = m.remote.Create(callCtx, rem)
		outcome = OutcomeCreated
	} else {
		resp, err = m.remote.Update(callCtx, remoteID, rem)
		outcome = OutcomeUpdated
	}
	cancel()

	switch {
	case err == nil:
	case remote.IsRejected(err):
		// The data survives under SYNC_FAILED for the user to repair.
		log.WithError(err).Warn("Remote rejected record")
		report.record(meta.LocalID, remoteID, OutcomeFailed, err.Error())
		return m.store.SetStatus(ctx, meta.LocalID, model.StatusSyncFailed)
	default:
		return err
	}

	if outcome == OutcomeCreated {
		if err := m.ids.Record(ctx, m.typ, meta.LocalID, resp.RemoteID()); err != nil {
			return err
		}
	}
	meta.MarkSynced(resp.RemoteID(), resp.RemoteUpdatedAt())
	if _, err := m.store.Upsert(ctx, rec); err != nil {
		return err
	}
	log.WithField("remote_id", resp.RemoteID()).Debug("Pushed record")
	report.record(meta.LocalID, resp.RemoteID(), outcome, "")
	return nil
}

// pushDelete retires a tombstone. The local row and its identity mapping go
// away only after the remote store confirms the delete; until then the
// tombstone survives every pass.
func (m *Manager[L, R]) pushDelete(ctx context.Context, rec L, report *TypeReport) error {
	meta := rec.SyncMeta()
	log := m.log.WithField("local_id", meta.LocalID)

	if meta.RemoteID != "" {
		callCtx, cancel := context.WithTimeout(ctx, m.timeout)
		err := m.remote.Delete(callCtx, meta.RemoteID)
		cancel()
		switch {
		case err == nil:
		case remote.IsRejected(err):
			log.WithError(err).Warn("Remote rejected delete")
			report.record(meta.LocalID, meta.RemoteID, OutcomeFailed, err.Error())
			return m.store.SetStatus(ctx, meta.LocalID, model.StatusSyncFailed)
		default:
			return err
		}
	}

	if err := m.store.HardDelete(ctx, meta.LocalID); err != nil {
		return err
	}
	if err := m.ids.Drop(ctx, m.typ, meta.LocalID); err != nil && !errors.Is(err, identity.ErrNotFound) {
		return err
	}
	log.Debug("Tombstone retired")
	report.record(meta.LocalID, meta.RemoteID, OutcomeDeleted, "")
	return nil
}

// pull lists remote changes since the cursor and merges them in. The cursor
// only advances when nothing was deferred, so skipped records reappear on
// the next pass.
func (m *Manager[L, R]) pull(ctx context.Context, report *TypeReport) error {
	since, err := m.cursors.LastPull(ctx, m.typ)
	if err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, m.timeout)
	docs, err := m.remote.ListChangedSince(callCtx, since)
	cancel()
	if err != nil {
		return err
	}

	cursor := since
	deferred := false
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		skipped, err := m.pullOne(ctx, doc, report)
		if err != nil {
			return err
		}
		deferred = deferred || skipped
		if ts := doc.RemoteUpdatedAt(); ts.After(cursor) {
			cursor = ts
		}
	}

	if deferred || cursor.Equal(since) {
		return nil
	}
	return m.cursors.SetLastPull(ctx, m.typ, cursor)
}

// pullOne merges one remote document. The returned bool reports a deferral
// that must hold the cursor back.
func (m *Manager[L, R]) pullOne(ctx context.Context, doc R, report *TypeReport) (bool, error) {
	log := m.log.WithField("remote_id", doc.RemoteID())

	localID, err := m.ids.ResolveLocalID(ctx, m.typ, doc.RemoteID())
	if errors.Is(err, identity.ErrNotFound) {
		return m.pullNew(ctx, doc, report)
	}
	if err != nil {
		return false, err
	}

	m.locks.Lock(m.typ, localID)
	defer m.locks.Unlock(m.typ, localID)

	existing, err := m.store.Get(ctx, localID)
	if errors.Is(err, store.ErrNotFound) {
		// Mapping without a row: the row was purged out of band. Treat the
		// document as new; the mapping gets re-recorded idempotently.
		return m.pullNew(ctx, doc, report)
	}
	if err != nil {
		return false, err
	}

	meta := existing.SyncMeta()
	if meta.Status == model.StatusLocallyDeleted {
		// The tombstone wins locally until the delete is pushed. Hold the
		// cursor back so the document's edits stay listed in case the
		// remote store rejects the delete.
		log.Debug("Skipping pull into tombstone")
		report.record(localID, doc.RemoteID(), OutcomeSkipped, "locally deleted")
		return true, nil
	}

	if resolve.Resolve(meta.UpdatedAt, doc.RemoteUpdatedAt()) == resolve.LocalWins {
		// The local edit stands; the next push re-asserts it.
		report.record(localID, doc.RemoteID(), OutcomeSkipped, "local edit newer")
		return false, nil
	}

	merged, err := m.conv.FromRemote(ctx, doc, existing)
	if convert.IsUnresolved(err) {
		log.WithError(err).Debug("Deferring pull, reference unresolved")
		report.record(localID, doc.RemoteID(), OutcomeSkipped, err.Error())
		return true, nil
	}
	if err != nil {
		log.WithError(err).Error("Conversion failed, keeping local version")
		report.record(localID, doc.RemoteID(), OutcomeFailed, err.Error())
		return false, nil
	}
	if m.merge != nil {
		m.merge(existing, merged)
	}
	if _, err := m.store.Upsert(ctx, merged); err != nil {
		return false, err
	}
	log.Debug("Merged remote version")
	report.record(localID, doc.RemoteID(), OutcomePulled, "")
	return false, nil
}

// pullNew materializes a remote document that has no local counterpart.
func (m *Manager[L, R]) pullNew(ctx context.Context, doc R, report *TypeReport) (bool, error) {
	var none L
	local, err := m.conv.FromRemote(ctx, doc, none)
	if convert.IsUnresolved(err) {
		m.log.WithField("remote_id", doc.RemoteID()).WithError(err).
			Debug("Deferring pull, reference unresolved")
		report.record(0, doc.RemoteID(), OutcomeSkipped, err.Error())
		return true, nil
	}
	if err != nil {
		m.log.WithField("remote_id", doc.RemoteID()).WithError(err).
			Error("Conversion failed, document ignored until it changes again")
		report.record(0, doc.RemoteID(), OutcomeFailed, err.Error())
		return false, nil
	}

	stored, err := m.store.Upsert(ctx, local)
	if err != nil {
		return false, err
	}
	if err := m.ids.Record(ctx, m.typ, stored.SyncMeta().LocalID, doc.RemoteID()); err != nil {
		return false, err
	}
	report.record(stored.SyncMeta().LocalID, doc.RemoteID(), OutcomePulled, "")
	return false, nil
}

// PushRecord pushes a single record immediately, outside a scheduled pass.
// The repository facades call it after an optimistic local write; any error
// leaves the record to the next pass.
func (m *Manager[L, R]) PushRecord(ctx context.Context, localID int64) error {
	m.locks.Lock(m.typ, localID)
	defer m.locks.Unlock(m.typ, localID)

	rec, err := m.store.Get(ctx, localID)
	if err != nil {
		return err
	}
	if !rec.SyncMeta().Status.NeedsPush() {
		return nil
	}
	var report TypeReport
	return m.pushOne(ctx, rec, &report)
}
