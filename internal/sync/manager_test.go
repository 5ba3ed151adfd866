package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairsplit/syncengine/internal/convert"
	"github.com/fairsplit/syncengine/internal/identity"
	"github.com/fairsplit/syncengine/internal/model"
	"github.com/fairsplit/syncengine/internal/remote"
	"github.com/fairsplit/syncengine/internal/resolve"
	"github.com/fairsplit/syncengine/internal/store"
)

type groupHarness struct {
	store   *store.Memory[model.Group, *model.Group]
	remote  *remote.Fake[model.RemoteGroup, *model.RemoteGroup]
	ids     *identity.Memory
	cursors *store.MemoryCursors
	mgr     *Manager[*model.Group, *model.RemoteGroup]
}

func newGroupHarness() *groupHarness {
	h := &groupHarness{
		store:   store.NewMemory[model.Group, *model.Group](),
		remote:  remote.NewFake[model.RemoteGroup, *model.RemoteGroup](),
		ids:     identity.NewMemory(),
		cursors: store.NewMemoryCursors(),
	}
	h.mgr = NewManager(model.TypeGroup, h.store, h.remote,
		convert.NewGroupConverter(h.ids), h.ids, h.cursors, NewKeyedLock(), nil, Config{})
	return h
}

func (h *groupHarness) seed(t *testing.T, g *model.Group) *model.Group {
	t.Helper()
	stored, err := h.store.Upsert(context.Background(), g)
	require.NoError(t, err)
	return stored
}

func TestPushAssignsRemoteIDAndSyncs(t *testing.T) {
	h := newGroupHarness()
	created := h.seed(t, &model.Group{
		Name: "ski trip", Currency: "EUR",
		Meta: model.Meta{Status: model.StatusLocalOnly, UpdatedAt: time.Now()},
	})

	report := h.mgr.Run(context.Background())
	require.NoError(t, report.PhaseErr)
	assert.Equal(t, 1, report.Pushed)

	stored, err := h.store.Get(context.Background(), created.LocalID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSynced, stored.Status)
	assert.NotEmpty(t, stored.RemoteID)

	// The remote store's timestamp is the canonical one after a push.
	doc := h.remote.Get(stored.RemoteID)
	require.NotNil(t, doc)
	assert.True(t, stored.UpdatedAt.Equal(doc.RemoteUpdatedAt()))

	remoteID, err := h.ids.ResolveRemoteID(context.Background(), model.TypeGroup, created.LocalID)
	require.NoError(t, err)
	assert.Equal(t, stored.RemoteID, remoteID)
	localID, err := h.ids.ResolveLocalID(context.Background(), model.TypeGroup, stored.RemoteID)
	require.NoError(t, err)
	assert.Equal(t, created.LocalID, localID)
}

func TestPushUnavailableLeavesStatusesUntouched(t *testing.T) {
	h := newGroupHarness()
	created := h.seed(t, &model.Group{
		Name: "ski trip",
		Meta: model.Meta{Status: model.StatusPendingSync, UpdatedAt: time.Now()},
	})
	h.remote.FailCreate = &remote.UnavailableError{Op: "create", Err: errors.New("dial tcp: no route")}

	report := h.mgr.Run(context.Background())
	assert.Error(t, report.PhaseErr)

	stored, err := h.store.Get(context.Background(), created.LocalID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPendingSync, stored.Status)
	assert.Equal(t, "ski trip", stored.Name)
}

func TestPushRejectedMarksSyncFailed(t *testing.T) {
	h := newGroupHarness()
	created := h.seed(t, &model.Group{
		Name: "ski trip",
		Meta: model.Meta{Status: model.StatusPendingSync, UpdatedAt: time.Now()},
	})
	h.remote.FailCreate = &remote.RejectedError{Op: "create", Reason: "name too long"}

	report := h.mgr.Run(context.Background())
	require.NoError(t, report.PhaseErr)
	assert.Equal(t, 1, report.Failed)

	stored, err := h.store.Get(context.Background(), created.LocalID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSyncFailed, stored.Status)
	assert.Equal(t, "ski trip", stored.Name, "rejected record keeps its data")
}

func TestDeletionRetriedUntilRemoteConfirms(t *testing.T) {
	h := newGroupHarness()
	ctx := context.Background()

	doc := &model.RemoteGroup{Name: "ski trip"}
	doc.SetRemoteID("g-1")
	doc.SetRemoteUpdatedAt(time.Now().UTC())
	h.remote.Put(doc)

	deletedAt := time.Now()
	created := h.seed(t, &model.Group{
		Name: "ski trip",
		Meta: model.Meta{
			RemoteID:  "g-1",
			Status:    model.StatusLocallyDeleted,
			UpdatedAt: deletedAt,
			DeletedAt: &deletedAt,
		},
	})
	require.NoError(t, h.ids.Record(ctx, model.TypeGroup, created.LocalID, "g-1"))

	h.remote.FailDelete = &remote.UnavailableError{Op: "delete", Err: errors.New("dial tcp: no route")}
	report := h.mgr.Run(ctx)
	assert.Error(t, report.PhaseErr)
	assert.Equal(t, 1, h.store.Len(), "tombstone survives a failed delete")

	h.remote.FailDelete = nil
	report = h.mgr.Run(ctx)
	require.NoError(t, report.PhaseErr)
	assert.Equal(t, 0, h.store.Len())
	assert.Equal(t, 0, h.remote.Len())
	_, err := h.ids.ResolveRemoteID(ctx, model.TypeGroup, created.LocalID)
	assert.ErrorIs(t, err, identity.ErrNotFound)
}

func TestPushDefersUnresolvedReference(t *testing.T) {
	ctx := context.Background()
	members := store.NewMemory[model.Member, *model.Member]()
	fake := remote.NewFake[model.RemoteMember, *model.RemoteMember]()
	ids := identity.NewMemory()
	mgr := NewManager(model.TypeMember, members, fake,
		convert.NewMemberConverter(ids), ids, store.NewMemoryCursors(), NewKeyedLock(), nil, Config{})

	created, err := members.Upsert(ctx, &model.Member{
		GroupLocalID: 5, UserLocalID: 6, Role: "admin",
		Meta: model.Meta{Status: model.StatusLocalOnly, UpdatedAt: time.Now()},
	})
	require.NoError(t, err)

	report := mgr.Run(ctx)
	require.NoError(t, report.PhaseErr)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, fake.Calls["create"])

	stored, err := members.Get(ctx, created.LocalID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusLocalOnly, stored.Status, "deferral is not a failure")

	// Once the referenced records have synced, the next pass succeeds.
	require.NoError(t, ids.Record(ctx, model.TypeGroup, 5, "g-5"))
	require.NoError(t, ids.Record(ctx, model.TypeUser, 6, "u-6"))
	report = mgr.Run(ctx)
	require.NoError(t, report.PhaseErr)
	assert.Equal(t, 1, report.Pushed)

	stored, err = members.Get(ctx, created.LocalID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSynced, stored.Status)
}

func TestPushAdoptsStrandedIdentityMapping(t *testing.T) {
	h := newGroupHarness()
	ctx := context.Background()

	// An earlier pass created the remote document and recorded the identity
	// mapping, but the local write carrying the remote id was lost.
	doc := &model.RemoteGroup{Name: "ski trip"}
	doc.SetRemoteID("g-old")
	doc.SetRemoteUpdatedAt(time.Now().UTC().Add(-time.Hour))
	h.remote.Put(doc)

	created := h.seed(t, &model.Group{
		Name: "ski trip",
		Meta: model.Meta{Status: model.StatusPendingSync, UpdatedAt: time.Now()},
	})
	require.NoError(t, h.ids.Record(ctx, model.TypeGroup, created.LocalID, "g-old"))

	report := h.mgr.Run(ctx)
	require.NoError(t, report.PhaseErr)
	assert.Equal(t, 1, report.Pushed)
	assert.Equal(t, 0, h.remote.Calls["create"], "mapped id is adopted instead of creating a duplicate")
	assert.Equal(t, 1, h.remote.Calls["update"])
	assert.Equal(t, 1, h.remote.Len())

	stored, err := h.store.Get(ctx, created.LocalID)
	require.NoError(t, err)
	assert.Equal(t, "g-old", stored.RemoteID)
	assert.Equal(t, model.StatusSynced, stored.Status)
}

func TestPullMaterializesNewRemoteRecord(t *testing.T) {
	h := newGroupHarness()
	ctx := context.Background()

	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	doc := &model.RemoteGroup{Name: "flat 12", Currency: "EUR"}
	doc.SetRemoteID("g-remote")
	doc.SetRemoteUpdatedAt(ts)
	h.remote.Put(doc)

	report := h.mgr.Run(ctx)
	require.NoError(t, report.PhaseErr)
	assert.Equal(t, 1, report.Pulled)

	stored, err := h.store.GetByRemoteID(ctx, "g-remote")
	require.NoError(t, err)
	assert.Equal(t, model.StatusSynced, stored.Status)
	assert.Equal(t, "flat 12", stored.Name)
	assert.True(t, stored.UpdatedAt.Equal(ts))

	localID, err := h.ids.ResolveLocalID(ctx, model.TypeGroup, "g-remote")
	require.NoError(t, err)
	assert.Equal(t, stored.LocalID, localID)

	cursor, err := h.cursors.LastPull(ctx, model.TypeGroup)
	require.NoError(t, err)
	assert.True(t, cursor.Equal(ts))
}

func TestPullServerWinsOverwrites(t *testing.T) {
	h := newGroupHarness()
	ctx := context.Background()

	old := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	created := h.seed(t, &model.Group{
		Name: "flat 12", Currency: "EUR",
		Meta: model.Meta{RemoteID: "g-1", Status: model.StatusSynced, UpdatedAt: old},
	})
	require.NoError(t, h.ids.Record(ctx, model.TypeGroup, created.LocalID, "g-1"))

	doc := &model.RemoteGroup{Name: "flat 12b", Currency: "EUR"}
	doc.SetRemoteID("g-1")
	doc.SetRemoteUpdatedAt(old.Add(time.Hour))
	h.remote.Put(doc)

	report := h.mgr.Run(ctx)
	require.NoError(t, report.PhaseErr)
	assert.Equal(t, 1, report.Pulled)

	stored, err := h.store.Get(ctx, created.LocalID)
	require.NoError(t, err)
	assert.Equal(t, "flat 12b", stored.Name)
	assert.True(t, stored.UpdatedAt.Equal(old.Add(time.Hour)))
}

func TestPullTimestampTieKeepsLocal(t *testing.T) {
	h := newGroupHarness()
	ctx := context.Background()

	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	created := h.seed(t, &model.Group{
		Name: "local name",
		Meta: model.Meta{RemoteID: "g-1", Status: model.StatusSynced, UpdatedAt: ts},
	})
	require.NoError(t, h.ids.Record(ctx, model.TypeGroup, created.LocalID, "g-1"))

	doc := &model.RemoteGroup{Name: "remote name"}
	doc.SetRemoteID("g-1")
	doc.SetRemoteUpdatedAt(ts)
	h.remote.Put(doc)

	report := h.mgr.Run(ctx)
	require.NoError(t, report.PhaseErr)
	assert.Equal(t, 1, report.Skipped)

	stored, err := h.store.Get(ctx, created.LocalID)
	require.NoError(t, err)
	assert.Equal(t, "local name", stored.Name)
}

func TestPullSkipsTombstone(t *testing.T) {
	h := newGroupHarness()
	ctx := context.Background()

	deletedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	created := h.seed(t, &model.Group{
		Name: "flat 12",
		Meta: model.Meta{
			RemoteID:  "g-1",
			Status:    model.StatusLocallyDeleted,
			UpdatedAt: deletedAt,
			DeletedAt: &deletedAt,
		},
	})
	require.NoError(t, h.ids.Record(ctx, model.TypeGroup, created.LocalID, "g-1"))

	// Remote delete fails, then a newer remote version shows up. The
	// tombstone still wins until the delete goes through.
	h.remote.FailDelete = &remote.UnavailableError{Op: "delete", Err: errors.New("down")}
	doc := &model.RemoteGroup{Name: "flat 12 revived"}
	doc.SetRemoteID("g-1")
	doc.SetRemoteUpdatedAt(deletedAt.Add(time.Hour))
	h.remote.Put(doc)

	report := h.mgr.Run(ctx)
	assert.Error(t, report.PhaseErr, "push phase aborts on the failed delete")

	stored, err := h.store.Get(ctx, created.LocalID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusLocallyDeleted, stored.Status)
}

func TestTombstoneSkipHoldsPullCursor(t *testing.T) {
	h := newGroupHarness()
	ctx := context.Background()

	deletedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	created := h.seed(t, &model.Group{
		Name: "flat 12",
		Meta: model.Meta{
			RemoteID:  "g-1",
			Status:    model.StatusLocallyDeleted,
			UpdatedAt: deletedAt,
			DeletedAt: &deletedAt,
		},
	})
	require.NoError(t, h.ids.Record(ctx, model.TypeGroup, created.LocalID, "g-1"))

	doc := &model.RemoteGroup{Name: "flat 12 revived"}
	doc.SetRemoteID("g-1")
	doc.SetRemoteUpdatedAt(deletedAt.Add(time.Hour))
	h.remote.Put(doc)

	var report TypeReport
	require.NoError(t, h.mgr.pull(ctx, &report))
	assert.Equal(t, 1, report.Skipped)

	// The document's edits stay listed on later passes in case the delete
	// is rejected.
	cursor, err := h.cursors.LastPull(ctx, model.TypeGroup)
	require.NoError(t, err)
	assert.True(t, cursor.IsZero())
}

func TestStickyFlagSurvivesServerWins(t *testing.T) {
	ctx := context.Background()
	accounts := store.NewMemory[model.Account, *model.Account]()
	fake := remote.NewFake[model.RemoteAccount, *model.RemoteAccount]()
	ids := identity.NewMemory()
	mgr := NewManager(model.TypeAccount, accounts, fake,
		convert.NewAccountConverter(ids), ids, store.NewMemoryCursors(), NewKeyedLock(),
		resolve.StickyMerge[*model.Account](resolve.MergeAccountFlags), Config{})

	require.NoError(t, ids.Record(ctx, model.TypeUser, 1, "u-1"))

	old := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	created, err := accounts.Upsert(ctx, &model.Account{
		UserLocalID: 1, Name: "Checking", NeedsReauth: true, CachedLogoPath: "/cache/logo.png",
		Meta: model.Meta{RemoteID: "a-1", Status: model.StatusSynced, UpdatedAt: old},
	})
	require.NoError(t, err)
	require.NoError(t, ids.Record(ctx, model.TypeAccount, created.LocalID, "a-1"))

	doc := &model.RemoteAccount{UserID: "u-1", Name: "Checking (renamed)", NeedsReauth: false}
	doc.SetRemoteID("a-1")
	doc.SetRemoteUpdatedAt(old.Add(time.Hour))
	fake.Put(doc)

	report := mgr.Run(ctx)
	require.NoError(t, report.PhaseErr)
	assert.Equal(t, 1, report.Pulled)

	stored, err := accounts.Get(ctx, created.LocalID)
	require.NoError(t, err)
	assert.Equal(t, "Checking (renamed)", stored.Name)
	assert.True(t, stored.NeedsReauth, "locally observed flag is never lost to a stale remote false")
	assert.Equal(t, "/cache/logo.png", stored.CachedLogoPath)
}

func TestSecondPassIsIdempotent(t *testing.T) {
	h := newGroupHarness()
	ctx := context.Background()

	h.seed(t, &model.Group{
		Name: "ski trip",
		Meta: model.Meta{Status: model.StatusLocalOnly, UpdatedAt: time.Now()},
	})

	report := h.mgr.Run(ctx)
	require.NoError(t, report.PhaseErr)
	writes := h.store.Mutations
	creates := h.remote.Calls["create"]

	report = h.mgr.Run(ctx)
	require.NoError(t, report.PhaseErr)
	assert.Equal(t, 0, report.Pushed+report.Pulled+report.Failed)
	assert.Equal(t, writes, h.store.Mutations, "an unchanged world causes no writes")
	assert.Equal(t, creates, h.remote.Calls["create"])
}

func TestPushRecordOutsideScheduledPass(t *testing.T) {
	h := newGroupHarness()
	ctx := context.Background()

	created := h.seed(t, &model.Group{
		Name: "ski trip",
		Meta: model.Meta{Status: model.StatusPendingSync, UpdatedAt: time.Now()},
	})

	require.NoError(t, h.mgr.PushRecord(ctx, created.LocalID))
	stored, err := h.store.Get(ctx, created.LocalID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSynced, stored.Status)

	// Already-synced records are a no-op.
	writes := h.store.Mutations
	require.NoError(t, h.mgr.PushRecord(ctx, created.LocalID))
	assert.Equal(t, writes, h.store.Mutations)
}
