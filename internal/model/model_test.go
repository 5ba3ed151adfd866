package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatusLifecycle(t *testing.T) {
	assert.True(t, StatusLocalOnly.Valid())
	assert.False(t, Status("EXPLODED").Valid())

	for _, s := range PushableStatuses() {
		assert.True(t, s.NeedsPush(), s)
	}
	assert.False(t, StatusSynced.NeedsPush())
}

func TestTierOrdering(t *testing.T) {
	// Referenced types always sit in a strictly lower tier than the types
	// referencing them.
	assert.Less(t, TypeUser.Tier(), TypeMember.Tier())
	assert.Less(t, TypeGroup.Tier(), TypePayment.Tier())
	assert.Less(t, TypeAccount.Tier(), TypeTransaction.Tier())
	assert.Less(t, TypeTransaction.Tier(), TypePayment.Tier())
	assert.Less(t, TypePayment.Tier(), TypeConversion.Tier())

	prev := 0
	for _, typ := range AllTypes() {
		assert.GreaterOrEqual(t, typ.Tier(), prev)
		prev = typ.Tier()
	}
	assert.Greater(t, EntityType("gadget").Tier(), TypeConversion.Tier())
}

func TestMetaTransitions(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	var m Meta

	m.MarkPending(now)
	assert.Equal(t, StatusPendingSync, m.Status)
	assert.True(t, m.UpdatedAt.Equal(now))

	server := now.Add(time.Second)
	m.MarkSynced("r-1", server)
	assert.Equal(t, StatusSynced, m.Status)
	assert.Equal(t, "r-1", m.RemoteID)
	assert.True(t, m.UpdatedAt.Equal(server), "server timestamp is canonical")

	m.MarkDeleted(server.Add(time.Second))
	assert.Equal(t, StatusLocallyDeleted, m.Status)
	assert.True(t, m.IsDeleted())
}

func TestMarkSyncedKeepsLocalTimeWhenServerOmitsIt(t *testing.T) {
	now := time.Now()
	m := Meta{UpdatedAt: now}
	m.MarkSynced("r-1", time.Time{})
	assert.True(t, m.UpdatedAt.Equal(now))
}
