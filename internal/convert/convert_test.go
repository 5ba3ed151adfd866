package convert

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairsplit/syncengine/internal/identity"
	"github.com/fairsplit/syncengine/internal/model"
)

func seededIdentityMap(t *testing.T) *identity.Memory {
	t.Helper()
	ctx := context.Background()
	ids := identity.NewMemory()
	require.NoError(t, ids.Record(ctx, model.TypeUser, 1, "u-1"))
	require.NoError(t, ids.Record(ctx, model.TypeGroup, 2, "g-2"))
	require.NoError(t, ids.Record(ctx, model.TypeMember, 3, "m-3"))
	require.NoError(t, ids.Record(ctx, model.TypeAccount, 4, "a-4"))
	require.NoError(t, ids.Record(ctx, model.TypeTransaction, 5, "t-5"))
	return ids
}

// TestPaymentRoundTrip tests that converting a fully resolvable payment to
// its remote shape and back preserves every remote-sourced field
func TestPaymentRoundTrip(t *testing.T) {
	ctx := context.Background()
	ids := seededIdentityMap(t)
	conv := NewPaymentConverter(ids)

	txID := int64(5)
	paidAt := time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)
	local := &model.Payment{
		Meta: model.Meta{
			LocalID:   10,
			RemoteID:  "p-10",
			UpdatedAt: paidAt.Add(time.Hour),
			Status:    model.StatusPendingSync,
		},
		GroupLocalID:       2,
		PayerLocalID:       3,
		TransactionLocalID: &txID,
		Amount:             decimal.RequireFromString("42.50"),
		Currency:           "EUR",
		Note:               "groceries",
		PaidAt:             paidAt,
		ReceiptPath:        "/cache/receipts/10.jpg",
	}

	rem, err := conv.ToRemote(ctx, local)
	require.NoError(t, err)
	assert.Equal(t, "g-2", rem.GroupID)
	assert.Equal(t, "m-3", rem.PayerID)
	assert.Equal(t, "t-5", rem.TransactionID)

	back, err := conv.FromRemote(ctx, rem, local)
	require.NoError(t, err)
	assert.Equal(t, local.GroupLocalID, back.GroupLocalID)
	assert.Equal(t, local.PayerLocalID, back.PayerLocalID)
	require.NotNil(t, back.TransactionLocalID)
	assert.Equal(t, txID, *back.TransactionLocalID)
	assert.True(t, local.Amount.Equal(back.Amount))
	assert.Equal(t, local.Currency, back.Currency)
	assert.Equal(t, local.Note, back.Note)
	assert.True(t, local.PaidAt.Equal(back.PaidAt))
	assert.Equal(t, local.LocalID, back.LocalID)
	assert.Equal(t, local.RemoteID, back.RemoteID)
}

// TestToRemoteUnresolvedReference tests that a missing mapping fails the
// whole conversion with a deferral, never a partial record
func TestToRemoteUnresolvedReference(t *testing.T) {
	ctx := context.Background()
	ids := identity.NewMemory() // empty: nothing resolvable
	conv := NewPaymentConverter(ids)

	local := &model.Payment{
		Meta:         model.Meta{LocalID: 10, Status: model.StatusPendingSync},
		GroupLocalID: 2,
		PayerLocalID: 3,
		Amount:       decimal.NewFromInt(5),
		Currency:     "EUR",
	}

	_, err := conv.ToRemote(ctx, local)
	require.Error(t, err)
	assert.True(t, IsUnresolved(err))
	assert.ErrorIs(t, err, identity.ErrNotFound)

	var u *UnresolvedReferenceError
	require.ErrorAs(t, err, &u)
	assert.Equal(t, "group_id", u.Field)
}

// TestFromRemotePreservesLocalFields tests that purely-local fields survive
// a server-wins overwrite
func TestFromRemotePreservesLocalFields(t *testing.T) {
	ctx := context.Background()
	ids := seededIdentityMap(t)
	conv := NewAccountConverter(ids)

	existing := &model.Account{
		Meta:           model.Meta{LocalID: 4, RemoteID: "a-4", Status: model.StatusSynced},
		UserLocalID:    1,
		Name:           "Checking",
		CachedLogoPath: "/cache/logos/a-4.png",
	}
	rem := &model.RemoteAccount{
		RemoteMeta: model.RemoteMeta{ID: "a-4", UpdatedAt: time.Now()},
		UserID:     "u-1",
		Name:       "Checking (renamed)",
		Provider:   "acmebank",
	}

	merged, err := conv.FromRemote(ctx, rem, existing)
	require.NoError(t, err)
	assert.Equal(t, "Checking (renamed)", merged.Name)
	assert.Equal(t, "/cache/logos/a-4.png", merged.CachedLogoPath, "local-only field must be preserved")
	assert.Equal(t, int64(4), merged.LocalID)
	assert.Equal(t, model.StatusSynced, merged.Status)
}

// TestFromRemoteFallsBackToExisting tests that an unresolved remote foreign
// key falls back to the field already on the existing record
func TestFromRemoteFallsBackToExisting(t *testing.T) {
	ctx := context.Background()
	ids := identity.NewMemory() // mapping for the referenced user is gone
	conv := NewAccountConverter(ids)

	existing := &model.Account{
		Meta:        model.Meta{LocalID: 4, RemoteID: "a-4"},
		UserLocalID: 1,
	}
	rem := &model.RemoteAccount{
		RemoteMeta: model.RemoteMeta{ID: "a-4", UpdatedAt: time.Now()},
		UserID:     "u-unknown",
		Name:       "Checking",
	}

	merged, err := conv.FromRemote(ctx, rem, existing)
	require.NoError(t, err)
	assert.Equal(t, int64(1), merged.UserLocalID, "falls back to existing field")
}

// TestFromRemoteNewRecordUnresolvedFails tests that without an existing
// record an unresolved reference fails the conversion
func TestFromRemoteNewRecordUnresolvedFails(t *testing.T) {
	ctx := context.Background()
	ids := identity.NewMemory()
	conv := NewAccountConverter(ids)

	rem := &model.RemoteAccount{
		RemoteMeta: model.RemoteMeta{ID: "a-new", UpdatedAt: time.Now()},
		UserID:     "u-unknown",
	}

	_, err := conv.FromRemote(ctx, rem, nil)
	require.Error(t, err)
	assert.True(t, IsUnresolved(err))
}

// TestFromRemoteNewRecord tests materializing a brand-new remote record
func TestFromRemoteNewRecord(t *testing.T) {
	ctx := context.Background()
	ids := seededIdentityMap(t)
	conv := NewMemberConverter(ids)

	joined := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	rem := &model.RemoteMember{
		RemoteMeta: model.RemoteMeta{ID: "m-new", UpdatedAt: joined},
		GroupID:    "g-2",
		UserID:     "u-1",
		Role:       "admin",
		JoinedAt:   joined,
	}

	local, err := conv.FromRemote(ctx, rem, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), local.LocalID, "local id assigned later by the store")
	assert.Equal(t, "m-new", local.RemoteID)
	assert.Equal(t, model.StatusSynced, local.Status)
	assert.Equal(t, int64(2), local.GroupLocalID)
	assert.Equal(t, int64(1), local.UserLocalID)
	assert.Equal(t, "admin", local.Role)
}

// TestOptionalReferenceOmitted tests that a payment without a backing bank
// transaction converts cleanly in both directions
func TestOptionalReferenceOmitted(t *testing.T) {
	ctx := context.Background()
	ids := seededIdentityMap(t)
	conv := NewPaymentConverter(ids)

	local := &model.Payment{
		Meta:         model.Meta{LocalID: 11},
		GroupLocalID: 2,
		PayerLocalID: 3,
		Amount:       decimal.NewFromInt(9),
		Currency:     "EUR",
	}

	rem, err := conv.ToRemote(ctx, local)
	require.NoError(t, err)
	assert.Empty(t, rem.TransactionID)

	back, err := conv.FromRemote(ctx, rem, local)
	require.NoError(t, err)
	assert.Nil(t, back.TransactionLocalID)
}
