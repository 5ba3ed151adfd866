package model

import "time"

// Meta carries the sync bookkeeping shared by every syncable entity. It gets
// embedded in each domain type that participates in synchronization.
//
// Invariants: LocalID is assigned by the local store and never reused;
// RemoteID stays empty until the remote store accepts the record and is then
// unique within the entity type.
type Meta struct {
	LocalID   int64      `json:"local_id"`
	RemoteID  string     `json:"remote_id,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	Status    Status     `json:"sync_status"`
}

// SyncMeta returns the embedded metadata. It makes every entity embedding
// Meta satisfy the Record interface.
func (m *Meta) SyncMeta() *Meta { return m }

// Touch bumps UpdatedAt. Call on every local mutation.
func (m *Meta) Touch(now time.Time) {
	m.UpdatedAt = now
}

// MarkPending flags a local edit awaiting remote confirmation.
func (m *Meta) MarkPending(now time.Time) {
	m.Status = StatusPendingSync
	m.UpdatedAt = now
}

// MarkSynced records a successful remote round trip. The remote store's
// canonical timestamp replaces the local one.
func (m *Meta) MarkSynced(remoteID string, serverUpdatedAt time.Time) {
	m.RemoteID = remoteID
	m.Status = StatusSynced
	if !serverUpdatedAt.IsZero() {
		m.UpdatedAt = serverUpdatedAt
	}
}

// MarkDeleted soft-deletes the record. The tombstone survives until the
// remote deletion is confirmed.
func (m *Meta) MarkDeleted(now time.Time) {
	m.DeletedAt = &now
	m.Status = StatusLocallyDeleted
	m.UpdatedAt = now
}

// IsDeleted reports whether the record carries a tombstone.
func (m *Meta) IsDeleted() bool { return m.DeletedAt != nil }

// Record is implemented by every local entity via the embedded Meta.
type Record interface {
	SyncMeta() *Meta
}

// Remote is implemented by every remote model via the embedded RemoteMeta.
type Remote interface {
	RemoteID() string
	SetRemoteID(id string)
	RemoteUpdatedAt() time.Time
	SetRemoteUpdatedAt(t time.Time)
}

// RemoteMeta is the identity and versioning envelope of every remote model.
// The remote store owns both fields.
type RemoteMeta struct {
	ID        string    `json:"id,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *RemoteMeta) RemoteID() string               { return m.ID }
func (m *RemoteMeta) SetRemoteID(id string)          { m.ID = id }
func (m *RemoteMeta) RemoteUpdatedAt() time.Time     { return m.UpdatedAt }
func (m *RemoteMeta) SetRemoteUpdatedAt(t time.Time) { m.UpdatedAt = t }
