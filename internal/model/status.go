// Package model defines the entity types, record envelope and sync lifecycle
// shared by the store, converters and sync managers.
package model

// Status describes where a local record stands relative to the remote store.
type Status string

const (
	// StatusLocalOnly marks records created offline that were never attempted remotely.
	StatusLocalOnly Status = "LOCAL_ONLY"
	// StatusPendingSync marks records with local changes not yet confirmed by the remote store.
	StatusPendingSync Status = "PENDING_SYNC"
	// StatusSynced marks records where local and remote agree as of the last reconciliation.
	StatusSynced Status = "SYNCED"
	// StatusSyncFailed marks records whose last remote attempt was rejected; eligible for retry.
	StatusSyncFailed Status = "SYNC_FAILED"
	// StatusLocallyDeleted marks soft-deleted records whose deletion is not yet confirmed remotely.
	StatusLocallyDeleted Status = "LOCALLY_DELETED"
)

// PushableStatuses are the statuses a push phase must pick up.
func PushableStatuses() []Status {
	return []Status{StatusLocalOnly, StatusPendingSync, StatusSyncFailed, StatusLocallyDeleted}
}

// Valid reports whether s is one of the known lifecycle statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusLocalOnly, StatusPendingSync, StatusSynced, StatusSyncFailed, StatusLocallyDeleted:
		return true
	}
	return false
}

// NeedsPush reports whether a record in this status has local state the
// remote store has not confirmed yet.
func (s Status) NeedsPush() bool {
	switch s {
	case StatusLocalOnly, StatusPendingSync, StatusSyncFailed, StatusLocallyDeleted:
		return true
	}
	return false
}
