// Package resolve decides which of two conflicting versions of a record wins.
package resolve

import (
	"time"

	"github.com/fairsplit/syncengine/internal/model"
)

// Decision is the outcome of comparing a local and a remote version of the
// same logical record.
type Decision int

const (
	// LocalWins keeps the local version; the next push re-asserts it.
	LocalWins Decision = iota
	// ServerWins overwrites local fields with the remote version.
	ServerWins
)

func (d Decision) String() string {
	if d == ServerWins {
		return "server_wins"
	}
	return "local_wins"
}

// Resolve applies last-write-wins at record granularity: the remote version
// wins only when its timestamp is strictly newer. Ties go to the local side
// so an unsynced local edit is never silently discarded.
//
// Pure and deterministic: the decision depends on nothing but the two
// timestamps. Applying it is the caller's responsibility.
func Resolve(localUpdatedAt, remoteUpdatedAt time.Time) Decision {
	if remoteUpdatedAt.After(localUpdatedAt) {
		return ServerWins
	}
	return LocalWins
}

// StickyMerge re-applies locally-observed conditions after a ServerWins
// overwrite. Certain boolean flags must be OR-combined across versions
// because losing a true value to a stale remote false is unsafe.
type StickyMerge[L model.Record] func(local, winner L)

// MergeAccountFlags ORs Account.NeedsReauth into the winning version.
func MergeAccountFlags(local, winner *model.Account) {
	if local.NeedsReauth {
		winner.NeedsReauth = true
	}
}
