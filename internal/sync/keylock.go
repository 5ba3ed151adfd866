package sync

import (
	stdsync "sync"

	"github.com/fairsplit/syncengine/internal/model"
)

// KeyedLock serializes work on one record at a time, keyed by
// (entityType, localID). The repository facades and the sync managers share
// one instance, so a user edit and a concurrent pull merge of the same
// record never interleave.
//
// Entries are reference counted and removed when the last holder unlocks,
// so the map does not grow with the total number of records ever touched.
type KeyedLock struct {
	mu    stdsync.Mutex
	locks map[lockKey]*lockEntry
}

type lockKey struct {
	typ     model.EntityType
	localID int64
}

type lockEntry struct {
	mu   stdsync.Mutex
	refs int
}

func NewKeyedLock() *KeyedLock {
	return &KeyedLock{locks: make(map[lockKey]*lockEntry)}
}

// Lock acquires the lock for one record, blocking while another holder has
// it.
func (k *KeyedLock) Lock(typ model.EntityType, localID int64) {
	key := lockKey{typ: typ, localID: localID}

	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &lockEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
}

// Unlock releases the lock acquired by Lock.
func (k *KeyedLock) Unlock(typ model.EntityType, localID int64) {
	key := lockKey{typ: typ, localID: localID}

	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		k.mu.Unlock()
		panic("sync: unlock of unheld record lock")
	}
	entry.refs--
	if entry.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()

	entry.mu.Unlock()
}
