package identity

import (
	"context"
	"fmt"
	"sync"

	"github.com/fairsplit/syncengine/internal/model"
)

type pairKey struct {
	typ     model.EntityType
	localID int64
}

type remoteKey struct {
	typ      model.EntityType
	remoteID string
}

// Memory is an in-memory identity map used by tests and by stores that do
// not persist between runs. Safe for concurrent use.
type Memory struct {
	mu       sync.RWMutex
	byLocal  map[pairKey]string
	byRemote map[remoteKey]int64
}

// NewMemory creates an empty in-memory identity map.
func NewMemory() *Memory {
	return &Memory{
		byLocal:  make(map[pairKey]string),
		byRemote: make(map[remoteKey]int64),
	}
}

func (m *Memory) ResolveRemoteID(_ context.Context, typ model.EntityType, localID int64) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	remoteID, ok := m.byLocal[pairKey{typ, localID}]
	if !ok {
		return "", ErrNotFound
	}
	return remoteID, nil
}

func (m *Memory) ResolveLocalID(_ context.Context, typ model.EntityType, remoteID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	localID, ok := m.byRemote[remoteKey{typ, remoteID}]
	if !ok {
		return 0, ErrNotFound
	}
	return localID, nil
}

func (m *Memory) Record(_ context.Context, typ model.EntityType, localID int64, remoteID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.byLocal[pairKey{typ, localID}]; ok {
		if existing == remoteID {
			return nil // idempotent
		}
		return fmt.Errorf("identity mapping conflict for %s/%d: have %s, got %s", typ, localID, existing, remoteID)
	}
	if existing, ok := m.byRemote[remoteKey{typ, remoteID}]; ok {
		return fmt.Errorf("identity mapping conflict for %s/%s: already mapped to local id %d", typ, remoteID, existing)
	}

	m.byLocal[pairKey{typ, localID}] = remoteID
	m.byRemote[remoteKey{typ, remoteID}] = localID
	return nil
}

func (m *Memory) Drop(_ context.Context, typ model.EntityType, localID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	remoteID, ok := m.byLocal[pairKey{typ, localID}]
	if !ok {
		return nil
	}
	delete(m.byLocal, pairKey{typ, localID})
	delete(m.byRemote, remoteKey{typ, remoteID})
	return nil
}
