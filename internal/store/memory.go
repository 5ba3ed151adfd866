package store

import (
	"context"
	"sync"
	"time"

	"github.com/fairsplit/syncengine/internal/model"
)

// Memory is the in-memory Local implementation, used by tests and as the
// ephemeral store in demo runs. Records are stored by value so callers
// never share memory with the store.
type Memory[T any, L recordPtr[T]] struct {
	mu   sync.Mutex
	seq  int64
	recs map[int64]T

	// Mutations counts every write, giving tests a cheap way to assert
	// that an idempotent pass touched nothing.
	Mutations int
}

// NewMemory creates an empty in-memory store.
func NewMemory[T any, L recordPtr[T]]() *Memory[T, L] {
	return &Memory[T, L]{recs: make(map[int64]T)}
}

func (s *Memory[T, L]) clone(rec T) L {
	out := rec
	p := L(&out)
	meta := p.SyncMeta()
	if meta.DeletedAt != nil {
		at := *meta.DeletedAt
		meta.DeletedAt = &at
	}
	return p
}

func (s *Memory[T, L]) Get(_ context.Context, localID int64) (L, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[localID]
	if !ok {
		var none L
		return none, ErrNotFound
	}
	return s.clone(rec), nil
}

func (s *Memory[T, L]) GetByRemoteID(_ context.Context, remoteID string) (L, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, rec := range s.recs {
		p := L(&rec)
		if p.SyncMeta().RemoteID == remoteID {
			return s.clone(s.recs[id]), nil
		}
	}
	var none L
	return none, ErrNotFound
}

func (s *Memory[T, L]) Upsert(_ context.Context, rec L) (L, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	meta := rec.SyncMeta()
	if meta.LocalID == 0 {
		s.seq++
		meta.LocalID = s.seq
	}
	s.Mutations++
	s.recs[meta.LocalID] = *rec
	return s.clone(s.recs[meta.LocalID]), nil
}

func (s *Memory[T, L]) SetStatus(_ context.Context, localID int64, status model.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[localID]
	if !ok {
		return ErrNotFound
	}
	p := L(&rec)
	p.SyncMeta().Status = status
	s.Mutations++
	s.recs[localID] = rec
	return nil
}

func (s *Memory[T, L]) SoftDelete(_ context.Context, localID int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[localID]
	if !ok {
		return ErrNotFound
	}
	p := L(&rec)
	p.SyncMeta().MarkDeleted(at)
	s.Mutations++
	s.recs[localID] = rec
	return nil
}

func (s *Memory[T, L]) HardDelete(_ context.Context, localID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recs[localID]; ok {
		s.Mutations++
		delete(s.recs, localID)
	}
	return nil
}

func (s *Memory[T, L]) ListByStatus(_ context.Context, statuses ...model.Status) ([]L, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	want := make(map[model.Status]bool, len(statuses))
	for _, st := range statuses {
		want[st] = true
	}

	var out []L
	for id := int64(1); id <= s.seq; id++ {
		rec, ok := s.recs[id]
		if !ok {
			continue
		}
		p := L(&rec)
		if want[p.SyncMeta().Status] {
			out = append(out, s.clone(s.recs[id]))
		}
	}
	return out, nil
}

// Len returns the number of stored records.
func (s *Memory[T, L]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.recs)
}
