package remote

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Fake is an in-memory API implementation for tests. Errors assigned to the
// Fail* fields are returned verbatim by the corresponding operation;
// Calls counts every invocation, including failed ones.
type Fake[T any, R docPtr[T]] struct {
	mu   sync.Mutex
	docs map[string]T

	FailCreate error
	FailUpdate error
	FailDelete error
	FailList   error

	Calls map[string]int

	now func() time.Time
}

func NewFake[T any, R docPtr[T]]() *Fake[T, R] {
	return &Fake[T, R]{
		docs:  make(map[string]T),
		Calls: make(map[string]int),
		now:   time.Now,
	}
}

func (f *Fake[T, R]) Create(ctx context.Context, m R) (R, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["create"]++
	if f.FailCreate != nil {
		var none R
		return none, f.FailCreate
	}
	doc := *m
	r := R(&doc)
	r.SetRemoteID(uuid.NewString())
	r.SetRemoteUpdatedAt(f.now().UTC())
	f.docs[r.RemoteID()] = doc
	out := doc
	return R(&out), nil
}

func (f *Fake[T, R]) Update(ctx context.Context, remoteID string, m R) (R, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["update"]++
	if f.FailUpdate != nil {
		var none R
		return none, f.FailUpdate
	}
	if _, ok := f.docs[remoteID]; !ok {
		var none R
		return none, &RejectedError{Op: "update", Reason: "unknown id " + remoteID}
	}
	doc := *m
	r := R(&doc)
	r.SetRemoteID(remoteID)
	r.SetRemoteUpdatedAt(f.now().UTC())
	f.docs[remoteID] = doc
	out := doc
	return R(&out), nil
}

func (f *Fake[T, R]) Delete(ctx context.Context, remoteID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["delete"]++
	if f.FailDelete != nil {
		return f.FailDelete
	}
	delete(f.docs, remoteID)
	return nil
}

func (f *Fake[T, R]) ListChangedSince(ctx context.Context, since time.Time) ([]R, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["list"]++
	if f.FailList != nil {
		return nil, f.FailList
	}
	var out []R
	for _, doc := range f.docs {
		d := doc
		r := R(&d)
		if r.RemoteUpdatedAt().After(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Put seeds a document directly, bypassing call counting. The document keeps
// whatever id and timestamp it already carries.
func (f *Fake[T, R]) Put(m R) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[m.RemoteID()] = *m
}

// Get returns a copy of the stored document, or nil when absent.
func (f *Fake[T, R]) Get(remoteID string) R {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[remoteID]
	if !ok {
		var none R
		return none
	}
	return R(&doc)
}

func (f *Fake[T, R]) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.docs)
}

// SetNow overrides the clock used to stamp writes.
func (f *Fake[T, R]) SetNow(fn func() time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = fn
}
