package remote

import (
	"context"
	"encoding/json"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fairsplit/syncengine/internal/model"
)

// docPtr constrains R to a pointer to a struct embedding model.RemoteMeta.
type docPtr[T any] interface {
	*T
	model.Remote
}

// EtcdStore implements the remote API for one entity type on top of etcd.
// Records live as JSON documents under <prefix>/<entityType>/<remoteID>;
// the adapter assigns the durable id and the canonical timestamp on create,
// which makes it the authoritative side from the engine's point of view.
type EtcdStore[T any, R docPtr[T]] struct {
	client *EtcdClient
	typ    model.EntityType
	log    *logrus.Entry
	now    func() time.Time
}

// NewEtcdStore creates the adapter for one entity type.
func NewEtcdStore[T any, R docPtr[T]](client *EtcdClient, typ model.EntityType) *EtcdStore[T, R] {
	return &EtcdStore[T, R]{
		client: client,
		typ:    typ,
		log:    logrus.WithField("component", "remote").WithField("entity_type", typ),
		now:    time.Now,
	}
}

func (s *EtcdStore[T, R]) key(remoteID string) string {
	return path.Join(s.client.Prefix(), string(s.typ), remoteID)
}

func (s *EtcdStore[T, R]) marshalAndPut(ctx context.Context, op string, m R) error {
	data, err := json.Marshal(m)
	if err != nil {
		return &RejectedError{Op: op, Reason: err.Error()}
	}
	if err := s.client.put(ctx, s.key(m.RemoteID()), string(data)); err != nil {
		return &UnavailableError{Op: op, Err: err}
	}
	return nil
}

// Create assigns a fresh remote id and the canonical timestamp, then stores
// the document.
func (s *EtcdStore[T, R]) Create(ctx context.Context, m R) (R, error) {
	var none R
	m.SetRemoteID(uuid.NewString())
	m.SetRemoteUpdatedAt(s.now().UTC())
	if err := s.marshalAndPut(ctx, "create", m); err != nil {
		return none, err
	}
	s.log.WithField("remote_id", m.RemoteID()).Debug("Created remote record")
	return m, nil
}

// Update overwrites an existing document. Updating an unknown id is a
// rejection, not a transport failure.
func (s *EtcdStore[T, R]) Update(ctx context.Context, remoteID string, m R) (R, error) {
	var none R
	_, found, err := s.client.get(ctx, s.key(remoteID))
	if err != nil {
		return none, &UnavailableError{Op: "update", Err: err}
	}
	if !found {
		return none, &RejectedError{Op: "update", Reason: "unknown remote id " + remoteID}
	}
	m.SetRemoteID(remoteID)
	m.SetRemoteUpdatedAt(s.now().UTC())
	if err := s.marshalAndPut(ctx, "update", m); err != nil {
		return none, err
	}
	s.log.WithField("remote_id", remoteID).Debug("Updated remote record")
	return m, nil
}

// Delete removes the document. Deleting an already-absent id succeeds, so a
// retried tombstone push converges.
func (s *EtcdStore[T, R]) Delete(ctx context.Context, remoteID string) error {
	if err := s.client.delete(ctx, s.key(remoteID)); err != nil {
		return &UnavailableError{Op: "delete", Err: err}
	}
	s.log.WithField("remote_id", remoteID).Debug("Deleted remote record")
	return nil
}

// ListChangedSince ranges over the type's namespace and keeps documents
// updated strictly after since.
func (s *EtcdStore[T, R]) ListChangedSince(ctx context.Context, since time.Time) ([]R, error) {
	values, err := s.client.getRange(ctx, s.key("")+"/")
	if err != nil {
		return nil, &UnavailableError{Op: "list", Err: err}
	}

	var out []R
	for _, value := range values {
		var doc T
		m := R(&doc)
		if err := json.Unmarshal([]byte(value), m); err != nil {
			// A malformed document is a bug on the writing side; skip it
			// rather than failing the whole pull.
			s.log.WithError(err).Warn("Skipping malformed remote document")
			continue
		}
		if m.RemoteUpdatedAt().After(since) {
			out = append(out, m)
		}
	}
	return out, nil
}
