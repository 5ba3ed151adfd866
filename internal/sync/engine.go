package sync

import (
	"context"

	"github.com/fairsplit/syncengine/internal/convert"
	"github.com/fairsplit/syncengine/internal/identity"
	"github.com/fairsplit/syncengine/internal/model"
	"github.com/fairsplit/syncengine/internal/remote"
	"github.com/fairsplit/syncengine/internal/resolve"
	"github.com/fairsplit/syncengine/internal/store"
)

// Engine bundles the fully wired orchestrator with the shared pieces the
// repository facades also need: the identity map, the record locks and the
// per-type managers.
type Engine struct {
	orchestrator *Orchestrator

	IDs   identity.Map
	Locks *KeyedLock

	Users        *Manager[*model.User, *model.RemoteUser]
	Groups       *Manager[*model.Group, *model.RemoteGroup]
	Preferences  *Manager[*model.Preference, *model.RemotePreference]
	Members      *Manager[*model.Member, *model.RemoteMember]
	Accounts     *Manager[*model.Account, *model.RemoteAccount]
	Transactions *Manager[*model.Transaction, *model.RemoteTransaction]
	Payments     *Manager[*model.Payment, *model.RemotePayment]
	Conversions  *Manager[*model.Conversion, *model.RemoteConversion]
}

// NewEngine wires managers for every entity type on top of the Postgres
// pool and the etcd connection.
func NewEngine(pool store.PgxIface, etcd *remote.EtcdClient, session SessionCheck, cfg Config) *Engine {
	cfg = cfg.withDefaults()

	ids := identity.NewPgMap(pool)
	cursors := store.NewPgCursors(pool)
	locks := NewKeyedLock()

	e := &Engine{IDs: ids, Locks: locks}

	e.Users = NewManager(model.TypeUser,
		store.NewUserStore(pool),
		wrap(model.TypeUser, remote.NewEtcdStore[model.RemoteUser, *model.RemoteUser](etcd, model.TypeUser)),
		convert.NewUserConverter(ids), ids, cursors, locks, nil, cfg)

	e.Groups = NewManager(model.TypeGroup,
		store.NewGroupStore(pool),
		wrap(model.TypeGroup, remote.NewEtcdStore[model.RemoteGroup, *model.RemoteGroup](etcd, model.TypeGroup)),
		convert.NewGroupConverter(ids), ids, cursors, locks, nil, cfg)

	e.Preferences = NewManager(model.TypePreference,
		store.NewPreferenceStore(pool),
		wrap(model.TypePreference, remote.NewEtcdStore[model.RemotePreference, *model.RemotePreference](etcd, model.TypePreference)),
		convert.NewPreferenceConverter(ids), ids, cursors, locks, nil, cfg)

	e.Members = NewManager(model.TypeMember,
		store.NewMemberStore(pool),
		wrap(model.TypeMember, remote.NewEtcdStore[model.RemoteMember, *model.RemoteMember](etcd, model.TypeMember)),
		convert.NewMemberConverter(ids), ids, cursors, locks, nil, cfg)

	e.Accounts = NewManager(model.TypeAccount,
		store.NewAccountStore(pool),
		wrap(model.TypeAccount, remote.NewEtcdStore[model.RemoteAccount, *model.RemoteAccount](etcd, model.TypeAccount)),
		convert.NewAccountConverter(ids), ids, cursors, locks,
		resolve.StickyMerge[*model.Account](resolve.MergeAccountFlags), cfg)

	e.Transactions = NewManager(model.TypeTransaction,
		store.NewTransactionStore(pool),
		wrap(model.TypeTransaction, remote.NewEtcdStore[model.RemoteTransaction, *model.RemoteTransaction](etcd, model.TypeTransaction)),
		convert.NewTransactionConverter(ids), ids, cursors, locks, nil, cfg)

	e.Payments = NewManager(model.TypePayment,
		store.NewPaymentStore(pool),
		wrap(model.TypePayment, remote.NewEtcdStore[model.RemotePayment, *model.RemotePayment](etcd, model.TypePayment)),
		convert.NewPaymentConverter(ids), ids, cursors, locks, nil, cfg)

	e.Conversions = NewManager(model.TypeConversion,
		store.NewConversionStore(pool),
		wrap(model.TypeConversion, remote.NewEtcdStore[model.RemoteConversion, *model.RemoteConversion](etcd, model.TypeConversion)),
		convert.NewConversionConverter(ids), ids, cursors, locks, nil, cfg)

	e.orchestrator = NewOrchestrator(session,
		e.Users, e.Groups, e.Preferences, e.Members,
		e.Accounts, e.Transactions, e.Payments, e.Conversions)
	return e
}

// wrap puts the duplicate-suppression layer in front of a remote adapter.
func wrap[R model.Remote](typ model.EntityType, api remote.API[R]) remote.API[R] {
	return remote.NewCoalescer(typ, api)
}

// Sync runs one full orchestrated pass.
func (e *Engine) Sync(ctx context.Context) (*RunReport, error) {
	return e.orchestrator.Run(ctx)
}
