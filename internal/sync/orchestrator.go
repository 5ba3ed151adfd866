package sync

import (
	"context"
	"errors"
	"sort"
	stdsync "sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fairsplit/syncengine/internal/model"
)

// ErrNoSession means no authenticated session exists. A pass without one
// cannot do anything useful, so the whole run aborts before touching any
// type.
var ErrNoSession = errors.New("no authenticated session")

// ErrSyncInProgress is returned when a run is requested while another is
// still going. Passes never overlap; the caller simply waits for the next
// scheduled one.
var ErrSyncInProgress = errors.New("sync pass already in progress")

// SessionCheck reports whether an authenticated session exists. It returns
// ErrNoSession (possibly wrapped) when it does not.
type SessionCheck func(ctx context.Context) error

// runner is the type-erased surface the orchestrator drives. Every
// Manager[L, R] satisfies it.
type runner interface {
	Type() model.EntityType
	Tier() int
	Run(ctx context.Context) TypeReport
}

// Orchestrator runs every manager sequentially in ascending tier order, so
// records land on the remote side before anything that references them.
// One type failing never stops the others; its report carries the error.
type Orchestrator struct {
	runners []runner
	session SessionCheck
	log     *logrus.Entry

	mu      stdsync.Mutex
	running bool
}

// NewOrchestrator sorts the runners by tier and keeps that order for every
// run. session may be nil when the caller guarantees one exists.
func NewOrchestrator(session SessionCheck, runners ...runner) *Orchestrator {
	sorted := make([]runner, len(runners))
	copy(sorted, runners)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Tier() < sorted[j].Tier()
	})
	return &Orchestrator{
		runners: sorted,
		session: session,
		log:     logrus.WithField("component", "orchestrator"),
	}
}

// Run executes one full pass over all entity types. It refuses to overlap
// with a pass already in flight.
func (o *Orchestrator) Run(ctx context.Context) (*RunReport, error) {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return nil, ErrSyncInProgress
	}
	o.running = true
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.running = false
		o.mu.Unlock()
	}()

	if o.session != nil {
		if err := o.session(ctx); err != nil {
			o.log.WithError(err).Warn("Skipping sync pass, no session")
			return nil, err
		}
	}

	report := &RunReport{StartedAt: time.Now()}
	for _, r := range o.runners {
		if err := ctx.Err(); err != nil {
			report.FinishedAt = time.Now()
			return report, err
		}
		tr := r.Run(ctx)
		report.Types = append(report.Types, tr)
		if tr.PhaseErr != nil {
			o.log.WithError(tr.PhaseErr).WithField("entity_type", r.Type()).
				Warn("Type pass aborted, continuing with next type")
		}
	}
	report.FinishedAt = time.Now()

	pushed, pulled, skipped, failed := report.Totals()
	o.log.WithFields(logrus.Fields{
		"pushed":   pushed,
		"pulled":   pulled,
		"skipped":  skipped,
		"failed":   failed,
		"duration": report.FinishedAt.Sub(report.StartedAt).String(),
	}).Info("Sync pass finished")
	return report, nil
}
