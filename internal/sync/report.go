package sync

import (
	"time"

	"github.com/fairsplit/syncengine/internal/model"
)

// Outcome labels what happened to one record during a pass.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeUpdated Outcome = "updated"
	OutcomeDeleted Outcome = "deleted"
	OutcomePulled  Outcome = "pulled"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// RecordOutcome is the per-record line item of a TypeReport.
type RecordOutcome struct {
	LocalID  int64
	RemoteID string
	Outcome  Outcome
	Reason   string
}

// TypeReport summarizes one manager pass over one entity type.
type TypeReport struct {
	Type    model.EntityType
	Pushed  int
	Pulled  int
	Skipped int
	Failed  int
	// PhaseErr is set when a whole phase aborted, typically because the
	// remote endpoint was unreachable. Per-record outcomes before the
	// abort still count.
	PhaseErr error
	Outcomes []RecordOutcome
}

func (r *TypeReport) record(localID int64, remoteID string, outcome Outcome, reason string) {
	r.Outcomes = append(r.Outcomes, RecordOutcome{
		LocalID:  localID,
		RemoteID: remoteID,
		Outcome:  outcome,
		Reason:   reason,
	})
	switch outcome {
	case OutcomeCreated, OutcomeUpdated, OutcomeDeleted:
		r.Pushed++
	case OutcomePulled:
		r.Pulled++
	case OutcomeSkipped:
		r.Skipped++
	case OutcomeFailed:
		r.Failed++
	}
}

// RunReport summarizes one full orchestrated pass over all entity types.
type RunReport struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Types      []TypeReport
}

// Clean reports whether the pass finished without any phase abort or
// per-record failure. Skips are not failures.
func (r *RunReport) Clean() bool {
	for _, tr := range r.Types {
		if tr.PhaseErr != nil || tr.Failed > 0 {
			return false
		}
	}
	return true
}

// Totals sums the per-type counters.
func (r *RunReport) Totals() (pushed, pulled, skipped, failed int) {
	for _, tr := range r.Types {
		pushed += tr.Pushed
		pulled += tr.Pulled
		skipped += tr.Skipped
		failed += tr.Failed
	}
	return pushed, pulled, skipped, failed
}
