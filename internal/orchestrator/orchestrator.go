package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/driftwatch/driftwatch/internal/engine"
	"github.com/driftwatch/driftwatch/internal/model"
	"github.com/driftwatch/driftwatch/internal/store"
)

// Orchestrator drives evaluation and detection against a store.
//
// The engine stays pure; all clock reads and persistence happen here.
type Orchestrator struct {
	store  *store.Store
	engine *engine.Engine
	clock  engine.Clock
	log    *slog.Logger
	orgID  string
}

// New wires an orchestrator. The clock is the base wall clock; persisted
// per-organization offsets are layered on top of it at read time.
func New(st *store.Store, eng *engine.Engine, clock engine.Clock, log *slog.Logger, orgID string) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{store: st, engine: eng, clock: clock, log: log, orgID: orgID}
}

// Now returns the organization's current time: the base clock shifted by the
// persisted simulated offset, if any.
func (o *Orchestrator) Now(ctx context.Context) (time.Time, error) {
	offset, err := o.store.ClockOffset(ctx, o.orgID)
	if err != nil {
		return time.Time{}, err
	}
	return engine.OffsetClock{Base: o.clock, Offset: offset}.Now(), nil
}

// EvaluateDecision re-evaluates one decision and persists the result when
// anything changed. Returns the engine's full result including the trace.
func (o *Orchestrator) EvaluateDecision(ctx context.Context, id string) (engine.Result, error) {
	now, err := o.Now(ctx)
	if err != nil {
		return engine.Result{}, err
	}
	return o.evaluateAt(ctx, id, now)
}

func (o *Orchestrator) evaluateAt(ctx context.Context, id string, now time.Time) (engine.Result, error) {
	in, err := o.evaluationInput(ctx, id, now)
	if err != nil {
		return engine.Result{}, err
	}

	res, err := o.engine.Evaluate(in)
	if err != nil {
		return engine.Result{}, fmt.Errorf("evaluate %s: %w", id, err)
	}

	if res.ChangesDetected {
		if err := o.store.ApplyEvaluation(ctx, id, res.HealthSignal, res.Lifecycle, res.InvalidatedReason); err != nil {
			return engine.Result{}, err
		}
		o.log.Info("decision evaluated",
			"decision", id,
			"health", res.HealthSignal,
			"lifecycle", res.Lifecycle,
			"factors", len(res.Trace))
	} else {
		o.log.Debug("decision unchanged", "decision", id)
	}
	return res, nil
}

// evaluationInput materializes everything the engine needs for one decision.
func (o *Orchestrator) evaluationInput(ctx context.Context, id string, now time.Time) (engine.Input, error) {
	d, err := o.store.GetDecision(ctx, id)
	if err != nil {
		return engine.Input{}, err
	}
	assumptions, err := o.store.AssumptionsForDecision(ctx, id)
	if err != nil {
		return engine.Input{}, err
	}
	constraints, err := o.store.ConstraintsForDecision(ctx, id)
	if err != nil {
		return engine.Input{}, err
	}
	deps, err := o.store.UpstreamDecisions(ctx, id)
	if err != nil {
		return engine.Input{}, err
	}
	return engine.Input{
		Decision:     d,
		Assumptions:  assumptions,
		Constraints:  constraints,
		Dependencies: deps,
		Now:          now,
	}, nil
}

// BatchSummary reports a batch evaluation run.
type BatchSummary struct {
	Evaluated int      `json:"evaluated"`
	Updated   int      `json:"updated"`
	Failed    int      `json:"failed"`
	FailedIDs []string `json:"failed_ids,omitempty"`
}

func (s BatchSummary) String() string {
	return fmt.Sprintf("%d evaluated, %d updated, %d failed", s.Evaluated, s.Updated, s.Failed)
}

// EvaluateAll re-evaluates every non-retired decision at a single shared
// timestamp. One failing decision never aborts the batch; failures are
// logged and counted.
//
// Decisions are processed in id order, so a run is deterministic for a given
// store state. Propagation reads each dependency's stored health, which may
// already reflect this batch's earlier writes; repeated runs converge since
// the pull only ever moves a decision toward its upstream.
func (o *Orchestrator) EvaluateAll(ctx context.Context) (BatchSummary, error) {
	now, err := o.Now(ctx)
	if err != nil {
		return BatchSummary{}, err
	}
	decisions, err := o.store.ListNonRetired(ctx)
	if err != nil {
		return BatchSummary{}, err
	}

	var sum BatchSummary
	for _, d := range decisions {
		res, err := o.evaluateAt(ctx, d.ID, now)
		if err != nil {
			sum.Failed++
			sum.FailedIDs = append(sum.FailedIDs, d.ID)
			o.log.Error("batch evaluation failed for decision", "decision", d.ID, "error", err)
			continue
		}
		sum.Evaluated++
		if res.ChangesDetected {
			sum.Updated++
		}
	}
	o.log.Info("batch evaluation finished",
		"evaluated", sum.Evaluated, "updated", sum.Updated, "failed", sum.Failed)
	return sum, nil
}

// AdvanceClock moves the organization's simulated time forward by delta and
// re-evaluates every non-retired decision at the new time. Delta must be
// positive: simulated time never runs backward.
func (o *Orchestrator) AdvanceClock(ctx context.Context, delta time.Duration) (BatchSummary, error) {
	if delta <= 0 {
		return BatchSummary{}, fmt.Errorf("advance clock: delta must be positive, got %s", delta)
	}
	current, err := o.store.ClockOffset(ctx, o.orgID)
	if err != nil {
		return BatchSummary{}, err
	}
	if err := o.store.SetClockOffset(ctx, o.orgID, current+delta, o.clock.Now()); err != nil {
		return BatchSummary{}, err
	}
	o.log.Info("clock advanced", "org", o.orgID, "delta", delta, "total_offset", current+delta)
	return o.EvaluateAll(ctx)
}

// ResolveConflict marks a conflict resolved and, for decision conflicts,
// re-evaluates both affected decisions so their state reflects the
// resolution. A decision that disappeared since detection is skipped.
func (o *Orchestrator) ResolveConflict(ctx context.Context, conflictID, action string) error {
	rec, err := o.store.GetConflict(ctx, conflictID)
	if err != nil {
		return err
	}
	now, err := o.Now(ctx)
	if err != nil {
		return err
	}
	if err := o.store.ResolveConflict(ctx, conflictID, action, now.UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	o.log.Info("conflict resolved", "conflict", conflictID, "action", action)

	if rec.Kind != model.KindDecision {
		return nil
	}
	for _, id := range []string{rec.IDA, rec.IDB} {
		if _, err := o.evaluateAt(ctx, id, now); err != nil {
			o.log.Warn("post-resolution evaluation skipped", "decision", id, "error", err)
		}
	}
	return nil
}
