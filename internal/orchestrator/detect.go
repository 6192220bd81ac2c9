package orchestrator

import (
	"context"

	"github.com/google/uuid"

	"github.com/driftwatch/driftwatch/internal/conflict"
	"github.com/driftwatch/driftwatch/internal/model"
)

// DetectionReport summarizes one detection run. Duplicates counts pairs the
// detector re-found that were already on record; re-running detection over
// unchanged data yields Inserted == 0.
type DetectionReport struct {
	RunToken   string               `json:"run_token"`
	Pairs      []model.ConflictPair `json:"pairs"`
	Inserted   int                  `json:"inserted"`
	Duplicates int                  `json:"duplicates"`
}

// DetectAssumptionConflicts runs pairwise contradiction detection over all
// stored assumptions and persists new findings.
func (o *Orchestrator) DetectAssumptionConflicts(ctx context.Context) (DetectionReport, error) {
	assumptions, err := o.store.ListAssumptions(ctx)
	if err != nil {
		return DetectionReport{}, err
	}
	pairs := conflict.DetectAssumptionConflicts(assumptions)
	return o.recordRun(ctx, model.KindAssumption, pairs)
}

// DetectDecisionConflicts runs pairwise conflict detection over decisions in
// active lifecycle states and persists new findings. INVALIDATED and RETIRED
// decisions are history, not positions, so they never conflict with anything.
func (o *Orchestrator) DetectDecisionConflicts(ctx context.Context) (DetectionReport, error) {
	decisions, err := o.store.ListActiveDecisions(ctx)
	if err != nil {
		return DetectionReport{}, err
	}

	// Premise invalidation scans the older decision's linked assumptions.
	linked := make(map[string][]model.Assumption, len(decisions))
	for _, d := range decisions {
		assumptions, err := o.store.AssumptionsForDecision(ctx, d.ID)
		if err != nil {
			return DetectionReport{}, err
		}
		if len(assumptions) > 0 {
			linked[d.ID] = assumptions
		}
	}

	pairs := conflict.DetectDecisionConflicts(decisions, linked)
	return o.recordRun(ctx, model.KindDecision, pairs)
}

// recordRun stamps a detection run with a fresh token and persists every
// pair. The store's canonical-pair uniqueness makes this idempotent.
func (o *Orchestrator) recordRun(ctx context.Context, kind model.ConflictKind, pairs []model.ConflictPair) (DetectionReport, error) {
	now, err := o.Now(ctx)
	if err != nil {
		return DetectionReport{}, err
	}

	report := DetectionReport{
		RunToken: uuid.Must(uuid.NewV7()).String(),
		Pairs:    pairs,
	}
	for _, p := range pairs {
		inserted, err := o.store.WriteConflict(ctx, model.ConflictRecord{
			ID:         uuid.Must(uuid.NewV7()).String(),
			Kind:       kind,
			IDA:        p.IDA,
			IDB:        p.IDB,
			Type:       p.Conflict.Type,
			Confidence: p.Conflict.Confidence,
			Reason:     p.Conflict.Reason,
			OlderID:    p.Conflict.OlderID,
			RunToken:   report.RunToken,
			DetectedAt: now,
		})
		if err != nil {
			return DetectionReport{}, err
		}
		if inserted {
			report.Inserted++
			o.log.Info("conflict detected",
				"kind", kind,
				"type", p.Conflict.Type,
				"pair", p.IDA+"/"+p.IDB,
				"confidence", p.Conflict.Confidence)
		} else {
			report.Duplicates++
		}
	}
	o.log.Info("detection run finished",
		"kind", kind,
		"run", report.RunToken,
		"found", len(pairs),
		"new", report.Inserted)
	return report, nil
}
