package testutil

import (
	"time"

	"github.com/driftwatch/driftwatch/internal/model"
)

// Epoch is the reference instant fixtures are built around.
var Epoch = time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)

// NewDecision builds a healthy STABLE decision created and reviewed at Epoch.
// Callers mutate the returned value to shape their scenario.
func NewDecision(id string) model.Decision {
	return model.Decision{
		ID:             id,
		Title:          "decision " + id,
		Lifecycle:      model.LifecycleStable,
		HealthSignal:   90,
		CreatedAt:      Epoch,
		LastReviewedAt: Epoch,
	}
}

// NewAssumption builds a VALID universal assumption created at Epoch.
func NewAssumption(id, description string) model.Assumption {
	return model.Assumption{
		ID:          id,
		Description: description,
		Status:      model.AssumptionValid,
		Scope:       model.ScopeUniversal,
		CreatedAt:   Epoch,
	}
}

// ThresholdConstraint builds a mutable threshold constraint.
func ThresholdConstraint(id, field, op string, value float64) model.Constraint {
	return model.Constraint{
		ID:   id,
		Name: "constraint " + id,
		Rule: model.Rule{Kind: model.RuleThreshold, Field: field, Op: op, Value: value},
	}
}
