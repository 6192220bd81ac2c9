package model

import (
	"fmt"
	"strings"
	"time"
)

// Lifecycle is a decision's position in the health state machine.
type Lifecycle string

const (
	LifecycleStable      Lifecycle = "STABLE"
	LifecycleUnderReview Lifecycle = "UNDER_REVIEW"
	LifecycleAtRisk      Lifecycle = "AT_RISK"
	LifecycleInvalidated Lifecycle = "INVALIDATED"
	LifecycleRetired     Lifecycle = "RETIRED"
)

// Terminal reports whether the lifecycle state is frozen.
//
// INVALIDATED and RETIRED decisions are preserved organizational history:
// the engine must return "no change" for them regardless of input.
func (l Lifecycle) Terminal() bool {
	return l == LifecycleInvalidated || l == LifecycleRetired
}

// ParseLifecycle parses a lifecycle string, case-insensitively.
func ParseLifecycle(s string) (Lifecycle, error) {
	switch Lifecycle(strings.ToUpper(strings.TrimSpace(s))) {
	case LifecycleStable:
		return LifecycleStable, nil
	case LifecycleUnderReview:
		return LifecycleUnderReview, nil
	case LifecycleAtRisk:
		return LifecycleAtRisk, nil
	case LifecycleInvalidated:
		return LifecycleInvalidated, nil
	case LifecycleRetired:
		return LifecycleRetired, nil
	default:
		return "", fmt.Errorf("unknown lifecycle %q", s)
	}
}

// Decision is a tracked organizational decision.
//
// HealthSignal is an integer in [0,100] summarizing current trustworthiness.
// The engine reads a Decision and returns a proposed next state; it never
// mutates one in place.
type Decision struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	Lifecycle         Lifecycle  `json:"lifecycle"`
	HealthSignal      int        `json:"health_signal"`
	Category          string     `json:"category,omitempty"`
	Parameters        Parameters `json:"parameters,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	LastReviewedAt    time.Time  `json:"last_reviewed_at"`
	ExpiryDate        *time.Time `json:"expiry_date,omitempty"`
	InvalidatedReason string     `json:"invalidated_reason,omitempty"`
}

// DependencyEdge is a directed dependency between decisions.
// The source decision depends on (is blocked by) the target decision.
type DependencyEdge struct {
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
}
