package model

import (
	"strings"
	"time"
)

// AssumptionStatus is the validity state of an assumption.
type AssumptionStatus string

const (
	AssumptionValid  AssumptionStatus = "VALID"
	AssumptionShaky  AssumptionStatus = "SHAKY"
	AssumptionBroken AssumptionStatus = "BROKEN"
)

// ParseAssumptionStatus normalizes a stored status string.
//
// Legacy installations carry HOLDING and UNKNOWN statuses; both map to
// VALID for evaluation purposes. Unrecognized statuses also map to VALID so
// that incomplete data degrades to "no signal" instead of failing.
func ParseAssumptionStatus(s string) AssumptionStatus {
	switch AssumptionStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case AssumptionShaky:
		return AssumptionShaky
	case AssumptionBroken:
		return AssumptionBroken
	case AssumptionValid, "HOLDING", "UNKNOWN":
		return AssumptionValid
	default:
		return AssumptionValid
	}
}

// AssumptionScope distinguishes universally-held assumptions from ones tied
// to a specific decision.
type AssumptionScope string

const (
	ScopeUniversal        AssumptionScope = "UNIVERSAL"
	ScopeDecisionSpecific AssumptionScope = "DECISION_SPECIFIC"
)

// Assumption is a supporting fact that decisions rest on. An assumption may
// be linked to many decisions; a BROKEN assumption degrades every decision
// it is linked to.
type Assumption struct {
	ID          string           `json:"id"`
	Description string           `json:"description"`
	Status      AssumptionStatus `json:"status"`
	Scope       AssumptionScope  `json:"scope"`
	Category    string           `json:"category,omitempty"`
	Parameters  Parameters       `json:"parameters,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	ValidatedAt *time.Time       `json:"validated_at,omitempty"`
}
