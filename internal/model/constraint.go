package model

// RuleKind tags a constraint rule variant.
//
// Rules form a small closed set. Anything a loader cannot map onto one of
// the concrete kinds becomes RuleUnknown, which always evaluates to
// "unknown" rather than failing evaluation.
type RuleKind string

const (
	// RuleThreshold compares a numeric decision parameter against a bound.
	RuleThreshold RuleKind = "threshold"
	// RuleMembership requires a string decision parameter to be one of a set.
	RuleMembership RuleKind = "membership"
	// RuleAllOf is satisfied only when every child rule is satisfied.
	RuleAllOf RuleKind = "all_of"
	// RuleAnyOf is satisfied when at least one child rule is satisfied.
	RuleAnyOf RuleKind = "any_of"
	// RuleUnknown marks a rule expression that could not be interpreted.
	RuleUnknown RuleKind = "unknown"
)

// Rule is a tagged constraint rule expression.
//
// Field names reference the evaluated decision's structured parameters.
// Only the fields relevant to the tagged kind are populated.
type Rule struct {
	Kind   RuleKind `json:"kind"`
	Field  string   `json:"field,omitempty"`
	Op     string   `json:"op,omitempty"` // "<", "<=", ">", ">=", "==", "!="
	Value  float64  `json:"value,omitempty"`
	Values []string `json:"values,omitempty"`
	Rules  []Rule   `json:"rules,omitempty"` // children for all_of / any_of
}

// Constraint is an organizational limit linked to decisions.
//
// Violated immutable constraints are the strongest negative evaluation
// signal. A constraint additionally flagged Invalidating hard-invalidates
// the decision when violated.
type Constraint struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	ConstraintType string `json:"constraint_type"`
	Rule           Rule   `json:"rule"`
	IsImmutable    bool   `json:"is_immutable"`
	Invalidating   bool   `json:"invalidating"`
}
