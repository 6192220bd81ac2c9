package engine

import (
	"github.com/driftwatch/driftwatch/internal/model"
)

// RuleOutcome is the result of evaluating a constraint rule against a
// decision. Unknown is a first-class outcome, not an error: one
// uninterpretable rule must not abort evaluation of an otherwise-healthy
// decision.
type RuleOutcome int

const (
	RuleSatisfied RuleOutcome = iota
	RuleViolated
	RuleUnknown
)

// maxRuleDepth bounds composition nesting. Deeper rules evaluate to
// unknown rather than recursing without limit on malformed input.
const maxRuleDepth = 16

// evaluateRule dispatches over the rule variant tag.
func evaluateRule(r model.Rule, d model.Decision) RuleOutcome {
	return evaluateRuleDepth(r, d, 0)
}

func evaluateRuleDepth(r model.Rule, d model.Decision, depth int) RuleOutcome {
	if depth > maxRuleDepth {
		return RuleUnknown
	}

	switch r.Kind {
	case model.RuleThreshold:
		return evaluateThreshold(r, d)
	case model.RuleMembership:
		return evaluateMembership(r, d)
	case model.RuleAllOf:
		return evaluateAllOf(r.Rules, d, depth)
	case model.RuleAnyOf:
		return evaluateAnyOf(r.Rules, d, depth)
	default:
		return RuleUnknown
	}
}

// evaluateThreshold checks "field op value" against a numeric decision
// parameter. A missing or non-numeric field means the rule cannot be
// interpreted for this decision.
func evaluateThreshold(r model.Rule, d model.Decision) RuleOutcome {
	if r.Field == "" {
		return RuleUnknown
	}
	actual, ok := d.Parameters.Number(r.Field)
	if !ok {
		return RuleUnknown
	}

	var holds bool
	switch r.Op {
	case "<":
		holds = actual < r.Value
	case "<=":
		holds = actual <= r.Value
	case ">":
		holds = actual > r.Value
	case ">=":
		holds = actual >= r.Value
	case "==":
		holds = actual == r.Value
	case "!=":
		holds = actual != r.Value
	default:
		return RuleUnknown
	}

	if holds {
		return RuleSatisfied
	}
	return RuleViolated
}

// evaluateMembership requires a string decision parameter to be one of the
// allowed values.
func evaluateMembership(r model.Rule, d model.Decision) RuleOutcome {
	if r.Field == "" || len(r.Values) == 0 {
		return RuleUnknown
	}
	actual := d.Parameters.String(r.Field)
	if actual == "" {
		return RuleUnknown
	}
	for _, v := range r.Values {
		if v == actual {
			return RuleSatisfied
		}
	}
	return RuleViolated
}

// evaluateAllOf: violated if any child is violated, unknown if any child is
// unknown, satisfied otherwise. Empty composition is uninterpretable.
func evaluateAllOf(rules []model.Rule, d model.Decision, depth int) RuleOutcome {
	if len(rules) == 0 {
		return RuleUnknown
	}
	sawUnknown := false
	for _, child := range rules {
		switch evaluateRuleDepth(child, d, depth+1) {
		case RuleViolated:
			return RuleViolated
		case RuleUnknown:
			sawUnknown = true
		}
	}
	if sawUnknown {
		return RuleUnknown
	}
	return RuleSatisfied
}

// evaluateAnyOf: satisfied if any child is satisfied, unknown if any child
// is unknown, violated otherwise. Empty composition is uninterpretable.
func evaluateAnyOf(rules []model.Rule, d model.Decision, depth int) RuleOutcome {
	if len(rules) == 0 {
		return RuleUnknown
	}
	sawUnknown := false
	for _, child := range rules {
		switch evaluateRuleDepth(child, d, depth+1) {
		case RuleSatisfied:
			return RuleSatisfied
		case RuleUnknown:
			sawUnknown = true
		}
	}
	if sawUnknown {
		return RuleUnknown
	}
	return RuleViolated
}
