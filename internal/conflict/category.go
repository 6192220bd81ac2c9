package conflict

import (
	"fmt"
	"strings"

	"github.com/driftwatch/driftwatch/internal/model"
)

// MinConfidence is the floor below which no conflict is surfaced.
const MinConfidence = 0.65

// Structured matching bounds shared by every category table.
const (
	structuredMax = 0.96
)

// opposingValues are enumerated parameter values considered opposites.
// Comparison is case-insensitive.
var opposingValues = [][2]string{
	{"increase", "decrease"},
	{"expand", "reduce"},
	{"grow", "shrink"},
	{"accelerate", "delay"},
	{"centralize", "decentralize"},
	{"insource", "outsource"},
	{"adopt", "retire"},
	{"raise", "cut"},
	{"onshore", "offshore"},
}

// categoryComparator compares two structured parameter sets belonging to
// the same canonical category.
type categoryComparator func(a, b model.Parameters) (model.Conflict, bool)

// categoryTables is the single comparison table keyed by canonical category
// name, consumed by both the assumption and decision detectors so their
// scoring semantics cannot drift apart.
//
// Each comparator follows the same shape: a category-specific trigger
// establishes the base confidence, each additional matching discriminating
// field adds weight, and the result is capped at the category maximum.
var categoryTables = map[string]categoryComparator{
	"budget":    compareBudget,
	"resource":  compareResource,
	"timeline":  compareTimeline,
	"technical": compareTechnical,
	"strategic": compareStrategic,
}

// canonicalCategory maps free-form category labels onto table keys, so
// "Budget", "budget planning", and "Technical Architecture" all land on
// their intended tables. Unknown categories return "" (no structured match).
func canonicalCategory(category string) string {
	c := strings.ToLower(strings.TrimSpace(category))
	switch {
	case strings.Contains(c, "budget"):
		return "budget"
	case strings.Contains(c, "resource"):
		return "resource"
	case strings.Contains(c, "timeline"), strings.Contains(c, "schedule"):
		return "timeline"
	case strings.Contains(c, "technic"):
		return "technical"
	case strings.Contains(c, "strateg"):
		return "strategic"
	default:
		return ""
	}
}

// compareStructured runs the shared category table for two entities.
// Applies only when both carry categories mapping to the same table.
func compareStructured(categoryA, categoryB string, a, b model.Parameters) (model.Conflict, bool) {
	keyA, keyB := canonicalCategory(categoryA), canonicalCategory(categoryB)
	if keyA == "" || keyA != keyB {
		return model.Conflict{}, false
	}
	compare := categoryTables[keyA]
	return compare(a, b)
}

func compareBudget(a, b model.Parameters) (model.Conflict, bool) {
	// Opposite enumerated directions: the strongest budget signal.
	if opposite(a.String("direction"), b.String("direction")) {
		conf, matched := contextBonus(0.80, 0.06, structuredMax, a, b, "resourceType", "timeframe")
		return model.Conflict{
			Type:       model.ConflictContradictory,
			Confidence: conf,
			Reason: fmt.Sprintf("opposite budget directions (%s vs %s)%s",
				a.String("direction"), b.String("direction"), matchedSuffix(matched, a)),
		}, true
	}

	// Same resource, different numeric allocations: competition for the
	// same pool rather than outright contradiction.
	if bothEqual(a, b, "resourceType") {
		amtA, okA := a.Number("amount")
		amtB, okB := b.Number("amount")
		if okA && okB && amtA != amtB {
			conf, matched := contextBonus(0.78, 0.06, 0.90, a, b, "timeframe")
			return model.Conflict{
				Type:       model.ConflictResourceCompetition,
				Confidence: conf,
				Reason: fmt.Sprintf("different allocations (%.0f vs %.0f) for %s%s",
					amtA, amtB, a.String("resourceType"), matchedSuffix(matched, a)),
			}, true
		}
	}

	// Matching timeframe with incompatible milestone expectations.
	if bothEqual(a, b, "timeframe") && bothDiffer(a, b, "milestone") {
		conf, matched := contextBonus(0.79, 0.05, 0.89, a, b, "resourceType")
		return model.Conflict{
			Type:       model.ConflictTimeline,
			Confidence: conf,
			Reason: fmt.Sprintf("incompatible milestones (%s vs %s) for %s%s",
				a.String("milestone"), b.String("milestone"), a.String("timeframe"), matchedSuffix(matched, a)),
		}, true
	}

	return model.Conflict{}, false
}

func compareResource(a, b model.Parameters) (model.Conflict, bool) {
	if opposite(a.String("direction"), b.String("direction")) {
		conf, matched := contextBonus(0.80, 0.05, 0.94, a, b, "resourceType", "team", "timeframe")
		return model.Conflict{
			Type:       model.ConflictContradictory,
			Confidence: conf,
			Reason: fmt.Sprintf("opposite allocation directions (%s vs %s)%s",
				a.String("direction"), b.String("direction"), matchedSuffix(matched, a)),
		}, true
	}

	if bothEqual(a, b, "resourceType") {
		allocA, okA := a.Number("allocation")
		allocB, okB := b.Number("allocation")
		if okA && okB && allocA != allocB {
			conf, matched := contextBonus(0.78, 0.05, 0.92, a, b, "team", "timeframe")
			return model.Conflict{
				Type:       model.ConflictResourceCompetition,
				Confidence: conf,
				Reason: fmt.Sprintf("competing allocations (%.0f vs %.0f) of %s%s",
					allocA, allocB, a.String("resourceType"), matchedSuffix(matched, a)),
			}, true
		}
	}

	return model.Conflict{}, false
}

func compareTimeline(a, b model.Parameters) (model.Conflict, bool) {
	if bothEqual(a, b, "timeframe") && bothDiffer(a, b, "milestone") {
		conf, matched := contextBonus(0.80, 0.05, 0.92, a, b, "project", "deliverable")
		return model.Conflict{
			Type:       model.ConflictTimeline,
			Confidence: conf,
			Reason: fmt.Sprintf("incompatible milestones (%s vs %s) in %s%s",
				a.String("milestone"), b.String("milestone"), a.String("timeframe"), matchedSuffix(matched, a)),
		}, true
	}

	if opposite(a.String("direction"), b.String("direction")) && bothEqual(a, b, "timeframe") {
		conf, matched := contextBonus(0.80, 0.06, 0.92, a, b, "project")
		return model.Conflict{
			Type:       model.ConflictContradictory,
			Confidence: conf,
			Reason: fmt.Sprintf("opposite schedule directions (%s vs %s) in %s%s",
				a.String("direction"), b.String("direction"), a.String("timeframe"), matchedSuffix(matched, a)),
		}, true
	}

	return model.Conflict{}, false
}

func compareTechnical(a, b model.Parameters) (model.Conflict, bool) {
	// Same component, different technology choice. Tuned high: structured
	// technical parameters are dropdown-sourced and rarely ambiguous.
	if bothEqual(a, b, "component") && bothDiffer(a, b, "technology") {
		conf, matched := contextBonus(0.91, 0.02, structuredMax, a, b, "environment", "platform")
		return model.Conflict{
			Type:       model.ConflictContradictory,
			Confidence: conf,
			Reason: fmt.Sprintf("conflicting technology choices (%s vs %s) for component %s%s",
				a.String("technology"), b.String("technology"), a.String("component"), matchedSuffix(matched, a)),
		}, true
	}

	if opposite(a.String("direction"), b.String("direction")) && bothEqual(a, b, "component") {
		conf, matched := contextBonus(0.80, 0.05, 0.92, a, b, "platform")
		return model.Conflict{
			Type:       model.ConflictContradictory,
			Confidence: conf,
			Reason: fmt.Sprintf("opposite technical directions (%s vs %s) for component %s%s",
				a.String("direction"), b.String("direction"), a.String("component"), matchedSuffix(matched, a)),
		}, true
	}

	return model.Conflict{}, false
}

func compareStrategic(a, b model.Parameters) (model.Conflict, bool) {
	if opposite(a.String("direction"), b.String("direction")) {
		conf, matched := contextBonus(0.80, 0.05, 0.95, a, b, "market", "objective", "timeframe")
		return model.Conflict{
			Type:       model.ConflictContradictory,
			Confidence: conf,
			Reason: fmt.Sprintf("opposite strategic directions (%s vs %s)%s",
				a.String("direction"), b.String("direction"), matchedSuffix(matched, a)),
		}, true
	}

	if bothEqual(a, b, "objective") && bothDiffer(a, b, "approach") {
		conf, matched := contextBonus(0.78, 0.05, 0.90, a, b, "market")
		return model.Conflict{
			Type:       model.ConflictResourceCompetition,
			Confidence: conf,
			Reason: fmt.Sprintf("divergent approaches (%s vs %s) to objective %s%s",
				a.String("approach"), b.String("approach"), a.String("objective"), matchedSuffix(matched, a)),
		}, true
	}

	return model.Conflict{}, false
}

// opposite reports whether two enumerated values form a known opposing
// pair, in either order.
func opposite(x, y string) bool {
	if x == "" || y == "" {
		return false
	}
	x, y = strings.ToLower(x), strings.ToLower(y)
	for _, pair := range opposingValues {
		if (x == pair[0] && y == pair[1]) || (x == pair[1] && y == pair[0]) {
			return true
		}
	}
	return false
}

// bothEqual reports whether both sides carry key with the same
// case-insensitive string value.
func bothEqual(a, b model.Parameters, key string) bool {
	va, vb := a.String(key), b.String(key)
	return va != "" && strings.EqualFold(va, vb)
}

// bothDiffer reports whether both sides carry key with different values.
func bothDiffer(a, b model.Parameters, key string) bool {
	va, vb := a.String(key), b.String(key)
	return va != "" && vb != "" && !strings.EqualFold(va, vb)
}

// contextBonus adds weight per additional matching discriminating field and
// caps the result. Adding a matching field never decreases confidence.
// Returns the capped confidence and the keys that matched.
func contextBonus(base, weight, limit float64, a, b model.Parameters, keys ...string) (float64, []string) {
	conf := base
	var matched []string
	for _, key := range keys {
		if bothEqual(a, b, key) {
			conf += weight
			matched = append(matched, key)
		}
	}
	if conf > limit {
		conf = limit
	}
	return conf, matched
}

// matchedSuffix renders the matching context fields for reason text.
func matchedSuffix(matched []string, a model.Parameters) string {
	if len(matched) == 0 {
		return ""
	}
	parts := make([]string, len(matched))
	for i, key := range matched {
		parts[i] = fmt.Sprintf("%s=%s", key, a.String(key))
	}
	return " [" + strings.Join(parts, ", ") + "]"
}
