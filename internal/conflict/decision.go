package conflict

import (
	"fmt"
	"sort"

	"github.com/driftwatch/driftwatch/internal/model"
)

// DetectDecisionConflicts runs pairwise detection over decisions.
//
// Five strategies evaluate in priority order; the first confident match per
// pair wins, no stacking:
//
//  1. structured-parameter conflict (shared category tables)
//  2. resource competition
//  3. contradictory actions
//  4. objective undermining
//  5. premise invalidation
//
// linkedAssumptions maps decision id to that decision's linked assumptions;
// it feeds premise invalidation (the newer decision's text is scanned for
// negation of concepts in the older decision's assumptions). Passing nil is
// valid: premise invalidation then falls back to the older decision's own
// description.
//
// Filtering to active lifecycle states is the caller's concern; the
// detector compares whatever it is given.
func DetectDecisionConflicts(decisions []model.Decision, linkedAssumptions map[string][]model.Assumption) []model.ConflictPair {
	sorted := make([]model.Decision, len(decisions))
	copy(sorted, decisions)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var pairs []model.ConflictPair
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			a, b := sorted[i], sorted[j]
			if a.ID == b.ID {
				continue
			}
			if c, ok := compareDecisions(a, b, linkedAssumptions); ok && c.Confidence >= MinConfidence {
				pairs = append(pairs, model.ConflictPair{IDA: a.ID, IDB: b.ID, Conflict: c})
			}
		}
	}
	return pairs
}

func compareDecisions(a, b model.Decision, linked map[string][]model.Assumption) (model.Conflict, bool) {
	if c, ok := compareStructured(a.Category, b.Category, a.Parameters, b.Parameters); ok {
		return c, true
	}
	if c, ok := detectResourceCompetition(a, b); ok {
		return c, true
	}
	if c, ok := detectContradictoryActions(a, b); ok {
		return c, true
	}
	if c, ok := detectObjectiveUndermining(a, b); ok {
		return c, true
	}
	return detectPremiseInvalidation(a, b, linked)
}

// detectResourceCompetition fires when both decisions claim the same
// resource: a shared resource keyword plus allocation/usage language on
// both sides.
func detectResourceCompetition(a, b model.Decision) (model.Conflict, bool) {
	tokensA, tokensB := tokenize(a.Description), tokenize(b.Description)

	shared := sharedContext(tokensA, tokensB)
	if len(shared) == 0 {
		return model.Conflict{}, false
	}
	if !hasAllocationLanguage(tokensA) || !hasAllocationLanguage(tokensB) {
		return model.Conflict{}, false
	}

	conf := 0.70 + 0.05*float64(len(shared)-1)
	if conf > 0.85 {
		conf = 0.85
	}
	return model.Conflict{
		Type:       model.ConflictResourceCompetition,
		Confidence: conf,
		Reason:     fmt.Sprintf("both decisions claim shared resources %v", shared),
	}, true
}

// detectContradictoryActions fires on an opposing-action keyword pair found
// in a shared context. Fixed confidence.
func detectContradictoryActions(a, b model.Decision) (model.Conflict, bool) {
	tokensA, tokensB := tokenize(a.Description), tokenize(b.Description)

	opposing, pair := opposingHits(tokensA, tokensB)
	if opposing == 0 {
		return model.Conflict{}, false
	}
	shared := sharedContext(tokensA, tokensB)
	if len(shared) == 0 {
		return model.Conflict{}, false
	}

	return model.Conflict{
		Type:       model.ConflictContradictory,
		Confidence: 0.80,
		Reason: fmt.Sprintf("contradictory actions %q vs %q in shared context %v",
			pair[0], pair[1], shared),
	}, true
}

// detectObjectiveUndermining fires on a curated pair of mutually-undermining
// objective phrases, one in each decision.
func detectObjectiveUndermining(a, b model.Decision) (model.Conflict, bool) {
	normA, normB := normalizeText(a.Description), normalizeText(b.Description)

	phrases, ok := underminingHit(normA, normB)
	if !ok {
		return model.Conflict{}, false
	}

	conf := 0.75
	if len(sharedContext(tokenize(a.Description), tokenize(b.Description))) > 0 {
		conf = 0.82
	}
	return model.Conflict{
		Type:       model.ConflictObjectiveUndermining,
		Confidence: conf,
		Reason:     fmt.Sprintf("objective %q undermines %q", phrases[0], phrases[1]),
	}, true
}

// detectPremiseInvalidation fires when the newer of two decisions uses
// negation/invalidation language referencing concepts the older decision
// rests on. Only considered when creation timestamps differ: without an
// ordering there is no "newer" text to scan. Directionality is preserved
// through Conflict.OlderID since the reported pair is canonically ordered.
func detectPremiseInvalidation(a, b model.Decision, linked map[string][]model.Assumption) (model.Conflict, bool) {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return model.Conflict{}, false
	}
	older, newer := a, b
	if b.CreatedAt.Before(a.CreatedAt) {
		older, newer = b, a
	}

	normNewer := normalizeText(newer.Description)
	negation, ok := negationHit(normNewer)
	if !ok {
		return model.Conflict{}, false
	}

	// Concepts come from the older decision's linked assumptions; with no
	// assumption data available, the older description itself stands in.
	concepts := make(map[string]bool)
	if assumptions := linked[older.ID]; len(assumptions) > 0 {
		for _, as := range assumptions {
			for tok := range conceptTokens(as.Description) {
				concepts[tok] = true
			}
		}
	} else {
		concepts = conceptTokens(older.Description)
	}

	newerTokens := tokenize(newer.Description)
	overlap := 0
	for tok := range concepts {
		if newerTokens[tok] {
			overlap++
		}
	}
	if overlap == 0 {
		return model.Conflict{}, false
	}

	conf := 0.70 + 0.05*float64(overlap-1)
	if conf > 0.80 {
		conf = 0.80
	}
	return model.Conflict{
		Type:       model.ConflictPremiseInvalidation,
		Confidence: conf,
		OlderID:    older.ID,
		Reason: fmt.Sprintf("decision %s uses %q against premises of earlier decision %s",
			newer.ID, negation, older.ID),
	}, true
}
