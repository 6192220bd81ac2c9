package conflict

import (
	"fmt"
	"sort"

	"github.com/driftwatch/driftwatch/internal/model"
)

// DetectAssumptionConflicts runs pairwise detection over a list of
// assumptions and returns confidence-scored contradiction candidates.
//
// One pass over all unordered pairs, O(n²). Inputs are sorted by id first,
// so input order never affects the output and every pair is reported in
// canonical (min, max) id order. Structured-parameter matching wins over
// the text-heuristic fallback; pairs below MinConfidence are discarded.
func DetectAssumptionConflicts(assumptions []model.Assumption) []model.ConflictPair {
	sorted := make([]model.Assumption, len(assumptions))
	copy(sorted, assumptions)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var pairs []model.ConflictPair
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			a, b := sorted[i], sorted[j]
			if a.ID == b.ID {
				continue
			}
			if c, ok := compareAssumptions(a, b); ok && c.Confidence >= MinConfidence {
				pairs = append(pairs, model.ConflictPair{IDA: a.ID, IDB: b.ID, Conflict: c})
			}
		}
	}
	return pairs
}

// compareAssumptions applies the strategy ladder to one pair: structured
// parameters first, text heuristics only when structured matching found
// nothing.
func compareAssumptions(a, b model.Assumption) (model.Conflict, bool) {
	if c, ok := compareStructured(a.Category, b.Category, a.Parameters, b.Parameters); ok {
		return c, true
	}
	return compareAssumptionText(a, b)
}

// compareAssumptionText scans both descriptions for known antonym pairs and
// shared-context keywords. A match requires both an opposing-term hit and a
// shared-context hit: antonyms alone co-occur too easily in unrelated
// statements.
func compareAssumptionText(a, b model.Assumption) (model.Conflict, bool) {
	tokensA, tokensB := tokenize(a.Description), tokenize(b.Description)

	opposing, pair := opposingHits(tokensA, tokensB)
	if opposing == 0 {
		return model.Conflict{}, false
	}
	shared := sharedContext(tokensA, tokensB)
	if len(shared) == 0 {
		return model.Conflict{}, false
	}

	conf := 0.68 + 0.04*float64(len(shared)-1) + 0.04*float64(opposing-1)
	if conf > 0.85 {
		conf = 0.85
	}
	return model.Conflict{
		Type:       model.ConflictContradictory,
		Confidence: conf,
		Reason: fmt.Sprintf("opposing terms %q vs %q with shared context %v",
			pair[0], pair[1], shared),
	}, true
}
