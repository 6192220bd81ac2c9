package conflict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftwatch/driftwatch/internal/model"
)

func assumption(id, category, description string, params model.Parameters) model.Assumption {
	return model.Assumption{
		ID:          id,
		Category:    category,
		Description: description,
		Parameters:  params,
		Status:      model.AssumptionValid,
		Scope:       model.ScopeUniversal,
	}
}

func TestDetectAssumptionConflictsStructured(t *testing.T) {
	input := []model.Assumption{
		assumption("asm-001", "budget", "engineering budget grows", model.Parameters{
			"direction": "increase", "resourceType": "engineering", "timeframe": "Q3",
		}),
		assumption("asm-002", "budget", "engineering budget shrinks", model.Parameters{
			"direction": "decrease", "resourceType": "engineering", "timeframe": "Q3",
		}),
	}

	pairs := DetectAssumptionConflicts(input)
	require.Len(t, pairs, 1)
	assert.Equal(t, "asm-001", pairs[0].IDA)
	assert.Equal(t, "asm-002", pairs[0].IDB)
	assert.Equal(t, model.ConflictContradictory, pairs[0].Conflict.Type)
	assert.GreaterOrEqual(t, pairs[0].Conflict.Confidence, 0.90)
}

func TestDetectAssumptionConflictsTextFallback(t *testing.T) {
	input := []model.Assumption{
		assumption("asm-001", "", "We will increase the marketing budget next year", nil),
		assumption("asm-002", "", "Finance plans to decrease the marketing budget", nil),
	}

	pairs := DetectAssumptionConflicts(input)
	require.Len(t, pairs, 1)
	c := pairs[0].Conflict
	assert.Equal(t, model.ConflictContradictory, c.Type)
	// Base 0.68 plus one extra shared-context keyword.
	assert.InDelta(t, 0.72, c.Confidence, 1e-9)
	assert.Contains(t, c.Reason, "increase")
}

func TestAntonymsWithoutSharedContextAreIgnored(t *testing.T) {
	input := []model.Assumption{
		assumption("asm-001", "", "We should increase code review rigor", nil),
		assumption("asm-002", "", "Latency will decrease after the cache lands", nil),
	}

	assert.Empty(t, DetectAssumptionConflicts(input))
}

func TestDetectAssumptionConflictsOrderIndependent(t *testing.T) {
	a := assumption("asm-b", "", "Increase the support team headcount", nil)
	b := assumption("asm-a", "", "Reduce the support team headcount", nil)
	c := assumption("asm-c", "", "Coffee consumption is steady", nil)

	forward := DetectAssumptionConflicts([]model.Assumption{a, b, c})
	reversed := DetectAssumptionConflicts([]model.Assumption{c, b, a})

	assert.Equal(t, forward, reversed)
	require.Len(t, forward, 1)
	// Canonical pair order regardless of input order.
	assert.Equal(t, "asm-a", forward[0].IDA)
	assert.Equal(t, "asm-b", forward[0].IDB)
}

func TestDetectAssumptionConflictsIsDeterministic(t *testing.T) {
	input := []model.Assumption{
		assumption("asm-001", "budget", "", model.Parameters{"direction": "increase"}),
		assumption("asm-002", "budget", "", model.Parameters{"direction": "decrease"}),
		assumption("asm-003", "", "Expand the sales office footprint", nil),
		assumption("asm-004", "", "Shrink the sales office footprint", nil),
	}

	first := DetectAssumptionConflicts(input)
	second := DetectAssumptionConflicts(input)
	assert.Equal(t, first, second)
}

func TestAllReportedConflictsMeetConfidenceFloor(t *testing.T) {
	input := []model.Assumption{
		assumption("asm-001", "budget", "", model.Parameters{"direction": "increase"}),
		assumption("asm-002", "budget", "", model.Parameters{"direction": "decrease"}),
		assumption("asm-003", "", "Increase the vendor budget", nil),
		assumption("asm-004", "", "Cut the vendor budget soon", nil),
		assumption("asm-005", "technical", "", model.Parameters{
			"component": "gateway", "technology": "envoy",
		}),
		assumption("asm-006", "technical", "", model.Parameters{
			"component": "gateway", "technology": "nginx",
		}),
	}

	pairs := DetectAssumptionConflicts(input)
	require.NotEmpty(t, pairs)
	for _, p := range pairs {
		assert.GreaterOrEqual(t, p.Conflict.Confidence, MinConfidence,
			"pair %s/%s", p.IDA, p.IDB)
		assert.LessOrEqual(t, p.Conflict.Confidence, 1.0)
	}
}

func TestStructuredMatchWinsOverText(t *testing.T) {
	// Text alone would also fire here; the structured verdict must win.
	input := []model.Assumption{
		assumption("asm-001", "budget", "increase the engineering budget", model.Parameters{
			"direction": "increase", "resourceType": "engineering",
		}),
		assumption("asm-002", "budget", "decrease the engineering budget", model.Parameters{
			"direction": "decrease", "resourceType": "engineering",
		}),
	}

	pairs := DetectAssumptionConflicts(input)
	require.Len(t, pairs, 1)
	assert.Contains(t, pairs[0].Conflict.Reason, "opposite budget directions")
}

func TestNoSelfOrDuplicateComparisons(t *testing.T) {
	dup := assumption("asm-001", "budget", "", model.Parameters{"direction": "increase"})
	input := []model.Assumption{
		dup,
		dup,
		assumption("asm-002", "budget", "", model.Parameters{"direction": "decrease"}),
	}

	pairs := DetectAssumptionConflicts(input)
	// The duplicated entry must not pair with itself.
	for _, p := range pairs {
		assert.NotEqual(t, p.IDA, p.IDB)
	}
	assert.Len(t, pairs, 2)
}
