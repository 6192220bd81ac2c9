package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftwatch/driftwatch/internal/config"
	"github.com/driftwatch/driftwatch/internal/model"
)

var evalTime = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

func healthyDecision(id string, health int) model.Decision {
	return model.Decision{
		ID:             id,
		Title:          "decision " + id,
		Lifecycle:      model.LifecycleStable,
		HealthSignal:   health,
		CreatedAt:      evalTime.AddDate(0, 0, -10),
		LastReviewedAt: evalTime.AddDate(0, 0, -10),
	}
}

func evaluate(t *testing.T, in Input) Result {
	t.Helper()
	res, err := New(config.Default()).Evaluate(in)
	require.NoError(t, err)
	return res
}

func traceDelta(res Result, factor string) (float64, bool) {
	for _, f := range res.Trace {
		if f.Factor == factor {
			return f.Delta, true
		}
	}
	return 0, false
}

func TestTerminalStatesAreFrozen(t *testing.T) {
	for _, lc := range []model.Lifecycle{model.LifecycleInvalidated, model.LifecycleRetired} {
		t.Run(string(lc), func(t *testing.T) {
			d := healthyDecision("dec-001", 40)
			d.Lifecycle = lc
			d.InvalidatedReason = "previously recorded"

			// Maximal negative input must still produce no change.
			res := evaluate(t, Input{
				Decision: d,
				Assumptions: []model.Assumption{
					{ID: "asm-001", Status: model.AssumptionBroken},
				},
				Constraints: []model.Constraint{{
					ID: "con-001", Name: "c", IsImmutable: true, Invalidating: true,
					Rule: model.Rule{Kind: model.RuleThreshold, Field: "x", Op: "<", Value: 0},
				}},
				Now: evalTime,
			})

			assert.False(t, res.ChangesDetected)
			assert.Equal(t, 40, res.HealthSignal)
			assert.Equal(t, lc, res.Lifecycle)
			assert.Equal(t, "previously recorded", res.InvalidatedReason)
			require.Len(t, res.Trace, 1)
			assert.Equal(t, FactorTerminal, res.Trace[0].Factor)
		})
	}
}

func TestBrokenAssumptionMovesStableToUnderReview(t *testing.T) {
	res := evaluate(t, Input{
		Decision: healthyDecision("dec-001", 95),
		Assumptions: []model.Assumption{
			{ID: "asm-001", Status: model.AssumptionBroken},
		},
		Now: evalTime,
	})

	assert.Equal(t, 65, res.HealthSignal)
	assert.Equal(t, model.LifecycleUnderReview, res.Lifecycle)
	assert.True(t, res.ChangesDetected)

	delta, ok := traceDelta(res, FactorAssumptionBroken)
	require.True(t, ok)
	assert.Equal(t, -30.0, delta)
}

func TestShakyAssumptionPenalty(t *testing.T) {
	res := evaluate(t, Input{
		Decision: healthyDecision("dec-001", 80),
		Assumptions: []model.Assumption{
			{ID: "asm-001", Status: model.AssumptionShaky},
		},
		Now: evalTime,
	})

	assert.Equal(t, 68, res.HealthSignal)
	assert.Equal(t, model.LifecycleUnderReview, res.Lifecycle)
}

func TestValidRecoveryIsCapped(t *testing.T) {
	assumptions := make([]model.Assumption, 5)
	for i := range assumptions {
		assumptions[i] = model.Assumption{
			ID: string(rune('a' + i)), Status: model.AssumptionValid,
		}
	}

	res := evaluate(t, Input{
		Decision:    healthyDecision("dec-001", 50),
		Assumptions: assumptions,
		Now:         evalTime,
	})

	delta, ok := traceDelta(res, FactorAssumptionRecovery)
	require.True(t, ok)
	assert.Equal(t, 6.0, delta)
	assert.Equal(t, 56, res.HealthSignal)
}

func TestLegacyStatusesContributeNoPenalty(t *testing.T) {
	res := evaluate(t, Input{
		Decision: healthyDecision("dec-001", 90),
		Assumptions: []model.Assumption{
			{ID: "asm-001", Status: "HOLDING"},
			{ID: "asm-002", Status: "UNKNOWN"},
		},
		Now: evalTime,
	})

	// Both normalize to VALID and count toward recovery.
	delta, ok := traceDelta(res, FactorAssumptionRecovery)
	require.True(t, ok)
	assert.Equal(t, 4.0, delta)
}

func TestHealthClampsToZero(t *testing.T) {
	assumptions := make([]model.Assumption, 5)
	for i := range assumptions {
		assumptions[i] = model.Assumption{
			ID: string(rune('a' + i)), Status: model.AssumptionBroken,
		}
	}

	res := evaluate(t, Input{
		Decision:    healthyDecision("dec-001", 60),
		Assumptions: assumptions,
		Now:         evalTime,
	})

	assert.Equal(t, 0, res.HealthSignal)
	assert.Equal(t, model.LifecycleAtRisk, res.Lifecycle)

	// Realized trace deltas sum to the total move even through the clamp.
	sum := 0.0
	for _, f := range res.Trace {
		sum += f.Delta
	}
	assert.InDelta(t, -60.0, sum, 1e-9)
}

func TestHealthClampsToHundred(t *testing.T) {
	res := evaluate(t, Input{
		Decision: healthyDecision("dec-001", 98),
		Assumptions: []model.Assumption{
			{ID: "asm-001", Status: model.AssumptionValid},
			{ID: "asm-002", Status: model.AssumptionValid},
		},
		Now: evalTime,
	})

	assert.Equal(t, 100, res.HealthSignal)
}

func TestInvalidatingImmutableConstraintHardInvalidates(t *testing.T) {
	d := healthyDecision("dec-001", 90)
	d.Parameters = model.Parameters{"budget_amount": 750000.0}

	res := evaluate(t, Input{
		Decision: d,
		Constraints: []model.Constraint{{
			ID: "con-001", Name: "budget cap",
			Rule:        model.Rule{Kind: model.RuleThreshold, Field: "budget_amount", Op: "<=", Value: 500000},
			IsImmutable: true, Invalidating: true,
		}},
		Now: evalTime,
	})

	assert.Equal(t, model.LifecycleInvalidated, res.Lifecycle)
	assert.Contains(t, res.InvalidatedReason, "budget cap")
	assert.Equal(t, 50, res.HealthSignal)

	delta, ok := traceDelta(res, FactorConstraintImmutable)
	require.True(t, ok)
	assert.Equal(t, -40.0, delta)
}

func TestImmutableWithoutInvalidatingFlagOnlyPenalizes(t *testing.T) {
	d := healthyDecision("dec-001", 90)
	d.Parameters = model.Parameters{"budget_amount": 750000.0}

	res := evaluate(t, Input{
		Decision: d,
		Constraints: []model.Constraint{{
			ID: "con-001", Name: "budget cap",
			Rule:        model.Rule{Kind: model.RuleThreshold, Field: "budget_amount", Op: "<=", Value: 500000},
			IsImmutable: true,
		}},
		Now: evalTime,
	})

	assert.Equal(t, 50, res.HealthSignal)
	assert.Equal(t, model.LifecycleUnderReview, res.Lifecycle)
	assert.Empty(t, res.InvalidatedReason)
}

func TestMutableViolationPenalty(t *testing.T) {
	d := healthyDecision("dec-001", 90)
	d.Parameters = model.Parameters{"region": "eu-west"}

	res := evaluate(t, Input{
		Decision: d,
		Constraints: []model.Constraint{{
			ID: "con-001", Name: "approved regions",
			Rule: model.Rule{Kind: model.RuleMembership, Field: "region", Values: []string{"us-east", "us-west"}},
		}},
		Now: evalTime,
	})

	assert.Equal(t, 72, res.HealthSignal)

	delta, ok := traceDelta(res, FactorConstraintMutable)
	require.True(t, ok)
	assert.Equal(t, -18.0, delta)
}

func TestUninterpretableRuleWarnsWithoutPenalty(t *testing.T) {
	res := evaluate(t, Input{
		Decision: healthyDecision("dec-001", 90),
		Constraints: []model.Constraint{{
			ID: "con-001", Name: "opaque",
			Rule: model.Rule{Kind: model.RuleThreshold, Field: "missing_param", Op: "<", Value: 10},
		}},
		Now: evalTime,
	})

	assert.Equal(t, 90, res.HealthSignal)
	assert.False(t, res.ChangesDetected)

	delta, ok := traceDelta(res, FactorRuleWarning)
	require.True(t, ok)
	assert.Zero(t, delta)
}

func TestPropagationPullsTowardUpstream(t *testing.T) {
	res := evaluate(t, Input{
		Decision:     healthyDecision("dec-001", 90),
		Dependencies: []model.Decision{healthyDecision("dec-up", 40)},
		Now:          evalTime,
	})

	// Damped pull: strictly between upstream and original.
	assert.Equal(t, 65, res.HealthSignal)
	assert.Greater(t, res.HealthSignal, 40)
	assert.Less(t, res.HealthSignal, 90)
}

func TestPropagationUsesMinOfUpstream(t *testing.T) {
	res := evaluate(t, Input{
		Decision: healthyDecision("dec-001", 90),
		Dependencies: []model.Decision{
			healthyDecision("dec-up1", 80),
			healthyDecision("dec-up2", 40),
			healthyDecision("dec-up3", 60),
		},
		Now: evalTime,
	})

	assert.Equal(t, 65, res.HealthSignal)
}

func TestPropagationMeanMode(t *testing.T) {
	cfg := config.Default()
	cfg.Propagation.Mode = "mean"

	res, err := New(cfg).Evaluate(Input{
		Decision: healthyDecision("dec-001", 90),
		Dependencies: []model.Decision{
			healthyDecision("dec-up1", 80),
			healthyDecision("dec-up2", 40),
		},
		Now: evalTime,
	})
	require.NoError(t, err)

	// mean upstream 60: 90 - (90-60)*0.5 = 75
	assert.Equal(t, 75, res.HealthSignal)
}

func TestNoPullFromHealthierUpstream(t *testing.T) {
	res := evaluate(t, Input{
		Decision:     healthyDecision("dec-001", 60),
		Dependencies: []model.Decision{healthyDecision("dec-up", 95)},
		Now:          evalTime,
	})

	assert.Equal(t, 60, res.HealthSignal)
	_, pulled := traceDelta(res, FactorPropagation)
	assert.False(t, pulled)
}

func TestInvalidatedDependencyCascades(t *testing.T) {
	up := healthyDecision("dec-up", 0)
	up.Lifecycle = model.LifecycleInvalidated

	res := evaluate(t, Input{
		Decision:     healthyDecision("dec-001", 90),
		Dependencies: []model.Decision{up},
		Now:          evalTime,
	})

	assert.Equal(t, model.LifecycleInvalidated, res.Lifecycle)
	assert.Contains(t, res.InvalidatedReason, "dec-up")
}

func TestStalenessBands(t *testing.T) {
	cases := []struct {
		name       string
		staleDays  int
		wantHealth int
	}{
		{"fresh", 10, 90},
		{"band boundary not crossed", 30, 90},
		{"first band", 31, 85},
		{"second band", 61, 78},
		{"deepest band", 120, 70},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := healthyDecision("dec-001", 90)
			d.LastReviewedAt = evalTime.AddDate(0, 0, -tc.staleDays)

			res := evaluate(t, Input{Decision: d, Now: evalTime})
			assert.Equal(t, tc.wantHealth, res.HealthSignal)
		})
	}
}

func TestExpiryWithinGracePenalizesOnly(t *testing.T) {
	d := healthyDecision("dec-001", 90)
	expiry := evalTime.AddDate(0, 0, -5)
	d.ExpiryDate = &expiry

	res := evaluate(t, Input{Decision: d, Now: evalTime})

	assert.Equal(t, 60, res.HealthSignal)
	assert.Equal(t, model.LifecycleUnderReview, res.Lifecycle)
	assert.Empty(t, res.InvalidatedReason)
}

func TestExpiryPastGraceInvalidates(t *testing.T) {
	d := healthyDecision("dec-001", 90)
	expiry := evalTime.AddDate(0, 0, -20)
	d.ExpiryDate = &expiry

	res := evaluate(t, Input{Decision: d, Now: evalTime})

	assert.Equal(t, model.LifecycleInvalidated, res.Lifecycle)
	assert.Contains(t, res.InvalidatedReason, "grace period")
}

func TestFirstInvalidationReasonWins(t *testing.T) {
	d := healthyDecision("dec-001", 90)
	d.Parameters = model.Parameters{"budget_amount": 750000.0}
	expiry := evalTime.AddDate(0, 0, -20)
	d.ExpiryDate = &expiry

	up := healthyDecision("dec-up", 0)
	up.Lifecycle = model.LifecycleInvalidated

	res := evaluate(t, Input{
		Decision: d,
		Constraints: []model.Constraint{{
			ID: "con-001", Name: "budget cap",
			Rule:        model.Rule{Kind: model.RuleThreshold, Field: "budget_amount", Op: "<=", Value: 500000},
			IsImmutable: true, Invalidating: true,
		}},
		Dependencies: []model.Decision{up},
		Now:          evalTime,
	})

	assert.Equal(t, model.LifecycleInvalidated, res.Lifecycle)
	assert.Contains(t, res.InvalidatedReason, "budget cap")
}

func TestEvaluateIsDeterministic(t *testing.T) {
	in := Input{
		Decision: healthyDecision("dec-001", 75),
		Assumptions: []model.Assumption{
			{ID: "asm-001", Status: model.AssumptionShaky},
			{ID: "asm-002", Status: model.AssumptionValid},
		},
		Dependencies: []model.Decision{healthyDecision("dec-up", 50)},
		Now:          evalTime,
	}

	first := evaluate(t, in)
	second := evaluate(t, in)
	assert.Equal(t, first, second)
}

func TestNoChangeWhenNothingApplies(t *testing.T) {
	res := evaluate(t, Input{Decision: healthyDecision("dec-001", 85), Now: evalTime})

	assert.False(t, res.ChangesDetected)
	assert.Equal(t, 85, res.HealthSignal)
	assert.Equal(t, model.LifecycleStable, res.Lifecycle)
	assert.Empty(t, res.Trace)
}

func TestValidateInput(t *testing.T) {
	eng := New(config.Default())

	_, err := eng.Evaluate(Input{Now: evalTime})
	var verr *InputValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "decision.id", verr.Field)

	_, err = eng.Evaluate(Input{Decision: healthyDecision("dec-001", 80)})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "now", verr.Field)

	_, err = eng.Evaluate(Input{
		Decision:    healthyDecision("dec-001", 80),
		Assumptions: []model.Assumption{{}},
		Now:         evalTime,
	})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "assumptions[0].id", verr.Field)
}
