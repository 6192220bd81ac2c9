package orchestrator

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftwatch/driftwatch/internal/config"
	"github.com/driftwatch/driftwatch/internal/engine"
	"github.com/driftwatch/driftwatch/internal/model"
	"github.com/driftwatch/driftwatch/internal/store"
	"github.com/driftwatch/driftwatch/internal/testutil"
)

func newTestOrchestrator(t *testing.T) (*Orchestrator, *store.Store, *testutil.FrozenClock) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "driftwatch.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	clock := testutil.NewFrozenClock(testutil.Epoch)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	o := New(st, engine.New(config.Default()), clock, log, "org-test")
	return o, st, clock
}

func TestEvaluateDecisionPersistsChanges(t *testing.T) {
	o, st, _ := newTestOrchestrator(t)
	ctx := context.Background()

	d := testutil.NewDecision("dec-001")
	d.HealthSignal = 95
	require.NoError(t, st.SaveDecision(ctx, d))
	a := testutil.NewAssumption("asm-001", "vendor pricing stays flat")
	a.Status = model.AssumptionBroken
	require.NoError(t, st.SaveAssumption(ctx, a))
	require.NoError(t, st.LinkAssumption(ctx, "dec-001", "asm-001"))

	res, err := o.EvaluateDecision(ctx, "dec-001")
	require.NoError(t, err)
	assert.True(t, res.ChangesDetected)
	assert.Equal(t, 65, res.HealthSignal)
	assert.Equal(t, model.LifecycleUnderReview, res.Lifecycle)

	stored, err := st.GetDecision(ctx, "dec-001")
	require.NoError(t, err)
	assert.Equal(t, 65, stored.HealthSignal)
	assert.Equal(t, model.LifecycleUnderReview, stored.Lifecycle)
}

func TestEvaluateDecisionNoChangeWritesNothing(t *testing.T) {
	o, st, _ := newTestOrchestrator(t)
	ctx := context.Background()

	d := testutil.NewDecision("dec-001")
	d.HealthSignal = 90
	require.NoError(t, st.SaveDecision(ctx, d))

	res, err := o.EvaluateDecision(ctx, "dec-001")
	require.NoError(t, err)
	assert.False(t, res.ChangesDetected)
	assert.Equal(t, 90, res.HealthSignal)
}

func TestEvaluateAllContinuesPastFailures(t *testing.T) {
	o, st, _ := newTestOrchestrator(t)
	ctx := context.Background()

	require.NoError(t, st.SaveDecision(ctx, testutil.NewDecision("dec-a")))
	// A corrupt lifecycle makes this row unreadable.
	bad := testutil.NewDecision("dec-b")
	bad.Lifecycle = "BOGUS"
	require.NoError(t, st.SaveDecision(ctx, bad))
	require.NoError(t, st.SaveDecision(ctx, testutil.NewDecision("dec-c")))

	sum, err := o.EvaluateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Evaluated)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, []string{"dec-b"}, sum.FailedIDs)
	assert.Equal(t, "2 evaluated, 0 updated, 1 failed", sum.String())
}

func TestAdvanceClockTriggersStalenessDecay(t *testing.T) {
	o, st, _ := newTestOrchestrator(t)
	ctx := context.Background()

	require.NoError(t, st.SaveDecision(ctx, testutil.NewDecision("dec-001")))

	// 100 days past the last review lands in the deepest staleness band.
	sum, err := o.AdvanceClock(ctx, 100*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Updated)

	got, err := st.GetDecision(ctx, "dec-001")
	require.NoError(t, err)
	assert.Equal(t, 70, got.HealthSignal)
	assert.Equal(t, model.LifecycleStable, got.Lifecycle)

	// The offset is durable: Now reflects it on a fresh read.
	now, err := o.Now(ctx)
	require.NoError(t, err)
	assert.Equal(t, testutil.Epoch.Add(100*24*time.Hour), now)
}

func TestAdvanceClockRejectsNonPositiveDelta(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)

	_, err := o.AdvanceClock(context.Background(), -time.Hour)
	assert.ErrorContains(t, err, "must be positive")
}

func TestDetectAssumptionConflictsIsIdempotent(t *testing.T) {
	o, st, _ := newTestOrchestrator(t)
	ctx := context.Background()

	a := testutil.NewAssumption("asm-001", "")
	a.Category = "budget"
	a.Parameters = model.Parameters{
		"direction": "increase", "resourceType": "engineering", "timeframe": "Q3",
	}
	b := testutil.NewAssumption("asm-002", "")
	b.Category = "budget"
	b.Parameters = model.Parameters{
		"direction": "decrease", "resourceType": "engineering", "timeframe": "Q3",
	}
	require.NoError(t, st.SaveAssumption(ctx, a))
	require.NoError(t, st.SaveAssumption(ctx, b))

	first, err := o.DetectAssumptionConflicts(ctx)
	require.NoError(t, err)
	require.Len(t, first.Pairs, 1)
	assert.Equal(t, 1, first.Inserted)
	assert.NotEmpty(t, first.RunToken)

	second, err := o.DetectAssumptionConflicts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 1, second.Duplicates)
	assert.NotEqual(t, first.RunToken, second.RunToken)

	records, err := st.ListConflicts(ctx, model.KindAssumption, true)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, first.RunToken, records[0].RunToken)
}

func TestDetectDecisionConflictsSkipsTerminalStates(t *testing.T) {
	o, st, _ := newTestOrchestrator(t)
	ctx := context.Background()

	a := testutil.NewDecision("dec-a")
	a.Description = "Allocate the platform team budget to expand caching infrastructure"
	b := testutil.NewDecision("dec-b")
	b.Description = "Allocate the platform team budget to expand search infrastructure"
	b.Lifecycle = model.LifecycleInvalidated
	require.NoError(t, st.SaveDecision(ctx, a))
	require.NoError(t, st.SaveDecision(ctx, b))

	report, err := o.DetectDecisionConflicts(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Pairs)
}

func TestResolveConflictReevaluatesDecisions(t *testing.T) {
	o, st, _ := newTestOrchestrator(t)
	ctx := context.Background()

	stale := testutil.NewDecision("dec-a")
	stale.HealthSignal = 50
	stale.Lifecycle = model.LifecycleAtRisk
	require.NoError(t, st.SaveDecision(ctx, stale))
	require.NoError(t, st.SaveDecision(ctx, testutil.NewDecision("dec-b")))

	_, err := st.WriteConflict(ctx, model.ConflictRecord{
		ID: "cfl-001", Kind: model.KindDecision, IDA: "dec-a", IDB: "dec-b",
		Type: model.ConflictContradictory, Confidence: 0.8,
		RunToken: "run-1", DetectedAt: testutil.Epoch,
	})
	require.NoError(t, err)

	require.NoError(t, o.ResolveConflict(ctx, "cfl-001", "superseded"))

	rec, err := st.GetConflict(ctx, "cfl-001")
	require.NoError(t, err)
	require.NotNil(t, rec.ResolvedAt)
	assert.Equal(t, "superseded", rec.ResolutionAction)

	// dec-a had health 50 with no negative inputs: re-evaluation moves its
	// lifecycle back in line with its signal.
	got, err := st.GetDecision(ctx, "dec-a")
	require.NoError(t, err)
	assert.Equal(t, model.LifecycleUnderReview, got.Lifecycle)
}
