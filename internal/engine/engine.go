package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/driftwatch/driftwatch/internal/config"
	"github.com/driftwatch/driftwatch/internal/model"
)

// Input is a fully-materialized evaluation request. The orchestration layer
// fetches the decision, its linked assumptions and constraints, and
// snapshots of its direct upstream dependencies, then supplies the
// timestamp to evaluate at.
type Input struct {
	Decision     model.Decision
	Assumptions  []model.Assumption
	Constraints  []model.Constraint
	Dependencies []model.Decision
	Now          time.Time
}

// Factor is one applied adjustment in the evaluation trace. Delta is the
// realized health change (post-clamp), so the trace sums to the total move.
type Factor struct {
	Factor string  `json:"factor"`
	Delta  float64 `json:"delta"`
	Detail string  `json:"detail"`
}

// Trace factor names, one per adjustment kind.
const (
	FactorTerminal            = "terminal_state"
	FactorAssumptionBroken    = "assumption_broken"
	FactorAssumptionShaky     = "assumption_shaky"
	FactorAssumptionRecovery  = "assumption_recovery"
	FactorConstraintImmutable = "constraint_violated_immutable"
	FactorConstraintMutable   = "constraint_violated"
	FactorRuleWarning         = "rule_warning"
	FactorPropagation         = "dependency_propagation"
	FactorStaleness           = "review_staleness"
	FactorExpired             = "expired"
	FactorInvalidated         = "invalidated"
)

// Result is the engine's proposed next state. The engine never writes it
// anywhere; persisting is the caller's concern.
type Result struct {
	HealthSignal      int              `json:"new_health_signal"`
	Lifecycle         model.Lifecycle  `json:"new_lifecycle"`
	InvalidatedReason string           `json:"invalidated_reason,omitempty"`
	Trace             []Factor         `json:"trace"`
	ChangesDetected   bool             `json:"changes_detected"`
}

// Engine evaluates decisions under a fixed tuning config.
//
// Engine is stateless apart from its config and safe for concurrent use.
type Engine struct {
	cfg config.Config
}

// New creates an Engine with the given tuning.
func New(cfg config.Config) *Engine {
	return &Engine{cfg: cfg}
}

// Evaluate computes a decision's next health signal and lifecycle.
//
// Pure and deterministic: no clock reads, no I/O. Only structurally invalid
// input (missing ids, zero timestamp) is rejected; business-logic edge
// cases degrade to "no signal".
func (e *Engine) Evaluate(in Input) (Result, error) {
	if err := validateInput(in); err != nil {
		return Result{}, err
	}

	d := in.Decision

	// Terminal states are frozen history: report no change for any input.
	if d.Lifecycle.Terminal() {
		return Result{
			HealthSignal:      d.HealthSignal,
			Lifecycle:         d.Lifecycle,
			InvalidatedReason: d.InvalidatedReason,
			Trace: []Factor{{
				Factor: FactorTerminal,
				Delta:  0,
				Detail: fmt.Sprintf("decision is %s; evaluation is a no-op", d.Lifecycle),
			}},
			ChangesDetected: false,
		}, nil
	}

	trace := make([]Factor, 0, 8)
	health := clamp(float64(d.HealthSignal))
	invalidatedReason := ""

	// Assumption penalties. Legacy statuses normalize to VALID so unknown
	// data contributes no signal.
	validCount := 0
	for _, a := range in.Assumptions {
		switch model.ParseAssumptionStatus(string(a.Status)) {
		case model.AssumptionBroken:
			health = apply(&trace, health, -float64(e.cfg.Penalties.BrokenAssumption),
				FactorAssumptionBroken, fmt.Sprintf("assumption %s is BROKEN", a.ID))
		case model.AssumptionShaky:
			health = apply(&trace, health, -float64(e.cfg.Penalties.ShakyAssumption),
				FactorAssumptionShaky, fmt.Sprintf("assumption %s is SHAKY", a.ID))
		default:
			validCount++
		}
	}
	if recovery := min(validCount*e.cfg.Penalties.ValidRecovery, e.cfg.Penalties.ValidRecoveryCap); recovery > 0 {
		health = apply(&trace, health, float64(recovery),
			FactorAssumptionRecovery, fmt.Sprintf("%d valid assumption(s) support this decision", validCount))
	}

	// Constraint penalties. Uninterpretable rules contribute zero penalty
	// and surface as trace warnings.
	for _, c := range in.Constraints {
		switch evaluateRule(c.Rule, d) {
		case RuleViolated:
			if c.IsImmutable {
				health = apply(&trace, health, -float64(e.cfg.Penalties.ImmutableViolation),
					FactorConstraintImmutable, fmt.Sprintf("immutable constraint %q violated", c.Name))
				if c.Invalidating && invalidatedReason == "" {
					invalidatedReason = fmt.Sprintf("immutable constraint %q violated", c.Name)
				}
			} else {
				health = apply(&trace, health, -float64(e.cfg.Penalties.MutableViolation),
					FactorConstraintMutable, fmt.Sprintf("constraint %q violated", c.Name))
			}
		case RuleUnknown:
			trace = append(trace, Factor{
				Factor: FactorRuleWarning,
				Delta:  0,
				Detail: fmt.Sprintf("constraint %q: rule could not be interpreted; no penalty applied", c.Name),
			})
		}
	}

	// Dependency propagation: a decision cannot stay much healthier than
	// what it depends on. The pull is damped, never a hard cap, so indirect
	// risk percolates without overriding direct evidence.
	if len(in.Dependencies) > 0 {
		for _, dep := range in.Dependencies {
			if dep.Lifecycle == model.LifecycleInvalidated && invalidatedReason == "" {
				invalidatedReason = fmt.Sprintf("depends on invalidated decision %s", dep.ID)
			}
		}
		upstream := e.upstreamHealth(in.Dependencies)
		if upstream < health {
			pulled := health - (health-upstream)*e.cfg.Propagation.Damping
			health = apply(&trace, health, pulled-health, FactorPropagation,
				fmt.Sprintf("upstream %s health %.0f pulled signal down", e.cfg.Propagation.Mode, upstream))
		}
	}

	// Time decay: staleness bands do not stack, the deepest matching band
	// applies. Expiry is a hard signal on top of gradual decay.
	if staleDays := daysBetween(d.LastReviewedAt, in.Now); staleDays > 0 {
		band, ok := deepestBand(e.cfg.Decay.Bands, staleDays)
		if ok {
			health = apply(&trace, health, -float64(band.Penalty), FactorStaleness,
				fmt.Sprintf("not reviewed for %d days (band: %d+)", staleDays, band.AfterDays))
		}
	}
	if d.ExpiryDate != nil && in.Now.After(*d.ExpiryDate) {
		health = apply(&trace, health, -float64(e.cfg.Decay.ExpiryPenalty), FactorExpired,
			fmt.Sprintf("expired on %s", d.ExpiryDate.Format("2006-01-02")))
		grace := d.ExpiryDate.AddDate(0, 0, e.cfg.Decay.ExpiryGraceDays)
		if in.Now.After(grace) && invalidatedReason == "" {
			invalidatedReason = fmt.Sprintf("expired on %s, past %d-day grace period",
				d.ExpiryDate.Format("2006-01-02"), e.cfg.Decay.ExpiryGraceDays)
		}
	}

	newHealth := int(math.Round(clamp(health)))

	var newLifecycle model.Lifecycle
	switch {
	case invalidatedReason != "":
		newLifecycle = model.LifecycleInvalidated
		trace = append(trace, Factor{Factor: FactorInvalidated, Delta: 0, Detail: invalidatedReason})
	case newHealth >= e.cfg.Thresholds.Stable:
		newLifecycle = model.LifecycleStable
	case newHealth >= e.cfg.Thresholds.Review:
		newLifecycle = model.LifecycleUnderReview
	default:
		newLifecycle = model.LifecycleAtRisk
	}

	return Result{
		HealthSignal:      newHealth,
		Lifecycle:         newLifecycle,
		InvalidatedReason: invalidatedReason,
		Trace:             trace,
		ChangesDetected:   newHealth != d.HealthSignal || newLifecycle != d.Lifecycle,
	}, nil
}

// upstreamHealth aggregates direct upstream health per the configured mode.
// Inputs are clamped so pathological stored values cannot leak out of range.
func (e *Engine) upstreamHealth(deps []model.Decision) float64 {
	if e.cfg.Propagation.Mode == "mean" {
		sum := 0.0
		for _, dep := range deps {
			sum += clamp(float64(dep.HealthSignal))
		}
		return sum / float64(len(deps))
	}
	lowest := 100.0
	for _, dep := range deps {
		if h := clamp(float64(dep.HealthSignal)); h < lowest {
			lowest = h
		}
	}
	return lowest
}

// apply adjusts health by delta, clamps, and records the realized change.
// Zero realized change (e.g. a penalty against an already-zero signal) is
// still recorded: the cause applied even if the clamp absorbed it.
func apply(trace *[]Factor, health, delta float64, factor, detail string) float64 {
	next := clamp(health + delta)
	*trace = append(*trace, Factor{Factor: factor, Delta: next - health, Detail: detail})
	return next
}

func clamp(h float64) float64 {
	if h < 0 {
		return 0
	}
	if h > 100 {
		return 100
	}
	return h
}

// deepestBand returns the staleness band with the largest threshold that
// staleDays exceeds. Bands are configured in increasing order.
func deepestBand(bands []config.DecayBand, staleDays int) (config.DecayBand, bool) {
	var match config.DecayBand
	found := false
	for _, b := range bands {
		if staleDays > b.AfterDays {
			match = b
			found = true
		}
	}
	return match, found
}

func daysBetween(from, to time.Time) int {
	if !to.After(from) {
		return 0
	}
	return int(to.Sub(from).Hours() / 24)
}

func validateInput(in Input) error {
	if in.Decision.ID == "" {
		return &InputValidationError{Field: "decision.id", Message: "required"}
	}
	if in.Now.IsZero() {
		return &InputValidationError{Field: "now", Message: "timestamp required"}
	}
	for i, a := range in.Assumptions {
		if a.ID == "" {
			return &InputValidationError{Field: fmt.Sprintf("assumptions[%d].id", i), Message: "required"}
		}
	}
	for i, c := range in.Constraints {
		if c.ID == "" {
			return &InputValidationError{Field: fmt.Sprintf("constraints[%d].id", i), Message: "required"}
		}
	}
	for i, dep := range in.Dependencies {
		if dep.ID == "" {
			return &InputValidationError{Field: fmt.Sprintf("dependencies[%d].id", i), Message: "required"}
		}
	}
	return nil
}
