package harness

import (
	"fmt"
	"strings"

	"github.com/driftwatch/driftwatch/internal/config"
	"github.com/driftwatch/driftwatch/internal/engine"
)

// Result is the outcome of running one scenario.
type Result struct {
	Pass       bool          `json:"pass"`
	Errors     []string      `json:"errors,omitempty"`
	Evaluation engine.Result `json:"evaluation"`
}

func (r *Result) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

// Run evaluates a scenario under the default tuning and checks its expect
// clause. A failed expectation is a failed Result, not an error; errors are
// reserved for scenarios that cannot run at all.
func Run(s *Scenario) (*Result, error) {
	return RunWithConfig(s, config.Default())
}

// RunWithConfig evaluates a scenario under explicit tuning.
func RunWithConfig(s *Scenario, cfg config.Config) (*Result, error) {
	in, err := s.Input()
	if err != nil {
		return nil, err
	}

	eval, err := engine.New(cfg).Evaluate(in)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	res := &Result{Pass: true, Evaluation: eval}

	if want := s.Expect.HealthSignal; want != nil && eval.HealthSignal != *want {
		res.addError("health_signal: want %d, got %d", *want, eval.HealthSignal)
	}
	if string(eval.Lifecycle) != s.Expect.Lifecycle {
		res.addError("lifecycle: want %s, got %s", s.Expect.Lifecycle, eval.Lifecycle)
	}
	if want := s.Expect.InvalidatedReasonContains; want != "" {
		if !strings.Contains(eval.InvalidatedReason, want) {
			res.addError("invalidated_reason: want substring %q, got %q", want, eval.InvalidatedReason)
		}
	}
	if want := s.Expect.ChangesDetected; want != nil && eval.ChangesDetected != *want {
		res.addError("changes_detected: want %v, got %v", *want, eval.ChangesDetected)
	}

	return res, nil
}
