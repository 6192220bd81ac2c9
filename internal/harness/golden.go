package harness

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/driftwatch/driftwatch/internal/engine"
)

// TraceSnapshot is the canonical golden-file payload for one scenario run:
// the scenario name plus the engine's full result, trace included. Field
// order is fixed by the struct, so serialization is byte-stable.
type TraceSnapshot struct {
	ScenarioName string        `json:"scenario_name"`
	Evaluation   engine.Result `json:"evaluation"`
}

func (s TraceSnapshot) marshal() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return append(data, '\n'), nil
}

// RunWithGolden runs a scenario and compares its full evaluation trace
// against testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, s *Scenario) (*Result, error) {
	t.Helper()

	res, err := Run(s)
	if err != nil {
		return nil, err
	}

	data, err := TraceSnapshot{ScenarioName: s.Name, Evaluation: res.Evaluation}.marshal()
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, s.Name, data)

	return res, nil
}
