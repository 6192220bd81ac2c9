package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/driftwatch/driftwatch/internal/engine"
	"github.com/driftwatch/driftwatch/internal/model"
)

// Scenario is one YAML-defined evaluation case.
type Scenario struct {
	// Name uniquely identifies the scenario; the golden file shares it.
	Name string `yaml:"name"`

	// Description explains what behavior the scenario pins down.
	Description string `yaml:"description,omitempty"`

	Decision     DecisionSpec     `yaml:"decision"`
	Assumptions  []AssumptionSpec `yaml:"assumptions,omitempty"`
	Constraints  []ConstraintSpec `yaml:"constraints,omitempty"`
	Dependencies []DependencySpec `yaml:"dependencies,omitempty"`

	// Now is the evaluation timestamp, RFC 3339.
	Now time.Time `yaml:"now"`

	// Expect is checked by Run; golden comparison additionally pins the
	// full trace.
	Expect ExpectClause `yaml:"expect"`
}

// DecisionSpec mirrors model.Decision with YAML field names.
type DecisionSpec struct {
	ID             string         `yaml:"id"`
	Title          string         `yaml:"title,omitempty"`
	Description    string         `yaml:"description,omitempty"`
	Lifecycle      string         `yaml:"lifecycle"`
	HealthSignal   int            `yaml:"health_signal"`
	Category       string         `yaml:"category,omitempty"`
	Parameters     map[string]any `yaml:"parameters,omitempty"`
	CreatedAt      time.Time      `yaml:"created_at,omitempty"`
	LastReviewedAt time.Time      `yaml:"last_reviewed_at"`
	ExpiryDate     *time.Time     `yaml:"expiry_date,omitempty"`
}

// AssumptionSpec mirrors model.Assumption.
type AssumptionSpec struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description,omitempty"`
	Status      string `yaml:"status"`
}

// ConstraintSpec mirrors model.Constraint.
type ConstraintSpec struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Kind         string   `yaml:"kind"`
	Field        string   `yaml:"field,omitempty"`
	Op           string   `yaml:"op,omitempty"`
	Value        float64  `yaml:"value,omitempty"`
	Values       []string `yaml:"values,omitempty"`
	IsImmutable  bool     `yaml:"is_immutable,omitempty"`
	Invalidating bool     `yaml:"invalidating,omitempty"`
}

// DependencySpec is an upstream decision snapshot.
type DependencySpec struct {
	ID           string `yaml:"id"`
	Lifecycle    string `yaml:"lifecycle"`
	HealthSignal int    `yaml:"health_signal"`
}

// ExpectClause states the scenario's expected outcome. Zero-valued fields
// are not checked, except Lifecycle which is always required.
type ExpectClause struct {
	HealthSignal              *int   `yaml:"health_signal,omitempty"`
	Lifecycle                 string `yaml:"lifecycle"`
	InvalidatedReasonContains string `yaml:"invalidated_reason_contains,omitempty"`
	ChangesDetected           *bool  `yaml:"changes_detected,omitempty"`
}

// LoadScenario parses one scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if s.Name == "" {
		return nil, fmt.Errorf("scenario %s: name is required", path)
	}
	if s.Expect.Lifecycle == "" {
		return nil, fmt.Errorf("scenario %s: expect.lifecycle is required", path)
	}
	return &s, nil
}

// LoadScenarioDir loads every *.yaml scenario in a directory, sorted by file
// name for stable test ordering.
func LoadScenarioDir(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("glob scenarios: %w", err)
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// Input converts the scenario into an engine input.
func (s *Scenario) Input() (engine.Input, error) {
	lc, err := model.ParseLifecycle(s.Decision.Lifecycle)
	if err != nil {
		return engine.Input{}, fmt.Errorf("scenario %s: decision: %w", s.Name, err)
	}

	createdAt := s.Decision.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.Decision.LastReviewedAt
	}
	d := model.Decision{
		ID:             s.Decision.ID,
		Title:          s.Decision.Title,
		Description:    s.Decision.Description,
		Lifecycle:      lc,
		HealthSignal:   s.Decision.HealthSignal,
		Category:       s.Decision.Category,
		Parameters:     s.Decision.Parameters,
		CreatedAt:      createdAt,
		LastReviewedAt: s.Decision.LastReviewedAt,
		ExpiryDate:     s.Decision.ExpiryDate,
	}

	assumptions := make([]model.Assumption, 0, len(s.Assumptions))
	for _, a := range s.Assumptions {
		assumptions = append(assumptions, model.Assumption{
			ID:          a.ID,
			Description: a.Description,
			Status:      model.ParseAssumptionStatus(a.Status),
		})
	}

	constraints := make([]model.Constraint, 0, len(s.Constraints))
	for _, c := range s.Constraints {
		constraints = append(constraints, model.Constraint{
			ID:   c.ID,
			Name: c.Name,
			Rule: model.Rule{
				Kind:   model.RuleKind(c.Kind),
				Field:  c.Field,
				Op:     c.Op,
				Value:  c.Value,
				Values: c.Values,
			},
			IsImmutable:  c.IsImmutable,
			Invalidating: c.Invalidating,
		})
	}

	deps := make([]model.Decision, 0, len(s.Dependencies))
	for _, dep := range s.Dependencies {
		depLC, err := model.ParseLifecycle(dep.Lifecycle)
		if err != nil {
			return engine.Input{}, fmt.Errorf("scenario %s: dependency %s: %w", s.Name, dep.ID, err)
		}
		deps = append(deps, model.Decision{
			ID:           dep.ID,
			Lifecycle:    depLC,
			HealthSignal: dep.HealthSignal,
		})
	}

	return engine.Input{
		Decision:     d,
		Assumptions:  assumptions,
		Constraints:  constraints,
		Dependencies: deps,
		Now:          s.Now,
	}, nil
}
