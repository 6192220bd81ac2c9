package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/driftwatch/driftwatch/internal/model"
	"github.com/driftwatch/driftwatch/internal/store"
)

// Dataset is the YAML import format: a self-contained description of
// decisions, assumptions, constraints, and the links between them.
type Dataset struct {
	Decisions   []DecisionEntry   `yaml:"decisions"`
	Assumptions []AssumptionEntry `yaml:"assumptions,omitempty"`
	Constraints []ConstraintEntry `yaml:"constraints,omitempty"`
}

// DecisionEntry is one decision plus its outgoing links.
type DecisionEntry struct {
	ID             string         `yaml:"id"`
	Title          string         `yaml:"title"`
	Description    string         `yaml:"description,omitempty"`
	Lifecycle      string         `yaml:"lifecycle"`
	HealthSignal   int            `yaml:"health_signal"`
	Category       string         `yaml:"category,omitempty"`
	Parameters     map[string]any `yaml:"parameters,omitempty"`
	Metadata       map[string]string `yaml:"metadata,omitempty"`
	CreatedAt      time.Time      `yaml:"created_at"`
	LastReviewedAt time.Time      `yaml:"last_reviewed_at,omitempty"`
	ExpiryDate     *time.Time     `yaml:"expiry_date,omitempty"`

	// Link sections reference ids declared elsewhere in the dataset.
	Assumptions []string `yaml:"assumptions,omitempty"`
	Constraints []string `yaml:"constraints,omitempty"`
	DependsOn   []string `yaml:"depends_on,omitempty"`
}

// AssumptionEntry is one assumption record.
type AssumptionEntry struct {
	ID          string         `yaml:"id"`
	Description string         `yaml:"description"`
	Status      string         `yaml:"status"`
	Scope       string         `yaml:"scope,omitempty"`
	Category    string         `yaml:"category,omitempty"`
	Parameters  map[string]any `yaml:"parameters,omitempty"`
	CreatedAt   time.Time      `yaml:"created_at,omitempty"`
	ValidatedAt *time.Time     `yaml:"validated_at,omitempty"`
}

// ConstraintEntry is one constraint record.
type ConstraintEntry struct {
	ID             string   `yaml:"id"`
	Name           string   `yaml:"name"`
	ConstraintType string   `yaml:"constraint_type,omitempty"`
	Rule           RuleSpec `yaml:"rule"`
	IsImmutable    bool     `yaml:"is_immutable,omitempty"`
	Invalidating   bool     `yaml:"invalidating,omitempty"`
}

// RuleSpec mirrors model.Rule for YAML, nesting for compositions.
type RuleSpec struct {
	Kind   string     `yaml:"kind"`
	Field  string     `yaml:"field,omitempty"`
	Op     string     `yaml:"op,omitempty"`
	Value  float64    `yaml:"value,omitempty"`
	Values []string   `yaml:"values,omitempty"`
	Rules  []RuleSpec `yaml:"rules,omitempty"`
}

func (r RuleSpec) toModel() model.Rule {
	children := make([]model.Rule, 0, len(r.Rules))
	for _, c := range r.Rules {
		children = append(children, c.toModel())
	}
	if len(children) == 0 {
		children = nil
	}
	return model.Rule{
		Kind:   model.RuleKind(r.Kind),
		Field:  r.Field,
		Op:     r.Op,
		Value:  r.Value,
		Values: r.Values,
		Rules:  children,
	}
}

// LoadDataset parses and validates a dataset file.
func LoadDataset(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", path, err)
	}
	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	return &ds, nil
}

// Validate checks ids, lifecycle values, and link references.
func (ds *Dataset) Validate() error {
	decisionIDs := make(map[string]bool, len(ds.Decisions))
	for i, d := range ds.Decisions {
		if d.ID == "" {
			return fmt.Errorf("decisions[%d]: id is required", i)
		}
		if decisionIDs[d.ID] {
			return fmt.Errorf("duplicate decision id %s", d.ID)
		}
		decisionIDs[d.ID] = true
		if d.Title == "" {
			return fmt.Errorf("decision %s: title is required", d.ID)
		}
		if _, err := model.ParseLifecycle(d.Lifecycle); err != nil {
			return fmt.Errorf("decision %s: %w", d.ID, err)
		}
		if d.HealthSignal < 0 || d.HealthSignal > 100 {
			return fmt.Errorf("decision %s: health_signal %d outside [0,100]", d.ID, d.HealthSignal)
		}
		if d.CreatedAt.IsZero() {
			return fmt.Errorf("decision %s: created_at is required", d.ID)
		}
	}

	assumptionIDs := make(map[string]bool, len(ds.Assumptions))
	for i, a := range ds.Assumptions {
		if a.ID == "" {
			return fmt.Errorf("assumptions[%d]: id is required", i)
		}
		if assumptionIDs[a.ID] {
			return fmt.Errorf("duplicate assumption id %s", a.ID)
		}
		assumptionIDs[a.ID] = true
	}

	constraintIDs := make(map[string]bool, len(ds.Constraints))
	for i, c := range ds.Constraints {
		if c.ID == "" {
			return fmt.Errorf("constraints[%d]: id is required", i)
		}
		if constraintIDs[c.ID] {
			return fmt.Errorf("duplicate constraint id %s", c.ID)
		}
		constraintIDs[c.ID] = true
	}

	for _, d := range ds.Decisions {
		for _, ref := range d.Assumptions {
			if !assumptionIDs[ref] {
				return fmt.Errorf("decision %s references unknown assumption %s", d.ID, ref)
			}
		}
		for _, ref := range d.Constraints {
			if !constraintIDs[ref] {
				return fmt.Errorf("decision %s references unknown constraint %s", d.ID, ref)
			}
		}
		for _, ref := range d.DependsOn {
			if !decisionIDs[ref] {
				return fmt.Errorf("decision %s depends on unknown decision %s", d.ID, ref)
			}
			if ref == d.ID {
				return fmt.Errorf("decision %s depends on itself", d.ID)
			}
		}
	}
	return nil
}

// Apply writes the dataset into the store. Existing records with the same
// ids are replaced; links are additive.
func (ds *Dataset) Apply(ctx context.Context, st *store.Store) error {
	for _, a := range ds.Assumptions {
		createdAt := a.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		scope := model.AssumptionScope(a.Scope)
		if scope == "" {
			scope = model.ScopeUniversal
		}
		err := st.SaveAssumption(ctx, model.Assumption{
			ID:          a.ID,
			Description: a.Description,
			Status:      model.ParseAssumptionStatus(a.Status),
			Scope:       scope,
			Category:    a.Category,
			Parameters:  a.Parameters,
			CreatedAt:   createdAt,
			ValidatedAt: a.ValidatedAt,
		})
		if err != nil {
			return err
		}
	}

	for _, c := range ds.Constraints {
		err := st.SaveConstraint(ctx, model.Constraint{
			ID:             c.ID,
			Name:           c.Name,
			ConstraintType: c.ConstraintType,
			Rule:           c.Rule.toModel(),
			IsImmutable:    c.IsImmutable,
			Invalidating:   c.Invalidating,
		})
		if err != nil {
			return err
		}
	}

	for _, d := range ds.Decisions {
		lc, err := model.ParseLifecycle(d.Lifecycle)
		if err != nil {
			return err
		}
		reviewedAt := d.LastReviewedAt
		if reviewedAt.IsZero() {
			reviewedAt = d.CreatedAt
		}
		err = st.SaveDecision(ctx, model.Decision{
			ID:             d.ID,
			Title:          d.Title,
			Description:    d.Description,
			Lifecycle:      lc,
			HealthSignal:   d.HealthSignal,
			Category:       d.Category,
			Parameters:     d.Parameters,
			Metadata:       d.Metadata,
			CreatedAt:      d.CreatedAt,
			LastReviewedAt: reviewedAt,
			ExpiryDate:     d.ExpiryDate,
		})
		if err != nil {
			return err
		}
	}

	// Links last, so both ends exist.
	for _, d := range ds.Decisions {
		for _, ref := range d.Assumptions {
			if err := st.LinkAssumption(ctx, d.ID, ref); err != nil {
				return err
			}
		}
		for _, ref := range d.Constraints {
			if err := st.LinkConstraint(ctx, d.ID, ref); err != nil {
				return err
			}
		}
		for _, ref := range d.DependsOn {
			if err := st.AddDependency(ctx, d.ID, ref); err != nil {
				return err
			}
		}
	}
	return nil
}
