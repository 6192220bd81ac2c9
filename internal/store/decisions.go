package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/driftwatch/driftwatch/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// SaveDecision inserts or replaces a decision record.
func (s *Store) SaveDecision(ctx context.Context, d model.Decision) error {
	params, err := marshalJSON(d.Parameters)
	if err != nil {
		return fmt.Errorf("save decision %s: %w", d.ID, err)
	}
	meta, err := marshalJSON(d.Metadata)
	if err != nil {
		return fmt.Errorf("save decision %s: %w", d.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO decisions
		(id, title, description, lifecycle, health_signal, category, parameters, metadata,
		 created_at, last_reviewed_at, expiry_date, invalidated_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			lifecycle = excluded.lifecycle,
			health_signal = excluded.health_signal,
			category = excluded.category,
			parameters = excluded.parameters,
			metadata = excluded.metadata,
			created_at = excluded.created_at,
			last_reviewed_at = excluded.last_reviewed_at,
			expiry_date = excluded.expiry_date,
			invalidated_reason = excluded.invalidated_reason
	`,
		d.ID, d.Title, d.Description, string(d.Lifecycle), d.HealthSignal,
		d.Category, params, meta,
		formatTime(d.CreatedAt), formatTime(d.LastReviewedAt),
		formatNullableTime(d.ExpiryDate), d.InvalidatedReason,
	)
	if err != nil {
		return fmt.Errorf("save decision %s: %w", d.ID, err)
	}
	return nil
}

// GetDecision fetches one decision by id.
func (s *Store) GetDecision(ctx context.Context, id string) (model.Decision, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, lifecycle, health_signal, category, parameters,
		       metadata, created_at, last_reviewed_at, expiry_date, invalidated_reason
		FROM decisions WHERE id = ?
	`, id)
	d, err := scanDecision(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Decision{}, fmt.Errorf("decision %s: %w", id, ErrNotFound)
	}
	return d, err
}

// ListDecisions returns all decisions ordered by id.
func (s *Store) ListDecisions(ctx context.Context) ([]model.Decision, error) {
	return s.queryDecisions(ctx, `
		SELECT id, title, description, lifecycle, health_signal, category, parameters,
		       metadata, created_at, last_reviewed_at, expiry_date, invalidated_reason
		FROM decisions ORDER BY id
	`)
}

// ListNonRetired returns all decisions except RETIRED ones, ordered by id.
// This is the batch re-evaluation candidate set: INVALIDATED decisions are
// included (evaluating them is a no-op) so batch summaries stay stable.
func (s *Store) ListNonRetired(ctx context.Context) ([]model.Decision, error) {
	return s.queryDecisions(ctx, `
		SELECT id, title, description, lifecycle, health_signal, category, parameters,
		       metadata, created_at, last_reviewed_at, expiry_date, invalidated_reason
		FROM decisions WHERE lifecycle != 'RETIRED' ORDER BY id
	`)
}

// ListActiveDecisions returns decisions in the STABLE, UNDER_REVIEW, or
// AT_RISK lifecycle states, ordered by id. This is the conflict detection
// candidate set.
func (s *Store) ListActiveDecisions(ctx context.Context) ([]model.Decision, error) {
	return s.queryDecisions(ctx, `
		SELECT id, title, description, lifecycle, health_signal, category, parameters,
		       metadata, created_at, last_reviewed_at, expiry_date, invalidated_reason
		FROM decisions WHERE lifecycle IN ('STABLE', 'UNDER_REVIEW', 'AT_RISK') ORDER BY id
	`)
}

// ApplyEvaluation persists an engine result for one decision. The review
// timestamp is untouched: reviews are human actions, not evaluations.
func (s *Store) ApplyEvaluation(ctx context.Context, id string, health int, lifecycle model.Lifecycle, invalidatedReason string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE decisions
		SET health_signal = ?, lifecycle = ?, invalidated_reason = ?
		WHERE id = ?
	`, health, string(lifecycle), invalidatedReason, id)
	if err != nil {
		return fmt.Errorf("apply evaluation for %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("apply evaluation for %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("decision %s: %w", id, ErrNotFound)
	}
	return nil
}

// SaveAssumption inserts or replaces an assumption record.
func (s *Store) SaveAssumption(ctx context.Context, a model.Assumption) error {
	params, err := marshalJSON(a.Parameters)
	if err != nil {
		return fmt.Errorf("save assumption %s: %w", a.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO assumptions
		(id, description, status, scope, category, parameters, created_at, validated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			description = excluded.description,
			status = excluded.status,
			scope = excluded.scope,
			category = excluded.category,
			parameters = excluded.parameters,
			created_at = excluded.created_at,
			validated_at = excluded.validated_at
	`,
		a.ID, a.Description, string(a.Status), string(a.Scope), a.Category,
		params, formatTime(a.CreatedAt), formatNullableTime(a.ValidatedAt),
	)
	if err != nil {
		return fmt.Errorf("save assumption %s: %w", a.ID, err)
	}
	return nil
}

// ListAssumptions returns all assumptions ordered by id.
func (s *Store) ListAssumptions(ctx context.Context) ([]model.Assumption, error) {
	return s.queryAssumptions(ctx, `
		SELECT id, description, status, scope, category, parameters, created_at, validated_at
		FROM assumptions ORDER BY id
	`)
}

// LinkAssumption links an assumption to a decision. Idempotent.
func (s *Store) LinkAssumption(ctx context.Context, decisionID, assumptionID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO decision_assumptions (decision_id, assumption_id)
		VALUES (?, ?) ON CONFLICT DO NOTHING
	`, decisionID, assumptionID)
	if err != nil {
		return fmt.Errorf("link assumption %s to %s: %w", assumptionID, decisionID, err)
	}
	return nil
}

// AssumptionsForDecision returns the assumptions linked to one decision.
func (s *Store) AssumptionsForDecision(ctx context.Context, decisionID string) ([]model.Assumption, error) {
	return s.queryAssumptions(ctx, `
		SELECT a.id, a.description, a.status, a.scope, a.category, a.parameters,
		       a.created_at, a.validated_at
		FROM assumptions a
		JOIN decision_assumptions da ON da.assumption_id = a.id
		WHERE da.decision_id = ? ORDER BY a.id
	`, decisionID)
}

// DecisionsForAssumption returns ids of decisions linked to an assumption.
func (s *Store) DecisionsForAssumption(ctx context.Context, assumptionID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT decision_id FROM decision_assumptions
		WHERE assumption_id = ? ORDER BY decision_id
	`, assumptionID)
	if err != nil {
		return nil, fmt.Errorf("decisions for assumption %s: %w", assumptionID, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("decisions for assumption %s: %w", assumptionID, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SaveConstraint inserts or replaces a constraint record.
func (s *Store) SaveConstraint(ctx context.Context, c model.Constraint) error {
	rule, err := marshalJSON(c.Rule)
	if err != nil {
		return fmt.Errorf("save constraint %s: %w", c.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO constraints (id, name, constraint_type, rule, is_immutable, invalidating)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			constraint_type = excluded.constraint_type,
			rule = excluded.rule,
			is_immutable = excluded.is_immutable,
			invalidating = excluded.invalidating
	`, c.ID, c.Name, c.ConstraintType, rule, boolToInt(c.IsImmutable), boolToInt(c.Invalidating))
	if err != nil {
		return fmt.Errorf("save constraint %s: %w", c.ID, err)
	}
	return nil
}

// LinkConstraint links a constraint to a decision. Idempotent.
func (s *Store) LinkConstraint(ctx context.Context, decisionID, constraintID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO decision_constraints (decision_id, constraint_id)
		VALUES (?, ?) ON CONFLICT DO NOTHING
	`, decisionID, constraintID)
	if err != nil {
		return fmt.Errorf("link constraint %s to %s: %w", constraintID, decisionID, err)
	}
	return nil
}

// ConstraintsForDecision returns the constraints linked to one decision.
// A rule that fails to unmarshal degrades to the unknown variant instead of
// failing the read: one corrupt rule must not block evaluation.
func (s *Store) ConstraintsForDecision(ctx context.Context, decisionID string) ([]model.Constraint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.constraint_type, c.rule, c.is_immutable, c.invalidating
		FROM constraints c
		JOIN decision_constraints dc ON dc.constraint_id = c.id
		WHERE dc.decision_id = ? ORDER BY c.id
	`, decisionID)
	if err != nil {
		return nil, fmt.Errorf("constraints for decision %s: %w", decisionID, err)
	}
	defer rows.Close()

	var out []model.Constraint
	for rows.Next() {
		var c model.Constraint
		var ruleJSON string
		var immutable, invalidating int
		if err := rows.Scan(&c.ID, &c.Name, &c.ConstraintType, &ruleJSON, &immutable, &invalidating); err != nil {
			return nil, fmt.Errorf("constraints for decision %s: %w", decisionID, err)
		}
		if err := json.Unmarshal([]byte(ruleJSON), &c.Rule); err != nil {
			c.Rule = model.Rule{Kind: model.RuleUnknown}
		}
		c.IsImmutable = immutable != 0
		c.Invalidating = invalidating != 0
		out = append(out, c)
	}
	return out, rows.Err()
}

// AddDependency records that source depends on target. Idempotent.
func (s *Store) AddDependency(ctx context.Context, sourceID, targetID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dependencies (source_id, target_id)
		VALUES (?, ?) ON CONFLICT DO NOTHING
	`, sourceID, targetID)
	if err != nil {
		return fmt.Errorf("add dependency %s -> %s: %w", sourceID, targetID, err)
	}
	return nil
}

// UpstreamDecisions returns snapshots of the decisions that sourceID
// directly depends on.
func (s *Store) UpstreamDecisions(ctx context.Context, sourceID string) ([]model.Decision, error) {
	return s.queryDecisions(ctx, `
		SELECT d.id, d.title, d.description, d.lifecycle, d.health_signal, d.category,
		       d.parameters, d.metadata, d.created_at, d.last_reviewed_at, d.expiry_date,
		       d.invalidated_reason
		FROM decisions d
		JOIN dependencies dep ON dep.target_id = d.id
		WHERE dep.source_id = ? ORDER BY d.id
	`, sourceID)
}

// DownstreamDecisionIDs returns ids of decisions that depend on targetID.
func (s *Store) DownstreamDecisionIDs(ctx context.Context, targetID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source_id FROM dependencies WHERE target_id = ? ORDER BY source_id
	`, targetID)
	if err != nil {
		return nil, fmt.Errorf("downstream of %s: %w", targetID, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("downstream of %s: %w", targetID, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDecision(row rowScanner) (model.Decision, error) {
	var d model.Decision
	var lifecycle, params, meta, createdAt, reviewedAt string
	var expiry sql.NullString
	if err := row.Scan(&d.ID, &d.Title, &d.Description, &lifecycle, &d.HealthSignal,
		&d.Category, &params, &meta, &createdAt, &reviewedAt, &expiry, &d.InvalidatedReason); err != nil {
		return model.Decision{}, err
	}

	parsed, err := model.ParseLifecycle(lifecycle)
	if err != nil {
		return model.Decision{}, fmt.Errorf("decision %s: %w", d.ID, err)
	}
	d.Lifecycle = parsed

	if err := json.Unmarshal([]byte(params), &d.Parameters); err != nil {
		return model.Decision{}, fmt.Errorf("decision %s parameters: %w", d.ID, err)
	}
	if err := json.Unmarshal([]byte(meta), &d.Metadata); err != nil {
		return model.Decision{}, fmt.Errorf("decision %s metadata: %w", d.ID, err)
	}
	if d.CreatedAt, err = parseTime(createdAt); err != nil {
		return model.Decision{}, fmt.Errorf("decision %s: %w", d.ID, err)
	}
	if d.LastReviewedAt, err = parseTime(reviewedAt); err != nil {
		return model.Decision{}, fmt.Errorf("decision %s: %w", d.ID, err)
	}
	if d.ExpiryDate, err = parseNullableTime(expiry); err != nil {
		return model.Decision{}, fmt.Errorf("decision %s: %w", d.ID, err)
	}
	return d, nil
}

func (s *Store) queryDecisions(ctx context.Context, query string, args ...any) ([]model.Decision, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var out []model.Decision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, fmt.Errorf("query decisions: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) queryAssumptions(ctx context.Context, query string, args ...any) ([]model.Assumption, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query assumptions: %w", err)
	}
	defer rows.Close()

	var out []model.Assumption
	for rows.Next() {
		var a model.Assumption
		var status, scope, params, createdAt string
		var validatedAt sql.NullString
		if err := rows.Scan(&a.ID, &a.Description, &status, &scope, &a.Category,
			&params, &createdAt, &validatedAt); err != nil {
			return nil, fmt.Errorf("query assumptions: %w", err)
		}
		a.Status = model.ParseAssumptionStatus(status)
		a.Scope = model.AssumptionScope(scope)
		if err := json.Unmarshal([]byte(params), &a.Parameters); err != nil {
			return nil, fmt.Errorf("assumption %s parameters: %w", a.ID, err)
		}
		var err error
		if a.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("assumption %s: %w", a.ID, err)
		}
		if a.ValidatedAt, err = parseNullableTime(validatedAt); err != nil {
			return nil, fmt.Errorf("assumption %s: %w", a.ID, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// marshalJSON serializes a value, mapping nil maps to "{}" so columns with
// JSON defaults never hold SQL NULL.
func marshalJSON(v any) (string, error) {
	if v == nil {
		return "{}", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(data) == "null" {
		return "{}", nil
	}
	return string(data), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
