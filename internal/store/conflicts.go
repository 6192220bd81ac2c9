package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/driftwatch/driftwatch/internal/model"
)

// WriteConflict persists a detected conflict. The (kind, pair, type) key is
// canonicalized before insert and duplicate detections are silently dropped,
// so re-running detection over unchanged data writes nothing new. Returns
// true when a row was actually inserted.
func (s *Store) WriteConflict(ctx context.Context, rec model.ConflictRecord) (bool, error) {
	idA, idB := model.CanonicalPair(rec.IDA, rec.IDB)

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO conflicts
		(id, kind, id_a, id_b, conflict_type, confidence, reason, older_id,
		 run_token, detected_at, resolved_at, resolution_action)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, '')
		ON CONFLICT (kind, id_a, id_b, conflict_type) DO NOTHING
	`,
		rec.ID, string(rec.Kind), idA, idB, string(rec.Type),
		rec.Confidence, rec.Reason, rec.OlderID,
		rec.RunToken, formatTime(rec.DetectedAt),
	)
	if err != nil {
		return false, fmt.Errorf("write conflict %s/%s: %w", idA, idB, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write conflict %s/%s: %w", idA, idB, err)
	}
	return n > 0, nil
}

// GetConflict fetches one conflict record by id.
func (s *Store) GetConflict(ctx context.Context, id string) (model.ConflictRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, kind, id_a, id_b, conflict_type, confidence, reason, older_id,
		       run_token, detected_at, resolved_at, resolution_action
		FROM conflicts WHERE id = ?
	`, id)
	rec, err := scanConflict(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ConflictRecord{}, fmt.Errorf("conflict %s: %w", id, ErrNotFound)
	}
	return rec, err
}

// ListConflicts returns conflict records of one kind ordered by pair. When
// unresolvedOnly is set, resolved conflicts are filtered out.
func (s *Store) ListConflicts(ctx context.Context, kind model.ConflictKind, unresolvedOnly bool) ([]model.ConflictRecord, error) {
	query := `
		SELECT id, kind, id_a, id_b, conflict_type, confidence, reason, older_id,
		       run_token, detected_at, resolved_at, resolution_action
		FROM conflicts WHERE kind = ?
	`
	if unresolvedOnly {
		query += " AND resolved_at IS NULL"
	}
	query += " ORDER BY id_a, id_b, conflict_type"

	rows, err := s.db.QueryContext(ctx, query, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list conflicts: %w", err)
	}
	defer rows.Close()

	var out []model.ConflictRecord
	for rows.Next() {
		rec, err := scanConflict(rows)
		if err != nil {
			return nil, fmt.Errorf("list conflicts: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// UnresolvedConflictsFor returns unresolved decision conflicts touching the
// given decision id.
func (s *Store) UnresolvedConflictsFor(ctx context.Context, decisionID string) ([]model.ConflictRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, id_a, id_b, conflict_type, confidence, reason, older_id,
		       run_token, detected_at, resolved_at, resolution_action
		FROM conflicts
		WHERE kind = 'decision' AND resolved_at IS NULL AND (id_a = ? OR id_b = ?)
		ORDER BY id_a, id_b, conflict_type
	`, decisionID, decisionID)
	if err != nil {
		return nil, fmt.Errorf("conflicts for %s: %w", decisionID, err)
	}
	defer rows.Close()

	var out []model.ConflictRecord
	for rows.Next() {
		rec, err := scanConflict(rows)
		if err != nil {
			return nil, fmt.Errorf("conflicts for %s: %w", decisionID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ResolveConflict marks a conflict resolved with the given action. Resolving
// an already-resolved conflict is an error: the first resolution is the one
// of record.
func (s *Store) ResolveConflict(ctx context.Context, id, action string, resolvedAt string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE conflicts
		SET resolved_at = ?, resolution_action = ?
		WHERE id = ? AND resolved_at IS NULL
	`, resolvedAt, action, id)
	if err != nil {
		return fmt.Errorf("resolve conflict %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("resolve conflict %s: %w", id, err)
	}
	if n == 0 {
		if _, getErr := s.GetConflict(ctx, id); getErr != nil {
			return getErr
		}
		return fmt.Errorf("conflict %s is already resolved", id)
	}
	return nil
}

func scanConflict(row rowScanner) (model.ConflictRecord, error) {
	var rec model.ConflictRecord
	var kind, ctype, detectedAt string
	var resolvedAt sql.NullString
	if err := row.Scan(&rec.ID, &kind, &rec.IDA, &rec.IDB, &ctype, &rec.Confidence,
		&rec.Reason, &rec.OlderID, &rec.RunToken, &detectedAt, &resolvedAt,
		&rec.ResolutionAction); err != nil {
		return model.ConflictRecord{}, err
	}
	rec.Kind = model.ConflictKind(kind)
	rec.Type = model.ConflictType(ctype)

	var err error
	if rec.DetectedAt, err = parseTime(detectedAt); err != nil {
		return model.ConflictRecord{}, fmt.Errorf("conflict %s: %w", rec.ID, err)
	}
	if rec.ResolvedAt, err = parseNullableTime(resolvedAt); err != nil {
		return model.ConflictRecord{}, fmt.Errorf("conflict %s: %w", rec.ID, err)
	}
	return rec, nil
}
