package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ClockOffset returns the persisted simulated-time offset for an
// organization. Organizations with no stored offset run on real time.
func (s *Store) ClockOffset(ctx context.Context, orgID string) (time.Duration, error) {
	var seconds int64
	err := s.db.QueryRowContext(ctx, `
		SELECT offset_seconds FROM clock_offsets WHERE org_id = ?
	`, orgID).Scan(&seconds)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("clock offset for %s: %w", orgID, err)
	}
	return time.Duration(seconds) * time.Second, nil
}

// SetClockOffset persists the simulated-time offset for an organization,
// replacing any previous value.
func (s *Store) SetClockOffset(ctx context.Context, orgID string, offset time.Duration, updatedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clock_offsets (org_id, offset_seconds, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(org_id) DO UPDATE SET
			offset_seconds = excluded.offset_seconds,
			updated_at = excluded.updated_at
	`, orgID, int64(offset/time.Second), formatTime(updatedAt))
	if err != nil {
		return fmt.Errorf("set clock offset for %s: %w", orgID, err)
	}
	return nil
}
