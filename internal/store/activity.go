package store

import (
	"context"
	"fmt"
	"time"

	"github.com/cinevault/cinevault/internal/model"
)

// RecordActivity appends a row to the activity log. accountID may be nil for
// anonymous actors.
func (s *Store) RecordActivity(ctx context.Context, accountID *int64, actionType, description string) error {
	_, err := s.insert(ctx,
		`INSERT INTO activity_logs (account_id, action_type, description, created_at)
		 VALUES (?, ?, ?, ?)`,
		accountID, actionType, description, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// ListRecentActivity returns the newest limit activity rows.
func (s *Store) ListRecentActivity(ctx context.Context, limit int) ([]model.ActivityLog, error) {
	if limit < 1 || limit > 500 {
		limit = 50
	}
	var logs []model.ActivityLog
	err := s.sel(ctx, &logs,
		`SELECT * FROM activity_logs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return logs, nil
}
