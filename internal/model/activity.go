package model

import "time"

// ActivityLog is an append-only audit row. AccountID is nil for anonymous
// actors (e.g. a rejected request carrying no valid token).
type ActivityLog struct {
	ID          int64     `json:"id" db:"id"`
	AccountID   *int64    `json:"account_id,omitempty" db:"account_id"`
	ActionType  string    `json:"action_type" db:"action_type"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
