package model

import "time"

// Login session statuses.
const (
	SessionActive    = "active"
	SessionSuspended = "suspended"
)

// LoginSession is the bookkeeping record of an account's most recent issued
// token. There is at most one row per account: logging in again overwrites
// the existing row instead of appending a new one. The record is advisory:
// token verification never consults it, so a suspended session does not
// invalidate a token that has not yet expired.
type LoginSession struct {
	ID        int64      `json:"id" db:"id"`
	AccountID int64      `json:"account_id" db:"account_id"`
	Token     string     `json:"-" db:"token"`
	Status    string     `json:"status" db:"status"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" db:"expires_at"`
}
