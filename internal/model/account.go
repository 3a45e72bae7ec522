package model

import "time"

// Account roles. Every account holds exactly one of these.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Account statuses. Accounts are never hard-deleted; deletion is modeled
// as a transition to StatusSuspended.
const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
)

// Account is a registered identity with credentials and a role. Username and
// email are globally unique.
type Account struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"`
	Status       string    `json:"status" db:"status"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// ValidRole reports whether r is one of the enumerated account roles.
func ValidRole(r string) bool {
	return r == RoleUser || r == RoleAdmin
}

// ValidStatus reports whether s is one of the enumerated account statuses.
func ValidStatus(s string) bool {
	return s == StatusActive || s == StatusSuspended
}
