// Package guard holds the authorization predicates evaluated between
// identity resolution and route logic. Guards are pure functions over the
// resolved identity; they are composed explicitly per route as an ordered
// chain rather than by wrapping handlers.
package guard

import (
	"errors"
	"fmt"

	"github.com/cinevault/cinevault/internal/auth"
	"github.com/cinevault/cinevault/internal/model"
)

// Rejection reasons. Authentication and authorization failures carry
// distinct messages and must not be collapsed into each other.
var (
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrAdminRequired          = errors.New("admin access required")
)

// SelfActionError rejects an admin acting on their own account in a way the
// system forbids (demoting, suspending, or deleting themselves).
type SelfActionError struct {
	Action string
}

func (e *SelfActionError) Error() string {
	return fmt.Sprintf("cannot %s your own account", e.Action)
}

// Guard is a pure predicate over the identity resolved for a request. A nil
// identity means the request carried no valid token.
type Guard func(id *auth.Identity) error

// Check evaluates guards in order and returns the first rejection, or nil
// when every guard passes.
func Check(id *auth.Identity, guards ...Guard) error {
	for _, g := range guards {
		if err := g(id); err != nil {
			return err
		}
	}
	return nil
}

// Authenticated requires a resolved identity with one of the known roles.
func Authenticated(id *auth.Identity) error {
	if id == nil || !model.ValidRole(id.Role) {
		return ErrAuthenticationRequired
	}
	return nil
}

// AdminOnly requires an admin identity. An absent identity is an
// authentication failure; a present non-admin identity is an authorization
// failure. The two reasons stay distinct.
func AdminOnly(id *auth.Identity) error {
	if id == nil {
		return ErrAuthenticationRequired
	}
	if id.Role != model.RoleAdmin {
		return ErrAdminRequired
	}
	return nil
}

// SelfRoleChangeForbidden rejects an admin changing their own role away from
// admin. Role changes on other accounts pass unconditionally.
func SelfRoleChangeForbidden(targetID int64, newRole string) Guard {
	return func(id *auth.Identity) error {
		if id != nil && id.AccountID == targetID && newRole != model.RoleAdmin {
			return &SelfActionError{Action: "change the role of"}
		}
		return nil
	}
}

// SelfSuspendForbidden rejects an admin suspending their own account.
func SelfSuspendForbidden(targetID int64, newStatus string) Guard {
	return func(id *auth.Identity) error {
		if id != nil && id.AccountID == targetID && newStatus == model.StatusSuspended {
			return &SelfActionError{Action: "suspend"}
		}
		return nil
	}
}

// SelfDeleteForbidden rejects an admin deleting their own account.
func SelfDeleteForbidden(targetID int64) Guard {
	return func(id *auth.Identity) error {
		if id != nil && id.AccountID == targetID {
			return &SelfActionError{Action: "delete"}
		}
		return nil
	}
}
