package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cinevault/cinevault/internal/guard"
)

// AuditRecorder receives a row for every guard rejection. The store's
// activity log satisfies it.
type AuditRecorder interface {
	RecordActivity(ctx context.Context, accountID *int64, actionType, description string) error
}

// Require returns an HTTP middleware that evaluates the given guards against
// the identity resolved for the request. The first rejection ends the
// request: a missing identity maps to 401, an insufficient role to 403.
// Every rejection is logged and recorded in the activity log.
func Require(logger *slog.Logger, audit AuditRecorder, guards ...guard.Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := GetIdentity(r.Context())
			if err := guard.Check(id, guards...); err != nil {
				status := http.StatusForbidden
				if errors.Is(err, guard.ErrAuthenticationRequired) {
					status = http.StatusUnauthorized
				}
				RecordRejection(r, logger, audit, status, err)
				writeGuardError(w, status, err.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RecordRejection emits the structured warn line and access_denied activity
// row for a guard rejection, naming the actor when one is present. Shared by
// Require and by handlers that evaluate request-dependent guards themselves.
func RecordRejection(r *http.Request, logger *slog.Logger, audit AuditRecorder, status int, reason error) {
	id := GetIdentity(r.Context())
	var accountID *int64
	if id != nil {
		accountID = &id.AccountID
	}
	logger.Warn("request rejected",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"reason", reason.Error(),
		"request_id", GetRequestID(r.Context()),
	)
	if audit != nil {
		if aerr := audit.RecordActivity(r.Context(), accountID, "access_denied",
			r.Method+" "+r.URL.Path+": "+reason.Error()); aerr != nil {
			logger.Error("failed to record activity", "error", aerr)
		}
	}
}

// writeGuardError constructs the error envelope by hand to avoid an import
// cycle with the handler package.
func writeGuardError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":{"code":` + strconv.Itoa(status) + `,"message":` + strconv.Quote(message) + `}}`))
}
