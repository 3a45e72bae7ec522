package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cinevault/cinevault/internal/auth"
)

type contextKeyIdentity string

// IdentityKey is the context key for the resolved request identity.
const IdentityKey contextKeyIdentity = "identity"

// openPrefixes lists path prefixes that never carry an identity: the
// resolver skips token parsing for them entirely.
var openPrefixes = []string{
	"/api/v1/auth/register",
	"/api/v1/auth/login",
	"/api/v1/auth/validate-token",
	"/healthz",
	"/readyz",
	"/docs",
}

// ResolveIdentity returns an HTTP middleware that parses the Authorization
// bearer token and attaches the verified identity to the request context.
// Resolution never rejects a request: an absent or invalid token leaves the
// identity nil, and route guards decide whether that is acceptable.
// Verification failures are logged but otherwise swallowed.
func ResolveIdentity(logger *slog.Logger, tokens *auth.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if openPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				next.ServeHTTP(w, r)
				return
			}

			id, err := tokens.Verify(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				logger.Debug("bearer token rejected, continuing unauthenticated",
					"path", r.URL.Path,
					"error", err.Error(),
					"request_id", GetRequestID(r.Context()),
				)
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), IdentityKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetIdentity extracts the resolved identity from the context. Returns nil
// for unauthenticated requests.
func GetIdentity(ctx context.Context) *auth.Identity {
	if id, ok := ctx.Value(IdentityKey).(*auth.Identity); ok {
		return id
	}
	return nil
}

func openPath(path string) bool {
	for _, p := range openPrefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
