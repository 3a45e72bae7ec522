package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/cinevault/cinevault/internal/auth"
	"github.com/cinevault/cinevault/internal/server/middleware"
	"github.com/cinevault/cinevault/internal/service"
	"github.com/cinevault/cinevault/internal/store"
)

// AuthHandler serves the registration, login, token validation, and logout
// endpoints.
type AuthHandler struct {
	accounts *service.AccountService
	tokens   *auth.TokenService
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(accounts *service.AccountService, tokens *auth.TokenService) *AuthHandler {
	return &AuthHandler{accounts: accounts, tokens: tokens}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// Register handles POST /api/v1/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if len(req.Username) < 3 {
		writeError(w, http.StatusBadRequest, "Username must be at least 3 characters")
		return
	}
	if !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusBadRequest, "Invalid email address")
		return
	}
	if req.Role != "" && req.Role != "user" && req.Role != "admin" {
		writeError(w, http.StatusBadRequest, "Role must be user or admin")
		return
	}

	account, err := h.accounts.Register(r.Context(), req.Username, req.Email, req.Password, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAccountExists):
			writeError(w, http.StatusConflict, "User already exists")
		case errors.Is(err, service.ErrWeakPassword):
			writeError(w, http.StatusBadRequest,
				"Password must be at least 8 characters with an uppercase letter, a lowercase letter, and a digit")
		default:
			writeError(w, http.StatusInternalServerError, "Registration failed")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"user_id":  account.ID,
		"username": account.Username,
		"email":    account.Email,
		"role":     account.Role,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	result, err := h.accounts.Login(r.Context(), strings.TrimSpace(strings.ToLower(req.Email)), req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
		case errors.Is(err, service.ErrAccountSuspended):
			writeError(w, http.StatusForbidden, "Account is suspended")
		default:
			writeError(w, http.StatusInternalServerError, "Login failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type validateTokenRequest struct {
	Token string `json:"token"`
}

// ValidateToken handles POST /api/v1/auth/validate-token. The token may be
// supplied in the body or as a bearer header; the endpoint is open so
// clients can check a stale token without tripping the guards.
func (h *AuthHandler) ValidateToken(w http.ResponseWriter, r *http.Request) {
	var req validateTokenRequest
	_ = readJSON(r, &req)
	token := req.Token
	if token == "" {
		if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
			token = strings.TrimPrefix(header, "Bearer ")
		}
	}

	id, err := h.tokens.Verify(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"valid":      true,
		"account_id": id.AccountID,
		"email":      id.Email,
		"role":       id.Role,
		"username":   id.Username,
	})
}

// Logout handles POST /api/v1/auth/logout. The route is guarded, so the
// identity is always present here.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r.Context())
	if err := h.accounts.Logout(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "No login session found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Logout failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}
