// Package service implements the business operations behind the HTTP
// handlers: the account/login lifecycle and review management.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cinevault/cinevault/internal/auth"
	"github.com/cinevault/cinevault/internal/model"
	"github.com/cinevault/cinevault/internal/store"
)

var (
	// ErrInvalidCredentials deliberately does not distinguish an unknown
	// email from a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountExists      = errors.New("user already exists")
	ErrWeakPassword       = errors.New("weak password")
	ErrAccountSuspended   = errors.New("account suspended")
)

// AccountService owns registration, login, and logout, which together
// make up the login-session lifecycle.
type AccountService struct {
	store  *store.Store
	tokens *auth.TokenService
	logger *slog.Logger
}

// NewAccountService creates an AccountService.
func NewAccountService(st *store.Store, tokens *auth.TokenService, logger *slog.Logger) *AccountService {
	return &AccountService{store: st, tokens: tokens, logger: logger}
}

// Register creates a new account. Username and email must be unused and the
// password must pass the strength policy. An empty role defaults to "user".
func (s *AccountService) Register(ctx context.Context, username, email, password, role string) (*model.Account, error) {
	if role == "" {
		role = model.RoleUser
	}

	exists, err := s.store.AccountExists(ctx, username, email)
	if err != nil {
		return nil, fmt.Errorf("check existing account: %w", err)
	}
	if exists {
		s.logger.Warn("registration rejected, account exists", "email", email)
		return nil, ErrAccountExists
	}

	if !auth.StrongPassword(password) {
		return nil, ErrWeakPassword
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &model.Account{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Status:       model.StatusActive,
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.logger.Info("account registered", "account_id", account.ID, "email", email)
	s.audit(ctx, &account.ID, "register", "account registered: "+email)
	return account, nil
}

// LoginResult is returned to a successfully authenticated client.
type LoginResult struct {
	Token     string `json:"access_token"`
	TokenType string `json:"token_type"`
	SessionID int64  `json:"session_id"`
	Role      string `json:"role"`
	ExpiresIn int    `json:"expires_in"`
}

// Login verifies credentials, mints a session token, and upserts the
// account's login session so that at most one session row exists per
// account. Two sequential logins return different tokens but leave a single
// row, holding the most recent one.
func (s *AccountService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	account, err := s.store.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("login failed", "email", email)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("look up account: %w", err)
	}

	if !auth.VerifyPassword(password, account.PasswordHash) {
		s.logger.Warn("login failed", "email", email)
		return nil, ErrInvalidCredentials
	}

	if account.Status != model.StatusActive {
		s.logger.Warn("login rejected, account suspended", "account_id", account.ID)
		return nil, ErrAccountSuspended
	}

	token, expiresAt, err := s.tokens.Issue(auth.Identity{
		AccountID: account.ID,
		Email:     account.Email,
		Role:      account.Role,
		Username:  account.Username,
	})
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	sess, err := s.store.UpsertSession(ctx, account.ID, token, &expiresAt)
	if err != nil {
		return nil, fmt.Errorf("record session: %w", err)
	}

	s.logger.Info("account logged in", "account_id", account.ID)
	s.audit(ctx, &account.ID, "login", "account logged in: "+email)
	return &LoginResult{
		Token:     token,
		TokenType: "bearer",
		SessionID: sess.ID,
		Role:      account.Role,
		ExpiresIn: int(s.tokens.TTL().Seconds()),
	}, nil
}

// Logout suspends the caller's login session, resolved through the account
// id carried by the verified bearer token. The token itself remains valid
// until its natural expiry; the session record is advisory bookkeeping.
func (s *AccountService) Logout(ctx context.Context, id *auth.Identity) error {
	if _, err := s.store.SuspendSessionByAccount(ctx, id.AccountID); err != nil {
		return err
	}
	s.logger.Info("account logged out", "account_id", id.AccountID)
	s.audit(ctx, &id.AccountID, "logout", "account logged out: "+id.Email)
	return nil
}

func (s *AccountService) audit(ctx context.Context, accountID *int64, action, description string) {
	if err := s.store.RecordActivity(ctx, accountID, action, description); err != nil {
		s.logger.Error("failed to record activity", "action", action, "error", err)
	}
}
