package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/cinevault/cinevault/internal/auth"
	"github.com/cinevault/cinevault/internal/model"
	"github.com/cinevault/cinevault/internal/store"
)

func newTestAccountService(t *testing.T) (*AccountService, *store.Store, *auth.TokenService) {
	t.Helper()
	st, err := store.Open(store.DriverSQLite, "")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := auth.NewTokenService(auth.TokenConfig{Secret: "test-secret", TTL: time.Hour})
	return NewAccountService(st, tokens, logger), st, tokens
}

func TestRegisterAndLogin(t *testing.T) {
	svc, st, tokens := newTestAccountService(t)
	ctx := context.Background()

	account, err := svc.Register(ctx, "alice", "alice@example.com", "Sup3rSecret", "")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if account.Role != model.RoleUser {
		t.Errorf("default role = %q, want user", account.Role)
	}
	if account.PasswordHash == "Sup3rSecret" {
		t.Error("password stored in plaintext")
	}

	result, err := svc.Login(ctx, "alice@example.com", "Sup3rSecret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.TokenType != "bearer" || result.SessionID == 0 {
		t.Errorf("unexpected login result: %+v", result)
	}

	id, err := tokens.Verify(result.Token)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if id.AccountID != account.ID || id.Email != "alice@example.com" || id.Role != model.RoleUser {
		t.Errorf("token identity = %+v", id)
	}

	n, err := st.CountSessions(ctx, account.ID)
	if err != nil {
		t.Fatalf("CountSessions: %v", err)
	}
	if n != 1 {
		t.Errorf("session rows = %d, want 1", n)
	}
}

func TestRegisterRejectsDuplicatesAndWeakPasswords(t *testing.T) {
	svc, _, _ := newTestAccountService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "alice@example.com", "Sup3rSecret", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Register(ctx, "alice", "other@example.com", "Sup3rSecret", ""); !errors.Is(err, ErrAccountExists) {
		t.Errorf("duplicate username: got %v, want ErrAccountExists", err)
	}
	if _, err := svc.Register(ctx, "other", "alice@example.com", "Sup3rSecret", ""); !errors.Is(err, ErrAccountExists) {
		t.Errorf("duplicate email: got %v, want ErrAccountExists", err)
	}
	if _, err := svc.Register(ctx, "bob", "bob@example.com", "weak", ""); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("weak password: got %v, want ErrWeakPassword", err)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc, _, _ := newTestAccountService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "alice@example.com", "Sup3rSecret", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, unknownErr := svc.Login(ctx, "nobody@example.com", "Sup3rSecret")
	_, wrongErr := svc.Login(ctx, "alice@example.com", "WrongSecret1")
	if !errors.Is(unknownErr, ErrInvalidCredentials) {
		t.Errorf("unknown email: got %v", unknownErr)
	}
	if !errors.Is(wrongErr, ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v", wrongErr)
	}
	if unknownErr.Error() != wrongErr.Error() {
		t.Errorf("failure reasons leak: %q vs %q", unknownErr, wrongErr)
	}
}

func TestLoginRejectsSuspendedAccount(t *testing.T) {
	svc, st, _ := newTestAccountService(t)
	ctx := context.Background()

	account, err := svc.Register(ctx, "alice", "alice@example.com", "Sup3rSecret", "")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := st.UpdateAccountStatus(ctx, account.ID, model.StatusSuspended); err != nil {
		t.Fatalf("suspend: %v", err)
	}
	if _, err := svc.Login(ctx, "alice@example.com", "Sup3rSecret"); !errors.Is(err, ErrAccountSuspended) {
		t.Errorf("suspended login: got %v, want ErrAccountSuspended", err)
	}
}

func TestDoubleLoginKeepsOneSession(t *testing.T) {
	svc, st, _ := newTestAccountService(t)
	ctx := context.Background()

	account, err := svc.Register(ctx, "alice", "alice@example.com", "Sup3rSecret", "")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	first, err := svc.Login(ctx, "alice@example.com", "Sup3rSecret")
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	second, err := svc.Login(ctx, "alice@example.com", "Sup3rSecret")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if first.SessionID != second.SessionID {
		t.Errorf("second login created a new session row: %d vs %d", first.SessionID, second.SessionID)
	}

	n, err := st.CountSessions(ctx, account.ID)
	if err != nil {
		t.Fatalf("CountSessions: %v", err)
	}
	if n != 1 {
		t.Errorf("session rows = %d, want 1", n)
	}

	sess, err := st.GetSession(ctx, second.SessionID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if sess.Token != second.Token {
		t.Error("stored token is not from the most recent login")
	}
}

func TestLogout(t *testing.T) {
	svc, st, tokens := newTestAccountService(t)
	ctx := context.Background()

	account, err := svc.Register(ctx, "alice", "alice@example.com", "Sup3rSecret", "")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	result, err := svc.Login(ctx, "alice@example.com", "Sup3rSecret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	id := &auth.Identity{AccountID: account.ID, Email: account.Email, Role: account.Role}
	if err := svc.Logout(ctx, id); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	sess, err := st.GetSessionByAccount(ctx, account.ID)
	if err != nil {
		t.Fatalf("GetSessionByAccount: %v", err)
	}
	if sess.Status != model.SessionSuspended {
		t.Errorf("session status = %q, want suspended", sess.Status)
	}

	// The token is advisory bookkeeping only; it verifies until expiry.
	if _, err := tokens.Verify(result.Token); err != nil {
		t.Errorf("token invalidated by logout: %v", err)
	}

	// Logging out twice finds no active state to change but still succeeds
	// at the store level (row exists, update is idempotent).
	if err := svc.Logout(ctx, id); err != nil {
		t.Errorf("second logout: %v", err)
	}
}
