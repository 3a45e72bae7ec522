package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cinevault/cinevault/internal/model"
)

// AccountFilter narrows ListAccounts results. Zero values mean "no filter".
type AccountFilter struct {
	Role   string
	Search string // matched against username and email
	Page   int
	Size   int
}

// CreateAccount inserts a new account. ID, CreatedAt, and UpdatedAt are
// populated on success. A username or email collision yields ErrDuplicate.
func (s *Store) CreateAccount(ctx context.Context, a *model.Account) error {
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.Role == "" {
		a.Role = model.RoleUser
	}
	if a.Status == "" {
		a.Status = model.StatusActive
	}

	id, err := s.insert(ctx,
		`INSERT INTO accounts (username, email, password_hash, role, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.Username, a.Email, a.PasswordHash, a.Role, a.Status, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		if isDuplicateErr(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert account: %w", err)
	}
	a.ID = id
	return nil
}

// GetAccount returns an account by ID.
func (s *Store) GetAccount(ctx context.Context, id int64) (*model.Account, error) {
	var a model.Account
	if err := s.get(ctx, &a, `SELECT * FROM accounts WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &a, nil
}

// GetAccountByEmail returns an account by its unique email.
func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	var a model.Account
	if err := s.get(ctx, &a, `SELECT * FROM accounts WHERE email = ?`, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get account by email: %w", err)
	}
	return &a, nil
}

// AccountExists reports whether an account already claims the given username
// or email.
func (s *Store) AccountExists(ctx context.Context, username, email string) (bool, error) {
	var n int64
	err := s.get(ctx, &n,
		`SELECT COUNT(*) FROM accounts WHERE username = ? OR email = ?`, username, email)
	if err != nil {
		return false, fmt.Errorf("check account exists: %w", err)
	}
	return n > 0, nil
}

// ListAccounts returns a page of accounts plus the unpaged total.
func (s *Store) ListAccounts(ctx context.Context, f AccountFilter) ([]model.Account, int64, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	if f.Role != "" {
		where += " AND role = ?"
		args = append(args, f.Role)
	}
	if f.Search != "" {
		where += " AND (LOWER(username) LIKE ? OR LOWER(email) LIKE ?)"
		pat := "%" + strings.ToLower(f.Search) + "%"
		args = append(args, pat, pat)
	}

	var total int64
	if err := s.get(ctx, &total, "SELECT COUNT(*) FROM accounts "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count accounts: %w", err)
	}

	limit, offset := pageClause(f.Page, f.Size)
	args = append(args, limit, offset)

	var accounts []model.Account
	q := "SELECT * FROM accounts " + where + " ORDER BY id LIMIT ? OFFSET ?"
	if err := s.sel(ctx, &accounts, q, args...); err != nil {
		return nil, 0, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, total, nil
}

// UpdateAccountRole sets the account's role.
func (s *Store) UpdateAccountRole(ctx context.Context, id int64, role string) error {
	return s.updateAccountField(ctx, id, "role", role)
}

// UpdateAccountStatus sets the account's status. Soft deletion uses this
// with model.StatusSuspended.
func (s *Store) UpdateAccountStatus(ctx context.Context, id int64, status string) error {
	return s.updateAccountField(ctx, id, "status", status)
}

func (s *Store) updateAccountField(ctx context.Context, id int64, field, value string) error {
	res, err := s.exec(ctx,
		"UPDATE accounts SET "+field+" = ?, updated_at = ? WHERE id = ?",
		value, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update account %s: %w", field, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountAccounts counts accounts matching the optional role and status
// filters; empty strings count everything.
func (s *Store) CountAccounts(ctx context.Context, role, status string) (int64, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	if role != "" {
		where += " AND role = ?"
		args = append(args, role)
	}
	if status != "" {
		where += " AND status = ?"
		args = append(args, status)
	}
	var n int64
	if err := s.get(ctx, &n, "SELECT COUNT(*) FROM accounts "+where, args...); err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return n, nil
}

// HasAnyAdmin reports whether at least one admin account exists, used to
// warn on first run.
func (s *Store) HasAnyAdmin(ctx context.Context) (bool, error) {
	n, err := s.CountAccounts(ctx, model.RoleAdmin, "")
	return n > 0, err
}
