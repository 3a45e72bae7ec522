package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cinevault/cinevault/internal/model"
)

// UpsertSession records a successful login. If the account already has a
// session row, in any state, its token is overwritten and its status forced
// back to active; otherwise a fresh row is created. The whole operation runs
// in one transaction so concurrent logins for the same account cannot
// interleave into a half-written row, and the table never holds more than one
// row per account. The most recent login wins.
func (s *Store) UpsertSession(ctx context.Context, accountID int64, token string, expiresAt *time.Time) (*model.LoginSession, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin session upsert: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	var sess model.LoginSession
	err = tx.GetContext(ctx, &sess,
		s.db.Rebind(`SELECT * FROM login_sessions WHERE account_id = ? LIMIT 1`), accountID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		sess = model.LoginSession{
			AccountID: accountID,
			Token:     token,
			Status:    model.SessionActive,
			CreatedAt: now,
			ExpiresAt: expiresAt,
		}
		res, err := tx.ExecContext(ctx,
			s.db.Rebind(`INSERT INTO login_sessions (account_id, token, status, created_at, expires_at)
				VALUES (?, ?, ?, ?, ?)`),
			accountID, token, model.SessionActive, now, expiresAt)
		if err != nil {
			return nil, fmt.Errorf("insert session: %w", err)
		}
		if s.driver != DriverPostgres {
			sess.ID, _ = res.LastInsertId()
		} else {
			// RETURNING is not available through Exec; re-read the id.
			if err := tx.GetContext(ctx, &sess.ID,
				s.db.Rebind(`SELECT id FROM login_sessions WHERE account_id = ?`), accountID); err != nil {
				return nil, fmt.Errorf("read session id: %w", err)
			}
		}

	case err != nil:
		return nil, fmt.Errorf("get session for upsert: %w", err)

	default:
		sess.Token = token
		sess.Status = model.SessionActive
		sess.ExpiresAt = expiresAt
		if _, err := tx.ExecContext(ctx,
			s.db.Rebind(`UPDATE login_sessions SET token = ?, status = ?, expires_at = ? WHERE id = ?`),
			token, model.SessionActive, expiresAt, sess.ID); err != nil {
			return nil, fmt.Errorf("update session: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit session upsert: %w", err)
	}
	return &sess, nil
}

// GetSession returns a login session by ID.
func (s *Store) GetSession(ctx context.Context, id int64) (*model.LoginSession, error) {
	var sess model.LoginSession
	if err := s.get(ctx, &sess, `SELECT * FROM login_sessions WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &sess, nil
}

// GetSessionByAccount returns the account's session row, if any.
func (s *Store) GetSessionByAccount(ctx context.Context, accountID int64) (*model.LoginSession, error) {
	var sess model.LoginSession
	if err := s.get(ctx, &sess, `SELECT * FROM login_sessions WHERE account_id = ? LIMIT 1`, accountID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session by account: %w", err)
	}
	return &sess, nil
}

// SuspendSession transitions a session to suspended. Suspending an already
// suspended session is a no-op outcome, not an error. The token itself is
// not revoked: it stays cryptographically valid until its natural expiry.
func (s *Store) SuspendSession(ctx context.Context, id int64) error {
	res, err := s.exec(ctx, `UPDATE login_sessions SET status = ? WHERE id = ?`,
		model.SessionSuspended, id)
	if err != nil {
		return fmt.Errorf("suspend session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SuspendSessionByAccount suspends the account's session row. Logout resolves
// the session through the bearer token's account id, so callers do not need
// to have kept the session id from login.
func (s *Store) SuspendSessionByAccount(ctx context.Context, accountID int64) (*model.LoginSession, error) {
	sess, err := s.GetSessionByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if err := s.SuspendSession(ctx, sess.ID); err != nil {
		return nil, err
	}
	sess.Status = model.SessionSuspended
	return sess, nil
}

// CountSessions counts session rows for an account. Used by tests to assert
// the upsert invariant.
func (s *Store) CountSessions(ctx context.Context, accountID int64) (int64, error) {
	var n int64
	if err := s.get(ctx, &n, `SELECT COUNT(*) FROM login_sessions WHERE account_id = ?`, accountID); err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}
