package store

import (
	"context"
	"testing"

	"github.com/cinevault/cinevault/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(DriverSQLite, "")
	if err != nil {
		t.Fatalf("open in-memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func createTestAccount(t *testing.T, s *Store, username, email string) *model.Account {
	t.Helper()
	a := &model.Account{
		Username:     username,
		Email:        email,
		PasswordHash: "pbkdf2_sha256$1$c2FsdA$aGFzaA",
	}
	if err := s.CreateAccount(context.Background(), a); err != nil {
		t.Fatalf("create account %s: %v", username, err)
	}
	return a
}

func createTestMovie(t *testing.T, s *Store, title string) *model.Movie {
	t.Helper()
	m := &model.Movie{Title: title, Genre: "Drama", Approved: true}
	if err := s.CreateMovie(context.Background(), m); err != nil {
		t.Fatalf("create movie %s: %v", title, err)
	}
	return m
}

func TestOpenUnsupportedDriver(t *testing.T) {
	if _, err := Open("oracle", "dsn"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestSortClauseWhitelist(t *testing.T) {
	allowed := map[string]string{"rating": "rating", "created_at": "created_at"}

	if got := sortClause(allowed, "rating", "asc", "created_at"); got != "rating ASC" {
		t.Errorf("got %q", got)
	}
	if got := sortClause(allowed, "rating", "desc", "created_at"); got != "rating DESC" {
		t.Errorf("got %q", got)
	}
	// Injection attempts fall back to the default column.
	if got := sortClause(allowed, "rating; DROP TABLE movies", "asc", "created_at"); got != "created_at ASC" {
		t.Errorf("got %q", got)
	}
	if got := sortClause(allowed, "", "bogus", "created_at"); got != "created_at DESC" {
		t.Errorf("got %q", got)
	}
}

func TestPageClause(t *testing.T) {
	cases := []struct {
		page, size         int
		wantLimit, wantOff int
	}{
		{1, 20, 20, 0},
		{3, 10, 10, 20},
		{0, 0, 10, 0},     // defaults
		{2, 1000, 100, 100}, // clamped
	}
	for _, tc := range cases {
		limit, offset := pageClause(tc.page, tc.size)
		if limit != tc.wantLimit || offset != tc.wantOff {
			t.Errorf("pageClause(%d, %d) = (%d, %d), want (%d, %d)",
				tc.page, tc.size, limit, offset, tc.wantLimit, tc.wantOff)
		}
	}
}
