package store

import (
	"context"
	"errors"
	"testing"

	"github.com/cinevault/cinevault/internal/model"
)

func addEntry(t *testing.T, s *Store, accountID int64, m *model.Movie, status string) *model.WatchlistEntry {
	t.Helper()
	e := &model.WatchlistEntry{AccountID: accountID, MovieID: m.ID, MovieTitle: m.Title, Status: status}
	if err := s.AddWatchlistEntry(context.Background(), e); err != nil {
		t.Fatalf("add watchlist entry for %s: %v", m.Title, err)
	}
	return e
}

func TestAddWatchlistEntryDefaultsAndDuplicates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := createTestAccount(t, s, "alice", "alice@example.com")
	m := createTestMovie(t, s, "Heat")

	e := addEntry(t, s, a.ID, m, "")
	if e.Status != model.WatchStatusToWatch {
		t.Errorf("default status = %q, want %q", e.Status, model.WatchStatusToWatch)
	}

	dup := &model.WatchlistEntry{AccountID: a.ID, MovieID: m.ID, MovieTitle: m.Title}
	if err := s.AddWatchlistEntry(ctx, dup); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate entry: got %v, want ErrDuplicate", err)
	}
}

func TestWatchlistStatusAndRemoval(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := createTestAccount(t, s, "alice", "alice@example.com")
	m := createTestMovie(t, s, "Heat")
	addEntry(t, s, a.ID, m, "")

	if err := s.UpdateWatchlistStatus(ctx, a.ID, m.ID, model.WatchStatusWatched); err != nil {
		t.Fatalf("UpdateWatchlistStatus: %v", err)
	}
	got, err := s.GetWatchlistEntry(ctx, a.ID, m.ID)
	if err != nil {
		t.Fatalf("GetWatchlistEntry: %v", err)
	}
	if got.Status != model.WatchStatusWatched {
		t.Errorf("status = %q", got.Status)
	}

	if err := s.DeleteWatchlistEntry(ctx, a.ID, m.ID); err != nil {
		t.Fatalf("DeleteWatchlistEntry: %v", err)
	}
	if _, err := s.GetWatchlistEntry(ctx, a.ID, m.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted entry still visible: %v", err)
	}
	if err := s.UpdateWatchlistStatus(ctx, a.ID, m.ID, model.WatchStatusWatched); !errors.Is(err, ErrNotFound) {
		t.Errorf("update on missing entry: got %v, want ErrNotFound", err)
	}
}

func TestWatchlistBulkDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := createTestAccount(t, s, "alice", "alice@example.com")
	m1 := createTestMovie(t, s, "Heat")
	m2 := createTestMovie(t, s, "Ronin")
	m3 := createTestMovie(t, s, "Thief")
	addEntry(t, s, a.ID, m1, "")
	addEntry(t, s, a.ID, m2, "")
	addEntry(t, s, a.ID, m3, "")

	n, err := s.DeleteWatchlistEntries(ctx, a.ID, []int64{m1.ID, m3.ID, 9999})
	if err != nil {
		t.Fatalf("DeleteWatchlistEntries: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted %d rows, want 2", n)
	}

	n, err = s.DeleteWatchlistEntries(ctx, a.ID, nil)
	if err != nil {
		t.Fatalf("empty bulk delete: %v", err)
	}
	if n != 0 {
		t.Errorf("empty bulk delete removed %d rows", n)
	}
}

func TestWatchlistSummaryAndListing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := createTestAccount(t, s, "alice", "alice@example.com")
	other := createTestAccount(t, s, "bob", "bob@example.com")
	m1 := createTestMovie(t, s, "Heat")
	m2 := createTestMovie(t, s, "Ronin")
	m3 := createTestMovie(t, s, "Thief")
	addEntry(t, s, a.ID, m1, model.WatchStatusWatched)
	addEntry(t, s, a.ID, m2, model.WatchStatusWatched)
	addEntry(t, s, a.ID, m3, model.WatchStatusWatching)
	addEntry(t, s, other.ID, m1, model.WatchStatusToWatch)

	sum, err := s.WatchlistSummary(ctx, a.ID)
	if err != nil {
		t.Fatalf("WatchlistSummary: %v", err)
	}
	if sum.Watched != 2 || sum.Watching != 1 || sum.ToWatch != 0 || sum.Total != 3 {
		t.Errorf("summary = %+v", sum)
	}

	entries, total, err := s.ListWatchlist(ctx, a.ID, model.WatchStatusWatched, "", "", 1, 20)
	if err != nil {
		t.Fatalf("ListWatchlist: %v", err)
	}
	if total != 2 || len(entries) != 2 {
		t.Errorf("status filter: total=%d n=%d", total, len(entries))
	}
	for _, e := range entries {
		if e.AccountID != a.ID {
			t.Errorf("listing leaked another account's entry: %+v", e)
		}
	}
}
