package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/cinevault/cinevault/internal/model"
)

var watchlistSortColumns = map[string]string{
	"added_at":    "added_at",
	"movie_title": "movie_title",
	"status":      "status",
}

// AddWatchlistEntry inserts a watchlist row. A second entry for the same
// (account, movie) pair yields ErrDuplicate.
func (s *Store) AddWatchlistEntry(ctx context.Context, e *model.WatchlistEntry) error {
	e.AddedAt = time.Now().UTC()
	if e.Status == "" {
		e.Status = model.WatchStatusToWatch
	}

	id, err := s.insert(ctx,
		`INSERT INTO watchlist (account_id, movie_id, movie_title, status, added_at)
		 VALUES (?, ?, ?, ?, ?)`,
		e.AccountID, e.MovieID, e.MovieTitle, e.Status, e.AddedAt)
	if err != nil {
		if isDuplicateErr(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert watchlist entry: %w", err)
	}
	e.ID = id
	return nil
}

// GetWatchlistEntry returns the entry for an (account, movie) pair.
func (s *Store) GetWatchlistEntry(ctx context.Context, accountID, movieID int64) (*model.WatchlistEntry, error) {
	var e model.WatchlistEntry
	err := s.get(ctx, &e,
		`SELECT * FROM watchlist WHERE account_id = ? AND movie_id = ?`, accountID, movieID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get watchlist entry: %w", err)
	}
	return &e, nil
}

// ListWatchlist returns a page of the account's watchlist plus the unpaged
// total, optionally filtered by status.
func (s *Store) ListWatchlist(ctx context.Context, accountID int64, status, sortBy, order string, page, size int) ([]model.WatchlistEntry, int64, error) {
	where := "WHERE account_id = ?"
	args := []interface{}{accountID}
	if status != "" {
		where += " AND status = ?"
		args = append(args, status)
	}

	var total int64
	if err := s.get(ctx, &total, "SELECT COUNT(*) FROM watchlist "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count watchlist: %w", err)
	}

	orderClause := sortClause(watchlistSortColumns, sortBy, order, "added_at")
	limit, offset := pageClause(page, size)
	args = append(args, limit, offset)

	var entries []model.WatchlistEntry
	q := "SELECT * FROM watchlist " + where + " ORDER BY " + orderClause + " LIMIT ? OFFSET ?"
	if err := s.sel(ctx, &entries, q, args...); err != nil {
		return nil, 0, fmt.Errorf("list watchlist: %w", err)
	}
	return entries, total, nil
}

// UpdateWatchlistStatus changes an entry's status.
func (s *Store) UpdateWatchlistStatus(ctx context.Context, accountID, movieID int64, status string) error {
	res, err := s.exec(ctx,
		`UPDATE watchlist SET status = ? WHERE account_id = ? AND movie_id = ?`,
		status, accountID, movieID)
	if err != nil {
		return fmt.Errorf("update watchlist status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteWatchlistEntry removes one entry.
func (s *Store) DeleteWatchlistEntry(ctx context.Context, accountID, movieID int64) error {
	res, err := s.exec(ctx,
		`DELETE FROM watchlist WHERE account_id = ? AND movie_id = ?`, accountID, movieID)
	if err != nil {
		return fmt.Errorf("delete watchlist entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteWatchlistEntries removes several entries at once, returning how many
// rows were actually deleted.
func (s *Store) DeleteWatchlistEntries(ctx context.Context, accountID int64, movieIDs []int64) (int64, error) {
	if len(movieIDs) == 0 {
		return 0, nil
	}
	q, args, err := sqlx.In(
		`DELETE FROM watchlist WHERE account_id = ? AND movie_id IN (?)`, accountID, movieIDs)
	if err != nil {
		return 0, fmt.Errorf("build bulk delete: %w", err)
	}
	res, err := s.db.ExecContext(ctx, s.db.Rebind(q), args...)
	if err != nil {
		return 0, fmt.Errorf("bulk delete watchlist: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// WatchlistSummary counts the account's entries per status.
func (s *Store) WatchlistSummary(ctx context.Context, accountID int64) (*model.WatchlistSummary, error) {
	rows := []struct {
		Status string `db:"status"`
		N      int    `db:"n"`
	}{}
	err := s.sel(ctx, &rows,
		`SELECT status, COUNT(*) AS n FROM watchlist WHERE account_id = ? GROUP BY status`, accountID)
	if err != nil {
		return nil, fmt.Errorf("watchlist summary: %w", err)
	}

	var sum model.WatchlistSummary
	for _, r := range rows {
		switch r.Status {
		case model.WatchStatusToWatch:
			sum.ToWatch = r.N
		case model.WatchStatusWatching:
			sum.Watching = r.N
		case model.WatchStatusWatched:
			sum.Watched = r.N
		}
		sum.Total += r.N
	}
	return &sum, nil
}

// CountWatchlistEntries counts all watchlist rows.
func (s *Store) CountWatchlistEntries(ctx context.Context) (int64, error) {
	var n int64
	if err := s.get(ctx, &n, `SELECT COUNT(*) FROM watchlist`); err != nil {
		return 0, fmt.Errorf("count watchlist entries: %w", err)
	}
	return n, nil
}
