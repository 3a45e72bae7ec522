package model

import "time"

// Watchlist entry statuses.
const (
	WatchStatusToWatch  = "To Watch"
	WatchStatusWatching = "Watching"
	WatchStatusWatched  = "Watched"
)

// WatchlistEntry marks a movie on an account's watchlist. One row per
// (account, movie) pair.
type WatchlistEntry struct {
	ID         int64     `json:"id" db:"id"`
	AccountID  int64     `json:"account_id" db:"account_id"`
	MovieID    int64     `json:"movie_id" db:"movie_id"`
	MovieTitle string    `json:"movie_title" db:"movie_title"`
	Status     string    `json:"status" db:"status"`
	AddedAt    time.Time `json:"added_at" db:"added_at"`
}

// ValidWatchStatus reports whether s is one of the enumerated watchlist
// statuses.
func ValidWatchStatus(s string) bool {
	return s == WatchStatusToWatch || s == WatchStatusWatching || s == WatchStatusWatched
}

// WatchlistSummary counts an account's watchlist entries per status.
type WatchlistSummary struct {
	ToWatch  int `json:"to_watch"`
	Watching int `json:"watching"`
	Watched  int `json:"watched"`
	Total    int `json:"total"`
}
