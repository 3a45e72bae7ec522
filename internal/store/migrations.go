package store

import (
	"fmt"
	"strings"
)

// dialect holds the DDL fragments that differ between the supported drivers.
type dialect struct {
	pk     string // auto-incrementing primary key column
	bigint string
}

func (s *Store) dialect() dialect {
	switch s.driver {
	case DriverPostgres:
		return dialect{pk: "BIGSERIAL PRIMARY KEY", bigint: "BIGINT"}
	case DriverMySQL:
		return dialect{pk: "BIGINT PRIMARY KEY AUTO_INCREMENT", bigint: "BIGINT"}
	default:
		return dialect{pk: "INTEGER PRIMARY KEY AUTOINCREMENT", bigint: "INTEGER"}
	}
}

func (s *Store) migrate() error {
	d := s.dialect()

	migrations := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS accounts (
			id %s,
			username VARCHAR(100) UNIQUE NOT NULL,
			email VARCHAR(255) UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			role VARCHAR(10) NOT NULL,
			status VARCHAR(10) NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`, d.pk),

		// No uniqueness constraint on account_id: the one-row-per-account
		// invariant is kept by the transactional upsert in UpsertSession.
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS login_sessions (
			id %s,
			account_id %s NOT NULL,
			token TEXT NOT NULL,
			status VARCHAR(10) NOT NULL,
			created_at TIMESTAMP NOT NULL,
			expires_at TIMESTAMP NULL
		)`, d.pk, d.bigint),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS movies (
			id %s,
			title VARCHAR(255) NOT NULL,
			description TEXT NOT NULL,
			genre VARCHAR(100) NOT NULL,
			language VARCHAR(50) NOT NULL,
			director VARCHAR(100) NOT NULL,
			cast_list TEXT NOT NULL,
			release_year INTEGER NOT NULL,
			poster_url TEXT NOT NULL,
			rating REAL NOT NULL,
			approved BOOLEAN NOT NULL,
			status VARCHAR(10) NOT NULL,
			created_by %s NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`, d.pk, d.bigint),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS reviews (
			id %s,
			movie_id %s NOT NULL,
			account_id %s NOT NULL,
			rating REAL NOT NULL,
			comment TEXT NOT NULL,
			like_count INTEGER NOT NULL,
			sentiment_score REAL NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			UNIQUE (account_id, movie_id)
		)`, d.pk, d.bigint, d.bigint),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS review_likes (
			id %s,
			review_id %s NOT NULL,
			account_id %s NOT NULL,
			created_at TIMESTAMP NOT NULL,
			UNIQUE (review_id, account_id)
		)`, d.pk, d.bigint, d.bigint),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS review_history (
			id %s,
			review_id %s NOT NULL,
			account_id %s NOT NULL,
			old_rating REAL NOT NULL,
			old_comment TEXT NOT NULL,
			changed_at TIMESTAMP NOT NULL
		)`, d.pk, d.bigint, d.bigint),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS watchlist (
			id %s,
			account_id %s NOT NULL,
			movie_id %s NOT NULL,
			movie_title VARCHAR(255) NOT NULL,
			status VARCHAR(50) NOT NULL,
			added_at TIMESTAMP NOT NULL,
			UNIQUE (account_id, movie_id)
		)`, d.pk, d.bigint, d.bigint),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS activity_logs (
			id %s,
			account_id %s NULL,
			action_type VARCHAR(100) NOT NULL,
			description TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`, d.pk, d.bigint),

	}

	// MySQL has no CREATE INDEX IF NOT EXISTS; there the plain form is used
	// and the "duplicate key name" error on reruns is treated as a no-op.
	ine := "IF NOT EXISTS "
	if s.driver == DriverMySQL {
		ine = ""
	}
	for _, idx := range []string{
		"idx_login_sessions_account ON login_sessions(account_id)",
		"idx_movies_status ON movies(status)",
		"idx_reviews_movie ON reviews(movie_id)",
		"idx_watchlist_account ON watchlist(account_id)",
		"idx_activity_account ON activity_logs(account_id)",
	} {
		migrations = append(migrations, "CREATE INDEX "+ine+idx)
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "duplicate key name") {
				continue
			}
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}
