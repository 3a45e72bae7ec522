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

var movieSortColumns = map[string]string{
	"rating":       "rating",
	"title":        "title",
	"release_year": "release_year",
	"created_at":   "created_at",
}

// CreateMovie inserts a new catalog entry.
func (s *Store) CreateMovie(ctx context.Context, m *model.Movie) error {
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now
	if m.Status == "" {
		m.Status = model.MovieActive
	}

	id, err := s.insert(ctx,
		`INSERT INTO movies (title, description, genre, language, director, cast_list,
			release_year, poster_url, rating, approved, status, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Title, m.Description, m.Genre, m.Language, m.Director, m.Cast,
		m.ReleaseYear, m.PosterURL, m.Rating, m.Approved, m.Status, m.CreatedBy,
		m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert movie: %w", err)
	}
	m.ID = id
	return nil
}

// GetMovie returns a movie by ID. Soft-deleted movies are not returned.
func (s *Store) GetMovie(ctx context.Context, id int64) (*model.Movie, error) {
	var m model.Movie
	err := s.get(ctx, &m, `SELECT * FROM movies WHERE id = ? AND status = ?`, id, model.MovieActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get movie: %w", err)
	}
	return &m, nil
}

// UpdateMovie persists the mutable fields of m.
func (s *Store) UpdateMovie(ctx context.Context, m *model.Movie) error {
	m.UpdatedAt = time.Now().UTC()
	res, err := s.exec(ctx,
		`UPDATE movies SET title = ?, description = ?, genre = ?, language = ?,
			director = ?, cast_list = ?, release_year = ?, poster_url = ?,
			approved = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		m.Title, m.Description, m.Genre, m.Language, m.Director, m.Cast,
		m.ReleaseYear, m.PosterURL, m.Approved, m.UpdatedAt, m.ID, model.MovieActive)
	if err != nil {
		return fmt.Errorf("update movie: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDeleteMovie marks a movie deleted without removing the row.
func (s *Store) SoftDeleteMovie(ctx context.Context, id int64) error {
	res, err := s.exec(ctx,
		`UPDATE movies SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		model.MovieDeleted, time.Now().UTC(), id, model.MovieActive)
	if err != nil {
		return fmt.Errorf("soft delete movie: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetMovieRating stores the recomputed average rating for a movie.
func (s *Store) SetMovieRating(ctx context.Context, id int64, rating float64) error {
	_, err := s.exec(ctx, `UPDATE movies SET rating = ?, updated_at = ? WHERE id = ?`,
		rating, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set movie rating: %w", err)
	}
	return nil
}

// ListMovies returns a page of movies plus the unpaged total. With publicOnly
// set, only approved and active movies are visible, matching the public
// search surface; the admin listing sees everything that isn't soft-deleted
// and may filter on the approved flag.
func (s *Store) ListMovies(ctx context.Context, f model.MovieFilter, publicOnly bool) ([]model.Movie, int64, error) {
	where := "WHERE status = ?"
	args := []interface{}{model.MovieActive}

	if publicOnly {
		where += " AND approved = ?"
		args = append(args, true)
	} else if f.Approved != nil {
		where += " AND approved = ?"
		args = append(args, *f.Approved)
	}
	if f.Query != "" {
		where += " AND (LOWER(title) LIKE ? OR LOWER(description) LIKE ?)"
		pat := "%" + strings.ToLower(f.Query) + "%"
		args = append(args, pat, pat)
	}
	if f.Title != "" {
		where += " AND LOWER(title) LIKE ?"
		args = append(args, "%"+strings.ToLower(f.Title)+"%")
	}
	if f.Genre != "" {
		where += " AND LOWER(genre) LIKE ?"
		args = append(args, "%"+strings.ToLower(f.Genre)+"%")
	}
	if f.Language != "" {
		where += " AND LOWER(language) = ?"
		args = append(args, strings.ToLower(f.Language))
	}
	if f.ReleaseYear != 0 {
		where += " AND release_year = ?"
		args = append(args, f.ReleaseYear)
	}
	if f.RatingFrom != 0 {
		where += " AND rating >= ?"
		args = append(args, f.RatingFrom)
	}

	var total int64
	if err := s.get(ctx, &total, "SELECT COUNT(*) FROM movies "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count movies: %w", err)
	}

	order := sortClause(movieSortColumns, f.SortBy, f.Order, "rating")
	limit, offset := pageClause(f.Page, f.Size)
	args = append(args, limit, offset)

	var movies []model.Movie
	q := "SELECT * FROM movies " + where + " ORDER BY " + order + " LIMIT ? OFFSET ?"
	if err := s.sel(ctx, &movies, q, args...); err != nil {
		return nil, 0, fmt.Errorf("list movies: %w", err)
	}
	return movies, total, nil
}

// CountMovies counts non-deleted movies; with approvedOnly set, only
// approved ones.
func (s *Store) CountMovies(ctx context.Context, approvedOnly bool) (int64, error) {
	q := `SELECT COUNT(*) FROM movies WHERE status = ?`
	args := []interface{}{model.MovieActive}
	if approvedOnly {
		q += " AND approved = ?"
		args = append(args, true)
	}
	var n int64
	if err := s.get(ctx, &n, q, args...); err != nil {
		return 0, fmt.Errorf("count movies: %w", err)
	}
	return n, nil
}
