package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cinevault/cinevault/internal/model"
)

var reviewSortColumns = map[string]string{
	"created_at": "created_at",
	"rating":     "rating",
	"helpful":    "like_count",
}

// CreateReview inserts a review. A second review by the same account for the
// same movie yields ErrDuplicate.
func (s *Store) CreateReview(ctx context.Context, r *model.Review) error {
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now

	id, err := s.insert(ctx,
		`INSERT INTO reviews (movie_id, account_id, rating, comment, like_count, sentiment_score, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.MovieID, r.AccountID, r.Rating, r.Comment, r.LikeCount, r.SentimentScore,
		r.CreatedAt, r.UpdatedAt)
	if err != nil {
		if isDuplicateErr(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert review: %w", err)
	}
	r.ID = id
	return nil
}

// GetReview returns a review by ID.
func (s *Store) GetReview(ctx context.Context, id int64) (*model.Review, error) {
	var r model.Review
	if err := s.get(ctx, &r, `SELECT * FROM reviews WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return &r, nil
}

// GetReviewForAccount returns a review only if it belongs to the given
// account. Callers use this to scope updates and deletes to the author.
func (s *Store) GetReviewForAccount(ctx context.Context, id, accountID int64) (*model.Review, error) {
	var r model.Review
	err := s.get(ctx, &r, `SELECT * FROM reviews WHERE id = ? AND account_id = ?`, id, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get review for account: %w", err)
	}
	return &r, nil
}

// HasReview reports whether the account already reviewed the movie.
func (s *Store) HasReview(ctx context.Context, accountID, movieID int64) (bool, error) {
	var n int64
	err := s.get(ctx, &n,
		`SELECT COUNT(*) FROM reviews WHERE account_id = ? AND movie_id = ?`, accountID, movieID)
	if err != nil {
		return false, fmt.Errorf("check review exists: %w", err)
	}
	return n > 0, nil
}

// UpdateReview persists rating, comment, and sentiment changes.
func (s *Store) UpdateReview(ctx context.Context, r *model.Review) error {
	r.UpdatedAt = time.Now().UTC()
	res, err := s.exec(ctx,
		`UPDATE reviews SET rating = ?, comment = ?, sentiment_score = ?, updated_at = ? WHERE id = ?`,
		r.Rating, r.Comment, r.SentimentScore, r.UpdatedAt, r.ID)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteReview removes a review row.
func (s *Store) DeleteReview(ctx context.Context, id int64) error {
	res, err := s.exec(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListReviews returns a page of reviews plus the unpaged total. MovieID and
// AccountID in the filter are optional, so the same query serves both the
// per-movie listing and the admin moderation view.
func (s *Store) ListReviews(ctx context.Context, f model.ReviewFilter) ([]model.Review, int64, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	if f.MovieID != 0 {
		where += " AND movie_id = ?"
		args = append(args, f.MovieID)
	}
	if f.AccountID != 0 {
		where += " AND account_id = ?"
		args = append(args, f.AccountID)
	}
	if f.RatingFrom != 0 {
		where += " AND rating >= ?"
		args = append(args, f.RatingFrom)
	}

	var total int64
	if err := s.get(ctx, &total, "SELECT COUNT(*) FROM reviews "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}

	order := sortClause(reviewSortColumns, f.SortBy, f.Order, "created_at")
	limit, offset := pageClause(f.Page, f.Size)
	args = append(args, limit, offset)

	var reviews []model.Review
	q := "SELECT * FROM reviews " + where + " ORDER BY " + order + " LIMIT ? OFFSET ?"
	if err := s.sel(ctx, &reviews, q, args...); err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, total, nil
}

// AverageRating computes the mean review rating for a movie; 0 when the
// movie has no reviews.
func (s *Store) AverageRating(ctx context.Context, movieID int64) (float64, error) {
	var avg sql.NullFloat64
	err := s.get(ctx, &avg, `SELECT AVG(rating) FROM reviews WHERE movie_id = ?`, movieID)
	if err != nil {
		return 0, fmt.Errorf("average rating: %w", err)
	}
	if !avg.Valid {
		return 0, nil
	}
	return avg.Float64, nil
}

// AddReviewHistory appends an audit row with the review's pre-update content.
func (s *Store) AddReviewHistory(ctx context.Context, h *model.ReviewHistory) error {
	h.ChangedAt = time.Now().UTC()
	id, err := s.insert(ctx,
		`INSERT INTO review_history (review_id, account_id, old_rating, old_comment, changed_at)
		 VALUES (?, ?, ?, ?, ?)`,
		h.ReviewID, h.AccountID, h.OldRating, h.OldComment, h.ChangedAt)
	if err != nil {
		return fmt.Errorf("insert review history: %w", err)
	}
	h.ID = id
	return nil
}

// ListReviewHistory returns a review's edit history, newest first.
func (s *Store) ListReviewHistory(ctx context.Context, reviewID int64) ([]model.ReviewHistory, error) {
	var rows []model.ReviewHistory
	err := s.sel(ctx, &rows,
		`SELECT * FROM review_history WHERE review_id = ? ORDER BY changed_at DESC, id DESC`, reviewID)
	if err != nil {
		return nil, fmt.Errorf("list review history: %w", err)
	}
	return rows, nil
}

// HasLiked reports whether the account already liked the review.
func (s *Store) HasLiked(ctx context.Context, reviewID, accountID int64) (bool, error) {
	var n int64
	err := s.get(ctx, &n,
		`SELECT COUNT(*) FROM review_likes WHERE review_id = ? AND account_id = ?`, reviewID, accountID)
	if err != nil {
		return false, fmt.Errorf("check like exists: %w", err)
	}
	return n > 0, nil
}

// AddLike records a like and bumps the review's like counter in one
// transaction. A duplicate like yields ErrDuplicate and leaves the counter
// untouched.
func (s *Store) AddLike(ctx context.Context, reviewID, accountID int64) (int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin like: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		s.db.Rebind(`INSERT INTO review_likes (review_id, account_id, created_at) VALUES (?, ?, ?)`),
		reviewID, accountID, time.Now().UTC())
	if err != nil {
		if isDuplicateErr(err) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("insert like: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		s.db.Rebind(`UPDATE reviews SET like_count = like_count + 1 WHERE id = ?`), reviewID); err != nil {
		return 0, fmt.Errorf("bump like count: %w", err)
	}

	var count int
	if err := tx.GetContext(ctx, &count,
		s.db.Rebind(`SELECT like_count FROM reviews WHERE id = ?`), reviewID); err != nil {
		return 0, fmt.Errorf("read like count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit like: %w", err)
	}
	return count, nil
}

// CountReviews counts all review rows.
func (s *Store) CountReviews(ctx context.Context) (int64, error) {
	var n int64
	if err := s.get(ctx, &n, `SELECT COUNT(*) FROM reviews`); err != nil {
		return 0, fmt.Errorf("count reviews: %w", err)
	}
	return n, nil
}
