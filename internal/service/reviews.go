package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cinevault/cinevault/internal/model"
	"github.com/cinevault/cinevault/internal/store"
)

var (
	ErrAlreadyReviewed = errors.New("movie already reviewed")
	ErrAlreadyLiked    = errors.New("review already liked")
	ErrInvalidRating   = errors.New("rating must be between 0 and 10")
)

// ReviewService manages reviews and the derived state they drive: the
// movie's aggregate rating, the edit history, and like counters.
type ReviewService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewReviewService creates a ReviewService.
func NewReviewService(st *store.Store, logger *slog.Logger) *ReviewService {
	return &ReviewService{store: st, logger: logger}
}

// Add creates a review for a movie and recomputes the movie's aggregate
// rating. One review per (account, movie) pair.
func (s *ReviewService) Add(ctx context.Context, accountID, movieID int64, rating float64, comment string) (*model.Review, error) {
	if rating < 0 || rating > 10 {
		return nil, ErrInvalidRating
	}
	if _, err := s.store.GetMovie(ctx, movieID); err != nil {
		return nil, err
	}

	review := &model.Review{
		MovieID:        movieID,
		AccountID:      accountID,
		Rating:         rating,
		Comment:        comment,
		SentimentScore: sentimentScore(comment),
	}
	if err := s.store.CreateReview(ctx, review); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrAlreadyReviewed
		}
		return nil, err
	}

	if err := s.recomputeRating(ctx, movieID); err != nil {
		s.logger.Error("failed to recompute movie rating", "movie_id", movieID, "error", err)
	}
	s.logger.Info("review added", "review_id", review.ID, "movie_id", movieID, "account_id", accountID)
	return review, nil
}

// Update edits the caller's own review, recording the previous content in
// the history table before applying the change. Nil fields keep their
// current values; sentiment is recomputed from the effective comment.
func (s *ReviewService) Update(ctx context.Context, reviewID, accountID int64, rating *float64, comment *string) (*model.Review, error) {
	// Validate before any write so a rejected edit leaves no trace,
	// including in the history table.
	if rating != nil && (*rating < 0 || *rating > 10) {
		return nil, ErrInvalidRating
	}

	review, err := s.store.GetReviewForAccount(ctx, reviewID, accountID)
	if err != nil {
		return nil, err
	}

	if err := s.store.AddReviewHistory(ctx, &model.ReviewHistory{
		ReviewID:   review.ID,
		AccountID:  accountID,
		OldRating:  review.Rating,
		OldComment: review.Comment,
	}); err != nil {
		return nil, fmt.Errorf("record review history: %w", err)
	}

	if rating != nil {
		review.Rating = *rating
	}
	if comment != nil {
		review.Comment = *comment
	}
	review.SentimentScore = sentimentScore(review.Comment)

	if err := s.store.UpdateReview(ctx, review); err != nil {
		return nil, err
	}
	if err := s.recomputeRating(ctx, review.MovieID); err != nil {
		s.logger.Error("failed to recompute movie rating", "movie_id", review.MovieID, "error", err)
	}
	s.logger.Info("review updated", "review_id", review.ID, "account_id", accountID)
	return review, nil
}

// Delete removes the caller's own review and recomputes the movie rating.
func (s *ReviewService) Delete(ctx context.Context, reviewID, accountID int64) error {
	review, err := s.store.GetReviewForAccount(ctx, reviewID, accountID)
	if err != nil {
		return err
	}
	return s.remove(ctx, review)
}

// AdminDelete removes any review regardless of author.
func (s *ReviewService) AdminDelete(ctx context.Context, reviewID int64) error {
	review, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		return err
	}
	return s.remove(ctx, review)
}

func (s *ReviewService) remove(ctx context.Context, review *model.Review) error {
	if err := s.store.DeleteReview(ctx, review.ID); err != nil {
		return err
	}
	if err := s.recomputeRating(ctx, review.MovieID); err != nil {
		s.logger.Error("failed to recompute movie rating", "movie_id", review.MovieID, "error", err)
	}
	s.logger.Info("review deleted", "review_id", review.ID, "movie_id", review.MovieID)
	return nil
}

// Like marks a review helpful on behalf of an account and returns the new
// like count. Liking the same review twice yields ErrAlreadyLiked.
func (s *ReviewService) Like(ctx context.Context, reviewID, accountID int64) (int, error) {
	if _, err := s.store.GetReview(ctx, reviewID); err != nil {
		return 0, err
	}
	count, err := s.store.AddLike(ctx, reviewID, accountID)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return 0, ErrAlreadyLiked
		}
		return 0, err
	}
	return count, nil
}

func (s *ReviewService) recomputeRating(ctx context.Context, movieID int64) error {
	avg, err := s.store.AverageRating(ctx, movieID)
	if err != nil {
		return err
	}
	return s.store.SetMovieRating(ctx, movieID, avg)
}

var (
	positiveWords = []string{"great", "good", "excellent", "amazing", "love", "wonderful", "best", "fantastic", "enjoyed", "masterpiece"}
	negativeWords = []string{"bad", "terrible", "awful", "boring", "hate", "worst", "poor", "disappointing", "dull", "mediocre"}
)

// sentimentScore scores a comment in [0, 1] from keyword counts, where 0.5
// is neutral. Empty comments carry no score.
func sentimentScore(comment string) *float64 {
	text := strings.ToLower(strings.TrimSpace(comment))
	if text == "" {
		return nil
	}

	var pos, neg int
	for _, w := range positiveWords {
		if strings.Contains(text, w) {
			pos++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(text, w) {
			neg++
		}
	}

	raw := float64(pos-neg) / (float64(pos+neg) + 1e-6)
	score := (raw + 1) / 2
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return &score
}
