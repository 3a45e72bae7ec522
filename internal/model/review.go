package model

import "time"

// Review is a single account's rating and comment for a movie. One review
// per (account, movie) pair.
type Review struct {
	ID             int64     `json:"id" db:"id"`
	MovieID        int64     `json:"movie_id" db:"movie_id"`
	AccountID      int64     `json:"account_id" db:"account_id"`
	Rating         float64   `json:"rating" db:"rating"`
	Comment        string    `json:"comment,omitempty" db:"comment"`
	LikeCount      int       `json:"like_count" db:"like_count"`
	SentimentScore *float64  `json:"sentiment_score,omitempty" db:"sentiment_score"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// ReviewHistory is an audit row recording a review's previous content before
// an update.
type ReviewHistory struct {
	ID         int64     `json:"id" db:"id"`
	ReviewID   int64     `json:"review_id" db:"review_id"`
	AccountID  int64     `json:"account_id" db:"account_id"`
	OldRating  float64   `json:"old_rating" db:"old_rating"`
	OldComment string    `json:"old_comment" db:"old_comment"`
	ChangedAt  time.Time `json:"changed_at" db:"changed_at"`
}

// ReviewFilter holds the query parameters for review listings.
type ReviewFilter struct {
	MovieID    int64
	AccountID  int64
	RatingFrom float64
	SortBy     string
	Order      string
	Page       int
	Size       int
}
