package model

import "time"

// Movie lifecycle statuses. Deleting a movie is a soft delete.
const (
	MovieActive  = "active"
	MovieDeleted = "deleted"
)

// Movie is a single catalog entry. Rating is a computed aggregate, refreshed
// from the reviews table whenever a review is created, updated, or deleted.
type Movie struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description,omitempty" db:"description"`
	Genre       string    `json:"genre,omitempty" db:"genre"`
	Language    string    `json:"language,omitempty" db:"language"`
	Director    string    `json:"director,omitempty" db:"director"`
	Cast        string    `json:"cast,omitempty" db:"cast_list"`
	ReleaseYear int       `json:"release_year,omitempty" db:"release_year"`
	PosterURL   string    `json:"poster_url,omitempty" db:"poster_url"`
	Rating      float64   `json:"rating" db:"rating"`
	Approved    bool      `json:"approved" db:"approved"`
	Status      string    `json:"status" db:"status"`
	CreatedBy   *int64    `json:"created_by,omitempty" db:"created_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// MovieFilter holds the query parameters accepted by the catalog listing
// endpoints. Zero values mean "no filter".
type MovieFilter struct {
	Query       string
	Title       string
	Genre       string
	Language    string
	ReleaseYear int
	RatingFrom  float64
	Approved    *bool
	SortBy      string
	Order       string
	Page        int
	Size        int
}
