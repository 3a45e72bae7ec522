package store

import "errors"

// ErrNotFound is returned when a requested row does not exist in the store.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert collides with a uniqueness
// constraint (username, email, one-review-per-movie, and so on).
var ErrDuplicate = errors.New("already exists")
