package store

import (
	"context"
	"errors"
	"testing"

	"github.com/cinevault/cinevault/internal/model"
)

func TestMovieLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m := createTestMovie(t, s, "Heat")
	if m.ID == 0 || m.Status != model.MovieActive {
		t.Fatalf("unexpected created movie: %+v", m)
	}

	m.Director = "Michael Mann"
	if err := s.UpdateMovie(ctx, m); err != nil {
		t.Fatalf("UpdateMovie: %v", err)
	}
	got, err := s.GetMovie(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetMovie: %v", err)
	}
	if got.Director != "Michael Mann" {
		t.Errorf("director = %q", got.Director)
	}

	if err := s.SoftDeleteMovie(ctx, m.ID); err != nil {
		t.Fatalf("SoftDeleteMovie: %v", err)
	}
	if _, err := s.GetMovie(ctx, m.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted movie still visible: %v", err)
	}
	if err := s.SoftDeleteMovie(ctx, m.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("double delete: got %v, want ErrNotFound", err)
	}
}

func TestListMoviesPublicHidesUnapproved(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	createTestMovie(t, s, "Approved Movie")
	pending := &model.Movie{Title: "Pending Movie", Approved: false}
	if err := s.CreateMovie(ctx, pending); err != nil {
		t.Fatalf("create pending movie: %v", err)
	}

	public, total, err := s.ListMovies(ctx, model.MovieFilter{}, true)
	if err != nil {
		t.Fatalf("ListMovies public: %v", err)
	}
	if total != 1 || len(public) != 1 || public[0].Title != "Approved Movie" {
		t.Errorf("public listing leaked unapproved movies: total=%d %+v", total, public)
	}

	all, total, err := s.ListMovies(ctx, model.MovieFilter{}, false)
	if err != nil {
		t.Fatalf("ListMovies admin: %v", err)
	}
	if total != 2 || len(all) != 2 {
		t.Errorf("admin listing: total=%d n=%d, want 2", total, len(all))
	}

	approved := false
	pendingOnly, total, err := s.ListMovies(ctx, model.MovieFilter{Approved: &approved}, false)
	if err != nil {
		t.Fatalf("ListMovies approved filter: %v", err)
	}
	if total != 1 || pendingOnly[0].Title != "Pending Movie" {
		t.Errorf("approved filter: total=%d %+v", total, pendingOnly)
	}
}

func TestListMoviesSearchAndSort(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, spec := range []struct {
		title  string
		year   int
		rating float64
	}{
		{"Alien", 1979, 8.5},
		{"Aliens", 1986, 8.4},
		{"Blade Runner", 1982, 8.1},
	} {
		m := &model.Movie{Title: spec.title, ReleaseYear: spec.year, Approved: true}
		if err := s.CreateMovie(ctx, m); err != nil {
			t.Fatalf("create %s: %v", spec.title, err)
		}
		if err := s.SetMovieRating(ctx, m.ID, spec.rating); err != nil {
			t.Fatalf("set rating: %v", err)
		}
	}

	got, total, err := s.ListMovies(ctx, model.MovieFilter{Query: "alien"}, true)
	if err != nil {
		t.Fatalf("ListMovies query: %v", err)
	}
	if total != 2 {
		t.Errorf("query total = %d, want 2", total)
	}

	got, _, err = s.ListMovies(ctx, model.MovieFilter{SortBy: "release_year", Order: "asc"}, true)
	if err != nil {
		t.Fatalf("ListMovies sorted: %v", err)
	}
	if got[0].Title != "Alien" || got[len(got)-1].Title != "Aliens" {
		t.Errorf("sort order wrong: %v", titles(got))
	}

	got, total, err = s.ListMovies(ctx, model.MovieFilter{RatingFrom: 8.3}, true)
	if err != nil {
		t.Fatalf("ListMovies rating filter: %v", err)
	}
	if total != 2 {
		t.Errorf("rating filter total = %d, want 2: %v", total, titles(got))
	}
}

func titles(movies []model.Movie) []string {
	out := make([]string, len(movies))
	for i, m := range movies {
		out[i] = m.Title
	}
	return out
}
