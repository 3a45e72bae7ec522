package store

import (
	"context"
	"errors"
	"testing"

	"github.com/cinevault/cinevault/internal/model"
)

func TestCreateReviewOnePerMovie(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := createTestAccount(t, s, "alice", "alice@example.com")
	m := createTestMovie(t, s, "Heat")

	r := &model.Review{MovieID: m.ID, AccountID: a.ID, Rating: 9, Comment: "great"}
	if err := s.CreateReview(ctx, r); err != nil {
		t.Fatalf("CreateReview: %v", err)
	}
	if r.ID == 0 {
		t.Fatal("review id not populated")
	}

	again := &model.Review{MovieID: m.ID, AccountID: a.ID, Rating: 5}
	if err := s.CreateReview(ctx, again); !errors.Is(err, ErrDuplicate) {
		t.Errorf("second review: got %v, want ErrDuplicate", err)
	}
}

func TestGetReviewForAccountScopesOwnership(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := createTestAccount(t, s, "alice", "alice@example.com")
	other := createTestAccount(t, s, "bob", "bob@example.com")
	m := createTestMovie(t, s, "Heat")

	r := &model.Review{MovieID: m.ID, AccountID: owner.ID, Rating: 9}
	if err := s.CreateReview(ctx, r); err != nil {
		t.Fatalf("CreateReview: %v", err)
	}

	if _, err := s.GetReviewForAccount(ctx, r.ID, owner.ID); err != nil {
		t.Errorf("owner lookup: %v", err)
	}
	if _, err := s.GetReviewForAccount(ctx, r.ID, other.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("non-owner lookup: got %v, want ErrNotFound", err)
	}
}

func TestAverageRating(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	m := createTestMovie(t, s, "Heat")

	avg, err := s.AverageRating(ctx, m.ID)
	if err != nil {
		t.Fatalf("AverageRating: %v", err)
	}
	if avg != 0 {
		t.Errorf("no reviews: avg = %v, want 0", avg)
	}

	for i, rating := range []float64{6, 8, 10} {
		a := createTestAccount(t, s, "user"+string(rune('a'+i)), "u"+string(rune('a'+i))+"@example.com")
		r := &model.Review{MovieID: m.ID, AccountID: a.ID, Rating: rating}
		if err := s.CreateReview(ctx, r); err != nil {
			t.Fatalf("CreateReview: %v", err)
		}
	}
	avg, err = s.AverageRating(ctx, m.ID)
	if err != nil {
		t.Fatalf("AverageRating: %v", err)
	}
	if avg != 8 {
		t.Errorf("avg = %v, want 8", avg)
	}
}

func TestAddLikeDeduplicates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	author := createTestAccount(t, s, "alice", "alice@example.com")
	liker := createTestAccount(t, s, "bob", "bob@example.com")
	m := createTestMovie(t, s, "Heat")

	r := &model.Review{MovieID: m.ID, AccountID: author.ID, Rating: 9}
	if err := s.CreateReview(ctx, r); err != nil {
		t.Fatalf("CreateReview: %v", err)
	}

	count, err := s.AddLike(ctx, r.ID, liker.ID)
	if err != nil {
		t.Fatalf("AddLike: %v", err)
	}
	if count != 1 {
		t.Errorf("like count = %d, want 1", count)
	}

	if _, err := s.AddLike(ctx, r.ID, liker.ID); !errors.Is(err, ErrDuplicate) {
		t.Errorf("second like: got %v, want ErrDuplicate", err)
	}

	// The failed like must not have bumped the counter.
	got, err := s.GetReview(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetReview: %v", err)
	}
	if got.LikeCount != 1 {
		t.Errorf("like count after duplicate = %d, want 1", got.LikeCount)
	}

	liked, err := s.HasLiked(ctx, r.ID, liker.ID)
	if err != nil {
		t.Fatalf("HasLiked: %v", err)
	}
	if !liked {
		t.Error("HasLiked = false after like")
	}
}

func TestReviewHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := createTestAccount(t, s, "alice", "alice@example.com")
	m := createTestMovie(t, s, "Heat")

	r := &model.Review{MovieID: m.ID, AccountID: a.ID, Rating: 9, Comment: "original"}
	if err := s.CreateReview(ctx, r); err != nil {
		t.Fatalf("CreateReview: %v", err)
	}
	h := &model.ReviewHistory{ReviewID: r.ID, AccountID: a.ID, OldRating: 9, OldComment: "original"}
	if err := s.AddReviewHistory(ctx, h); err != nil {
		t.Fatalf("AddReviewHistory: %v", err)
	}
	if h.ID == 0 || h.ChangedAt.IsZero() {
		t.Errorf("history row not populated: %+v", h)
	}
}

func TestListReviewsFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := createTestAccount(t, s, "alice", "alice@example.com")
	bob := createTestAccount(t, s, "bob", "bob@example.com")
	m1 := createTestMovie(t, s, "Heat")
	m2 := createTestMovie(t, s, "Ronin")

	for _, r := range []*model.Review{
		{MovieID: m1.ID, AccountID: alice.ID, Rating: 9},
		{MovieID: m1.ID, AccountID: bob.ID, Rating: 6},
		{MovieID: m2.ID, AccountID: alice.ID, Rating: 7},
	} {
		if err := s.CreateReview(ctx, r); err != nil {
			t.Fatalf("CreateReview: %v", err)
		}
	}

	_, total, err := s.ListReviews(ctx, model.ReviewFilter{MovieID: m1.ID})
	if err != nil {
		t.Fatalf("ListReviews by movie: %v", err)
	}
	if total != 2 {
		t.Errorf("movie filter total = %d, want 2", total)
	}

	_, total, err = s.ListReviews(ctx, model.ReviewFilter{AccountID: alice.ID})
	if err != nil {
		t.Fatalf("ListReviews by account: %v", err)
	}
	if total != 2 {
		t.Errorf("account filter total = %d, want 2", total)
	}

	_, total, err = s.ListReviews(ctx, model.ReviewFilter{RatingFrom: 7})
	if err != nil {
		t.Fatalf("ListReviews by rating: %v", err)
	}
	if total != 2 {
		t.Errorf("rating filter total = %d, want 2", total)
	}
}
