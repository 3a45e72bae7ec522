package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cinevault/cinevault/internal/model"
	"github.com/cinevault/cinevault/internal/server/middleware"
	"github.com/cinevault/cinevault/internal/service"
	"github.com/cinevault/cinevault/internal/store"
)

// ReviewHandler serves the review endpoints: per-movie listing, authoring,
// editing, and helpful votes.
type ReviewHandler struct {
	reviews *service.ReviewService
	store   *store.Store
	logger  *slog.Logger
}

// NewReviewHandler creates a ReviewHandler.
func NewReviewHandler(reviews *service.ReviewService, st *store.Store, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, store: st, logger: logger}
}

// ListForMovie handles GET /api/v1/movies/{id}/reviews.
func (h *ReviewHandler) ListForMovie(w http.ResponseWriter, r *http.Request) {
	movieID, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid movie id")
		return
	}

	f := model.ReviewFilter{
		MovieID:    movieID,
		RatingFrom: queryFloat(r, "rating_from", 0),
		SortBy:     queryString(r, "sort_by"),
		Order:      queryString(r, "order"),
		Page:       queryInt(r, "page", 1),
		Size:       queryInt(r, "size", 20),
	}
	reviews, total, err := h.store.ListReviews(r.Context(), f)
	if err != nil {
		h.logger.Error("failed to list reviews", "movie_id", movieID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list reviews")
		return
	}
	writeJSON(w, http.StatusOK, model.ListResponse{
		Resource: reviews,
		Meta:     listMeta(len(reviews), total, f.Page, f.Size),
	})
}

// ListMine handles GET /api/v1/reviews/mine.
func (h *ReviewHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r.Context())
	f := model.ReviewFilter{
		AccountID: id.AccountID,
		SortBy:    queryString(r, "sort_by"),
		Order:     queryString(r, "order"),
		Page:      queryInt(r, "page", 1),
		Size:      queryInt(r, "size", 20),
	}
	reviews, total, err := h.store.ListReviews(r.Context(), f)
	if err != nil {
		h.logger.Error("failed to list own reviews", "account_id", id.AccountID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list reviews")
		return
	}
	writeJSON(w, http.StatusOK, model.ListResponse{
		Resource: reviews,
		Meta:     listMeta(len(reviews), total, f.Page, f.Size),
	})
}

type reviewRequest struct {
	Rating  *float64 `json:"rating"`
	Comment *string  `json:"comment"`
}

// Create handles POST /api/v1/movies/{id}/reviews.
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	movieID, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid movie id")
		return
	}
	var req reviewRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Rating == nil {
		writeError(w, http.StatusBadRequest, "Rating is required")
		return
	}
	var comment string
	if req.Comment != nil {
		comment = *req.Comment
	}

	id := middleware.GetIdentity(r.Context())
	review, err := h.reviews.Add(r.Context(), id.AccountID, movieID, *req.Rating, comment)
	if err != nil {
		h.writeReviewError(w, err, "Failed to create review")
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

// Update handles PUT /api/v1/reviews/{id}. Only the author can edit.
func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	reviewID, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid review id")
		return
	}
	var req reviewRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Rating == nil && req.Comment == nil {
		writeError(w, http.StatusBadRequest, "Nothing to update")
		return
	}

	id := middleware.GetIdentity(r.Context())
	review, err := h.reviews.Update(r.Context(), reviewID, id.AccountID, req.Rating, req.Comment)
	if err != nil {
		h.writeReviewError(w, err, "Failed to update review")
		return
	}
	writeJSON(w, http.StatusOK, review)
}

// Delete handles DELETE /api/v1/reviews/{id}. Only the author can delete;
// moderation deletes go through the admin surface.
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	reviewID, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid review id")
		return
	}
	id := middleware.GetIdentity(r.Context())
	if err := h.reviews.Delete(r.Context(), reviewID, id.AccountID); err != nil {
		h.writeReviewError(w, err, "Failed to delete review")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Review deleted"})
}

// Like handles POST /api/v1/reviews/{id}/like.
func (h *ReviewHandler) Like(w http.ResponseWriter, r *http.Request) {
	reviewID, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid review id")
		return
	}
	id := middleware.GetIdentity(r.Context())
	count, err := h.reviews.Like(r.Context(), reviewID, id.AccountID)
	if err != nil {
		h.writeReviewError(w, err, "Failed to like review")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"review_id": reviewID, "like_count": count})
}

func (h *ReviewHandler) writeReviewError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Review or movie not found")
	case errors.Is(err, service.ErrAlreadyReviewed):
		writeError(w, http.StatusConflict, "You have already reviewed this movie")
	case errors.Is(err, service.ErrAlreadyLiked):
		writeError(w, http.StatusConflict, "You have already liked this review")
	case errors.Is(err, service.ErrInvalidRating):
		writeError(w, http.StatusBadRequest, "Rating must be between 0 and 10")
	default:
		h.logger.Error("review operation failed", "error", err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
