package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/cinevault/cinevault/internal/guard"
	"github.com/cinevault/cinevault/internal/model"
	"github.com/cinevault/cinevault/internal/server/middleware"
	"github.com/cinevault/cinevault/internal/service"
	"github.com/cinevault/cinevault/internal/store"
)

// AdminHandler serves the management surface: account administration, movie
// curation, review moderation, platform stats, and the activity feed. Every
// route is behind the admin guard.
type AdminHandler struct {
	store    *store.Store
	accounts *service.AccountService
	reviews  *service.ReviewService
	logger   *slog.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(st *store.Store, accounts *service.AccountService, reviews *service.ReviewService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{store: st, accounts: accounts, reviews: reviews, logger: logger}
}

// ListUsers handles GET /api/v1/admin/users.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	f := store.AccountFilter{
		Role:   queryString(r, "role"),
		Search: queryString(r, "search"),
		Page:   queryInt(r, "page", 1),
		Size:   queryInt(r, "size", 20),
	}
	accounts, total, err := h.store.ListAccounts(r.Context(), f)
	if err != nil {
		h.logger.Error("failed to list accounts", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, model.ListResponse{
		Resource: accounts,
		Meta:     listMeta(len(accounts), total, f.Page, f.Size),
	})
}

// GetUser handles GET /api/v1/admin/users/{id}.
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	targetID, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	account, err := h.store.GetAccount(r.Context(), targetID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error("failed to get account", "target_id", targetID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get user")
		return
	}
	writeJSON(w, http.StatusOK, account)
}

type createUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// CreateUser handles POST /api/v1/admin/users. Unlike self-registration,
// the caller picks the role.
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if len(req.Username) < 3 {
		writeError(w, http.StatusBadRequest, "Username must be at least 3 characters")
		return
	}
	if !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusBadRequest, "Invalid email address")
		return
	}
	if req.Role != "" && !model.ValidRole(req.Role) {
		writeError(w, http.StatusBadRequest, "Role must be user or admin")
		return
	}

	account, err := h.accounts.Register(r.Context(), req.Username, req.Email, req.Password, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAccountExists):
			writeError(w, http.StatusConflict, "User already exists")
		case errors.Is(err, service.ErrWeakPassword):
			writeError(w, http.StatusBadRequest,
				"Password must be at least 8 characters with an uppercase letter, a lowercase letter, and a digit")
		default:
			h.logger.Error("failed to create user", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to create user")
		}
		return
	}

	h.audit(r, "user_create", "created account", account.ID, account.Role)
	writeJSON(w, http.StatusCreated, account)
}

type roleChangeRequest struct {
	Role string `json:"role"`
}

// ChangeRole handles PUT /api/v1/admin/users/{id}/role. An admin cannot
// demote their own account.
func (h *AdminHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	targetID, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	var req roleChangeRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if !model.ValidRole(req.Role) {
		writeError(w, http.StatusBadRequest, "Role must be user or admin")
		return
	}

	id := middleware.GetIdentity(r.Context())
	if err := guard.Check(id, guard.SelfRoleChangeForbidden(targetID, req.Role)); err != nil {
		middleware.RecordRejection(r, h.logger, h.store, http.StatusBadRequest, err)
		writeError(w, http.StatusBadRequest, "Cannot change your own role")
		return
	}

	if err := h.store.UpdateAccountRole(r.Context(), targetID, req.Role); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error("failed to update role", "target_id", targetID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update role")
		return
	}

	h.audit(r, "role_change", "role changed for account", targetID, req.Role)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Role updated"})
}

type statusChangeRequest struct {
	Status string `json:"status"`
}

// ChangeStatus handles PUT /api/v1/admin/users/{id}/status. An admin cannot
// suspend their own account. Suspension also suspends the target's login
// session so the bookkeeping reflects the lockout.
func (h *AdminHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	targetID, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	var req statusChangeRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if !model.ValidStatus(req.Status) {
		writeError(w, http.StatusBadRequest, "Status must be active or suspended")
		return
	}

	id := middleware.GetIdentity(r.Context())
	if err := guard.Check(id, guard.SelfSuspendForbidden(targetID, req.Status)); err != nil {
		middleware.RecordRejection(r, h.logger, h.store, http.StatusBadRequest, err)
		writeError(w, http.StatusBadRequest, "Cannot suspend your own account")
		return
	}

	if err := h.store.UpdateAccountStatus(r.Context(), targetID, req.Status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error("failed to update status", "target_id", targetID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update status")
		return
	}
	if req.Status == model.StatusSuspended {
		if _, err := h.store.SuspendSessionByAccount(r.Context(), targetID); err != nil && !errors.Is(err, store.ErrNotFound) {
			h.logger.Error("failed to suspend session", "target_id", targetID, "error", err)
		}
	}

	h.audit(r, "status_change", "status changed for account", targetID, req.Status)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Status updated"})
}

// DeleteUser handles DELETE /api/v1/admin/users/{id}. Accounts are never
// hard-deleted; deletion suspends the account and its login session. An
// admin cannot delete their own account.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	targetID, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	id := middleware.GetIdentity(r.Context())
	if err := guard.Check(id, guard.SelfDeleteForbidden(targetID)); err != nil {
		middleware.RecordRejection(r, h.logger, h.store, http.StatusBadRequest, err)
		writeError(w, http.StatusBadRequest, "Cannot delete your own account")
		return
	}

	if err := h.store.UpdateAccountStatus(r.Context(), targetID, model.StatusSuspended); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error("failed to delete account", "target_id", targetID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete user")
		return
	}
	if _, err := h.store.SuspendSessionByAccount(r.Context(), targetID); err != nil && !errors.Is(err, store.ErrNotFound) {
		h.logger.Error("failed to suspend session", "target_id", targetID, "error", err)
	}

	h.audit(r, "user_delete", "deleted account", targetID, "")
	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted"})
}

// ListMovies handles GET /api/v1/admin/movies. Unlike the public catalog,
// unapproved movies are visible and filterable here.
func (h *AdminHandler) ListMovies(w http.ResponseWriter, r *http.Request) {
	f := movieFilterFromQuery(r)
	movies, total, err := h.store.ListMovies(r.Context(), f, false)
	if err != nil {
		h.logger.Error("failed to list movies", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list movies")
		return
	}
	writeJSON(w, http.StatusOK, model.ListResponse{
		Resource: movies,
		Meta:     listMeta(len(movies), total, f.Page, f.Size),
	})
}

// UpdateMovie handles PUT /api/v1/admin/movies/{id}.
func (h *AdminHandler) UpdateMovie(w http.ResponseWriter, r *http.Request) {
	movieID, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid movie id")
		return
	}
	var req movieRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	movie, err := h.store.GetMovie(r.Context(), movieID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Movie not found")
			return
		}
		h.logger.Error("failed to get movie", "movie_id", movieID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update movie")
		return
	}

	movie.Title = strings.TrimSpace(req.Title)
	movie.Description = req.Description
	movie.Genre = req.Genre
	movie.Language = req.Language
	movie.Director = req.Director
	movie.Cast = req.Cast
	movie.ReleaseYear = req.ReleaseYear
	movie.PosterURL = req.PosterURL
	if err := h.store.UpdateMovie(r.Context(), movie); err != nil {
		h.logger.Error("failed to update movie", "movie_id", movieID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update movie")
		return
	}

	h.audit(r, "movie_update", "updated movie", movieID, "")
	writeJSON(w, http.StatusOK, movie)
}

// ApproveMovie handles PUT /api/v1/admin/movies/{id}/approve.
func (h *AdminHandler) ApproveMovie(w http.ResponseWriter, r *http.Request) {
	movieID, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid movie id")
		return
	}
	movie, err := h.store.GetMovie(r.Context(), movieID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Movie not found")
			return
		}
		h.logger.Error("failed to get movie", "movie_id", movieID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to approve movie")
		return
	}

	movie.Approved = true
	if err := h.store.UpdateMovie(r.Context(), movie); err != nil {
		h.logger.Error("failed to approve movie", "movie_id", movieID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to approve movie")
		return
	}

	h.audit(r, "movie_approve", "approved movie", movieID, "")
	writeJSON(w, http.StatusOK, movie)
}

// DeleteMovie handles DELETE /api/v1/admin/movies/{id}. The row is kept and
// marked deleted.
func (h *AdminHandler) DeleteMovie(w http.ResponseWriter, r *http.Request) {
	movieID, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid movie id")
		return
	}
	if err := h.store.SoftDeleteMovie(r.Context(), movieID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Movie not found")
			return
		}
		h.logger.Error("failed to delete movie", "movie_id", movieID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete movie")
		return
	}

	h.audit(r, "movie_delete", "deleted movie", movieID, "")
	writeJSON(w, http.StatusOK, map[string]string{"message": "Movie deleted"})
}

// ListReviews handles GET /api/v1/admin/reviews, the moderation view across
// all movies and accounts.
func (h *AdminHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	f := model.ReviewFilter{
		MovieID:    int64(queryInt(r, "movie_id", 0)),
		AccountID:  int64(queryInt(r, "account_id", 0)),
		RatingFrom: queryFloat(r, "rating_from", 0),
		SortBy:     queryString(r, "sort_by"),
		Order:      queryString(r, "order"),
		Page:       queryInt(r, "page", 1),
		Size:       queryInt(r, "size", 20),
	}
	reviews, total, err := h.store.ListReviews(r.Context(), f)
	if err != nil {
		h.logger.Error("failed to list reviews", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list reviews")
		return
	}
	writeJSON(w, http.StatusOK, model.ListResponse{
		Resource: reviews,
		Meta:     listMeta(len(reviews), total, f.Page, f.Size),
	})
}

// DeleteReview handles DELETE /api/v1/admin/reviews/{id}. Moderation deletes
// ignore authorship.
func (h *AdminHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	reviewID, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid review id")
		return
	}
	if err := h.reviews.AdminDelete(r.Context(), reviewID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Review not found")
			return
		}
		h.logger.Error("failed to delete review", "review_id", reviewID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete review")
		return
	}

	h.audit(r, "review_delete", "removed review", reviewID, "")
	writeJSON(w, http.StatusOK, map[string]string{"message": "Review deleted"})
}

// Stats handles GET /api/v1/admin/stats.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats := map[string]int64{}

	counters := []struct {
		key   string
		count func() (int64, error)
	}{
		{"total_users", func() (int64, error) { return h.store.CountAccounts(ctx, "", "") }},
		{"admin_users", func() (int64, error) { return h.store.CountAccounts(ctx, model.RoleAdmin, "") }},
		{"suspended_users", func() (int64, error) { return h.store.CountAccounts(ctx, "", model.StatusSuspended) }},
		{"total_movies", func() (int64, error) { return h.store.CountMovies(ctx, false) }},
		{"approved_movies", func() (int64, error) { return h.store.CountMovies(ctx, true) }},
		{"total_reviews", func() (int64, error) { return h.store.CountReviews(ctx) }},
		{"watchlist_entries", func() (int64, error) { return h.store.CountWatchlistEntries(ctx) }},
	}
	for _, c := range counters {
		n, err := c.count()
		if err != nil {
			h.logger.Error("failed to gather stats", "stat", c.key, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to gather stats")
			return
		}
		stats[c.key] = n
	}
	writeJSON(w, http.StatusOK, stats)
}

// Activity handles GET /api/v1/admin/activity.
func (h *AdminHandler) Activity(w http.ResponseWriter, r *http.Request) {
	logs, err := h.store.ListRecentActivity(r.Context(), queryInt(r, "limit", 50))
	if err != nil {
		h.logger.Error("failed to list activity", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list activity")
		return
	}
	writeJSON(w, http.StatusOK, model.ListResponse{Resource: logs})
}

func (h *AdminHandler) audit(r *http.Request, action, description string, targetID int64, detail string) {
	id := middleware.GetIdentity(r.Context())
	var accountID *int64
	if id != nil {
		accountID = &id.AccountID
	}
	msg := description + " " + strconv.FormatInt(targetID, 10)
	if detail != "" {
		msg += " to " + detail
	}
	if err := h.store.RecordActivity(r.Context(), accountID, action, msg); err != nil {
		h.logger.Error("failed to record activity", "action", action, "error", err)
	}
}
