package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cinevault/cinevault/internal/model"
	"github.com/cinevault/cinevault/internal/server/middleware"
	"github.com/cinevault/cinevault/internal/store"
)

// WatchlistHandler serves the per-account watchlist endpoints. Every route
// here is guarded, so the identity is always present.
type WatchlistHandler struct {
	store  *store.Store
	logger *slog.Logger
}

// NewWatchlistHandler creates a WatchlistHandler.
func NewWatchlistHandler(st *store.Store, logger *slog.Logger) *WatchlistHandler {
	return &WatchlistHandler{store: st, logger: logger}
}

type watchlistAddRequest struct {
	MovieID int64  `json:"movie_id"`
	Status  string `json:"status,omitempty"`
}

// Add handles POST /api/v1/watchlist. The movie title is denormalized onto
// the entry at insert time.
func (h *WatchlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req watchlistAddRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.MovieID < 1 {
		writeError(w, http.StatusBadRequest, "movie_id is required")
		return
	}
	if req.Status != "" && !model.ValidWatchStatus(req.Status) {
		writeError(w, http.StatusBadRequest, "Status must be To Watch, Watching, or Watched")
		return
	}

	movie, err := h.store.GetMovie(r.Context(), req.MovieID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Movie not found")
			return
		}
		h.logger.Error("failed to look up movie for watchlist", "movie_id", req.MovieID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to add to watchlist")
		return
	}

	id := middleware.GetIdentity(r.Context())
	entry := &model.WatchlistEntry{
		AccountID:  id.AccountID,
		MovieID:    movie.ID,
		MovieTitle: movie.Title,
		Status:     req.Status,
	}
	if err := h.store.AddWatchlistEntry(r.Context(), entry); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusConflict, "Movie is already on your watchlist")
			return
		}
		h.logger.Error("failed to add watchlist entry", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to add to watchlist")
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// List handles GET /api/v1/watchlist.
func (h *WatchlistHandler) List(w http.ResponseWriter, r *http.Request) {
	status := queryString(r, "status")
	if status != "" && !model.ValidWatchStatus(status) {
		writeError(w, http.StatusBadRequest, "Status must be To Watch, Watching, or Watched")
		return
	}

	id := middleware.GetIdentity(r.Context())
	page := queryInt(r, "page", 1)
	size := queryInt(r, "size", 20)
	entries, total, err := h.store.ListWatchlist(r.Context(), id.AccountID,
		status, queryString(r, "sort_by"), queryString(r, "order"), page, size)
	if err != nil {
		h.logger.Error("failed to list watchlist", "account_id", id.AccountID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list watchlist")
		return
	}
	writeJSON(w, http.StatusOK, model.ListResponse{
		Resource: entries,
		Meta:     listMeta(len(entries), total, page, size),
	})
}

// Summary handles GET /api/v1/watchlist/summary.
func (h *WatchlistHandler) Summary(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r.Context())
	sum, err := h.store.WatchlistSummary(r.Context(), id.AccountID)
	if err != nil {
		h.logger.Error("failed to summarize watchlist", "account_id", id.AccountID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to summarize watchlist")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// Contains handles GET /api/v1/watchlist/{movieID}, a cheap membership
// check so clients can render the add/remove toggle without fetching the
// whole list.
func (h *WatchlistHandler) Contains(w http.ResponseWriter, r *http.Request) {
	movieID, ok := urlID(r, "movieID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid movie id")
		return
	}
	id := middleware.GetIdentity(r.Context())
	entry, err := h.store.GetWatchlistEntry(r.Context(), id.AccountID, movieID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"movie_id":     movieID,
				"on_watchlist": false,
			})
			return
		}
		h.logger.Error("failed to check watchlist", "movie_id", movieID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to check watchlist")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"movie_id":     movieID,
		"on_watchlist": true,
		"status":       entry.Status,
	})
}

type watchlistStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PUT /api/v1/watchlist/{movieID}.
func (h *WatchlistHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	movieID, ok := urlID(r, "movieID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid movie id")
		return
	}
	var req watchlistStatusRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if !model.ValidWatchStatus(req.Status) {
		writeError(w, http.StatusBadRequest, "Status must be To Watch, Watching, or Watched")
		return
	}

	id := middleware.GetIdentity(r.Context())
	if err := h.store.UpdateWatchlistStatus(r.Context(), id.AccountID, movieID, req.Status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Watchlist entry not found")
			return
		}
		h.logger.Error("failed to update watchlist status", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update watchlist")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Watchlist updated"})
}

// Remove handles DELETE /api/v1/watchlist/{movieID}.
func (h *WatchlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	movieID, ok := urlID(r, "movieID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid movie id")
		return
	}
	id := middleware.GetIdentity(r.Context())
	if err := h.store.DeleteWatchlistEntry(r.Context(), id.AccountID, movieID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Watchlist entry not found")
			return
		}
		h.logger.Error("failed to delete watchlist entry", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to remove from watchlist")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Removed from watchlist"})
}

type watchlistBulkRemoveRequest struct {
	MovieIDs []int64 `json:"movie_ids"`
}

// BulkRemove handles DELETE /api/v1/watchlist.
func (h *WatchlistHandler) BulkRemove(w http.ResponseWriter, r *http.Request) {
	var req watchlistBulkRemoveRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if len(req.MovieIDs) == 0 {
		writeError(w, http.StatusBadRequest, "movie_ids is required")
		return
	}

	id := middleware.GetIdentity(r.Context())
	removed, err := h.store.DeleteWatchlistEntries(r.Context(), id.AccountID, req.MovieIDs)
	if err != nil {
		h.logger.Error("failed to bulk delete watchlist entries", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to remove from watchlist")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"removed": removed})
}
