package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cinevault/cinevault/internal/model"
	"github.com/cinevault/cinevault/internal/server/middleware"
	"github.com/cinevault/cinevault/internal/store"
)

// MovieHandler serves the public catalog endpoints and the authenticated
// movie submission endpoint.
type MovieHandler struct {
	store  *store.Store
	logger *slog.Logger
}

// NewMovieHandler creates a MovieHandler.
func NewMovieHandler(st *store.Store, logger *slog.Logger) *MovieHandler {
	return &MovieHandler{store: st, logger: logger}
}

// List handles GET /api/v1/movies. Only approved movies are visible here;
// the admin listing sees everything.
func (h *MovieHandler) List(w http.ResponseWriter, r *http.Request) {
	f := movieFilterFromQuery(r)
	movies, total, err := h.store.ListMovies(r.Context(), f, true)
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

// Get handles GET /api/v1/movies/{id}. Unapproved movies are visible only to
// admins and the account that submitted them.
func (h *MovieHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid movie id")
		return
	}

	movie, err := h.store.GetMovie(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Movie not found")
			return
		}
		h.logger.Error("failed to get movie", "movie_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get movie")
		return
	}

	if !movie.Approved && !canSeeUnapproved(r, movie) {
		writeError(w, http.StatusNotFound, "Movie not found")
		return
	}
	writeJSON(w, http.StatusOK, movie)
}

type movieRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Genre       string `json:"genre"`
	Language    string `json:"language"`
	Director    string `json:"director"`
	Cast        string `json:"cast"`
	ReleaseYear int    `json:"release_year"`
	PosterURL   string `json:"poster_url"`
}

func (req *movieRequest) validate() string {
	if strings.TrimSpace(req.Title) == "" {
		return "Title is required"
	}
	if req.ReleaseYear != 0 && (req.ReleaseYear < 1888 || req.ReleaseYear > time.Now().Year()+5) {
		return "Release year is out of range"
	}
	return ""
}

// Submit handles POST /api/v1/movies. Submissions from regular accounts
// enter the catalog unapproved and stay invisible to the public surface
// until an admin approves them.
func (h *MovieHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req movieRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	id := middleware.GetIdentity(r.Context())
	movie := &model.Movie{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Genre:       req.Genre,
		Language:    req.Language,
		Director:    req.Director,
		Cast:        req.Cast,
		ReleaseYear: req.ReleaseYear,
		PosterURL:   req.PosterURL,
		Approved:    id.Role == model.RoleAdmin,
		CreatedBy:   &id.AccountID,
	}
	if err := h.store.CreateMovie(r.Context(), movie); err != nil {
		h.logger.Error("failed to create movie", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create movie")
		return
	}

	h.logger.Info("movie submitted", "movie_id", movie.ID, "account_id", id.AccountID, "approved", movie.Approved)
	writeJSON(w, http.StatusCreated, movie)
}

func movieFilterFromQuery(r *http.Request) model.MovieFilter {
	f := model.MovieFilter{
		Query:       queryString(r, "q"),
		Title:       queryString(r, "title"),
		Genre:       queryString(r, "genre"),
		Language:    queryString(r, "language"),
		ReleaseYear: queryInt(r, "release_year", 0),
		RatingFrom:  queryFloat(r, "rating_from", 0),
		SortBy:      queryString(r, "sort_by"),
		Order:       queryString(r, "order"),
		Page:        queryInt(r, "page", 1),
		Size:        queryInt(r, "size", 20),
	}
	if val := queryString(r, "approved"); val != "" {
		approved, err := strconv.ParseBool(val)
		if err == nil {
			f.Approved = &approved
		}
	}
	return f
}

func canSeeUnapproved(r *http.Request, movie *model.Movie) bool {
	id := middleware.GetIdentity(r.Context())
	if id == nil {
		return false
	}
	if id.Role == model.RoleAdmin {
		return true
	}
	return movie.CreatedBy != nil && *movie.CreatedBy == id.AccountID
}
