// Package server wires the router: global middleware, the public catalog
// surface, the authenticated account surface, and the admin surface.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/cinevault/cinevault/internal/auth"
	"github.com/cinevault/cinevault/internal/guard"
	"github.com/cinevault/cinevault/internal/handler"
	"github.com/cinevault/cinevault/internal/server/middleware"
	"github.com/cinevault/cinevault/internal/service"
	"github.com/cinevault/cinevault/internal/store"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host              string
	Port              int
	ShutdownTimeout   time.Duration
	CORSOrigins       []string
	RequestsPerMinute int
	// LoginRequestsPerMinute is a tighter per-IP limit applied to the login
	// endpoint alone, on top of the global limiter.
	LoginRequestsPerMinute int
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	return Config{
		Host:                   "0.0.0.0",
		Port:                   8080,
		ShutdownTimeout:        30 * time.Second,
		CORSOrigins:            []string{"*"},
		RequestsPerMinute:      300,
		LoginRequestsPerMinute: 10,
	}
}

// Server is the top-level HTTP server. It owns the chi router and the
// underlying store, token service, and business services.
type Server struct {
	cfg        Config
	router     chi.Router
	store      *store.Store
	tokens     *auth.TokenService
	accounts   *service.AccountService
	reviews    *service.ReviewService
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a Server with all routes and middleware wired, ready to
// listen. Call ListenAndServe to start accepting connections.
func New(cfg Config, st *store.Store, tokens *auth.TokenService, logger *slog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		store:    st,
		tokens:   tokens,
		accounts: service.NewAccountService(st, tokens, logger),
		reviews:  service.NewReviewService(st, logger),
		logger:   logger,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(chimw.Compress(5))
	if s.cfg.RequestsPerMinute > 0 {
		r.Use(middleware.RateLimit(s.cfg.RequestsPerMinute))
	}
	// Identity resolution never rejects; the per-route guards do.
	r.Use(middleware.ResolveIdentity(s.logger, s.tokens))

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)

	authHandler := handler.NewAuthHandler(s.accounts, s.tokens)
	movieHandler := handler.NewMovieHandler(s.store, s.logger)
	reviewHandler := handler.NewReviewHandler(s.reviews, s.store, s.logger)
	watchlistHandler := handler.NewWatchlistHandler(s.store, s.logger)
	adminHandler := handler.NewAdminHandler(s.store, s.accounts, s.reviews, s.logger)

	authed := middleware.Require(s.logger, s.store, guard.Authenticated)
	adminOnly := middleware.Require(s.logger, s.store, guard.AdminOnly)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			if s.cfg.LoginRequestsPerMinute > 0 {
				r.With(middleware.RateLimit(s.cfg.LoginRequestsPerMinute)).Post("/login", authHandler.Login)
			} else {
				r.Post("/login", authHandler.Login)
			}
			r.Post("/validate-token", authHandler.ValidateToken)
			r.With(authed).Post("/logout", authHandler.Logout)
		})

		r.Route("/movies", func(r chi.Router) {
			r.Get("/", movieHandler.List)
			r.Get("/{id}", movieHandler.Get)
			r.Get("/{id}/reviews", reviewHandler.ListForMovie)
			r.Group(func(r chi.Router) {
				r.Use(authed)
				r.Post("/", movieHandler.Submit)
				r.Post("/{id}/reviews", reviewHandler.Create)
			})
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Use(authed)
			r.Get("/mine", reviewHandler.ListMine)
			r.Put("/{id}", reviewHandler.Update)
			r.Delete("/{id}", reviewHandler.Delete)
			r.Post("/{id}/like", reviewHandler.Like)
		})

		r.Route("/watchlist", func(r chi.Router) {
			r.Use(authed)
			r.Get("/", watchlistHandler.List)
			r.Post("/", watchlistHandler.Add)
			r.Delete("/", watchlistHandler.BulkRemove)
			r.Get("/summary", watchlistHandler.Summary)
			r.Get("/{movieID}", watchlistHandler.Contains)
			r.Put("/{movieID}", watchlistHandler.UpdateStatus)
			r.Delete("/{movieID}", watchlistHandler.Remove)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(adminOnly)

			r.Get("/users", adminHandler.ListUsers)
			r.Post("/users", adminHandler.CreateUser)
			r.Get("/users/{id}", adminHandler.GetUser)
			r.Put("/users/{id}/role", adminHandler.ChangeRole)
			r.Put("/users/{id}/status", adminHandler.ChangeStatus)
			r.Delete("/users/{id}", adminHandler.DeleteUser)

			r.Get("/movies", adminHandler.ListMovies)
			r.Put("/movies/{id}", adminHandler.UpdateMovie)
			r.Put("/movies/{id}/approve", adminHandler.ApproveMovie)
			r.Delete("/movies/{id}", adminHandler.DeleteMovie)

			r.Get("/reviews", adminHandler.ListReviews)
			r.Delete("/reviews/{id}", adminHandler.DeleteReview)

			r.Get("/stats", adminHandler.Stats)
			r.Get("/activity", adminHandler.Activity)
		})
	})

	s.router = r
}

// handleHealthz is a liveness probe. Returns 200 if the process is running.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// handleReadyz is a readiness probe. Returns 200 when the database answers a
// ping, 503 otherwise.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK
	if err := s.store.Ping(r.Context()); err != nil {
		status = "degraded: " + err.Error()
		httpStatus = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

// ListenAndServe starts the HTTP server and blocks until a SIGINT or SIGTERM
// is received. It then performs a graceful shutdown, draining in-flight
// requests before returning.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// Router returns the underlying chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
