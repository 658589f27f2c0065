// Package server wires handlers, middleware, and routes together and owns
// the HTTP server lifecycle. It is the composition root: every dependency
// (database, token service, TMDB client) is constructed here and injected
// downward — nothing reaches for ambient global state.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"watchlist/internal/auth"
	"watchlist/internal/config"
	"watchlist/internal/handler"
	"watchlist/internal/middleware"
	sqliteRepo "watchlist/internal/repository/sqlite"
	"watchlist/internal/service"
	"watchlist/internal/tmdb"
)

// Server holds the router and the resources it owns. The database
// connection is created in New and closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server: opens the database, builds the service layer, and
// registers all routes.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware, builds the dependency chain
// (DB → services → handlers), and maps the route table.
//
// ROUTES:
//
//	GET    /hello                                          liveness
//	POST   /users                                          register
//	POST   /login                                          login
//	GET    /me                                    (bearer) current user
//	DELETE /users                                 (bearer) delete own account
//	GET    /movies/search                         (bearer) TMDB proxy
//	POST   /watchlists                            (bearer)
//	GET    /watchlists/me                         (bearer)
//	PUT    /watchlists/{id}                       (bearer)
//	DELETE /watchlists/{id}                       (bearer)
//	POST   /watchlists/{id}/movies                (bearer)
//	GET    /watchlists/{id}/movies                (bearer)
//	DELETE /watchlists/{id}/movies/{movie_id}                      (bearer)
//	PATCH  /watchlists/{id}/movies/{movie_id}/watched              (bearer)
//	PATCH  /watchlists/{id}/movies/{movie_id}/unwatched            (bearer)
//	GET    /admin/users, /admin/watchlists, DELETE /admin/users/{id}  (admin token)
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret, time.Duration(s.config.TokenTTLHours)*time.Hour)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	authSvc := service.NewAuthService(s.db, tokens, passwords, s.logger)
	watchlistSvc := service.NewWatchlistService(s.db, s.db, s.logger)

	var searcher handler.MovieSearcher
	if s.config.TMDB.APIKey != "" {
		searcher = tmdb.NewClient(s.config.TMDB.APIKey, s.config.TMDB.BaseURL)
	}

	authHandler := handler.NewAuthHandler(authSvc, s.logger)
	watchlistHandler := handler.NewWatchlistHandler(watchlistSvc, s.logger)
	movieHandler := handler.NewMovieHandler(watchlistSvc, s.logger)
	searchHandler := handler.NewSearchHandler(searcher, s.logger)
	adminHandler := handler.NewAdminHandler(authSvc, watchlistSvc, s.logger)

	s.router.Get("/hello", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Hello from backend"))
	})

	// Public auth routes
	s.router.Post("/users", authHandler.HandleRegister)
	s.router.Post("/login", authHandler.HandleLogin)

	// Everything watchlist-scoped requires a bearer token
	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))

		r.Get("/me", authHandler.HandleMe)
		r.Delete("/users", authHandler.HandleDeleteMe)

		r.Get("/movies/search", searchHandler.HandleSearch)

		r.Post("/watchlists", watchlistHandler.HandleCreate)
		r.Get("/watchlists/me", watchlistHandler.HandleListMine)
		r.Put("/watchlists/{id}", watchlistHandler.HandleUpdate)
		r.Delete("/watchlists/{id}", watchlistHandler.HandleDelete)

		r.Post("/watchlists/{id}/movies", movieHandler.HandleAdd)
		r.Get("/watchlists/{id}/movies", movieHandler.HandleList)
		r.Delete("/watchlists/{id}/movies/{movie_id}", movieHandler.HandleRemove)
		r.Patch("/watchlists/{id}/movies/{movie_id}/watched", movieHandler.HandleMarkWatched)
		r.Patch("/watchlists/{id}/movies/{movie_id}/unwatched", movieHandler.HandleMarkUnwatched)
	})

	// Admin surface: bypasses the ownership model, so it carries its own
	// explicit credential and vanishes entirely when none is configured.
	s.router.Group(func(r chi.Router) {
		r.Use(handler.RequireAdmin(s.config.AdminToken, s.logger))

		r.Get("/admin/users", adminHandler.HandleListUsers)
		r.Get("/admin/watchlists", adminHandler.HandleListWatchlists)
		r.Delete("/admin/users/{id}", adminHandler.HandleDeleteUser)
	})

	return nil
}

// Router exposes the underlying handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Close releases the server's resources without serving. Tests use it; the
// normal path closes the database at the end of Start.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30
// seconds, close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
