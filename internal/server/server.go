// Package server wires the application together: config in, a running
// HTTP server out.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/AdrianoMiguel/CasaNovaGabs/internal/auth"
	"github.com/AdrianoMiguel/CasaNovaGabs/internal/config"
	"github.com/AdrianoMiguel/CasaNovaGabs/internal/handler"
	"github.com/AdrianoMiguel/CasaNovaGabs/internal/middleware"
	"github.com/AdrianoMiguel/CasaNovaGabs/internal/repository/sqlite"
	"github.com/AdrianoMiguel/CasaNovaGabs/internal/service"
)

// Server owns the HTTP listener and the database handle.
type Server struct {
	cfg    config.Config
	db     *sqlite.DB
	router *chi.Mux
	logger *slog.Logger
}

// New builds the full dependency graph: database, repositories, services,
// handlers, routes. Nothing starts listening until Start is called.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.SessionTTL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("configuring sessions: %w", err)
	}

	google := auth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleCallbackURL)

	gifts := db.Gifts()
	users := db.Users()

	authService := service.NewAuthService(users, gifts, tokens, cfg.AdminEmails, logger)
	giftService := service.NewGiftService(gifts, logger)

	authHandler := handler.NewAuthHandler(google, authService, tokens, cfg.FrontendURL, logger)
	giftHandler := handler.NewGiftHandler(giftService, users, logger)

	s := &Server{
		cfg:    cfg,
		db:     db,
		router: chi.NewRouter(),
		logger: logger,
	}
	s.setupRoutes(tokens, authHandler, giftHandler)

	return s, nil
}

func (s *Server) setupRoutes(tokens *auth.TokenService, authHandler *handler.AuthHandler, giftHandler *handler.GiftHandler) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	s.router.Route("/auth", func(r chi.Router) {
		r.Get("/google/login", authHandler.HandleGoogleLogin)
		r.Get("/google/callback", authHandler.HandleGoogleCallback)
		r.Post("/logout", authHandler.HandleLogout)

		// current-user answers 200 for anonymous visitors, so the token
		// check is optional here.
		r.With(auth.OptionalAuth(tokens)).Get("/current-user", authHandler.HandleCurrentUser)
	})

	s.router.Route("/gifts", func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))

		r.Get("/", giftHandler.HandleList)
		r.Post("/", giftHandler.HandleCreate)
		r.Get("/admin/report", giftHandler.HandleReport)
		r.Post("/{id}/choose", giftHandler.HandleChoose)
		r.Put("/{id}", giftHandler.HandleUpdate)
		r.Delete("/{id}", giftHandler.HandleDelete)
	})
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully with a 10 second drain window.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening",
			slog.Int("port", s.cfg.Port),
			slog.String("db", s.cfg.DBPath),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-stop:
		s.logger.Info("shutting down", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}
