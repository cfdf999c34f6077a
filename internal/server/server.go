// Package server wires the router, middleware, handlers, and storage handle
// together and owns the daemon lifecycle. main stays minimal; this is the
// composition root.
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

	"github.com/snippetsync/snippetd/internal/config"
	"github.com/snippetsync/snippetd/internal/handler"
	"github.com/snippetsync/snippetd/internal/middleware"
	"github.com/snippetsync/snippetd/internal/service"
	"github.com/snippetsync/snippetd/internal/storage"
)

// Server is the HTTP daemon. It owns the storage handle and closes it on
// shutdown so the active backend flushes cleanly.
type Server struct {
	router  *chi.Mux
	config  *config.Config
	logger  *slog.Logger
	storage *storage.Handle
}

// New assembles the full dependency chain: storage handle, service, handlers,
// routes. Each layer only receives what it needs — handlers never touch the
// store directly, and the service never touches HTTP.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	path, err := cfg.ResolveStoragePath()
	if err != nil {
		return nil, fmt.Errorf("resolving storage path: %w", err)
	}

	handle, err := storage.NewHandle(storage.Config{
		Kind: storage.Kind(cfg.Storage.Kind),
		Path: path,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		storage: handle,
	}
	s.setupRoutes()
	return s, nil
}

// setupRoutes configures middleware and all API routes. Middleware order
// matters: request id first so the logger can include it.
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	snippetService := service.NewSnippetService(s.storage, s.logger)
	snippetHandler := handler.NewSnippetHandler(snippetService, s.logger)
	storageHandler := handler.NewStorageHandler(s.storage, s.logger)
	syncHandler := handler.NewSyncHandler(s.storage, s.config.Sync.Enabled, s.config.Sync.Token, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/snippets", snippetHandler.HandleList)
		r.Post("/snippets", snippetHandler.HandleCreate)
		r.Post("/snippets/suggest", snippetHandler.HandleSuggest)
		r.Get("/snippets/{id}", snippetHandler.HandleGet)
		r.Put("/snippets/{id}", snippetHandler.HandleUpdate)
		r.Delete("/snippets/{id}", snippetHandler.HandleDelete)
		r.Post("/snippets/{id}/duplicate", snippetHandler.HandleDuplicate)

		r.Get("/tags", snippetHandler.HandleTags)
		r.Get("/languages", snippetHandler.HandleLanguages)
		r.Get("/projects", snippetHandler.HandleProjects)
		r.Get("/categories/{kind}", snippetHandler.HandleCategories)

		r.Get("/storage", storageHandler.HandleGet)
		r.Put("/storage", storageHandler.HandleUpdate)

		r.Get("/sync/status", syncHandler.HandleStatus)
		r.Post("/sync", syncHandler.HandleSync)
	})
}

// Router exposes the configured router for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the server until SIGINT/SIGTERM, then shuts down gracefully:
// stop accepting connections, drain in-flight requests, close storage.
func (s *Server) Start() error {
	defer func() {
		if err := s.storage.Close(); err != nil {
			s.logger.Error("failed to close storage", slog.String("error", err.Error()))
		}
	}()

	// Editor companion daemon: bind loopback only.
	srv := &http.Server{
		Addr:         fmt.Sprintf("127.0.0.1:%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("daemon starting",
			slog.Int("port", s.config.Port),
			slog.String("storage", string(s.storage.Config().Kind)),
			slog.String("path", s.storage.Config().Path),
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
		s.logger.Info("daemon stopped gracefully")
	}

	return nil
}
