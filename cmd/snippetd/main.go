// Command snippetd is the snippet storage and sync daemon. It serves a JSON
// API on loopback for editor integrations; all logic lives in the internal
// packages, main only wires config, logging, and the server.
package main

import (
	"log/slog"
	"os"

	"github.com/snippetsync/snippetd/internal/config"
	"github.com/snippetsync/snippetd/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
