// Package storage defines the persistence contract for snippets and the
// factory that selects between the two interchangeable backends.
//
// Both backends implement the same Store interface and are swappable at
// configuration time. There is no data migration between them — switching
// the kind starts from whatever the new backend's file already holds.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/snippetsync/snippetd/internal/model"
	"github.com/snippetsync/snippetd/internal/storage/document"
	"github.com/snippetsync/snippetd/internal/storage/sqlite"
)

// Store is the persistence contract implemented by both backends.
//
// Semantics shared by all implementations:
//   - Get returns (nil, nil) for a missing id — absence is not an error.
//   - Save is an upsert by id and replaces the entire tag set.
//   - Delete is idempotent: false for a missing id, never an error.
//   - GetAll/Search ordering: the relational backend orders by updatedAt
//     descending; the document backend gives no ordering guarantee.
//     Callers must not depend on either.
//   - Timestamps are stored as given. The storage layer never rejects a
//     save with an older updatedAt; conflict decisions belong to the
//     sync orchestrator.
type Store interface {
	GetAll(ctx context.Context) ([]model.Snippet, error)
	Get(ctx context.Context, id string) (*model.Snippet, error)
	Save(ctx context.Context, s *model.Snippet) error
	Delete(ctx context.Context, id string) (bool, error)
	Search(ctx context.Context, f model.Filter) ([]model.Snippet, error)
	AllTags(ctx context.Context) ([]string, error)
	AllLanguages(ctx context.Context) ([]string, error)
	AllProjects(ctx context.Context) ([]string, error)
	Categories(ctx context.Context, kind model.CategoryKind) ([]model.Category, error)
	Close() error
}

// Compile-time checks that both backends satisfy the contract.
var (
	_ Store = (*document.Store)(nil)
	_ Store = (*sqlite.Store)(nil)
)

// Kind names a backend implementation.
type Kind string

const (
	KindDocument   Kind = "document"   // single JSON file, full rewrite on mutation
	KindRelational Kind = "relational" // sqlite with a normalized tag join table
)

// Valid reports whether the kind is a known backend.
func (k Kind) Valid() bool {
	return k == KindDocument || k == KindRelational
}

// Config selects and locates a backend.
type Config struct {
	Kind Kind
	Path string // storage file path; parent directories are created as needed
}

// Open constructs the backend selected by cfg. Selection is keyed purely on
// cfg.Kind — never on runtime type inspection of an existing store.
func Open(cfg Config, logger *slog.Logger) (Store, error) {
	switch cfg.Kind {
	case KindDocument:
		return document.Open(cfg.Path, logger)
	case KindRelational:
		return sqlite.Open(cfg.Path, logger)
	default:
		return nil, fmt.Errorf("storage: unknown backend kind %q", cfg.Kind)
	}
}

// Handle owns the process-wide current backend. The service layer and the
// sync orchestrator resolve the store through a Handle instead of holding a
// Store directly, so reconfiguration swaps the backend for every caller at
// once.
type Handle struct {
	mu     sync.RWMutex
	store  Store
	cfg    Config
	logger *slog.Logger
}

// NewHandle opens the configured backend and wraps it in a Handle.
func NewHandle(cfg Config, logger *slog.Logger) (*Handle, error) {
	store, err := Open(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &Handle{store: store, cfg: cfg, logger: logger}, nil
}

// Store returns the current backend instance. Callers should re-resolve per
// operation rather than caching the result across a possible reconfiguration.
func (h *Handle) Store() Store {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.store
}

// Config returns the configuration of the current backend.
func (h *Handle) Config() Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cfg
}

// Reconfigure tears down the current backend and installs a freshly opened
// one. The old instance is fully closed before the new one is constructed;
// operations still in flight against the old instance are not guaranteed to
// succeed. If opening the new backend fails, the handle keeps the (closed)
// old store and returns the error so a later Reconfigure can retry.
func (h *Handle) Reconfigure(cfg Config) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.store.Close(); err != nil {
		h.logger.Warn("closing previous storage backend",
			slog.String("kind", string(h.cfg.Kind)),
			slog.String("error", err.Error()),
		)
	}

	store, err := Open(cfg, h.logger)
	if err != nil {
		return fmt.Errorf("storage: reconfiguring to %q: %w", cfg.Kind, err)
	}

	h.store = store
	h.cfg = cfg
	h.logger.Info("storage backend switched",
		slog.String("kind", string(cfg.Kind)),
		slog.String("path", cfg.Path),
	)
	return nil
}

// Close releases the current backend.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.store.Close()
}
