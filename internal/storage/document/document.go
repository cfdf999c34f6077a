// Package document implements the snippet store as a single JSON document.
//
// The whole collection lives in memory and is mirrored to one file: loaded
// once at open, rewritten wholesale on every mutation. That makes every
// Save/Delete O(n) in collection size, which is fine for the intended scale
// (hundreds to low thousands of snippets) and no further.
package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/snippetsync/snippetd/internal/apperror"
	"github.com/snippetsync/snippetd/internal/model"
)

// Store holds the collection in memory and writes it through to a JSON file.
// A failed write-through is surfaced to the caller but does not invalidate
// the in-memory state — the collection stays usable.
type Store struct {
	path   string
	logger *slog.Logger

	mu       sync.RWMutex
	snippets map[string]*model.Snippet
}

// Open loads the snippet file at path, creating the parent directory and an
// empty file if nothing exists yet. An unreadable or corrupt file is logged
// and replaced with an empty collection, matching the recover-and-continue
// behaviour of the original store.
func Open(path string, logger *slog.Logger) (*Store, error) {
	s := &Store{
		path:     path,
		logger:   logger,
		snippets: make(map[string]*model.Snippet),
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("document: creating storage directory: %w", err)
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := s.flush(); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("document: reading %s: %w", path, err)
	default:
		var all []model.Snippet
		if err := json.Unmarshal(data, &all); err != nil {
			logger.Warn("snippet file is corrupt, starting with an empty collection",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			if err := s.flush(); err != nil {
				return nil, err
			}
			break
		}
		for i := range all {
			s.snippets[all[i].ID] = &all[i]
		}
	}

	return s, nil
}

// flush rewrites the entire collection to disk.
func (s *Store) flush() error {
	all := make([]model.Snippet, 0, len(s.snippets))
	for _, snippet := range s.snippets {
		all = append(all, *snippet)
	}

	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return apperror.StorageFailed("encode", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		s.logger.Error("failed to write snippet file",
			slog.String("path", s.path),
			slog.String("error", err.Error()),
		)
		return apperror.StorageFailed("write", err)
	}
	return nil
}

// GetAll returns every snippet. Order is whatever map iteration yields —
// callers must not rely on it.
func (s *Store) GetAll(_ context.Context) ([]model.Snippet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]model.Snippet, 0, len(s.snippets))
	for _, snippet := range s.snippets {
		all = append(all, *snippet.Clone())
	}
	return all, nil
}

// Get returns the snippet with the given id, or nil if it does not exist.
func (s *Store) Get(_ context.Context, id string) (*model.Snippet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snippet, ok := s.snippets[id]
	if !ok {
		return nil, nil
	}
	return snippet.Clone(), nil
}

// Save upserts the snippet by id and rewrites the file. On a write failure
// the error is returned but the in-memory collection keeps the new value.
func (s *Store) Save(_ context.Context, snippet *model.Snippet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snippets[snippet.ID] = snippet.Clone()
	return s.flush()
}

// Delete removes the snippet if present. Deleting an unknown id is not an
// error — it just reports false.
func (s *Store) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.snippets[id]; !ok {
		return false, nil
	}
	delete(s.snippets, id)
	if err := s.flush(); err != nil {
		return true, err
	}
	return true, nil
}

// Search filters the collection with the pure predicate from the model.
func (s *Store) Search(_ context.Context, f model.Filter) ([]model.Snippet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.Snippet, 0)
	for _, snippet := range s.snippets {
		if f.Matches(snippet) {
			result = append(result, *snippet.Clone())
		}
	}
	return result, nil
}

// AllTags returns the distinct tags across the collection, unordered.
func (s *Store) AllTags(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	tags := make([]string, 0)
	for _, snippet := range s.snippets {
		for _, tag := range snippet.Tags {
			if _, ok := seen[tag]; !ok {
				seen[tag] = struct{}{}
				tags = append(tags, tag)
			}
		}
	}
	return tags, nil
}

// AllLanguages returns the distinct languages across the collection, unordered.
func (s *Store) AllLanguages(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	languages := make([]string, 0)
	for _, snippet := range s.snippets {
		if _, ok := seen[snippet.Language]; !ok {
			seen[snippet.Language] = struct{}{}
			languages = append(languages, snippet.Language)
		}
	}
	return languages, nil
}

// AllProjects returns the distinct project contexts across the collection,
// unordered.
func (s *Store) AllProjects(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	projects := make([]string, 0)
	for _, snippet := range s.snippets {
		if _, ok := seen[snippet.ProjectContext]; !ok {
			seen[snippet.ProjectContext] = struct{}{}
			projects = append(projects, snippet.ProjectContext)
		}
	}
	return projects, nil
}

// Categories groups the collection by the given kind with live counts.
func (s *Store) Categories(_ context.Context, kind model.CategoryKind) ([]model.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !kind.Valid() {
		return nil, fmt.Errorf("document: unknown category kind %q", kind)
	}

	counts := make(map[string]int)
	for _, snippet := range s.snippets {
		switch kind {
		case model.CategoryTag:
			for _, tag := range snippet.Tags {
				counts[tag]++
			}
		case model.CategoryLanguage:
			counts[snippet.Language]++
		case model.CategoryProject:
			counts[snippet.ProjectContext]++
		}
	}

	categories := make([]model.Category, 0, len(counts))
	for name, count := range counts {
		categories = append(categories, model.Category{Kind: kind, Name: name, Count: count})
	}
	return categories, nil
}

// Close is a no-op — the file is only held open during individual writes.
func (s *Store) Close() error {
	return nil
}
