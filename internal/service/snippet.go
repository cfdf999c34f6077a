// Package service contains the business logic between the HTTP surface and
// the storage engine: validation, id and timestamp assignment, and the
// snippet lifecycle operations (create, edit, duplicate, delete).
//
// The service resolves the store through the storage handle per operation,
// so a backend reconfiguration takes effect for every subsequent call
// without rewiring anything.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rs/xid"

	"github.com/snippetsync/snippetd/internal/apperror"
	"github.com/snippetsync/snippetd/internal/model"
	"github.com/snippetsync/snippetd/internal/storage"
)

const (
	MaxTitleLength = 100
	MaxCodeLength  = 100000 // ~100KB of code
)

// SnippetService handles business logic for snippets.
type SnippetService struct {
	storage *storage.Handle
	logger  *slog.Logger
}

// NewSnippetService creates a SnippetService bound to the storage handle.
func NewSnippetService(h *storage.Handle, logger *slog.Logger) *SnippetService {
	return &SnippetService{storage: h, logger: logger}
}

// SnippetInput carries the caller-supplied fields for create and update.
// The UI layer has already extracted the text and language; the service
// only validates and normalizes.
type SnippetInput struct {
	Title          string   `json:"title"`
	Code           string   `json:"code"`
	Description    string   `json:"description"`
	Language       string   `json:"language"`
	Tags           []string `json:"tags"`
	ProjectContext string   `json:"projectContext"`
}

func (in *SnippetInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return apperror.ValidationFailed("title", "snippet title is required")
	}
	if len(in.Title) > MaxTitleLength {
		return apperror.ValidationFailed("title",
			fmt.Sprintf("snippet title must be %d characters or less", MaxTitleLength))
	}
	if len(in.Code) > MaxCodeLength {
		return apperror.ValidationFailed("code",
			fmt.Sprintf("code must be %d characters or less", MaxCodeLength))
	}
	return nil
}

// Create validates the input and persists a new snippet with a generated id
// and fresh timestamps.
func (s *SnippetService) Create(ctx context.Context, in SnippetInput) (*model.Snippet, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	language := strings.TrimSpace(in.Language)
	if language == "" {
		language = "plaintext"
	}
	project := strings.TrimSpace(in.ProjectContext)
	if project == "" {
		project = model.GlobalProject
	}

	now := model.Now()
	snippet := &model.Snippet{
		ID:             xid.New().String(),
		Title:          strings.TrimSpace(in.Title),
		Code:           in.Code,
		Description:    strings.TrimSpace(in.Description),
		Language:       language,
		Tags:           model.NormalizeTags(in.Tags),
		ProjectContext: project,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.storage.Store().Save(ctx, snippet); err != nil {
		s.logger.Error("failed to create snippet",
			slog.String("title", snippet.Title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating snippet: %w", err)
	}

	s.logger.Info("snippet created",
		slog.String("id", snippet.ID),
		slog.String("title", snippet.Title),
	)
	return snippet, nil
}

// Update applies an edit to an existing snippet and refreshes updatedAt.
// Every mutating save gets a fresh timestamp — the sync layer depends on it.
func (s *SnippetService) Update(ctx context.Context, id string, in SnippetInput) (*model.Snippet, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	store := s.storage.Store()
	snippet, err := store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("updating snippet: %w", err)
	}
	if snippet == nil {
		return nil, apperror.NotFound("snippet", id)
	}

	snippet.Title = strings.TrimSpace(in.Title)
	snippet.Code = in.Code
	snippet.Description = strings.TrimSpace(in.Description)
	if language := strings.TrimSpace(in.Language); language != "" {
		snippet.Language = language
	}
	if project := strings.TrimSpace(in.ProjectContext); project != "" {
		snippet.ProjectContext = project
	}
	snippet.Tags = model.NormalizeTags(in.Tags)
	snippet.UpdatedAt = model.Now()

	if err := store.Save(ctx, snippet); err != nil {
		s.logger.Error("failed to update snippet",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating snippet: %w", err)
	}
	return snippet, nil
}

// Duplicate copies an existing snippet under a new id with fresh timestamps.
// The copy starts unsynced — it must not share the original's gist.
func (s *SnippetService) Duplicate(ctx context.Context, id string) (*model.Snippet, error) {
	store := s.storage.Store()
	original, err := store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("duplicating snippet: %w", err)
	}
	if original == nil {
		return nil, apperror.NotFound("snippet", id)
	}

	now := model.Now()
	dup := original.Clone()
	dup.ID = xid.New().String()
	dup.Title = original.Title + " (copy)"
	dup.GistID = ""
	dup.CreatedAt = now
	dup.UpdatedAt = now

	if err := store.Save(ctx, dup); err != nil {
		return nil, fmt.Errorf("duplicating snippet: %w", err)
	}

	s.logger.Info("snippet duplicated",
		slog.String("source", id),
		slog.String("copy", dup.ID),
	)
	return dup, nil
}

// Get returns one snippet or a NotFound error.
func (s *SnippetService) Get(ctx context.Context, id string) (*model.Snippet, error) {
	snippet, err := s.storage.Store().Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting snippet: %w", err)
	}
	if snippet == nil {
		return nil, apperror.NotFound("snippet", id)
	}
	return snippet, nil
}

// Delete removes a snippet. Deleting an id that does not exist is reported
// as NotFound at this layer; the storage layer itself stays error-free for
// missing ids.
func (s *SnippetService) Delete(ctx context.Context, id string) error {
	deleted, err := s.storage.Store().Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting snippet: %w", err)
	}
	if !deleted {
		return apperror.NotFound("snippet", id)
	}
	s.logger.Info("snippet deleted", slog.String("id", id))
	return nil
}

// Search applies the filter. An empty filter returns the whole collection.
func (s *SnippetService) Search(ctx context.Context, f model.Filter) ([]model.Snippet, error) {
	snippets, err := s.storage.Store().Search(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("searching snippets: %w", err)
	}
	return snippets, nil
}

// Tags lists the distinct tags in use.
func (s *SnippetService) Tags(ctx context.Context) ([]string, error) {
	return s.storage.Store().AllTags(ctx)
}

// Languages lists the distinct languages in use.
func (s *SnippetService) Languages(ctx context.Context) ([]string, error) {
	return s.storage.Store().AllLanguages(ctx)
}

// Projects lists the distinct project contexts in use.
func (s *SnippetService) Projects(ctx context.Context) ([]string, error) {
	return s.storage.Store().AllProjects(ctx)
}

// Categories returns grouped counts for browsing.
func (s *SnippetService) Categories(ctx context.Context, kind model.CategoryKind) ([]model.Category, error) {
	if !kind.Valid() {
		return nil, apperror.ValidationFailed("kind",
			fmt.Sprintf("unknown category kind %q", kind))
	}
	return s.storage.Store().Categories(ctx, kind)
}
