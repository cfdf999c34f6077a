// Package handler exposes the daemon's operations as a localhost JSON API.
// Handlers only parse requests and write responses; all rules live in the
// service layer.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/snippetsync/snippetd/internal/model"
	"github.com/snippetsync/snippetd/internal/service"
)

// SnippetHandler manages CRUD, search, and browse endpoints.
type SnippetHandler struct {
	service *service.SnippetService
	logger  *slog.Logger
}

// NewSnippetHandler creates a SnippetHandler.
func NewSnippetHandler(svc *service.SnippetService, logger *slog.Logger) *SnippetHandler {
	return &SnippetHandler{service: svc, logger: logger}
}

// HandleList returns snippets, optionally filtered.
//
// HTTP: GET /api/snippets?q=...&tags=a,b&language=...&project=...
// All query parameters are optional; none means the full collection.
func (h *SnippetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var tags []string
	if raw := q.Get("tags"); raw != "" {
		tags = model.NormalizeTags(strings.Split(raw, ","))
	}

	filter := model.Filter{
		SearchTerm: q.Get("q"),
		Tags:       tags,
		Language:   q.Get("language"),
		Project:    q.Get("project"),
	}

	snippets, err := h.service.Search(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snippets)
}

// HandleGet returns a single snippet.
//
// HTTP: GET /api/snippets/{id}
func (h *SnippetHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	snippet, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snippet)
}

// HandleCreate saves a new snippet.
//
// HTTP: POST /api/snippets
// Body: service.SnippetInput
func (h *SnippetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.SnippetInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.logger.Warn("invalid snippet JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "invalid_json", Message: "Invalid JSON body",
		})
		return
	}

	snippet, err := h.service.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snippet)
}

// HandleUpdate edits an existing snippet.
//
// HTTP: PUT /api/snippets/{id}
func (h *SnippetHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var in service.SnippetInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "invalid_json", Message: "Invalid JSON body",
		})
		return
	}

	snippet, err := h.service.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snippet)
}

// HandleDelete removes a snippet.
//
// HTTP: DELETE /api/snippets/{id}
func (h *SnippetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDuplicate copies a snippet under a new id.
//
// HTTP: POST /api/snippets/{id}/duplicate
func (h *SnippetHandler) HandleDuplicate(w http.ResponseWriter, r *http.Request) {
	snippet, err := h.service.Duplicate(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snippet)
}

// HandleSuggest returns metadata suggestions for a code selection. The UI
// calls this before the save prompt to pre-fill title, tags, and description.
//
// HTTP: POST /api/snippets/suggest
// Body: {"code": "...", "language": "..."}
func (h *SnippetHandler) HandleSuggest(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Code     string `json:"code"`
		Language string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "invalid_json", Message: "Invalid JSON body",
		})
		return
	}
	writeJSON(w, http.StatusOK, service.SuggestMetadata(in.Code, in.Language))
}

// HandleTags lists distinct tags.
//
// HTTP: GET /api/tags
func (h *SnippetHandler) HandleTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.service.Tags(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

// HandleLanguages lists distinct languages.
//
// HTTP: GET /api/languages
func (h *SnippetHandler) HandleLanguages(w http.ResponseWriter, r *http.Request) {
	languages, err := h.service.Languages(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, languages)
}

// HandleProjects lists distinct project contexts.
//
// HTTP: GET /api/projects
func (h *SnippetHandler) HandleProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.service.Projects(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

// HandleCategories returns grouped counts for one kind.
//
// HTTP: GET /api/categories/{kind}   (kind: tag | language | project)
func (h *SnippetHandler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	kind := model.CategoryKind(r.PathValue("kind"))
	categories, err := h.service.Categories(r.Context(), kind)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}
