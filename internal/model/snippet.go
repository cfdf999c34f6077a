// Package model defines the data structures shared across the daemon.
// In Go, we use structs to represent our data — plain values with JSON
// struct tags, no behaviour beyond a few pure helpers.
package model

import (
	"strings"
	"time"
)

// GlobalProject is the sentinel project context for snippets captured
// outside any workspace.
const GlobalProject = "Global"

// Snippet is a saved, tagged fragment of code.
//
// Timestamps are milliseconds since epoch rather than time.Time: they act as
// a logical clock and are compared (never formatted) by the sync layer, and
// they must round-trip exactly through the gist metadata file.
type Snippet struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Code           string   `json:"code"`
	Description    string   `json:"description,omitempty"`
	Language       string   `json:"language"`
	Tags           []string `json:"tags"`
	ProjectContext string   `json:"projectContext"`
	CreatedAt      int64    `json:"createdAt"`
	UpdatedAt      int64    `json:"updatedAt"`

	// GistID is the remote container id once the snippet has been synced
	// at least once. Empty means "never synced".
	GistID string `json:"gistId,omitempty"`
}

// Clone returns a deep copy. Storage backends hand out clones so callers
// can't mutate cached state behind the store's back.
func (s *Snippet) Clone() *Snippet {
	out := *s
	if s.Tags != nil {
		out.Tags = make([]string, len(s.Tags))
		copy(out.Tags, s.Tags)
	}
	return &out
}

// HasTag reports whether the snippet carries the tag (case-sensitive).
func (s *Snippet) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Now returns the current logical-clock timestamp in milliseconds.
func Now() int64 {
	return time.Now().UnixMilli()
}

// NormalizeTags trims whitespace, drops empties, and removes duplicates
// (case-sensitive) while preserving first-seen order so display order
// stays stable.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Filter is a predicate specification for snippet search.
// The zero value matches every snippet.
type Filter struct {
	// SearchTerm is matched case-insensitively as a substring of
	// title, code, or description (OR across the three fields).
	SearchTerm string `json:"searchTerm,omitempty"`
	// Tags must ALL be present on a matching snippet.
	Tags []string `json:"tags,omitempty"`
	// Language and Project are exact matches when non-empty.
	Language string `json:"language,omitempty"`
	Project  string `json:"project,omitempty"`
}

// IsEmpty reports whether the filter has no criteria at all.
func (f Filter) IsEmpty() bool {
	return f.SearchTerm == "" && len(f.Tags) == 0 && f.Language == "" && f.Project == ""
}

// Matches applies the filter to a single snippet. All specified fields are
// ANDed together; only the free-text term ORs across title/code/description.
// The document backend filters with this directly; the relational backend
// compiles the same semantics to SQL.
func (f Filter) Matches(s *Snippet) bool {
	if f.SearchTerm != "" {
		term := strings.ToLower(f.SearchTerm)
		if !strings.Contains(strings.ToLower(s.Title), term) &&
			!strings.Contains(strings.ToLower(s.Code), term) &&
			!strings.Contains(strings.ToLower(s.Description), term) {
			return false
		}
	}
	for _, tag := range f.Tags {
		if !s.HasTag(tag) {
			return false
		}
	}
	if f.Language != "" && s.Language != f.Language {
		return false
	}
	if f.Project != "" && s.ProjectContext != f.Project {
		return false
	}
	return true
}

// CategoryKind selects which snippet attribute a category groups by.
type CategoryKind string

const (
	CategoryTag      CategoryKind = "tag"
	CategoryLanguage CategoryKind = "language"
	CategoryProject  CategoryKind = "project"
)

// Valid reports whether the kind is one of the three known groupings.
func (k CategoryKind) Valid() bool {
	switch k {
	case CategoryTag, CategoryLanguage, CategoryProject:
		return true
	}
	return false
}

// Category is a derived grouping with a live count. It is recomputed on
// demand and never persisted.
type Category struct {
	Kind  CategoryKind `json:"type"`
	Name  string       `json:"name"`
	Count int          `json:"count"`
}
