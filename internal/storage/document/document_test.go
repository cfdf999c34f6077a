package document

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/snippetsync/snippetd/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "snippets.json"), testLogger())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func saveTestSnippet(t *testing.T, store *Store, s model.Snippet) {
	t.Helper()
	if err := store.Save(context.Background(), &s); err != nil {
		t.Fatalf("failed to save snippet %s: %v", s.ID, err)
	}
}

func TestOpenCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "snippets.json")
	store, err := Open(path, testLogger())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("Open() did not create the file: %v", err)
	}
}

func TestOpenCorruptFileResets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snippets.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	store, err := Open(path, testLogger())
	if err != nil {
		t.Fatalf("Open() on corrupt file error = %v", err)
	}
	defer store.Close()

	all, err := store.GetAll(context.Background())
	if err != nil {
		t.Fatalf("GetAll() error = %v", err)
	}
	if len(all) != 0 {
		t.Errorf("corrupt file should reset to empty collection, got %d snippets", len(all))
	}
}

func TestSaveAndGet(t *testing.T) {
	store := newTestStore(t)

	saveTestSnippet(t, store, model.Snippet{
		ID: "s1", Title: "Hello", Code: "print('hi')",
		Language: "python", Tags: []string{"demo"},
		ProjectContext: model.GlobalProject,
		CreatedAt:      100, UpdatedAt: 100,
	})

	got, err := store.Get(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got == nil {
		t.Fatal("Get() returned nil for existing snippet")
	}
	if got.Title != "Hello" || got.Language != "python" || got.UpdatedAt != 100 {
		t.Errorf("Get() = %+v, fields do not round-trip", got)
	}
}

func TestGetMissingReturnsNilNil(t *testing.T) {
	store := newTestStore(t)

	got, err := store.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get() on missing id error = %v", err)
	}
	if got != nil {
		t.Errorf("Get() on missing id = %+v, want nil", got)
	}
}

func TestSaveIsUpsert(t *testing.T) {
	store := newTestStore(t)

	saveTestSnippet(t, store, model.Snippet{ID: "s1", Title: "v1", UpdatedAt: 100})
	saveTestSnippet(t, store, model.Snippet{ID: "s1", Title: "v2", UpdatedAt: 200})

	all, _ := store.GetAll(context.Background())
	if len(all) != 1 {
		t.Fatalf("upsert created %d snippets, want 1", len(all))
	}
	if all[0].Title != "v2" || all[0].UpdatedAt != 200 {
		t.Errorf("upsert did not replace: %+v", all[0])
	}
}

func TestSaveAcceptsOlderTimestamp(t *testing.T) {
	store := newTestStore(t)

	saveTestSnippet(t, store, model.Snippet{ID: "s1", Title: "newer", UpdatedAt: 200})
	saveTestSnippet(t, store, model.Snippet{ID: "s1", Title: "older", UpdatedAt: 100})

	got, _ := store.Get(context.Background(), "s1")
	if got.UpdatedAt != 100 {
		t.Errorf("store rejected older updatedAt; conflict handling belongs to sync, not storage")
	}
}

func TestDeleteIdempotent(t *testing.T) {
	store := newTestStore(t)
	saveTestSnippet(t, store, model.Snippet{ID: "s1"})

	deleted, err := store.Delete(context.Background(), "s1")
	if err != nil || !deleted {
		t.Fatalf("Delete() existing = (%v, %v), want (true, nil)", deleted, err)
	}

	deleted, err = store.Delete(context.Background(), "s1")
	if err != nil || deleted {
		t.Fatalf("Delete() missing = (%v, %v), want (false, nil)", deleted, err)
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snippets.json")

	store, err := Open(path, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	saveTestSnippet(t, store, model.Snippet{
		ID: "s1", Title: "survives", Tags: []string{"a", "b"}, UpdatedAt: 42,
	})
	store.Close()

	reopened, err := Open(path, testLogger())
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(context.Background(), "s1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Title != "survives" || len(got.Tags) != 2 || got.UpdatedAt != 42 {
		t.Errorf("snippet did not survive reopen: %+v", got)
	}
}

func TestSearch(t *testing.T) {
	store := newTestStore(t)
	saveTestSnippet(t, store, model.Snippet{
		ID: "go1", Title: "HTTP Server", Code: "http.ListenAndServe",
		Language: "go", Tags: []string{"api"}, ProjectContext: "backend",
	})
	saveTestSnippet(t, store, model.Snippet{
		ID: "py1", Title: "CSV Parser", Code: "import csv",
		Language: "python", Tags: []string{"data"}, ProjectContext: model.GlobalProject,
	})

	tests := []struct {
		name    string
		filter  model.Filter
		wantIDs []string
	}{
		{"empty filter returns all", model.Filter{}, []string{"go1", "py1"}},
		{"term case-insensitive", model.Filter{SearchTerm: "http"}, []string{"go1"}},
		{"by language", model.Filter{Language: "python"}, []string{"py1"}},
		{"by tag", model.Filter{Tags: []string{"api"}}, []string{"go1"}},
		{"by project", model.Filter{Project: "backend"}, []string{"go1"}},
		{"no match", model.Filter{SearchTerm: "rust"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := store.Search(context.Background(), tt.filter)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			got := make([]string, 0, len(result))
			for _, s := range result {
				got = append(got, s.ID)
			}
			sort.Strings(got)
			want := append([]string(nil), tt.wantIDs...)
			sort.Strings(want)
			if len(got) != len(want) {
				t.Fatalf("Search() ids = %v, want %v", got, want)
			}
			for i := range got {
				if got[i] != want[i] {
					t.Fatalf("Search() ids = %v, want %v", got, want)
				}
			}
		})
	}
}

func TestListingsAndCategories(t *testing.T) {
	store := newTestStore(t)
	saveTestSnippet(t, store, model.Snippet{
		ID: "s1", Language: "go", Tags: []string{"api", "http"}, ProjectContext: "backend",
	})
	saveTestSnippet(t, store, model.Snippet{
		ID: "s2", Language: "go", Tags: []string{"api"}, ProjectContext: model.GlobalProject,
	})

	ctx := context.Background()

	tags, err := store.AllTags(ctx)
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(tags)
	if len(tags) != 2 || tags[0] != "api" || tags[1] != "http" {
		t.Errorf("AllTags() = %v, want [api http]", tags)
	}

	languages, err := store.AllLanguages(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(languages) != 1 || languages[0] != "go" {
		t.Errorf("AllLanguages() = %v, want [go]", languages)
	}

	categories, err := store.Categories(ctx, model.CategoryTag)
	if err != nil {
		t.Fatal(err)
	}
	counts := make(map[string]int)
	for _, c := range categories {
		counts[c.Name] = c.Count
	}
	if counts["api"] != 2 || counts["http"] != 1 {
		t.Errorf("tag categories = %v, want api:2 http:1", counts)
	}
}

func TestDeletedTagDropsFromListing(t *testing.T) {
	store := newTestStore(t)
	saveTestSnippet(t, store, model.Snippet{ID: "s1", Tags: []string{"solo"}, Language: "go"})

	if _, err := store.Delete(context.Background(), "s1"); err != nil {
		t.Fatal(err)
	}

	tags, err := store.AllTags(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) != 0 {
		t.Errorf("AllTags() after delete = %v, want empty", tags)
	}
}
