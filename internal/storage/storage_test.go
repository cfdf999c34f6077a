package storage

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/snippetsync/snippetd/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestKindValid(t *testing.T) {
	if !KindDocument.Valid() || !KindRelational.Valid() {
		t.Error("known kinds should be valid")
	}
	if Kind("mongo").Valid() {
		t.Error(`kind "mongo" should be invalid`)
	}
}

func TestOpenUnknownKind(t *testing.T) {
	_, err := Open(Config{Kind: "mongo", Path: "x"}, testLogger())
	if err == nil {
		t.Fatal("Open() with unknown kind should fail")
	}
}

func TestOpenSelectsBackend(t *testing.T) {
	dir := t.TempDir()

	doc, err := Open(Config{Kind: KindDocument, Path: filepath.Join(dir, "s.json")}, testLogger())
	if err != nil {
		t.Fatalf("Open(document) error = %v", err)
	}
	doc.Close()

	rel, err := Open(Config{Kind: KindRelational, Path: filepath.Join(dir, "s.db")}, testLogger())
	if err != nil {
		t.Fatalf("Open(relational) error = %v", err)
	}
	rel.Close()
}

func TestHandleReconfigureSwapsBackend(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	handle, err := NewHandle(Config{Kind: KindDocument, Path: filepath.Join(dir, "s.json")}, testLogger())
	if err != nil {
		t.Fatalf("NewHandle() error = %v", err)
	}
	defer handle.Close()

	if err := handle.Store().Save(ctx, &model.Snippet{ID: "doc-only", Title: "json"}); err != nil {
		t.Fatal(err)
	}

	// Switch to the relational backend. No migration happens: the new
	// backend starts from its own (empty) file.
	if err := handle.Reconfigure(Config{Kind: KindRelational, Path: filepath.Join(dir, "s.db")}); err != nil {
		t.Fatalf("Reconfigure() error = %v", err)
	}

	all, err := handle.Store().GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll() after switch error = %v", err)
	}
	if len(all) != 0 {
		t.Errorf("relational backend should start empty, got %d snippets", len(all))
	}

	if got := handle.Config().Kind; got != KindRelational {
		t.Errorf("Config().Kind = %q, want %q", got, KindRelational)
	}

	// Switch back: the document data is still in its file.
	if err := handle.Reconfigure(Config{Kind: KindDocument, Path: filepath.Join(dir, "s.json")}); err != nil {
		t.Fatalf("Reconfigure() back error = %v", err)
	}
	snippet, err := handle.Store().Get(ctx, "doc-only")
	if err != nil {
		t.Fatal(err)
	}
	if snippet == nil || snippet.Title != "json" {
		t.Errorf("document data should survive a round trip, got %+v", snippet)
	}
}

func TestHandleReconfigureInvalidKind(t *testing.T) {
	handle, err := NewHandle(Config{Kind: KindDocument, Path: filepath.Join(t.TempDir(), "s.json")}, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	if err := handle.Reconfigure(Config{Kind: "mongo", Path: "x"}); err == nil {
		t.Fatal("Reconfigure() with unknown kind should fail")
	}
	// The old config is still reported so a later retry has something to show.
	if got := handle.Config().Kind; got != KindDocument {
		t.Errorf("Config().Kind after failed reconfigure = %q, want %q", got, KindDocument)
	}
}
