package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snippetsync/snippetd/internal/model"
	"github.com/snippetsync/snippetd/internal/storage"
	syncer "github.com/snippetsync/snippetd/internal/sync"
)

type stubRemote struct {
	connected bool
	snippets  []model.Snippet
	uploaded  int
}

func (s *stubRemote) TestConnection(_ context.Context) bool { return s.connected }

func (s *stubRemote) Upload(_ context.Context, snippet *model.Snippet) (string, error) {
	s.uploaded++
	if snippet.GistID != "" {
		return snippet.GistID, nil
	}
	return "gist-new", nil
}

func (s *stubRemote) FetchAll(_ context.Context) ([]model.Snippet, error) {
	return s.snippets, nil
}

func (s *stubRemote) Delete(_ context.Context, _ string) bool { return true }

func newSyncTestHandler(t *testing.T, enabled bool, token string, remote syncer.Remote) (*SyncHandler, *storage.Handle) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handle, err := storage.NewHandle(storage.Config{
		Kind: storage.KindDocument,
		Path: filepath.Join(t.TempDir(), "snippets.json"),
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { handle.Close() })

	h := NewSyncHandler(handle, enabled, token, logger)
	h.newRemote = func(_ string, _ *slog.Logger) syncer.Remote { return remote }
	return h, handle
}

func postSync(t *testing.T, h *SyncHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/sync", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandleSync(rec, req)
	return rec
}

func TestHandleSyncDisabled(t *testing.T) {
	h, _ := newSyncTestHandler(t, false, "tok", &stubRemote{connected: true})

	rec := postSync(t, h, `{"mode":"push"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "sync_disabled", body.Error)
}

func TestHandleSyncMissingToken(t *testing.T) {
	h, _ := newSyncTestHandler(t, true, "", &stubRemote{connected: true})

	rec := postSync(t, h, `{"mode":"push"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "sync_unconfigured", body.Error)
}

func TestHandleSyncInvalidMode(t *testing.T) {
	h, _ := newSyncTestHandler(t, true, "tok", &stubRemote{connected: true})

	rec := postSync(t, h, `{"mode":"sideways"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSyncUnreachableRemote(t *testing.T) {
	h, _ := newSyncTestHandler(t, true, "tok", &stubRemote{connected: false})

	rec := postSync(t, h, `{"mode":"push"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandleSyncPush(t *testing.T) {
	remote := &stubRemote{connected: true}
	h, handle := newSyncTestHandler(t, true, "tok", remote)

	require.NoError(t, handle.Store().Save(context.Background(),
		&model.Snippet{ID: "s1", Title: "A", UpdatedAt: 100}))

	rec := postSync(t, h, `{"mode":"push"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var result syncer.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, syncer.ModePush, result.Mode)
	assert.Equal(t, 1, result.Uploaded)
	assert.Equal(t, 1, remote.uploaded)
}

func TestHandleStatus(t *testing.T) {
	t.Run("enabled and reachable", func(t *testing.T) {
		h, _ := newSyncTestHandler(t, true, "tok", &stubRemote{connected: true})

		req := httptest.NewRequest(http.MethodGet, "/api/sync/status", nil)
		rec := httptest.NewRecorder()
		h.HandleStatus(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var status struct {
			Enabled   bool `json:"enabled"`
			Connected bool `json:"connected"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
		assert.True(t, status.Enabled)
		assert.True(t, status.Connected)
	})

	t.Run("disabled never probes", func(t *testing.T) {
		h, _ := newSyncTestHandler(t, false, "tok", &stubRemote{connected: true})

		req := httptest.NewRequest(http.MethodGet, "/api/sync/status", nil)
		rec := httptest.NewRecorder()
		h.HandleStatus(rec, req)

		var status struct {
			Enabled   bool `json:"enabled"`
			Connected bool `json:"connected"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
		assert.False(t, status.Enabled)
		assert.False(t, status.Connected)
	})
}
