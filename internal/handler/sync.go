package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/snippetsync/snippetd/internal/gist"
	"github.com/snippetsync/snippetd/internal/storage"
	syncer "github.com/snippetsync/snippetd/internal/sync"
)

// SyncHandler runs sync operations against the configured gist remote.
type SyncHandler struct {
	handle  *storage.Handle
	enabled bool
	token   string
	logger  *slog.Logger

	// newRemote builds the remote client for a run. Tests swap this for an
	// in-memory fake.
	newRemote func(token string, logger *slog.Logger) syncer.Remote
}

// NewSyncHandler creates a SyncHandler. enabled and token come straight from
// the daemon configuration.
func NewSyncHandler(h *storage.Handle, enabled bool, token string, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{
		handle:  h,
		enabled: enabled,
		token:   token,
		logger:  logger,
		newRemote: func(token string, logger *slog.Logger) syncer.Remote {
			return gist.NewClient(token, logger)
		},
	}
}

// HandleStatus reports whether sync is configured and whether the remote is
// reachable right now. Reachability is only probed when a token is present.
//
// HTTP: GET /api/sync/status
func (h *SyncHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	status := struct {
		Enabled   bool `json:"enabled"`
		Connected bool `json:"connected"`
	}{Enabled: h.enabled}

	if h.enabled && h.token != "" {
		remote := h.newRemote(h.token, h.logger)
		status.Connected = remote.TestConnection(r.Context())
	}
	writeJSON(w, http.StatusOK, status)
}

// HandleSync executes one sync run in the requested mode.
//
// HTTP: POST /api/sync
// Body: {"mode": "push" | "pull" | "bidirectional"}
//
// The connection is verified before any data moves so a bad token fails the
// whole run up front rather than halfway through a push.
func (h *SyncHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "invalid_json", Message: "Invalid JSON body",
		})
		return
	}

	mode := syncer.Mode(in.Mode)
	if !mode.Valid() {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "validation_error", Message: "mode must be \"push\", \"pull\", or \"bidirectional\"",
		})
		return
	}

	if !h.enabled {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "sync_disabled", Message: "Sync is disabled in the daemon configuration",
		})
		return
	}
	if h.token == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "sync_unconfigured", Message: "No access token configured for sync",
		})
		return
	}

	remote := h.newRemote(h.token, h.logger)
	if !remote.TestConnection(r.Context()) {
		writeJSON(w, http.StatusBadGateway, ErrorResponse{
			Error: "sync_failed", Message: "Could not reach the gist host; check the token",
		})
		return
	}

	result, err := syncer.New(h.handle, remote, h.logger).Run(r.Context(), mode)
	if err != nil {
		h.logger.Error("sync run failed",
			slog.String("mode", in.Mode),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
