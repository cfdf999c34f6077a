package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/snippetsync/snippetd/internal/storage"
)

// StorageHandler exposes the active backend configuration and the switch
// endpoint. Switching never migrates data: each backend keeps its own file,
// and whatever the new one holds is what the API serves afterwards.
type StorageHandler struct {
	handle *storage.Handle
	logger *slog.Logger
}

// NewStorageHandler creates a StorageHandler.
func NewStorageHandler(h *storage.Handle, logger *slog.Logger) *StorageHandler {
	return &StorageHandler{handle: h, logger: logger}
}

// storageConfigResponse mirrors storage.Config on the wire.
type storageConfigResponse struct {
	Kind storage.Kind `json:"kind"`
	Path string       `json:"path"`
}

// HandleGet returns the active backend configuration.
//
// HTTP: GET /api/storage
func (h *StorageHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	cfg := h.handle.Config()
	writeJSON(w, http.StatusOK, storageConfigResponse{Kind: cfg.Kind, Path: cfg.Path})
}

// HandleUpdate switches the daemon to a different backend.
//
// HTTP: PUT /api/storage
// Body: {"kind": "document" | "relational", "path": "..."}
func (h *StorageHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Kind string `json:"kind"`
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "invalid_json", Message: "Invalid JSON body",
		})
		return
	}

	kind := storage.Kind(strings.TrimSpace(in.Kind))
	if !kind.Valid() {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "validation_error", Message: "kind must be \"document\" or \"relational\"",
		})
		return
	}
	if strings.TrimSpace(in.Path) == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "validation_error", Message: "path is required",
		})
		return
	}

	cfg := storage.Config{Kind: kind, Path: in.Path}
	if err := h.handle.Reconfigure(cfg); err != nil {
		h.logger.Error("storage reconfiguration failed",
			slog.String("kind", string(kind)),
			slog.String("path", in.Path),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	h.logger.Info("storage backend switched",
		slog.String("kind", string(kind)),
		slog.String("path", in.Path),
	)
	writeJSON(w, http.StatusOK, storageConfigResponse{Kind: kind, Path: in.Path})
}
