// Package sync drives one synchronization run between local storage and the
// remote gist host. The storage engine and the remote client never talk to
// each other — the orchestrator mediates.
//
// Conflict resolution is last-writer-wins on updatedAt with no three-way
// merge. This is a known simplification, kept deliberately: concurrent edits
// on both sides resolve to whichever side carries the strictly newer
// timestamp, and remote deletions are never propagated to local storage.
package sync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/snippetsync/snippetd/internal/model"
	"github.com/snippetsync/snippetd/internal/storage"
)

// Mode selects the sync strategy for a single run.
type Mode string

const (
	ModePush          Mode = "push"          // local → remote, best effort per snippet
	ModePull          Mode = "pull"          // remote → local, remote authoritative
	ModeBidirectional Mode = "bidirectional" // last-writer-wins merge
)

// Valid reports whether the mode is one of the three strategies.
func (m Mode) Valid() bool {
	return m == ModePush || m == ModePull || m == ModeBidirectional
}

// Remote is the slice of the gist client the orchestrator needs. It is an
// interface so tests can substitute an in-memory remote.
type Remote interface {
	TestConnection(ctx context.Context) bool
	Upload(ctx context.Context, snippet *model.Snippet) (string, error)
	FetchAll(ctx context.Context) ([]model.Snippet, error)
	Delete(ctx context.Context, gistID string) bool
}

// Result is the completion report for one run. Per-item failures are counted
// and logged, not enumerated — a large sync should finish with one aggregate
// message, not a dialog per bad snippet.
type Result struct {
	Mode       Mode `json:"mode"`
	Uploaded   int  `json:"uploaded"`
	Downloaded int  `json:"downloaded"`
	Failed     int  `json:"failed"`
}

// Orchestrator runs sync strategies against a storage handle and a remote.
// It resolves the store through the handle on every run so a backend swap
// between runs is picked up automatically.
type Orchestrator struct {
	handle *storage.Handle
	remote Remote
	logger *slog.Logger
}

// New creates an Orchestrator.
func New(handle *storage.Handle, remote Remote, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{handle: handle, remote: remote, logger: logger}
}

// Run executes one sync in the given mode. Failed runs are not retried
// automatically — the caller re-invokes when it wants another attempt.
func (o *Orchestrator) Run(ctx context.Context, mode Mode) (*Result, error) {
	switch mode {
	case ModePush:
		return o.push(ctx)
	case ModePull:
		return o.pull(ctx)
	case ModeBidirectional:
		return o.bidirectional(ctx)
	default:
		return nil, fmt.Errorf("sync: unknown mode %q", mode)
	}
}

// push uploads every local snippet. Per-snippet failures (upload or the
// follow-up save of a new gist id) are logged and skipped so one bad snippet
// can't block the batch.
func (o *Orchestrator) push(ctx context.Context) (*Result, error) {
	store := o.handle.Store()
	snippets, err := store.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{Mode: ModePush}
	for i := range snippets {
		snippet := &snippets[i]

		gistID, err := o.remote.Upload(ctx, snippet)
		if err != nil {
			o.logger.Warn("failed to upload snippet",
				slog.String("id", snippet.ID),
				slog.String("error", err.Error()),
			)
			result.Failed++
			continue
		}

		if snippet.GistID != gistID {
			snippet.GistID = gistID
			if err := store.Save(ctx, snippet); err != nil {
				o.logger.Warn("failed to persist gist id",
					slog.String("id", snippet.ID),
					slog.String("error", err.Error()),
				)
				result.Failed++
				continue
			}
		}
		result.Uploaded++
	}

	o.logger.Info("push completed",
		slog.Int("uploaded", result.Uploaded),
		slog.Int("failed", result.Failed),
	)
	return result, nil
}

// pull fetches every remote snippet and saves it locally unconditionally.
// The remote is authoritative on pull: a newer local edit sharing an id is
// overwritten. That is accepted behaviour, not a bug. Snippets absent from
// the remote listing are left alone — deletions don't propagate.
func (o *Orchestrator) pull(ctx context.Context) (*Result, error) {
	store := o.handle.Store()
	snippets, err := o.remote.FetchAll(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{Mode: ModePull}
	for i := range snippets {
		if err := store.Save(ctx, &snippets[i]); err != nil {
			return nil, err
		}
		result.Downloaded++
	}

	o.logger.Info("pull completed", slog.Int("downloaded", result.Downloaded))
	return result, nil
}

// bidirectional merges both collections by id with last-writer-wins.
//
// Remote pass: a remote snippet is saved locally when it has no local
// counterpart or when its updatedAt is strictly greater. Local pass: a local
// snippet is uploaded when it has no remote counterpart or when its
// updatedAt is strictly greater.
//
// Exactly equal timestamps therefore resolve to a no-op in both passes: the
// remote pass does not overwrite, and the local pass does not re-upload.
// That tie rule is intentional — do not "fix" it by widening either
// comparison.
func (o *Orchestrator) bidirectional(ctx context.Context) (*Result, error) {
	store := o.handle.Store()

	local, err := store.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	remote, err := o.remote.FetchAll(ctx)
	if err != nil {
		return nil, err
	}

	localByID := make(map[string]*model.Snippet, len(local))
	for i := range local {
		localByID[local[i].ID] = &local[i]
	}
	remoteByID := make(map[string]*model.Snippet, len(remote))
	for i := range remote {
		remoteByID[remote[i].ID] = &remote[i]
	}

	result := &Result{Mode: ModeBidirectional}

	for i := range remote {
		remoteSnippet := &remote[i]
		localSnippet, exists := localByID[remoteSnippet.ID]
		if !exists || remoteSnippet.UpdatedAt > localSnippet.UpdatedAt {
			if err := store.Save(ctx, remoteSnippet); err != nil {
				return nil, err
			}
			result.Downloaded++
		}
	}

	for i := range local {
		localSnippet := &local[i]
		remoteSnippet, exists := remoteByID[localSnippet.ID]
		if !exists || localSnippet.UpdatedAt > remoteSnippet.UpdatedAt {
			gistID, err := o.remote.Upload(ctx, localSnippet)
			if err != nil {
				return nil, err
			}
			if localSnippet.GistID != gistID {
				localSnippet.GistID = gistID
				if err := store.Save(ctx, localSnippet); err != nil {
					return nil, err
				}
			}
			result.Uploaded++
		}
	}

	o.logger.Info("bidirectional sync completed",
		slog.Int("uploaded", result.Uploaded),
		slog.Int("downloaded", result.Downloaded),
	)
	return result, nil
}
