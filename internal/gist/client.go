// Package gist maps snippets to and from GitHub gist containers.
//
// Each synced snippet is one private gist holding exactly two files: the code
// under "<title>.<ext>" and a "metadata.json" carrying every snippet field
// except the code. Gists without a metadata.json are not ours and are ignored
// when fetching.
package gist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/snippetsync/snippetd/internal/apperror"
	"github.com/snippetsync/snippetd/internal/model"
)

const (
	defaultBaseURL = "https://api.github.com"
	metadataFile   = "metadata.json"
	userAgent      = "snippetd"

	// pageSize is the gist listing page size; listing stops at the first
	// empty page.
	pageSize = 100
)

// Client talks to a gist-style remote host with a bearer credential.
// BaseURL and HTTPClient are exported so tests can point the client at a
// local httptest server.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	logger     *slog.Logger
}

// NewClient builds a client whose transport injects the bearer token on
// every request, via the oauth2 static token source.
func NewClient(token string, logger *slog.Logger) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &Client{
		BaseURL:    defaultBaseURL,
		HTTPClient: oauth2.NewClient(context.Background(), src),
		logger:     logger,
	}
}

// Wire types for the subset of the gist API we touch. The list endpoint
// returns file stubs with raw_url but no content; content is fetched
// per file from raw_url.
type gistFile struct {
	Content string `json:"content,omitempty"`
	RawURL  string `json:"raw_url,omitempty"`
}

type gistRecord struct {
	ID          string              `json:"id"`
	Description string              `json:"description"`
	Files       map[string]gistFile `json:"files"`
}

type gistPayload struct {
	Description string              `json:"description"`
	Public      bool                `json:"public"`
	Files       map[string]gistFile `json:"files"`
}

// metadata is the metadata.json schema: every Snippet field except the code.
type metadata struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	Language       string   `json:"language"`
	Tags           []string `json:"tags"`
	ProjectContext string   `json:"projectContext"`
	CreatedAt      int64    `json:"createdAt"`
	UpdatedAt      int64    `json:"updatedAt"`
}

// do issues one API request with the standard headers. The bearer token is
// added by the oauth2 transport.
func (c *Client) do(ctx context.Context, method, url string, body any) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("gist: encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("gist: building request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", userAgent)
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.HTTPClient.Do(req)
}

// TestConnection validates the credential against the identity endpoint.
// Auth failures are a false result, never an error.
func (c *Client) TestConnection(ctx context.Context) bool {
	resp, err := c.do(ctx, http.MethodGet, c.BaseURL+"/user", nil)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

// Upload pushes one snippet to the remote: PATCH of the existing container
// when the snippet already has a gist id, POST of a new private container
// otherwise. Returns the container id addressing the snippet remotely.
func (c *Client) Upload(ctx context.Context, snippet *model.Snippet) (string, error) {
	meta, err := json.MarshalIndent(metadata{
		ID:             snippet.ID,
		Title:          snippet.Title,
		Description:    snippet.Description,
		Language:       snippet.Language,
		Tags:           snippet.Tags,
		ProjectContext: snippet.ProjectContext,
		CreatedAt:      snippet.CreatedAt,
		UpdatedAt:      snippet.UpdatedAt,
	}, "", "  ")
	if err != nil {
		return "", apperror.SyncFailed("upload", err)
	}

	codeFile := fmt.Sprintf("%s.%s", snippet.Title, ExtensionFor(snippet.Language))
	payload := gistPayload{
		Description: fmt.Sprintf("SnippetSync: %s", snippet.Title),
		Public:      false,
		Files: map[string]gistFile{
			codeFile:     {Content: snippet.Code},
			metadataFile: {Content: string(meta)},
		},
	}

	if snippet.GistID != "" {
		resp, err := c.do(ctx, http.MethodPatch, c.BaseURL+"/gists/"+snippet.GistID, payload)
		if err != nil {
			return "", apperror.SyncFailed("upload", err)
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)
		if resp.StatusCode != http.StatusOK {
			return "", apperror.SyncFailed("upload",
				fmt.Errorf("updating gist %s: status %d", snippet.GistID, resp.StatusCode))
		}
		return snippet.GistID, nil
	}

	resp, err := c.do(ctx, http.MethodPost, c.BaseURL+"/gists", payload)
	if err != nil {
		return "", apperror.SyncFailed("upload", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", apperror.SyncFailed("upload",
			fmt.Errorf("creating gist: status %d", resp.StatusCode))
	}

	var created gistRecord
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", apperror.SyncFailed("upload", err)
	}
	return created.ID, nil
}

// FetchAll pages through the remote listing and reconstructs a snippet from
// every container that carries a metadata file. A failure on one container
// is logged and skipped — partial success is fine for this operation — but a
// failed listing request aborts the whole fetch.
func (c *Client) FetchAll(ctx context.Context) ([]model.Snippet, error) {
	snippets := []model.Snippet{}

	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/gists?per_page=%d&page=%d", c.BaseURL, pageSize, page)
		resp, err := c.do(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, apperror.SyncFailed("fetch", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, apperror.SyncFailed("fetch",
				fmt.Errorf("listing gists page %d: status %d", page, resp.StatusCode))
		}

		var records []gistRecord
		err = json.NewDecoder(resp.Body).Decode(&records)
		resp.Body.Close()
		if err != nil {
			return nil, apperror.SyncFailed("fetch", err)
		}
		if len(records) == 0 {
			break
		}

		for _, record := range records {
			snippet, err := c.fetchSnippet(ctx, record)
			if err != nil {
				c.logger.Warn("skipping gist",
					slog.String("gist", record.ID),
					slog.String("error", err.Error()),
				)
				continue
			}
			if snippet != nil {
				snippets = append(snippets, *snippet)
			}
		}
	}

	return snippets, nil
}

// fetchSnippet reconstructs one snippet from a listed container. Returns
// (nil, nil) for containers that are not snippets (no metadata file).
func (c *Client) fetchSnippet(ctx context.Context, record gistRecord) (*model.Snippet, error) {
	metaStub, ok := record.Files[metadataFile]
	if !ok {
		return nil, nil
	}

	raw, err := c.fetchRaw(ctx, metaStub.RawURL)
	if err != nil {
		return nil, fmt.Errorf("fetching metadata: %w", err)
	}
	var meta metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("decoding metadata: %w", err)
	}

	var codeName string
	for name := range record.Files {
		if name != metadataFile {
			codeName = name
			break
		}
	}
	if codeName == "" {
		return nil, fmt.Errorf("gist has no code file")
	}

	code, err := c.fetchRaw(ctx, record.Files[codeName].RawURL)
	if err != nil {
		return nil, fmt.Errorf("fetching code: %w", err)
	}

	return &model.Snippet{
		ID:             meta.ID,
		Title:          meta.Title,
		Code:           string(code),
		Description:    meta.Description,
		Language:       meta.Language,
		Tags:           meta.Tags,
		ProjectContext: meta.ProjectContext,
		CreatedAt:      meta.CreatedAt,
		UpdatedAt:      meta.UpdatedAt,
		GistID:         record.ID,
	}, nil
}

// fetchRaw downloads one file's content from its raw URL.
func (c *Client) fetchRaw(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("status %d from %s", resp.StatusCode, url)
	}
	return io.ReadAll(resp.Body)
}

// Delete removes the remote container, best effort: any failure is logged
// and reported as false, never raised.
func (c *Client) Delete(ctx context.Context, gistID string) bool {
	resp, err := c.do(ctx, http.MethodDelete, c.BaseURL+"/gists/"+gistID, nil)
	if err != nil {
		c.logger.Warn("deleting gist", slog.String("gist", gistID), slog.String("error", err.Error()))
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		c.logger.Warn("deleting gist",
			slog.String("gist", gistID),
			slog.Int("status", resp.StatusCode),
		)
		return false
	}
	return true
}
