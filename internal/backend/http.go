package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/anatolykoptev/go_moments/internal/engine"
)

const maxResponseBytes = 4 * 1024 * 1024

// HTTPClient calls the moments backend REST API.
type HTTPClient struct {
	base string
	hc   *http.Client
}

// NewHTTPClient returns a client rooted at baseURL. A nil hc falls back to engine.Cfg.HTTPClient.
func NewHTTPClient(baseURL string, hc *http.Client) *HTTPClient {
	if hc == nil {
		hc = engine.Cfg.HTTPClient
	}
	return &HTTPClient{base: strings.TrimRight(baseURL, "/"), hc: hc}
}

func (c *HTTPClient) Register(ctx context.Context, token string, req RegisterRequest) (RegisterResponse, error) {
	var out RegisterResponse
	err := c.do(ctx, "register", http.MethodPost, "/api/youtube/register", token, req, &out)
	return out, err
}

func (c *HTTPClient) Upload(ctx context.Context, token string, req UploadRequest) error {
	return c.do(ctx, "upload", http.MethodPost, "/api/youtube/transcript", token, req, nil)
}

func (c *HTTPClient) Vote(ctx context.Context, token string, req VoteRequest) error {
	if !req.Vote.Valid() {
		return fmt.Errorf("vote: invalid vote type %q", req.Vote)
	}
	if err := c.do(ctx, "vote", http.MethodPost, "/api/vote", token, req, nil); err != nil {
		return err
	}
	engine.IncrVoteSubmitted()
	return nil
}

func (c *HTTPClient) Summary(ctx context.Context, token, contentID string, limit int) (Summary, error) {
	path := "/api/content/" + url.PathEscape(contentID) + "/summary?limit=" + strconv.Itoa(normLimit(limit))
	var out Summary
	if err := c.do(ctx, "summary", http.MethodGet, path, token, nil, &out); err != nil {
		return Summary{}, err
	}
	if out.ContentID == "" {
		out.ContentID = contentID
	}
	return out, nil
}

func (c *HTTPClient) Transcript(ctx context.Context, token, contentID string) (StoredTranscript, error) {
	path := "/api/content/" + url.PathEscape(contentID) + "/transcript"
	var out StoredTranscript
	err := c.do(ctx, "transcript", http.MethodGet, path, token, nil, &out)
	if StatusOf(err) == http.StatusNotFound {
		return StoredTranscript{}, fmt.Errorf("transcript %s: %w", contentID, ErrNotFound)
	}
	if err != nil {
		return StoredTranscript{}, err
	}
	if out.ContentID == "" {
		out.ContentID = contentID
	}
	return out, nil
}

// do sends one JSON request with retry on transient statuses and decodes a 2xx body into out.
func (c *HTTPClient) do(ctx context.Context, op, method, path, token string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("%s: encode: %w", op, err)
		}
	}

	resp, err := engine.RetryBackend(ctx, func() (*http.Response, error) {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", engine.UserAgentBot)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		return c.hc.Do(req)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		engine.IncrBackendError()
		return fmt.Errorf("%s: read body: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		engine.IncrBackendError()
		slog.Debug("backend: non-2xx", slog.String("op", op), slog.Int("status", resp.StatusCode))
		return &StatusError{Op: op, Status: resp.StatusCode, Body: engine.TruncateRunes(strings.TrimSpace(string(data)), 200, "...")}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode: %w", op, err)
	}
	return nil
}
