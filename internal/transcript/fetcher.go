package transcript

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/anatolykoptev/go_moments/internal/engine"
)

const maxCaptionBytes = 4 * 1024 * 1024

// HTTPFetcher is a Fetcher backed by net/http.
// Requests are paced by a token bucket so bursts of triggers do not hammer the source.
type HTTPFetcher struct {
	client  *http.Client
	cookie  string
	limiter *rate.Limiter
}

// NewHTTPFetcher builds a fetcher. rps <= 0 disables pacing. cookie is sent verbatim.
func NewHTTPFetcher(client *http.Client, cookie string, rps float64, burst int) *HTTPFetcher {
	if client == nil {
		client = engine.Cfg.HTTPClient
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), max(1, burst))
	}
	return &HTTPFetcher{client: client, cookie: cookie, limiter: limiter}
}

// WithCookie returns a copy that sends cookie, sharing the client and limiter.
func (f *HTTPFetcher) WithCookie(cookie string) *HTTPFetcher {
	cp := *f
	cp.cookie = cookie
	return &cp
}

// Get implements Fetcher.
func (f *HTTPFetcher) Get(ctx context.Context, rawURL string) (int, []byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return 0, nil, fmt.Errorf("pace caption request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("User-Agent", engine.RandomUserAgent())
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	if f.cookie != "" {
		req.Header.Set("Cookie", f.cookie)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCaptionBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read caption body: %w", err)
	}
	return resp.StatusCode, body, nil
}
