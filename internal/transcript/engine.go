package transcript

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/anatolykoptev/go_moments/internal/engine"
)

// Format selects the wire representation requested from the caption source.
type Format string

const (
	FormatJSON3 Format = "json3" // structured events
	FormatVTT   Format = "vtt"   // subtitle cue text
)

// ErrNoSegments means the source answered but nothing survived parsing.
var ErrNoSegments = errors.New("no transcript segments")

// Fetcher performs a GET in the viewer's context (cookies, origin).
// Non-2xx responses are reported through status with a nil error.
type Fetcher interface {
	Get(ctx context.Context, rawURL string) (status int, body []byte, err error)
}

// FetchError is one failed format attempt.
type FetchError struct {
	Format Format
	Status int // HTTP status, 0 when the request never completed
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: HTTP %d: %v", e.Format, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Format, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsRateLimitStatus reports whether code means the caption source is throttling us.
func IsRateLimitStatus(code int) bool {
	return code == http.StatusTooManyRequests
}

// IsRateLimited reports whether err carries a rate-limit status.
func IsRateLimited(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && IsRateLimitStatus(fe.Status)
}

// Engine fetches a caption track trying json3 first and vtt second.
// Each format is requested exactly once per Fetch; there are no retries.
type Engine struct {
	fetcher Fetcher
}

// NewEngine creates an engine over f.
func NewEngine(f Fetcher) *Engine {
	return &Engine{fetcher: f}
}

// Fetch returns the first non-empty segment list and the format it came from.
// When both formats fail, a rate-limit failure from either attempt is preferred,
// otherwise the json3 failure is returned.
func (e *Engine) Fetch(ctx context.Context, baseURL string) ([]Segment, Format, error) {
	segs, errA := e.attempt(ctx, baseURL, FormatJSON3)
	if errA == nil {
		return segs, FormatJSON3, nil
	}
	engine.IncrCaptionFallback()
	slog.Debug("transcript: json3 failed, trying vtt", slog.Any("error", errA))

	segs, errB := e.attempt(ctx, baseURL, FormatVTT)
	if errB == nil {
		return segs, FormatVTT, nil
	}

	switch {
	case IsRateLimited(errA):
		return nil, "", errA
	case IsRateLimited(errB):
		return nil, "", errB
	default:
		return nil, "", errA
	}
}

func (e *Engine) attempt(ctx context.Context, baseURL string, f Format) ([]Segment, error) {
	engine.IncrCaptionRequest()
	status, body, err := e.fetcher.Get(ctx, WithFormat(baseURL, f))
	if err != nil {
		return nil, &FetchError{Format: f, Err: err}
	}
	if status < 200 || status > 299 {
		if IsRateLimitStatus(status) {
			engine.IncrCaptionRateLimited()
		}
		return nil, &FetchError{Format: f, Status: status, Err: errors.New(http.StatusText(status))}
	}

	var segs []Segment
	switch f {
	case FormatJSON3:
		segs, err = ParseJSON3(body)
		if err != nil {
			return nil, &FetchError{Format: f, Status: status, Err: err}
		}
	case FormatVTT:
		segs = ParseVTT(string(body))
	}
	if len(segs) == 0 {
		return nil, &FetchError{Format: f, Status: status, Err: ErrNoSegments}
	}
	return segs, nil
}

// WithFormat sets the fmt query parameter on a caption base URL.
func WithFormat(baseURL string, f Format) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		sep := "?"
		if strings.Contains(baseURL, "?") {
			sep = "&"
		}
		return baseURL + sep + "fmt=" + string(f)
	}
	q := u.Query()
	q.Set("fmt", string(f))
	u.RawQuery = q.Encode()
	return u.String()
}
