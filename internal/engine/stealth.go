package engine

import (
	"context"
	"net/http"

	stealth "github.com/anatolykoptev/go-stealth"
)

// Browser-like headers and retry policy shared by page, caption and backend requests.
var DefaultRetryConfig = stealth.DefaultRetryConfig

func ChromeHeaders() map[string]string { return stealth.ChromeHeaders() }
func RandomUserAgent() string          { return stealth.RandomUserAgent() }
func IsRetryableStatus(code int) bool  { return stealth.IsRetryableStatus(code) }

// RetryBackend sends one backend API call with the default retry policy.
// Every call counts as a backend request; exhausted retries and transport errors count as errors.
func RetryBackend(ctx context.Context, fn func() (*http.Response, error)) (*http.Response, error) {
	metrics.BackendRequests.Add(1)
	resp, err := stealth.RetryHTTP(ctx, DefaultRetryConfig, fn)
	if err != nil {
		metrics.BackendErrors.Add(1)
	}
	return resp, err
}
