package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	IngestTriggers     atomic.Int64
	IngestSkipped      atomic.Int64
	IngestFailures     atomic.Int64
	IngestUploads      atomic.Int64
	IngestBackoffs     atomic.Int64
	CaptionRequests    atomic.Int64
	CaptionRateLimited atomic.Int64
	CaptionFallbacks   atomic.Int64
	PageFetches        atomic.Int64
	PageFetchErrors    atomic.Int64
	BackendRequests    atomic.Int64
	BackendErrors      atomic.Int64
	VotesSubmitted     atomic.Int64
	LLMCalls           atomic.Int64
	LLMErrors          atomic.Int64
}

var metricKeys = []string{
	"ingest_triggers", "ingest_skipped", "ingest_failures", "ingest_uploads", "ingest_backoffs",
	"caption_requests", "caption_rate_limited", "caption_fallbacks",
	"page_fetches", "page_fetch_errors",
	"backend_requests", "backend_errors",
	"votes_submitted",
	"llm_calls", "llm_errors",
	"cache_hits", "cache_misses",
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"ingest_triggers":      metrics.IngestTriggers.Load(),
		"ingest_skipped":       metrics.IngestSkipped.Load(),
		"ingest_failures":      metrics.IngestFailures.Load(),
		"ingest_uploads":       metrics.IngestUploads.Load(),
		"ingest_backoffs":      metrics.IngestBackoffs.Load(),
		"caption_requests":     metrics.CaptionRequests.Load(),
		"caption_rate_limited": metrics.CaptionRateLimited.Load(),
		"caption_fallbacks":    metrics.CaptionFallbacks.Load(),
		"page_fetches":         metrics.PageFetches.Load(),
		"page_fetch_errors":    metrics.PageFetchErrors.Load(),
		"backend_requests":     metrics.BackendRequests.Load(),
		"backend_errors":       metrics.BackendErrors.Load(),
		"votes_submitted":      metrics.VotesSubmitted.Load(),
		"llm_calls":            metrics.LLMCalls.Load(),
		"llm_errors":           metrics.LLMErrors.Load(),
		"cache_hits":           hits,
		"cache_misses":         misses,
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	for _, k := range metricKeys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for ingest/ sub-package.
func IncrIngestTrigger() { metrics.IngestTriggers.Add(1) }
func IncrIngestSkipped() { metrics.IngestSkipped.Add(1) }
func IncrIngestFailure() { metrics.IngestFailures.Add(1) }
func IncrIngestUpload()  { metrics.IngestUploads.Add(1) }
func IncrIngestBackoff() { metrics.IngestBackoffs.Add(1) }

// Incrementors for transcript/ sub-package.
func IncrCaptionRequest()     { metrics.CaptionRequests.Add(1) }
func IncrCaptionRateLimited() { metrics.CaptionRateLimited.Add(1) }
func IncrCaptionFallback()    { metrics.CaptionFallbacks.Add(1) }

// Incrementors for backend/ sub-package.
func IncrBackendError()  { metrics.BackendErrors.Add(1) }
func IncrVoteSubmitted() { metrics.VotesSubmitted.Add(1) }

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > 5*time.Second {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
