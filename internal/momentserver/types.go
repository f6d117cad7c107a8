package momentserver

import (
	"github.com/anatolykoptev/go_moments/internal/captions"
	"github.com/anatolykoptev/go_moments/internal/identity"
	"github.com/anatolykoptev/go_moments/internal/ingest"
	"github.com/anatolykoptev/go_moments/internal/session"
	"github.com/anatolykoptev/go_moments/internal/transcript"
)

type ContentIdentityOutput struct {
	ContentID string          `json:"content_id"`
	Scheme    identity.Scheme `json:"scheme"`
	VideoID   string          `json:"video_id,omitempty"`
	PageHost  string          `json:"page_host"`
}

type CaptionTracksOutput struct {
	ContentID string           `json:"content_id"`
	Details   captions.Details `json:"details"`
	Tracks    []captions.Track `json:"tracks"`
	Selected  *captions.Track  `json:"selected,omitempty"`
	Source    string           `json:"source,omitempty"`
}

type CaptionIngestOutput struct {
	ContentID string         `json:"content_id"`
	Outcome   ingest.Outcome `json:"outcome"`
	Reason    ingest.Reason  `json:"reason"`
	Message   string         `json:"message"`
	Retryable bool           `json:"retryable"`
	Format    string         `json:"format,omitempty"`
	Segments  int            `json:"segments,omitempty"`
	RunID     string         `json:"run_id,omitempty"`
}

type MomentVoteOutput struct {
	ContentID  string `json:"content_id"`
	Vote       string `json:"vote"`
	TimeBucket int    `json:"time_bucket"`
	Clock      string `json:"clock"`
	Ingest     string `json:"ingest"` // started, not_applicable, skipped:<reason>
}

type SnippetOut struct {
	Range    string               `json:"range"`
	Text     string               `json:"text"`
	Segments []transcript.Segment `json:"segments"`
}

type MomentItem struct {
	TimeBucket int         `json:"time_bucket"`
	Clock      string      `json:"clock"`
	Up         int         `json:"up"`
	Down       int         `json:"down"`
	WatchURL   string      `json:"watch_url"`
	Snippet    *SnippetOut `json:"snippet,omitempty"`
}

type MomentSummaryOutput struct {
	ContentID  string       `json:"content_id"`
	Moments    []MomentItem `json:"moments"`
	Summary    string       `json:"summary"`
	Transcript string       `json:"transcript,omitempty"` // loaded, missing, error
}

type MomentSnippetOutput struct {
	ContentID string               `json:"content_id"`
	WatchURL  string               `json:"watch_url"`
	Range     string               `json:"range"`
	Text      string               `json:"text"`
	Segments  []transcript.Segment `json:"segments"`
	Note      string               `json:"note,omitempty"`
}

type MomentExplainOutput struct {
	ContentID   string `json:"content_id"`
	WatchURL    string `json:"watch_url"`
	Range       string `json:"range"`
	Explanation string `json:"explanation"`
}

type AuthOutput struct {
	LoggedIn bool   `json:"logged_in"`
	Message  string `json:"message,omitempty"`
}

type SessionStatusOutput struct {
	LoggedIn  bool           `json:"logged_in"`
	ContentID string         `json:"content_id,omitempty"`
	Flags     *session.State `json:"flags,omitempty"`
	InFlight  bool           `json:"in_flight"`
}
