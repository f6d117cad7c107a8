package ingest

import "fmt"

// Outcome is the coarse result of one trigger.
type Outcome string

const (
	OutcomeDone    Outcome = "done"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Reason explains an Outcome.
type Reason string

const (
	ReasonFetched               Reason = "fetched"
	ReasonAlreadyFetchedSession Reason = "already_fetched_session"
	ReasonAlreadyFetchedBackend Reason = "already_fetched_backend"
	ReasonBackoff               Reason = "backoff"
	ReasonInFlight              Reason = "in_flight"
	ReasonNotLoggedIn           Reason = "not_logged_in"
	ReasonRegisterFailed        Reason = "register_failed"
	ReasonNoCaptionTrack        Reason = "no_caption_track"
	ReasonRateLimited           Reason = "rate_limited"
	ReasonFetchFailed           Reason = "fetch_failed"
	ReasonEmptyTranscript       Reason = "empty_transcript"
	ReasonUploadFailed          Reason = "upload_failed"
	ReasonStoreFailed           Reason = "store_failed"
	ReasonInternal              Reason = "internal_error"
)

var reasonText = map[Reason]string{
	ReasonNotLoggedIn:     "not logged in",
	ReasonNoCaptionTrack:  "no caption track available",
	ReasonRateLimited:     "rate limited",
	ReasonEmptyTranscript: "empty transcript",
}

// Result is what Trigger reports back to its caller.
type Result struct {
	RunID    string  `json:"runId,omitempty"`
	Outcome  Outcome `json:"outcome"`
	Reason   Reason  `json:"reason"`
	Format   string  `json:"format,omitempty"`
	Segments int     `json:"segments,omitempty"`
	Err      error   `json:"-"`
}

// Message is a human-readable summary of the result.
func (r Result) Message() string {
	text, ok := reasonText[r.Reason]
	if !ok {
		text = string(r.Reason)
	}
	if r.Err != nil {
		return fmt.Sprintf("%s: %s: %v", r.Outcome, text, r.Err)
	}
	return fmt.Sprintf("%s: %s", r.Outcome, text)
}

// Retryable reports whether a later trigger for the same content may succeed.
func (r Result) Retryable() bool {
	if r.Outcome != OutcomeFailed {
		return false
	}
	switch r.Reason {
	case ReasonNoCaptionTrack, ReasonRateLimited:
		return false
	}
	return true
}

func skipped(reason Reason) Result { return Result{Outcome: OutcomeSkipped, Reason: reason} }

func failed(reason Reason, err error) Result {
	return Result{Outcome: OutcomeFailed, Reason: reason, Err: err}
}
