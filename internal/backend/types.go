// Package backend talks to the moments backend: metadata registration, transcript
// upload, votes and per-moment summaries.
package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/anatolykoptev/go_moments/internal/transcript"
)

// VoteType is the direction of a moment vote.
type VoteType string

const (
	VoteUp   VoteType = "UP"
	VoteDown VoteType = "DOWN"
)

// Valid reports whether v is UP or DOWN.
func (v VoteType) Valid() bool { return v == VoteUp || v == VoteDown }

// RegisterRequest announces a video and its caption track before transcript upload.
type RegisterRequest struct {
	ContentID       string  `json:"contentId"`
	CaptionBaseURL  *string `json:"captionBaseUrl"`
	CaptionLanguage *string `json:"captionLanguage"`
	CaptionIsAuto   bool    `json:"captionIsAuto"`
	Title           *string `json:"title"`
	ChannelName     *string `json:"channelName"`
	PageURL         string  `json:"pageUrl"`
	PageHost        string  `json:"pageHost"`
}

// RegisterResponse tells whether the backend already stores a transcript.
type RegisterResponse struct {
	AlreadyFetched bool   `json:"alreadyFetched"`
	Language       string `json:"language,omitempty"`
}

// UploadRequest carries parsed transcript segments.
type UploadRequest struct {
	ContentID string               `json:"contentId"`
	Language  string               `json:"language,omitempty"`
	Format    string               `json:"format,omitempty"`
	Segments  []transcript.Segment `json:"segments"`
}

// VoteRequest records one vote at a point in the video.
type VoteRequest struct {
	ContentID   string   `json:"contentId"`
	PageURL     string   `json:"pageUrl"`
	PageHost    string   `json:"pageHost"`
	TimeSeconds float64  `json:"timeSeconds"`
	Vote        VoteType `json:"vote"`
}

// Bucket aggregates votes for one time bucket.
type Bucket struct {
	TimeBucket int `json:"timeBucket"`
	Up         int `json:"up"`
	Down       int `json:"down"`
}

// Summary lists the most upvoted buckets of a content item.
type Summary struct {
	ContentID string   `json:"contentId"`
	TopUp     []Bucket `json:"topUp"`
}

// StoredTranscript is the transcript the backend holds for a content item.
type StoredTranscript struct {
	ContentID string               `json:"contentId"`
	Language  string               `json:"language,omitempty"`
	Segments  []transcript.Segment `json:"segments"`
}

// Client is the full backend surface.
type Client interface {
	Register(ctx context.Context, token string, req RegisterRequest) (RegisterResponse, error)
	Upload(ctx context.Context, token string, req UploadRequest) error
	Vote(ctx context.Context, token string, req VoteRequest) error
	Summary(ctx context.Context, token, contentID string, limit int) (Summary, error)
	Transcript(ctx context.Context, token, contentID string) (StoredTranscript, error)
}

// ErrNotFound is returned when the backend has nothing for a content id.
var ErrNotFound = errors.New("not found")

// StatusError is a non-2xx backend answer.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.Status, e.Body)
	}
	return fmt.Sprintf("%s: HTTP %d", e.Op, e.Status)
}

// StatusOf extracts the HTTP status from err, 0 when there is none.
func StatusOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}

// bucketSeconds is the width of a vote time bucket.
const bucketSeconds = 5

// BucketOf maps a playback position to its bucket start.
func BucketOf(timeSeconds float64) int {
	if timeSeconds < 0 {
		return 0
	}
	s := int(timeSeconds)
	return s - s%bucketSeconds
}

// DefaultSummaryLimit is used when a caller passes limit <= 0.
const DefaultSummaryLimit = 10

func normLimit(limit int) int {
	if limit <= 0 {
		return DefaultSummaryLimit
	}
	return min(limit, 100)
}
