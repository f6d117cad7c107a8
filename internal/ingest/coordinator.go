// Package ingest decides, once per content item and login session, whether to harvest
// its captions and runs the register → fetch → upload sequence.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/anatolykoptev/go_moments/internal/auth"
	"github.com/anatolykoptev/go_moments/internal/backend"
	"github.com/anatolykoptev/go_moments/internal/captions"
	"github.com/anatolykoptev/go_moments/internal/engine"
	"github.com/anatolykoptev/go_moments/internal/identity"
	"github.com/anatolykoptev/go_moments/internal/session"
	"github.com/anatolykoptev/go_moments/internal/transcript"
)

// Backend is the part of the backend the coordinator needs.
type Backend interface {
	Register(ctx context.Context, token string, req backend.RegisterRequest) (backend.RegisterResponse, error)
	Upload(ctx context.Context, token string, req backend.UploadRequest) error
}

// TranscriptSource downloads and parses a caption track.
type TranscriptSource interface {
	Fetch(ctx context.Context, baseURL string) ([]transcript.Segment, transcript.Format, error)
}

// Request is one ingestion trigger.
type Request struct {
	Item     identity.ContentItem
	Track    *captions.Track // nil when the page offers no captions
	Details  captions.Details
	PageURL  string
	PageHost string
	// Source overrides the coordinator's transcript source, e.g. to carry page cookies.
	Source TranscriptSource
}

// Coordinator runs at most one ingestion per content id at a time.
type Coordinator struct {
	store   session.Store
	backend Backend
	source  TranscriptSource
	creds   auth.Provider

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewCoordinator wires the coordinator's collaborators.
func NewCoordinator(store session.Store, be Backend, source TranscriptSource, creds auth.Provider) *Coordinator {
	return &Coordinator{
		store:    store,
		backend:  be,
		source:   source,
		creds:    creds,
		inFlight: make(map[string]struct{}),
	}
}

// InFlight reports whether an ingestion for contentID is currently running.
func (c *Coordinator) InFlight(contentID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inFlight[contentID]
	return ok
}

func (c *Coordinator) acquire(contentID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.inFlight[contentID]; ok {
		return false
	}
	c.inFlight[contentID] = struct{}{}
	return true
}

func (c *Coordinator) release(contentID string) {
	c.mu.Lock()
	delete(c.inFlight, contentID)
	c.mu.Unlock()
}

// Trigger runs one ingestion attempt. It never panics and never returns an error;
// every failure is reported in the Result.
func (c *Coordinator) Trigger(ctx context.Context, req Request) (res Result) {
	id := req.Item.ID
	runID := uuid.NewString()
	log := slog.With(slog.String("content_id", id), slog.String("run_id", runID))

	defer func() {
		if p := recover(); p != nil {
			log.Error("ingest: panic", slog.Any("panic", p))
			res = failed(ReasonInternal, fmt.Errorf("panic: %v", p))
		}
		res.RunID = runID
		switch res.Outcome {
		case OutcomeSkipped:
			engine.IncrIngestSkipped()
		case OutcomeFailed:
			engine.IncrIngestFailure()
		}
		log.Debug("ingest: done", slog.String("outcome", string(res.Outcome)), slog.String("reason", string(res.Reason)))
	}()
	engine.IncrIngestTrigger()

	if id == "" {
		return failed(ReasonInternal, errors.New("empty content id"))
	}

	if res, done := c.settled(ctx, id); done {
		return res
	}
	if !c.acquire(id) {
		return skipped(ReasonInFlight)
	}
	defer c.release(id)

	// A run that held the slot may have finished since the first read.
	st, err := session.Snapshot(ctx, c.store, id)
	if err != nil {
		return failed(ReasonStoreFailed, err)
	}
	if res, done := settledState(st); done {
		return res
	}

	_ = engine.TrackOperation(ctx, "ingest", func(ctx context.Context) error {
		res = c.run(ctx, log, req, st.Meta)
		return res.Err
	})
	return res
}

// settled reports whether the session already decided contentID, without taking the slot.
func (c *Coordinator) settled(ctx context.Context, contentID string) (Result, bool) {
	st, err := session.Snapshot(ctx, c.store, contentID)
	if err != nil {
		return failed(ReasonStoreFailed, err), true
	}
	return settledState(st)
}

func settledState(st session.State) (Result, bool) {
	switch {
	case st.Fetched:
		return skipped(ReasonAlreadyFetchedSession), true
	case st.Backoff:
		return skipped(ReasonBackoff), true
	}
	return Result{}, false
}

func (c *Coordinator) run(ctx context.Context, log *slog.Logger, req Request, metaDone bool) Result {
	id := req.Item.ID

	token, err := c.creds.Token(ctx)
	if err != nil || token == "" {
		if err == nil {
			err = auth.ErrNotLoggedIn
		}
		return failed(ReasonNotLoggedIn, err)
	}

	if !metaDone {
		resp, err := c.backend.Register(ctx, token, registerRequest(req))
		if err != nil {
			log.Warn("ingest: register failed", slog.Any("error", err))
			return failed(ReasonRegisterFailed, err)
		}
		if err := c.store.Set(ctx, id, session.FlagMeta); err != nil {
			return failed(ReasonStoreFailed, err)
		}
		if resp.AlreadyFetched {
			if err := c.store.Set(ctx, id, session.FlagFetched); err != nil {
				return failed(ReasonStoreFailed, err)
			}
			return Result{Outcome: OutcomeDone, Reason: ReasonAlreadyFetchedBackend}
		}
	}

	if req.Track == nil || req.Track.BaseURL == "" {
		if err := c.store.Set(ctx, id, session.FlagFetched); err != nil {
			return failed(ReasonStoreFailed, err)
		}
		return failed(ReasonNoCaptionTrack, nil)
	}

	src := c.source
	if req.Source != nil {
		src = req.Source
	}
	segs, format, err := src.Fetch(ctx, req.Track.BaseURL)
	switch {
	case transcript.IsRateLimited(err):
		engine.IncrIngestBackoff()
		if serr := c.store.Set(ctx, id, session.FlagBackoff); serr != nil {
			return failed(ReasonStoreFailed, serr)
		}
		log.Warn("ingest: caption source rate limited, backing off for this session")
		return failed(ReasonRateLimited, err)
	case errors.Is(err, transcript.ErrNoSegments):
		return failed(ReasonEmptyTranscript, err)
	case err != nil:
		return failed(ReasonFetchFailed, err)
	case len(segs) == 0:
		return failed(ReasonEmptyTranscript, transcript.ErrNoSegments)
	}

	err = c.backend.Upload(ctx, token, backend.UploadRequest{
		ContentID: id,
		Language:  req.Track.LanguageCode,
		Format:    string(format),
		Segments:  segs,
	})
	if err != nil {
		log.Warn("ingest: upload failed", slog.Any("error", err))
		return failed(ReasonUploadFailed, err)
	}
	if err := c.store.Set(ctx, id, session.FlagFetched); err != nil {
		return failed(ReasonStoreFailed, err)
	}
	engine.IncrIngestUpload()
	log.Info("ingest: transcript uploaded", slog.Int("segments", len(segs)), slog.String("format", string(format)))
	return Result{Outcome: OutcomeDone, Reason: ReasonFetched, Format: string(format), Segments: len(segs)}
}

func registerRequest(req Request) backend.RegisterRequest {
	out := backend.RegisterRequest{
		ContentID:   req.Item.ID,
		PageURL:     req.PageURL,
		PageHost:    req.PageHost,
		Title:       optional(req.Details.Title),
		ChannelName: optional(req.Details.Author),
	}
	if req.Track != nil {
		out.CaptionBaseURL = optional(req.Track.BaseURL)
		out.CaptionLanguage = optional(req.Track.LanguageCode)
		out.CaptionIsAuto = req.Track.IsAutoGenerated()
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
