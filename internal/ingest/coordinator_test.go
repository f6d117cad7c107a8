package ingest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_moments/internal/auth"
	"github.com/anatolykoptev/go_moments/internal/backend"
	"github.com/anatolykoptev/go_moments/internal/captions"
	"github.com/anatolykoptev/go_moments/internal/identity"
	"github.com/anatolykoptev/go_moments/internal/session"
	"github.com/anatolykoptev/go_moments/internal/transcript"
)

type fakeBackend struct {
	mu          sync.Mutex
	registerErr error
	uploadErr   error
	already     bool
	registers   []backend.RegisterRequest
	uploads     []backend.UploadRequest
}

func (f *fakeBackend) Register(_ context.Context, _ string, req backend.RegisterRequest) (backend.RegisterResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registers = append(f.registers, req)
	if f.registerErr != nil {
		return backend.RegisterResponse{}, f.registerErr
	}
	return backend.RegisterResponse{AlreadyFetched: f.already}, nil
}

func (f *fakeBackend) Upload(_ context.Context, _ string, req backend.UploadRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, req)
	return f.uploadErr
}

type fakeSource struct {
	calls atomic.Int32
	segs  []transcript.Segment
	err   error
	gate  chan struct{} // when set, Fetch blocks until closed
	panic bool
}

func (f *fakeSource) Fetch(ctx context.Context, _ string) ([]transcript.Segment, transcript.Format, error) {
	f.calls.Add(1)
	if f.panic {
		panic("boom")
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, "", ctx.Err()
		}
	}
	return f.segs, transcript.FormatJSON3, f.err
}

var (
	ytItem  = identity.ContentItem{ID: "native:abc123", Scheme: identity.SchemeNative}
	ytTrack = &captions.Track{BaseURL: "https://www.youtube.com/api/timedtext?v=abc123&lang=en", LanguageCode: "en"}
	segs    = []transcript.Segment{{Start: 0, Duration: 2, Text: "hello"}, {Start: 2, Duration: 3, Text: "world"}}
)

func newTestCoordinator(be *fakeBackend, src *fakeSource) (*Coordinator, *session.MemoryStore) {
	store := session.NewMemoryStore()
	return NewCoordinator(store, be, src, auth.NewSession("tok")), store
}

func request() Request {
	return Request{
		Item:     ytItem,
		Track:    ytTrack,
		Details:  captions.Details{Title: "Talk", Author: "Chan"},
		PageURL:  "https://www.youtube.com/watch?v=abc123",
		PageHost: "www.youtube.com",
	}
}

func flags(t *testing.T, s session.Store) session.State {
	t.Helper()
	st, err := session.Snapshot(context.Background(), s, ytItem.ID)
	require.NoError(t, err)
	return st
}

func TestTriggerHappyPath(t *testing.T) {
	be := &fakeBackend{}
	src := &fakeSource{segs: segs}
	c, store := newTestCoordinator(be, src)

	res := c.Trigger(context.Background(), request())
	assert.Equal(t, OutcomeDone, res.Outcome)
	assert.Equal(t, ReasonFetched, res.Reason)
	assert.Equal(t, 2, res.Segments)
	assert.NotEmpty(t, res.RunID)

	require.Len(t, be.registers, 1)
	reg := be.registers[0]
	require.NotNil(t, reg.Title)
	assert.Equal(t, "Talk", *reg.Title)
	require.NotNil(t, reg.CaptionLanguage)
	assert.Equal(t, "en", *reg.CaptionLanguage)
	require.Len(t, be.uploads, 1)
	assert.Equal(t, segs, be.uploads[0].Segments)

	assert.Equal(t, session.State{Meta: true, Fetched: true}, flags(t, store))

	again := c.Trigger(context.Background(), request())
	assert.Equal(t, OutcomeSkipped, again.Outcome)
	assert.Equal(t, ReasonAlreadyFetchedSession, again.Reason)
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestTriggerAtMostOnceConcurrent(t *testing.T) {
	be := &fakeBackend{}
	src := &fakeSource{segs: segs, gate: make(chan struct{})}
	c, _ := newTestCoordinator(be, src)

	first := make(chan Result, 1)
	go func() { first <- c.Trigger(context.Background(), request()) }()
	require.Eventually(t, func() bool { return c.InFlight(ytItem.ID) }, time.Second, time.Millisecond)

	second := c.Trigger(context.Background(), request())
	assert.Equal(t, OutcomeSkipped, second.Outcome)
	assert.Equal(t, ReasonInFlight, second.Reason)

	close(src.gate)
	res := <-first
	assert.Equal(t, ReasonFetched, res.Reason)
	assert.Equal(t, int32(1), src.calls.Load())
	assert.False(t, c.InFlight(ytItem.ID))
}

// stallStore blocks the first backoff read until release is closed.
type stallStore struct {
	*session.MemoryStore
	once    sync.Once
	stalled chan struct{}
	release chan struct{}
}

func (s *stallStore) Get(ctx context.Context, contentID string, flag session.Flag) (bool, error) {
	if flag == session.FlagBackoff {
		first := false
		s.once.Do(func() { first = true })
		if first {
			close(s.stalled)
			<-s.release
		}
	}
	return s.MemoryStore.Get(ctx, contentID, flag)
}

func TestTriggerRereadsFlagsAfterAcquire(t *testing.T) {
	be := &fakeBackend{}
	src := &fakeSource{segs: segs}
	store := &stallStore{
		MemoryStore: session.NewMemoryStore(),
		stalled:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	c := NewCoordinator(store, be, src, auth.NewSession("tok"))

	late := make(chan Result, 1)
	go func() { late <- c.Trigger(context.Background(), request()) }()
	<-store.stalled

	res := c.Trigger(context.Background(), request())
	require.Equal(t, ReasonFetched, res.Reason)

	close(store.release)
	second := <-late
	assert.Equal(t, OutcomeSkipped, second.Outcome)
	assert.Equal(t, ReasonAlreadyFetchedSession, second.Reason)
	assert.Len(t, be.registers, 1)
	assert.Len(t, be.uploads, 1)
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestTriggerDistinctItemsRunConcurrently(t *testing.T) {
	be := &fakeBackend{}
	src := &fakeSource{segs: segs, gate: make(chan struct{})}
	c, _ := newTestCoordinator(be, src)

	other := request()
	other.Item = identity.ContentItem{ID: "native:zzz", Scheme: identity.SchemeNative}

	var wg sync.WaitGroup
	results := make([]Result, 2)
	for i, r := range []Request{request(), other} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = c.Trigger(context.Background(), r)
		}()
	}
	require.Eventually(t, func() bool { return src.calls.Load() == 2 }, time.Second, time.Millisecond)
	close(src.gate)
	wg.Wait()
	for _, r := range results {
		assert.Equal(t, ReasonFetched, r.Reason)
	}
}

func TestTriggerRateLimitedBacksOff(t *testing.T) {
	be := &fakeBackend{}
	src := &fakeSource{err: &transcript.FetchError{Format: transcript.FormatJSON3, Status: 429, Err: errors.New("Too Many Requests")}}
	c, store := newTestCoordinator(be, src)

	res := c.Trigger(context.Background(), request())
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, ReasonRateLimited, res.Reason)
	assert.False(t, res.Retryable())
	assert.True(t, flags(t, store).Backoff)

	src.err = nil
	src.segs = segs
	res = c.Trigger(context.Background(), request())
	assert.Equal(t, ReasonBackoff, res.Reason)
	assert.Equal(t, int32(1), src.calls.Load(), "no network after backoff")
	assert.Len(t, be.registers, 1)
}

func TestTriggerNoTrackMarksFetched(t *testing.T) {
	be := &fakeBackend{}
	src := &fakeSource{}
	c, store := newTestCoordinator(be, src)

	req := request()
	req.Track = nil
	res := c.Trigger(context.Background(), req)
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, ReasonNoCaptionTrack, res.Reason)
	assert.Equal(t, "failed: no caption track available", res.Message())
	assert.Equal(t, session.State{Meta: true, Fetched: true}, flags(t, store))
	assert.Zero(t, src.calls.Load())
	require.Len(t, be.registers, 1)
	assert.Nil(t, be.registers[0].CaptionBaseURL)
}

func TestTriggerRegisterFailureKeepsMetaUnset(t *testing.T) {
	be := &fakeBackend{registerErr: &backend.StatusError{Op: "register", Status: 500}}
	src := &fakeSource{segs: segs}
	c, store := newTestCoordinator(be, src)

	res := c.Trigger(context.Background(), request())
	assert.Equal(t, ReasonRegisterFailed, res.Reason)
	assert.True(t, res.Retryable())
	assert.Equal(t, session.State{}, flags(t, store))
	assert.Zero(t, src.calls.Load())

	be.registerErr = nil
	res = c.Trigger(context.Background(), request())
	assert.Equal(t, ReasonFetched, res.Reason)
	assert.Len(t, be.registers, 2)
}

func TestTriggerAlreadyFetchedOnBackend(t *testing.T) {
	be := &fakeBackend{already: true}
	src := &fakeSource{segs: segs}
	c, store := newTestCoordinator(be, src)

	res := c.Trigger(context.Background(), request())
	assert.Equal(t, OutcomeDone, res.Outcome)
	assert.Equal(t, ReasonAlreadyFetchedBackend, res.Reason)
	assert.Equal(t, session.State{Meta: true, Fetched: true}, flags(t, store))
	assert.Zero(t, src.calls.Load())
	assert.Empty(t, be.uploads)
}

func TestTriggerResumesAfterUploadFailure(t *testing.T) {
	be := &fakeBackend{uploadErr: errors.New("connection reset")}
	src := &fakeSource{segs: segs}
	c, store := newTestCoordinator(be, src)

	res := c.Trigger(context.Background(), request())
	assert.Equal(t, ReasonUploadFailed, res.Reason)
	assert.Equal(t, session.State{Meta: true}, flags(t, store))

	be.uploadErr = nil
	res = c.Trigger(context.Background(), request())
	assert.Equal(t, ReasonFetched, res.Reason)
	assert.Len(t, be.registers, 1, "meta already registered")
	assert.Len(t, be.uploads, 2)
}

func TestTriggerEmptyTranscript(t *testing.T) {
	be := &fakeBackend{}
	src := &fakeSource{err: &transcript.FetchError{Format: transcript.FormatJSON3, Status: 200, Err: transcript.ErrNoSegments}}
	c, store := newTestCoordinator(be, src)

	res := c.Trigger(context.Background(), request())
	assert.Equal(t, ReasonEmptyTranscript, res.Reason)
	assert.False(t, flags(t, store).Fetched)
	assert.Empty(t, be.uploads)
}

func TestTriggerFetchFailureIsRetryable(t *testing.T) {
	be := &fakeBackend{}
	src := &fakeSource{err: &transcript.FetchError{Format: transcript.FormatJSON3, Status: 403, Err: errors.New("Forbidden")}}
	c, store := newTestCoordinator(be, src)

	res := c.Trigger(context.Background(), request())
	assert.Equal(t, ReasonFetchFailed, res.Reason)
	assert.True(t, res.Retryable())
	assert.False(t, flags(t, store).Backoff)
}

func TestTriggerNotLoggedIn(t *testing.T) {
	be := &fakeBackend{}
	store := session.NewMemoryStore()
	c := NewCoordinator(store, be, &fakeSource{segs: segs}, auth.NewSession(""))

	res := c.Trigger(context.Background(), request())
	assert.Equal(t, ReasonNotLoggedIn, res.Reason)
	assert.ErrorIs(t, res.Err, auth.ErrNotLoggedIn)
	assert.Empty(t, be.registers)
	assert.Equal(t, session.State{}, flags(t, store))
}

func TestTriggerRecoversPanic(t *testing.T) {
	c, _ := newTestCoordinator(&fakeBackend{}, &fakeSource{panic: true})

	res := c.Trigger(context.Background(), request())
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, ReasonInternal, res.Reason)
	assert.False(t, c.InFlight(ytItem.ID), "in-flight mark released after panic")
}

func TestTriggerSourceOverride(t *testing.T) {
	be := &fakeBackend{}
	def := &fakeSource{err: errors.New("unused")}
	c, _ := newTestCoordinator(be, def)

	req := request()
	override := &fakeSource{segs: segs}
	req.Source = override
	res := c.Trigger(context.Background(), req)
	assert.Equal(t, ReasonFetched, res.Reason)
	assert.Zero(t, def.calls.Load())
	assert.Equal(t, int32(1), override.calls.Load())
}

func TestLogoutResetsSessionFlags(t *testing.T) {
	be := &fakeBackend{}
	store := session.NewMemoryStore()
	sess := auth.NewSession("tok", store)
	c := NewCoordinator(store, be, &fakeSource{segs: segs}, sess)

	require.Equal(t, ReasonFetched, c.Trigger(context.Background(), request()).Reason)
	require.NoError(t, sess.Logout(context.Background()))
	require.NoError(t, sess.Login("tok2"))

	res := c.Trigger(context.Background(), request())
	assert.Equal(t, ReasonFetched, res.Reason)
	assert.Len(t, be.uploads, 2)
}
