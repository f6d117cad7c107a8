package momentserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_moments/internal/backend"
	"github.com/anatolykoptev/go_moments/internal/engine"
	"github.com/anatolykoptev/go_moments/internal/moments"
	"github.com/anatolykoptev/go_moments/internal/toolutil"
	"github.com/anatolykoptev/go_moments/internal/transcript"
)

const backgroundIngestTimeout = 2 * time.Minute

func (s *Server) registerMomentVote(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "moment_vote",
		Description: "Vote a moment of a video UP or DOWN at a playback position. Requires login. On YouTube a successful vote also starts caption harvesting in the background (once per video per session).",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input engine.MomentVoteInput) (*mcp.CallToolResult, MomentVoteOutput, error) {
		out, err := s.vote(ctx, input)
		return nil, out, err
	})
}

func (s *Server) vote(ctx context.Context, input engine.MomentVoteInput) (MomentVoteOutput, error) {
	tgt, err := toolutil.Resolve(input.Ref())
	if err != nil {
		return MomentVoteOutput{}, err
	}
	vote := backend.VoteType(strings.ToUpper(strings.TrimSpace(input.Vote)))
	if !vote.Valid() {
		return MomentVoteOutput{}, fmt.Errorf("vote must be UP or DOWN, got %q", input.Vote)
	}
	if input.TimeSeconds < 0 {
		return MomentVoteOutput{}, errors.New("time_seconds must be >= 0")
	}
	token, err := s.d.Session.Token(ctx)
	if err != nil {
		return MomentVoteOutput{}, err
	}

	err = s.d.Backend.Vote(ctx, token, backend.VoteRequest{
		ContentID:   tgt.Item.ID,
		PageURL:     tgt.PageURL,
		PageHost:    tgt.PageHost,
		TimeSeconds: input.TimeSeconds,
		Vote:        vote,
	})
	if err != nil {
		return MomentVoteOutput{}, fmt.Errorf("vote: %w", err)
	}

	bucket := backend.BucketOf(input.TimeSeconds)
	out := MomentVoteOutput{
		ContentID:  tgt.Item.ID,
		Vote:       string(vote),
		TimeBucket: bucket,
		Clock:      moments.FormatClock(input.TimeSeconds),
		Ingest:     "not_applicable",
	}
	if !tgt.Item.IsNative() {
		return out, nil
	}
	if _, ok := s.settled(ctx, tgt.Item.ID); ok {
		out.Ingest = "skipped"
		return out, nil
	}

	out.Ingest = "started"
	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), backgroundIngestTimeout)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		res := s.ingest(bg, tgt, toolutil.PageInput{URL: tgt.PageURL, Cookie: input.Cookie}, "")
		slog.Info("moment_vote: ingest finished",
			slog.String("content_id", tgt.Item.ID),
			slog.String("outcome", string(res.Outcome)),
			slog.String("reason", string(res.Reason)))
	}()
	return out, nil
}

func (s *Server) registerMomentSummary(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "moment_summary",
		Description: "Top voted moments of a video: per 5-second bucket up/down counts with a watch link at that time. With snippets=true each moment carries the stored transcript lines within ±window seconds.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input engine.MomentSummaryInput) (*mcp.CallToolResult, MomentSummaryOutput, error) {
		out, err := s.summary(ctx, input)
		return nil, out, err
	})
}

func (s *Server) summary(ctx context.Context, input engine.MomentSummaryInput) (MomentSummaryOutput, error) {
	tgt, err := toolutil.Resolve(input.Ref())
	if err != nil {
		return MomentSummaryOutput{}, err
	}
	token := s.optionalToken(ctx)

	sum, err := s.d.Backend.Summary(ctx, token, tgt.Item.ID, input.Limit)
	if err != nil {
		return MomentSummaryOutput{}, fmt.Errorf("summary: %w", err)
	}

	out := MomentSummaryOutput{ContentID: tgt.Item.ID, Moments: make([]MomentItem, 0, len(sum.TopUp))}
	for _, b := range sum.TopUp {
		out.Moments = append(out.Moments, MomentItem{
			TimeBucket: b.TimeBucket,
			Clock:      moments.FormatClock(float64(b.TimeBucket)),
			Up:         b.Up,
			Down:       b.Down,
			WatchURL:   moments.WatchURLAt(tgt.Item, tgt.PageURL, float64(b.TimeBucket)),
		})
	}
	if len(out.Moments) == 0 {
		out.Summary = "No votes yet for this content."
		return out, nil
	}
	out.Summary = fmt.Sprintf("%d moments", len(out.Moments))

	if !input.Snippets {
		return out, nil
	}
	tr, err := s.storedTranscript(ctx, token, tgt.Item.ID)
	switch {
	case errors.Is(err, backend.ErrNotFound):
		out.Transcript = "missing"
		return out, nil
	case err != nil:
		slog.Warn("moment_summary: transcript unavailable", slog.String("content_id", tgt.Item.ID), slog.Any("error", err))
		out.Transcript = "error"
		return out, nil
	}
	out.Transcript = "loaded"
	for i := range out.Moments {
		snip := moments.SnippetAround(tr.Segments, out.Moments[i].TimeBucket, input.Window)
		out.Moments[i].Snippet = &SnippetOut{Range: snip.Range, Text: snip.Text(), Segments: snip.Segments}
	}
	return out, nil
}

// storedTranscript reads a stored transcript; uploaded transcripts never change, so hits are cached.
func transcriptCacheKey(contentID string) string { return engine.CacheKey("transcript", contentID) }

func (s *Server) storedTranscript(ctx context.Context, token, contentID string) (backend.StoredTranscript, error) {
	key := transcriptCacheKey(contentID)
	if tr, ok := engine.CacheLoadJSON[backend.StoredTranscript](ctx, key); ok {
		return tr, nil
	}
	tr, err := s.d.Backend.Transcript(ctx, token, contentID)
	if err != nil {
		return backend.StoredTranscript{}, err
	}
	if len(tr.Segments) > 0 {
		engine.CacheStoreJSON(ctx, key, tr)
	}
	return tr, nil
}

func (s *Server) registerMomentSnippet(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "moment_snippet",
		Description: "Transcript lines around a moment (±window seconds, 2-30, default 5) as copyable text: a mm:ss – mm:ss range header followed by one 'mm:ss text' line per segment.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input engine.MomentSnippetInput) (*mcp.CallToolResult, MomentSnippetOutput, error) {
		out, err := s.snippet(ctx, input)
		return nil, out, err
	})
}

func (s *Server) snippet(ctx context.Context, input engine.MomentSnippetInput) (MomentSnippetOutput, error) {
	tgt, err := toolutil.Resolve(input.Ref())
	if err != nil {
		return MomentSnippetOutput{}, err
	}
	out := MomentSnippetOutput{
		ContentID: tgt.Item.ID,
		WatchURL:  moments.WatchURLAt(tgt.Item, tgt.PageURL, input.TimeSeconds),
		Segments:  []transcript.Segment{},
	}

	tr, err := s.storedTranscript(ctx, s.optionalToken(ctx), tgt.Item.ID)
	if errors.Is(err, backend.ErrNotFound) {
		out.Note = "No transcript stored for this content."
		return out, nil
	}
	if err != nil {
		return MomentSnippetOutput{}, fmt.Errorf("transcript: %w", err)
	}

	snip := moments.SnippetAround(tr.Segments, int(input.TimeSeconds), input.Window)
	out.Range = snip.Range
	out.Text = snip.Text()
	if len(snip.Segments) > 0 {
		out.Segments = snip.Segments
	} else {
		out.Note = "No transcript text found in this window."
	}
	return out, nil
}

func (s *Server) registerMomentExplain(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "moment_explain",
		Description: "Explain what happens at a moment of a video in 2-3 sentences, using an LLM over the stored transcript around it (±window seconds, default 10).",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input engine.MomentExplainInput) (*mcp.CallToolResult, MomentExplainOutput, error) {
		out, err := s.explain(ctx, input)
		return nil, out, err
	})
}

func (s *Server) explain(ctx context.Context, input engine.MomentExplainInput) (MomentExplainOutput, error) {
	tgt, err := toolutil.Resolve(input.Ref())
	if err != nil {
		return MomentExplainOutput{}, err
	}
	window := input.Window
	if window == 0 {
		window = 10
	}

	tr, err := s.storedTranscript(ctx, s.optionalToken(ctx), tgt.Item.ID)
	if err != nil {
		return MomentExplainOutput{}, fmt.Errorf("transcript: %w", err)
	}
	snip := moments.SnippetAround(tr.Segments, int(input.TimeSeconds), window)

	cacheKey := engine.CacheKey("moment_explain", tgt.Item.ID, snip.Range)
	if out, ok := engine.CacheLoadJSON[MomentExplainOutput](ctx, cacheKey); ok {
		return out, nil
	}

	text, err := moments.Explain(ctx, input.Title, snip)
	if err != nil {
		return MomentExplainOutput{}, err
	}
	out := MomentExplainOutput{
		ContentID:   tgt.Item.ID,
		WatchURL:    moments.WatchURLAt(tgt.Item, tgt.PageURL, input.TimeSeconds),
		Range:       snip.Range,
		Explanation: text,
	}
	engine.CacheStoreJSON(ctx, cacheKey, out)
	return out, nil
}
