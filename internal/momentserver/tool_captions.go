package momentserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_moments/internal/captions"
	"github.com/anatolykoptev/go_moments/internal/engine"
	"github.com/anatolykoptev/go_moments/internal/identity"
	"github.com/anatolykoptev/go_moments/internal/ingest"
	"github.com/anatolykoptev/go_moments/internal/session"
	"github.com/anatolykoptev/go_moments/internal/toolutil"
)

var errNotYouTube = errors.New("captions are only harvested for YouTube videos")

func (s *Server) registerContentIdentity(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "content_identity",
		Description: "Resolve the stable content id of a video page. YouTube pages map to native:<videoId>; any other page maps to hashed:<host>:<16 hex> derived from host, page URL (fragment dropped) and media URL. Pure, no network.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(_ context.Context, _ *mcp.CallToolRequest, input engine.ContentIdentityInput) (*mcp.CallToolResult, ContentIdentityOutput, error) {
		out, err := s.contentIdentity(input)
		return nil, out, err
	})
}

func (s *Server) contentIdentity(input engine.ContentIdentityInput) (ContentIdentityOutput, error) {
	if input.PageURL == "" {
		return ContentIdentityOutput{}, errors.New("page_url is required")
	}
	item := identity.Resolve(identity.Page{URL: input.PageURL, MediaURL: input.MediaURL})
	return ContentIdentityOutput{
		ContentID: item.ID,
		Scheme:    item.Scheme,
		VideoID:   item.NativeID(),
		PageHost:  identity.Host(input.PageURL),
	}, nil
}

func (s *Server) registerCaptionTracks(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "caption_tracks",
		Description: "List the caption tracks embedded in a YouTube watch page and the one that would be harvested for the preferred language (manual tracks first; exact language, then prefix, then first). Also returns title and channel.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input engine.CaptionTracksInput) (*mcp.CallToolResult, CaptionTracksOutput, error) {
		out, err := s.captionTracks(ctx, input)
		return nil, out, err
	})
}

func (s *Server) captionTracks(ctx context.Context, input engine.CaptionTracksInput) (CaptionTracksOutput, error) {
	if input.PageURL == "" {
		return CaptionTracksOutput{}, errors.New("page_url is required")
	}
	item := identity.Resolve(identity.Page{URL: input.PageURL})
	if !item.IsNative() {
		return CaptionTracksOutput{}, errNotYouTube
	}

	page := toolutil.PageInput{
		URL:            input.PageURL,
		HTML:           input.HTML,
		PlayerResponse: input.PlayerResponse,
		PlayerArgs:     input.PlayerArgs,
		Cookie:         input.Cookie,
	}
	// Anonymous page fetches are shared; viewer-specific input is not cached.
	cacheable := !page.Supplied() && page.Cookie == ""
	cacheKey := engine.CacheKey("caption_tracks", item.ID)
	var meta captions.Metadata
	hit := false
	if cacheable {
		meta, hit = engine.CacheLoadJSON[captions.Metadata](ctx, cacheKey)
	}
	if !hit {
		var err error
		meta, err = toolutil.LocateCaptions(ctx, s.d.Locator, s.d.FetchPage, page)
		if err != nil {
			return CaptionTracksOutput{}, err
		}
		if cacheable && meta.Source != "" {
			engine.CacheStoreJSON(ctx, cacheKey, meta)
		}
	}

	out := CaptionTracksOutput{
		ContentID: item.ID,
		Details:   meta.Details,
		Tracks:    meta.Tracks,
		Source:    meta.Source,
	}
	if out.Tracks == nil {
		out.Tracks = []captions.Track{}
	}
	if t, ok := captions.Select(meta.Tracks, engine.NormLang(input.Language)); ok {
		out.Selected = &t
	}
	return out, nil
}

func (s *Server) registerCaptionIngest(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "caption_ingest",
		Description: "Harvest the captions of a YouTube video into the backend: register metadata, download the caption track (json3, falling back to vtt) and upload normalized transcript segments. Runs at most once per video per login session; a rate-limited caption source disables further attempts for that video until logout.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input engine.CaptionIngestInput) (*mcp.CallToolResult, CaptionIngestOutput, error) {
		out, err := s.captionIngest(ctx, input)
		return nil, out, err
	})
}

func (s *Server) captionIngest(ctx context.Context, input engine.CaptionIngestInput) (CaptionIngestOutput, error) {
	if input.PageURL == "" {
		return CaptionIngestOutput{}, errors.New("page_url is required")
	}
	tgt, err := toolutil.Resolve(engine.PageRef{PageURL: input.PageURL})
	if err != nil {
		return CaptionIngestOutput{}, err
	}
	if !tgt.Item.IsNative() {
		return CaptionIngestOutput{}, errNotYouTube
	}
	page := toolutil.PageInput{
		URL:            tgt.PageURL,
		HTML:           input.HTML,
		PlayerResponse: input.PlayerResponse,
		PlayerArgs:     input.PlayerArgs,
		Cookie:         input.Cookie,
	}
	res := s.ingest(ctx, tgt, page, input.Language)
	return ingestOutput(tgt.Item.ID, res), nil
}

// ingest locates the caption track and triggers the coordinator.
// Without a located track the coordinator would record "no captions", so a content id
// the session already settled, or one being harvested, is reported as skipped here.
func (s *Server) ingest(ctx context.Context, tgt toolutil.Target, page toolutil.PageInput, lang string) ingest.Result {
	if res, ok := s.settled(ctx, tgt.Item.ID); ok {
		return res
	}

	meta, err := toolutil.LocateCaptions(ctx, s.d.Locator, s.d.FetchPage, page)
	if err != nil {
		slog.Warn("caption_ingest: page unavailable", slog.String("content_id", tgt.Item.ID), slog.Any("error", err))
		return ingest.Result{Outcome: ingest.OutcomeFailed, Reason: ingest.ReasonFetchFailed, Err: fmt.Errorf("watch page: %w", err)}
	}
	req := ingest.Request{
		Item:     tgt.Item,
		Details:  meta.Details,
		PageURL:  tgt.PageURL,
		PageHost: tgt.PageHost,
		Source:   s.source(page.Cookie),
	}
	if t, ok := captions.Select(meta.Tracks, engine.NormLang(lang)); ok {
		req.Track = &t
	}
	res := s.d.Coordinator.Trigger(ctx, req)
	if res.Reason == ingest.ReasonFetched {
		engine.CacheDelete(ctx, transcriptCacheKey(tgt.Item.ID))
	}
	return res
}

// settled returns the skip result when no page fetch is needed for contentID.
// A store error is not decisive; the coordinator reports it.
func (s *Server) settled(ctx context.Context, contentID string) (ingest.Result, bool) {
	if s.d.Coordinator.InFlight(contentID) {
		return skippedResult(ingest.ReasonInFlight), true
	}
	st, err := session.Snapshot(ctx, s.d.Store, contentID)
	switch {
	case err != nil:
		return ingest.Result{}, false
	case st.Fetched:
		return skippedResult(ingest.ReasonAlreadyFetchedSession), true
	case st.Backoff:
		return skippedResult(ingest.ReasonBackoff), true
	}
	return ingest.Result{}, false
}

func skippedResult(reason ingest.Reason) ingest.Result {
	return ingest.Result{Outcome: ingest.OutcomeSkipped, Reason: reason}
}

func ingestOutput(contentID string, res ingest.Result) CaptionIngestOutput {
	return CaptionIngestOutput{
		ContentID: contentID,
		Outcome:   res.Outcome,
		Reason:    res.Reason,
		Message:   res.Message(),
		Retryable: res.Retryable(),
		Format:    res.Format,
		Segments:  res.Segments,
		RunID:     res.RunID,
	}
}
