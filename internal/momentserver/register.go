// Package momentserver exposes caption ingestion, votes and moment summaries as MCP tools.
package momentserver

import (
	"context"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_moments/internal/auth"
	"github.com/anatolykoptev/go_moments/internal/backend"
	"github.com/anatolykoptev/go_moments/internal/captions"
	"github.com/anatolykoptev/go_moments/internal/engine"
	"github.com/anatolykoptev/go_moments/internal/ingest"
	"github.com/anatolykoptev/go_moments/internal/session"
	"github.com/anatolykoptev/go_moments/internal/toolutil"
	"github.com/anatolykoptev/go_moments/internal/transcript"
)

// Deps are the collaborators shared by all tools.
type Deps struct {
	Backend     backend.Client
	Coordinator *ingest.Coordinator
	Session     *auth.Session
	Store       session.Store
	Locator     *captions.Locator
	Fetcher     *transcript.HTTPFetcher
	FetchPage   toolutil.PageFetcher // nil means engine.FetchPage
}

// Server holds tool state; it is safe for concurrent tool calls.
type Server struct {
	d  Deps
	wg sync.WaitGroup // background ingestion started by votes
}

// New fills defaults in d and returns a Server.
func New(d Deps) *Server {
	if d.Locator == nil {
		d.Locator = captions.NewLocator()
	}
	if d.FetchPage == nil {
		d.FetchPage = engine.FetchPage
	}
	return &Server{d: d}
}

// Wait blocks until vote-triggered ingestion runs have finished.
func (s *Server) Wait() { s.wg.Wait() }

// RegisterTools registers all moment tools on the given MCP server:
// content_identity, caption_tracks, caption_ingest, moment_vote, moment_summary,
// moment_snippet, moment_explain, auth_login, auth_logout, session_status.
func (s *Server) RegisterTools(server *mcp.Server) {
	s.registerContentIdentity(server)
	s.registerCaptionTracks(server)
	s.registerCaptionIngest(server)
	s.registerMomentVote(server)
	s.registerMomentSummary(server)
	s.registerMomentSnippet(server)
	s.registerMomentExplain(server)
	s.registerAuthLogin(server)
	s.registerAuthLogout(server)
	s.registerSessionStatus(server)
}

// source returns the transcript engine to use for one request; a cookie gets
// its own fetcher sharing the rate limiter.
func (s *Server) source(cookie string) ingest.TranscriptSource {
	if cookie == "" || s.d.Fetcher == nil {
		return nil
	}
	return transcript.NewEngine(s.d.Fetcher.WithCookie(cookie))
}

// optionalToken returns the session token or "" for read-only calls.
func (s *Server) optionalToken(ctx context.Context) string {
	if s.d.Session == nil {
		return ""
	}
	tok, err := s.d.Session.Token(ctx)
	if err != nil {
		return ""
	}
	return tok
}
