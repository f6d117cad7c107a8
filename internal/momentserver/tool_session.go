package momentserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_moments/internal/engine"
	"github.com/anatolykoptev/go_moments/internal/session"
	"github.com/anatolykoptev/go_moments/internal/toolutil"
)

func (s *Server) registerAuthLogin(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "auth_login",
		Description: "Store the bearer token used for votes, registration and transcript upload.",
	}, func(_ context.Context, _ *mcp.CallToolRequest, input engine.LoginInput) (*mcp.CallToolResult, AuthOutput, error) {
		if err := s.d.Session.Login(input.Token); err != nil {
			return nil, AuthOutput{}, err
		}
		return nil, AuthOutput{LoggedIn: true}, nil
	})
}

func (s *Server) registerAuthLogout(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "auth_logout",
		Description: "Drop the bearer token and clear the per-video ingestion state (uploaded/backoff flags), so the next session may harvest captions again.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ engine.EmptyInput) (*mcp.CallToolResult, AuthOutput, error) {
		if err := s.d.Session.Logout(ctx); err != nil {
			return nil, AuthOutput{LoggedIn: false, Message: "logged out; session reset incomplete: " + err.Error()}, nil
		}
		return nil, AuthOutput{LoggedIn: false, Message: "logged out"}, nil
	})
}

func (s *Server) registerSessionStatus(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "session_status",
		Description: "Login state, and for a given page or content id the ingestion flags of this session (metadata registered, uploaded, backoff) plus whether a harvest is running.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input engine.SessionStatusInput) (*mcp.CallToolResult, SessionStatusOutput, error) {
		out, err := s.status(ctx, input)
		return nil, out, err
	})
}

func (s *Server) status(ctx context.Context, input engine.SessionStatusInput) (SessionStatusOutput, error) {
	out := SessionStatusOutput{LoggedIn: s.d.Session.Peek()}
	ref := input.Ref()
	if ref.PageURL == "" && ref.ContentID == "" {
		return out, nil
	}
	tgt, err := toolutil.Resolve(ref)
	if err != nil {
		return SessionStatusOutput{}, err
	}
	st, err := session.Snapshot(ctx, s.d.Store, tgt.Item.ID)
	if err != nil {
		return SessionStatusOutput{}, err
	}
	out.ContentID = tgt.Item.ID
	out.Flags = &st
	out.InFlight = s.d.Coordinator.InFlight(tgt.Item.ID)
	return out, nil
}
