// Package auth holds the viewer's bearer token for the lifetime of a login session.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
)

// ErrNotLoggedIn is returned when no token is available.
var ErrNotLoggedIn = errors.New("not logged in")

// Provider hands out the current bearer token.
type Provider interface {
	Token(ctx context.Context) (string, error)
}

// Resetter is anything cleared on logout (session flag stores, caches).
type Resetter interface {
	Reset(ctx context.Context) error
}

// Session is an in-memory Provider with login/logout.
// Token acquisition itself happens outside (identity provider); Login only stores it.
type Session struct {
	mu     sync.RWMutex
	token  string
	resets []Resetter
}

// NewSession creates a session, optionally pre-authenticated with token.
// resets run on every Logout.
func NewSession(token string, resets ...Resetter) *Session {
	return &Session{token: strings.TrimSpace(token), resets: resets}
}

// Token implements Provider.
func (s *Session) Token(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", ErrNotLoggedIn
	}
	return s.token, nil
}

// Peek reports whether a token is stored without failing.
func (s *Session) Peek() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// Login stores token.
func (s *Session) Login(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("auth: empty token")
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

// Logout drops the token and resets every registered store.
// All resets run even if one fails; the first error is returned.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()

	var first error
	for _, r := range s.resets {
		if err := r.Reset(ctx); err != nil {
			slog.Warn("auth: reset on logout failed", slog.Any("error", err))
			if first == nil {
				first = err
			}
		}
	}
	return first
}
