// Package session keeps per-content ingestion flags for the lifetime of a login session.
package session

import (
	"context"
	"fmt"
)

// Flag is one sticky per-content marker.
type Flag string

const (
	FlagMeta    Flag = "yt_meta_done" // metadata registered with the backend
	FlagFetched Flag = "yt_fetched"   // transcript uploaded, or nothing left to do
	FlagBackoff Flag = "yt_backoff"   // caption source rate-limited us
)

// Store is the session-scoped flag store. Each Set is a single atomic write.
// Reset clears every flag (logout).
type Store interface {
	Get(ctx context.Context, contentID string, flag Flag) (bool, error)
	Set(ctx context.Context, contentID string, flag Flag) error
	Reset(ctx context.Context) error
}

// Key formats the storage key for a flag.
func Key(flag Flag, contentID string) string {
	return fmt.Sprintf("%s:%s", flag, contentID)
}

// State is a read-only snapshot of one content id's flags.
type State struct {
	Meta    bool `json:"metaRegistered"`
	Fetched bool `json:"uploaded"`
	Backoff bool `json:"backoff"`
}

// Snapshot reads all three flags for contentID.
func Snapshot(ctx context.Context, s Store, contentID string) (State, error) {
	var st State
	var err error
	if st.Meta, err = s.Get(ctx, contentID, FlagMeta); err != nil {
		return State{}, err
	}
	if st.Fetched, err = s.Get(ctx, contentID, FlagFetched); err != nil {
		return State{}, err
	}
	if st.Backoff, err = s.Get(ctx, contentID, FlagBackoff); err != nil {
		return State{}, err
	}
	return st, nil
}
