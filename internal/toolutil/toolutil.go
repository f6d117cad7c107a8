// Package toolutil provides shared helpers for go_moments MCP tools.
package toolutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anatolykoptev/go_moments/internal/captions"
	"github.com/anatolykoptev/go_moments/internal/engine"
	"github.com/anatolykoptev/go_moments/internal/identity"
)

// ErrNoTarget is returned when a tool input names neither a page nor a content id.
var ErrNoTarget = errors.New("page_url or content_id is required")

// Target is a resolved tool subject.
type Target struct {
	Item     identity.ContentItem
	PageURL  string
	PageHost string
}

// Resolve turns a PageRef into a Target. An explicit content id wins over the page URL.
// Native ids without a page URL get a canonical watch URL.
func Resolve(ref engine.PageRef) (Target, error) {
	if ref.ContentID != "" {
		item, ok := identity.Parse(ref.ContentID)
		if !ok {
			return Target{}, fmt.Errorf("invalid content_id %q", ref.ContentID)
		}
		t := Target{Item: item, PageURL: ref.PageURL}
		if t.PageURL == "" && item.IsNative() {
			t.PageURL = "https://www.youtube.com/watch?v=" + item.NativeID()
		}
		t.PageHost = identity.Host(t.PageURL)
		return t, nil
	}
	if ref.PageURL == "" {
		return Target{}, ErrNoTarget
	}
	return Target{
		Item:     identity.Resolve(identity.Page{URL: ref.PageURL, MediaURL: ref.MediaURL}),
		PageURL:  identity.StripFragment(ref.PageURL),
		PageHost: identity.Host(ref.PageURL),
	}, nil
}

// PageFetcher downloads a watch page in the viewer's context.
type PageFetcher func(ctx context.Context, pageURL, cookie string) ([]byte, error)

// PageInput is what the caller already knows about a watch page.
type PageInput struct {
	URL            string
	HTML           string
	PlayerResponse string // ytInitialPlayerResponse as JSON
	PlayerArgs     string // ytplayer.config.args as JSON
	Cookie         string
}

// Supplied reports whether the caller handed over any page context.
func (in PageInput) Supplied() bool {
	return in.HTML != "" || in.PlayerResponse != "" || in.PlayerArgs != ""
}

// Page builds the locator view of in, fetching the page only when nothing was supplied.
func (in PageInput) Page(ctx context.Context, fetch PageFetcher) (*captions.Page, error) {
	body := []byte(in.HTML)
	if !in.Supplied() {
		var err error
		if body, err = fetch(ctx, in.URL, in.Cookie); err != nil {
			return nil, err
		}
	}
	page := &captions.Page{URL: in.URL}
	if len(body) > 0 {
		var err error
		if page, err = captions.PageFromHTML(in.URL, body); err != nil {
			return nil, fmt.Errorf("parse page: %w", err)
		}
	}
	if in.PlayerResponse != "" {
		page.InitialPlayerResponse = json.RawMessage(in.PlayerResponse)
	}
	if in.PlayerArgs != "" {
		var args captions.PlayerArgs
		if err := json.Unmarshal([]byte(in.PlayerArgs), &args); err != nil {
			return nil, fmt.Errorf("parse player_args: %w", err)
		}
		page.PlayerArgs = &args
	}
	return page, nil
}

// LocateCaptions reads caption metadata from the supplied page context.
func LocateCaptions(ctx context.Context, loc *captions.Locator, fetch PageFetcher, in PageInput) (captions.Metadata, error) {
	page, err := in.Page(ctx, fetch)
	if err != nil {
		return captions.Metadata{}, err
	}
	return loc.Locate(page), nil
}
