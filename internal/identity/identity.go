// Package identity derives a stable content id for the video being watched.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// Scheme tells how a content id was derived.
type Scheme string

const (
	SchemeNative Scheme = "native" // platform video id from the URL
	SchemeHashed Scheme = "hashed" // digest of host, page and media URLs
)

const hashPrefixLen = 16

// ContentItem is the join key across votes, transcripts and session state.
type ContentItem struct {
	ID     string `json:"id"`
	Scheme Scheme `json:"scheme"`
}

// IsNative reports whether the id came from the distinguished platform.
func (c ContentItem) IsNative() bool { return c.Scheme == SchemeNative }

// NativeID returns the platform video id, or "" for hashed ids.
func (c ContentItem) NativeID() string {
	if !c.IsNative() {
		return ""
	}
	return strings.TrimPrefix(c.ID, string(SchemeNative)+":")
}

// Page is what the resolver needs to know about the current view.
type Page struct {
	URL      string // location of the page, fragment allowed
	MediaURL string // resolved <video> source, may be empty
}

// Resolve returns the content identity for p. Pure, never fails.
func Resolve(p Page) ContentItem {
	u, err := url.Parse(p.URL)
	if err != nil {
		u = nil
	}
	if id := nativeVideoID(u); id != "" {
		return ContentItem{ID: string(SchemeNative) + ":" + id, Scheme: SchemeNative}
	}

	host := ""
	if u != nil {
		host = u.Host
	}
	pageURL := StripFragment(p.URL)

	sum := sha256.Sum256([]byte(host + "|" + pageURL + "|" + p.MediaURL))
	prefix := hex.EncodeToString(sum[:])[:hashPrefixLen]
	return ContentItem{ID: string(SchemeHashed) + ":" + host + ":" + prefix, Scheme: SchemeHashed}
}

// StripFragment drops everything from the first '#'.
func StripFragment(raw string) string {
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		return raw[:i]
	}
	return raw
}

// Host returns the host of raw, or "" when it does not parse.
func Host(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}

// IsYouTubeHost reports whether host serves YouTube watch pages.
func IsYouTubeHost(host string) bool {
	host = strings.ToLower(host)
	return strings.Contains(host, "youtube.com") || host == "youtu.be" || host == "www.youtu.be"
}

func nativeVideoID(u *url.URL) string {
	if u == nil || !IsYouTubeHost(u.Hostname()) {
		return ""
	}
	if v := u.Query().Get("v"); v != "" {
		return v
	}
	path := strings.Trim(u.Path, "/")
	if strings.HasSuffix(strings.ToLower(u.Hostname()), "youtu.be") {
		return firstSegment(path)
	}
	if rest, ok := strings.CutPrefix(path, "shorts/"); ok {
		return firstSegment(rest)
	}
	if rest, ok := strings.CutPrefix(path, "live/"); ok {
		return firstSegment(rest)
	}
	return ""
}

func firstSegment(p string) string {
	if i := strings.IndexByte(p, '/'); i >= 0 {
		return p[:i]
	}
	return p
}

// Parse reads a content id produced by Resolve back into a ContentItem.
func Parse(id string) (ContentItem, bool) {
	scheme, rest, ok := strings.Cut(id, ":")
	if !ok || rest == "" {
		return ContentItem{}, false
	}
	switch Scheme(scheme) {
	case SchemeNative:
		return ContentItem{ID: id, Scheme: SchemeNative}, true
	case SchemeHashed:
		if !strings.Contains(rest, ":") {
			return ContentItem{}, false
		}
		return ContentItem{ID: id, Scheme: SchemeHashed}, true
	}
	return ContentItem{}, false
}
