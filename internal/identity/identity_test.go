package identity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveNative(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"watch", "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "native:dQw4w9WgXcQ"},
		{"mobile", "https://m.youtube.com/watch?v=abc123", "native:abc123"},
		{"short link", "https://youtu.be/abc123?si=x", "native:abc123"},
		{"shorts", "https://www.youtube.com/shorts/xyz789", "native:xyz789"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(Page{URL: tt.url})
			assert.Equal(t, tt.want, got.ID)
			assert.Equal(t, SchemeNative, got.Scheme)
		})
	}
}

func TestResolveHashedDeterministic(t *testing.T) {
	p := Page{URL: "https://example.com/post/1#comments", MediaURL: "https://cdn.example.com/a.mp4"}
	a := Resolve(p)
	b := Resolve(p)

	assert.Equal(t, a, b)
	assert.Equal(t, SchemeHashed, a.Scheme)
	assert.True(t, strings.HasPrefix(a.ID, "hashed:example.com:"))
	assert.Len(t, strings.TrimPrefix(a.ID, "hashed:example.com:"), hashPrefixLen)
}

func TestResolveHashedIgnoresFragment(t *testing.T) {
	a := Resolve(Page{URL: "https://example.com/p#a", MediaURL: "m"})
	b := Resolve(Page{URL: "https://example.com/p#b", MediaURL: "m"})
	assert.Equal(t, a.ID, b.ID)
}

func TestResolveHashedMediaChangesID(t *testing.T) {
	a := Resolve(Page{URL: "https://example.com/p", MediaURL: "https://cdn.example.com/a.mp4"})
	b := Resolve(Page{URL: "https://example.com/p", MediaURL: "https://cdn.example.com/b.mp4"})
	assert.NotEqual(t, a.ID, b.ID)
}

func TestResolveYouTubeWithoutVideoIDFallsBack(t *testing.T) {
	got := Resolve(Page{URL: "https://www.youtube.com/feed/subscriptions"})
	assert.Equal(t, SchemeHashed, got.Scheme)
	assert.True(t, strings.HasPrefix(got.ID, "hashed:www.youtube.com:"))
}

func TestResolveMalformedURL(t *testing.T) {
	got := Resolve(Page{URL: "://%%bad", MediaURL: ""})
	assert.Equal(t, SchemeHashed, got.Scheme)
	assert.True(t, strings.HasPrefix(got.ID, "hashed::"))
}

func TestNativeID(t *testing.T) {
	assert.Equal(t, "abc", ContentItem{ID: "native:abc", Scheme: SchemeNative}.NativeID())
	assert.Equal(t, "", ContentItem{ID: "hashed:h:0011", Scheme: SchemeHashed}.NativeID())
}

func TestParse(t *testing.T) {
	item, ok := Parse("native:dQw4w9WgXcQ")
	require.True(t, ok)
	assert.True(t, item.IsNative())
	assert.Equal(t, "dQw4w9WgXcQ", item.NativeID())

	resolved := Resolve(Page{URL: "https://vimeo.com/1"})
	item, ok = Parse(resolved.ID)
	require.True(t, ok)
	assert.Equal(t, resolved, item)

	for _, bad := range []string{"", "native:", "yt:abc", "hashed:nohost", "plain"} {
		_, ok := Parse(bad)
		assert.False(t, ok, bad)
	}
}
