package moments

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_moments/internal/engine"
	"github.com/anatolykoptev/go_moments/internal/identity"
	"github.com/anatolykoptev/go_moments/internal/transcript"
)

func TestFormatClock(t *testing.T) {
	cases := map[float64]string{
		0:    "00:00",
		5.9:  "00:05",
		65:   "01:05",
		3725: "62:05",
		-12:  "00:00",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatClock(in), "input %v", in)
	}
}

func TestClampWindow(t *testing.T) {
	assert.Equal(t, DefaultWindow, ClampWindow(0))
	assert.Equal(t, MinWindow, ClampWindow(1))
	assert.Equal(t, MinWindow, ClampWindow(-4))
	assert.Equal(t, 12, ClampWindow(12))
	assert.Equal(t, MaxWindow, ClampWindow(90))
}

func TestSnippetAround(t *testing.T) {
	segs := []transcript.Segment{
		{Start: 40, Duration: 2, Text: "later"},
		{Start: 10, Duration: 3, Text: "too early"},
		{Start: 24, Duration: 2, Text: "overlaps start"},
		{Start: 30, Duration: 4, Text: "centre"},
		{Start: 35, Duration: 1, Text: "at end"},
	}
	s := SnippetAround(segs, 30, 5)
	assert.Equal(t, "00:25 – 00:35", s.Range)
	require.Len(t, s.Segments, 3)
	assert.Equal(t, "overlaps start", s.Segments[0].Text)
	assert.Equal(t, "centre", s.Segments[1].Text)
	assert.Equal(t, "at end", s.Segments[2].Text)
	assert.Equal(t, "00:25 – 00:35\n00:24 overlaps start\n00:30 centre\n00:35 at end", s.Text())
	assert.Equal(t, "overlaps start centre at end", s.Plain())
}

func TestSnippetAroundClampsAtZero(t *testing.T) {
	s := SnippetAround([]transcript.Segment{{Start: 0, Duration: 1, Text: "intro"}}, 1, 5)
	assert.Equal(t, 0, s.Start)
	assert.Equal(t, "00:00 – 00:06", s.Range)
	assert.Len(t, s.Segments, 1)
}

func TestWatchURLAt(t *testing.T) {
	yt := identity.ContentItem{ID: "native:dQw4w9WgXcQ", Scheme: identity.SchemeNative}
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s", WatchURLAt(yt, "ignored", 42.9))
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=0s", WatchURLAt(yt, "", -3))

	other := identity.ContentItem{ID: "hashed:vimeo.com:0123456789abcdef", Scheme: identity.SchemeHashed}
	assert.Equal(t, "https://vimeo.com/1", WatchURLAt(other, "https://vimeo.com/1", 42))
}

func TestExplainEmptySnippet(t *testing.T) {
	_, err := Explain(context.Background(), "t", Snippet{})
	assert.ErrorIs(t, err, ErrEmptySnippet)
}

func TestExplainWithoutLLM(t *testing.T) {
	engine.Init(engine.Config{})
	s := SnippetAround([]transcript.Segment{{Start: 3, Duration: 2, Text: "hello"}}, 3, 5)
	_, err := Explain(context.Background(), "", s)
	assert.ErrorIs(t, err, engine.ErrLLMDisabled)
}
