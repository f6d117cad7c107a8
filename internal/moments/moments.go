// Package moments turns vote buckets and stored transcripts into readable moments:
// transcript windows around a timestamp, watch links and LLM explanations.
package moments

import (
	"fmt"
	"math"
	"net/url"
	"sort"
	"strings"

	"github.com/anatolykoptev/go_moments/internal/identity"
	"github.com/anatolykoptev/go_moments/internal/transcript"
)

// Window bounds, in seconds either side of the moment.
const (
	DefaultWindow = 5
	MinWindow     = 2
	MaxWindow     = 30
)

// ClampWindow maps any requested window into [MinWindow, MaxWindow]; 0 means default.
func ClampWindow(w int) int {
	if w == 0 {
		return DefaultWindow
	}
	return max(MinWindow, min(MaxWindow, w))
}

// FormatClock renders seconds as mm:ss; minutes are not wrapped into hours.
func FormatClock(sec float64) string {
	s := int(math.Floor(sec))
	if s < 0 || math.IsNaN(sec) {
		s = 0
	}
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}

// Snippet is the part of a transcript around one moment.
type Snippet struct {
	Center   int                  `json:"center"`
	Start    int                  `json:"start"`
	End      int                  `json:"end"`
	Range    string               `json:"range"`
	Segments []transcript.Segment `json:"segments"`
}

// SnippetAround selects segments overlapping [center-window, center+window], ordered by start.
func SnippetAround(segments []transcript.Segment, center, window int) Snippet {
	window = ClampWindow(window)
	start := max(0, center-window)
	end := center + window

	var slice []transcript.Segment
	for _, s := range segments {
		if s.Start <= end && s.End() >= start {
			slice = append(slice, s)
		}
	}
	sort.SliceStable(slice, func(i, j int) bool { return slice[i].Start < slice[j].Start })

	return Snippet{
		Center:   center,
		Start:    start,
		End:      end,
		Range:    FormatClock(float64(start)) + " – " + FormatClock(float64(end)),
		Segments: slice,
	}
}

// Text is the copyable form: range header, then one "mm:ss text" line per segment.
func (s Snippet) Text() string {
	var b strings.Builder
	b.WriteString(s.Range)
	for _, seg := range s.Segments {
		b.WriteByte('\n')
		b.WriteString(FormatClock(float64(seg.Start)))
		b.WriteByte(' ')
		b.WriteString(transcript.Normalize(seg.Text))
	}
	return b.String()
}

// Plain joins segment texts with spaces.
func (s Snippet) Plain() string {
	parts := make([]string, 0, len(s.Segments))
	for _, seg := range s.Segments {
		if t := transcript.Normalize(seg.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// WatchURLAt links to the moment on the platform; hashed content falls back to pageURL.
func WatchURLAt(item identity.ContentItem, pageURL string, seconds float64) string {
	vid := item.NativeID()
	if vid == "" {
		return pageURL
	}
	t := int(math.Floor(max(0, seconds)))
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s&t=%ds", url.QueryEscape(vid), t)
}
