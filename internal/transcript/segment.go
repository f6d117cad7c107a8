// Package transcript downloads a caption track and turns it into timed text segments.
package transcript

import (
	"strings"

	"golang.org/x/net/html"
)

// Segment is one timed unit of transcript text. Times are whole seconds.
type Segment struct {
	Start    int    `json:"start"`
	Duration int    `json:"dur"`
	Text     string `json:"text"`
}

// End returns Start+Duration.
func (s Segment) End() int { return s.Start + s.Duration }

// Normalize decodes HTML entities until the text is stable (caption feeds are often
// double-escaped, e.g. "&amp;#39;") and collapses whitespace runs to single spaces.
// Every changing pass removes an '&' or shortens the text, so the loop ends.
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	for strings.IndexByte(s, '&') >= 0 {
		next := html.UnescapeString(s)
		if next == s {
			break
		}
		s = next
	}
	return strings.Join(strings.Fields(s), " ")
}

// newSegment clamps negative times and normalizes text. ok=false means drop it.
func newSegment(start, dur int, text string) (Segment, bool) {
	text = Normalize(text)
	if text == "" {
		return Segment{}, false
	}
	return Segment{Start: max(0, start), Duration: max(0, dur), Text: text}, true
}
