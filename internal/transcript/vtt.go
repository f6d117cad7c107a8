package transcript

import (
	"regexp"
	"strconv"
	"strings"
)

// cueSeparator splits the two timestamps of a cue timing line.
const cueSeparator = "-->"

// cueTagRe matches inline cue markup (<c>, <i>, <00:00:01.000> karaoke stamps).
var cueTagRe = regexp.MustCompile(`<[^>]+>`)

// ParseVTT parses line-based subtitle cues (fmt=vtt).
// A cue is a timing line containing "-->" followed by body lines up to a blank line.
// Cues with unparseable timestamps or empty bodies are skipped.
func ParseVTT(body string) []Segment {
	lines := strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n")
	var segments []Segment

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if !strings.Contains(line, cueSeparator) {
			continue
		}
		start, end, ok := parseCueTiming(line)

		var text []string
		for i+1 < len(lines) && strings.TrimSpace(lines[i+1]) != "" {
			i++
			text = append(text, cueTagRe.ReplaceAllString(strings.TrimSpace(lines[i]), ""))
		}
		if !ok {
			continue
		}
		if seg, keep := newSegment(start, end-start, strings.Join(text, " ")); keep {
			segments = append(segments, seg)
		}
	}
	return segments
}

// parseCueTiming reads "00:01.000 --> 00:03.500 align:start" into whole seconds.
func parseCueTiming(line string) (start, end int, ok bool) {
	left, right, found := strings.Cut(line, cueSeparator)
	if !found {
		return 0, 0, false
	}
	rightFields := strings.Fields(right)
	if len(rightFields) == 0 {
		return 0, 0, false
	}
	start, ok1 := ParseTimestamp(strings.TrimSpace(left))
	end, ok2 := ParseTimestamp(rightFields[0])
	if !ok1 || !ok2 {
		return 0, 0, false
	}
	return start, end, true
}

// ParseTimestamp converts "[hh:]mm:ss[.mmm]" to whole seconds, discarding fractions.
// A comma decimal separator (SRT style) is accepted too.
func ParseTimestamp(ts string) (int, bool) {
	ts = strings.Replace(ts, ",", ".", 1)
	if i := strings.IndexByte(ts, '.'); i >= 0 {
		ts = ts[:i]
	}
	parts := strings.Split(ts, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, false
		}
		total = total*60 + n
	}
	return total, true
}
