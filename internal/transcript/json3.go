package transcript

import (
	"encoding/json"
	"fmt"
	"strings"
)

// json3Doc is the structured events format (fmt=json3).
type json3Doc struct {
	Events []json.RawMessage `json:"events"`
}

type json3Event struct {
	TStartMs    *int64 `json:"tStartMs"`
	DDurationMs int64  `json:"dDurationMs"`
	Segs        []struct {
		UTF8 string `json:"utf8"`
	} `json:"segs"`
}

// ParseJSON3 parses structured caption events.
// Events without a start time, malformed events and events with empty text are dropped.
func ParseJSON3(body []byte) ([]Segment, error) {
	var doc json3Doc
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode json3: %w", err)
	}
	segments := make([]Segment, 0, len(doc.Events))
	for _, raw := range doc.Events {
		var ev json3Event
		if err := json.Unmarshal(raw, &ev); err != nil || ev.TStartMs == nil {
			continue
		}
		var sb strings.Builder
		for _, s := range ev.Segs {
			sb.WriteString(s.UTF8)
		}
		seg, ok := newSegment(int(*ev.TStartMs/1000), int(ev.DDurationMs/1000), sb.String())
		if !ok {
			continue
		}
		segments = append(segments, seg)
	}
	return segments, nil
}
