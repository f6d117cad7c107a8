// Package captions finds the caption tracks a watch page advertises and picks one.
package captions

import (
	"encoding/json"
	"log/slog"
	"strings"
)

// initialPlayerResponseMarker names the player response assignment in inline scripts.
const initialPlayerResponseMarker = "ytInitialPlayerResponse"

// Strategy extracts raw player-response JSON from a page. ok=false means "not here".
type Strategy struct {
	Name    string
	Extract func(p *Page) (json.RawMessage, bool)
}

// DefaultStrategies lists metadata sources in priority order.
var DefaultStrategies = []Strategy{
	{Name: "initial_player_response", Extract: fromGlobal},
	{Name: "player_config", Extract: fromPlayerConfig},
	{Name: "inline_script", Extract: fromInlineScripts},
}

func fromGlobal(p *Page) (json.RawMessage, bool) {
	if isEmptyJSON(p.InitialPlayerResponse) {
		return nil, false
	}
	return p.InitialPlayerResponse, true
}

func fromPlayerConfig(p *Page) (json.RawMessage, bool) {
	if p.PlayerArgs == nil {
		return nil, false
	}
	if !isEmptyJSON(p.PlayerArgs.RawPlayerResponse) {
		return p.PlayerArgs.RawPlayerResponse, true
	}
	if p.PlayerArgs.PlayerResponse != "" {
		return json.RawMessage(p.PlayerArgs.PlayerResponse), true
	}
	return nil, false
}

func fromInlineScripts(p *Page) (json.RawMessage, bool) {
	for _, s := range p.Scripts {
		if !strings.Contains(s, initialPlayerResponseMarker) {
			continue
		}
		if obj := ExtractJSONAfter(s, initialPlayerResponseMarker); obj != nil && json.Valid(obj) {
			return obj, true
		}
	}
	return nil, false
}

func isEmptyJSON(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null"
}

// Metadata is what the locator learned about the page.
type Metadata struct {
	Tracks  []Track `json:"tracks"`
	Details Details `json:"details"`
	Source  string  `json:"source,omitempty"` // strategy name, "" when nothing matched
}

// Locator runs strategies in order until one yields parseable metadata.
type Locator struct {
	strategies []Strategy
}

// NewLocator builds a locator; no strategies means DefaultStrategies.
func NewLocator(strategies ...Strategy) *Locator {
	if len(strategies) == 0 {
		strategies = DefaultStrategies
	}
	return &Locator{strategies: strategies}
}

// Locate never fails: parse errors fall through to the next strategy and
// an exhausted chain yields empty metadata.
func (l *Locator) Locate(p *Page) Metadata {
	if p == nil {
		return Metadata{}
	}
	for _, s := range l.strategies {
		raw, ok := s.Extract(p)
		if !ok {
			continue
		}
		var pr playerResponse
		if err := json.Unmarshal(raw, &pr); err != nil {
			slog.Debug("captions: strategy parse failed", slog.String("strategy", s.Name), slog.Any("error", err))
			continue
		}
		return Metadata{Tracks: pr.tracks(), Details: pr.details(), Source: s.Name}
	}
	return Metadata{}
}

// Select picks the best track for preferredLang.
// Manual tracks form the pool when any exist; within the pool an exact language
// match wins, then a prefix match, then the first track in source order.
func Select(tracks []Track, preferredLang string) (Track, bool) {
	if len(tracks) == 0 {
		return Track{}, false
	}
	pool := make([]Track, 0, len(tracks))
	for _, t := range tracks {
		if !t.IsAutoGenerated() {
			pool = append(pool, t)
		}
	}
	if len(pool) == 0 {
		pool = tracks
	}
	for _, t := range pool {
		if t.LanguageCode == preferredLang {
			return t, true
		}
	}
	for _, t := range pool {
		if strings.HasPrefix(t.LanguageCode, preferredLang) {
			return t, true
		}
	}
	return pool[0], true
}
