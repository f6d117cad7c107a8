package captions

import (
	"encoding/json"
	"strings"
)

// Track describes one caption track offered by the platform.
type Track struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind,omitempty"` // "asr" = auto-generated
	Name         string `json:"name,omitempty"`
}

// IsAutoGenerated reports whether the track is speech-recognized rather than authored.
func (t Track) IsAutoGenerated() bool {
	return t.Kind == "asr" || strings.Contains(t.BaseURL, "caps=asr")
}

// Details is the video metadata carried next to the caption list.
type Details struct {
	VideoID string `json:"videoId,omitempty"`
	Title   string `json:"title,omitempty"`
	Author  string `json:"author,omitempty"`
}

// playerResponse is the subset of ytInitialPlayerResponse we read.
// Every field is optional; malformed tracks are dropped rather than failing the parse.
type playerResponse struct {
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []json.RawMessage `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	VideoDetails json.RawMessage `json:"videoDetails"`
}

type rawTrack struct {
	BaseURL      string          `json:"baseUrl"`
	LanguageCode string          `json:"languageCode"`
	Kind         string          `json:"kind"`
	Name         json.RawMessage `json:"name"`
}

// trackName reads either {"simpleText": "..."} or {"runs":[{"text": "..."}]}.
func trackName(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var n struct {
		SimpleText string `json:"simpleText"`
		Runs       []struct {
			Text string `json:"text"`
		} `json:"runs"`
	}
	if err := json.Unmarshal(raw, &n); err != nil {
		return ""
	}
	if n.SimpleText != "" {
		return n.SimpleText
	}
	var sb strings.Builder
	for _, r := range n.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

func (pr playerResponse) tracks() []Track {
	if pr.Captions == nil {
		return nil
	}
	raw := pr.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	out := make([]Track, 0, len(raw))
	for _, item := range raw {
		var rt rawTrack
		if err := json.Unmarshal(item, &rt); err != nil || rt.BaseURL == "" {
			continue
		}
		out = append(out, Track{
			BaseURL:      rt.BaseURL,
			LanguageCode: rt.LanguageCode,
			Kind:         rt.Kind,
			Name:         trackName(rt.Name),
		})
	}
	return out
}

func (pr playerResponse) details() Details {
	var d Details
	if len(pr.VideoDetails) == 0 {
		return d
	}
	if err := json.Unmarshal(pr.VideoDetails, &d); err != nil {
		return Details{}
	}
	return d
}
