package captions

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const playerJSON = `{
  "videoDetails": {"videoId": "abc123", "title": "Go {generics} talk", "author": "GopherCon"},
  "captions": {"playerCaptionsTracklistRenderer": {"captionTracks": [
    {"baseUrl": "https://www.youtube.com/api/timedtext?v=abc123&lang=en&kind=asr", "languageCode": "en", "kind": "asr", "name": {"simpleText": "English (auto-generated)"}},
    {"baseUrl": "https://www.youtube.com/api/timedtext?v=abc123&lang=de", "languageCode": "de", "name": {"runs": [{"text": "Deutsch"}]}},
    {"languageCode": "fr"}
  ]}}
}`

func TestSelectPrefersManualPrefixOverAutoExact(t *testing.T) {
	tracks := []Track{
		{BaseURL: "u1", LanguageCode: "en-US"},
		{BaseURL: "u2", LanguageCode: "en", Kind: "asr"},
	}
	got, ok := Select(tracks, "en")
	require.True(t, ok)
	assert.Equal(t, "en-US", got.LanguageCode)
	assert.False(t, got.IsAutoGenerated())
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name   string
		tracks []Track
		lang   string
		want   string
	}{
		{
			name:   "exact beats prefix",
			tracks: []Track{{BaseURL: "a", LanguageCode: "en-GB"}, {BaseURL: "b", LanguageCode: "en"}},
			lang:   "en",
			want:   "b",
		},
		{
			name:   "first when nothing matches",
			tracks: []Track{{BaseURL: "a", LanguageCode: "ja"}, {BaseURL: "b", LanguageCode: "ko"}},
			lang:   "en",
			want:   "a",
		},
		{
			name:   "auto pool when no manual track",
			tracks: []Track{{BaseURL: "a", LanguageCode: "de", Kind: "asr"}, {BaseURL: "b", LanguageCode: "en", Kind: "asr"}},
			lang:   "en",
			want:   "b",
		},
		{
			name:   "caps=asr counts as auto",
			tracks: []Track{{BaseURL: "a?caps=asr", LanguageCode: "en"}, {BaseURL: "b", LanguageCode: "fr"}},
			lang:   "en",
			want:   "b",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Select(tt.tracks, tt.lang)
			require.True(t, ok)
			assert.Equal(t, tt.want, got.BaseURL)
		})
	}
}

func TestSelectEmpty(t *testing.T) {
	_, ok := Select(nil, "en")
	assert.False(t, ok)
}

func TestLocateGlobalObject(t *testing.T) {
	md := NewLocator().Locate(&Page{InitialPlayerResponse: json.RawMessage(playerJSON)})

	assert.Equal(t, "initial_player_response", md.Source)
	require.Len(t, md.Tracks, 2, "track without baseUrl is dropped")
	assert.Equal(t, "English (auto-generated)", md.Tracks[0].Name)
	assert.Equal(t, "Deutsch", md.Tracks[1].Name)
	assert.Equal(t, "Go {generics} talk", md.Details.Title)
	assert.Equal(t, "GopherCon", md.Details.Author)
}

func TestLocateFallsThroughBrokenSources(t *testing.T) {
	p := &Page{
		InitialPlayerResponse: json.RawMessage(`{"captions": "not an object"`),
		PlayerArgs:            &PlayerArgs{PlayerResponse: "{broken"},
		Scripts: []string{
			`var x = 1;`,
			`var ytInitialPlayerResponse = ` + playerJSON + `;var meta = {"a": 1};`,
		},
	}
	md := NewLocator().Locate(p)
	assert.Equal(t, "inline_script", md.Source)
	assert.Len(t, md.Tracks, 2)
}

func TestLocatePlayerConfigString(t *testing.T) {
	md := NewLocator().Locate(&Page{PlayerArgs: &PlayerArgs{PlayerResponse: playerJSON}})
	assert.Equal(t, "player_config", md.Source)
	assert.Len(t, md.Tracks, 2)
}

func TestLocateNothingUsable(t *testing.T) {
	md := NewLocator().Locate(&Page{Scripts: []string{"ytInitialPlayerResponse = {unterminated"}})
	assert.Empty(t, md.Tracks)
	assert.Empty(t, md.Source)

	assert.Empty(t, NewLocator().Locate(nil).Tracks)
}

func TestLocateCustomStrategies(t *testing.T) {
	calls := 0
	never := Strategy{Name: "never", Extract: func(*Page) (json.RawMessage, bool) {
		calls++
		return nil, false
	}}
	md := NewLocator(never).Locate(&Page{InitialPlayerResponse: json.RawMessage(playerJSON)})
	assert.Equal(t, 1, calls)
	assert.Empty(t, md.Tracks)
}

func TestPageFromHTML(t *testing.T) {
	html := `<html><head><script src="/player.js"></script></head><body>
<script>var ytInitialPlayerResponse = ` + playerJSON + `;</script>
</body></html>`
	p, err := PageFromHTML("https://www.youtube.com/watch?v=abc123", []byte(html))
	require.NoError(t, err)
	require.Len(t, p.Scripts, 1)

	md := NewLocator().Locate(p)
	assert.Equal(t, "inline_script", md.Source)
	assert.Equal(t, "abc123", md.Details.VideoID)
}
