package engine

// --- Page/content tool inputs ---

type ContentIdentityInput struct {
	PageURL  string `json:"page_url" jsonschema:"URL of the page hosting the video"`
	MediaURL string `json:"media_url,omitempty" jsonschema:"Resolved <video> source URL (optional)"`
}

type CaptionTracksInput struct {
	PageURL        string `json:"page_url" jsonschema:"YouTube watch page URL"`
	HTML           string `json:"html,omitempty" jsonschema:"Already downloaded page HTML; skips the network fetch"`
	Language       string `json:"language,omitempty" jsonschema:"Preferred caption language (default: PREFERRED_LANG, en)"`
	Cookie         string `json:"cookie,omitempty" jsonschema:"Cookie header of the viewer session, forwarded to the page fetch"`
	PlayerResponse string `json:"player_response,omitempty" jsonschema:"ytInitialPlayerResponse of the open page as JSON; skips the network fetch"`
	PlayerArgs     string `json:"player_args,omitempty" jsonschema:"ytplayer.config.args of the open page as JSON; skips the network fetch"`
}

type CaptionIngestInput struct {
	PageURL        string `json:"page_url" jsonschema:"YouTube watch page URL"`
	HTML           string `json:"html,omitempty" jsonschema:"Already downloaded page HTML; skips the network fetch"`
	Language       string `json:"language,omitempty" jsonschema:"Preferred caption language (default: PREFERRED_LANG, en)"`
	Cookie         string `json:"cookie,omitempty" jsonschema:"Cookie header forwarded to page and caption requests"`
	PlayerResponse string `json:"player_response,omitempty" jsonschema:"ytInitialPlayerResponse of the open page as JSON; skips the network fetch"`
	PlayerArgs     string `json:"player_args,omitempty" jsonschema:"ytplayer.config.args of the open page as JSON; skips the network fetch"`
}

// --- Moment tool inputs ---

// PageRef identifies the video either by page or by an already resolved content id.
type PageRef struct {
	PageURL   string
	MediaURL  string
	ContentID string
}

type MomentVoteInput struct {
	PageURL     string  `json:"page_url,omitempty" jsonschema:"URL of the page hosting the video"`
	MediaURL    string  `json:"media_url,omitempty" jsonschema:"Resolved <video> source URL, for non-YouTube pages"`
	ContentID   string  `json:"content_id,omitempty" jsonschema:"Content id from content_identity; overrides page_url"`
	TimeSeconds float64 `json:"time_seconds" jsonschema:"Playback position of the moment in seconds"`
	Vote        string  `json:"vote" jsonschema:"UP or DOWN"`
	Cookie      string  `json:"cookie,omitempty" jsonschema:"Cookie header forwarded to caption requests when the vote triggers ingestion"`
}

type MomentSummaryInput struct {
	PageURL   string `json:"page_url,omitempty" jsonschema:"URL of the page hosting the video"`
	MediaURL  string `json:"media_url,omitempty" jsonschema:"Resolved <video> source URL, for non-YouTube pages"`
	ContentID string `json:"content_id,omitempty" jsonschema:"Content id from content_identity; overrides page_url"`
	Limit     int    `json:"limit,omitempty" jsonschema:"Max number of top moments (default: 10)"`
	Window    int    `json:"window,omitempty" jsonschema:"Transcript window in seconds either side of each moment, 2-30 (default: 5)"`
	Snippets  bool   `json:"snippets,omitempty" jsonschema:"Attach transcript snippets to each moment when a transcript is stored"`
}

type MomentSnippetInput struct {
	PageURL     string  `json:"page_url,omitempty" jsonschema:"URL of the page hosting the video"`
	MediaURL    string  `json:"media_url,omitempty" jsonschema:"Resolved <video> source URL, for non-YouTube pages"`
	ContentID   string  `json:"content_id,omitempty" jsonschema:"Content id from content_identity; overrides page_url"`
	TimeSeconds float64 `json:"time_seconds" jsonschema:"Moment position in seconds"`
	Window      int     `json:"window,omitempty" jsonschema:"Seconds either side of the moment, 2-30 (default: 5)"`
}

type MomentExplainInput struct {
	PageURL     string  `json:"page_url,omitempty" jsonschema:"URL of the page hosting the video"`
	MediaURL    string  `json:"media_url,omitempty" jsonschema:"Resolved <video> source URL, for non-YouTube pages"`
	ContentID   string  `json:"content_id,omitempty" jsonschema:"Content id from content_identity; overrides page_url"`
	TimeSeconds float64 `json:"time_seconds" jsonschema:"Moment position in seconds"`
	Window      int     `json:"window,omitempty" jsonschema:"Seconds either side of the moment, 2-30 (default: 10)"`
	Title       string  `json:"title,omitempty" jsonschema:"Video title, improves the explanation"`
}

// --- Session tool inputs ---

type LoginInput struct {
	Token string `json:"token" jsonschema:"Bearer token issued by the identity provider"`
}

type SessionStatusInput struct {
	PageURL   string `json:"page_url,omitempty" jsonschema:"URL of the page hosting the video"`
	MediaURL  string `json:"media_url,omitempty" jsonschema:"Resolved <video> source URL, for non-YouTube pages"`
	ContentID string `json:"content_id,omitempty" jsonschema:"Content id from content_identity; overrides page_url"`
}

type EmptyInput struct{}

func (in MomentVoteInput) Ref() PageRef    { return PageRef{in.PageURL, in.MediaURL, in.ContentID} }
func (in MomentSummaryInput) Ref() PageRef { return PageRef{in.PageURL, in.MediaURL, in.ContentID} }
func (in MomentSnippetInput) Ref() PageRef { return PageRef{in.PageURL, in.MediaURL, in.ContentID} }
func (in MomentExplainInput) Ref() PageRef { return PageRef{in.PageURL, in.MediaURL, in.ContentID} }
func (in SessionStatusInput) Ref() PageRef { return PageRef{in.PageURL, in.MediaURL, in.ContentID} }
