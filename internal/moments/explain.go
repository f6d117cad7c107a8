package moments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anatolykoptev/go_moments/internal/engine"
)

const (
	explainMaxInput  = 4000
	explainMaxTokens = 400
)

const explainSystem = `You summarize short video transcript excerpts.
Viewers voted this moment as interesting. In 2-3 sentences say what is said
and why it might stand out. Answer in the transcript's language. No preamble.`

// ErrEmptySnippet means there is no transcript text around the moment.
var ErrEmptySnippet = errors.New("no transcript text in this window")

// Explain asks the configured LLM to describe what happens in the snippet.
func Explain(ctx context.Context, title string, s Snippet) (string, error) {
	if len(s.Segments) == 0 {
		return "", ErrEmptySnippet
	}
	text := engine.TruncateAtWord(s.Plain(), explainMaxInput)

	var prompt strings.Builder
	if title != "" {
		fmt.Fprintf(&prompt, "Video: %s\n", title)
	}
	fmt.Fprintf(&prompt, "Moment at %s (window %s)\n\n%s", FormatClock(float64(s.Center)), s.Range, text)

	out, err := engine.CallLLM(ctx, explainSystem, prompt.String(), explainMaxTokens)
	if err != nil {
		return "", fmt.Errorf("explain moment: %w", err)
	}
	return strings.TrimSpace(out), nil
}
