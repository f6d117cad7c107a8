package engine

import (
	"strings"

	"github.com/anatolykoptev/go-kit/strutil"
)

// UserAgentBot identifies this server to the moments backend.
const UserAgentBot = "GoMoments/1.0"

// NormLang normalises a preferred caption language: empty string → configured default.
func NormLang(lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return cfg.PreferredLang
	}
	return lang
}

// TruncateRunes caps s at limit runes, appending suffix if truncated.
// Pass suffix="" for no suffix. Safe for UTF-8 (Cyrillic, CJK, emoji).
func TruncateRunes(s string, limit int, suffix string) string {
	return strutil.TruncateWith(s, limit, suffix)
}

// TruncateAtWord truncates a string to maxLen runes at a word boundary.
func TruncateAtWord(s string, maxLen int) string {
	return strutil.TruncateAtWord(s, maxLen)
}
