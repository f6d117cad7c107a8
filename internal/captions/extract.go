package captions

import "strings"

// ExtractJSONAfter returns the first balanced {...} object that follows marker in text.
// Braces inside JSON strings are ignored. Returns nil when marker or a closed object is missing.
func ExtractJSONAfter(text, marker string) []byte {
	idx := strings.Index(text, marker)
	if idx < 0 {
		return nil
	}
	start := strings.IndexByte(text[idx+len(marker):], '{')
	if start < 0 {
		return nil
	}
	return extractJSON([]byte(text[idx+len(marker)+start:]))
}

// extractJSON scans b (which must start with '{') counting brace depth.
func extractJSON(b []byte) []byte {
	if len(b) == 0 || b[0] != '{' {
		return nil
	}
	depth := 0
	inStr := false
	escaped := false
	for i, c := range b {
		if inStr {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return b[:i+1]
			}
		}
	}
	return nil
}
