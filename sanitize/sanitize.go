package sanitize

import (
	"html"
	"strings"
)

// blockedSchemes are URL schemes that must never reach an href or src attribute.
var blockedSchemes = []string{"javascript:", "data:"}

// textEscaper matches how a browser serializes a text node.
var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\u00a0", "&nbsp;")

// HTML escapes a string for safe embedding as element content. Quotes are
// left alone; use Attr inside attribute values.
// Non-string values produce an empty string.
func HTML(value any) string {
	s, ok := value.(string)
	if !ok {
		return ""
	}
	return textEscaper.Replace(s)
}

// Attr escapes a string for a double- or single-quoted attribute value.
func Attr(value any) string {
	s, ok := value.(string)
	if !ok {
		return ""
	}
	return html.EscapeString(s)
}

// URL trims the value and rejects javascript: and data: URLs.
// Anything else is returned trimmed but otherwise untouched.
func URL(value any) string {
	s, ok := value.(string)
	if !ok {
		return ""
	}

	trimmed := strings.TrimSpace(s)
	lower := strings.ToLower(trimmed)
	for _, scheme := range blockedSchemes {
		if strings.HasPrefix(lower, scheme) {
			return ""
		}
	}
	return trimmed
}
