package scoring

import (
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Ellipsis marks a truncated release text.
const Ellipsis = "..."

// CleanText flattens a release for submission: newlines and tabs become
// spaces, whitespace runs collapse to one space, and the result is trimmed.
// The simulation API rejects payloads with embedded control whitespace.
func CleanText(text string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}

// Truncate shortens text to at most max characters plus the ellipsis marker.
// The cut happens at the last word boundary inside the limit so a word is
// never split.
func Truncate(text string, max int) string {
	if max <= 0 || len(text) <= max {
		return text
	}

	cut := text[:max]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + Ellipsis
}
