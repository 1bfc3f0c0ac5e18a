package query

import "strings"

// Placeholder markers, in precedence order.
const (
	MarkerBraces     = "{}"
	MarkerUnderscore = "_"
)

// HasPlaceholder reports whether the text contains an explicit substitution marker.
func HasPlaceholder(text string) bool {
	return strings.Contains(text, MarkerBraces) || strings.Contains(text, MarkerUnderscore)
}

// StripPlaceholder removes the first "{}" and the first "_" and collapses whitespace.
func StripPlaceholder(seed string) string {
	s := strings.Replace(seed, MarkerBraces, "", 1)
	s = strings.Replace(s, MarkerUnderscore, "", 1)
	return strings.Join(strings.Fields(s), " ")
}
