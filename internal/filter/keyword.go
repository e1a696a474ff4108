package filter

import (
	"strings"
)

// isDelimiter reports whether r separates keywords: '|', ',' or the full-width '，'
func isDelimiter(r rune) bool {
	return r == '|' || r == ',' || r == '，'
}

// SplitKeywords splits a raw rule into trimmed, lowercased, non-empty keywords
func SplitKeywords(raw string) []string {
	var keywords []string
	for _, part := range strings.FieldsFunc(raw, isDelimiter) {
		kw := strings.ToLower(strings.TrimSpace(part))
		if kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return keywords
}

// matchAny reports whether text contains at least one keyword, case-insensitively.
// An empty keyword list matches everything.
func matchAny(text string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}

	textLower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(textLower, kw) {
			return true
		}
	}

	return false
}
