package assist

import "strings"

// Fallback derives a degraded suggestion locally from the raw text.
// It is deterministic: equal inputs always produce equal suggestions.
func Fallback(text string) Suggestion {
	trimmed := strings.TrimSpace(text)

	title := FirstSentence(trimmed)
	if title == "" {
		title = trimmed
	}

	return Suggestion{
		Title:     Truncate(title, MaxTitleLength),
		Summary:   Truncate(trimmed, MaxSummaryLength),
		Language:  DetectLanguage(text),
		WordCount: WordCount(trimmed),
		Fallback:  true,
	}
}
