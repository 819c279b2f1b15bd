package assist

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/notesearch/internal/domain"
)

// Text limits.
const (
	// MinTextLength is the minimum trimmed length (in characters) accepted by every capability.
	MinTextLength = 10
	// MaxTitleLength bounds the fallback title, ellipsis included.
	MaxTitleLength = 60
	// MaxSummaryLength bounds the fallback summary, ellipsis included.
	MaxSummaryLength = 200
	// Ellipsis marks truncated fallback text.
	Ellipsis = "..."
)

// englishMarkers are the standalone tokens that flag English text.
var englishMarkers = []string{" the ", " and ", " for "}

// NormalizeText trims the input and enforces MinTextLength.
func NormalizeText(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if n := utf8.RuneCountInString(trimmed); n < MinTextLength {
		return "", fmt.Errorf("%w: text must be at least %d characters, got %d", domain.ErrInvalidInput, MinTextLength, n)
	}
	return trimmed, nil
}

// WordCount returns the number of whitespace-delimited non-empty tokens.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// DetectLanguage guesses en when an English marker token appears, tr otherwise.
func DetectLanguage(text string) Language {
	lower := strings.ToLower(text)
	for _, m := range englishMarkers {
		if strings.Contains(lower, m) {
			return LanguageEnglish
		}
	}
	return LanguageTurkish
}

// Truncate shortens s to at most limit characters, replacing the tail with Ellipsis.
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	keep := limit - utf8.RuneCountInString(Ellipsis)
	if keep < 0 {
		keep = 0
	}
	runes := []rune(s)
	return string(runes[:keep]) + Ellipsis
}

// FirstSentence returns the first non-empty sentence, split on '.', '!' and '?'.
func FirstSentence(text string) string {
	sentences := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	for _, s := range sentences {
		if t := strings.TrimSpace(s); t != "" {
			return t
		}
	}
	return ""
}
