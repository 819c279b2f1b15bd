// Package assist holds the AI-assisted note editing value objects and the
// deterministic local fallback used when the remote suggestion worker fails.
package assist

import "fmt"

// Operation names an AI capability.
type Operation string

// AI capabilities.
const (
	OperationSuggest  Operation = "suggest"
	OperationOrganize Operation = "organize"
	OperationEdit     Operation = "edit"
)

// Language is a note language code.
type Language string

// Known languages. Other codes reported by the workers are passed through.
const (
	LanguageTurkish Language = "tr"
	LanguageEnglish Language = "en"
	LanguageGerman  Language = "de"
)

// Suggestion is a title/summary proposal for a note.
type Suggestion struct {
	Title     string
	Summary   string
	Language  Language
	WordCount int
	Fallback  bool
}

// NewSuggestion validates an upstream suggestion. Missing language or word count
// are derived from the source text.
func NewSuggestion(title, summary string, lang Language, wordCount int, text string) (Suggestion, error) {
	if title == "" {
		return Suggestion{}, fmt.Errorf("suggestion title is empty")
	}
	if summary == "" {
		return Suggestion{}, fmt.Errorf("suggestion summary is empty")
	}
	if wordCount < 0 {
		return Suggestion{}, fmt.Errorf("suggestion word count is negative: %d", wordCount)
	}
	if lang == "" {
		lang = DetectLanguage(text)
	}
	if wordCount == 0 {
		wordCount = WordCount(text)
	}
	return Suggestion{Title: title, Summary: summary, Language: lang, WordCount: wordCount}, nil
}

// Organized is the result of restructuring note content.
type Organized struct {
	Language      Language
	EditedContent string
}

// NewOrganized validates an upstream organize result.
func NewOrganized(lang Language, edited, text string) (Organized, error) {
	if edited == "" {
		return Organized{}, fmt.Errorf("organized content is empty")
	}
	if lang == "" {
		lang = DetectLanguage(text)
	}
	return Organized{Language: lang, EditedContent: edited}, nil
}

// Edited is the result of copy-editing note content.
type Edited struct {
	Language      Language
	WordCount     int
	EditedContent string
}

// NewEdited validates an upstream edit result.
func NewEdited(lang Language, wordCount int, edited, text string) (Edited, error) {
	if edited == "" {
		return Edited{}, fmt.Errorf("edited content is empty")
	}
	if wordCount < 0 {
		return Edited{}, fmt.Errorf("edited word count is negative: %d", wordCount)
	}
	if lang == "" {
		lang = DetectLanguage(text)
	}
	if wordCount == 0 {
		wordCount = WordCount(text)
	}
	return Edited{Language: lang, WordCount: wordCount, EditedContent: edited}, nil
}
