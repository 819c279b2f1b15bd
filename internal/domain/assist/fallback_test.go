package assist

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestFallback_ShortTurkishNote(t *testing.T) {
	s := Fallback("Kısa bir not.")

	if s.Title != "Kısa bir not" {
		t.Errorf("Title = %q, want %q", s.Title, "Kısa bir not")
	}
	if s.Summary != "Kısa bir not." {
		t.Errorf("Summary = %q, want %q", s.Summary, "Kısa bir not.")
	}
	if s.Language != LanguageTurkish {
		t.Errorf("Language = %q, want tr", s.Language)
	}
	if s.WordCount != 3 {
		t.Errorf("WordCount = %d, want 3", s.WordCount)
	}
	if !s.Fallback {
		t.Error("Fallback flag must be set")
	}
}

func TestFallback_TitleTruncatedToSixty(t *testing.T) {
	sentence := strings.Repeat("abcdefghij", 8) // 80 chars, no terminator
	s := Fallback(sentence + ". Second sentence here.")

	if got := utf8.RuneCountInString(s.Title); got != MaxTitleLength {
		t.Fatalf("title length = %d, want %d", got, MaxTitleLength)
	}
	if !strings.HasSuffix(s.Title, Ellipsis) {
		t.Errorf("title %q must end with ellipsis", s.Title)
	}
	if !strings.HasPrefix(sentence, strings.TrimSuffix(s.Title, Ellipsis)) {
		t.Errorf("title %q is not a prefix of the first sentence", s.Title)
	}
}

func TestFallback_TitleIsFirstNonEmptySentence(t *testing.T) {
	s := Fallback("  ... !?  Meeting notes for Monday! Budget review.")
	if s.Title != "Meeting notes for Monday" {
		t.Errorf("Title = %q", s.Title)
	}
	if s.Language != LanguageEnglish {
		t.Errorf("Language = %q, want en (contains ' for ')", s.Language)
	}
}

func TestFallback_NoSentenceUsesText(t *testing.T) {
	s := Fallback("..........!!!")
	if s.Title != "..........!!!" {
		t.Errorf("Title = %q", s.Title)
	}
	if s.WordCount != 1 {
		t.Errorf("WordCount = %d, want 1", s.WordCount)
	}
}

func TestFallback_SummaryTruncatedToTwoHundred(t *testing.T) {
	text := strings.Repeat("kelime ", 60) // 420 chars
	s := Fallback(text)

	if got := utf8.RuneCountInString(s.Summary); got != MaxSummaryLength {
		t.Fatalf("summary length = %d, want %d", got, MaxSummaryLength)
	}
	if !strings.HasSuffix(s.Summary, Ellipsis) {
		t.Errorf("summary must end with ellipsis")
	}
	if s.WordCount != 60 {
		t.Errorf("WordCount = %d, want 60", s.WordCount)
	}
}

func TestFallback_Deterministic(t *testing.T) {
	text := "The quarterly plan. Hiring and budget for next year!"
	a, b := Fallback(text), Fallback(text)
	if a != b {
		t.Errorf("fallback not deterministic: %+v vs %+v", a, b)
	}
}

func TestFallback_LanguageFromUntrimmedText(t *testing.T) {
	s := Fallback(" the weekly plan is ready")
	if s.Language != LanguageEnglish {
		t.Errorf("Language = %q, want en", s.Language)
	}
	if s.Title != "the weekly plan is ready" {
		t.Errorf("Title = %q", s.Title)
	}
}
