package model

import "golang.org/x/text/language"

// Language is the detected language of a review text.
type Language int

const (
	// LanguageFrench is assigned to every review without Arabic script.
	LanguageFrench Language = iota

	// LanguageArabic is assigned when the text contains at least one
	// character in the Arabic block (U+0600 to U+06FF).
	LanguageArabic
)

// String returns the human-readable language name.
func (l Language) String() string {
	switch l {
	case LanguageFrench:
		return "French"
	case LanguageArabic:
		return "Arabic"
	default:
		return "Unknown"
	}
}

// Tag returns the BCP 47 tag of the language.
func (l Language) Tag() language.Tag {
	switch l {
	case LanguageArabic:
		return language.Arabic
	default:
		return language.French
	}
}

// MarshalText implements encoding.TextMarshaler so JSON output carries the tag.
func (l Language) MarshalText() ([]byte, error) {
	return []byte(l.Tag().String()), nil
}

// Review is a single customer review attached to a location.
// Reviews never exist without the Location they were read from.
type Review struct {
	// Text is the review body as displayed.
	Text string `json:"text"`

	// Date is the relative date text as displayed (e.g., "il y a 2 mois").
	Date string `json:"date"`

	// Language is derived from Text.
	Language Language `json:"language"`
}
