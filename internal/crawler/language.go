package crawler

import "github.com/nao1215/reviewscan/internal/model"

// Bounds of the Arabic Unicode block.
const (
	arabicFirst = '\u0600'
	arabicLast  = '\u06FF'
)

// DetectLanguage classifies text as Arabic when it contains at least one
// rune in U+0600..U+06FF, and as French otherwise.
func DetectLanguage(text string) model.Language {
	for _, r := range text {
		if r >= arabicFirst && r <= arabicLast {
			return model.LanguageArabic
		}
	}
	return model.LanguageFrench
}
