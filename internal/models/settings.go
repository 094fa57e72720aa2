package models

import (
	"fmt"

	"golang.org/x/text/language"
)

// Language is the UI locale preference
type Language string

const (
	LanguageEnglish Language = "en-US"
	LanguageChinese Language = "zh-CN"

	DefaultLanguage = LanguageEnglish
)

var languageMatcher = language.NewMatcher([]language.Tag{
	language.AmericanEnglish,
	language.SimplifiedChinese,
})

// ParseLanguage maps a BCP 47 tag ("en", "zh-Hans", "zh-CN", ...) onto one
// of the supported locales.
func ParseLanguage(s string) (Language, error) {
	tag, err := language.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid language tag %q: %w", s, err)
	}

	_, idx, confidence := languageMatcher.Match(tag)
	if confidence == language.No {
		return "", fmt.Errorf("unsupported language: %q (supported: %s, %s)", s, LanguageEnglish, LanguageChinese)
	}
	if idx == 1 {
		return LanguageChinese, nil
	}
	return LanguageEnglish, nil
}
