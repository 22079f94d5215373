package lang

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Auto is the language selector value meaning "detect per chunk".
const Auto = "auto"

// UICodes lists the language choices offered by the web form, in display order.
var UICodes = []string{Auto, "es", "en", "fr", "de", "it", "pt"}

// validLanguages contains ISO 639-1 codes that Whisper models transcribe.
// This is not exhaustive but covers the most common languages.
var validLanguages = map[string]bool{
	"af": true, // Afrikaans
	"ar": true, // Arabic
	"bg": true, // Bulgarian
	"bn": true, // Bengali
	"ca": true, // Catalan
	"cs": true, // Czech
	"da": true, // Danish
	"de": true, // German
	"el": true, // Greek
	"en": true, // English
	"es": true, // Spanish
	"et": true, // Estonian
	"fa": true, // Persian
	"fi": true, // Finnish
	"fr": true, // French
	"gu": true, // Gujarati
	"he": true, // Hebrew
	"hi": true, // Hindi
	"hr": true, // Croatian
	"hu": true, // Hungarian
	"id": true, // Indonesian
	"it": true, // Italian
	"ja": true, // Japanese
	"kn": true, // Kannada
	"ko": true, // Korean
	"lt": true, // Lithuanian
	"lv": true, // Latvian
	"mk": true, // Macedonian
	"ml": true, // Malayalam
	"mr": true, // Marathi
	"ms": true, // Malay
	"nl": true, // Dutch
	"no": true, // Norwegian
	"pa": true, // Punjabi
	"pl": true, // Polish
	"pt": true, // Portuguese
	"ro": true, // Romanian
	"ru": true, // Russian
	"sk": true, // Slovak
	"sl": true, // Slovenian
	"sr": true, // Serbian
	"sv": true, // Swedish
	"sw": true, // Swahili
	"ta": true, // Tamil
	"te": true, // Telugu
	"th": true, // Thai
	"tl": true, // Tagalog
	"tr": true, // Turkish
	"uk": true, // Ukrainian
	"ur": true, // Urdu
	"vi": true, // Vietnamese
	"zh": true, // Chinese
}

// Option is one entry of the language selector.
type Option struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Options returns the language selector entries. Names are given in the
// language itself ("Español", "Français"), so users recognize their own.
func Options() []Option {
	opts := make([]Option, 0, len(UICodes))
	for _, code := range UICodes {
		opts = append(opts, Option{Code: code, Name: DisplayName(code)})
	}
	return opts
}

// Offered reports whether lang is one of UICodes.
func Offered(lang string) bool {
	normalized := Normalize(strings.TrimSpace(lang))
	for _, code := range UICodes {
		if normalized == code {
			return true
		}
	}
	return false
}

// Normalize normalizes a language code to lowercase with hyphen separator.
// Accepts: "pt-BR", "pt_BR", "PT-BR", "pt-br" -> "pt-br"
func Normalize(lang string) string {
	return strings.ToLower(strings.ReplaceAll(lang, "_", "-"))
}

// Hint converts a selector value into an engine language hint.
// "auto" and "" both mean automatic detection and yield "".
func Hint(lang string) string {
	normalized := Normalize(strings.TrimSpace(lang))
	if normalized == Auto {
		return ""
	}
	return BaseCode(normalized)
}

// Validate checks if the language code is valid.
// Accepts "auto", ISO 639-1 codes (e.g., "en", "fr") and locales (e.g., "pt-BR").
// Returns ErrInvalid if the tag is malformed or its base language is not supported.
func Validate(lang string) error {
	normalized := Normalize(lang)
	if normalized == "" || normalized == Auto {
		return nil
	}

	if _, err := language.Parse(normalized); err != nil {
		return fmt.Errorf("invalid language code %q (use ISO 639-1 codes like 'en', 'fr', 'pt-BR'): %w",
			lang, ErrInvalid)
	}

	// The base is compared as written: Parse canonicalizes some legacy
	// codes ("tl" -> "fil") that Whisper still expects verbatim.
	if !validLanguages[BaseCode(normalized)] {
		return fmt.Errorf("unsupported language %q (use ISO 639-1 codes like 'en', 'fr', 'pt-BR'): %w",
			lang, ErrInvalid)
	}
	return nil
}

// BaseCode extracts the ISO 639-1 base language code from a locale.
// Whisper only accepts base codes, not regional variants.
// Examples: "pt-BR" -> "pt", "zh-CN" -> "zh", "en" -> "en"
func BaseCode(lang string) string {
	normalized := Normalize(lang)
	if normalized == "" {
		return ""
	}
	if idx := strings.Index(normalized, "-"); idx != -1 {
		return normalized[:idx]
	}
	return normalized
}

// DisplayName returns the name of a language in that language, title-cased.
// "auto" yields "Auto". Unknown codes are returned unchanged.
func DisplayName(lang string) string {
	normalized := Normalize(lang)
	if normalized == Auto {
		return "Auto"
	}

	tag, err := language.Parse(normalized)
	if err != nil {
		return lang
	}
	name := display.Self.Name(tag)
	if name == "" {
		return lang
	}
	return cases.Title(tag).String(name)
}
