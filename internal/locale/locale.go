// Package locale resolves the active language and layout direction and renders
// every user-visible label from a single key-based catalog.
package locale

import (
	"strings"
	"sync"

	"golang.org/x/text/language"
)

// Lang is a supported interface language.
type Lang string

const (
	Arabic  Lang = "ar"
	English Lang = "en"
)

// Direction is the text/layout direction of a language.
type Direction string

const (
	RTL Direction = "rtl"
	LTR Direction = "ltr"
)

var supported = []Lang{English, Arabic}

var matcher = language.NewMatcher([]language.Tag{language.English, language.Arabic})

// ParseLang accepts "ar"/"en" and region or script variants such as "ar-SA" or "en_US".
func ParseLang(s string) (Lang, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", false
	}
	if i := strings.IndexAny(s, "-_"); i > 0 {
		s = s[:i]
	}
	switch Lang(s) {
	case Arabic:
		return Arabic, true
	case English:
		return English, true
	}
	return "", false
}

// Valid reports whether l is one of the supported languages.
func (l Lang) Valid() bool {
	return l == Arabic || l == English
}

// Direction returns rtl for Arabic and ltr otherwise.
func (l Lang) Direction() Direction {
	if l == Arabic {
		return RTL
	}
	return LTR
}

// IsRTL reports whether the language is laid out right-to-left.
func (l Lang) IsRTL() bool { return l.Direction() == RTL }

// Tag returns the BCP 47 tag of the language.
func (l Lang) Tag() language.Tag {
	if l == Arabic {
		return language.Arabic
	}
	return language.English
}

// Other returns the opposite language.
func (l Lang) Other() Lang {
	if l == Arabic {
		return English
	}
	return Arabic
}

// Negotiate picks the response language: an explicit value (query parameter) wins,
// then the best Accept-Language match, then def.
func Negotiate(explicit, acceptLanguage string, def Lang) Lang {
	if l, ok := ParseLang(explicit); ok {
		return l
	}
	if !def.Valid() {
		def = English
	}
	if strings.TrimSpace(acceptLanguage) == "" {
		return def
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return def
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No || idx < 0 || idx >= len(supported) {
		return def
	}
	return supported[idx]
}

// Selector holds the process-wide language state. There is no per-component override:
// every renderer reads the language from here or from a value derived from it.
type Selector struct {
	mu   sync.RWMutex
	lang Lang
}

// NewSelector returns a selector starting at def (English when def is unsupported).
func NewSelector(def Lang) *Selector {
	if !def.Valid() {
		def = English
	}
	return &Selector{lang: def}
}

// Language returns the active language.
func (s *Selector) Language() Lang {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lang
}

// IsRTL reports whether the active language is right-to-left.
func (s *Selector) IsRTL() bool { return s.Language().IsRTL() }

// Set switches to l; unsupported values are ignored and reported as false.
func (s *Selector) Set(l Lang) bool {
	if !l.Valid() {
		return false
	}
	s.mu.Lock()
	s.lang = l
	s.mu.Unlock()
	return true
}

// Toggle flips between Arabic and English and returns the new language.
func (s *Selector) Toggle() Lang {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lang = s.lang.Other()
	return s.lang
}

// Text is a string carried in both languages, e.g. audit details.
type Text struct {
	AR string `json:"ar" yaml:"ar"`
	EN string `json:"en" yaml:"en"`
}

// In returns the variant for l, falling back to the other language when empty.
func (t Text) In(l Lang) string {
	if l == Arabic {
		if t.AR != "" {
			return t.AR
		}
		return t.EN
	}
	if t.EN != "" {
		return t.EN
	}
	return t.AR
}

// Complete reports whether both variants are present.
func (t Text) Complete() bool {
	return strings.TrimSpace(t.AR) != "" && strings.TrimSpace(t.EN) != ""
}
