// Package keywords manages the masking keywords and patterns used by the redaction pipeline.
package keywords

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxLength bounds a keyword or pattern, in characters.
const MaxLength = 256

var (
	ErrNotFound      = errors.New("keywords: not found")
	ErrAlreadyExists = errors.New("keywords: keyword already exists for language")
	ErrInvalid       = errors.New("keywords: invalid keyword")
)

// Language is the document language a keyword applies to.
type Language string

const (
	LangArabic  Language = "ar"
	LangEnglish Language = "en"
	LangBoth    Language = "both"
)

// Category groups keywords on the settings page.
type Category string

const (
	CategoryPersonal  Category = "personal"
	CategoryFinancial Category = "financial"
	CategoryLegal     Category = "legal"
	CategoryCustom    Category = "custom"
)

var (
	languages  = []Language{LangArabic, LangEnglish, LangBoth}
	categories = []Category{CategoryPersonal, CategoryFinancial, CategoryLegal, CategoryCustom}
)

// Languages lists the accepted keyword languages.
func Languages() []Language { return append([]Language(nil), languages...) }

// Categories lists the accepted keyword categories.
func Categories() []Category { return append([]Category(nil), categories...) }

// Keyword is a literal string or regular expression masked in documents.
type Keyword struct {
	ID           string    `json:"id" yaml:"id"`
	Keyword      string    `json:"keyword" yaml:"keyword"`
	Language     Language  `json:"language" yaml:"language"`
	IsRegex      bool      `json:"is_regex" yaml:"is_regex"`
	Category     Category  `json:"category" yaml:"category"`
	CreatedBy    string    `json:"created_by" yaml:"created_by"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
	LastModified time.Time `json:"last_modified" yaml:"last_modified"`
}

// AppliesTo reports whether the keyword is used for documents in lang.
func (k Keyword) AppliesTo(lang Language) bool {
	return lang == "" || k.Language == LangBoth || k.Language == lang
}

// ValidationError names the offending input field so callers can show the
// message next to it.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	// Code names the catalog entry validation.<code> describing the failure.
	Code string `json:"code"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

func invalid(field, code, format string, args ...any) error {
	return &ValidationError{Field: field, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Validate checks k before it is persisted. The first failing field is reported.
func Validate(k Keyword) error {
	text := strings.TrimSpace(k.Keyword)
	if text == "" {
		return invalid("keyword", "required", "keyword is required")
	}
	if n := utf8.RuneCountInString(text); n > MaxLength {
		return invalid("keyword", "too_long", "keyword is %d characters, limit is %d", n, MaxLength)
	}
	if !validLanguage(k.Language) {
		return invalid("language", "invalid_value", "language must be one of ar, en, both")
	}
	if !validCategory(k.Category) {
		return invalid("category", "invalid_value", "category must be one of personal, financial, legal, custom")
	}
	if k.IsRegex {
		if _, err := regexp.Compile(text); err != nil {
			return invalid("keyword", "invalid_regex", "invalid regular expression: %v", err)
		}
	}
	return nil
}

func validLanguage(l Language) bool {
	for _, v := range languages {
		if v == l {
			return true
		}
	}
	return false
}

func validCategory(c Category) bool {
	for _, v := range categories {
		if v == c {
			return true
		}
	}
	return false
}

// normalize trims the keyword and applies the form defaults (en, custom).
func normalize(k Keyword) Keyword {
	k.Keyword = strings.TrimSpace(k.Keyword)
	if k.Language == "" {
		k.Language = LangEnglish
	}
	if k.Category == "" {
		k.Category = CategoryCustom
	}
	return k
}
