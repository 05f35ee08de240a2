package keywords

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func seed() []Keyword {
	day := func(s string) time.Time {
		t, _ := time.Parse(time.DateOnly, s)
		return t
	}
	return []Keyword{
		{ID: "1", Keyword: "رقم الهوية", Language: LangArabic, Category: CategoryPersonal, CreatedBy: "أحمد محمد", CreatedAt: day("2024-01-01"), LastModified: day("2024-01-05")},
		{ID: "2", Keyword: `\d{2,8}\-\d{4}\-\d{7}`, Language: LangBoth, IsRegex: true, Category: CategoryPersonal, CreatedBy: "System", CreatedAt: day("2024-01-01"), LastModified: day("2024-01-01")},
		{ID: "3", Keyword: "Social Security", Language: LangEnglish, Category: CategoryPersonal, CreatedBy: "Sarah Johnson", CreatedAt: day("2024-01-03"), LastModified: day("2024-01-03")},
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name  string
		kw    Keyword
		field string
	}{
		{"empty", Keyword{Keyword: "  ", Language: LangEnglish, Category: CategoryCustom}, "keyword"},
		{"too long", Keyword{Keyword: strings.Repeat("ك", MaxLength+1), Language: LangArabic, Category: CategoryCustom}, "keyword"},
		{"bad regex", Keyword{Keyword: "([a-z", IsRegex: true, Language: LangEnglish, Category: CategoryCustom}, "keyword"},
		{"bad language", Keyword{Keyword: "x", Language: "fr", Category: CategoryCustom}, "language"},
		{"bad category", Keyword{Keyword: "x", Language: LangBoth, Category: "medical"}, "category"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.kw)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tc.field {
				t.Fatalf("field = %q, want %q", verr.Field, tc.field)
			}
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected errors.Is ErrInvalid")
			}
		})
	}
	if err := Validate(Keyword{Keyword: "([a-z", Language: LangEnglish, Category: CategoryCustom}); err != nil {
		t.Fatalf("literal with regex metacharacters should be valid: %v", err)
	}
}

func TestInMemoryCRUD(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory(seed()...)
	clock := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	k, err := s.Create(ctx, Draft{Keyword: "  IBAN ", Category: CategoryFinancial, CreatedBy: "admin"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if k.Keyword != "IBAN" || k.Language != LangEnglish || !k.CreatedAt.Equal(clock) {
		t.Fatalf("unexpected keyword: %+v", k)
	}
	if _, err := s.Create(ctx, Draft{Keyword: "iban", Language: LangEnglish}); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if _, err := s.Create(ctx, Draft{Keyword: "iban", Language: LangArabic}); err != nil {
		t.Fatalf("same text in another language should be allowed: %v", err)
	}

	clock = clock.Add(time.Hour)
	cat := CategoryLegal
	updated, err := s.Update(ctx, k.ID, Patch{Category: &cat})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Category != CategoryLegal || !updated.LastModified.Equal(clock) || !updated.CreatedAt.Equal(k.CreatedAt) {
		t.Fatalf("unexpected update: %+v", updated)
	}

	isRegex := true
	bad := "([a-z"
	if _, err := s.Update(ctx, k.ID, Patch{Keyword: &bad, IsRegex: &isRegex}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got, _ := s.Get(ctx, k.ID); got.Keyword != "IBAN" {
		t.Fatalf("failed update must not change the keyword: %+v", got)
	}

	list, _ := s.List(ctx)
	if len(list) != 5 || list[0].ID != "1" || list[1].ID != "2" {
		t.Fatalf("unexpected list order: %v", list)
	}

	if err := s.Delete(ctx, k.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, k.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.Update(ctx, "missing", Patch{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMatcher(t *testing.T) {
	m, err := Compile(seed())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	text := "Case 12-2024-1234567 lists the social security number"
	hits := m.Match(text, LangEnglish)
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %+v", hits)
	}
	if hits[0].KeywordID != "2" || hits[0].Text != "12-2024-1234567" {
		t.Fatalf("unexpected first hit: %+v", hits[0])
	}
	if hits[1].KeywordID != "3" || hits[1].Text != "social security" {
		t.Fatalf("unexpected second hit: %+v", hits[1])
	}
	if got := m.Match(text, LangArabic); len(got) != 1 {
		t.Fatalf("arabic documents should only use ar/both keywords, got %+v", got)
	}

	masked := m.Mask("رقم الهوية: 12-2024-1234567", LangArabic, '*')
	if masked != "**********: ***************" {
		t.Fatalf("unexpected mask %q", masked)
	}
}

func TestCompileRejectsInvalid(t *testing.T) {
	_, err := Compile([]Keyword{{ID: "x", Keyword: "(", IsRegex: true, Language: LangBoth, Category: CategoryCustom}})
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}
