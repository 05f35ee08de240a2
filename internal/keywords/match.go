package keywords

import (
	"fmt"
	"regexp"
	"sort"
)

// Hit is one occurrence of a keyword in a text. Offsets are byte offsets.
type Hit struct {
	KeywordID string   `json:"keyword_id"`
	Category  Category `json:"category"`
	Text      string   `json:"text"`
	Start     int      `json:"start"`
	End       int      `json:"end"`
}

type compiled struct {
	kw Keyword
	re *regexp.Regexp
}

// Matcher finds keyword occurrences. Literal keywords match case-insensitively.
type Matcher struct {
	rules []compiled
}

// Compile builds a Matcher over ks. It fails on the first invalid keyword.
func Compile(ks []Keyword) (*Matcher, error) {
	m := &Matcher{rules: make([]compiled, 0, len(ks))}
	for _, k := range ks {
		if err := Validate(k); err != nil {
			return nil, fmt.Errorf("keyword %s: %w", k.ID, err)
		}
		pattern := "(?i)" + regexp.QuoteMeta(k.Keyword)
		if k.IsRegex {
			pattern = k.Keyword
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("keyword %s: %w", k.ID, err)
		}
		m.rules = append(m.rules, compiled{kw: k, re: re})
	}
	return m, nil
}

// Match returns every hit in text for keywords applying to lang ("" for any),
// ordered by position.
func (m *Matcher) Match(text string, lang Language) []Hit {
	var hits []Hit
	for _, r := range m.rules {
		if !r.kw.AppliesTo(lang) {
			continue
		}
		for _, loc := range r.re.FindAllStringIndex(text, -1) {
			if loc[0] == loc[1] {
				continue
			}
			hits = append(hits, Hit{
				KeywordID: r.kw.ID,
				Category:  r.kw.Category,
				Text:      text[loc[0]:loc[1]],
				Start:     loc[0],
				End:       loc[1],
			})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Start < hits[j].Start })
	return hits
}

// Mask replaces every hit in text with the given rune repeated per character.
func (m *Matcher) Mask(text string, lang Language, mask rune) string {
	hits := m.Match(text, lang)
	if len(hits) == 0 {
		return text
	}
	out := make([]rune, 0, len(text))
	pos := 0
	for _, h := range hits {
		if h.Start < pos {
			if h.End > pos {
				for range []rune(text[pos:h.End]) {
					out = append(out, mask)
				}
				pos = h.End
			}
			continue
		}
		out = append(out, []rune(text[pos:h.Start])...)
		for range []rune(text[h.Start:h.End]) {
			out = append(out, mask)
		}
		pos = h.End
	}
	out = append(out, []rune(text[pos:])...)
	return string(out)
}
