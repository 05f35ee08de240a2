// Package seed loads YAML fixtures into the document, audit and keyword stores.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"adala.org/internal/audit"
	"adala.org/internal/keywords"
	"adala.org/internal/review"
)

//go:embed fixtures/demo.yaml
var demo []byte

// Fixture is the content of a seed file.
type Fixture struct {
	Documents []review.Document  `yaml:"documents"`
	Audit     []audit.Entry      `yaml:"audit"`
	Keywords  []keywords.Keyword `yaml:"keywords"`
}

// Demo returns the built-in demo fixture.
func Demo() (Fixture, error) {
	return Decode(bytes.NewReader(demo))
}

// Decode parses a fixture, rejecting unknown fields.
func Decode(r io.Reader) (Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f Fixture
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return Fixture{}, fmt.Errorf("decode fixture: %w", err)
	}
	return f, f.Validate()
}

// Load reads a fixture file. An empty path selects the demo fixture.
func Load(path string) (Fixture, error) {
	if path == "" {
		return Demo()
	}
	fh, err := os.Open(path)
	if err != nil {
		return Fixture{}, err
	}
	defer fh.Close()
	return Decode(fh)
}

// Validate checks every record of f.
func (f Fixture) Validate() error {
	var errs []error
	seen := make(map[string]struct{}, len(f.Documents))
	for i, d := range f.Documents {
		if d.ID == "" {
			errs = append(errs, fmt.Errorf("documents[%d]: id is required", i))
			continue
		}
		if _, dup := seen[d.ID]; dup {
			errs = append(errs, fmt.Errorf("documents[%d]: duplicate id %s", i, d.ID))
		}
		seen[d.ID] = struct{}{}
		if _, err := review.Normalize(d); err != nil {
			errs = append(errs, fmt.Errorf("documents[%d]: %w", i, err))
		}
	}
	for i, e := range f.Audit {
		if err := e.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("audit[%d]: %w", i, err))
		}
	}
	for i, k := range f.Keywords {
		if err := keywords.Validate(k); err != nil {
			errs = append(errs, fmt.Errorf("keywords[%d]: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// KeywordSeeder is implemented by keyword stores that accept records with
// preset ids and timestamps.
type KeywordSeeder interface {
	Seed(ctx context.Context, k keywords.Keyword) error
}

// Targets are the stores a fixture is applied to; nil targets are skipped.
type Targets struct {
	Documents review.Loader
	Audit     audit.Store
	Keywords  KeywordSeeder
}

// Counts reports how many records were applied per store.
type Counts struct {
	Documents int `json:"documents"`
	Audit     int `json:"audit"`
	Keywords  int `json:"keywords"`
}

// Apply writes f into t. Audit entries already present are skipped.
func Apply(ctx context.Context, f Fixture, t Targets) (Counts, error) {
	var c Counts
	if t.Documents != nil {
		for _, d := range f.Documents {
			if _, err := t.Documents.Upsert(ctx, d); err != nil {
				return c, fmt.Errorf("seed document %s: %w", d.ID, err)
			}
			c.Documents++
		}
	}
	if t.Audit != nil {
		for _, e := range f.Audit {
			err := t.Audit.Append(ctx, e)
			if errors.Is(err, audit.ErrDuplicate) {
				continue
			}
			if err != nil {
				return c, fmt.Errorf("seed audit entry %s: %w", e.ID, err)
			}
			c.Audit++
		}
	}
	if t.Keywords != nil {
		for _, k := range f.Keywords {
			if err := t.Keywords.Seed(ctx, k); err != nil {
				return c, fmt.Errorf("seed keyword %s: %w", k.ID, err)
			}
			c.Keywords++
		}
	}
	return c, nil
}
