// Package settings holds the AI processing options administrators tune
// alongside the masking keywords.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"adala.org/internal/review"
)

var ErrInvalid = errors.New("settings: invalid value")

const (
	MinThreshold = 1
	MaxThreshold = 100
)

// Settings is the single system-wide AI configuration record.
type Settings struct {
	// AIThreshold is the confidence percentage below which documents need manual review.
	AIThreshold int       `json:"ai_threshold"`
	AutoPublish bool      `json:"auto_publish"`
	StrictMode  bool      `json:"strict_mode"`
	UpdatedBy   string    `json:"updated_by,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Defaults returns the settings in force before anyone saves the page.
func Defaults() Settings {
	return Settings{AIThreshold: review.DefaultConfidenceThreshold, StrictMode: true}
}

// Patch changes selected settings; nil fields are left alone.
type Patch struct {
	AIThreshold *int  `json:"ai_threshold,omitempty"`
	AutoPublish *bool `json:"auto_publish,omitempty"`
	StrictMode  *bool `json:"strict_mode,omitempty"`
}

func (p Patch) Empty() bool {
	return p.AIThreshold == nil && p.AutoPublish == nil && p.StrictMode == nil
}

func (p Patch) Apply(s Settings) Settings {
	if p.AIThreshold != nil {
		s.AIThreshold = *p.AIThreshold
	}
	if p.AutoPublish != nil {
		s.AutoPublish = *p.AutoPublish
	}
	if p.StrictMode != nil {
		s.StrictMode = *p.StrictMode
	}
	return s
}

// ValidationError names the offending field. Code matches the
// validation.<code> catalog entry.
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

func Validate(s Settings) error {
	if s.AIThreshold < MinThreshold || s.AIThreshold > MaxThreshold {
		return &ValidationError{
			Field:   "ai_threshold",
			Code:    "out_of_range",
			Message: fmt.Sprintf("ai_threshold must be within %d-%d, got %d", MinThreshold, MaxThreshold, s.AIThreshold),
		}
	}
	return nil
}

// Store persists the settings record.
type Store interface {
	Get(ctx context.Context) (Settings, error)
	// Update applies p, validates the result and stamps it with by and the current time.
	Update(ctx context.Context, p Patch, by string) (Settings, error)
}

// InMemory is a process-local Store.
type InMemory struct {
	mu  sync.RWMutex
	cur Settings
	now func() time.Time
}

// NewInMemory returns a store starting from initial.
func NewInMemory(initial Settings) *InMemory {
	return &InMemory{cur: initial, now: time.Now}
}

func (s *InMemory) Get(_ context.Context) (Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur, nil
}

func (s *InMemory) Update(_ context.Context, p Patch, by string) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Empty() {
		return s.cur, nil
	}
	next := p.Apply(s.cur)
	if err := Validate(next); err != nil {
		return Settings{}, err
	}
	next.UpdatedBy = strings.TrimSpace(by)
	next.UpdatedAt = s.now().UTC()
	s.cur = next
	return next, nil
}
