package settings

import (
	"context"
	"errors"
	"testing"
	"time"
)

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func TestDefaults(t *testing.T) {
	d := Defaults()
	if d.AIThreshold != 70 || d.AutoPublish || !d.StrictMode {
		t.Fatalf("unexpected defaults: %+v", d)
	}
	if err := Validate(d); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestUpdateAppliesPatchAndStamps(t *testing.T) {
	s := NewInMemory(Defaults())
	fixed := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	got, err := s.Update(context.Background(), Patch{AIThreshold: intPtr(85), AutoPublish: boolPtr(true)}, " Sara ")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.AIThreshold != 85 || !got.AutoPublish || !got.StrictMode {
		t.Fatalf("unexpected settings: %+v", got)
	}
	if got.UpdatedBy != "Sara" || !got.UpdatedAt.Equal(fixed) {
		t.Fatalf("unexpected stamp: %q %v", got.UpdatedBy, got.UpdatedAt)
	}
	stored, _ := s.Get(context.Background())
	if stored != got {
		t.Fatalf("stored = %+v, want %+v", stored, got)
	}
}

func TestUpdateRejectsOutOfRangeThreshold(t *testing.T) {
	for _, v := range []int{0, -5, 101} {
		s := NewInMemory(Defaults())
		_, err := s.Update(context.Background(), Patch{AIThreshold: intPtr(v)}, "admin")
		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Field != "ai_threshold" || !errors.Is(err, ErrInvalid) {
			t.Fatalf("threshold %d: expected ai_threshold ValidationError, got %v", v, err)
		}
		if cur, _ := s.Get(context.Background()); cur.AIThreshold != 70 {
			t.Fatalf("threshold %d: store changed to %d", v, cur.AIThreshold)
		}
	}
}

func TestEmptyPatchLeavesStampAlone(t *testing.T) {
	s := NewInMemory(Defaults())
	got, err := s.Update(context.Background(), Patch{}, "admin")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.UpdatedBy != "" || !got.UpdatedAt.IsZero() {
		t.Fatalf("empty patch stamped settings: %+v", got)
	}
}
