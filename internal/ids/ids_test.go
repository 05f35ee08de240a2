package ids

import (
	"strings"
	"testing"
	"time"
)

func TestNewIsMonotonic(t *testing.T) {
	prev := New()
	for i := 0; i < 100; i++ {
		next := New()
		if next <= prev {
			t.Fatalf("ids not increasing: %s <= %s", next, prev)
		}
		prev = next
	}
}

func TestPrefixedAndTime(t *testing.T) {
	at := time.Date(2024, 1, 10, 15, 30, 0, 0, time.UTC)
	id := NewAt(at)
	got, ok := Time(id)
	if !ok || !got.Equal(at) {
		t.Fatalf("Time(%s)=%v,%v want %v", id, got, ok, at)
	}

	p := Prefixed("KW")
	if !strings.HasPrefix(p, "kw_") {
		t.Fatalf("unexpected prefix: %s", p)
	}
	if _, ok := Time(p); !ok {
		t.Fatalf("prefixed id should carry a timestamp: %s", p)
	}
	if _, ok := Time("not-an-id"); ok {
		t.Fatal("expected parse failure")
	}
}
