// Package stream fans review events out to connected dashboards so they can
// refresh affected records.
package stream

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// Event kinds.
const (
	KindDecisionPending    = "decision.pending"
	KindDecisionCommitted  = "decision.committed"
	KindDecisionFailed     = "decision.failed"
	KindDecisionSuperseded = "decision.superseded"
	KindKeywordsChanged    = "keywords.changed"
	KindSettingsChanged    = "settings.changed"
)

// Event tells subscribers that a record changed or is about to change.
type Event struct {
	Seq        uint64    `json:"seq"`
	Kind       string    `json:"kind"`
	DocumentID string    `json:"document_id,omitempty"`
	Status     string    `json:"status,omitempty"`
	Previous   string    `json:"previous,omitempty"`
	Decision   string    `json:"decision,omitempty"`
	Actor      string    `json:"actor,omitempty"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// HistorySize is how many recent events are kept for reconnecting subscribers.
const HistorySize = 256

const subscriberBuffer = 16

// Stream fan-outs events to all active subscribers (SSE clients).
type Stream struct {
	mu      sync.RWMutex
	subs    map[int]chan Event
	next    int
	seq     uint64
	history []Event
	dropped atomic.Uint64
	now     func() time.Time
}

// New initialises an empty stream.
func New() *Stream {
	return &Stream{
		subs: make(map[int]chan Event),
		now:  time.Now,
	}
}

// Subscribe registers a subscriber and returns a channel which will receive events.
// The channel is closed when the provided context ends.
func (s *Stream) Subscribe(ctx context.Context) <-chan Event {
	return s.SubscribeAfter(ctx, 0)
}

// SubscribeAfter is Subscribe preceded by a replay of the retained events with
// a sequence number above after. after 0 replays nothing.
func (s *Stream) SubscribeAfter(ctx context.Context, after uint64) <-chan Event {
	s.mu.Lock()
	var replay []Event
	if after > 0 {
		for _, evt := range s.history {
			if evt.Seq > after {
				replay = append(replay, evt)
			}
		}
	}
	ch := make(chan Event, subscriberBuffer+len(replay))
	for _, evt := range replay {
		ch <- evt
	}
	id := s.next
	s.next++
	s.subs[id] = ch
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		close(ch)
		s.mu.Unlock()
	}()

	return ch
}

// Publish stamps evt with the next sequence number and fan-outs it.
// Slow subscribers miss events rather than block the publisher.
func (s *Stream) Publish(evt Event) Event {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = s.now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	evt.Seq = s.seq
	s.history = append(s.history, evt)
	if len(s.history) > HistorySize {
		s.history = slices.Delete(s.history, 0, len(s.history)-HistorySize)
	}
	for _, ch := range s.subs {
		select {
		case ch <- evt:
		default:
			s.dropped.Add(1)
		}
	}
	return evt
}

// Subscribers returns the number of connected subscribers.
func (s *Stream) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// Dropped returns how many deliveries were skipped for slow subscribers.
func (s *Stream) Dropped() uint64 { return s.dropped.Load() }
