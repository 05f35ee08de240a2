package review

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"adala.org/internal/audit"
	"adala.org/internal/auth"
	"adala.org/internal/locale"
	"adala.org/internal/obs"
	"adala.org/internal/stream"
)

// maxCommitAttempts bounds version-conflict retries of the current decision.
const maxCommitAttempts = 3

// Outcome is the result of one decision on one document.
type Outcome struct {
	DocumentID string   `json:"document_id"`
	Decision   Decision `json:"decision"`
	Previous   Status   `json:"previous,omitempty"`
	Status     Status   `json:"status,omitempty"`
	Success    bool     `json:"success"`
	// Noop is set when the document already had the target status.
	Noop bool `json:"noop,omitempty"`
	// Conflict is set when a newer decision superseded this one.
	Conflict bool      `json:"conflict,omitempty"`
	Error    string    `json:"error,omitempty"`
	Document *Document `json:"document,omitempty"`

	err error
}

// Err returns the failure cause, nil on success.
func (o Outcome) Err() error { return o.err }

func failed(id string, d Decision, err error) Outcome {
	return Outcome{
		DocumentID: id,
		Decision:   d,
		Conflict:   errors.Is(err, ErrSuperseded),
		Error:      err.Error(),
		err:        err,
	}
}

type ticket struct {
	seq        uint64
	decision   Decision
	superseded bool
	done       chan struct{}
	out        Outcome
}

// Dispatcher applies decisions: it persists the new status, appends the audit
// entry and tells stream subscribers to refresh. While a decision is in flight
// its document is reported as pending. A repeat of the in-flight decision joins
// it and shares its outcome; a different decision for the same document
// supersedes the first unless the first already committed.
type Dispatcher struct {
	store    Store
	recorder *audit.Recorder
	events   *stream.Stream

	mu       sync.Mutex
	seq      uint64
	inflight map[string]*ticket
}

// NewDispatcher wires a dispatcher. events may be nil.
func NewDispatcher(store Store, recorder *audit.Recorder, events *stream.Stream) *Dispatcher {
	return &Dispatcher{
		store:    store,
		recorder: recorder,
		events:   events,
		inflight: make(map[string]*ticket),
	}
}

// Store returns the document store decisions are written to.
func (d *Dispatcher) Store() Store { return d.store }

// Pending returns the decisions currently in flight, keyed by document id.
func (d *Dispatcher) Pending() map[string]Decision {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]Decision, len(d.inflight))
	for id, t := range d.inflight {
		out[id] = t.decision
	}
	return out
}

// Decide applies decision to one document. Issuing a decision whose target is
// already the document's status succeeds without writing anything.
func (d *Dispatcher) Decide(ctx context.Context, id string, decision Decision) Outcome {
	target, ok := decision.Target()
	if !ok {
		return failed(id, decision, fmt.Errorf("%w: %q", ErrInvalidDecision, decision))
	}
	t, leader := d.begin(id, decision)
	if !leader {
		return d.join(ctx, id, t)
	}
	obs.DecisionStarted()
	defer obs.DecisionFinished()
	d.publish(ctx, stream.Event{Kind: stream.KindDecisionPending, DocumentID: id, Decision: string(decision)})

	out := d.apply(ctx, id, decision, target, t)
	d.end(id, t, out)

	label := "committed"
	switch {
	case out.Noop:
		label = "noop"
	case out.Conflict:
		label = "superseded"
	case !out.Success:
		label = "failed"
	}
	obs.ObserveDecision(string(decision), label)
	d.publish(ctx, outcomeEvent(out, label))
	return out
}

// BulkDecide applies decision to every id in order, skipping duplicates.
// Only approve and reject may be applied in bulk.
func (d *Dispatcher) BulkDecide(ctx context.Context, ids []string, decision Decision) ([]Outcome, error) {
	if !decision.Bulk() {
		return nil, fmt.Errorf("%w: %q cannot be applied in bulk", ErrInvalidDecision, decision)
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]Outcome, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if err := ctx.Err(); err != nil {
			out = append(out, failed(id, decision, err))
			continue
		}
		out = append(out, d.Decide(ctx, id, decision))
	}
	return out, nil
}

func (d *Dispatcher) apply(ctx context.Context, id string, decision Decision, target Status, t *ticket) Outcome {
	for attempt := 1; ; attempt++ {
		doc, err := d.store.Get(ctx, id)
		if err != nil {
			return failed(id, decision, err)
		}
		if d.superseded(t) {
			return failed(id, decision, ErrSuperseded)
		}
		if doc.Status == target {
			return Outcome{DocumentID: id, Decision: decision, Previous: doc.Status, Status: doc.Status, Success: true, Noop: true, Document: &doc}
		}
		if err := CheckTransition(doc.Status, target); err != nil {
			return failed(id, decision, err)
		}

		updated, err := d.store.UpdateStatus(ctx, id, doc.Version, target)
		if errors.Is(err, ErrConflict) {
			if d.superseded(t) {
				return failed(id, decision, ErrSuperseded)
			}
			if attempt < maxCommitAttempts {
				continue
			}
		}
		if err != nil {
			return failed(id, decision, err)
		}

		if err := d.record(ctx, updated, decision, doc.Status); err != nil {
			d.rollback(ctx, updated, doc.Status)
			return failed(id, decision, fmt.Errorf("record audit entry: %w", err))
		}
		return Outcome{DocumentID: id, Decision: decision, Previous: doc.Status, Status: updated.Status, Success: true, Document: &updated}
	}
}

func (d *Dispatcher) record(ctx context.Context, doc Document, decision Decision, from Status) error {
	if d.recorder == nil {
		return nil
	}
	action := audit.ActionEdit
	switch decision {
	case DecisionApprove:
		action = audit.ActionApprove
	case DecisionReject:
		action = audit.ActionReject
	}
	_, err := d.recorder.Record(ctx, audit.Entry{
		Action:       locale.T(locale.English, "audit.event."+string(decision)),
		ActionType:   action,
		DocumentID:   doc.ID,
		DocumentName: doc.Name,
		Details: locale.Text{
			EN: statusChange(locale.English, from, doc.Status),
			AR: statusChange(locale.Arabic, from, doc.Status),
		},
	})
	return err
}

func statusChange(l locale.Lang, from, to Status) string {
	return locale.Tf(l, "audit.detail.decision", locale.Label(l, "status", string(from)), locale.Label(l, "status", string(to)))
}

// rollback restores the pre-decision status after a failed audit append.
func (d *Dispatcher) rollback(ctx context.Context, doc Document, prev Status) {
	if _, err := d.store.UpdateStatus(context.WithoutCancel(ctx), doc.ID, doc.Version, prev); err != nil {
		obs.Logger().Error("review rollback failed",
			zap.String("document_id", doc.ID),
			zap.String("status", string(doc.Status)),
			zap.String("restore_to", string(prev)),
			zap.Error(err),
		)
	}
}

// begin registers decision for id. When the same decision is already in flight
// it returns that ticket and leader is false.
func (d *Dispatcher) begin(id string, decision Decision) (t *ticket, leader bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if prev, ok := d.inflight[id]; ok {
		if prev.decision == decision && !prev.superseded {
			return prev, false
		}
		prev.superseded = true
	}
	d.seq++
	t = &ticket{seq: d.seq, decision: decision, done: make(chan struct{})}
	d.inflight[id] = t
	return t, true
}

// join waits for the in-flight ticket t and returns a copy of its outcome.
func (d *Dispatcher) join(ctx context.Context, id string, t *ticket) Outcome {
	select {
	case <-t.done:
	case <-ctx.Done():
		return failed(id, t.decision, ctx.Err())
	}
	out := t.out
	if out.Document != nil {
		doc := out.Document.Clone()
		out.Document = &doc
	}
	return out
}

func (d *Dispatcher) superseded(t *ticket) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return t.superseded
}

func (d *Dispatcher) end(id string, t *ticket, out Outcome) {
	d.mu.Lock()
	t.out = out
	if cur, ok := d.inflight[id]; ok && cur == t {
		delete(d.inflight, id)
	}
	d.mu.Unlock()
	close(t.done)
}

func outcomeEvent(out Outcome, label string) stream.Event {
	kind := stream.KindDecisionCommitted
	switch label {
	case "failed":
		kind = stream.KindDecisionFailed
	case "superseded":
		kind = stream.KindDecisionSuperseded
	}
	return stream.Event{
		Kind:       kind,
		DocumentID: out.DocumentID,
		Status:     string(out.Status),
		Previous:   string(out.Previous),
		Decision:   string(out.Decision),
		Error:      out.Error,
	}
}

func (d *Dispatcher) publish(ctx context.Context, evt stream.Event) {
	if d.events == nil {
		return
	}
	if p, ok := auth.PrincipalFromContext(ctx); ok {
		evt.Actor = p.Name
	}
	d.events.Publish(evt)
}
