package review

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"adala.org/internal/audit"
	"adala.org/internal/auth"
	"adala.org/internal/query"
	"adala.org/internal/stream"
)

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func sampleDocs() []Document {
	return []Document{
		{ID: "1", Name: "قرار_محكمة_عليا_2024_001.pdf", CaseNumber: "SC-2024-001", UploadDate: day("2024-01-10"), Language: "ar", DocumentType: TypePDF, AIScore: 45, Status: StatusLowConfidence, UploadSource: SourceManual, Priority: PriorityHigh, SensitiveDataFound: []string{"اسم", "رقم هوية", "عنوان"}, RedactedAreas: 3, AIConfidence: 45, Pages: 12, Size: "1.2MB"},
		{ID: "2", Name: "commercial_dispute_resolution.pdf", CaseNumber: "CC-2024-089", UploadDate: day("2024-01-09"), Language: "en", DocumentType: TypeDOCX, AIScore: 72, Status: StatusPending, UploadSource: SourceIntegration, Priority: PriorityMedium, SensitiveDataFound: []string{"Name", "Passport Number"}, RedactedAreas: 1, AIConfidence: 72, Pages: 8, Size: "850KB"},
		{ID: "3", Name: "قضية_الأحوال_الشخصية_234.pdf", CaseNumber: "FC-2024-234", UploadDate: day("2024-01-08"), Language: "ar", DocumentType: TypePPTX, AIScore: 38, Status: StatusRequiresAttention, UploadSource: SourceManual, Priority: PriorityHigh, SensitiveDataFound: []string{"اسم", "تاريخ ميلاد"}, RedactedAreas: 2, AIConfidence: 38, Pages: 5, Size: "600KB"},
	}
}

func docIDs(docs []Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}

func sameIDs(a, b []string) bool {
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func reviewerCtx() context.Context {
	return auth.ContextWithPrincipal(context.Background(), auth.Principal{Name: "sara", Role: auth.RoleReviewer, SessionID: "s1"})
}

type fixture struct {
	store  *InMemory
	audits *audit.InMemory
	events *stream.Stream
	disp   *Dispatcher
}

func newFixture(docs ...Document) fixture {
	f := fixture{store: NewInMemory(docs...), audits: audit.NewInMemory(), events: stream.New()}
	f.disp = NewDispatcher(f.store, audit.NewRecorder(f.audits), f.events)
	return f
}

func TestTransitions(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusProcessing, StatusRequiresAttention, true},
		{StatusLowConfidence, StatusPending, true},
		{StatusRequiresAttention, StatusRejected, true},
		{StatusApproved, StatusPending, false},
		{StatusRejected, StatusApproved, false},
		{StatusPending, StatusProcessing, false},
	}
	for _, tc := range cases {
		err := CheckTransition(tc.from, tc.to)
		if (err == nil) != tc.ok {
			t.Fatalf("%s -> %s: got %v", tc.from, tc.to, err)
		}
		if err != nil {
			var te *TransitionError
			if !errors.As(err, &te) || te.From != tc.from || te.To != tc.to || !errors.Is(err, ErrIllegalTransition) {
				t.Fatalf("unexpected error shape: %v", err)
			}
		}
	}
}

func TestBrowseScenarios(t *testing.T) {
	docs := sampleDocs()
	page, err := Browse(docs, Query{Sort: SortScore, PageSize: 10})
	if err != nil {
		t.Fatalf("Browse: %v", err)
	}
	if got := docIDs(page.Items); !sameIDs(got, []string{"3", "1", "2"}) {
		t.Fatalf("score order = %v", got)
	}

	page, _ = Browse(docs, Query{Filter: query.FilterState{Categorical: map[string]string{DimStatus: "low_confidence"}}, PageSize: 10})
	if got := docIDs(page.Items); !sameIDs(got, []string{"1"}) {
		t.Fatalf("status filter = %v", got)
	}

	page, _ = Browse(docs, Query{Sort: SortPriority, PageSize: 10})
	if got := docIDs(page.Items); !sameIDs(got, []string{"1", "3", "2"}) {
		t.Fatalf("priority order = %v", got)
	}

	page, _ = Browse(docs, Query{Sort: SortDate, PageSize: 10})
	if got := docIDs(page.Items); !sameIDs(got, []string{"1", "2", "3"}) {
		t.Fatalf("date order = %v", got)
	}

	page, _ = Browse(docs, Query{Filter: query.FilterState{Search: "fc-2024"}, PageSize: 10})
	if got := docIDs(page.Items); !sameIDs(got, []string{"3"}) {
		t.Fatalf("case number search = %v", got)
	}

	if _, err := Browse(docs, Query{Sort: "size", PageSize: 10}); !errors.Is(err, query.ErrUnknownSortKey) {
		t.Fatalf("expected ErrUnknownSortKey, got %v", err)
	}
	if _, err := Browse(docs, Query{Filter: query.FilterState{Categorical: map[string]string{"owner": "x"}}, PageSize: 10}); !errors.Is(err, query.ErrUnknownDimension) {
		t.Fatalf("expected ErrUnknownDimension, got %v", err)
	}
}

func TestDecideCommitsAuditsAndPublishes(t *testing.T) {
	f := newFixture(sampleDocs()...)
	ctx, cancel := context.WithCancel(reviewerCtx())
	defer cancel()
	events := f.events.Subscribe(ctx)

	out := f.disp.Decide(ctx, "1", DecisionApprove)
	if !out.Success || out.Previous != StatusLowConfidence || out.Status != StatusApproved {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if out.Document == nil || out.Document.Version != 2 {
		t.Fatalf("expected updated document with bumped version: %+v", out.Document)
	}

	entries, _ := f.audits.List(context.Background())
	if len(entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(entries))
	}
	e := entries[0]
	if e.ActionType != audit.ActionApprove || e.DocumentID != "1" || e.User != "sara" || e.Action != "Document Approved" {
		t.Fatalf("unexpected audit entry: %+v", e)
	}
	if e.Details.EN != "Status changed from Low Confidence to Approved" || e.Details.AR == "" {
		t.Fatalf("unexpected details: %+v", e.Details)
	}

	var kinds []string
	for len(kinds) < 2 {
		select {
		case evt := <-events:
			kinds = append(kinds, evt.Kind)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for events, got %v", kinds)
		}
	}
	if !sameIDs(kinds, []string{stream.KindDecisionPending, stream.KindDecisionCommitted}) {
		t.Fatalf("unexpected event kinds %v", kinds)
	}
	if len(f.disp.Pending()) != 0 {
		t.Fatalf("decision left in flight")
	}
}

func TestDecideIsIdempotentAndRejectsIllegalTransitions(t *testing.T) {
	f := newFixture(sampleDocs()...)
	ctx := reviewerCtx()

	if out := f.disp.Decide(ctx, "2", DecisionApprove); !out.Success {
		t.Fatalf("first approve failed: %v", out.Err())
	}
	out := f.disp.Decide(ctx, "2", DecisionApprove)
	if !out.Success || !out.Noop {
		t.Fatalf("repeat approve should be a no-op: %+v", out)
	}
	entries, _ := f.audits.List(ctx)
	if len(entries) != 1 {
		t.Fatalf("no-op must not append audit entries, got %d", len(entries))
	}

	out = f.disp.Decide(ctx, "2", DecisionReject)
	if out.Success || !errors.Is(out.Err(), ErrIllegalTransition) {
		t.Fatalf("expected illegal transition, got %+v", out)
	}

	out = f.disp.Decide(ctx, "3", DecisionRequestChanges)
	if !out.Success || !out.Noop {
		t.Fatalf("request changes on requires_attention should be a no-op: %+v", out)
	}
	out = f.disp.Decide(ctx, "1", DecisionRequestChanges)
	if !out.Success || out.Status != StatusRequiresAttention {
		t.Fatalf("request changes: %+v", out)
	}

	if out := f.disp.Decide(ctx, "missing", DecisionApprove); !errors.Is(out.Err(), ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", out.Err())
	}
	if out := f.disp.Decide(ctx, "1", Decision("publish")); !errors.Is(out.Err(), ErrInvalidDecision) {
		t.Fatalf("expected ErrInvalidDecision, got %v", out.Err())
	}
}

type failingAudit struct{ audit.InMemory }

func (*failingAudit) Append(context.Context, audit.Entry) error {
	return errors.New("audit store offline")
}

func TestDecideRollsBackWhenAuditFails(t *testing.T) {
	store := NewInMemory(sampleDocs()...)
	disp := NewDispatcher(store, audit.NewRecorder(&failingAudit{}), nil)

	out := disp.Decide(reviewerCtx(), "2", DecisionApprove)
	if out.Success || out.Err() == nil {
		t.Fatalf("expected failure, got %+v", out)
	}
	doc, _ := store.Get(context.Background(), "2")
	if doc.Status != StatusPending {
		t.Fatalf("status not restored: %s", doc.Status)
	}
}

// gatedStore blocks the first Get of a document until released.
type gatedStore struct {
	*InMemory
	mu      sync.Mutex
	gate    chan struct{}
	entered chan struct{}
}

func (g *gatedStore) Get(ctx context.Context, id string) (Document, error) {
	g.mu.Lock()
	gate := g.gate
	g.gate = nil
	g.mu.Unlock()
	if gate != nil {
		g.entered <- struct{}{}
		<-gate
	}
	return g.InMemory.Get(ctx, id)
}

func TestLaterDecisionSupersedesInFlightOne(t *testing.T) {
	release := make(chan struct{})
	store := &gatedStore{InMemory: NewInMemory(sampleDocs()...), gate: release, entered: make(chan struct{}, 1)}
	disp := NewDispatcher(store, audit.NewRecorder(audit.NewInMemory()), nil)
	ctx := reviewerCtx()

	first := make(chan Outcome, 1)
	go func() { first <- disp.Decide(ctx, "2", DecisionApprove) }()
	<-store.entered

	if got := disp.Pending()["2"]; got != DecisionApprove {
		t.Fatalf("expected approve pending, got %q", got)
	}
	second := disp.Decide(ctx, "2", DecisionReject)
	if !second.Success || second.Status != StatusRejected {
		t.Fatalf("latest decision should win: %+v", second)
	}
	close(release)

	out := <-first
	if out.Success || !out.Conflict || !errors.Is(out.Err(), ErrSuperseded) {
		t.Fatalf("expected superseded outcome, got %+v", out)
	}
	doc, _ := store.InMemory.Get(ctx, "2")
	if doc.Status != StatusRejected {
		t.Fatalf("final status = %s", doc.Status)
	}
	if len(disp.Pending()) != 0 {
		t.Fatalf("pending registry not drained: %v", disp.Pending())
	}
}

func TestRepeatedInFlightDecisionJoinsFirst(t *testing.T) {
	release := make(chan struct{})
	store := &gatedStore{InMemory: NewInMemory(sampleDocs()...), gate: release, entered: make(chan struct{}, 1)}
	audits := audit.NewInMemory()
	disp := NewDispatcher(store, audit.NewRecorder(audits), nil)
	ctx := reviewerCtx()

	first := make(chan Outcome, 1)
	go func() { first <- disp.Decide(ctx, "2", DecisionApprove) }()
	<-store.entered

	second := make(chan Outcome, 1)
	go func() { second <- disp.Decide(ctx, "2", DecisionApprove) }()
	select {
	case out := <-second:
		t.Fatalf("repeat returned before the first committed: %+v", out)
	case <-time.After(50 * time.Millisecond):
	}
	close(release)

	a, b := <-first, <-second
	for _, out := range []Outcome{a, b} {
		if !out.Success || out.Conflict || out.Status != StatusApproved {
			t.Fatalf("repeat of the same decision must not conflict: %+v", out)
		}
	}
	entries, _ := audits.List(ctx)
	if len(entries) != 1 {
		t.Fatalf("expected a single audit entry, got %d", len(entries))
	}
	if len(disp.Pending()) != 0 {
		t.Fatalf("pending registry not drained: %v", disp.Pending())
	}
}

func TestBulkDecide(t *testing.T) {
	f := newFixture(sampleDocs()...)
	if _, err := f.disp.BulkDecide(reviewerCtx(), []string{"1"}, DecisionRequestChanges); !errors.Is(err, ErrInvalidDecision) {
		t.Fatalf("expected ErrInvalidDecision, got %v", err)
	}
	outs, err := f.disp.BulkDecide(reviewerCtx(), []string{"1", "missing", "1", "3"}, DecisionReject)
	if err != nil {
		t.Fatalf("BulkDecide: %v", err)
	}
	if len(outs) != 3 {
		t.Fatalf("duplicates should be skipped, got %d outcomes", len(outs))
	}
	if !outs[0].Success || outs[1].Success || !outs[2].Success {
		t.Fatalf("unexpected outcomes: %+v", outs)
	}
}

func manyDocs(n int) []Document {
	docs := make([]Document, n)
	for i := range docs {
		docs[i] = Document{ID: fmt.Sprintf("d%02d", i+1), Name: fmt.Sprintf("doc-%02d.pdf", i+1), AIScore: i + 1, AIConfidence: i + 1, Status: StatusPending, Priority: PriorityLow, UploadDate: day("2024-01-01")}
	}
	return docs
}

func TestQueuePagingClampsWhenFilterShrinks(t *testing.T) {
	f := newFixture(manyDocs(25)...)
	q := NewQueue(f.disp, 10)
	ctx := reviewerCtx()

	if err := q.SetPage(3); err != nil {
		t.Fatalf("SetPage: %v", err)
	}
	v, err := q.View(ctx)
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if len(v.Items) != 5 || v.TotalPages != 3 || v.Page.Page != 3 {
		t.Fatalf("page 3: items=%d totalPages=%d page=%d", len(v.Items), v.TotalPages, v.Page.Page)
	}

	if err := q.SetFilter(query.FilterState{Search: "doc-0"}); err != nil {
		t.Fatalf("SetFilter: %v", err)
	}
	v, _ = q.View(ctx)
	if v.Page.Page != 1 || v.TotalPages != 1 || len(v.Items) != 9 {
		t.Fatalf("expected clamp to page 1 of 1 with 9 items, got page=%d total=%d items=%d", v.Page.Page, v.TotalPages, len(v.Items))
	}

	if err := q.SetSort("size"); !errors.Is(err, query.ErrUnknownSortKey) {
		t.Fatalf("expected ErrUnknownSortKey, got %v", err)
	}
	if err := q.SetPage(0); !errors.Is(err, query.ErrInvalidPage) {
		t.Fatalf("expected ErrInvalidPage, got %v", err)
	}
}

func TestQueueSelectionAndBulk(t *testing.T) {
	docs := sampleDocs()
	docs = append(docs, Document{ID: "4", Name: "closed.pdf", Status: StatusApproved, AIScore: 90})
	f := newFixture(docs...)
	q := NewQueue(f.disp, 10)
	ctx := reviewerCtx()

	if _, err := q.Toggle(ctx, "4"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("approved document is not in the queue, got %v", err)
	}
	ids, err := q.SelectAll(ctx, ScopeVisible)
	if err != nil || !sameIDs(ids, []string{"1", "2", "3"}) {
		t.Fatalf("SelectAll: %v %v", ids, err)
	}
	if on, _ := q.Toggle(ctx, "2"); on {
		t.Fatalf("toggle should deselect 2")
	}
	if got := q.Selected(); !sameIDs(got, []string{"1", "3"}) {
		t.Fatalf("selected = %v", got)
	}

	// 3 leaves the queue once rejected, so it must leave the selection too.
	f.disp.Decide(ctx, "3", DecisionReject)
	v, _ := q.View(ctx)
	if !sameIDs(v.Pruned, []string{"3"}) || !sameIDs(v.Selected, []string{"1"}) {
		t.Fatalf("pruned=%v selected=%v", v.Pruned, v.Selected)
	}

	if _, err := q.SelectAll(ctx, "page"); !errors.Is(err, ErrInvalidScope) {
		t.Fatalf("expected ErrInvalidScope, got %v", err)
	}
	ids, err = q.SelectAll(ctx, ScopeFiltered)
	if err != nil || !sameIDs(ids, []string{"1", "2"}) {
		t.Fatalf("SelectAll filtered: %v %v", ids, err)
	}
	outs, err := q.Bulk(ctx, DecisionApprove)
	if err != nil {
		t.Fatalf("Bulk: %v", err)
	}
	if len(outs) != 2 || !outs[0].Success || !outs[1].Success {
		t.Fatalf("unexpected outcomes: %+v", outs)
	}
	if got := q.Selected(); len(got) != 0 {
		t.Fatalf("succeeded ids must leave the selection, got %v", got)
	}
	if _, err := q.Bulk(ctx, DecisionApprove); !errors.Is(err, ErrEmptySelect) {
		t.Fatalf("expected ErrEmptySelect, got %v", err)
	}
}

func TestQueueBulkKeepsFailedIDsSelected(t *testing.T) {
	store := NewInMemory(sampleDocs()...)
	disp := NewDispatcher(store, audit.NewRecorder(&failingAudit{}), nil)
	q := NewQueue(disp, 10)
	ctx := reviewerCtx()

	if _, err := q.SelectAll(ctx, ScopeFiltered); err != nil {
		t.Fatalf("SelectAll: %v", err)
	}
	outs, err := q.Bulk(ctx, DecisionReject)
	if err != nil {
		t.Fatalf("Bulk: %v", err)
	}
	for _, o := range outs {
		if o.Success {
			t.Fatalf("expected every decision to fail: %+v", o)
		}
	}
	if got := q.Selected(); !sameIDs(got, []string{"1", "2", "3"}) {
		t.Fatalf("failed ids must stay selected, got %v", got)
	}
	v, _ := q.View(ctx)
	if v.InQueue != 3 {
		t.Fatalf("documents must be restored to the queue, in queue = %d", v.InQueue)
	}

	q.Reset()
	if len(q.Selected()) != 0 {
		t.Fatalf("Reset must clear the selection")
	}
}

func TestSessions(t *testing.T) {
	s := NewSessions(newFixture().disp, 0)
	a := s.Get("s1")
	if s.Get("s1") != a || s.Get("s2") == a || s.Len() != 2 {
		t.Fatalf("unexpected session registry behaviour")
	}
	s.Drop("s1")
	if s.Len() != 1 || s.Get("s1") == a {
		t.Fatalf("Drop did not discard the queue")
	}
}

func TestComputeStats(t *testing.T) {
	st := ComputeStats(sampleDocs(), 0)
	if st.Total != 3 || st.Threshold != DefaultConfidenceThreshold || st.BelowThreshold != 2 || st.AwaitingReview != 3 {
		t.Fatalf("unexpected stats %+v", st)
	}
	if st.AverageConfidence != 51.7 {
		t.Fatalf("average = %v", st.AverageConfidence)
	}
	counts := []int{0, 1, 1, 1, 0}
	for i, b := range st.Distribution {
		if b.Count != counts[i] {
			t.Fatalf("bucket %s = %d want %d", b.Label, b.Count, counts[i])
		}
	}
	if st.ByStatus[StatusPending] != 1 || st.ByStatus[StatusApproved] != 0 {
		t.Fatalf("by status %v", st.ByStatus)
	}
}

func TestZeroConfidenceIsKeptIndependentOfScore(t *testing.T) {
	s := NewInMemory(Document{ID: "z", Name: "zero.pdf", AIConfidence: 0, AIScore: 90, Status: StatusPending})
	got, err := s.Get(context.Background(), "z")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.AIConfidence != 0 || got.AIScore != 90 {
		t.Fatalf("confidence/score rewritten: %+v", got)
	}
	st := ComputeStats([]Document{got}, 70)
	if st.BelowThreshold != 1 || st.Distribution[0].Count != 1 {
		t.Fatalf("zero-confidence document not counted: %+v", st)
	}
}

func TestUpsertRejectsOutOfRangeValues(t *testing.T) {
	s := NewInMemory()
	cases := []Document{
		{ID: "a", AIConfidence: 101},
		{ID: "b", AIConfidence: -1},
		{ID: "c", AIScore: 150},
		{ID: "d", RedactedAreas: -2},
		{ID: "e", Priority: "urgent"},
		{ID: " "},
	}
	for _, d := range cases {
		if _, err := s.Upsert(context.Background(), d); !errors.Is(err, ErrInvalidDocument) {
			t.Fatalf("Upsert(%+v) = %v, want ErrInvalidDocument", d, err)
		}
	}
	if docs, _ := s.List(context.Background()); len(docs) != 0 {
		t.Fatalf("invalid documents stored: %v", docIDs(docs))
	}
}
