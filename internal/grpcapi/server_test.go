package grpcapi

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"adala.org/internal/audit"
	"adala.org/internal/auth"
	"adala.org/internal/review"
	"adala.org/internal/stream"
)

const bufSize = 1024 * 1024

type stubReadiness struct{ err error }

func (s *stubReadiness) Check(context.Context) error { return s.err }

type harness struct {
	conn   *grpc.ClientConn
	client *ReviewClient
	server *Server
	audits *audit.InMemory
}

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func sampleDocs() []review.Document {
	return []review.Document{
		{ID: "1", Name: "supreme_court_ruling_001.pdf", CaseNumber: "SC-2024-001", UploadDate: day("2024-01-10"), Language: "ar", DocumentType: review.TypePDF, AIScore: 45, Status: review.StatusLowConfidence, UploadSource: review.SourceManual, Priority: review.PriorityHigh},
		{ID: "2", Name: "commercial_dispute_resolution.pdf", CaseNumber: "CC-2024-089", UploadDate: day("2024-01-09"), Language: "en", DocumentType: review.TypeDOCX, AIScore: 72, Status: review.StatusPending, UploadSource: review.SourceIntegration, Priority: review.PriorityMedium},
		{ID: "3", Name: "family_case_234.pdf", CaseNumber: "FC-2024-234", UploadDate: day("2024-01-08"), Language: "ar", DocumentType: review.TypePPTX, AIScore: 38, Status: review.StatusRequiresAttention, UploadSource: review.SourceManual, Priority: review.PriorityHigh},
		{ID: "4", Name: "closed_matter.pdf", CaseNumber: "CM-2024-002", UploadDate: day("2024-01-07"), Language: "en", DocumentType: review.TypePDF, AIScore: 91, Status: review.StatusApproved, UploadSource: review.SourceIntegration, Priority: review.PriorityLow},
	}
}

func startBufGRPC(t *testing.T, issuer *auth.Issuer, ready Readiness) harness {
	t.Helper()
	audits := audit.NewInMemory()
	disp := review.NewDispatcher(review.NewInMemory(sampleDocs()...), audit.NewRecorder(audits), stream.New())
	srv := New(disp, issuer, ready)

	lis := bufconn.Listen(bufSize)
	gs := srv.NewGRPCServer()
	go func() { _ = gs.Serve(lis) }()

	client, err := Dial("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial bufnet: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
		gs.GracefulStop()
	})
	return harness{conn: client.conn, client: client, server: srv, audits: audits}
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	if err != nil {
		t.Fatalf("NewStruct: %v", err)
	}
	return s
}

func TestHealthFollowsReadiness(t *testing.T) {
	ready := &stubReadiness{}
	h := startBufGRPC(t, nil, ready)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	hc := healthpb.NewHealthClient(h.conn)
	resp, err := hc.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatalf("health check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("expected SERVING, got %v", resp.GetStatus())
	}

	ready.err = errors.New("db down")
	if h.server.CheckReadiness(ctx) {
		t.Fatalf("expected readiness to fail")
	}
	resp, err = hc.Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		t.Fatalf("health check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("expected NOT_SERVING, got %v", resp.GetStatus())
	}
}

func TestDecideCommitsAndMapsErrors(t *testing.T) {
	h := startBufGRPC(t, nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	out, err := h.client.Decide(ctx, mustStruct(t, map[string]any{"document_id": "2", "decision": "approve"}))
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	f := out.GetFields()
	if !f["success"].GetBoolValue() || f["status"].GetStringValue() != string(review.StatusApproved) {
		t.Fatalf("unexpected outcome: %v", out)
	}
	entries, _ := h.audits.List(ctx)
	if len(entries) != 1 || entries[0].User != "System" {
		t.Fatalf("expected one audit entry by System, got %+v", entries)
	}

	cases := []struct {
		name string
		in   map[string]any
		code codes.Code
	}{
		{"missing id", map[string]any{"decision": "approve"}, codes.InvalidArgument},
		{"bad decision", map[string]any{"document_id": "1", "decision": "archive"}, codes.InvalidArgument},
		{"unknown document", map[string]any{"document_id": "99", "decision": "approve"}, codes.NotFound},
		{"terminal document", map[string]any{"document_id": "4", "decision": "reject"}, codes.FailedPrecondition},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.client.Decide(ctx, mustStruct(t, tc.in))
			if status.Code(err) != tc.code {
				t.Fatalf("expected %v, got %v", tc.code, err)
			}
		})
	}
}

func TestListQueueReturnsOpenDocumentsSorted(t *testing.T) {
	h := startBufGRPC(t, nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	out, err := h.client.ListQueue(ctx, mustStruct(t, map[string]any{"sort": "score"}))
	if err != nil {
		t.Fatalf("ListQueue: %v", err)
	}
	items := out.GetFields()["items"].GetListValue().GetValues()
	var ids []string
	for _, v := range items {
		ids = append(ids, v.GetStructValue().GetFields()["id"].GetStringValue())
	}
	if len(ids) != 3 || ids[0] != "3" || ids[1] != "1" || ids[2] != "2" {
		t.Fatalf("unexpected queue order %v", ids)
	}

	out, err = h.client.ListQueue(ctx, mustStruct(t, map[string]any{"language": "ar"}))
	if err != nil {
		t.Fatalf("ListQueue filtered: %v", err)
	}
	if n := len(out.GetFields()["items"].GetListValue().GetValues()); n != 2 {
		t.Fatalf("expected 2 arabic documents, got %d", n)
	}

	_, err = h.client.ListQueue(ctx, mustStruct(t, map[string]any{"sort": "size"}))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument for unknown sort, got %v", err)
	}
}

func TestBearerTokenRequiredWhenIssuerConfigured(t *testing.T) {
	iss, err := auth.NewIssuer("grpc-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	h := startBufGRPC(t, iss, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	in := mustStruct(t, map[string]any{"document_id": "2", "decision": "reject"})
	if _, err := h.client.Decide(ctx, in); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated without token, got %v", err)
	}
	bad := metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer nope")
	if _, err := h.client.Decide(bad, in); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated for bad token, got %v", err)
	}

	token, _, _, err := iss.Issue(auth.Principal{Name: "sara", DisplayName: "Sara", Role: auth.RoleReviewer})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	authed := metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token, "x-request-id", "req-7")
	if _, err := h.client.Decide(authed, in); err != nil {
		t.Fatalf("Decide with token: %v", err)
	}
	forwarded := auth.ContextWithToken(ctx, token)
	if _, err := h.client.ListQueue(forwarded, mustStruct(t, map[string]any{})); err != nil {
		t.Fatalf("ListQueue with context token: %v", err)
	}
	entries, _ := h.audits.List(ctx)
	if len(entries) != 1 || entries[0].User != "Sara" || entries[0].SessionID == "" {
		t.Fatalf("unexpected audit entries %+v", entries)
	}

	hc := healthpb.NewHealthClient(h.conn)
	if _, err := hc.Check(ctx, &healthpb.HealthCheckRequest{}); err != nil {
		t.Fatalf("health must not require auth: %v", err)
	}
}
