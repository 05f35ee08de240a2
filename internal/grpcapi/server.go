package grpcapi

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"adala.org/internal/audit"
	"adala.org/internal/auth"
	"adala.org/internal/obs"
	"adala.org/internal/query"
	"adala.org/internal/review"
)

// Readiness reports whether dependencies are reachable.
type Readiness interface {
	Check(ctx context.Context) error
}

// Server implements ReviewServer and owns the health service.
type Server struct {
	dispatcher *review.Dispatcher
	issuer     *auth.Issuer
	readiness  Readiness
	health     *health.Server
}

var _ ReviewServer = (*Server)(nil)

// New builds a Server. issuer may be nil to accept unauthenticated calls as
// the local system principal.
func New(dispatcher *review.Dispatcher, issuer *auth.Issuer, readiness Readiness) *Server {
	return &Server{
		dispatcher: dispatcher,
		issuer:     issuer,
		readiness:  readiness,
		health:     health.NewServer(),
	}
}

// NewGRPCServer returns a grpc.Server with the review and health services registered.
func (s *Server) NewGRPCServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(s.logUnary, s.authUnary))
	gs := grpc.NewServer(opts...)
	RegisterReviewServer(gs, s)
	healthpb.RegisterHealthServer(gs, s.health)
	s.CheckReadiness(context.Background())
	return gs
}

// CheckReadiness updates the health status of the overall server and ServiceName.
func (s *Server) CheckReadiness(ctx context.Context) bool {
	st := healthpb.HealthCheckResponse_SERVING
	ok := true
	if s.readiness != nil {
		if err := s.readiness.Check(ctx); err != nil {
			st = healthpb.HealthCheckResponse_NOT_SERVING
			ok = false
			obs.Logger().Warn("grpc readiness check failed", zap.Error(err))
		}
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
	obs.SetReady(ok)
	return ok
}

// WatchReadiness re-checks readiness every interval until ctx ends.
func (s *Server) WatchReadiness(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			checkCtx, cancel := context.WithTimeout(ctx, interval/2)
			s.CheckReadiness(checkCtx)
			cancel()
		}
	}
}

// Shutdown marks every service as not serving.
func (s *Server) Shutdown() { s.health.Shutdown() }

func (s *Server) Decide(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if _, err := auth.Require(ctx, auth.PermReviewDecide); err != nil {
		return nil, toStatus(err)
	}
	fields := in.GetFields()
	id := strings.TrimSpace(fields["document_id"].GetStringValue())
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "document_id is required")
	}
	decision, err := review.ParseDecision(fields["decision"].GetStringValue())
	if err != nil {
		return nil, toStatus(err)
	}
	out := s.dispatcher.Decide(ctx, id, decision)
	if !out.Success {
		return nil, toStatus(out.Err())
	}
	return toStruct(out)
}

func (s *Server) ListQueue(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if _, err := auth.Require(ctx, auth.PermDocumentsRead); err != nil {
		return nil, toStatus(err)
	}
	fields := in.GetFields()
	q := review.Query{
		Filter:   query.FilterState{Search: fields["search"].GetStringValue()},
		Sort:     fields["sort"].GetStringValue(),
		Page:     int(fields["page"].GetNumberValue()),
		PageSize: int(fields["page_size"].GetNumberValue()),
	}
	if q.PageSize == 0 {
		q.PageSize = review.DefaultPageSize
	}
	for _, dim := range []string{review.DimStatus, review.DimPriority, review.DimDocumentType, review.DimLanguage, review.DimUploadSource} {
		if v := fields[dim].GetStringValue(); v != "" {
			q.Filter = q.Filter.With(dim, v)
		}
	}
	if !review.ValidSortKey(q.Sort) {
		return nil, status.Errorf(codes.InvalidArgument, "unknown sort key %q", q.Sort)
	}

	docs, err := s.dispatcher.Store().List(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	open := make([]review.Document, 0, len(docs))
	for _, d := range docs {
		if d.Open() {
			open = append(open, d)
		}
	}
	page, err := review.Browse(open, q)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(page)
}

func (s *Server) authUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if strings.HasPrefix(info.FullMethod, "/grpc.health.v1.Health/") {
		return handler(ctx, req)
	}
	if s.issuer == nil {
		return handler(auth.ContextWithPrincipal(ctx, systemPrincipal), req)
	}
	token := bearerFromMetadata(ctx)
	if token == "" {
		return nil, status.Error(codes.Unauthenticated, "missing bearer token")
	}
	p, err := s.issuer.Parse(token)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}
	ctx = auth.ContextWithPrincipal(ctx, p)
	ctx = auth.ContextWithToken(ctx, token)
	return handler(ctx, req)
}

func (s *Server) logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if rid := md.Get("x-request-id"); len(rid) > 0 {
			ctx = audit.WithRequestID(ctx, rid[0])
		}
	}
	resp, err := handler(ctx, req)
	fields := []zap.Field{
		zap.String("method", info.FullMethod),
		zap.String("code", status.Code(err).String()),
		zap.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000),
	}
	if rid := audit.RequestIDFromContext(ctx); rid != "" {
		fields = append(fields, zap.String("request_id", rid))
	}
	if err != nil && status.Code(err) == codes.Internal {
		obs.Logger().Error("grpc_complete", append(fields, zap.Error(err))...)
	} else {
		obs.Logger().Info("grpc_complete", fields...)
	}
	return resp, err
}

var systemPrincipal = auth.Principal{Name: "system", DisplayName: "System", Role: auth.RoleAdmin, SessionID: "local"}

func bearerFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	for _, v := range md.Get("authorization") {
		v = strings.TrimSpace(v)
		if len(v) > 7 && strings.EqualFold(v[:7], "bearer ") {
			return strings.TrimSpace(v[7:])
		}
	}
	return ""
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, auth.ErrUnauthorized), errors.Is(err, auth.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, auth.ErrForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, review.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, review.ErrInvalidDecision), errors.Is(err, review.ErrInvalidDocument), errors.Is(err, query.ErrUnknownDimension),
		errors.Is(err, query.ErrUnknownSortKey), errors.Is(err, query.ErrInvalidPage),
		errors.Is(err, query.ErrInvalidPageSize):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, review.ErrIllegalTransition):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, review.ErrConflict), errors.Is(err, review.ErrSuperseded):
		return status.Error(codes.Aborted, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// toStruct converts v through its JSON form.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return s, nil
}
