// Package grpcapi exposes the review decision surface and health checks over gRPC.
// Messages are google.protobuf.Struct values so no generated code is required.
package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified review service name.
const ServiceName = "adala.review.v1.ReviewService"

const (
	methodDecide    = "/" + ServiceName + "/Decide"
	methodListQueue = "/" + ServiceName + "/ListQueue"
)

// ReviewServer is the server API of ServiceName.
type ReviewServer interface {
	// Decide applies {"document_id", "decision"} and returns the outcome.
	Decide(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	// ListQueue returns one page of open documents for the given filter and sort.
	ListQueue(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

func RegisterReviewServer(s grpc.ServiceRegistrar, srv ReviewServer) {
	s.RegisterService(&reviewServiceDesc, srv)
}

var reviewServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ReviewServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Decide", Handler: decideHandler},
		{MethodName: "ListQueue", Handler: listQueueHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "adala/review/v1/review.proto",
}

func decideHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ReviewServer).Decide(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodDecide}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ReviewServer).Decide(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func listQueueHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ReviewServer).ListQueue(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodListQueue}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ReviewServer).ListQueue(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}
