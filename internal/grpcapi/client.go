package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"

	"adala.org/internal/audit"
	"adala.org/internal/auth"
)

// ReviewClient calls ServiceName, forwarding the caller's bearer token and
// request id from the context.
type ReviewClient struct {
	cc   grpc.ClientConnInterface
	conn *grpc.ClientConn
}

func NewReviewClient(cc grpc.ClientConnInterface) *ReviewClient {
	return &ReviewClient{cc: cc}
}

// Dial connects to target. Without options the transport is insecure.
func Dial(target string, opts ...grpc.DialOption) (*ReviewClient, error) {
	if len(opts) == 0 {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, err
	}
	return &ReviewClient{cc: conn, conn: conn}, nil
}

// Close closes a connection opened by Dial.
func (c *ReviewClient) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *ReviewClient) Decide(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(outgoingWithIdentity(ctx), methodDecide, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ReviewClient) ListQueue(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(outgoingWithIdentity(ctx), methodListQueue, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func outgoingWithIdentity(ctx context.Context) context.Context {
	var pairs []string
	if token, ok := auth.TokenFromContext(ctx); ok {
		pairs = append(pairs, "authorization", "Bearer "+token)
	}
	if rid := audit.RequestIDFromContext(ctx); rid != "" {
		pairs = append(pairs, "x-request-id", rid)
	}
	if len(pairs) == 0 {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, pairs...)
}
