package pb

import (
	"context"

	"google.golang.org/grpc"
)

// IngestServer is implemented by the gRPC transport's receiver
// (transport.GRPCSource).
type IngestServer interface {
	ReportCycle(context.Context, *CycleMessage) (*Empty, error)
}

// IngestClient is the hand-written equivalent of a generated client
// stub for the single ReportCycle unary RPC.
type IngestClient interface {
	ReportCycle(ctx context.Context, in *CycleMessage, opts ...grpc.CallOption) (*Empty, error)
}

type ingestClient struct {
	cc grpc.ClientConnInterface
}

// NewIngestClient returns a client bound to cc, always negotiating the
// JSON content-subtype codec (CodecName).
func NewIngestClient(cc grpc.ClientConnInterface) IngestClient {
	return &ingestClient{cc: cc}
}

func (c *ingestClient) ReportCycle(ctx context.Context, in *CycleMessage, opts ...grpc.CallOption) (*Empty, error) {
	out := new(Empty)
	opts = append(opts, grpc.CallContentSubtype(CodecName))
	err := c.cc.Invoke(ctx, "/highwaysim.Ingest/ReportCycle", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RegisterIngestServer registers srv's ReportCycle method against s,
// the hand-written equivalent of a generated *_grpc.pb.go registration.
func RegisterIngestServer(s grpc.ServiceRegistrar, srv IngestServer) {
	s.RegisterService(&ingestServiceDesc, srv)
}

func ingestReportCycleHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CycleMessage)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(IngestServer).ReportCycle(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/highwaysim.Ingest/ReportCycle"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(IngestServer).ReportCycle(ctx, req.(*CycleMessage))
	}
	return interceptor(ctx, in, info, handler)
}

var ingestServiceDesc = grpc.ServiceDesc{
	ServiceName: "highwaysim.Ingest",
	HandlerType: (*IngestServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ReportCycle", Handler: ingestReportCycleHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "highwaysim/ingest.proto",
}
