package transport

import (
	"context"
	"fmt"
	"net"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"

	"github.com/juanbelieni/highwaysim/internal/transport/pb"
)

// GRPCSource implements Source by running a gRPC server exposing
// ReportCycle (spec.md §6b), bound to addr (default "localhost:50051").
// Each received call is converted to a SimulationCycle and pushed onto
// a buffered channel the orchestrator drains via Receive.
type GRPCSource struct {
	addr      string
	server    *grpc.Server
	listener  net.Listener
	queue     chan SimulationCycle
	closeOnce sync.Once
}

// NewGRPCSource starts listening on addr and serving the Ingest service
// in a background goroutine. queueSize bounds how many reported cycles
// may be buffered ahead of the orchestrator.
func NewGRPCSource(addr string, queueSize int) (*GRPCSource, error) {
	if addr == "" {
		addr = "localhost:50051"
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport/grpc: listen on %s: %w", addr, err)
	}
	gs := &GRPCSource{
		addr:     addr,
		listener: lis,
		queue:    make(chan SimulationCycle, queueSize),
	}
	srv := grpc.NewServer(grpc.ForceServerCodec(encoding.GetCodec(pb.CodecName)))
	pb.RegisterIngestServer(srv, gs)
	gs.server = srv
	go srv.Serve(lis)
	return gs, nil
}

// ReportCycle implements pb.IngestServer: it converts the wire message
// to a SimulationCycle and enqueues it, blocking the RPC caller if the
// queue is momentarily full (the orchestrator is expected to drain
// faster than producers report, per spec.md's coalescing design).
func (g *GRPCSource) ReportCycle(ctx context.Context, in *pb.CycleMessage) (*pb.Empty, error) {
	cyc := SimulationCycle{
		Highway: HighwayDescriptor{
			Name:       in.HighwayName,
			Lanes:      int(in.HighwayLanes),
			SpeedLimit: in.HighwaySpeedLim,
		},
		Cycle:     in.Cycle,
		Timestamp: in.Timestamp,
	}
	cyc.Vehicles = make([]RawVehicle, len(in.Vehicles))
	for i, v := range in.Vehicles {
		cyc.Vehicles[i] = RawVehicle{
			Plate:     v.Plate,
			Lane:      int(v.Lane),
			Direction: int(v.Direction),
			Distance:  int(v.Distance),
		}
	}
	select {
	case g.queue <- cyc:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &pb.Empty{}, nil
}

// Receive implements Source.
func (g *GRPCSource) Receive(ctx context.Context) (SimulationCycle, bool, error) {
	select {
	case cyc := <-g.queue:
		return cyc, true, nil
	case <-ctx.Done():
		return SimulationCycle{}, false, nil
	}
}

// Close stops the gRPC server and releases its listener.
func (g *GRPCSource) Close() error {
	g.closeOnce.Do(func() {
		g.server.GracefulStop()
	})
	return nil
}
