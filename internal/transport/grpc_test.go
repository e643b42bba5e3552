package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/juanbelieni/highwaysim/internal/transport/pb"
)

func TestGRPCSourceRoundTrip(t *testing.T) {
	gs, err := NewGRPCSource("localhost:0", 4)
	require.NoError(t, err)
	defer gs.Close()

	addr := gs.listener.Addr().String()
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	client := pb.NewIngestClient(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = client.ReportCycle(ctx, &pb.CycleMessage{
		HighwayName:     "H1",
		HighwayLanes:    4,
		HighwaySpeedLim: 20,
		Cycle:           1,
		Timestamp:       0.5,
		Vehicles: []pb.VehicleMessage{
			{Plate: "ABC1234", Lane: 0, Direction: 0, Distance: 10},
		},
	})
	require.NoError(t, err)

	cyc, ok, err := gs.Receive(ctx)
	require.NoError(t, err)
	require.True(t, ok, "expected a cycle to be received")

	assert.Equal(t, "H1", cyc.Highway.Name)
	assert.Equal(t, uint64(1), cyc.Cycle)
	require.Len(t, cyc.Vehicles, 1)
	assert.Equal(t, "ABC1234", cyc.Vehicles[0].Plate)
}
