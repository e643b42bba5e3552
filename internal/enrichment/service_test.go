package enrichment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juanbelieni/highwaysim/internal/plate"
)

func mustPlate(t *testing.T, s string) plate.Key {
	t.Helper()
	k, err := plate.Parse(s)
	require.NoError(t, err)
	return k
}

func TestQueryReturnsResult(t *testing.T) {
	s := New(Options{QueueSize: 4, Delay: time.Millisecond}, nil)
	s.Start()
	defer s.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	k := mustPlate(t, "ABC1234")
	r, ok := s.Query(ctx, k)
	require.True(t, ok, "expected a result")
	assert.Equal(t, k, r.Plate)
	assert.True(t, r.Year >= 1990 && r.Year < 2026, "year out of expected synthetic range: %d", r.Year)
}

func TestSubmitDropsWhenQueueFull(t *testing.T) {
	s := New(Options{QueueSize: 1, Delay: 50 * time.Millisecond}, nil)
	// Do not Start: nothing drains the queue, so the first Submit fills it
	// and the second must be dropped.
	k1 := mustPlate(t, "AAA0001")
	k2 := mustPlate(t, "BBB0002")

	_, ok := s.Submit(k1)
	require.True(t, ok, "expected first submit to be accepted")

	_, ok = s.Submit(k2)
	assert.False(t, ok, "expected second submit to be dropped with a full queue")
}

func TestStopDrainsPendingRequests(t *testing.T) {
	s := New(Options{QueueSize: 4, Delay: time.Millisecond}, nil)
	s.Start()

	k := mustPlate(t, "CCC0003")
	reply, ok := s.Submit(k)
	require.True(t, ok, "expected submit to be accepted")
	s.Stop()

	select {
	case r := <-reply:
		assert.Equal(t, k, r.Plate)
	default:
		t.Fatal("expected the pending request to be drained before Stop returns")
	}
}
