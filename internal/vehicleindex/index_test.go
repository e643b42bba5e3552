package vehicleindex

import (
	"testing"

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

func TestInsertIfAbsentCreatesOnce(t *testing.T) {
	idx := New(4)
	k := mustPlate(t, "ABC1234")

	d1, created1 := idx.InsertIfAbsent(k)
	require.True(t, created1, "expected first InsertIfAbsent to create the entry")

	d2, created2 := idx.InsertIfAbsent(k)
	assert.False(t, created2, "expected second InsertIfAbsent to find the existing entry")
	assert.Same(t, d1, d2, "expected the same *vehicle.Data pointer on both calls")
	assert.Equal(t, 1, idx.Len())
}

func TestFindMissing(t *testing.T) {
	idx := New(4)
	k := mustPlate(t, "ZZZ9999")
	_, ok := idx.Find(k)
	assert.False(t, ok, "expected Find on empty index to report absent")
}

func TestReserveIsIdempotentAndPreservesEntries(t *testing.T) {
	idx := New(2)
	k := mustPlate(t, "ABC1234")
	idx.InsertIfAbsent(k)
	idx.Reserve(1000)
	idx.Reserve(1000)

	_, ok := idx.Find(k)
	assert.True(t, ok, "Reserve must not drop existing entries")
	assert.Equal(t, 1, idx.Len())
}

func TestShardAssignmentIsStable(t *testing.T) {
	idx := New(8)
	k := mustPlate(t, "STB1234")
	a := idx.shardFor(k)
	b := idx.shardFor(k)
	assert.Equal(t, a, b, "expected the same plate to always map to the same shard")
}
