package highwayreg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCreatesOnFirstObservation(t *testing.T) {
	r := New()
	idx := r.Resolve("I-95", 4, 65)
	assert.Equal(t, 0, idx)

	idx2 := r.Resolve("I-95", 4, 65)
	assert.Equal(t, idx, idx2, "second Resolve for same name should return the same index")
	assert.Equal(t, 1, r.Len())
}

func TestAppendEnforcesMonotoneCycles(t *testing.T) {
	r := New()
	idx := r.Resolve("H1", 4, 20)
	now := time.Now()

	require.True(t, r.Append(idx, 1, now), "expected first append to succeed")
	require.True(t, r.Append(idx, 2, now.Add(time.Second)), "expected strictly increasing cycle to succeed")
	assert.False(t, r.Append(idx, 2, now.Add(2*time.Second)), "expected non-increasing cycle to be rejected")

	d := r.Get(idx)
	assert.Len(t, d.Cycles, 2)
	assert.Len(t, d.Times, 2)
}
