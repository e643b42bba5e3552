package plate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoundTrip(t *testing.T) {
	k, err := Parse("ABC1234")
	require.NoError(t, err)
	assert.Equal(t, "ABC1234", k.String())
}

func TestParseWrongLength(t *testing.T) {
	_, err := Parse("AB12")
	assert.Error(t, err, "expected error for short plate")

	_, err = Parse("ABCDEFGHI")
	assert.Error(t, err, "expected error for long plate")
}

func TestHashEqualForEqualPlates(t *testing.T) {
	a, err := Parse("ABC1234")
	require.NoError(t, err)
	b, err := Parse("ABC1234")
	require.NoError(t, err)
	assert.Equal(t, a.Hash(), b.Hash())
}

func TestHashDiffersForDifferentPlates(t *testing.T) {
	a, err := Parse("ABC1234")
	require.NoError(t, err)
	b, err := Parse("XYZ9876")
	require.NoError(t, err)
	assert.NotEqual(t, a.Hash(), b.Hash(), "different plates produced the same hash")
}

func TestZero(t *testing.T) {
	var k Key
	assert.True(t, k.Zero(), "zero value should report Zero() == true")

	nz, err := Parse("ABC1234")
	require.NoError(t, err)
	assert.False(t, nz.Zero(), "non-zero plate reported Zero() == true")
}

func TestLess(t *testing.T) {
	a, err := Parse("AAA0000")
	require.NoError(t, err)
	b, err := Parse("AAA0001")
	require.NoError(t, err)

	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))
}
