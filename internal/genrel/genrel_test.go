package genrel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateUniqueKeysAreDistinct(t *testing.T) {
	rel, err := Generate(Config{Size: 2000, Seed: 1})
	require.NoError(t, err)

	seen := make(map[int32]bool)
	for _, tp := range rel.Tuples {
		assert.False(t, seen[tp.Key], "duplicate key %d in a unique relation", tp.Key)
		seen[tp.Key] = true
	}
	assert.Len(t, rel.Tuples, 2000)
}

func TestGenerateNonUniqueAllowsDuplicates(t *testing.T) {
	rel, err := Generate(Config{Size: 5000, Seed: 2, NonUnique: true, FullRange: false})
	require.NoError(t, err)
	assert.Len(t, rel.Tuples, 5000)
}

func TestGenerateIsDeterministicPerSeed(t *testing.T) {
	a, err := Generate(Config{Size: 500, Seed: 42})
	require.NoError(t, err)
	b, err := Generate(Config{Size: 500, Seed: 42})
	require.NoError(t, err)
	assert.Equal(t, a.Tuples, b.Tuples)
}

func TestGenerateFullRangeUsesWideDomain(t *testing.T) {
	rel, err := Generate(Config{Size: 100, Seed: 3, FullRange: true, NonUnique: true})
	require.NoError(t, err)
	assert.Len(t, rel.Tuples, 100)
}

func TestGenerateSkewedStillProducesRequestedSize(t *testing.T) {
	rel, err := Generate(Config{Size: 1000, Seed: 4, Skew: 1.0, NonUnique: true})
	require.NoError(t, err)
	assert.Len(t, rel.Tuples, 1000)
}

func TestGenerateRejectsNegativeSize(t *testing.T) {
	_, err := Generate(Config{Size: -1})
	assert.Error(t, err)
}

func TestGenerateRejectsNegativeSkew(t *testing.T) {
	_, err := Generate(Config{Size: 10, Skew: -1})
	assert.Error(t, err)
}
