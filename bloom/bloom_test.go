package bloom

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(Config{M: 100, K: 4})
	assert.ErrorIs(t, err, ErrNotPowerOfTwo)

	_, err = New(Config{M: 0, K: 4})
	assert.ErrorIs(t, err, ErrNotPowerOfTwo)

	_, err = New(Config{M: 1024, K: 0})
	assert.ErrorIs(t, err, ErrBadHashCount)

	_, err = New(Config{Variant: Blocked, M: 1024, K: 4, B: 100})
	assert.ErrorIs(t, err, ErrBadBlockSize)

	_, err = New(Config{Variant: Blocked, M: 1024, K: 4, B: 2048})
	assert.ErrorIs(t, err, ErrBadBlockSize)
}

// TestNoFalseNegatives checks that if Add(k) precedes Contains(k),
// Contains(k) must be true.
func TestNoFalseNegatives(t *testing.T) {
	for _, variant := range []Variant{Basic, Blocked} {
		f, err := New(Config{Variant: variant, M: 1 << 20, K: 7, B: 512, Seed: 17})
		require.NoError(t, err)

		r := rand.New(rand.NewSource(1))
		keys := make([]uint32, 5000)
		for i := range keys {
			keys[i] = r.Uint32()
			f.Add(keys[i])
		}
		for _, k := range keys {
			assert.True(t, f.Contains(k), "false negative for key %d", k)
		}
	}
}

// TestSmallestValidFilter checks the smallest valid shape, m = 8, k = 1:
// correctness must hold even though the false positive rate is high.
func TestSmallestValidFilter(t *testing.T) {
	f, err := New(Config{M: 8, K: 1, Seed: 3})
	require.NoError(t, err)

	f.Add(42)
	assert.True(t, f.Contains(42))
}

// TestConcurrentAdd exercises the atomic fetch-or insertion path under
// concurrent writers: bit sets are monotonic, so relaxed ordering is
// safe even without a synchronizing fence between them.
func TestConcurrentAdd(t *testing.T) {
	f, err := New(Config{Variant: Blocked, M: 1 << 16, K: 6, B: 512, Seed: 9})
	require.NoError(t, err)

	const nWorkers = 8
	const perWorker = 2000
	keys := make([][]uint32, nWorkers)
	r := rand.New(rand.NewSource(2))
	for w := range keys {
		keys[w] = make([]uint32, perWorker)
		for i := range keys[w] {
			keys[w][i] = r.Uint32()
		}
	}

	var wg sync.WaitGroup
	for w := 0; w < nWorkers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for _, k := range keys[w] {
				f.Add(k)
			}
		}(w)
	}
	wg.Wait()

	for w := 0; w < nWorkers; w++ {
		for _, k := range keys[w] {
			assert.True(t, f.Contains(k))
		}
	}
}

// TestEmpiricalFPR inserts 100k distinct keys, queries 100k disjoint
// keys, and expects the empirical false positive rate to stay below
// twice the target rate the filter was sized for with Optimize.
func TestEmpiricalFPR(t *testing.T) {
	const n = 100_000
	m, k := Optimize(n, 1.0/256)
	f, err := New(Config{Variant: Blocked, M: m, K: k, B: 512, Seed: 11})
	require.NoError(t, err)

	r := rand.New(rand.NewSource(5))
	present := make(map[uint32]bool, n)
	for len(present) < n {
		k := r.Uint32()
		if !present[k] {
			present[k] = true
			f.Add(k)
		}
	}

	disjoint := make([]uint32, 0, n)
	for len(disjoint) < n {
		k := r.Uint32()
		if !present[k] {
			disjoint = append(disjoint, k)
		}
	}

	falsePositives := 0
	for _, key := range disjoint {
		if f.Contains(key) {
			falsePositives++
		}
	}
	empirical := float64(falsePositives) / float64(n)
	target := 1.0 / 256
	assert.Less(t, empirical, target*2, "empirical FPR should stay below 2x the target rate")
}

func TestUnion(t *testing.T) {
	cfg := Config{Variant: Blocked, M: 1 << 14, K: 5, B: 512, Seed: 4}
	f, err := New(cfg)
	require.NoError(t, err)
	g, err := New(cfg)
	require.NoError(t, err)

	f.Add(1)
	g.Add(2)
	f.Union(g)

	assert.True(t, f.Contains(1))
	assert.True(t, f.Contains(2))
}

func TestUnionPanicsOnShapeMismatch(t *testing.T) {
	f, _ := New(Config{M: 1024, K: 3})
	g, _ := New(Config{M: 2048, K: 3})
	assert.Panics(t, func() { f.Union(g) })
}
