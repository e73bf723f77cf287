package radixpart

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Briimbo/HwBloomRadixJoin/bloom"
	"github.com/Briimbo/HwBloomRadixJoin/tuple"
)

func randRelation(n int, seed int64) tuple.Relation {
	r := rand.New(rand.NewSource(seed))
	tuples := make([]tuple.Tuple, n)
	for i := range tuples {
		tuples[i] = tuple.Tuple{Key: r.Int31(), Payload: int32(i)}
	}
	return tuple.New(tuples)
}

// TestHistogramSumsMatchPartitionSize checks that the sum of per-thread
// histograms for a partition equals that partition's tuple count.
func TestHistogramSumsMatchPartitionSize(t *testing.T) {
	p := Pass{Bits: 4, HashSeed: 7}
	rel := randRelation(10_000, 1)
	parts := tuple.Split(rel, 5)

	hist := make([][]int, len(parts))
	for i, part := range parts {
		hist[i] = p.Histogram(part)
	}
	layout := PrefixSum(hist)
	assert.NotPanics(t, func() { CheckHistogramSums(hist, layout) })

	total := 0
	for _, s := range layout.Size {
		total += s
	}
	assert.Equal(t, rel.Len(), total)
}

// TestScatterIsStablePlacement checks that after partitioning, all
// tuples with the same low partition-bits are contiguous, and every
// tuple from the input appears exactly once in the
// output.
func TestScatterIsStablePlacement(t *testing.T) {
	p := Pass{Bits: 3, HashSeed: 11}
	rel := randRelation(5000, 2)
	parts := tuple.Split(rel, 4)

	hist := make([][]int, len(parts))
	for i, part := range parts {
		hist[i] = p.Histogram(part)
	}
	layout := PrefixSum(hist)
	out := make([]tuple.Tuple, layout.Total)

	for i, part := range parts {
		p.Scatter(part, layout.Dst[i], out)
	}

	seen := make(map[int32]int)
	for _, t := range rel.Tuples {
		seen[t.Payload]++
	}

	for partID := 0; partID < p.NumPartitions(); partID++ {
		partRel := Partition(out, layout, partID)
		for _, tup := range partRel.Tuples {
			assert.EqualValues(t, partID, p.PartitionOf(tup.Key))
			seen[tup.Payload]--
		}
	}
	for _, remaining := range seen {
		assert.Zero(t, remaining, "every input tuple must appear exactly once in the output")
	}
}

func TestScatterSWWCMatchesPlainScatter(t *testing.T) {
	rel := randRelation(3000, 3)
	parts := tuple.Split(rel, 3)

	run := func(swwc bool) []tuple.Tuple {
		p := Pass{Bits: 5, HashSeed: 99, SWWC: swwc}
		hist := make([][]int, len(parts))
		for i, part := range parts {
			hist[i] = p.Histogram(part)
		}
		layout := PrefixSum(hist)
		out := make([]tuple.Tuple, layout.Total)
		for i, part := range parts {
			p.Scatter(part, layout.Dst[i], out)
		}
		return out
	}

	plain := run(false)
	swwc := run(true)

	plainKeys := make(map[int32]int)
	swwcKeys := make(map[int32]int)
	for _, t := range plain {
		if t != (tuple.Tuple{}) {
			plainKeys[t.Payload]++
		}
	}
	for _, t := range swwc {
		if t != (tuple.Tuple{}) {
			swwcKeys[t.Payload]++
		}
	}
	assert.Equal(t, plainKeys, swwcKeys)
}

func TestBloomFilteredPassDropsNonMembers(t *testing.T) {
	f, err := bloom.New(bloom.Config{Variant: bloom.Blocked, M: 1 << 16, K: 6, B: 512, Seed: 5})
	require.NoError(t, err)

	rRel := randRelation(1000, 4)
	for _, t := range rRel.Tuples {
		f.Add(uint32(t.Key))
	}

	p := Pass{Bits: 4, HashSeed: 5}
	sRel := randRelation(2000, 9) // mostly disjoint keys from R

	hist := p.HistogramFiltered(sRel, f)
	total := 0
	for _, c := range hist {
		total += c
	}

	layout := PrefixSum([][]int{hist})
	out := make([]tuple.Tuple, layout.Total)
	p.ScatterFiltered(sRel, layout.Dst[0], out, f)

	written := 0
	for partID := 0; partID < p.NumPartitions(); partID++ {
		written += layout.Size[partID]
	}
	assert.Equal(t, total, written)
	assert.LessOrEqual(t, written, sRel.Len())

	for partID := 0; partID < p.NumPartitions(); partID++ {
		for _, tup := range Partition(out, layout, partID).Tuples {
			assert.True(t, f.Contains(uint32(tup.Key)))
		}
	}
}
