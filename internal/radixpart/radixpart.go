// Package radixpart implements the histogram/prefix-sum/scatter primitives
// of parallel radix partitioning: each worker counts its input slice into
// a private histogram, one worker turns the histograms into disjoint
// per-thread destination ranges padded to cache-line boundaries, and
// every worker re-scans its slice to scatter tuples into the shared
// output buffer at those destinations, optionally staging writes through
// small per-partition buffers (software write-combining).
//
// This package holds no goroutines of its own; internal/workerpool calls
// its functions once per phase, with a barrier between phases.
package radixpart

import (
	"github.com/Briimbo/HwBloomRadixJoin/bloom"
	"github.com/Briimbo/HwBloomRadixJoin/hashfn"
	"github.com/Briimbo/HwBloomRadixJoin/tuple"
)

// cacheLineElems is the number of Tuples (8 bytes each) that fit in one
// 64-byte cache line; per-partition output regions are padded to a
// multiple of this many elements so that two partitions never share a
// cache line, avoiding false sharing across partition boundaries.
const cacheLineElems = 8

// Pass describes one radix partitioning pass: the number of low hash bits
// used to select a partition, the seed for that hash, and whether scatter
// writes should be staged through software write-combining buffers.
type Pass struct {
	Bits     int
	HashSeed uint32
	SWWC     bool
}

// NumPartitions returns 2^Bits.
func (p Pass) NumPartitions() int { return 1 << p.Bits }

func (p Pass) mask() uint32 { return uint32(p.NumPartitions() - 1) }

// PartitionOf returns the partition a key belongs to: the low Bits bits of
// hash_crc(seed, key).
func (p Pass) PartitionOf(key int32) uint32 {
	return hashfn.CRC(p.HashSeed, uint32(key)) & p.mask()
}

// Histogram counts in's tuples per partition.
func (p Pass) Histogram(in tuple.Relation) []int {
	hist := make([]int, p.NumPartitions())
	for _, t := range in.Tuples {
		hist[p.PartitionOf(t.Key)]++
	}
	return hist
}

// HistogramFiltered counts only the tuples of in that pass filter's
// membership test, used for S's pass-1 histogram in the Bloom-filtered
// radix joins: S's destination offsets must reflect post-filter counts,
// not raw counts.
func (p Pass) HistogramFiltered(in tuple.Relation, filter *bloom.Filter) []int {
	hist := make([]int, p.NumPartitions())
	for _, t := range in.Tuples {
		if filter.Contains(uint32(t.Key)) {
			hist[p.PartitionOf(t.Key)]++
		}
	}
	return hist
}

// Layout is the result of combining every worker's histogram into a
// global partitioning plan.
type Layout struct {
	// Dst[thread][partition] is the offset in Out at which thread should
	// write its next tuple for that partition; Scatter advances it.
	Dst [][]int
	// Start[partition] is the first element of partition's (unpadded)
	// region in Out; Start[NumPartitions] is one past the last used
	// element across all partitions' regions (not counting trailing pad).
	Start []int
	// Size[partition] is the number of tuples destined for partition.
	Size []int
	// Total is the padded length Out must be allocated with.
	Total int
}

// PrefixSum turns per-thread histograms into a Layout: disjoint
// destination ranges per (thread, partition), with each partition's region
// starting on a cache-line boundary. This is the one serial step of a
// partitioning pass, run by a single designated worker between the
// histogram and scatter barriers.
func PrefixSum(hist [][]int) Layout {
	nThreads := len(hist)
	nParts := 0
	if nThreads > 0 {
		nParts = len(hist[0])
	}

	dst := make([][]int, nThreads)
	for t := range dst {
		dst[t] = make([]int, nParts)
	}
	start := make([]int, nParts+1)
	size := make([]int, nParts)

	offset := 0
	for part := 0; part < nParts; part++ {
		start[part] = offset
		for t := 0; t < nThreads; t++ {
			dst[t][part] = offset
			offset += hist[t][part]
			size[part] += hist[t][part]
		}
		if rem := offset % cacheLineElems; rem != 0 {
			offset += cacheLineElems - rem
		}
	}
	start[nParts] = offset

	return Layout{Dst: dst, Start: start, Size: size, Total: offset}
}

// CheckHistogramSums panics unless every partition's histogram entries sum
// to that partition's recorded size. It duplicates work the hot path has
// already done, so nothing in the join package calls it outside tests;
// it exists to pin down the histogram/layout invariant this package's own
// tests check against.
func CheckHistogramSums(hist [][]int, layout Layout) {
	for part, want := range layout.Size {
		got := 0
		for t := range hist {
			got += hist[t][part]
		}
		if got != want {
			panic("radixpart: histogram/layout size mismatch")
		}
	}
}

// Scatter writes in's tuples into out at the offsets in dst (this
// worker's row of a Layout.Dst), advancing dst in place. dst must belong
// exclusively to the calling worker; different workers' dst rows target
// disjoint regions of out by construction, so no synchronization is
// needed during the scatter phase itself.
func (p Pass) Scatter(in tuple.Relation, dst []int, out []tuple.Tuple) {
	if p.SWWC {
		p.scatterSWWC(in, dst, out, cacheLineElems)
		return
	}
	for _, t := range in.Tuples {
		part := p.PartitionOf(t.Key)
		out[dst[part]] = t
		dst[part]++
	}
}

// scatterSWWC stages writes through a small per-partition buffer sized
// lineElems, flushing each buffer with one contiguous copy once full. This
// models the software-write-combining optimization's visible effect —
// fewer, larger writes to the shared destination — since Go cannot issue
// the CPU's non-temporal store instructions directly (see SPEC_FULL.md).
func (p Pass) scatterSWWC(in tuple.Relation, dst []int, out []tuple.Tuple, lineElems int) {
	nParts := p.NumPartitions()
	staging := make([][]tuple.Tuple, nParts)
	counts := make([]int, nParts)
	for i := range staging {
		staging[i] = make([]tuple.Tuple, lineElems)
	}

	flush := func(part int) {
		n := counts[part]
		if n == 0 {
			return
		}
		copy(out[dst[part]:dst[part]+n], staging[part][:n])
		dst[part] += n
		counts[part] = 0
	}

	for _, t := range in.Tuples {
		part := int(p.PartitionOf(t.Key))
		staging[part][counts[part]] = t
		counts[part]++
		if counts[part] == lineElems {
			flush(part)
		}
	}
	for part := range staging {
		flush(part)
	}
}

// ScatterAndFill behaves like Scatter, additionally inserting every
// tuple's key into filter as it is written: R's pass-1 scatter step
// builds the shared Bloom filter this way. Order relative to the write
// itself does not matter, only relative to the barrier that follows.
func (p Pass) ScatterAndFill(in tuple.Relation, dst []int, out []tuple.Tuple, filter *bloom.Filter) {
	if p.SWWC {
		for _, t := range in.Tuples {
			filter.Add(uint32(t.Key))
		}
		p.scatterSWWC(in, dst, out, cacheLineElems)
		return
	}
	for _, t := range in.Tuples {
		filter.Add(uint32(t.Key))
		part := p.PartitionOf(t.Key)
		out[dst[part]] = t
		dst[part]++
	}
}

// ScatterFiltered behaves like Scatter but drops any tuple that filter
// reports as absent, never writing it to out and never advancing dst for
// it — S's pass-1 scatter step in the Bloom-filtered joins. dst must
// already reflect post-filter per-partition offsets, i.e. have been built
// from HistogramFiltered's counts.
func (p Pass) ScatterFiltered(in tuple.Relation, dst []int, out []tuple.Tuple, filter *bloom.Filter) {
	if p.SWWC {
		kept := make([]tuple.Tuple, 0, in.Len())
		for _, t := range in.Tuples {
			if filter.Contains(uint32(t.Key)) {
				kept = append(kept, t)
			}
		}
		p.scatterSWWC(tuple.New(kept), dst, out, cacheLineElems)
		return
	}
	for _, t := range in.Tuples {
		if !filter.Contains(uint32(t.Key)) {
			continue
		}
		part := p.PartitionOf(t.Key)
		out[dst[part]] = t
		dst[part]++
	}
}

// Partition returns the (unpadded) slice of out holding partition part's
// tuples, per a Layout produced by PrefixSum.
func Partition(out []tuple.Tuple, layout Layout, part int) tuple.Relation {
	lo := layout.Start[part]
	return tuple.New(out[lo : lo+layout.Size[part]])
}
