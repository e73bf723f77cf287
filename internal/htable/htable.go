// Package htable implements the chained bucket hash table used by both the
// no-partitioning join (locked insertion into one shared table) and the
// radix join family (unsynchronized insertion into one table per
// partition).
//
// Overflow buckets are modeled as an arena plus int32 index rather than a
// linked list of pointers, keeping ownership single-rooted and allowing
// whole-pool release. Index 0 is the "no overflow" sentinel; real overflow
// buckets occupy indices >= 1 of the pre-sized arena, so insertion never
// needs to grow a slice or touch a shared allocator mid-build.
package htable

import (
	"sync/atomic"

	"github.com/Briimbo/HwBloomRadixJoin/hashfn"
	"github.com/Briimbo/HwBloomRadixJoin/tuple"
)

// BucketSize is the number of tuples stored inline in each bucket before
// overflowing, matching the paper's cache-line-sized bucket.
const BucketSize = 2

type bucket struct {
	tuples [BucketSize]tuple.Tuple
	count  int32
	next   int32 // index into Table.overflow; 0 means no overflow bucket
	lock   uint32
}

// Table is a chained bucket hash table over 32-bit integer keys.
type Table struct {
	buckets      []bucket
	overflow     []bucket
	overflowNext int64
	mask         uint32
	seed         uint32
}

// New allocates a Table with numBuckets rounded up to a power of two and
// an overflow arena large enough for overflowCapacity buckets. The arena
// is sized once at construction so that insertion never fails for lack of
// space.
func New(numBuckets, overflowCapacity int, seed uint32) *Table {
	if numBuckets < 1 {
		numBuckets = 1
	}
	n := nextPow2(numBuckets)
	if overflowCapacity < 1 {
		overflowCapacity = 1
	}
	return &Table{
		buckets:  make([]bucket, n),
		overflow: make([]bucket, overflowCapacity+1), // index 0 unused
		mask:     uint32(n - 1),
		seed:     seed,
	}
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func (t *Table) bucketIndex(key int32) uint32 {
	return hashfn.CRC(t.seed, uint32(key)) & t.mask
}

// allocOverflow returns the index of a fresh overflow bucket. It panics if
// the pre-sized arena is exhausted — an internal invariant violation (a
// sizing bug), not a recoverable input error.
func (t *Table) allocOverflow() int32 {
	idx := atomic.AddInt64(&t.overflowNext, 1)
	if int(idx) >= len(t.overflow) {
		panic("htable: overflow arena exhausted")
	}
	return int32(idx)
}

// InsertUnsynchronized inserts tup with no locking. Safe only when the
// caller guarantees exclusive ownership of this Table, as in the radix
// join family where each partition's table is built by a single thread.
func (t *Table) InsertUnsynchronized(tup tuple.Tuple) {
	b := &t.buckets[t.bucketIndex(tup.Key)]
	for {
		if int(b.count) < BucketSize {
			b.tuples[b.count] = tup
			b.count++
			return
		}
		if b.next == 0 {
			b.next = t.allocOverflow()
		}
		b = &t.overflow[b.next]
	}
}

// InsertLocked inserts tup under a per-bucket spinlock, for the
// no-partitioning join's concurrent shared-table build. The lock is a
// single CAS-guarded bit on the bucket's head, reusing the same
// load/compare-and-swap idiom the Bloom filter uses for its atomic bit
// sets, rather than allocating a separate sync.Mutex per bucket.
func (t *Table) InsertLocked(tup tuple.Tuple) {
	head := &t.buckets[t.bucketIndex(tup.Key)]
	for !atomic.CompareAndSwapUint32(&head.lock, 0, 1) {
		// spin; bucket contention is expected to be rare
	}
	defer atomic.StoreUint32(&head.lock, 0)

	b := head
	for {
		if int(b.count) < BucketSize {
			b.tuples[b.count] = tup
			b.count++
			return
		}
		if b.next == 0 {
			b.next = t.allocOverflow()
		}
		b = &t.overflow[b.next]
	}
}

// Probe walks the bucket chain for tup's key and returns the number of
// matching tuples found. If onMatch is non-nil, it is invoked once per
// matching (r, s) pair in chain order, where r is the stored build-side
// tuple and s is tup — an optional per-match sink for callers that want
// the pairs, not just the count.
func (t *Table) Probe(tup tuple.Tuple, onMatch func(r, s tuple.Tuple)) int {
	matches := 0
	b := &t.buckets[t.bucketIndex(tup.Key)]
	for {
		for i := 0; i < int(b.count); i++ {
			if b.tuples[i].Key == tup.Key {
				matches++
				if onMatch != nil {
					onMatch(b.tuples[i], tup)
				}
			}
		}
		if b.next == 0 {
			return matches
		}
		b = &t.overflow[b.next]
	}
}
