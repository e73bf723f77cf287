// Package bloom implements the concurrency-sensitive Bloom-filter pre-filter
// used by the Bloom-variant join kernels (BRJ/BPRO/BPRH/BPRHO): a bit array
// with basic (single block spanning the whole filter) and blocked (all k
// probes confined to one cache-line-sized block) variants, atomic fetch-or
// insertion and atomic-load probing.
//
// The probe sequence is the enhanced-double-hashing construction described
// by the reference implementation's bloom_filter.c: a single CrapWow hash
// seeds two running values h, y; hashfn.DoubleHash advances them so that k
// probe positions are produced from one hash computation instead of k
// independent ones.
//
// Filter never reports a false negative: if Contains returns false, Add was
// never called with that key. It never implements a state machine of its
// own — fill and query are two logical phases enforced by whoever
// orchestrates the join (the barrier in internal/workerpool), not by this
// package.
package bloom

import (
	"errors"
	"math"
	"sync/atomic"

	"github.com/Briimbo/HwBloomRadixJoin/hashfn"
)

// Variant selects the internal layout of a Filter's bit array.
type Variant int

const (
	// Basic is a single flat bit array; every probe may land anywhere in
	// the filter, costing up to k cache misses per operation.
	Basic Variant = iota
	// Blocked partitions the bit array into cache-line-sized blocks; a
	// separate hash picks one block per key, and all k probes for that
	// key land inside it, costing at most one cache miss per operation.
	Blocked
)

// wordBits is the width of one storage word.
const wordBits = 32

var (
	ErrNotPowerOfTwo  = errors.New("bloom: m must be a power of two")
	ErrNotMultipleOf8 = errors.New("bloom: m must be a multiple of 8")
	ErrBadHashCount   = errors.New("bloom: k must be at least 1")
	ErrBadBlockSize   = errors.New("bloom: block size must be a power of two dividing m")
)

// Config holds the construction parameters for a Filter: variant, m, k,
// B, and seed.
type Config struct {
	Variant Variant
	M       uint32 // total number of bits, power of two, multiple of 8
	K       uint32 // number of probes per key
	B       uint32 // block size in bits, Blocked only; power of two, divides M
	Seed    uint32
}

// Filter is a concurrent Bloom filter over 32-bit integer keys.
type Filter struct {
	words     []uint32
	variant   Variant
	m         uint32
	k         uint32
	b         uint32 // block size in bits
	numBlocks uint32
	seed      uint32
}

// New validates cfg and constructs an empty Filter. Construction errors
// are returned rather than panicked, since New sits behind join.Join's
// own error-returning constructor chain.
func New(cfg Config) (*Filter, error) {
	if cfg.M == 0 || cfg.M&(cfg.M-1) != 0 {
		return nil, ErrNotPowerOfTwo
	}
	if cfg.M%8 != 0 {
		return nil, ErrNotMultipleOf8
	}
	if cfg.K < 1 {
		return nil, ErrBadHashCount
	}

	b := cfg.B
	if cfg.Variant == Basic {
		b = cfg.M
	}
	if b == 0 || b&(b-1) != 0 || cfg.M%b != 0 {
		return nil, ErrBadBlockSize
	}

	f := &Filter{
		words:     make([]uint32, (cfg.M+wordBits-1)/wordBits),
		variant:   cfg.Variant,
		m:         cfg.M,
		k:         cfg.K,
		b:         b,
		numBlocks: cfg.M / b,
		seed:      cfg.Seed,
	}
	return f, nil
}

// Add inserts key into f. Bits are set with an atomic fetch-or under
// relaxed ordering: the only fence that matters is the barrier the caller
// crosses after all of R's inserts are issued.
func (f *Filter) Add(key uint32) {
	block := f.blockOf(key)
	h, y := f.probeSeed(key)
	for i := 0; i < int(f.k); i++ {
		f.setbitAtomic(block*f.b + h)
		h, y = hashfn.DoubleHash(h, y, i)
		h &= f.b - 1
		y &= f.b - 1
	}
}

// Contains reports whether key may have been added to f. A false result is
// certain; a true result may be a false positive.
func (f *Filter) Contains(key uint32) bool {
	block := f.blockOf(key)
	h, y := f.probeSeed(key)
	for i := 0; i < int(f.k); i++ {
		if !f.getbit(block*f.b + h) {
			return false
		}
		h, y = hashfn.DoubleHash(h, y, i)
		h &= f.b - 1
		y &= f.b - 1
	}
	return true
}

// NumBits returns the total size of f in bits.
func (f *Filter) NumBits() uint32 { return f.m }

// probeSeed computes the initial (h, y) pair for key's probe sequence, per
// bloom_filter.c's add_generic: h = CrapWow(seed,key), y = key+seed, both
// reduced into [0, b) since m/B is a power of two (mod is a bitmask).
func (f *Filter) probeSeed(key uint32) (h, y uint32) {
	h = hashfn.CrapWow(f.seed, key) & (f.b - 1)
	y = (key + f.seed) & (f.b - 1)
	return h, y
}

// blockOf selects the block a key's probes are confined to. Basic has a
// single block (always 0); Blocked uses an independent hash so block
// selection doesn't correlate with the in-block probe sequence.
func (f *Filter) blockOf(key uint32) uint32 {
	if f.numBlocks == 1 {
		return 0
	}
	return reduceRange(hashfn.FNV(f.seed, key), f.numBlocks)
}

// reduceRange maps x into [0, n) without a modulo, using Lemire's
// multiply-shift trick.
func reduceRange(x, n uint32) uint32 {
	return uint32((uint64(x) * uint64(n)) >> 32)
}

func (f *Filter) getbit(i uint32) bool {
	w := atomic.LoadUint32(&f.words[i/wordBits])
	return w&(1<<(i%wordBits)) != 0
}

func (f *Filter) setbitAtomic(i uint32) {
	p := &f.words[i/wordBits]
	bit := uint32(1) << (i % wordBits)
	for {
		old := atomic.LoadUint32(p)
		if old&bit != 0 {
			return
		}
		if atomic.CompareAndSwapUint32(p, old, old|bit) {
			return
		}
	}
}

// Union sets f to the bitwise union of f and g, combining two filters built
// independently (e.g. per-worker filters filled separately) into one. The
// join kernels in this module share a single filter and do not call Union.
// Union panics if f and g were not built with the
// same shape, a programming error rather than a recoverable input error.
func (f *Filter) Union(g *Filter) {
	if f.m != g.m || f.k != g.k || f.b != g.b {
		panic("bloom: Union requires filters of identical shape")
	}
	for i := range f.words {
		f.words[i] |= g.words[i]
	}
}

// correctC maps c = m/n for a vanilla Bloom filter to the corresponding c'
// for a blocked Bloom filter, extending Putze, Sanders & Singler's Table I
// down to zero.
var correctC = []byte{
	1, 1, 2, 4, 5,
	6, 7, 8, 9, 10, 11, 12, 13, 14, 16, 17, 18, 20, 21, 23,
	25, 26, 28, 30, 32, 35, 38, 40, 44, 48, 51, 58, 64, 74, 90,
}

// Optimize returns numbers of bits and hash functions that approximately
// achieve fpRate once nKeys distinct keys have been added, using the
// blocked-filter correction table from Putze, Sanders and Singler, 2010.
// The returned m is a power of two, so any power-of-two block size B no
// larger than m divides it.
func Optimize(nKeys int, fpRate float64) (m, k uint32) {
	if fpRate <= 0 || fpRate > 1 {
		panic("bloom: false positive rate must be in (0, 1]")
	}
	n := float64(nKeys)
	if n == 0 {
		n = 1
	}

	c := math.Ceil(-math.Log2(fpRate) / math.Ln2)
	if int(c) < len(correctC) {
		c = float64(correctC[int(c)])
	} else {
		c *= 3
	}

	bits := c * n
	// Round up to a multiple of the word size and of 8, satisfying New's
	// preconditions regardless of the caller's eventual block size.
	mBits := uint64(math.Ceil(bits/64)) * 64
	mBits = nextPow2(mBits)

	kHashes := math.Round((float64(mBits) / n) * math.Ln2)
	if kHashes < 1 {
		kHashes = 1
	}

	return uint32(mBits), uint32(kHashes)
}

func nextPow2(x uint64) uint64 {
	if x == 0 {
		return 1
	}
	x--
	x |= x >> 1
	x |= x >> 2
	x |= x >> 4
	x |= x >> 8
	x |= x >> 16
	x |= x >> 32
	return x + 1
}
