package join

import (
	"errors"
	"fmt"
	"time"

	"github.com/Briimbo/HwBloomRadixJoin/bloom"
	"github.com/Briimbo/HwBloomRadixJoin/cpuaffinity"
	"github.com/Briimbo/HwBloomRadixJoin/tuple"
)

var (
	ErrBadThreadCount    = errors.New("join: NThreads must be at least 1")
	ErrUnknownAlgorithm  = errors.New("join: unrecognized Algorithm")
	ErrBadRadixBits      = errors.New("join: Bits1 must not be negative for a radix-family algorithm")
	ErrMissingBloomArgs  = errors.New("join: Bloom must be set for a Bloom-variant algorithm")
	ErrUnwantedBloomArgs = errors.New("join: Bloom must be nil for a non-Bloom algorithm")
)

// BloomArgs configures the Bloom filter a B* algorithm builds during R's
// partitioning and probes before S is partitioned.
type BloomArgs struct {
	Variant bloom.Variant
	// Bits is the filter's total bit width; if zero, it is derived from
	// len(R) and TargetFPR via bloom.Optimize.
	Bits uint32
	// Hashes is the number of probes per key; if zero, derived the same
	// way as Bits.
	Hashes uint32
	// BlockBits is the block size for the Blocked variant; ignored for
	// Basic. Defaults to 512 (one 64-byte cache line of bits) if zero.
	BlockBits uint32
	// TargetFPR is used to size Bits/Hashes when they are left zero.
	// Defaults to 0.02 if zero.
	TargetFPR float64
}

// Config parameterizes a single join: algorithm, thread count, radix
// fan-out, and (for Bloom variants) filter parameters. The relations
// themselves are passed to Join separately.
type Config struct {
	Algorithm Algorithm
	NThreads  int
	// Bits1 is the first-pass radix partitioning fan-out in bits; ignored
	// by NPO/NPOst. Defaults to 10 if zero.
	Bits1 int
	// Bits2 is the second-pass radix fan-out for two-pass variants
	// (PRO/PRH/PRHO and their Bloom counterparts). Defaults to 7 if zero.
	Bits2 int
	// Bloom must be set for a B* Algorithm and nil otherwise.
	Bloom *BloomArgs
	// CPUOf maps a worker index to a logical CPU; defaults to
	// cpuaffinity.RoundRobin(NThreads).
	CPUOf func(thread int) int
	// OnMatch, if non-nil, is invoked for every matching (r, s) pair in
	// addition to being counted. Implementations do not guarantee an
	// ordering across workers.
	OnMatch func(r, s tuple.Tuple)
}

// Result is the outcome of a join.
type Result struct {
	Matches int64
	// PerThreadTime is left nil: per-thread timing collection is left to
	// an external caller; cmd/hjoin reports wall-clock time around the
	// whole call instead.
	PerThreadTime []time.Duration
}

func (c Config) validate() error {
	if c.NThreads < 1 {
		return ErrBadThreadCount
	}
	switch c.Algorithm {
	case RJ, PRO, PRH, PRHO, NPO, NPOst, BRJ, BPRO, BPRH, BPRHO:
	default:
		return fmt.Errorf("%w: %v", ErrUnknownAlgorithm, c.Algorithm)
	}
	if c.Algorithm.isRadixFamily() && c.Bits1 < 0 {
		return ErrBadRadixBits
	}

	wantsBloom := c.Algorithm.isRadixFamily() && c.Algorithm.spec().bloom
	if wantsBloom && c.Bloom == nil {
		return ErrMissingBloomArgs
	}
	if !wantsBloom && c.Bloom != nil {
		return ErrUnwantedBloomArgs
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.Bits1 == 0 {
		c.Bits1 = 10
	}
	if c.Bits2 == 0 {
		c.Bits2 = 7
	}
	if c.CPUOf == nil {
		c.CPUOf = cpuaffinity.RoundRobin(c.NThreads)
	}
	return c
}

// Join runs a single equi-join of r (build side) and s (probe side) on
// Tuple.Key, per Config.Algorithm, and returns the number of matching
// pairs found.
func Join(cfg Config, r, s tuple.Relation) (Result, error) {
	if err := cfg.validate(); err != nil {
		return Result{}, err
	}
	cfg = cfg.withDefaults()

	switch {
	case cfg.Algorithm.isNPFamily():
		matches := npJoin(cfg, r, s)
		return Result{Matches: int64(matches)}, nil
	case cfg.Algorithm.isRadixFamily():
		matches, err := radixFamilyJoin(cfg, r, s)
		if err != nil {
			return Result{}, err
		}
		return Result{Matches: int64(matches)}, nil
	default:
		return Result{}, fmt.Errorf("%w: %v", ErrUnknownAlgorithm, cfg.Algorithm)
	}
}

func nextPow2(n int) int {
	if n < 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
