package join

import "github.com/Briimbo/HwBloomRadixJoin/bloom"

// defaultBloomFPR is used to size a Bloom filter via bloom.Optimize when
// BloomArgs leaves Bits/Hashes at zero.
const defaultBloomFPR = 0.02

// defaultBlockBits is one 64-byte cache line's worth of bits, used when a
// Blocked filter's BlockBits is left unset.
const defaultBlockBits = 512

// bloomSeed seeds every join-owned Bloom filter; it has no relationship
// to the radix partitioning seeds, since the filter probes an entirely
// independent hash sequence.
const bloomSeed uint32 = 0x2545f491

// buildBloomFilter constructs the shared Bloom filter a B* algorithm
// fills during R's pass-1 scatter and probes before S's. Bits and Hashes
// default to bloom.Optimize's recommendation for nKeys (len(R)) and
// args.TargetFPR (or defaultBloomFPR) when left zero.
func buildBloomFilter(args *BloomArgs, nKeys int) (*bloom.Filter, error) {
	bits, hashes := args.Bits, args.Hashes
	if bits == 0 || hashes == 0 {
		fpr := args.TargetFPR
		if fpr <= 0 {
			fpr = defaultBloomFPR
		}
		m, k := bloom.Optimize(nKeys, fpr)
		if bits == 0 {
			bits = m
		}
		if hashes == 0 {
			hashes = k
		}
	}

	blockBits := args.BlockBits
	if args.Variant == bloom.Blocked && blockBits == 0 {
		blockBits = defaultBlockBits
		if blockBits > bits {
			// A filter smaller than one default block (tiny or empty R)
			// still needs a block size that divides it; shrinking to the
			// whole filter degenerates to a single block, same as Basic.
			blockBits = bits
		}
	}

	return bloom.New(bloom.Config{
		Variant: args.Variant,
		M:       bits,
		K:       hashes,
		B:       blockBits,
		Seed:    bloomSeed,
	})
}
