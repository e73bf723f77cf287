// Package hashfn collects 32-bit integer hash functions sharing the
// signature func(seed, key uint32) uint32, used throughout this module for
// partition-bit selection and Bloom-filter probe sequences.
//
// CRC, FNV, MurmurOAAT, SpookyShort and CrapWow are re-expressed directly
// from the reference implementation's hash.c/spooky.c (see DESIGN.md);
// Murmur3 and XXHash32 wrap real third-party hash packages so the family
// also exercises an external, audited implementation alongside the
// hand-rolled ones.
package hashfn

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/cespare/xxhash/v2"
	"github.com/spaolacci/murmur3"
)

// Func is the common signature shared by every hash in this package.
type Func func(seed, key uint32) uint32

// castagnoli is the SSE4.2 CRC32C polynomial table, the instruction the
// reference implementation's hash_crc calls directly via _mm_crc32_u32.
var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// CRC hashes key with CRC32C, using seed as the starting CRC value.
// hash/crc32 complements the register before and after the update, so the
// result is not bit-identical to a raw _mm_crc32_u32(seed, key).
func CRC(seed, key uint32) uint32 {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], key)
	return crc32.Update(seed, castagnoli, buf[:])
}

// FNV is a seeded FNV-1a, processed one byte of key at a time.
func FNV(seed, key uint32) uint32 {
	const (
		offsetBasis = 2166136261
		prime       = 16777619
	)
	h := seed
	h ^= offsetBasis
	for i := 0; i < 4; i++ {
		b := byte(key >> (8 * i))
		h ^= uint32(b)
		h *= prime
	}
	return h
}

// MurmurOAAT is Murmur's mix applied one byte of key at a time.
func MurmurOAAT(seed, key uint32) uint32 {
	h := seed
	for i := 0; i < 4; i++ {
		b := byte(key >> (8 * i))
		h ^= uint32(b)
		h *= 0x5bd1e995
		h ^= h >> 15
	}
	return h
}

// Murmur3 wraps spaolacci/murmur3's 32-bit variant over the little-endian
// bytes of key, seeded.
func Murmur3(seed, key uint32) uint32 {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], key)
	return murmur3.Sum32WithSeed(buf[:], seed)
}

// XXHash32 wraps cespare/xxhash/v2's 64-bit digest of the seed and key
// bytes, with the digest's high and low 32-bit halves xor-folded together,
// so a single well-tested wide-avalanche hash is
// available alongside the hand-rolled family members.
func XXHash32(seed, key uint32) uint32 {
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[:4], seed)
	binary.LittleEndian.PutUint32(buf[4:], key)
	sum := xxhash.Sum64(buf[:])
	return uint32(sum) ^ uint32(sum>>32)
}

// cwfold is the reference implementation's cwfold macro: a 32x32->64 bit
// multiply whose low and high halves are folded (xor) into lo and hi.
func cwfold(a, b, lo, hi uint32) (uint32, uint32) {
	p := uint64(a) * uint64(b)
	lo ^= uint32(p)
	hi ^= uint32(p >> 32)
	return lo, hi
}

// CrapWow is a fast, wide-avalanche hash used by the Bloom filter to seed
// its enhanced-double-hashing probe sequence (see DoubleHash). Re-expressed
// from the reference implementation's cwfold/cwmixb macros as ordinary
// helper code, per this module's design notes on macro-encoded helpers.
func CrapWow(seed, key uint32) uint32 {
	const n = 0x5052acdb
	h := uint32(4) // sizeof(int32)
	k := h + seed + n

	h, k = cwfold(key, n, h, k)
	h, k = cwfold(h^(k+n), n, h, k)

	return k ^ h
}

// DoubleHash advances the enhanced-double-hashing probe state used by
// bloom.Filter: it derives the next probe pair (h, y) from the previous
// one and the zero-based probe index i, emulating k independent hashes
// from a single seed hash at the cost of a few multiply-free additions per
// probe.
func DoubleHash(h, y uint32, i int) (uint32, uint32) {
	return h + y, y + uint32(i) + 1
}

// SpookyShort is SpookyHash's short-message path (Bob Jenkins, public
// domain), specialized to a single 4-byte key and folded through one
// ShortEnd mix, as in the reference implementation's hash_spooky32.
func SpookyShort(seed, key uint32) uint32 {
	const scConst = 0xdeadbeefdeadbeef

	h0, h1 := uint64(seed), uint64(seed)
	c := scConst + uint64(key)
	d := uint64(4) << 56 // sizeof(intkey_t) << 56

	h0, h1, c, d = shortEnd(h0, h1, c, d)
	_ = c
	_ = d
	return uint32(h0)
}

func rot64(x uint64, k uint) uint64 {
	return x<<k | x>>(64-k)
}

// shortEnd is SpookyHash's single-round 4-word mix, transcribed directly
// from spooky.h's ShortEnd.
func shortEnd(h0, h1, h2, h3 uint64) (uint64, uint64, uint64, uint64) {
	h3 ^= h2
	h2 = rot64(h2, 15)
	h3 += h2
	h0 ^= h3
	h3 = rot64(h3, 52)
	h0 += h3
	h1 ^= h0
	h0 = rot64(h0, 26)
	h1 += h0
	h2 ^= h1
	h1 = rot64(h1, 51)
	h2 += h1
	h3 ^= h2
	h2 = rot64(h2, 28)
	h3 += h2
	h0 ^= h3
	h3 = rot64(h3, 9)
	h0 += h3
	h1 ^= h0
	h0 = rot64(h0, 47)
	h1 += h0
	h2 ^= h1
	h1 = rot64(h1, 54)
	h2 += h1
	h3 ^= h2
	h2 = rot64(h2, 32)
	h3 += h2
	h0 ^= h3
	h3 = rot64(h3, 25)
	h0 += h3
	h1 ^= h0
	h0 = rot64(h0, 63)
	h1 += h0
	return h0, h1, h2, h3
}
