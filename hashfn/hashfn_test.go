package hashfn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFuncsAreDeterministic(t *testing.T) {
	fns := map[string]Func{
		"CRC":         CRC,
		"FNV":         FNV,
		"MurmurOAAT":  MurmurOAAT,
		"Murmur3":     Murmur3,
		"XXHash32":    XXHash32,
		"SpookyShort": SpookyShort,
		"CrapWow":     CrapWow,
	}
	for name, fn := range fns {
		t.Run(name, func(t *testing.T) {
			a := fn(42, 12345)
			b := fn(42, 12345)
			assert.Equal(t, a, b, "hash must be pure")
		})
	}
}

func TestFuncsDistinguishKeys(t *testing.T) {
	fns := map[string]Func{
		"CRC":         CRC,
		"FNV":         FNV,
		"MurmurOAAT":  MurmurOAAT,
		"Murmur3":     Murmur3,
		"XXHash32":    XXHash32,
		"SpookyShort": SpookyShort,
		"CrapWow":     CrapWow,
	}
	for name, fn := range fns {
		t.Run(name, func(t *testing.T) {
			seen := make(map[uint32]bool)
			collisions := 0
			for k := uint32(0); k < 2000; k++ {
				h := fn(7, k)
				if seen[h] {
					collisions++
				}
				seen[h] = true
			}
			assert.Less(t, collisions, 50, "too many collisions over 2000 sequential keys")
		})
	}
}

func TestDoubleHashRecurrence(t *testing.T) {
	h, y := CrapWow(1, 99), uint32(99)+1
	seen := make(map[uint32]bool)
	for i := 0; i < 8; i++ {
		seen[h%997] = true
		h, y = DoubleHash(h, y, i)
	}
	assert.Greater(t, len(seen), 1, "probe sequence should visit multiple slots")
}
