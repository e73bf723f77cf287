// Package genrel generates synthetic join input relations the way the
// original benchmark harness's key generator does: uniform or Zipf-skewed
// keys, optionally forced unique, optionally drawn from the full int32
// range instead of [0, size).
package genrel

import (
	"fmt"
	"math/rand"

	"github.com/Briimbo/HwBloomRadixJoin/tuple"
)

// Config controls how a relation's keys are drawn.
type Config struct {
	Size      int
	Seed      int64
	NonUnique bool
	FullRange bool
	// Skew is the Zipf exponent (theta); 0 means uniform. Matches the
	// -skew CLI flag.
	Skew float64
}

// Generate builds a relation of Config.Size tuples. Payload is always the
// tuple's ordinal position, Key is drawn per Config.
func Generate(cfg Config) (tuple.Relation, error) {
	if cfg.Size < 0 {
		return tuple.Relation{}, fmt.Errorf("genrel: size must be non-negative, got %d", cfg.Size)
	}
	if cfg.Skew < 0 {
		return tuple.Relation{}, fmt.Errorf("genrel: skew must be non-negative, got %g", cfg.Skew)
	}

	r := rand.New(rand.NewSource(cfg.Seed))
	tuples := make([]tuple.Tuple, cfg.Size)

	domain := uint64(cfg.Size)
	if cfg.FullRange || domain == 0 {
		domain = 1 << 31
	}

	var zipf *rand.Zipf
	if cfg.Skew > 0 && domain > 1 {
		// rand.Zipf requires s > 1; map the 0..~2 skew dial the CLI exposes
		// onto the library's s parameter.
		zipf = rand.NewZipf(r, 1+cfg.Skew, 1, domain-1)
	}

	seen := make(map[int32]bool, cfg.Size)
	nextKey := func() int32 {
		if zipf != nil {
			return int32(zipf.Uint64())
		}
		if cfg.FullRange {
			return r.Int31()
		}
		return int32(r.Int63n(int64(domain)))
	}

	// maxRetries bounds the unique-key retry loop: a heavily skewed
	// distribution asked for more unique keys than its effective range
	// supports would otherwise retry forever.
	const maxRetries = 1_000_000
	for i := range tuples {
		key := nextKey()
		if !cfg.NonUnique {
			retries := 0
			for seen[key] {
				if retries >= maxRetries {
					return tuple.Relation{}, fmt.Errorf("genrel: could not find a %dth unique key after %d attempts (domain too small or skew too concentrated for a unique relation)", i, maxRetries)
				}
				key = nextKey()
				retries++
			}
			seen[key] = true
		}
		tuples[i] = tuple.Tuple{Key: key, Payload: int32(i)}
	}

	return tuple.New(tuples), nil
}
