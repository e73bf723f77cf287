// Command hjoin runs a single configurable equi-join benchmark: it
// generates two synthetic relations, joins them with the requested
// algorithm, and reports the match count and wall-clock time. It is the
// CLI surface around the join package, which otherwise has no main of
// its own.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	join "github.com/Briimbo/HwBloomRadixJoin"
	"github.com/Briimbo/HwBloomRadixJoin/bloom"
	"github.com/Briimbo/HwBloomRadixJoin/cpuaffinity"
	"github.com/Briimbo/HwBloomRadixJoin/internal/genrel"
	"github.com/Briimbo/HwBloomRadixJoin/tuple"
)

type cliArgs struct {
	algo           string
	nthreads       int
	rSize, sSize   int
	rSeed, sSeed   int64
	sSel           float64
	skew           float64
	nonUnique      bool
	fullRange      bool
	basicNUMA      bool
	bloomFilter    string
	bloomSize      uint
	bloomHashes    uint
	bloomBlockSize uint
	cpuFile        string
}

func parseArgs(args []string) (cliArgs, error) {
	fs := flag.NewFlagSet("hjoin", flag.ContinueOnError)
	var a cliArgs
	fs.StringVar(&a.algo, "algo", "RJ", "join algorithm: RJ, PRO, PRH, PRHO, NPO, NPOst, BRJ, BPRO, BPRH, BPRHO")
	fs.IntVar(&a.nthreads, "nthreads", 4, "number of worker threads")
	fs.IntVar(&a.rSize, "r-size", 1_000_000, "number of tuples in R (build side)")
	fs.IntVar(&a.sSize, "s-size", 1_000_000, "number of tuples in S (probe side)")
	fs.Int64Var(&a.rSeed, "r-seed", 1, "RNG seed for R's keys")
	fs.Int64Var(&a.sSeed, "s-seed", 2, "RNG seed for S's keys")
	fs.Float64Var(&a.sSel, "s-sel", 1.0, "fraction of S's keys drawn from R's key set (0..1)")
	fs.Float64Var(&a.skew, "skew", 0, "Zipf skew exponent for key generation, 0 = uniform")
	fs.BoolVar(&a.nonUnique, "non-unique", false, "allow duplicate keys in R")
	fs.BoolVar(&a.fullRange, "full-range", false, "draw keys from the full int32 range instead of [0, size)")
	fs.BoolVar(&a.basicNUMA, "basic-numa", false, "treat the machine as a single NUMA node (round-robin CPU mapping, ignores -cpu-file)")
	fs.StringVar(&a.bloomFilter, "bloom-filter", "", "Bloom filter variant for a B* algorithm: basic or blocked (leave empty for non-Bloom algorithms)")
	fs.UintVar(&a.bloomSize, "bloom-size", 0, "Bloom filter size in bits, 0 = size automatically")
	fs.UintVar(&a.bloomHashes, "bloom-hashes", 0, "Bloom filter probes per key, 0 = size automatically")
	fs.UintVar(&a.bloomBlockSize, "bloom-block-size", 512, "Bloom filter block size in bits (blocked variant only)")
	fs.StringVar(&a.cpuFile, "cpu-file", "", "path to a CPU mapping file (format: max_cpus then that many logical CPU ids)")

	if err := fs.Parse(args); err != nil {
		return cliArgs{}, err
	}
	return a, nil
}

func (a cliArgs) toJoinConfig() (join.Config, error) {
	algo, ok := join.AlgorithmFromString(a.algo)
	if !ok {
		return join.Config{}, fmt.Errorf("unrecognized -algo %q", a.algo)
	}

	cfg := join.Config{
		Algorithm: algo,
		NThreads:  a.nthreads,
	}

	if a.bloomFilter != "" {
		variant, err := parseBloomVariant(a.bloomFilter)
		if err != nil {
			return join.Config{}, err
		}
		cfg.Bloom = &join.BloomArgs{
			Variant:   variant,
			Bits:      uint32(a.bloomSize),
			Hashes:    uint32(a.bloomHashes),
			BlockBits: uint32(a.bloomBlockSize),
		}
	}

	if a.basicNUMA || a.cpuFile == "" {
		cfg.CPUOf = cpuaffinity.RoundRobin(0)
	} else {
		mapping, err := cpuaffinity.LoadMappingFilePath(a.cpuFile)
		if err != nil {
			return join.Config{}, fmt.Errorf("loading -cpu-file: %w", err)
		}
		cfg.CPUOf = mapping
	}

	return cfg, nil
}

func parseBloomVariant(s string) (bloom.Variant, error) {
	switch s {
	case "basic":
		return bloom.Basic, nil
	case "blocked":
		return bloom.Blocked, nil
	default:
		return 0, fmt.Errorf("unrecognized -bloom-filter %q, want basic or blocked", s)
	}
}

// generateRelations builds R uniformly/skewed per a's flags, then builds
// S so that approximately a.sSel of its tuples carry a key also present
// in R (a hit) and the rest carry a freshly drawn key (usually a miss).
func generateRelations(a cliArgs) (tuple.Relation, tuple.Relation, error) {
	r, err := genrel.Generate(genrel.Config{
		Size:      a.rSize,
		Seed:      a.rSeed,
		NonUnique: a.nonUnique,
		FullRange: a.fullRange,
		Skew:      a.skew,
	})
	if err != nil {
		return tuple.Relation{}, tuple.Relation{}, fmt.Errorf("generating R: %w", err)
	}
	if a.sSel < 0 || a.sSel > 1 {
		return tuple.Relation{}, tuple.Relation{}, fmt.Errorf("-s-sel must be in [0, 1], got %g", a.sSel)
	}

	rnd := rand.New(rand.NewSource(a.sSeed))
	sTuples := make([]tuple.Tuple, a.sSize)
	for i := range sTuples {
		var key int32
		if r.Len() > 0 && rnd.Float64() < a.sSel {
			key = r.Tuples[rnd.Intn(r.Len())].Key
		} else if a.fullRange {
			key = rnd.Int31()
		} else {
			key = int32(rnd.Int63n(int64(a.sSize) + 1))
		}
		sTuples[i] = tuple.Tuple{Key: key, Payload: int32(i)}
	}
	return r, tuple.New(sTuples), nil
}

func run(args []string) int {
	a, err := parseArgs(args)
	if err != nil {
		log.Printf("argument error: %v", err)
		return 1
	}

	cfg, err := a.toJoinConfig()
	if err != nil {
		log.Printf("configuration error: %v", err)
		return 1
	}

	r, s, err := generateRelations(a)
	if err != nil {
		log.Printf("workload generation error: %v", err)
		return 1
	}

	start := time.Now()
	res, err := join.Join(cfg, r, s)
	elapsed := time.Since(start)
	if err != nil {
		log.Printf("join error: %v", err)
		return 2
	}

	fmt.Printf("algo=%s nthreads=%d |R|=%d |S|=%d matches=%d elapsed=%s\n",
		cfg.Algorithm, cfg.NThreads, r.Len(), s.Len(), res.Matches, elapsed)
	return 0
}

func main() {
	os.Exit(run(os.Args[1:]))
}
