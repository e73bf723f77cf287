package join

import (
	"github.com/Briimbo/HwBloomRadixJoin/internal/htable"
	"github.com/Briimbo/HwBloomRadixJoin/internal/workerpool"
	"github.com/Briimbo/HwBloomRadixJoin/tuple"
)

// overflowFactor bounds the expected overflow chain length per bucket;
// sizing the arena to this fraction of the relation keeps "overflow
// allocation always succeeds" a sizing invariant rather than a runtime
// check.
const overflowFactor = 0.5

func overflowCapacityFor(n int) int {
	c := int(float64(n) * overflowFactor)
	if c < 16 {
		c = 16
	}
	return c
}

// npJoin implements NPO and NPOst: one shared chained hash table is built
// from R and probed by S. NPOst is the same code path run with a single
// worker and unsynchronized inserts, not a hand-duplicated serial copy.
func npJoin(cfg Config, r, s tuple.Relation) int {
	n := cfg.NThreads
	if cfg.Algorithm == NPOst {
		n = 1
	}

	table := htable.New(nextPow2(r.Len()/htable.BucketSize), overflowCapacityFor(r.Len()), 0x9e3779b9)
	pool := workerpool.New(n, cfg.CPUOf)

	rParts := tuple.Split(r, n)
	sParts := tuple.Split(s, n)

	if n == 1 {
		for _, t := range rParts[0].Tuples {
			table.InsertUnsynchronized(t)
		}
	} else {
		pool.Run(func(w int) {
			for _, t := range rParts[w].Tuples {
				table.InsertLocked(t)
			}
		})
	}

	return pool.RunAndSum(func(w int) int {
		count := 0
		for _, t := range sParts[w].Tuples {
			count += table.Probe(t, cfg.OnMatch)
		}
		return count
	})
}
