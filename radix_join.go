package join

import (
	"sync/atomic"

	"github.com/Briimbo/HwBloomRadixJoin/bloom"
	"github.com/Briimbo/HwBloomRadixJoin/internal/htable"
	"github.com/Briimbo/HwBloomRadixJoin/internal/radixpart"
	"github.com/Briimbo/HwBloomRadixJoin/internal/workerpool"
	"github.com/Briimbo/HwBloomRadixJoin/tuple"
)

// partitionSeed1, partitionSeed2 are the hash seeds for the first and
// second radix partitioning passes. They only need to differ from each
// other and from the seed a caller's Bloom filter uses.
const (
	partitionSeed1 uint32 = 0x1b873593
	partitionSeed2 uint32 = 0x85ebca6b
)

// radixFamilyJoin implements RJ/PRO/PRH/PRHO and their Bloom-filtered
// counterparts BRJ/BPRO/BPRH/BPRHO: one or two radix partitioning passes
// driven by internal/workerpool's barrier, then a build+probe step per
// resulting partition.
func radixFamilyJoin(cfg Config, r, s tuple.Relation) (int, error) {
	vs := cfg.Algorithm.spec()
	n := cfg.NThreads
	pool := workerpool.New(n, cfg.CPUOf)

	var filter *bloom.Filter
	if vs.bloom {
		f, err := buildBloomFilter(cfg.Bloom, r.Len())
		if err != nil {
			return 0, err
		}
		filter = f
	}

	pass1 := radixpart.Pass{Bits: cfg.Bits1, HashSeed: partitionSeed1, SWWC: vs.swwc}
	pass2 := radixpart.Pass{Bits: cfg.Bits2, HashSeed: partitionSeed2}

	rParts := tuple.Split(r, n)
	sParts := tuple.Split(s, n)

	rHist := make([][]int, n)
	sHist := make([][]int, n)
	var rLayout, sLayout radixpart.Layout
	var rOut, sOut []tuple.Tuple

	pool.Run(
		func(w int) { rHist[w] = pass1.Histogram(rParts[w]) },
		func(w int) {
			if w == 0 {
				rLayout = radixpart.PrefixSum(rHist)
				rOut = make([]tuple.Tuple, rLayout.Total)
			}
		},
		func(w int) {
			if vs.bloom {
				pass1.ScatterAndFill(rParts[w], rLayout.Dst[w], rOut, filter)
			} else {
				pass1.Scatter(rParts[w], rLayout.Dst[w], rOut)
			}
		},
		func(w int) {
			if vs.bloom {
				sHist[w] = pass1.HistogramFiltered(sParts[w], filter)
			} else {
				sHist[w] = pass1.Histogram(sParts[w])
			}
		},
		func(w int) {
			if w == 0 {
				sLayout = radixpart.PrefixSum(sHist)
				sOut = make([]tuple.Tuple, sLayout.Total)
			}
		},
		func(w int) {
			if vs.bloom {
				pass1.ScatterFiltered(sParts[w], sLayout.Dst[w], sOut, filter)
			} else {
				pass1.Scatter(sParts[w], sLayout.Dst[w], sOut)
			}
		},
	)

	nParts := pass1.NumPartitions()

	if !vs.twoPass {
		return buildProbeSinglePass(pool, n, nParts, rOut, sOut, rLayout, sLayout, cfg.OnMatch), nil
	}
	return buildProbeTwoPass(pool, n, nParts, pass2, rOut, sOut, rLayout, sLayout, vs.skewed, cfg.OnMatch), nil
}

func buildTable(rPart tuple.Relation, seed uint32) *htable.Table {
	t := htable.New(nextPow2(rPart.Len()/htable.BucketSize), overflowCapacityFor(rPart.Len()), seed)
	for _, tp := range rPart.Tuples {
		t.InsertUnsynchronized(tp)
	}
	return t
}

func probeAgainst(t *htable.Table, sPart tuple.Relation, onMatch func(r, s tuple.Tuple)) int {
	count := 0
	for _, tp := range sPart.Tuples {
		count += t.Probe(tp, onMatch)
	}
	return count
}

// buildProbeSinglePass handles RJ/BRJ: one htable.Table per first-pass
// partition, built via a shared atomic cursor over partition indices so an
// idle worker always picks up the next unbuilt partition rather than
// sitting on a statically assigned one, then probed with a static stripe
// per worker (RJ/BRJ never enable skewed work-stealing; that's PRHO/BPRHO's
// job, in buildProbeTwoPass).
func buildProbeSinglePass(pool *workerpool.Pool, n, nParts int, rOut, sOut []tuple.Tuple, rLayout, sLayout radixpart.Layout, onMatch func(r, s tuple.Tuple)) int {
	tables := make([]*htable.Table, nParts)

	var buildCursor int64
	pool.Run(func(w int) {
		for {
			idx := atomic.AddInt64(&buildCursor, 1) - 1
			if int(idx) >= nParts {
				return
			}
			rPart := radixpart.Partition(rOut, rLayout, int(idx))
			tables[idx] = buildTable(rPart, seedFor(int(idx)))
		}
	})

	return pool.RunAndSum(func(w int) int {
		local := 0
		for p := w; p < nParts; p += n {
			sPart := radixpart.Partition(sOut, sLayout, p)
			local += probeAgainst(tables[p], sPart, onMatch)
		}
		return local
	})
}

// partitionState holds the second-pass outcome for one first-pass
// partition: one chained hash table and S sub-relation per sub-partition.
type partitionState struct {
	tables []*htable.Table
	sSub   []tuple.Relation
}

func buildSubTables(pass2 radixpart.Pass, rPart, sPart tuple.Relation, seed uint32) partitionState {
	rH := [][]int{pass2.Histogram(rPart)}
	rL := radixpart.PrefixSum(rH)
	rOut2 := make([]tuple.Tuple, rL.Total)
	pass2.Scatter(rPart, rL.Dst[0], rOut2)

	sH := [][]int{pass2.Histogram(sPart)}
	sL := radixpart.PrefixSum(sH)
	sOut2 := make([]tuple.Tuple, sL.Total)
	pass2.Scatter(sPart, sL.Dst[0], sOut2)

	nParts2 := pass2.NumPartitions()
	tables := make([]*htable.Table, nParts2)
	sSub := make([]tuple.Relation, nParts2)
	for p := 0; p < nParts2; p++ {
		tables[p] = buildTable(radixpart.Partition(rOut2, rL, p), seed+uint32(p))
		sSub[p] = radixpart.Partition(sOut2, sL, p)
	}
	return partitionState{tables: tables, sSub: sSub}
}

type subTask struct {
	partition, sub int
}

// buildProbeTwoPass handles PRO/PRH/PRHO and their Bloom counterparts:
// each first-pass partition is locally re-partitioned with pass2 by a
// single worker, yielding a set of small per-sub-partition tables. Probe
// work is then flattened across every (partition, sub-partition) pair;
// PRHO/BPRHO pull from one shared cursor over that flattened list so a
// worker that finishes a small partition's sub-tasks can help with a
// skewed partition's remaining ones, while PRO/PRH split the flattened
// list statically, one stripe per worker.
func buildProbeTwoPass(pool *workerpool.Pool, n, nParts int, pass2 radixpart.Pass, rOut, sOut []tuple.Tuple, rLayout, sLayout radixpart.Layout, skewed bool, onMatch func(r, s tuple.Tuple)) int {
	states := make([]partitionState, nParts)

	var buildCursor int64
	pool.Run(func(w int) {
		for {
			idx := atomic.AddInt64(&buildCursor, 1) - 1
			if int(idx) >= nParts {
				return
			}
			rPart := radixpart.Partition(rOut, rLayout, int(idx))
			sPart := radixpart.Partition(sOut, sLayout, int(idx))
			states[idx] = buildSubTables(pass2, rPart, sPart, seedFor(int(idx)))
		}
	})

	var tasks []subTask
	for p, st := range states {
		for sp := range st.tables {
			tasks = append(tasks, subTask{partition: p, sub: sp})
		}
	}

	probeOne := func(tk subTask) int {
		st := states[tk.partition]
		return probeAgainst(st.tables[tk.sub], st.sSub[tk.sub], onMatch)
	}

	if !skewed {
		return pool.RunAndSum(func(w int) int {
			local := 0
			for i := w; i < len(tasks); i += n {
				local += probeOne(tasks[i])
			}
			return local
		})
	}

	var cursor int64
	return pool.RunAndSum(func(w int) int {
		local := 0
		for {
			idx := atomic.AddInt64(&cursor, 1) - 1
			if int(idx) >= len(tasks) {
				return local
			}
			local += probeOne(tasks[idx])
		}
	})
}

func seedFor(partition int) uint32 {
	return 0x27d4eb2f + uint32(partition)
}
