package join

// Algorithm selects a join strategy. The ten values mirror the benchmark
// harness's original named variants: a four-way radix join family (plain,
// two-pass, two-pass-with-SWWC, two-pass-with-SWWC-and-skew-handling), a
// no-partitioning join in threaded and single-threaded form, and the same
// four radix variants again with a Bloom filter pruning S before it is
// partitioned.
type Algorithm int

const (
	// RJ is the single-pass radix join: one partitioning pass, then one
	// build+probe per partition.
	RJ Algorithm = iota
	// PRO adds a second partitioning pass (two-pass radix join).
	PRO
	// PRH is PRO with scatter writes staged through software
	// write-combining buffers.
	PRH
	// PRHO is PRH with oversized partitions split into probe sub-tasks
	// that idle workers can steal.
	PRHO
	// NPO is the no-partitioning concurrent hash join: one shared table,
	// built and probed by all worker threads.
	NPO
	// NPOst is NPO run with a single worker and unsynchronized inserts —
	// the degenerate single-threaded case, not a separate code path.
	NPOst
	// BRJ is RJ with a Bloom filter built during R's scatter and probed
	// before S is scattered.
	BRJ
	// BPRO is PRO's Bloom-filtered counterpart.
	BPRO
	// BPRH is PRH's Bloom-filtered counterpart.
	BPRH
	// BPRHO is PRHO's Bloom-filtered counterpart.
	BPRHO
)

// String names an Algorithm the way the CLI's -algo flag spells it.
func (a Algorithm) String() string {
	switch a {
	case RJ:
		return "RJ"
	case PRO:
		return "PRO"
	case PRH:
		return "PRH"
	case PRHO:
		return "PRHO"
	case NPO:
		return "NPO"
	case NPOst:
		return "NPOst"
	case BRJ:
		return "BRJ"
	case BPRO:
		return "BPRO"
	case BPRH:
		return "BPRH"
	case BPRHO:
		return "BPRHO"
	default:
		return "unknown"
	}
}

// AlgorithmFromString parses the -algo flag's spelling of an Algorithm.
func AlgorithmFromString(s string) (Algorithm, bool) {
	for _, a := range []Algorithm{RJ, PRO, PRH, PRHO, NPO, NPOst, BRJ, BPRO, BPRH, BPRHO} {
		if a.String() == s {
			return a, true
		}
	}
	return 0, false
}

// variantSpec captures the structural differences between Algorithm
// values so radix_join.go and bloom_join.go can share one implementation
// parameterized by these flags instead of duplicating the phase sequence
// per variant.
type variantSpec struct {
	twoPass bool // second radix partitioning pass within each first-pass partition
	swwc    bool // scatter writes staged through software write-combining buffers
	skewed  bool // oversized partitions split into probe sub-tasks
	bloom   bool // Bloom filter built during R's scatter, probed before S's
}

func (a Algorithm) spec() variantSpec {
	switch a {
	case RJ:
		return variantSpec{}
	case PRO:
		return variantSpec{twoPass: true}
	case PRH:
		return variantSpec{twoPass: true, swwc: true}
	case PRHO:
		return variantSpec{twoPass: true, swwc: true, skewed: true}
	case BRJ:
		return variantSpec{bloom: true}
	case BPRO:
		return variantSpec{twoPass: true, bloom: true}
	case BPRH:
		return variantSpec{twoPass: true, swwc: true, bloom: true}
	case BPRHO:
		return variantSpec{twoPass: true, swwc: true, skewed: true, bloom: true}
	default:
		panic("join: spec() called on a non-radix algorithm")
	}
}

func (a Algorithm) isRadixFamily() bool {
	switch a {
	case RJ, PRO, PRH, PRHO, BRJ, BPRO, BPRH, BPRHO:
		return true
	default:
		return false
	}
}

func (a Algorithm) isNPFamily() bool {
	return a == NPO || a == NPOst
}
