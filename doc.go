// Package join implements a main-memory equi-join engine over two
// relations keyed on a 32-bit integer column: a parallel radix-partitioned
// hash join family, a no-partitioning concurrent hash join, and four
// Bloom-filter-accelerated radix variants that prune S before it is ever
// partitioned.
//
// Every algorithm shares the same entry point, Join, and differs only in
// how it drives internal/radixpart, internal/htable and
// internal/workerpool — the dispatch mirrors the original benchmark
// harness's function-pointer table, re-expressed here as a tagged
// Algorithm enum with one file per family (radix_join.go, np_join.go,
// bloom_join.go) instead of a table of strategy structs.
package join
