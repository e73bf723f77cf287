// Package cpuaffinity implements the cpu_of(thread_id) -> core_id mapping
// that the join core pins worker goroutines with: the join core only
// ever calls a func(int) int, and this package supplies the two ways to
// build one - round robin over the machine's logical CPUs, or a mapping
// loaded from a file (first int max_cpus, then that many logical-to-physical
// core ids).
package cpuaffinity

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime"
)

// Mapping maps a worker thread index to a logical CPU id.
type Mapping func(thread int) int

// RoundRobin returns a Mapping that assigns threads to logical CPUs 0..n-1
// in round-robin order, n defaulting to runtime.NumCPU() when ncpu <= 0.
// This is the fallback used when no mapping file is given.
func RoundRobin(ncpu int) Mapping {
	if ncpu <= 0 {
		ncpu = runtime.NumCPU()
	}
	if ncpu < 1 {
		ncpu = 1
	}
	return func(thread int) int {
		return thread % ncpu
	}
}

// LoadMappingFile parses a CPU-mapping file: a leading integer max_cpus,
// followed by max_cpus integers giving the logical CPU id for each
// thread index in turn.
func LoadMappingFile(r io.Reader) (Mapping, error) {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)

	readInt := func() (int, error) {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return 0, err
			}
			return 0, io.ErrUnexpectedEOF
		}
		var v int
		_, err := fmt.Sscanf(sc.Text(), "%d", &v)
		return v, err
	}

	maxCPUs, err := readInt()
	if err != nil {
		return nil, fmt.Errorf("cpuaffinity: reading max_cpus: %w", err)
	}
	if maxCPUs < 1 {
		return nil, fmt.Errorf("cpuaffinity: max_cpus must be positive, got %d", maxCPUs)
	}

	ids := make([]int, maxCPUs)
	for i := range ids {
		v, err := readInt()
		if err != nil {
			return nil, fmt.Errorf("cpuaffinity: reading mapping entry %d: %w", i, err)
		}
		ids[i] = v
	}

	return func(thread int) int {
		return ids[thread%len(ids)]
	}, nil
}

// LoadMappingFilePath opens path and parses it as a CPU-mapping file.
func LoadMappingFilePath(path string) (Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadMappingFile(f)
}
