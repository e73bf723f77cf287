// Package barrier implements a reusable N-goroutine rendezvous point, used
// by internal/workerpool to phase-synchronize radix partitioning and join
// workers.
//
// The generation-counter construction below is the standard idiomatic Go
// pattern for a reusable barrier (see DESIGN.md's standard-library
// justifications).
package barrier

import "sync"

// Barrier blocks N goroutines until all N have arrived, then releases them
// together and resets for the next use. Unlike sync.WaitGroup, the same
// Barrier can be crossed repeatedly by the same set of goroutines, which is
// what a multi-phase partitioning pipeline needs.
type Barrier struct {
	mu         sync.Mutex
	cond       *sync.Cond
	n          int
	waiting    int
	generation uint64
}

// New creates a Barrier for exactly n participants.
func New(n int) *Barrier {
	if n <= 0 {
		panic("barrier: n must be positive")
	}
	b := &Barrier{n: n}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Wait blocks the calling goroutine until all n participants have called
// Wait for the current generation, then releases all of them. The last
// arrival does not block.
//
// Every write a goroutine performs before calling Wait happens-before
// every read any goroutine performs after its own Wait returns, because
// all participants are woken only once every one of them has observed
// the shared mutex.
func (b *Barrier) Wait() {
	b.mu.Lock()
	defer b.mu.Unlock()

	gen := b.generation
	b.waiting++
	if b.waiting == b.n {
		b.waiting = 0
		b.generation++
		b.cond.Broadcast()
		return
	}
	for gen == b.generation {
		b.cond.Wait()
	}
}

// N returns the number of participants the Barrier was built for.
func (b *Barrier) N() int { return b.n }
