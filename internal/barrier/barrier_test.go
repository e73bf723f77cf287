package barrier

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBarrierReleasesAllAndIsReusable(t *testing.T) {
	const n = 6
	const phases = 5
	b := New(n)

	var phaseCounter int64
	var wg sync.WaitGroup
	observed := make([][]int64, n)
	for i := range observed {
		observed[i] = make([]int64, phases)
	}

	for w := 0; w < n; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for p := 0; p < phases; p++ {
				atomic.AddInt64(&phaseCounter, 1)
				b.Wait()
				// By the time Wait returns, every worker must have
				// incremented phaseCounter for this phase.
				observed[w][p] = atomic.LoadInt64(&phaseCounter)
				b.Wait()
			}
		}(w)
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("barrier deadlocked")
	}

	for w := 0; w < n; w++ {
		for p := 0; p < phases; p++ {
			assert.EqualValues(t, (p+1)*n, observed[w][p])
		}
	}
}

func TestBarrierSingleParticipant(t *testing.T) {
	b := New(1)
	done := make(chan struct{})
	go func() {
		b.Wait()
		b.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("single-participant barrier should never block")
	}
}
