// Package parallel provides a small worker pool for row-striped frame
// processing on the CPU compositing path.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is a fixed set of worker goroutines that execute range stripes.
//
// The CPU compositor calls For once per frame; the pool amortizes goroutine
// startup across ticks so the per-pixel loop stays the only per-frame cost.
//
// Thread safety: Pool is safe for concurrent use, though the compositor
// drives it from a single render loop.
type Pool struct {
	workers int
	tasks   chan stripe
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
}

// stripe is one contiguous sub-range of a For call.
type stripe struct {
	lo, hi int
	fn     func(lo, hi int)
	wg     *sync.WaitGroup
}

// NewPool creates a pool with the specified number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	p := &Pool{
		workers: workers,
		tasks:   make(chan stripe, workers*2),
		done:    make(chan struct{}),
	}
	p.running.Store(true)
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case s := <-p.tasks:
			s.fn(s.lo, s.hi)
			s.wg.Done()
		}
	}
}

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int { return p.workers }

// For splits [0, n) into one stripe per worker and runs fn over the stripes
// concurrently, blocking until all stripes complete. Small ranges (fewer
// elements than workers) run inline on the caller's goroutine.
func (p *Pool) For(n int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	if n < p.workers || !p.running.Load() {
		fn(0, n)
		return
	}

	var wg sync.WaitGroup
	chunk := (n + p.workers - 1) / p.workers
	for lo := 0; lo < n; lo += chunk {
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		wg.Add(1)
		p.tasks <- stripe{lo: lo, hi: hi, fn: fn, wg: &wg}
	}
	wg.Wait()
}

// Close stops the workers. Safe to call multiple times. For calls after
// Close run inline.
func (p *Pool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}
