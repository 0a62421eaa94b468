package parallel

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestPool_CoversRangeExactlyOnce(t *testing.T) {
	p := NewPool(4)
	defer p.Close()

	const n = 1000
	var hits [n]int32
	p.For(n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			atomic.AddInt32(&hits[i], 1)
		}
	})
	for i, h := range hits {
		if h != 1 {
			t.Fatalf("index %d visited %d times", i, h)
		}
	}
}

func TestPool_SmallRangeRunsInline(t *testing.T) {
	p := NewPool(8)
	defer p.Close()

	var calls int
	p.For(3, func(lo, hi int) {
		calls++
		if lo != 0 || hi != 3 {
			t.Errorf("stripe = [%d, %d), want [0, 3)", lo, hi)
		}
	})
	// A single inline call, no data race on the unguarded counter.
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestPool_ZeroAndNegativeRange(t *testing.T) {
	p := NewPool(2)
	defer p.Close()

	p.For(0, func(lo, hi int) { t.Error("fn called for n=0") })
	p.For(-5, func(lo, hi int) { t.Error("fn called for n<0") })
}

func TestPool_DefaultWorkerCount(t *testing.T) {
	p := NewPool(0)
	defer p.Close()
	if p.Workers() < 1 {
		t.Errorf("Workers() = %d, want >= 1", p.Workers())
	}
}

func TestPool_ReusableAcrossCalls(t *testing.T) {
	p := NewPool(3)
	defer p.Close()

	for iter := 0; iter < 50; iter++ {
		var sum atomic.Int64
		p.For(100, func(lo, hi int) {
			var local int64
			for i := lo; i < hi; i++ {
				local += int64(i)
			}
			sum.Add(local)
		})
		if got := sum.Load(); got != 4950 {
			t.Fatalf("iteration %d: sum = %d, want 4950", iter, got)
		}
	}
}

func TestPool_ConcurrentFor(t *testing.T) {
	p := NewPool(4)
	defer p.Close()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var count atomic.Int32
			p.For(64, func(lo, hi int) {
				count.Add(int32(hi - lo))
			})
			if count.Load() != 64 {
				t.Errorf("covered %d of 64", count.Load())
			}
		}()
	}
	wg.Wait()
}

func TestPool_CloseIdempotentAndInlineAfter(t *testing.T) {
	p := NewPool(2)
	p.Close()
	p.Close()

	var calls int
	p.For(100, func(lo, hi int) {
		calls++
		if lo != 0 || hi != 100 {
			t.Errorf("stripe = [%d, %d), want inline [0, 100)", lo, hi)
		}
	})
	if calls != 1 {
		t.Errorf("calls after Close = %d, want 1 inline call", calls)
	}
}
