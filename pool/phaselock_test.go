package pool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPhaseLockExcludesOppositeColours(t *testing.T) {
	l := NewPhaseLock()
	var blueHolders, redHolders int32
	var sawOverlap atomic.Bool

	var wg sync.WaitGroup
	run := func(p Phase, counter *int32) {
		defer wg.Done()
		l.With(p, func() {
			n := atomic.AddInt32(counter, 1)
			defer atomic.AddInt32(counter, -1)
			_ = n
			if atomic.LoadInt32(&blueHolders) > 0 && atomic.LoadInt32(&redHolders) > 0 {
				sawOverlap.Store(true)
			}
			time.Sleep(time.Millisecond)
		})
	}

	for i := 0; i < 5; i++ {
		wg.Add(2)
		go run(Blue, &blueHolders)
		go run(Red, &redHolders)
	}
	wg.Wait()

	if sawOverlap.Load() {
		t.Fatal("blue and red holders overlapped")
	}
}

func TestPhaseLockSameColourConcurrent(t *testing.T) {
	l := NewPhaseLock()
	var wg sync.WaitGroup
	var active int32
	var maxActive int32
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.With(Blue, func() {
				n := atomic.AddInt32(&active, 1)
				for {
					m := atomic.LoadInt32(&maxActive)
					if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&active, -1)
			})
		}()
	}
	wg.Wait()
	if maxActive < 2 {
		t.Fatalf("expected same-colour holders to run concurrently, max concurrent = %d", maxActive)
	}
}
