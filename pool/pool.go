// Package pool implements a multi-process-style worker pool and a red/blue
// exclusive lock. "Workers" here are goroutines gated by a weighted
// semaphore rather than OS processes — the process boundary this mirrors
// exists elsewhere to isolate the external compiler/runtime's thread-affine
// state, which this package never touches directly (see profiler.Compiler /
// profiler.Runtime); the concurrency *protocol* (bounded parallelism,
// job-kind priority, first-error cancellation) is what this package is
// responsible for getting right.
package pool

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Handler supplies the job-kind-specific logic the pool drives. HandleCreate
// turns one create-phase job into zero or more bench-phase jobs. HandleBench
// runs one bench-phase job; a (nil, nil) return means the combination was
// dropped (e.g. a compiler-tool failure, which is non-fatal) rather than
// produced a result.
type Handler interface {
	HandleCreate(ctx context.Context, job any) ([]any, error)
	HandleBench(ctx context.Context, job any) (result any, err error)
}

// Pool is a job pool backed by two FIFO queues (create, bench), an
// in-flight counter per kind under a mutex, and a condition variable
// broadcast on every completion. "Done" is all counters reaching zero.
type Pool struct {
	workerNum int
	handler   Handler
	onResult  func(result any)

	mu             sync.Mutex
	cond           *sync.Cond
	createQ        []any
	benchQ         []any
	createInFlight int
	benchInFlight  int
	closed         bool
}

// New returns a pool with the given fixed worker count and handler.
// onResult, if non-nil, is invoked synchronously (under no pool lock) for
// every successful bench result as it completes — the profiler uses this to
// drain ResultJobs into its KStat as they arrive, without a separate
// polling goroutine.
func New(workerNum int, handler Handler, onResult func(result any)) *Pool {
	p := &Pool{workerNum: workerNum, handler: handler, onResult: onResult}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Run seeds the create queue with initialCreate and drives the pool to
// completion: every create job, and every bench job it (transitively)
// spawns, is processed exactly once. Run returns the first error any worker
// surfaces, cancelling the rest, or nil once the pool is fully drained.
func (p *Pool) Run(ctx context.Context, initialCreate []any) error {
	p.mu.Lock()
	p.createQ = append(p.createQ, initialCreate...)
	p.createInFlight = len(initialCreate)
	p.mu.Unlock()

	if len(initialCreate) == 0 {
		return nil
	}

	eg, egCtx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(p.workerNum))

	for {
		job, kind, ok := p.popNext()
		if !ok {
			if p.isDone() {
				break
			}
			p.waitForWork()
			continue
		}
		if err := sem.Acquire(egCtx, 1); err != nil {
			if werr := eg.Wait(); werr != nil {
				return werr
			}
			return fmt.Errorf("pool: %w", err)
		}
		j, k := job, kind
		eg.Go(func() error {
			defer sem.Release(1)
			return p.process(egCtx, j, k)
		})
	}

	return eg.Wait()
}

type jobKind int

const (
	kindCreate jobKind = iota
	kindBench
)

// popNext pops the next job, preferring bench over create so memory
// pressure from queued bench inputs stays bounded.
func (p *Pool) popNext() (any, jobKind, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.benchQ) > 0 {
		j := p.benchQ[0]
		p.benchQ = p.benchQ[1:]
		return j, kindBench, true
	}
	if len(p.createQ) > 0 {
		j := p.createQ[0]
		p.createQ = p.createQ[1:]
		return j, kindCreate, true
	}
	return nil, 0, false
}

func (p *Pool) isDone() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.createInFlight == 0 && p.benchInFlight == 0 &&
		len(p.createQ) == 0 && len(p.benchQ) == 0
}

func (p *Pool) waitForWork() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.createQ) == 0 && len(p.benchQ) == 0 &&
		(p.createInFlight > 0 || p.benchInFlight > 0) {
		p.cond.Wait()
	}
}

func (p *Pool) pushBench(jobs []any) {
	if len(jobs) == 0 {
		return
	}
	p.mu.Lock()
	p.benchQ = append(p.benchQ, jobs...)
	p.benchInFlight += len(jobs)
	p.mu.Unlock()
	p.cond.Broadcast()
}

func (p *Pool) finishCreate() {
	p.mu.Lock()
	p.createInFlight--
	p.mu.Unlock()
	p.cond.Broadcast()
}

func (p *Pool) finishBench() {
	p.mu.Lock()
	p.benchInFlight--
	p.mu.Unlock()
	p.cond.Broadcast()
}

func (p *Pool) process(ctx context.Context, job any, kind jobKind) error {
	switch kind {
	case kindCreate:
		spawned, err := p.handler.HandleCreate(ctx, job)
		p.finishCreate()
		if err != nil {
			return err
		}
		p.pushBench(spawned)
		return nil
	case kindBench:
		result, err := p.handler.HandleBench(ctx, job)
		p.finishBench()
		if err != nil {
			return err
		}
		if result != nil && p.onResult != nil {
			p.onResult(result)
		}
		return nil
	default:
		return fmt.Errorf("pool: unknown job kind %d", kind)
	}
}
