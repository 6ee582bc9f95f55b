// Package dispatch runs per-file jobs either synchronously or on a bounded
// worker pool. Both modes hand back the same Future interface, so callers
// never branch on how a job was executed.
package dispatch

import (
	"context"
	"fmt"
	"iter"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/standardbeagle/treesearch/internal/debug"
)

// Mode describes how a Dispatcher executes jobs.
type Mode int

const (
	// ModeDisabled runs each job on the submitting goroutine.
	ModeDisabled Mode = iota
	// ModePooled runs jobs concurrently, at most Workers() at a time.
	ModePooled
)

func (m Mode) String() string {
	switch m {
	case ModeDisabled:
		return "disabled"
	case ModePooled:
		return "pooled"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Dispatcher executes jobs. The zero value is not usable; call New.
type Dispatcher struct {
	mode    Mode
	workers int
	sem     *semaphore.Weighted
	wg      sync.WaitGroup
}

// New creates a dispatcher. numThreads == 1 disables concurrency,
// numThreads <= 0 uses one worker per CPU, anything else is the pool size.
func New(numThreads int) *Dispatcher {
	if numThreads == 1 {
		return &Dispatcher{mode: ModeDisabled, workers: 1}
	}
	if numThreads <= 0 {
		numThreads = CPUCount()
	}
	if numThreads == 1 {
		return &Dispatcher{mode: ModeDisabled, workers: 1}
	}
	return &Dispatcher{
		mode:    ModePooled,
		workers: numThreads,
		sem:     semaphore.NewWeighted(int64(numThreads)),
	}
}

// CPUCount returns the number of usable CPUs, never less than one.
func CPUCount() int {
	if n := runtime.NumCPU(); n > 0 {
		return n
	}
	return 1
}

// Mode reports the execution mode.
func (d *Dispatcher) Mode() Mode { return d.mode }

// Workers reports the maximum number of concurrently running jobs.
func (d *Dispatcher) Workers() int { return d.workers }

// Close waits for every submitted job to finish.
func (d *Dispatcher) Close() {
	d.wg.Wait()
}

// Submit schedules job for key, typically one corpus file. In disabled
// mode the job has already run when Submit returns.
func Submit[T any](ctx context.Context, d *Dispatcher, key string, job func(ctx context.Context, key string) (T, error)) Future[T] {
	if d.mode == ModeDisabled {
		v, err := run(ctx, key, job)
		return newResolved(key, v, err)
	}

	f := newPending[T](key)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer close(f.done)

		if err := d.sem.Acquire(ctx, 1); err != nil {
			f.err = err
			return
		}
		defer d.sem.Release(1)
		f.value, f.err = run(ctx, key, job)
	}()
	return f
}

// Collect yields futures as they complete: submission order in disabled
// mode, completion order in pooled mode. Stopping early is allowed; the
// remaining jobs still run to completion.
func Collect[T any](d *Dispatcher, futures []Future[T]) iter.Seq[Future[T]] {
	return func(yield func(Future[T]) bool) {
		if d.mode == ModeDisabled {
			for _, f := range futures {
				if !yield(f) {
					return
				}
			}
			return
		}

		// Buffered to len(futures) so waiters never block after an early stop.
		ready := make(chan Future[T], len(futures))
		for _, f := range futures {
			go func(f Future[T]) {
				<-f.Done()
				ready <- f
			}(f)
		}
		for range futures {
			if !yield(<-ready) {
				return
			}
		}
	}
}

// run invokes job, converting a panic into an error.
func run[T any](ctx context.Context, key string, job func(context.Context, string) (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			debug.Log("DISPATCH", "job %s panicked: %v", key, r)
			var zero T
			v = zero
			err = fmt.Errorf("job %s panicked: %v", key, r)
		}
	}()
	return job(ctx, key)
}
