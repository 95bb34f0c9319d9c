// Package queue provides an ordered asynchronous work queue.
//
// Operations run one at a time on a single worker goroutine, in submission
// order, so an operation always observes the effects of everything submitted
// before it. Launch fans a kernel out over parallel work items inside one
// queue slot. Submitted work cannot be cancelled; callers wait for it with
// Synchronize, which also reports the errors of everything it waited for.
package queue

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/zap"

	vmerrors "github.com/wippyai/vecmem/errors"
)

// Op is one unit of queued work.
type Op func(ctx context.Context) error

// Kernel processes work item i of a launch.
type Kernel func(i int) error

// Config holds configuration for a queue.
// A nil Config selects every default.
type Config struct {
	// Name identifies the queue in logs.
	Name string

	// Workers sets the number of goroutines a Launch fans out to.
	// 0 means runtime.NumCPU().
	Workers int

	// MinChunk sets the minimum number of work items per goroutine.
	// Launches smaller than this run sequentially. 0 means 64.
	MinChunk int

	// Depth sets how many operations may wait before Submit blocks.
	// 0 means 64.
	Depth int
}

type task struct {
	ctx   context.Context
	op    Op
	fence chan error
	name  string
}

// Queue executes operations in submission order.
type Queue struct {
	tasks    chan task
	done     chan struct{}
	errs     []error
	name     string
	workers  int
	minChunk int
	closed   bool
	mu       sync.RWMutex
}

// New starts a queue.
func New(cfg *Config) *Queue {
	q := &Queue{
		done:     make(chan struct{}),
		workers:  runtime.NumCPU(),
		minChunk: 64,
	}
	depth := 64
	if cfg != nil {
		q.name = cfg.Name
		if cfg.Workers > 0 {
			q.workers = cfg.Workers
		}
		if cfg.MinChunk > 0 {
			q.minChunk = cfg.MinChunk
		}
		if cfg.Depth > 0 {
			depth = cfg.Depth
		}
	}
	q.tasks = make(chan task, depth)
	go q.run()
	return q
}

func (q *Queue) run() {
	defer close(q.done)
	for t := range q.tasks {
		if t.fence != nil {
			err := errors.Join(q.errs...)
			q.errs = nil
			t.fence <- err
			continue
		}
		Logger().Debug("queue op", zap.String("queue", q.name), zap.String("op", t.name))
		if err := call(t.ctx, t.op); err != nil {
			Logger().Debug("queue op failed",
				zap.String("queue", q.name),
				zap.String("op", t.name),
				zap.Error(err))
			q.errs = append(q.errs, err)
		}
	}
}

func call(ctx context.Context, op Op) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = vmerrors.New(vmerrors.PhaseQueue, vmerrors.KindInvalidInput).
				Detail("operation panicked: %v", r).
				Build()
		}
	}()
	return op(ctx)
}

func (q *Queue) enqueue(t task) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return vmerrors.Closed(vmerrors.PhaseQueue, "queue")
	}
	q.tasks <- t
	return nil
}

// Submit appends op to the queue. The op receives ctx without its
// cancellation, since submitted work always runs to completion.
func (q *Queue) Submit(ctx context.Context, name string, op Op) error {
	return q.enqueue(task{ctx: context.WithoutCancel(ctx), op: op, name: name})
}

// Synchronize waits until every earlier submission has completed and returns
// their errors joined. Errors are reported once. Cancelling ctx abandons the
// wait, not the work.
func (q *Queue) Synchronize(ctx context.Context) error {
	fence := make(chan error, 1)
	if err := q.enqueue(task{fence: fence}); err != nil {
		return err
	}
	select {
	case err := <-fence:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Launch submits a kernel over n work items. Items run in parallel with no
// ordering between them, after every earlier submission.
func (q *Queue) Launch(ctx context.Context, name string, n int, kernel Kernel) error {
	return q.Submit(ctx, name, func(context.Context) error {
		return q.parallelFor(n, kernel)
	})
}

func (q *Queue) parallelFor(n int, kernel Kernel) error {
	if n <= 0 {
		return nil
	}
	if q.workers <= 1 || n < q.minChunk {
		var errs []error
		for i := 0; i < n; i++ {
			if err := kernel(i); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	chunkSize := max((n+q.workers-1)/q.workers, q.minChunk)

	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					mu.Lock()
					errs = append(errs, fmt.Errorf("work items [%d, %d): kernel panicked: %v", s, e, r))
					mu.Unlock()
				}
			}()
			for i := s; i < e; i++ {
				if err := kernel(i); err != nil {
					mu.Lock()
					errs = append(errs, err)
					mu.Unlock()
				}
			}
		}(start, end)
	}
	wg.Wait()
	return errors.Join(errs...)
}

// Close stops accepting work, waits for queued operations and stops the worker.
// Errors that were never synchronized are logged.
func (q *Queue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.tasks)
	q.mu.Unlock()

	<-q.done
	if len(q.errs) > 0 {
		Logger().Warn("queue closed with unsynchronized errors",
			zap.String("queue", q.name),
			zap.Error(errors.Join(q.errs...)))
	}
	return nil
}
