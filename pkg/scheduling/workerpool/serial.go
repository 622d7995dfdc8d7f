package workerpool

import (
	"context"
	"fmt"
	"sync"
	"time"

	tferrors "github.com/vnykmshr/tableflow/pkg/common/errors"
)

// serialPool runs every task inline on the submitting goroutine. It stands
// in for a worker pool when parallelism is disabled, so callers can use the
// same code path regardless of pool size.
type serialPool struct {
	mu        sync.Mutex
	closed    bool
	submitted int64
	completed int64
	results   chan Result
	done      chan struct{}
}

// Serial returns a Pool of size one that executes each task synchronously
// inside Submit. It never delivers on Results.
func Serial() Pool {
	return &serialPool{
		results: make(chan Result),
		done:    make(chan struct{}),
	}
}

func (s *serialPool) Submit(task Task) error {
	return s.SubmitWithContext(context.Background(), task)
}

func (s *serialPool) SubmitWithTimeout(task Task, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.SubmitWithContext(ctx, task)
}

// SubmitWithContext runs task before returning. The task's own error is not
// returned; like the concurrent pool, Submit only reports queuing failures.
func (s *serialPool) SubmitWithContext(ctx context.Context, task Task) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("cannot submit task: context canceled: %w", err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("cannot submit task: %w", tferrors.ErrClosed)
	}
	s.submitted++
	s.mu.Unlock()

	s.run(ctx, task)
	return nil
}

func (s *serialPool) run(ctx context.Context, task Task) {
	defer func() {
		// Map recovers panics inside its own tasks. Anything else is
		// dropped the same way an unread Result would be.
		_ = recover()
		s.mu.Lock()
		s.completed++
		s.mu.Unlock()
	}()
	_ = task.Execute(ctx)
}

func (s *serialPool) Results() <-chan Result {
	return s.results
}

func (s *serialPool) Shutdown() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.results)
		close(s.done)
	}
	return s.done
}

func (s *serialPool) Size() int { return 1 }

func (s *serialPool) QueueSize() int { return 0 }

func (s *serialPool) ActiveWorkers() int { return 0 }

func (s *serialPool) TotalSubmitted() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitted
}

func (s *serialPool) TotalCompleted() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed
}
