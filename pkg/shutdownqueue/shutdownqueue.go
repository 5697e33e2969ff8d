// Package shutdownqueue collects cleanup tasks during startup and drains
// them in LIFO order at the end of main. Registration is process-wide so
// components can hook their teardown where they are constructed.
package shutdownqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Task is one cleanup step. It must honor ctx and report a failure
// instead of blocking past the shutdown deadline.
type Task func(ctx context.Context) error

var (
	mu     sync.Mutex
	tasks  []Task
	closed bool
)

// Add registers a task to run on Shutdown. Registration order is reversed
// on drain, so dependents registered later are torn down first. Nil tasks
// and late registrations after Shutdown started are ignored.
func Add(t Task) {
	if t == nil {
		return
	}

	mu.Lock()
	defer mu.Unlock()

	if closed {
		return
	}

	tasks = append(tasks, t)
}

// Shutdown drains the queue in LIFO order and returns the task errors
// joined. Calling it again is a no-op. When ctx ends mid-drain the
// remaining tasks are skipped and the context error is included.
func Shutdown(ctx context.Context) error {
	mu.Lock()

	pending := tasks
	tasks = nil
	closed = true

	mu.Unlock()

	var errs []error

	for i := len(pending) - 1; i >= 0; i-- {
		select {
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("shutdown canceled: %w", ctx.Err()))

			return errors.Join(errs...)
		default:
		}

		err := runTask(ctx, pending[i])
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// runTask converts a panicking task into an error so one bad task cannot
// abort the rest of the drain.
func runTask(ctx context.Context, t Task) (err error) {
	defer func() {
		r := recover()
		if r != nil {
			err = fmt.Errorf("panic in shutdown task: %v", r)
		}
	}()

	return t(ctx)
}
