// Package transfer runs batches of independent I/O tasks with a bounded
// number in flight. It is board-agnostic: attachment downloads and uploads
// both go through Run.
package transfer

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// ErrInvalidLimit is returned when Run is called with a non-positive
// concurrency limit.
var ErrInvalidLimit = errors.New("transfer: concurrency limit must be positive")

// Task is one asynchronous transfer operation.
type Task func(ctx context.Context) error

// Result is the outcome of one task, in the same slot as its input.
type Result struct {
	Err error
}

// OK reports whether the task succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Run executes tasks with at most limit concurrently in flight and returns
// one result per task, in input order regardless of completion order.
//
// A failing task marks its own slot and never aborts the others; the queue
// always drains. The limit is clamped to [1, len(tasks)]; a limit <= 0 is
// a configuration error. Empty input returns an empty result slice with no
// work scheduled.
func Run(ctx context.Context, tasks []Task, limit int) ([]Result, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	if len(tasks) == 0 {
		return []Result{}, nil
	}
	if limit > len(tasks) {
		limit = len(tasks)
	}

	results := make([]Result, len(tasks))

	// Workers record into their own slot and always return nil, so one
	// failure cannot cancel the rest of the batch.
	var group errgroup.Group
	group.SetLimit(limit)
	for i, task := range tasks {
		i, task := i, task
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = Result{Err: err}
				return nil
			}
			results[i] = Result{Err: runTask(ctx, task)}
			return nil
		})
	}
	_ = group.Wait()

	return results, nil
}

func runTask(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transfer task panicked: %v", r)
		}
	}()
	return task(ctx)
}

// Join collapses the failed slots into a single aggregate error, or nil
// when every task succeeded. Callers report the batch once, not per item.
func Join(results []Result) error {
	var errs []error
	for i, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("task %d: %w", i, r.Err))
		}
	}
	return errors.Join(errs...)
}

// FailedCount returns the number of failed slots.
func FailedCount(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
