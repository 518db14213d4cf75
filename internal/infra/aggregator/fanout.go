// Package aggregator runs independent upstream lookups concurrently and
// reports one outcome per lookup, in input order.
package aggregator

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"kculture/internal/domain"
)

// Task is one independent unit of work.
type Task func(ctx context.Context) error

// Outcome pairs a value with the error that produced it, if any.
type Outcome[T any] struct {
	Value T
	Err   error
}

func (o Outcome[T]) OK() bool {
	return o.Err == nil
}

// All launches every task at once and waits for all of them to settle.
// errs[i] is the error of tasks[i]. One failing task never cancels its
// siblings; only ctx does.
func All(ctx context.Context, tasks ...Task) []error {
	errs := make([]error, len(tasks))
	if len(tasks) == 0 {
		return errs
	}

	var group errgroup.Group
	for i, task := range tasks {
		group.Go(func() error {
			errs[i] = runTask(ctx, task)
			return nil
		})
	}
	_ = group.Wait()
	return errs
}

// Map applies fn to every item concurrently. Result i always belongs to
// items[i], regardless of completion order.
func Map[In, Out any](ctx context.Context, items []In, fn func(ctx context.Context, item In) (Out, error)) []Outcome[Out] {
	outcomes := make([]Outcome[Out], len(items))
	tasks := make([]Task, len(items))
	for i, item := range items {
		tasks[i] = func(ctx context.Context) error {
			value, err := fn(ctx, item)
			outcomes[i].Value = value
			return err
		}
	}
	for i, err := range All(ctx, tasks...) {
		outcomes[i].Err = err
	}
	return outcomes
}

func runTask(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = domain.E(domain.CodeInternal, "aggregator.task", fmt.Sprintf("panic: %v", r), nil)
		}
	}()
	if err := ctx.Err(); err != nil {
		return err
	}
	return task(ctx)
}
