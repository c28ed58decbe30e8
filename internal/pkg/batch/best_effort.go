// Package batch implements the best-effort batch fetch policy: every task runs,
// every outcome is kept under its tag, and a failed task contributes its zero value.
package batch

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Task produces one tagged value of a batch.
type Task[T any] func(ctx context.Context) (T, error)

// Outcome is the settled result of one task.
type Outcome[T any] struct {
	Value T
	Err   error
}

// Fulfilled reports whether the task succeeded.
func (o Outcome[T]) Fulfilled() bool {
	return o.Err == nil
}

// Results maps every task tag to its outcome.
type Results[K comparable, T any] map[K]Outcome[T]

// Value returns the tag's value, or the zero value when the task was rejected or absent.
func (r Results[K, T]) Value(key K) T {
	o, ok := r[key]
	if !ok || o.Err != nil {
		var zero T
		return zero
	}
	return o.Value
}

// Rejected returns the tags whose task failed.
func (r Results[K, T]) Rejected() []K {
	var keys []K
	for k, o := range r {
		if o.Err != nil {
			keys = append(keys, k)
		}
	}
	return keys
}

// BestEffort runs all tasks concurrently and waits for every one of them to settle.
// A failure never cancels sibling tasks and is never returned; it is recorded in the task's Outcome
// with a zero Value. limit bounds concurrency when positive.
func BestEffort[K comparable, T any](ctx context.Context, tasks map[K]Task[T], limit int) Results[K, T] {
	results := make(Results[K, T], len(tasks))
	var mu sync.Mutex

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}

	for key, task := range tasks {
		g.Go(func() error {
			value, err := task(ctx)
			if err != nil {
				var zero T
				value = zero
			}

			mu.Lock()
			results[key] = Outcome[T]{Value: value, Err: err}
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return results
}
