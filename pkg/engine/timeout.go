package engine

import (
	"context"
	"fmt"
	"time"
)

// PipelineTimeout is the default hard limit for a single Generate or Drawing
// call.
const PipelineTimeout = 60 * time.Second

type result[T any] struct {
	val T
	err error
}

// run executes fn on its own goroutine and waits for it, the timeout or ctx,
// whichever comes first. A panic in fn is returned as an error. On timeout
// fn's context is cancelled; fn keeps running until it notices, and its
// result is discarded.
func run[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	ch := make(chan result[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result[T]{err: fmt.Errorf("engine: panic during pipeline: %v", r)}
			}
		}()
		v, err := fn(ctx)
		ch <- result[T]{val: v, err: err}
	}()

	select {
	case res := <-ch:
		return res.val, res.err
	case <-ctx.Done():
		var zero T
		if ctx.Err() == context.DeadlineExceeded {
			return zero, fmt.Errorf("engine: pipeline timed out after %s: %w", timeout, ctx.Err())
		}
		return zero, fmt.Errorf("engine: %w", ctx.Err())
	}
}
