package bastion

import (
	"context"
	"fmt"
)

// Future is the pending result of an asynchronous retry. It is completed
// exactly once; after Done is closed the outcome is immutable.
type Future[T any] struct {
	done chan struct{}
	out  Outcome[T]
}

// Done returns a channel that is closed when the outcome is available.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// TryGet returns the outcome if it is already available.
func (f *Future[T]) TryGet() (Outcome[T], bool) {
	select {
	case <-f.done:
		return f.out, true
	default:
		return Outcome[T]{}, false
	}
}

// Wait blocks until the outcome is available or waitCtx is cancelled. A
// cancelled wait yields an [ErrInterrupted]-wrapped failure; the retry loop
// itself keeps running under the context it was started with.
func (f *Future[T]) Wait(waitCtx context.Context) Outcome[T] {
	select {
	case <-f.done:
		return f.out
	case <-waitCtx.Done():
		return Failure[T](fmt.Errorf("%w: %w", ErrInterrupted, waitCtx.Err()))
	}
}

// RetryAsync runs the same attempt/backoff sequence as [Retry] without
// blocking the caller. The loop runs on its own goroutine and parks on the
// policy clock's timer between attempts, so no goroutine spins or sleeps a
// worker thread while waiting to retry. Cancelling ctx terminates the loop
// the same way it terminates [Retry].
func RetryAsync[T any](
	ctx context.Context,
	p *RetryPolicy,
	fn func(context.Context) (T, error),
) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}

	go func() {
		defer close(f.done)

		f.out = Retry(ctx, p, fn)
	}()

	return f
}
