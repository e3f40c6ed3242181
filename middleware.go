package bastion

import "context"

// Middleware wraps an operation with additional behaviour. Each middleware
// receives the next function in the chain and returns a wrapped version.
type Middleware[T any] func(next func(context.Context) (T, error)) func(context.Context) (T, error)

// Chain composes middlewares so the first argument is the outermost wrapper:
// Chain(a, b)(fn) produces a(b(fn)). Chain() is the identity middleware.
func Chain[T any](middlewares ...Middleware[T]) Middleware[T] {
	return func(next func(context.Context) (T, error)) func(context.Context) (T, error) {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}

		return next
	}
}

// WrapBreaker adapts a breaker into a [Middleware] so it can be chained with
// other protections. The wrapped function reports [Execute]'s outcome as a
// conventional (value, error) pair.
func WrapBreaker[T any](cb *CircuitBreaker) Middleware[T] {
	return func(next func(context.Context) (T, error)) func(context.Context) (T, error) {
		return func(ctx context.Context) (T, error) {
			return Execute(ctx, cb, next).Get()
		}
	}
}

// WrapRetry adapts a retry policy into a [Middleware].
func WrapRetry[T any](p *RetryPolicy) Middleware[T] {
	return func(next func(context.Context) (T, error)) func(context.Context) (T, error) {
		return func(ctx context.Context) (T, error) {
			return Retry(ctx, p, next).Get()
		}
	}
}
