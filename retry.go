package bastion

import (
	"context"
	"fmt"
	"time"
)

type (
	retryConfig struct {
		clock        Clock
		hooks        *Hooks
		registry     *Registry
		retryIf      func(error) bool
		maxAttempts  int
		initialDelay time.Duration
		maxDelay     time.Duration
		multiplier   float64
		jitter       float64
	}

	// RetryOption configures a retry policy.
	RetryOption func(*retryConfig)

	// RetryPolicy is an immutable retry configuration. Each [Retry]
	// invocation owns its own attempt counter, so a single policy is
	// freely shareable across goroutines without synchronisation.
	RetryPolicy struct {
		cfg  retryConfig
		name string
	}
)

func defaultRetryConfig() retryConfig {
	return retryConfig{
		clock:        RealClock{},
		maxAttempts:  3,
		initialDelay: 100 * time.Millisecond,
		maxDelay:     30 * time.Second,
		multiplier:   2.0,
	}
}

// MaxAttempts sets the total number of attempts, including the first call.
// Values below 1 are clamped to 1.
func MaxAttempts(n int) RetryOption {
	return func(cfg *retryConfig) {
		cfg.maxAttempts = n
	}
}

// InitialDelay sets the backoff delay before the second attempt. Zero makes
// every delay zero regardless of the multiplier.
func InitialDelay(d time.Duration) RetryOption {
	return func(cfg *retryConfig) {
		cfg.initialDelay = d
	}
}

// MaxDelay caps the backoff delay before jitter is applied. Zero means no
// cap.
func MaxDelay(d time.Duration) RetryOption {
	return func(cfg *retryConfig) {
		cfg.maxDelay = d
	}
}

// BackoffMultiplier sets the exponential growth factor between attempts.
// Values below 1.0 are clamped to 1.0.
func BackoffMultiplier(f float64) RetryOption {
	return func(cfg *retryConfig) {
		cfg.multiplier = f
	}
}

// JitterFactor sets the relative jitter applied to each delay: the delay is
// scaled by a factor drawn uniformly from [1-j, 1+j]. Clamped to [0, 1];
// zero makes delays deterministic.
func JitterFactor(j float64) RetryOption {
	return func(cfg *retryConfig) {
		cfg.jitter = j
	}
}

// RetryIf sets the predicate deciding whether an error is worth retrying.
// The default retries everything not marked [Permanent]. Errors raised by
// the predicate itself are programmer errors and propagate as panics.
func RetryIf(fn func(error) bool) RetryOption {
	return func(cfg *retryConfig) {
		cfg.retryIf = fn
	}
}

// RetryClock sets the clock used for backoff waits. Defaults to [RealClock].
func RetryClock(c Clock) RetryOption {
	return func(cfg *retryConfig) {
		cfg.clock = c
	}
}

// RetryHooks sets the lifecycle hooks for this policy.
func RetryHooks(h *Hooks) RetryOption {
	return func(cfg *retryConfig) {
		cfg.hooks = h
	}
}

// RetryRegistry sets an explicit registry for the policy to register with.
// Named policies auto-register with [DefaultRegistry] otherwise.
func RetryRegistry(reg *Registry) RetryOption {
	return func(cfg *retryConfig) {
		cfg.registry = reg
	}
}

// NewRetryPolicy creates a retry policy. The name is used for hooks, logging,
// and registry lookups only. Policies with a non-empty name register
// themselves; pass an empty name for an anonymous policy.
func NewRetryPolicy(name string, opts ...RetryOption) *RetryPolicy {
	cfg := defaultRetryConfig()
	for _, o := range opts {
		o(&cfg)
	}

	if cfg.maxAttempts < 1 {
		cfg.maxAttempts = 1
	}

	if cfg.multiplier < 1.0 {
		cfg.multiplier = 1.0
	}

	if cfg.jitter < 0 {
		cfg.jitter = 0
	} else if cfg.jitter > 1 {
		cfg.jitter = 1
	}

	p := &RetryPolicy{
		name: name,
		cfg:  cfg,
	}

	if name != "" {
		reg := cfg.registry
		if reg == nil {
			reg = DefaultRegistry()
		}

		reg.RegisterPolicy(p)
	}

	return p
}

// Name returns the policy's name.
func (p *RetryPolicy) Name() string { return p.name }

// MaxAttempts returns the configured attempt budget.
func (p *RetryPolicy) MaxAttempts() int { return p.cfg.maxAttempts }

// shouldRetry decides whether err is eligible for another attempt.
// Permanent-marked errors always stop the loop; beyond that the configured
// predicate (default: [IsTransient]) decides.
func (p *RetryPolicy) shouldRetry(err error) bool {
	if IsPermanent(err) {
		return false
	}

	if p.cfg.retryIf != nil {
		return p.cfg.retryIf(err)
	}

	return IsTransient(err)
}

// wait sleeps for d via the policy's clock. Context cancellation terminates
// the whole retry loop: it surfaces as a distinct ErrInterrupted-wrapped
// error rather than being swallowed.
func (p *RetryPolicy) wait(ctx context.Context, d time.Duration) error {
	timer := p.cfg.clock.NewTimer(d)

	select {
	case <-timer.C():
		return nil
	case <-ctx.Done():
		timer.Stop()
		return fmt.Errorf("%w: %w", ErrInterrupted, ctx.Err())
	}
}

// Retry invokes fn until it succeeds, the attempt budget runs out, or the
// retry predicate rejects the error. Exhaustion yields an [*ExhaustedError]
// wrapping the last error; cancellation during a backoff wait yields an
// [ErrInterrupted]-wrapped error. fn panics are captured like operation
// errors, so Retry always returns a definite [Outcome].
func Retry[T any](
	ctx context.Context,
	p *RetryPolicy,
	fn func(context.Context) (T, error),
) Outcome[T] {
	for attempt := 1; ; attempt++ {
		val, err := invoke(ctx, fn)
		if err == nil {
			return Success(val)
		}

		if attempt == p.cfg.maxAttempts || !p.shouldRetry(err) {
			p.cfg.hooks.emitExhausted(p.name, attempt, err)

			return Failure[T](&ExhaustedError{Attempts: attempt, Err: err})
		}

		p.cfg.hooks.emitRetry(p.name, attempt, err)

		if waitErr := p.wait(ctx, p.delayFor(attempt)); waitErr != nil {
			return Failure[T](waitErr)
		}
	}
}

// Do runs a value-free operation through the policy. It returns nil on
// success or the same errors [Retry] would place in a failed outcome.
func (p *RetryPolicy) Do(ctx context.Context, fn func(context.Context) error) error {
	out := Retry(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})

	return out.Err()
}

// RetryWithBreaker routes every retry attempt through cb, so that once the
// breaker opens, remaining attempts fail fast instead of re-invoking the real
// operation. A breaker rejection counts as a failed attempt and goes through
// the normal predicate and backoff logic; the open circuit is re-queried on
// each attempt, which lets a later attempt land as the recovery probe.
func RetryWithBreaker[T any](
	ctx context.Context,
	p *RetryPolicy,
	cb *CircuitBreaker,
	fn func(context.Context) (T, error),
) Outcome[T] {
	wrapped := Chain(WrapRetry[T](p), WrapBreaker[T](cb))(fn)

	return outcomeOf(wrapped(ctx))
}
