package bastion

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// BreakerState is the current position of a breaker's state machine.
type BreakerState uint32

// Breaker states.
const (
	// StateClosed admits every call; failures are counted.
	StateClosed BreakerState = iota
	// StateOpen rejects every call until the open wait elapses.
	StateOpen
	// StateHalfOpen admits a bounded number of probe calls to test
	// whether the protected operation has recovered.
	StateHalfOpen
)

// String returns "closed", "open", or "half_open".
func (s BreakerState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

type (
	breakerConfig struct {
		clock            Clock
		hooks            *Hooks
		registry         *Registry
		failureThreshold int
		successThreshold int
		openWait         time.Duration
		callTimeout      time.Duration
	}

	// BreakerOption configures a circuit breaker.
	BreakerOption func(*breakerConfig)

	// CircuitBreaker tracks the recent health of one protected operation
	// and decides, per call, whether to admit it, probe recovery, or fail
	// fast. All state lives in atomics and transitions happen through
	// compare-and-swap, so concurrent callers never serialize on a lock.
	//
	// A breaker is created once per protected operation and lives for the
	// process lifetime; its counters are mutated only through
	// [Execute]/[CircuitBreaker.Do] and [CircuitBreaker.Reset].
	CircuitBreaker struct {
		cfg  breakerConfig
		name string

		state           atomic.Uint32
		failureCount    atomic.Int64
		successCount    atomic.Int64 // consecutive successes, half-open only
		halfOpenCalls   atomic.Int64 // probes admitted this episode
		lastFailureNano atomic.Int64 // unix nano of last failure, 0 if none
	}
)

func defaultBreakerConfig() breakerConfig {
	return breakerConfig{
		clock:            RealClock{},
		failureThreshold: 5,
		successThreshold: 1,
		openWait:         30 * time.Second,
	}
}

// FailureThreshold sets the number of consecutive failures that open the
// breaker. Values below 1 are clamped to 1.
func FailureThreshold(n int) BreakerOption {
	return func(cfg *breakerConfig) {
		cfg.failureThreshold = n
	}
}

// SuccessThreshold sets the number of consecutive half-open probe successes
// needed to close the breaker. It also bounds how many probes a half-open
// episode admits. Values below 1 are clamped to 1.
func SuccessThreshold(n int) BreakerOption {
	return func(cfg *breakerConfig) {
		cfg.successThreshold = n
	}
}

// OpenWait sets how long the breaker stays open before the next call is
// admitted as a recovery probe.
func OpenWait(d time.Duration) BreakerOption {
	return func(cfg *breakerConfig) {
		cfg.openWait = d
	}
}

// CallTimeout sets the wall-clock budget for a single call. An operation that
// runs longer counts as a failure even if it eventually succeeded; detection
// is post-hoc, the breaker never aborts an in-flight operation.
// Zero disables slow-call detection.
func CallTimeout(d time.Duration) BreakerOption {
	return func(cfg *breakerConfig) {
		cfg.callTimeout = d
	}
}

// BreakerClock sets the clock used for recovery windows and slow-call
// measurement. Defaults to [RealClock].
func BreakerClock(c Clock) BreakerOption {
	return func(cfg *breakerConfig) {
		cfg.clock = c
	}
}

// BreakerHooks sets the lifecycle hooks for this breaker.
func BreakerHooks(h *Hooks) BreakerOption {
	return func(cfg *breakerConfig) {
		cfg.hooks = h
	}
}

// BreakerRegistry sets an explicit registry for the breaker to register
// with. Named breakers auto-register with [DefaultRegistry] otherwise.
func BreakerRegistry(reg *Registry) BreakerOption {
	return func(cfg *breakerConfig) {
		cfg.registry = reg
	}
}

// NewCircuitBreaker creates a breaker for the named operation. The name is
// used for hooks, logging, and registry lookups only, never in the state
// machine itself. Breakers with a non-empty name register themselves so that
// readiness checks can see them; pass an empty name for an anonymous breaker.
func NewCircuitBreaker(name string, opts ...BreakerOption) *CircuitBreaker {
	cfg := defaultBreakerConfig()
	for _, o := range opts {
		o(&cfg)
	}

	if cfg.failureThreshold < 1 {
		cfg.failureThreshold = 1
	}

	if cfg.successThreshold < 1 {
		cfg.successThreshold = 1
	}

	cb := &CircuitBreaker{
		name: name,
		cfg:  cfg,
	}

	if name != "" {
		reg := cfg.registry
		if reg == nil {
			reg = DefaultRegistry()
		}

		reg.RegisterBreaker(cb)
	}

	return cb
}

// Name returns the breaker's name.
func (cb *CircuitBreaker) Name() string { return cb.name }

// State returns the current state.
func (cb *CircuitBreaker) State() BreakerState {
	return BreakerState(cb.state.Load())
}

// FailureCount returns the consecutive failure count while closed.
func (cb *CircuitBreaker) FailureCount() int64 { return cb.failureCount.Load() }

// SuccessCount returns the consecutive probe success count; it is meaningful
// only while half-open.
func (cb *CircuitBreaker) SuccessCount() int64 { return cb.successCount.Load() }

// BreakerMetrics is a point-in-time snapshot of a breaker's observable state.
type BreakerMetrics struct {
	LastFailure  time.Time `json:"last_failure"`
	Name         string    `json:"name"`
	State        string    `json:"state"`
	FailureCount int64     `json:"failure_count"`
	SuccessCount int64     `json:"success_count"`
}

// Metrics returns a snapshot of the breaker's state and counters. The fields
// are read independently, so under concurrent traffic the snapshot is only
// approximately consistent.
func (cb *CircuitBreaker) Metrics() BreakerMetrics {
	m := BreakerMetrics{
		Name:         cb.name,
		State:        cb.State().String(),
		FailureCount: cb.failureCount.Load(),
		SuccessCount: cb.successCount.Load(),
	}

	if nano := cb.lastFailureNano.Load(); nano != 0 {
		m.LastFailure = time.Unix(0, nano)
	}

	return m
}

// Reset forces the breaker closed and zeroes all counters. This is an
// operator escape hatch, not part of normal state transitions.
func (cb *CircuitBreaker) Reset() {
	prev := BreakerState(cb.state.Swap(uint32(StateClosed)))
	cb.failureCount.Store(0)
	cb.successCount.Store(0)
	cb.halfOpenCalls.Store(0)
	cb.lastFailureNano.Store(0)

	if prev != StateClosed {
		cb.cfg.hooks.emitStateChange(cb.name, prev, StateClosed)
	}
}

// allow decides admission for one call. It returns nil to admit, or
// ErrCircuitOpen to fail fast without invoking the operation.
func (cb *CircuitBreaker) allow() error {
	switch BreakerState(cb.state.Load()) {
	case StateClosed:
		return nil

	case StateOpen:
		last := time.Unix(0, cb.lastFailureNano.Load())
		if cb.cfg.clock.Since(last) < cb.cfg.openWait {
			cb.cfg.hooks.emitReject(cb.name)
			return ErrCircuitOpen
		}

		// Open wait elapsed: move to half-open and admit this call as
		// a probe. If the CAS loses, another goroutine already made
		// the transition and probe admission below still applies.
		if cb.state.CompareAndSwap(uint32(StateOpen), uint32(StateHalfOpen)) {
			cb.successCount.Store(0)
			cb.halfOpenCalls.Store(0)
			cb.cfg.hooks.emitStateChange(cb.name, StateOpen, StateHalfOpen)
		}

		return cb.admitProbe()

	default: // StateHalfOpen
		return cb.admitProbe()
	}
}

// admitProbe claims one of the half-open episode's probe slots. Once
// successThreshold probes are in flight the episode is committed to them and
// further calls are rejected.
func (cb *CircuitBreaker) admitProbe() error {
	for {
		n := cb.halfOpenCalls.Load()
		if n >= int64(cb.cfg.successThreshold) {
			cb.cfg.hooks.emitReject(cb.name)
			return ErrCircuitOpen
		}

		if cb.halfOpenCalls.CompareAndSwap(n, n+1) {
			return nil
		}
	}
}

// recordSuccess applies success bookkeeping for the current state.
func (cb *CircuitBreaker) recordSuccess() {
	switch BreakerState(cb.state.Load()) {
	case StateClosed:
		cb.failureCount.Store(0)

	case StateHalfOpen:
		if cb.successCount.Add(1) < int64(cb.cfg.successThreshold) {
			return
		}

		if cb.state.CompareAndSwap(uint32(StateHalfOpen), uint32(StateClosed)) {
			cb.failureCount.Store(0)
			cb.successCount.Store(0)
			cb.halfOpenCalls.Store(0)
			cb.cfg.hooks.emitStateChange(cb.name, StateHalfOpen, StateClosed)
		}

	default:
		// open: success bookkeeping does not apply
	}
}

// recordFailure applies failure bookkeeping for the current state.
func (cb *CircuitBreaker) recordFailure() {
	cb.lastFailureNano.Store(cb.cfg.clock.Now().UnixNano())

	switch BreakerState(cb.state.Load()) {
	case StateClosed:
		if cb.failureCount.Add(1) < int64(cb.cfg.failureThreshold) {
			return
		}

		if cb.state.CompareAndSwap(uint32(StateClosed), uint32(StateOpen)) {
			cb.cfg.hooks.emitStateChange(cb.name, StateClosed, StateOpen)
		}

	case StateHalfOpen:
		// A single probe failure undoes the whole recovery episode.
		if cb.state.CompareAndSwap(uint32(StateHalfOpen), uint32(StateOpen)) {
			cb.successCount.Store(0)
			cb.cfg.hooks.emitStateChange(cb.name, StateHalfOpen, StateOpen)
		}

	default:
		// already open
	}
}

// Execute runs fn through the breaker and returns a definite [Outcome]. A
// rejected call fails with [ErrCircuitOpen] without invoking fn; an operation
// error (or panic) is captured as an [*ExecutionError]; an operation that ran
// longer than the call timeout fails with [ErrCallTimeout] even if it
// returned a value.
//
// Go methods cannot take type parameters, so the generic execute lives as a
// package function; [CircuitBreaker.Do] covers the value-free case.
func Execute[T any](
	ctx context.Context,
	cb *CircuitBreaker,
	fn func(context.Context) (T, error),
) Outcome[T] {
	if err := cb.allow(); err != nil {
		return Failure[T](err)
	}

	start := cb.cfg.clock.Now()
	val, err := invoke(ctx, fn)
	elapsed := cb.cfg.clock.Since(start)

	if err != nil {
		cb.recordFailure()
		return Failure[T](&ExecutionError{Cause: err})
	}

	if cb.cfg.callTimeout > 0 && elapsed > cb.cfg.callTimeout {
		cb.recordFailure()
		cb.cfg.hooks.emitSlowCall(cb.name, elapsed)

		return Failure[T](ErrCallTimeout)
	}

	cb.recordSuccess()

	return Success(val)
}

// Do runs a value-free operation through the breaker. It returns nil on
// success or the same errors [Execute] would place in a failed outcome.
func (cb *CircuitBreaker) Do(ctx context.Context, fn func(context.Context) error) error {
	out := Execute(ctx, cb, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})

	return out.Err()
}

// invoke calls fn, converting a panic into an error at the single boundary
// where operation failures are captured.
func invoke[T any](ctx context.Context, fn func(context.Context) (T, error)) (val T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("operation panicked: %v", r)
		}
	}()

	return fn(ctx)
}
