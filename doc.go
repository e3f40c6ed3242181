// Package bastion protects calls to operations that may fail transiently or
// persistently, returning a definite success-or-error [Outcome] instead of
// letting failures propagate as panics or untyped errors.
//
// The two building blocks are [CircuitBreaker], a per-operation lock-free
// state machine that fails fast once a dependency is unhealthy, and
// [RetryPolicy], an immutable configuration that drives exponential-backoff
// retry loops. They compose: [RetryWithBreaker] routes every retry attempt
// through a breaker so that an open circuit is probed, not hammered.
package bastion
