package bastion

import (
	"errors"
	"fmt"
)

type (
	// GuardError identifies errors produced by the protection layer itself,
	// as opposed to errors returned by the wrapped operation.
	GuardError interface {
		error
		// IsGuard reports whether this error originates from the
		// protection layer.
		IsGuard() bool
	}

	// guardError is the concrete type backing all sentinel errors.
	guardError string

	// transientError marks a wrapped error as transient (retriable).
	transientError struct {
		err error
	}

	// permanentError marks a wrapped error as permanent (non-retriable).
	permanentError struct {
		err error
	}
)

// Sentinel errors returned by breakers and retry loops.
var (
	// ErrCircuitOpen is returned when a breaker rejects a call, either
	// because it is open or because all half-open probe slots are taken.
	ErrCircuitOpen error = guardError("circuit breaker is open")
	// ErrCallTimeout is returned when an operation's wall-clock duration
	// exceeded the breaker's call timeout. Detection is post-hoc: the
	// operation ran to completion but its result is discarded.
	ErrCallTimeout error = guardError("call exceeded breaker timeout")
	// ErrRetriesExhausted matches any [ExhaustedError] via errors.Is.
	ErrRetriesExhausted error = guardError("retries exhausted")
	// ErrInterrupted is returned when the context is cancelled while a
	// retry loop is waiting out a backoff delay.
	ErrInterrupted error = guardError("retry wait interrupted")
)

func (e guardError) Error() string { return string(e) }

// IsGuard reports whether the error is a protection-layer error.
func (guardError) IsGuard() bool { return true }

// ExecutionError wraps an error (or recovered panic) raised by the wrapped
// operation while a breaker call was in flight. The cause is preserved for
// errors.Is/As inspection.
type ExecutionError struct {
	Cause error
}

func (e *ExecutionError) Error() string { return "execution failure: " + e.Cause.Error() }

func (e *ExecutionError) Unwrap() error { return e.Cause }

// ExhaustedError is the terminal error of a retry loop: attempts ran out, or
// the retry predicate rejected the last error. It wraps the last observed
// error and records how many attempts were made.
type ExhaustedError struct {
	Err      error
	Attempts int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrRetriesExhausted) match any ExhaustedError.
func (e *ExhaustedError) Is(target error) bool { return target == ErrRetriesExhausted }

func (e *transientError) Error() string { return "transient: " + e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func (e *permanentError) Error() string { return "permanent: " + e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Transient wraps err to mark it as transient (retriable).
// Returns nil if err is nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}

	return &transientError{err: err}
}

// Permanent wraps err to mark it as permanent (non-retriable).
// Returns nil if err is nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}

	return &permanentError{err: err}
}

// IsTransient reports whether err is retriable. Unclassified errors are
// treated as transient; returns false for nil.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var pe *permanentError

	return !errors.As(err, &pe)
}

// IsPermanent reports whether err was explicitly marked as permanent.
// Returns false for nil and for unclassified errors.
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}

	var pe *permanentError

	return errors.As(err, &pe)
}
