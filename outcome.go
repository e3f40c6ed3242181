package bastion

// Outcome is an immutable two-variant container holding exactly one of a
// success value or an error. Every protected execution in this package
// returns an Outcome, so callers always receive a definite result; there is
// no indeterminate state and no panic-based control flow across the API
// boundary.
//
// The zero Outcome is a success holding the zero value of T.
type Outcome[T any] struct {
	value T
	err   error
}

// Success returns a successful Outcome holding v.
func Success[T any](v T) Outcome[T] {
	return Outcome[T]{value: v}
}

// Failure returns a failed Outcome holding err. Passing a nil error is a
// programmer error and panics, preserving the invariant that an Outcome is
// exactly one of success or failure.
func Failure[T any](err error) Outcome[T] {
	if err == nil {
		panic("bastion: Failure called with nil error")
	}

	return Outcome[T]{err: err}
}

// outcomeOf converts a conventional (value, error) pair into an Outcome.
func outcomeOf[T any](v T, err error) Outcome[T] {
	if err != nil {
		return Failure[T](err)
	}

	return Success(v)
}

// IsSuccess reports whether the outcome holds a value.
func (o Outcome[T]) IsSuccess() bool { return o.err == nil }

// IsFailure reports whether the outcome holds an error.
func (o Outcome[T]) IsFailure() bool { return o.err != nil }

// Value returns the held value, or the zero value of T for a failure.
func (o Outcome[T]) Value() T { return o.value }

// Err returns the held error, or nil for a success.
func (o Outcome[T]) Err() error { return o.err }

// Get unpacks the outcome into a conventional (value, error) pair.
func (o Outcome[T]) Get() (T, error) { return o.value, o.err }
