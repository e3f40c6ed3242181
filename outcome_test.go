package bastion

import (
	"errors"
	"testing"
)

func TestSuccessOutcome(t *testing.T) {
	out := Success(42)

	if !out.IsSuccess() || out.IsFailure() {
		t.Fatal("Success(42) should report success")
	}
	if out.Value() != 42 {
		t.Fatalf("Value() = %d, want 42", out.Value())
	}
	if out.Err() != nil {
		t.Fatalf("Err() = %v, want nil", out.Err())
	}

	v, err := out.Get()
	if v != 42 || err != nil {
		t.Fatalf("Get() = (%d, %v), want (42, nil)", v, err)
	}
}

func TestFailureOutcome(t *testing.T) {
	out := Failure[string](errBoom)

	if out.IsSuccess() || !out.IsFailure() {
		t.Fatal("Failure should report failure")
	}
	if out.Value() != "" {
		t.Fatalf("Value() = %q, want zero value", out.Value())
	}
	if !errors.Is(out.Err(), errBoom) {
		t.Fatalf("Err() = %v, want errBoom", out.Err())
	}
}

func TestFailureWithNilErrorPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Failure(nil) did not panic")
		}
	}()

	Failure[int](nil)
}

func TestZeroOutcomeIsSuccess(t *testing.T) {
	var out Outcome[int]

	if !out.IsSuccess() {
		t.Fatal("zero Outcome should be a success holding the zero value")
	}
	if out.Value() != 0 {
		t.Fatalf("Value() = %d, want 0", out.Value())
	}
}

func TestOutcomeOf(t *testing.T) {
	if out := outcomeOf(3, nil); out.IsFailure() || out.Value() != 3 {
		t.Fatalf("outcomeOf(3, nil) = %+v, want success 3", out)
	}

	if out := outcomeOf(0, errBoom); out.IsSuccess() || !errors.Is(out.Err(), errBoom) {
		t.Fatalf("outcomeOf(0, errBoom) = %+v, want failure", out)
	}
}
