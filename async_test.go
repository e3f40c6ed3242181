package bastion

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryAsyncDeliversSuccess(t *testing.T) {
	clk := &immediateClock{}
	p := newTestPolicy(clk, MaxAttempts(3))

	calls := 0
	f := RetryAsync(context.Background(), p, func(_ context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errBoom
		}
		return "recovered", nil
	})

	out := f.Wait(context.Background())
	if out.IsFailure() {
		t.Fatalf("Wait() err = %v, want success", out.Err())
	}
	if out.Value() != "recovered" {
		t.Fatalf("Wait() = %q, want %q", out.Value(), "recovered")
	}
	if calls != 3 {
		t.Fatalf("operation invoked %d times, want 3", calls)
	}
}

func TestRetryAsyncDoesNotBlockCaller(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	p := newTestPolicy(&immediateClock{}, MaxAttempts(1))

	f := RetryAsync(context.Background(), p, func(_ context.Context) (int, error) {
		close(started)
		<-release
		return 1, nil
	})

	// The future exists before the operation has finished.
	<-started

	if _, ok := f.TryGet(); ok {
		t.Fatal("TryGet() = ready, want pending while operation runs")
	}

	close(release)
	<-f.Done()

	out, ok := f.TryGet()
	if !ok {
		t.Fatal("TryGet() = pending after Done closed")
	}
	if out.Value() != 1 {
		t.Fatalf("outcome = %d, want 1", out.Value())
	}
}

func TestRetryAsyncExhaustion(t *testing.T) {
	p := newTestPolicy(&immediateClock{}, MaxAttempts(2))

	f := RetryAsync(context.Background(), p, failingOp)

	out := f.Wait(context.Background())

	var ex *ExhaustedError
	if !errors.As(out.Err(), &ex) {
		t.Fatalf("Wait() err = %T, want *ExhaustedError", out.Err())
	}
	if ex.Attempts != 2 {
		t.Fatalf("Attempts = %d, want 2", ex.Attempts)
	}
}

func TestFutureWaitHonoursWaitContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	p := newTestPolicy(&immediateClock{}, MaxAttempts(1))

	f := RetryAsync(context.Background(), p, func(_ context.Context) (int, error) {
		<-release
		return 1, nil
	})

	waitCtx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	out := f.Wait(waitCtx)
	if !errors.Is(out.Err(), ErrInterrupted) {
		t.Fatalf("Wait() err = %v, want ErrInterrupted", out.Err())
	}
	if !errors.Is(out.Err(), context.DeadlineExceeded) {
		t.Fatalf("Wait() err = %v, want wrapped deadline error", out.Err())
	}
}

func TestRetryAsyncCancelledDuringBackoff(t *testing.T) {
	p := newTestPolicy(blockedClock{}, MaxAttempts(3))

	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	f := RetryAsync(ctx, p, func(_ context.Context) (int, error) {
		calls++
		return 0, errBoom
	})

	time.Sleep(20 * time.Millisecond)
	cancel()

	out := f.Wait(context.Background())
	if !errors.Is(out.Err(), ErrInterrupted) {
		t.Fatalf("Wait() err = %v, want ErrInterrupted", out.Err())
	}
	if calls != 1 {
		t.Fatalf("operation invoked %d times, want 1", calls)
	}
}
