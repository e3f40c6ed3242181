package bastion

import (
	"context"
	"errors"
	"testing"
	"time"
)

func tagMiddleware(tag string, log *[]string) Middleware[string] {
	return func(next func(context.Context) (string, error)) func(context.Context) (string, error) {
		return func(ctx context.Context) (string, error) {
			*log = append(*log, tag+">")
			v, err := next(ctx)
			*log = append(*log, "<"+tag)
			return v, err
		}
	}
}

func TestChainOrderIsOutermostFirst(t *testing.T) {
	var log []string

	fn := Chain(tagMiddleware("a", &log), tagMiddleware("b", &log))(
		func(context.Context) (string, error) {
			log = append(log, "fn")
			return "ok", nil
		},
	)

	v, err := fn(context.Background())
	if err != nil || v != "ok" {
		t.Fatalf("fn() = (%q, %v), want (ok, nil)", v, err)
	}

	want := []string{"a>", "b>", "fn", "<b", "<a"}
	if len(log) != len(want) {
		t.Fatalf("log = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("log[%d] = %q, want %q", i, log[i], want[i])
		}
	}
}

func TestChainEmptyIsIdentity(t *testing.T) {
	fn := Chain[int]()(func(context.Context) (int, error) { return 5, nil })

	v, err := fn(context.Background())
	if err != nil || v != 5 {
		t.Fatalf("fn() = (%d, %v), want (5, nil)", v, err)
	}
}

func TestWrapBreakerRejectsWhenOpen(t *testing.T) {
	clk := &stubClock{now: time.Now()}
	cb := openBreaker(t, clk, OpenWait(time.Hour))

	calls := 0
	fn := WrapBreaker[int](cb)(func(context.Context) (int, error) {
		calls++
		return 1, nil
	})

	_, err := fn(context.Background())
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("fn() err = %v, want ErrCircuitOpen", err)
	}
	if calls != 0 {
		t.Fatalf("operation invoked %d times, want 0", calls)
	}
}

func TestWrapRetryRunsFullAttemptBudget(t *testing.T) {
	p := newTestPolicy(&immediateClock{}, MaxAttempts(3))

	calls := 0
	fn := WrapRetry[int](p)(func(context.Context) (int, error) {
		calls++
		return 0, errBoom
	})

	_, err := fn(context.Background())
	if !errors.Is(err, ErrRetriesExhausted) {
		t.Fatalf("fn() err = %v, want ErrRetriesExhausted", err)
	}
	if calls != 3 {
		t.Fatalf("operation invoked %d times, want 3", calls)
	}
}
