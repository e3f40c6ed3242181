package prom

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/bastion-go/bastion"
)

func TestHooksFeedCollectors(t *testing.T) {
	m := New(prometheus.NewRegistry())
	h := m.Hooks()

	h.OnStateChange("db", bastion.StateClosed, bastion.StateOpen)
	h.OnReject("db")
	h.OnReject("db")
	h.OnSlowCall("db", 7*time.Second)
	h.OnRetry("lookup", 1, errors.New("transient"))
	h.OnExhausted("lookup", 3, errors.New("still failing"))

	require.Equal(t, 1.0,
		testutil.ToFloat64(m.stateChanges.WithLabelValues("db", "open")))
	require.Equal(t, 1.0,
		testutil.ToFloat64(m.open.WithLabelValues("db")))
	require.Equal(t, 2.0,
		testutil.ToFloat64(m.rejections.WithLabelValues("db")))
	require.Equal(t, 1.0,
		testutil.ToFloat64(m.slowCalls.WithLabelValues("db")))
	require.Equal(t, 1.0,
		testutil.ToFloat64(m.retries.WithLabelValues("lookup")))
	require.Equal(t, 1.0,
		testutil.ToFloat64(m.exhausted.WithLabelValues("lookup")))
}

func TestOpenGaugeClearsOnClose(t *testing.T) {
	m := New(prometheus.NewRegistry())
	h := m.Hooks()

	h.OnStateChange("db", bastion.StateClosed, bastion.StateOpen)
	require.Equal(t, 1.0, testutil.ToFloat64(m.open.WithLabelValues("db")))

	h.OnStateChange("db", bastion.StateHalfOpen, bastion.StateClosed)
	require.Equal(t, 0.0, testutil.ToFloat64(m.open.WithLabelValues("db")))
}

func TestBreakerDrivesMetricsEndToEnd(t *testing.T) {
	m := New(prometheus.NewRegistry())

	cb := bastion.NewCircuitBreaker("",
		bastion.BreakerHooks(m.Hooks()),
		bastion.FailureThreshold(1),
		bastion.OpenWait(time.Hour),
	)

	// Name is empty, so series land under the "" label; the adapter does
	// not care, only the transitions do.
	_ = cb.Do(context.Background(), func(context.Context) error {
		return errors.New("down")
	})
	_ = cb.Do(context.Background(), func(context.Context) error { return nil })

	require.Equal(t, 1.0,
		testutil.ToFloat64(m.stateChanges.WithLabelValues("", "open")))
	require.Equal(t, 1.0,
		testutil.ToFloat64(m.rejections.WithLabelValues("")))
	require.Equal(t, bastion.StateOpen, cb.State())
}

func TestNewPanicsOnDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	require.Panics(t, func() { New(reg) })
}
