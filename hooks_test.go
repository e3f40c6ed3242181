package bastion

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestNilHooksAreSafeToEmit(t *testing.T) {
	var h *Hooks

	// Must not panic, whether the struct or individual fields are nil.
	h.emitStateChange("x", StateClosed, StateOpen)
	h.emitReject("x")
	h.emitSlowCall("x", time.Second)
	h.emitRetry("x", 1, errBoom)
	h.emitExhausted("x", 3, errBoom)

	empty := &Hooks{}
	empty.emitStateChange("x", StateClosed, StateOpen)
	empty.emitReject("x")
}

func TestSlogHooksEmitStructuredRecords(t *testing.T) {
	var buf bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	h := SlogHooks(logger)

	h.emitStateChange("db", StateClosed, StateOpen)
	h.emitRetry("lookup", 2, errBoom)
	h.emitExhausted("lookup", 3, errBoom)
	h.emitSlowCall("db", 7*time.Second)
	h.emitReject("db")

	out := buf.String()

	for _, want := range []string{
		"breaker state change",
		"from=closed",
		"to=open",
		"level=WARN",
		"retrying",
		"attempt=2",
		"retries exhausted",
		"attempts=3",
		"slow call",
		"call rejected",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output missing %q:\n%s", want, out)
		}
	}
}
