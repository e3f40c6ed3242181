package bastion

import (
	"context"
	"log/slog"
	"time"
)

// Hooks holds optional callbacks for protection-layer lifecycle events. All
// fields are nil by default; callers set only the hooks they care about. A
// Hooks value must not be mutated after it is handed to a breaker or policy:
// the emit methods read the function fields without synchronisation, which is
// safe only while the struct stays read-only.
type Hooks struct {
	// OnStateChange fires on every breaker state transition, including
	// manual Reset.
	OnStateChange func(name string, from, to BreakerState)
	// OnReject fires when a breaker rejects a call without invoking the
	// operation.
	OnReject func(name string)
	// OnSlowCall fires when an operation completed but took longer than
	// the breaker's call timeout.
	OnSlowCall func(name string, elapsed time.Duration)
	// OnRetry fires before each backoff wait, with the 1-indexed attempt
	// that just failed.
	OnRetry func(name string, attempt int, err error)
	// OnExhausted fires when a retry loop gives up.
	OnExhausted func(name string, attempts int, err error)
}

func (h *Hooks) emitStateChange(name string, from, to BreakerState) {
	if h != nil && h.OnStateChange != nil {
		h.OnStateChange(name, from, to)
	}
}

func (h *Hooks) emitReject(name string) {
	if h != nil && h.OnReject != nil {
		h.OnReject(name)
	}
}

func (h *Hooks) emitSlowCall(name string, elapsed time.Duration) {
	if h != nil && h.OnSlowCall != nil {
		h.OnSlowCall(name, elapsed)
	}
}

func (h *Hooks) emitRetry(name string, attempt int, err error) {
	if h != nil && h.OnRetry != nil {
		h.OnRetry(name, attempt, err)
	}
}

func (h *Hooks) emitExhausted(name string, attempts int, err error) {
	if h != nil && h.OnExhausted != nil {
		h.OnExhausted(name, attempts, err)
	}
}

// SlogHooks returns a Hooks that emits every lifecycle event through logger
// as structured log records. Breaker openings log at warn level, everything
// else at info or debug.
func SlogHooks(logger *slog.Logger) *Hooks {
	return &Hooks{
		OnStateChange: func(name string, from, to BreakerState) {
			level := slog.LevelInfo
			if to == StateOpen {
				level = slog.LevelWarn
			}
			logger.Log(context.Background(), level, "breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
		OnReject: func(name string) {
			logger.Debug("call rejected", "breaker", name)
		},
		OnSlowCall: func(name string, elapsed time.Duration) {
			logger.Warn("slow call", "breaker", name, "elapsed", elapsed)
		},
		OnRetry: func(name string, attempt int, err error) {
			logger.Debug("retrying",
				"policy", name,
				"attempt", attempt,
				"error", err,
			)
		},
		OnExhausted: func(name string, attempts int, err error) {
			logger.Warn("retries exhausted",
				"policy", name,
				"attempts", attempts,
				"error", err,
			)
		},
	}
}
