package bastion

import (
	"math"
	"math/rand"
	"time"
)

// delayFor computes the backoff delay after the given 1-indexed failed
// attempt:
//
//	raw    = initialDelay * multiplier^(attempt-1)
//	capped = min(raw, maxDelay)        (maxDelay 0 = uncapped)
//	delay  = max(0, capped * (1 + uniform(-1,1)*jitter))
//
// With initialDelay 0 the delay is always 0; with jitter 0 it is exactly the
// capped value.
func (p *RetryPolicy) delayFor(attempt int) time.Duration {
	return p.cfg.delay(attempt, rand.Float64)
}

// delay is the deterministic core of delayFor: rnd supplies the uniform
// [0,1) draw so tests can pin the jitter sample.
func (cfg *retryConfig) delay(attempt int, rnd func() float64) time.Duration {
	raw := float64(cfg.initialDelay) * math.Pow(cfg.multiplier, float64(attempt-1))

	if cfg.maxDelay > 0 && raw > float64(cfg.maxDelay) {
		raw = float64(cfg.maxDelay)
	}

	if cfg.jitter > 0 {
		raw *= 1 + (rnd()*2-1)*cfg.jitter
	}

	if raw < 0 {
		return 0
	}

	return time.Duration(raw)
}
