package bastion

import (
	"errors"
	"net"
	"time"
)

// Presets are ready-made option bundles for common protection profiles.
// They are plain data; append your own options to override individual values:
//
//	p := bastion.NewRetryPolicy("lookup",
//		append(bastion.QuickRetry(), bastion.RetryHooks(hooks))...)

// QuickRetry suits interactive paths where the caller is waiting: two
// attempts with a short, lightly jittered delay.
func QuickRetry() []RetryOption {
	return []RetryOption{
		MaxAttempts(2),
		InitialDelay(50 * time.Millisecond),
		MaxDelay(500 * time.Millisecond),
		BackoffMultiplier(2.0),
		JitterFactor(0.1),
	}
}

// ResilientRetry suits background work that should survive longer outages:
// more attempts with a generous delay cap and enough jitter to spread
// recovery load.
func ResilientRetry() []RetryOption {
	return []RetryOption{
		MaxAttempts(5),
		InitialDelay(200 * time.Millisecond),
		MaxDelay(30 * time.Second),
		BackoffMultiplier(2.0),
		JitterFactor(0.25),
	}
}

// NetworkRetry suits calls over the wire: longer waits and a predicate that
// retries only transport-level errors, so application-level failures stop
// the loop immediately.
func NetworkRetry() []RetryOption {
	return []RetryOption{
		MaxAttempts(4),
		InitialDelay(500 * time.Millisecond),
		MaxDelay(time.Minute),
		BackoffMultiplier(2.0),
		JitterFactor(0.5),
		RetryIf(isNetworkError),
	}
}

// StandardBreaker is a breaker profile for a typical downstream dependency:
// open after 5 failures, stay open 30s, close after 2 probe successes, and
// count calls over 5s as failures.
func StandardBreaker() []BreakerOption {
	return []BreakerOption{
		FailureThreshold(5),
		SuccessThreshold(2),
		OpenWait(30 * time.Second),
		CallTimeout(5 * time.Second),
	}
}

// isNetworkError reports whether err is a transport-level error.
func isNetworkError(err error) bool {
	var ne net.Error

	return errors.As(err, &ne)
}
