package bastion

import (
	"fmt"
	"os"
	"time"

	json "github.com/goccy/go-json"
)

type (
	// configFile is the top-level JSON structure.
	configFile struct {
		Breakers      map[string]BreakerConfig     `json:"breakers"`
		RetryPolicies map[string]RetryPolicyConfig `json:"retry_policies"`
	}

	// BreakerConfig holds decoded circuit breaker configuration. Embed it
	// in your own app config struct for JSON unmarshaling, then call
	// [BuildBreakerOptions] to obtain options for [NewCircuitBreaker].
	BreakerConfig struct {
		// OpenWait is how long the breaker stays open before probing.
		// Optional. Parsed via time.ParseDuration. Example: "30s".
		OpenWait *string `json:"open_wait,omitempty"`
		// CallTimeout is the wall-clock budget for a single call.
		// Optional. Parsed via time.ParseDuration. Example: "2s".
		CallTimeout *string `json:"call_timeout,omitempty"`
		// FailureThreshold is the number of failures before opening.
		// Optional. Example: 5.
		FailureThreshold *int `json:"failure_threshold,omitempty"`
		// SuccessThreshold is the number of probe successes needed to
		// close from half-open. Optional. Example: 2.
		SuccessThreshold *int `json:"success_threshold,omitempty"`
	}

	// RetryPolicyConfig holds decoded retry configuration. Embed it in
	// your own config struct, then call [BuildRetryOptions].
	RetryPolicyConfig struct {
		// InitialDelay is the backoff delay before the second attempt.
		// Optional. Parsed via time.ParseDuration. Example: "100ms".
		InitialDelay *string `json:"initial_delay,omitempty"`
		// MaxDelay caps the backoff delay.
		// Optional. Parsed via time.ParseDuration. Example: "30s".
		MaxDelay *string `json:"max_delay,omitempty"`
		// MaxAttempts is the total attempt budget. Optional. Example: 3.
		MaxAttempts *int `json:"max_attempts,omitempty"`
		// BackoffMultiplier is the exponential growth factor.
		// Optional. Example: 2.0.
		BackoffMultiplier *float64 `json:"backoff_multiplier,omitempty"`
		// JitterFactor is the relative jitter in [0,1].
		// Optional. Example: 0.25.
		JitterFactor *float64 `json:"jitter_factor,omitempty"`
	}
)

// LoadConfig reads a JSON configuration file and stores the breaker and
// retry-policy configurations in a fresh [Registry]. Instances are not
// created until [GetBreaker]/[GetRetryPolicy] are called, so the caller can
// still supply code-level options such as hooks or a custom clock.
//
// All duration values are parsed with [time.ParseDuration]; the whole file is
// validated eagerly so malformed entries surface at load time.
func LoadConfig(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bastion: read config: %w", err)
	}

	var cfg configFile
	if err = json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("bastion: parse config: %w", err)
	}

	for name, bc := range cfg.Breakers {
		if _, buildErr := BuildBreakerOptions(&bc); buildErr != nil {
			return nil, fmt.Errorf("bastion: breaker %q: %w", name, buildErr)
		}
	}

	for name, rc := range cfg.RetryPolicies {
		if _, buildErr := BuildRetryOptions(&rc); buildErr != nil {
			return nil, fmt.Errorf("bastion: retry policy %q: %w", name, buildErr)
		}
	}

	reg := NewRegistry()
	reg.mu.Lock()
	reg.breakerConfigs = cfg.Breakers
	reg.retryConfigs = cfg.RetryPolicies
	reg.mu.Unlock()

	return reg, nil
}

// BuildBreakerOptions converts a [BreakerConfig] into options for
// [NewCircuitBreaker].
func BuildBreakerOptions(bc *BreakerConfig) ([]BreakerOption, error) {
	var opts []BreakerOption

	if bc.FailureThreshold != nil {
		opts = append(opts, FailureThreshold(*bc.FailureThreshold))
	}

	if bc.SuccessThreshold != nil {
		opts = append(opts, SuccessThreshold(*bc.SuccessThreshold))
	}

	if bc.OpenWait != nil {
		d, err := time.ParseDuration(*bc.OpenWait)
		if err != nil {
			return nil, fmt.Errorf("open_wait: %w", err)
		}

		opts = append(opts, OpenWait(d))
	}

	if bc.CallTimeout != nil {
		d, err := time.ParseDuration(*bc.CallTimeout)
		if err != nil {
			return nil, fmt.Errorf("call_timeout: %w", err)
		}

		opts = append(opts, CallTimeout(d))
	}

	return opts, nil
}

// BuildRetryOptions converts a [RetryPolicyConfig] into options for
// [NewRetryPolicy].
func BuildRetryOptions(rc *RetryPolicyConfig) ([]RetryOption, error) {
	var opts []RetryOption

	if rc.MaxAttempts != nil {
		opts = append(opts, MaxAttempts(*rc.MaxAttempts))
	}

	if rc.InitialDelay != nil {
		d, err := time.ParseDuration(*rc.InitialDelay)
		if err != nil {
			return nil, fmt.Errorf("initial_delay: %w", err)
		}

		opts = append(opts, InitialDelay(d))
	}

	if rc.MaxDelay != nil {
		d, err := time.ParseDuration(*rc.MaxDelay)
		if err != nil {
			return nil, fmt.Errorf("max_delay: %w", err)
		}

		opts = append(opts, MaxDelay(d))
	}

	if rc.BackoffMultiplier != nil {
		opts = append(opts, BackoffMultiplier(*rc.BackoffMultiplier))
	}

	if rc.JitterFactor != nil {
		opts = append(opts, JitterFactor(*rc.JitterFactor))
	}

	return opts, nil
}

// GetBreaker retrieves a named breaker from a config-loaded [Registry],
// creating it on first use. User-provided options are applied after the
// config-derived ones, so they take precedence. If the name has no stored
// config, a breaker is built from the provided options alone.
func GetBreaker(reg *Registry, name string, opts ...BreakerOption) *CircuitBreaker {
	if cb, ok := reg.Breaker(name); ok {
		return cb
	}

	reg.mu.Lock()
	bc, ok := reg.breakerConfigs[name]
	reg.mu.Unlock()

	allOpts := []BreakerOption{BreakerRegistry(reg)}

	if ok {
		configOpts, err := BuildBreakerOptions(&bc)
		if err == nil {
			allOpts = append(allOpts, configOpts...)
		}
	}

	allOpts = append(allOpts, opts...)

	return NewCircuitBreaker(name, allOpts...)
}

// GetRetryPolicy retrieves a named retry policy from a config-loaded
// [Registry], creating it on first use, with the same precedence rules as
// [GetBreaker].
func GetRetryPolicy(reg *Registry, name string, opts ...RetryOption) *RetryPolicy {
	if p, ok := reg.Policy(name); ok {
		return p
	}

	reg.mu.Lock()
	rc, ok := reg.retryConfigs[name]
	reg.mu.Unlock()

	allOpts := []RetryOption{RetryRegistry(reg)}

	if ok {
		configOpts, err := BuildRetryOptions(&rc)
		if err == nil {
			allOpts = append(allOpts, configOpts...)
		}
	}

	allOpts = append(allOpts, opts...)

	return NewRetryPolicy(name, allOpts...)
}
