package bastion

import (
	"sync"
	"sync/atomic"
)

type (
	// ReadinessStatus is the result of checking all registered breakers.
	// A process is not ready while any registered breaker is open.
	ReadinessStatus struct {
		Breakers []BreakerMetrics `json:"breakers"`
		Ready    bool             `json:"ready"`
	}

	// Registry tracks named breakers and retry policies so that readiness
	// probes and metrics exporters can enumerate them, and holds
	// file-loaded configurations until [GetBreaker]/[GetRetryPolicy]
	// materialize them.
	Registry struct {
		breakers atomic.Pointer[[]*CircuitBreaker]
		policies atomic.Pointer[[]*RetryPolicy]

		breakerConfigs map[string]BreakerConfig
		retryConfigs   map[string]RetryPolicyConfig
		mu             sync.Mutex
	}
)

//nolint:gochecknoglobals // singleton via sync.OnceValue
var defaultRegistry = sync.OnceValue(NewRegistry)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}

	var noBreakers []*CircuitBreaker

	var noPolicies []*RetryPolicy

	r.breakers.Store(&noBreakers)
	r.policies.Store(&noPolicies)

	return r
}

// DefaultRegistry returns the package-level registry, creating it on first
// call. Named breakers and policies register here unless given an explicit
// registry.
func DefaultRegistry() *Registry {
	return defaultRegistry()
}

// RegisterBreaker adds cb to the registry. Intended for initialization;
// safe for concurrent use via copy-on-write so readers never see a slice
// being mutated.
func (r *Registry) RegisterBreaker(cb *CircuitBreaker) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := *r.breakers.Load()
	updated := make([]*CircuitBreaker, len(old), len(old)+1)
	copy(updated, old)
	updated = append(updated, cb)
	r.breakers.Store(&updated)
}

// RegisterPolicy adds p to the registry.
func (r *Registry) RegisterPolicy(p *RetryPolicy) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := *r.policies.Load()
	updated := make([]*RetryPolicy, len(old), len(old)+1)
	copy(updated, old)
	updated = append(updated, p)
	r.policies.Store(&updated)
}

// Breaker returns the registered breaker with the given name.
func (r *Registry) Breaker(name string) (*CircuitBreaker, bool) {
	for _, cb := range *r.breakers.Load() {
		if cb.Name() == name {
			return cb, true
		}
	}

	return nil, false
}

// Policy returns the registered retry policy with the given name.
func (r *Registry) Policy(name string) (*RetryPolicy, bool) {
	for _, p := range *r.policies.Load() {
		if p.Name() == name {
			return p, true
		}
	}

	return nil, false
}

// Snapshot returns a metrics snapshot for every registered breaker.
func (r *Registry) Snapshot() []BreakerMetrics {
	breakers := *r.breakers.Load()

	metrics := make([]BreakerMetrics, 0, len(breakers))
	for _, cb := range breakers {
		metrics = append(metrics, cb.Metrics())
	}

	return metrics
}

// CheckReadiness reports whether every registered breaker currently admits
// calls. Half-open breakers count as ready; they are recovering, not down.
func (r *Registry) CheckReadiness() ReadinessStatus {
	metrics := r.Snapshot()

	status := ReadinessStatus{
		Ready:    true,
		Breakers: metrics,
	}

	for _, m := range metrics {
		if m.State == StateOpen.String() {
			status.Ready = false
		}
	}

	return status
}
