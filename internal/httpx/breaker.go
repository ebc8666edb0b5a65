// Package httpx wraps outbound HTTP clients with a per-host circuit
// breaker, so a failing API (TTS, web search) trips fast instead of
// being hammered by every batch worker at once.
package httpx

import (
	"errors"
	"sync"
	"time"
)

// State is the condition of one host's circuit.
type State int

const (
	// StateClosed allows requests through.
	StateClosed State = iota
	// StateOpen fails requests fast.
	StateOpen
	// StateHalfOpen lets a limited number of probe requests through.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

const (
	// DefaultFailureThreshold is the consecutive failures that open a circuit.
	DefaultFailureThreshold = 5
	// DefaultRecoveryTimeout is how long an open circuit waits before probing.
	DefaultRecoveryTimeout = 30 * time.Second
	// DefaultHalfOpenProbes is the number of probe requests allowed half-open.
	DefaultHalfOpenProbes = 1
)

// ErrOpen is returned when a request is rejected because the host's
// circuit is open.
var ErrOpen = errors.New("circuit open")

// BreakerConfig configures failure counting and recovery.
type BreakerConfig struct {
	// FailureThreshold is the consecutive failures that open the circuit.
	FailureThreshold int
	// RecoveryTimeout is how long the circuit stays open before a probe.
	RecoveryTimeout time.Duration
	// HalfOpenProbes is how many requests may test a half-open circuit.
	HalfOpenProbes int
}

// DefaultBreakerConfig returns the defaults used by the pipeline.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: DefaultFailureThreshold,
		RecoveryTimeout:  DefaultRecoveryTimeout,
		HalfOpenProbes:   DefaultHalfOpenProbes,
	}
}

type hostCircuit struct {
	state           State
	failures        int
	lastStateChange time.Time
	probes          int
}

// Breaker tracks one circuit per host. A nil *Breaker is valid and
// allows everything.
type Breaker struct {
	mu     sync.Mutex
	hosts  map[string]*hostCircuit
	config BreakerConfig
}

// NewBreaker creates a breaker, filling zero config fields with defaults.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultFailureThreshold
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = DefaultRecoveryTimeout
	}
	if cfg.HalfOpenProbes <= 0 {
		cfg.HalfOpenProbes = DefaultHalfOpenProbes
	}
	return &Breaker{
		hosts:  make(map[string]*hostCircuit),
		config: cfg,
	}
}

// Allow reports whether a request to host may proceed. Returns ErrOpen
// when the circuit is open and the recovery timeout has not elapsed.
func (b *Breaker) Allow(host string) error {
	if b == nil {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.circuit(host)
	switch c.state {
	case StateClosed:
		return nil

	case StateOpen:
		if time.Since(c.lastStateChange) >= b.config.RecoveryTimeout {
			c.state = StateHalfOpen
			c.lastStateChange = time.Now()
			c.probes = 1
			return nil
		}
		return ErrOpen

	case StateHalfOpen:
		if c.probes < b.config.HalfOpenProbes {
			c.probes++
			return nil
		}
		return ErrOpen

	default:
		return nil
	}
}

// RecordSuccess resets the failure count. A successful probe closes a
// half-open circuit.
func (b *Breaker) RecordSuccess(host string) {
	if b == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.circuit(host)
	switch c.state {
	case StateHalfOpen:
		c.state = StateClosed
		c.lastStateChange = time.Now()
		c.failures = 0
		c.probes = 0
	case StateClosed:
		c.failures = 0
	}
}

// RecordFailure counts a failure. Reaching the threshold opens the
// circuit; a failed probe reopens it.
func (b *Breaker) RecordFailure(host string) {
	if b == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.circuit(host)
	switch c.state {
	case StateClosed:
		c.failures++
		if c.failures >= b.config.FailureThreshold {
			c.state = StateOpen
			c.lastStateChange = time.Now()
		}
	case StateHalfOpen:
		c.state = StateOpen
		c.lastStateChange = time.Now()
		c.failures++
	}
}

// CurrentState returns the state of a host's circuit, accounting for an
// elapsed recovery timeout.
func (b *Breaker) CurrentState(host string) State {
	if b == nil {
		return StateClosed
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.hosts[host]
	if !ok {
		return StateClosed
	}
	if c.state == StateOpen && time.Since(c.lastStateChange) >= b.config.RecoveryTimeout {
		return StateHalfOpen
	}
	return c.state
}

// Reset returns a host's circuit to closed.
func (b *Breaker) Reset(host string) {
	if b == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.hosts, host)
}

// circuit must be called with the mutex held.
func (b *Breaker) circuit(host string) *hostCircuit {
	c, ok := b.hosts[host]
	if !ok {
		c = &hostCircuit{state: StateClosed, lastStateChange: time.Now()}
		b.hosts[host] = c
	}
	return c
}
