// Package circuitbreaker guards the Spotify token endpoint: once credential
// acquisition fails repeatedly, further network attempts are suppressed for a
// cooldown window and callers fail fast with an auth error.
package circuitbreaker

import (
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"mobile-lyrics-go/logcolors"
)

// State represents the circuit breaker state
type State int

const (
	StateClosed   State = iota // normal operation, requests allowed
	StateOpen                  // circuit tripped, requests blocked
	StateHalfOpen              // probing whether the endpoint recovered
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF-OPEN"
	default:
		return "UNKNOWN"
	}
}

var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreaker trips after a number of consecutive failures and allows a
// single probe request once the cooldown has passed.
type CircuitBreaker struct {
	name      string
	threshold int
	cooldown  time.Duration

	mu          sync.Mutex
	state       State
	failures    int
	lastFailure time.Time
}

// Config holds circuit breaker configuration
type Config struct {
	Name      string
	Threshold int           // consecutive failures before opening
	Cooldown  time.Duration // how long to stay open before probing
}

// New creates a circuit breaker in the closed state.
func New(cfg Config) *CircuitBreaker {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 5 * time.Minute
	}
	if cfg.Name == "" {
		cfg.Name = "default"
	}

	return &CircuitBreaker{
		name:      cfg.Name,
		threshold: cfg.Threshold,
		cooldown:  cfg.Cooldown,
		state:     StateClosed,
	}
}

// Allow reports whether a request may proceed. When the cooldown of an open
// circuit has elapsed, one probe request is let through in half-open state.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if time.Since(cb.lastFailure) < cb.cooldown {
			return false
		}
		cb.state = StateHalfOpen
		log.Infof("%s Cooldown passed, transitioning to HALF-OPEN", logcolors.CircuitBreakerPrefix(cb.name))
		return true
	case StateHalfOpen:
		// A probe is already in flight; block the rest.
		return false
	default:
		return true
	}
}

// RecordSuccess resets the failure count and closes a half-open circuit.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateHalfOpen {
		log.Infof("%s Probe succeeded, transitioning to CLOSED", logcolors.CircuitBreakerPrefix(cb.name))
	}
	cb.state = StateClosed
	cb.failures = 0
}

// RecordFailure counts one consecutive failure and opens the circuit when the
// threshold is reached or a half-open probe fails.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.lastFailure = time.Now()

	if cb.state == StateHalfOpen {
		cb.state = StateOpen
		log.Warnf("%s Probe failed, transitioning back to OPEN", logcolors.CircuitBreakerPrefix(cb.name))
		return
	}

	if cb.state == StateClosed && cb.failures >= cb.threshold {
		cb.state = StateOpen
		log.Warnf("%s Threshold reached (%d failures), transitioning to OPEN (cooldown: %v)",
			logcolors.CircuitBreakerPrefix(cb.name), cb.failures, cb.cooldown)
	}
}

// Stats returns the current state and consecutive failure count.
func (cb *CircuitBreaker) Stats() (State, int) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state, cb.failures
}

// Reset manually closes the circuit.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = StateClosed
	cb.failures = 0
	cb.lastFailure = time.Time{}
	log.Infof("%s Manually reset to CLOSED", logcolors.CircuitBreakerPrefix(cb.name))
}
