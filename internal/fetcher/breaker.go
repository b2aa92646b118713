package fetcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/vgccalc/vgccalc/internal/config"
)

// State is the state of a circuit breaker as reported by get_status.
type State string

const (
	Closed   State = "closed"
	Open     State = "open"
	HalfOpen State = "half_open"
)

func stateOf(s gobreaker.State) State {
	switch s {
	case gobreaker.StateOpen:
		return Open
	case gobreaker.StateHalfOpen:
		return HalfOpen
	default:
		return Closed
	}
}

// ErrBreakerOpen is returned without contacting the service while its
// breaker is open.
var ErrBreakerOpen = errors.New("circuit breaker open")

// BreakerError names the service whose breaker rejected a call.
type BreakerError struct {
	Service string
	RetryIn time.Duration
}

func (e *BreakerError) Error() string {
	if e.RetryIn <= 0 {
		return fmt.Sprintf("%s: %v, recovery in progress", e.Service, ErrBreakerOpen)
	}
	return fmt.Sprintf("%s: %v, retry in %s", e.Service, ErrBreakerOpen, e.RetryIn.Round(time.Second))
}

func (e *BreakerError) Unwrap() error { return ErrBreakerOpen }

// DefaultBreakerConfig is used for services without configuration.
var DefaultBreakerConfig = config.BreakerConfig{
	FailureThreshold: 5,
	RecoveryTimeout:  60 * time.Second,
	SuccessThreshold: 2,
}

// StateChangeFunc is told about every breaker transition.
type StateChangeFunc func(service string, from, to State)

// Breaker guards one remote service. After FailureThreshold consecutive
// failures it opens; after RecoveryTimeout it lets SuccessThreshold calls
// through, and closes once they all succeed. Any failure while half open
// reopens it.
type Breaker struct {
	name string
	cfg  config.BreakerConfig
	cb   *gobreaker.CircuitBreaker[[]byte]

	mu       sync.Mutex
	openedAt time.Time
}

// neutral marks a failure that says nothing about the service, such as the
// caller giving up.
type neutral struct{ err error }

func (n *neutral) Error() string { return n.err.Error() }
func (n *neutral) Unwrap() error { return n.err }

// NewBreaker creates a closed breaker. Zero fields of cfg take their
// default. onChange may be nil.
func NewBreaker(name string, cfg config.BreakerConfig, onChange StateChangeFunc) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultBreakerConfig.FailureThreshold
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = DefaultBreakerConfig.RecoveryTimeout
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = DefaultBreakerConfig.SuccessThreshold
	}

	b := &Breaker{name: name, cfg: cfg}
	b.cb = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: uint32(cfg.SuccessThreshold),
		Timeout:     cfg.RecoveryTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(cfg.FailureThreshold)
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var se *StatusError
			if errors.As(err, &se) && se.NotFound() {
				// the service answered, the document does not exist
				return true
			}
			var n *neutral
			return errors.As(err, &n)
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				b.mu.Lock()
				b.openedAt = time.Now()
				b.mu.Unlock()
			}
			if onChange != nil {
				onChange(name, stateOf(from), stateOf(to))
			}
		},
	})
	return b
}

// Name returns the service name.
func (b *Breaker) Name() string { return b.name }

// State returns the current state. An open breaker whose recovery timeout
// has passed reports half open.
func (b *Breaker) State() State { return stateOf(b.cb.State()) }

// Execute runs fn unless the breaker is open. A failure after ctx is done
// is not held against the service.
func (b *Breaker) Execute(ctx context.Context, fn func() ([]byte, error)) ([]byte, error) {
	body, err := b.cb.Execute(func() ([]byte, error) {
		body, err := fn()
		if err != nil && ctx.Err() != nil {
			return nil, &neutral{err: err}
		}
		return body, err
	})

	var n *neutral
	switch {
	case err == nil:
		return body, nil
	case errors.As(err, &n):
		return nil, n.err
	case errors.Is(err, gobreaker.ErrOpenState):
		b.mu.Lock()
		retry := b.cfg.RecoveryTimeout - time.Since(b.openedAt)
		b.mu.Unlock()
		return nil, &BreakerError{Service: b.name, RetryIn: retry}
	case errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, &BreakerError{Service: b.name}
	}
	return body, err
}
