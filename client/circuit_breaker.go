package client

import (
	"time"

	"github.com/hopdb/hop"
	"github.com/sony/gobreaker/v2"
)

// CircuitBreaker wraps the per-server failure-tripping policy so callers
// can supply their own implementation.
type CircuitBreaker interface {
	// Execute runs fn if the circuit is closed, else fails fast.
	Execute(fn func() (*hop.Response, error)) (*hop.Response, error)

	// State reports the circuit's current state.
	State() CircuitBreakerState
}

// CircuitBreakerState mirrors gobreaker's three states without leaking the
// dependency into callers that only read state for logging or a health
// endpoint.
type CircuitBreakerState int

const (
	CircuitStateClosed CircuitBreakerState = iota
	CircuitStateHalfOpen
	CircuitStateOpen
)

func (s CircuitBreakerState) String() string {
	switch s {
	case CircuitStateClosed:
		return "closed"
	case CircuitStateHalfOpen:
		return "half-open"
	case CircuitStateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// goBreaker adapts gobreaker.CircuitBreaker[*hop.Response] to CircuitBreaker.
type goBreaker struct {
	cb *gobreaker.CircuitBreaker[*hop.Response]
}

func (w *goBreaker) Execute(fn func() (*hop.Response, error)) (*hop.Response, error) {
	return w.cb.Execute(fn)
}

func (w *goBreaker) State() CircuitBreakerState {
	switch w.cb.State() {
	case gobreaker.StateClosed:
		return CircuitStateClosed
	case gobreaker.StateHalfOpen:
		return CircuitStateHalfOpen
	case gobreaker.StateOpen:
		return CircuitStateOpen
	default:
		return CircuitStateClosed
	}
}

// NewGoBreaker builds a CircuitBreaker from raw gobreaker settings.
func NewGoBreaker(settings gobreaker.Settings) CircuitBreaker {
	return &goBreaker{cb: gobreaker.NewCircuitBreaker[*hop.Response](settings)}
}

// NewServerCircuitBreaker returns a factory that builds one circuit
// breaker per server address, tripping once at least 3 requests have been
// made and 60% or more of them failed.
func NewServerCircuitBreaker(maxRequests uint32, interval, timeout time.Duration) func(serverAddr string) CircuitBreaker {
	return func(serverAddr string) CircuitBreaker {
		return NewGoBreaker(gobreaker.Settings{
			Name:        serverAddr,
			MaxRequests: maxRequests,
			Interval:    interval,
			Timeout:     timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				ratio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && ratio >= 0.6
			},
		})
	}
}
