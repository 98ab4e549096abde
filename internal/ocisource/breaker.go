package ocisource

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// BreakerSettings tune the per-service circuit breakers.
type BreakerSettings struct {
	// ConsecutiveFailures of transient errors that open a breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long a breaker stays open before letting a trial request through.
	OpenTimeout time.Duration
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{ConsecutiveFailures: 5, OpenTimeout: 30 * time.Second}
}

// ErrCircuitOpen is wrapped into the errors of calls rejected by an open breaker.
var ErrCircuitOpen = errors.New("circuit open")

// breakers hands out one breaker per OCI service so that a throttled service
// fails fast without affecting the others.
type breakers struct {
	settings BreakerSettings
	log      zerolog.Logger

	mu  sync.Mutex
	set map[string]*gobreaker.CircuitBreaker
}

func newBreakers(settings BreakerSettings, log zerolog.Logger) *breakers {
	if settings.ConsecutiveFailures == 0 {
		settings.ConsecutiveFailures = DefaultBreakerSettings().ConsecutiveFailures
	}
	if settings.OpenTimeout <= 0 {
		settings.OpenTimeout = DefaultBreakerSettings().OpenTimeout
	}
	return &breakers{settings: settings, log: log, set: map[string]*gobreaker.CircuitBreaker{}}
}

func (b *breakers) get(service string) *gobreaker.CircuitBreaker {
	b.mu.Lock()
	defer b.mu.Unlock()

	if cb, ok := b.set[service]; ok {
		return cb
	}
	threshold := b.settings.ConsecutiveFailures
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        service,
		MaxRequests: 1,
		Timeout:     b.settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.log.Warn().Str("service", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
	b.set[service] = cb
	return cb
}

// execute runs fn through the service breaker. Only transient failures count
// against the breaker; other errors are handed back untouched.
func (b *breakers) execute(service string, fn func() error) error {
	var callErr error
	_, err := b.get(service).Execute(func() (interface{}, error) {
		callErr = fn()
		if callErr != nil && isTransientError(callErr) {
			return nil, callErr
		}
		return nil, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s %w: %v", service, ErrCircuitOpen, err)
	}
	if err != nil {
		return err
	}
	return callErr
}
