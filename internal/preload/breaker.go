package preload

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

// breakers holds one circuit breaker per provider host so a failing
// provider stops being probed for a while.
type breakers struct {
	mu     sync.Mutex
	byHost map[string]*gobreaker.CircuitBreaker[struct{}]
	logger *slog.Logger
}

func newBreakers(logger *slog.Logger) *breakers {
	return &breakers{byHost: map[string]*gobreaker.CircuitBreaker[struct{}]{}, logger: logger}
}

func (b *breakers) get(host string) *gobreaker.CircuitBreaker[struct{}] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if cb, ok := b.byHost[host]; ok {
		return cb
	}
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        host,
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		// Opens after 5 straight failures, or a 60% failure rate over at least 10 requests.
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= 5 {
				return true
			}
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		// A host answering with a non-image or a client error is still up.
		IsSuccessful: func(err error) bool {
			var se *StatusError
			if errors.As(err, &se) {
				return se.Code < 500
			}
			return err == nil || errors.Is(err, ErrNotImage) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.logger.Info("image provider circuit changed", "host", name, "from", from.String(), "to", to.String())
		},
	})
	b.byHost[host] = cb
	return cb
}

func isOpenCircuit(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
