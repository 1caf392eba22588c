package store

import (
	"errors"
	"time"

	"github.com/kenqu-rs/kugelpos-backend/internal/cache"
	"github.com/kenqu-rs/kugelpos-backend/internal/domain"
	"github.com/kenqu-rs/kugelpos-backend/internal/logger"
	"github.com/sony/gobreaker/v2"
)

type BreakerSettings struct {
	MaxFailures uint32
	OpenTimeout time.Duration
}

// newBreaker trips after MaxFailures consecutive failures. Misses are
// answers, not failures.
func newBreaker[T any](name string, s BreakerSettings, log *logger.Logger) *gobreaker.CircuitBreaker[T] {
	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, cache.ErrCacheMiss) || errors.Is(err, domain.ErrCartNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}
