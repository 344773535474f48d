package firebase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"bankdash/internal/domain/notification"
)

// ErrUnavailable is returned while the breaker is open.
var ErrUnavailable = errors.New("push delivery temporarily unavailable")

// BreakerSettings tunes the circuit breaker around FCM.
type BreakerSettings struct {
	// ConsecutiveFailures trips the breaker
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing
	OpenTimeout time.Duration
}

// BreakerMessenger stops calling FCM after repeated failures so dispatcher
// workers do not pile up behind a dead upstream.
type BreakerMessenger struct {
	next notification.Messenger
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerMessenger wraps next in a circuit breaker.
func NewBreakerMessenger(next notification.Messenger, s BreakerSettings, log zerolog.Logger) *BreakerMessenger {
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = 5
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = 30 * time.Second
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "fcm",
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
	return &BreakerMessenger{next: next, cb: cb}
}

func (b *BreakerMessenger) Send(ctx context.Context, tokens []string, p notification.Push) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.next.Send(ctx, tokens, p)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

// State reports the breaker state for health checks.
func (b *BreakerMessenger) State() string {
	return b.cb.State().String()
}
