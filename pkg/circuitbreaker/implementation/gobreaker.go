package implementation

import (
	"errors"
	"time"

	"github.com/jt828/runner/pkg/circuitbreaker"
	"github.com/sony/gobreaker/v2"
)

type gobreakerCircuitBreaker struct {
	cb *gobreaker.CircuitBreaker[struct{}]
}

type Settings struct {
	Name string
	// MaxFailures consecutive failures trip the breaker. Zero means 5.
	MaxFailures uint32
	// Cooldown is how long the breaker stays open before probing again.
	Cooldown      time.Duration
	OnStateChange func(name string, from, to circuitbreaker.State)
}

func NewCircuitBreaker(s Settings) circuitbreaker.CircuitBreaker {
	maxFailures := s.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}

	settings := gobreaker.Settings{
		Name:    s.Name,
		Timeout: s.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
	}
	if s.OnStateChange != nil {
		settings.OnStateChange = func(name string, from, to gobreaker.State) {
			s.OnStateChange(name, fromGobreaker(from), fromGobreaker(to))
		}
	}

	return &gobreakerCircuitBreaker{
		cb: gobreaker.NewCircuitBreaker[struct{}](settings),
	}
}

func (g *gobreakerCircuitBreaker) Execute(fn func() error) error {
	_, err := g.cb.Execute(func() (struct{}, error) {
		return struct{}{}, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return circuitbreaker.ErrOpen
	}
	return err
}

func (g *gobreakerCircuitBreaker) State() circuitbreaker.State {
	return fromGobreaker(g.cb.State())
}

func fromGobreaker(s gobreaker.State) circuitbreaker.State {
	switch s {
	case gobreaker.StateClosed:
		return circuitbreaker.Closed
	case gobreaker.StateHalfOpen:
		return circuitbreaker.HalfOpen
	case gobreaker.StateOpen:
		return circuitbreaker.Open
	default:
		return circuitbreaker.Closed
	}
}
