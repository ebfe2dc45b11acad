package breaker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/yanqian/synergy-circle/internal/infra/llm/gemini"
)

// Generator is the provider call guarded by the breaker.
type Generator interface {
	GenerateContent(ctx context.Context, req gemini.Request) (gemini.Response, error)
}

// Settings mirrors the breaker section of the config.
type Settings struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultSettings trips at 80% failures over at least five calls.
func DefaultSettings(name string) Settings {
	return Settings{
		Name:             name,
		MaxRequests:      1,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// Breaker decorates a provider with a circuit breaker. Calls made while the
// breaker is open fail immediately without reaching the provider.
type Breaker struct {
	next   Generator
	cb     *gobreaker.CircuitBreaker
	logger *slog.Logger
}

// New wraps next with a breaker configured by s.
func New(next Generator, s Settings, logger *slog.Logger) *Breaker {
	defaults := DefaultSettings(s.Name)
	if s.Name == "" {
		s.Name = "gemini"
	}
	if s.MaxRequests == 0 {
		s.MaxRequests = defaults.MaxRequests
	}
	if s.FailureThreshold <= 0 || s.FailureThreshold > 1 {
		s.FailureThreshold = defaults.FailureThreshold
	}
	if s.MinRequests == 0 {
		s.MinRequests = defaults.MinRequests
	}

	log := logger.With("component", "llm.breaker", "breaker", s.Name)
	b := &Breaker{next: next, logger: log}
	b.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= s.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed", "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			// a caller giving up says nothing about provider health
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return b
}

// GenerateContent forwards to the wrapped provider through the breaker.
func (b *Breaker) GenerateContent(ctx context.Context, req gemini.Request) (gemini.Response, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.GenerateContent(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			b.logger.Warn("provider call rejected", "state", b.cb.State().String())
			return gemini.Response{}, fmt.Errorf("gemini unavailable: %w", err)
		}
		return gemini.Response{}, err
	}
	return out.(gemini.Response), nil
}

// State reports the breaker state for diagnostics.
func (b *Breaker) State() string {
	return b.cb.State().String()
}
