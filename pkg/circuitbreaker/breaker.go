// Package circuitbreaker wraps sony/gobreaker for the lead pipeline's
// downstream calls: object storage, the webhook and the mail provider.
package circuitbreaker

import (
	"errors"
	"fmt"
	"time"

	"github.com/maestriajurisp/leads-api/pkg/logger"
	"github.com/maestriajurisp/leads-api/pkg/metrics"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Config mirrors gobreaker.Settings. OnStateChange runs after the state
// gauge has been updated.
type Config struct {
	Name          string
	MaxRequests   uint32 // trial calls allowed while half-open
	Interval      time.Duration
	Timeout       time.Duration // how long the breaker stays open
	ReadyToTrip   func(counts gobreaker.Counts) bool
	OnStateChange func(name string, from gobreaker.State, to gobreaker.State)
}

// DefaultConfig trips when at least 60% of three or more calls failed
func DefaultConfig(name string) Config {
	return Config{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 3 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: logStateChange,
	}
}

// NotifierConfig trips on consecutive failures so a dead webhook or mail
// provider stops receiving traffic while leads keep flowing.
func NotifierConfig(name string) Config {
	cfg := DefaultConfig(name)
	cfg.MaxRequests = 1
	cfg.Timeout = time.Minute
	cfg.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= 5
	}
	return cfg
}

func logStateChange(name string, from gobreaker.State, to gobreaker.State) {
	logger.Info("Circuit breaker state changed",
		zap.String("breaker", name),
		zap.String("from", from.String()),
		zap.String("to", to.String()))
}

// NewCircuitBreaker builds a breaker that exports its state as
// leads_circuit_breaker_state (0 closed, 1 half-open, 2 open).
func NewCircuitBreaker(cfg Config) *gobreaker.CircuitBreaker {
	metrics.CircuitBreakerState.WithLabelValues(cfg.Name).Set(float64(gobreaker.StateClosed))

	hook := cfg.OnStateChange
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: cfg.ReadyToTrip,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			if hook != nil {
				hook(name, from, to)
			}
		},
	})
}

// Execute runs fn through cb. Rejections by the breaker are wrapped with its
// name and still match gobreaker.ErrOpenState or ErrTooManyRequests.
func Execute[T any](cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	var zero T

	result, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return zero, FormatError(cb.Name(), err)
	}

	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker '%s': unexpected result type %T", cb.Name(), result)
	}
	return typed, nil
}

// ExecuteWithFallback calls fallback only when cb is open. Errors from fn
// itself are returned unchanged.
func ExecuteWithFallback[T any](cb *gobreaker.CircuitBreaker, fn func() (T, error), fallback func() (T, error)) (T, error) {
	result, err := Execute(cb, fn)
	if err != nil && errors.Is(err, gobreaker.ErrOpenState) {
		logger.Warn("Circuit breaker open, using fallback",
			zap.String("breaker", cb.Name()))
		return fallback()
	}
	return result, err
}

// IsCircuitOpen reports whether cb currently rejects calls
func IsCircuitOpen(cb *gobreaker.CircuitBreaker) bool {
	return cb.State() == gobreaker.StateOpen
}

// FormatError names the breaker in its own rejections and passes other
// errors through.
func FormatError(breakerName string, err error) error {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState):
		return fmt.Errorf("circuit breaker '%s' is open: %w", breakerName, err)
	case errors.Is(err, gobreaker.ErrTooManyRequests):
		return fmt.Errorf("circuit breaker '%s' has too many requests: %w", breakerName, err)
	default:
		return err
	}
}
