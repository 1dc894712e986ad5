// Package resilience wraps blocking dependency calls in a retry, a
// three-state circuit breaker and a timeout, composed as
// retry(breaker(timeout(call))).
package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"railpay/internal/config"
	apperrors "railpay/internal/errors"
	"railpay/internal/logger"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

type Config struct {
	Name        string
	Timeout     time.Duration
	MaxRetries  int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration

	// Breaker trips on ConsecutiveFailures, or once MinRequests have been
	// seen in the current window with a failure ratio of at least FailureRatio.
	ConsecutiveFailures uint32
	MinRequests         uint32
	FailureRatio        float64
	OpenTimeout         time.Duration
	HalfOpenRequests    uint32

	// Retryable overrides the default classification.
	Retryable func(error) bool
}

func DefaultConfig(name string) Config {
	return Config{
		Name:                name,
		Timeout:             2 * time.Second,
		MaxRetries:          3,
		BaseBackoff:         50 * time.Millisecond,
		MaxBackoff:          time.Second,
		ConsecutiveFailures: 5,
		MinRequests:         10,
		FailureRatio:        0.5,
		OpenTimeout:         30 * time.Second,
		HalfOpenRequests:    1,
	}
}

// FromPolicyConfig maps the environment configuration onto a Config.
func FromPolicyConfig(name string, pc config.PolicyConfig) Config {
	cfg := DefaultConfig(name)
	cfg.Timeout = pc.Timeout
	cfg.MaxRetries = pc.MaxRetries
	cfg.BaseBackoff = pc.BaseBackoff
	cfg.MaxBackoff = pc.MaxBackoff
	if pc.FailureThreshold > 0 {
		cfg.ConsecutiveFailures = uint32(pc.FailureThreshold)
	}
	if pc.OpenTimeout > 0 {
		cfg.OpenTimeout = pc.OpenTimeout
	}
	return cfg
}

// Policy is safe for concurrent use. A nil *Policy calls straight through.
type Policy struct {
	cfg     Config
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

func New(cfg Config, log *zap.Logger) *Policy {
	log = logger.OrNop(log).With(zap.String("policy", cfg.Name))
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Retryable == nil {
		cfg.Retryable = IsRetryable
	}

	p := &Policy{cfg: cfg, logger: log}
	p.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if cfg.ConsecutiveFailures > 0 && counts.ConsecutiveFailures >= cfg.ConsecutiveFailures {
				return true
			}
			if cfg.MinRequests == 0 || counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !countsAsFailure(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return p
}

func (p *Policy) Name() string {
	if p == nil {
		return ""
	}
	return p.cfg.Name
}

// State reports the breaker state: "closed", "half-open" or "open".
func (p *Policy) State() string {
	if p == nil {
		return gobreaker.StateClosed.String()
	}
	return p.breaker.State().String()
}

// Execute runs fn under the policy.
func (p *Policy) Execute(ctx context.Context, fn func(context.Context) error) error {
	_, err := Call(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Call runs fn under the policy and returns its result.
func Call[T any](ctx context.Context, p *Policy, fn func(context.Context) (T, error)) (T, error) {
	if p == nil {
		return fn(ctx)
	}
	var zero T
	for attempt := 0; ; attempt++ {
		v, err := callOnce(ctx, p, fn)
		if err == nil {
			return v, nil
		}
		if attempt >= p.cfg.MaxRetries || !p.cfg.Retryable(err) || ctx.Err() != nil {
			return zero, err
		}
		delay := Backoff(p.cfg.BaseBackoff, p.cfg.MaxBackoff, attempt)
		p.logger.Debug("retrying dependency call",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err))
		if sleepErr := Sleep(ctx, delay); sleepErr != nil {
			return zero, err
		}
	}
}

// WithFallback is Call, except that an open circuit or a timeout is
// answered by fallback instead of the error.
func WithFallback[T any](ctx context.Context, p *Policy, fn func(context.Context) (T, error), fallback func(error) (T, error)) (T, error) {
	v, err := Call(ctx, p, fn)
	if err != nil && fallback != nil && (errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrTimeout)) {
		return fallback(err)
	}
	return v, err
}

func callOnce[T any](ctx context.Context, p *Policy, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	out, err := p.breaker.Execute(func() (interface{}, error) {
		return withTimeout(ctx, p.cfg.Timeout, fn)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, ErrCircuitOpen.Wrap(fmt.Errorf("%s: %w", p.cfg.Name, err))
		}
		return zero, err
	}
	v, _ := out.(T)
	return v, nil
}

type result[T any] struct {
	v   T
	err error
}

// withTimeout bounds fn even if it ignores ctx; a late result is dropped.
func withTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if d <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	done := make(chan result[T], 1)
	go func() {
		v, err := fn(ctx)
		done <- result[T]{v: v, err: err}
	}()

	var zero T
	select {
	case r := <-done:
		if r.err != nil && errors.Is(r.err, context.DeadlineExceeded) && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, ErrTimeout.Wrap(r.err)
		}
		return r.v, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, ErrTimeout.Wrap(fmt.Errorf("after %s", d))
		}
		return zero, ctx.Err()
	}
}

// IsRetryable reports whether a failed call may be attempted again.
// Domain outcomes, cancellation and an open circuit are final.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrCircuitOpen) {
		return false
	}
	switch apperrors.KindOf(err) {
	case apperrors.KindInternal, apperrors.KindExternalRailFailure:
		return true
	default:
		return false
	}
}

// countsAsFailure decides what the breaker records as a dependency failure.
// A rejection by another breaker further down is not a failure of this one.
func countsAsFailure(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrCircuitOpen) {
		return false
	}
	switch apperrors.KindOf(err) {
	case apperrors.KindInternal, apperrors.KindExternalRailFailure:
		return true
	default:
		return false
	}
}
