package resilience

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	apperrors "railpay/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUnavailable = errors.New("connection refused")

func testConfig() Config {
	cfg := DefaultConfig("test")
	cfg.Timeout = 50 * time.Millisecond
	cfg.BaseBackoff = time.Millisecond
	cfg.MaxBackoff = 2 * time.Millisecond
	cfg.ConsecutiveFailures = 3
	cfg.OpenTimeout = time.Minute
	return cfg
}

func TestCall_RetriesUntilSuccess(t *testing.T) {
	p := New(testConfig(), nil)
	var calls int32

	v, err := Call(context.Background(), p, func(ctx context.Context) (string, error) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return "", errUnavailable
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, int32(3), calls)
}

func TestCall_GivesUpAfterMaxRetries(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRetries = 2
	cfg.ConsecutiveFailures = 10
	p := New(cfg, nil)
	var calls int32

	err := p.Execute(context.Background(), func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return errUnavailable
	})
	assert.ErrorIs(t, err, errUnavailable)
	assert.Equal(t, int32(3), calls)
}

func TestCall_BusinessErrorsAreFinal(t *testing.T) {
	p := New(testConfig(), nil)
	business := apperrors.New(apperrors.KindBusiness, "NOPE", "nope")
	var calls int32

	for i := 0; i < 10; i++ {
		err := p.Execute(context.Background(), func(ctx context.Context) error {
			atomic.AddInt32(&calls, 1)
			return business
		})
		assert.ErrorIs(t, err, business)
	}
	assert.Equal(t, int32(10), calls)
	assert.Equal(t, "closed", p.State())
}

func TestCall_BreakerOpens(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRetries = 0
	p := New(cfg, nil)
	var calls int32
	fail := func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return errUnavailable
	}

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, p.Execute(context.Background(), fail), errUnavailable)
	}
	assert.Equal(t, "open", p.State())

	err := p.Execute(context.Background(), fail)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(3), calls)
}

func TestCall_Timeout(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRetries = 0
	p := New(cfg, nil)

	start := time.Now()
	err := p.Execute(context.Background(), func(ctx context.Context) error {
		time.Sleep(time.Second)
		return nil
	})
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestWithFallback(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRetries = 0
	cfg.ConsecutiveFailures = 1
	p := New(cfg, nil)

	_ = p.Execute(context.Background(), func(ctx context.Context) error { return errUnavailable })
	require.Equal(t, "open", p.State())

	v, err := WithFallback(context.Background(), p,
		func(ctx context.Context) (int, error) { return 1, nil },
		func(cause error) (int, error) { return -1, nil })
	require.NoError(t, err)
	assert.Equal(t, -1, v)
}

func TestCall_NestedBreakerRecovers(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRetries = 0
	cfg.ConsecutiveFailures = 1
	cfg.OpenTimeout = 20 * time.Millisecond
	p := New(cfg, nil)
	nested := func(fn func(context.Context) error) error {
		return p.Execute(context.Background(), func(ctx context.Context) error {
			return p.Execute(ctx, fn)
		})
	}

	assert.ErrorIs(t, nested(func(ctx context.Context) error { return errUnavailable }), errUnavailable)
	require.Equal(t, "open", p.State())

	time.Sleep(30 * time.Millisecond)
	_ = nested(func(ctx context.Context) error { return nil })
	assert.Equal(t, "closed", p.State())
	assert.NoError(t, p.Execute(context.Background(), func(ctx context.Context) error { return nil }))
}

func TestNilPolicyCallsThrough(t *testing.T) {
	var p *Policy
	v, err := Call(context.Background(), p, func(ctx context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, "closed", p.State())
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, 80*time.Millisecond, Exponential(10*time.Millisecond, 3))
	assert.Equal(t, time.Duration(0), Exponential(0, 3))
	for i := 0; i < 100; i++ {
		assert.Less(t, Backoff(10*time.Millisecond, 20*time.Millisecond, 10), 20*time.Millisecond)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Second), context.Canceled)
}
