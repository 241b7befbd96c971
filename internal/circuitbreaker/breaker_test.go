package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testConfig() Config {
	return Config{
		MaxRequests:      5,
		Interval:         200 * time.Millisecond,
		Timeout:          100 * time.Millisecond,
		FailureThreshold: 3,
		SuccessThreshold: 2,
	}
}

func TestBreakerTripsAfterConsecutiveFailures(t *testing.T) {
	b := New("test", testConfig(), zaptest.NewLogger(t))
	ctx := context.Background()

	assert.Equal(t, StateClosed, b.State())

	for i := 0; i < 3; i++ {
		require.NoError(t, b.Execute(ctx, func() error { return nil }))
	}
	assert.Equal(t, StateClosed, b.State(), "successes must not trip the breaker")

	boom := errors.New("provider down")
	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, b.Execute(ctx, func() error { return boom }), boom)
	}
	assert.Equal(t, StateOpen, b.State())

	err := b.Execute(ctx, func() error { return nil })
	assert.ErrorIs(t, err, ErrBreakerOpen, "open breaker must reject without calling fn")
}

func TestBreakerRecoversThroughHalfOpen(t *testing.T) {
	b := New("recover", testConfig(), zaptest.NewLogger(t))
	ctx := context.Background()

	boom := errors.New("provider down")
	for i := 0; i < 3; i++ {
		_ = b.Execute(ctx, func() error { return boom })
	}
	require.Equal(t, StateOpen, b.State())

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, b.State())

	require.NoError(t, b.Execute(ctx, func() error { return nil }))
	require.NoError(t, b.Execute(ctx, func() error { return nil }))
	assert.Equal(t, StateClosed, b.State(), "two half-open successes should close the breaker")
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := New("reopen", testConfig(), zaptest.NewLogger(t))
	ctx := context.Background()

	boom := errors.New("provider down")
	for i := 0; i < 3; i++ {
		_ = b.Execute(ctx, func() error { return boom })
	}
	time.Sleep(150 * time.Millisecond)
	require.Equal(t, StateHalfOpen, b.State())

	_ = b.Execute(ctx, func() error { return boom })
	assert.Equal(t, StateOpen, b.State(), "half-open failure must reopen immediately")
}

func TestBreakerRespectsCancelledContext(t *testing.T) {
	b := New("ctx", testConfig(), zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := b.Execute(ctx, func() error { called = true; return nil })
	assert.Error(t, err)
	assert.False(t, called)
}
