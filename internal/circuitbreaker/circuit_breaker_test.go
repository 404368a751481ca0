package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("provider down")

func fail() error { return errBoom }
func ok() error   { return nil }

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	cb := New(3, time.Minute, 2)

	for i := 0; i < 2; i++ {
		require.ErrorIs(t, cb.Call(context.Background(), fail), errBoom)
	}
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, 2, cb.FailureCount())

	_ = cb.Call(context.Background(), fail)
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Call(context.Background(), func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_SuccessResetsCount(t *testing.T) {
	cb := New(3, time.Minute, 2)
	_ = cb.Call(context.Background(), fail)
	_ = cb.Call(context.Background(), fail)
	require.NoError(t, cb.Call(context.Background(), ok))
	assert.Equal(t, 0, cb.FailureCount())
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := New(2, 30*time.Second, 2)
	cb.now = func() time.Time { return now }

	_ = cb.Call(context.Background(), fail)
	_ = cb.Call(context.Background(), fail)
	require.Equal(t, StateOpen, cb.State())

	now = now.Add(31 * time.Second)
	require.NoError(t, cb.Call(context.Background(), ok))
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := New(1, 30*time.Second, 2)
	cb.now = func() time.Time { return now }

	_ = cb.Call(context.Background(), fail)
	now = now.Add(time.Minute)
	_ = cb.Call(context.Background(), fail)
	assert.Equal(t, StateOpen, cb.State())
	assert.ErrorIs(t, cb.Call(context.Background(), ok), ErrOpen)
}

func TestCircuitBreaker_HalfOpenLimit(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := New(1, time.Second, 1)
	cb.now = func() time.Time { return now }

	_ = cb.Call(context.Background(), fail)
	now = now.Add(2 * time.Second)

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error)
	go func() {
		done <- cb.Call(context.Background(), func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	assert.ErrorIs(t, cb.Call(context.Background(), ok), ErrHalfOpenLimit)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_CancelledContext(t *testing.T) {
	cb := New(1, time.Minute, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, cb.Call(ctx, fail), context.Canceled)
	assert.Equal(t, 0, cb.FailureCount())
	assert.Equal(t, "closed", cb.State().String())
}
