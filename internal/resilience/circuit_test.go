package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBreaker(cfg CircuitBreakerConfig) (*CircuitBreaker, *time.Time) {
	cb := NewCircuitBreaker(cfg)
	now := time.Now()
	cb.nowFunc = func() time.Time { return now }
	return cb, &now
}

func failN(cb *CircuitBreaker, n int) {
	for i := 0; i < n; i++ {
		_, _ = ExecuteVal(context.Background(), cb, func(context.Context) (int, error) {
			return 0, eris.New("backend down")
		})
	}
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb, _ := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 3, ResetTimeout: time.Minute})

	failN(cb, 2)
	assert.Equal(t, CircuitClosed, cb.State())

	failN(cb, 1)
	assert.Equal(t, CircuitOpen, cb.State())

	_, err := ExecuteVal(context.Background(), cb, func(context.Context) (int, error) {
		t.Fatal("must not be called while open")
		return 0, nil
	})
	assert.True(t, eris.Is(err, ErrCircuitOpen))
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb, _ := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 3, ResetTimeout: time.Minute})

	failN(cb, 2)
	_, err := ExecuteVal(context.Background(), cb, func(context.Context) (int, error) {
		return 1, nil
	})
	require.NoError(t, err)

	failN(cb, 2)
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenProbeCloses(t *testing.T) {
	cb, now := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Minute})

	failN(cb, 1)
	assert.Equal(t, CircuitOpen, cb.State())

	*now = now.Add(2 * time.Minute)
	assert.Equal(t, CircuitHalfOpen, cb.State())

	val, err := ExecuteVal(context.Background(), cb, func(context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, val)
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenProbeFailureReopens(t *testing.T) {
	cb, now := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Minute})

	failN(cb, 1)
	*now = now.Add(2 * time.Minute)

	failN(cb, 1)
	assert.Equal(t, CircuitOpen, cb.State())
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb, _ := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Minute})

	failN(cb, 1)
	require.Equal(t, CircuitOpen, cb.State())

	cb.Reset()
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_ShouldTripFilter(t *testing.T) {
	cb, _ := newTestBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     time.Minute,
		ShouldTrip:       IsTransient,
	})

	// Permanent errors do not count toward the threshold.
	_, err := ExecuteVal(context.Background(), cb, func(context.Context) (int, error) {
		return 0, eris.New("bad request")
	})
	require.Error(t, err)
	assert.Equal(t, CircuitClosed, cb.State())

	_, err = ExecuteVal(context.Background(), cb, func(context.Context) (int, error) {
		return 0, NewTransientError(eris.New("busy"), 503)
	})
	require.Error(t, err)
	assert.Equal(t, CircuitOpen, cb.State())
}

func TestCircuitBreaker_StateChangeCallback(t *testing.T) {
	var transitions []string
	cb, now := newTestBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     time.Minute,
		OnStateChange: func(from, to CircuitState) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	failN(cb, 1)
	*now = now.Add(2 * time.Minute)
	_, _ = ExecuteVal(context.Background(), cb, func(context.Context) (int, error) {
		return 1, nil
	})

	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
}
