package reconnect

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"flowradar/pkg/errors"
	"flowradar/pkg/logger"
)

func newTestLogger() *logger.Logger {
	zapLog, _ := zap.NewDevelopment()
	return &logger.Logger{SugaredLogger: zapLog.Sugar()}
}

func TestNewManagerDefaults(t *testing.T) {
	m := NewManager(Config{}, newTestLogger())

	assert.Equal(t, time.Second, m.minBackoff)
	assert.Equal(t, 5*time.Minute, m.maxBackoff)
	assert.Equal(t, 2.0, m.multiplier)
	assert.Equal(t, 10, m.maxRetries)
	assert.Equal(t, 60*time.Second, m.heartbeatTimeout)
	assert.False(t, m.circuitOpen)
}

func TestBackoffGrowsAndResets(t *testing.T) {
	m := NewManager(Config{MinBackoff: time.Second, MaxBackoff: 10 * time.Second}, newTestLogger())

	m.RecordFailure()
	assert.Equal(t, 2*time.Second, m.Backoff())
	m.RecordFailure()
	assert.Equal(t, 4*time.Second, m.Backoff())

	for i := 0; i < 5; i++ {
		m.RecordFailure()
	}
	assert.Equal(t, 10*time.Second, m.Backoff(), "capped at max")

	m.RecordSuccess()
	assert.Equal(t, time.Second, m.Backoff())
}

func TestCircuitOpensAfterMaxRetries(t *testing.T) {
	m := NewManager(Config{MaxRetries: 3, CircuitResetAfter: time.Hour}, newTestLogger())

	for i := 0; i < 3; i++ {
		assert.True(t, m.ShouldRetry())
		m.RecordFailure()
	}

	assert.False(t, m.ShouldRetry())
	assert.False(t, m.Healthy())

	m.RecordSuccess()
	assert.True(t, m.ShouldRetry(), "success closes the circuit")
}

func TestHealthyTracksHeartbeat(t *testing.T) {
	m := NewManager(Config{HeartbeatTimeout: time.Minute}, newTestLogger())

	assert.True(t, m.Healthy(), "fresh connection with no traffic yet")

	m.RecordMessage()
	assert.True(t, m.Healthy())
}

func TestReconnectRunsFunc(t *testing.T) {
	m := NewManager(Config{MinBackoff: time.Millisecond}, newTestLogger())

	calls := 0
	err := m.Reconnect(context.Background(), func(context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, m.GetStats().TotalReconnects)
}

func TestReconnectRecordsFailure(t *testing.T) {
	m := NewManager(Config{MinBackoff: time.Millisecond}, newTestLogger())

	err := m.Reconnect(context.Background(), func(context.Context) error {
		return errors.ErrFeedDisconnected
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrFeedDisconnected)
	assert.Equal(t, 1, m.GetStats().Failures)
}

func TestReconnectHonorsContext(t *testing.T) {
	m := NewManager(Config{MinBackoff: time.Hour}, newTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Reconnect(ctx, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
