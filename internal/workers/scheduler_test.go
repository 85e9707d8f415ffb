package workers

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockWorker struct {
	*BaseWorker
	runCount int32
	runFunc  func(ctx context.Context) error
}

func newMockWorker(name string, interval time.Duration, enabled bool) *mockWorker {
	return &mockWorker{
		BaseWorker: NewBaseWorker(name, interval, enabled),
		runFunc:    func(ctx context.Context) error { return nil },
	}
}

func (m *mockWorker) Run(ctx context.Context) error {
	atomic.AddInt32(&m.runCount, 1)
	return m.runFunc(ctx)
}

func (m *mockWorker) GetRunCount() int {
	return int(atomic.LoadInt32(&m.runCount))
}

func TestScheduler_StartStop(t *testing.T) {
	scheduler := NewScheduler()

	worker := newMockWorker("test-worker", 100*time.Millisecond, true)
	scheduler.RegisterWorker(worker)

	require.NoError(t, scheduler.Start(context.Background()))
	assert.True(t, scheduler.IsRunning())

	time.Sleep(250 * time.Millisecond)

	require.NoError(t, scheduler.Stop())
	assert.False(t, scheduler.IsRunning())

	assert.GreaterOrEqual(t, worker.GetRunCount(), 2, "worker should run immediately plus ticks")
}

func TestScheduler_DoubleStart(t *testing.T) {
	scheduler := NewScheduler()
	scheduler.RegisterWorker(newMockWorker("w", time.Second, true))

	require.NoError(t, scheduler.Start(context.Background()))
	defer scheduler.Stop()

	assert.Error(t, scheduler.Start(context.Background()))
}

func TestScheduler_DisabledWorkerNeverRuns(t *testing.T) {
	scheduler := NewScheduler()

	enabled := newMockWorker("enabled-worker", 50*time.Millisecond, true)
	disabled := newMockWorker("disabled-worker", 50*time.Millisecond, false)
	scheduler.RegisterWorker(enabled)
	scheduler.RegisterWorker(disabled)

	require.NoError(t, scheduler.Start(context.Background()))
	time.Sleep(150 * time.Millisecond)
	require.NoError(t, scheduler.Stop())

	assert.Greater(t, enabled.GetRunCount(), 0)
	assert.Equal(t, 0, disabled.GetRunCount())
}

func TestScheduler_ContextCancellation(t *testing.T) {
	scheduler := NewScheduler()
	scheduler.RegisterWorker(newMockWorker("test-worker", 100*time.Millisecond, true))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, scheduler.Start(ctx))

	cancel()
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, scheduler.Stop())
}

func TestScheduler_SurvivesPanickingWorker(t *testing.T) {
	scheduler := NewScheduler()

	panicky := newMockWorker("panicky", 50*time.Millisecond, true)
	panicky.runFunc = func(ctx context.Context) error { panic("boom") }
	steady := newMockWorker("steady", 50*time.Millisecond, true)

	scheduler.RegisterWorker(panicky)
	scheduler.RegisterWorker(steady)

	require.NoError(t, scheduler.Start(context.Background()))
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, scheduler.Stop())

	assert.Greater(t, steady.GetRunCount(), 1)
	assert.Greater(t, panicky.GetRunCount(), 1, "panicking worker keeps being rescheduled")
}

func TestBaseWorker_Health(t *testing.T) {
	w := NewBaseWorker("health-worker", time.Minute, true)

	w.RecordRun(10 * time.Millisecond)
	w.RecordError(assert.AnError, 30*time.Millisecond)

	health := w.Health()
	assert.Equal(t, int64(2), health.RunCount)
	assert.Equal(t, int64(1), health.ErrorCount)
	assert.Equal(t, assert.AnError, health.LastError)
	assert.Equal(t, 20*time.Millisecond, health.AvgDuration)
	assert.True(t, health.Enabled)

	w.SetEnabled(false)
	assert.False(t, w.Enabled())
}
