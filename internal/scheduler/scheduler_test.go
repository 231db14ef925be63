package scheduler

import (
	"context"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/goal-edge/internal/models"
)

type countingRunner struct {
	calls atomic.Int64
}

func (r *countingRunner) RunCycle(context.Context) (map[string][]*models.BetRecommendation, error) {
	r.calls.Add(1)
	return nil, nil
}

type countingRefresher struct {
	calls atomic.Int64
}

func (r *countingRefresher) Refresh(context.Context) error {
	r.calls.Add(1)
	return nil
}

func newTestScheduler() *Scheduler {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewScheduler(logger)
}

func TestStartWithoutJobsFails(t *testing.T) {
	s := newTestScheduler()
	assert.Error(t, s.Start())
}

func TestStartAndStop(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.ScheduleAnalysis(10*time.Second, &countingRunner{}))

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.Error(t, s.Start(), "double start")

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.NoError(t, s.Stop(), "stop is idempotent")
}

func TestCannotScheduleWhileRunning(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.ScheduleAnalysis(10*time.Second, &countingRunner{}))
	require.NoError(t, s.Start())
	defer func() { _ = s.Stop() }()

	assert.Error(t, s.ScheduleAnalysis(10*time.Second, &countingRunner{}))
	assert.Error(t, s.ScheduleRatingsRefresh(time.Hour, &countingRefresher{}))
}

func TestAnalysisIntervalFloor(t *testing.T) {
	s := newTestScheduler()

	// Sub-5s intervals are clamped, not rejected
	require.NoError(t, s.ScheduleAnalysis(time.Second, &countingRunner{}))
	require.NoError(t, s.Start())
	defer func() { _ = s.Stop() }()

	next := s.GetNextRun()
	require.False(t, next.IsZero())
	assert.Greater(t, time.Until(next), 3*time.Second)
}

func TestGetNextRunWhenStopped(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.ScheduleAnalysis(10*time.Second, &countingRunner{}))

	assert.True(t, s.GetNextRun().IsZero())
}

func TestScheduledJobsFire(t *testing.T) {
	s := newTestScheduler()
	runner := &countingRunner{}
	require.NoError(t, s.ScheduleAnalysis(5*time.Second, runner))
	require.NoError(t, s.Start())
	defer func() { _ = s.Stop() }()

	require.Eventually(t, func() bool {
		return runner.calls.Load() >= 1
	}, 7*time.Second, 100*time.Millisecond)
}
