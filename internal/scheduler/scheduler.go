// Package scheduler manages the recurring analysis and ratings refresh jobs.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/goal-edge/internal/metrics"
	"github.com/yourusername/goal-edge/internal/models"
)

// CycleRunner runs one analysis cycle over the current live matches
type CycleRunner interface {
	RunCycle(ctx context.Context) (map[string][]*models.BetRecommendation, error)
}

// RatingsRefresher refreshes team strength ratings from the external source
type RatingsRefresher interface {
	Refresh(ctx context.Context) error
}

// Scheduler manages the recurring jobs
type Scheduler struct {
	cron      *cron.Cron
	logger    *logrus.Logger
	mu        sync.RWMutex
	isRunning bool
	jobIDs    []cron.EntryID
}

// NewScheduler creates a new scheduler
func NewScheduler(logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		logger: logger,
		jobIDs: make([]cron.EntryID, 0),
	}
}

// ScheduleAnalysis schedules the analysis cycle at a fixed interval. The
// per-run timeout is slightly under the interval so cycles never overlap.
func (s *Scheduler) ScheduleAnalysis(interval time.Duration, runner CycleRunner) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	if interval < 5*time.Second {
		interval = 5 * time.Second
	}

	jobFunc := func() {
		ctx, cancel := context.WithTimeout(context.Background(), interval-time.Second)
		defer cancel()

		if _, err := runner.RunCycle(ctx); err != nil {
			s.logger.WithError(err).Error("Analysis cycle failed")
		}
	}

	entryID, err := s.cron.AddFunc(fmt.Sprintf("@every %ds", int(interval.Seconds())), jobFunc)
	if err != nil {
		return fmt.Errorf("failed to add analysis job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithField("interval", interval.String()).Info("Scheduled analysis cycle")

	return nil
}

// ScheduleRatingsRefresh schedules the team ratings refresh
func (s *Scheduler) ScheduleRatingsRefresh(every time.Duration, refresher RatingsRefresher) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	if every < time.Minute {
		every = time.Minute
	}

	jobFunc := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		started := time.Now()
		err := refresher.Refresh(ctx)
		metrics.RecordRatingsRefresh(time.Since(started).Seconds(), err == nil)
		if err != nil {
			s.logger.WithError(err).Error("Ratings refresh failed")
		}
	}

	entryID, err := s.cron.AddFunc(fmt.Sprintf("@every %ds", int(every.Seconds())), jobFunc)
	if err != nil {
		return fmt.Errorf("failed to add ratings refresh job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithField("interval", every.String()).Info("Scheduled ratings refresh")

	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")

	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	<-s.cron.Stop().Done()
	s.isRunning = false
	s.logger.Info("Scheduler stopped")

	return nil
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the time of the next scheduled job run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || len(s.jobIDs) == 0 {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			if nextRun.IsZero() || entry.Next.Before(nextRun) {
				nextRun = entry.Next
			}
		}
	}

	return nextRun
}
