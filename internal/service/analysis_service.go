// Package service orchestrates the periodic analysis cycle: pull the
// current live snapshots, run the engine over them and fan the surfaced
// recommendations out to the audit log and optional persistence.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/goal-edge/internal/config"
	"github.com/yourusername/goal-edge/internal/engine"
	"github.com/yourusername/goal-edge/internal/logger"
	"github.com/yourusername/goal-edge/internal/metrics"
	"github.com/yourusername/goal-edge/internal/models"
	"github.com/yourusername/goal-edge/internal/repository"
)

// SnapshotSource supplies the current set of live match snapshots
type SnapshotSource interface {
	Snapshots() []models.MatchSnapshot
}

// AnalysisService drives one analysis cycle end to end
type AnalysisService struct {
	cfg    *config.Config
	engine *engine.Engine
	source SnapshotSource
	repo   repository.RecommendationRepository
	audit  *logger.AuditLogger
	logger *logrus.Logger
}

// NewAnalysisService creates an analysis service. repo may be nil when
// persistence is disabled.
func NewAnalysisService(
	cfg *config.Config,
	eng *engine.Engine,
	source SnapshotSource,
	repo repository.RecommendationRepository,
	audit *logger.AuditLogger,
	log *logrus.Logger,
) *AnalysisService {
	return &AnalysisService{
		cfg:    cfg,
		engine: eng,
		source: source,
		repo:   repo,
		audit:  audit,
		logger: log,
	}
}

// RunCycle analyzes every live match once. It always returns whatever
// recommendations were produced; a persistence failure is reported as an
// error but does not discard the cycle's output.
func (s *AnalysisService) RunCycle(ctx context.Context) (map[string][]*models.BetRecommendation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.CycleTimeout())
	defer cancel()

	started := time.Now()
	snapshots := s.source.Snapshots()
	if len(snapshots) == 0 {
		s.logger.Debug("No live matches to analyze")
		return nil, nil
	}

	results := s.engine.BatchAnalyze(ctx, snapshots)

	total := 0
	var flattened []*models.BetRecommendation
	for _, recs := range results {
		for _, rec := range recs {
			s.audit.LogRecommendation(rec)
			metrics.RecordRecommendation(string(rec.Market), rec.ConfidenceLabel, rec.AutoBettable)
			flattened = append(flattened, rec)
		}
		total += len(recs)
	}

	for range snapshots {
		metrics.RecordMatchAnalyzed()
	}

	duration := time.Since(started)
	metrics.RecordAnalysisCycle(duration.Seconds(), total)
	s.audit.LogCycleSummary(len(snapshots), len(results), total, duration)

	if err := s.persist(ctx, flattened); err != nil {
		return results, err
	}

	return results, nil
}

func (s *AnalysisService) persist(ctx context.Context, recs []*models.BetRecommendation) error {
	if s.repo == nil || !s.cfg.Features.PersistRecommendations || len(recs) == 0 {
		return nil
	}

	if err := s.repo.CreateBatch(ctx, recs); err != nil {
		s.logger.WithError(err).Error("Failed to persist recommendations")
		return fmt.Errorf("failed to persist cycle output: %w", err)
	}

	return nil
}
