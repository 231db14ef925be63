// Package logger provides audit logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/goal-edge/internal/models"
)

// AuditLogger provides a dedicated audit trail for every recommendation
// the engine surfaces, whether or not it is persisted.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogRecommendation records a surfaced bet recommendation.
func (al *AuditLogger) LogRecommendation(rec *models.BetRecommendation) {
	al.WithFields(logrus.Fields{
		"recommendation_id": rec.ID,
		"match_id":          rec.MatchID,
		"fixture":           rec.HomeTeam + " vs " + rec.AwayTeam,
		"market":            rec.Market,
		"model_probability": rec.ModelProbability,
		"odds":              rec.Odds,
		"edge":              rec.Edge,
		"confidence":        rec.Confidence,
		"confidence_label":  rec.ConfidenceLabel,
		"stake":             rec.RecommendedStake,
		"kelly_fraction":    rec.KellyFraction,
		"auto_bettable":     rec.AutoBettable,
	}).Info("Bet recommendation surfaced")
}

// LogCycleSummary records the outcome of one analysis cycle.
func (al *AuditLogger) LogCycleSummary(matchesAnalyzed, matchesWithBets, recommendations int, duration time.Duration) {
	al.WithFields(logrus.Fields{
		"matches_analyzed":  matchesAnalyzed,
		"matches_with_bets": matchesWithBets,
		"recommendations":   recommendations,
		"duration_ms":       duration.Milliseconds(),
	}).Info("Analysis cycle completed")
}

// LogSnapshotRejected records a snapshot dropped before analysis.
func (al *AuditLogger) LogSnapshotRejected(matchKey, reason string) {
	al.WithFields(logrus.Fields{
		"match_key": matchKey,
		"reason":    reason,
	}).Warn("Snapshot rejected")
}

// LogRatingsRefresh records a completed ratings refresh.
func (al *AuditLogger) LogRatingsRefresh(teamsRated int, duration time.Duration) {
	al.WithFields(logrus.Fields{
		"teams_rated": teamsRated,
		"duration_ms": duration.Milliseconds(),
	}).Info("Team ratings refresh recorded")
}
