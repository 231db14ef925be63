package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/goal-edge/internal/config"
	"github.com/yourusername/goal-edge/internal/models"
)

// Engine is the per-match recommendation assembler. It owns its goal model
// and scorer and is constructed explicitly with its dependencies; there is
// no shared global state, so concurrent per-match analyses are read-only
// over the same rating snapshot.
type Engine struct {
	model   *GoalModel
	scorer  *Scorer
	betting *config.BettingConfig
	logger  *logrus.Logger
}

// New creates an analysis engine
func New(ratings RatingSource, modelCfg *config.ModelConfig, bettingCfg *config.BettingConfig, logger *logrus.Logger) *Engine {
	return &Engine{
		model:   NewGoalModel(ratings, modelCfg),
		scorer:  NewScorer(bettingCfg),
		betting: bettingCfg,
		logger:  logger,
	}
}

// Analyze evaluates every priced market on one live match and returns bet
// recommendations sorted by confidence (edge breaks ties), capped at the
// configured maximum. The returned list may be empty; Analyze never fails
// on market-level filtering.
func (e *Engine) Analyze(ctx context.Context, snap *models.MatchSnapshot) []*models.BetRecommendation {
	if err := ctx.Err(); err != nil {
		return nil
	}

	// In-play odds become unreliable near full time
	if snap.Minute > e.betting.LateGameCutoff {
		e.logger.WithFields(logrus.Fields{
			"home":   snap.HomeTeam,
			"away":   snap.AwayTeam,
			"minute": snap.Minute,
		}).Debug("Skipping match, too late for reliable in-play odds")
		return nil
	}

	probs := e.model.MarketProbabilities(snap)
	predictedHome, predictedAway := e.model.MostLikelyFinalScore(snap)
	predictedScore := fmt.Sprintf("%d-%d", predictedHome, predictedAway)

	var recommendations []*models.BetRecommendation

	for _, market := range models.AllMarkets() {
		odds := snap.Odds.Get(market)
		modelProb := probs.Probability(market)

		if !e.scorer.Accepts(modelProb, odds) {
			continue
		}

		rec := e.buildRecommendation(snap, market, modelProb, *odds, predictedScore, probs)
		if rec != nil {
			recommendations = append(recommendations, rec)
		}
	}

	sort.SliceStable(recommendations, func(i, j int) bool {
		if recommendations[i].Confidence != recommendations[j].Confidence {
			return recommendations[i].Confidence > recommendations[j].Confidence
		}
		return recommendations[i].Edge > recommendations[j].Edge
	})

	if len(recommendations) > e.betting.MaxBetsPerMatch {
		recommendations = recommendations[:e.betting.MaxBetsPerMatch]
	}

	return recommendations
}

func (e *Engine) buildRecommendation(snap *models.MatchSnapshot, market models.Market, modelProb, odds float64, predictedScore string, probs *models.MarketProbabilities) *models.BetRecommendation {
	impliedProb := 1.0 / odds
	edge := modelProb - impliedProb

	kelly := e.scorer.KellyFraction(modelProb, odds)
	confidence := e.scorer.Confidence(modelProb, edge, odds, snap, market, probs)

	if confidence < e.betting.MinDisplayConfidence {
		return nil
	}

	stake := e.scorer.RecommendStake(confidence)
	reasons, warnings := e.scorer.BuildReasoning(snap, market, modelProb, impliedProb, edge, confidence, probs)

	return &models.BetRecommendation{
		ID:                 uuid.New(),
		MatchID:            snap.MatchID,
		HomeTeam:           snap.HomeTeam,
		AwayTeam:           snap.AwayTeam,
		Market:             market,
		MarketLabel:        market.Label(),
		ModelProbability:   modelProb,
		ImpliedProbability: impliedProb,
		Edge:               edge,
		Odds:               odds,
		Confidence:         confidence,
		ConfidenceLabel:    models.ConfidenceLabel(confidence),
		RecommendedStake:   stake,
		KellyFraction:      kelly,
		HomeXG:             probs.HomeXG,
		AwayXG:             probs.AwayXG,
		PredictedScore:     predictedScore,
		Reasons:            reasons,
		Warnings:           warnings,
		AutoBettable:       confidence >= e.betting.AutoBetThreshold && edge > 0,
		CreatedAt:          time.Now().UTC(),
	}
}

// BatchAnalyze evaluates all matches concurrently. Matches share no
// mutable state, so each runs in its own goroutine; a panic or empty
// result in one match never affects its siblings. Matches that errored or
// produced no recommendations are omitted from the result map.
func (e *Engine) BatchAnalyze(ctx context.Context, snapshots []models.MatchSnapshot) map[string][]*models.BetRecommendation {
	type matchResult struct {
		matchID string
		recs    []*models.BetRecommendation
	}

	resultCh := make(chan matchResult, len(snapshots))
	var wg sync.WaitGroup

	for i := range snapshots {
		snap := snapshots[i]
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					e.logger.WithFields(logrus.Fields{
						"home":  snap.HomeTeam,
						"away":  snap.AwayTeam,
						"panic": r,
					}).Error("Match analysis failed")
				}
			}()

			recs := e.Analyze(ctx, &snap)
			if len(recs) > 0 {
				resultCh <- matchResult{matchID: matchKey(&snap), recs: recs}
			}
		}()
	}

	wg.Wait()
	close(resultCh)

	results := make(map[string][]*models.BetRecommendation)
	for res := range resultCh {
		results[res.matchID] = res.recs
	}

	return results
}

// matchKey prefers the feed-assigned match ID, falling back to the
// normalized fixture key for sources that do not assign one.
func matchKey(snap *models.MatchSnapshot) string {
	if snap.MatchID != "" {
		return snap.MatchID
	}
	return snap.Key()
}
