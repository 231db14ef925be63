package engine

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/goal-edge/internal/models"
)

func odds(v float64) *float64 {
	return &v
}

func newTestEngine(ratings map[string]models.TeamRating) *Engine {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return New(stubRatings{ratings: ratings}, testModelConfig(), testBettingConfig(), logger)
}

func TestAnalyzeSkipsLateMatches(t *testing.T) {
	eng := newTestEngine(nil)
	snap := &models.MatchSnapshot{
		HomeTeam: "A", AwayTeam: "B", Minute: 86,
		Odds: models.MarketOdds{HomeWin: odds(1.5), Draw: odds(4.0), AwayWin: odds(7.0)},
	}

	assert.Empty(t, eng.Analyze(context.Background(), snap))
}

func TestAnalyzeHomeLeadingAgainstWeakSide(t *testing.T) {
	eng := newTestEngine(map[string]models.TeamRating{
		"Outclassed Away": {Attack: 0.8, Defense: 1.3},
	})
	snap := &models.MatchSnapshot{
		MatchID:  "m1",
		HomeTeam: "Solid Home", AwayTeam: "Outclassed Away",
		HomeScore: 1, AwayScore: 0, Minute: 70,
		Odds: models.MarketOdds{HomeWin: odds(1.5)},
	}

	recs := eng.Analyze(context.Background(), snap)
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, models.MarketHomeWin, rec.Market)
	assert.Greater(t, rec.ModelProbability, 1.0/1.5)
	assert.Greater(t, rec.Edge, 0.0)
	assert.Greater(t, rec.Confidence, 80.0)
	assert.True(t, rec.AutoBettable)
	assert.NotEmpty(t, rec.PredictedScore)
	assert.NotEmpty(t, rec.Reasons)
	assert.Greater(t, rec.RecommendedStake, 0.0)
}

func TestAnalyzeGoallessLateFavorsUnder(t *testing.T) {
	eng := newTestEngine(nil)
	snap := &models.MatchSnapshot{
		HomeTeam: "A", AwayTeam: "B", Minute: 80,
		Odds: models.MarketOdds{Under25: odds(1.4), Over25: odds(3.0)},
	}

	probs := eng.model.MarketProbabilities(snap)
	assert.Greater(t, probs.Probability(models.MarketUnder25), 0.5)
	assert.Greater(t, probs.Probability(models.MarketUnder25), probs.Probability(models.MarketOver25))

	recs := eng.Analyze(context.Background(), snap)
	require.NotEmpty(t, recs)
	assert.Equal(t, models.MarketUnder25, recs[0].Market)
	assert.Greater(t, recs[0].Edge, 0.0)
}

func TestAnalyzeIgnoresUnpricedMarkets(t *testing.T) {
	eng := newTestEngine(nil)
	snap := &models.MatchSnapshot{
		HomeTeam: "A", AwayTeam: "B", HomeScore: 1, Minute: 50,
		Odds: models.MarketOdds{HomeWin: odds(1.8)},
	}

	recs := eng.Analyze(context.Background(), snap)
	for _, rec := range recs {
		assert.Equal(t, models.MarketHomeWin, rec.Market)
	}
}

func TestAnalyzeRejectsEdgeBelowFloor(t *testing.T) {
	eng := newTestEngine(nil)

	// Roughly even match priced at 1.1 carries a heavily negative edge
	snap := &models.MatchSnapshot{
		HomeTeam: "A", AwayTeam: "B", Minute: 30,
		Odds: models.MarketOdds{HomeWin: odds(1.1)},
	}

	assert.Empty(t, eng.Analyze(context.Background(), snap))
}

func TestAnalyzeCapsAndSortsOutput(t *testing.T) {
	cfg := testBettingConfig()
	cfg.MinDisplayConfidence = 0
	cfg.MinEdge = -1
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	eng := New(stubRatings{}, testModelConfig(), cfg, logger)

	generous := func() *float64 { return odds(2.5) }
	snap := &models.MatchSnapshot{
		HomeTeam: "A", AwayTeam: "B", HomeScore: 1, AwayScore: 1, Minute: 40,
		Odds: models.MarketOdds{
			HomeWin: generous(), Draw: generous(), AwayWin: generous(),
			Over25: generous(), Under25: generous(),
			Over35: generous(), Under35: generous(),
			BTTSYes: generous(), BTTSNo: generous(),
		},
	}

	recs := eng.Analyze(context.Background(), snap)
	require.Len(t, recs, cfg.MaxBetsPerMatch)

	for i := 1; i < len(recs); i++ {
		if recs[i-1].Confidence == recs[i].Confidence {
			assert.GreaterOrEqual(t, recs[i-1].Edge, recs[i].Edge)
		} else {
			assert.Greater(t, recs[i-1].Confidence, recs[i].Confidence)
		}
	}
}

func TestAnalyzeNeverSurfacesDeepNegativeEdge(t *testing.T) {
	cfg := testBettingConfig()
	cfg.MinDisplayConfidence = 0
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	eng := New(stubRatings{}, testModelConfig(), cfg, logger)

	snap := &models.MatchSnapshot{
		HomeTeam: "A", AwayTeam: "B", Minute: 40,
		Odds: models.MarketOdds{
			HomeWin: odds(1.05), Draw: odds(1.05), AwayWin: odds(1.05),
			Over25: odds(1.05), Under25: odds(1.05),
		},
	}

	for _, rec := range eng.Analyze(context.Background(), snap) {
		assert.GreaterOrEqual(t, rec.Edge, cfg.MinEdge)
	}
}

func TestBatchAnalyzeOmitsEmptyMatches(t *testing.T) {
	eng := newTestEngine(nil)

	snapshots := []models.MatchSnapshot{
		{
			MatchID:  "live",
			HomeTeam: "A", AwayTeam: "B", HomeScore: 1, Minute: 50,
			Odds: models.MarketOdds{HomeWin: odds(1.8)},
		},
		{
			MatchID:  "too-late",
			HomeTeam: "C", AwayTeam: "D", Minute: 90,
			Odds: models.MarketOdds{HomeWin: odds(1.2)},
		},
		{
			MatchID:  "no-odds",
			HomeTeam: "E", AwayTeam: "F", Minute: 30,
		},
	}

	results := eng.BatchAnalyze(context.Background(), snapshots)

	assert.Contains(t, results, "live")
	assert.NotContains(t, results, "too-late")
	assert.NotContains(t, results, "no-odds")
}

func TestBatchAnalyzeMatchesSerialResults(t *testing.T) {
	eng := newTestEngine(nil)

	var snapshots []models.MatchSnapshot
	for i := 0; i < 20; i++ {
		snapshots = append(snapshots, models.MatchSnapshot{
			MatchID:  string(rune('a' + i)),
			HomeTeam: "Home", AwayTeam: "Away",
			HomeScore: i % 3, Minute: 20 + i,
			Odds: models.MarketOdds{HomeWin: odds(1.9), Under25: odds(1.7)},
		})
	}

	batch := eng.BatchAnalyze(context.Background(), snapshots)

	for i := range snapshots {
		serial := eng.Analyze(context.Background(), &snapshots[i])
		got := batch[snapshots[i].MatchID]
		require.Len(t, got, len(serial))
		for j := range serial {
			assert.Equal(t, serial[j].Market, got[j].Market)
			assert.Equal(t, serial[j].Confidence, got[j].Confidence)
			assert.Equal(t, serial[j].Edge, got[j].Edge)
		}
	}
}

func TestBatchAnalyzeFallsBackToFixtureKey(t *testing.T) {
	eng := newTestEngine(nil)

	snapshots := []models.MatchSnapshot{{
		HomeTeam: "Arsenal FC", AwayTeam: "Chelsea",
		HomeScore: 1, Minute: 50,
		Odds: models.MarketOdds{HomeWin: odds(1.8)},
	}}

	results := eng.BatchAnalyze(context.Background(), snapshots)
	assert.Contains(t, results, "arsenal__vs__chelsea")
}
