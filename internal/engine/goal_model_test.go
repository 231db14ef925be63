package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/goal-edge/internal/config"
	"github.com/yourusername/goal-edge/internal/models"
)

type stubRatings struct {
	ratings map[string]models.TeamRating
}

func (s stubRatings) Rating(team string) models.TeamRating {
	if r, ok := s.ratings[team]; ok {
		return r
	}
	return models.NeutralRating()
}

func testModelConfig() *config.ModelConfig {
	return &config.ModelConfig{LeagueHomeAvg: 1.55, LeagueAwayAvg: 1.15, MaxGoals: 7}
}

func newTestModel(ratings map[string]models.TeamRating) *GoalModel {
	return NewGoalModel(stubRatings{ratings: ratings}, testModelConfig())
}

func matrixSum(matrix [][]float64) float64 {
	sum := 0.0
	for i := range matrix {
		for j := range matrix[i] {
			sum += matrix[i][j]
		}
	}
	return sum
}

func TestExpectedGoalsFormula(t *testing.T) {
	model := newTestModel(map[string]models.TeamRating{
		"Strong Home": {Attack: 1.2, Defense: 0.9},
		"Weak Away":   {Attack: 0.8, Defense: 1.3},
	})

	homeXG, awayXG := model.ExpectedGoals("Strong Home", "Weak Away")

	assert.InDelta(t, 1.55*1.2*1.3, homeXG, 1e-12)
	assert.InDelta(t, 1.15*0.8*0.9, awayXG, 1e-12)
}

func TestExpectedGoalsDefaultsForUnknownTeams(t *testing.T) {
	model := newTestModel(nil)

	homeXG, awayXG := model.ExpectedGoals("Nowhere United", "Nowhere City")

	assert.InDelta(t, 1.55, homeXG, 1e-12)
	assert.InDelta(t, 1.15, awayXG, 1e-12)
}

func TestAdjustForLiveTimeScaling(t *testing.T) {
	model := newTestModel(nil)

	home, away := model.AdjustForLive(1.8, 1.2, 0, 0, 45)

	assert.InDelta(t, 0.9, home, 1e-12)
	assert.InDelta(t, 0.6, away, 1e-12)
}

func TestAdjustForLiveBoostsTrailingSideOnly(t *testing.T) {
	model := newTestModel(nil)

	// Home trailing by one at half time
	home, away := model.AdjustForLive(1.8, 1.2, 0, 1, 45)
	assert.InDelta(t, 0.9*1.15, home, 1e-12)
	assert.InDelta(t, 0.6, away, 1e-12)

	// Away trailing by two
	home, away = model.AdjustForLive(1.8, 1.2, 2, 0, 45)
	assert.InDelta(t, 0.9, home, 1e-12)
	assert.InDelta(t, 0.6*1.30, away, 1e-12)
}

func TestAdjustForLiveUrgencyBoostIsCapped(t *testing.T) {
	model := newTestModel(nil)

	// Four goals down still caps at +30%
	home, _ := model.AdjustForLive(1.8, 1.2, 0, 4, 45)
	assert.InDelta(t, 0.9*1.30, home, 1e-12)
}

func TestAdjustForLiveFatigueAfter75(t *testing.T) {
	model := newTestModel(nil)

	home, away := model.AdjustForLive(1.8, 1.2, 0, 0, 80)

	scale := float64(10) / 90
	fatigue := 1 - (float64(5) / 90 * 0.1)
	assert.InDelta(t, 1.8*scale*fatigue, home, 1e-12)
	assert.InDelta(t, 1.2*scale*fatigue, away, 1e-12)
}

func TestAdjustForLiveFullTime(t *testing.T) {
	model := newTestModel(nil)

	for _, minute := range []int{90, 92, 100} {
		home, away := model.AdjustForLive(1.8, 1.2, 1, 0, minute)
		assert.Zero(t, home)
		assert.Zero(t, away)
	}
}

func TestScoreMatrixSumsNearOne(t *testing.T) {
	model := newTestModel(nil)

	sum := matrixSum(model.ScoreMatrix(1.5, 1.2))
	assert.LessOrEqual(t, sum, 1.0+1e-9)
	assert.Greater(t, sum, 0.999)
}

func TestScoreMatrixTruncationAtHighXG(t *testing.T) {
	model := newTestModel(nil)

	// Truncation error at the cap is accepted, not renormalized
	sum := matrixSum(model.ScoreMatrix(5.0, 5.0))
	assert.LessOrEqual(t, sum, 1.0)
	assert.Greater(t, sum, 0.7)
}

func snapshot(home, away string, homeScore, awayScore, minute int) *models.MatchSnapshot {
	return &models.MatchSnapshot{
		HomeTeam: home, AwayTeam: away,
		HomeScore: homeScore, AwayScore: awayScore, Minute: minute,
	}
}

func TestMarketProbabilityComplements(t *testing.T) {
	model := newTestModel(nil)

	for _, snap := range []*models.MatchSnapshot{
		snapshot("A", "B", 0, 0, 0),
		snapshot("A", "B", 1, 1, 30),
		snapshot("A", "B", 2, 0, 60),
	} {
		probs := model.MarketProbabilities(snap)
		p := probs.Probabilities

		assert.Equal(t, 1-p[models.MarketOver25], p[models.MarketUnder25])
		assert.Equal(t, 1-p[models.MarketOver35], p[models.MarketUnder35])
		assert.Equal(t, 1-p[models.MarketBTTS], p[models.MarketBTTSNo])
	}
}

func TestOutcomeProbabilitiesSumToOne(t *testing.T) {
	model := newTestModel(nil)

	probs := model.MarketProbabilities(snapshot("A", "B", 0, 0, 20))
	p := probs.Probabilities

	sum := p[models.MarketHomeWin] + p[models.MarketDraw] + p[models.MarketAwayWin]
	assert.InDelta(t, 1.0, sum, 1e-3)
}

func TestHomeWinMonotonicInScoreDifference(t *testing.T) {
	model := newTestModel(nil)

	previousHome := 0.0
	previousAway := 1.0
	for diff := 0; diff <= 3; diff++ {
		probs := model.MarketProbabilities(snapshot("A", "B", diff, 0, 60))
		homeWin := probs.Probability(models.MarketHomeWin)
		awayWin := probs.Probability(models.MarketAwayWin)

		assert.Greater(t, homeWin, previousHome, "lead of %d", diff)
		assert.Less(t, awayWin, previousAway, "lead of %d", diff)
		previousHome = homeWin
		previousAway = awayWin
	}
}

func TestNearCertainBranchAtFullTime(t *testing.T) {
	model := newTestModel(nil)

	probs := model.MarketProbabilities(snapshot("A", "B", 2, 1, 92))
	p := probs.Probabilities

	assert.Equal(t, 0.97, p[models.MarketHomeWin])
	assert.Equal(t, 0.01, p[models.MarketDraw])
	assert.Equal(t, 0.01, p[models.MarketAwayWin])
	// 3 goals in: over 2.5 certain, over 3.5 not
	assert.Equal(t, 0.99, p[models.MarketOver25])
	assert.Equal(t, 0.01, p[models.MarketUnder25])
	assert.Equal(t, 0.01, p[models.MarketOver35])
	assert.Equal(t, 0.99, p[models.MarketUnder35])
	assert.Equal(t, 0.99, p[models.MarketBTTS])
	assert.Equal(t, 0.01, p[models.MarketBTTSNo])
}

func TestNearCertainBranchGoallessDraw(t *testing.T) {
	model := newTestModel(nil)

	probs := model.MarketProbabilities(snapshot("A", "B", 0, 0, 90))
	p := probs.Probabilities

	assert.Equal(t, 0.97, p[models.MarketDraw])
	assert.Equal(t, 0.01, p[models.MarketHomeWin])
	assert.Equal(t, 0.99, p[models.MarketUnder25])
	assert.Equal(t, 0.99, p[models.MarketBTTSNo])
}

func TestMarketProbabilitiesIdempotent(t *testing.T) {
	model := newTestModel(map[string]models.TeamRating{
		"Arsenal": {Attack: 1.3, Defense: 0.85},
	})
	snap := snapshot("Arsenal", "Chelsea", 1, 0, 55)

	first := model.MarketProbabilities(snap)
	second := model.MarketProbabilities(snap)

	require.Equal(t, first, second)
}

func TestMostLikelyFinalScorePreMatch(t *testing.T) {
	model := newTestModel(nil)

	home, away := model.MostLikelyFinalScore(snapshot("A", "B", 0, 0, 0))

	// League-average sides most often add one goal each
	assert.Equal(t, 1, home)
	assert.Equal(t, 1, away)
}

func TestMostLikelyFinalScoreFinishedMatch(t *testing.T) {
	model := newTestModel(nil)

	// No time left: the floored distribution keeps the current score
	home, away := model.MostLikelyFinalScore(snapshot("A", "B", 2, 0, 90))

	assert.Equal(t, 2, home)
	assert.Equal(t, 0, away)
}

func TestPoissonPMF(t *testing.T) {
	assert.InDelta(t, 0.36788, poissonPMF(0, 1.0), 1e-4)
	assert.InDelta(t, 0.36788, poissonPMF(1, 1.0), 1e-4)
	assert.InDelta(t, 0.18394, poissonPMF(2, 1.0), 1e-4)
	// Zero rate puts all mass at zero events
	assert.Equal(t, 1.0, poissonPMF(0, 0.0))
}
