// Package engine implements the probabilistic prediction and staking core:
// a Poisson goal model with live-state adjustments, value detection against
// market odds, Kelly stake sizing and confidence scoring.
package engine

import (
	"math"

	"github.com/yourusername/goal-edge/internal/config"
	"github.com/yourusername/goal-edge/internal/models"
)

const (
	fullTimeMinute = 90
	fatigueOnset   = 75

	// Below this remaining xG on both sides the match is treated as over
	// and scored from the current scoreline instead of a degenerate
	// Poisson distribution.
	effectivelyOverXG = 0.01
)

// RatingSource supplies team strength ratings to the goal model. Lookups
// must be safe for concurrent use; the model never mutates ratings.
type RatingSource interface {
	Rating(teamName string) models.TeamRating
}

// GoalModel predicts match outcomes from expected goals under independent
// Poisson assumptions for home and away scoring.
type GoalModel struct {
	ratings       RatingSource
	leagueHomeAvg float64
	leagueAwayAvg float64
	maxGoals      int
}

// NewGoalModel creates a goal model backed by the given rating source
func NewGoalModel(ratings RatingSource, cfg *config.ModelConfig) *GoalModel {
	return &GoalModel{
		ratings:       ratings,
		leagueHomeAvg: cfg.LeagueHomeAvg,
		leagueAwayAvg: cfg.LeagueAwayAvg,
		maxGoals:      cfg.MaxGoals,
	}
}

// ExpectedGoals returns pre-match expected goals for both sides:
//
//	home_xg = league_home_avg * home.attack * away.defense
//	away_xg = league_away_avg * away.attack * home.defense
func (m *GoalModel) ExpectedGoals(homeTeam, awayTeam string) (float64, float64) {
	home := m.ratings.Rating(homeTeam)
	away := m.ratings.Rating(awayTeam)

	homeXG := m.leagueHomeAvg * home.Attack * away.Defense
	awayXG := m.leagueAwayAvg * away.Attack * home.Defense

	return homeXG, awayXG
}

// AdjustForLive scales pre-match xG to goals expected from the current
// minute to full time. Applied multiplicatively in order: remaining-time
// fraction, urgency boost for the trailing side, late-game fatigue.
func (m *GoalModel) AdjustForLive(homeXG, awayXG float64, homeScore, awayScore, minute int) (float64, float64) {
	if minute >= fullTimeMinute {
		return 0.0, 0.0
	}

	remainingFraction := float64(fullTimeMinute-minute) / fullTimeMinute
	homeRemaining := homeXG * remainingFraction
	awayRemaining := awayXG * remainingFraction

	// Trailing side attacks more; never boost the leader
	goalDiff := homeScore - awayScore
	if goalDiff < 0 {
		homeRemaining *= 1 + math.Min(0.3, float64(-goalDiff)*0.15)
	} else if goalDiff > 0 {
		awayRemaining *= 1 + math.Min(0.3, float64(goalDiff)*0.15)
	}

	if minute > fatigueOnset {
		fatigue := 1 - (float64(minute-fatigueOnset) / fullTimeMinute * 0.1)
		homeRemaining *= fatigue
		awayRemaining *= fatigue
	}

	return homeRemaining, awayRemaining
}

// ScoreMatrix builds the joint distribution over goals still to be added:
// cell [i][j] holds P(home adds i) * P(away adds j). Cells sum to slightly
// under 1.0 due to truncation at maxGoals; that error is accepted and not
// renormalized.
func (m *GoalModel) ScoreMatrix(homeXG, awayXG float64) [][]float64 {
	matrix := make([][]float64, m.maxGoals+1)
	for i := 0; i <= m.maxGoals; i++ {
		matrix[i] = make([]float64, m.maxGoals+1)
		pHome := poissonPMF(i, homeXG)
		for j := 0; j <= m.maxGoals; j++ {
			matrix[i][j] = pHome * poissonPMF(j, awayXG)
		}
	}
	return matrix
}

// MarketProbabilities derives all bet-relevant probabilities for the match
// state in the snapshot. Pure: identical inputs produce identical output.
func (m *GoalModel) MarketProbabilities(snap *models.MatchSnapshot) *models.MarketProbabilities {
	baseHomeXG, baseAwayXG := m.ExpectedGoals(snap.HomeTeam, snap.AwayTeam)

	homeXG, awayXG := baseHomeXG, baseAwayXG
	if snap.Minute > 0 {
		homeXG, awayXG = m.AdjustForLive(baseHomeXG, baseAwayXG, snap.HomeScore, snap.AwayScore, snap.Minute)
	}

	if homeXG < effectivelyOverXG && awayXG < effectivelyOverXG {
		return m.finalProbabilities(snap.HomeScore, snap.AwayScore)
	}

	matrix := m.ScoreMatrix(homeXG, awayXG)

	var homeWin, draw, awayWin float64
	var totalGE3, totalGE4, btts float64

	for i := range matrix {
		for j := range matrix[i] {
			p := matrix[i][j]
			hFinal := snap.HomeScore + i
			aFinal := snap.AwayScore + j
			total := hFinal + aFinal

			switch {
			case hFinal > aFinal:
				homeWin += p
			case hFinal == aFinal:
				draw += p
			default:
				awayWin += p
			}

			if total >= 3 {
				totalGE3 += p
			}
			if total >= 4 {
				totalGE4 += p
			}
			if hFinal > 0 && aFinal > 0 {
				btts += p
			}
		}
	}

	return &models.MarketProbabilities{
		Probabilities: map[models.Market]float64{
			models.MarketHomeWin: homeWin,
			models.MarketDraw:    draw,
			models.MarketAwayWin: awayWin,
			models.MarketOver25:  totalGE3,
			models.MarketUnder25: 1 - totalGE3,
			models.MarketOver35:  totalGE4,
			models.MarketUnder35: 1 - totalGE4,
			models.MarketBTTS:    btts,
			models.MarketBTTSNo:  1 - btts,
		},
		HomeXG:     homeXG,
		AwayXG:     awayXG,
		BaseHomeXG: baseHomeXG,
		BaseAwayXG: baseAwayXG,
	}
}

// finalProbabilities returns decisive near-certain probabilities once no
// meaningful playing time remains, keyed off the current score.
func (m *GoalModel) finalProbabilities(homeScore, awayScore int) *models.MarketProbabilities {
	total := homeScore + awayScore

	pick := func(condition bool, yes float64) float64 {
		if condition {
			return yes
		}
		return 0.01
	}

	return &models.MarketProbabilities{
		Probabilities: map[models.Market]float64{
			models.MarketHomeWin: pick(homeScore > awayScore, 0.97),
			models.MarketDraw:    pick(homeScore == awayScore, 0.97),
			models.MarketAwayWin: pick(awayScore > homeScore, 0.97),
			models.MarketOver25:  pick(total > 2, 0.99),
			models.MarketUnder25: pick(total <= 2, 0.99),
			models.MarketOver35:  pick(total > 3, 0.99),
			models.MarketUnder35: pick(total <= 3, 0.99),
			models.MarketBTTS:    pick(homeScore > 0 && awayScore > 0, 0.99),
			models.MarketBTTSNo:  pick(homeScore == 0 || awayScore == 0, 0.99),
		},
	}
}

// MostLikelyFinalScore returns the single most probable final score. Ties
// are broken by iteration order; the first maximum wins.
func (m *GoalModel) MostLikelyFinalScore(snap *models.MatchSnapshot) (int, int) {
	baseHomeXG, baseAwayXG := m.ExpectedGoals(snap.HomeTeam, snap.AwayTeam)
	homeXG, awayXG := m.AdjustForLive(baseHomeXG, baseAwayXG, snap.HomeScore, snap.AwayScore, snap.Minute)

	// Floor xG so a finished match does not collapse to an
	// all-mass-at-zero distribution
	homeXG = math.Max(homeXG, effectivelyOverXG)
	awayXG = math.Max(awayXG, effectivelyOverXG)

	bestP := 0.0
	bestHome, bestAway := snap.HomeScore, snap.AwayScore

	for addHome := 0; addHome < 6; addHome++ {
		pHome := poissonPMF(addHome, homeXG)
		for addAway := 0; addAway < 6; addAway++ {
			p := pHome * poissonPMF(addAway, awayXG)
			if p > bestP {
				bestP = p
				bestHome = snap.HomeScore + addHome
				bestAway = snap.AwayScore + addAway
			}
		}
	}

	return bestHome, bestAway
}

// poissonPMF computes P(k events) for a Poisson distribution with mean
// lambda: e^(-lambda) * lambda^k / k!
func poissonPMF(k int, lambda float64) float64 {
	return math.Exp(-lambda) * math.Pow(lambda, float64(k)) / factorial(k)
}

func factorial(n int) float64 {
	if n <= 1 {
		return 1
	}
	f := 1.0
	for i := 2; i <= n; i++ {
		f *= float64(i)
	}
	return f
}
