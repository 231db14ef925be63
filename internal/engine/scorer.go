package engine

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/yourusername/goal-edge/internal/config"
	"github.com/yourusername/goal-edge/internal/models"
)

// Confidence component weights; must sum to 1.0
const (
	weightModelStrength = 0.35
	weightValueEdge     = 0.25
	weightGameState     = 0.20
	weightOddsBand      = 0.10
	weightTimeWindow    = 0.10
)

// Hard cap on the Kelly fraction regardless of edge, 15% of bankroll
const maxKellyFraction = 0.15

// Stake interpolates linearly across this many confidence points above a
// tier's floor
const stakeInterpolationWindow = 15.0

// Stakes are rounded to this currency granularity
const stakeGranularity = 10

// Scorer turns a model probability and market odds into an edge, a Kelly
// stake fraction and a blended 0-100 confidence score.
type Scorer struct {
	cfg   *config.BettingConfig
	tiers []config.StakeTier
}

// NewScorer creates a value and confidence scorer
func NewScorer(cfg *config.BettingConfig) *Scorer {
	// Highest tier first so stake lookup matches the strictest floor
	tiers := make([]config.StakeTier, len(cfg.StakeTiers))
	copy(tiers, cfg.StakeTiers)
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].MinConfidence > tiers[j].MinConfidence })

	return &Scorer{cfg: cfg, tiers: tiers}
}

// Edge returns model probability minus market-implied probability.
func (s *Scorer) Edge(modelProb, odds float64) float64 {
	return modelProb - 1.0/odds
}

// Accepts reports whether a market is worth evaluating at all. Markets
// with no odds, degenerate odds, zero model probability or an edge below
// the configured floor are filtered, not errors.
func (s *Scorer) Accepts(modelProb float64, odds *float64) bool {
	if odds == nil || *odds <= 1.0 || modelProb <= 0 {
		return false
	}
	return s.Edge(modelProb, *odds) >= s.cfg.MinEdge
}

// KellyFraction computes the fractional Kelly stake: f* = (bp - q) / b
// scaled by the configured conservatism multiplier and hard-capped.
func (s *Scorer) KellyFraction(prob, odds float64) float64 {
	b := odds - 1
	if b <= 0 {
		return 0.0
	}

	kelly := (b*prob - (1 - prob)) / b
	kelly = math.Max(0, kelly)
	kelly *= s.cfg.KellyFraction

	return math.Min(kelly, maxKellyFraction)
}

// Confidence blends five weighted signals into a 0-100 score.
func (s *Scorer) Confidence(modelProb, edge float64, odds float64, snap *models.MatchSnapshot, market models.Market, probs *models.MarketProbabilities) float64 {
	// Model strength: 50% probability contributes nothing, 100% maxes out
	modelScore := math.Min(100, math.Max(0, (modelProb-0.45)/0.55)*100)

	edgeScore := math.Max(0, math.Min(1, (edge+0.05)/0.25)) * 100

	stateScore := s.gameStateScore(snap, market, probs)

	var oddsScore float64
	switch {
	case odds >= 1.3 && odds <= 5.0:
		oddsScore = 100
	case (odds >= 1.1 && odds < 1.3) || (odds > 5.0 && odds <= 8.0):
		oddsScore = 60
	default:
		oddsScore = 20
	}

	var timeScore float64
	minute := snap.Minute
	switch {
	case minute >= s.cfg.PrimeMinuteMin && minute <= s.cfg.PrimeMinuteMax:
		timeScore = 100
	case (minute >= s.cfg.FringeMinuteMin && minute < s.cfg.PrimeMinuteMin) ||
		(minute > s.cfg.PrimeMinuteMax && minute <= s.cfg.FringeMinuteMax):
		timeScore = 70
	default:
		timeScore = 30
	}

	total := modelScore*weightModelStrength +
		edgeScore*weightValueEdge +
		stateScore*weightGameState +
		oddsScore*weightOddsBand +
		timeScore*weightTimeWindow

	return math.Max(0, math.Min(100, total))
}

// gameStateScore rates how visibly the current scoreline and minute
// support the bet. Model probability alone can diverge from what the live
// state shows: three goals already in makes "over 2.5" trivially true, and
// it should rank differently than a genuinely uncertain live edge.
func (s *Scorer) gameStateScore(snap *models.MatchSnapshot, market models.Market, probs *models.MarketProbabilities) float64 {
	h := snap.HomeScore
	a := snap.AwayScore
	total := h + a

	switch market {
	case models.MarketOver25:
		switch {
		case total >= 2 && snap.Minute < 60:
			return 90
		case total >= 1:
			return 70
		case probs.HomeXG+probs.AwayXG > 1.2:
			return 60
		}
		return 40

	case models.MarketUnder25:
		switch {
		case total == 0 && snap.Minute > 55:
			return 88
		case total <= 1 && snap.Minute > 40:
			return 70
		case total >= 3:
			return 5
		}
		return 50

	case models.MarketHomeWin, models.MarketAwayWin, models.MarketDraw:
		diff := h - a
		switch {
		case market == models.MarketHomeWin && diff >= 1:
			return 80
		case market == models.MarketAwayWin && diff <= -1:
			return 80
		case market == models.MarketDraw && diff == 0:
			return 75
		case diff >= -1 && diff <= 1:
			return 55
		}
		return 30

	case models.MarketBTTS:
		switch {
		case h > 0 && a > 0:
			return 95
		case (h > 0 || a > 0) && snap.Minute < 65:
			return 65
		}
		return 40

	case models.MarketBTTSNo:
		if h == 0 && a == 0 && snap.Minute > 50 {
			return 85
		}
		return 40
	}

	return 50
}

// RecommendStake sizes a bet from the confidence-tiered stake table. The
// stake interpolates linearly within the matched tier, is capped at the
// configured maximum and rounded to the nearest currency granularity.
func (s *Scorer) RecommendStake(confidence float64) float64 {
	for _, tier := range s.tiers {
		if confidence < tier.MinConfidence {
			continue
		}
		frac := math.Min(1.0, (confidence-tier.MinConfidence)/stakeInterpolationWindow)
		stake := tier.MinStake + (tier.MaxStake-tier.MinStake)*frac
		return math.Min(roundToGranularity(stake), s.cfg.MaxStake)
	}

	// Cross-field validation guarantees a zero-confidence tier, so this
	// only triggers on an unvalidated config.
	return 0
}

func roundToGranularity(stake float64) float64 {
	rounded := decimal.NewFromFloat(stake).
		Div(decimal.NewFromInt(stakeGranularity)).
		Round(0).
		Mul(decimal.NewFromInt(stakeGranularity))
	f, _ := rounded.Float64()
	return f
}

// BuildReasoning assembles human-readable reasons and warnings for a
// surviving candidate.
func (s *Scorer) BuildReasoning(snap *models.MatchSnapshot, market models.Market, modelProb, impliedProb, edge, confidence float64, probs *models.MarketProbabilities) ([]string, []string) {
	var reasons, warnings []string

	pct := func(p float64) string { return fmt.Sprintf("%.1f%%", p*100) }

	reasons = append(reasons, fmt.Sprintf("Model win probability: %s vs bookmaker's %s", pct(modelProb), pct(impliedProb)))
	if edge > 0 {
		reasons = append(reasons, fmt.Sprintf("Positive value edge: +%s (we have the mathematical edge)", pct(edge)))
	}
	reasons = append(reasons, fmt.Sprintf("Remaining xG: %s %.2f | %s %.2f",
		snap.HomeTeam, probs.HomeXG, snap.AwayTeam, probs.AwayXG))

	total := snap.HomeScore + snap.AwayScore
	combinedXG := probs.HomeXG + probs.AwayXG

	switch market {
	case models.MarketOver25:
		if total >= 2 {
			reasons = append(reasons, fmt.Sprintf("Already %d goals scored - over 2.5 already achieved or very near", total))
		} else if combinedXG > 1.0 {
			reasons = append(reasons, fmt.Sprintf("High-scoring game expected: combined xG = %.2f", combinedXG))
		}
	case models.MarketUnder25:
		if total == 0 && snap.Minute > 50 {
			reasons = append(reasons, fmt.Sprintf("Goalless at minute %d - under 2.5 looks likely", snap.Minute))
		}
		if combinedXG < 0.8 {
			reasons = append(reasons, fmt.Sprintf("Low remaining xG (%.2f) supports under bet", combinedXG))
		}
	case models.MarketBTTS:
		if snap.HomeScore > 0 && snap.AwayScore > 0 {
			reasons = append(reasons, "Both teams have already scored")
		}
		reasons = append(reasons, fmt.Sprintf("Home xG %.2f, Away xG %.2f - both likely to score", probs.HomeXG, probs.AwayXG))
	}

	if snap.Minute > 75 {
		warnings = append(warnings, fmt.Sprintf("Only %d minutes remaining - odds can be volatile", fullTimeMinute-snap.Minute))
	}
	if edge < 0 {
		warnings = append(warnings, "Slight negative edge - bookmaker has marginal advantage")
	}
	if confidence < 60 {
		warnings = append(warnings, "Low confidence - consider skipping or minimum stake")
	}

	return reasons, warnings
}
