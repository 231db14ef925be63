package models

import (
	"time"

	"github.com/google/uuid"
)

// Confidence label tiers, highest wins
const (
	ConfidenceVeryHigh = "Very High"
	ConfidenceHigh     = "High"
	ConfidenceMedium   = "Medium"
	ConfidenceLow      = "Low"
)

// ConfidenceLabel maps a 0-100 confidence score to its display tier.
func ConfidenceLabel(confidence float64) string {
	switch {
	case confidence >= 85:
		return ConfidenceVeryHigh
	case confidence >= 70:
		return ConfidenceHigh
	case confidence >= 55:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// BetRecommendation is a single sized bet suggestion for one match market.
// It is a plain data record: immutable once returned by the engine and safe
// to serialize for display or persistence. Collaborators never mutate it
// back into the core.
type BetRecommendation struct {
	ID       uuid.UUID `db:"id" json:"id"`
	MatchID  string    `db:"match_id" json:"match_id"`
	HomeTeam string    `db:"home_team" json:"home_team"`
	AwayTeam string    `db:"away_team" json:"away_team"`

	Market      Market `db:"market" json:"market"`
	MarketLabel string `db:"market_label" json:"market_label"`

	ModelProbability   float64 `db:"model_probability" json:"model_probability" validate:"gte=0,lte=1"`
	ImpliedProbability float64 `db:"implied_probability" json:"implied_probability" validate:"gte=0,lte=1"`
	Edge               float64 `db:"edge" json:"edge"`
	Odds               float64 `db:"odds" json:"odds" validate:"gt=1"`

	Confidence      float64 `db:"confidence" json:"confidence" validate:"gte=0,lte=100"`
	ConfidenceLabel string  `db:"confidence_label" json:"confidence_label"`

	RecommendedStake float64 `db:"recommended_stake" json:"recommended_stake"`
	KellyFraction    float64 `db:"kelly_fraction" json:"kelly_fraction" validate:"gte=0,lte=0.15"`

	HomeXG         float64  `db:"home_xg" json:"home_xg"`
	AwayXG         float64  `db:"away_xg" json:"away_xg"`
	PredictedScore string   `db:"predicted_score" json:"predicted_score"`
	Reasons        []string `db:"reasons" json:"reasons"`
	Warnings       []string `db:"warnings" json:"warnings"`

	// Advisory only: balance checks, loss limits and duplicate detection
	// belong to the external betting executor.
	AutoBettable bool `db:"auto_bettable" json:"auto_bettable"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
