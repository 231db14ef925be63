package models

// Market identifies a single betting market on a football match.
type Market string

// Supported markets
const (
	MarketHomeWin Market = "home_win"
	MarketDraw    Market = "draw"
	MarketAwayWin Market = "away_win"
	MarketOver25  Market = "over_25"
	MarketUnder25 Market = "under_25"
	MarketOver35  Market = "over_35"
	MarketUnder35 Market = "under_35"
	MarketBTTS    Market = "btts"
	MarketBTTSNo  Market = "btts_no"
)

var marketLabels = map[Market]string{
	MarketHomeWin: "Home Win",
	MarketDraw:    "Draw",
	MarketAwayWin: "Away Win",
	MarketOver25:  "Over 2.5 Goals",
	MarketUnder25: "Under 2.5 Goals",
	MarketOver35:  "Over 3.5 Goals",
	MarketUnder35: "Under 3.5 Goals",
	MarketBTTS:    "Both Teams to Score",
	MarketBTTSNo:  "Both Teams NOT to Score",
}

// Label returns the human-readable name for the market.
func (m Market) Label() string {
	if label, ok := marketLabels[m]; ok {
		return label
	}
	return string(m)
}

// AllMarkets returns every supported market in evaluation order.
func AllMarkets() []Market {
	return []Market{
		MarketHomeWin, MarketDraw, MarketAwayWin,
		MarketOver25, MarketUnder25,
		MarketOver35, MarketUnder35,
		MarketBTTS, MarketBTTSNo,
	}
}

// MarketProbabilities holds the goal model output for one match: a
// probability per market plus the xG values used to derive them.
type MarketProbabilities struct {
	Probabilities map[Market]float64 `json:"probabilities"`

	// Remaining xG after live adjustment, for display
	HomeXG float64 `json:"home_xg"`
	AwayXG float64 `json:"away_xg"`

	// Pre-adjustment xG
	BaseHomeXG float64 `json:"base_home_xg"`
	BaseAwayXG float64 `json:"base_away_xg"`
}

// Probability returns the model probability for a market, 0 if absent.
func (p *MarketProbabilities) Probability(m Market) float64 {
	return p.Probabilities[m]
}
