package models

import (
	"fmt"
	"strings"
)

// MarketOdds holds the decimal odds a site offers per market. A nil entry
// means the market is not priced; it is never evaluated.
type MarketOdds struct {
	HomeWin *float64 `json:"home_win,omitempty"`
	Draw    *float64 `json:"draw,omitempty"`
	AwayWin *float64 `json:"away_win,omitempty"`
	Over25  *float64 `json:"over_25,omitempty"`
	Under25 *float64 `json:"under_25,omitempty"`
	Over35  *float64 `json:"over_35,omitempty"`
	Under35 *float64 `json:"under_35,omitempty"`
	BTTSYes *float64 `json:"btts_yes,omitempty"`
	BTTSNo  *float64 `json:"btts_no,omitempty"`
}

// Get returns the odds pointer for the given market.
func (o *MarketOdds) Get(m Market) *float64 {
	switch m {
	case MarketHomeWin:
		return o.HomeWin
	case MarketDraw:
		return o.Draw
	case MarketAwayWin:
		return o.AwayWin
	case MarketOver25:
		return o.Over25
	case MarketUnder25:
		return o.Under25
	case MarketOver35:
		return o.Over35
	case MarketUnder35:
		return o.Under35
	case MarketBTTS:
		return o.BTTSYes
	case MarketBTTSNo:
		return o.BTTSNo
	}
	return nil
}

func (o *MarketOdds) set(m Market, v *float64) {
	switch m {
	case MarketHomeWin:
		o.HomeWin = v
	case MarketDraw:
		o.Draw = v
	case MarketAwayWin:
		o.AwayWin = v
	case MarketOver25:
		o.Over25 = v
	case MarketUnder25:
		o.Under25 = v
	case MarketOver35:
		o.Over35 = v
	case MarketUnder35:
		o.Under35 = v
	case MarketBTTS:
		o.BTTSYes = v
	case MarketBTTSNo:
		o.BTTSNo = v
	}
}

// PricedCount returns the number of markets with odds present.
func (o *MarketOdds) PricedCount() int {
	count := 0
	for _, m := range AllMarkets() {
		if o.Get(m) != nil {
			count++
		}
	}
	return count
}

// MatchSnapshot is a normalized view of one live match as supplied by the
// external scraping layer. It is immutable per analysis pass; the engine
// never writes to it.
type MatchSnapshot struct {
	MatchID   string     `json:"match_id"`
	HomeTeam  string     `json:"home_team" validate:"required"`
	AwayTeam  string     `json:"away_team" validate:"required"`
	HomeScore int        `json:"home_score" validate:"gte=0"`
	AwayScore int        `json:"away_score" validate:"gte=0"`
	Minute    int        `json:"minute" validate:"gte=0"`
	League    string     `json:"league,omitempty"`
	Source    string     `json:"source,omitempty"`
	Odds      MarketOdds `json:"odds"`

	// Other sources also offering this match, filled in by merging
	AlsoOn []string `json:"also_on,omitempty"`
}

// Key returns a normalized deduplication key so the same fixture scraped
// from two sites collapses to one entry.
func (s *MatchSnapshot) Key() string {
	return fmt.Sprintf("%s__vs__%s", normalizeTeamName(s.HomeTeam), normalizeTeamName(s.AwayTeam))
}

func normalizeTeamName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	// Dots first, so "F.C." collapses to "fc" before the suffix strip
	n = strings.ReplaceAll(n, ".", "")
	n = strings.ReplaceAll(n, " fc", "")
	n = strings.ReplaceAll(n, "fc ", "")
	return strings.TrimSpace(n)
}

// MergeSnapshots combines two snapshots of the same fixture from different
// odds sources into a new snapshot. The snapshot with more priced markets
// provides score, minute and metadata; missing odds are filled from the
// other source, and where both sources price a market the higher odds win
// (better value for the bettor). Neither input is mutated.
func MergeSnapshots(a, b MatchSnapshot) MatchSnapshot {
	primary, secondary := a, b
	if b.Odds.PricedCount() > a.Odds.PricedCount() {
		primary, secondary = b, a
	}

	merged := primary
	merged.Odds = MarketOdds{}
	for _, m := range AllMarkets() {
		p := primary.Odds.Get(m)
		s := secondary.Odds.Get(m)
		switch {
		case p != nil && s != nil:
			best := *p
			if *s > best {
				best = *s
			}
			merged.Odds.set(m, &best)
		case p != nil:
			v := *p
			merged.Odds.set(m, &v)
		case s != nil:
			v := *s
			merged.Odds.set(m, &v)
		}
	}

	merged.AlsoOn = append(append([]string{}, primary.AlsoOn...), secondary.Source)
	return merged
}
