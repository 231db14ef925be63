package ratings

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/yourusername/goal-edge/internal/config"
	"github.com/yourusername/goal-edge/internal/models"
)

// Strength coefficients outside this range are clamped; a single outlier
// table row should not produce absurd expected goals.
const (
	minStrength = 0.3
	maxStrength = 3.0
)

// standingsResponse mirrors the football-data style standings payload
type standingsResponse struct {
	Standings []standingsBlock `json:"standings"`
}

type standingsBlock struct {
	Type  string         `json:"type"`
	Table []standingsRow `json:"table"`
}

type standingsRow struct {
	Team struct {
		Name string `json:"name"`
	} `json:"team"`
	PlayedGames  int `json:"playedGames"`
	GoalsFor     int `json:"goalsFor"`
	GoalsAgainst int `json:"goalsAgainst"`
}

// Fetcher refreshes the rating store from an external statistics API. It
// is the concrete side of the ratings collaborator: the engine only ever
// sees the store. Failures leave prior (or default) ratings in place.
type Fetcher struct {
	store   *Store
	client  *retryablehttp.Client
	limiter *rate.Limiter
	cache   *cache.Cache
	cfg     *config.RatingsConfig
	logger  *logrus.Logger
}

// NewFetcher creates a ratings fetcher bound to the given store
func NewFetcher(store *Store, cfg *config.RatingsConfig, logger *logrus.Logger) *Fetcher {
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = 100 * time.Millisecond
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = nil

	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second

	return &Fetcher{
		store:   store,
		client:  retryClient,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		cache:   cache.New(ttl, ttl*2),
		cfg:     cfg,
		logger:  logger,
	}
}

// Refresh fetches standings for every configured competition, derives
// attack/defense strengths relative to the league average and bulk-merges
// them into the store. A failing competition is logged and skipped; the
// store keeps its previous values for those teams.
func (f *Fetcher) Refresh(ctx context.Context) error {
	if !f.cfg.Enabled {
		return nil
	}

	var lastErr error
	updated := 0

	for _, competition := range f.cfg.Competitions {
		ratings, err := f.competitionRatings(ctx, competition)
		if err != nil {
			f.logger.WithError(err).WithField("competition", competition).
				Warn("Failed to refresh ratings, keeping previous values")
			lastErr = err
			continue
		}

		f.store.UpdateRatings(ratings)
		updated += len(ratings)
	}

	if updated == 0 && lastErr != nil {
		return fmt.Errorf("ratings refresh produced no updates: %w", lastErr)
	}

	f.logger.WithFields(logrus.Fields{
		"teams_updated": updated,
		"rated_teams":   f.store.Len(),
	}).Info("Team ratings refreshed")

	return nil
}

func (f *Fetcher) competitionRatings(ctx context.Context, competition string) (map[string]models.TeamRating, error) {
	if cached, found := f.cache.Get(competition); found {
		if ratings, ok := cached.(map[string]models.TeamRating); ok {
			return ratings, nil
		}
	}

	standings, err := f.fetchStandings(ctx, competition)
	if err != nil {
		return nil, err
	}

	ratings := deriveStrengths(standings)
	if len(ratings) == 0 {
		return nil, fmt.Errorf("standings for %s contained no usable table", competition)
	}

	f.cache.SetDefault(competition, ratings)
	return ratings, nil
}

func (f *Fetcher) fetchStandings(ctx context.Context, competition string) (*standingsResponse, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	url := fmt.Sprintf("%s/competitions/%s/standings", f.cfg.BaseURL, competition)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build standings request: %w", err)
	}
	if f.cfg.APIKey != "" {
		req.Header.Set("X-Auth-Token", f.cfg.APIKey)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("standings request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("standings request returned %d: %s", resp.StatusCode, string(body))
	}

	var standings standingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&standings); err != nil {
		return nil, fmt.Errorf("failed to decode standings: %w", err)
	}

	return &standings, nil
}

// deriveStrengths converts a league table into attack/defense coefficients
// relative to the league's average goals per team per game.
func deriveStrengths(standings *standingsResponse) map[string]models.TeamRating {
	for _, block := range standings.Standings {
		if block.Type != "" && block.Type != "TOTAL" {
			continue
		}

		totalGoals := 0
		totalGames := 0
		for _, row := range block.Table {
			totalGoals += row.GoalsFor
			totalGames += row.PlayedGames
		}
		if totalGames == 0 {
			continue
		}
		leagueAvg := float64(totalGoals) / float64(totalGames)
		if leagueAvg == 0 {
			continue
		}

		ratings := make(map[string]models.TeamRating, len(block.Table))
		for _, row := range block.Table {
			if row.PlayedGames == 0 {
				continue
			}
			played := float64(row.PlayedGames)
			ratings[row.Team.Name] = models.TeamRating{
				Attack:  clampStrength(float64(row.GoalsFor) / played / leagueAvg),
				Defense: clampStrength(float64(row.GoalsAgainst) / played / leagueAvg),
			}
		}
		return ratings
	}

	return nil
}

func clampStrength(v float64) float64 {
	if v < minStrength {
		return minStrength
	}
	if v > maxStrength {
		return maxStrength
	}
	return v
}
