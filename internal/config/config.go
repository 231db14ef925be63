// Package config provides configuration management for the Goal Edge engine.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App      AppConfig      `mapstructure:"app" validate:"required"`
	Database DatabaseConfig `mapstructure:"database"`
	Model    ModelConfig    `mapstructure:"model" validate:"required"`
	Betting  BettingConfig  `mapstructure:"betting" validate:"required"`
	Ratings  RatingsConfig  `mapstructure:"ratings" validate:"required"`
	Feed     FeedConfig     `mapstructure:"feed" validate:"required"`
	Analysis AnalysisConfig `mapstructure:"analysis" validate:"required"`
	Metrics  MetricsConfig  `mapstructure:"metrics" validate:"required"`
	Health   HealthConfig   `mapstructure:"health" validate:"required"`
	Features FeaturesConfig `mapstructure:"features"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration.
// Only validated when recommendation persistence is enabled.
type DatabaseConfig struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name               string `mapstructure:"name"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"omitempty,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"omitempty,gt=0"`
}

// ModelConfig represents goal model calibration
type ModelConfig struct {
	// League average goals per game for home and away sides; calibrated
	// priors, overridden when the ratings source supplies fresher values.
	LeagueHomeAvg float64 `mapstructure:"league_home_avg" validate:"required,gt=0"`
	LeagueAwayAvg float64 `mapstructure:"league_away_avg" validate:"required,gt=0"`

	// Score matrix truncation cap (goals added per side)
	MaxGoals int `mapstructure:"max_goals" validate:"required,gt=0,lte=15"`
}

// StakeTier maps a confidence floor to a stake range in currency units
type StakeTier struct {
	MinConfidence float64 `mapstructure:"min_confidence" validate:"gte=0,lte=100"`
	MinStake      float64 `mapstructure:"min_stake" validate:"gt=0"`
	MaxStake      float64 `mapstructure:"max_stake" validate:"gt=0"`
}

// BettingConfig represents value detection and staking configuration
type BettingConfig struct {
	// Fractional Kelly multiplier (0.25 = quarter Kelly)
	KellyFraction float64 `mapstructure:"kelly_fraction" validate:"required,gt=0,lte=1"`

	// Hard cap on any single recommended stake, in currency units
	MaxStake float64 `mapstructure:"max_stake" validate:"required,gt=0"`

	// Markets with edge below this floor are never surfaced. Calibrated
	// constant with no stated derivation; kept configurable.
	MinEdge float64 `mapstructure:"min_edge" validate:"gte=-1,lte=1"`

	// Minimum confidence for a candidate to be displayed at all
	MinDisplayConfidence float64 `mapstructure:"min_display_confidence" validate:"gte=0,lte=100"`

	// Confidence at or above which a positive-edge bet is flagged
	// auto-bettable (advisory metadata only)
	AutoBetThreshold float64 `mapstructure:"auto_bet_threshold" validate:"gte=0,lte=100"`

	// Output list cap per match
	MaxBetsPerMatch int `mapstructure:"max_bets_per_match" validate:"required,gt=0"`

	// Matches beyond this minute are skipped entirely; in-play odds are
	// unreliable near full time
	LateGameCutoff int `mapstructure:"late_game_cutoff" validate:"required,gt=0"`

	// Confidence time bands: full score inside the prime window, reduced
	// score in the fringe band around it
	PrimeMinuteMin  int `mapstructure:"prime_minute_min" validate:"gte=0"`
	PrimeMinuteMax  int `mapstructure:"prime_minute_max" validate:"gte=0"`
	FringeMinuteMin int `mapstructure:"fringe_minute_min" validate:"gte=0"`
	FringeMinuteMax int `mapstructure:"fringe_minute_max" validate:"gte=0"`

	// Confidence-tiered stake table, highest tier first
	StakeTiers []StakeTier `mapstructure:"stake_tiers" validate:"required,min=1,dive"`
}

// RatingsConfig represents the external team ratings source
type RatingsConfig struct {
	Enabled         bool     `mapstructure:"enabled"`
	BaseURL         string   `mapstructure:"base_url" validate:"required_if=Enabled true,omitempty,url"`
	APIKey          string   `mapstructure:"api_key"`
	Competitions    []string `mapstructure:"competitions"`
	CacheTTLSeconds int      `mapstructure:"cache_ttl_seconds" validate:"omitempty,gt=0"`
	RefreshMinutes  int      `mapstructure:"refresh_minutes" validate:"omitempty,gt=0"`
	RateLimit       float64  `mapstructure:"rate_limit" validate:"omitempty,gt=0"`
	TimeoutSeconds  int      `mapstructure:"timeout_seconds" validate:"omitempty,gt=0"`
	MaxRetries      int      `mapstructure:"max_retries" validate:"omitempty,gte=0"`
}

// FeedConfig represents the live snapshot feed from the scraping layer
type FeedConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	URL               string  `mapstructure:"url" validate:"required_if=Enabled true"`
	MaxRetries        int     `mapstructure:"max_retries" validate:"omitempty,gte=0"`
	InitialBackoffMS  int     `mapstructure:"initial_backoff_ms" validate:"omitempty,gt=0"`
	MaxBackoffMS      int     `mapstructure:"max_backoff_ms" validate:"omitempty,gt=0"`
	BackoffMultiplier float64 `mapstructure:"backoff_multiplier" validate:"omitempty,gte=1"`
	StaleAfterSeconds int     `mapstructure:"stale_after_seconds" validate:"omitempty,gt=0"`
}

// AnalysisConfig represents the periodic analysis cycle
type AnalysisConfig struct {
	IntervalSeconds     int `mapstructure:"interval_seconds" validate:"required,gt=0"`
	CycleTimeoutSeconds int `mapstructure:"cycle_timeout_seconds" validate:"required,gt=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// HealthConfig represents the health check server
type HealthConfig struct {
	Port int `mapstructure:"port" validate:"required,min=1,max=65535"`
}

// FeaturesConfig represents feature flags
type FeaturesConfig struct {
	PersistRecommendations bool `mapstructure:"persist_recommendations"`
	RatingsRefreshEnabled  bool `mapstructure:"ratings_refresh_enabled"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// AnalysisInterval returns the analysis cycle interval as a duration
func (c *Config) AnalysisInterval() time.Duration {
	return time.Duration(c.Analysis.IntervalSeconds) * time.Second
}

// CycleTimeout returns the per-cycle timeout as a duration
func (c *Config) CycleTimeout() time.Duration {
	return time.Duration(c.Analysis.CycleTimeoutSeconds) * time.Second
}

// RatingsCacheTTL returns the ratings cache TTL as a duration
func (c *Config) RatingsCacheTTL() time.Duration {
	return time.Duration(c.Ratings.CacheTTLSeconds) * time.Second
}
