// Package config provides configuration management for the Goal Edge engine.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Load reads and parses the configuration from file and environment variables.
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the configuration (${VAR} syntax)
	expanded := os.ExpandEnv(string(data))

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// LoadWithDefaults loads configuration with default values for optional
// fields; a missing config file is not an error.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		expanded := os.ExpandEnv(string(data))
		if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if len(cfg.Betting.StakeTiers) == 0 {
		cfg.Betting.StakeTiers = DefaultStakeTiers()
	}

	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("GOAL_EDGE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "goal-edge")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Calibrated league priors
	v.SetDefault("model.league_home_avg", 1.55)
	v.SetDefault("model.league_away_avg", 1.15)
	v.SetDefault("model.max_goals", 7)

	v.SetDefault("betting.kelly_fraction", 0.25)
	v.SetDefault("betting.max_stake", 1000.0)
	v.SetDefault("betting.min_edge", -0.15)
	v.SetDefault("betting.min_display_confidence", 50.0)
	v.SetDefault("betting.auto_bet_threshold", 85.0)
	v.SetDefault("betting.max_bets_per_match", 5)
	v.SetDefault("betting.late_game_cutoff", 85)
	v.SetDefault("betting.prime_minute_min", 15)
	v.SetDefault("betting.prime_minute_max", 75)
	v.SetDefault("betting.fringe_minute_min", 10)
	v.SetDefault("betting.fringe_minute_max", 80)

	v.SetDefault("ratings.enabled", false)
	v.SetDefault("ratings.cache_ttl_seconds", 3600)
	v.SetDefault("ratings.refresh_minutes", 60)
	v.SetDefault("ratings.rate_limit", 5.0)
	v.SetDefault("ratings.timeout_seconds", 30)
	v.SetDefault("ratings.max_retries", 3)

	v.SetDefault("feed.enabled", false)
	v.SetDefault("feed.max_retries", 10)
	v.SetDefault("feed.initial_backoff_ms", 1000)
	v.SetDefault("feed.max_backoff_ms", 30000)
	v.SetDefault("feed.backoff_multiplier", 1.5)
	v.SetDefault("feed.stale_after_seconds", 120)

	v.SetDefault("analysis.interval_seconds", 60)
	v.SetDefault("analysis.cycle_timeout_seconds", 55)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("health.port", 8081)

	v.SetDefault("features.persist_recommendations", false)
	v.SetDefault("features.ratings_refresh_enabled", true)
}

// DefaultStakeTiers returns the calibrated stake-by-confidence table,
// highest tier first.
func DefaultStakeTiers() []StakeTier {
	return []StakeTier{
		{MinConfidence: 90, MinStake: 300, MaxStake: 500},
		{MinConfidence: 75, MinStake: 200, MaxStake: 300},
		{MinConfidence: 60, MinStake: 150, MaxStake: 200},
		{MinConfidence: 0, MinStake: 100, MaxStake: 150},
	}
}
