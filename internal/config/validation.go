// Package config provides configuration management for the Goal Edge engine.
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	// Registration only fails for empty tags, which are compile-time
	// constants here.
	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	err := cv.validator.Struct(cfg)
	if err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	return validateCrossField(cfg)
}

func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// validateCrossField performs validations spanning multiple fields
func validateCrossField(cfg *Config) error {
	b := &cfg.Betting

	if b.PrimeMinuteMin >= b.PrimeMinuteMax {
		return fmt.Errorf("betting.prime_minute_min must be below betting.prime_minute_max")
	}
	if b.FringeMinuteMin > b.PrimeMinuteMin || b.FringeMinuteMax < b.PrimeMinuteMax {
		return fmt.Errorf("betting fringe minute band must enclose the prime band")
	}
	if b.MinDisplayConfidence > b.AutoBetThreshold {
		return fmt.Errorf("betting.min_display_confidence cannot exceed betting.auto_bet_threshold")
	}

	// Stake tiers must cover confidence 0 and be usable in descending order
	tiers := make([]StakeTier, len(b.StakeTiers))
	copy(tiers, b.StakeTiers)
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].MinConfidence > tiers[j].MinConfidence })
	if tiers[len(tiers)-1].MinConfidence != 0 {
		return fmt.Errorf("betting.stake_tiers must include a tier with min_confidence 0")
	}
	for _, tier := range tiers {
		if tier.MinStake > tier.MaxStake {
			return fmt.Errorf("stake tier at confidence %.0f has min_stake above max_stake", tier.MinConfidence)
		}
		if tier.MaxStake > b.MaxStake {
			return fmt.Errorf("stake tier at confidence %.0f exceeds betting.max_stake", tier.MinConfidence)
		}
	}

	if cfg.Features.PersistRecommendations {
		d := &cfg.Database
		if d.Host == "" || d.Port == 0 || d.Name == "" || d.User == "" {
			return fmt.Errorf("database configuration is required when features.persist_recommendations is enabled")
		}
	}

	return nil
}

// formatValidationErrors converts validator errors into a readable message
func formatValidationErrors(errs validator.ValidationErrors) error {
	messages := make([]string, 0, len(errs))
	for _, fieldErr := range errs {
		messages = append(messages, fmt.Sprintf(
			"field '%s' failed validation '%s'",
			fieldErr.Namespace(), fieldErr.Tag(),
		))
	}
	return fmt.Errorf("configuration validation failed: %s", strings.Join(messages, "; "))
}
