// Package repository provides persistence for surfaced bet recommendations.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/goal-edge/internal/models"
)

// RecommendationRepository defines the interface for recommendation data access
type RecommendationRepository interface {
	Create(ctx context.Context, rec *models.BetRecommendation) error
	CreateBatch(ctx context.Context, recs []*models.BetRecommendation) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.BetRecommendation, error)
	GetByMatchID(ctx context.Context, matchID string) ([]*models.BetRecommendation, error)
	GetRecent(ctx context.Context, since time.Time, limit int) ([]*models.BetRecommendation, error)
	GetAutoBettable(ctx context.Context, since time.Time) ([]*models.BetRecommendation, error)
}
