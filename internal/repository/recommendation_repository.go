package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/goal-edge/internal/database"
	"github.com/yourusername/goal-edge/internal/models"
)

const recommendationColumns = `id, match_id, home_team, away_team, market, market_label,
       model_probability, implied_probability, edge, odds, confidence, confidence_label,
       recommended_stake, kelly_fraction, home_xg, away_xg, predicted_score,
       reasons, warnings, auto_bettable, created_at`

// PostgresRecommendationRepository implements RecommendationRepository for PostgreSQL
type PostgresRecommendationRepository struct {
	db *database.DB
}

// NewPostgresRecommendationRepository creates a new recommendation repository
func NewPostgresRecommendationRepository(db *database.DB) RecommendationRepository {
	return &PostgresRecommendationRepository{db: db}
}

// Create inserts a new recommendation
func (r *PostgresRecommendationRepository) Create(ctx context.Context, rec *models.BetRecommendation) error {
	query := `
		INSERT INTO recommendations (` + recommendationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`

	_, err := r.db.GetPool().Exec(ctx, query, insertArgs(rec)...)
	if err != nil {
		return fmt.Errorf("failed to create recommendation: %w", err)
	}

	return nil
}

// CreateBatch inserts all recommendations from one analysis cycle in a
// single transaction, so a cycle is either fully recorded or not at all.
func (r *PostgresRecommendationRepository) CreateBatch(ctx context.Context, recs []*models.BetRecommendation) error {
	if len(recs) == 0 {
		return nil
	}

	query := `
		INSERT INTO recommendations (` + recommendationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`

	return r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		for _, rec := range recs {
			if _, err := tx.Exec(ctx, query, insertArgs(rec)...); err != nil {
				return fmt.Errorf("failed to insert recommendation %s: %w", rec.ID, err)
			}
		}
		return nil
	})
}

// GetByID retrieves a recommendation by ID
func (r *PostgresRecommendationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.BetRecommendation, error) {
	query := `SELECT ` + recommendationColumns + ` FROM recommendations WHERE id = $1`

	rec, err := scanRecommendation(r.db.GetPool().QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recommendation: %w", err)
	}

	return rec, nil
}

// GetByMatchID retrieves all recommendations for a match, newest first
func (r *PostgresRecommendationRepository) GetByMatchID(ctx context.Context, matchID string) ([]*models.BetRecommendation, error) {
	query := `
		SELECT ` + recommendationColumns + `
		FROM recommendations
		WHERE match_id = $1
		ORDER BY created_at DESC, confidence DESC
	`

	rows, err := r.db.GetPool().Query(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations by match: %w", err)
	}
	defer rows.Close()

	return collectRecommendations(rows)
}

// GetRecent retrieves recommendations created since the given time
func (r *PostgresRecommendationRepository) GetRecent(ctx context.Context, since time.Time, limit int) ([]*models.BetRecommendation, error) {
	query := `
		SELECT ` + recommendationColumns + `
		FROM recommendations
		WHERE created_at >= $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.GetPool().Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent recommendations: %w", err)
	}
	defer rows.Close()

	return collectRecommendations(rows)
}

// GetAutoBettable retrieves auto-bettable recommendations created since
// the given time, strongest edge first
func (r *PostgresRecommendationRepository) GetAutoBettable(ctx context.Context, since time.Time) ([]*models.BetRecommendation, error) {
	query := `
		SELECT ` + recommendationColumns + `
		FROM recommendations
		WHERE auto_bettable = TRUE AND created_at >= $1
		ORDER BY edge DESC
	`

	rows, err := r.db.GetPool().Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query auto-bettable recommendations: %w", err)
	}
	defer rows.Close()

	return collectRecommendations(rows)
}

func insertArgs(rec *models.BetRecommendation) []interface{} {
	return []interface{}{
		rec.ID, rec.MatchID, rec.HomeTeam, rec.AwayTeam, rec.Market, rec.MarketLabel,
		rec.ModelProbability, rec.ImpliedProbability, rec.Edge, rec.Odds, rec.Confidence, rec.ConfidenceLabel,
		rec.RecommendedStake, rec.KellyFraction, rec.HomeXG, rec.AwayXG, rec.PredictedScore,
		rec.Reasons, rec.Warnings, rec.AutoBettable, rec.CreatedAt,
	}
}

func scanRecommendation(row pgx.Row) (*models.BetRecommendation, error) {
	rec := &models.BetRecommendation{}
	err := row.Scan(
		&rec.ID, &rec.MatchID, &rec.HomeTeam, &rec.AwayTeam, &rec.Market, &rec.MarketLabel,
		&rec.ModelProbability, &rec.ImpliedProbability, &rec.Edge, &rec.Odds, &rec.Confidence, &rec.ConfidenceLabel,
		&rec.RecommendedStake, &rec.KellyFraction, &rec.HomeXG, &rec.AwayXG, &rec.PredictedScore,
		&rec.Reasons, &rec.Warnings, &rec.AutoBettable, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func collectRecommendations(rows pgx.Rows) ([]*models.BetRecommendation, error) {
	var recs []*models.BetRecommendation
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		recs = append(recs, rec)
	}

	return recs, rows.Err()
}
