package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-grading-api/internal/models"
)

// InstitutionConfigRepository stores which grading system an institution uses per level.
type InstitutionConfigRepository struct {
	db *sqlx.DB
}

// NewInstitutionConfigRepository constructs the repository.
func NewInstitutionConfigRepository(db *sqlx.DB) *InstitutionConfigRepository {
	return &InstitutionConfigRepository{db: db}
}

// FindActive returns the active config for an institution and level, or sql.ErrNoRows.
func (r *InstitutionConfigRepository) FindActive(ctx context.Context, institutionID, level string) (*models.InstitutionGradingConfig, error) {
	const query = `SELECT id, institution_id, level, grading_system_id, is_active, created_at, updated_at
FROM institution_grading_configs WHERE institution_id = $1 AND level = $2 AND is_active = TRUE`
	var cfg models.InstitutionGradingConfig
	if err := r.db.GetContext(ctx, &cfg, query, institutionID, level); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Upsert inserts or replaces the config for (institution_id, level).
func (r *InstitutionConfigRepository) Upsert(ctx context.Context, cfg *models.InstitutionGradingConfig) error {
	const query = `INSERT INTO institution_grading_configs (id, institution_id, level, grading_system_id, is_active, created_at, updated_at)
VALUES (:id, :institution_id, :level, :grading_system_id, :is_active, :created_at, :updated_at)
ON CONFLICT (institution_id, level)
DO UPDATE SET grading_system_id = EXCLUDED.grading_system_id, is_active = EXCLUDED.is_active, updated_at = EXCLUDED.updated_at`
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = now
	}
	cfg.UpdatedAt = now
	if _, err := r.db.NamedExecContext(ctx, query, cfg); err != nil {
		return fmt.Errorf("upsert institution grading config: %w", err)
	}
	return nil
}
