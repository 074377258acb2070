package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-grading-api/internal/models"
	appErrors "github.com/noah-isme/sma-grading-api/pkg/errors"
)

const gradingSystemColumns = `id, code, name, description, type, scale_type, min_score, max_score, pass_mark,
        min_subjects_to_pass, priority_subjects, certification_rules, progression_rules, settings,
        is_system_default, is_locked, is_active, version, created_at, updated_at`

const gradeScaleColumns = `id, grading_system_id, grade, grade_label, min_score, max_score, gpa_points, points, remark, is_passing, sort_order`

// GradingSystemRepository persists grading systems and their grade bands.
type GradingSystemRepository struct {
	db *sqlx.DB
}

// NewGradingSystemRepository creates a new repository instance.
func NewGradingSystemRepository(db *sqlx.DB) *GradingSystemRepository {
	return &GradingSystemRepository{db: db}
}

// List returns grading systems matching filter, without their bands.
func (r *GradingSystemRepository) List(ctx context.Context, filter models.GradingSystemFilter) ([]models.GradingSystem, error) {
	query := `SELECT ` + gradingSystemColumns + ` FROM grading_systems WHERE 1=1`
	args := []interface{}{}
	if filter.Type != "" {
		query += fmt.Sprintf(" AND type = $%d", len(args)+1)
		args = append(args, filter.Type)
	}
	if filter.ActiveOnly {
		query += " AND is_active = TRUE"
	}
	if filter.Search != "" {
		query += fmt.Sprintf(" AND (code ILIKE $%d OR name ILIKE $%d)", len(args)+1, len(args)+1)
		args = append(args, "%"+filter.Search+"%")
	}
	query += " ORDER BY is_system_default DESC, code ASC"

	var systems []models.GradingSystem
	if err := r.db.SelectContext(ctx, &systems, query, args...); err != nil {
		return nil, fmt.Errorf("list grading systems: %w", err)
	}
	return systems, nil
}

// FindByID returns a grading system with its bands.
func (r *GradingSystemRepository) FindByID(ctx context.Context, id string) (*models.GradingSystem, error) {
	return r.findOne(ctx, `SELECT `+gradingSystemColumns+` FROM grading_systems WHERE id = $1`, id)
}

// FindByCode returns a grading system by its unique code.
func (r *GradingSystemRepository) FindByCode(ctx context.Context, code string) (*models.GradingSystem, error) {
	return r.findOne(ctx, `SELECT `+gradingSystemColumns+` FROM grading_systems WHERE code = $1`, code)
}

// FindDefaultByCode returns the active, system-default grading system for code.
func (r *GradingSystemRepository) FindDefaultByCode(ctx context.Context, code string) (*models.GradingSystem, error) {
	return r.findOne(ctx, `SELECT `+gradingSystemColumns+` FROM grading_systems
        WHERE code = $1 AND is_system_default = TRUE AND is_active = TRUE`, code)
}

func (r *GradingSystemRepository) findOne(ctx context.Context, query string, arg interface{}) (*models.GradingSystem, error) {
	var system models.GradingSystem
	if err := r.db.GetContext(ctx, &system, query, arg); err != nil {
		return nil, err
	}
	bands, err := r.loadBands(ctx, system.ID)
	if err != nil {
		return nil, err
	}
	system.GradeScales = bands
	return &system, nil
}

// Create inserts a grading system with its bands.
func (r *GradingSystemRepository) Create(ctx context.Context, system *models.GradingSystem) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if system.ID == "" {
		system.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if system.CreatedAt.IsZero() {
		system.CreatedAt = now
	}
	system.UpdatedAt = now
	if system.Version == 0 {
		system.Version = 1
	}
	const insertSystem = `INSERT INTO grading_systems (id, code, name, description, type, scale_type, min_score, max_score, pass_mark,
        min_subjects_to_pass, priority_subjects, certification_rules, progression_rules, settings,
        is_system_default, is_locked, is_active, version, created_at, updated_at)
        VALUES (:id, :code, :name, :description, :type, :scale_type, :min_score, :max_score, :pass_mark,
        :min_subjects_to_pass, :priority_subjects, :certification_rules, :progression_rules, :settings,
        :is_system_default, :is_locked, :is_active, :version, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertSystem, system); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("insert grading system: %w", err)
	}
	if err := r.replaceBandsTx(ctx, tx, system.ID, system.GradeScales); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit grading system: %w", err)
	}
	return nil
}

// Update rewrites a grading system and its bands. system.Version must hold the version
// the caller read; on success it is incremented. A concurrent edit yields ErrConflict.
func (r *GradingSystemRepository) Update(ctx context.Context, system *models.GradingSystem) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	system.UpdatedAt = time.Now().UTC()
	const updateQuery = `UPDATE grading_systems SET name = :name, description = :description, type = :type, scale_type = :scale_type,
        min_score = :min_score, max_score = :max_score, pass_mark = :pass_mark, min_subjects_to_pass = :min_subjects_to_pass,
        priority_subjects = :priority_subjects, certification_rules = :certification_rules,
        progression_rules = :progression_rules, settings = :settings, version = version + 1, updated_at = :updated_at
        WHERE id = :id AND version = :version`
	res, err := tx.NamedExecContext(ctx, updateQuery, system)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("update grading system: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		tx.Rollback() //nolint:errcheck
		return appErrors.Clone(appErrors.ErrConflict, "grading system was modified by another request")
	}
	if err := r.replaceBandsTx(ctx, tx, system.ID, system.GradeScales); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit grading system: %w", err)
	}
	system.Version++
	return nil
}

// SetActive toggles the active flag. Returns sql.ErrNoRows when id is unknown.
func (r *GradingSystemRepository) SetActive(ctx context.Context, id string, active bool) error {
	const query = `UPDATE grading_systems SET is_active = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, active, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set grading system active: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpsertSeed writes a reference system keyed by id, replacing its bands.
func (r *GradingSystemRepository) UpsertSeed(ctx context.Context, system *models.GradingSystem) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	now := time.Now().UTC()
	if system.CreatedAt.IsZero() {
		system.CreatedAt = now
	}
	system.UpdatedAt = now
	const upsert = `INSERT INTO grading_systems (id, code, name, description, type, scale_type, min_score, max_score, pass_mark,
        min_subjects_to_pass, priority_subjects, certification_rules, progression_rules, settings,
        is_system_default, is_locked, is_active, version, created_at, updated_at)
        VALUES (:id, :code, :name, :description, :type, :scale_type, :min_score, :max_score, :pass_mark,
        :min_subjects_to_pass, :priority_subjects, :certification_rules, :progression_rules, :settings,
        :is_system_default, :is_locked, :is_active, :version, :created_at, :updated_at)
        ON CONFLICT (id)
        DO UPDATE SET code = EXCLUDED.code, name = EXCLUDED.name, description = EXCLUDED.description, type = EXCLUDED.type,
              scale_type = EXCLUDED.scale_type, min_score = EXCLUDED.min_score, max_score = EXCLUDED.max_score,
              pass_mark = EXCLUDED.pass_mark, min_subjects_to_pass = EXCLUDED.min_subjects_to_pass,
              priority_subjects = EXCLUDED.priority_subjects, certification_rules = EXCLUDED.certification_rules,
              progression_rules = EXCLUDED.progression_rules, settings = EXCLUDED.settings,
              is_system_default = EXCLUDED.is_system_default, is_locked = EXCLUDED.is_locked,
              version = grading_systems.version + 1, updated_at = EXCLUDED.updated_at`
	if _, err := tx.NamedExecContext(ctx, upsert, system); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("upsert seed grading system %s: %w", system.Code, err)
	}
	if err := r.replaceBandsTx(ctx, tx, system.ID, system.GradeScales); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}
	return nil
}

// replaceBandsTx rewrites a system's bands in a transaction.
func (r *GradingSystemRepository) replaceBandsTx(ctx context.Context, tx *sqlx.Tx, systemID string, bands []models.GradeScale) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM grade_scales WHERE grading_system_id = $1", systemID); err != nil {
		return fmt.Errorf("clear grade scales: %w", err)
	}
	if len(bands) == 0 {
		return nil
	}
	const insertBand = `INSERT INTO grade_scales (` + gradeScaleColumns + `)
        VALUES (:id, :grading_system_id, :grade, :grade_label, :min_score, :max_score, :gpa_points, :points, :remark, :is_passing, :sort_order)`
	for i := range bands {
		if bands[i].ID == "" {
			bands[i].ID = uuid.NewString()
		}
		bands[i].GradingSystemID = systemID
		if _, err := tx.NamedExecContext(ctx, insertBand, bands[i]); err != nil {
			return fmt.Errorf("insert grade scale %s: %w", bands[i].Grade, err)
		}
	}
	return nil
}

func (r *GradingSystemRepository) loadBands(ctx context.Context, systemID string) ([]models.GradeScale, error) {
	const query = `SELECT ` + gradeScaleColumns + ` FROM grade_scales WHERE grading_system_id = $1 ORDER BY sort_order ASC, min_score DESC`
	var bands []models.GradeScale
	if err := r.db.SelectContext(ctx, &bands, query, systemID); err != nil {
		return nil, fmt.Errorf("load grade scales: %w", err)
	}
	return bands, nil
}
