package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-grading-api/internal/dto"
	"github.com/noah-isme/sma-grading-api/internal/grading"
	"github.com/noah-isme/sma-grading-api/internal/models"
	appErrors "github.com/noah-isme/sma-grading-api/pkg/errors"
)

type gradingSystemRepository interface {
	List(ctx context.Context, filter models.GradingSystemFilter) ([]models.GradingSystem, error)
	FindByID(ctx context.Context, id string) (*models.GradingSystem, error)
	FindByCode(ctx context.Context, code string) (*models.GradingSystem, error)
	Create(ctx context.Context, system *models.GradingSystem) error
	Update(ctx context.Context, system *models.GradingSystem) error
	SetActive(ctx context.Context, id string, active bool) error
}

type gradingSystemCacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// GradingSystemService manages authoring of grading systems.
type GradingSystemService struct {
	repo      gradingSystemRepository
	cache     gradingSystemCacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradingSystemService constructs the service. cache may be nil.
func NewGradingSystemService(repo gradingSystemRepository, cache gradingSystemCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *GradingSystemService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradingSystemService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns grading systems for filter.
func (s *GradingSystemService) List(ctx context.Context, filter models.GradingSystemFilter) ([]models.GradingSystem, error) {
	systems, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grading systems")
	}
	return systems, nil
}

// Get returns a grading system with its bands.
func (s *GradingSystemService) Get(ctx context.Context, id string) (*models.GradingSystem, error) {
	system, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grading system not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grading system")
	}
	return system, nil
}

// Create validates and stores a new, unlocked grading system.
func (s *GradingSystemService) Create(ctx context.Context, req dto.CreateGradingSystemRequest) (*models.GradingSystem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grading system payload")
	}
	code := strings.ToLower(strings.TrimSpace(req.Code))
	if _, err := s.repo.FindByCode(ctx, code); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "grading system code already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check grading system code")
	}

	system := &models.GradingSystem{Code: code, IsActive: true, Version: 1}
	applyFields(system, req.GradingSystemFields)
	if err := s.checkPolicy(system); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, system); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create grading system")
	}
	s.logger.Info("grading system created", zap.String("id", system.ID), zap.String("code", system.Code))
	return s.Get(ctx, system.ID)
}

// Update replaces a grading system's fields and bands. Locked systems are rejected.
func (s *GradingSystemService) Update(ctx context.Context, id string, req dto.UpdateGradingSystemRequest) (*models.GradingSystem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grading system payload")
	}
	system, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if system.IsLocked {
		return nil, appErrors.Clone(appErrors.ErrLocked, "grading system is locked")
	}
	if system.Version != req.Version {
		return nil, appErrors.Clone(appErrors.ErrConflict, "grading system version mismatch")
	}

	applyFields(system, req.GradingSystemFields)
	if err := s.checkPolicy(system); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, system); err != nil {
		if errors.Is(err, appErrors.ErrConflict) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update grading system")
	}
	s.invalidate(ctx)
	s.logger.Info("grading system updated", zap.String("id", system.ID), zap.Int("version", system.Version))
	return s.Get(ctx, id)
}

// SetActive activates or deactivates a system. Locked systems cannot be deactivated.
func (s *GradingSystemService) SetActive(ctx context.Context, id string, active bool) (*models.GradingSystem, error) {
	system, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if system.IsLocked && !active {
		return nil, appErrors.Clone(appErrors.ErrLocked, "locked grading systems cannot be deactivated")
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grading system not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update grading system status")
	}
	s.invalidate(ctx)
	system.IsActive = active
	return system, nil
}

// Validate checks a stored system's bands for gaps and overlaps.
func (s *GradingSystemService) Validate(ctx context.Context, id string) (*dto.BandValidationResponse, error) {
	system, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	report := grading.ValidateBands(system)
	return &dto.BandValidationResponse{GradingSystemID: system.ID, Valid: report.Valid(), Issues: report.Issues}, nil
}

// checkPolicy rejects overlapping bands and bad weightings; other band issues are logged.
func (s *GradingSystemService) checkPolicy(system *models.GradingSystem) error {
	if w := system.Settings.AssessmentWeighting; w != nil {
		if err := grading.CheckWeighting(*w); err != nil {
			return err
		}
	}
	report := grading.ValidateBands(system)
	if report.HasOverlaps() || report.Has(grading.BandIssueOutOfRange) {
		messages := make([]string, 0, len(report.Issues))
		for _, issue := range report.Issues {
			messages = append(messages, issue.Message)
		}
		return appErrors.Clone(appErrors.ErrValidation, "invalid grade bands: "+strings.Join(messages, "; "))
	}
	for _, issue := range report.Issues {
		s.logger.Warn("grading system band issue",
			zap.String("code", system.Code), zap.String("kind", string(issue.Kind)), zap.String("message", issue.Message))
	}
	return nil
}

func (s *GradingSystemService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("failed to invalidate grading system cache", zap.Error(err))
	}
}

func applyFields(system *models.GradingSystem, f dto.GradingSystemFields) {
	system.Name = strings.TrimSpace(f.Name)
	system.Description = f.Description
	system.Type = f.Type
	system.ScaleType = f.ScaleType
	system.MinScore = f.MinScore
	system.MaxScore = f.MaxScore
	system.PassMark = f.PassMark
	system.MinSubjectsToPass = f.MinSubjectsToPass
	system.PrioritySubjects = normaliseCodes(f.PrioritySubjects)
	system.CertificationRules = f.CertificationRules
	system.CertificationRules.PrioritySubjectsRequired = normaliseCodes(f.CertificationRules.PrioritySubjectsRequired)
	system.CertificationRules.SchemaVersion = models.SettingsSchemaVersion
	system.ProgressionRules = f.ProgressionRules
	system.ProgressionRules.SchemaVersion = models.SettingsSchemaVersion
	system.Settings = f.Settings
	system.Settings.SchemaVersion = models.SettingsSchemaVersion

	system.GradeScales = make([]models.GradeScale, 0, len(f.Bands))
	for i, band := range f.Bands {
		order := band.SortOrder
		if order == 0 {
			order = i + 1
		}
		system.GradeScales = append(system.GradeScales, models.GradeScale{
			Grade:      strings.TrimSpace(band.Grade),
			GradeLabel: band.GradeLabel,
			MinScore:   band.MinScore,
			MaxScore:   band.MaxScore,
			GPAPoints:  band.GPAPoints,
			Points:     band.Points,
			Remark:     band.Remark,
			IsPassing:  band.IsPassing,
			SortOrder:  order,
		})
	}
}

func normaliseCodes(codes []string) models.SubjectCodes {
	out := models.SubjectCodes{}
	for _, code := range codes {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code != "" && !out.Contains(code) {
			out = append(out, code)
		}
	}
	return out
}
