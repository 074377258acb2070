package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-grading-api/internal/dto"
	"github.com/noah-isme/sma-grading-api/internal/models"
	appErrors "github.com/noah-isme/sma-grading-api/pkg/errors"
)

// Sources reported for an institution's effective grading system.
const (
	ConfigSourceInstitution = "institution"
	ConfigSourceDefault     = "default"
)

type institutionConfigWriter interface {
	Upsert(ctx context.Context, cfg *models.InstitutionGradingConfig) error
}

type institutionSystemResolver interface {
	ByID(ctx context.Context, id string) (*models.GradingSystem, error)
	ForInstitution(ctx context.Context, institutionID, level string, t models.InstitutionType) (*models.GradingSystem, *models.InstitutionGradingConfig, error)
}

// InstitutionConfigService manages per-institution grading system choices.
type InstitutionConfigService struct {
	repo      institutionConfigWriter
	resolver  institutionSystemResolver
	validator *validator.Validate
	logger    *zap.Logger
}

// NewInstitutionConfigService constructs the service.
func NewInstitutionConfigService(repo institutionConfigWriter, resolver institutionSystemResolver, validate *validator.Validate, logger *zap.Logger) *InstitutionConfigService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstitutionConfigService{repo: repo, resolver: resolver, validator: validate, logger: logger}
}

// Effective returns the grading system an institution level grades with.
func (s *InstitutionConfigService) Effective(ctx context.Context, institutionID, level string, t models.InstitutionType) (*dto.InstitutionGradingConfigResponse, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	system, cfg, err := s.resolver.ForInstitution(ctx, institutionID, level, t)
	if err != nil {
		return nil, err
	}
	source := ConfigSourceDefault
	if cfg != nil && cfg.GradingSystemID == system.ID {
		source = ConfigSourceInstitution
	}
	return &dto.InstitutionGradingConfigResponse{
		InstitutionID: institutionID,
		Level:         level,
		Source:        source,
		Config:        cfg,
		GradingSystem: system,
	}, nil
}

// Set stores the institution's grading system for level and returns the resulting
// effective system. The chosen system must exist and be active.
func (s *InstitutionConfigService) Set(ctx context.Context, institutionID, level string, t models.InstitutionType, req dto.InstitutionGradingConfigRequest) (*dto.InstitutionGradingConfigResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grading config payload")
	}
	institutionID = strings.TrimSpace(institutionID)
	level = strings.ToLower(strings.TrimSpace(level))
	if institutionID == "" || level == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "institution id and level are required")
	}
	system, err := s.resolver.ByID(ctx, req.GradingSystemID)
	if err != nil {
		return nil, err
	}
	if !system.IsActive {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "grading system is inactive")
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	cfg := &models.InstitutionGradingConfig{
		InstitutionID:   institutionID,
		Level:           level,
		GradingSystemID: system.ID,
		IsActive:        active,
	}
	if err := s.repo.Upsert(ctx, cfg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save grading config")
	}
	s.logger.Info("institution grading config saved",
		zap.String("institution_id", institutionID), zap.String("level", level), zap.String("grading_system", system.Code))

	return s.Effective(ctx, institutionID, level, t)
}
