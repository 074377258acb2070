package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-grading-api/internal/models"
	appErrors "github.com/noah-isme/sma-grading-api/pkg/errors"
)

const gradingSystemCachePrefix = "grading:system:"

// defaultSystemCodes maps an institution type to its system-default grading system.
var defaultSystemCodes = map[models.InstitutionType]string{
	models.InstitutionPrimary:       "malawi-primary",
	models.InstitutionSecondary:     "malawi-msce",
	models.InstitutionInternational: "international-standard",
}

// DefaultSystemCode returns the default grading system code for t. Unknown types use
// the primary mapping.
func DefaultSystemCode(t models.InstitutionType) string {
	if code, ok := defaultSystemCodes[t]; ok {
		return code
	}
	return defaultSystemCodes[models.InstitutionPrimary]
}

type gradingSystemReader interface {
	FindByID(ctx context.Context, id string) (*models.GradingSystem, error)
	FindByCode(ctx context.Context, code string) (*models.GradingSystem, error)
	FindDefaultByCode(ctx context.Context, code string) (*models.GradingSystem, error)
}

type institutionConfigReader interface {
	FindActive(ctx context.Context, institutionID, level string) (*models.InstitutionGradingConfig, error)
}

type referenceCatalog interface {
	FindByCode(code string) (*models.GradingSystem, error)
	FindByID(id string) (*models.GradingSystem, error)
}

// GradingSystemResolverConfig tunes resolution.
type GradingSystemResolverConfig struct {
	CacheTTL        time.Duration
	UseSeedFallback bool
}

// GradingSystemResolver decides which grading system applies and loads it with bands.
// Lookups go cache, then store, then the embedded reference catalog.
type GradingSystemResolver struct {
	systems gradingSystemReader
	configs institutionConfigReader
	seeds   referenceCatalog
	cache   *CacheService
	metrics *MetricsService
	cfg     GradingSystemResolverConfig
	logger  *zap.Logger
}

// NewGradingSystemResolver constructs the resolver. seeds may be nil to disable the
// reference fallback.
func NewGradingSystemResolver(systems gradingSystemReader, configs institutionConfigReader, seeds referenceCatalog, cache *CacheService, metrics *MetricsService, cfg GradingSystemResolverConfig, logger *zap.Logger) *GradingSystemResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.UseSeedFallback {
		seeds = nil
	}
	return &GradingSystemResolver{systems: systems, configs: configs, seeds: seeds, cache: cache, metrics: metrics, cfg: cfg, logger: logger}
}

// DefaultForInstitutionType returns the active system-default grading system for t.
func (r *GradingSystemResolver) DefaultForInstitutionType(ctx context.Context, t models.InstitutionType) (*models.GradingSystem, error) {
	code := DefaultSystemCode(t)
	return r.load(ctx, "default:"+code, func() (*models.GradingSystem, error) {
		return r.systems.FindDefaultByCode(ctx, code)
	}, func() (*models.GradingSystem, error) {
		return r.seeds.FindByCode(code)
	}, fmt.Sprintf("no default grading system %s for institution type %s", code, t))
}

// ForInstitutionConfig prefers the institution's explicit active configuration and
// falls back to DefaultForInstitutionType when there is none, or when the configured
// system is missing or inactive.
func (r *GradingSystemResolver) ForInstitutionConfig(ctx context.Context, cfg *models.InstitutionGradingConfig, t models.InstitutionType) (*models.GradingSystem, error) {
	if cfg != nil && cfg.IsActive && cfg.GradingSystemID != "" {
		system, err := r.ByID(ctx, cfg.GradingSystemID)
		switch {
		case err == nil && system.IsActive:
			return system, nil
		case err == nil:
			r.logger.Warn("configured grading system inactive, using default",
				zap.String("institution_id", cfg.InstitutionID), zap.String("grading_system_id", cfg.GradingSystemID))
		case errors.Is(err, appErrors.ErrNotFound):
			r.logger.Warn("configured grading system missing, using default",
				zap.String("institution_id", cfg.InstitutionID), zap.String("grading_system_id", cfg.GradingSystemID))
		default:
			return nil, err
		}
	}
	return r.DefaultForInstitutionType(ctx, t)
}

// ForInstitution loads the institution's stored configuration for level and resolves it.
func (r *GradingSystemResolver) ForInstitution(ctx context.Context, institutionID, level string, t models.InstitutionType) (*models.GradingSystem, *models.InstitutionGradingConfig, error) {
	cfg, err := r.configs.FindActive(ctx, institutionID, strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load institution grading config")
		}
		cfg = nil
	}
	system, err := r.ForInstitutionConfig(ctx, cfg, t)
	if err != nil {
		return nil, nil, err
	}
	return system, cfg, nil
}

// ByID loads a grading system by id.
func (r *GradingSystemResolver) ByID(ctx context.Context, id string) (*models.GradingSystem, error) {
	return r.load(ctx, id, func() (*models.GradingSystem, error) {
		return r.systems.FindByID(ctx, id)
	}, func() (*models.GradingSystem, error) {
		return r.seeds.FindByID(id)
	}, "grading system not found")
}

// ByCode loads a grading system by code. Codes are stored lowercased, so the lookup
// ignores case and surrounding space.
func (r *GradingSystemResolver) ByCode(ctx context.Context, code string) (*models.GradingSystem, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	return r.load(ctx, "code:"+code, func() (*models.GradingSystem, error) {
		return r.systems.FindByCode(ctx, code)
	}, func() (*models.GradingSystem, error) {
		return r.seeds.FindByCode(code)
	}, fmt.Sprintf("grading system %s not found", code))
}

// Invalidate drops every cached grading system.
func (r *GradingSystemResolver) Invalidate(ctx context.Context) error {
	return r.cache.Invalidate(ctx, gradingSystemCachePrefix+"*")
}

func (r *GradingSystemResolver) load(ctx context.Context, key string, fromStore, fromSeed func() (*models.GradingSystem, error), notFound string) (*models.GradingSystem, error) {
	cacheKey := gradingSystemCachePrefix + key
	var cached models.GradingSystem
	if hit, _ := r.cache.Get(ctx, cacheKey, &cached); hit {
		r.metrics.RecordResolution(ResolutionSourceCache)
		return &cached, nil
	}

	start := time.Now()
	system, err := fromStore()
	r.metrics.ObserveDBQuery("grading_system_lookup", time.Since(start))
	if err == nil {
		r.metrics.RecordResolution(ResolutionSourceStore)
		_ = r.cache.Set(ctx, cacheKey, system, r.cfg.CacheTTL)
		return system, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grading system")
	}

	if r.seeds != nil {
		if system, seedErr := fromSeed(); seedErr == nil {
			r.metrics.RecordResolution(ResolutionSourceSeed)
			r.logger.Debug("grading system served from reference catalog", zap.String("key", key))
			return system, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, notFound)
}
