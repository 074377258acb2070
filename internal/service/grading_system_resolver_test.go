package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-grading-api/internal/models"
	"github.com/noah-isme/sma-grading-api/internal/seed"
	appErrors "github.com/noah-isme/sma-grading-api/pkg/errors"
)

func newTestResolver(store *gradingSystemStoreStub, configs *institutionConfigStub, useSeeds bool, cache *CacheService, metrics *MetricsService) *GradingSystemResolver {
	if configs == nil {
		configs = &institutionConfigStub{}
	}
	return NewGradingSystemResolver(store, configs, seed.MustLoad(), cache, metrics,
		GradingSystemResolverConfig{CacheTTL: time.Minute, UseSeedFallback: useSeeds}, zap.NewNop())
}

func TestDefaultSystemCode(t *testing.T) {
	assert.Equal(t, "malawi-primary", DefaultSystemCode(models.InstitutionPrimary))
	assert.Equal(t, "malawi-msce", DefaultSystemCode(models.InstitutionSecondary))
	assert.Equal(t, "international-standard", DefaultSystemCode(models.InstitutionInternational))
	assert.Equal(t, "malawi-primary", DefaultSystemCode("college"))
}

func TestResolverDefaultPrefersStore(t *testing.T) {
	stored := percentSystem("gs-msce", "malawi-msce")
	stored.IsSystemDefault = true
	metrics := NewMetricsService()
	resolver := newTestResolver(newGradingSystemStore(stored), nil, true, nil, metrics)

	system, err := resolver.DefaultForInstitutionType(context.Background(), models.InstitutionSecondary)
	require.NoError(t, err)
	assert.Equal(t, "gs-msce", system.ID)
	assert.Equal(t, 1.0, counterValue(t, metrics, "grading_system_resolutions_total", map[string]string{"source": ResolutionSourceStore}))
}

func TestResolverDefaultFallsBackToReferenceCatalog(t *testing.T) {
	metrics := NewMetricsService()
	resolver := newTestResolver(newGradingSystemStore(), nil, true, nil, metrics)

	system, err := resolver.DefaultForInstitutionType(context.Background(), models.InstitutionSecondary)
	require.NoError(t, err)
	assert.Equal(t, "malawi-msce", system.Code)
	assert.Equal(t, seed.SystemID("malawi-msce"), system.ID)
	assert.True(t, system.IsLocked)
	assert.NotEmpty(t, system.GradeScales)
	assert.Equal(t, 1.0, counterValue(t, metrics, "grading_system_resolutions_total", map[string]string{"source": ResolutionSourceSeed}))
}

func TestResolverIgnoresInactiveStoredDefault(t *testing.T) {
	stored := percentSystem("gs-primary", "malawi-primary")
	stored.IsSystemDefault = true
	stored.IsActive = false
	resolver := newTestResolver(newGradingSystemStore(stored), nil, true, nil, nil)

	system, err := resolver.DefaultForInstitutionType(context.Background(), models.InstitutionPrimary)
	require.NoError(t, err)
	assert.Equal(t, seed.SystemID("malawi-primary"), system.ID)
}

func TestResolverWithoutSeedFallbackReturnsNotFound(t *testing.T) {
	resolver := newTestResolver(newGradingSystemStore(), nil, false, nil, nil)

	_, err := resolver.DefaultForInstitutionType(context.Background(), models.InstitutionInternational)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestResolverStoreErrorsAreNotMaskedBySeeds(t *testing.T) {
	store := newGradingSystemStore()
	store.err = assert.AnError
	resolver := newTestResolver(store, nil, true, nil, nil)

	_, err := resolver.ByCode(context.Background(), "malawi-msce")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestResolverCachesStoreHits(t *testing.T) {
	store := newGradingSystemStore(percentSystem("gs-1", "custom"))
	cacheRepo := &memoryCacheRepo{}
	cache := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	metrics := NewMetricsService()
	resolver := newTestResolver(store, nil, true, cache, metrics)

	first, err := resolver.ByCode(context.Background(), "custom")
	require.NoError(t, err)
	second, err := resolver.ByCode(context.Background(), "custom")
	require.NoError(t, err)

	assert.Equal(t, 1, store.calls)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, second.GradeScales, 4)
	assert.Equal(t, 1.0, counterValue(t, metrics, "grading_system_resolutions_total", map[string]string{"source": ResolutionSourceCache}))

	require.NoError(t, resolver.Invalidate(context.Background()))
	assert.Equal(t, []string{"grading:system:*"}, cacheRepo.deleted)
	_, err = resolver.ByCode(context.Background(), "custom")
	require.NoError(t, err)
	assert.Equal(t, 2, store.calls)
}

func TestResolverForInstitutionUsesActiveConfig(t *testing.T) {
	custom := percentSystem("gs-custom", "custom")
	configs := &institutionConfigStub{configs: map[string]*models.InstitutionGradingConfig{
		"inst-1/secondary": {InstitutionID: "inst-1", Level: "secondary", GradingSystemID: "gs-custom", IsActive: true},
	}}
	resolver := newTestResolver(newGradingSystemStore(custom), configs, true, nil, nil)

	system, cfg, err := resolver.ForInstitution(context.Background(), "inst-1", " Secondary ", models.InstitutionSecondary)
	require.NoError(t, err)
	assert.Equal(t, "gs-custom", system.ID)
	require.NotNil(t, cfg)
	assert.Equal(t, "gs-custom", cfg.GradingSystemID)
}

func TestResolverForInstitutionFallsBackToDefault(t *testing.T) {
	inactive := percentSystem("gs-old", "old")
	inactive.IsActive = false

	tests := []struct {
		name string
		cfg  *models.InstitutionGradingConfig
	}{
		{name: "no config"},
		{name: "inactive config", cfg: &models.InstitutionGradingConfig{InstitutionID: "inst-1", GradingSystemID: "gs-old", IsActive: false}},
		{name: "inactive system", cfg: &models.InstitutionGradingConfig{InstitutionID: "inst-1", GradingSystemID: "gs-old", IsActive: true}},
		{name: "missing system", cfg: &models.InstitutionGradingConfig{InstitutionID: "inst-1", GradingSystemID: "gs-gone", IsActive: true}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resolver := newTestResolver(newGradingSystemStore(inactive), nil, true, nil, nil)
			system, err := resolver.ForInstitutionConfig(context.Background(), tc.cfg, models.InstitutionPrimary)
			require.NoError(t, err)
			assert.Equal(t, "malawi-primary", system.Code)
		})
	}
}

func TestResolverForInstitutionConfigLookupError(t *testing.T) {
	configs := &institutionConfigStub{err: assert.AnError}
	resolver := newTestResolver(newGradingSystemStore(), configs, true, nil, nil)

	_, _, err := resolver.ForInstitution(context.Background(), "inst-1", "primary", models.InstitutionPrimary)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestResolverByCodeIgnoresCaseAndSpace(t *testing.T) {
	store := newGradingSystemStore(percentSystem("gs-custom", "school-custom"))
	resolver := newTestResolver(store, nil, true, nil, NewMetricsService())

	system, err := resolver.ByCode(context.Background(), " School-CUSTOM ")
	require.NoError(t, err)
	assert.Equal(t, "gs-custom", system.ID)

	system, err = resolver.ByCode(context.Background(), "MALAWI-MSCE")
	require.NoError(t, err)
	assert.Equal(t, "malawi-msce", system.Code, "reference catalog is searched with the normalised code")
}
