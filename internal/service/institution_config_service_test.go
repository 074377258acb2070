package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-grading-api/internal/dto"
	"github.com/noah-isme/sma-grading-api/internal/models"
	"github.com/noah-isme/sma-grading-api/internal/seed"
	appErrors "github.com/noah-isme/sma-grading-api/pkg/errors"
)

func TestInstitutionConfigServiceEffectiveDefault(t *testing.T) {
	configs := &institutionConfigStub{}
	resolver := newTestResolver(newGradingSystemStore(), configs, true, nil, nil)
	svc := NewInstitutionConfigService(configs, resolver, nil, nil)

	resp, err := svc.Effective(context.Background(), "inst-1", "Secondary", models.InstitutionSecondary)
	require.NoError(t, err)
	assert.Equal(t, ConfigSourceDefault, resp.Source)
	assert.Equal(t, "secondary", resp.Level)
	assert.Nil(t, resp.Config)
	assert.Equal(t, seed.SystemID("malawi-msce"), resp.GradingSystem.ID)
}

func TestInstitutionConfigServiceSet(t *testing.T) {
	configs := &institutionConfigStub{}
	store := newGradingSystemStore(percentSystem("gs-custom", "custom"))
	resolver := newTestResolver(store, configs, true, nil, nil)
	svc := NewInstitutionConfigService(configs, resolver, nil, nil)

	resp, err := svc.Set(context.Background(), "inst-1", "SECONDARY", models.InstitutionSecondary,
		dto.InstitutionGradingConfigRequest{GradingSystemID: "gs-custom"})
	require.NoError(t, err)
	require.Len(t, configs.upserted, 1)
	assert.Equal(t, "secondary", configs.upserted[0].Level)
	assert.True(t, configs.upserted[0].IsActive)
	assert.Equal(t, ConfigSourceInstitution, resp.Source)
	assert.Equal(t, "gs-custom", resp.GradingSystem.ID)
}

func TestInstitutionConfigServiceSetInactiveConfigUsesDefault(t *testing.T) {
	configs := &institutionConfigStub{}
	store := newGradingSystemStore(percentSystem("gs-custom", "custom"))
	resolver := newTestResolver(store, configs, true, nil, nil)
	svc := NewInstitutionConfigService(configs, resolver, nil, nil)

	disabled := false
	resp, err := svc.Set(context.Background(), "inst-1", "primary", models.InstitutionPrimary,
		dto.InstitutionGradingConfigRequest{GradingSystemID: "gs-custom", IsActive: &disabled})
	require.NoError(t, err)
	assert.Equal(t, ConfigSourceDefault, resp.Source)
	assert.Equal(t, "malawi-primary", resp.GradingSystem.Code)
}

func TestInstitutionConfigServiceSetRejectsInactiveSystem(t *testing.T) {
	inactive := percentSystem("gs-old", "old")
	inactive.IsActive = false
	configs := &institutionConfigStub{}
	resolver := newTestResolver(newGradingSystemStore(inactive), configs, true, nil, nil)
	svc := NewInstitutionConfigService(configs, resolver, nil, nil)

	_, err := svc.Set(context.Background(), "inst-1", "primary", models.InstitutionPrimary,
		dto.InstitutionGradingConfigRequest{GradingSystemID: "gs-old"})
	assert.ErrorIs(t, err, appErrors.ErrPreconditionFailed)
	assert.Empty(t, configs.upserted)
}

func TestInstitutionConfigServiceSetValidation(t *testing.T) {
	configs := &institutionConfigStub{}
	resolver := newTestResolver(newGradingSystemStore(), configs, true, nil, nil)
	svc := NewInstitutionConfigService(configs, resolver, nil, nil)

	_, err := svc.Set(context.Background(), "inst-1", "primary", models.InstitutionPrimary, dto.InstitutionGradingConfigRequest{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Set(context.Background(), "inst-1", " ", models.InstitutionPrimary, dto.InstitutionGradingConfigRequest{GradingSystemID: "gs-1"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Set(context.Background(), "inst-1", "primary", models.InstitutionPrimary, dto.InstitutionGradingConfigRequest{GradingSystemID: "gs-missing"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
