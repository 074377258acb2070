package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-grading-api/internal/dto"
	"github.com/noah-isme/sma-grading-api/internal/models"
	appErrors "github.com/noah-isme/sma-grading-api/pkg/errors"
)

type institutionConfigServiceMock struct {
	institutionID string
	level         string
	t             models.InstitutionType
	req           dto.InstitutionGradingConfigRequest
	err           error
}

func (m *institutionConfigServiceMock) Effective(ctx context.Context, institutionID, level string, t models.InstitutionType) (*dto.InstitutionGradingConfigResponse, error) {
	m.institutionID, m.level, m.t = institutionID, level, t
	if m.err != nil {
		return nil, m.err
	}
	return &dto.InstitutionGradingConfigResponse{InstitutionID: institutionID, Level: level, Source: "default"}, nil
}

func (m *institutionConfigServiceMock) Set(ctx context.Context, institutionID, level string, t models.InstitutionType, req dto.InstitutionGradingConfigRequest) (*dto.InstitutionGradingConfigResponse, error) {
	m.institutionID, m.level, m.t, m.req = institutionID, level, t, req
	if m.err != nil {
		return nil, m.err
	}
	return &dto.InstitutionGradingConfigResponse{InstitutionID: institutionID, Level: level, Source: "institution"}, nil
}

func TestInstitutionConfigHandlerGetDefaultsTypeToLevel(t *testing.T) {
	svc := &institutionConfigServiceMock{}
	handler := NewInstitutionConfigHandler(svc)
	c, w := newJSONContext(http.MethodGet, "/institutions/inst-1/grading-config/secondary", nil)
	c.Params = gin.Params{{Key: "id", Value: "inst-1"}, {Key: "level", Value: "secondary"}}

	handler.Get(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.InstitutionSecondary, svc.t)
	assert.Equal(t, "inst-1", svc.institutionID)
}

func TestInstitutionConfigHandlerGetTypeQuery(t *testing.T) {
	svc := &institutionConfigServiceMock{}
	handler := NewInstitutionConfigHandler(svc)
	c, w := newJSONContext(http.MethodGet, "/institutions/inst-1/grading-config/form-4?type=International", nil)
	c.Params = gin.Params{{Key: "id", Value: "inst-1"}, {Key: "level", Value: "form-4"}}

	handler.Get(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.InstitutionInternational, svc.t)
	assert.Equal(t, "form-4", svc.level)
}

func TestInstitutionConfigHandlerSet(t *testing.T) {
	svc := &institutionConfigServiceMock{}
	handler := NewInstitutionConfigHandler(svc)
	c, w := newJSONContext(http.MethodPut, "/institutions/inst-1/grading-config/primary", map[string]string{"grading_system_id": "gs-1"})
	c.Params = gin.Params{{Key: "id", Value: "inst-1"}, {Key: "level", Value: "primary"}}

	handler.Set(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gs-1", svc.req.GradingSystemID)
	assert.Contains(t, w.Body.String(), `"source":"institution"`)
}

func TestInstitutionConfigHandlerSetInactiveSystem(t *testing.T) {
	svc := &institutionConfigServiceMock{err: appErrors.Clone(appErrors.ErrPreconditionFailed, "grading system is inactive")}
	handler := NewInstitutionConfigHandler(svc)
	c, w := newJSONContext(http.MethodPut, "/institutions/inst-1/grading-config/primary", map[string]string{"grading_system_id": "gs-1"})
	c.Params = gin.Params{{Key: "id", Value: "inst-1"}, {Key: "level", Value: "primary"}}

	handler.Set(c)
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
}
