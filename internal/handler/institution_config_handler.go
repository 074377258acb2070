package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-grading-api/internal/dto"
	"github.com/noah-isme/sma-grading-api/internal/models"
	appErrors "github.com/noah-isme/sma-grading-api/pkg/errors"
	"github.com/noah-isme/sma-grading-api/pkg/response"
)

type institutionConfigService interface {
	Effective(ctx context.Context, institutionID, level string, t models.InstitutionType) (*dto.InstitutionGradingConfigResponse, error)
	Set(ctx context.Context, institutionID, level string, t models.InstitutionType, req dto.InstitutionGradingConfigRequest) (*dto.InstitutionGradingConfigResponse, error)
}

// InstitutionConfigHandler exposes per-institution grading system selection.
type InstitutionConfigHandler struct {
	service institutionConfigService
}

// NewInstitutionConfigHandler builds a new handler.
func NewInstitutionConfigHandler(service institutionConfigService) *InstitutionConfigHandler {
	return &InstitutionConfigHandler{service: service}
}

// Get godoc
// @Summary Effective grading system for an institution level
// @Tags Institutions
// @Produce json
// @Param id path string true "Institution ID"
// @Param level path string true "Level"
// @Param type query string false "Institution type used for the default; defaults to level"
// @Success 200 {object} response.Envelope
// @Router /institutions/{id}/grading-config/{level} [get]
func (h *InstitutionConfigHandler) Get(c *gin.Context) {
	resp, err := h.service.Effective(c.Request.Context(), c.Param("id"), c.Param("level"), institutionType(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// Set godoc
// @Summary Choose the grading system for an institution level
// @Tags Institutions
// @Accept json
// @Produce json
// @Param id path string true "Institution ID"
// @Param level path string true "Level"
// @Param type query string false "Institution type used for the default; defaults to level"
// @Param payload body dto.InstitutionGradingConfigRequest true "Configuration"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /institutions/{id}/grading-config/{level} [put]
func (h *InstitutionConfigHandler) Set(c *gin.Context) {
	var req dto.InstitutionGradingConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid grading config payload"))
		return
	}
	resp, err := h.service.Set(c.Request.Context(), c.Param("id"), c.Param("level"), institutionType(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// institutionType reads ?type=, falling back to the level path segment.
func institutionType(c *gin.Context) models.InstitutionType {
	raw := c.Query("type")
	if raw == "" {
		raw = c.Param("level")
	}
	return models.InstitutionType(strings.ToLower(strings.TrimSpace(raw)))
}
