package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-grading-api/internal/dto"
	"github.com/noah-isme/sma-grading-api/internal/models"
	appErrors "github.com/noah-isme/sma-grading-api/pkg/errors"
	"github.com/noah-isme/sma-grading-api/pkg/response"
)

type gradingSystemService interface {
	List(ctx context.Context, filter models.GradingSystemFilter) ([]models.GradingSystem, error)
	Get(ctx context.Context, id string) (*models.GradingSystem, error)
	Create(ctx context.Context, req dto.CreateGradingSystemRequest) (*models.GradingSystem, error)
	Update(ctx context.Context, id string, req dto.UpdateGradingSystemRequest) (*models.GradingSystem, error)
	SetActive(ctx context.Context, id string, active bool) (*models.GradingSystem, error)
	Validate(ctx context.Context, id string) (*dto.BandValidationResponse, error)
}

type defaultSystemResolver interface {
	DefaultForInstitutionType(ctx context.Context, t models.InstitutionType) (*models.GradingSystem, error)
}

// GradingSystemHandler exposes grading system authoring endpoints.
type GradingSystemHandler struct {
	service  gradingSystemService
	defaults defaultSystemResolver
}

// NewGradingSystemHandler builds a new handler.
func NewGradingSystemHandler(service gradingSystemService, defaults defaultSystemResolver) *GradingSystemHandler {
	return &GradingSystemHandler{service: service, defaults: defaults}
}

// List godoc
// @Summary List grading systems
// @Tags Grading Systems
// @Produce json
// @Param type query string false "Grading system type"
// @Param active query bool false "Only active systems"
// @Param search query string false "Code or name contains"
// @Success 200 {object} response.Envelope
// @Router /grading-systems [get]
func (h *GradingSystemHandler) List(c *gin.Context) {
	filter := models.GradingSystemFilter{
		Type:   models.GradingSystemType(strings.TrimSpace(c.Query("type"))),
		Search: strings.TrimSpace(c.Query("search")),
	}
	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "active must be a boolean"))
			return
		}
		filter.ActiveOnly = active
	}
	systems, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, systems)
}

// Get godoc
// @Summary Get grading system with bands
// @Tags Grading Systems
// @Produce json
// @Param id path string true "Grading system ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /grading-systems/{id} [get]
func (h *GradingSystemHandler) Get(c *gin.Context) {
	system, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, system, nil)
}

// Create godoc
// @Summary Create grading system
// @Tags Grading Systems
// @Accept json
// @Produce json
// @Param payload body dto.CreateGradingSystemRequest true "Grading system payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /grading-systems [post]
func (h *GradingSystemHandler) Create(c *gin.Context) {
	var req dto.CreateGradingSystemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid grading system payload"))
		return
	}
	system, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, system)
}

// Update godoc
// @Summary Update grading system
// @Description Replaces fields and bands. The payload version must match the stored version; locked systems are rejected.
// @Tags Grading Systems
// @Accept json
// @Produce json
// @Param id path string true "Grading system ID"
// @Param payload body dto.UpdateGradingSystemRequest true "Grading system payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /grading-systems/{id} [put]
func (h *GradingSystemHandler) Update(c *gin.Context) {
	var req dto.UpdateGradingSystemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid grading system payload"))
		return
	}
	system, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, system, nil)
}

// Activate godoc
// @Summary Activate or deactivate grading system
// @Tags Grading Systems
// @Accept json
// @Produce json
// @Param id path string true "Grading system ID"
// @Param payload body dto.ActivateGradingSystemRequest true "Activation payload"
// @Success 200 {object} response.Envelope
// @Router /grading-systems/{id}/activate [post]
func (h *GradingSystemHandler) Activate(c *gin.Context) {
	var req dto.ActivateGradingSystemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid activation payload"))
		return
	}
	system, err := h.service.SetActive(c.Request.Context(), c.Param("id"), req.Active)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, system, nil)
}

// Validate godoc
// @Summary Check grade bands for gaps and overlaps
// @Tags Grading Systems
// @Produce json
// @Param id path string true "Grading system ID"
// @Success 200 {object} response.Envelope
// @Router /grading-systems/{id}/validate [post]
func (h *GradingSystemHandler) Validate(c *gin.Context) {
	report, err := h.service.Validate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Default godoc
// @Summary Default grading system for an institution type
// @Tags Grading Systems
// @Produce json
// @Param institutionType path string true "primary, secondary or international"
// @Success 200 {object} response.Envelope
// @Router /grading-systems/defaults/{institutionType} [get]
func (h *GradingSystemHandler) Default(c *gin.Context) {
	t := models.InstitutionType(strings.ToLower(c.Param("institutionType")))
	system, err := h.defaults.DefaultForInstitutionType(c.Request.Context(), t)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, system, nil)
}
