package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-grading-api/internal/dto"
	"github.com/noah-isme/sma-grading-api/internal/middleware"
	appErrors "github.com/noah-isme/sma-grading-api/pkg/errors"
	"github.com/noah-isme/sma-grading-api/pkg/response"
)

type gradingService interface {
	Grade(ctx context.Context, req dto.GradeRequest) (*dto.GradeResponse, error)
	Evaluate(ctx context.Context, req dto.EvaluateRequest) (*dto.EvaluateResponse, error)
	EvaluateBatch(ctx context.Context, req dto.BatchEvaluateRequest) (*dto.BatchEvaluateResponse, error)
	Rank(ctx context.Context, req dto.RankRequest) (*dto.RankResponse, error)
	GPA(ctx context.Context, req dto.GPARequest) (*dto.GPAResponse, error)
}

// GradingHandler exposes grading computations.
type GradingHandler struct {
	service gradingService
}

// NewGradingHandler builds a new handler.
func NewGradingHandler(service gradingService) *GradingHandler {
	return &GradingHandler{service: service}
}

// Grade godoc
// @Summary Grade scores
// @Description Looks up the band for each score. With subject_code the priority pass mark applies.
// @Tags Grading
// @Accept json
// @Produce json
// @Param payload body dto.GradeRequest true "Scores"
// @Success 200 {object} response.Envelope
// @Router /grading/grade [post]
func (h *GradingHandler) Grade(c *gin.Context) {
	var req dto.GradeRequest
	if !bindGradingPayload(c, &req) {
		return
	}
	start := time.Now()
	resp, err := h.service.Grade(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, start, resp.GradingSystem, resp)
}

// Evaluate godoc
// @Summary Evaluate one student
// @Tags Grading
// @Accept json
// @Produce json
// @Param payload body dto.EvaluateRequest true "Subject scores"
// @Success 200 {object} response.Envelope
// @Router /grading/evaluate [post]
func (h *GradingHandler) Evaluate(c *gin.Context) {
	var req dto.EvaluateRequest
	if !bindGradingPayload(c, &req) {
		return
	}
	start := time.Now()
	resp, err := h.service.Evaluate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, start, resp.GradingSystem, resp)
}

// EvaluateBatch godoc
// @Summary Evaluate many students
// @Description Records that fail carry their own error; the batch itself still succeeds.
// @Tags Grading
// @Accept json
// @Produce json
// @Param payload body dto.BatchEvaluateRequest true "Students"
// @Success 200 {object} response.Envelope
// @Router /grading/evaluate/batch [post]
func (h *GradingHandler) EvaluateBatch(c *gin.Context) {
	var req dto.BatchEvaluateRequest
	if !bindGradingPayload(c, &req) {
		return
	}
	start := time.Now()
	resp, err := h.service.EvaluateBatch(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, start, resp.GradingSystem, resp)
}

// Rank godoc
// @Summary Rank scores
// @Tags Grading
// @Accept json
// @Produce json
// @Param payload body dto.RankRequest true "Scores keyed by id"
// @Success 200 {object} response.Envelope
// @Router /grading/rank [post]
func (h *GradingHandler) Rank(c *gin.Context) {
	var req dto.RankRequest
	if !bindGradingPayload(c, &req) {
		return
	}
	start := time.Now()
	resp, err := h.service.Rank(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, start, resp.GradingSystem, resp)
}

// GPA godoc
// @Summary GPA and average of scores
// @Tags Grading
// @Accept json
// @Produce json
// @Param payload body dto.GPARequest true "Scores"
// @Success 200 {object} response.Envelope
// @Router /grading/gpa [post]
func (h *GradingHandler) GPA(c *gin.Context) {
	var req dto.GPARequest
	if !bindGradingPayload(c, &req) {
		return
	}
	start := time.Now()
	resp, err := h.service.GPA(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, start, resp.GradingSystem, resp)
}

func bindGradingPayload(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid grading payload"))
		return false
	}
	return true
}

func respond(c *gin.Context, start time.Time, system dto.SystemRef, data interface{}) {
	middleware.SetGradingSystem(c, system.Code, system.Version)
	middleware.SetProcessingTime(c, time.Since(start))
	response.JSON(c, http.StatusOK, data, nil, middleware.ExtractMeta(c))
}
