package dto

import (
	"github.com/noah-isme/sma-grading-api/internal/grading"
	"github.com/noah-isme/sma-grading-api/internal/models"
	appErrors "github.com/noah-isme/sma-grading-api/pkg/errors"
)

// GradeBandRequest describes one grade band in an authoring payload.
type GradeBandRequest struct {
	Grade      string   `json:"grade" validate:"required,max=16"`
	GradeLabel *string  `json:"grade_label,omitempty" validate:"omitempty,max=64"`
	MinScore   float64  `json:"min_score"`
	MaxScore   float64  `json:"max_score" validate:"gtefield=MinScore"`
	GPAPoints  *float64 `json:"gpa_points,omitempty" validate:"omitempty,gte=0"`
	Points     *int     `json:"points,omitempty"`
	Remark     string   `json:"remark" validate:"max=255"`
	IsPassing  bool     `json:"is_passing"`
	SortOrder  int      `json:"sort_order" validate:"gte=0"`
}

// GradingSystemFields holds the editable attributes of a grading system.
type GradingSystemFields struct {
	Name               string                    `json:"name" validate:"required,max=128"`
	Description        string                    `json:"description" validate:"max=1024"`
	Type               models.GradingSystemType  `json:"type" validate:"required,oneof=primary secondary_jce secondary_msce international higher_education"`
	ScaleType          models.ScaleType          `json:"scale_type" validate:"required,oneof=percentage numeric letter gpa points"`
	MinScore           float64                   `json:"min_score" validate:"gte=0"`
	MaxScore           float64                   `json:"max_score" validate:"gtfield=MinScore"`
	PassMark           float64                   `json:"pass_mark" validate:"gte=0,ltefield=MaxScore"`
	MinSubjectsToPass  int                       `json:"min_subjects_to_pass" validate:"gte=1"`
	PrioritySubjects   []string                  `json:"priority_subjects" validate:"dive,required,max=32"`
	CertificationRules models.CertificationRules `json:"certification_rules"`
	ProgressionRules   models.ProgressionRules   `json:"progression_rules"`
	Settings           models.GradingSettings    `json:"settings"`
	Bands              []GradeBandRequest        `json:"bands" validate:"required,min=1,dive"`
}

// CreateGradingSystemRequest is the POST /grading-systems payload.
type CreateGradingSystemRequest struct {
	Code string `json:"code" validate:"required,max=64"`
	GradingSystemFields
}

// UpdateGradingSystemRequest is the PUT /grading-systems/:id payload. Version must
// match the stored version.
type UpdateGradingSystemRequest struct {
	Version int `json:"version" validate:"required,gte=1"`
	GradingSystemFields
}

// ActivateGradingSystemRequest toggles a system's active flag.
type ActivateGradingSystemRequest struct {
	Active bool `json:"active"`
}

// BandValidationResponse is returned by the validate endpoint.
type BandValidationResponse struct {
	GradingSystemID string              `json:"grading_system_id"`
	Valid           bool                `json:"valid"`
	Issues          []grading.BandIssue `json:"issues"`
}

// SystemSelector picks the grading system an evaluation runs against. The first
// populated field wins: grading_system_id, grading_system_code, institution_id,
// then institution_type alone.
type SystemSelector struct {
	GradingSystemID   string                 `json:"grading_system_id,omitempty"`
	GradingSystemCode string                 `json:"grading_system_code,omitempty"`
	InstitutionID     string                 `json:"institution_id,omitempty"`
	Level             string                 `json:"level,omitempty"`
	InstitutionType   models.InstitutionType `json:"institution_type,omitempty"`
}

// IsEmpty reports whether no selector field is set.
func (s SystemSelector) IsEmpty() bool {
	return s.GradingSystemID == "" && s.GradingSystemCode == "" && s.InstitutionID == "" && s.InstitutionType == ""
}

// AssessmentScore is a continuous-assessment and exam pair, both in percent.
type AssessmentScore struct {
	ContinuousAssessment float64 `json:"continuous_assessment" validate:"gte=0,lte=100"`
	Exam                 float64 `json:"exam" validate:"gte=0,lte=100"`
}

// GradeRequest grades individual scores.
type GradeRequest struct {
	SystemSelector
	SubjectCode string    `json:"subject_code,omitempty"`
	Scores      []float64 `json:"scores" validate:"required,min=1"`
}

// GradedScore is the outcome for one score of a GradeRequest.
type GradedScore struct {
	Score      float64  `json:"score"`
	Grade      *string  `json:"grade"`
	GradeLabel *string  `json:"grade_label,omitempty"`
	GPAPoints  *float64 `json:"gpa_points,omitempty"`
	Points     *int     `json:"points,omitempty"`
	Remark     string   `json:"remark"`
	IsPassing  bool     `json:"is_passing"`
}

// GradeResponse wraps graded scores with the system used.
type GradeResponse struct {
	GradingSystem SystemRef     `json:"grading_system"`
	Results       []GradedScore `json:"results"`
}

// EvaluateRequest evaluates one student's subjects. Assessments, when present, are
// combined with the system's weighting and override subject_scores for the same code.
type EvaluateRequest struct {
	SystemSelector
	SubjectScores map[string]float64         `json:"subject_scores"`
	Assessments   map[string]AssessmentScore `json:"assessments,omitempty" validate:"omitempty,dive"`
}

// EvaluateResponse is the overall result plus the system used.
type EvaluateResponse struct {
	GradingSystem SystemRef             `json:"grading_system"`
	Result        *models.OverallResult `json:"result"`
}

// StudentScores is one record of a batch evaluation.
type StudentScores struct {
	StudentID     string                     `json:"student_id"`
	SubjectScores map[string]float64         `json:"subject_scores"`
	Assessments   map[string]AssessmentScore `json:"assessments,omitempty" validate:"omitempty,dive"`
}

// BatchEvaluateRequest evaluates many students under one system.
type BatchEvaluateRequest struct {
	SystemSelector
	Students []StudentScores `json:"students" validate:"required,min=1,dive"`
}

// StudentResult is one record's outcome. Exactly one of Result and Error is set.
type StudentResult struct {
	StudentID string                `json:"student_id"`
	Result    *models.OverallResult `json:"result,omitempty"`
	Position  *int                  `json:"position,omitempty"`
	Error     *appErrors.Error      `json:"error,omitempty"`
}

// BatchEvaluateResponse aggregates a batch evaluation. Positions rank successful
// records by average.
type BatchEvaluateResponse struct {
	GradingSystem SystemRef       `json:"grading_system"`
	Results       []StudentResult `json:"results"`
	Succeeded     int             `json:"succeeded"`
	Failed        int             `json:"failed"`
}

// RankRequest ranks identifiers by score.
type RankRequest struct {
	SystemSelector
	Scores map[string]float64 `json:"scores" validate:"required"`
}

// RankResponse holds a competition ranking keyed by the caller's identifiers.
type RankResponse struct {
	GradingSystem SystemRef                      `json:"grading_system"`
	Rankings      map[string]models.RankedResult `json:"rankings"`
}

// GPARequest computes GPA and average over raw scores.
type GPARequest struct {
	SystemSelector
	Scores []float64 `json:"scores" validate:"required,min=1"`
}

// GPAResponse carries GPA and plain average.
type GPAResponse struct {
	GradingSystem SystemRef `json:"grading_system"`
	GPA           float64   `json:"gpa"`
	Average       float64   `json:"average"`
	Count         int       `json:"count"`
}

// SystemRef identifies the grading system a computation used.
type SystemRef struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	Name    string `json:"name"`
	Version int    `json:"version"`
}

// NewSystemRef builds a SystemRef.
func NewSystemRef(system *models.GradingSystem) SystemRef {
	if system == nil {
		return SystemRef{}
	}
	return SystemRef{ID: system.ID, Code: system.Code, Name: system.Name, Version: system.Version}
}

// InstitutionGradingConfigRequest sets an institution's grading system for a level.
type InstitutionGradingConfigRequest struct {
	GradingSystemID string `json:"grading_system_id" validate:"required"`
	IsActive        *bool  `json:"is_active,omitempty"`
}

// InstitutionGradingConfigResponse reports the effective system for an institution
// level and where it came from.
type InstitutionGradingConfigResponse struct {
	InstitutionID string                           `json:"institution_id"`
	Level         string                           `json:"level"`
	Source        string                           `json:"source"`
	Config        *models.InstitutionGradingConfig `json:"config,omitempty"`
	GradingSystem *models.GradingSystem            `json:"grading_system"`
}
