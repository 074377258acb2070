package grading

import (
	"math"

	"github.com/noah-isme/sma-grading-api/internal/models"
	appErrors "github.com/noah-isme/sma-grading-api/pkg/errors"
)

const weightTolerance = 0.001

// CombineAssessment merges a continuous-assessment percentage and an exam percentage
// into one score using the bound system's assessment weighting. Without a weighting
// the two are averaged. A NaN or infinite component counts as 0.
func (e *Engine) CombineAssessment(continuous, exam float64) (float64, error) {
	if err := e.ensureBound(); err != nil {
		return 0, err
	}
	if !finite(continuous) {
		continuous = 0
	}
	if !finite(exam) {
		exam = 0
	}
	w := e.system.Settings.AssessmentWeighting
	if w == nil {
		return Mean([]float64{continuous, exam}), nil
	}
	if err := CheckWeighting(*w); err != nil {
		return 0, err
	}
	return Round2(continuous*w.ContinuousAssessment/100 + exam*w.Exam/100), nil
}

// CheckWeighting rejects weightings that do not sum to 100.
func CheckWeighting(w models.AssessmentWeighting) error {
	if w.ContinuousAssessment < 0 || w.Exam < 0 {
		return appErrors.Clone(appErrors.ErrInvalidWeights, "weights must not be negative")
	}
	if math.Abs(w.ContinuousAssessment+w.Exam-100) > weightTolerance {
		return appErrors.Clone(appErrors.ErrInvalidWeights, "weights must sum to 100")
	}
	return nil
}
