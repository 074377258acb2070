// Package grading maps raw subject scores to grades, GPA, pass/fail decisions and
// promotion or certification eligibility under a configurable grading system.
//
// The engine is pure: it reads a bound *models.GradingSystem and never touches storage.
// A score that no band covers is not an error; it grades as "no match", which counts as
// failing and contributes nothing to GPA. NaN and infinite scores are treated the same
// way. Computations fail only with appErrors.ErrGradingSystemNotBound, plus
// appErrors.ErrInvalidWeights from CombineAssessment.
package grading

import (
	"sort"

	"github.com/noah-isme/sma-grading-api/internal/models"
	appErrors "github.com/noah-isme/sma-grading-api/pkg/errors"
)

// Engine evaluates scores against one bound grading system.
//
// An Engine is not safe for concurrent use. Create one per computation unit with
// NewEngine; construction is cheap.
type Engine struct {
	system *models.GradingSystem
	bands  []models.GradeScale
}

// NewEngine returns an engine bound to system.
func NewEngine(system *models.GradingSystem) *Engine {
	return (&Engine{}).Bind(system)
}

// Bind replaces the active grading system and snapshots its bands in ascending
// sort_order. Bands sharing a sort_order keep their authored order. Binding nil
// leaves the engine unbound.
func (e *Engine) Bind(system *models.GradingSystem) *Engine {
	if system == nil {
		e.system, e.bands = nil, nil
		return e
	}
	bands := make([]models.GradeScale, len(system.GradeScales))
	copy(bands, system.GradeScales)
	sort.SliceStable(bands, func(i, j int) bool {
		return bands[i].SortOrder < bands[j].SortOrder
	})
	e.system = system
	e.bands = bands
	return e
}

func (e *Engine) ensureBound() error {
	if e == nil || e.system == nil {
		return appErrors.ErrGradingSystemNotBound
	}
	return nil
}

// match is the unguarded band lookup. Lowest sort_order wins when bands overlap.
func (e *Engine) match(score float64) *models.GradeScale {
	for i := range e.bands {
		if e.bands[i].Contains(score) {
			band := e.bands[i]
			return &band
		}
	}
	return nil
}

// GradeFor returns the band containing score, or nil when no band covers it.
func (e *Engine) GradeFor(score float64) (*models.GradeScale, error) {
	if err := e.ensureBound(); err != nil {
		return nil, err
	}
	return e.match(score), nil
}

// GPA averages the gpa_points of each score's band. Scores whose band is missing or
// has no gpa_points are left out of the denominator.
func (e *Engine) GPA(scores []float64) (float64, error) {
	if err := e.ensureBound(); err != nil {
		return 0, err
	}
	points := make([]float64, 0, len(scores))
	for _, score := range scores {
		if band := e.match(score); band != nil && band.GPAPoints != nil {
			points = append(points, *band.GPAPoints)
		}
	}
	return Mean(points), nil
}

// Average is the plain mean of raw scores, rounded to 2 decimals.
func (e *Engine) Average(scores []float64) (float64, error) {
	if err := e.ensureBound(); err != nil {
		return 0, err
	}
	return Mean(scores), nil
}

// IsPassing reports the matched band's is_passing flag; false when unmatched.
func (e *Engine) IsPassing(score float64) (bool, error) {
	if err := e.ensureBound(); err != nil {
		return false, err
	}
	return e.isPassing(score), nil
}

func (e *Engine) isPassing(score float64) bool {
	band := e.match(score)
	return band != nil && band.IsPassing
}

// IsSubjectPassing applies the priority pass mark on top of the band flag for
// priority subjects.
func (e *Engine) IsSubjectPassing(subjectCode string, score float64) (bool, error) {
	if err := e.ensureBound(); err != nil {
		return false, err
	}
	return e.isSubjectPassing(subjectCode, score), nil
}

func (e *Engine) isSubjectPassing(subjectCode string, score float64) bool {
	if !e.isPassing(score) {
		return false
	}
	if e.system.IsPrioritySubject(subjectCode) {
		return score >= e.system.PriorityPassMark()
	}
	return true
}

// RemarkFor returns the matched band's remark, or models.NoRemark.
func (e *Engine) RemarkFor(score float64) (string, error) {
	if err := e.ensureBound(); err != nil {
		return "", err
	}
	return e.remarkFor(score), nil
}

func (e *Engine) remarkFor(score float64) string {
	if band := e.match(score); band != nil {
		return band.Remark
	}
	return models.NoRemark
}

// MeetsPromotionCriteria decides promotion for a student's subject scores.
// An empty score map never qualifies.
func (e *Engine) MeetsPromotionCriteria(subjectScores map[string]float64) (bool, error) {
	if err := e.ensureBound(); err != nil {
		return false, err
	}
	return e.meetsPromotion(subjectScores), nil
}

func (e *Engine) meetsPromotion(subjectScores map[string]float64) bool {
	if len(subjectScores) == 0 {
		return false
	}
	passing := 0
	allPriorityPassed := true
	scores := make([]float64, 0, len(subjectScores))
	for code, score := range subjectScores {
		scores = append(scores, score)
		ok := e.isSubjectPassing(code, score)
		if ok {
			passing++
		}
		if !ok && e.system.IsPrioritySubject(code) {
			allPriorityPassed = false
		}
	}
	if e.system.RequirePriorityPass() && !allPriorityPassed {
		return false
	}
	if minAvg := e.system.ProgressionRules.MinAverage; minAvg != nil && Mean(scores) < *minAvg {
		return false
	}
	return passing >= e.system.MinSubjectsToPass
}

// MeetsCertificationCriteria decides certificate eligibility. Without certification
// rules it is exactly MeetsPromotionCriteria.
func (e *Engine) MeetsCertificationCriteria(subjectScores map[string]float64) (bool, error) {
	if err := e.ensureBound(); err != nil {
		return false, err
	}
	return e.meetsCertification(subjectScores), nil
}

func (e *Engine) meetsCertification(subjectScores map[string]float64) bool {
	rules := e.system.CertificationRules
	if rules.IsEmpty() {
		return e.meetsPromotion(subjectScores)
	}
	if len(subjectScores) == 0 {
		return false
	}

	minSubjects := e.system.MinSubjectsToPass
	if rules.MinSubjects != nil {
		minSubjects = *rules.MinSubjects
	}
	minPriority := len(rules.PrioritySubjectsRequired)
	if rules.MinPrioritySubjects != nil {
		minPriority = *rules.MinPrioritySubjects
	}

	passing, priorityPassed := 0, 0
	for code, score := range subjectScores {
		if !e.certifies(code, score, rules.MaxGradeValue) {
			continue
		}
		passing++
		if rules.PrioritySubjectsRequired.Contains(code) {
			priorityPassed++
		}
	}
	return passing >= minSubjects && priorityPassed >= minPriority
}

// certifies is isSubjectPassing plus the optional cutoff on band points.
func (e *Engine) certifies(code string, score float64, maxGradeValue *int) bool {
	if !e.isSubjectPassing(code, score) {
		return false
	}
	if maxGradeValue == nil {
		return true
	}
	band := e.match(score)
	return band != nil && band.Points != nil && *band.Points <= *maxGradeValue
}

// OverallResult grades every subject and aggregates the outcome. Subjects are
// returned sorted by code. NaN and infinite scores match no band and add nothing to
// the total or average.
func (e *Engine) OverallResult(subjectScores map[string]float64) (*models.OverallResult, error) {
	if err := e.ensureBound(); err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(subjectScores))
	for code := range subjectScores {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	result := &models.OverallResult{
		Subjects:      make([]models.SubjectResult, 0, len(codes)),
		OverallRemark: models.NoRemark,
	}
	scores := make([]float64, 0, len(codes))
	gpaPoints := make([]float64, 0, len(codes))

	for _, code := range codes {
		score := subjectScores[code]
		subject := e.subjectResult(code, score)
		result.Subjects = append(result.Subjects, subject)

		scores = append(scores, score)
		if finite(score) {
			result.TotalScore += score
		}
		if subject.GPAPoints != nil {
			gpaPoints = append(gpaPoints, *subject.GPAPoints)
		}
		if subject.IsPassing {
			result.PassingCount++
		} else {
			result.FailingCount++
		}
		if subject.IsPriority {
			result.PrioritySubjectsTotal++
			if subject.IsPassing {
				result.PrioritySubjectsPassed++
			}
		}
	}

	result.SubjectCount = len(codes)
	result.TotalScore = Round2(result.TotalScore)
	result.Average = Mean(scores)
	result.GPA = Mean(gpaPoints)
	if result.SubjectCount > 0 {
		if band := e.match(result.Average); band != nil {
			grade := band.Grade
			result.OverallGrade = &grade
			result.OverallRemark = band.Remark
		}
	}
	result.MeetsPromotionCriteria = e.meetsPromotion(subjectScores)
	result.MeetsCertificationCriteria = e.meetsCertification(subjectScores)
	return result, nil
}

func (e *Engine) subjectResult(code string, score float64) models.SubjectResult {
	subject := models.SubjectResult{
		SubjectCode: code,
		Score:       score,
		Remark:      models.NoRemark,
		IsPassing:   e.isSubjectPassing(code, score),
		IsPriority:  e.system.IsPrioritySubject(code),
	}
	if band := e.match(score); band != nil {
		grade := band.Grade
		subject.Grade = &grade
		label := band.Label()
		subject.GradeLabel = &label
		subject.GPAPoints = band.GPAPoints
		subject.Points = band.Points
		subject.Remark = band.Remark
	}
	return subject
}

// Rank applies standard competition ranking (1, 1, 3) by descending score. Equal
// scores share a rank; result keys are the caller's identifiers.
func (e *Engine) Rank(scores map[string]float64) (map[string]models.RankedResult, error) {
	if err := e.ensureBound(); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if scores[ids[i]] != scores[ids[j]] {
			return scores[ids[i]] > scores[ids[j]]
		}
		return ids[i] < ids[j]
	})

	ranked := make(map[string]models.RankedResult, len(ids))
	rank := 0
	for i, id := range ids {
		score := scores[id]
		if i == 0 || score != scores[ids[i-1]] {
			rank = i + 1
		}
		entry := models.RankedResult{Score: score, Rank: rank}
		if band := e.match(score); band != nil {
			grade := band.Grade
			entry.Grade = &grade
		}
		ranked[id] = entry
	}
	return ranked, nil
}
