package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-grading-api/internal/dto"
	"github.com/noah-isme/sma-grading-api/internal/grading"
	"github.com/noah-isme/sma-grading-api/internal/models"
	appErrors "github.com/noah-isme/sma-grading-api/pkg/errors"
	"github.com/noah-isme/sma-grading-api/pkg/jobs"
	"github.com/noah-isme/sma-grading-api/pkg/middleware/requestid"
)

type gradingSystemLookup interface {
	ByID(ctx context.Context, id string) (*models.GradingSystem, error)
	ByCode(ctx context.Context, code string) (*models.GradingSystem, error)
	DefaultForInstitutionType(ctx context.Context, t models.InstitutionType) (*models.GradingSystem, error)
	ForInstitution(ctx context.Context, institutionID, level string, t models.InstitutionType) (*models.GradingSystem, *models.InstitutionGradingConfig, error)
}

type batchRunner interface {
	Run(ctx context.Context, tasks []jobs.Task, handler jobs.Handler) []error
}

// GradingServiceConfig tunes evaluation.
type GradingServiceConfig struct {
	MaxBatchSize int
}

// GradingService runs grading computations. Every request binds a fresh engine, so
// the service itself holds no per-request state.
type GradingService struct {
	systems   gradingSystemLookup
	pool      batchRunner
	metrics   *MetricsService
	validator *validator.Validate
	cfg       GradingServiceConfig
	logger    *zap.Logger
}

// NewGradingService constructs the service.
func NewGradingService(systems gradingSystemLookup, pool batchRunner, metrics *MetricsService, validate *validator.Validate, cfg GradingServiceConfig, logger *zap.Logger) *GradingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = 1000
	}
	return &GradingService{systems: systems, pool: pool, metrics: metrics, validator: validate, cfg: cfg, logger: logger}
}

// Resolve picks the grading system named by selector.
func (s *GradingService) Resolve(ctx context.Context, selector dto.SystemSelector) (*models.GradingSystem, error) {
	if selector.IsEmpty() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "one of grading_system_id, grading_system_code, institution_id or institution_type is required")
	}
	switch {
	case selector.GradingSystemID != "":
		return s.systems.ByID(ctx, selector.GradingSystemID)
	case selector.GradingSystemCode != "":
		return s.systems.ByCode(ctx, selector.GradingSystemCode)
	case selector.InstitutionID != "":
		system, _, err := s.systems.ForInstitution(ctx, selector.InstitutionID, selector.Level, selector.InstitutionType)
		return system, err
	default:
		return s.systems.DefaultForInstitutionType(ctx, selector.InstitutionType)
	}
}

// Grade grades individual scores, applying the priority rule when a subject code is given.
func (s *GradingService) Grade(ctx context.Context, req dto.GradeRequest) (*dto.GradeResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	system, err := s.Resolve(ctx, req.SystemSelector)
	if err != nil {
		return nil, err
	}
	engine := grading.NewEngine(system)
	subject := normaliseSubject(req.SubjectCode)

	results := make([]dto.GradedScore, 0, len(req.Scores))
	unmatched := 0
	for _, score := range req.Scores {
		band, err := engine.GradeFor(score)
		if err != nil {
			return nil, err
		}
		graded := dto.GradedScore{Score: score, Remark: models.NoRemark}
		if band != nil {
			grade := band.Grade
			graded.Grade = &grade
			label := band.Label()
			graded.GradeLabel = &label
			graded.GPAPoints = band.GPAPoints
			graded.Points = band.Points
			graded.Remark = band.Remark
		} else {
			unmatched++
		}
		if subject != "" {
			graded.IsPassing, err = engine.IsSubjectPassing(subject, score)
		} else {
			graded.IsPassing, err = engine.IsPassing(score)
		}
		if err != nil {
			return nil, err
		}
		results = append(results, graded)
	}
	s.metrics.RecordEvaluation(system.Code, "grade", unmatched)
	return &dto.GradeResponse{GradingSystem: dto.NewSystemRef(system), Results: results}, nil
}

// Evaluate computes one student's overall result.
func (s *GradingService) Evaluate(ctx context.Context, req dto.EvaluateRequest) (*dto.EvaluateResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid evaluation payload")
	}
	system, err := s.Resolve(ctx, req.SystemSelector)
	if err != nil {
		return nil, err
	}
	result, err := s.evaluate(grading.NewEngine(system), req.SubjectScores, req.Assessments)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordEvaluation(system.Code, "evaluate", unmatchedSubjects(result))
	return &dto.EvaluateResponse{GradingSystem: dto.NewSystemRef(system), Result: result}, nil
}

// EvaluateBatch evaluates every student on the worker pool. A bad record is reported in
// its own slot and never fails the batch. Successful records are positioned by average
// using competition ranking.
func (s *GradingService) EvaluateBatch(ctx context.Context, req dto.BatchEvaluateRequest) (*dto.BatchEvaluateResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid batch payload")
	}
	if len(req.Students) > s.cfg.MaxBatchSize {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("batch exceeds %d students", s.cfg.MaxBatchSize))
	}
	system, err := s.Resolve(ctx, req.SystemSelector)
	if err != nil {
		return nil, err
	}
	start := time.Now()

	results := make([]dto.StudentResult, len(req.Students))
	tasks := make([]jobs.Task, len(req.Students))
	seen := make(map[string]int, len(req.Students))
	for i, student := range req.Students {
		tasks[i] = jobs.Task{ID: student.StudentID, Index: i, Payload: student}
		results[i].StudentID = student.StudentID
		if student.StudentID != "" {
			seen[student.StudentID]++
		}
	}

	errs := s.pool.Run(ctx, tasks, func(ctx context.Context, task jobs.Task) error {
		student := task.Payload.(dto.StudentScores)
		if student.StudentID == "" {
			return appErrors.Clone(appErrors.ErrValidation, "student_id is required")
		}
		if seen[student.StudentID] > 1 {
			return appErrors.Clone(appErrors.ErrValidation, "duplicate student_id in batch")
		}
		result, err := s.evaluate(grading.NewEngine(system), student.SubjectScores, student.Assessments)
		if err != nil {
			return err
		}
		results[task.Index].Result = result
		return nil
	})

	resp := &dto.BatchEvaluateResponse{GradingSystem: dto.NewSystemRef(system), Results: results}
	averages := make(map[string]float64, len(results))
	unmatched := 0
	for i, err := range errs {
		if err != nil {
			results[i].Result = nil
			results[i].Error = appErrors.FromError(err)
			resp.Failed++
			continue
		}
		resp.Succeeded++
		averages[results[i].StudentID] = results[i].Result.Average
		unmatched += unmatchedSubjects(results[i].Result)
	}

	ranked, err := grading.NewEngine(system).Rank(averages)
	if err != nil {
		return nil, err
	}
	for i := range results {
		if entry, ok := ranked[results[i].StudentID]; ok && results[i].Result != nil {
			position := entry.Rank
			results[i].Position = &position
		}
	}

	s.metrics.RecordEvaluation(system.Code, "evaluate_batch", unmatched)
	s.metrics.ObserveBatch(resp.Succeeded, resp.Failed, time.Since(start))
	s.logger.Info("batch evaluated",
		zap.String("grading_system", system.Code), zap.Int("succeeded", resp.Succeeded), zap.Int("failed", resp.Failed),
		zap.String("request_id", requestid.FromContext(ctx)))
	return resp, nil
}

// Rank applies competition ranking to the given scores.
func (s *GradingService) Rank(ctx context.Context, req dto.RankRequest) (*dto.RankResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rank payload")
	}
	system, err := s.Resolve(ctx, req.SystemSelector)
	if err != nil {
		return nil, err
	}
	ranked, err := grading.NewEngine(system).Rank(req.Scores)
	if err != nil {
		return nil, err
	}
	unmatched := 0
	for _, entry := range ranked {
		if entry.Grade == nil {
			unmatched++
		}
	}
	s.metrics.RecordEvaluation(system.Code, "rank", unmatched)
	return &dto.RankResponse{GradingSystem: dto.NewSystemRef(system), Rankings: ranked}, nil
}

// GPA returns GPA and plain average over raw scores.
func (s *GradingService) GPA(ctx context.Context, req dto.GPARequest) (*dto.GPAResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid gpa payload")
	}
	system, err := s.Resolve(ctx, req.SystemSelector)
	if err != nil {
		return nil, err
	}
	engine := grading.NewEngine(system)
	gpa, err := engine.GPA(req.Scores)
	if err != nil {
		return nil, err
	}
	avg, err := engine.Average(req.Scores)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordEvaluation(system.Code, "gpa", 0)
	return &dto.GPAResponse{GradingSystem: dto.NewSystemRef(system), GPA: gpa, Average: avg, Count: len(req.Scores)}, nil
}

// evaluate merges raw and assessment scores, then runs OverallResult.
func (s *GradingService) evaluate(engine *grading.Engine, subjectScores map[string]float64, assessments map[string]dto.AssessmentScore) (*models.OverallResult, error) {
	scores := make(map[string]float64, len(subjectScores)+len(assessments))
	for code, score := range subjectScores {
		scores[normaliseSubject(code)] = score
	}
	for code, a := range assessments {
		combined, err := engine.CombineAssessment(a.ContinuousAssessment, a.Exam)
		if err != nil {
			return nil, err
		}
		scores[normaliseSubject(code)] = combined
	}
	return engine.OverallResult(scores)
}

func normaliseSubject(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func unmatchedSubjects(result *models.OverallResult) int {
	if result == nil {
		return 0
	}
	n := 0
	for _, subject := range result.Subjects {
		if subject.Grade == nil {
			n++
		}
	}
	return n
}
