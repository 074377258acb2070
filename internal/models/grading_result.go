package models

// NoRemark is returned wherever a score matches no grade band.
const NoRemark = "N/A"

// SubjectResult is the graded outcome for one subject.
type SubjectResult struct {
	SubjectCode string   `json:"subject_code"`
	Score       float64  `json:"score"`
	Grade       *string  `json:"grade"`
	GradeLabel  *string  `json:"grade_label,omitempty"`
	GPAPoints   *float64 `json:"gpa_points,omitempty"`
	Points      *int     `json:"points,omitempty"`
	Remark      string   `json:"remark"`
	IsPassing   bool     `json:"is_passing"`
	IsPriority  bool     `json:"is_priority"`
}

// OverallResult aggregates a student's subject results under one grading system.
type OverallResult struct {
	Subjects                   []SubjectResult `json:"subjects"`
	SubjectCount               int             `json:"subject_count"`
	PassingCount               int             `json:"passing_count"`
	FailingCount               int             `json:"failing_count"`
	PrioritySubjectsPassed     int             `json:"priority_subjects_passed"`
	PrioritySubjectsTotal      int             `json:"priority_subjects_total"`
	TotalScore                 float64         `json:"total_score"`
	Average                    float64         `json:"average"`
	OverallGrade               *string         `json:"overall_grade"`
	OverallRemark              string          `json:"overall_remark"`
	GPA                        float64         `json:"gpa"`
	MeetsPromotionCriteria     bool            `json:"meets_promotion_criteria"`
	MeetsCertificationCriteria bool            `json:"meets_certification_criteria"`
}

// RankedResult is one entry of a competition ranking.
type RankedResult struct {
	Score float64 `json:"score"`
	Rank  int     `json:"rank"`
	Grade *string `json:"grade"`
}
