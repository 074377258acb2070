package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// GradingSystemType classifies the level a grading system is designed for.
type GradingSystemType string

const (
	GradingSystemPrimary         GradingSystemType = "primary"
	GradingSystemSecondaryJCE    GradingSystemType = "secondary_jce"
	GradingSystemSecondaryMSCE   GradingSystemType = "secondary_msce"
	GradingSystemInternational   GradingSystemType = "international"
	GradingSystemHigherEducation GradingSystemType = "higher_education"
)

// ScaleType describes how grade symbols relate to scores.
type ScaleType string

const (
	ScaleTypePercentage ScaleType = "percentage"
	ScaleTypeNumeric    ScaleType = "numeric"
	ScaleTypeLetter     ScaleType = "letter"
	ScaleTypeGPA        ScaleType = "gpa"
	ScaleTypePoints     ScaleType = "points"
)

// SettingsSchemaVersion is the current version of the typed policy documents.
const SettingsSchemaVersion = 1

// GradingSystem is a named, versioned grading policy with its ordered grade bands.
type GradingSystem struct {
	ID                 string             `db:"id" json:"id"`
	Code               string             `db:"code" json:"code"`
	Name               string             `db:"name" json:"name"`
	Description        string             `db:"description" json:"description"`
	Type               GradingSystemType  `db:"type" json:"type"`
	ScaleType          ScaleType          `db:"scale_type" json:"scale_type"`
	MinScore           float64            `db:"min_score" json:"min_score"`
	MaxScore           float64            `db:"max_score" json:"max_score"`
	PassMark           float64            `db:"pass_mark" json:"pass_mark"`
	MinSubjectsToPass  int                `db:"min_subjects_to_pass" json:"min_subjects_to_pass"`
	PrioritySubjects   SubjectCodes       `db:"priority_subjects" json:"priority_subjects"`
	CertificationRules CertificationRules `db:"certification_rules" json:"certification_rules"`
	ProgressionRules   ProgressionRules   `db:"progression_rules" json:"progression_rules"`
	Settings           GradingSettings    `db:"settings" json:"settings"`
	IsSystemDefault    bool               `db:"is_system_default" json:"is_system_default"`
	IsLocked           bool               `db:"is_locked" json:"is_locked"`
	IsActive           bool               `db:"is_active" json:"is_active"`
	Version            int                `db:"version" json:"version"`
	CreatedAt          time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time          `db:"updated_at" json:"updated_at"`
	GradeScales        []GradeScale       `db:"-" json:"grade_scales,omitempty"`
}

// IsPrioritySubject reports whether code is configured as a priority subject.
func (g *GradingSystem) IsPrioritySubject(code string) bool {
	return g.PrioritySubjects.Contains(code)
}

// PriorityPassMark returns settings.priority_pass_mark, falling back to the pass mark.
func (g *GradingSystem) PriorityPassMark() float64 {
	if g.Settings.PriorityPassMark != nil {
		return *g.Settings.PriorityPassMark
	}
	return g.PassMark
}

// RequirePriorityPass resolves the flag from settings, then progression rules, defaulting to true.
func (g *GradingSystem) RequirePriorityPass() bool {
	if g.Settings.RequirePriorityPass != nil {
		return *g.Settings.RequirePriorityPass
	}
	if g.ProgressionRules.RequirePriorityPass != nil {
		return *g.ProgressionRules.RequirePriorityPass
	}
	return true
}

// GradeScale is one band of a grading system. Bounds are inclusive.
type GradeScale struct {
	ID              string   `db:"id" json:"id"`
	GradingSystemID string   `db:"grading_system_id" json:"grading_system_id"`
	Grade           string   `db:"grade" json:"grade"`
	GradeLabel      *string  `db:"grade_label" json:"grade_label,omitempty"`
	MinScore        float64  `db:"min_score" json:"min_score"`
	MaxScore        float64  `db:"max_score" json:"max_score"`
	GPAPoints       *float64 `db:"gpa_points" json:"gpa_points,omitempty"`
	Points          *int     `db:"points" json:"points,omitempty"`
	Remark          string   `db:"remark" json:"remark"`
	IsPassing       bool     `db:"is_passing" json:"is_passing"`
	SortOrder       int      `db:"sort_order" json:"sort_order"`
}

// Contains reports whether score falls inside the band.
func (s GradeScale) Contains(score float64) bool {
	return s.MinScore <= score && score <= s.MaxScore
}

// Label returns the long grade label, or the grade code when none is set.
func (s GradeScale) Label() string {
	if s.GradeLabel != nil && *s.GradeLabel != "" {
		return *s.GradeLabel
	}
	return s.Grade
}

// SubjectCodes is a set of subject codes persisted as a JSON array.
type SubjectCodes []string

// Contains reports whether code is present.
func (c SubjectCodes) Contains(code string) bool {
	for _, existing := range c {
		if existing == code {
			return true
		}
	}
	return false
}

// Value marshals the codes for persistence.
func (c SubjectCodes) Value() (driver.Value, error) {
	if c == nil {
		c = SubjectCodes{}
	}
	return marshalJSON("subject codes", c)
}

// Scan unmarshals a JSON array of subject codes.
func (c *SubjectCodes) Scan(value interface{}) error {
	*c = SubjectCodes{}
	return scanJSON("subject codes", value, c)
}

// GradingSettings holds the engine-tunable knobs of a grading system.
type GradingSettings struct {
	SchemaVersion       int                  `json:"schema_version"`
	PriorityPassMark    *float64             `json:"priority_pass_mark,omitempty"`
	RequirePriorityPass *bool                `json:"require_priority_pass,omitempty"`
	AssessmentWeighting *AssessmentWeighting `json:"assessment_weighting,omitempty"`
	ScoreGranularity    *float64             `json:"score_granularity,omitempty"`
}

// AssessmentWeighting splits a final mark between continuous assessment and the exam, in percent.
type AssessmentWeighting struct {
	ContinuousAssessment float64 `json:"continuous_assessment" yaml:"continuous_assessment" validate:"gte=0,lte=100"`
	Exam                 float64 `json:"exam" yaml:"exam" validate:"gte=0,lte=100"`
}

// Granularity returns the score step used when checking band gaps. Defaults to 1.
func (s GradingSettings) Granularity() float64 {
	if s.ScoreGranularity != nil && *s.ScoreGranularity > 0 {
		return *s.ScoreGranularity
	}
	return 1
}

// Value marshals settings to JSON.
func (s GradingSettings) Value() (driver.Value, error) {
	if s.SchemaVersion == 0 {
		s.SchemaVersion = SettingsSchemaVersion
	}
	return marshalJSON("grading settings", s)
}

// Scan unmarshals settings JSON.
func (s *GradingSettings) Scan(value interface{}) error {
	*s = GradingSettings{}
	return scanJSON("grading settings", value, s)
}

// CertificationRules is the rule set for awarding a certificate.
type CertificationRules struct {
	SchemaVersion            int          `json:"schema_version"`
	MinSubjects              *int         `json:"min_subjects,omitempty"`
	PrioritySubjectsRequired SubjectCodes `json:"priority_subjects_required,omitempty"`
	MinPrioritySubjects      *int         `json:"min_priority_subjects,omitempty"`
	MaxGradeValue            *int         `json:"max_grade_value,omitempty"`
}

// IsEmpty reports whether no certification rule has been configured.
func (r CertificationRules) IsEmpty() bool {
	return r.MinSubjects == nil && len(r.PrioritySubjectsRequired) == 0 && r.MinPrioritySubjects == nil && r.MaxGradeValue == nil
}

// Value marshals rules to JSON.
func (r CertificationRules) Value() (driver.Value, error) {
	if r.SchemaVersion == 0 {
		r.SchemaVersion = SettingsSchemaVersion
	}
	return marshalJSON("certification rules", r)
}

// Scan unmarshals rules JSON.
func (r *CertificationRules) Scan(value interface{}) error {
	*r = CertificationRules{}
	return scanJSON("certification rules", value, r)
}

// ProgressionRules is the rule set for promoting a student to the next level.
type ProgressionRules struct {
	SchemaVersion       int      `json:"schema_version"`
	RequirePriorityPass *bool    `json:"require_priority_pass,omitempty"`
	MinAverage          *float64 `json:"min_average,omitempty"`
}

// Value marshals rules to JSON.
func (r ProgressionRules) Value() (driver.Value, error) {
	if r.SchemaVersion == 0 {
		r.SchemaVersion = SettingsSchemaVersion
	}
	return marshalJSON("progression rules", r)
}

// Scan unmarshals rules JSON.
func (r *ProgressionRules) Scan(value interface{}) error {
	*r = ProgressionRules{}
	return scanJSON("progression rules", value, r)
}

// GradingSystemFilter scopes grading system listings.
type GradingSystemFilter struct {
	Type       GradingSystemType
	ActiveOnly bool
	Search     string
}

func marshalJSON(what string, v interface{}) (driver.Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", what, err)
	}
	return data, nil
}

func scanJSON(what string, value interface{}, dest interface{}) error {
	if value == nil {
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for %s", value, what)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshal %s: %w", what, err)
	}
	return nil
}
