// Package seed holds the reference grading scales shipped with the service. Each scale
// is a YAML document under scales/ and is embedded into the binary.
package seed

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/sma-grading-api/internal/models"
	appErrors "github.com/noah-isme/sma-grading-api/pkg/errors"
)

//go:embed scales/*.yaml
var scaleFiles embed.FS

// Namespace derives stable ids for seeded systems and bands, so re-seeding a database
// produces the same ids every time.
var Namespace = uuid.MustParse("6f1c1a8e-3d1b-4f0c-9a57-2b8f1d6e4c30")

type scaleDocument struct {
	Code               string                   `yaml:"code"`
	Name               string                   `yaml:"name"`
	Description        string                   `yaml:"description"`
	Type               models.GradingSystemType `yaml:"type"`
	ScaleType          models.ScaleType         `yaml:"scale_type"`
	MinScore           float64                  `yaml:"min_score"`
	MaxScore           float64                  `yaml:"max_score"`
	PassMark           float64                  `yaml:"pass_mark"`
	MinSubjectsToPass  int                      `yaml:"min_subjects_to_pass"`
	PrioritySubjects   []string                 `yaml:"priority_subjects"`
	Settings           settingsDocument         `yaml:"settings"`
	CertificationRules certificationDocument    `yaml:"certification_rules"`
	ProgressionRules   progressionDocument      `yaml:"progression_rules"`
	Bands              []bandDocument           `yaml:"bands"`
}

type settingsDocument struct {
	PriorityPassMark    *float64                    `yaml:"priority_pass_mark"`
	RequirePriorityPass *bool                       `yaml:"require_priority_pass"`
	AssessmentWeighting *models.AssessmentWeighting `yaml:"assessment_weighting"`
	ScoreGranularity    *float64                    `yaml:"score_granularity"`
}

type certificationDocument struct {
	MinSubjects              *int     `yaml:"min_subjects"`
	PrioritySubjectsRequired []string `yaml:"priority_subjects_required"`
	MinPrioritySubjects      *int     `yaml:"min_priority_subjects"`
	MaxGradeValue            *int     `yaml:"max_grade_value"`
}

type progressionDocument struct {
	RequirePriorityPass *bool    `yaml:"require_priority_pass"`
	MinAverage          *float64 `yaml:"min_average"`
}

type bandDocument struct {
	Grade     string   `yaml:"grade"`
	Label     *string  `yaml:"label"`
	Min       float64  `yaml:"min"`
	Max       float64  `yaml:"max"`
	GPAPoints *float64 `yaml:"gpa_points"`
	Points    *int     `yaml:"points"`
	Remark    string   `yaml:"remark"`
	Passing   bool     `yaml:"passing"`
}

// Catalog is an in-memory, read-only set of reference grading systems.
type Catalog struct {
	byCode map[string]*models.GradingSystem
	byID   map[string]*models.GradingSystem
	codes  []string
}

// Load parses every embedded scale.
func Load() (*Catalog, error) {
	return LoadFS(scaleFiles, "scales")
}

// MustLoad is Load for package initialisation; the embedded scales are known good.
func MustLoad() *Catalog {
	catalog, err := Load()
	if err != nil {
		panic(err)
	}
	return catalog
}

// LoadFS parses every .yaml file in dir of fsys.
func LoadFS(fsys fs.FS, dir string) (*Catalog, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read scale dir: %w", err)
	}
	catalog := &Catalog{
		byCode: make(map[string]*models.GradingSystem),
		byID:   make(map[string]*models.GradingSystem),
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		system, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", entry.Name(), err)
		}
		if _, dup := catalog.byCode[system.Code]; dup {
			return nil, fmt.Errorf("duplicate grading system code %q in %s", system.Code, entry.Name())
		}
		catalog.byCode[system.Code] = system
		catalog.byID[system.ID] = system
		catalog.codes = append(catalog.codes, system.Code)
	}
	sort.Strings(catalog.codes)
	return catalog, nil
}

// Parse decodes one YAML scale document into a locked, system-default grading system.
func Parse(data []byte) (*models.GradingSystem, error) {
	var doc scaleDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Code == "" {
		return nil, fmt.Errorf("scale has no code")
	}
	if len(doc.Bands) == 0 {
		return nil, fmt.Errorf("scale %s has no bands", doc.Code)
	}

	system := &models.GradingSystem{
		ID:                SystemID(doc.Code),
		Code:              doc.Code,
		Name:              doc.Name,
		Description:       strings.TrimSpace(doc.Description),
		Type:              doc.Type,
		ScaleType:         doc.ScaleType,
		MinScore:          doc.MinScore,
		MaxScore:          doc.MaxScore,
		PassMark:          doc.PassMark,
		MinSubjectsToPass: doc.MinSubjectsToPass,
		PrioritySubjects:  models.SubjectCodes(doc.PrioritySubjects),
		Settings: models.GradingSettings{
			SchemaVersion:       models.SettingsSchemaVersion,
			PriorityPassMark:    doc.Settings.PriorityPassMark,
			RequirePriorityPass: doc.Settings.RequirePriorityPass,
			AssessmentWeighting: doc.Settings.AssessmentWeighting,
			ScoreGranularity:    doc.Settings.ScoreGranularity,
		},
		CertificationRules: models.CertificationRules{
			SchemaVersion:            models.SettingsSchemaVersion,
			MinSubjects:              doc.CertificationRules.MinSubjects,
			PrioritySubjectsRequired: models.SubjectCodes(doc.CertificationRules.PrioritySubjectsRequired),
			MinPrioritySubjects:      doc.CertificationRules.MinPrioritySubjects,
			MaxGradeValue:            doc.CertificationRules.MaxGradeValue,
		},
		ProgressionRules: models.ProgressionRules{
			SchemaVersion:       models.SettingsSchemaVersion,
			RequirePriorityPass: doc.ProgressionRules.RequirePriorityPass,
			MinAverage:          doc.ProgressionRules.MinAverage,
		},
		IsSystemDefault: true,
		IsLocked:        true,
		IsActive:        true,
		Version:         1,
	}
	if system.PrioritySubjects == nil {
		system.PrioritySubjects = models.SubjectCodes{}
	}

	system.GradeScales = make([]models.GradeScale, 0, len(doc.Bands))
	for i, b := range doc.Bands {
		system.GradeScales = append(system.GradeScales, models.GradeScale{
			ID:              BandID(doc.Code, b.Grade),
			GradingSystemID: system.ID,
			Grade:           b.Grade,
			GradeLabel:      b.Label,
			MinScore:        b.Min,
			MaxScore:        b.Max,
			GPAPoints:       b.GPAPoints,
			Points:          b.Points,
			Remark:          b.Remark,
			IsPassing:       b.Passing,
			SortOrder:       i + 1,
		})
	}
	return system, nil
}

// SystemID is the deterministic id of the seeded system with code.
func SystemID(code string) string {
	return uuid.NewSHA1(Namespace, []byte("grading-system/"+code)).String()
}

// BandID is the deterministic id of a seeded band.
func BandID(code, grade string) string {
	return uuid.NewSHA1(Namespace, []byte("grade-scale/"+code+"/"+grade)).String()
}

// Codes lists the catalog's system codes in sorted order.
func (c *Catalog) Codes() []string {
	out := make([]string, len(c.codes))
	copy(out, c.codes)
	return out
}

// All returns a copy of every system in code order.
func (c *Catalog) All() []*models.GradingSystem {
	out := make([]*models.GradingSystem, 0, len(c.codes))
	for _, code := range c.codes {
		out = append(out, clone(c.byCode[code]))
	}
	return out
}

// FindByCode returns a copy of the system with code.
func (c *Catalog) FindByCode(code string) (*models.GradingSystem, error) {
	system, ok := c.byCode[code]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("reference grading system %s not found", code))
	}
	return clone(system), nil
}

// FindByID returns a copy of the system with id.
func (c *Catalog) FindByID(id string) (*models.GradingSystem, error) {
	system, ok := c.byID[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "reference grading system not found")
	}
	return clone(system), nil
}

func clone(system *models.GradingSystem) *models.GradingSystem {
	out := *system
	out.PrioritySubjects = append(models.SubjectCodes{}, system.PrioritySubjects...)
	out.GradeScales = append([]models.GradeScale(nil), system.GradeScales...)
	return &out
}
