package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-grading-api/internal/models"
	appErrors "github.com/noah-isme/sma-grading-api/pkg/errors"
)

type memoryCacheRepo struct {
	mu      sync.Mutex
	store   map[string][]byte
	deleted []string
}

func (m *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	payload, ok := m.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (m *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store == nil {
		m.store = make(map[string][]byte)
	}
	m.store[key] = payload
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.store {
		if strings.HasPrefix(key, prefix) {
			delete(m.store, key)
		}
	}
	return nil
}

// gradingSystemStoreStub serves grading systems keyed by id and code.
type gradingSystemStoreStub struct {
	mu        sync.Mutex
	systems   map[string]*models.GradingSystem
	err       error
	calls     int
	created   []*models.GradingSystem
	updated   []*models.GradingSystem
	activated map[string]bool
	updateErr error
}

func newGradingSystemStore(systems ...*models.GradingSystem) *gradingSystemStoreStub {
	s := &gradingSystemStoreStub{systems: map[string]*models.GradingSystem{}, activated: map[string]bool{}}
	for _, system := range systems {
		s.systems[system.ID] = system
	}
	return s
}

func (s *gradingSystemStoreStub) List(ctx context.Context, filter models.GradingSystemFilter) ([]models.GradingSystem, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := []models.GradingSystem{}
	for _, system := range s.systems {
		out = append(out, *system)
	}
	return out, nil
}

func (s *gradingSystemStoreStub) FindByID(ctx context.Context, id string) (*models.GradingSystem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if system, ok := s.systems[id]; ok {
		copied := *system
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *gradingSystemStoreStub) FindByCode(ctx context.Context, code string) (*models.GradingSystem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	for _, system := range s.systems {
		if system.Code == code {
			copied := *system
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *gradingSystemStoreStub) FindDefaultByCode(ctx context.Context, code string) (*models.GradingSystem, error) {
	system, err := s.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !system.IsSystemDefault || !system.IsActive {
		return nil, sql.ErrNoRows
	}
	return system, nil
}

func (s *gradingSystemStoreStub) Create(ctx context.Context, system *models.GradingSystem) error {
	if s.err != nil {
		return s.err
	}
	system.ID = "gs-new"
	s.created = append(s.created, system)
	s.systems[system.ID] = system
	return nil
}

func (s *gradingSystemStoreStub) Update(ctx context.Context, system *models.GradingSystem) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	system.Version++
	s.updated = append(s.updated, system)
	s.systems[system.ID] = system
	return nil
}

func (s *gradingSystemStoreStub) SetActive(ctx context.Context, id string, active bool) error {
	if _, ok := s.systems[id]; !ok {
		return sql.ErrNoRows
	}
	s.activated[id] = active
	s.systems[id].IsActive = active
	return nil
}

type institutionConfigStub struct {
	configs  map[string]*models.InstitutionGradingConfig
	err      error
	upserted []*models.InstitutionGradingConfig
}

func (s *institutionConfigStub) FindActive(ctx context.Context, institutionID, level string) (*models.InstitutionGradingConfig, error) {
	if s.err != nil {
		return nil, s.err
	}
	if cfg, ok := s.configs[institutionID+"/"+level]; ok && cfg.IsActive {
		copied := *cfg
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *institutionConfigStub) Upsert(ctx context.Context, cfg *models.InstitutionGradingConfig) error {
	if s.err != nil {
		return s.err
	}
	if s.configs == nil {
		s.configs = map[string]*models.InstitutionGradingConfig{}
	}
	cfg.ID = "cfg-" + cfg.InstitutionID
	s.configs[cfg.InstitutionID+"/"+cfg.Level] = cfg
	s.upserted = append(s.upserted, cfg)
	return nil
}

func ptrFloat(v float64) *float64 { return &v }
func ptrInt(v int) *int           { return &v }

// percentSystem is a four-band percentage scale with ENG as priority subject.
func percentSystem(id, code string) *models.GradingSystem {
	bands := []struct {
		grade    string
		min, max float64
		gpa      float64
		passing  bool
	}{
		{"A", 80, 100, 4, true},
		{"B", 65, 79, 3, true},
		{"C", 50, 64, 2, true},
		{"F", 0, 49, 0, false},
	}
	system := &models.GradingSystem{
		ID:                id,
		Code:              code,
		Name:              strings.ToUpper(code),
		Type:              models.GradingSystemSecondaryMSCE,
		ScaleType:         models.ScaleTypeLetter,
		MinScore:          0,
		MaxScore:          100,
		PassMark:          50,
		MinSubjectsToPass: 2,
		PrioritySubjects:  models.SubjectCodes{"ENG"},
		IsActive:          true,
		Version:           1,
	}
	for i, b := range bands {
		system.GradeScales = append(system.GradeScales, models.GradeScale{
			ID:        id + "-" + b.grade,
			Grade:     b.grade,
			MinScore:  b.min,
			MaxScore:  b.max,
			GPAPoints: ptrFloat(b.gpa),
			Points:    ptrInt(i + 1),
			Remark:    "remark " + b.grade,
			IsPassing: b.passing,
			SortOrder: i + 1,
		})
	}
	return system
}

// counterValue sums the samples of a counter family whose labels include want.
func counterValue(t *testing.T, m *MetricsService, name string, want map[string]string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	total := 0.0
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			labels := map[string]string{}
			for _, pair := range metric.GetLabel() {
				labels[pair.GetName()] = pair.GetValue()
			}
			matched := true
			for k, v := range want {
				if labels[k] != v {
					matched = false
					break
				}
			}
			if matched {
				total += metric.GetCounter().GetValue()
			}
		}
	}
	return total
}
