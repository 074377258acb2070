package seed

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-grading-api/internal/grading"
	appErrors "github.com/noah-isme/sma-grading-api/pkg/errors"
)

func TestLoadEmbeddedScales(t *testing.T) {
	catalog, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"australian", "canadian", "ects", "french", "german", "ib-diploma", "indian-cbse",
		"international-standard", "japanese", "malawi-jce", "malawi-msce", "malawi-primary",
		"swiss", "uk-a-level", "uk-gcse", "us-gpa",
	}, catalog.Codes())

	for _, system := range catalog.All() {
		assert.True(t, system.IsLocked, system.Code)
		assert.True(t, system.IsSystemDefault, system.Code)
		assert.True(t, system.IsActive, system.Code)
		assert.NotEmpty(t, system.Name, system.Code)
		assert.Greater(t, system.MaxScore, system.MinScore, system.Code)
		assert.Equal(t, SystemID(system.Code), system.ID)

		report := grading.ValidateBands(system)
		assert.True(t, report.Valid(), "%s: %+v", system.Code, report.Issues)

		for i, band := range system.GradeScales {
			assert.Equal(t, i+1, band.SortOrder)
			assert.Equal(t, system.ID, band.GradingSystemID)
		}
	}
}

func TestMalawiMSCECertification(t *testing.T) {
	catalog := MustLoad()
	system, err := catalog.FindByCode("malawi-msce")
	require.NoError(t, err)

	e := grading.NewEngine(system)
	band, err := e.GradeFor(72)
	require.NoError(t, err)
	assert.Equal(t, "2", band.Grade)
	assert.Equal(t, 2, *band.Points)

	scores := map[string]float64{"ENG": 52, "MAT": 66, "BIO": 80, "CHE": 58, "PHY": 61, "GEO": 71}
	result, err := e.OverallResult(scores)
	require.NoError(t, err)
	assert.True(t, result.MeetsPromotionCriteria)
	assert.True(t, result.MeetsCertificationCriteria)

	// A pass at point 7 is not a credit.
	scores["GEO"] = 46
	ok, err := e.MeetsCertificationCriteria(scores)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = e.MeetsPromotionCriteria(scores)
	require.NoError(t, err)
	assert.True(t, ok)

	// English below its 50 priority mark blocks promotion.
	scores["ENG"] = 45
	ok, err = e.MeetsPromotionCriteria(scores)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFindByIDAndCopies(t *testing.T) {
	catalog := MustLoad()
	system, err := catalog.FindByID(SystemID("us-gpa"))
	require.NoError(t, err)
	assert.Equal(t, "us-gpa", system.Code)

	system.GradeScales[0].Grade = "mutated"
	again, err := catalog.FindByCode("us-gpa")
	require.NoError(t, err)
	assert.Equal(t, "A+", again.GradeScales[0].Grade)

	_, err = catalog.FindByCode("atlantis")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	_, err = catalog.FindByID("missing")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestSeedIDsAreDeterministic(t *testing.T) {
	assert.Equal(t, SystemID("malawi-msce"), SystemID("malawi-msce"))
	assert.NotEqual(t, SystemID("malawi-msce"), SystemID("malawi-jce"))
	assert.NotEqual(t, BandID("malawi-msce", "1"), BandID("malawi-jce", "1"))
}

func TestLoadFSRejectsBadDocuments(t *testing.T) {
	_, err := LoadFS(fstest.MapFS{
		"scales/a.yaml": {Data: []byte("code: dup\nbands:\n  - {grade: A, min: 0, max: 100, passing: true}\n")},
		"scales/b.yaml": {Data: []byte("code: dup\nbands:\n  - {grade: A, min: 0, max: 100, passing: true}\n")},
	}, "scales")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")

	_, err = LoadFS(fstest.MapFS{
		"scales/a.yaml": {Data: []byte("code: empty\n")},
	}, "scales")
	require.Error(t, err)

	catalog, err := LoadFS(fstest.MapFS{
		"scales/a.yaml":    {Data: []byte("code: one\nbands:\n  - {grade: A, min: 0, max: 100, passing: true}\n")},
		"scales/README.md": {Data: []byte("ignored")},
	}, "scales")
	require.NoError(t, err)
	assert.Equal(t, []string{"one"}, catalog.Codes())
}
