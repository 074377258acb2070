package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-grading-api/internal/models"
)

func TestValidateBandsAcceptsContiguousScales(t *testing.T) {
	for _, system := range []*models.GradingSystem{msceLike(), gpaScale(), prioritySystem()} {
		report := ValidateBands(system)
		assert.True(t, report.Valid(), "%s: %+v", system.ID, report.Issues)
	}
}

func TestValidateBandsReportsGapAndUncoveredEdges(t *testing.T) {
	system := &models.GradingSystem{
		MinScore: 0, MaxScore: 100,
		GradeScales: []models.GradeScale{
			band("A", 80, 95, true, 1),
			band("B", 60, 70, true, 2),
			band("F", 5, 59, false, 3),
		},
	}
	report := ValidateBands(system)

	require.False(t, report.Valid())
	assert.True(t, report.Has(BandIssueGap))
	assert.True(t, report.Has(BandIssueUncovered))
	assert.False(t, report.HasOverlaps())

	var kinds []BandIssueKind
	for _, issue := range report.Issues {
		kinds = append(kinds, issue.Kind)
	}
	assert.Equal(t, []BandIssueKind{BandIssueUncovered, BandIssueGap, BandIssueUncovered}, kinds)
	assert.Equal(t, []string{"B", "A"}, report.Issues[1].Grades)
}

func TestValidateBandsHonoursGranularity(t *testing.T) {
	system := &models.GradingSystem{
		MinScore: 0, MaxScore: 4,
		GradeScales: []models.GradeScale{
			band("HIGH", 2.5, 4, true, 1),
			band("LOW", 0, 2.4, false, 2),
		},
	}
	assert.True(t, ValidateBands(system).Valid(), "0.1 apart is contiguous at the default step of 1")
	system.Settings.ScoreGranularity = floatPtr(0.1)
	assert.True(t, ValidateBands(system).Valid())
	system.Settings.ScoreGranularity = floatPtr(0.01)
	assert.True(t, ValidateBands(system).Has(BandIssueGap))
}

func TestValidateBandsReportsInvertedAndOutOfRange(t *testing.T) {
	system := &models.GradingSystem{
		MinScore: 0, MaxScore: 100,
		GradeScales: []models.GradeScale{
			band("X", 90, 80, true, 1),
			band("A", 50, 120, true, 2),
			band("F", 0, 49, false, 3),
		},
	}
	report := ValidateBands(system)
	assert.True(t, report.Has(BandIssueInverted))
	assert.True(t, report.Has(BandIssueOutOfRange))
	assert.True(t, report.HasOverlaps())
}

func TestValidateBandsEmpty(t *testing.T) {
	report := ValidateBands(&models.GradingSystem{MaxScore: 100})
	require.Len(t, report.Issues, 1)
	assert.Equal(t, BandIssueNoBands, report.Issues[0].Kind)
}
