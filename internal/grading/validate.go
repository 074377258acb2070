package grading

import (
	"fmt"
	"sort"

	"github.com/noah-isme/sma-grading-api/internal/models"
)

// BandIssueKind classifies a band configuration problem.
type BandIssueKind string

const (
	BandIssueInverted   BandIssueKind = "inverted"
	BandIssueOverlap    BandIssueKind = "overlap"
	BandIssueGap        BandIssueKind = "gap"
	BandIssueOutOfRange BandIssueKind = "out_of_range"
	BandIssueUncovered  BandIssueKind = "uncovered"
	BandIssueNoBands    BandIssueKind = "no_bands"
)

// BandIssue describes one problem found by ValidateBands.
type BandIssue struct {
	Kind    BandIssueKind `json:"kind"`
	Grades  []string      `json:"grades,omitempty"`
	From    float64       `json:"from"`
	To      float64       `json:"to"`
	Message string        `json:"message"`
}

// BandReport is the result of an authoring-time band check.
type BandReport struct {
	Issues []BandIssue `json:"issues"`
}

// Valid reports whether no issue was found.
func (r BandReport) Valid() bool {
	return len(r.Issues) == 0
}

// HasOverlaps reports whether any two bands claim the same score.
func (r BandReport) HasOverlaps() bool {
	return r.Has(BandIssueOverlap) || r.Has(BandIssueInverted)
}

// Has reports whether an issue of kind was found.
func (r BandReport) Has(kind BandIssueKind) bool {
	for _, issue := range r.Issues {
		if issue.Kind == kind {
			return true
		}
	}
	return false
}

// ValidateBands checks that a system's bands cover [min_score, max_score] without
// gaps or overlaps. Bands are compared by score range, not sort_order. Two adjacent
// bands are contiguous when the next band starts no more than one score step
// (settings.score_granularity, default 1) above the previous band's end.
//
// This is an authoring-time check; the engine never calls it.
func ValidateBands(system *models.GradingSystem) BandReport {
	report := BandReport{Issues: []BandIssue{}}
	if len(system.GradeScales) == 0 {
		report.Issues = append(report.Issues, BandIssue{
			Kind: BandIssueNoBands, From: system.MinScore, To: system.MaxScore,
			Message: "grading system has no grade bands",
		})
		return report
	}

	step := system.Settings.Granularity()
	bands := make([]models.GradeScale, 0, len(system.GradeScales))
	for _, band := range system.GradeScales {
		if band.MinScore > band.MaxScore {
			report.Issues = append(report.Issues, BandIssue{
				Kind: BandIssueInverted, Grades: []string{band.Grade}, From: band.MinScore, To: band.MaxScore,
				Message: fmt.Sprintf("band %s has min_score above max_score", band.Grade),
			})
			continue
		}
		if band.MinScore < system.MinScore || band.MaxScore > system.MaxScore {
			report.Issues = append(report.Issues, BandIssue{
				Kind: BandIssueOutOfRange, Grades: []string{band.Grade}, From: band.MinScore, To: band.MaxScore,
				Message: fmt.Sprintf("band %s lies outside [%g, %g]", band.Grade, system.MinScore, system.MaxScore),
			})
		}
		bands = append(bands, band)
	}
	if len(bands) == 0 {
		return report
	}

	sort.SliceStable(bands, func(i, j int) bool {
		return bands[i].MinScore < bands[j].MinScore
	})

	if bands[0].MinScore-system.MinScore > epsilon {
		report.Issues = append(report.Issues, BandIssue{
			Kind: BandIssueUncovered, From: system.MinScore, To: bands[0].MinScore,
			Message: fmt.Sprintf("scores from %g below %g match no band", system.MinScore, bands[0].MinScore),
		})
	}

	reach := bands[0]
	for _, next := range bands[1:] {
		switch {
		case next.MinScore <= reach.MaxScore:
			report.Issues = append(report.Issues, BandIssue{
				Kind: BandIssueOverlap, Grades: []string{reach.Grade, next.Grade},
				From: next.MinScore, To: minFloat(reach.MaxScore, next.MaxScore),
				Message: fmt.Sprintf("bands %s and %s overlap", reach.Grade, next.Grade),
			})
		case next.MinScore-reach.MaxScore > step+epsilon:
			report.Issues = append(report.Issues, BandIssue{
				Kind: BandIssueGap, Grades: []string{reach.Grade, next.Grade},
				From: reach.MaxScore, To: next.MinScore,
				Message: fmt.Sprintf("no band covers scores between %g and %g", reach.MaxScore, next.MinScore),
			})
		}
		if next.MaxScore > reach.MaxScore {
			reach = next
		}
	}

	if system.MaxScore-reach.MaxScore > epsilon {
		report.Issues = append(report.Issues, BandIssue{
			Kind: BandIssueUncovered, From: reach.MaxScore, To: system.MaxScore,
			Message: fmt.Sprintf("scores above %g up to %g match no band", reach.MaxScore, system.MaxScore),
		})
	}
	return report
}

const epsilon = 1e-9

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
