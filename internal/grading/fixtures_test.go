package grading

import "github.com/noah-isme/sma-grading-api/internal/models"

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
func boolPtr(v bool) *bool        { return &v }

func band(grade string, min, max float64, passing bool, order int) models.GradeScale {
	return models.GradeScale{Grade: grade, MinScore: min, MaxScore: max, IsPassing: passing, SortOrder: order, Remark: grade + " remark"}
}

// msceLike is a nine-point scale, 1 best, passing from 50 with ENG as priority subject.
func msceLike() *models.GradingSystem {
	bands := []models.GradeScale{
		band("1", 80, 100, true, 1),
		band("2", 75, 79, true, 2),
		band("3", 70, 74, true, 3),
		band("4", 65, 69, true, 4),
		band("5", 60, 64, true, 5),
		band("6", 55, 59, true, 6),
		band("7", 50, 54, true, 7),
		band("8", 45, 49, false, 8),
		band("9", 0, 44, false, 9),
	}
	for i := range bands {
		bands[i].Points = intPtr(i + 1)
	}
	return &models.GradingSystem{
		ID:                "msce",
		Code:              "malawi-msce",
		ScaleType:         models.ScaleTypePoints,
		MinScore:          0,
		MaxScore:          100,
		PassMark:          50,
		MinSubjectsToPass: 6,
		PrioritySubjects:  models.SubjectCodes{"ENG"},
		Settings:          models.GradingSettings{PriorityPassMark: floatPtr(50)},
		GradeScales:       bands,
	}
}

// gpaScale is a four-band letter scale with gpa points; band D carries no gpa points.
func gpaScale() *models.GradingSystem {
	a := band("A", 90, 100, true, 1)
	a.GPAPoints = floatPtr(4.0)
	b := band("B", 70, 89, true, 2)
	b.GPAPoints = floatPtr(3.0)
	d := band("D", 60, 69, true, 3)
	f := band("F", 0, 59, false, 4)
	f.GPAPoints = floatPtr(0.0)
	return &models.GradingSystem{
		ID:                "gpa",
		Code:              "us-gpa",
		ScaleType:         models.ScaleTypeGPA,
		MinScore:          0,
		MaxScore:          100,
		PassMark:          60,
		MinSubjectsToPass: 1,
		GradeScales:       []models.GradeScale{a, b, d, f},
	}
}

// prioritySystem has pass_mark 40, priority pass mark 50 and a [40,59] passing band.
func prioritySystem() *models.GradingSystem {
	return &models.GradingSystem{
		ID:                "priority",
		MinScore:          0,
		MaxScore:          100,
		PassMark:          40,
		MinSubjectsToPass: 2,
		PrioritySubjects:  models.SubjectCodes{"ENG", "MAT"},
		Settings:          models.GradingSettings{PriorityPassMark: floatPtr(50), RequirePriorityPass: boolPtr(true)},
		GradeScales: []models.GradeScale{
			band("A", 60, 100, true, 1),
			band("C", 40, 59, true, 2),
			band("F", 0, 39, false, 3),
		},
	}
}
