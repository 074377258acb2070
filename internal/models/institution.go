package models

import "time"

// InstitutionType is the broad level of a school.
type InstitutionType string

const (
	InstitutionPrimary       InstitutionType = "primary"
	InstitutionSecondary     InstitutionType = "secondary"
	InstitutionInternational InstitutionType = "international"
)

// InstitutionGradingConfig is an institution's explicit grading system choice for a level.
type InstitutionGradingConfig struct {
	ID              string    `db:"id" json:"id"`
	InstitutionID   string    `db:"institution_id" json:"institution_id"`
	Level           string    `db:"level" json:"level"`
	GradingSystemID string    `db:"grading_system_id" json:"grading_system_id"`
	IsActive        bool      `db:"is_active" json:"is_active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
