package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ReportStatusPending     = "pending"
	ReportStatusUnderReview = "under_review"
	ReportStatusResolved    = "resolved"
	ReportStatusDismissed   = "dismissed"

	ReportTypeMisconduct  = "misconduct"
	ReportTypeNegligence  = "negligence"
	ReportTypeCorruption  = "corruption"
	ReportTypePerformance = "performance"
	ReportTypeOther       = "other"

	ReportPriorityLow      = "low"
	ReportPriorityMedium   = "medium"
	ReportPriorityHigh     = "high"
	ReportPriorityCritical = "critical"
)

// Report is a misconduct or performance complaint filed by one
// administrator against another. Its lifecycle is independent of the
// request workflow.
type Report struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	ReporterID      uuid.UUID  `db:"reporter_id" json:"reporter_id"`
	ReportedAdminID uuid.UUID  `db:"reported_admin_id" json:"reported_admin_id"`
	ReportType      string     `db:"report_type" json:"report_type"`
	Title           string     `db:"title" json:"title"`
	Description     string     `db:"description" json:"description"`
	Evidence        *string    `db:"evidence" json:"evidence,omitempty"`
	Priority        string     `db:"priority" json:"priority"`
	Status          string     `db:"status" json:"status"`
	ResolutionNotes *string    `db:"resolution_notes" json:"resolution_notes,omitempty"`
	ReviewedBy      *uuid.UUID `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

// ValidReportTypes lists the accepted complaint categories.
var ValidReportTypes = map[string]bool{
	ReportTypeMisconduct:  true,
	ReportTypeNegligence:  true,
	ReportTypeCorruption:  true,
	ReportTypePerformance: true,
	ReportTypeOther:       true,
}

// ValidReportPriorities lists the accepted priorities.
var ValidReportPriorities = map[string]bool{
	ReportPriorityLow:      true,
	ReportPriorityMedium:   true,
	ReportPriorityHigh:     true,
	ReportPriorityCritical: true,
}

// reportTransitions describes the allowed status moves of a report.
var reportTransitions = map[string][]string{
	ReportStatusPending:     {ReportStatusUnderReview, ReportStatusDismissed},
	ReportStatusUnderReview: {ReportStatusResolved, ReportStatusDismissed},
	ReportStatusResolved:    {},
	ReportStatusDismissed:   {},
}

// CanReportTransition reports whether a report may move between statuses.
func CanReportTransition(from, to string) bool {
	for _, allowed := range reportTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
