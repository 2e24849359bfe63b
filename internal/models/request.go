package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/agroflow/agroflow-backend/internal/workflow"
)

// Request is a farmer's order for an agricultural product, approved level
// by level. The per-level columns are deliberately denormalized on the row
// so the overall status derives without joining an audit table.
type Request struct {
	ID        uuid.UUID `db:"id" json:"id"`
	FarmerID  uuid.UUID `db:"farmer_id" json:"farmer_id"`
	ProductID uuid.UUID `db:"product_id" json:"product_id"`
	Quantity  int       `db:"quantity" json:"quantity"`
	Note      *string   `db:"note" json:"note,omitempty"`

	// Jurisdiction chain captured from the farmer at creation time.
	Region string `db:"region" json:"region"`
	Zone   string `db:"zone" json:"zone"`
	Woreda string `db:"woreda" json:"woreda"`
	Kebele string `db:"kebele" json:"kebele"`

	KebeleStatus    workflow.Status `db:"kebele_status" json:"kebele_status"`
	KebeleAdminName *string         `db:"kebele_admin_name" json:"kebele_admin_name,omitempty"`
	KebeleFeedback  *string         `db:"kebele_feedback" json:"kebele_feedback,omitempty"`
	KebeleDecidedAt *time.Time      `db:"kebele_decided_at" json:"kebele_decided_at,omitempty"`

	WoredaStatus    workflow.Status `db:"woreda_status" json:"woreda_status"`
	WoredaAdminName *string         `db:"woreda_admin_name" json:"woreda_admin_name,omitempty"`
	WoredaFeedback  *string         `db:"woreda_feedback" json:"woreda_feedback,omitempty"`
	WoredaDecidedAt *time.Time      `db:"woreda_decided_at" json:"woreda_decided_at,omitempty"`

	ZoneStatus    workflow.Status `db:"zone_status" json:"zone_status"`
	ZoneAdminName *string         `db:"zone_admin_name" json:"zone_admin_name,omitempty"`
	ZoneFeedback  *string         `db:"zone_feedback" json:"zone_feedback,omitempty"`
	ZoneDecidedAt *time.Time      `db:"zone_decided_at" json:"zone_decided_at,omitempty"`

	RegionStatus    workflow.Status `db:"region_status" json:"region_status"`
	RegionAdminName *string         `db:"region_admin_name" json:"region_admin_name,omitempty"`
	RegionFeedback  *string         `db:"region_feedback" json:"region_feedback,omitempty"`
	RegionDecidedAt *time.Time      `db:"region_decided_at" json:"region_decided_at,omitempty"`

	FederalStatus    workflow.Status `db:"federal_status" json:"federal_status"`
	FederalAdminName *string         `db:"federal_admin_name" json:"federal_admin_name,omitempty"`
	FederalFeedback  *string         `db:"federal_feedback" json:"federal_feedback,omitempty"`
	FederalDecidedAt *time.Time      `db:"federal_decided_at" json:"federal_decided_at,omitempty"`

	// HandledBy is the name of whichever administrator most recently
	// decided any level. Display convenience only.
	HandledBy *string   `db:"handled_by" json:"handled_by,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Chain assembles the five level states into the workflow's ordered form.
func (r *Request) Chain() workflow.Chain {
	return workflow.Chain{
		{Status: r.KebeleStatus, AdminName: r.KebeleAdminName, Feedback: r.KebeleFeedback, DecidedAt: r.KebeleDecidedAt},
		{Status: r.WoredaStatus, AdminName: r.WoredaAdminName, Feedback: r.WoredaFeedback, DecidedAt: r.WoredaDecidedAt},
		{Status: r.ZoneStatus, AdminName: r.ZoneAdminName, Feedback: r.ZoneFeedback, DecidedAt: r.ZoneDecidedAt},
		{Status: r.RegionStatus, AdminName: r.RegionAdminName, Feedback: r.RegionFeedback, DecidedAt: r.RegionDecidedAt},
		{Status: r.FederalStatus, AdminName: r.FederalAdminName, Feedback: r.FederalFeedback, DecidedAt: r.FederalDecidedAt},
	}
}

// SetLevelState writes one level's state back onto the flat columns.
func (r *Request) SetLevelState(level workflow.Level, state workflow.LevelState) {
	switch level {
	case workflow.LevelKebele:
		r.KebeleStatus, r.KebeleAdminName, r.KebeleFeedback, r.KebeleDecidedAt = state.Status, state.AdminName, state.Feedback, state.DecidedAt
	case workflow.LevelWoreda:
		r.WoredaStatus, r.WoredaAdminName, r.WoredaFeedback, r.WoredaDecidedAt = state.Status, state.AdminName, state.Feedback, state.DecidedAt
	case workflow.LevelZone:
		r.ZoneStatus, r.ZoneAdminName, r.ZoneFeedback, r.ZoneDecidedAt = state.Status, state.AdminName, state.Feedback, state.DecidedAt
	case workflow.LevelRegion:
		r.RegionStatus, r.RegionAdminName, r.RegionFeedback, r.RegionDecidedAt = state.Status, state.AdminName, state.Feedback, state.DecidedAt
	case workflow.LevelFederal:
		r.FederalStatus, r.FederalAdminName, r.FederalFeedback, r.FederalDecidedAt = state.Status, state.AdminName, state.Feedback, state.DecidedAt
	}
}

// Jurisdiction returns the request's geographic chain.
func (r *Request) Jurisdiction() workflow.Jurisdiction {
	return workflow.Jurisdiction{
		Region: r.Region,
		Zone:   r.Zone,
		Woreda: r.Woreda,
		Kebele: r.Kebele,
	}
}

// OverallStatus derives the display status from the level states.
func (r *Request) OverallStatus() workflow.Status {
	return r.Chain().Overall()
}
