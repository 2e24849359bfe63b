package models

import (
	"time"

	"github.com/google/uuid"
)

// Delivery records a farmer's confirmation of receipt for an accepted
// request. At most one per request.
type Delivery struct {
	ID               uuid.UUID `db:"id" json:"id"`
	RequestID        uuid.UUID `db:"request_id" json:"request_id"`
	FarmerID         uuid.UUID `db:"farmer_id" json:"farmer_id"`
	ConfirmationNote *string   `db:"confirmation_note" json:"confirmation_note,omitempty"`
	AcceptedLevel    string    `db:"accepted_level" json:"accepted_level"`
	AcceptedAdmin    *string   `db:"accepted_admin" json:"accepted_admin,omitempty"`
	ConfirmedAt      time.Time `db:"confirmed_at" json:"confirmed_at"`
}
