package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is an agricultural input published by an administrator. Visible
// system-wide, editable only by its owner.
type Product struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	Name          string     `db:"name" json:"name"`
	Category      string     `db:"category" json:"category"`
	SubCategory   *string    `db:"sub_category" json:"sub_category,omitempty"`
	Amount        int        `db:"amount" json:"amount"`
	Unit          string     `db:"unit" json:"unit"`
	Price         float64    `db:"price" json:"price"`
	Description   *string    `db:"description" json:"description,omitempty"`
	Manufacturer  *string    `db:"manufacturer" json:"manufacturer,omitempty"`
	ExpiryDate    *time.Time `db:"expiry_date" json:"expiry_date,omitempty"`
	CreatedBy     uuid.UUID  `db:"created_by" json:"created_by"`
	AdminLocation string     `db:"admin_location" json:"admin_location"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}
