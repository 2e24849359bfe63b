package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/agroflow/agroflow-backend/internal/workflow"
)

// User is a farmer or an administrator of one of the five tiers.
type User struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	FullName     string     `db:"full_name" json:"full_name"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         string     `db:"role" json:"role"`
	Region       string     `db:"region" json:"region"`
	Zone         string     `db:"zone" json:"zone"`
	Woreda       string     `db:"woreda" json:"woreda"`
	Kebele       string     `db:"kebele" json:"kebele"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Jurisdiction returns the user's geographic assignment chain.
func (u *User) Jurisdiction() workflow.Jurisdiction {
	return workflow.Jurisdiction{
		Region: u.Region,
		Zone:   u.Zone,
		Woreda: u.Woreda,
		Kebele: u.Kebele,
	}
}

// AdminLevel returns the administrative tier of the user, if any.
func (u *User) AdminLevel() (workflow.Level, bool) {
	return workflow.LevelForRole(u.Role)
}
