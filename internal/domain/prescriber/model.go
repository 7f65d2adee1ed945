package prescriber

import (
	"time"

	"github.com/google/uuid"
)

// Prescriber maps to the prescriber table. One row per licensed practitioner
// allowed to issue prescriptions.
type Prescriber struct {
	ID            uuid.UUID `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	LicenseNumber string    `db:"license_number" json:"license_number"`

	Qualification  *string `db:"qualification" json:"qualification,omitempty"`
	Specialization *string `db:"specialization" json:"specialization,omitempty"`

	FacilityName    *string `db:"facility_name" json:"facility_name,omitempty"`
	FacilityAddress *string `db:"facility_address" json:"facility_address,omitempty"`

	Phone *string `db:"phone" json:"phone,omitempty"`
	Email *string `db:"email" json:"email,omitempty"`

	LicenseExpiry *time.Time `db:"license_expiry" json:"license_expiry,omitempty"`

	Verified   bool       `db:"verified" json:"verified"`
	VerifiedBy *string    `db:"verified_by" json:"verified_by,omitempty"`
	VerifiedAt *time.Time `db:"verified_at" json:"verified_at,omitempty"`

	Active    bool      `db:"active" json:"active"`
	Notes     *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// LicenseExpired reports whether the license has lapsed as of the given day.
// A prescriber with no expiry on record is treated as current.
func (p *Prescriber) LicenseExpired(today time.Time) bool {
	if p.LicenseExpiry == nil {
		return false
	}
	return p.LicenseExpiry.Before(today)
}
