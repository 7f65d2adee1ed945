package patient

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patient table.
type Patient struct {
	ID         uuid.UUID `db:"id" json:"id"`
	FirstName  string    `db:"first_name" json:"first_name"`
	MiddleName *string   `db:"middle_name" json:"middle_name,omitempty"`
	LastName   string    `db:"last_name" json:"last_name"`

	DateOfBirth time.Time `db:"date_of_birth" json:"date_of_birth"`
	Gender      string    `db:"gender" json:"gender"`

	Phone    string  `db:"phone" json:"phone"`
	Email    *string `db:"email" json:"email,omitempty"`
	IDNumber *string `db:"id_number" json:"id_number,omitempty"`

	Street  *string `db:"street" json:"street,omitempty"`
	Street2 *string `db:"street2" json:"street2,omitempty"`
	City    *string `db:"city" json:"city,omitempty"`
	County  *string `db:"county" json:"county,omitempty"`

	BloodGroup         *string `db:"blood_group" json:"blood_group,omitempty"`
	Allergies          *string `db:"allergies" json:"allergies,omitempty"`
	ChronicConditions  *string `db:"chronic_conditions" json:"chronic_conditions,omitempty"`
	CurrentMedications *string `db:"current_medications" json:"current_medications,omitempty"`

	HasInsurance     bool       `db:"has_insurance" json:"has_insurance"`
	InsuranceCompany *string    `db:"insurance_company" json:"insurance_company,omitempty"`
	InsuranceNumber  *string    `db:"insurance_number" json:"insurance_number,omitempty"`
	InsuranceExpiry  *time.Time `db:"insurance_expiry" json:"insurance_expiry,omitempty"`

	EmergencyContactName     *string `db:"emergency_contact_name" json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone    *string `db:"emergency_contact_phone" json:"emergency_contact_phone,omitempty"`
	EmergencyContactRelation *string `db:"emergency_contact_relation" json:"emergency_contact_relation,omitempty"`

	Active    bool      `db:"active" json:"active"`
	Notes     *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// FullName joins the non-empty name parts. Derived on read, never stored.
func (p *Patient) FullName() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.FirstName, strVal(p.MiddleName), p.LastName} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// AgeAt returns the patient's age in whole years on the given day.
func (p *Patient) AgeAt(today time.Time) int {
	age := today.Year() - p.DateOfBirth.Year()
	if today.Month() < p.DateOfBirth.Month() ||
		(today.Month() == p.DateOfBirth.Month() && today.Day() < p.DateOfBirth.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// Age returns the patient's current age in whole years.
func (p *Patient) Age() int {
	return p.AgeAt(time.Now())
}

// Address joins the non-empty address parts for register snapshots.
func (p *Patient) Address() string {
	parts := make([]string, 0, 4)
	for _, s := range []*string{p.Street, p.Street2, p.City, p.County} {
		if s != nil && *s != "" {
			parts = append(parts, *s)
		}
	}
	return strings.Join(parts, ", ")
}

func strVal(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
