package prescription

import (
	"time"

	"github.com/google/uuid"
)

// Prescription states.
const (
	StateDraft              = "draft"
	StateConfirmed          = "confirmed"
	StatePartiallyDispensed = "partially_dispensed"
	StateDispensed          = "dispensed"
	StateExpired            = "expired"
	StateCancelled          = "cancelled"
)

// Line states, derived from dispensed vs prescribed quantity.
const (
	LinePending            = "pending"
	LinePartiallyDispensed = "partially_dispensed"
	LineDispensed          = "dispensed"
)

// DefaultValidityDays is the standard prescription validity window of six
// months.
const DefaultValidityDays = 180

// Prescription maps to the prescription table plus its lines.
type Prescription struct {
	ID     uuid.UUID `db:"id" json:"id"`
	Number string    `db:"number" json:"number"`

	PatientID    uuid.UUID `db:"patient_id" json:"patient_id"`
	PrescriberID uuid.UUID `db:"prescriber_id" json:"prescriber_id"`

	PrescriptionDate time.Time `db:"prescription_date" json:"prescription_date"`
	Diagnosis        string    `db:"diagnosis" json:"diagnosis"`
	State            string    `db:"state" json:"state"`

	Lines []*Line `db:"-" json:"lines"`

	DispensedBy    *string    `db:"dispensed_by" json:"dispensed_by,omitempty"`
	DispensingDate *time.Time `db:"dispensing_date" json:"dispensing_date,omitempty"`
	SaleID         *uuid.UUID `db:"sale_id" json:"sale_id,omitempty"`

	VerifiedByPharmacist bool       `db:"verified_by_pharmacist" json:"verified_by_pharmacist"`
	PharmacistName       *string    `db:"pharmacist_name" json:"pharmacist_name,omitempty"`
	VerificationDate     *time.Time `db:"verification_date" json:"verification_date,omitempty"`
	PharmacistNotes      *string    `db:"pharmacist_notes" json:"pharmacist_notes,omitempty"`

	SpecialInstructions *string `db:"special_instructions" json:"special_instructions,omitempty"`
	Notes               *string `db:"notes" json:"notes,omitempty"`

	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Line is one prescribed drug on a prescription.
type Line struct {
	ID             uuid.UUID `db:"id" json:"id"`
	PrescriptionID uuid.UUID `db:"prescription_id" json:"prescription_id"`
	ProductID      uuid.UUID `db:"product_id" json:"product_id"`

	Quantity float64 `db:"quantity" json:"quantity"`

	Dosage       *string `db:"dosage" json:"dosage,omitempty"`
	Frequency    *string `db:"frequency" json:"frequency,omitempty"`
	Duration     *string `db:"duration" json:"duration,omitempty"`
	Instructions *string `db:"instructions" json:"instructions,omitempty"`

	QuantityDispensed float64 `db:"quantity_dispensed" json:"quantity_dispensed"`
}

// Remaining is the quantity still owed to the patient.
func (l *Line) Remaining() float64 {
	return l.Quantity - l.QuantityDispensed
}

// State derives the line's dispensing status from its quantities.
func (l *Line) State() string {
	switch {
	case l.QuantityDispensed == 0:
		return LinePending
	case l.QuantityDispensed >= l.Quantity:
		return LineDispensed
	default:
		return LinePartiallyDispensed
	}
}

// ValidUntil is the last day the prescription may be dispensed.
func (p *Prescription) ValidUntil(validityDays int) time.Time {
	if validityDays <= 0 {
		validityDays = DefaultValidityDays
	}
	return p.PrescriptionDate.AddDate(0, 0, validityDays)
}

// IsValid reports whether the prescription can still be dispensed on the
// given day. Cancelled prescriptions are never valid.
func (p *Prescription) IsValid(today time.Time, validityDays int) bool {
	if p.State == StateCancelled {
		return false
	}
	return !p.ValidUntil(validityDays).Before(today)
}

// FullyDispensed reports whether every line has been dispensed in full.
func (p *Prescription) FullyDispensed() bool {
	if len(p.Lines) == 0 {
		return false
	}
	for _, l := range p.Lines {
		if l.State() != LineDispensed {
			return false
		}
	}
	return true
}

// AnyDispensed reports whether at least one line has had stock issued.
func (p *Prescription) AnyDispensed() bool {
	for _, l := range p.Lines {
		if l.QuantityDispensed > 0 {
			return true
		}
	}
	return false
}
