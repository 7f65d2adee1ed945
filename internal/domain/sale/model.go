package sale

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Sale states.
const (
	StateOpen = "open"
	StatePaid = "paid"
)

// Sale maps to the pos_sale table plus its lines.
type Sale struct {
	ID     uuid.UUID `db:"id" json:"id"`
	Number string    `db:"number" json:"number"`

	PatientID    *uuid.UUID `db:"patient_id" json:"patient_id,omitempty"`
	PatientName  *string    `db:"patient_name" json:"patient_name,omitempty"`
	PatientPhone *string    `db:"patient_phone" json:"patient_phone,omitempty"`

	PrescriptionID *uuid.UUID `db:"prescription_id" json:"prescription_id,omitempty"`

	Lines []*Line `db:"-" json:"lines"`

	ApprovedByPharmacist bool       `db:"approved_by_pharmacist" json:"approved_by_pharmacist"`
	PharmacistName       *string    `db:"pharmacist_name" json:"pharmacist_name,omitempty"`
	ApprovalDate         *time.Time `db:"approval_date" json:"approval_date,omitempty"`

	InsuranceClaim       bool    `db:"insurance_claim" json:"insurance_claim"`
	InsuranceCompany     *string `db:"insurance_company" json:"insurance_company,omitempty"`
	InsuranceNumber      *string `db:"insurance_number" json:"insurance_number,omitempty"`
	InsuranceAmountCents int64   `db:"insurance_amount_cents" json:"insurance_amount_cents"`
	PatientCopayCents    int64   `db:"patient_copay_cents" json:"patient_copay_cents"`

	State     string    `db:"state" json:"state"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Line is one product on a sale.
type Line struct {
	ID     uuid.UUID `db:"id" json:"id"`
	SaleID uuid.UUID `db:"sale_id" json:"sale_id"`

	ProductID      uuid.UUID `db:"product_id" json:"product_id"`
	Quantity       float64   `db:"quantity" json:"quantity"`
	UnitPriceCents int64     `db:"unit_price_cents" json:"unit_price_cents"`

	LotID              *uuid.UUID `db:"lot_id" json:"lot_id,omitempty"`
	PrescriptionLineID *uuid.UUID `db:"prescription_line_id" json:"prescription_line_id,omitempty"`
	DosageInstructions *string    `db:"dosage_instructions" json:"dosage_instructions,omitempty"`
}

// TotalCents is the sale total, derived from the lines. Fractional
// quantities round to the nearest cent.
func (s *Sale) TotalCents() int64 {
	var total int64
	for _, l := range s.Lines {
		total += int64(math.Round(l.Quantity * float64(l.UnitPriceCents)))
	}
	return total
}
