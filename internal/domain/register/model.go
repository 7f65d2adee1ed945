// Package register keeps the controlled-drugs register: an append-only log
// of every controlled drug dispensed, with patient and prescriber details
// denormalised into each entry so the record stays intact even if the
// referenced rows later change or deactivate.
package register

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one controlled-drug dispensing event. Entries are never updated
// or deleted.
type Entry struct {
	ID uuid.UUID `db:"id" json:"id"`
	// Seq is assigned by the database and fixes the order of entries that
	// share a date, such as the lines of one sale.
	Seq  int64     `db:"seq" json:"seq"`
	Date time.Time `db:"date" json:"date"`

	ProductID   uuid.UUID `db:"product_id" json:"product_id"`
	ProductName string    `db:"product_name" json:"product_name"`

	PatientID       *uuid.UUID `db:"patient_id" json:"patient_id,omitempty"`
	PatientName     string     `db:"patient_name" json:"patient_name"`
	PatientIDNumber *string    `db:"patient_id_number" json:"patient_id_number,omitempty"`
	PatientAddress  *string    `db:"patient_address" json:"patient_address,omitempty"`

	PrescriptionID    *uuid.UUID `db:"prescription_id" json:"prescription_id,omitempty"`
	PrescriberID      *uuid.UUID `db:"prescriber_id" json:"prescriber_id,omitempty"`
	PrescriberLicense *string    `db:"prescriber_license" json:"prescriber_license,omitempty"`

	Quantity float64 `db:"quantity" json:"quantity"`

	SaleID *uuid.UUID `db:"sale_id" json:"sale_id,omitempty"`

	DispensedBy string `db:"dispensed_by" json:"dispensed_by"`
	Pharmacist  string `db:"pharmacist" json:"pharmacist"`

	Purpose *string `db:"purpose" json:"purpose,omitempty"`
	Notes   *string `db:"notes" json:"notes,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
