package product

import (
	"time"

	"github.com/google/uuid"
)

// Drug categories per the Kenya Pharmacy and Poisons Board classification.
const (
	CategoryPrescription = "prescription" // Prescription Only Medicine (POM)
	CategoryOTC          = "otc"          // Over The Counter
	CategoryControlled   = "controlled"   // Controlled Drug
	CategoryPharmacy     = "pharmacy"     // Pharmacy Medicine (P)
	CategoryGeneral      = "general"      // General Sales List (GSL)
)

// Drug schedules.
const (
	Schedule1   = "schedule_1"
	Schedule2   = "schedule_2"
	Unscheduled = "unscheduled"
)

// Product maps to the pharmacy_product table: the regulatory and clinical
// detail sheet for a sellable drug.
type Product struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	GenericName string    `db:"generic_name" json:"generic_name"`
	BrandName   *string   `db:"brand_name" json:"brand_name,omitempty"`

	ActiveIngredient string `db:"active_ingredient" json:"active_ingredient"`

	PPBRegistrationNo  *string    `db:"ppb_registration_no" json:"ppb_registration_no,omitempty"`
	RegistrationDate   *time.Time `db:"registration_date" json:"registration_date,omitempty"`
	RegistrationExpiry *time.Time `db:"registration_expiry" json:"registration_expiry,omitempty"`

	Category string `db:"category" json:"category"`
	Schedule string `db:"schedule" json:"schedule"`

	DosageForm string  `db:"dosage_form" json:"dosage_form"`
	Strength   *string `db:"strength" json:"strength,omitempty"`
	PackSize   int     `db:"pack_size" json:"pack_size"`

	Indication          *string `db:"indication" json:"indication,omitempty"`
	Contraindication    *string `db:"contraindication" json:"contraindication,omitempty"`
	SideEffects         *string `db:"side_effects" json:"side_effects,omitempty"`
	DosageInstructions  *string `db:"dosage_instructions" json:"dosage_instructions,omitempty"`
	StorageConditions   *string `db:"storage_conditions" json:"storage_conditions,omitempty"`
	TherapeuticClass    *string `db:"therapeutic_class" json:"therapeutic_class,omitempty"`
	PharmacologicalClass *string `db:"pharmacological_class" json:"pharmacological_class,omitempty"`

	MaxOTCQuantity int  `db:"max_otc_quantity" json:"max_otc_quantity"`
	ColdChain      bool `db:"cold_chain" json:"cold_chain"`

	Manufacturer    *string `db:"manufacturer" json:"manufacturer,omitempty"`
	Supplier        *string `db:"supplier" json:"supplier,omitempty"`
	CountryOfOrigin *string `db:"country_of_origin" json:"country_of_origin,omitempty"`

	UnitPriceCents int64 `db:"unit_price_cents" json:"unit_price_cents"`

	TrackExpiry     bool `db:"track_expiry" json:"track_expiry"`
	ExpiryAlertDays int  `db:"expiry_alert_days" json:"expiry_alert_days"`

	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// RequiresPrescription is derived from the category, never stored.
func (p *Product) RequiresPrescription() bool {
	return p.Category == CategoryPrescription || p.Category == CategoryControlled
}

// RequiresPharmacistApproval is true for prescription-only and controlled
// categories and for any scheduled drug.
func (p *Product) RequiresPharmacistApproval() bool {
	return p.RequiresPrescription() || p.Schedule == Schedule1 || p.Schedule == Schedule2
}

// IsControlled reports whether sales of this product must be recorded in the
// controlled-drugs register.
func (p *Product) IsControlled() bool {
	return p.Category == CategoryControlled
}
