package stocklot

import (
	"time"

	"github.com/google/uuid"
)

// Lot maps to the stock_lot table: one batch of a product with its own
// expiry date and on-hand quantity.
type Lot struct {
	ID        uuid.UUID `db:"id" json:"id"`
	ProductID uuid.UUID `db:"product_id" json:"product_id"`
	Name      string    `db:"name" json:"name"`

	BatchNumber     *string `db:"batch_number" json:"batch_number,omitempty"`
	SupplierBatchNo *string `db:"supplier_batch_no" json:"supplier_batch_no,omitempty"`

	ManufacturingDate *time.Time `db:"manufacturing_date" json:"manufacturing_date,omitempty"`
	ExpiryDate        *time.Time `db:"expiry_date" json:"expiry_date,omitempty"`

	Quantity float64 `db:"quantity" json:"quantity"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// DaysToExpiry counts whole days from today to the expiry date; negative for
// lots already past it, zero when no expiry is recorded.
func (l *Lot) DaysToExpiry(today time.Time) int {
	if l.ExpiryDate == nil {
		return 0
	}
	return int(truncateDay(*l.ExpiryDate).Sub(truncateDay(today)).Hours() / 24)
}

// IsExpired reports whether the lot's expiry date has passed. A lot expiring
// today is still sellable.
func (l *Lot) IsExpired(today time.Time) bool {
	if l.ExpiryDate == nil {
		return false
	}
	return truncateDay(*l.ExpiryDate).Before(truncateDay(today))
}

// IsNearExpiry reports whether the lot falls inside the alert window: still
// sellable but expiring within alertDays.
func (l *Lot) IsNearExpiry(today time.Time, alertDays int) bool {
	if l.ExpiryDate == nil {
		return false
	}
	days := l.DaysToExpiry(today)
	return days > 0 && days <= alertDays
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
