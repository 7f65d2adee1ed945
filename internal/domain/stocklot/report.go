package stocklot

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Report statuses, from worst to mildest.
const (
	StatusExpired  = "EXPIRED"
	StatusCritical = "CRITICAL" // expires within 30 days
	StatusWarning  = "WARNING"  // expires within 60 days
	StatusAlert    = "ALERT"    // expires within the threshold
)

// ReportOptions control which lots the expiry report includes.
type ReportOptions struct {
	DaysThreshold  int  `json:"days_threshold"`
	ShowExpired    bool `json:"show_expired"`
	ShowNearExpiry bool `json:"show_near_expiry"`
}

// ReportRow is one lot on the expiry report.
type ReportRow struct {
	LotID        uuid.UUID `json:"lot_id"`
	LotName      string    `json:"lot_name"`
	ProductID    uuid.UUID `json:"product_id"`
	ExpiryDate   time.Time `json:"expiry_date"`
	AvailableQty float64   `json:"available_qty"`
	DaysToExpiry int       `json:"days_to_expiry"`
	IsExpired    bool      `json:"is_expired"`
	Status       string    `json:"status"`
}

// Classify maps days-to-expiry onto a report status.
func Classify(isExpired bool, daysToExpiry int) string {
	switch {
	case isExpired:
		return StatusExpired
	case daysToExpiry <= 30:
		return StatusCritical
	case daysToExpiry <= 60:
		return StatusWarning
	default:
		return StatusAlert
	}
}

// BuildReport filters, classifies and sorts lots for the expiry report.
// Only lots with an expiry date and stock on hand appear; rows come back
// ordered soonest-expiring first.
func BuildReport(lots []*Lot, today time.Time, opts ReportOptions) []ReportRow {
	if opts.DaysThreshold <= 0 {
		opts.DaysThreshold = 90
	}
	if !opts.ShowExpired && !opts.ShowNearExpiry {
		return nil
	}

	var rows []ReportRow
	for _, l := range lots {
		if l.ExpiryDate == nil || l.Quantity <= 0 {
			continue
		}
		expired := l.IsExpired(today)
		days := l.DaysToExpiry(today)
		if expired && !opts.ShowExpired {
			continue
		}
		if !expired {
			if !opts.ShowNearExpiry {
				continue
			}
			if days > opts.DaysThreshold {
				continue
			}
		}
		rows = append(rows, ReportRow{
			LotID:        l.ID,
			LotName:      l.Name,
			ProductID:    l.ProductID,
			ExpiryDate:   *l.ExpiryDate,
			AvailableQty: l.Quantity,
			DaysToExpiry: days,
			IsExpired:    expired,
			Status:       Classify(expired, days),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].ExpiryDate.Before(rows[j].ExpiryDate)
	})
	return rows
}
