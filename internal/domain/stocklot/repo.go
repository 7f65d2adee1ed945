package stocklot

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, l *Lot) error
	GetByID(ctx context.Context, id uuid.UUID) (*Lot, error)
	Update(ctx context.Context, l *Lot) error

	// AdjustQuantity applies a signed delta to the lot's on-hand quantity.
	AdjustQuantity(ctx context.Context, id uuid.UUID, delta float64) error

	ListByProduct(ctx context.Context, productID uuid.UUID) ([]*Lot, error)
	// ListWithExpiry returns every lot carrying an expiry date.
	ListWithExpiry(ctx context.Context) ([]*Lot, error)
}
