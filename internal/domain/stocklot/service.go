package stocklot

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/softlink/pharmacy-pos/internal/platform/apperr"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateLot accepts lots that are already expired: stock can arrive for
// destruction or return to the supplier. The dispensing gate is what blocks
// selling them.
func (s *Service) CreateLot(ctx context.Context, l *Lot) error {
	if l.Name == "" {
		return apperr.Validation("name is required")
	}
	if l.ProductID == uuid.Nil {
		return apperr.Validation("product_id is required")
	}
	if l.Quantity < 0 {
		return apperr.Validation("quantity cannot be negative")
	}
	return s.repo.Create(ctx, l)
}

func (s *Service) GetLot(ctx context.Context, id uuid.UUID) (*Lot, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateLot(ctx context.Context, l *Lot) error {
	if _, err := s.repo.GetByID(ctx, l.ID); err != nil {
		return err
	}
	if l.Quantity < 0 {
		return apperr.Validation("quantity cannot be negative")
	}
	return s.repo.Update(ctx, l)
}

func (s *Service) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*Lot, error) {
	return s.repo.ListByProduct(ctx, productID)
}

// ExpiryReport produces the expiry alert rows for all tracked lots.
func (s *Service) ExpiryReport(ctx context.Context, opts ReportOptions) ([]ReportRow, error) {
	lots, err := s.repo.ListWithExpiry(ctx)
	if err != nil {
		return nil, err
	}
	return BuildReport(lots, time.Now(), opts), nil
}
