package register

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

// Record appends an entry. The snapshot fields must already be filled in by
// the caller; the register never reaches back into the patient or prescriber
// tables.
func (s *Service) Record(ctx context.Context, e *Entry) error {
	if e.ProductID == uuid.Nil {
		return apperr.Validation("product_id is required")
	}
	if e.ProductName == "" {
		return apperr.Validation("product_name is required")
	}
	if e.PatientName == "" {
		return apperr.Validation("patient_name is required")
	}
	if e.Quantity <= 0 {
		return apperr.Validation("quantity must be greater than zero")
	}
	if e.DispensedBy == "" {
		return apperr.Validation("dispensed_by is required")
	}
	if e.Pharmacist == "" {
		return apperr.Validation("a supervising pharmacist is required")
	}
	if e.Date.IsZero() {
		e.Date = time.Now()
	}
	return s.repo.Create(ctx, e)
}

func (s *Service) List(ctx context.Context, productID uuid.UUID, limit, offset int) ([]*Entry, int, error) {
	return s.repo.List(ctx, productID, limit, offset)
}
