package prescriber

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Prescriber) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescriber, error)
	Update(ctx context.Context, p *Prescriber) error
	Deactivate(ctx context.Context, id uuid.UUID) error

	// FindByLicenseNumber returns nil, nil when no prescriber holds the
	// license.
	FindByLicenseNumber(ctx context.Context, licenseNumber string) (*Prescriber, error)
	List(ctx context.Context, limit, offset int) ([]*Prescriber, int, error)
}
