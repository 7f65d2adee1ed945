package product

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	Update(ctx context.Context, p *Product) error
	Deactivate(ctx context.Context, id uuid.UUID) error

	// FindByPPBRegistrationNo returns nil, nil when the number is unused.
	FindByPPBRegistrationNo(ctx context.Context, regNo string) (*Product, error)
	List(ctx context.Context, category string, limit, offset int) ([]*Product, int, error)
}
