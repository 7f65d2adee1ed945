package sale

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create persists the sale with its lines.
	Create(ctx context.Context, s *Sale) error
	// GetByID loads the sale with lines attached.
	GetByID(ctx context.Context, id uuid.UUID) (*Sale, error)
	Update(ctx context.Context, s *Sale) error
	List(ctx context.Context, state string, limit, offset int) ([]*Sale, int, error)
}
