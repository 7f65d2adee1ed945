package register

import (
	"context"

	"github.com/google/uuid"
)

// Repository is deliberately append-and-read only.
type Repository interface {
	Create(ctx context.Context, e *Entry) error
	// List returns entries newest first. Zero-value productID matches all.
	List(ctx context.Context, productID uuid.UUID, limit, offset int) ([]*Entry, int, error)
}
