package prescription

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create persists the prescription together with its lines.
	Create(ctx context.Context, p *Prescription) error
	// GetByID loads the prescription with lines attached.
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	Update(ctx context.Context, p *Prescription) error
	UpdateLine(ctx context.Context, l *Line) error

	// List returns prescriptions ordered by prescription date descending.
	// Filters are optional: zero-value patientID and empty state match all.
	List(ctx context.Context, patientID uuid.UUID, state string, limit, offset int) ([]*Prescription, int, error)
}
