package prescriber

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/softlink/pharmacy-pos/internal/platform/apperr"
	"github.com/softlink/pharmacy-pos/internal/platform/auth"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) validate(ctx context.Context, p *Prescriber, selfID uuid.UUID) error {
	if p.Name == "" {
		return apperr.Validation("name is required")
	}
	if p.LicenseNumber == "" {
		return apperr.Validation("license_number is required")
	}
	if p.LicenseExpiry != nil && p.LicenseExpiry.Before(time.Now()) {
		return apperr.Validation(fmt.Sprintf("license %s expired on %s", p.LicenseNumber, p.LicenseExpiry.Format("2006-01-02")))
	}
	existing, err := s.repo.FindByLicenseNumber(ctx, p.LicenseNumber)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != selfID {
		return apperr.Validation(fmt.Sprintf("license number %s is already registered to %s", p.LicenseNumber, existing.Name))
	}
	return nil
}

func (s *Service) CreatePrescriber(ctx context.Context, p *Prescriber) error {
	p.Active = true
	p.Verified = false
	p.VerifiedBy = nil
	p.VerifiedAt = nil
	if err := s.validate(ctx, p, uuid.Nil); err != nil {
		return err
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) GetPrescriber(ctx context.Context, id uuid.UUID) (*Prescriber, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdatePrescriber(ctx context.Context, p *Prescriber) error {
	existing, err := s.repo.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	// Verification state is owned by Verify, not the update payload.
	p.Active = existing.Active
	p.Verified = existing.Verified
	p.VerifiedBy = existing.VerifiedBy
	p.VerifiedAt = existing.VerifiedAt
	if err := s.validate(ctx, p, p.ID); err != nil {
		return err
	}
	return s.repo.Update(ctx, p)
}

// Verify marks the prescriber's credentials as checked, stamping who checked
// them and when. Verifying an already-verified prescriber is a no-op.
func (s *Service) Verify(ctx context.Context, id uuid.UUID) error {
	actor := auth.ActorFromContext(ctx)
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p.Verified {
		return nil
	}
	now := time.Now()
	p.Verified = true
	p.VerifiedBy = &actor.Name
	p.VerifiedAt = &now
	return s.repo.Update(ctx, p)
}

func (s *Service) DeactivatePrescriber(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Deactivate(ctx, id)
}

func (s *Service) ListPrescribers(ctx context.Context, limit, offset int) ([]*Prescriber, int, error) {
	return s.repo.List(ctx, limit, offset)
}
