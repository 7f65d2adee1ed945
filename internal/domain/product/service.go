package product

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/softlink/pharmacy-pos/internal/platform/apperr"
)

// DefaultExpiryAlertDays is applied when a product does not set its own
// alert window.
const DefaultExpiryAlertDays = 90

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

var validCategories = map[string]bool{
	CategoryPrescription: true,
	CategoryOTC:          true,
	CategoryControlled:   true,
	CategoryPharmacy:     true,
	CategoryGeneral:      true,
}

var validSchedules = map[string]bool{
	Schedule1:   true,
	Schedule2:   true,
	Unscheduled: true,
}

var validDosageForms = map[string]bool{
	"tablet": true, "capsule": true, "syrup": true, "suspension": true,
	"injection": true, "cream": true, "ointment": true, "drops": true,
	"inhaler": true, "suppository": true, "other": true,
}

func (s *Service) validate(ctx context.Context, p *Product, selfID uuid.UUID) error {
	if p.Name == "" {
		return apperr.Validation("name is required")
	}
	if p.GenericName == "" {
		return apperr.Validation("generic_name is required")
	}
	if p.ActiveIngredient == "" {
		return apperr.Validation("active_ingredient is required")
	}
	if !validCategories[p.Category] {
		return apperr.Validation(fmt.Sprintf("invalid category: %s", p.Category))
	}
	if !validSchedules[p.Schedule] {
		return apperr.Validation(fmt.Sprintf("invalid schedule: %s", p.Schedule))
	}
	if !validDosageForms[p.DosageForm] {
		return apperr.Validation(fmt.Sprintf("invalid dosage_form: %s", p.DosageForm))
	}
	if p.RegistrationExpiry != nil && p.RegistrationExpiry.Before(time.Now()) {
		return apperr.Validation(fmt.Sprintf("registration for %s has expired, renew before selling", p.Name))
	}
	if p.PPBRegistrationNo != nil && *p.PPBRegistrationNo != "" {
		existing, err := s.repo.FindByPPBRegistrationNo(ctx, *p.PPBRegistrationNo)
		if err != nil {
			return err
		}
		if existing != nil && existing.ID != selfID {
			return apperr.Validation(fmt.Sprintf("PPB registration number %s already exists for %s", *p.PPBRegistrationNo, existing.Name))
		}
	}
	return nil
}

func (s *Service) CreateProduct(ctx context.Context, p *Product) error {
	p.Active = true
	if p.Category == "" {
		p.Category = CategoryOTC
	}
	if p.Schedule == "" {
		p.Schedule = Unscheduled
	}
	if p.PackSize == 0 {
		p.PackSize = 1
	}
	if p.ExpiryAlertDays == 0 {
		p.ExpiryAlertDays = DefaultExpiryAlertDays
	}
	if err := s.validate(ctx, p, uuid.Nil); err != nil {
		return err
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateProduct(ctx context.Context, p *Product) error {
	existing, err := s.repo.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	p.Active = existing.Active
	if err := s.validate(ctx, p, p.ID); err != nil {
		return err
	}
	return s.repo.Update(ctx, p)
}

func (s *Service) DeactivateProduct(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Deactivate(ctx, id)
}

func (s *Service) ListProducts(ctx context.Context, category string, limit, offset int) ([]*Product, int, error) {
	if category != "" && !validCategories[category] {
		return nil, 0, apperr.Validation(fmt.Sprintf("invalid category: %s", category))
	}
	return s.repo.List(ctx, category, limit, offset)
}
