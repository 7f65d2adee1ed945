package patient

import (
	"context"
	"fmt"
	"strings"
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

var validGenders = map[string]bool{
	"male":   true,
	"female": true,
	"other":  true,
}

// NormalizePhone strips formatting characters and validates the remainder:
// all digits, at least ten of them. The number is stored as entered minus
// formatting, never reformatted.
func NormalizePhone(phone string) (string, error) {
	cleaned := strings.NewReplacer("+", "", " ", "", "-", "").Replace(phone)
	if cleaned == "" {
		return "", apperr.Validation("phone number is required")
	}
	for _, r := range cleaned {
		if r < '0' || r > '9' {
			return "", apperr.Validation(fmt.Sprintf("phone number %q contains invalid characters", phone))
		}
	}
	if len(cleaned) < 10 {
		return "", apperr.Validation(fmt.Sprintf("phone number %q is too short", phone))
	}
	return cleaned, nil
}

func (s *Service) validate(ctx context.Context, p *Patient, selfID uuid.UUID) error {
	if p.FirstName == "" {
		return apperr.Validation("first_name is required")
	}
	if p.LastName == "" {
		return apperr.Validation("last_name is required")
	}
	if p.Gender != "" && !validGenders[p.Gender] {
		return apperr.Validation(fmt.Sprintf("invalid gender: %s", p.Gender))
	}
	if !p.DateOfBirth.IsZero() && p.DateOfBirth.After(time.Now()) {
		return apperr.Validation("date_of_birth cannot be in the future")
	}
	if p.Phone != "" {
		normalized, err := NormalizePhone(p.Phone)
		if err != nil {
			return err
		}
		p.Phone = normalized
	}
	if p.IDNumber != nil && *p.IDNumber != "" {
		existing, err := s.repo.FindActiveByIDNumber(ctx, *p.IDNumber)
		if err != nil {
			return err
		}
		if existing != nil && existing.ID != selfID {
			return apperr.Validation(fmt.Sprintf("a patient with ID number %s already exists: %s", *p.IDNumber, existing.FullName()))
		}
	}
	return nil
}

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	p.Active = true
	if err := s.validate(ctx, p, uuid.Nil); err != nil {
		return err
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdatePatient(ctx context.Context, p *Patient) error {
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

func (s *Service) DeactivatePatient(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Deactivate(ctx, id)
}

func (s *Service) SearchPatients(ctx context.Context, params map[string]string, limit, offset int) ([]*Patient, int, error) {
	return s.repo.Search(ctx, params, limit, offset)
}
