package prescription

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/softlink/pharmacy-pos/internal/domain/patient"
	"github.com/softlink/pharmacy-pos/internal/domain/prescriber"
	"github.com/softlink/pharmacy-pos/internal/platform/apperr"
	"github.com/softlink/pharmacy-pos/internal/platform/auth"
	"github.com/softlink/pharmacy-pos/internal/platform/sequence"
)

// SequenceKey names the counter behind prescription numbers.
const SequenceKey = "prescription"

type Service struct {
	repo         Repository
	patients     patient.Repository
	prescribers  prescriber.Repository
	seq          sequence.Allocator
	validityDays int
}

func NewService(repo Repository, patients patient.Repository, prescribers prescriber.Repository, seq sequence.Allocator, validityDays int) *Service {
	if validityDays <= 0 {
		validityDays = DefaultValidityDays
	}
	return &Service{repo: repo, patients: patients, prescribers: prescribers, seq: seq, validityDays: validityDays}
}

// ValidityDays exposes the configured validity window.
func (s *Service) ValidityDays() int { return s.validityDays }

func (s *Service) CreatePrescription(ctx context.Context, p *Prescription) error {
	if p.PatientID == uuid.Nil {
		return apperr.Validation("patient_id is required")
	}
	if p.PrescriberID == uuid.Nil {
		return apperr.Validation("prescriber_id is required")
	}
	if p.Diagnosis == "" {
		return apperr.Validation("diagnosis is required")
	}
	if len(p.Lines) == 0 {
		return apperr.Validation("prescription needs at least one line")
	}
	for _, l := range p.Lines {
		if l.ProductID == uuid.Nil {
			return apperr.Validation("product_id is required on every line")
		}
		if l.Quantity <= 0 {
			return apperr.Validation("quantity must be greater than zero")
		}
		l.QuantityDispensed = 0
	}

	pat, err := s.patients.GetByID(ctx, p.PatientID)
	if err != nil {
		return apperr.Validation("patient not found")
	}
	if !pat.Active {
		return apperr.Validation(fmt.Sprintf("patient %s is no longer active", pat.FullName()))
	}

	presc, err := s.prescribers.GetByID(ctx, p.PrescriberID)
	if err != nil {
		return apperr.Validation("prescriber not found")
	}
	if presc.LicenseExpired(time.Now()) {
		return apperr.Validation(fmt.Sprintf("prescriber %s holds an expired license", presc.Name))
	}

	if p.PrescriptionDate.IsZero() {
		p.PrescriptionDate = time.Now()
	}
	n, err := s.seq.Next(ctx, SequenceKey)
	if err != nil {
		return err
	}
	p.Number = fmt.Sprintf("RX%05d", n)
	p.State = StateDraft
	p.VerifiedByPharmacist = false
	p.Active = true
	return s.repo.Create(ctx, p)
}

func (s *Service) GetPrescription(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListPrescriptions(ctx context.Context, patientID uuid.UUID, state string, limit, offset int) ([]*Prescription, int, error) {
	return s.repo.List(ctx, patientID, state, limit, offset)
}

func (s *Service) Confirm(ctx context.Context, id uuid.UUID) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p.State != StateDraft {
		return apperr.User(fmt.Sprintf("prescription %s cannot be confirmed from state %s", p.Number, p.State))
	}
	p.State = StateConfirmed
	return s.repo.Update(ctx, p)
}

// Verify records pharmacist sign-off. Only a pharmacist may verify; repeat
// verification restamps the verifier and timestamp.
func (s *Service) Verify(ctx context.Context, id uuid.UUID, notes string) error {
	actor := auth.ActorFromContext(ctx)
	if !actor.IsPharmacist() {
		return apperr.User("only pharmacists can verify prescriptions")
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	now := time.Now()
	p.VerifiedByPharmacist = true
	p.PharmacistName = &actor.Name
	p.VerificationDate = &now
	if notes != "" {
		p.PharmacistNotes = &notes
	}
	return s.repo.Update(ctx, p)
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p.State == StateDispensed {
		return apperr.User(fmt.Sprintf("cannot cancel prescription %s: it has been dispensed", p.Number))
	}
	p.State = StateCancelled
	return s.repo.Update(ctx, p)
}

// SetToDraft resets a prescription for correction. Terminal states stay put.
func (s *Service) SetToDraft(ctx context.Context, id uuid.UUID) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	switch p.State {
	case StateDispensed, StateExpired, StateCancelled:
		return apperr.User(fmt.Sprintf("prescription %s cannot be reset from state %s", p.Number, p.State))
	}
	p.State = StateDraft
	return s.repo.Update(ctx, p)
}

// CheckValidity gates dispensing. The checks run in a fixed order so the
// caller always sees the most fundamental problem first: expiry, then
// cancellation, then missing pharmacist sign-off.
func (s *Service) CheckValidity(ctx context.Context, p *Prescription, today time.Time) error {
	if p.ValidUntil(s.validityDays).Before(today) {
		return apperr.Validation(fmt.Sprintf("prescription %s has expired and cannot be dispensed", p.Number))
	}
	if p.State == StateCancelled {
		return apperr.Validation(fmt.Sprintf("prescription %s has been cancelled", p.Number))
	}
	if !p.VerifiedByPharmacist {
		return apperr.Validation(fmt.Sprintf("prescription %s must be verified by a pharmacist before dispensing", p.Number))
	}
	return nil
}

// RecordDispense accumulates dispensed quantities onto the named lines and
// rolls the header state up from the line states. The caller is expected to
// run it inside a transaction together with the sale that triggered it.
func (s *Service) RecordDispense(ctx context.Context, id uuid.UUID, quantities map[uuid.UUID]float64, saleID uuid.UUID) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	lines := make(map[uuid.UUID]*Line, len(p.Lines))
	for _, l := range p.Lines {
		lines[l.ID] = l
	}
	for lineID, qty := range quantities {
		l, ok := lines[lineID]
		if !ok {
			return apperr.Validation(fmt.Sprintf("line %s does not belong to prescription %s", lineID, p.Number))
		}
		if qty <= 0 {
			return apperr.Validation("dispensed quantity must be greater than zero")
		}
		if qty > l.Remaining() {
			return apperr.Validation(fmt.Sprintf("prescription %s: dispensing %.2f exceeds the remaining %.2f", p.Number, qty, l.Remaining()))
		}
		l.QuantityDispensed += qty
		if err := s.repo.UpdateLine(ctx, l); err != nil {
			return err
		}
	}

	actor := auth.ActorFromContext(ctx)
	now := time.Now()
	if p.FullyDispensed() {
		p.State = StateDispensed
	} else if p.AnyDispensed() {
		p.State = StatePartiallyDispensed
	}
	if actor.Name != "" {
		p.DispensedBy = &actor.Name
	}
	p.DispensingDate = &now
	if saleID != uuid.Nil {
		p.SaleID = &saleID
	}
	return s.repo.Update(ctx, p)
}

// MarkExpired sweeps confirmed or partially dispensed prescriptions whose
// validity window has closed. Returns the number of rows flipped.
func (s *Service) MarkExpired(ctx context.Context, today time.Time) (int, error) {
	const pageSize = 1000
	flipped := 0
	for _, state := range []string{StateDraft, StateConfirmed, StatePartiallyDispensed} {
		offset := 0
		for {
			items, _, err := s.repo.List(ctx, uuid.Nil, state, pageSize, offset)
			if err != nil {
				return flipped, err
			}
			for _, p := range items {
				if p.ValidUntil(s.validityDays).Before(today) {
					p.State = StateExpired
					if err := s.repo.Update(ctx, p); err != nil {
						return flipped, err
					}
					flipped++
				} else {
					// flipped rows drop out of the state filter, so the
					// offset only advances past the rows that stayed
					offset++
				}
			}
			if len(items) < pageSize {
				break
			}
		}
	}
	return flipped, nil
}
