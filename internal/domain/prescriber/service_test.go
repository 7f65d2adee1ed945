package prescriber

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/softlink/pharmacy-pos/internal/platform/apperr"
	"github.com/softlink/pharmacy-pos/internal/platform/auth"
)

// -- Mock Repository --

type mockRepo struct {
	prescribers map[uuid.UUID]*Prescriber
}

func newMockRepo() *mockRepo {
	return &mockRepo{prescribers: make(map[uuid.UUID]*Prescriber)}
}

func (m *mockRepo) Create(_ context.Context, p *Prescriber) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()
	m.prescribers[p.ID] = p
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Prescriber, error) {
	p, ok := m.prescribers[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return p, nil
}

func (m *mockRepo) Update(_ context.Context, p *Prescriber) error {
	m.prescribers[p.ID] = p
	return nil
}

func (m *mockRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	p, ok := m.prescribers[id]
	if !ok {
		return fmt.Errorf("not found")
	}
	p.Active = false
	return nil
}

func (m *mockRepo) FindByLicenseNumber(_ context.Context, licenseNumber string) (*Prescriber, error) {
	for _, p := range m.prescribers {
		if p.LicenseNumber == licenseNumber {
			return p, nil
		}
	}
	return nil, nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Prescriber, int, error) {
	var result []*Prescriber
	for _, p := range m.prescribers {
		if p.Active {
			result = append(result, p)
		}
	}
	return result, len(result), nil
}

func timePtr(t time.Time) *time.Time { return &t }

// -- Tests --

func TestCreatePrescriber(t *testing.T) {
	svc := NewService(newMockRepo())

	p := &Prescriber{Name: "Dr. Achieng Odhiambo", LicenseNumber: "KMPDC-1001"}
	if err := svc.CreatePrescriber(context.Background(), p); err != nil {
		t.Fatalf("CreatePrescriber: %v", err)
	}
	if p.ID == uuid.Nil {
		t.Error("expected id to be set")
	}
	if p.Verified {
		t.Error("new prescriber must start unverified")
	}
}

func TestCreatePrescriber_LicenseRequired(t *testing.T) {
	svc := NewService(newMockRepo())

	err := svc.CreatePrescriber(context.Background(), &Prescriber{Name: "Dr. Achieng Odhiambo"})
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error for missing license_number, got %v", err)
	}
}

func TestCreatePrescriber_DuplicateLicense(t *testing.T) {
	svc := NewService(newMockRepo())

	first := &Prescriber{Name: "Dr. Achieng Odhiambo", LicenseNumber: "KMPDC-1001"}
	if err := svc.CreatePrescriber(context.Background(), first); err != nil {
		t.Fatalf("CreatePrescriber: %v", err)
	}

	dup := &Prescriber{Name: "Dr. Brian Kiprop", LicenseNumber: "KMPDC-1001"}
	if err := svc.CreatePrescriber(context.Background(), dup); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for duplicate license, got %v", err)
	}
}

func TestCreatePrescriber_ExpiredLicense(t *testing.T) {
	svc := NewService(newMockRepo())

	p := &Prescriber{
		Name:          "Dr. Achieng Odhiambo",
		LicenseNumber: "KMPDC-1001",
		LicenseExpiry: timePtr(time.Now().AddDate(0, 0, -1)),
	}
	if err := svc.CreatePrescriber(context.Background(), p); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for expired license, got %v", err)
	}
}

func TestVerifyPrescriber(t *testing.T) {
	svc := NewService(newMockRepo())

	p := &Prescriber{Name: "Dr. Achieng Odhiambo", LicenseNumber: "KMPDC-1001"}
	if err := svc.CreatePrescriber(context.Background(), p); err != nil {
		t.Fatalf("CreatePrescriber: %v", err)
	}

	ctx := auth.WithActor(context.Background(), auth.Actor{ID: "u1", Name: "Pharm. Njeri", Roles: []string{auth.RolePharmacist}})
	if err := svc.Verify(ctx, p.ID); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	got, _ := svc.GetPrescriber(ctx, p.ID)
	if !got.Verified {
		t.Error("expected verified = true")
	}
	if got.VerifiedBy == nil || *got.VerifiedBy != "Pharm. Njeri" {
		t.Errorf("verified_by = %v, want Pharm. Njeri", got.VerifiedBy)
	}
	if got.VerifiedAt == nil {
		t.Error("expected verified_at to be stamped")
	}

	// Re-verifying must not overwrite the original stamp.
	stamp := *got.VerifiedAt
	ctx2 := auth.WithActor(context.Background(), auth.Actor{ID: "u2", Name: "Pharm. Mwangi", Roles: []string{auth.RolePharmacist}})
	if err := svc.Verify(ctx2, p.ID); err != nil {
		t.Fatalf("Verify (repeat): %v", err)
	}
	got, _ = svc.GetPrescriber(ctx, p.ID)
	if *got.VerifiedBy != "Pharm. Njeri" || !got.VerifiedAt.Equal(stamp) {
		t.Error("repeat verify must be a no-op")
	}
}

func TestLicenseExpired(t *testing.T) {
	today := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	p := &Prescriber{}
	if p.LicenseExpired(today) {
		t.Error("no expiry on record should count as current")
	}

	p.LicenseExpiry = timePtr(today.AddDate(0, 0, -1))
	if !p.LicenseExpired(today) {
		t.Error("expiry yesterday should count as expired")
	}

	p.LicenseExpiry = timePtr(today.AddDate(0, 0, 30))
	if p.LicenseExpired(today) {
		t.Error("future expiry should count as current")
	}
}
