package sale

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/softlink/pharmacy-pos/internal/domain/patient"
	"github.com/softlink/pharmacy-pos/internal/domain/prescriber"
	"github.com/softlink/pharmacy-pos/internal/domain/prescription"
	"github.com/softlink/pharmacy-pos/internal/domain/product"
	"github.com/softlink/pharmacy-pos/internal/domain/register"
	"github.com/softlink/pharmacy-pos/internal/domain/stocklot"
	"github.com/softlink/pharmacy-pos/internal/platform/apperr"
	"github.com/softlink/pharmacy-pos/internal/platform/auth"
	"github.com/softlink/pharmacy-pos/internal/platform/sequence"
)

// -- Mock repositories --

type mockSaleRepo struct {
	sales map[uuid.UUID]*Sale
}

func (m *mockSaleRepo) Create(_ context.Context, s *Sale) error {
	s.ID = uuid.New()
	for _, l := range s.Lines {
		l.ID = uuid.New()
		l.SaleID = s.ID
	}
	s.CreatedAt = time.Now()
	m.sales[s.ID] = s
	return nil
}

func (m *mockSaleRepo) GetByID(_ context.Context, id uuid.UUID) (*Sale, error) {
	s, ok := m.sales[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return s, nil
}

func (m *mockSaleRepo) Update(_ context.Context, s *Sale) error {
	m.sales[s.ID] = s
	return nil
}

func (m *mockSaleRepo) List(_ context.Context, state string, limit, offset int) ([]*Sale, int, error) {
	var result []*Sale
	for _, s := range m.sales {
		if state == "" || s.State == state {
			result = append(result, s)
		}
	}
	return result, len(result), nil
}

type mockProducts struct {
	products map[uuid.UUID]*product.Product
}

func (m *mockProducts) Create(_ context.Context, p *product.Product) error { return nil }
func (m *mockProducts) GetByID(_ context.Context, id uuid.UUID) (*product.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return p, nil
}
func (m *mockProducts) Update(_ context.Context, p *product.Product) error { return nil }
func (m *mockProducts) Deactivate(_ context.Context, id uuid.UUID) error   { return nil }
func (m *mockProducts) FindByPPBRegistrationNo(_ context.Context, _ string) (*product.Product, error) {
	return nil, nil
}
func (m *mockProducts) List(_ context.Context, _ string, _, _ int) ([]*product.Product, int, error) {
	return nil, 0, nil
}

type mockPatients struct {
	patients map[uuid.UUID]*patient.Patient
}

func (m *mockPatients) Create(_ context.Context, p *patient.Patient) error { return nil }
func (m *mockPatients) GetByID(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return p, nil
}
func (m *mockPatients) Update(_ context.Context, p *patient.Patient) error { return nil }
func (m *mockPatients) Deactivate(_ context.Context, id uuid.UUID) error   { return nil }
func (m *mockPatients) FindActiveByIDNumber(_ context.Context, _ string) (*patient.Patient, error) {
	return nil, nil
}
func (m *mockPatients) Search(_ context.Context, _ map[string]string, _, _ int) ([]*patient.Patient, int, error) {
	return nil, 0, nil
}

type mockPrescribers struct {
	prescribers map[uuid.UUID]*prescriber.Prescriber
}

func (m *mockPrescribers) Create(_ context.Context, p *prescriber.Prescriber) error { return nil }
func (m *mockPrescribers) GetByID(_ context.Context, id uuid.UUID) (*prescriber.Prescriber, error) {
	p, ok := m.prescribers[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return p, nil
}
func (m *mockPrescribers) Update(_ context.Context, p *prescriber.Prescriber) error { return nil }
func (m *mockPrescribers) Deactivate(_ context.Context, id uuid.UUID) error         { return nil }
func (m *mockPrescribers) FindByLicenseNumber(_ context.Context, _ string) (*prescriber.Prescriber, error) {
	return nil, nil
}
func (m *mockPrescribers) List(_ context.Context, _, _ int) ([]*prescriber.Prescriber, int, error) {
	return nil, 0, nil
}

type mockPrescriptionRepo struct {
	prescriptions map[uuid.UUID]*prescription.Prescription
}

func (m *mockPrescriptionRepo) Create(_ context.Context, p *prescription.Prescription) error {
	p.ID = uuid.New()
	for _, l := range p.Lines {
		l.ID = uuid.New()
		l.PrescriptionID = p.ID
	}
	m.prescriptions[p.ID] = p
	return nil
}

func (m *mockPrescriptionRepo) GetByID(_ context.Context, id uuid.UUID) (*prescription.Prescription, error) {
	p, ok := m.prescriptions[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return p, nil
}

func (m *mockPrescriptionRepo) Update(_ context.Context, p *prescription.Prescription) error {
	m.prescriptions[p.ID] = p
	return nil
}

func (m *mockPrescriptionRepo) UpdateLine(_ context.Context, l *prescription.Line) error {
	p, ok := m.prescriptions[l.PrescriptionID]
	if !ok {
		return fmt.Errorf("not found")
	}
	for i, existing := range p.Lines {
		if existing.ID == l.ID {
			p.Lines[i] = l
			return nil
		}
	}
	return fmt.Errorf("line not found")
}

func (m *mockPrescriptionRepo) List(_ context.Context, _ uuid.UUID, _ string, _, _ int) ([]*prescription.Prescription, int, error) {
	return nil, 0, nil
}

type mockLots struct {
	lots map[uuid.UUID]*stocklot.Lot
}

func (m *mockLots) Create(_ context.Context, l *stocklot.Lot) error { return nil }
func (m *mockLots) GetByID(_ context.Context, id uuid.UUID) (*stocklot.Lot, error) {
	l, ok := m.lots[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return l, nil
}
func (m *mockLots) Update(_ context.Context, l *stocklot.Lot) error { return nil }
func (m *mockLots) AdjustQuantity(_ context.Context, id uuid.UUID, delta float64) error {
	l, ok := m.lots[id]
	if !ok {
		return fmt.Errorf("not found")
	}
	l.Quantity += delta
	return nil
}
func (m *mockLots) ListByProduct(_ context.Context, _ uuid.UUID) ([]*stocklot.Lot, error) {
	return nil, nil
}
func (m *mockLots) ListWithExpiry(_ context.Context) ([]*stocklot.Lot, error) { return nil, nil }

type mockRegisterRepo struct {
	entries []*register.Entry
}

func (m *mockRegisterRepo) Create(_ context.Context, e *register.Entry) error {
	e.ID = uuid.New()
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockRegisterRepo) List(_ context.Context, productID uuid.UUID, _, _ int) ([]*register.Entry, int, error) {
	var result []*register.Entry
	for _, e := range m.entries {
		if productID == uuid.Nil || e.ProductID == productID {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.After(result[j].Date) })
	return result, len(result), nil
}

type mockInvoicer struct {
	issued []uuid.UUID
	fail   bool
}

func (m *mockInvoicer) IssueInvoice(_ context.Context, s *Sale) error {
	if m.fail {
		return fmt.Errorf("etims unreachable")
	}
	m.issued = append(m.issued, s.ID)
	return nil
}

// -- Harness --

type harness struct {
	svc           *Service
	prescriptions *prescription.Service
	registerRepo  *mockRegisterRepo
	lots          *mockLots
	invoicer      *mockInvoicer

	patientID    uuid.UUID
	prescriberID uuid.UUID
	controlled   *product.Product
	otc          *product.Product
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	patientID := uuid.New()
	idNumber := "12345678"
	street := "Moi Avenue"
	city := "Nairobi"
	patients := &mockPatients{patients: map[uuid.UUID]*patient.Patient{
		patientID: {
			ID: patientID, FirstName: "Jane", LastName: "Wanjiku",
			IDNumber: &idNumber, Street: &street, City: &city,
			Phone: "0712345678", Active: true,
		},
	}}

	prescriberID := uuid.New()
	prescribers := &mockPrescribers{prescribers: map[uuid.UUID]*prescriber.Prescriber{
		prescriberID: {ID: prescriberID, Name: "Dr. Achieng Odhiambo", LicenseNumber: "KMPDC-1001", Active: true},
	}}

	controlled := &product.Product{
		ID: uuid.New(), Name: "Morphine Sulphate 10mg", GenericName: "Morphine",
		Category: product.CategoryControlled, Schedule: product.Schedule1,
		ExpiryAlertDays: 90, Active: true,
	}
	otc := &product.Product{
		ID: uuid.New(), Name: "Paracetamol 500mg", GenericName: "Paracetamol",
		Category: product.CategoryOTC, Schedule: product.Unscheduled,
		ExpiryAlertDays: 90, Active: true,
	}
	products := &mockProducts{products: map[uuid.UUID]*product.Product{
		controlled.ID: controlled,
		otc.ID:        otc,
	}}

	prescSvc := prescription.NewService(
		&mockPrescriptionRepo{prescriptions: make(map[uuid.UUID]*prescription.Prescription)},
		patients, prescribers, sequence.NewMemory(), prescription.DefaultValidityDays)

	registerRepo := &mockRegisterRepo{}
	lots := &mockLots{lots: make(map[uuid.UUID]*stocklot.Lot)}

	svc := NewService(
		&mockSaleRepo{sales: make(map[uuid.UUID]*Sale)},
		products, patients, prescribers, prescSvc, lots,
		register.NewService(registerRepo), sequence.NewMemory(),
		nil, true, zerolog.Nop())

	inv := &mockInvoicer{}
	svc.SetInvoicer(inv)

	return &harness{
		svc:           svc,
		prescriptions: prescSvc,
		registerRepo:  registerRepo,
		lots:          lots,
		invoicer:      inv,
		patientID:     patientID,
		prescriberID:  prescriberID,
		controlled:    controlled,
		otc:           otc,
	}
}

func (h *harness) verifiedPrescription(t *testing.T, productID uuid.UUID, qty float64) *prescription.Prescription {
	t.Helper()
	p := &prescription.Prescription{
		PatientID:    h.patientID,
		PrescriberID: h.prescriberID,
		Diagnosis:    "Severe pain management",
		Lines:        []*prescription.Line{{ProductID: productID, Quantity: qty}},
	}
	if err := h.prescriptions.CreatePrescription(context.Background(), p); err != nil {
		t.Fatalf("CreatePrescription: %v", err)
	}
	if err := h.prescriptions.Confirm(context.Background(), p.ID); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if err := h.prescriptions.Verify(pharmacistCtx(), p.ID, ""); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	return p
}

func (h *harness) addLot(productID uuid.UUID, daysToExpiry int, qty float64) *stocklot.Lot {
	expiry := time.Now().AddDate(0, 0, daysToExpiry)
	l := &stocklot.Lot{
		ID: uuid.New(), ProductID: productID, Name: fmt.Sprintf("LOT-%d", daysToExpiry),
		ExpiryDate: &expiry, Quantity: qty,
	}
	h.lots.lots[l.ID] = l
	return l
}

func pharmacistCtx() context.Context {
	return auth.WithActor(context.Background(), auth.Actor{ID: "u1", Name: "Pharm. Njeri", Roles: []string{auth.RolePharmacist}})
}

func cashierCtx() context.Context {
	return auth.WithActor(context.Background(), auth.Actor{ID: "u2", Name: "Cashier Otieno", Roles: []string{auth.RoleCashier}})
}

// -- Tests --

func TestFinalizeSale_OTCPassesWithoutPrescription(t *testing.T) {
	h := newHarness(t)

	s := &Sale{Lines: []*Line{{ProductID: h.otc.ID, Quantity: 2, UnitPriceCents: 5000}}}
	if err := h.svc.CreateSale(cashierCtx(), s); err != nil {
		t.Fatalf("CreateSale: %v", err)
	}
	if s.Number != "POS00001" {
		t.Errorf("number = %q, want POS00001", s.Number)
	}

	warnings, err := h.svc.FinalizeSale(cashierCtx(), s.ID)
	if err != nil {
		t.Fatalf("FinalizeSale: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}
	got, _ := h.svc.GetSale(cashierCtx(), s.ID)
	if got.State != StatePaid {
		t.Errorf("state = %q, want paid", got.State)
	}
	if len(h.invoicer.issued) != 1 {
		t.Errorf("expected one tax invoice, got %d", len(h.invoicer.issued))
	}
}

func TestFinalizeSale_ApprovalRequired(t *testing.T) {
	h := newHarness(t)
	presc := h.verifiedPrescription(t, h.controlled.ID, 10)

	s := &Sale{
		PatientID:      &h.patientID,
		PrescriptionID: &presc.ID,
		Lines: []*Line{{
			ProductID: h.controlled.ID, Quantity: 10, UnitPriceCents: 20000,
			PrescriptionLineID: &presc.Lines[0].ID,
		}},
	}
	if err := h.svc.CreateSale(cashierCtx(), s); err != nil {
		t.Fatalf("CreateSale: %v", err)
	}

	_, err := h.svc.FinalizeSale(cashierCtx(), s.ID)
	if !apperr.IsUser(err) {
		t.Fatalf("expected user error without approval, got %v", err)
	}
	if !strings.Contains(err.Error(), "pharmacist approval") {
		t.Errorf("error = %q, want mention of pharmacist approval", err.Error())
	}
}

func TestFinalizeSale_MissingPrescription(t *testing.T) {
	h := newHarness(t)

	s := &Sale{Lines: []*Line{{ProductID: h.controlled.ID, Quantity: 1, UnitPriceCents: 20000}}}
	if err := h.svc.CreateSale(cashierCtx(), s); err != nil {
		t.Fatalf("CreateSale: %v", err)
	}
	if err := h.svc.Approve(pharmacistCtx(), s.ID); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	_, err := h.svc.FinalizeSale(cashierCtx(), s.ID)
	if !apperr.IsUser(err) {
		t.Fatalf("expected user error without prescription, got %v", err)
	}
	if !strings.Contains(err.Error(), "no prescription") {
		t.Errorf("error = %q, want mention of missing prescription", err.Error())
	}
}

func TestFinalizeSale_UnverifiedPrescription(t *testing.T) {
	h := newHarness(t)

	p := &prescription.Prescription{
		PatientID:    h.patientID,
		PrescriberID: h.prescriberID,
		Diagnosis:    "Severe pain management",
		Lines:        []*prescription.Line{{ProductID: h.controlled.ID, Quantity: 10}},
	}
	if err := h.prescriptions.CreatePrescription(context.Background(), p); err != nil {
		t.Fatalf("CreatePrescription: %v", err)
	}

	s := &Sale{
		PatientID:      &h.patientID,
		PrescriptionID: &p.ID,
		Lines: []*Line{{
			ProductID: h.controlled.ID, Quantity: 10, UnitPriceCents: 20000,
			PrescriptionLineID: &p.Lines[0].ID,
		}},
	}
	if err := h.svc.CreateSale(cashierCtx(), s); err != nil {
		t.Fatalf("CreateSale: %v", err)
	}
	if err := h.svc.Approve(pharmacistCtx(), s.ID); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	_, err := h.svc.FinalizeSale(cashierCtx(), s.ID)
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error for unverified prescription, got %v", err)
	}
	if !strings.Contains(err.Error(), "verified by a pharmacist") {
		t.Errorf("error = %q, want mention of pharmacist verification", err.Error())
	}
}

func TestFinalizeSale_ExpiredLotBlocks(t *testing.T) {
	h := newHarness(t)
	lot := h.addLot(h.otc.ID, -5, 100)

	s := &Sale{Lines: []*Line{{ProductID: h.otc.ID, Quantity: 2, UnitPriceCents: 5000, LotID: &lot.ID}}}
	if err := h.svc.CreateSale(cashierCtx(), s); err != nil {
		t.Fatalf("CreateSale: %v", err)
	}

	_, err := h.svc.FinalizeSale(cashierCtx(), s.ID)
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error for expired lot, got %v", err)
	}
	got, _ := h.svc.GetSale(cashierCtx(), s.ID)
	if got.State != StateOpen {
		t.Errorf("blocked sale must stay open, got %q", got.State)
	}
}

func TestFinalizeSale_InsufficientStockBlocks(t *testing.T) {
	h := newHarness(t)
	lot := h.addLot(h.otc.ID, 365, 3)

	s := &Sale{Lines: []*Line{{ProductID: h.otc.ID, Quantity: 5, UnitPriceCents: 5000, LotID: &lot.ID}}}
	if err := h.svc.CreateSale(cashierCtx(), s); err != nil {
		t.Fatalf("CreateSale: %v", err)
	}

	_, err := h.svc.FinalizeSale(cashierCtx(), s.ID)
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error for insufficient stock, got %v", err)
	}
	if lot.Quantity != 3 {
		t.Errorf("lot quantity = %v, want 3 untouched", lot.Quantity)
	}
	got, _ := h.svc.GetSale(cashierCtx(), s.ID)
	if got.State != StateOpen {
		t.Errorf("blocked sale must stay open, got %q", got.State)
	}
}

func TestFinalizeSale_NearExpiryWarns(t *testing.T) {
	h := newHarness(t)
	lot := h.addLot(h.otc.ID, 45, 100)

	s := &Sale{Lines: []*Line{{ProductID: h.otc.ID, Quantity: 2, UnitPriceCents: 5000, LotID: &lot.ID}}}
	if err := h.svc.CreateSale(cashierCtx(), s); err != nil {
		t.Fatalf("CreateSale: %v", err)
	}

	warnings, err := h.svc.FinalizeSale(cashierCtx(), s.ID)
	if err != nil {
		t.Fatalf("FinalizeSale: %v", err)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "expires in") {
		t.Errorf("warnings = %v, want one near-expiry warning", warnings)
	}
	if lot.Quantity != 98 {
		t.Errorf("lot quantity = %v, want 98", lot.Quantity)
	}
}

// The full controlled-drug flow: verified prescription, pharmacist approval,
// finalization dispenses, registers, and marks everything consistently.
func TestFinalizeSale_ControlledDrugFlow(t *testing.T) {
	h := newHarness(t)
	presc := h.verifiedPrescription(t, h.controlled.ID, 10)
	lot := h.addLot(h.controlled.ID, 120, 50)

	s := &Sale{
		PatientID:      &h.patientID,
		PrescriptionID: &presc.ID,
		Lines: []*Line{{
			ProductID: h.controlled.ID, Quantity: 10, UnitPriceCents: 20000,
			LotID: &lot.ID, PrescriptionLineID: &presc.Lines[0].ID,
		}},
	}
	if err := h.svc.CreateSale(cashierCtx(), s); err != nil {
		t.Fatalf("CreateSale: %v", err)
	}
	if s.PatientName == nil || *s.PatientName != "Jane Wanjiku" {
		t.Errorf("patient name snapshot = %v, want Jane Wanjiku", s.PatientName)
	}
	if err := h.svc.Approve(pharmacistCtx(), s.ID); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	warnings, err := h.svc.FinalizeSale(cashierCtx(), s.ID)
	if err != nil {
		t.Fatalf("FinalizeSale: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}

	got, _ := h.svc.GetSale(cashierCtx(), s.ID)
	if got.State != StatePaid {
		t.Errorf("sale state = %q, want paid", got.State)
	}

	updated, _ := h.prescriptions.GetPrescription(context.Background(), presc.ID)
	if updated.State != prescription.StateDispensed {
		t.Errorf("prescription state = %q, want dispensed", updated.State)
	}
	if updated.SaleID == nil || *updated.SaleID != s.ID {
		t.Error("prescription should reference the sale")
	}

	if lot.Quantity != 40 {
		t.Errorf("lot quantity = %v, want 40", lot.Quantity)
	}

	entries := h.registerRepo.entries
	if len(entries) != 1 {
		t.Fatalf("register entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.ProductName != "Morphine Sulphate 10mg" || e.Quantity != 10 {
		t.Errorf("entry product/qty = %s/%v", e.ProductName, e.Quantity)
	}
	if e.PatientName != "Jane Wanjiku" {
		t.Errorf("entry patient = %q", e.PatientName)
	}
	if e.PatientIDNumber == nil || *e.PatientIDNumber != "12345678" {
		t.Errorf("entry id number = %v", e.PatientIDNumber)
	}
	if e.PatientAddress == nil || *e.PatientAddress != "Moi Avenue, Nairobi" {
		t.Errorf("entry address = %v", e.PatientAddress)
	}
	if e.PrescriberLicense == nil || *e.PrescriberLicense != "KMPDC-1001" {
		t.Errorf("entry prescriber license = %v", e.PrescriberLicense)
	}
	if e.Pharmacist != "Pharm. Njeri" {
		t.Errorf("entry pharmacist = %q", e.Pharmacist)
	}
	if e.DispensedBy != "Cashier Otieno" {
		t.Errorf("entry dispensed_by = %q", e.DispensedBy)
	}
}

func TestFinalizeSale_PartialDispense(t *testing.T) {
	h := newHarness(t)
	presc := h.verifiedPrescription(t, h.controlled.ID, 20)

	s := &Sale{
		PatientID:      &h.patientID,
		PrescriptionID: &presc.ID,
		Lines: []*Line{{
			ProductID: h.controlled.ID, Quantity: 5, UnitPriceCents: 20000,
			PrescriptionLineID: &presc.Lines[0].ID,
		}},
	}
	if err := h.svc.CreateSale(cashierCtx(), s); err != nil {
		t.Fatalf("CreateSale: %v", err)
	}
	if err := h.svc.Approve(pharmacistCtx(), s.ID); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if _, err := h.svc.FinalizeSale(cashierCtx(), s.ID); err != nil {
		t.Fatalf("FinalizeSale: %v", err)
	}

	updated, _ := h.prescriptions.GetPrescription(context.Background(), presc.ID)
	if updated.State != prescription.StatePartiallyDispensed {
		t.Errorf("prescription state = %q, want partially_dispensed", updated.State)
	}
	if updated.Lines[0].Remaining() != 15 {
		t.Errorf("remaining = %v, want 15", updated.Lines[0].Remaining())
	}
}

func TestFinalizeSale_InvoiceFailureDoesNotFailSale(t *testing.T) {
	h := newHarness(t)
	h.invoicer.fail = true

	s := &Sale{Lines: []*Line{{ProductID: h.otc.ID, Quantity: 1, UnitPriceCents: 5000}}}
	if err := h.svc.CreateSale(cashierCtx(), s); err != nil {
		t.Fatalf("CreateSale: %v", err)
	}
	if _, err := h.svc.FinalizeSale(cashierCtx(), s.ID); err != nil {
		t.Fatalf("FinalizeSale must not fail on invoicing, got %v", err)
	}
	got, _ := h.svc.GetSale(cashierCtx(), s.ID)
	if got.State != StatePaid {
		t.Errorf("state = %q, want paid", got.State)
	}
}

func TestApprove_RequiresPharmacist(t *testing.T) {
	h := newHarness(t)

	s := &Sale{Lines: []*Line{{ProductID: h.otc.ID, Quantity: 1, UnitPriceCents: 5000}}}
	if err := h.svc.CreateSale(cashierCtx(), s); err != nil {
		t.Fatalf("CreateSale: %v", err)
	}
	if err := h.svc.Approve(cashierCtx(), s.ID); !apperr.IsUser(err) {
		t.Errorf("expected user error for non-pharmacist approval, got %v", err)
	}
}

func TestFinalizeSale_AlreadyPaid(t *testing.T) {
	h := newHarness(t)

	s := &Sale{Lines: []*Line{{ProductID: h.otc.ID, Quantity: 1, UnitPriceCents: 5000}}}
	if err := h.svc.CreateSale(cashierCtx(), s); err != nil {
		t.Fatalf("CreateSale: %v", err)
	}
	if _, err := h.svc.FinalizeSale(cashierCtx(), s.ID); err != nil {
		t.Fatalf("FinalizeSale: %v", err)
	}
	if _, err := h.svc.FinalizeSale(cashierCtx(), s.ID); !apperr.IsUser(err) {
		t.Errorf("expected user error finalizing twice, got %v", err)
	}
}

func TestTotalCents(t *testing.T) {
	s := &Sale{Lines: []*Line{
		{Quantity: 2, UnitPriceCents: 5000},
		{Quantity: 1.5, UnitPriceCents: 1000},
	}}
	if got := s.TotalCents(); got != 11500 {
		t.Errorf("TotalCents = %d, want 11500", got)
	}
}

func TestTotalCents_FractionalQuantityRounds(t *testing.T) {
	s := &Sale{Lines: []*Line{{Quantity: 0.07, UnitPriceCents: 1000}}}
	if got := s.TotalCents(); got != 70 {
		t.Errorf("TotalCents = %d, want 70", got)
	}
}
