package sale

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/softlink/pharmacy-pos/internal/domain/patient"
	"github.com/softlink/pharmacy-pos/internal/domain/prescriber"
	"github.com/softlink/pharmacy-pos/internal/domain/prescription"
	"github.com/softlink/pharmacy-pos/internal/domain/product"
	"github.com/softlink/pharmacy-pos/internal/domain/register"
	"github.com/softlink/pharmacy-pos/internal/domain/stocklot"
	"github.com/softlink/pharmacy-pos/internal/platform/apperr"
	"github.com/softlink/pharmacy-pos/internal/platform/auth"
	"github.com/softlink/pharmacy-pos/internal/platform/db"
	"github.com/softlink/pharmacy-pos/internal/platform/metrics"
	"github.com/softlink/pharmacy-pos/internal/platform/sequence"
)

// SequenceKey names the counter behind receipt numbers.
const SequenceKey = "pos.sale"

// Invoicer issues a tax invoice for a finalized sale. Implementations must
// treat failures as their own problem: FinalizeSale never rolls back over a
// missing invoice.
type Invoicer interface {
	IssueInvoice(ctx context.Context, s *Sale) error
}

type Service struct {
	repo          Repository
	products      product.Repository
	patients      patient.Repository
	prescribers   prescriber.Repository
	prescriptions *prescription.Service
	lots          stocklot.Repository
	register      *register.Service
	seq           sequence.Allocator

	invoicer Invoicer
	metrics  *metrics.Metrics
	log      zerolog.Logger

	blockExpiredLots bool
	runTx            func(ctx context.Context, fn func(ctx context.Context) error) error
}

func NewService(
	repo Repository,
	products product.Repository,
	patients patient.Repository,
	prescribers prescriber.Repository,
	prescriptions *prescription.Service,
	lots stocklot.Repository,
	reg *register.Service,
	seq sequence.Allocator,
	pool *pgxpool.Pool,
	blockExpiredLots bool,
	log zerolog.Logger,
) *Service {
	s := &Service{
		repo:             repo,
		products:         products,
		patients:         patients,
		prescribers:      prescribers,
		prescriptions:    prescriptions,
		lots:             lots,
		register:         reg,
		seq:              seq,
		log:              log,
		blockExpiredLots: blockExpiredLots,
	}
	if pool != nil {
		s.runTx = func(ctx context.Context, fn func(ctx context.Context) error) error {
			return db.WithTx(ctx, pool, fn)
		}
	} else {
		s.runTx = func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		}
	}
	return s
}

// SetInvoicer attaches the optional tax invoicer.
func (s *Service) SetInvoicer(inv Invoicer) { s.invoicer = inv }

// SetMetrics attaches the optional metrics sink.
func (s *Service) SetMetrics(m *metrics.Metrics) { s.metrics = m }

func (s *Service) blocked(reason string) {
	if s.metrics != nil {
		s.metrics.SalesBlocked.WithLabelValues(reason).Inc()
	}
}

func (s *Service) CreateSale(ctx context.Context, sl *Sale) error {
	if len(sl.Lines) == 0 {
		return apperr.Validation("sale needs at least one line")
	}
	for _, l := range sl.Lines {
		if l.ProductID == uuid.Nil {
			return apperr.Validation("product_id is required on every line")
		}
		if l.Quantity <= 0 {
			return apperr.Validation("quantity must be greater than zero")
		}
	}
	if sl.PatientID != nil {
		pat, err := s.patients.GetByID(ctx, *sl.PatientID)
		if err != nil {
			return apperr.Validation("patient not found")
		}
		if sl.PatientName == nil {
			name := pat.FullName()
			sl.PatientName = &name
		}
		if sl.PatientPhone == nil && pat.Phone != "" {
			sl.PatientPhone = &pat.Phone
		}
	}
	n, err := s.seq.Next(ctx, SequenceKey)
	if err != nil {
		return err
	}
	sl.Number = fmt.Sprintf("POS%05d", n)
	sl.State = StateOpen
	return s.repo.Create(ctx, sl)
}

func (s *Service) GetSale(ctx context.Context, id uuid.UUID) (*Sale, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListSales(ctx context.Context, state string, limit, offset int) ([]*Sale, int, error) {
	return s.repo.List(ctx, state, limit, offset)
}

// Approve records pharmacist sign-off on the sale. Only a pharmacist may
// approve.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) error {
	actor := auth.ActorFromContext(ctx)
	if !actor.IsPharmacist() {
		return apperr.User("only pharmacists can approve sales")
	}
	sl, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if sl.State != StateOpen {
		return apperr.User(fmt.Sprintf("sale %s is already %s", sl.Number, sl.State))
	}
	now := time.Now()
	sl.ApprovedByPharmacist = true
	sl.PharmacistName = &actor.Name
	sl.ApprovalDate = &now
	return s.repo.Update(ctx, sl)
}

// gateFlags is what the catalog says about the sale's contents.
type gateFlags struct {
	hasPrescriptionItems bool
	requiresApproval     bool
	hasControlledDrugs   bool
	products             map[uuid.UUID]*product.Product
}

func (s *Service) deriveFlags(ctx context.Context, sl *Sale) (*gateFlags, error) {
	f := &gateFlags{products: make(map[uuid.UUID]*product.Product, len(sl.Lines))}
	for _, l := range sl.Lines {
		p, ok := f.products[l.ProductID]
		if !ok {
			var err error
			p, err = s.products.GetByID(ctx, l.ProductID)
			if err != nil {
				return nil, apperr.Validation(fmt.Sprintf("product %s not found", l.ProductID))
			}
			f.products[l.ProductID] = p
		}
		if p.RequiresPrescription() {
			f.hasPrescriptionItems = true
		}
		if p.RequiresPharmacistApproval() {
			f.requiresApproval = true
		}
		if p.IsControlled() {
			f.hasControlledDrugs = true
		}
	}
	return f, nil
}

// FinalizeSale runs the dispensing gate and, if every check passes, commits
// the sale: dispensed quantities accumulate on the prescription, stock comes
// off the lots, controlled lines land in the register and the sale flips to
// paid, all in one transaction. Returned warnings (near-expiry lots) never
// block the sale. Tax invoicing happens after commit and is best effort.
func (s *Service) FinalizeSale(ctx context.Context, id uuid.UUID) ([]string, error) {
	sl, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sl.State != StateOpen {
		return nil, apperr.User(fmt.Sprintf("sale %s is already %s", sl.Number, sl.State))
	}

	flags, err := s.deriveFlags(ctx, sl)
	if err != nil {
		return nil, err
	}

	if flags.requiresApproval && !sl.ApprovedByPharmacist {
		s.blocked("pharmacist_approval")
		return nil, apperr.User("this sale contains items that require pharmacist approval")
	}
	if flags.hasPrescriptionItems && sl.PrescriptionID == nil {
		s.blocked("missing_prescription")
		return nil, apperr.User("this sale contains prescription-only items but no prescription is linked")
	}

	today := time.Now()
	var presc *prescription.Prescription
	if sl.PrescriptionID != nil {
		presc, err = s.prescriptions.GetPrescription(ctx, *sl.PrescriptionID)
		if err != nil {
			return nil, apperr.Validation("linked prescription not found")
		}
		if err := s.prescriptions.CheckValidity(ctx, presc, today); err != nil {
			s.blocked("invalid_prescription")
			return nil, err
		}
	}

	warnings, err := s.checkLots(ctx, sl, flags, today)
	if err != nil {
		return nil, err
	}

	err = s.runTx(ctx, func(ctx context.Context) error {
		if presc != nil {
			quantities := make(map[uuid.UUID]float64)
			for _, l := range sl.Lines {
				if l.PrescriptionLineID != nil {
					quantities[*l.PrescriptionLineID] += l.Quantity
				}
			}
			if len(quantities) > 0 {
				if err := s.prescriptions.RecordDispense(ctx, presc.ID, quantities, sl.ID); err != nil {
					return err
				}
			}
		}
		for _, l := range sl.Lines {
			if l.LotID != nil {
				if err := s.lots.AdjustQuantity(ctx, *l.LotID, -l.Quantity); err != nil {
					return err
				}
			}
		}
		if flags.hasControlledDrugs {
			if err := s.recordControlledLines(ctx, sl, flags, presc, today); err != nil {
				return err
			}
		}
		sl.State = StatePaid
		return s.repo.Update(ctx, sl)
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.SalesFinalized.Inc()
		if presc != nil {
			updated, err := s.prescriptions.GetPrescription(ctx, presc.ID)
			if err == nil && updated.State == prescription.StateDispensed {
				s.metrics.PrescriptionsDispensed.Inc()
			}
		}
	}

	if s.invoicer != nil {
		if err := s.invoicer.IssueInvoice(ctx, sl); err != nil {
			s.log.Error().Err(err).Str("sale", sl.Number).Msg("tax invoice submission failed")
		}
	}
	return warnings, nil
}

func (s *Service) checkLots(ctx context.Context, sl *Sale, flags *gateFlags, today time.Time) ([]string, error) {
	var warnings []string
	for _, l := range sl.Lines {
		if l.LotID == nil {
			continue
		}
		lot, err := s.lots.GetByID(ctx, *l.LotID)
		if err != nil {
			return nil, apperr.Validation(fmt.Sprintf("lot %s not found", l.LotID))
		}
		p := flags.products[l.ProductID]
		if l.Quantity > lot.Quantity {
			s.blocked("insufficient_stock")
			return nil, apperr.Validation(fmt.Sprintf("lot %s of %s has %g units, sale needs %g", lot.Name, p.Name, lot.Quantity, l.Quantity))
		}
		if lot.IsExpired(today) {
			if s.blockExpiredLots {
				if s.metrics != nil {
					s.metrics.ExpiredLotRejections.Inc()
				}
				s.blocked("expired_lot")
				return nil, apperr.Validation(fmt.Sprintf("lot %s of %s expired on %s", lot.Name, p.Name, lot.ExpiryDate.Format("2006-01-02")))
			}
			warnings = append(warnings, fmt.Sprintf("lot %s of %s is expired", lot.Name, p.Name))
			continue
		}
		alertDays := p.ExpiryAlertDays
		if alertDays <= 0 {
			alertDays = product.DefaultExpiryAlertDays
		}
		if lot.IsNearExpiry(today, alertDays) {
			warnings = append(warnings, fmt.Sprintf("lot %s of %s expires in %d days", lot.Name, p.Name, lot.DaysToExpiry(today)))
		}
	}
	return warnings, nil
}

func (s *Service) recordControlledLines(ctx context.Context, sl *Sale, flags *gateFlags, presc *prescription.Prescription, today time.Time) error {
	actor := auth.ActorFromContext(ctx)

	var pat *patient.Patient
	if sl.PatientID != nil {
		p, err := s.patients.GetByID(ctx, *sl.PatientID)
		if err == nil {
			pat = p
		}
	}

	for _, l := range sl.Lines {
		p := flags.products[l.ProductID]
		if !p.IsControlled() {
			continue
		}
		e := &register.Entry{
			Date:        today,
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    l.Quantity,
			SaleID:      &sl.ID,
			DispensedBy: actor.Name,
		}
		if sl.PharmacistName != nil {
			e.Pharmacist = *sl.PharmacistName
		}
		if pat != nil {
			e.PatientID = &pat.ID
			e.PatientName = pat.FullName()
			e.PatientIDNumber = pat.IDNumber
			if addr := pat.Address(); addr != "" {
				e.PatientAddress = &addr
			}
		} else if sl.PatientName != nil {
			e.PatientName = *sl.PatientName
		}
		if presc != nil {
			e.PrescriptionID = &presc.ID
			e.PrescriberID = &presc.PrescriberID
			if pr, err := s.prescribers.GetByID(ctx, presc.PrescriberID); err == nil {
				e.PrescriberLicense = &pr.LicenseNumber
			}
		}
		if err := s.register.Record(ctx, e); err != nil {
			return err
		}
		if s.metrics != nil {
			s.metrics.RegisterEntries.Inc()
		}
	}
	return nil
}
