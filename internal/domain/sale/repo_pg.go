package sale

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/softlink/pharmacy-pos/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const cols = `id, number, patient_id, patient_name, patient_phone, prescription_id,
	approved_by_pharmacist, pharmacist_name, approval_date,
	insurance_claim, insurance_company, insurance_number, insurance_amount_cents, patient_copay_cents,
	state, created_at, updated_at`

const lineCols = `id, sale_id, product_id, quantity, unit_price_cents,
	lot_id, prescription_line_id, dosage_instructions`

func scan(row pgx.Row) (*Sale, error) {
	var s Sale
	err := row.Scan(&s.ID, &s.Number, &s.PatientID, &s.PatientName, &s.PatientPhone, &s.PrescriptionID,
		&s.ApprovedByPharmacist, &s.PharmacistName, &s.ApprovalDate,
		&s.InsuranceClaim, &s.InsuranceCompany, &s.InsuranceNumber, &s.InsuranceAmountCents, &s.PatientCopayCents,
		&s.State, &s.CreatedAt, &s.UpdatedAt)
	return &s, err
}

func scanLine(row pgx.Row) (*Line, error) {
	var l Line
	err := row.Scan(&l.ID, &l.SaleID, &l.ProductID, &l.Quantity, &l.UnitPriceCents,
		&l.LotID, &l.PrescriptionLineID, &l.DosageInstructions)
	return &l, err
}

func (r *repoPG) Create(ctx context.Context, s *Sale) error {
	s.ID = uuid.New()
	q := r.conn(ctx)
	_, err := q.Exec(ctx, `
		INSERT INTO pos_sale (id, number, patient_id, patient_name, patient_phone, prescription_id,
			approved_by_pharmacist, pharmacist_name, approval_date,
			insurance_claim, insurance_company, insurance_number, insurance_amount_cents, patient_copay_cents,
			state)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		s.ID, s.Number, s.PatientID, s.PatientName, s.PatientPhone, s.PrescriptionID,
		s.ApprovedByPharmacist, s.PharmacistName, s.ApprovalDate,
		s.InsuranceClaim, s.InsuranceCompany, s.InsuranceNumber, s.InsuranceAmountCents, s.PatientCopayCents,
		s.State)
	if err != nil {
		return err
	}
	for _, l := range s.Lines {
		l.ID = uuid.New()
		l.SaleID = s.ID
		_, err := q.Exec(ctx, `
			INSERT INTO pos_sale_line (id, sale_id, product_id, quantity, unit_price_cents,
				lot_id, prescription_line_id, dosage_instructions)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			l.ID, l.SaleID, l.ProductID, l.Quantity, l.UnitPriceCents,
			l.LotID, l.PrescriptionLineID, l.DosageInstructions)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) loadLines(ctx context.Context, s *Sale) error {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+lineCols+` FROM pos_sale_line WHERE sale_id = $1 ORDER BY id`, s.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return err
		}
		s.Lines = append(s.Lines, l)
	}
	return rows.Err()
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Sale, error) {
	s, err := scan(r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM pos_sale WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadLines(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *repoPG) Update(ctx context.Context, s *Sale) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE pos_sale SET patient_id=$2, patient_name=$3, patient_phone=$4, prescription_id=$5,
			approved_by_pharmacist=$6, pharmacist_name=$7, approval_date=$8,
			insurance_claim=$9, insurance_company=$10, insurance_number=$11,
			insurance_amount_cents=$12, patient_copay_cents=$13, state=$14, updated_at=NOW()
		WHERE id = $1`,
		s.ID, s.PatientID, s.PatientName, s.PatientPhone, s.PrescriptionID,
		s.ApprovedByPharmacist, s.PharmacistName, s.ApprovalDate,
		s.InsuranceClaim, s.InsuranceCompany, s.InsuranceNumber,
		s.InsuranceAmountCents, s.PatientCopayCents, s.State)
	return err
}

func (r *repoPG) List(ctx context.Context, state string, limit, offset int) ([]*Sale, int, error) {
	where := `TRUE`
	args := []interface{}{}
	if state != "" {
		args = append(args, state)
		where = `state = $1`
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM pos_sale WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+cols+` FROM pos_sale WHERE `+where+
			fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Sale
	for rows.Next() {
		s, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for _, s := range items {
		if err := r.loadLines(ctx, s); err != nil {
			return nil, 0, err
		}
	}
	return items, total, nil
}
