package prescription

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

const cols = `id, number, patient_id, prescriber_id, prescription_date, diagnosis, state,
	dispensed_by, dispensing_date, sale_id,
	verified_by_pharmacist, pharmacist_name, verification_date, pharmacist_notes,
	special_instructions, notes, active, created_at, updated_at`

const lineCols = `id, prescription_id, product_id, quantity,
	dosage, frequency, duration, instructions, quantity_dispensed`

func scan(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(&p.ID, &p.Number, &p.PatientID, &p.PrescriberID, &p.PrescriptionDate, &p.Diagnosis, &p.State,
		&p.DispensedBy, &p.DispensingDate, &p.SaleID,
		&p.VerifiedByPharmacist, &p.PharmacistName, &p.VerificationDate, &p.PharmacistNotes,
		&p.SpecialInstructions, &p.Notes, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func scanLine(row pgx.Row) (*Line, error) {
	var l Line
	err := row.Scan(&l.ID, &l.PrescriptionID, &l.ProductID, &l.Quantity,
		&l.Dosage, &l.Frequency, &l.Duration, &l.Instructions, &l.QuantityDispensed)
	return &l, err
}

func (r *repoPG) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	q := r.conn(ctx)
	_, err := q.Exec(ctx, `
		INSERT INTO prescription (id, number, patient_id, prescriber_id, prescription_date, diagnosis, state,
			verified_by_pharmacist, special_instructions, notes, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		p.ID, p.Number, p.PatientID, p.PrescriberID, p.PrescriptionDate, p.Diagnosis, p.State,
		p.VerifiedByPharmacist, p.SpecialInstructions, p.Notes, p.Active)
	if err != nil {
		return err
	}
	for _, l := range p.Lines {
		l.ID = uuid.New()
		l.PrescriptionID = p.ID
		_, err := q.Exec(ctx, `
			INSERT INTO prescription_line (id, prescription_id, product_id, quantity,
				dosage, frequency, duration, instructions, quantity_dispensed)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			l.ID, l.PrescriptionID, l.ProductID, l.Quantity,
			l.Dosage, l.Frequency, l.Duration, l.Instructions, l.QuantityDispensed)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) loadLines(ctx context.Context, p *Prescription) error {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+lineCols+` FROM prescription_line WHERE prescription_id = $1 ORDER BY id`, p.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return err
		}
		p.Lines = append(p.Lines, l)
	}
	return rows.Err()
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, err := scan(r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM prescription WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadLines(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repoPG) Update(ctx context.Context, p *Prescription) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE prescription SET state=$2, diagnosis=$3,
			dispensed_by=$4, dispensing_date=$5, sale_id=$6,
			verified_by_pharmacist=$7, pharmacist_name=$8, verification_date=$9, pharmacist_notes=$10,
			special_instructions=$11, notes=$12, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.State, p.Diagnosis,
		p.DispensedBy, p.DispensingDate, p.SaleID,
		p.VerifiedByPharmacist, p.PharmacistName, p.VerificationDate, p.PharmacistNotes,
		p.SpecialInstructions, p.Notes)
	return err
}

func (r *repoPG) UpdateLine(ctx context.Context, l *Line) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE prescription_line SET quantity_dispensed = $2 WHERE id = $1`, l.ID, l.QuantityDispensed)
	return err
}

func (r *repoPG) List(ctx context.Context, patientID uuid.UUID, state string, limit, offset int) ([]*Prescription, int, error) {
	where := `active`
	args := []interface{}{}
	if patientID != uuid.Nil {
		args = append(args, patientID)
		where += fmt.Sprintf(` AND patient_id = $%d`, len(args))
	}
	if state != "" {
		args = append(args, state)
		where += fmt.Sprintf(` AND state = $%d`, len(args))
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM prescription WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+cols+` FROM prescription WHERE `+where+
			fmt.Sprintf(` ORDER BY prescription_date DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Prescription
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for _, p := range items {
		if err := r.loadLines(ctx, p); err != nil {
			return nil, 0, err
		}
	}
	return items, total, nil
}
