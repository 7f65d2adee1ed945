package register

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

const cols = `id, seq, date, product_id, product_name,
	patient_id, patient_name, patient_id_number, patient_address,
	prescription_id, prescriber_id, prescriber_license,
	quantity, sale_id, dispensed_by, pharmacist, purpose, notes, created_at`

func scan(row pgx.Row) (*Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.Seq, &e.Date, &e.ProductID, &e.ProductName,
		&e.PatientID, &e.PatientName, &e.PatientIDNumber, &e.PatientAddress,
		&e.PrescriptionID, &e.PrescriberID, &e.PrescriberLicense,
		&e.Quantity, &e.SaleID, &e.DispensedBy, &e.Pharmacist, &e.Purpose, &e.Notes, &e.CreatedAt)
	return &e, err
}

func (r *repoPG) Create(ctx context.Context, e *Entry) error {
	e.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO controlled_drugs_register (id, date, product_id, product_name,
			patient_id, patient_name, patient_id_number, patient_address,
			prescription_id, prescriber_id, prescriber_license,
			quantity, sale_id, dispensed_by, pharmacist, purpose, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		RETURNING seq`,
		e.ID, e.Date, e.ProductID, e.ProductName,
		e.PatientID, e.PatientName, e.PatientIDNumber, e.PatientAddress,
		e.PrescriptionID, e.PrescriberID, e.PrescriberLicense,
		e.Quantity, e.SaleID, e.DispensedBy, e.Pharmacist, e.Purpose, e.Notes).Scan(&e.Seq)
}

func (r *repoPG) List(ctx context.Context, productID uuid.UUID, limit, offset int) ([]*Entry, int, error) {
	where := `TRUE`
	args := []interface{}{}
	if productID != uuid.Nil {
		args = append(args, productID)
		where = `product_id = $1`
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM controlled_drugs_register WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+cols+` FROM controlled_drugs_register WHERE `+where+
			fmt.Sprintf(` ORDER BY date DESC, seq DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Entry
	for rows.Next() {
		e, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	return items, total, rows.Err()
}
