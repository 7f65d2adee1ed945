package etims

import (
	"context"
	"errors"

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

const cols = `id, sale_id, number, cu_serial, date, total_cents,
	signature, qr_payload, submitted, submission_date, response`

func scan(row pgx.Row) (*Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.SaleID, &rec.Number, &rec.CUSerial, &rec.Date, &rec.TotalCents,
		&rec.Signature, &rec.QRPayload, &rec.Submitted, &rec.SubmissionDate, &rec.Response)
	return &rec, err
}

func (r *repoPG) Save(ctx context.Context, rec *Record) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO etims_invoice (id, sale_id, number, cu_serial, date, total_cents,
			signature, qr_payload, submitted, submission_date, response)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (id) DO UPDATE SET
			submitted = EXCLUDED.submitted,
			submission_date = EXCLUDED.submission_date,
			response = EXCLUDED.response`,
		rec.ID, rec.SaleID, rec.Number, rec.CUSerial, rec.Date, rec.TotalCents,
		rec.Signature, rec.QRPayload, rec.Submitted, rec.SubmissionDate, rec.Response)
	return err
}

func (r *repoPG) GetBySaleID(ctx context.Context, saleID uuid.UUID) (*Record, error) {
	rec, err := scan(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cols+` FROM etims_invoice WHERE sale_id = $1`, saleID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}
