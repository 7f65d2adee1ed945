package stocklot

import (
	"context"

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

const cols = `id, product_id, name, batch_number, supplier_batch_no,
	manufacturing_date, expiry_date, quantity, created_at, updated_at`

func scan(row pgx.Row) (*Lot, error) {
	var l Lot
	err := row.Scan(&l.ID, &l.ProductID, &l.Name, &l.BatchNumber, &l.SupplierBatchNo,
		&l.ManufacturingDate, &l.ExpiryDate, &l.Quantity, &l.CreatedAt, &l.UpdatedAt)
	return &l, err
}

func (r *repoPG) Create(ctx context.Context, l *Lot) error {
	l.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO stock_lot (id, product_id, name, batch_number, supplier_batch_no,
			manufacturing_date, expiry_date, quantity)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		l.ID, l.ProductID, l.Name, l.BatchNumber, l.SupplierBatchNo,
		l.ManufacturingDate, l.ExpiryDate, l.Quantity)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Lot, error) {
	return scan(r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM stock_lot WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, l *Lot) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE stock_lot SET name=$2, batch_number=$3, supplier_batch_no=$4,
			manufacturing_date=$5, expiry_date=$6, quantity=$7, updated_at=NOW()
		WHERE id = $1`,
		l.ID, l.Name, l.BatchNumber, l.SupplierBatchNo,
		l.ManufacturingDate, l.ExpiryDate, l.Quantity)
	return err
}

func (r *repoPG) AdjustQuantity(ctx context.Context, id uuid.UUID, delta float64) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE stock_lot SET quantity = quantity + $2, updated_at = NOW() WHERE id = $1`, id, delta)
	return err
}

func (r *repoPG) list(ctx context.Context, query string, args ...interface{}) ([]*Lot, error) {
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Lot
	for rows.Next() {
		l, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

func (r *repoPG) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*Lot, error) {
	return r.list(ctx, `SELECT `+cols+` FROM stock_lot WHERE product_id = $1 ORDER BY expiry_date NULLS LAST`, productID)
}

func (r *repoPG) ListWithExpiry(ctx context.Context) ([]*Lot, error) {
	return r.list(ctx, `SELECT `+cols+` FROM stock_lot WHERE expiry_date IS NOT NULL ORDER BY expiry_date`)
}
