package prescriber

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

const cols = `id, name, license_number, qualification, specialization,
	facility_name, facility_address, phone, email, license_expiry,
	verified, verified_by, verified_at, active, notes, created_at, updated_at`

func scan(row pgx.Row) (*Prescriber, error) {
	var p Prescriber
	err := row.Scan(&p.ID, &p.Name, &p.LicenseNumber, &p.Qualification, &p.Specialization,
		&p.FacilityName, &p.FacilityAddress, &p.Phone, &p.Email, &p.LicenseExpiry,
		&p.Verified, &p.VerifiedBy, &p.VerifiedAt, &p.Active, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Prescriber) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO prescriber (id, name, license_number, qualification, specialization,
			facility_name, facility_address, phone, email, license_expiry,
			verified, verified_by, verified_at, active, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		p.ID, p.Name, p.LicenseNumber, p.Qualification, p.Specialization,
		p.FacilityName, p.FacilityAddress, p.Phone, p.Email, p.LicenseExpiry,
		p.Verified, p.VerifiedBy, p.VerifiedAt, p.Active, p.Notes)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescriber, error) {
	return scan(r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM prescriber WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, p *Prescriber) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE prescriber SET name=$2, license_number=$3, qualification=$4, specialization=$5,
			facility_name=$6, facility_address=$7, phone=$8, email=$9, license_expiry=$10,
			verified=$11, verified_by=$12, verified_at=$13, notes=$14, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Name, p.LicenseNumber, p.Qualification, p.Specialization,
		p.FacilityName, p.FacilityAddress, p.Phone, p.Email, p.LicenseExpiry,
		p.Verified, p.VerifiedBy, p.VerifiedAt, p.Notes)
	return err
}

func (r *repoPG) Deactivate(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE prescriber SET active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	return err
}

func (r *repoPG) FindByLicenseNumber(ctx context.Context, licenseNumber string) (*Prescriber, error) {
	p, err := scan(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cols+` FROM prescriber WHERE license_number = $1 LIMIT 1`, licenseNumber))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Prescriber, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM prescriber WHERE active`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+cols+` FROM prescriber WHERE active ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Prescriber
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, nil
}
