package product

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

const cols = `id, name, generic_name, brand_name, active_ingredient,
	ppb_registration_no, registration_date, registration_expiry,
	category, schedule, dosage_form, strength, pack_size,
	indication, contraindication, side_effects, dosage_instructions,
	storage_conditions, therapeutic_class, pharmacological_class,
	max_otc_quantity, cold_chain, manufacturer, supplier, country_of_origin,
	unit_price_cents, track_expiry, expiry_alert_days, active, created_at, updated_at`

func scan(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.GenericName, &p.BrandName, &p.ActiveIngredient,
		&p.PPBRegistrationNo, &p.RegistrationDate, &p.RegistrationExpiry,
		&p.Category, &p.Schedule, &p.DosageForm, &p.Strength, &p.PackSize,
		&p.Indication, &p.Contraindication, &p.SideEffects, &p.DosageInstructions,
		&p.StorageConditions, &p.TherapeuticClass, &p.PharmacologicalClass,
		&p.MaxOTCQuantity, &p.ColdChain, &p.Manufacturer, &p.Supplier, &p.CountryOfOrigin,
		&p.UnitPriceCents, &p.TrackExpiry, &p.ExpiryAlertDays, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Product) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO pharmacy_product (id, name, generic_name, brand_name, active_ingredient,
			ppb_registration_no, registration_date, registration_expiry,
			category, schedule, dosage_form, strength, pack_size,
			indication, contraindication, side_effects, dosage_instructions,
			storage_conditions, therapeutic_class, pharmacological_class,
			max_otc_quantity, cold_chain, manufacturer, supplier, country_of_origin,
			unit_price_cents, track_expiry, expiry_alert_days, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,
			$21,$22,$23,$24,$25,$26,$27,$28,$29)`,
		p.ID, p.Name, p.GenericName, p.BrandName, p.ActiveIngredient,
		p.PPBRegistrationNo, p.RegistrationDate, p.RegistrationExpiry,
		p.Category, p.Schedule, p.DosageForm, p.Strength, p.PackSize,
		p.Indication, p.Contraindication, p.SideEffects, p.DosageInstructions,
		p.StorageConditions, p.TherapeuticClass, p.PharmacologicalClass,
		p.MaxOTCQuantity, p.ColdChain, p.Manufacturer, p.Supplier, p.CountryOfOrigin,
		p.UnitPriceCents, p.TrackExpiry, p.ExpiryAlertDays, p.Active)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	return scan(r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM pharmacy_product WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, p *Product) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE pharmacy_product SET name=$2, generic_name=$3, brand_name=$4, active_ingredient=$5,
			ppb_registration_no=$6, registration_date=$7, registration_expiry=$8,
			category=$9, schedule=$10, dosage_form=$11, strength=$12, pack_size=$13,
			indication=$14, contraindication=$15, side_effects=$16, dosage_instructions=$17,
			storage_conditions=$18, therapeutic_class=$19, pharmacological_class=$20,
			max_otc_quantity=$21, cold_chain=$22, manufacturer=$23, supplier=$24, country_of_origin=$25,
			unit_price_cents=$26, track_expiry=$27, expiry_alert_days=$28, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Name, p.GenericName, p.BrandName, p.ActiveIngredient,
		p.PPBRegistrationNo, p.RegistrationDate, p.RegistrationExpiry,
		p.Category, p.Schedule, p.DosageForm, p.Strength, p.PackSize,
		p.Indication, p.Contraindication, p.SideEffects, p.DosageInstructions,
		p.StorageConditions, p.TherapeuticClass, p.PharmacologicalClass,
		p.MaxOTCQuantity, p.ColdChain, p.Manufacturer, p.Supplier, p.CountryOfOrigin,
		p.UnitPriceCents, p.TrackExpiry, p.ExpiryAlertDays)
	return err
}

func (r *repoPG) Deactivate(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE pharmacy_product SET active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	return err
}

func (r *repoPG) FindByPPBRegistrationNo(ctx context.Context, regNo string) (*Product, error) {
	p, err := scan(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cols+` FROM pharmacy_product WHERE ppb_registration_no = $1 LIMIT 1`, regNo))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repoPG) List(ctx context.Context, category string, limit, offset int) ([]*Product, int, error) {
	where := `active`
	args := []interface{}{}
	if category != "" {
		args = append(args, category)
		where += ` AND category = $1`
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM pharmacy_product WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + cols + ` FROM pharmacy_product WHERE ` + where + ` ORDER BY name`
	if category != "" {
		query += ` LIMIT $2 OFFSET $3`
	} else {
		query += ` LIMIT $1 OFFSET $2`
	}
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Product
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, nil
}
