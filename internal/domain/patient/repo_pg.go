package patient

import (
	"context"
	"errors"
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

const cols = `id, first_name, middle_name, last_name, date_of_birth, gender,
	phone, email, id_number, street, street2, city, county,
	blood_group, allergies, chronic_conditions, current_medications,
	has_insurance, insurance_company, insurance_number, insurance_expiry,
	emergency_contact_name, emergency_contact_phone, emergency_contact_relation,
	active, notes, created_at, updated_at`

func scan(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.FirstName, &p.MiddleName, &p.LastName, &p.DateOfBirth, &p.Gender,
		&p.Phone, &p.Email, &p.IDNumber, &p.Street, &p.Street2, &p.City, &p.County,
		&p.BloodGroup, &p.Allergies, &p.ChronicConditions, &p.CurrentMedications,
		&p.HasInsurance, &p.InsuranceCompany, &p.InsuranceNumber, &p.InsuranceExpiry,
		&p.EmergencyContactName, &p.EmergencyContactPhone, &p.EmergencyContactRelation,
		&p.Active, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient (id, first_name, middle_name, last_name, date_of_birth, gender,
			phone, email, id_number, street, street2, city, county,
			blood_group, allergies, chronic_conditions, current_medications,
			has_insurance, insurance_company, insurance_number, insurance_expiry,
			emergency_contact_name, emergency_contact_phone, emergency_contact_relation,
			active, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26)`,
		p.ID, p.FirstName, p.MiddleName, p.LastName, p.DateOfBirth, p.Gender,
		p.Phone, p.Email, p.IDNumber, p.Street, p.Street2, p.City, p.County,
		p.BloodGroup, p.Allergies, p.ChronicConditions, p.CurrentMedications,
		p.HasInsurance, p.InsuranceCompany, p.InsuranceNumber, p.InsuranceExpiry,
		p.EmergencyContactName, p.EmergencyContactPhone, p.EmergencyContactRelation,
		p.Active, p.Notes)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scan(r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM patient WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient SET first_name=$2, middle_name=$3, last_name=$4, date_of_birth=$5, gender=$6,
			phone=$7, email=$8, id_number=$9, street=$10, street2=$11, city=$12, county=$13,
			blood_group=$14, allergies=$15, chronic_conditions=$16, current_medications=$17,
			has_insurance=$18, insurance_company=$19, insurance_number=$20, insurance_expiry=$21,
			emergency_contact_name=$22, emergency_contact_phone=$23, emergency_contact_relation=$24,
			notes=$25, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.FirstName, p.MiddleName, p.LastName, p.DateOfBirth, p.Gender,
		p.Phone, p.Email, p.IDNumber, p.Street, p.Street2, p.City, p.County,
		p.BloodGroup, p.Allergies, p.ChronicConditions, p.CurrentMedications,
		p.HasInsurance, p.InsuranceCompany, p.InsuranceNumber, p.InsuranceExpiry,
		p.EmergencyContactName, p.EmergencyContactPhone, p.EmergencyContactRelation,
		p.Notes)
	return err
}

// Deactivate soft-deletes: prescriptions and register entries keep referencing
// the row.
func (r *repoPG) Deactivate(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE patient SET active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	return err
}

func (r *repoPG) FindActiveByIDNumber(ctx context.Context, idNumber string) (*Patient, error) {
	p, err := scan(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cols+` FROM patient WHERE id_number = $1 AND active LIMIT 1`, idNumber))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

var searchColumns = map[string]string{
	"name":      "first_name || ' ' || last_name ILIKE '%' || $%d || '%'",
	"phone":     "phone = $%d",
	"id_number": "id_number = $%d",
}

func (r *repoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Patient, int, error) {
	where := "active"
	args := []interface{}{}
	for key, tmpl := range searchColumns {
		if v, ok := params[key]; ok {
			args = append(args, v)
			where += " AND " + fmt.Sprintf(tmpl, len(args))
		}
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patient WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+cols+` FROM patient WHERE `+where+
			fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Patient
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, nil
}
