package sequence

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/softlink/pharmacy-pos/internal/platform/db"
)

type queryable interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// PG allocates numbers from the sequence_counter table. The upsert is a single
// statement, so concurrent callers never observe the same value.
type PG struct {
	pool *pgxpool.Pool
}

func NewPG(pool *pgxpool.Pool) *PG {
	return &PG{pool: pool}
}

func (p *PG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return p.pool
}

func (p *PG) Next(ctx context.Context, key string) (int64, error) {
	var value int64
	err := p.conn(ctx).QueryRow(ctx, `
		INSERT INTO sequence_counter (key, value) VALUES ($1, 1)
		ON CONFLICT (key) DO UPDATE SET value = sequence_counter.value + 1
		RETURNING value`, key).Scan(&value)
	if err != nil {
		return 0, err
	}
	return value, nil
}
