package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"lingua-fulfillment/internal/domain"
	"lingua-fulfillment/internal/domain/model"
	"lingua-fulfillment/internal/domain/ports/repository"
)

var _ repository.ProductRepository = (*productRepo)(nil)

type productRepo struct{ pool *pgxpool.Pool }

func NewProductRepo(pool *pgxpool.Pool) *productRepo {
	return &productRepo{pool: pool}
}

func (r *productRepo) FindByMachineName(ctx context.Context, tx repository.Tx, machineName string) (*model.Product, error) {
	const q = `SELECT machine_name, name, price_cents, currency, duration_months, stripe_price_id
  FROM products WHERE machine_name=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, machineName)
	if err != nil {
		return nil, err
	}
	p := &model.Product{}
	if err := row.Scan(&p.MachineName, &p.Name, &p.PriceCents, &p.Currency, &p.DurationMonths, &p.StripePriceID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}
