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

var _ repository.EntitlementRepository = (*entitlementRepo)(nil)

type entitlementRepo struct{ pool *pgxpool.Pool }

func NewEntitlementRepo(pool *pgxpool.Pool) *entitlementRepo {
	return &entitlementRepo{pool: pool}
}

// Upsert keys on (buyer_id, product_id) regardless of which provider paid,
// so a buyer can never hold duplicate grants for one product.
func (r *entitlementRepo) Upsert(ctx context.Context, tx repository.Tx, e *model.Entitlement) error {
	const q = `
INSERT INTO entitlements (id, buyer_id, product_id, active, activated_at, expiry_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (buyer_id, product_id) DO UPDATE SET
  active=$4, activated_at=$5, expiry_at=$6;`

	_, err := execSQL(ctx, r.pool, tx, q, e.ID, e.BuyerID, e.ProductID, e.Active, e.ActivatedAt, e.ExpiryAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *entitlementRepo) Find(ctx context.Context, tx repository.Tx, buyerID, productID string) (*model.Entitlement, error) {
	const q = `SELECT id, buyer_id, product_id, active, activated_at, expiry_at
  FROM entitlements WHERE buyer_id=$1 AND product_id=$2;`
	row, err := pickRow(ctx, r.pool, tx, q, buyerID, productID)
	if err != nil {
		return nil, err
	}
	e := &model.Entitlement{}
	if err := row.Scan(&e.ID, &e.BuyerID, &e.ProductID, &e.Active, &e.ActivatedAt, &e.ExpiryAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return e, nil
}

func (r *entitlementRepo) Deactivate(ctx context.Context, tx repository.Tx, buyerID, productID string) error {
	const q = `UPDATE entitlements SET active=FALSE WHERE buyer_id=$1 AND product_id=$2;`
	cmd, err := execSQL(ctx, r.pool, tx, q, buyerID, productID)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
