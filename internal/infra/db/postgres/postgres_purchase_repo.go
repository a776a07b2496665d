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

var _ repository.PurchaseRepository = (*purchaseRepo)(nil)

type purchaseRepo struct{ pool *pgxpool.Pool }

func NewPurchaseRepo(pool *pgxpool.Pool) *purchaseRepo {
	return &purchaseRepo{pool: pool}
}

const purchaseColumns = `id, buyer_id, product_id, provider, order_id, capture_id, paid_at, status, created_at`

func (r *purchaseRepo) Save(ctx context.Context, tx repository.Tx, p *model.Purchase) error {
	const q = `
INSERT INTO purchases (id, buyer_id, product_id, provider, order_id, capture_id, paid_at, status, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9);`

	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.BuyerID, p.ProductID, p.Provider, p.OrderID, p.CaptureID, p.PaidAt, p.Status, p.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

// ExistsByProviderIDs matches on order id or, when non-empty, capture id.
// Either one identifying the same capture makes a replay.
func (r *purchaseRepo) ExistsByProviderIDs(ctx context.Context, tx repository.Tx, orderID, captureID string) (bool, error) {
	const q = `SELECT EXISTS (
  SELECT 1 FROM purchases
   WHERE order_id = $1
      OR ($2 <> '' AND capture_id = $2)
);`
	row, err := pickRow(ctx, r.pool, tx, q, orderID, captureID)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return exists, nil
}

func (r *purchaseRepo) FindByProviderIDs(ctx context.Context, tx repository.Tx, orderID, captureID string) (*model.Purchase, error) {
	const q = `SELECT ` + purchaseColumns + ` FROM purchases
 WHERE order_id = $1
    OR ($2 <> '' AND capture_id = $2)
 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, orderID, captureID)
	if err != nil {
		return nil, err
	}
	p := &model.Purchase{}
	if err := row.Scan(&p.ID, &p.BuyerID, &p.ProductID, &p.Provider, &p.OrderID, &p.CaptureID, &p.PaidAt, &p.Status, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

// MarkRefunded moves completed -> refunded; status never goes backward.
func (r *purchaseRepo) MarkRefunded(ctx context.Context, tx repository.Tx, id string) error {
	const q = `UPDATE purchases SET status='refunded' WHERE id=$1 AND status='completed';`
	cmd, err := execSQL(ctx, r.pool, tx, q, id)
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

func (r *purchaseRepo) ListByBuyer(ctx context.Context, tx repository.Tx, buyerID string) ([]*model.Purchase, error) {
	const q = `SELECT ` + purchaseColumns + ` FROM purchases WHERE buyer_id=$1 ORDER BY created_at DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q, buyerID)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Purchase
	for rows.Next() {
		p := new(model.Purchase)
		if err := rows.Scan(&p.ID, &p.BuyerID, &p.ProductID, &p.Provider, &p.OrderID, &p.CaptureID, &p.PaidAt, &p.Status, &p.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, p)
	}
	return out, nil
}
