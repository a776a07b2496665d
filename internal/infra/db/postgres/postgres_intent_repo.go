package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"lingua-fulfillment/internal/domain"
	"lingua-fulfillment/internal/domain/model"
	"lingua-fulfillment/internal/domain/ports/repository"
)

var _ repository.IntentRepository = (*intentRepo)(nil)

type intentRepo struct{ pool *pgxpool.Pool }

func NewIntentRepo(pool *pgxpool.Pool) *intentRepo {
	return &intentRepo{pool: pool}
}

const intentColumns = `order_id, buyer_id, product_id, provider, status, created_at, updated_at`

func (r *intentRepo) Save(ctx context.Context, tx repository.Tx, in *model.PendingIntent) error {
	const q = `
INSERT INTO pending_intents (order_id, buyer_id, product_id, provider, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7);`

	_, err := execSQL(ctx, r.pool, tx, q, in.OrderID, in.BuyerID, in.ProductID, in.Provider, in.Status, in.CreatedAt, in.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return domain.ErrAlreadyExists
		}
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *intentRepo) FindByOrderID(ctx context.Context, tx repository.Tx, orderID string) (*model.PendingIntent, error) {
	return r.find(ctx, tx, orderID, false)
}

// FindByOrderIDForUpdate locks the intent row for the lifetime of the
// surrounding transaction. Requires a pgx.Tx handle.
func (r *intentRepo) FindByOrderIDForUpdate(ctx context.Context, tx repository.Tx, orderID string) (*model.PendingIntent, error) {
	if _, ok := tx.(pgx.Tx); !ok {
		return nil, domain.ErrInvalidExecContext
	}
	return r.find(ctx, tx, orderID, true)
}

func (r *intentRepo) find(ctx context.Context, tx repository.Tx, orderID string, forUpdate bool) (*model.PendingIntent, error) {
	q := `SELECT ` + intentColumns + ` FROM pending_intents WHERE order_id=$1`
	if forUpdate {
		q += ` FOR UPDATE`
	}
	q += `;`

	row, err := pickRow(ctx, r.pool, tx, q, orderID)
	if err != nil {
		return nil, err
	}

	in := &model.PendingIntent{}
	if err := row.Scan(&in.OrderID, &in.BuyerID, &in.ProductID, &in.Provider, &in.Status, &in.CreatedAt, &in.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return in, nil
}

func (r *intentRepo) MarkStatus(ctx context.Context, tx repository.Tx, orderID string, status model.IntentStatus) error {
	const q = `UPDATE pending_intents SET status=$2, updated_at=NOW() WHERE order_id=$1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, orderID, status)
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
