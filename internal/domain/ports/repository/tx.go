package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

// TransactionManager executes a function within one database transaction,
// passing the underlying transaction handle via `tx`.
//
// Repository methods accept `tx Tx` so the implementation can detect a
// live transaction (and e.g. run SELECT ... FOR UPDATE) while still
// accepting nil for the non-transactional path. The concrete type of the
// handle is infra-defined (pgx.Tx for Postgres).
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
