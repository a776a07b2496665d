package repository

import (
	"context"

	"lingua-fulfillment/internal/domain/model"
)

type EntitlementRepository interface {
	// Upsert creates or reactivates the single (buyer, product) row.
	Upsert(ctx context.Context, tx Tx, e *model.Entitlement) error
	Find(ctx context.Context, tx Tx, buyerID, productID string) (*model.Entitlement, error)
	Deactivate(ctx context.Context, tx Tx, buyerID, productID string) error
}
