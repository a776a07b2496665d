package repository

import (
	"context"

	"lingua-fulfillment/internal/domain/model"
)

type PurchaseRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Purchase) error
	// ExistsByProviderIDs is the idempotency check: matches on order id or,
	// when non-empty, capture id.
	ExistsByProviderIDs(ctx context.Context, tx Tx, orderID, captureID string) (bool, error)
	FindByProviderIDs(ctx context.Context, tx Tx, orderID, captureID string) (*model.Purchase, error)
	MarkRefunded(ctx context.Context, tx Tx, id string) error
	ListByBuyer(ctx context.Context, tx Tx, buyerID string) ([]*model.Purchase, error)
}
