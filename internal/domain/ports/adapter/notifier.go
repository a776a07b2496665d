package adapter

import (
	"context"
	"time"

	"lingua-fulfillment/internal/domain/model"
)

// PurchaseNotifier tells the buyer their purchase went through. It is
// best-effort from the engine's point of view: errors are logged by the
// caller, never propagated, and the entitlement commit does not wait.
type PurchaseNotifier interface {
	NotifyPurchase(ctx context.Context, buyerID string, product *model.Product, paidAt time.Time) error
}
