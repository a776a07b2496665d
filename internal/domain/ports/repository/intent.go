package repository

import (
	"context"

	"lingua-fulfillment/internal/domain/model"
)

type IntentRepository interface {
	Save(ctx context.Context, tx Tx, in *model.PendingIntent) error
	FindByOrderID(ctx context.Context, tx Tx, orderID string) (*model.PendingIntent, error)
	// FindByOrderIDForUpdate takes an exclusive row lock; it requires a
	// live transaction handle and serializes concurrent deliveries for
	// the same order.
	FindByOrderIDForUpdate(ctx context.Context, tx Tx, orderID string) (*model.PendingIntent, error)
	MarkStatus(ctx context.Context, tx Tx, orderID string, status model.IntentStatus) error
}
