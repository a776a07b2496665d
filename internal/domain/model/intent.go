package model

import (
	"time"

	"lingua-fulfillment/internal/domain"
)

type IntentStatus string

const (
	IntentStatusPending IntentStatus = "pending" // checkout artifact created; no confirmation yet
	IntentStatusPaid    IntentStatus = "paid"    // a capture event confirmed payment
	IntentStatusFailed  IntentStatus = "failed"  // denied or explicitly failed
)

// PendingIntent records a checkout attempt the moment the pay link is
// created, so a later webhook has a row to join against. One row per
// external order id; never deleted (audit trail).
type PendingIntent struct {
	OrderID   string // provider-assigned external order id, unique
	BuyerID   string
	ProductID string
	Provider  PaymentProvider
	Status    IntentStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewPendingIntent(orderID, buyerID, productID string, provider PaymentProvider) (*PendingIntent, error) {
	if orderID == "" || buyerID == "" || productID == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &PendingIntent{
		OrderID:   orderID,
		BuyerID:   buyerID,
		ProductID: productID,
		Provider:  provider,
		Status:    IntentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
