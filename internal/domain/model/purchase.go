package model

import "time"

type PurchaseStatus string

const (
	PurchaseStatusCompleted PurchaseStatus = "completed"
	PurchaseStatusRefunded  PurchaseStatus = "refunded"
	PurchaseStatusFailed    PurchaseStatus = "failed"
)

// Purchase is the immutable record of one completed monetary transaction.
// Whichever of (OrderID, CaptureID) is non-empty uniquely identifies the
// underlying capture; the engine never writes two rows for the same one.
// Status moves completed -> refunded and never backward.
type Purchase struct {
	ID        string          `json:"id"` // UUID
	BuyerID   string          `json:"buyer_id"`
	ProductID string          `json:"product_id"`
	Provider  PaymentProvider `json:"provider"`
	OrderID   string          `json:"order_id"`             // external order / checkout-session id
	CaptureID *string         `json:"capture_id,omitempty"` // external capture / payment-intent id; nil when the provider exposes only one id
	PaidAt    time.Time       `json:"paid_at"`
	Status    PurchaseStatus  `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}
