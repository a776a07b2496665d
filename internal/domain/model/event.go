package model

import "time"

type PaymentProvider string

const (
	ProviderPayPal PaymentProvider = "paypal"
	ProviderStripe PaymentProvider = "stripe"
)

type EventKind string

const (
	EventPaymentSucceeded EventKind = "payment_succeeded"
	EventPaymentDenied    EventKind = "payment_denied"
	EventPaymentRefunded  EventKind = "payment_refunded"
)

// NormalizedEvent is the single internal shape every provider webhook is
// reduced to before it reaches the fulfillment engine. Adding a provider
// means adding a normalizer, never branching the engine on provider name.
type NormalizedEvent struct {
	Provider  PaymentProvider
	Kind      EventKind
	OrderID   string // provider-scoped external order / checkout-session id
	CaptureID string // capture / payment-intent id; empty when the provider has none
	BuyerID   string
	ProductID string // product machine name
	PaidAt    time.Time
}
