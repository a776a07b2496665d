package adapter

import (
	"context"

	"lingua-fulfillment/internal/domain/model"
)

// CheckoutGateway creates the provider-side checkout artifact (PayPal
// payment resource, Stripe checkout session) and returns its external
// order id plus the hosted URL the buyer is sent to.
type CheckoutGateway interface {
	Provider() model.PaymentProvider
	CreateCheckout(ctx context.Context, buyerID string, product *model.Product) (orderID string, payURL string, err error)
}

// WebhookVerifier validates that an inbound webhook really originates
// from the claimed provider. Fail closed: missing headers, malformed
// input and network failure all report false.
type WebhookVerifier interface {
	Verify(ctx context.Context, body []byte, headers map[string]string) bool
}

// EventNormalizer maps a verified raw payload onto the internal event
// type. A nil event with nil error means "recognized but irrelevant,
// acknowledge and ignore". domain.ErrUnresolvableEvent means the event
// type matters but its identity cannot be extracted.
type EventNormalizer interface {
	Normalize(body []byte) (*model.NormalizedEvent, error)
}
