package payment

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"lingua-fulfillment/internal/domain"
	"lingua-fulfillment/internal/domain/model"
	"lingua-fulfillment/internal/domain/ports/adapter"
)

var _ adapter.EventNormalizer = (*StripeNormalizer)(nil)

// StripeNormalizer reduces Stripe events to the internal shape. The
// checkout session id plays the order-id role; the payment intent id, when
// the session exposes one, plays the capture-id role so refunds can join.
type StripeNormalizer struct {
	log *zerolog.Logger
	now func() time.Time
}

func NewStripeNormalizer(logger *zerolog.Logger) *StripeNormalizer {
	return &StripeNormalizer{log: logger, now: time.Now}
}

type stripeEvent struct {
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type stripeSession struct {
	ID                string            `json:"id"`
	PaymentIntent     string            `json:"payment_intent"`
	ClientReferenceID string            `json:"client_reference_id"`
	Metadata          map[string]string `json:"metadata"`
}

type stripeCharge struct {
	ID            string `json:"id"`
	PaymentIntent string `json:"payment_intent"`
}

func (n *StripeNormalizer) Normalize(body []byte) (*model.NormalizedEvent, error) {
	var ev stripeEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, domain.ErrUnresolvableEvent
	}

	paidAt := n.now()
	if ev.Created > 0 {
		paidAt = time.Unix(ev.Created, 0)
	}

	switch ev.Type {
	case "checkout.session.completed":
		return n.fromSession(ev.Data.Object, model.EventPaymentSucceeded, paidAt)
	case "checkout.session.async_payment_failed":
		return n.fromSession(ev.Data.Object, model.EventPaymentDenied, paidAt)
	case "charge.refunded":
		var ch stripeCharge
		if err := json.Unmarshal(ev.Data.Object, &ch); err != nil || ch.PaymentIntent == "" {
			return nil, domain.ErrUnresolvableEvent
		}
		return &model.NormalizedEvent{
			Provider:  model.ProviderStripe,
			Kind:      model.EventPaymentRefunded,
			CaptureID: ch.PaymentIntent,
			PaidAt:    paidAt,
		}, nil
	default:
		return nil, nil // irrelevant event type, acknowledge and ignore
	}
}

func (n *StripeNormalizer) fromSession(raw json.RawMessage, kind model.EventKind, paidAt time.Time) (*model.NormalizedEvent, error) {
	var s stripeSession
	if err := json.Unmarshal(raw, &s); err != nil || s.ID == "" {
		return nil, domain.ErrUnresolvableEvent
	}

	out := &model.NormalizedEvent{
		Provider:  model.ProviderStripe,
		Kind:      kind,
		OrderID:   s.ID,
		CaptureID: s.PaymentIntent,
		PaidAt:    paidAt,
	}
	if kind == model.EventPaymentDenied {
		return out, nil
	}

	// Metadata set at session-creation time is authoritative; the
	// composite client_reference_id is the fallback path.
	out.BuyerID = s.Metadata["user_id"]
	out.ProductID = s.Metadata["product_id"]
	if out.BuyerID == "" || out.ProductID == "" {
		if i := strings.LastIndex(s.ClientReferenceID, SKUSeparator); i >= 0 {
			if out.ProductID == "" {
				out.ProductID = s.ClientReferenceID[:i]
			}
			if out.BuyerID == "" {
				out.BuyerID = s.ClientReferenceID[i+len(SKUSeparator):]
			}
		}
	}
	if out.BuyerID == "" || out.ProductID == "" {
		n.log.Error().Str("session_id", s.ID).Msg("stripe session missing buyer or product identity")
		return nil, domain.ErrUnresolvableEvent
	}
	return out, nil
}
