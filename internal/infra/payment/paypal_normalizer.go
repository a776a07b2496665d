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

// SKUSeparator joins product machine name and buyer id in the SKU encoded
// at checkout-resource creation (e.g. "dual-start--42"). The buyer id
// never contains it; the product name may, so splits take the last
// occurrence.
const SKUSeparator = "--"

var _ adapter.EventNormalizer = (*PayPalNormalizer)(nil)

// PayPalNormalizer reduces PayPal capture events to the internal shape.
// Two generations of payload exist in the wild (structured custom_id /
// related ids vs. delimiter-encoded SKU), both are live paths here.
type PayPalNormalizer struct {
	log *zerolog.Logger
	now func() time.Time
}

func NewPayPalNormalizer(logger *zerolog.Logger) *PayPalNormalizer {
	return &PayPalNormalizer{log: logger, now: time.Now}
}

type paypalLink struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

type paypalEvent struct {
	EventType string `json:"event_type"`
	Resource  struct {
		ID                string `json:"id"`
		CustomID          string `json:"custom_id"`
		CreateTime        string `json:"create_time"`
		SupplementaryData struct {
			RelatedIDs struct {
				OrderID string `json:"order_id"`
			} `json:"related_ids"`
		} `json:"supplementary_data"`
		Links         []paypalLink `json:"links"`
		PurchaseUnits []struct {
			Items []struct {
				SKU string `json:"sku"`
			} `json:"items"`
		} `json:"purchase_units"`
	} `json:"resource"`
}

func (n *PayPalNormalizer) Normalize(body []byte) (*model.NormalizedEvent, error) {
	var ev paypalEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, domain.ErrUnresolvableEvent
	}

	var kind model.EventKind
	switch ev.EventType {
	case "PAYMENT.CAPTURE.COMPLETED":
		kind = model.EventPaymentSucceeded
	case "PAYMENT.CAPTURE.DENIED":
		kind = model.EventPaymentDenied
	case "PAYMENT.CAPTURE.REFUNDED":
		kind = model.EventPaymentRefunded
	default:
		return nil, nil // irrelevant event type, acknowledge and ignore
	}

	out := &model.NormalizedEvent{
		Provider: model.ProviderPayPal,
		Kind:     kind,
		PaidAt:   n.timestamp(ev.Resource.CreateTime),
	}

	// Order id: structured related ids first, then the "up" link whose
	// path points back at /orders/.
	out.OrderID = ev.Resource.SupplementaryData.RelatedIDs.OrderID
	if out.OrderID == "" {
		out.OrderID = trailingSegment(ev.Resource.Links, "/orders/")
	}

	switch kind {
	case model.EventPaymentRefunded:
		// Refund resources point "up" at the capture, not the order.
		out.CaptureID = trailingSegment(ev.Resource.Links, "/captures/")
		if out.OrderID == "" && out.CaptureID == "" {
			return nil, domain.ErrUnresolvableEvent
		}
		return out, nil
	default:
		out.CaptureID = ev.Resource.ID
	}

	if out.OrderID == "" {
		return nil, domain.ErrUnresolvableEvent
	}

	// Buyer/product: explicit custom_id set at checkout-creation time
	// wins; the delimiter-encoded SKU is the fallback path.
	out.BuyerID = ev.Resource.CustomID
	sku := n.firstSKU(&ev)
	if i := strings.LastIndex(sku, SKUSeparator); i >= 0 {
		out.ProductID = sku[:i]
		if out.BuyerID == "" {
			out.BuyerID = sku[i+len(SKUSeparator):]
		}
	} else {
		out.ProductID = sku
	}
	if out.BuyerID == "" || out.ProductID == "" {
		n.log.Error().Str("order_id", out.OrderID).Msg("paypal event missing buyer or product identity")
		return nil, domain.ErrUnresolvableEvent
	}
	return out, nil
}

func (n *PayPalNormalizer) firstSKU(ev *paypalEvent) string {
	for _, pu := range ev.Resource.PurchaseUnits {
		for _, it := range pu.Items {
			if it.SKU != "" {
				return it.SKU
			}
		}
	}
	return ""
}

func (n *PayPalNormalizer) timestamp(createTime string) time.Time {
	if createTime != "" {
		if t, err := time.Parse(time.RFC3339, createTime); err == nil {
			return t
		}
	}
	return n.now()
}

// trailingSegment scans links for the "up" relation whose URL contains the
// given path fragment and returns the last path segment.
func trailingSegment(links []paypalLink, fragment string) string {
	for _, l := range links {
		if !strings.EqualFold(l.Rel, "up") {
			continue
		}
		if i := strings.Index(l.Href, fragment); i >= 0 {
			rest := l.Href[i+len(fragment):]
			if j := strings.IndexByte(rest, '/'); j >= 0 {
				rest = rest[:j]
			}
			if j := strings.IndexByte(rest, '?'); j >= 0 {
				rest = rest[:j]
			}
			return rest
		}
	}
	return ""
}
