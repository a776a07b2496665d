package model

import "time"

// Product is the catalog read model the engine needs: enough to build a
// checkout artifact and to compute entitlement expiry. The catalog itself
// is owned elsewhere.
type Product struct {
	MachineName    string // stable identifier used in SKUs and metadata
	Name           string
	PriceCents     int64 // minor units, avoids float errors
	Currency       string
	DurationMonths int    // 0 = access never expires
	StripePriceID  string // empty when the product is not sold via Stripe
}

// ExpiryFrom computes when access bought at paidAt runs out.
// Returns nil for perpetual products.
func (p *Product) ExpiryFrom(paidAt time.Time) *time.Time {
	if p.DurationMonths <= 0 {
		return nil
	}
	t := paidAt.AddDate(0, p.DurationMonths, 0)
	return &t
}
