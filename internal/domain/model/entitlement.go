package model

import "time"

// Entitlement is the current access grant for a (buyer, product) pair.
// At most one row per pair; the engine upserts it, never appends.
type Entitlement struct {
	ID          string     `json:"id"` // UUID
	BuyerID     string     `json:"buyer_id"`
	ProductID   string     `json:"product_id"`
	Active      bool       `json:"active"`
	ActivatedAt time.Time  `json:"activated_at"`
	ExpiryAt    *time.Time `json:"expiry_at,omitempty"` // nil = never expires
}

// HasAccess reports whether the grant is usable at the given instant.
func (e *Entitlement) HasAccess(now time.Time) bool {
	if e == nil || !e.Active {
		return false
	}
	return e.ExpiryAt == nil || e.ExpiryAt.After(now)
}
