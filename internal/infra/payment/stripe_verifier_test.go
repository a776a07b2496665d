//go:build !integration

package payment

import (
	"context"
	"strings"
	"testing"
	"time"
)

const testStripeSecret = "whsec_test_4242"

func TestStripeVerifier_Verify(t *testing.T) {
	ctx := context.Background()
	body := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	frozen := time.Unix(1700000000, 0)

	newVerifier := func() *StripeVerifier {
		v := NewStripeVerifier(testStripeSecret, newTestLogger())
		v.now = func() time.Time { return frozen }
		return v
	}

	t.Run("accepts a correctly signed payload", func(t *testing.T) {
		v := newVerifier()
		headers := map[string]string{"Stripe-Signature": SignStripePayload(testStripeSecret, frozen, body)}
		if !v.Verify(ctx, body, headers) {
			t.Error("expected valid signature to verify")
		}
	})

	t.Run("rejects a tampered body", func(t *testing.T) {
		v := newVerifier()
		headers := map[string]string{"Stripe-Signature": SignStripePayload(testStripeSecret, frozen, body)}
		tampered := []byte(`{"id":"evt_1","type":"checkout.session.completed","amount":0}`)
		if v.Verify(ctx, tampered, headers) {
			t.Error("expected tampered body to be rejected")
		}
	})

	t.Run("rejects a signature made with the wrong secret", func(t *testing.T) {
		v := newVerifier()
		headers := map[string]string{"Stripe-Signature": SignStripePayload("whsec_other", frozen, body)}
		if v.Verify(ctx, body, headers) {
			t.Error("expected wrong-secret signature to be rejected")
		}
	})

	t.Run("rejects a stale timestamp", func(t *testing.T) {
		v := newVerifier()
		stale := frozen.Add(-DefaultStripeTolerance - time.Second)
		headers := map[string]string{"Stripe-Signature": SignStripePayload(testStripeSecret, stale, body)}
		if v.Verify(ctx, body, headers) {
			t.Error("expected stale timestamp to be rejected")
		}
	})

	t.Run("accepts a timestamp just inside tolerance", func(t *testing.T) {
		v := newVerifier()
		recent := frozen.Add(-DefaultStripeTolerance + time.Second)
		headers := map[string]string{"Stripe-Signature": SignStripePayload(testStripeSecret, recent, body)}
		if !v.Verify(ctx, body, headers) {
			t.Error("expected in-tolerance timestamp to verify")
		}
	})

	t.Run("rejects a missing header", func(t *testing.T) {
		v := newVerifier()
		if v.Verify(ctx, body, map[string]string{}) {
			t.Error("expected missing header to be rejected")
		}
	})

	t.Run("rejects a malformed header", func(t *testing.T) {
		v := newVerifier()
		for _, header := range []string{"garbage", "t=abc,v1=", "v1=deadbeef", "t=1700000000"} {
			if v.Verify(ctx, body, map[string]string{"Stripe-Signature": header}) {
				t.Errorf("expected header %q to be rejected", header)
			}
		}
	})

	t.Run("accepts any valid v1 candidate during secret rolls", func(t *testing.T) {
		v := newVerifier()
		good := SignStripePayload(testStripeSecret, frozen, body)
		// Prepend a stale v1 from a previous secret; the good one must still win.
		idx := strings.Index(good, ",v1=")
		header := good[:idx] + ",v1=" + strings.Repeat("0", 64) + good[idx:]
		if !v.Verify(ctx, body, map[string]string{"Stripe-Signature": header}) {
			t.Error("expected verification to accept the matching v1 candidate")
		}
	})
}
