//go:build !integration

package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lingua-fulfillment/internal/config"
)

func paypalTestHeaders() map[string]string {
	return map[string]string{
		"Paypal-Auth-Algo":         "SHA256withRSA",
		"Paypal-Cert-Url":          "https://api.paypal.com/cert",
		"Paypal-Transmission-Id":   "tid-1",
		"Paypal-Transmission-Sig":  "sig-1",
		"Paypal-Transmission-Time": "2026-01-02T03:04:05Z",
	}
}

// fakePayPal serves the token and verify-webhook-signature endpoints.
func fakePayPal(t *testing.T, verificationStatus string, tokenStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		if user, pass, ok := r.BasicAuth(); !ok || user != "client-1" || pass != "secret-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if tokenStatus != http.StatusOK {
			w.WriteHeader(tokenStatus)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-abc"})
	})
	mux.HandleFunc("/v1/notifications/verify-webhook-signature", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-abc" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var payload map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		for _, field := range []string{"transmission_id", "transmission_sig", "webhook_id", "webhook_event"} {
			if _, ok := payload[field]; !ok {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
		}
		json.NewEncoder(w).Encode(map[string]string{"verification_status": verificationStatus})
	})
	return httptest.NewServer(mux)
}

func newPayPalVerifier(apiURL string) *PayPalVerifier {
	return NewPayPalVerifier(config.PayPalConfig{
		ClientID:  "client-1",
		Secret:    "secret-1",
		APIURL:    apiURL,
		WebhookID: "wh-1",
		Timeout:   2 * time.Second,
	}, newTestLogger())
}

func TestPayPalVerifier_Verify(t *testing.T) {
	ctx := context.Background()
	body := []byte(`{"id":"WH-1","event_type":"PAYMENT.CAPTURE.COMPLETED"}`)

	t.Run("accepts when paypal reports SUCCESS", func(t *testing.T) {
		srv := fakePayPal(t, "SUCCESS", http.StatusOK)
		defer srv.Close()
		v := newPayPalVerifier(srv.URL)

		if !v.Verify(ctx, body, paypalTestHeaders()) {
			t.Error("expected verification to succeed")
		}
	})

	t.Run("rejects when paypal reports FAILURE", func(t *testing.T) {
		srv := fakePayPal(t, "FAILURE", http.StatusOK)
		defer srv.Close()
		v := newPayPalVerifier(srv.URL)

		if v.Verify(ctx, body, paypalTestHeaders()) {
			t.Error("expected verification to fail")
		}
	})

	t.Run("rejects when any transmission header is missing", func(t *testing.T) {
		srv := fakePayPal(t, "SUCCESS", http.StatusOK)
		defer srv.Close()
		v := newPayPalVerifier(srv.URL)

		for _, missing := range []string{"Paypal-Auth-Algo", "Paypal-Cert-Url", "Paypal-Transmission-Id", "Paypal-Transmission-Sig", "Paypal-Transmission-Time"} {
			headers := paypalTestHeaders()
			delete(headers, missing)
			if v.Verify(ctx, body, headers) {
				t.Errorf("expected rejection with %s missing", missing)
			}
		}
	})

	t.Run("fails closed when the token exchange fails", func(t *testing.T) {
		srv := fakePayPal(t, "SUCCESS", http.StatusServiceUnavailable)
		defer srv.Close()
		v := newPayPalVerifier(srv.URL)

		if v.Verify(ctx, body, paypalTestHeaders()) {
			t.Error("expected verification to fail closed on token error")
		}
	})

	t.Run("fails closed when paypal is unreachable", func(t *testing.T) {
		srv := fakePayPal(t, "SUCCESS", http.StatusOK)
		srv.Close() // connection refused from here on
		v := newPayPalVerifier(srv.URL)

		if v.Verify(ctx, body, paypalTestHeaders()) {
			t.Error("expected verification to fail closed on network error")
		}
	})

	t.Run("rejects a non-JSON body without calling paypal", func(t *testing.T) {
		srv := fakePayPal(t, "SUCCESS", http.StatusOK)
		defer srv.Close()
		v := newPayPalVerifier(srv.URL)

		if v.Verify(ctx, []byte("not json"), paypalTestHeaders()) {
			t.Error("expected malformed body to be rejected")
		}
	})
}
