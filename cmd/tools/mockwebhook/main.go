package main

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"lingua-fulfillment/internal/infra/payment"
)

// Sends a signed fake Stripe checkout.session.completed webhook at a
// locally running server, for manual end-to-end testing.

type sessionObject struct {
	ID                string            `json:"id"`
	PaymentIntent     string            `json:"payment_intent"`
	ClientReferenceID string            `json:"client_reference_id"`
	Metadata          map[string]string `json:"metadata"`
}

type stripeEvent struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object sessionObject `json:"object"`
	} `json:"data"`
}

func main() {
	url := flag.String("url", "http://localhost:8080/webhooks/stripe", "Webhook URL")
	secret := flag.String("secret", os.Getenv("STRIPE_WEBHOOK_SECRET"), "Stripe webhook secret")
	eventType := flag.String("type", "checkout.session.completed", "Event type")
	sessionID := flag.String("session", "cs_test_"+randomHex(8), "Checkout session id")
	intentID := flag.String("intent", "pi_"+randomHex(8), "Payment intent id")
	buyerID := flag.String("buyer", "42", "Buyer id")
	productID := flag.String("product", "dual-start", "Product machine name")
	dryRun := flag.Bool("dry-run", false, "Only print signature header, don't send")

	flag.Parse()

	if *secret == "" {
		fmt.Fprintf(os.Stderr, "Error: secret not provided and STRIPE_WEBHOOK_SECRET not set\n")
		os.Exit(1)
	}

	ev := stripeEvent{
		ID:      "evt_" + randomHex(8),
		Type:    *eventType,
		Created: time.Now().Unix(),
	}
	ev.Data.Object = sessionObject{
		ID:                *sessionID,
		PaymentIntent:     *intentID,
		ClientReferenceID: *productID + "--" + *buyerID,
		Metadata: map[string]string{
			"user_id":          *buyerID,
			"product_id":       *productID,
			"payment_provider": "stripe",
		},
	}

	body, err := json.Marshal(ev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling payload: %v\n", err)
		os.Exit(1)
	}

	sigHeader := payment.SignStripePayload(*secret, time.Now(), body)
	fmt.Printf("Stripe-Signature: %s\n", sigHeader)
	fmt.Printf("Body: %s\n", string(body))

	if *dryRun {
		fmt.Println("\n[DRY RUN] Not sending request")
		return
	}

	fmt.Printf("\nSending to %s...\n", *url)
	req, err := http.NewRequest(http.MethodPost, *url, bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building request: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", sigHeader)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error sending request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	fmt.Printf("Response: %s\n%s\n", resp.Status, string(respBody))
}

func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
