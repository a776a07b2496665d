package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"lingua-fulfillment/internal/config"
	"lingua-fulfillment/internal/domain"
	"lingua-fulfillment/internal/domain/model"
	"lingua-fulfillment/internal/domain/ports/adapter"
)

var _ adapter.CheckoutGateway = (*StripeGateway)(nil)

const stripeAPIBase = "https://api.stripe.com"

// StripeGateway creates Checkout Sessions. Buyer and product identity ride
// in session metadata; client_reference_id carries the composite fallback.
type StripeGateway struct {
	secretKey  string
	successURL string
	cancelURL  string
	baseURL    string
	client     *http.Client
}

func NewStripeGateway(cfg config.StripeConfig) *StripeGateway {
	return &StripeGateway{
		secretKey:  cfg.SecretKey,
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
		baseURL:    stripeAPIBase,
		client:     &http.Client{Timeout: cfg.Timeout},
	}
}

func (g *StripeGateway) Provider() model.PaymentProvider { return model.ProviderStripe }

type stripeSessionResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

func (g *StripeGateway) CreateCheckout(ctx context.Context, buyerID string, product *model.Product) (string, string, error) {
	if product.StripePriceID == "" {
		return "", "", domain.ErrProductNotPurchable
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", g.successURL)
	form.Set("cancel_url", g.cancelURL)
	form.Set("line_items[0][price]", product.StripePriceID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("metadata[user_id]", buyerID)
	form.Set("metadata[product_id]", product.MachineName)
	form.Set("metadata[payment_provider]", "stripe")
	form.Set("client_reference_id", product.MachineName+SKUSeparator+buyerID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("stripe checkout sessions returned %d: %s", resp.StatusCode, string(respBody))
	}

	var out stripeSessionResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", "", fmt.Errorf("stripe checkout session response: %w", err)
	}
	if out.ID == "" || out.URL == "" {
		return "", "", fmt.Errorf("stripe checkout session response missing id or url")
	}
	return out.ID, out.URL, nil
}
