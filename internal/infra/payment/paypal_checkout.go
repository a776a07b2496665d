package payment

import (
	"bytes"
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

var _ adapter.CheckoutGateway = (*PayPalGateway)(nil)

// PayPalGateway creates hosted payment links through the Payment Links and
// Buttons API (POST /v1/checkout/payment-resources). The SKU carries
// "machineName--buyerID" so the webhook can recover identity even when
// custom_id is absent.
type PayPalGateway struct {
	clientID  string
	secret    string
	baseURL   string
	returnURL string
	client    *http.Client
}

func NewPayPalGateway(cfg config.PayPalConfig) *PayPalGateway {
	return &PayPalGateway{
		clientID:  cfg.ClientID,
		secret:    cfg.Secret,
		baseURL:   strings.TrimRight(cfg.APIURL, "/"),
		returnURL: cfg.ReturnURL,
		client:    &http.Client{Timeout: cfg.Timeout},
	}
}

func (g *PayPalGateway) Provider() model.PaymentProvider { return model.ProviderPayPal }

type paypalResourceResponse struct {
	ID          string `json:"id"`
	PaymentLink string `json:"payment_link"`
}

func (g *PayPalGateway) CreateCheckout(ctx context.Context, buyerID string, product *model.Product) (string, string, error) {
	token, err := g.accessToken(ctx)
	if err != nil {
		return "", "", fmt.Errorf("paypal token: %w", err)
	}

	sku := product.MachineName + SKUSeparator + buyerID
	description := product.Name
	if len(description) > 127 { // PayPal description limit
		description = description[:127]
	}

	payload := map[string]interface{}{
		"type":             "BUY_NOW",
		"integration_mode": "LINK",
		"reusable":         "MULTIPLE",
		"return_url":       g.returnURL,
		"line_items": []map[string]interface{}{
			{
				"name":        product.Name,
				"product_id":  sku,
				"description": description,
				"unit_amount": map[string]string{
					"currency_code": product.Currency,
					"value":         fmt.Sprintf("%.2f", float64(product.PriceCents)/100),
				},
			},
		},
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/checkout/payment-resources", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", "", fmt.Errorf("paypal payment-resources returned %d: %s", resp.StatusCode, string(respBody))
	}

	var out paypalResourceResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", "", fmt.Errorf("paypal payment-resources response: %w", err)
	}
	if out.ID == "" || out.PaymentLink == "" {
		return "", "", fmt.Errorf("paypal payment-resources response missing id or payment_link")
	}
	return out.ID, out.PaymentLink, nil
}

func (g *PayPalGateway) accessToken(ctx context.Context) (string, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(g.clientID, g.secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("paypal token endpoint returned %d", resp.StatusCode)
	}

	var out paypalTokenResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("paypal token response missing access_token")
	}
	return out.AccessToken, nil
}
