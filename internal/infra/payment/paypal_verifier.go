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

	"github.com/rs/zerolog"

	"lingua-fulfillment/internal/config"
	"lingua-fulfillment/internal/domain/ports/adapter"
)

var _ adapter.WebhookVerifier = (*PayPalVerifier)(nil)

// PayPalVerifier round-trips the delivery through PayPal's
// verify-webhook-signature API using an OAuth2 client-credentials token.
// Every failure mode (missing header, bad token, network error, non-SUCCESS
// status) reports invalid: verification that cannot complete fails closed.
type PayPalVerifier struct {
	clientID  string
	secret    string
	baseURL   string
	webhookID string
	client    *http.Client
	log       *zerolog.Logger
}

func NewPayPalVerifier(cfg config.PayPalConfig, logger *zerolog.Logger) *PayPalVerifier {
	return &PayPalVerifier{
		clientID:  cfg.ClientID,
		secret:    cfg.Secret,
		baseURL:   strings.TrimRight(cfg.APIURL, "/"),
		webhookID: cfg.WebhookID,
		client:    &http.Client{Timeout: cfg.Timeout},
		log:       logger,
	}
}

// Required transmission headers, as PayPal sends them.
var paypalSignatureHeaders = []string{
	"Paypal-Auth-Algo",
	"Paypal-Cert-Url",
	"Paypal-Transmission-Id",
	"Paypal-Transmission-Sig",
	"Paypal-Transmission-Time",
}

type paypalVerifyResponse struct {
	VerificationStatus string `json:"verification_status"`
}

func (v *PayPalVerifier) Verify(ctx context.Context, body []byte, headers map[string]string) bool {
	for _, h := range paypalSignatureHeaders {
		if headers[h] == "" {
			v.log.Warn().Str("header", h).Msg("paypal webhook missing signature header")
			return false
		}
	}

	var event json.RawMessage
	if err := json.Unmarshal(body, &event); err != nil {
		v.log.Warn().Err(err).Msg("paypal webhook body is not valid JSON")
		return false
	}

	token, err := v.accessToken(ctx)
	if err != nil {
		v.log.Error().Err(err).Msg("paypal token exchange failed; treating webhook as unverified")
		return false
	}

	payload := map[string]interface{}{
		"auth_algo":         headers["Paypal-Auth-Algo"],
		"cert_url":          headers["Paypal-Cert-Url"],
		"transmission_id":   headers["Paypal-Transmission-Id"],
		"transmission_sig":  headers["Paypal-Transmission-Sig"],
		"transmission_time": headers["Paypal-Transmission-Time"],
		"webhook_id":        v.webhookID,
		"webhook_event":     event,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/v1/notifications/verify-webhook-signature", bytes.NewBuffer(jsonData))
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		v.log.Error().Err(err).Msg("paypal signature verification call failed; treating webhook as unverified")
		return false
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil || resp.StatusCode != http.StatusOK {
		v.log.Error().Int("status", resp.StatusCode).Msg("paypal signature verification returned non-OK")
		return false
	}

	var out paypalVerifyResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return false
	}
	if out.VerificationStatus != "SUCCESS" {
		v.log.Warn().Str("verification_status", out.VerificationStatus).Msg("paypal signature verification rejected")
		return false
	}
	return true
}

type paypalTokenResponse struct {
	AccessToken string `json:"access_token"`
}

func (v *PayPalVerifier) accessToken(ctx context.Context) (string, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(v.clientID, v.secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return "", err
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
