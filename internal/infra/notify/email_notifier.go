package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"lingua-fulfillment/internal/config"
	"lingua-fulfillment/internal/domain/model"
	"lingua-fulfillment/internal/domain/ports/adapter"
)

var _ adapter.PurchaseNotifier = (*EmailNotifier)(nil)

// EmailNotifier posts the purchase notification to the internal
// transactional-email service. The engine treats delivery as best-effort;
// this adapter only reports the error, it never retries.
type EmailNotifier struct {
	url    string
	apiKey string
	client *http.Client
	log    *zerolog.Logger
}

func NewEmailNotifier(cfg config.NotifierConfig, logger *zerolog.Logger) *EmailNotifier {
	return &EmailNotifier{
		url:    cfg.URL,
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    logger,
	}
}

type purchaseNotification struct {
	BuyerID     string    `json:"buyer_id"`
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	PaidAt      time.Time `json:"paid_at"`
	Template    string    `json:"template"`
}

func (n *EmailNotifier) NotifyPurchase(ctx context.Context, buyerID string, product *model.Product, paidAt time.Time) error {
	body, err := json.Marshal(purchaseNotification{
		BuyerID:     buyerID,
		ProductID:   product.MachineName,
		ProductName: product.Name,
		PaidAt:      paidAt,
		Template:    "purchase_confirmation",
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if n.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+n.apiKey)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("notification service returned %d", resp.StatusCode)
	}
	return nil
}

var _ adapter.PurchaseNotifier = (*NoopNotifier)(nil)

// NoopNotifier is used in dev and when no notifier endpoint is configured.
type NoopNotifier struct {
	log *zerolog.Logger
}

func NewNoopNotifier(logger *zerolog.Logger) *NoopNotifier {
	return &NoopNotifier{log: logger}
}

func (n *NoopNotifier) NotifyPurchase(ctx context.Context, buyerID string, product *model.Product, paidAt time.Time) error {
	n.log.Info().Str("buyer_id", buyerID).Str("product", product.MachineName).Msg("noop notifier: purchase notification skipped")
	return nil
}
