package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"lingua-fulfillment/internal/domain"
	"lingua-fulfillment/internal/domain/model"
	"lingua-fulfillment/internal/domain/ports/adapter"
	"lingua-fulfillment/internal/domain/ports/repository"
)

// Compile-time check
var _ CheckoutUseCase = (*checkoutUC)(nil)

type CheckoutUseCase interface {
	// CreateCheckout creates the provider-side checkout artifact and
	// records the pending intent the webhook will later join against.
	// Returns the external order id and the hosted pay URL.
	CreateCheckout(ctx context.Context, buyerID, productID string, provider model.PaymentProvider) (string, string, error)
}

type checkoutUC struct {
	products repository.ProductRepository
	intents  repository.IntentRepository
	gateways map[model.PaymentProvider]adapter.CheckoutGateway
	log      *zerolog.Logger
}

func NewCheckoutUseCase(products repository.ProductRepository, intents repository.IntentRepository, logger *zerolog.Logger, gateways ...adapter.CheckoutGateway) *checkoutUC {
	m := make(map[model.PaymentProvider]adapter.CheckoutGateway, len(gateways))
	for _, g := range gateways {
		m[g.Provider()] = g
	}
	return &checkoutUC{products: products, intents: intents, gateways: m, log: logger}
}

func (u *checkoutUC) CreateCheckout(ctx context.Context, buyerID, productID string, provider model.PaymentProvider) (string, string, error) {
	if buyerID == "" || productID == "" {
		return "", "", domain.ErrInvalidArgument
	}
	gateway, ok := u.gateways[provider]
	if !ok {
		return "", "", domain.ErrUnknownProvider
	}

	product, err := u.products.FindByMachineName(ctx, nil, productID)
	if err != nil {
		return "", "", err
	}

	orderID, payURL, err := gateway.CreateCheckout(ctx, buyerID, product)
	if err != nil {
		return "", "", fmt.Errorf("create checkout with %s: %w", provider, err)
	}

	intent, err := model.NewPendingIntent(orderID, buyerID, product.MachineName, provider)
	if err != nil {
		return "", "", err
	}
	// The intent must exist before the pay URL is handed out: a webhook
	// for an unrecorded order is acknowledged but grants nothing.
	if err := u.intents.Save(ctx, nil, intent); err != nil {
		u.log.Error().Err(err).Str("order_id", orderID).Msg("checkout artifact created but intent not recorded")
		return "", "", err
	}

	u.log.Info().Str("order_id", orderID).Str("buyer_id", buyerID).Str("product", product.MachineName).
		Str("provider", string(provider)).Msg("pending intent recorded")
	return orderID, payURL, nil
}
