package web

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"lingua-fulfillment/internal/domain/model"
	"lingua-fulfillment/internal/domain/ports/adapter"
	"lingua-fulfillment/internal/usecase"
)

// --- Mock use cases ---

type MockCheckoutUC struct {
	CreateCheckoutFunc func(ctx context.Context, buyerID, productID string, provider model.PaymentProvider) (string, string, error)
}

var _ usecase.CheckoutUseCase = (*MockCheckoutUC)(nil)

func (m *MockCheckoutUC) CreateCheckout(ctx context.Context, buyerID, productID string, provider model.PaymentProvider) (string, string, error) {
	if m.CreateCheckoutFunc != nil {
		return m.CreateCheckoutFunc(ctx, buyerID, productID, provider)
	}
	return "ORD-1", "https://pay.example/ORD-1", nil
}

type MockAccessUC struct {
	HasAccessFunc     func(ctx context.Context, buyerID, productID string) (bool, error)
	ListPurchasesFunc func(ctx context.Context, buyerID string) ([]*model.Purchase, error)
}

var _ usecase.AccessUseCase = (*MockAccessUC)(nil)

func (m *MockAccessUC) HasAccess(ctx context.Context, buyerID, productID string) (bool, error) {
	if m.HasAccessFunc != nil {
		return m.HasAccessFunc(ctx, buyerID, productID)
	}
	return false, nil
}

func (m *MockAccessUC) ListPurchases(ctx context.Context, buyerID string) ([]*model.Purchase, error) {
	if m.ListPurchasesFunc != nil {
		return m.ListPurchasesFunc(ctx, buyerID)
	}
	return nil, nil
}

type MockFulfillmentUC struct {
	HandleEventFunc func(ctx context.Context, ev *model.NormalizedEvent) (usecase.Outcome, error)
}

var _ usecase.FulfillmentUseCase = (*MockFulfillmentUC)(nil)

func (m *MockFulfillmentUC) HandleEvent(ctx context.Context, ev *model.NormalizedEvent) (usecase.Outcome, error) {
	if m.HandleEventFunc != nil {
		return m.HandleEventFunc(ctx, ev)
	}
	return usecase.OutcomeFulfilled, nil
}

// --- Mock webhook adapters ---

type MockVerifier struct {
	OK bool

	VerifyFunc func(ctx context.Context, body []byte, headers map[string]string) bool
}

var _ adapter.WebhookVerifier = (*MockVerifier)(nil)

func (m *MockVerifier) Verify(ctx context.Context, body []byte, headers map[string]string) bool {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, body, headers)
	}
	return m.OK
}

type MockNormalizer struct {
	NormalizeFunc func(body []byte) (*model.NormalizedEvent, error)
}

var _ adapter.EventNormalizer = (*MockNormalizer)(nil)

func (m *MockNormalizer) Normalize(body []byte) (*model.NormalizedEvent, error) {
	if m.NormalizeFunc != nil {
		return m.NormalizeFunc(body)
	}
	return &model.NormalizedEvent{
		Provider: model.ProviderStripe,
		Kind:     model.EventPaymentSucceeded,
		OrderID:  "ORD-1",
	}, nil
}

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}
