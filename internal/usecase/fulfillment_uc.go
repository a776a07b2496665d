package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"lingua-fulfillment/internal/domain"
	"lingua-fulfillment/internal/domain/model"
	"lingua-fulfillment/internal/domain/ports/adapter"
	"lingua-fulfillment/internal/domain/ports/repository"
	"lingua-fulfillment/internal/infra/metrics"
)

// Outcome tells the webhook edge what a delivery amounted to. Every
// outcome is acknowledged with 200; only a returned error maps to 5xx.
type Outcome string

const (
	OutcomeFulfilled Outcome = "fulfilled"
	OutcomeReplayed  Outcome = "replayed"
	OutcomeDenied    Outcome = "denied"
	OutcomeRefunded  Outcome = "refunded"
	OutcomeIgnored   Outcome = "ignored"
)

// Compile-time check
var _ FulfillmentUseCase = (*fulfillmentUC)(nil)

type FulfillmentUseCase interface {
	// HandleEvent runs one normalized provider event through the state
	// machine. It is idempotent: replaying the same event any number of
	// times converges on the same stored state. A non-nil error means the
	// transaction aborted and the provider should retry.
	HandleEvent(ctx context.Context, ev *model.NormalizedEvent) (Outcome, error)
}

type fulfillmentUC struct {
	intents      repository.IntentRepository
	purchases    repository.PurchaseRepository
	entitlements repository.EntitlementRepository
	products     repository.ProductRepository
	notifier     adapter.PurchaseNotifier
	tm           repository.TransactionManager
	log          *zerolog.Logger
}

func NewFulfillmentUseCase(
	intents repository.IntentRepository,
	purchases repository.PurchaseRepository,
	entitlements repository.EntitlementRepository,
	products repository.ProductRepository,
	notifier adapter.PurchaseNotifier,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *fulfillmentUC {
	return &fulfillmentUC{
		intents:      intents,
		purchases:    purchases,
		entitlements: entitlements,
		products:     products,
		notifier:     notifier,
		tm:           tm,
		log:          logger,
	}
}

// grant carries what the post-commit notification needs.
type grant struct {
	buyerID string
	product *model.Product
	paidAt  time.Time
}

func (u *fulfillmentUC) HandleEvent(ctx context.Context, ev *model.NormalizedEvent) (Outcome, error) {
	if ev == nil {
		return OutcomeIgnored, nil
	}

	var (
		outcome = OutcomeIgnored
		granted *grant
	)
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		var err error
		switch ev.Kind {
		case model.EventPaymentSucceeded:
			outcome, granted, err = u.applySucceeded(ctx, tx, ev)
		case model.EventPaymentDenied:
			outcome, err = u.applyDenied(ctx, tx, ev)
		case model.EventPaymentRefunded:
			outcome, err = u.applyRefunded(ctx, tx, ev)
		default:
			u.log.Warn().Str("kind", string(ev.Kind)).Msg("event kind not handled")
		}
		return err
	})
	if err != nil {
		return outcome, err
	}

	// Notification is best-effort and must never undo the commit, so it
	// runs strictly after the transaction.
	if granted != nil {
		if nerr := u.notifier.NotifyPurchase(ctx, granted.buyerID, granted.product, granted.paidAt); nerr != nil {
			metrics.IncNotify("error")
			u.log.Error().Err(nerr).Str("buyer_id", granted.buyerID).Str("product", granted.product.MachineName).
				Msg("purchase notification failed; entitlement is already committed")
		} else {
			metrics.IncNotify("sent")
		}
	}
	return outcome, nil
}

// applySucceeded holds the intent row lock for the whole check-then-insert
// sequence, so two concurrent deliveries of the same capture cannot both
// pass the existence check.
func (u *fulfillmentUC) applySucceeded(ctx context.Context, tx repository.Tx, ev *model.NormalizedEvent) (Outcome, *grant, error) {
	intent, err := u.intents.FindByOrderIDForUpdate(ctx, tx, ev.OrderID)
	if errors.Is(err, domain.ErrNotFound) {
		u.log.Warn().Str("order_id", ev.OrderID).Str("provider", string(ev.Provider)).
			Msg("payment succeeded for unknown order id; acknowledging without state change")
		return OutcomeIgnored, nil, nil
	}
	if err != nil {
		return OutcomeIgnored, nil, err
	}

	exists, err := u.purchases.ExistsByProviderIDs(ctx, tx, ev.OrderID, ev.CaptureID)
	if err != nil {
		return OutcomeIgnored, nil, err
	}
	if exists {
		u.log.Info().Str("order_id", ev.OrderID).Msg("capture already fulfilled; idempotent replay")
		return OutcomeReplayed, nil, nil
	}

	// The ledger row written at checkout time is authoritative for buyer
	// and product; the event's copy is only cross-checked.
	if ev.BuyerID != "" && ev.BuyerID != intent.BuyerID {
		u.log.Warn().Str("order_id", ev.OrderID).Str("event_buyer", ev.BuyerID).Str("intent_buyer", intent.BuyerID).
			Msg("event buyer differs from pending intent; using intent")
	}

	product, err := u.products.FindByMachineName(ctx, tx, intent.ProductID)
	if errors.Is(err, domain.ErrNotFound) {
		u.log.Error().Str("order_id", ev.OrderID).Str("product", intent.ProductID).
			Msg("paid product missing from catalog; needs operator follow-up")
		return OutcomeIgnored, nil, nil
	}
	if err != nil {
		return OutcomeIgnored, nil, err
	}

	if err := u.intents.MarkStatus(ctx, tx, intent.OrderID, model.IntentStatusPaid); err != nil {
		return OutcomeIgnored, nil, err
	}

	var captureID *string
	if ev.CaptureID != "" {
		c := ev.CaptureID
		captureID = &c
	}
	purchase := &model.Purchase{
		ID:        uuid.NewString(),
		BuyerID:   intent.BuyerID,
		ProductID: product.MachineName,
		Provider:  ev.Provider,
		OrderID:   ev.OrderID,
		CaptureID: captureID,
		PaidAt:    ev.PaidAt,
		Status:    model.PurchaseStatusCompleted,
		CreatedAt: time.Now(),
	}
	if err := u.purchases.Save(ctx, tx, purchase); err != nil {
		return OutcomeIgnored, nil, err
	}

	entitlement := &model.Entitlement{
		ID:          uuid.NewString(),
		BuyerID:     intent.BuyerID,
		ProductID:   product.MachineName,
		Active:      true,
		ActivatedAt: ev.PaidAt,
		ExpiryAt:    product.ExpiryFrom(ev.PaidAt),
	}
	if err := u.entitlements.Upsert(ctx, tx, entitlement); err != nil {
		return OutcomeIgnored, nil, err
	}

	metrics.IncPurchase(string(ev.Provider), string(model.PurchaseStatusCompleted))
	metrics.IncEntitlementWrite("grant")
	u.log.Info().Str("order_id", ev.OrderID).Str("buyer_id", intent.BuyerID).Str("product", product.MachineName).
		Msg("purchase fulfilled, entitlement granted")

	return OutcomeFulfilled, &grant{buyerID: intent.BuyerID, product: product, paidAt: ev.PaidAt}, nil
}

func (u *fulfillmentUC) applyDenied(ctx context.Context, tx repository.Tx, ev *model.NormalizedEvent) (Outcome, error) {
	_, err := u.intents.FindByOrderIDForUpdate(ctx, tx, ev.OrderID)
	if errors.Is(err, domain.ErrNotFound) {
		u.log.Warn().Str("order_id", ev.OrderID).Msg("payment denied for unknown order id; acknowledging")
		return OutcomeIgnored, nil
	}
	if err != nil {
		return OutcomeIgnored, err
	}

	if err := u.intents.MarkStatus(ctx, tx, ev.OrderID, model.IntentStatusFailed); err != nil {
		return OutcomeIgnored, err
	}
	metrics.IncPurchase(string(ev.Provider), string(model.PurchaseStatusFailed))
	u.log.Info().Str("order_id", ev.OrderID).Msg("payment denied; intent marked failed")
	return OutcomeDenied, nil
}

func (u *fulfillmentUC) applyRefunded(ctx context.Context, tx repository.Tx, ev *model.NormalizedEvent) (Outcome, error) {
	// Lock the intent row when the event names an order, so a refund
	// racing a late success delivery serializes with it.
	if ev.OrderID != "" {
		if _, err := u.intents.FindByOrderIDForUpdate(ctx, tx, ev.OrderID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return OutcomeIgnored, err
		}
	}

	purchase, err := u.purchases.FindByProviderIDs(ctx, tx, ev.OrderID, ev.CaptureID)
	if errors.Is(err, domain.ErrNotFound) {
		u.log.Warn().Str("order_id", ev.OrderID).Str("capture_id", ev.CaptureID).
			Msg("refund for unknown purchase; acknowledging without state change")
		return OutcomeIgnored, nil
	}
	if err != nil {
		return OutcomeIgnored, err
	}

	// Already-refunded purchases make the whole event a replay.
	if err := u.purchases.MarkRefunded(ctx, tx, purchase.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			u.log.Info().Str("purchase_id", purchase.ID).Msg("purchase already refunded; idempotent replay")
			return OutcomeReplayed, nil
		}
		return OutcomeIgnored, err
	}

	if err := u.entitlements.Deactivate(ctx, tx, purchase.BuyerID, purchase.ProductID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return OutcomeIgnored, err
	}

	metrics.IncPurchase(string(ev.Provider), string(model.PurchaseStatusRefunded))
	metrics.IncEntitlementWrite("revoke")
	u.log.Info().Str("purchase_id", purchase.ID).Str("buyer_id", purchase.BuyerID).Str("product", purchase.ProductID).
		Msg("purchase refunded, entitlement deactivated")
	return OutcomeRefunded, nil
}
