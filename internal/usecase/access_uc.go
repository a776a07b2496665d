package usecase

import (
	"context"
	"errors"
	"time"

	"lingua-fulfillment/internal/domain"
	"lingua-fulfillment/internal/domain/model"
	"lingua-fulfillment/internal/domain/ports/repository"
)

// Compile-time check
var _ AccessUseCase = (*accessUC)(nil)

type AccessUseCase interface {
	// HasAccess is the read side of the entitlement invariant:
	// active && (no expiry || expiry in the future).
	HasAccess(ctx context.Context, buyerID, productID string) (bool, error)
	ListPurchases(ctx context.Context, buyerID string) ([]*model.Purchase, error)
}

type accessUC struct {
	entitlements repository.EntitlementRepository
	purchases    repository.PurchaseRepository
	now          func() time.Time
}

func NewAccessUseCase(entitlements repository.EntitlementRepository, purchases repository.PurchaseRepository) *accessUC {
	return &accessUC{entitlements: entitlements, purchases: purchases, now: time.Now}
}

func (u *accessUC) HasAccess(ctx context.Context, buyerID, productID string) (bool, error) {
	e, err := u.entitlements.Find(ctx, nil, buyerID, productID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return e.HasAccess(u.now()), nil
}

func (u *accessUC) ListPurchases(ctx context.Context, buyerID string) ([]*model.Purchase, error) {
	return u.purchases.ListByBuyer(ctx, nil, buyerID)
}
