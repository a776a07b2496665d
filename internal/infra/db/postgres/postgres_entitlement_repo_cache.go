package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lingua-fulfillment/internal/domain/model"
	"lingua-fulfillment/internal/domain/ports/repository"
	"lingua-fulfillment/internal/infra/metrics"
	red "lingua-fulfillment/internal/infra/redis"
)

var _ repository.EntitlementRepository = (*entitlementRepoCacheDecorator)(nil)

// entitlementRepoCacheDecorator serves the hot has-access path from Redis.
// Writes go through to Postgres and invalidate the cached pair, so a
// refund is visible on the next read.
type entitlementRepoCacheDecorator struct {
	inner repository.EntitlementRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewEntitlementRepoCacheDecorator(inner repository.EntitlementRepository, cache red.RedisClient, ttl time.Duration) repository.EntitlementRepository {
	return &entitlementRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   ttl,
	}
}

func entitlementKey(buyerID, productID string) string {
	return fmt.Sprintf("entitlement:%s:%s", buyerID, productID)
}

func (d *entitlementRepoCacheDecorator) Find(ctx context.Context, tx repository.Tx, buyerID, productID string) (*model.Entitlement, error) {
	// Transactional reads must see the row the tx sees, not a cached copy.
	if tx != nil {
		return d.inner.Find(ctx, tx, buyerID, productID)
	}

	key := entitlementKey(buyerID, productID)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		metrics.IncCacheRequest("entitlement", "hit")
		var e model.Entitlement
		if json.Unmarshal([]byte(val), &e) == nil {
			return &e, nil
		}
	}

	metrics.IncCacheRequest("entitlement", "miss")
	e, err := d.inner.Find(ctx, tx, buyerID, productID)
	if err != nil {
		return nil, err
	}
	if e != nil {
		bytes, _ := json.Marshal(e)
		d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return e, nil
}

func (d *entitlementRepoCacheDecorator) Upsert(ctx context.Context, tx repository.Tx, e *model.Entitlement) error {
	d.cache.Del(ctx, entitlementKey(e.BuyerID, e.ProductID))
	return d.inner.Upsert(ctx, tx, e)
}

func (d *entitlementRepoCacheDecorator) Deactivate(ctx context.Context, tx repository.Tx, buyerID, productID string) error {
	d.cache.Del(ctx, entitlementKey(buyerID, productID))
	return d.inner.Deactivate(ctx, tx, buyerID, productID)
}
