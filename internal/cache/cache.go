package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"time"

	"tandas/backend/internal/domain"
)

// PricingSheetCache holds computed pricing sheets per batch, one entry per
// brand filter. Invalidate drops every entry of a batch.
type PricingSheetCache interface {
	Get(ctx context.Context, batchName string, brand string) (*domain.PricingSheet, bool, error)
	Set(ctx context.Context, batchName string, brand string, sheet *domain.PricingSheet, ttl time.Duration) error
	Invalidate(ctx context.Context, batchName string) error
}

type NoopPricingSheetCache struct{}

func (NoopPricingSheetCache) Get(_ context.Context, _ string, _ string) (*domain.PricingSheet, bool, error) {
	return nil, false, nil
}

func (NoopPricingSheetCache) Set(_ context.Context, _ string, _ string, _ *domain.PricingSheet, _ time.Duration) error {
	return nil
}

func (NoopPricingSheetCache) Invalidate(_ context.Context, _ string) error {
	return nil
}

// BatchKey is the cache key of a batch. Batch names are free text, so the
// key carries a digest instead of the raw name.
func BatchKey(batchName string) string {
	sum := sha1.Sum([]byte(batchName))
	return "tandas:pricing:" + hex.EncodeToString(sum[:])
}

func brandField(brand string) string {
	if brand == "" {
		return "*"
	}
	return "brand:" + brand
}
