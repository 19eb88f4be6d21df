package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"

	"tandas/backend/internal/domain"
)

// RedisPricingSheetCache stores each batch as a hash keyed by BatchKey with
// one field per brand filter, so invalidation is a single DEL.
type RedisPricingSheetCache struct {
	client *redis.Client
}

func NewRedisPricingSheetCache(addr string, password string, db int) *RedisPricingSheetCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisPricingSheetCache{client: client}
}

func (c *RedisPricingSheetCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisPricingSheetCache) Close() error {
	return c.client.Close()
}

func (c *RedisPricingSheetCache) Get(ctx context.Context, batchName string, brand string) (*domain.PricingSheet, bool, error) {
	val, err := c.client.HGet(ctx, BatchKey(batchName), brandField(brand)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var sheet domain.PricingSheet
	if err := json.Unmarshal([]byte(val), &sheet); err != nil {
		return nil, false, err
	}
	return &sheet, true, nil
}

func (c *RedisPricingSheetCache) Set(ctx context.Context, batchName string, brand string, sheet *domain.PricingSheet, ttl time.Duration) error {
	if sheet == nil {
		return nil
	}
	payload, err := json.Marshal(sheet)
	if err != nil {
		return err
	}

	key := BatchKey(batchName)
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, brandField(brand), payload)
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (c *RedisPricingSheetCache) Invalidate(ctx context.Context, batchName string) error {
	return c.client.Del(ctx, BatchKey(batchName)).Err()
}
