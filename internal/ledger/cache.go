package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// StockCache keeps a short-lived copy of on-hand quantities in Redis so
// hot read paths skip the database. Invalidated on every movement.
type StockCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStockCache instantiates the cache helper.
func NewStockCache(client *redis.Client, ttl time.Duration) *StockCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &StockCache{client: client, ttl: ttl}
}

func stockKey(branchID, itemID int64) string {
	return fmt.Sprintf("ledger:stock:%d:%d", branchID, itemID)
}

// Get returns the cached quantity; ok is false on miss or when the cache
// is not configured.
func (c *StockCache) Get(ctx context.Context, branchID, itemID int64) (float64, bool) {
	if c == nil || c.client == nil {
		return 0, false
	}
	raw, err := c.client.Get(ctx, stockKey(branchID, itemID)).Result()
	if err != nil {
		return 0, false
	}
	qty, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return qty, true
}

// Set stores the quantity with the configured TTL.
func (c *StockCache) Set(ctx context.Context, branchID, itemID int64, qty float64) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Set(ctx, stockKey(branchID, itemID), strconv.FormatFloat(qty, 'f', -1, 64), c.ttl).Err()
}

// Invalidate drops the cached quantity for a pair.
func (c *StockCache) Invalidate(ctx context.Context, branchID, itemID int64) error {
	if c == nil || c.client == nil {
		return nil
	}
	err := c.client.Del(ctx, stockKey(branchID, itemID)).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}
