// Package cache decorates the reconciliation view with a short-TTL Redis
// cache. Reconciliation is recomputed per read by design; operators hit it
// on every inventory page load, so caching the derived rows keeps the two
// source tables quiet. Correctness never depends on the cache: every miss
// or Redis error falls through to a fresh build, and every card mutation
// invalidates the key.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"cardfleet/internal/cards/models"
)

const inventoryKey = "cardfleet:inventory:v1"

// Reconciler builds the inventory view.
type Reconciler interface {
	Inventory(ctx context.Context) ([]models.InventoryRow, error)
}

// Inventory is a caching Reconciler. A nil client disables caching and
// makes both methods passthroughs.
type Inventory struct {
	inner  Reconciler
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewInventory constructs the cache decorator.
func NewInventory(inner Reconciler, client *redis.Client, ttl time.Duration, logger *slog.Logger) *Inventory {
	return &Inventory{inner: inner, client: client, ttl: ttl, logger: logger}
}

func (c *Inventory) Inventory(ctx context.Context) ([]models.InventoryRow, error) {
	if c.client == nil {
		return c.inner.Inventory(ctx)
	}

	payload, err := c.client.Get(ctx, inventoryKey).Bytes()
	if err == nil {
		var rows []models.InventoryRow
		if err := json.Unmarshal(payload, &rows); err == nil {
			return rows, nil
		}
		// Corrupt payload: drop it and rebuild.
		c.client.Del(ctx, inventoryKey)
	} else if err != redis.Nil {
		c.logger.WarnContext(ctx, "inventory cache read failed", "error", err)
	}

	rows, err := c.inner.Inventory(ctx)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(rows); err == nil {
		if err := c.client.Set(ctx, inventoryKey, payload, c.ttl).Err(); err != nil {
			c.logger.WarnContext(ctx, "inventory cache write failed", "error", err)
		}
	}
	return rows, nil
}

// Invalidate drops the cached view. Called after every card mutation.
func (c *Inventory) Invalidate(ctx context.Context) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, inventoryKey).Err(); err != nil {
		c.logger.WarnContext(ctx, "inventory cache invalidation failed", "error", err)
	}
}

// Invalidation drops the cached view without holding a reference to the
// decorated reconciler. It lets the card service invalidate the key the
// Inventory decorator populates without a dependency cycle between the two.
type Invalidation struct {
	client *redis.Client
	logger *slog.Logger
}

// NewInvalidation constructs the mutation-side invalidation hook.
func NewInvalidation(client *redis.Client, logger *slog.Logger) *Invalidation {
	return &Invalidation{client: client, logger: logger}
}

func (i *Invalidation) Invalidate(ctx context.Context) {
	if i.client == nil {
		return
	}
	if err := i.client.Del(ctx, inventoryKey).Err(); err != nil {
		i.logger.WarnContext(ctx, "inventory cache invalidation failed", "error", err)
	}
}
