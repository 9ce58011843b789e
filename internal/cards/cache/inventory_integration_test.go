//go:build integration

package cache_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"cardfleet/internal/cards/cache"
	"cardfleet/internal/cards/models"
	"cardfleet/pkg/testutil/containers"
)

// countingReconciler returns canned rows and counts how often it is asked.
type countingReconciler struct {
	rows  []models.InventoryRow
	err   error
	calls int
}

func (r *countingReconciler) Inventory(context.Context) ([]models.InventoryRow, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.rows, nil
}

type InventoryCacheSuite struct {
	suite.Suite
	redis  *containers.RedisContainer
	logger *slog.Logger
}

func TestInventoryCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(InventoryCacheSuite))
}

func (s *InventoryCacheSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *InventoryCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *InventoryCacheSuite) TestMissPopulatesAndHitSkipsRebuild() {
	ctx := context.Background()
	inner := &countingReconciler{rows: []models.InventoryRow{
		{SerialNumber: "NFC-001", Status: models.StatusManufactured},
		{SerialNumber: "NFC-002", Status: models.StatusLost},
	}}
	inv := cache.NewInventory(inner, s.redis.Client, time.Minute, s.logger)

	first, err := inv.Inventory(ctx)
	s.Require().NoError(err)
	s.Len(first, 2)
	s.Equal(1, inner.calls)

	second, err := inv.Inventory(ctx)
	s.Require().NoError(err)
	s.Equal(first, second)
	s.Equal(1, inner.calls, "second read must come from the cache")
}

func (s *InventoryCacheSuite) TestInvalidateForcesRebuild() {
	ctx := context.Background()
	inner := &countingReconciler{rows: []models.InventoryRow{
		{SerialNumber: "NFC-001", Status: models.StatusManufactured},
	}}
	inv := cache.NewInventory(inner, s.redis.Client, time.Minute, s.logger)

	_, err := inv.Inventory(ctx)
	s.Require().NoError(err)

	inner.rows[0].Status = models.StatusVoid
	inv.Invalidate(ctx)

	rows, err := inv.Inventory(ctx)
	s.Require().NoError(err)
	s.Equal(models.StatusVoid, rows[0].Status)
	s.Equal(2, inner.calls)
}

func (s *InventoryCacheSuite) TestInvalidationHookSharesKey() {
	ctx := context.Background()
	inner := &countingReconciler{rows: []models.InventoryRow{
		{SerialNumber: "NFC-001", Status: models.StatusManufactured},
	}}
	inv := cache.NewInventory(inner, s.redis.Client, time.Minute, s.logger)
	hook := cache.NewInvalidation(s.redis.Client, s.logger)

	_, err := inv.Inventory(ctx)
	s.Require().NoError(err)

	hook.Invalidate(ctx)

	_, err = inv.Inventory(ctx)
	s.Require().NoError(err)
	s.Equal(2, inner.calls, "hook must drop the decorator's key")
}

func (s *InventoryCacheSuite) TestCorruptPayloadFallsThrough() {
	ctx := context.Background()
	inner := &countingReconciler{rows: []models.InventoryRow{
		{SerialNumber: "NFC-001", Status: models.StatusManufactured},
	}}
	inv := cache.NewInventory(inner, s.redis.Client, time.Minute, s.logger)

	s.Require().NoError(s.redis.Client.Set(ctx, "cardfleet:inventory:v1", "{not json", time.Minute).Err())

	rows, err := inv.Inventory(ctx)
	s.Require().NoError(err)
	s.Len(rows, 1)
	s.Equal(1, inner.calls)
}

func (s *InventoryCacheSuite) TestBuildErrorIsNotCached() {
	ctx := context.Background()
	inner := &countingReconciler{err: errors.New("store down")}
	inv := cache.NewInventory(inner, s.redis.Client, time.Minute, s.logger)

	_, err := inv.Inventory(ctx)
	s.Require().Error(err)

	exists, err := s.redis.Client.Exists(ctx, "cardfleet:inventory:v1").Result()
	s.Require().NoError(err)
	s.Zero(exists)
}
