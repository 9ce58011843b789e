// Package service implements the card registry, assignment engine, and
// reconciliation engine over the card and vehicle stores.
package service

import (
	"context"
	"log/slog"

	"cardfleet/internal/audit"
	cardmetrics "cardfleet/internal/cards/metrics"
	"cardfleet/internal/cards/store/card"
	"cardfleet/internal/cards/store/vehicle"
	"cardfleet/pkg/platform/tx"
)

// Invalidator drops any cached inventory view after a mutation. The Redis
// cache implements it; NopInvalidator serves when caching is off.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// NopInvalidator is the no-cache Invalidator.
type NopInvalidator struct{}

func (NopInvalidator) Invalidate(context.Context) {}

// Service orchestrates card registry, assignment, and reconciliation
// operations.
type Service struct {
	cards    card.Store
	vehicles vehicle.Store
	tx       tx.Runner
	logger   *slog.Logger
	metrics  *cardmetrics.Metrics
	audit    audit.Emitter
	cache    Invalidator
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithMetrics attaches Prometheus instruments.
func WithMetrics(m *cardmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithAudit attaches an audit emitter.
func WithAudit(emitter audit.Emitter) Option {
	return func(s *Service) { s.audit = emitter }
}

// WithCacheInvalidator attaches the inventory cache invalidation hook.
func WithCacheInvalidator(inv Invalidator) Option {
	return func(s *Service) { s.cache = inv }
}

// New constructs the card service with required dependencies. A nil runner
// defaults to NopRunner (in-memory stores).
func New(cards card.Store, vehicles vehicle.Store, runner tx.Runner, logger *slog.Logger, opts ...Option) *Service {
	if runner == nil {
		runner = tx.NopRunner{}
	}
	s := &Service{
		cards:    cards,
		vehicles: vehicles,
		tx:       runner,
		logger:   logger,
		audit:    audit.NopEmitter{},
		cache:    NopInvalidator{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
