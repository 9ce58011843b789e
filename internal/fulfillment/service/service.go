// Package service drives the fulfillment request workflow. Requests are
// created on the member-facing surface; administrators only move them
// through the shipment state machine.
package service

import (
	"context"
	"errors"
	"log/slog"

	"cardfleet/internal/audit"
	"cardfleet/internal/fulfillment/models"
	"cardfleet/internal/fulfillment/store"
	id "cardfleet/pkg/domain"
	dErrors "cardfleet/pkg/domain-errors"
	"cardfleet/pkg/platform/sentinel"
	"cardfleet/pkg/requestcontext"
)

// Service orchestrates fulfillment request transitions.
type Service struct {
	requests store.Store
	logger   *slog.Logger
	audit    audit.Emitter
}

// New constructs the fulfillment service.
func New(requests store.Store, logger *slog.Logger, emitter audit.Emitter) *Service {
	if emitter == nil {
		emitter = audit.NopEmitter{}
	}
	return &Service{requests: requests, logger: logger, audit: emitter}
}

// List returns every request joined with display fields, newest first.
func (s *Service) List(ctx context.Context) ([]models.RequestDetails, error) {
	out, err := s.requests.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list requests")
	}
	return out, nil
}

// UpdateStatus advances a request through the workflow. The transition
// table is enforced here, not in the UI: PENDING->SHIPPED,
// SHIPPED->DELIVERED, and PENDING/SHIPPED->CANCELLED only.
func (s *Service) UpdateStatus(ctx context.Context, requestID id.RequestID, status models.RequestStatus, notes string) (*models.FulfillmentRequest, error) {
	now := requestcontext.Now(ctx)

	r, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "request not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "request lookup failed")
	}

	if err := r.CanSetStatus(status); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeConflict,
			"request cannot move from "+string(r.Status)+" to "+string(status))
	}
	r.ApplySetStatus(status, notes, now)

	if err := s.requests.Update(ctx, r); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "request not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update request")
	}

	if err := s.audit.Emit(ctx, audit.Event{
		Action:     audit.ActionRequestStatusSet,
		Subject:    requestID.String(),
		Detail:     audit.Detail("status", string(status)),
		Actor:      requestcontext.Actor(ctx),
		RequestID:  requestcontext.RequestID(ctx),
		OccurredAt: now,
	}); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "request_id", requestID, "error", err)
	}

	s.logger.InfoContext(ctx, "fulfillment request transitioned",
		"request_id", requestcontext.RequestID(ctx),
		"fulfillment_id", requestID,
		"status", string(status),
	)
	return r, nil
}
