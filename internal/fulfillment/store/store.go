// Package store persists fulfillment requests.
//
// Error contract: sentinel.ErrNotFound for missing requests, wrapped
// infrastructure errors otherwise.
package store

import (
	"context"

	"cardfleet/internal/fulfillment/models"
	id "cardfleet/pkg/domain"
)

// Store is the fulfillment request repository.
type Store interface {
	// Create inserts a new request. Used by the member-facing surface and
	// by tests; the admin surface only transitions status.
	Create(ctx context.Context, request *models.FulfillmentRequest) error
	FindByID(ctx context.Context, requestID id.RequestID) (*models.FulfillmentRequest, error)
	// List returns all requests joined with member/vehicle display fields,
	// newest first.
	List(ctx context.Context) ([]models.RequestDetails, error)
	// Update persists the full row.
	Update(ctx context.Context, request *models.FulfillmentRequest) error
}
