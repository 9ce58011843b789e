// Package card persists the authoritative registry of manufactured cards.
//
// Error contract, shared by all implementations:
//   - sentinel.ErrNotFound when the requested card does not exist
//   - sentinel.ErrConflict when a uniqueness constraint (serial, public_id)
//     rejects the write
//   - wrapped infrastructure errors otherwise
package card

import (
	"context"

	"cardfleet/internal/cards/models"
	id "cardfleet/pkg/domain"
)

// Store is the card registry repository.
type Store interface {
	// CreateBatch inserts every card or none. Duplicate normalized serials,
	// inside the batch or against existing rows, fail with ErrConflict.
	CreateBatch(ctx context.Context, cards []*models.Card) error
	FindByID(ctx context.Context, cardID id.CardID) (*models.Card, error)
	// FindBySerial matches case-insensitively on the normalized serial.
	FindBySerial(ctx context.Context, serial string) (*models.Card, error)
	// List returns all cards ordered by serial ascending.
	List(ctx context.Context) ([]*models.Card, error)
	// ListByStatus returns cards with the given status, serial ascending.
	// This ordering defines the "first N available" contract bulk
	// assignment relies on.
	ListByStatus(ctx context.Context, status models.CardStatus) ([]*models.Card, error)
	// Update persists the full row.
	Update(ctx context.Context, card *models.Card) error
	Delete(ctx context.Context, cardID id.CardID) error
}
