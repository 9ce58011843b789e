// Package vehicle reads and writes the NFC binding fields on vehicle
// records. Vehicles themselves are owned by the fleet console; this store
// deliberately exposes only the binding slice.
//
// Error contract: sentinel.ErrNotFound for missing vehicles or serials,
// sentinel.ErrConflict when the nfc_card_id uniqueness constraint rejects a
// write, wrapped infrastructure errors otherwise.
package vehicle

import (
	"context"

	"cardfleet/internal/cards/models"
	id "cardfleet/pkg/domain"
)

// Store is the vehicle binding repository.
type Store interface {
	// List returns the binding slice of every vehicle.
	List(ctx context.Context) ([]models.VehicleBinding, error)
	FindByID(ctx context.Context, vehicleID id.VehicleID) (models.VehicleBinding, error)
	// FindBySerial matches case-insensitively on nfc_serial_number.
	FindBySerial(ctx context.Context, serial string) (models.VehicleBinding, error)
	// SetBinding writes both NFC fields on the vehicle.
	SetBinding(ctx context.Context, vehicleID id.VehicleID, serial, publicID string) error
	// ClearBinding nulls both NFC fields.
	ClearBinding(ctx context.Context, vehicleID id.VehicleID) error
}
