package vehicle

import (
	"context"
	"fmt"
	"sync"

	"cardfleet/internal/cards/models"
	id "cardfleet/pkg/domain"
	"cardfleet/pkg/platform/sentinel"
)

// InMemory stores vehicle bindings in memory for tests and development.
type InMemory struct {
	mu       sync.RWMutex
	vehicles map[id.VehicleID]*models.VehicleBinding
}

// NewInMemory constructs an empty in-memory vehicle store.
func NewInMemory() *InMemory {
	return &InMemory{vehicles: make(map[id.VehicleID]*models.VehicleBinding)}
}

// Seed registers a vehicle. Test/dev helper; production vehicles come from
// the fleet console's tables.
func (s *InMemory) Seed(binding models.VehicleBinding) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := binding
	s.vehicles[binding.VehicleID] = &clone
}

func (s *InMemory) List(_ context.Context) ([]models.VehicleBinding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.VehicleBinding, 0, len(s.vehicles))
	for _, v := range s.vehicles {
		out = append(out, *v)
	}
	return out, nil
}

func (s *InMemory) FindByID(_ context.Context, vehicleID id.VehicleID) (models.VehicleBinding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.vehicles[vehicleID]; ok {
		return *v, nil
	}
	return models.VehicleBinding{}, fmt.Errorf("vehicle %s: %w", vehicleID, sentinel.ErrNotFound)
}

func (s *InMemory) FindBySerial(_ context.Context, serial string) (models.VehicleBinding, error) {
	normalized := models.NormalizeSerial(serial)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.vehicles {
		if v.NFCSerialNumber != "" && models.NormalizeSerial(v.NFCSerialNumber) == normalized {
			return *v, nil
		}
	}
	return models.VehicleBinding{}, fmt.Errorf("serial %s: %w", serial, sentinel.ErrNotFound)
}

func (s *InMemory) SetBinding(_ context.Context, vehicleID id.VehicleID, serial, publicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[vehicleID]
	if !ok {
		return fmt.Errorf("vehicle %s: %w", vehicleID, sentinel.ErrNotFound)
	}
	if publicID != "" {
		for otherID, other := range s.vehicles {
			if otherID != vehicleID && other.NFCCardID == publicID {
				return fmt.Errorf("public id %s already bound: %w", publicID, sentinel.ErrConflict)
			}
		}
	}
	v.NFCSerialNumber = serial
	v.NFCCardID = publicID
	return nil
}

func (s *InMemory) ClearBinding(_ context.Context, vehicleID id.VehicleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[vehicleID]
	if !ok {
		return fmt.Errorf("vehicle %s: %w", vehicleID, sentinel.ErrNotFound)
	}
	v.NFCSerialNumber = ""
	v.NFCCardID = ""
	return nil
}
