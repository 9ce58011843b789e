package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"cardfleet/internal/fulfillment/models"
	id "cardfleet/pkg/domain"
	"cardfleet/pkg/platform/sentinel"
)

// InMemory stores fulfillment requests in memory for tests and development.
type InMemory struct {
	mu       sync.RWMutex
	requests map[id.RequestID]*models.FulfillmentRequest
	members  map[id.MemberID]string
	vehicles map[id.VehicleID]string
}

// NewInMemory constructs an empty in-memory request store.
func NewInMemory() *InMemory {
	return &InMemory{
		requests: make(map[id.RequestID]*models.FulfillmentRequest),
		members:  make(map[id.MemberID]string),
		vehicles: make(map[id.VehicleID]string),
	}
}

// SeedMember registers a member display name for the joined listing.
func (s *InMemory) SeedMember(memberID id.MemberID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[memberID] = name
}

// SeedVehicle registers a vehicle label for the joined listing.
func (s *InMemory) SeedVehicle(vehicleID id.VehicleID, label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vehicles[vehicleID] = label
}

func (s *InMemory) Create(_ context.Context, request *models.FulfillmentRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *request
	s.requests[request.ID] = &clone
	return nil
}

func (s *InMemory) FindByID(_ context.Context, requestID id.RequestID) (*models.FulfillmentRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.requests[requestID]; ok {
		clone := *r
		return &clone, nil
	}
	return nil, fmt.Errorf("request %s: %w", requestID, sentinel.ErrNotFound)
}

func (s *InMemory) List(_ context.Context) ([]models.RequestDetails, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.RequestDetails, 0, len(s.requests))
	for _, r := range s.requests {
		details := models.RequestDetails{FulfillmentRequest: *r}
		details.MemberName = s.members[r.MemberID]
		if r.VehicleID != nil {
			details.VehicleLabel = s.vehicles[*r.VehicleID]
		}
		out = append(out, details)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemory) Update(_ context.Context, request *models.FulfillmentRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.requests[request.ID]
	if !ok {
		return fmt.Errorf("request %s: %w", request.ID, sentinel.ErrNotFound)
	}
	clone := *request
	clone.CreatedAt = current.CreatedAt
	s.requests[request.ID] = &clone
	return nil
}
