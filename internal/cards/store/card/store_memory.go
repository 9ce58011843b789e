package card

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"cardfleet/internal/cards/models"
	id "cardfleet/pkg/domain"
	"cardfleet/pkg/platform/sentinel"
)

// InMemory stores cards in memory for tests and development.
type InMemory struct {
	mu    sync.RWMutex
	cards map[id.CardID]*models.Card
}

// NewInMemory constructs an empty in-memory card store.
func NewInMemory() *InMemory {
	return &InMemory{cards: make(map[id.CardID]*models.Card)}
}

func (s *InMemory) CreateBatch(_ context.Context, cards []*models.Card) error {
	if len(cards) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(cards))
	for _, c := range cards {
		serial := models.NormalizeSerial(c.SerialNumber)
		if seen[serial] {
			return fmt.Errorf("serial %s repeated in batch: %w", serial, sentinel.ErrConflict)
		}
		seen[serial] = true
		if s.findBySerialLocked(serial) != nil {
			return fmt.Errorf("serial %s already registered: %w", serial, sentinel.ErrConflict)
		}
	}
	for _, c := range cards {
		clone := *c
		s.cards[c.ID] = &clone
	}
	return nil
}

func (s *InMemory) FindByID(_ context.Context, cardID id.CardID) (*models.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.cards[cardID]; ok {
		clone := *c
		return &clone, nil
	}
	return nil, fmt.Errorf("card %s: %w", cardID, sentinel.ErrNotFound)
}

func (s *InMemory) FindBySerial(_ context.Context, serial string) (*models.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c := s.findBySerialLocked(models.NormalizeSerial(serial)); c != nil {
		clone := *c
		return &clone, nil
	}
	return nil, fmt.Errorf("serial %s: %w", serial, sentinel.ErrNotFound)
}

func (s *InMemory) List(_ context.Context) ([]*models.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Card, 0, len(s.cards))
	for _, c := range s.cards {
		clone := *c
		out = append(out, &clone)
	}
	sortBySerial(out)
	return out, nil
}

func (s *InMemory) ListByStatus(_ context.Context, status models.CardStatus) ([]*models.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Card
	for _, c := range s.cards {
		if c.Status == status {
			clone := *c
			out = append(out, &clone)
		}
	}
	sortBySerial(out)
	return out, nil
}

func (s *InMemory) Update(_ context.Context, card *models.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.cards[card.ID]
	if !ok {
		return fmt.Errorf("card %s: %w", card.ID, sentinel.ErrNotFound)
	}

	serial := models.NormalizeSerial(card.SerialNumber)
	for otherID, other := range s.cards {
		if otherID == card.ID {
			continue
		}
		if models.NormalizeSerial(other.SerialNumber) == serial {
			return fmt.Errorf("serial %s already registered: %w", serial, sentinel.ErrConflict)
		}
		if card.PublicID != "" && other.PublicID == card.PublicID {
			return fmt.Errorf("public id %s already in use: %w", card.PublicID, sentinel.ErrConflict)
		}
	}

	clone := *card
	clone.CreatedAt = current.CreatedAt
	s.cards[card.ID] = &clone
	return nil
}

func (s *InMemory) Delete(_ context.Context, cardID id.CardID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cards[cardID]; !ok {
		return fmt.Errorf("card %s: %w", cardID, sentinel.ErrNotFound)
	}
	delete(s.cards, cardID)
	return nil
}

func (s *InMemory) findBySerialLocked(normalized string) *models.Card {
	for _, c := range s.cards {
		if models.NormalizeSerial(c.SerialNumber) == normalized {
			return c
		}
	}
	return nil
}

func sortBySerial(cards []*models.Card) {
	sort.Slice(cards, func(i, j int) bool {
		return cards[i].SerialNumber < cards[j].SerialNumber
	})
}
