package models

import (
	"strings"
	"time"

	id "cardfleet/pkg/domain"
	dErrors "cardfleet/pkg/domain-errors"
)

// CardStatus is the closed lifecycle enum for a physical card.
type CardStatus string

const (
	StatusManufactured CardStatus = "MANUFACTURED"
	StatusAssigned     CardStatus = "ASSIGNED"
	StatusLost         CardStatus = "LOST"
	StatusDamaged      CardStatus = "DAMAGED"
	StatusVoid         CardStatus = "VOID"

	// StatusUnknown is derived-only: it marks a serial with neither a
	// registry row nor a vehicle binding. Never persisted.
	StatusUnknown CardStatus = "UNKNOWN"
)

// ParseCardStatus validates a persisted status value.
func ParseCardStatus(s string) (CardStatus, error) {
	status := CardStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch status {
	case StatusManufactured, StatusAssigned, StatusLost, StatusDamaged, StatusVoid:
		return status, nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "unknown card status")
}

// IsRetired reports whether the card has been administratively taken out of
// circulation.
func (s CardStatus) IsRetired() bool {
	return s == StatusLost || s == StatusDamaged || s == StatusVoid
}

// adminTransitions enumerates the administrative status moves. ASSIGNED is
// deliberately absent as a target: it is only reachable through the
// assignment engine, which keeps the vehicle binding consistent. UNKNOWN is
// derived and never a legal source or target of a stored transition.
var adminTransitions = map[CardStatus]map[CardStatus]bool{
	StatusManufactured: {StatusLost: true, StatusDamaged: true, StatusVoid: true},
	StatusAssigned:     {StatusLost: true, StatusDamaged: true, StatusVoid: true},
	StatusLost:         {StatusManufactured: true, StatusDamaged: true, StatusVoid: true},
	StatusDamaged:      {StatusManufactured: true, StatusLost: true, StatusVoid: true},
	StatusVoid:         {StatusManufactured: true, StatusLost: true, StatusDamaged: true},
}

// CanTransitionTo reports whether an administrator may move a card from s
// to target directly.
func (s CardStatus) CanTransitionTo(target CardStatus) bool {
	return adminTransitions[s][target]
}

// Card is a registered physical NFC card.
//
// Invariants:
//   - SerialNumber is non-empty and unique case-insensitively
//   - PublicID, when set, is unique across the registry and vehicle bindings
//   - Status is one of the persisted CardStatus values (never UNKNOWN)
//   - Status reaches ASSIGNED only through the assignment engine
type Card struct {
	ID           id.CardID  `json:"id"`
	SerialNumber string     `json:"serial_number"`
	PublicID     string     `json:"public_id,omitempty"`
	BatchID      string     `json:"batch_id,omitempty"`
	Status       CardStatus `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NewCard constructs a freshly manufactured card.
func NewCard(cardID id.CardID, serial, batchID string, now time.Time) (*Card, error) {
	serial = NormalizeSerial(serial)
	if serial == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "serial number cannot be empty")
	}
	return &Card{
		ID:           cardID,
		SerialNumber: serial,
		BatchID:      batchID,
		Status:       StatusManufactured,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// CanSetStatus checks an administrative transition against the table.
func (c *Card) CanSetStatus(target CardStatus) error {
	if target == StatusAssigned {
		return dErrors.New(dErrors.CodeInvariantViolation,
			"ASSIGNED is only reachable through card assignment")
	}
	if !c.Status.CanTransitionTo(target) {
		return dErrors.New(dErrors.CodeInvariantViolation,
			"illegal status transition "+string(c.Status)+" -> "+string(target))
	}
	return nil
}

// ApplySetStatus performs the transition. Call CanSetStatus first.
func (c *Card) ApplySetStatus(target CardStatus, now time.Time) {
	c.Status = target
	c.UpdatedAt = now
}

// ApplyAssignment marks the card assigned. Only the assignment engine calls
// this, inside the same transaction that writes the vehicle binding.
func (c *Card) ApplyAssignment(publicID string, now time.Time) {
	c.Status = StatusAssigned
	if c.PublicID == "" {
		c.PublicID = publicID
	}
	c.UpdatedAt = now
}

// ApplyRelease returns the card to available inventory after unlinking.
func (c *Card) ApplyRelease(now time.Time) {
	c.Status = StatusManufactured
	c.UpdatedAt = now
}

// NormalizeSerial trims and upper-cases a serial for comparison and storage.
func NormalizeSerial(serial string) string {
	return strings.ToUpper(strings.TrimSpace(serial))
}
