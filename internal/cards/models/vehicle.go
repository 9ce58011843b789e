package models

import (
	id "cardfleet/pkg/domain"
)

// VehicleBinding is the card-relevant slice of a vehicle record. The
// vehicle itself is mastered by the fleet console; this service only reads
// and writes the NFC fields.
type VehicleBinding struct {
	VehicleID id.VehicleID `json:"vehicle_id"`
	Label     string       `json:"label,omitempty"`
	// NFCSerialNumber mirrors the linked card's serial, when linked.
	NFCSerialNumber string `json:"nfc_serial_number,omitempty"`
	// NFCCardID mirrors the linked card's public passport token.
	NFCCardID string `json:"nfc_card_id,omitempty"`
}

// IsBound reports whether the vehicle currently references any card.
func (v VehicleBinding) IsBound() bool {
	return v.NFCSerialNumber != "" || v.NFCCardID != ""
}

// MatchesCard reports whether this binding points at the given card, either
// by normalized serial or by public passport token. Some historical links
// are keyed by token only.
func (v VehicleBinding) MatchesCard(c *Card) bool {
	if c == nil {
		return false
	}
	if v.NFCSerialNumber != "" && NormalizeSerial(v.NFCSerialNumber) == NormalizeSerial(c.SerialNumber) {
		return true
	}
	return c.PublicID != "" && v.NFCCardID == c.PublicID
}
