package models

import (
	id "cardfleet/pkg/domain"
)

// Anomaly flags a reconciliation finding that operators must see.
type Anomaly string

const (
	// AnomalyBrokenLink: the registry says ASSIGNED but no vehicle
	// references the card by serial or token.
	AnomalyBrokenLink Anomaly = "BROKEN_LINK"
	// AnomalyDoubleLink: more than one vehicle references the same card.
	AnomalyDoubleLink Anomaly = "DOUBLE_LINK"
)

// InventoryRow is one line of the unified card/vehicle inventory view.
// Rows are derived on every read and never persisted.
type InventoryRow struct {
	// CardID is nil for legacy cards known only from a vehicle binding.
	CardID *id.CardID `json:"card_id,omitempty"`
	// SerialNumber is normalized (trimmed, upper-cased).
	SerialNumber string     `json:"serial_number"`
	PublicID     string     `json:"public_id,omitempty"`
	BatchID      string     `json:"batch_id,omitempty"`
	Status       CardStatus `json:"status"`
	// Legacy marks a binding with no registry row behind it.
	Legacy bool `json:"legacy"`
	// VehicleID is the first matched vehicle, when any matches.
	VehicleID    *id.VehicleID `json:"vehicle_id,omitempty"`
	VehicleLabel string        `json:"vehicle_label,omitempty"`
	Anomalies    []Anomaly     `json:"anomalies,omitempty"`
}

// HasAnomaly reports whether the row carries the given flag.
func (r InventoryRow) HasAnomaly(a Anomaly) bool {
	for _, got := range r.Anomalies {
		if got == a {
			return true
		}
	}
	return false
}
