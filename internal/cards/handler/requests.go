package handler

import (
	"cardfleet/internal/cards/models"
	"cardfleet/internal/cards/service"
	id "cardfleet/pkg/domain"
	dErrors "cardfleet/pkg/domain-errors"
)

// VerifyCardRequest asks whether a serial is assignable.
type VerifyCardRequest struct {
	SerialNumber string `json:"serial_number"`
}

// CreateBatchRequest registers cards. Either an explicit serial list or a
// prefix+count generation request; not both.
type CreateBatchRequest struct {
	Serials []string `json:"serials,omitempty"`
	BatchID string   `json:"batch_id,omitempty"`
	Prefix  string   `json:"prefix,omitempty"`
	Count   int      `json:"count,omitempty"`
}

func (r CreateBatchRequest) Validate() error {
	if len(r.Serials) > 0 && r.Count > 0 {
		return dErrors.New(dErrors.CodeBadRequest, "provide either serials or prefix+count, not both")
	}
	if len(r.Serials) == 0 && r.Count == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "provide serials or prefix+count")
	}
	return nil
}

// BulkAssignRequest links cards to vehicles. Explicit mappings, or a
// vehicle_ids list to pair positionally with the first available cards.
type BulkAssignRequest struct {
	Mappings   []bulkMapping `json:"mappings,omitempty"`
	VehicleIDs []string      `json:"vehicle_ids,omitempty"`
}

type bulkMapping struct {
	VehicleID    string `json:"vehicle_id"`
	SerialNumber string `json:"serial_number"`
}

// ParsedMappings converts the wire mappings into domain mappings.
func (r BulkAssignRequest) ParsedMappings() ([]service.AssignmentMapping, error) {
	mappings := make([]service.AssignmentMapping, 0, len(r.Mappings))
	for _, m := range r.Mappings {
		vehicleID, err := id.ParseVehicleID(m.VehicleID)
		if err != nil {
			return nil, err
		}
		mappings = append(mappings, service.AssignmentMapping{
			VehicleID:    vehicleID,
			SerialNumber: m.SerialNumber,
		})
	}
	return mappings, nil
}

// ParsedVehicleIDs converts the wire vehicle id list.
func (r BulkAssignRequest) ParsedVehicleIDs() ([]id.VehicleID, error) {
	out := make([]id.VehicleID, 0, len(r.VehicleIDs))
	for _, raw := range r.VehicleIDs {
		vehicleID, err := id.ParseVehicleID(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, vehicleID)
	}
	return out, nil
}

// UpdateCardRequest patches card metadata. Absent fields stay untouched.
type UpdateCardRequest struct {
	SerialNumber *string `json:"serial_number,omitempty"`
	Status       *string `json:"status,omitempty"`
	BatchID      *string `json:"batch_id,omitempty"`
}

// ParsedPatch converts the wire patch into a domain patch.
func (r UpdateCardRequest) ParsedPatch() (service.CardPatch, error) {
	patch := service.CardPatch{
		SerialNumber: r.SerialNumber,
		BatchID:      r.BatchID,
	}
	if r.Status != nil {
		status, err := models.ParseCardStatus(*r.Status)
		if err != nil {
			return service.CardPatch{}, err
		}
		patch.Status = &status
	}
	return patch, nil
}

// UnlinkCardRequest releases a serial back to inventory.
type UnlinkCardRequest struct {
	SerialNumber string `json:"serial_number"`
}
