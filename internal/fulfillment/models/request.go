package models

import (
	"strings"
	"time"

	id "cardfleet/pkg/domain"
	dErrors "cardfleet/pkg/domain-errors"
)

// RequestType distinguishes first-time shipments from replacements.
type RequestType string

const (
	TypeNew         RequestType = "NEW"
	TypeReplacement RequestType = "REPLACEMENT"
)

// ParseRequestType validates a request type value.
func ParseRequestType(s string) (RequestType, error) {
	t := RequestType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case TypeNew, TypeReplacement:
		return t, nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "unknown request type")
}

// RequestStatus is the shipment workflow state.
type RequestStatus string

const (
	StatusPending   RequestStatus = "PENDING"
	StatusShipped   RequestStatus = "SHIPPED"
	StatusDelivered RequestStatus = "DELIVERED"
	StatusCancelled RequestStatus = "CANCELLED"
)

// ParseRequestStatus validates a status value.
func ParseRequestStatus(s string) (RequestStatus, error) {
	status := RequestStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch status {
	case StatusPending, StatusShipped, StatusDelivered, StatusCancelled:
		return status, nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "unknown request status")
}

// transitions is the administrator-driven workflow. DELIVERED and
// CANCELLED are terminal.
var transitions = map[RequestStatus]map[RequestStatus]bool{
	StatusPending: {StatusShipped: true, StatusCancelled: true},
	StatusShipped: {StatusDelivered: true, StatusCancelled: true},
}

// CanTransitionTo reports whether the workflow permits moving to target.
func (s RequestStatus) CanTransitionTo(target RequestStatus) bool {
	return transitions[s][target]
}

// IsTerminal reports whether no further transitions are possible.
func (s RequestStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// FulfillmentRequest is a member-initiated card shipment request. Creation
// happens on the member-facing surface; this service only advances status.
//
// Invariants:
//   - Status transitions follow the transitions table
//   - CreatedAt is immutable after construction
type FulfillmentRequest struct {
	ID        id.RequestID  `json:"id"`
	MemberID  id.MemberID   `json:"member_id"`
	VehicleID *id.VehicleID `json:"vehicle_id,omitempty"`
	Type      RequestType   `json:"request_type"`
	Status    RequestStatus `json:"status"`
	Notes     string        `json:"notes,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// CanSetStatus checks the requested transition against the table.
func (r *FulfillmentRequest) CanSetStatus(target RequestStatus) error {
	if !r.Status.CanTransitionTo(target) {
		return dErrors.New(dErrors.CodeInvariantViolation,
			"illegal request transition "+string(r.Status)+" -> "+string(target))
	}
	return nil
}

// ApplySetStatus performs the transition. Call CanSetStatus first.
func (r *FulfillmentRequest) ApplySetStatus(target RequestStatus, notes string, now time.Time) {
	r.Status = target
	if notes != "" {
		r.Notes = notes
	}
	r.UpdatedAt = now
}

// RequestDetails is a request joined with member/vehicle display fields
// for the operator listing.
type RequestDetails struct {
	FulfillmentRequest
	MemberName   string `json:"member_name,omitempty"`
	VehicleLabel string `json:"vehicle_label,omitempty"`
}
