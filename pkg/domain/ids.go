// Package domain defines typed identifiers shared across the service.
//
// Every entity gets its own UUID-backed type so a CardID can never be passed
// where a VehicleID is expected. Parse helpers enforce the trust-boundary
// invariant that IDs are valid, non-empty, non-nil UUIDs.
package domain

import (
	"github.com/google/uuid"

	dErrors "cardfleet/pkg/domain-errors"
)

type (
	// CardID identifies a registered physical card.
	CardID uuid.UUID
	// VehicleID identifies a vehicle in the fleet console.
	VehicleID uuid.UUID
	// MemberID identifies a member/organization account.
	MemberID uuid.UUID
	// RequestID identifies a fulfillment request.
	RequestID uuid.UUID
)

func (id CardID) String() string    { return uuid.UUID(id).String() }
func (id VehicleID) String() string { return uuid.UUID(id).String() }
func (id MemberID) String() string  { return uuid.UUID(id).String() }
func (id RequestID) String() string { return uuid.UUID(id).String() }

// IsNil reports whether the ID is the zero UUID.
func (id CardID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id VehicleID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id MemberID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id RequestID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// MarshalText renders IDs as canonical UUID strings in JSON payloads.
func (id CardID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id VehicleID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id MemberID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id RequestID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *CardID) UnmarshalText(b []byte) error {
	parsed, err := ParseCardID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *VehicleID) UnmarshalText(b []byte) error {
	parsed, err := ParseVehicleID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *MemberID) UnmarshalText(b []byte) error {
	parsed, err := ParseMemberID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *RequestID) UnmarshalText(b []byte) error {
	parsed, err := ParseRequestID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// NewCardID returns a fresh random CardID.
func NewCardID() CardID { return CardID(uuid.New()) }

// NewVehicleID returns a fresh random VehicleID.
func NewVehicleID() VehicleID { return VehicleID(uuid.New()) }

// NewMemberID returns a fresh random MemberID.
func NewMemberID() MemberID { return MemberID(uuid.New()) }

// NewRequestID returns a fresh random RequestID.
func NewRequestID() RequestID { return RequestID(uuid.New()) }

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil UUID")
	}
	return u, nil
}

// ParseCardID validates and converts a string into a CardID.
func ParseCardID(s string) (CardID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return CardID{}, err
	}
	return CardID(u), nil
}

// ParseVehicleID validates and converts a string into a VehicleID.
func ParseVehicleID(s string) (VehicleID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return VehicleID{}, err
	}
	return VehicleID(u), nil
}

// ParseMemberID validates and converts a string into a MemberID.
func ParseMemberID(s string) (MemberID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return MemberID{}, err
	}
	return MemberID(u), nil
}

// ParseRequestID validates and converts a string into a RequestID.
func ParseRequestID(s string) (RequestID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return RequestID{}, err
	}
	return RequestID(u), nil
}
