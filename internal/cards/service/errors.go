package service

import "errors"

// Typed operation failures. Services wrap these with coded domain errors;
// callers branch with errors.Is.
var (
	ErrDuplicateSerial       = errors.New("duplicate serial")
	ErrCardNotFound          = errors.New("card not found")
	ErrCardAlreadyAssigned   = errors.New("card already assigned")
	ErrCardRetired           = errors.New("card retired")
	ErrCardAssigned          = errors.New("card is assigned")
	ErrLegacyCardImmutable   = errors.New("legacy card is immutable")
	ErrInsufficientInventory = errors.New("insufficient manufactured inventory")
	ErrVehicleNotFound       = errors.New("vehicle not found")
)
