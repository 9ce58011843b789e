package service

import (
	"context"
	"errors"

	"cardfleet/internal/audit"
	"cardfleet/internal/cards/idgen"
	"cardfleet/internal/cards/models"
	id "cardfleet/pkg/domain"
	dErrors "cardfleet/pkg/domain-errors"
	"cardfleet/pkg/platform/sentinel"
	"cardfleet/pkg/platform/tx"
	"cardfleet/pkg/requestcontext"
)

// Verification is the outcome of VerifyCard. Legacy is set when the serial
// has no registry row but is referenced by a vehicle; such serials pass
// verification permissively.
type Verification struct {
	SerialNumber string `json:"serial_number"`
	Legacy       bool   `json:"legacy"`
}

// VerifyCard checks whether the serial identifies an assignable card.
// Callers link in two steps (verify, then link) so verification failures
// stay distinguishable from linking failures.
func (s *Service) VerifyCard(ctx context.Context, serial string) (Verification, error) {
	normalized := models.NormalizeSerial(serial)
	if normalized == "" {
		return Verification{}, dErrors.New(dErrors.CodeInvalidInput, "serial number is required")
	}

	c, err := s.cards.FindBySerial(ctx, normalized)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			return Verification{}, dErrors.Wrap(err, dErrors.CodeInternal, "card lookup failed")
		}
		// No registry row. A vehicle-side binding makes this a legacy card,
		// which verification tolerates; otherwise the card is unknown.
		if _, vErr := s.vehicles.FindBySerial(ctx, normalized); vErr == nil {
			return Verification{SerialNumber: normalized, Legacy: true}, nil
		} else if !errors.Is(vErr, sentinel.ErrNotFound) {
			return Verification{}, dErrors.Wrap(vErr, dErrors.CodeInternal, "vehicle lookup failed")
		}
		return Verification{}, dErrors.Wrap(ErrCardNotFound, dErrors.CodeNotFound,
			"serial is not registered")
	}

	switch {
	case c.Status == models.StatusAssigned:
		return Verification{}, dErrors.Wrap(ErrCardAlreadyAssigned, dErrors.CodeConflict,
			"card is already assigned to a vehicle")
	case c.Status.IsRetired():
		return Verification{}, dErrors.Wrap(ErrCardRetired, dErrors.CodeConflict,
			"card has been retired ("+string(c.Status)+")")
	}
	return Verification{SerialNumber: normalized}, nil
}

// LinkCard binds a MANUFACTURED card to a vehicle: writes the vehicle's
// nfc_serial_number and nfc_card_id and moves the card to ASSIGNED, all in
// one transaction. If the vehicle has no public passport token yet, one is
// generated; a token uniqueness collision regenerates once before failing.
func (s *Service) LinkCard(ctx context.Context, vehicleID id.VehicleID, serial string) error {
	verification, err := s.VerifyCard(ctx, serial)
	if err != nil {
		return err
	}

	if err := s.linkVerified(ctx, vehicleID, verification); err != nil {
		return err
	}

	s.cache.Invalidate(ctx)
	if s.metrics != nil {
		s.metrics.CardsAssigned.Inc()
	}
	s.emit(ctx, audit.ActionCardLinked, verification.SerialNumber,
		audit.Detail("vehicle_id", vehicleID))
	s.logger.InfoContext(ctx, "card linked",
		"request_id", requestcontext.RequestID(ctx),
		"serial", verification.SerialNumber,
		"vehicle_id", vehicleID,
	)
	return nil
}

func (s *Service) linkVerified(ctx context.Context, vehicleID id.VehicleID, verification Verification) error {
	now := requestcontext.Now(ctx)

	attempt := func(txCtx context.Context) error {
		binding, err := s.vehicles.FindByID(txCtx, vehicleID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.Wrap(ErrVehicleNotFound, dErrors.CodeNotFound, "vehicle not found")
			}
			return err
		}

		publicID := binding.NFCCardID
		if publicID == "" {
			publicID, err = idgen.GeneratePublicID(idgen.PublicIDLength)
			if err != nil {
				return err
			}
		}

		if err := s.vehicles.SetBinding(txCtx, vehicleID, verification.SerialNumber, publicID); err != nil {
			return err
		}

		if verification.Legacy {
			// Legacy serial: no registry row to move to ASSIGNED.
			return nil
		}
		c, err := s.cards.FindBySerial(txCtx, verification.SerialNumber)
		if err != nil {
			s.restoreBinding(txCtx, binding)
			return err
		}
		c.ApplyAssignment(publicID, now)
		if err := s.cards.Update(txCtx, c); err != nil {
			s.restoreBinding(txCtx, binding)
			return err
		}
		return nil
	}

	err := s.tx.RunInTx(ctx, attempt)
	if err != nil && errors.Is(err, sentinel.ErrConflict) {
		// Token collision is ~62^-8 per draw; one regenerate-and-retry is
		// the decided policy before giving up.
		err = s.tx.RunInTx(ctx, attempt)
	}
	if err != nil {
		switch {
		case dErrors.HasCode(err, dErrors.CodeNotFound), dErrors.HasCode(err, dErrors.CodeConflict):
			return err
		case errors.Is(err, sentinel.ErrConflict):
			return dErrors.Wrap(err, dErrors.CodeConflict, "public token collision persisted across retry")
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.Wrap(ErrCardNotFound, dErrors.CodeNotFound, "card disappeared during link")
		default:
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to link card")
		}
	}
	return nil
}

// restoreBinding puts a vehicle's NFC fields back to their pre-link values
// after the card-side write failed. Inside a SQL transaction the rollback
// already undoes the binding write, and the failed statement has aborted
// the transaction anyway, so the restore only runs on the in-memory path.
func (s *Service) restoreBinding(ctx context.Context, prev models.VehicleBinding) {
	if _, ok := tx.From(ctx); ok {
		return
	}
	var err error
	if prev.IsBound() {
		err = s.vehicles.SetBinding(ctx, prev.VehicleID, prev.NFCSerialNumber, prev.NFCCardID)
	} else {
		err = s.vehicles.ClearBinding(ctx, prev.VehicleID)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to restore vehicle binding after link failure",
			"vehicle_id", prev.VehicleID, "error", err)
	}
}

// AssignmentMapping pairs one vehicle with one card serial.
type AssignmentMapping struct {
	VehicleID    id.VehicleID `json:"vehicle_id"`
	SerialNumber string       `json:"serial_number"`
}

// AssignmentResult reports the outcome for one mapping in a bulk run.
type AssignmentResult struct {
	VehicleID    id.VehicleID `json:"vehicle_id"`
	SerialNumber string       `json:"serial_number"`
	Linked       bool         `json:"linked"`
	Error        string       `json:"error,omitempty"`
}

// BulkAssign links each mapping in order. It fails fast with
// InsufficientInventory - before any write - when fewer MANUFACTURED cards
// exist than mappings. Individual pair failures don't stop later pairs;
// every mapping gets an explicit result.
func (s *Service) BulkAssign(ctx context.Context, mappings []AssignmentMapping) ([]AssignmentResult, error) {
	if len(mappings) == 0 {
		return nil, nil
	}

	available, err := s.cards.ListByStatus(ctx, models.StatusManufactured)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count available cards")
	}
	if len(available) < len(mappings) {
		return nil, dErrors.Wrap(ErrInsufficientInventory, dErrors.CodeConflict,
			"not enough manufactured cards for the selected vehicles")
	}

	results := make([]AssignmentResult, 0, len(mappings))
	for _, m := range mappings {
		result := AssignmentResult{VehicleID: m.VehicleID, SerialNumber: models.NormalizeSerial(m.SerialNumber)}
		if err := s.LinkCard(ctx, m.VehicleID, m.SerialNumber); err != nil {
			result.Error = dErrors.MessageOf(err)
			if result.Error == "" {
				result.Error = err.Error()
			}
		} else {
			result.Linked = true
		}
		results = append(results, result)
	}
	return results, nil
}

// PlanAssignments pairs the first len(vehicleIDs) MANUFACTURED cards, in
// serial order, positionally with the given vehicles. This is the
// companion workflow behind bulk assignment.
func (s *Service) PlanAssignments(ctx context.Context, vehicleIDs []id.VehicleID) ([]AssignmentMapping, error) {
	if len(vehicleIDs) == 0 {
		return nil, nil
	}
	available, err := s.cards.ListByStatus(ctx, models.StatusManufactured)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list available cards")
	}
	if len(available) < len(vehicleIDs) {
		return nil, dErrors.Wrap(ErrInsufficientInventory, dErrors.CodeConflict,
			"not enough manufactured cards for the selected vehicles")
	}

	mappings := make([]AssignmentMapping, 0, len(vehicleIDs))
	for i, vehicleID := range vehicleIDs {
		mappings = append(mappings, AssignmentMapping{
			VehicleID:    vehicleID,
			SerialNumber: available[i].SerialNumber,
		})
	}
	return mappings, nil
}

// UnlinkCard clears the binding on whichever vehicle references the serial
// and returns the card to MANUFACTURED. Safe to call when no vehicle
// references the serial. The generated public token survives on the card.
func (s *Service) UnlinkCard(ctx context.Context, serial string) error {
	normalized := models.NormalizeSerial(serial)
	if normalized == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "serial number is required")
	}
	now := requestcontext.Now(ctx)

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		binding, err := s.vehicles.FindBySerial(txCtx, normalized)
		switch {
		case err == nil:
			if err := s.vehicles.ClearBinding(txCtx, binding.VehicleID); err != nil {
				return err
			}
		case errors.Is(err, sentinel.ErrNotFound):
			// No vehicle references the serial; still reset the card below.
		default:
			return err
		}

		c, err := s.cards.FindBySerial(txCtx, normalized)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				// Legacy serial: vehicle side cleared, nothing to reset.
				return nil
			}
			return err
		}
		if c.Status != models.StatusAssigned {
			return nil
		}
		c.ApplyRelease(now)
		return s.cards.Update(txCtx, c)
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to unlink card")
	}

	s.cache.Invalidate(ctx)
	if s.metrics != nil {
		s.metrics.CardsUnlinked.Inc()
	}
	s.emit(ctx, audit.ActionCardUnlinked, normalized, "")
	return nil
}
