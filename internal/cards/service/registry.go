package service

import (
	"context"
	"errors"
	"strings"

	"cardfleet/internal/audit"
	"cardfleet/internal/cards/idgen"
	"cardfleet/internal/cards/models"
	id "cardfleet/pkg/domain"
	dErrors "cardfleet/pkg/domain-errors"
	"cardfleet/pkg/platform/sentinel"
	"cardfleet/pkg/requestcontext"
)

// CreateBatch registers one MANUFACTURED card per serial. All-or-nothing:
// any duplicate normalized serial rejects the whole batch before a write
// lands. An empty serial list is a no-op. A missing batch ID is generated.
func (s *Service) CreateBatch(ctx context.Context, serials []string, batchID string) ([]*models.Card, error) {
	if len(serials) == 0 {
		return nil, nil
	}
	now := requestcontext.Now(ctx)
	if strings.TrimSpace(batchID) == "" {
		batchID = idgen.GenerateBatchID(now)
	}

	cards := make([]*models.Card, 0, len(serials))
	for _, serial := range serials {
		c, err := models.NewCard(id.NewCardID(), serial, batchID, now)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		return s.cards.CreateBatch(txCtx, cards)
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrap(ErrDuplicateSerial, dErrors.CodeConflict,
				"one or more serials are already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create batch")
	}

	s.cache.Invalidate(ctx)
	if s.metrics != nil {
		s.metrics.BatchesCreated.Inc()
		s.metrics.CardsCreated.Add(float64(len(cards)))
	}
	s.emit(ctx, audit.ActionBatchCreated, batchID, audit.Detail("cards", len(cards)))
	s.logger.InfoContext(ctx, "card batch created",
		"request_id", requestcontext.RequestID(ctx),
		"batch_id", batchID,
		"cards", len(cards),
	)
	return cards, nil
}

// GenerateBatch manufactures count new cards with sequential serials
// continuing from the current registry snapshot.
func (s *Service) GenerateBatch(ctx context.Context, prefix string, count int) ([]*models.Card, error) {
	if count <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "count must be positive")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "serial prefix is required")
	}

	existing, err := s.cards.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list cards")
	}
	existingSerials := make([]string, 0, len(existing))
	for _, c := range existing {
		existingSerials = append(existingSerials, c.SerialNumber)
	}

	serials := idgen.GenerateSerials(existingSerials, prefix, count)
	return s.CreateBatch(ctx, serials, "")
}

// CardPatch carries optional field corrections for UpdateCard. Nil fields
// are left untouched.
type CardPatch struct {
	SerialNumber *string
	Status       *models.CardStatus
	BatchID      *string
}

// UpdateCard applies a metadata correction. A status change goes through
// the administrative transition table; legacy cards (no registry row) are
// immutable here.
func (s *Service) UpdateCard(ctx context.Context, cardID id.CardID, patch CardPatch) (*models.Card, error) {
	if cardID.IsNil() {
		return nil, dErrors.Wrap(ErrLegacyCardImmutable, dErrors.CodeConflict,
			"legacy cards have no registry entry to update")
	}
	now := requestcontext.Now(ctx)

	var updated *models.Card
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		c, err := s.cards.FindByID(txCtx, cardID)
		if err != nil {
			return err
		}
		if patch.SerialNumber != nil {
			serial := models.NormalizeSerial(*patch.SerialNumber)
			if serial == "" {
				return dErrors.New(dErrors.CodeInvalidInput, "serial number cannot be empty")
			}
			c.SerialNumber = serial
		}
		if patch.Status != nil && *patch.Status != c.Status {
			if err := c.CanSetStatus(*patch.Status); err != nil {
				return err
			}
			c.ApplySetStatus(*patch.Status, now)
		}
		if patch.BatchID != nil {
			c.BatchID = strings.TrimSpace(*patch.BatchID)
		}
		c.UpdatedAt = now
		if err := s.cards.Update(txCtx, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, s.wrapCardErr(err)
	}

	s.cache.Invalidate(ctx)
	s.emit(ctx, audit.ActionCardUpdated, updated.SerialNumber, "")
	return updated, nil
}

// SetStatus performs a direct administrative transition. ASSIGNED is never
// reachable here; the assignment engine owns it.
func (s *Service) SetStatus(ctx context.Context, cardID id.CardID, status models.CardStatus) (*models.Card, error) {
	now := requestcontext.Now(ctx)

	var updated *models.Card
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		c, err := s.cards.FindByID(txCtx, cardID)
		if err != nil {
			return err
		}
		if err := c.CanSetStatus(status); err != nil {
			return err
		}
		c.ApplySetStatus(status, now)
		if err := s.cards.Update(txCtx, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, s.wrapCardErr(err)
	}

	s.cache.Invalidate(ctx)
	s.emit(ctx, audit.ActionCardStatusSet, updated.SerialNumber, audit.Detail("status", string(status)))
	return updated, nil
}

// DeleteCard removes a card that is neither assigned nor legacy.
func (s *Service) DeleteCard(ctx context.Context, cardID id.CardID) error {
	if cardID.IsNil() {
		return dErrors.Wrap(ErrLegacyCardImmutable, dErrors.CodeConflict,
			"legacy cards have no registry entry to delete")
	}

	var serial string
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		c, err := s.cards.FindByID(txCtx, cardID)
		if err != nil {
			return err
		}
		if c.Status == models.StatusAssigned {
			return dErrors.Wrap(ErrCardAssigned, dErrors.CodeConflict,
				"assigned cards cannot be deleted")
		}
		serial = c.SerialNumber
		return s.cards.Delete(txCtx, cardID)
	})
	if err != nil {
		return s.wrapCardErr(err)
	}

	s.cache.Invalidate(ctx)
	s.emit(ctx, audit.ActionCardDeleted, serial, "")
	return nil
}

// AvailableCards lists MANUFACTURED cards in serial order. This is the
// listing the bulk-assign workflow draws from.
func (s *Service) AvailableCards(ctx context.Context) ([]*models.Card, error) {
	cards, err := s.cards.ListByStatus(ctx, models.StatusManufactured)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list available cards")
	}
	return cards, nil
}

func (s *Service) wrapCardErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(ErrCardNotFound, dErrors.CodeNotFound, "card not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "card update conflicts with an existing card")
	case dErrors.HasCode(err, dErrors.CodeInvariantViolation),
		dErrors.HasCode(err, dErrors.CodeInvalidInput),
		dErrors.HasCode(err, dErrors.CodeConflict),
		dErrors.HasCode(err, dErrors.CodeNotFound):
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "card operation failed")
	}
}

func (s *Service) emit(ctx context.Context, action audit.Action, subject, detail string) {
	if err := s.audit.Emit(ctx, audit.Event{
		Action:     action,
		Subject:    subject,
		Detail:     detail,
		Actor:      requestcontext.Actor(ctx),
		RequestID:  requestcontext.RequestID(ctx),
		OccurredAt: requestcontext.Now(ctx),
	}); err != nil {
		// Audit is best-effort; the card operation already succeeded.
		s.logger.WarnContext(ctx, "audit emit failed", "action", string(action), "error", err)
	}
}
