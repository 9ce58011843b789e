package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"cardfleet/internal/audit"
	"cardfleet/internal/cards/models"
	cardstore "cardfleet/internal/cards/store/card"
	vehiclestore "cardfleet/internal/cards/store/vehicle"
	id "cardfleet/pkg/domain"
	dErrors "cardfleet/pkg/domain-errors"
	"cardfleet/pkg/requestcontext"
)

// =============================================================================
// Registry Service Test Suite
// =============================================================================

type RegistryServiceSuite struct {
	suite.Suite
	cards    *cardstore.InMemory
	vehicles *vehiclestore.InMemory
	audits   *audit.InMemoryStore
	service  *Service
	ctx      context.Context
	now      time.Time
}

func TestRegistryServiceSuite(t *testing.T) {
	suite.Run(t, new(RegistryServiceSuite))
}

func (s *RegistryServiceSuite) SetupTest() {
	s.cards = cardstore.NewInMemory()
	s.vehicles = vehiclestore.NewInMemory()
	s.audits = audit.NewInMemoryStore()
	s.service = New(s.cards, s.vehicles, nil,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithAudit(syncEmitter{s.audits}),
	)
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.ctx = requestcontext.WithActor(s.ctx, "admin")
}

// syncEmitter persists audit events inline so tests can assert on them
// without a background recorder.
type syncEmitter struct {
	store audit.Store
}

func (e syncEmitter) Emit(ctx context.Context, event audit.Event) error {
	return e.store.Append(ctx, event)
}

// =============================================================================
// CreateBatch
// =============================================================================

func (s *RegistryServiceSuite) TestCreateBatch() {
	s.Run("registers manufactured cards with normalized serials", func() {
		cards, err := s.service.CreateBatch(s.ctx, []string{" nfc-001 ", "nfc-002"}, "BATCH-1")
		s.Require().NoError(err)
		s.Require().Len(cards, 2)
		s.Equal("NFC-001", cards[0].SerialNumber)
		s.Equal(models.StatusManufactured, cards[0].Status)
		s.Equal("BATCH-1", cards[0].BatchID)
		s.Equal(s.now, cards[0].CreatedAt)
	})

	s.Run("empty serial list is a no-op", func() {
		cards, err := s.service.CreateBatch(s.ctx, nil, "")
		s.NoError(err)
		s.Nil(cards)
	})

	s.Run("missing batch id is generated", func() {
		cards, err := s.service.CreateBatch(s.ctx, []string{"GEN-001"}, "  ")
		s.Require().NoError(err)
		s.Regexp(`^BATCH-20250601-\d{4}$`, cards[0].BatchID)
	})

	s.Run("duplicate in-batch serial rejects the whole batch", func() {
		_, err := s.service.CreateBatch(s.ctx, []string{"DUP-1", "dup-1"}, "")
		s.Require().Error(err)
		s.True(errors.Is(err, ErrDuplicateSerial))
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		_, err = s.cards.FindBySerial(s.ctx, "DUP-1")
		s.Error(err, "no card from the rejected batch should exist")
	})

	s.Run("serial colliding with existing card rejects the batch", func() {
		_, err := s.service.CreateBatch(s.ctx, []string{"NFC-100"}, "")
		s.Require().NoError(err)

		_, err = s.service.CreateBatch(s.ctx, []string{"NFC-200", " nfc-100 "}, "")
		s.Require().Error(err)
		s.True(errors.Is(err, ErrDuplicateSerial))

		_, err = s.cards.FindBySerial(s.ctx, "NFC-200")
		s.Error(err, "all-or-nothing: the non-colliding serial must not land")
	})

	s.Run("blank serial rejects the batch", func() {
		_, err := s.service.CreateBatch(s.ctx, []string{"OK-1", "   "}, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("emits an audit event", func() {
		before := len(s.audits.Events())
		_, err := s.service.CreateBatch(s.ctx, []string{"AUD-1"}, "AUDIT-BATCH")
		s.Require().NoError(err)
		events := s.audits.Events()
		s.Require().Len(events, before+1)
		last := events[len(events)-1]
		s.Equal(audit.ActionBatchCreated, last.Action)
		s.Equal("AUDIT-BATCH", last.Subject)
		s.Equal("admin", last.Actor)
	})
}

// =============================================================================
// GenerateBatch
// =============================================================================

func (s *RegistryServiceSuite) TestGenerateBatch() {
	s.Run("continues the serial sequence", func() {
		_, err := s.service.CreateBatch(s.ctx, []string{"FLEET00007"}, "")
		s.Require().NoError(err)

		cards, err := s.service.GenerateBatch(s.ctx, "FLEET", 3)
		s.Require().NoError(err)
		s.Require().Len(cards, 3)
		s.Equal("FLEET00008", cards[0].SerialNumber)
		s.Equal("FLEET00009", cards[1].SerialNumber)
		s.Equal("FLEET00010", cards[2].SerialNumber)
	})

	s.Run("rejects non-positive count", func() {
		_, err := s.service.GenerateBatch(s.ctx, "FLEET", 0)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("rejects blank prefix", func() {
		_, err := s.service.GenerateBatch(s.ctx, " ", 2)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

// =============================================================================
// UpdateCard
// =============================================================================

func (s *RegistryServiceSuite) TestUpdateCard() {
	s.Run("patches serial and batch", func() {
		cards, err := s.service.CreateBatch(s.ctx, []string{"UPD-001"}, "B1")
		s.Require().NoError(err)

		serial := " upd-001-r2 "
		batch := "B2"
		updated, err := s.service.UpdateCard(s.ctx, cards[0].ID, CardPatch{
			SerialNumber: &serial,
			BatchID:      &batch,
		})
		s.Require().NoError(err)
		s.Equal("UPD-001-R2", updated.SerialNumber)
		s.Equal("B2", updated.BatchID)
	})

	s.Run("status change honors the transition table", func() {
		cards, err := s.service.CreateBatch(s.ctx, []string{"UPD-010"}, "")
		s.Require().NoError(err)

		lost := models.StatusLost
		updated, err := s.service.UpdateCard(s.ctx, cards[0].ID, CardPatch{Status: &lost})
		s.Require().NoError(err)
		s.Equal(models.StatusLost, updated.Status)

		assigned := models.StatusAssigned
		_, err = s.service.UpdateCard(s.ctx, cards[0].ID, CardPatch{Status: &assigned})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("nil card id means legacy and is immutable", func() {
		_, err := s.service.UpdateCard(s.ctx, id.CardID{}, CardPatch{})
		s.Require().Error(err)
		s.True(errors.Is(err, ErrLegacyCardImmutable))
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("unknown card returns not found", func() {
		_, err := s.service.UpdateCard(s.ctx, id.NewCardID(), CardPatch{})
		s.Require().Error(err)
		s.True(errors.Is(err, ErrCardNotFound))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("empty patched serial is rejected", func() {
		cards, err := s.service.CreateBatch(s.ctx, []string{"UPD-020"}, "")
		s.Require().NoError(err)

		blank := "  "
		_, err = s.service.UpdateCard(s.ctx, cards[0].ID, CardPatch{SerialNumber: &blank})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

// =============================================================================
// SetStatus
// =============================================================================

func (s *RegistryServiceSuite) TestSetStatus() {
	s.Run("retired card can return to manufactured", func() {
		cards, err := s.service.CreateBatch(s.ctx, []string{"SET-001"}, "")
		s.Require().NoError(err)

		_, err = s.service.SetStatus(s.ctx, cards[0].ID, models.StatusDamaged)
		s.Require().NoError(err)

		updated, err := s.service.SetStatus(s.ctx, cards[0].ID, models.StatusManufactured)
		s.Require().NoError(err)
		s.Equal(models.StatusManufactured, updated.Status)
	})

	s.Run("assigned is never a direct target", func() {
		cards, err := s.service.CreateBatch(s.ctx, []string{"SET-002"}, "")
		s.Require().NoError(err)

		_, err = s.service.SetStatus(s.ctx, cards[0].ID, models.StatusAssigned)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

// =============================================================================
// DeleteCard
// =============================================================================

func (s *RegistryServiceSuite) TestDeleteCard() {
	s.Run("removes an unassigned card", func() {
		cards, err := s.service.CreateBatch(s.ctx, []string{"DEL-001"}, "")
		s.Require().NoError(err)

		s.Require().NoError(s.service.DeleteCard(s.ctx, cards[0].ID))

		_, err = s.cards.FindByID(s.ctx, cards[0].ID)
		s.Error(err)
	})

	s.Run("refuses to delete an assigned card", func() {
		cards, err := s.service.CreateBatch(s.ctx, []string{"DEL-002"}, "")
		s.Require().NoError(err)

		vehicleID := id.NewVehicleID()
		s.vehicles.Seed(models.VehicleBinding{VehicleID: vehicleID, Label: "Truck 7"})
		s.Require().NoError(s.service.LinkCard(s.ctx, vehicleID, "DEL-002"))

		err = s.service.DeleteCard(s.ctx, cards[0].ID)
		s.Require().Error(err)
		s.True(errors.Is(err, ErrCardAssigned))
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		_, err = s.cards.FindByID(s.ctx, cards[0].ID)
		s.NoError(err, "card must survive the rejected delete")
	})

	s.Run("nil id is a legacy card and cannot be deleted", func() {
		err := s.service.DeleteCard(s.ctx, id.CardID{})
		s.True(errors.Is(err, ErrLegacyCardImmutable))
	})
}

// =============================================================================
// AvailableCards
// =============================================================================

func (s *RegistryServiceSuite) TestAvailableCards() {
	_, err := s.service.CreateBatch(s.ctx, []string{"AVL-003", "AVL-001", "AVL-002"}, "")
	s.Require().NoError(err)

	vehicleID := id.NewVehicleID()
	s.vehicles.Seed(models.VehicleBinding{VehicleID: vehicleID, Label: "Van 1"})
	s.Require().NoError(s.service.LinkCard(s.ctx, vehicleID, "AVL-002"))

	available, err := s.service.AvailableCards(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(available, 2)
	s.Equal("AVL-001", available[0].SerialNumber)
	s.Equal("AVL-003", available[1].SerialNumber)
}
