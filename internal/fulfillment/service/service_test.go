package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"cardfleet/internal/audit"
	"cardfleet/internal/fulfillment/models"
	"cardfleet/internal/fulfillment/store"
	id "cardfleet/pkg/domain"
	dErrors "cardfleet/pkg/domain-errors"
	"cardfleet/pkg/requestcontext"
)

// =============================================================================
// Fulfillment Service Test Suite
// =============================================================================

type FulfillmentServiceSuite struct {
	suite.Suite
	store   *store.InMemory
	audits  *audit.InMemoryStore
	service *Service
	ctx     context.Context
	now     time.Time
}

func TestFulfillmentServiceSuite(t *testing.T) {
	suite.Run(t, new(FulfillmentServiceSuite))
}

func (s *FulfillmentServiceSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.audits = audit.NewInMemoryStore()
	s.service = New(s.store,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		syncEmitter{s.audits},
	)
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.ctx = requestcontext.WithActor(s.ctx, "admin")
}

type syncEmitter struct {
	store audit.Store
}

func (e syncEmitter) Emit(ctx context.Context, event audit.Event) error {
	return e.store.Append(ctx, event)
}

func (s *FulfillmentServiceSuite) seedRequest(status models.RequestStatus) *models.FulfillmentRequest {
	r := &models.FulfillmentRequest{
		ID:        id.NewRequestID(),
		MemberID:  id.NewMemberID(),
		Type:      models.TypeNew,
		Status:    status,
		CreatedAt: s.now.Add(-time.Hour),
		UpdatedAt: s.now.Add(-time.Hour),
	}
	s.Require().NoError(s.store.Create(s.ctx, r))
	return r
}

func (s *FulfillmentServiceSuite) TestList() {
	memberID := id.NewMemberID()
	s.store.SeedMember(memberID, "Ada Byron")

	first := s.seedRequest(models.StatusPending)
	first.MemberID = memberID
	s.Require().NoError(s.store.Update(s.ctx, first))

	second := &models.FulfillmentRequest{
		ID:        id.NewRequestID(),
		MemberID:  memberID,
		Type:      models.TypeReplacement,
		Status:    models.StatusShipped,
		CreatedAt: s.now,
		UpdatedAt: s.now,
	}
	s.Require().NoError(s.store.Create(s.ctx, second))

	listed, err := s.service.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(listed, 2)
	s.Equal(second.ID, listed[0].ID, "newest request first")
	s.Equal("Ada Byron", listed[0].MemberName)
}

func (s *FulfillmentServiceSuite) TestUpdateStatus() {
	s.Run("pending ships", func() {
		r := s.seedRequest(models.StatusPending)

		updated, err := s.service.UpdateStatus(s.ctx, r.ID, models.StatusShipped, "out for delivery")
		s.Require().NoError(err)
		s.Equal(models.StatusShipped, updated.Status)
		s.Equal("out for delivery", updated.Notes)
		s.Equal(s.now, updated.UpdatedAt)

		events := s.audits.Events()
		s.Require().NotEmpty(events)
		s.Equal(audit.ActionRequestStatusSet, events[len(events)-1].Action)
	})

	s.Run("shipped delivers", func() {
		r := s.seedRequest(models.StatusShipped)

		updated, err := s.service.UpdateStatus(s.ctx, r.ID, models.StatusDelivered, "")
		s.Require().NoError(err)
		s.Equal(models.StatusDelivered, updated.Status)
	})

	s.Run("pending and shipped can cancel", func() {
		for _, from := range []models.RequestStatus{models.StatusPending, models.StatusShipped} {
			r := s.seedRequest(from)
			updated, err := s.service.UpdateStatus(s.ctx, r.ID, models.StatusCancelled, "")
			s.Require().NoError(err)
			s.Equal(models.StatusCancelled, updated.Status)
		}
	})

	s.Run("terminal states reject every transition", func() {
		for _, from := range []models.RequestStatus{models.StatusDelivered, models.StatusCancelled} {
			r := s.seedRequest(from)
			for _, to := range []models.RequestStatus{models.StatusPending, models.StatusShipped, models.StatusDelivered, models.StatusCancelled} {
				_, err := s.service.UpdateStatus(s.ctx, r.ID, to, "")
				s.Require().Error(err, "%s -> %s must be rejected", from, to)
				s.True(dErrors.HasCode(err, dErrors.CodeConflict))
			}
		}
	})

	s.Run("skipping shipped is rejected", func() {
		r := s.seedRequest(models.StatusPending)
		_, err := s.service.UpdateStatus(s.ctx, r.ID, models.StatusDelivered, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		current, err := s.store.FindByID(s.ctx, r.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusPending, current.Status, "rejected transition must not persist")
	})

	s.Run("unknown request is not found", func() {
		_, err := s.service.UpdateStatus(s.ctx, id.NewRequestID(), models.StatusShipped, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
