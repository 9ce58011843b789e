//go:build integration

package vehicle_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"cardfleet/internal/cards/store/vehicle"
	id "cardfleet/pkg/domain"
	"cardfleet/pkg/platform/sentinel"
	"cardfleet/pkg/testutil/containers"
)

type PostgresVehicleStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *vehicle.Postgres
}

func TestPostgresVehicleStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresVehicleStoreSuite))
}

func (s *PostgresVehicleStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = vehicle.NewPostgres(s.postgres.DB)
}

func (s *PostgresVehicleStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "vehicles", "members"))
}

// Vehicles are mastered by the fleet console; tests insert rows directly.
func (s *PostgresVehicleStoreSuite) insertVehicle(label string) id.VehicleID {
	vehicleID := id.VehicleID(uuid.New())
	_, err := s.postgres.DB.ExecContext(context.Background(),
		`INSERT INTO vehicles (id, label) VALUES ($1, $2)`,
		uuid.UUID(vehicleID), label)
	s.Require().NoError(err)
	return vehicleID
}

func (s *PostgresVehicleStoreSuite) TestSetAndClearBinding() {
	ctx := context.Background()
	vehicleID := s.insertVehicle("Truck 1")

	s.Require().NoError(s.store.SetBinding(ctx, vehicleID, "PGV-001", "pgvtok1"))

	binding, err := s.store.FindByID(ctx, vehicleID)
	s.Require().NoError(err)
	s.Equal("PGV-001", binding.NFCSerialNumber)
	s.Equal("pgvtok1", binding.NFCCardID)

	s.Require().NoError(s.store.ClearBinding(ctx, vehicleID))
	binding, err = s.store.FindByID(ctx, vehicleID)
	s.Require().NoError(err)
	s.False(binding.IsBound())
}

func (s *PostgresVehicleStoreSuite) TestTokenUniqueness() {
	ctx := context.Background()
	first := s.insertVehicle("Truck 2")
	second := s.insertVehicle("Truck 3")

	s.Require().NoError(s.store.SetBinding(ctx, first, "PGV-010", "shared"))
	err := s.store.SetBinding(ctx, second, "PGV-011", "shared")
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresVehicleStoreSuite) TestFindBySerialNormalizes() {
	ctx := context.Background()
	vehicleID := s.insertVehicle("Truck 4")
	s.Require().NoError(s.store.SetBinding(ctx, vehicleID, "PGV-020", "pgvtok20"))

	binding, err := s.store.FindBySerial(ctx, " pgv-020 ")
	s.Require().NoError(err)
	s.Equal(vehicleID, binding.VehicleID)
}

func (s *PostgresVehicleStoreSuite) TestNotFound() {
	ctx := context.Background()
	missing := id.VehicleID(uuid.New())

	_, err := s.store.FindByID(ctx, missing)
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.ErrorIs(s.store.SetBinding(ctx, missing, "PGV-030", "tok"), sentinel.ErrNotFound)
	s.ErrorIs(s.store.ClearBinding(ctx, missing), sentinel.ErrNotFound)
}

func (s *PostgresVehicleStoreSuite) TestListIncludesUnboundVehicles() {
	ctx := context.Background()
	s.insertVehicle("Truck 5")
	bound := s.insertVehicle("Truck 6")
	s.Require().NoError(s.store.SetBinding(ctx, bound, "PGV-040", "pgvtok40"))

	bindings, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Len(bindings, 2)
}
