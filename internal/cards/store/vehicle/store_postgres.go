package vehicle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"cardfleet/internal/cards/models"
	id "cardfleet/pkg/domain"
	"cardfleet/pkg/platform/sentinel"
	"cardfleet/pkg/platform/tx"
)

const pgUniqueViolation = "23505"

// Postgres reads and writes vehicle NFC bindings in PostgreSQL. Calls
// participate in a context transaction when one is present.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed vehicle binding store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const bindingColumns = `id, label, nfc_serial_number, nfc_card_id`

func (s *Postgres) List(ctx context.Context) ([]models.VehicleBinding, error) {
	q := tx.Resolve(ctx, s.db)
	rows, err := q.QueryContext(ctx, `SELECT `+bindingColumns+` FROM vehicles ORDER BY label, id`)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	defer rows.Close()

	var out []models.VehicleBinding
	for rows.Next() {
		v, err := scanBinding(rows)
		if err != nil {
			return nil, fmt.Errorf("list vehicles: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	return out, nil
}

func (s *Postgres) FindByID(ctx context.Context, vehicleID id.VehicleID) (models.VehicleBinding, error) {
	q := tx.Resolve(ctx, s.db)
	row := q.QueryRowContext(ctx,
		`SELECT `+bindingColumns+` FROM vehicles WHERE id = $1`, uuid.UUID(vehicleID))
	v, err := scanBinding(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.VehicleBinding{}, fmt.Errorf("vehicle %s: %w", vehicleID, sentinel.ErrNotFound)
		}
		return models.VehicleBinding{}, fmt.Errorf("find vehicle: %w", err)
	}
	return v, nil
}

func (s *Postgres) FindBySerial(ctx context.Context, serial string) (models.VehicleBinding, error) {
	q := tx.Resolve(ctx, s.db)
	row := q.QueryRowContext(ctx,
		`SELECT `+bindingColumns+` FROM vehicles WHERE upper(btrim(nfc_serial_number)) = $1`,
		models.NormalizeSerial(serial))
	v, err := scanBinding(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.VehicleBinding{}, fmt.Errorf("serial %s: %w", serial, sentinel.ErrNotFound)
		}
		return models.VehicleBinding{}, fmt.Errorf("find vehicle by serial: %w", err)
	}
	return v, nil
}

func (s *Postgres) SetBinding(ctx context.Context, vehicleID id.VehicleID, serial, publicID string) error {
	q := tx.Resolve(ctx, s.db)
	res, err := q.ExecContext(ctx, `
		UPDATE vehicles
		SET nfc_serial_number = NULLIF($2, ''),
		    nfc_card_id = NULLIF($3, '')
		WHERE id = $1`,
		uuid.UUID(vehicleID), serial, publicID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return fmt.Errorf("public id %s already bound: %w", publicID, sentinel.ErrConflict)
		}
		return fmt.Errorf("set binding: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set binding: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("vehicle %s: %w", vehicleID, sentinel.ErrNotFound)
	}
	return nil
}

func (s *Postgres) ClearBinding(ctx context.Context, vehicleID id.VehicleID) error {
	q := tx.Resolve(ctx, s.db)
	res, err := q.ExecContext(ctx, `
		UPDATE vehicles
		SET nfc_serial_number = NULL, nfc_card_id = NULL
		WHERE id = $1`,
		uuid.UUID(vehicleID),
	)
	if err != nil {
		return fmt.Errorf("clear binding: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("clear binding: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("vehicle %s: %w", vehicleID, sentinel.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBinding(row rowScanner) (models.VehicleBinding, error) {
	var (
		v         models.VehicleBinding
		vehicleID uuid.UUID
		serial    sql.NullString
		cardToken sql.NullString
	)
	if err := row.Scan(&vehicleID, &v.Label, &serial, &cardToken); err != nil {
		return models.VehicleBinding{}, err
	}
	v.VehicleID = id.VehicleID(vehicleID)
	v.NFCSerialNumber = serial.String
	v.NFCCardID = cardToken.String
	return v, nil
}
