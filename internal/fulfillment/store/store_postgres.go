package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"cardfleet/internal/fulfillment/models"
	id "cardfleet/pkg/domain"
	"cardfleet/pkg/platform/sentinel"
	"cardfleet/pkg/platform/tx"
)

// Postgres persists fulfillment requests in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed request store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, request *models.FulfillmentRequest) error {
	q := tx.Resolve(ctx, s.db)
	var vehicleID any
	if request.VehicleID != nil {
		vehicleID = uuid.UUID(*request.VehicleID)
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO fulfillment_requests (id, member_id, vehicle_id, request_type, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.UUID(request.ID), uuid.UUID(request.MemberID), vehicleID,
		string(request.Type), string(request.Status), request.Notes,
		request.CreatedAt, request.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert request: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, requestID id.RequestID) (*models.FulfillmentRequest, error) {
	q := tx.Resolve(ctx, s.db)
	row := q.QueryRowContext(ctx, `
		SELECT id, member_id, vehicle_id, request_type, status, notes, created_at, updated_at
		FROM fulfillment_requests
		WHERE id = $1`,
		uuid.UUID(requestID),
	)

	var (
		r         models.FulfillmentRequest
		reqID     uuid.UUID
		memberID  uuid.UUID
		vehicleID uuid.NullUUID
		reqType   string
		status    string
	)
	err := row.Scan(&reqID, &memberID, &vehicleID, &reqType, &status, &r.Notes, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("request %s: %w", requestID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find request: %w", err)
	}
	r.ID = id.RequestID(reqID)
	r.MemberID = id.MemberID(memberID)
	if vehicleID.Valid {
		v := id.VehicleID(vehicleID.UUID)
		r.VehicleID = &v
	}
	r.Type = models.RequestType(reqType)
	r.Status = models.RequestStatus(status)
	return &r, nil
}

func (s *Postgres) List(ctx context.Context) ([]models.RequestDetails, error) {
	q := tx.Resolve(ctx, s.db)
	rows, err := q.QueryContext(ctx, `
		SELECT r.id, r.member_id, r.vehicle_id, r.request_type, r.status, r.notes,
		       r.created_at, r.updated_at,
		       COALESCE(m.full_name, ''), COALESCE(v.label, '')
		FROM fulfillment_requests r
		JOIN members m ON m.id = r.member_id
		LEFT JOIN vehicles v ON v.id = r.vehicle_id
		ORDER BY r.created_at DESC, r.id`)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	var out []models.RequestDetails
	for rows.Next() {
		var (
			d         models.RequestDetails
			reqID     uuid.UUID
			memberID  uuid.UUID
			vehicleID uuid.NullUUID
			reqType   string
			status    string
		)
		err := rows.Scan(&reqID, &memberID, &vehicleID, &reqType, &status, &d.Notes,
			&d.CreatedAt, &d.UpdatedAt, &d.MemberName, &d.VehicleLabel)
		if err != nil {
			return nil, fmt.Errorf("list requests: %w", err)
		}
		d.ID = id.RequestID(reqID)
		d.MemberID = id.MemberID(memberID)
		if vehicleID.Valid {
			v := id.VehicleID(vehicleID.UUID)
			d.VehicleID = &v
		}
		d.Type = models.RequestType(reqType)
		d.Status = models.RequestStatus(status)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return out, nil
}

func (s *Postgres) Update(ctx context.Context, request *models.FulfillmentRequest) error {
	q := tx.Resolve(ctx, s.db)
	res, err := q.ExecContext(ctx, `
		UPDATE fulfillment_requests
		SET status = $2, notes = $3, updated_at = $4
		WHERE id = $1`,
		uuid.UUID(request.ID), string(request.Status), request.Notes, request.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("request %s: %w", request.ID, sentinel.ErrNotFound)
	}
	return nil
}
