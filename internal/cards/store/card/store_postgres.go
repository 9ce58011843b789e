package card

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

// Postgres persists cards in PostgreSQL. Calls participate in a context
// transaction when one is present (pkg/platform/tx).
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed card store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const cardColumns = `id, serial_number, public_id, batch_id, status, created_at, updated_at`

func (s *Postgres) CreateBatch(ctx context.Context, cards []*models.Card) error {
	if len(cards) == 0 {
		return nil
	}

	// Join the caller's transaction when one is in context. Otherwise open
	// our own so the batch stays all-or-nothing even when called directly;
	// autocommitted per-row inserts would leave a prefix behind the first
	// duplicate.
	if _, ok := tx.From(ctx); ok {
		return s.insertCards(ctx, tx.Resolve(ctx, s.db), cards)
	}
	t, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create batch: %w", err)
	}
	if err := s.insertCards(ctx, t, cards); err != nil {
		if rbErr := t.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	if err := t.Commit(); err != nil {
		return fmt.Errorf("create batch: %w", err)
	}
	return nil
}

func (s *Postgres) insertCards(ctx context.Context, q tx.Querier, cards []*models.Card) error {
	for _, c := range cards {
		_, err := q.ExecContext(ctx, `
			INSERT INTO cards (id, serial_number, public_id, batch_id, status, created_at, updated_at)
			VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7)`,
			uuid.UUID(c.ID), c.SerialNumber, c.PublicID, c.BatchID, string(c.Status), c.CreatedAt, c.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("serial %s already registered: %w", c.SerialNumber, sentinel.ErrConflict)
			}
			return fmt.Errorf("insert card %s: %w", c.SerialNumber, err)
		}
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, cardID id.CardID) (*models.Card, error) {
	q := tx.Resolve(ctx, s.db)
	row := q.QueryRowContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE id = $1`, uuid.UUID(cardID))
	return scanCard(row, "find card by id")
}

func (s *Postgres) FindBySerial(ctx context.Context, serial string) (*models.Card, error) {
	q := tx.Resolve(ctx, s.db)
	row := q.QueryRowContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE upper(btrim(serial_number)) = $1`,
		models.NormalizeSerial(serial))
	return scanCard(row, "find card by serial")
}

func (s *Postgres) List(ctx context.Context) ([]*models.Card, error) {
	return s.list(ctx, `SELECT `+cardColumns+` FROM cards ORDER BY serial_number`)
}

func (s *Postgres) ListByStatus(ctx context.Context, status models.CardStatus) ([]*models.Card, error) {
	return s.list(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE status = $1 ORDER BY serial_number`,
		string(status))
}

func (s *Postgres) list(ctx context.Context, query string, args ...any) ([]*models.Card, error) {
	q := tx.Resolve(ctx, s.db)
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var cards []*models.Card
	for rows.Next() {
		c, err := scanCardRow(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	return cards, nil
}

func (s *Postgres) Update(ctx context.Context, card *models.Card) error {
	q := tx.Resolve(ctx, s.db)
	res, err := q.ExecContext(ctx, `
		UPDATE cards
		SET serial_number = $2,
		    public_id = NULLIF($3, ''),
		    batch_id = NULLIF($4, ''),
		    status = $5,
		    updated_at = $6
		WHERE id = $1`,
		uuid.UUID(card.ID), card.SerialNumber, card.PublicID, card.BatchID,
		string(card.Status), card.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("card %s: %w", card.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("update card: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update card: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("card %s: %w", card.ID, sentinel.ErrNotFound)
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, cardID id.CardID) error {
	q := tx.Resolve(ctx, s.db)
	res, err := q.ExecContext(ctx, `DELETE FROM cards WHERE id = $1`, uuid.UUID(cardID))
	if err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("card %s: %w", cardID, sentinel.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row *sql.Row, op string) (*models.Card, error) {
	c, err := scanCardRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

func scanCardRow(row rowScanner) (*models.Card, error) {
	var (
		c        models.Card
		cardID   uuid.UUID
		publicID sql.NullString
		batchID  sql.NullString
		status   string
	)
	err := row.Scan(&cardID, &c.SerialNumber, &publicID, &batchID, &status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.ID = id.CardID(cardID)
	c.PublicID = publicID.String
	c.BatchID = batchID.String
	c.Status = models.CardStatus(status)
	return &c, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation
}
