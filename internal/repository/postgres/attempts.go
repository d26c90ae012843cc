package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/tix-bff/internal/domain"
)

const attemptsSchema = `
CREATE TABLE IF NOT EXISTS booking_attempts (
	id             uuid PRIMARY KEY,
	session_id     text        NOT NULL,
	event_id       text        NOT NULL,
	ticket_type_id text        NOT NULL,
	quantity       integer     NOT NULL CHECK (quantity > 0),
	outcome        text        NOT NULL,
	message        text        NOT NULL DEFAULT '',
	reservation_id text        NOT NULL DEFAULT '',
	created_at     timestamptz NOT NULL
);
CREATE INDEX IF NOT EXISTS booking_attempts_session_idx
	ON booking_attempts (session_id, created_at DESC);
`

// AttemptRepo journals booking submissions and their outcomes. The
// reservations themselves belong to the inventory service.
type AttemptRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *AttemptRepo) With(db DB) *AttemptRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *AttemptRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// EnsureSchema creates the journal table when it is missing.
func (r *AttemptRepo) EnsureSchema(ctx context.Context) error {
	const op = "postgres.AttemptRepo.EnsureSchema"

	if _, err := r.handle().Exec(ctx, attemptsSchema); err != nil {
		return fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return nil
}

// Insert stores one attempt.
//
// Returns:
//   - error: repository.ErrConflict if an attempt with the same id exists.
func (r *AttemptRepo) Insert(ctx context.Context, a domain.Attempt) error {
	const op = "postgres.AttemptRepo.Insert"

	_, err := r.handle().Exec(ctx,
		`INSERT INTO booking_attempts
		 (id, session_id, event_id, ticket_type_id, quantity, outcome, message, reservation_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.SessionID, a.EventID, a.TicketTypeID, a.Quantity,
		a.Outcome, a.Message, a.ReservationID, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return nil
}

// ListBySession returns a session's attempts, newest first.
func (r *AttemptRepo) ListBySession(ctx context.Context, sessionID string, limit int) ([]domain.Attempt, error) {
	const op = "postgres.AttemptRepo.ListBySession"

	rows, err := r.handle().Query(ctx,
		`SELECT id, session_id, event_id, ticket_type_id, quantity, outcome, message, reservation_id, created_at
		 FROM booking_attempts
		 WHERE session_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.Attempt
	for rows.Next() {
		var a domain.Attempt
		if err := rows.Scan(
			&a.ID, &a.SessionID, &a.EventID, &a.TicketTypeID, &a.Quantity,
			&a.Outcome, &a.Message, &a.ReservationID, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
		}
		out = append(out, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return out, nil
}
