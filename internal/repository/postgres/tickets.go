package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/avereux/seatbook/internal/domain"
	"github.com/avereux/seatbook/internal/repository"
)

type TicketRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *TicketRepo) With(db DB) *TicketRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *TicketRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// Serialization failures (40001/40P01) abort the loser of two overlapping
// transactions; retrying re-runs the conditional update against the winner's
// committed state, which turns the failure into a deterministic outcome.
const maxTxAttempts = 3

// Purchase flips the target seat free->booked and inserts the ticket in one
// serializable transaction. The flip is a conditional update checked by
// affected-row count, so of two concurrent purchases for the same seat
// exactly one wins and the other sees repository.ErrSeatBooked. A purchase
// aborted by a serialization failure is retried, so the loser re-reads the
// booked seat instead of surfacing the abort.
//
// Returns:
//   - *domain.Ticket: the persisted ticket with its assigned ID.
//   - int64: the event the seat belongs to, for cache invalidation.
//   - error: repository.ErrSeatBooked if the seat is already booked.
//   - error: repository.ErrNotFound if the seat does not exist.
func (r *TicketRepo) Purchase(ctx context.Context, t domain.Ticket) (*domain.Ticket, int64, error) {
	const op = "postgres.TicketRepo.Purchase"

	if r.db != nil {
		out, eventID, err := r.purchaseCore(ctx, r.db, t)
		if err != nil {
			return nil, 0, wrapDBErr(op, err)
		}
		return out, eventID, nil
	}

	var out *domain.Ticket
	var eventID int64
	var err error

	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		out, eventID, err = r.purchaseOnce(ctx, t)
		if err == nil || !IsRetryable(err) {
			break
		}
	}
	if err != nil {
		return nil, 0, wrapDBErr(op, err)
	}

	return out, eventID, nil
}

func (r *TicketRepo) purchaseOnce(ctx context.Context, t domain.Ticket) (*domain.Ticket, int64, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return nil, 0, err
	}

	defer tx.Rollback(ctx)

	out, eventID, err := r.purchaseCore(ctx, tx, t)
	if err != nil {
		return nil, 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, err
	}

	return out, eventID, nil
}

func (r *TicketRepo) purchaseCore(ctx context.Context, db DB, t domain.Ticket) (*domain.Ticket, int64, error) {
	tag, err := db.Exec(ctx,
		`UPDATE event_seats
        	SET state = 'booked'
      	 WHERE id = $1 AND state = 'free'`,
		t.EventSeatID,
	)
	if err != nil {
		return nil, 0, err
	}

	if tag.RowsAffected() == 0 {
		var state string
		err := db.QueryRow(ctx,
			`SELECT state FROM event_seats WHERE id = $1`, t.EventSeatID,
		).Scan(&state)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, repository.ErrNotFound
		}
		if err != nil {
			return nil, 0, err
		}
		return nil, 0, repository.ErrSeatBooked
	}

	var eventID int64
	if err := db.QueryRow(ctx,
		`SELECT ea.event_id
       	 FROM event_seats es
       	 JOIN event_areas ea ON ea.id = es.event_area_id
      	 WHERE es.id = $1`,
		t.EventSeatID,
	).Scan(&eventID); err != nil {
		return nil, 0, err
	}

	if err := db.QueryRow(ctx,
		`INSERT INTO tickets(event_seat_id, user_id, price_cents)
       	 VALUES ($1, $2, $3)
     	 RETURNING id, created_at`,
		t.EventSeatID, t.UserID, t.PriceCents,
	).Scan(&t.ID, &t.CreatedAt); err != nil {
		return nil, 0, err
	}

	return &t, eventID, nil
}

// Refund returns the ticket's seat to free and removes the ticket, in one
// serializable transaction, retrying serialization failures the same way
// Purchase does.
//
// Returns:
//   - int64: the event the seat belongs to, for cache invalidation.
//   - error: repository.ErrNotFound if the ticket does not exist.
func (r *TicketRepo) Refund(ctx context.Context, ticketID int64) (int64, error) {
	const op = "postgres.TicketRepo.Refund"

	if r.db != nil {
		eventID, err := r.refundCore(ctx, r.db, ticketID)
		if err != nil {
			return 0, wrapDBErr(op, err)
		}
		return eventID, nil
	}

	var eventID int64
	var err error

	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		eventID, err = r.refundOnce(ctx, ticketID)
		if err == nil || !IsRetryable(err) {
			break
		}
	}
	if err != nil {
		return 0, wrapDBErr(op, err)
	}

	return eventID, nil
}

func (r *TicketRepo) refundOnce(ctx context.Context, ticketID int64) (int64, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return 0, err
	}

	defer tx.Rollback(ctx)

	eventID, err := r.refundCore(ctx, tx, ticketID)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}

	return eventID, nil
}

func (r *TicketRepo) refundCore(ctx context.Context, db DB, ticketID int64) (int64, error) {
	var seatID int64
	var eventID int64

	err := db.QueryRow(ctx,
		`SELECT t.event_seat_id, ea.event_id
       	 FROM tickets t
       	 JOIN event_seats es ON es.id = t.event_seat_id
       	 JOIN event_areas ea ON ea.id = es.event_area_id
      	 WHERE t.id = $1`,
		ticketID,
	).Scan(&seatID, &eventID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, repository.ErrNotFound
		}
		return 0, err
	}

	if _, err := db.Exec(ctx,
		`UPDATE event_seats SET state = 'free' WHERE id = $1`, seatID,
	); err != nil {
		return 0, err
	}

	if _, err := db.Exec(ctx,
		`DELETE FROM tickets WHERE id = $1`, ticketID,
	); err != nil {
		return 0, err
	}

	return eventID, nil
}
