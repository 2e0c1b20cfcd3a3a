package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/avereux/seatbook/internal/repository"
)

type EventSeatRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *EventSeatRepo) With(db DB) *EventSeatRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *EventSeatRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// Delete removes one free event seat. The conditional delete and the state
// probe run in one serializable transaction, so a seat booked concurrently is
// reported as booked, not as gone.
//
// Returns:
//   - int64: the event the seat belonged to, for cache invalidation.
//   - error: repository.ErrSeatBooked if the seat is booked.
//   - error: repository.ErrNotFound if the seat does not exist.
func (r *EventSeatRepo) Delete(ctx context.Context, seatID int64) (int64, error) {
	const op = "postgres.EventSeatRepo.Delete"

	if r.db != nil {
		eventID, err := r.deleteCore(ctx, r.db, seatID)
		if err != nil {
			return 0, wrapDBErr(op, err)
		}
		return eventID, nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return 0, wrapDBErr(op, err)
	}

	defer tx.Rollback(ctx)

	eventID, err := r.deleteCore(ctx, tx, seatID)
	if err != nil {
		return 0, wrapDBErr(op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return eventID, nil
}

func (r *EventSeatRepo) deleteCore(ctx context.Context, db DB, seatID int64) (int64, error) {
	var state string
	var eventID int64

	err := db.QueryRow(ctx,
		`SELECT es.state, ea.event_id
       	 FROM event_seats es
       	 JOIN event_areas ea ON ea.id = es.event_area_id
      	 WHERE es.id = $1`,
		seatID,
	).Scan(&state, &eventID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, repository.ErrNotFound
		}
		return 0, err
	}

	if state == "booked" {
		return 0, repository.ErrSeatBooked
	}

	tag, err := db.Exec(ctx,
		`DELETE FROM event_seats WHERE id = $1 AND state = 'free'`, seatID,
	)
	if err != nil {
		return 0, err
	}

	if tag.RowsAffected() == 0 {
		return 0, repository.ErrSeatBooked
	}

	return eventID, nil
}
