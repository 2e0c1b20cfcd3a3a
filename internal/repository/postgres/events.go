package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/avereux/seatbook/internal/domain"
	"github.com/avereux/seatbook/internal/repository"
)

type EventRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *EventRepo) With(db DB) *EventRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *EventRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// CreateWithSeats inserts an event and materializes its event areas and event
// seats from the layout's geometry, all in one transaction. Every mirrored
// area starts at the event's base price; every mirrored seat starts free.
//
// Returns:
//   - *domain.Event: the event with its assigned ID.
//   - error: repository.ErrNotFound if the layout does not exist.
func (r *EventRepo) CreateWithSeats(ctx context.Context, e domain.Event) (*domain.Event, error) {
	const op = "postgres.EventRepo.CreateWithSeats"

	if r.db != nil {
		out, err := r.createWithSeatsCore(ctx, r.db, e)
		if err != nil {
			return nil, wrapDBErr(op, err)
		}
		return out, nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer tx.Rollback(ctx)

	out, err := r.createWithSeatsCore(ctx, tx, e)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

func (r *EventRepo) createWithSeatsCore(ctx context.Context, db DB, e domain.Event) (*domain.Event, error) {
	var exists bool
	if err := db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM layouts WHERE id = $1)`, e.LayoutID,
	).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, repository.ErrNotFound
	}

	if err := db.QueryRow(ctx,
		`INSERT INTO events(layout_id, name, description, base_price_cents,
		                    starts_at, ends_at, show_minutes)
       	 VALUES ($1, $2, $3, $4, $5, $6, $7)
     	 RETURNING id`,
		e.LayoutID, e.Name, e.Description, e.BasePriceCents,
		e.Starts, e.Ends, e.ShowMinutes,
	).Scan(&e.ID); err != nil {
		return nil, err
	}

	if _, err := db.Exec(ctx,
		`INSERT INTO event_areas(event_id, area_id, description, coord_x, coord_y, price_cents)
       	 SELECT $1, a.id, a.description, a.coord_x, a.coord_y, $2
         FROM areas a
         WHERE a.layout_id = $3`,
		e.ID, e.BasePriceCents, e.LayoutID,
	); err != nil {
		return nil, err
	}

	if _, err := db.Exec(ctx,
		`INSERT INTO event_seats(event_area_id, seat_id, "row", number, state)
       	 SELECT ea.id, s.id, s."row", s.number, 'free'
         FROM event_areas ea
         JOIN seats s ON s.area_id = ea.area_id
         WHERE ea.event_id = $1`,
		e.ID,
	); err != nil {
		return nil, err
	}

	return &e, nil
}

// Update edits an event's descriptive fields and schedule. The layout binding
// is immutable: rebinding would require reseeding every event seat.
//
// Returns:
//   - error: repository.ErrNotFound if the event does not exist.
func (r *EventRepo) Update(ctx context.Context, e domain.Event) error {
	const op = "postgres.EventRepo.Update"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE events
        	SET name = $2, description = $3, base_price_cents = $4,
            	starts_at = $5, ends_at = $6, show_minutes = $7
      	 WHERE id = $1`,
		e.ID, e.Name, e.Description, e.BasePriceCents,
		e.Starts, e.Ends, e.ShowMinutes,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, repository.ErrNotFound)
	}

	return nil
}

// DeleteCascade removes an event with its event areas, event seats and
// tickets, guarded by the booked pre-check inside one serializable
// transaction.
//
// Returns:
//   - error: repository.ErrSeatsBooked if any seat under the event is booked.
//   - error: repository.ErrNotFound if the event does not exist.
func (r *EventRepo) DeleteCascade(ctx context.Context, id int64) error {
	const op = "postgres.EventRepo.DeleteCascade"

	if r.db != nil {
		if err := r.deleteCascadeCore(ctx, r.db, id); err != nil {
			return wrapDBErr(op, err)
		}
		return nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return wrapDBErr(op, err)
	}

	defer tx.Rollback(ctx)

	if err := r.deleteCascadeCore(ctx, tx, id); err != nil {
		return wrapDBErr(op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

func (r *EventRepo) deleteCascadeCore(ctx context.Context, db DB, id int64) error {
	var booked int64
	if err := db.QueryRow(ctx,
		`SELECT count(*)
       	 FROM event_seats es
       	 JOIN event_areas ea ON ea.id = es.event_area_id
      	 WHERE ea.event_id = $1 AND es.state = 'booked'`,
		id,
	).Scan(&booked); err != nil {
		return err
	}

	if booked > 0 {
		return repository.ErrSeatsBooked
	}

	steps := []string{
		`DELETE FROM tickets t
      	  USING event_seats es, event_areas ea
      	  WHERE t.event_seat_id = es.id AND es.event_area_id = ea.id
        	AND ea.event_id = $1`,
		`DELETE FROM event_seats es
      	  USING event_areas ea
      	  WHERE es.event_area_id = ea.id AND ea.event_id = $1`,
		`DELETE FROM event_areas WHERE event_id = $1`,
	}

	for _, q := range steps {
		if _, err := db.Exec(ctx, q, id); err != nil {
			return err
		}
	}

	tag, err := db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}
