package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/avereux/seatbook/internal/domain"
	"github.com/avereux/seatbook/internal/repository"
)

type LayoutRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *LayoutRepo) With(db DB) *LayoutRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *LayoutRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// Create inserts a layout under a venue. Name uniqueness within the venue is
// enforced by the (venue_id, name) unique index.
//
// Returns:
//   - *domain.Layout: the layout with its assigned ID.
//   - error: repository.ErrNotFound if the venue does not exist.
//   - error: repository.ErrConflict if the name is taken within the venue.
func (r *LayoutRepo) Create(ctx context.Context, l domain.Layout) (*domain.Layout, error) {
	const op = "postgres.LayoutRepo.Create"

	db := r.handle()

	var exists bool
	if err := db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM venues WHERE id = $1)`, l.VenueID,
	).Scan(&exists); err != nil {
		return nil, wrapDBErr(op, err)
	}
	if !exists {
		return nil, wrapDBErr(op, repository.ErrNotFound)
	}

	if err := db.QueryRow(ctx,
		`INSERT INTO layouts(venue_id, name, description)
       	 VALUES ($1, $2, $3)
     	 RETURNING id`,
		l.VenueID, l.Name, l.Description,
	).Scan(&l.ID); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &l, nil
}

// Update edits a layout. Renaming a layout to its own current name is a
// no-op, not a conflict: the row's update cannot collide with its own index
// entry.
//
// Returns:
//   - error: repository.ErrNotFound if the layout does not exist.
//   - error: repository.ErrConflict if the name is taken by a sibling.
func (r *LayoutRepo) Update(ctx context.Context, l domain.Layout) error {
	const op = "postgres.LayoutRepo.Update"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE layouts
        	SET name = $2, description = $3
      	 WHERE id = $1`,
		l.ID, l.Name, l.Description,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, repository.ErrNotFound)
	}

	return nil
}

// DeleteCascade removes a layout and everything under it, in one serializable
// transaction: pre-check for booked descendant seats first, then delete
// children before parents.
//
// Returns:
//   - []int64: IDs of events that were removed.
//   - error: repository.ErrSeatsBooked if any descendant seat is booked.
//   - error: repository.ErrNotFound if the layout does not exist.
func (r *LayoutRepo) DeleteCascade(ctx context.Context, id int64) ([]int64, error) {
	const op = "postgres.LayoutRepo.DeleteCascade"

	if r.db != nil {
		events, err := r.deleteCascadeCore(ctx, r.db, id)
		if err != nil {
			return nil, wrapDBErr(op, err)
		}
		return events, nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer tx.Rollback(ctx)

	events, err := r.deleteCascadeCore(ctx, tx, id)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return events, nil
}

func (r *LayoutRepo) deleteCascadeCore(ctx context.Context, db DB, id int64) ([]int64, error) {
	var booked int64
	if err := db.QueryRow(ctx,
		`SELECT count(*)
       	 FROM event_seats es
       	 JOIN event_areas ea ON ea.id = es.event_area_id
       	 JOIN events e ON e.id = ea.event_id
      	 WHERE e.layout_id = $1 AND es.state = 'booked'`,
		id,
	).Scan(&booked); err != nil {
		return nil, err
	}

	if booked > 0 {
		return nil, repository.ErrSeatsBooked
	}

	rows, err := db.Query(ctx, `SELECT id FROM events WHERE layout_id = $1`, id)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var eventIDs []int64
	for rows.Next() {
		var eid int64
		if err := rows.Scan(&eid); err != nil {
			return nil, err
		}
		eventIDs = append(eventIDs, eid)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	steps := []string{
		`DELETE FROM tickets t
      	  USING event_seats es, event_areas ea, events e
      	  WHERE t.event_seat_id = es.id AND es.event_area_id = ea.id
        	AND ea.event_id = e.id AND e.layout_id = $1`,
		`DELETE FROM event_seats es
      	  USING event_areas ea, events e
      	  WHERE es.event_area_id = ea.id AND ea.event_id = e.id
        	AND e.layout_id = $1`,
		`DELETE FROM event_areas ea
      	  USING events e
      	  WHERE ea.event_id = e.id AND e.layout_id = $1`,
		`DELETE FROM events WHERE layout_id = $1`,
		`DELETE FROM seats s
      	  USING areas a
      	  WHERE s.area_id = a.id AND a.layout_id = $1`,
		`DELETE FROM areas WHERE layout_id = $1`,
	}

	for _, q := range steps {
		if _, err := db.Exec(ctx, q, id); err != nil {
			return nil, err
		}
	}

	tag, err := db.Exec(ctx, `DELETE FROM layouts WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}

	if tag.RowsAffected() == 0 {
		return nil, repository.ErrNotFound
	}

	return eventIDs, nil
}
