package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/avereux/seatbook/internal/domain"
	"github.com/avereux/seatbook/internal/repository"
)

type VenueRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *VenueRepo) With(db DB) *VenueRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *VenueRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// Create inserts a venue.
//
// Returns:
//   - *domain.Venue: the venue with its assigned ID.
//   - error: repository.ErrConflict if a venue with the same name exists.
func (r *VenueRepo) Create(ctx context.Context, v domain.Venue) (*domain.Venue, error) {
	const op = "postgres.VenueRepo.Create"

	db := r.handle()

	if err := db.QueryRow(ctx,
		`INSERT INTO venues(name, description, address, phone)
       	 VALUES ($1, $2, $3, $4)
     	 RETURNING id`,
		v.Name, v.Description, v.Address, v.Phone,
	).Scan(&v.ID); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &v, nil
}

// Update edits a venue in place.
//
// Returns:
//   - error: repository.ErrNotFound if the venue does not exist.
//   - error: repository.ErrConflict if the new name is taken.
func (r *VenueRepo) Update(ctx context.Context, v domain.Venue) error {
	const op = "postgres.VenueRepo.Update"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE venues
        	SET name = $2, description = $3, address = $4, phone = $5
      	 WHERE id = $1`,
		v.ID, v.Name, v.Description, v.Address, v.Phone,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, repository.ErrNotFound)
	}

	return nil
}

// DeleteCascade removes a venue and its whole subtree: layouts, areas, seats,
// events, event areas, event seats and tickets. The pre-check and the
// destructive pass run in one serializable transaction, so either a booked
// seat exists somewhere in the subtree and nothing is deleted, or the whole
// subtree goes.
//
// Returns:
//   - []int64: IDs of events that were removed, for cache invalidation.
//   - error: repository.ErrSeatsBooked if any descendant seat is booked.
//   - error: repository.ErrNotFound if the venue does not exist.
func (r *VenueRepo) DeleteCascade(ctx context.Context, id int64) ([]int64, error) {
	const op = "postgres.VenueRepo.DeleteCascade"

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

func (r *VenueRepo) deleteCascadeCore(ctx context.Context, db DB, id int64) ([]int64, error) {
	var booked int64
	if err := db.QueryRow(ctx,
		`SELECT count(*)
       	 FROM event_seats es
       	 JOIN event_areas ea ON ea.id = es.event_area_id
       	 JOIN events e ON e.id = ea.event_id
       	 JOIN layouts l ON l.id = e.layout_id
      	 WHERE l.venue_id = $1 AND es.state = 'booked'`,
		id,
	).Scan(&booked); err != nil {
		return nil, err
	}

	if booked > 0 {
		return nil, repository.ErrSeatsBooked
	}

	rows, err := db.Query(ctx,
		`SELECT e.id
       	 FROM events e
       	 JOIN layouts l ON l.id = e.layout_id
      	 WHERE l.venue_id = $1`,
		id,
	)
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

	// Children before parents: no database-level cascade constraints exist.
	steps := []string{
		`DELETE FROM tickets t
      	  USING event_seats es, event_areas ea, events e, layouts l
      	  WHERE t.event_seat_id = es.id AND es.event_area_id = ea.id
        	AND ea.event_id = e.id AND e.layout_id = l.id AND l.venue_id = $1`,
		`DELETE FROM event_seats es
      	  USING event_areas ea, events e, layouts l
      	  WHERE es.event_area_id = ea.id AND ea.event_id = e.id
        	AND e.layout_id = l.id AND l.venue_id = $1`,
		`DELETE FROM event_areas ea
      	  USING events e, layouts l
      	  WHERE ea.event_id = e.id AND e.layout_id = l.id AND l.venue_id = $1`,
		`DELETE FROM events e
      	  USING layouts l
      	  WHERE e.layout_id = l.id AND l.venue_id = $1`,
		`DELETE FROM seats s
      	  USING areas a, layouts l
      	  WHERE s.area_id = a.id AND a.layout_id = l.id AND l.venue_id = $1`,
		`DELETE FROM areas a
      	  USING layouts l
      	  WHERE a.layout_id = l.id AND l.venue_id = $1`,
		`DELETE FROM layouts WHERE venue_id = $1`,
	}

	for _, q := range steps {
		if _, err := db.Exec(ctx, q, id); err != nil {
			return nil, err
		}
	}

	tag, err := db.Exec(ctx, `DELETE FROM venues WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}

	if tag.RowsAffected() == 0 {
		return nil, repository.ErrNotFound
	}

	return eventIDs, nil
}
