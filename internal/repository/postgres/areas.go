package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/avereux/seatbook/internal/domain"
	"github.com/avereux/seatbook/internal/repository"
)

type AreaRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *AreaRepo) With(db DB) *AreaRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *AreaRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// Create inserts an area under a layout. Description uniqueness within the
// layout is enforced by the (layout_id, description) unique index.
//
// Returns:
//   - *domain.Area: the area with its assigned ID.
//   - error: repository.ErrNotFound if the layout does not exist.
//   - error: repository.ErrConflict if the description is taken within the layout.
func (r *AreaRepo) Create(ctx context.Context, a domain.Area) (*domain.Area, error) {
	const op = "postgres.AreaRepo.Create"

	db := r.handle()

	var exists bool
	if err := db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM layouts WHERE id = $1)`, a.LayoutID,
	).Scan(&exists); err != nil {
		return nil, wrapDBErr(op, err)
	}
	if !exists {
		return nil, wrapDBErr(op, repository.ErrNotFound)
	}

	if err := db.QueryRow(ctx,
		`INSERT INTO areas(layout_id, description, coord_x, coord_y)
       	 VALUES ($1, $2, $3, $4)
     	 RETURNING id`,
		a.LayoutID, a.Description, a.CoordX, a.CoordY,
	).Scan(&a.ID); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &a, nil
}

// Update edits an area. Keeping the area's own description is a no-op, not a
// conflict.
//
// Returns:
//   - error: repository.ErrNotFound if the area does not exist.
//   - error: repository.ErrConflict if the description is taken by a sibling.
func (r *AreaRepo) Update(ctx context.Context, a domain.Area) error {
	const op = "postgres.AreaRepo.Update"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE areas
        	SET description = $2, coord_x = $3, coord_y = $4
      	 WHERE id = $1`,
		a.ID, a.Description, a.CoordX, a.CoordY,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, repository.ErrNotFound)
	}

	return nil
}

// CreateSeats inserts seats for an area in one batch. Duplicate (row, number)
// pairs within the area are skipped.
func (r *AreaRepo) CreateSeats(ctx context.Context, areaID int64, seats []domain.Seat) error {
	const op = "postgres.AreaRepo.CreateSeats"

	db := r.handle()

	var exists bool
	if err := db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM areas WHERE id = $1)`, areaID,
	).Scan(&exists); err != nil {
		return wrapDBErr(op, err)
	}
	if !exists {
		return wrapDBErr(op, repository.ErrNotFound)
	}

	batch := &pgx.Batch{}
	for _, s := range seats {
		batch.Queue(
			`INSERT INTO seats(area_id, "row", number)
         	 VALUES ($1, $2, $3)
       		 ON CONFLICT (area_id, "row", number) DO NOTHING`,
			areaID, s.Row, s.Number,
		)
	}
	if err := db.SendBatch(ctx, batch).Close(); err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

// DeleteSeat removes one physical seat template.
//
// Returns:
//   - error: repository.ErrNotFound if the seat does not exist.
//   - error: repository.ErrReferenced if event seats still reference it.
func (r *AreaRepo) DeleteSeat(ctx context.Context, seatID int64) error {
	const op = "postgres.AreaRepo.DeleteSeat"

	db := r.handle()

	tag, err := db.Exec(ctx, `DELETE FROM seats WHERE id = $1`, seatID)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, repository.ErrNotFound)
	}

	return nil
}

// DeleteCascade removes an area, its seats and every event area mirroring it,
// with the booked pre-check and the destructive pass in one serializable
// transaction.
//
// Returns:
//   - []int64: IDs of events whose mirrored areas were removed.
//   - error: repository.ErrSeatsBooked if any mirrored seat is booked.
//   - error: repository.ErrNotFound if the area does not exist.
func (r *AreaRepo) DeleteCascade(ctx context.Context, id int64) ([]int64, error) {
	const op = "postgres.AreaRepo.DeleteCascade"

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

func (r *AreaRepo) deleteCascadeCore(ctx context.Context, db DB, id int64) ([]int64, error) {
	var booked int64
	if err := db.QueryRow(ctx,
		`SELECT count(*)
       	 FROM event_seats es
       	 JOIN event_areas ea ON ea.id = es.event_area_id
      	 WHERE ea.area_id = $1 AND es.state = 'booked'`,
		id,
	).Scan(&booked); err != nil {
		return nil, err
	}

	if booked > 0 {
		return nil, repository.ErrSeatsBooked
	}

	rows, err := db.Query(ctx,
		`SELECT DISTINCT event_id FROM event_areas WHERE area_id = $1`, id,
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

	steps := []string{
		`DELETE FROM tickets t
      	  USING event_seats es, event_areas ea
      	  WHERE t.event_seat_id = es.id AND es.event_area_id = ea.id
        	AND ea.area_id = $1`,
		`DELETE FROM event_seats es
      	  USING event_areas ea
      	  WHERE es.event_area_id = ea.id AND ea.area_id = $1`,
		`DELETE FROM event_areas WHERE area_id = $1`,
		`DELETE FROM seats WHERE area_id = $1`,
	}

	for _, q := range steps {
		if _, err := db.Exec(ctx, q, id); err != nil {
			return nil, err
		}
	}

	tag, err := db.Exec(ctx, `DELETE FROM areas WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}

	if tag.RowsAffected() == 0 {
		return nil, repository.ErrNotFound
	}

	return eventIDs, nil
}
