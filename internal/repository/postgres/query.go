package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/avereux/seatbook/internal/domain"
)

// QueryRepo holds the read side: lookups and listings across the whole
// venue/layout and event/seat graph.
type QueryRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *QueryRepo) With(db DB) *QueryRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *QueryRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// GetVenue retrieves a venue by its ID.
//
// Returns:
//   - *domain.Venue: the venue when found.
//   - error: repository.ErrNotFound if the venue is not found.
func (r *QueryRepo) GetVenue(ctx context.Context, id int64) (*domain.Venue, error) {
	const op = "postgres.QueryRepo.GetVenue"

	db := r.handle()

	var v domain.Venue
	err := db.QueryRow(ctx,
		`SELECT id, name, description, address, phone
       	 FROM venues WHERE id = $1`,
		id,
	).Scan(&v.ID, &v.Name, &v.Description, &v.Address, &v.Phone)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &v, nil
}

func (r *QueryRepo) ListVenues(ctx context.Context) ([]domain.Venue, error) {
	const op = "postgres.QueryRepo.ListVenues"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT id, name, description, address, phone
		 FROM venues
		 ORDER BY name`,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.Venue
	for rows.Next() {
		var v domain.Venue
		if err := rows.Scan(&v.ID, &v.Name, &v.Description, &v.Address, &v.Phone); err != nil {
			return nil, wrapDBErr(op, err)
		}

		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

func (r *QueryRepo) ListLayouts(ctx context.Context, venueID int64) ([]domain.Layout, error) {
	const op = "postgres.QueryRepo.ListLayouts"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT id, venue_id, name, description
		 FROM layouts
		 WHERE venue_id = $1
		 ORDER BY name`,
		venueID,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.Layout
	for rows.Next() {
		var l domain.Layout
		if err := rows.Scan(&l.ID, &l.VenueID, &l.Name, &l.Description); err != nil {
			return nil, wrapDBErr(op, err)
		}

		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

func (r *QueryRepo) ListAreas(ctx context.Context, layoutID int64) ([]domain.Area, error) {
	const op = "postgres.QueryRepo.ListAreas"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT id, layout_id, description, coord_x, coord_y
		 FROM areas
		 WHERE layout_id = $1
		 ORDER BY description`,
		layoutID,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.Area
	for rows.Next() {
		var a domain.Area
		if err := rows.Scan(&a.ID, &a.LayoutID, &a.Description, &a.CoordX, &a.CoordY); err != nil {
			return nil, wrapDBErr(op, err)
		}

		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

func (r *QueryRepo) ListSeats(ctx context.Context, areaID int64) ([]domain.Seat, error) {
	const op = "postgres.QueryRepo.ListSeats"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT s.id, s.area_id, s."row", s.number
		 FROM seats s
		 WHERE s.area_id = $1
		 ORDER BY s."row", s.number`,
		areaID,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.Seat
	for rows.Next() {
		var s domain.Seat
		if err := rows.Scan(&s.ID, &s.AreaID, &s.Row, &s.Number); err != nil {
			return nil, wrapDBErr(op, err)
		}

		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// GetEvent retrieves an event by its ID.
//
// Returns:
//   - *domain.Event: the event when found.
//   - error: repository.ErrNotFound if the event is not found.
func (r *QueryRepo) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	const op = "postgres.QueryRepo.GetEvent"

	db := r.handle()

	var e domain.Event
	err := db.QueryRow(ctx,
		`SELECT id, layout_id, name, description, base_price_cents,
		        starts_at, ends_at, show_minutes
       	 FROM events WHERE id = $1`,
		id,
	).Scan(&e.ID, &e.LayoutID, &e.Name, &e.Description, &e.BasePriceCents,
		&e.Starts, &e.Ends, &e.ShowMinutes)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &e, nil
}

func (r *QueryRepo) ListEvents(ctx context.Context, limit, offset int) ([]domain.Event, error) {
	const op = "postgres.QueryRepo.ListEvents"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT id, layout_id, name, description, base_price_cents,
		        starts_at, ends_at, show_minutes
		 FROM events
		 ORDER BY starts_at
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.LayoutID, &e.Name, &e.Description,
			&e.BasePriceCents, &e.Starts, &e.Ends, &e.ShowMinutes); err != nil {
			return nil, wrapDBErr(op, err)
		}

		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// CountsByState counts an event's seats per lifecycle state.
//
// Returns:
//   - *domain.EventCounts: free/booked/total counters.
func (r *QueryRepo) CountsByState(ctx context.Context, eventID int64) (*domain.EventCounts, error) {
	const op = "postgres.QueryRepo.CountsByState"

	db := r.handle()

	var ec domain.EventCounts
	err := db.QueryRow(ctx,
		`SELECT
       	 	COALESCE(SUM(CASE WHEN es.state = 'free' THEN 1 ELSE 0 END), 0),
    	 	COALESCE(SUM(CASE WHEN es.state = 'booked' THEN 1 ELSE 0 END), 0)
     	 FROM event_seats es
     	 JOIN event_areas ea ON ea.id = es.event_area_id
     	 WHERE ea.event_id = $1`,
		eventID,
	).Scan(&ec.Free, &ec.Booked)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	ec.Total = ec.Free + ec.Booked

	return &ec, nil
}

// ListEventAreas lists the pricing areas materialized for an event.
func (r *QueryRepo) ListEventAreas(ctx context.Context, eventID int64) ([]domain.EventArea, error) {
	const op = "postgres.QueryRepo.ListEventAreas"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT id, event_id, area_id, description, coord_x, coord_y, price_cents
		 FROM event_areas
		 WHERE event_id = $1
		 ORDER BY description`,
		eventID,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.EventArea
	for rows.Next() {
		var ea domain.EventArea
		if err := rows.Scan(
			&ea.ID,
			&ea.EventID,
			&ea.AreaID,
			&ea.Description,
			&ea.CoordX,
			&ea.CoordY,
			&ea.PriceCents,
		); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, ea)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// ListEventSeats lists an event's seats with their state, ordered by area and
// seat coordinates.
func (r *QueryRepo) ListEventSeats(
	ctx context.Context,
	eventID int64,
	onlyFree bool,
	limit, offset int,
) ([]domain.EventSeat, error) {
	const op = "postgres.QueryRepo.ListEventSeats"

	db := r.handle()

	var rows pgx.Rows
	var err error

	if onlyFree {
		rows, err = db.Query(ctx,
			`SELECT es.id, es.event_area_id, es.seat_id, es."row", es.number, es.state
			 FROM event_seats es
			 JOIN event_areas ea ON ea.id = es.event_area_id
			 WHERE ea.event_id = $1 AND es.state = 'free'
			 ORDER BY ea.description, es."row", es.number
        	 LIMIT $2 OFFSET $3`,
			eventID, limit, offset,
		)
	} else {
		rows, err = db.Query(ctx,
			`SELECT es.id, es.event_area_id, es.seat_id, es."row", es.number, es.state
         	 FROM event_seats es
          	 JOIN event_areas ea ON ea.id = es.event_area_id
        	 WHERE ea.event_id = $1
        	 ORDER BY ea.description, es."row", es.number
        	 LIMIT $2 OFFSET $3`,
			eventID, limit, offset,
		)
	}
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.EventSeat
	for rows.Next() {
		var es domain.EventSeat
		var state string

		if err := rows.Scan(
			&es.ID,
			&es.EventAreaID,
			&es.SeatID,
			&es.Row,
			&es.Number,
			&state,
		); err != nil {
			return nil, wrapDBErr(op, err)
		}

		es.State = domain.SeatState(state)
		out = append(out, es)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// GetTicket retrieves a ticket by its ID.
//
// Returns:
//   - *domain.Ticket: the ticket when found.
//   - error: repository.ErrNotFound if the ticket is not found.
func (r *QueryRepo) GetTicket(ctx context.Context, id int64) (*domain.Ticket, error) {
	const op = "postgres.QueryRepo.GetTicket"

	db := r.handle()

	var t domain.Ticket
	err := db.QueryRow(ctx,
		`SELECT id, event_seat_id, user_id, price_cents, created_at
       	 FROM tickets WHERE id = $1`,
		id,
	).Scan(&t.ID, &t.EventSeatID, &t.UserID, &t.PriceCents, &t.CreatedAt)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &t, nil
}

func (r *QueryRepo) ListTicketsByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Ticket, error) {
	const op = "postgres.QueryRepo.ListTicketsByUser"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT id, event_seat_id, user_id, price_cents, created_at
         FROM tickets
      	 WHERE user_id = $1
       	 ORDER BY created_at DESC, id DESC
       	 LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.Ticket
	for rows.Next() {
		var t domain.Ticket

		if err := rows.Scan(&t.ID, &t.EventSeatID, &t.UserID, &t.PriceCents, &t.CreatedAt); err != nil {
			return nil, wrapDBErr(op, err)
		}

		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}
