package domain

import "time"

type SeatState string

const (
	SeatFree   SeatState = "free"
	SeatBooked SeatState = "booked"
)

// Valid reports whether the state is one of the known seat states.
func (s SeatState) Valid() bool {
	return s == SeatFree || s == SeatBooked
}

// CanTransitionTo reports whether a seat may move from s to target.
// The only legal moves are free->booked (purchase) and booked->free (refund).
func (s SeatState) CanTransitionTo(target SeatState) bool {
	switch s {
	case SeatFree:
		return target == SeatBooked
	case SeatBooked:
		return target == SeatFree
	default:
		return false
	}
}

type Venue struct {
	ID          int64
	Name        string
	Description string
	Address     string
	Phone       string
}

type Layout struct {
	ID          int64
	VenueID     int64
	Name        string
	Description string
}

type Area struct {
	ID          int64
	LayoutID    int64
	Description string
	CoordX      int
	CoordY      int
}

// Seat is the physical seat template inside an area. It carries no state;
// bookable instances are EventSeats.
type Seat struct {
	ID     int64
	AreaID int64
	Row    int
	Number int
}

type Event struct {
	ID             int64
	LayoutID       int64
	Name           string
	Description    string
	BasePriceCents int64
	Starts         time.Time
	Ends           time.Time
	ShowMinutes    int
}

// EventArea mirrors an Area's geometry for one event and carries the price
// every seat in it sells for.
type EventArea struct {
	ID          int64
	EventID     int64
	AreaID      int64
	Description string
	CoordX      int
	CoordY      int
	PriceCents  int64
}

// EventSeat is the bookable instance of a Seat for one event. It is the only
// entity with lifecycle state.
type EventSeat struct {
	ID          int64
	EventAreaID int64
	SeatID      int64
	Row         int
	Number      int
	State       SeatState
}

// Ticket binds a purchaser to exactly one event seat. A seat is booked iff
// exactly one live ticket references it.
type Ticket struct {
	ID          int64
	EventSeatID int64
	UserID      string
	PriceCents  int64
	CreatedAt   time.Time
}

type EventCounts struct {
	Free   int64
	Booked int64
	Total  int64
}
