package httpgin

import (
	"time"

	"github.com/avereux/seatbook/internal/domain"
)

// --- Requests ---

type CreateVenueRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
}

type UpdateVenueRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
}

type CreateLayoutRequest struct {
	VenueID     int64  `json:"venue_id" binding:"required,gt=0"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateLayoutRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type CreateAreaRequest struct {
	LayoutID    int64  `json:"layout_id" binding:"required,gt=0"`
	Description string `json:"description" binding:"required"`
	CoordX      int    `json:"coord_x"`
	CoordY      int    `json:"coord_y"`
}

type UpdateAreaRequest struct {
	Description string `json:"description" binding:"required"`
	CoordX      int    `json:"coord_x"`
	CoordY      int    `json:"coord_y"`
}

type BatchCreateSeatsRequest struct {
	Seats []SeatInput `json:"seats" binding:"required,min=1,dive"`
}

type SeatInput struct {
	Row    int `json:"row" binding:"required,gt=0"`
	Number int `json:"number" binding:"required,gt=0"`
}

type CreateEventRequest struct {
	LayoutID       int64  `json:"layout_id" binding:"required,gt=0"`
	Name           string `json:"name" binding:"required"`
	Description    string `json:"description"`
	BasePriceCents int64  `json:"base_price_cents" binding:"gte=0"`
	StartsAt       string `json:"starts_at" binding:"required"`
	EndsAt         string `json:"ends_at" binding:"required"`
	ShowMinutes    int    `json:"show_minutes" binding:"gte=0"`
}

type UpdateEventRequest struct {
	Name           string `json:"name" binding:"required"`
	Description    string `json:"description"`
	BasePriceCents int64  `json:"base_price_cents" binding:"gte=0"`
	StartsAt       string `json:"starts_at" binding:"required"`
	EndsAt         string `json:"ends_at" binding:"required"`
	ShowMinutes    int    `json:"show_minutes" binding:"gte=0"`
}

type PurchaseTicketRequest struct {
	EventSeatID int64 `json:"event_seat_id" binding:"required,gt=0"`
	PriceCents  int64 `json:"price_cents" binding:"gte=0"`
}

// --- Responses ---

type ErrorResponse struct {
	Error string `json:"error"`
}

type VenueResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Address     string `json:"address,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

type LayoutResponse struct {
	ID          int64  `json:"id"`
	VenueID     int64  `json:"venue_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type AreaResponse struct {
	ID          int64  `json:"id"`
	LayoutID    int64  `json:"layout_id"`
	Description string `json:"description"`
	CoordX      int    `json:"coord_x"`
	CoordY      int    `json:"coord_y"`
}

type SeatResponse struct {
	ID     int64 `json:"id"`
	AreaID int64 `json:"area_id"`
	Row    int   `json:"row"`
	Number int   `json:"number"`
}

type EventResponse struct {
	ID             int64  `json:"id"`
	LayoutID       int64  `json:"layout_id"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	BasePriceCents int64  `json:"base_price_cents"`
	StartsAt       string `json:"starts_at"`
	EndsAt         string `json:"ends_at"`
	ShowMinutes    int    `json:"show_minutes"`
}

type EventCountsResponse struct {
	Free   int64 `json:"free"`
	Booked int64 `json:"booked"`
	Total  int64 `json:"total"`
}

type EventAreaResponse struct {
	ID          int64  `json:"id"`
	EventID     int64  `json:"event_id"`
	AreaID      int64  `json:"area_id"`
	Description string `json:"description"`
	CoordX      int    `json:"coord_x"`
	CoordY      int    `json:"coord_y"`
	PriceCents  int64  `json:"price_cents"`
}

type EventSeatResponse struct {
	ID          int64  `json:"id"`
	EventAreaID int64  `json:"event_area_id"`
	SeatID      int64  `json:"seat_id"`
	Row         int    `json:"row"`
	Number      int    `json:"number"`
	State       string `json:"state"`
}

type TicketResponse struct {
	ID          int64  `json:"id"`
	EventSeatID int64  `json:"event_seat_id"`
	UserID      string `json:"user_id"`
	PriceCents  int64  `json:"price_cents"`
	CreatedAt   string `json:"created_at"`
}

// --- Converters ---

func toVenueResponse(v *domain.Venue) VenueResponse {
	return VenueResponse{
		ID:          v.ID,
		Name:        v.Name,
		Description: v.Description,
		Address:     v.Address,
		Phone:       v.Phone,
	}
}

func toVenueResponses(vs []domain.Venue) []VenueResponse {
	out := make([]VenueResponse, 0, len(vs))
	for i := range vs {
		out = append(out, toVenueResponse(&vs[i]))
	}
	return out
}

func toLayoutResponse(l *domain.Layout) LayoutResponse {
	return LayoutResponse{
		ID:          l.ID,
		VenueID:     l.VenueID,
		Name:        l.Name,
		Description: l.Description,
	}
}

func toLayoutResponses(ls []domain.Layout) []LayoutResponse {
	out := make([]LayoutResponse, 0, len(ls))
	for i := range ls {
		out = append(out, toLayoutResponse(&ls[i]))
	}
	return out
}

func toAreaResponse(a *domain.Area) AreaResponse {
	return AreaResponse{
		ID:          a.ID,
		LayoutID:    a.LayoutID,
		Description: a.Description,
		CoordX:      a.CoordX,
		CoordY:      a.CoordY,
	}
}

func toAreaResponses(as []domain.Area) []AreaResponse {
	out := make([]AreaResponse, 0, len(as))
	for i := range as {
		out = append(out, toAreaResponse(&as[i]))
	}
	return out
}

func toSeatResponses(ss []domain.Seat) []SeatResponse {
	out := make([]SeatResponse, 0, len(ss))
	for _, s := range ss {
		out = append(out, SeatResponse{
			ID:     s.ID,
			AreaID: s.AreaID,
			Row:    s.Row,
			Number: s.Number,
		})
	}
	return out
}

func toEventResponse(e *domain.Event) EventResponse {
	return EventResponse{
		ID:             e.ID,
		LayoutID:       e.LayoutID,
		Name:           e.Name,
		Description:    e.Description,
		BasePriceCents: e.BasePriceCents,
		StartsAt:       e.Starts.UTC().Format(time.RFC3339),
		EndsAt:         e.Ends.UTC().Format(time.RFC3339),
		ShowMinutes:    e.ShowMinutes,
	}
}

func toEventResponses(es []domain.Event) []EventResponse {
	out := make([]EventResponse, 0, len(es))
	for i := range es {
		out = append(out, toEventResponse(&es[i]))
	}
	return out
}

func toEventAreaResponses(as []domain.EventArea) []EventAreaResponse {
	out := make([]EventAreaResponse, 0, len(as))
	for _, a := range as {
		out = append(out, EventAreaResponse{
			ID:          a.ID,
			EventID:     a.EventID,
			AreaID:      a.AreaID,
			Description: a.Description,
			CoordX:      a.CoordX,
			CoordY:      a.CoordY,
			PriceCents:  a.PriceCents,
		})
	}
	return out
}

func toEventSeatResponses(ss []domain.EventSeat) []EventSeatResponse {
	out := make([]EventSeatResponse, 0, len(ss))
	for _, s := range ss {
		out = append(out, EventSeatResponse{
			ID:          s.ID,
			EventAreaID: s.EventAreaID,
			SeatID:      s.SeatID,
			Row:         s.Row,
			Number:      s.Number,
			State:       string(s.State),
		})
	}
	return out
}

func toTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:          t.ID,
		EventSeatID: t.EventSeatID,
		UserID:      t.UserID,
		PriceCents:  t.PriceCents,
		CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toTicketResponses(ts []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(ts))
	for i := range ts {
		out = append(out, toTicketResponse(&ts[i]))
	}
	return out
}

func parseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
