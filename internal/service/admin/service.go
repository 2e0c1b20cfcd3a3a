// Package admin manages the venue/layout/area/seat hierarchy and events.
// Structural deletes are guarded: nothing under a booked seat is ever
// removed, and a failed delete leaves the subtree untouched.
package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/avereux/seatbook/internal/domain"
	"github.com/avereux/seatbook/internal/repository"
)

type VenueStore interface {
	Create(ctx context.Context, v domain.Venue) (*domain.Venue, error)
	Update(ctx context.Context, v domain.Venue) error
	DeleteCascade(ctx context.Context, id int64) ([]int64, error)
}

type LayoutStore interface {
	Create(ctx context.Context, l domain.Layout) (*domain.Layout, error)
	Update(ctx context.Context, l domain.Layout) error
	DeleteCascade(ctx context.Context, id int64) ([]int64, error)
}

type AreaStore interface {
	Create(ctx context.Context, a domain.Area) (*domain.Area, error)
	Update(ctx context.Context, a domain.Area) error
	DeleteCascade(ctx context.Context, id int64) ([]int64, error)
	CreateSeats(ctx context.Context, areaID int64, seats []domain.Seat) error
	DeleteSeat(ctx context.Context, seatID int64) error
}

type EventStore interface {
	CreateWithSeats(ctx context.Context, e domain.Event) (*domain.Event, error)
	Update(ctx context.Context, e domain.Event) error
	DeleteCascade(ctx context.Context, id int64) error
}

type Invalidator interface {
	InvalidateEvent(ctx context.Context, eventID int64) error
}

type Publisher interface {
	PublishEventChanged(ctx context.Context, eventID int64) error
}

type Service struct {
	venues  VenueStore
	layouts LayoutStore
	areas   AreaStore
	events  EventStore
	cache   Invalidator
	pubsub  Publisher
}

func New(
	venues VenueStore,
	layouts LayoutStore,
	areas AreaStore,
	events EventStore,
	cache Invalidator,
	pubsub Publisher,
) *Service {
	return &Service{
		venues:  venues,
		layouts: layouts,
		areas:   areas,
		events:  events,
		cache:   cache,
		pubsub:  pubsub,
	}
}

// CreateVenue creates a venue.
//
// Returns:
//   - *domain.Venue: the venue with its assigned ID.
//   - error: admin.ErrNameTaken if a venue with the same name exists.
func (s *Service) CreateVenue(ctx context.Context, v domain.Venue) (*domain.Venue, error) {
	const op = "service.admin.CreateVenue"

	if v.Name == "" {
		return nil, fmt.Errorf("%s:%w: venue name must not be empty", op, ErrInvalidInput)
	}

	out, err := s.venues.Create(ctx, v)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateStoreErr(err))
	}

	return out, nil
}

func (s *Service) UpdateVenue(ctx context.Context, v domain.Venue) error {
	const op = "service.admin.UpdateVenue"

	if v.ID < 1 {
		return fmt.Errorf("%s:%w: venue id must be positive", op, ErrInvalidInput)
	}

	if v.Name == "" {
		return fmt.Errorf("%s:%w: venue name must not be empty", op, ErrInvalidInput)
	}

	if err := s.venues.Update(ctx, v); err != nil {
		return fmt.Errorf("%s:%w", op, translateStoreErr(err))
	}

	return nil
}

// DeleteVenue removes the venue and its whole subtree, or nothing at all.
//
// Returns:
//   - error: admin.ErrSeatsBooked if any descendant seat is booked.
//   - error: admin.ErrNotFound if the venue does not exist.
func (s *Service) DeleteVenue(ctx context.Context, id int64) error {
	const op = "service.admin.DeleteVenue"

	if id < 1 {
		return fmt.Errorf("%s:%w: venue id must be positive", op, ErrInvalidInput)
	}

	events, err := s.venues.DeleteCascade(ctx, id)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateStoreErr(err))
	}

	s.eventsChanged(ctx, events)

	return nil
}

// CreateLayout creates a layout under a venue.
//
// Returns:
//   - *domain.Layout: the layout with its assigned ID.
//   - error: admin.ErrNotFound if the venue does not exist.
//   - error: admin.ErrNameTaken if the name is taken within the venue.
func (s *Service) CreateLayout(ctx context.Context, l domain.Layout) (*domain.Layout, error) {
	const op = "service.admin.CreateLayout"

	if l.VenueID < 1 {
		return nil, fmt.Errorf("%s:%w: venue id must be positive", op, ErrInvalidInput)
	}

	if l.Name == "" {
		return nil, fmt.Errorf("%s:%w: layout name must not be empty", op, ErrInvalidInput)
	}

	out, err := s.layouts.Create(ctx, l)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateStoreErr(err))
	}

	return out, nil
}

func (s *Service) UpdateLayout(ctx context.Context, l domain.Layout) error {
	const op = "service.admin.UpdateLayout"

	if l.ID < 1 {
		return fmt.Errorf("%s:%w: layout id must be positive", op, ErrInvalidInput)
	}

	if l.Name == "" {
		return fmt.Errorf("%s:%w: layout name must not be empty", op, ErrInvalidInput)
	}

	if err := s.layouts.Update(ctx, l); err != nil {
		return fmt.Errorf("%s:%w", op, translateStoreErr(err))
	}

	return nil
}

// DeleteLayout removes the layout subtree: every event scheduled on it with
// its event areas and seats, then the layout's own areas and seats. Any
// booked descendant seat aborts the whole delete.
func (s *Service) DeleteLayout(ctx context.Context, id int64) error {
	const op = "service.admin.DeleteLayout"

	if id < 1 {
		return fmt.Errorf("%s:%w: layout id must be positive", op, ErrInvalidInput)
	}

	events, err := s.layouts.DeleteCascade(ctx, id)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateStoreErr(err))
	}

	s.eventsChanged(ctx, events)

	return nil
}

// CreateArea creates an area under a layout.
//
// Returns:
//   - *domain.Area: the area with its assigned ID.
//   - error: admin.ErrNotFound if the layout does not exist.
//   - error: admin.ErrNameTaken if the description is taken within the layout.
func (s *Service) CreateArea(ctx context.Context, a domain.Area) (*domain.Area, error) {
	const op = "service.admin.CreateArea"

	if a.LayoutID < 1 {
		return nil, fmt.Errorf("%s:%w: layout id must be positive", op, ErrInvalidInput)
	}

	if a.Description == "" {
		return nil, fmt.Errorf("%s:%w: area description must not be empty", op, ErrInvalidInput)
	}

	out, err := s.areas.Create(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateStoreErr(err))
	}

	return out, nil
}

func (s *Service) UpdateArea(ctx context.Context, a domain.Area) error {
	const op = "service.admin.UpdateArea"

	if a.ID < 1 {
		return fmt.Errorf("%s:%w: area id must be positive", op, ErrInvalidInput)
	}

	if a.Description == "" {
		return fmt.Errorf("%s:%w: area description must not be empty", op, ErrInvalidInput)
	}

	if err := s.areas.Update(ctx, a); err != nil {
		return fmt.Errorf("%s:%w", op, translateStoreErr(err))
	}

	return nil
}

func (s *Service) DeleteArea(ctx context.Context, id int64) error {
	const op = "service.admin.DeleteArea"

	if id < 1 {
		return fmt.Errorf("%s:%w: area id must be positive", op, ErrInvalidInput)
	}

	events, err := s.areas.DeleteCascade(ctx, id)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateStoreErr(err))
	}

	s.eventsChanged(ctx, events)

	return nil
}

// CreateSeats adds seats to an area in one batch.
func (s *Service) CreateSeats(ctx context.Context, areaID int64, seats []domain.Seat) error {
	const op = "service.admin.CreateSeats"

	if areaID < 1 {
		return fmt.Errorf("%s:%w: area id must be positive", op, ErrInvalidInput)
	}

	if len(seats) == 0 {
		return fmt.Errorf("%s:%w: no seats given", op, ErrInvalidInput)
	}

	for _, seat := range seats {
		if seat.Row < 1 || seat.Number < 1 {
			return fmt.Errorf("%s:%w: seat row and number must be positive", op, ErrInvalidInput)
		}
	}

	if err := s.areas.CreateSeats(ctx, areaID, seats); err != nil {
		return fmt.Errorf("%s:%w", op, translateStoreErr(err))
	}

	return nil
}

func (s *Service) DeleteSeat(ctx context.Context, seatID int64) error {
	const op = "service.admin.DeleteSeat"

	if seatID < 1 {
		return fmt.Errorf("%s:%w: seat id must be positive", op, ErrInvalidInput)
	}

	if err := s.areas.DeleteSeat(ctx, seatID); err != nil {
		return fmt.Errorf("%s:%w", op, translateStoreErr(err))
	}

	return nil
}

// CreateEvent schedules an event on a layout and materializes its event
// areas and event seats from the layout's geometry.
//
// Returns:
//   - *domain.Event: the event with its assigned ID.
//   - error: admin.ErrNotFound if the layout does not exist.
func (s *Service) CreateEvent(ctx context.Context, e domain.Event) (*domain.Event, error) {
	const op = "service.admin.CreateEvent"

	if err := validateEvent(e, false); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	out, err := s.events.CreateWithSeats(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateStoreErr(err))
	}

	s.eventsChanged(ctx, []int64{out.ID})

	return out, nil
}

func (s *Service) UpdateEvent(ctx context.Context, e domain.Event) error {
	const op = "service.admin.UpdateEvent"

	if err := validateEvent(e, true); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	if err := s.events.Update(ctx, e); err != nil {
		return fmt.Errorf("%s:%w", op, translateStoreErr(err))
	}

	s.eventsChanged(ctx, []int64{e.ID})

	return nil
}

// DeleteEvent removes the event with its areas and seats, or nothing at all
// when any of its seats is booked.
func (s *Service) DeleteEvent(ctx context.Context, id int64) error {
	const op = "service.admin.DeleteEvent"

	if id < 1 {
		return fmt.Errorf("%s:%w: event id must be positive", op, ErrInvalidInput)
	}

	if err := s.events.DeleteCascade(ctx, id); err != nil {
		return fmt.Errorf("%s:%w", op, translateStoreErr(err))
	}

	s.eventsChanged(ctx, []int64{id})

	return nil
}

func (s *Service) eventsChanged(ctx context.Context, eventIDs []int64) {
	for _, eventID := range eventIDs {
		if s.cache != nil {
			_ = s.cache.InvalidateEvent(ctx, eventID)
		}

		if s.pubsub != nil {
			_ = s.pubsub.PublishEventChanged(ctx, eventID)
		}
	}
}

func validateEvent(e domain.Event, update bool) error {
	if update && e.ID < 1 {
		return fmt.Errorf("%w: event id must be positive", ErrInvalidInput)
	}

	if !update && e.LayoutID < 1 {
		return fmt.Errorf("%w: layout id must be positive", ErrInvalidInput)
	}

	if e.Name == "" {
		return fmt.Errorf("%w: event name must not be empty", ErrInvalidInput)
	}

	if e.BasePriceCents < 0 {
		return fmt.Errorf("%w: base price must not be negative", ErrInvalidInput)
	}

	if !e.Ends.After(e.Starts) {
		return fmt.Errorf("%w: event must end after it starts", ErrInvalidInput)
	}

	return nil
}

func translateStoreErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrSeatsBooked):
		return ErrSeatsBooked
	case errors.Is(err, repository.ErrReferenced):
		return ErrInUse
	case errors.Is(err, repository.ErrConflict):
		return ErrNameTaken
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	default:
		return err
	}
}
