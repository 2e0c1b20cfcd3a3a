package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avereux/seatbook/internal/domain"
	"github.com/avereux/seatbook/internal/repository"
)

// TicketStore is the write side of the ticket lifecycle. Both operations are
// atomic: the seat-state flip and the ticket row change commit together or
// not at all.
type TicketStore interface {
	Purchase(ctx context.Context, t domain.Ticket) (*domain.Ticket, int64, error)
	Refund(ctx context.Context, ticketID int64) (int64, error)
}

// SeatStore removes free event seats. Delete reports the seat's event ID.
type SeatStore interface {
	Delete(ctx context.Context, seatID int64) (int64, error)
}

type Invalidator interface {
	InvalidateEvent(ctx context.Context, eventID int64) error
}

type Publisher interface {
	PublishEventChanged(ctx context.Context, eventID int64) error
}

type Limiter interface {
	Allow(ctx context.Context, suffix string) (bool, int64, time.Duration, error)
}

type Service struct {
	tickets TicketStore
	seats   SeatStore
	cache   Invalidator
	pubsub  Publisher
	limiter Limiter
}

func New(
	tickets TicketStore,
	seats SeatStore,
	cache Invalidator,
	pubsub Publisher,
	limiter Limiter,
) *Service {
	return &Service{
		tickets: tickets,
		seats:   seats,
		cache:   cache,
		pubsub:  pubsub,
		limiter: limiter,
	}
}

// Purchase books the target seat and persists the ticket. Of two concurrent
// purchases for the same free seat exactly one succeeds; the other gets
// ErrSeatBooked and nothing changes for it.
//
// Parameters:
//   - ctx: request-scoped context.
//   - t: candidate ticket (seat ID, purchaser, price); the ID is assigned here.
//   - rlKey: rate-limit bucket, empty to skip limiting.
//
// Returns:
//   - *domain.Ticket: the persisted ticket.
//   - error: booking.ErrInvalidInput if the candidate is malformed.
//   - error: booking.ErrSeatNotFound if the seat does not exist.
//   - error: booking.ErrSeatBooked if the seat is already booked.
//   - error: booking.ErrRateLimited if the caller is over the purchase limit.
func (s *Service) Purchase(ctx context.Context, t domain.Ticket, rlKey string) (*domain.Ticket, error) {
	const op = "service.booking.Purchase"

	if err := validateTicket(t); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if s.limiter != nil && rlKey != "" {
		ok, _, retry, err := s.limiter.Allow(ctx, rlKey)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}
		if !ok {
			return nil, fmt.Errorf("%s:%w: retry in %s", op, ErrRateLimited, retry)
		}
	}

	ticket, eventID, err := s.tickets.Purchase(ctx, t)
	if err != nil {
		if errors.Is(err, repository.ErrSeatBooked) || errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%s:%w", op, ErrSeatBooked)
		}

		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrSeatNotFound)
		}

		return nil, fmt.Errorf("%s:%w", op, err)
	}

	s.eventChanged(ctx, eventID)

	return ticket, nil
}

// Refund frees the ticket's seat and removes the ticket. Refunding an
// unknown id mutates nothing.
//
// Returns:
//   - error: booking.ErrInvalidInput if the id is not positive.
//   - error: booking.ErrTicketNotFound if the ticket does not exist.
func (s *Service) Refund(ctx context.Context, ticketID int64) error {
	const op = "service.booking.Refund"

	if ticketID < 1 {
		return fmt.Errorf("%s:%w: ticket id must be positive", op, ErrInvalidInput)
	}

	eventID, err := s.tickets.Refund(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s:%w", op, ErrTicketNotFound)
		}

		return fmt.Errorf("%s:%w", op, err)
	}

	s.eventChanged(ctx, eventID)

	return nil
}

// Edit always fails. Changing a ticket in place would need a second
// seat-state transition with ambiguous partial outcomes; the only supported
// correction path is refund and purchase again.
func (s *Service) Edit(ctx context.Context, t domain.Ticket) error {
	const op = "service.booking.Edit"

	return fmt.Errorf("%s:%w", op, ErrTicketImmutable)
}

// DeleteSeat removes one free event seat; a booked seat is never deleted.
//
// Returns:
//   - error: booking.ErrInvalidInput if the id is not positive.
//   - error: booking.ErrSeatNotFound if the seat does not exist.
//   - error: booking.ErrSeatBooked if the seat is booked.
func (s *Service) DeleteSeat(ctx context.Context, seatID int64) error {
	const op = "service.booking.DeleteSeat"

	if seatID < 1 {
		return fmt.Errorf("%s:%w: seat id must be positive", op, ErrInvalidInput)
	}

	eventID, err := s.seats.Delete(ctx, seatID)
	if err != nil {
		if errors.Is(err, repository.ErrSeatBooked) {
			return fmt.Errorf("%s:%w", op, ErrSeatBooked)
		}

		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s:%w", op, ErrSeatNotFound)
		}

		return fmt.Errorf("%s:%w", op, err)
	}

	s.eventChanged(ctx, eventID)

	return nil
}

func (s *Service) eventChanged(ctx context.Context, eventID int64) {
	if s.cache != nil {
		_ = s.cache.InvalidateEvent(ctx, eventID)
	}

	if s.pubsub != nil {
		_ = s.pubsub.PublishEventChanged(ctx, eventID)
	}
}

func validateTicket(t domain.Ticket) error {
	if t.EventSeatID < 1 {
		return fmt.Errorf("%w: event seat id must be positive", ErrInvalidInput)
	}

	if t.UserID == "" {
		return fmt.Errorf("%w: user id must not be empty", ErrInvalidInput)
	}

	if t.PriceCents < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}

	return nil
}
