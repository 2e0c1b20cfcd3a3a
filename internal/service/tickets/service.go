package tickets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/avereux/seatbook/internal/domain"
	"github.com/avereux/seatbook/internal/repository"
)

// TicketReader is the read side of the ticket store.
type TicketReader interface {
	GetTicket(ctx context.Context, id int64) (*domain.Ticket, error)
	ListTicketsByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Ticket, error)
}

type Service struct {
	store TicketReader
}

func New(store TicketReader) *Service {
	return &Service{store: store}
}

// Get retrieves a single ticket.
//
// Returns:
//   - error: tickets.ErrTicketNotFound if the ticket is not found.
func (s *Service) Get(ctx context.Context, id int64) (*domain.Ticket, error) {
	const op = "service.tickets.Get"

	if id <= 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidInput)
	}

	t, err := s.store.GetTicket(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrTicketNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return t, nil
}

// ListByUser lists the live tickets that belong to a user, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Ticket, error) {
	const op = "service.tickets.ListByUser"

	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidInput)
	}

	if limit <= 0 {
		limit = 50
	}

	if limit > 200 {
		limit = 200
	}

	if offset < 0 {
		offset = 0
	}

	ts, err := s.store.ListTicketsByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return ts, nil
}
