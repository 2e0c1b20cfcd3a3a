package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avereux/seatbook/internal/domain"
	redisx "github.com/avereux/seatbook/internal/redis"
	"github.com/avereux/seatbook/internal/repository"
	postgresrepo "github.com/avereux/seatbook/internal/repository/postgres"
	redisrepo "github.com/avereux/seatbook/internal/repository/redis"
)

type Config struct {
	EventSummaryTTL  time.Duration
	AvailabilityTTL  time.Duration
	DefaultSeatsPage int
	MaxSeatsPage     int
}

type Service struct {
	store *postgresrepo.Store
	cache *redisrepo.Cache
	cfg   Config
}

func New(store *postgresrepo.Store, cache *redisrepo.Cache, cfg Config) *Service {
	if cfg.EventSummaryTTL <= 0 {
		cfg.EventSummaryTTL = 60 * time.Second
	}

	if cfg.AvailabilityTTL <= 0 {
		cfg.AvailabilityTTL = 15 * time.Second
	}

	if cfg.DefaultSeatsPage <= 0 {
		cfg.DefaultSeatsPage = 100
	}

	if cfg.MaxSeatsPage <= 0 {
		cfg.MaxSeatsPage = 500
	}

	return &Service{
		store: store,
		cache: cache,
		cfg:   cfg,
	}
}

// page clamps pagination arguments so they are never handed to SQL raw: the
// limit defaults and caps to the configured page sizes, a negative offset
// becomes zero.
func (s *Service) page(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = s.cfg.DefaultSeatsPage
	}
	if limit > s.cfg.MaxSeatsPage {
		limit = s.cfg.MaxSeatsPage
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// GetEvent retrieves an event through the cache.
//
// Returns:
//   - *domain.Event: the event.
//   - error: query.ErrEventNotFound if the event is not found.
func (s *Service) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	const op = "service.query.GetEvent"

	key := redisx.KeyEventSummary(id)

	event, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		key,
		s.cfg.EventSummaryTTL,
		func(ctx context.Context) (domain.Event, error) {
			e, err := s.store.Query().GetEvent(ctx, id)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return domain.Event{}, ErrEventNotFound
				}

				return domain.Event{}, err
			}

			return *e, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &event, nil
}

// CountsByState retrieves the free/booked counters for an event through the
// cache.
func (s *Service) CountsByState(ctx context.Context, eventID int64) (*domain.EventCounts, error) {
	const op = "service.query.CountsByState"

	key := redisx.KeyEventAvailability(eventID)

	counts, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		key,
		s.cfg.AvailabilityTTL,
		func(ctx context.Context) (domain.EventCounts, error) {
			ec, err := s.store.Query().CountsByState(ctx, eventID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return domain.EventCounts{}, ErrEventNotFound
				}

				return domain.EventCounts{}, err
			}

			return *ec, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &counts, nil
}

func (s *Service) ListEventAreas(ctx context.Context, eventID int64) ([]domain.EventArea, error) {
	const op = "service.query.ListEventAreas"

	areas, err := s.store.Query().ListEventAreas(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return areas, nil
}

// ListEventSeats lists an event's seats with their state, optionally only
// the free ones. Pagination limits are clamped to the configured page sizes.
func (s *Service) ListEventSeats(
	ctx context.Context,
	eventID int64,
	onlyFree bool,
	limit, offset int,
) ([]domain.EventSeat, error) {
	const op = "service.query.ListEventSeats"

	limit, offset = s.page(limit, offset)

	// Only the unfiltered first page is cached; its key is the one
	// InvalidateEvent deletes when a booking changes. Filtered or paged
	// requests read postgres directly.
	if !onlyFree && offset == 0 && limit == s.cfg.DefaultSeatsPage {
		seats, err := redisrepo.GetOrSetJSON(
			ctx,
			s.cache,
			redisx.KeyEventSeatMap(eventID),
			s.cfg.AvailabilityTTL,
			func(ctx context.Context) ([]domain.EventSeat, error) {
				return s.store.Query().ListEventSeats(ctx, eventID, false, limit, 0)
			},
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		return seats, nil
	}

	seats, err := s.store.Query().ListEventSeats(ctx, eventID, onlyFree, limit, offset)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrEventNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return seats, nil
}

func (s *Service) ListEvents(ctx context.Context, limit, offset int) ([]domain.Event, error) {
	const op = "service.query.ListEvents"

	limit, offset = s.page(limit, offset)

	events, err := s.store.Query().ListEvents(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return events, nil
}

// GetVenue retrieves a venue.
//
// Returns:
//   - error: query.ErrVenueNotFound if the venue is not found.
func (s *Service) GetVenue(ctx context.Context, id int64) (*domain.Venue, error) {
	const op = "service.query.GetVenue"

	v, err := s.store.Query().GetVenue(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrVenueNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return v, nil
}

func (s *Service) ListVenues(ctx context.Context) ([]domain.Venue, error) {
	const op = "service.query.ListVenues"

	venues, err := s.store.Query().ListVenues(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return venues, nil
}

func (s *Service) ListLayouts(ctx context.Context, venueID int64) ([]domain.Layout, error) {
	const op = "service.query.ListLayouts"

	layouts, err := s.store.Query().ListLayouts(ctx, venueID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return layouts, nil
}

func (s *Service) ListAreas(ctx context.Context, layoutID int64) ([]domain.Area, error) {
	const op = "service.query.ListAreas"

	areas, err := s.store.Query().ListAreas(ctx, layoutID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return areas, nil
}

func (s *Service) ListSeats(ctx context.Context, areaID int64) ([]domain.Seat, error) {
	const op = "service.query.ListSeats"

	seats, err := s.store.Query().ListSeats(ctx, areaID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return seats, nil
}
