package postgres

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avereux/seatbook/internal/domain"
	"github.com/avereux/seatbook/internal/repository"
)

// These tests need a real database.
// Run with: INTEGRATION_TEST=true TEST_POSTGRES_DSN=postgres://... go test ./internal/repository/postgres/...

func newTestStore(t *testing.T) *Store {
	t.Helper()

	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run")
	}

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, pool.Ping(ctx))

	schema, err := os.ReadFile("../../../migrations/001_init.sql")
	require.NoError(t, err)

	_, err = pool.Exec(ctx, string(schema))
	require.NoError(t, err)

	return NewStore(pool)
}

type fixture struct {
	venueID int64
	eventID int64
	seats   []domain.EventSeat
}

// seedEvent builds a venue with one layout, one area and three seats, then
// schedules an event on it. Everything runs through one transaction so a
// broken seed never leaks rows.
func seedEvent(t *testing.T, store *Store) fixture {
	t.Helper()

	ctx := context.Background()
	stamp := time.Now().UnixNano()

	var fx fixture

	err := store.RunTx(ctx, nil, func(ctx context.Context, tx DB) error {
		venue, err := store.Venues().With(tx).Create(ctx, domain.Venue{
			Name: fmt.Sprintf("venue-%d", stamp),
		})
		if err != nil {
			return err
		}
		fx.venueID = venue.ID

		layout, err := store.Layouts().With(tx).Create(ctx, domain.Layout{
			VenueID: venue.ID,
			Name:    "main",
		})
		if err != nil {
			return err
		}

		area, err := store.Areas().With(tx).Create(ctx, domain.Area{
			LayoutID:    layout.ID,
			Description: "stalls",
		})
		if err != nil {
			return err
		}

		seats := []domain.Seat{
			{AreaID: area.ID, Row: 1, Number: 1},
			{AreaID: area.ID, Row: 1, Number: 2},
			{AreaID: area.ID, Row: 2, Number: 1},
		}
		if err := store.Areas().With(tx).CreateSeats(ctx, area.ID, seats); err != nil {
			return err
		}

		event, err := store.Events().With(tx).CreateWithSeats(ctx, domain.Event{
			LayoutID:       layout.ID,
			Name:           fmt.Sprintf("show-%d", stamp),
			BasePriceCents: 1000,
			Starts:         time.Now().Add(24 * time.Hour),
			Ends:           time.Now().Add(26 * time.Hour),
		})
		if err != nil {
			return err
		}
		fx.eventID = event.ID

		return nil
	})
	require.NoError(t, err)

	seats, err := store.Query().ListEventSeats(ctx, fx.eventID, false, 100, 0)
	require.NoError(t, err)
	require.Len(t, seats, 3)
	fx.seats = seats

	return fx
}

func TestPurchaseLifecycle_Integration(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	fx := seedEvent(t, store)
	seat := fx.seats[0]

	ticket, eventID, err := store.Tickets().Purchase(ctx, domain.Ticket{
		EventSeatID: seat.ID,
		UserID:      "u1",
		PriceCents:  1000,
	})
	require.NoError(t, err)
	assert.Equal(t, fx.eventID, eventID)
	assert.NotZero(t, ticket.ID)
	assert.False(t, ticket.CreatedAt.IsZero())

	counts, err := store.Query().CountsByState(ctx, fx.eventID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Booked)
	assert.Equal(t, int64(2), counts.Free)
	assert.Equal(t, int64(3), counts.Total)

	// the same seat cannot be sold twice
	_, _, err = store.Tickets().Purchase(ctx, domain.Ticket{
		EventSeatID: seat.ID,
		UserID:      "u2",
		PriceCents:  1000,
	})
	require.ErrorIs(t, err, repository.ErrSeatBooked)

	// refund frees the seat for resale
	refundEventID, err := store.Tickets().Refund(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, fx.eventID, refundEventID)

	counts, err = store.Query().CountsByState(ctx, fx.eventID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), counts.Booked)

	_, _, err = store.Tickets().Purchase(ctx, domain.Ticket{
		EventSeatID: seat.ID,
		UserID:      "u2",
		PriceCents:  1000,
	})
	require.NoError(t, err)
}

// Concurrent purchases of one free seat: exactly one commits, every loser
// sees the booked conflict. Serialization aborts are retried inside
// Purchase, so they never surface here.
func TestPurchase_Concurrent_Integration(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	fx := seedEvent(t, store)
	seat := fx.seats[1]

	const buyers = 8

	var wg sync.WaitGroup
	errs := make([]error, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = store.Tickets().Purchase(ctx, domain.Ticket{
				EventSeatID: seat.ID,
				UserID:      fmt.Sprintf("buyer-%d", i),
				PriceCents:  1000,
			})
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
			continue
		}
		require.ErrorIs(t, err, repository.ErrSeatBooked)
	}
	assert.Equal(t, 1, won)

	var tickets int64
	err := store.pool.QueryRow(ctx,
		`SELECT count(*) FROM tickets WHERE event_seat_id = $1`, seat.ID,
	).Scan(&tickets)
	require.NoError(t, err)
	assert.Equal(t, int64(1), tickets)
}

func TestVenueNameUnique_Integration(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	name := fmt.Sprintf("venue-%d", time.Now().UnixNano())

	_, err := store.Venues().Create(ctx, domain.Venue{Name: name})
	require.NoError(t, err)

	_, err = store.Venues().Create(ctx, domain.Venue{Name: name})
	require.ErrorIs(t, err, repository.ErrConflict)
}

func TestVenueCascade_Integration(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	fx := seedEvent(t, store)

	ticket, _, err := store.Tickets().Purchase(ctx, domain.Ticket{
		EventSeatID: fx.seats[0].ID,
		UserID:      "u1",
		PriceCents:  1000,
	})
	require.NoError(t, err)

	// a booked seat anywhere below blocks the whole cascade
	_, err = store.Venues().DeleteCascade(ctx, fx.venueID)
	require.ErrorIs(t, err, repository.ErrSeatsBooked)

	// nothing was removed
	_, err = store.Query().GetEvent(ctx, fx.eventID)
	require.NoError(t, err)

	_, err = store.Tickets().Refund(ctx, ticket.ID)
	require.NoError(t, err)

	events, err := store.Venues().DeleteCascade(ctx, fx.venueID)
	require.NoError(t, err)
	assert.Equal(t, []int64{fx.eventID}, events)

	_, err = store.Query().GetEvent(ctx, fx.eventID)
	require.ErrorIs(t, err, repository.ErrNotFound)

	_, err = store.Query().GetVenue(ctx, fx.venueID)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestEventSeatDelete_Integration(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	fx := seedEvent(t, store)

	// free seats go away
	eventID, err := store.EventSeats().Delete(ctx, fx.seats[2].ID)
	require.NoError(t, err)
	assert.Equal(t, fx.eventID, eventID)

	// booked seats stay
	_, _, err = store.Tickets().Purchase(ctx, domain.Ticket{
		EventSeatID: fx.seats[0].ID,
		UserID:      "u1",
		PriceCents:  1000,
	})
	require.NoError(t, err)

	_, err = store.EventSeats().Delete(ctx, fx.seats[0].ID)
	require.ErrorIs(t, err, repository.ErrSeatBooked)
}
