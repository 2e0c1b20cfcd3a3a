package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avereux/seatbook/internal/domain"
	"github.com/avereux/seatbook/internal/repository"
)

// fakeStore keeps seat states and tickets in memory and mimics the
// first-writer-wins semantics of the conditional seat update.
type fakeStore struct {
	mu      sync.Mutex
	seats   map[int64]domain.SeatState // event seat id -> state
	events  map[int64]int64            // event seat id -> event id
	tickets map[int64]domain.Ticket    // ticket id -> ticket
	nextID  int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		seats:   make(map[int64]domain.SeatState),
		events:  make(map[int64]int64),
		tickets: make(map[int64]domain.Ticket),
		nextID:  1,
	}
}

func (f *fakeStore) addSeat(seatID, eventID int64, state domain.SeatState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seats[seatID] = state
	f.events[seatID] = eventID
}

func (f *fakeStore) Purchase(ctx context.Context, t domain.Ticket) (*domain.Ticket, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	state, ok := f.seats[t.EventSeatID]
	if !ok {
		return nil, 0, repository.ErrNotFound
	}
	if state != domain.SeatFree {
		return nil, 0, repository.ErrSeatBooked
	}

	f.seats[t.EventSeatID] = domain.SeatBooked

	t.ID = f.nextID
	f.nextID++
	t.CreatedAt = time.Now()
	f.tickets[t.ID] = t

	return &t, f.events[t.EventSeatID], nil
}

func (f *fakeStore) Refund(ctx context.Context, ticketID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.tickets[ticketID]
	if !ok {
		return 0, repository.ErrNotFound
	}

	f.seats[t.EventSeatID] = domain.SeatFree
	delete(f.tickets, ticketID)

	return f.events[t.EventSeatID], nil
}

func (f *fakeStore) Delete(ctx context.Context, seatID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	state, ok := f.seats[seatID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	if state != domain.SeatFree {
		return 0, repository.ErrSeatBooked
	}

	eventID := f.events[seatID]
	delete(f.seats, seatID)
	delete(f.events, seatID)

	return eventID, nil
}

// ticketsFor counts live tickets referencing the seat.
func (f *fakeStore) ticketsFor(seatID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, t := range f.tickets {
		if t.EventSeatID == seatID {
			n++
		}
	}
	return n
}

type fakeInvalidator struct {
	mu     sync.Mutex
	events []int64
}

func (f *fakeInvalidator) InvalidateEvent(ctx context.Context, eventID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, eventID)
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []int64
}

func (f *fakePublisher) PublishEventChanged(ctx context.Context, eventID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, eventID)
	return nil
}

type fakeLimiter struct {
	allow bool
}

func (f *fakeLimiter) Allow(ctx context.Context, suffix string) (bool, int64, time.Duration, error) {
	if f.allow {
		return true, 1, 0, nil
	}
	return false, 11, time.Minute, nil
}

func newService(store *fakeStore) (*Service, *fakeInvalidator, *fakePublisher) {
	inv := &fakeInvalidator{}
	pub := &fakePublisher{}
	return New(store, store, inv, pub, nil), inv, pub
}

func TestPurchase(t *testing.T) {
	ctx := context.Background()

	t.Run("books a free seat and issues a ticket", func(t *testing.T) {
		store := newFakeStore()
		store.addSeat(10, 1, domain.SeatFree)
		svc, inv, pub := newService(store)

		ticket, err := svc.Purchase(ctx, domain.Ticket{
			EventSeatID: 10,
			UserID:      "u1",
			PriceCents:  2500,
		}, "")
		require.NoError(t, err)
		require.NotNil(t, ticket)
		assert.NotZero(t, ticket.ID)
		assert.Equal(t, "u1", ticket.UserID)

		assert.Equal(t, domain.SeatBooked, store.seats[10])
		assert.Equal(t, 1, store.ticketsFor(10))
		assert.Equal(t, []int64{1}, inv.events)
		assert.Equal(t, []int64{1}, pub.events)
	})

	t.Run("booked seat is rejected and nothing changes", func(t *testing.T) {
		store := newFakeStore()
		store.addSeat(10, 1, domain.SeatBooked)
		svc, inv, _ := newService(store)

		_, err := svc.Purchase(ctx, domain.Ticket{
			EventSeatID: 10,
			UserID:      "u1",
			PriceCents:  2500,
		}, "")
		require.ErrorIs(t, err, ErrSeatBooked)
		assert.Equal(t, 0, store.ticketsFor(10))
		assert.Empty(t, inv.events)
	})

	t.Run("unknown seat", func(t *testing.T) {
		store := newFakeStore()
		svc, _, _ := newService(store)

		_, err := svc.Purchase(ctx, domain.Ticket{
			EventSeatID: 404,
			UserID:      "u1",
		}, "")
		require.ErrorIs(t, err, ErrSeatNotFound)
	})

	t.Run("validation", func(t *testing.T) {
		store := newFakeStore()
		store.addSeat(10, 1, domain.SeatFree)
		svc, _, _ := newService(store)

		cases := []struct {
			name   string
			ticket domain.Ticket
		}{
			{"missing seat id", domain.Ticket{UserID: "u1"}},
			{"missing user", domain.Ticket{EventSeatID: 10}},
			{"negative price", domain.Ticket{EventSeatID: 10, UserID: "u1", PriceCents: -1}},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := svc.Purchase(ctx, tc.ticket, "")
				require.ErrorIs(t, err, ErrInvalidInput)
			})
		}

		// the seat is untouched after every rejected attempt
		assert.Equal(t, domain.SeatFree, store.seats[10])
	})

	t.Run("rate limited", func(t *testing.T) {
		store := newFakeStore()
		store.addSeat(10, 1, domain.SeatFree)
		svc := New(store, store, nil, nil, &fakeLimiter{allow: false})

		_, err := svc.Purchase(ctx, domain.Ticket{
			EventSeatID: 10,
			UserID:      "u1",
		}, "user:u1")
		require.ErrorIs(t, err, ErrRateLimited)
		assert.Equal(t, domain.SeatFree, store.seats[10])
	})
}

// Two concurrent purchases of the same free seat: exactly one wins, the
// loser sees ErrSeatBooked, and the seat ends up with exactly one ticket.
func TestPurchase_ConcurrentSameSeat(t *testing.T) {
	ctx := context.Background()

	store := newFakeStore()
	store.addSeat(10, 1, domain.SeatFree)
	svc, _, _ := newService(store)

	const buyers = 16

	var wg sync.WaitGroup
	errs := make([]error, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Purchase(ctx, domain.Ticket{
				EventSeatID: 10,
				UserID:      "buyer",
				PriceCents:  1000,
			}, "")
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
		} else {
			require.ErrorIs(t, err, ErrSeatBooked)
		}
	}

	assert.Equal(t, 1, won)
	assert.Equal(t, domain.SeatBooked, store.seats[10])
	assert.Equal(t, 1, store.ticketsFor(10))
}

func TestRefund(t *testing.T) {
	ctx := context.Background()

	t.Run("frees the seat and removes the ticket", func(t *testing.T) {
		store := newFakeStore()
		store.addSeat(10, 1, domain.SeatFree)
		svc, inv, _ := newService(store)

		ticket, err := svc.Purchase(ctx, domain.Ticket{
			EventSeatID: 10,
			UserID:      "u1",
			PriceCents:  1000,
		}, "")
		require.NoError(t, err)

		require.NoError(t, svc.Refund(ctx, ticket.ID))

		assert.Equal(t, domain.SeatFree, store.seats[10])
		assert.Equal(t, 0, store.ticketsFor(10))
		assert.Equal(t, []int64{1, 1}, inv.events)

		// the seat can be sold again
		_, err = svc.Purchase(ctx, domain.Ticket{
			EventSeatID: 10,
			UserID:      "u2",
			PriceCents:  1000,
		}, "")
		require.NoError(t, err)
	})

	t.Run("unknown ticket mutates nothing", func(t *testing.T) {
		store := newFakeStore()
		store.addSeat(10, 1, domain.SeatBooked)
		svc, inv, _ := newService(store)

		require.ErrorIs(t, svc.Refund(ctx, 99), ErrTicketNotFound)
		assert.Equal(t, domain.SeatBooked, store.seats[10])
		assert.Empty(t, inv.events)
	})

	t.Run("invalid id", func(t *testing.T) {
		svc, _, _ := newService(newFakeStore())
		require.ErrorIs(t, svc.Refund(ctx, 0), ErrInvalidInput)
	})
}

func TestEdit_AlwaysFails(t *testing.T) {
	store := newFakeStore()
	store.addSeat(10, 1, domain.SeatFree)
	svc, inv, pub := newService(store)

	ticket, err := svc.Purchase(context.Background(), domain.Ticket{
		EventSeatID: 10,
		UserID:      "u1",
		PriceCents:  1000,
	}, "")
	require.NoError(t, err)

	before := *ticket
	invBefore := len(inv.events)
	pubBefore := len(pub.events)

	err = svc.Edit(context.Background(), domain.Ticket{ID: ticket.ID, PriceCents: 9999})
	require.ErrorIs(t, err, ErrTicketImmutable)

	// the ticket and the seat are untouched
	assert.Equal(t, before, store.tickets[ticket.ID])
	assert.Equal(t, domain.SeatBooked, store.seats[10])
	assert.Len(t, inv.events, invBefore)
	assert.Len(t, pub.events, pubBefore)
}

func TestDeleteSeat(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes a free seat", func(t *testing.T) {
		store := newFakeStore()
		store.addSeat(10, 1, domain.SeatFree)
		svc, inv, _ := newService(store)

		require.NoError(t, svc.DeleteSeat(ctx, 10))
		_, exists := store.seats[10]
		assert.False(t, exists)
		assert.Equal(t, []int64{1}, inv.events)
	})

	t.Run("booked seat survives", func(t *testing.T) {
		store := newFakeStore()
		store.addSeat(10, 1, domain.SeatFree)
		svc, _, _ := newService(store)

		_, err := svc.Purchase(ctx, domain.Ticket{
			EventSeatID: 10,
			UserID:      "u1",
		}, "")
		require.NoError(t, err)

		require.ErrorIs(t, svc.DeleteSeat(ctx, 10), ErrSeatBooked)
		assert.Equal(t, domain.SeatBooked, store.seats[10])
		assert.Equal(t, 1, store.ticketsFor(10))
	})

	t.Run("unknown seat", func(t *testing.T) {
		svc, _, _ := newService(newFakeStore())
		require.ErrorIs(t, svc.DeleteSeat(ctx, 5), ErrSeatNotFound)
	})
}
