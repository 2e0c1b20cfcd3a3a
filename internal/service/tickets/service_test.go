package tickets

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avereux/seatbook/internal/domain"
	"github.com/avereux/seatbook/internal/repository"
)

type fakeReader struct {
	tickets map[int64]domain.Ticket

	gotLimit  int
	gotOffset int
}

func (f *fakeReader) GetTicket(ctx context.Context, id int64) (*domain.Ticket, error) {
	t, ok := f.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (f *fakeReader) ListTicketsByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Ticket, error) {
	f.gotLimit = limit
	f.gotOffset = offset

	var out []domain.Ticket
	for _, t := range f.tickets {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	store := &fakeReader{tickets: map[int64]domain.Ticket{
		1: {ID: 1, EventSeatID: 10, UserID: "u1", PriceCents: 500, CreatedAt: time.Now()},
	}}
	svc := New(store)

	t.Run("ok", func(t *testing.T) {
		got, err := svc.Get(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "u1", got.UserID)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := svc.Get(ctx, 2)
		require.ErrorIs(t, err, ErrTicketNotFound)
	})

	t.Run("invalid id", func(t *testing.T) {
		_, err := svc.Get(ctx, 0)
		require.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestListByUser(t *testing.T) {
	ctx := context.Background()
	store := &fakeReader{tickets: map[int64]domain.Ticket{
		1: {ID: 1, UserID: "u1"},
		2: {ID: 2, UserID: "u2"},
		3: {ID: 3, UserID: "u1"},
	}}
	svc := New(store)

	t.Run("only the caller's tickets", func(t *testing.T) {
		ts, err := svc.ListByUser(ctx, "u1", 0, 0)
		require.NoError(t, err)
		assert.Len(t, ts, 2)
	})

	t.Run("limits are defaulted and clamped", func(t *testing.T) {
		_, err := svc.ListByUser(ctx, "u1", 0, -5)
		require.NoError(t, err)
		assert.Equal(t, 50, store.gotLimit)
		assert.Equal(t, 0, store.gotOffset)

		_, err = svc.ListByUser(ctx, "u1", 10000, 0)
		require.NoError(t, err)
		assert.Equal(t, 200, store.gotLimit)
	})

	t.Run("empty user", func(t *testing.T) {
		_, err := svc.ListByUser(ctx, "  ", 0, 0)
		require.ErrorIs(t, err, ErrInvalidInput)
	})
}
