package httpgin

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avereux/seatbook/internal/domain"
	"github.com/avereux/seatbook/internal/repository"
	"github.com/avereux/seatbook/internal/service"
	"github.com/avereux/seatbook/internal/service/admin"
	"github.com/avereux/seatbook/internal/service/booking"
	"github.com/avereux/seatbook/internal/service/tickets"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

// seatStore backs the booking service with in-memory seats and tickets.
type seatStore struct {
	mu      sync.Mutex
	seats   map[int64]domain.SeatState
	tickets map[int64]domain.Ticket
	nextID  int64
}

func newSeatStore() *seatStore {
	return &seatStore{
		seats:   map[int64]domain.SeatState{},
		tickets: map[int64]domain.Ticket{},
		nextID:  1,
	}
}

func (s *seatStore) Purchase(ctx context.Context, t domain.Ticket) (*domain.Ticket, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.seats[t.EventSeatID]
	if !ok {
		return nil, 0, repository.ErrNotFound
	}
	if state != domain.SeatFree {
		return nil, 0, repository.ErrSeatBooked
	}

	s.seats[t.EventSeatID] = domain.SeatBooked
	t.ID = s.nextID
	s.nextID++
	t.CreatedAt = time.Now()
	s.tickets[t.ID] = t

	return &t, 1, nil
}

func (s *seatStore) Refund(ctx context.Context, ticketID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tickets[ticketID]
	if !ok {
		return 0, repository.ErrNotFound
	}

	s.seats[t.EventSeatID] = domain.SeatFree
	delete(s.tickets, ticketID)

	return 1, nil
}

func (s *seatStore) Delete(ctx context.Context, seatID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.seats[seatID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	if state != domain.SeatFree {
		return 0, repository.ErrSeatBooked
	}

	delete(s.seats, seatID)
	return 1, nil
}

func (s *seatStore) GetTicket(ctx context.Context, id int64) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (s *seatStore) ListTicketsByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Ticket
	for _, t := range s.tickets {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

// venueStore answers the admin service with canned results.
type venueStore struct {
	deleteErr error
}

func (s *venueStore) Create(ctx context.Context, v domain.Venue) (*domain.Venue, error) {
	v.ID = 1
	return &v, nil
}

func (s *venueStore) Update(ctx context.Context, v domain.Venue) error { return nil }

func (s *venueStore) DeleteCascade(ctx context.Context, id int64) ([]int64, error) {
	if s.deleteErr != nil {
		return nil, s.deleteErr
	}
	return nil, nil
}

type nopLayoutStore struct{}

func (nopLayoutStore) Create(ctx context.Context, l domain.Layout) (*domain.Layout, error) {
	l.ID = 1
	return &l, nil
}
func (nopLayoutStore) Update(ctx context.Context, l domain.Layout) error { return nil }
func (nopLayoutStore) DeleteCascade(ctx context.Context, id int64) ([]int64, error) {
	return nil, nil
}

type nopAreaStore struct{}

func (nopAreaStore) Create(ctx context.Context, a domain.Area) (*domain.Area, error) {
	a.ID = 1
	return &a, nil
}
func (nopAreaStore) Update(ctx context.Context, a domain.Area) error { return nil }
func (nopAreaStore) DeleteCascade(ctx context.Context, id int64) ([]int64, error) {
	return nil, nil
}
func (nopAreaStore) CreateSeats(ctx context.Context, areaID int64, seats []domain.Seat) error {
	return nil
}
func (nopAreaStore) DeleteSeat(ctx context.Context, seatID int64) error { return nil }

type nopEventStore struct{}

func (nopEventStore) CreateWithSeats(ctx context.Context, e domain.Event) (*domain.Event, error) {
	e.ID = 1
	return &e, nil
}
func (nopEventStore) Update(ctx context.Context, e domain.Event) error  { return nil }
func (nopEventStore) DeleteCascade(ctx context.Context, id int64) error { return nil }

type testEnv struct {
	router *gin.Engine
	store  *seatStore
	venues *venueStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := newSeatStore()
	venues := &venueStore{}

	svcs := &service.Services{
		Admin:   admin.New(venues, nopLayoutStore{}, nopAreaStore{}, nopEventStore{}, nil, nil),
		Booking: booking.New(store, store, nil, nil, nil),
		Tickets: tickets.New(store),
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewRouter(svcs, nil, logger, Config{JWTSecret: testSecret})

	return &testEnv{router: router, store: store, venues: venues}
}

func signToken(t *testing.T, sub, role string) string {
	t.Helper()

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
		"iat":  time.Now().Unix(),
	})
	signed, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func doJSON(env *testEnv, method, path, token string, body any) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	w := doJSON(env, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPurchaseEndpoint(t *testing.T) {
	t.Run("requires a token", func(t *testing.T) {
		env := newTestEnv(t)
		w := doJSON(env, http.MethodPost, "/tickets", "", PurchaseTicketRequest{EventSeatID: 10})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("books a free seat", func(t *testing.T) {
		env := newTestEnv(t)
		env.store.seats[10] = domain.SeatFree
		token := signToken(t, "u1", RoleUser)

		w := doJSON(env, http.MethodPost, "/tickets", token, PurchaseTicketRequest{
			EventSeatID: 10,
			PriceCents:  1500,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var resp TicketResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, int64(10), resp.EventSeatID)
		assert.Equal(t, "u1", resp.UserID)
		assert.NotZero(t, resp.ID)
	})

	t.Run("second purchase of the same seat conflicts", func(t *testing.T) {
		env := newTestEnv(t)
		env.store.seats[10] = domain.SeatFree
		token := signToken(t, "u1", RoleUser)

		w := doJSON(env, http.MethodPost, "/tickets", token, PurchaseTicketRequest{EventSeatID: 10})
		require.Equal(t, http.StatusCreated, w.Code)

		w = doJSON(env, http.MethodPost, "/tickets", token, PurchaseTicketRequest{EventSeatID: 10})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("unknown seat is 404", func(t *testing.T) {
		env := newTestEnv(t)
		token := signToken(t, "u1", RoleUser)

		w := doJSON(env, http.MethodPost, "/tickets", token, PurchaseTicketRequest{EventSeatID: 404})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("bad payload is 400", func(t *testing.T) {
		env := newTestEnv(t)
		token := signToken(t, "u1", RoleUser)

		w := doJSON(env, http.MethodPost, "/tickets", token, map[string]any{"event_seat_id": 0})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestTicketLifecycleEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.store.seats[10] = domain.SeatFree
	token := signToken(t, "u1", RoleUser)

	w := doJSON(env, http.MethodPost, "/tickets", token, PurchaseTicketRequest{EventSeatID: 10, PriceCents: 900})
	require.Equal(t, http.StatusCreated, w.Code)

	var bought TicketResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bought))

	t.Run("edit is method not allowed", func(t *testing.T) {
		w := doJSON(env, http.MethodPut, "/tickets/1", token, map[string]any{"price_cents": 1})
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})

	t.Run("owner reads the ticket", func(t *testing.T) {
		w := doJSON(env, http.MethodGet, "/tickets/1", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("another user cannot see it", func(t *testing.T) {
		other := signToken(t, "u2", RoleUser)
		w := doJSON(env, http.MethodGet, "/tickets/1", other, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("own ticket listing", func(t *testing.T) {
		w := doJSON(env, http.MethodGet, "/users/u1/tickets", token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var ts []TicketResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ts))
		assert.Len(t, ts, 1)
	})

	t.Run("listing another user's tickets is forbidden", func(t *testing.T) {
		w := doJSON(env, http.MethodGet, "/users/u2/tickets", token, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("another user cannot refund it", func(t *testing.T) {
		other := signToken(t, "u2", RoleUser)
		w := doJSON(env, http.MethodDelete, "/tickets/1", other, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, domain.SeatBooked, env.store.seats[10])
	})

	t.Run("refund frees the seat", func(t *testing.T) {
		w := doJSON(env, http.MethodDelete, "/tickets/1", token, nil)
		require.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, domain.SeatFree, env.store.seats[10])
	})

	t.Run("refunding again is 404", func(t *testing.T) {
		w := doJSON(env, http.MethodDelete, "/tickets/1", token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestAdminRoleGating(t *testing.T) {
	venueReq := CreateVenueRequest{Name: "Grand Hall"}

	t.Run("plain user is forbidden", func(t *testing.T) {
		env := newTestEnv(t)
		token := signToken(t, "u1", RoleUser)
		w := doJSON(env, http.MethodPost, "/admin/venues", token, venueReq)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("venue manager creates venues", func(t *testing.T) {
		env := newTestEnv(t)
		token := signToken(t, "m1", RoleVenueManager)
		w := doJSON(env, http.MethodPost, "/admin/venues", token, venueReq)
		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	})

	t.Run("venue manager cannot touch events", func(t *testing.T) {
		env := newTestEnv(t)
		token := signToken(t, "m1", RoleVenueManager)
		w := doJSON(env, http.MethodDelete, "/admin/events/1", token, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("event manager deletes events", func(t *testing.T) {
		env := newTestEnv(t)
		token := signToken(t, "m2", RoleEventManager)
		w := doJSON(env, http.MethodDelete, "/admin/events/1", token, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("admin passes every gate", func(t *testing.T) {
		env := newTestEnv(t)
		token := signToken(t, "root", RoleAdmin)

		w := doJSON(env, http.MethodPost, "/admin/venues", token, venueReq)
		assert.Equal(t, http.StatusCreated, w.Code)

		w = doJSON(env, http.MethodDelete, "/admin/events/1", token, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("guarded venue delete surfaces 409", func(t *testing.T) {
		env := newTestEnv(t)
		env.venues.deleteErr = repository.ErrSeatsBooked
		token := signToken(t, "m1", RoleVenueManager)

		w := doJSON(env, http.MethodDelete, "/admin/venues/1", token, nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("event manager deletes free event seats", func(t *testing.T) {
		env := newTestEnv(t)
		env.store.seats[10] = domain.SeatFree
		token := signToken(t, "m2", RoleEventManager)

		w := doJSON(env, http.MethodDelete, "/admin/event-seats/10", token, nil)
		require.Equal(t, http.StatusNoContent, w.Code)

		// a booked seat stays
		env.store.seats[11] = domain.SeatBooked
		w = doJSON(env, http.MethodDelete, "/admin/event-seats/11", token, nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}
