// Package service bundles the application services behind one constructor so
// the transport layer receives a single dependency.
package service

import (
	redisx "github.com/avereux/seatbook/internal/redis"
	postgresrepo "github.com/avereux/seatbook/internal/repository/postgres"
	redisrepo "github.com/avereux/seatbook/internal/repository/redis"
	"github.com/avereux/seatbook/internal/service/admin"
	"github.com/avereux/seatbook/internal/service/booking"
	"github.com/avereux/seatbook/internal/service/query"
	"github.com/avereux/seatbook/internal/service/tickets"
)

type Services struct {
	Admin   *admin.Service
	Booking *booking.Service
	Query   *query.Service
	Tickets *tickets.Service
}

// New wires the postgres repositories and redis infrastructure into the
// services. The limiter may be nil, in which case purchases are not
// rate limited.
func New(
	store *postgresrepo.Store,
	cache *redisrepo.Cache,
	pubsub *redisx.EventsPubSub,
	limiter booking.Limiter,
	queryCfg query.Config,
) *Services {
	return &Services{
		Admin: admin.New(
			store.Venues(),
			store.Layouts(),
			store.Areas(),
			store.Events(),
			cache,
			pubsub,
		),
		Booking: booking.New(
			store.Tickets(),
			store.EventSeats(),
			cache,
			pubsub,
			limiter,
		),
		Query:   query.New(store, cache, queryCfg),
		Tickets: tickets.New(store.Query()),
	}
}
