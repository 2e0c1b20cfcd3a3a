package booking

import "errors"

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrSeatNotFound    = errors.New("event seat not found")
	ErrSeatBooked      = errors.New("seat already booked")
	ErrTicketNotFound  = errors.New("ticket not found")
	ErrTicketImmutable = errors.New("tickets cannot be edited, refund and purchase again")
	ErrRateLimited     = errors.New("rate limited")
)
