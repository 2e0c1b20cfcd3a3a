package repository

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrReferenced  = errors.New("still referenced")
	ErrSeatBooked  = errors.New("seat already booked")
	ErrSeatsBooked = errors.New("booked seats in subtree")
)
