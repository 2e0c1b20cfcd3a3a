package admin

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrNameTaken    = errors.New("name already taken in parent scope")
	ErrInUse        = errors.New("referenced by existing records")
	ErrSeatsBooked  = errors.New("subtree has booked seats")
)
