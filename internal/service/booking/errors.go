package booking

import "errors"

var (
	ErrNoEvent          = errors.New("no event selected")
	ErrInvalidSelection = errors.New("selected quantity is not available")
)

const (
	MsgConfirmed = "Booking confirmed successfully!"
	MsgFailed    = "Booking failed. Please try again."
)
