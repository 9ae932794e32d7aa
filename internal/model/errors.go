package model

import "errors"

// Domain errors shared across the booking core. Callers match them with
// errors.Is; each one maps to a distinct user-facing message.
var (
	ErrSlotUnavailable          = errors.New("slot is not in the mentor's availability")
	ErrSlotConflict             = errors.New("slot is already taken")
	ErrNotFound                 = errors.New("booking not found")
	ErrInvalidTransition        = errors.New("invalid booking state transition")
	ErrUnauthorized             = errors.New("caller is not a party to this booking")
	ErrCancellationWindowClosed = errors.New("cancellation window has closed")
	ErrInvalidTimeGranularity   = errors.New("start time does not match the slot granularity")
)

// UserMessage returns the actionable message shown to the end user for a
// domain error. Unrecognized errors get a generic fallback; domain errors
// never do.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrSlotUnavailable):
		return "That time is not offered by this mentor. Please pick another slot."
	case errors.Is(err, ErrSlotConflict):
		return "That slot was just booked by someone else. Please pick another time."
	case errors.Is(err, ErrNotFound):
		return "Booking not found."
	case errors.Is(err, ErrInvalidTransition):
		return "This booking can no longer be changed."
	case errors.Is(err, ErrUnauthorized):
		return "You do not have permission to modify this booking."
	case errors.Is(err, ErrCancellationWindowClosed):
		return "Sessions can no longer be cancelled this close to the start time."
	case errors.Is(err, ErrInvalidTimeGranularity):
		return "Start times must fall on the schedule grid within working hours."
	default:
		return "Something went wrong. Please try again."
	}
}
