// Package booking implements seat allocation and release for events.  It is
// the only component that mutates an event's booked-seat set and remaining
// ticket counter, and it guarantees that no seat is ever booked twice for
// the same event.
package booking

import "errors"

// Sentinel errors surfaced to callers.  All are user-visible, non-fatal
// conditions; handlers translate them into HTTP responses.  Seat-specific
// failures are wrapped with the offending seat key so clients can refresh
// their seat map.
var (
	ErrEventNotFound        = errors.New("event not found")
	ErrBookingNotFound      = errors.New("booking not found")
	ErrSeatNotFound         = errors.New("seat not found")
	ErrSeatAlreadyBooked    = errors.New("seat already booked")
	ErrDuplicateSeatRequest = errors.New("duplicate seat in request")
	ErrSoldOut              = errors.New("sold out")
	ErrNoSeatsSelected      = errors.New("no seats selected")
	ErrEventNotSeated       = errors.New("event has no seat map")
	ErrInvalidQuantity      = errors.New("invalid ticket quantity")
	ErrPriceNotConfigured   = errors.New("no price configured for seat type")
)
