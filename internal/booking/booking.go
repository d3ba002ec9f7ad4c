package booking

import (
	"time"

	"github.com/Pedro4O4/event-ticketing/internal/layout"
)

// Status is the lifecycle state of a booking.  Bookings are created
// confirmed; cancellation releases their seats.
type Status string

const (
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

// SeatRequest addresses one seat a caller wants to book.
type SeatRequest struct {
	Section layout.Section `json:"section"`
	Row     string         `json:"row"`
	Number  int            `json:"seatNumber"`
}

// Key returns the request's seat key, e.g. "C12".
func (r SeatRequest) Key() string {
	return layout.SeatKey(r.Row, r.Number)
}

// BookedSeat is one entry of an event's booked-seat set.  A seat key may
// appear at most once per event and section; BookingID points at the
// booking that claimed it.
type BookedSeat struct {
	Section   layout.Section `json:"section"`
	Row       string         `json:"row"`
	Number    int            `json:"seatNumber"`
	BookingID uint64         `json:"bookingId"`
}

// SelectedSeat is the immutable record of one purchased seat.  The price is
// snapshotted from the event's pricing at allocation time and never
// recomputed.
type SelectedSeat struct {
	Section    layout.Section  `json:"section"`
	Row        string          `json:"row"`
	Number     int             `json:"seatNumber"`
	SeatType   layout.SeatType `json:"seatType"`
	PriceCents uint32          `json:"priceCents"`
}

// Key returns the selected seat's key.
func (s SelectedSeat) Key() string {
	return layout.SeatKey(s.Row, s.Number)
}

// Booking groups the seats (or plain ticket quantity) purchased in one
// request.  Seats is empty for events without theater seating.
type Booking struct {
	ID         uint64         `json:"id"`
	Reference  string         `json:"reference"`
	UserID     uint64         `json:"user_id"`
	EventID    uint64         `json:"event_id"`
	Status     Status         `json:"status"`
	Quantity   int            `json:"quantity"`
	TotalCents uint32         `json:"total_amount_cents"`
	Seats      []SelectedSeat `json:"seats,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// EventState is the booking-relevant snapshot of an event, read under the
// store's exclusive per-event access.  For seated events Layout, SeatConfig
// and Pricing describe the current configuration; Booked is the full
// booked-seat set.
type EventState struct {
	ID               uint64
	HasSeating       bool
	Layout           *layout.Layout
	SeatConfig       []layout.SeatOverride
	Pricing          map[layout.SeatType]uint32
	TicketPriceCents uint32
	Booked           []BookedSeat
	RemainingTickets int
}
