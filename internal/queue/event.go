// Package queue defines message payloads exchanged over the message broker
// and the background consumer that records them.
package queue

// BookingConfirmedEvent is published after a booking commits.  It carries
// enough detail for downstream consumers to log or notify without querying
// the primary database.
type BookingConfirmedEvent struct {
	BookingID        uint64   `json:"booking_id"`
	Reference        string   `json:"reference"`
	UserID           uint64   `json:"user_id"`
	EventID          uint64   `json:"event_id"`
	EventTitle       string   `json:"event_title"`
	Venue            string   `json:"venue,omitempty"`
	StartsAt         string   `json:"starts_at"`
	SeatLabels       []string `json:"seats"`
	Quantity         int      `json:"quantity"`
	TotalAmountCents uint32   `json:"total_amount_cents"`
	ConfirmedAt      string   `json:"confirmed_at"`
}

// BookingCancelledEvent is published after a cancellation releases its seats.
type BookingCancelledEvent struct {
	BookingID   uint64   `json:"booking_id"`
	Reference   string   `json:"reference"`
	UserID      uint64   `json:"user_id"`
	EventID     uint64   `json:"event_id"`
	SeatLabels  []string `json:"seats"`
	Quantity    int      `json:"quantity"`
	CancelledAt string   `json:"cancelled_at"`
}
