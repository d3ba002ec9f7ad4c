package booking

import "context"

// EventStore is the persistence collaborator the allocator runs against.
// WithTx must provide atomicity: every mutation made inside fn is applied
// iff fn returns nil, and GetEventForUpdate must hand back a snapshot that
// stays exclusive for the duration of the transaction (the SQL
// implementation locks the event row; the in-memory test store holds a
// mutex).  That exclusivity is what serializes concurrent allocations per
// event.
type EventStore interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	// GetEventForUpdate loads the event's booking state under exclusive
	// access.  Returns ErrEventNotFound when the event does not exist.
	GetEventForUpdate(ctx context.Context, eventID uint64) (*EventState, error)

	// CreateBooking persists the booking record and fills in its ID.
	CreateBooking(ctx context.Context, b *Booking) error

	// AddBookedSeats appends the booking's seats to the event's booked-seat
	// set.  Implementations should treat a uniqueness violation as
	// ErrSeatAlreadyBooked; the allocator has already checked membership,
	// so hitting it means a serialization bug at the storage layer.
	AddBookedSeats(ctx context.Context, eventID, bookingID uint64, seats []SelectedSeat) error

	// ReleaseBookedSeats removes every booked seat claimed by the booking
	// and reports how many were removed.
	ReleaseBookedSeats(ctx context.Context, eventID, bookingID uint64) (int, error)

	// SetRemainingTickets overwrites the event's remaining ticket counter.
	SetRemainingTickets(ctx context.Context, eventID uint64, remaining int) error

	// GetBookingForUpdate loads a booking under exclusive access.  Returns
	// ErrBookingNotFound when it does not exist.
	GetBookingForUpdate(ctx context.Context, bookingID uint64) (*Booking, error)

	// MarkCancelled flips the booking status to cancelled.
	MarkCancelled(ctx context.Context, bookingID uint64) error
}
