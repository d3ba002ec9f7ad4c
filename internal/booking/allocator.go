package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Pedro4O4/event-ticketing/internal/layout"
)

// Allocator validates and commits seat selections against an event.  All
// checks and writes for one call happen inside a single store transaction,
// so two concurrent attempts for overlapping seats cannot both pass the
// membership check.
type Allocator struct {
	store EventStore
}

// NewAllocator returns an Allocator bound to the given store.
func NewAllocator(store EventStore) *Allocator {
	if store == nil {
		panic("nil store passed to NewAllocator")
	}
	return &Allocator{store: store}
}

// AllocateInput describes one booking request.  Seats is used for events
// with theater seating; Quantity for counter-only events.
type AllocateInput struct {
	EventID  uint64
	UserID   uint64
	Seats    []SeatRequest
	Quantity int
}

// Allocate claims the requested seats (or ticket quantity) for a new
// booking and returns the created booking with its price snapshot.  On any
// failure nothing is committed.
func (a *Allocator) Allocate(ctx context.Context, in AllocateInput) (*Booking, error) {
	var out *Booking
	err := a.store.WithTx(ctx, func(ctx context.Context) error {
		ev, err := a.store.GetEventForUpdate(ctx, in.EventID)
		if err != nil {
			return err
		}
		if ev.HasSeating {
			out, err = a.allocateSeats(ctx, ev, in)
		} else {
			out, err = a.allocateQuantity(ctx, ev, in)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// allocateSeats is the seated path: every requested seat must resolve to an
// enumerable, bookable seat that nobody has claimed, and the request itself
// must not repeat a key.
func (a *Allocator) allocateSeats(ctx context.Context, ev *EventState, in AllocateInput) (*Booking, error) {
	if len(in.Seats) == 0 {
		return nil, ErrNoSeatsSelected
	}
	chart := layout.NewChart(ev.Layout, ev.SeatConfig)

	taken := make(map[SeatRequest]struct{}, len(ev.Booked))
	for _, b := range ev.Booked {
		taken[SeatRequest{Section: b.Section, Row: b.Row, Number: b.Number}] = struct{}{}
	}

	// Checks run as passes over the whole selection so the reported error
	// is stable: an unknown seat outranks a conflict, a conflict outranks a
	// repeated key, regardless of request order.
	for _, req := range in.Seats {
		if !chart.Bookable(req.Section, req.Key()) {
			return nil, fmt.Errorf("%s: %w", req.Key(), ErrSeatNotFound)
		}
	}
	for _, req := range in.Seats {
		if _, ok := taken[req]; ok {
			return nil, fmt.Errorf("%s: %w", req.Key(), ErrSeatAlreadyBooked)
		}
	}

	seen := make(map[SeatRequest]struct{}, len(in.Seats))
	selected := make([]SelectedSeat, 0, len(in.Seats))
	var total uint32
	for _, req := range in.Seats {
		key := req.Key()
		if _, ok := seen[req]; ok {
			return nil, fmt.Errorf("%s: %w", key, ErrDuplicateSeatRequest)
		}
		seen[req] = struct{}{}

		typ, _ := chart.SeatType(req.Section, key)
		price, ok := ev.Pricing[typ]
		if !ok {
			return nil, fmt.Errorf("%s: %w", typ, ErrPriceNotConfigured)
		}
		total += price
		selected = append(selected, SelectedSeat{
			Section:    req.Section,
			Row:        req.Row,
			Number:     req.Number,
			SeatType:   typ,
			PriceCents: price,
		})
	}

	remaining := ev.RemainingTickets - len(selected)
	if remaining < 0 {
		return nil, ErrSoldOut
	}

	b := &Booking{
		Reference:  uuid.NewString(),
		UserID:     in.UserID,
		EventID:    ev.ID,
		Status:     StatusConfirmed,
		Quantity:   len(selected),
		TotalCents: total,
		Seats:      selected,
		CreatedAt:  time.Now().UTC(),
	}
	if err := a.store.CreateBooking(ctx, b); err != nil {
		return nil, err
	}
	if err := a.store.AddBookedSeats(ctx, ev.ID, b.ID, selected); err != nil {
		return nil, err
	}
	if err := a.store.SetRemainingTickets(ctx, ev.ID, remaining); err != nil {
		return nil, err
	}
	return b, nil
}

// allocateQuantity is the counter-only path for events without theater
// seating: no seat bookkeeping, just the remaining-tickets guard.
func (a *Allocator) allocateQuantity(ctx context.Context, ev *EventState, in AllocateInput) (*Booking, error) {
	if len(in.Seats) > 0 {
		return nil, ErrEventNotSeated
	}
	if in.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	remaining := ev.RemainingTickets - in.Quantity
	if remaining < 0 {
		return nil, ErrSoldOut
	}
	b := &Booking{
		Reference:  uuid.NewString(),
		UserID:     in.UserID,
		EventID:    ev.ID,
		Status:     StatusConfirmed,
		Quantity:   in.Quantity,
		TotalCents: uint32(in.Quantity) * ev.TicketPriceCents,
		CreatedAt:  time.Now().UTC(),
	}
	if err := a.store.CreateBooking(ctx, b); err != nil {
		return nil, err
	}
	if err := a.store.SetRemainingTickets(ctx, ev.ID, remaining); err != nil {
		return nil, err
	}
	return b, nil
}

// Release cancels a booking: its booked seats are removed from the event
// and the remaining ticket counter is restored.  Releasing a booking that
// is already cancelled is a no-op, not an error.
func (a *Allocator) Release(ctx context.Context, eventID, bookingID uint64) error {
	return a.store.WithTx(ctx, func(ctx context.Context) error {
		b, err := a.store.GetBookingForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.EventID != eventID {
			return ErrBookingNotFound
		}
		if b.Status == StatusCancelled {
			return nil
		}
		ev, err := a.store.GetEventForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		released, err := a.store.ReleaseBookedSeats(ctx, eventID, bookingID)
		if err != nil {
			return err
		}
		restore := released
		if !ev.HasSeating {
			restore = b.Quantity
		}
		if err := a.store.SetRemainingTickets(ctx, eventID, ev.RemainingTickets+restore); err != nil {
			return err
		}
		return a.store.MarkCancelled(ctx, bookingID)
	})
}
