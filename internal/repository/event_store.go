package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Pedro4O4/event-ticketing/internal/booking"
	"github.com/Pedro4O4/event-ticketing/internal/layout"
)

// EventStore backs the booking allocator with MySQL.  All methods expect to
// run inside WithTx; GetEventForUpdate locks the event row so remaining
// ticket updates are serialized per event, and the unique index on
// booking_seats (event_id, section, row_label, seat_number) rejects a seat
// claimed by a concurrent transaction.
type EventStore struct {
	db *sql.DB
}

func NewEventStore(db *sql.DB) *EventStore { return &EventStore{db: db} }

var _ booking.EventStore = (*EventStore)(nil)

// WithTx runs fn inside a transaction carried through the context.
func (s *EventStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, s.db, fn)
}

// GetEventForUpdate loads the event's booking snapshot under a row lock.
func (s *EventStore) GetEventForUpdate(ctx context.Context, eventID uint64) (*booking.EventState, error) {
	const q = `SELECT id, has_seating, layout, seat_config, seat_pricing,
	                  ticket_price_cents, remaining_tickets
	           FROM events WHERE id = ? AND status = 'APPROVED' FOR UPDATE`
	var ev booking.EventState
	var layoutRaw, cfgRaw, pricingRaw []byte
	err := conn(ctx, s.db).QueryRowContext(ctx, q, eventID).Scan(
		&ev.ID, &ev.HasSeating, &layoutRaw, &cfgRaw, &pricingRaw,
		&ev.TicketPriceCents, &ev.RemainingTickets)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrEventNotFound
		}
		return nil, err
	}
	if !ev.HasSeating {
		return &ev, nil
	}
	if err := decodeSeating(&ev, layoutRaw, cfgRaw, pricingRaw); err != nil {
		return nil, err
	}
	booked, err := s.bookedSeats(ctx, eventID)
	if err != nil {
		return nil, err
	}
	ev.Booked = booked
	return &ev, nil
}

func decodeSeating(ev *booking.EventState, layoutRaw, cfgRaw, pricingRaw []byte) error {
	var l layout.Layout
	if err := json.Unmarshal(layoutRaw, &l); err != nil {
		return fmt.Errorf("decode layout of event %d: %w", ev.ID, err)
	}
	ev.Layout = &l
	if len(cfgRaw) > 0 {
		if err := json.Unmarshal(cfgRaw, &ev.SeatConfig); err != nil {
			return fmt.Errorf("decode seat config of event %d: %w", ev.ID, err)
		}
	}
	if len(pricingRaw) > 0 {
		if err := json.Unmarshal(pricingRaw, &ev.Pricing); err != nil {
			return fmt.Errorf("decode seat pricing of event %d: %w", ev.ID, err)
		}
	}
	return nil
}

func (s *EventStore) bookedSeats(ctx context.Context, eventID uint64) ([]booking.BookedSeat, error) {
	const q = `SELECT bs.section, bs.row_label, bs.seat_number, bs.booking_id
	           FROM booking_seats bs
	           JOIN bookings b ON b.id = bs.booking_id
	           WHERE bs.event_id = ? AND b.status = 'CONFIRMED'`
	rows, err := conn(ctx, s.db).QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seats := make([]booking.BookedSeat, 0)
	for rows.Next() {
		var bs booking.BookedSeat
		if err := rows.Scan(&bs.Section, &bs.Row, &bs.Number, &bs.BookingID); err != nil {
			return nil, err
		}
		seats = append(seats, bs)
	}
	return seats, rows.Err()
}

// CreateBooking inserts the booking row and fills in its ID and timestamp.
func (s *EventStore) CreateBooking(ctx context.Context, b *booking.Booking) error {
	const ins = `INSERT INTO bookings (reference, user_id, event_id, status, quantity, total_amount_cents)
	             VALUES (?,?,?,?,?,?)`
	res, err := conn(ctx, s.db).ExecContext(ctx, ins,
		b.Reference, b.UserID, b.EventID, string(b.Status), b.Quantity, b.TotalCents)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	b.CreatedAt = time.Now().UTC()
	return nil
}

// AddBookedSeats claims seats for a booking with one multi-row INSERT.  A
// duplicate-key error means another transaction already holds one of the
// seats.
func (s *EventStore) AddBookedSeats(ctx context.Context, eventID, bookingID uint64, seats []booking.SelectedSeat) error {
	if len(seats) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT INTO booking_seats (event_id, booking_id, section, row_label, seat_number, seat_type, price_cents) VALUES `)
	args := make([]interface{}, 0, len(seats)*7)
	for i, seat := range seats {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?,?,?,?,?,?,?)")
		args = append(args, eventID, bookingID, string(seat.Section), seat.Row, seat.Number, string(seat.SeatType), seat.PriceCents)
	}
	if _, err := conn(ctx, s.db).ExecContext(ctx, sb.String(), args...); err != nil {
		if isDuplicateEntry(err) {
			return booking.ErrSeatAlreadyBooked
		}
		return err
	}
	return nil
}

// ReleaseBookedSeats deletes a booking's seats and reports how many were
// held.
func (s *EventStore) ReleaseBookedSeats(ctx context.Context, eventID, bookingID uint64) (int, error) {
	res, err := conn(ctx, s.db).ExecContext(ctx,
		`DELETE FROM booking_seats WHERE event_id = ? AND booking_id = ?`, eventID, bookingID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// SetRemainingTickets writes the event's remaining ticket counter.
func (s *EventStore) SetRemainingTickets(ctx context.Context, eventID uint64, remaining int) error {
	_, err := conn(ctx, s.db).ExecContext(ctx,
		`UPDATE events SET remaining_tickets = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		remaining, eventID)
	return err
}

// GetBookingForUpdate locks and returns a booking row for cancellation.
func (s *EventStore) GetBookingForUpdate(ctx context.Context, bookingID uint64) (*booking.Booking, error) {
	const q = `SELECT id, reference, user_id, event_id, status, quantity, total_amount_cents, created_at
	           FROM bookings WHERE id = ? FOR UPDATE`
	var b booking.Booking
	var status string
	err := conn(ctx, s.db).QueryRowContext(ctx, q, bookingID).Scan(
		&b.ID, &b.Reference, &b.UserID, &b.EventID, &status, &b.Quantity, &b.TotalCents, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, err
	}
	b.Status = booking.Status(status)
	return &b, nil
}

// MarkCancelled flips a booking's status to cancelled.
func (s *EventStore) MarkCancelled(ctx context.Context, bookingID uint64) error {
	res, err := conn(ctx, s.db).ExecContext(ctx,
		`UPDATE bookings SET status = 'CANCELLED', updated_at = CURRENT_TIMESTAMP WHERE id = ?`, bookingID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return booking.ErrBookingNotFound
	}
	return nil
}
