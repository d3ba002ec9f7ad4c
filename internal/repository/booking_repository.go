package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// BookingDetail is a booking joined with its event info and the seats it
// holds, shaped for display to customers.
type BookingDetail struct {
	ID               uint64       `json:"id"`
	Reference        string       `json:"reference"`
	EventID          uint64       `json:"event_id"`
	EventTitle       string       `json:"event_title"`
	Venue            string       `json:"venue,omitempty"`
	StartsAt         time.Time    `json:"starts_at"`
	Status           string       `json:"status"`
	Quantity         int          `json:"quantity"`
	TotalAmountCents uint32       `json:"total_amount_cents"`
	Seats            []BookedSeat `json:"seats"`
	CreatedAt        time.Time    `json:"created_at"`
}

// BookedSeat is one seat line on a booking.
type BookedSeat struct {
	Section    string `json:"section"`
	RowLabel   string `json:"row_label"`
	SeatNumber int    `json:"seat_number"`
	SeatType   string `json:"seat_type"`
	PriceCents uint32 `json:"price_cents"`
}

// ErrBookingNotFound is returned when a booking lookup yields no rows or
// the caller does not own the booking.
var ErrBookingNotFound = errors.New("booking not found")

// BookingRepo reads bookings for display.  Writes go through the allocator's
// store so counter updates and seat inserts stay in one transaction.
type BookingRepo struct {
	db *sql.DB
}

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingDetailColumns = `b.id, b.reference, b.event_id, e.title, e.venue, e.starts_at,
	b.status, b.quantity, b.total_amount_cents, b.created_at`

func scanBookingDetail(scan func(dest ...any) error) (*BookingDetail, error) {
	var d BookingDetail
	var venue sql.NullString
	err := scan(&d.ID, &d.Reference, &d.EventID, &d.EventTitle, &venue, &d.StartsAt,
		&d.Status, &d.Quantity, &d.TotalAmountCents, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	d.Venue = venue.String
	d.Seats = make([]BookedSeat, 0)
	return &d, nil
}

// ListByUser returns the user's bookings newest first, each with its seats.
// Seats for all bookings are fetched in a single IN query.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]*BookingDetail, error) {
	const q = `SELECT ` + bookingDetailColumns + `
	           FROM bookings b
	           JOIN events e ON e.id = b.event_id
	           WHERE b.user_id = ?
	           ORDER BY b.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]*BookingDetail, 0)
	for rows.Next() {
		d, err := scanBookingDetail(rows.Scan)
		if err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return details, nil
	}
	if err := r.attachSeats(ctx, details); err != nil {
		return nil, err
	}
	return details, nil
}

// attachSeats loads seats for every booking in details with one query and
// distributes them onto the matching bookings.
func (r *BookingRepo) attachSeats(ctx context.Context, details []*BookingDetail) error {
	ids := make([]interface{}, 0, len(details))
	placeholders := make([]string, 0, len(details))
	byID := make(map[uint64]*BookingDetail, len(details))
	for _, d := range details {
		ids = append(ids, d.ID)
		placeholders = append(placeholders, "?")
		byID[d.ID] = d
	}
	seatQuery := `SELECT booking_id, section, row_label, seat_number, seat_type, price_cents
	              FROM booking_seats
	              WHERE booking_id IN (` + strings.Join(placeholders, ",") + `)
	              ORDER BY booking_id, section, row_label, seat_number`
	srows, err := r.db.QueryContext(ctx, seatQuery, ids...)
	if err != nil {
		return err
	}
	defer srows.Close()
	for srows.Next() {
		var bookingID uint64
		var s BookedSeat
		if err := srows.Scan(&bookingID, &s.Section, &s.RowLabel, &s.SeatNumber, &s.SeatType, &s.PriceCents); err != nil {
			return err
		}
		if d, ok := byID[bookingID]; ok {
			d.Seats = append(d.Seats, s)
		}
	}
	return srows.Err()
}

// GetByIDForUser returns one booking with seats, scoped to the owning user.
func (r *BookingRepo) GetByIDForUser(ctx context.Context, id, userID uint64) (*BookingDetail, error) {
	const q = `SELECT ` + bookingDetailColumns + `
	           FROM bookings b
	           JOIN events e ON e.id = b.event_id
	           WHERE b.id = ? AND b.user_id = ?`
	d, err := scanBookingDetail(r.db.QueryRowContext(ctx, q, id, userID).Scan)
	if err != nil {
		return nil, err
	}
	if err := r.attachSeats(ctx, []*BookingDetail{d}); err != nil {
		return nil, err
	}
	return d, nil
}

// ListByEventForOrganizer returns bookings on an event, restricted to the
// event's organizer.  Returns ErrForbidden when someone else's event is
// requested, ErrEventNotFound when the event does not exist.
func (r *BookingRepo) ListByEventForOrganizer(ctx context.Context, eventID, organizerID uint64) ([]*BookingDetail, error) {
	var owner uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT organizer_id FROM events WHERE id = ?`, eventID).Scan(&owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	if owner != organizerID {
		return nil, ErrForbidden
	}
	const q = `SELECT ` + bookingDetailColumns + `
	           FROM bookings b
	           JOIN events e ON e.id = b.event_id
	           WHERE b.event_id = ?
	           ORDER BY b.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]*BookingDetail, 0)
	for rows.Next() {
		d, err := scanBookingDetail(rows.Scan)
		if err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return details, nil
	}
	if err := r.attachSeats(ctx, details); err != nil {
		return nil, err
	}
	return details, nil
}

// ListBookedSeats returns the occupied (confirmed) seats of an event for
// availability rendering.
func (r *BookingRepo) ListBookedSeats(ctx context.Context, eventID uint64) ([]BookedSeat, error) {
	const q = `SELECT bs.section, bs.row_label, bs.seat_number, bs.seat_type, bs.price_cents
	           FROM booking_seats bs
	           JOIN bookings b ON b.id = bs.booking_id
	           WHERE bs.event_id = ? AND b.status = 'CONFIRMED'
	           ORDER BY bs.section, bs.row_label, bs.seat_number`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seats := make([]BookedSeat, 0)
	for rows.Next() {
		var s BookedSeat
		if err := rows.Scan(&s.Section, &s.RowLabel, &s.SeatNumber, &s.SeatType, &s.PriceCents); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}
