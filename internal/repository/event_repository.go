package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// Event approval states.  New events start pending and become publicly
// bookable once an admin approves them.
const (
	EventPending  = "PENDING"
	EventApproved = "APPROVED"
	EventRejected = "REJECTED"
)

// Event mirrors the 'events' table.  Seated events carry their own copy of
// the theater's layout and seat config taken at creation time (JSON
// columns) plus a seat-type price map; changing the theater afterwards
// never touches existing events.  Non-seated events use ticket_price_cents
// and total_tickets only.
type Event struct {
	ID               uint64          `json:"id"`
	OrganizerID      uint64          `json:"organizer_id"`
	TheaterID        *uint64         `json:"theater_id,omitempty"`
	Title            string          `json:"title"`
	Description      sql.NullString  `json:"-"`
	Venue            sql.NullString  `json:"-"`
	StartsAt         time.Time       `json:"starts_at"`
	Status           string          `json:"status"`
	HasSeating       bool            `json:"has_seating"`
	Layout           json.RawMessage `json:"layout,omitempty"`
	SeatConfig       json.RawMessage `json:"seat_config,omitempty"`
	SeatPricing      json.RawMessage `json:"seat_pricing,omitempty"`
	TicketPriceCents uint32          `json:"ticket_price_cents"`
	TotalTickets     int             `json:"total_tickets"`
	RemainingTickets int             `json:"remaining_tickets"`
	TotalSeats       int             `json:"total_seats"`
	VIPSeats         int             `json:"vip_seats"`
	PremiumSeats     int             `json:"premium_seats"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// ErrEventNotFound is returned when an event lookup yields no rows.
var ErrEventNotFound = errors.New("event not found")

// EventRepo provides persistence for events.
type EventRepo struct {
	db *sql.DB
}

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions that
// span repositories.
func (r *EventRepo) DB() *sql.DB { return r.db }

const eventColumns = `id, organizer_id, theater_id, title, description, venue, starts_at,
	status, has_seating, layout, seat_config, seat_pricing,
	ticket_price_cents, total_tickets, remaining_tickets,
	total_seats, vip_seats, premium_seats, created_at, updated_at`

func scanEvent(scan func(dest ...any) error) (*Event, error) {
	var e Event
	var theaterID sql.NullInt64
	var layoutRaw, cfgRaw, pricingRaw []byte
	err := scan(&e.ID, &e.OrganizerID, &theaterID, &e.Title, &e.Description, &e.Venue, &e.StartsAt,
		&e.Status, &e.HasSeating, &layoutRaw, &cfgRaw, &pricingRaw,
		&e.TicketPriceCents, &e.TotalTickets, &e.RemainingTickets,
		&e.TotalSeats, &e.VIPSeats, &e.PremiumSeats, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	if theaterID.Valid {
		id := uint64(theaterID.Int64)
		e.TheaterID = &id
	}
	e.Layout = json.RawMessage(layoutRaw)
	e.SeatConfig = json.RawMessage(cfgRaw)
	e.SeatPricing = json.RawMessage(pricingRaw)
	return &e, nil
}

// Create inserts the event and reads the row back to populate timestamps
// and defaults.
func (r *EventRepo) Create(ctx context.Context, e *Event) error {
	const ins = `INSERT INTO events (organizer_id, theater_id, title, description, venue, starts_at,
	             status, has_seating, layout, seat_config, seat_pricing,
	             ticket_price_cents, total_tickets, remaining_tickets,
	             total_seats, vip_seats, premium_seats)
	             VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`
	res, err := r.db.ExecContext(ctx, ins,
		e.OrganizerID, e.TheaterID, e.Title, e.Description, e.Venue, e.StartsAt,
		e.Status, e.HasSeating, nullableJSON(e.Layout), nullableJSON(e.SeatConfig), nullableJSON(e.SeatPricing),
		e.TicketPriceCents, e.TotalTickets, e.RemainingTickets,
		e.TotalSeats, e.VIPSeats, e.PremiumSeats)
	if err != nil {
		if isFKViolation(err) {
			return ErrTheaterNotFound
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	got, err := r.GetByID(ctx, e.ID)
	if err != nil {
		return err
	}
	*e = *got
	return nil
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

// GetByID retrieves an event regardless of organizer.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*Event, error) {
	return scanEvent(r.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ?`, id).Scan)
}

// GetByIDAndOrganizer retrieves an event only when the caller organizes it.
func (r *EventRepo) GetByIDAndOrganizer(ctx context.Context, id, organizerID uint64) (*Event, error) {
	return scanEvent(r.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ? AND organizer_id = ?`, id, organizerID).Scan)
}

// ListByOrganizer returns the organizer's events, newest first.
func (r *EventRepo) ListByOrganizer(ctx context.Context, organizerID uint64) ([]*Event, error) {
	return r.list(ctx,
		`SELECT `+eventColumns+` FROM events WHERE organizer_id = ? ORDER BY created_at DESC`, organizerID)
}

// ListApproved returns approved events for public browsing.  When search is
// non-empty, titles and venues are matched case-insensitively.
func (r *EventRepo) ListApproved(ctx context.Context, search string) ([]*Event, error) {
	if search == "" {
		return r.list(ctx,
			`SELECT `+eventColumns+` FROM events WHERE status = ? ORDER BY starts_at`, EventApproved)
	}
	like := "%" + search + "%"
	return r.list(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE status = ? AND (title LIKE ? OR venue LIKE ?)
		 ORDER BY starts_at`, EventApproved, like, like)
}

// ListByStatus returns events in the given approval state, oldest first, so
// admins review the queue in submission order.
func (r *EventRepo) ListByStatus(ctx context.Context, status string) ([]*Event, error) {
	return r.list(ctx,
		`SELECT `+eventColumns+` FROM events WHERE status = ? ORDER BY created_at`, status)
}

func (r *EventRepo) list(ctx context.Context, query string, args ...any) ([]*Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpdateByIDAndOrganizer overwrites the event's mutable fields.  The caller
// must have recomputed the aggregates when layout or seat config changed.
func (r *EventRepo) UpdateByIDAndOrganizer(ctx context.Context, e *Event) error {
	const upd = `UPDATE events
	             SET title = ?, description = ?, venue = ?, starts_at = ?,
	                 layout = ?, seat_config = ?, seat_pricing = ?,
	                 ticket_price_cents = ?, total_tickets = ?, remaining_tickets = ?,
	                 total_seats = ?, vip_seats = ?, premium_seats = ?,
	                 updated_at = CURRENT_TIMESTAMP
	             WHERE id = ? AND organizer_id = ?`
	res, err := r.db.ExecContext(ctx, upd,
		e.Title, e.Description, e.Venue, e.StartsAt,
		nullableJSON(e.Layout), nullableJSON(e.SeatConfig), nullableJSON(e.SeatPricing),
		e.TicketPriceCents, e.TotalTickets, e.RemainingTickets,
		e.TotalSeats, e.VIPSeats, e.PremiumSeats, e.ID, e.OrganizerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByIDAndOrganizer(ctx, e.ID, e.OrganizerID); err != nil {
			return err
		}
	}
	return nil
}

// UpdateStatus moves an event through the approval workflow; admin only.
func (r *EventRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE events SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// DeleteByIDAndOrganizer removes an event that has no confirmed bookings.
func (r *EventRepo) DeleteByIDAndOrganizer(ctx context.Context, id, organizerID uint64) error {
	var confirmed int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE event_id = ? AND status = 'CONFIRMED'`, id).Scan(&confirmed)
	if err != nil {
		return err
	}
	if confirmed > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM events WHERE id = ? AND organizer_id = ?`, id, organizerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrEventNotFound
	}
	return nil
}
