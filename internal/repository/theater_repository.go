package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// Theater represents a venue owned by an organizer.  The layout and seat
// config documents are stored as JSON columns; the three aggregate counts
// are a derived cache recomputed by the write path on every save.
type Theater struct {
	ID           uint64          `json:"id"`
	OwnerID      uint64          `json:"owner_id"`
	Name         string          `json:"name"`
	Address      sql.NullString  `json:"-"`
	Layout       json.RawMessage `json:"layout"`
	SeatConfig   json.RawMessage `json:"seat_config"`
	TotalSeats   int             `json:"total_seats"`
	VIPSeats     int             `json:"vip_seats"`
	PremiumSeats int             `json:"premium_seats"`
	IsActive     bool            `json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ErrTheaterNotFound is returned when a theater lookup yields no rows.
var ErrTheaterNotFound = errors.New("theater not found")

// TheaterRepo provides persistence for theaters.
type TheaterRepo struct {
	db *sql.DB
}

func NewTheaterRepo(db *sql.DB) *TheaterRepo { return &TheaterRepo{db: db} }

const theaterColumns = `id, owner_id, name, address, layout, seat_config,
	total_seats, vip_seats, premium_seats, is_active, created_at, updated_at`

func scanTheater(scan func(dest ...any) error) (*Theater, error) {
	var t Theater
	var layoutRaw, cfgRaw []byte
	err := scan(&t.ID, &t.OwnerID, &t.Name, &t.Address, &layoutRaw, &cfgRaw,
		&t.TotalSeats, &t.VIPSeats, &t.PremiumSeats, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTheaterNotFound
		}
		return nil, err
	}
	t.Layout = json.RawMessage(layoutRaw)
	t.SeatConfig = json.RawMessage(cfgRaw)
	return &t, nil
}

// Create inserts a theater with its layout, seat config and the aggregates
// already recomputed by the caller.  The ID field is populated on success.
func (r *TheaterRepo) Create(ctx context.Context, t *Theater) error {
	const ins = `INSERT INTO theaters (owner_id, name, address, layout, seat_config,
	             total_seats, vip_seats, premium_seats) VALUES (?,?,?,?,?,?,?,?)`
	res, err := r.db.ExecContext(ctx, ins, t.OwnerID, t.Name, t.Address,
		[]byte(t.Layout), []byte(t.SeatConfig), t.TotalSeats, t.VIPSeats, t.PremiumSeats)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	// Read the row back so timestamps and defaults are populated.
	got, err := r.GetByID(ctx, t.ID)
	if err != nil {
		return err
	}
	*t = *got
	return nil
}

// GetByID retrieves a theater regardless of owner.
func (r *TheaterRepo) GetByID(ctx context.Context, id uint64) (*Theater, error) {
	return scanTheater(r.db.QueryRowContext(ctx,
		`SELECT `+theaterColumns+` FROM theaters WHERE id = ?`, id).Scan)
}

// GetByIDAndOwner retrieves a theater only when it belongs to the given
// owner; used to enforce resource ownership on the organizer routes.
func (r *TheaterRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*Theater, error) {
	return scanTheater(r.db.QueryRowContext(ctx,
		`SELECT `+theaterColumns+` FROM theaters WHERE id = ? AND owner_id = ?`, id, ownerID).Scan)
}

// ListByOwner returns the organizer's theaters ordered by id.
func (r *TheaterRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]*Theater, error) {
	return r.list(ctx, `SELECT `+theaterColumns+` FROM theaters WHERE owner_id = ? ORDER BY id`, ownerID)
}

// ListActive returns every active theater, for public browsing and the
// admin overview.
func (r *TheaterRepo) ListActive(ctx context.Context) ([]*Theater, error) {
	return r.list(ctx, `SELECT `+theaterColumns+` FROM theaters WHERE is_active = 1 ORDER BY id`)
}

func (r *TheaterRepo) list(ctx context.Context, query string, args ...any) ([]*Theater, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*Theater, 0)
	for rows.Next() {
		t, err := scanTheater(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpdateByIDAndOwner overwrites the theater's mutable fields, including the
// aggregates the caller recomputed from the new layout and seat config.
// Returns ErrTheaterNotFound when the row does not exist for this owner.
func (r *TheaterRepo) UpdateByIDAndOwner(ctx context.Context, t *Theater) error {
	const upd = `UPDATE theaters
	             SET name = ?, address = ?, layout = ?, seat_config = ?,
	                 total_seats = ?, vip_seats = ?, premium_seats = ?,
	                 updated_at = CURRENT_TIMESTAMP
	             WHERE id = ? AND owner_id = ?`
	res, err := r.db.ExecContext(ctx, upd, t.Name, t.Address,
		[]byte(t.Layout), []byte(t.SeatConfig),
		t.TotalSeats, t.VIPSeats, t.PremiumSeats, t.ID, t.OwnerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByIDAndOwner(ctx, t.ID, t.OwnerID); err != nil {
			return err
		}
	}
	return nil
}

// SetActive toggles the theater flag without an ownership check; admin only.
func (r *TheaterRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE theaters SET is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, active, id)
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

// DeleteByIDAndOwner removes a theater.  Theaters referenced by events are
// protected by the schema's foreign key; the violation surfaces as
// ErrConflict.
func (r *TheaterRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM theaters WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		if isFKViolation(err) {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTheaterNotFound
	}
	return nil
}
