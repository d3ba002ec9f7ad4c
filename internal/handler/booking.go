package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Pedro4O4/event-ticketing/internal/booking"
	"github.com/Pedro4O4/event-ticketing/internal/queue"
	"github.com/Pedro4O4/event-ticketing/internal/repository"
	queuepub "github.com/Pedro4O4/event-ticketing/internal/service"
)

// seatAllocator is the slice of the allocator the handler needs; tests
// substitute a fake.
type seatAllocator interface {
	Allocate(ctx context.Context, in booking.AllocateInput) (*booking.Booking, error)
	Release(ctx context.Context, eventID, bookingID uint64) error
}

// bookingReader is the read side of the booking repository; tests
// substitute a fake.
type bookingReader interface {
	ListByUser(ctx context.Context, userID uint64) ([]*repository.BookingDetail, error)
	GetByIDForUser(ctx context.Context, id, userID uint64) (*repository.BookingDetail, error)
	ListByEventForOrganizer(ctx context.Context, eventID, organizerID uint64) ([]*repository.BookingDetail, error)
}

// BookingHandler exposes booking creation, cancellation and history.
// Events are published to the broker after the transaction commits; a
// broker outage never fails the request.
type BookingHandler struct {
	Allocator seatAllocator
	Bookings  bookingReader
	Events    *repository.EventRepo

	// publish hooks are swappable in tests.
	publishConfirmed func(ctx context.Context, ev queue.BookingConfirmedEvent) error
	publishCancelled func(ctx context.Context, ev queue.BookingCancelledEvent) error
}

func NewBookingHandler(a seatAllocator, b *repository.BookingRepo, e *repository.EventRepo) *BookingHandler {
	if a == nil || b == nil || e == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{
		Allocator:        a,
		Bookings:         b,
		Events:           e,
		publishConfirmed: queuepub.PublishBookingConfirmed,
		publishCancelled: queuepub.PublishBookingCancelled,
	}
}

type createBookingReq struct {
	Seats    []booking.SeatRequest `json:"seats"`
	Quantity int                   `json:"quantity"`
}

// Create books seats (or a plain ticket quantity) on an approved event.
func (h *BookingHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	b, err := h.Allocator.Allocate(ctx, booking.AllocateInput{
		EventID:  eventID,
		UserID:   uid,
		Seats:    req.Seats,
		Quantity: req.Quantity,
	})
	if err != nil {
		return bookingError(c, err)
	}

	h.notifyConfirmed(b)
	return c.JSON(http.StatusCreated, b)
}

// Cancel releases a booking's seats and marks it cancelled.  Only the
// booking's owner may cancel it.
func (h *BookingHandler) Cancel(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	// Ownership check before touching the allocator.
	d, err := h.Bookings.GetByIDForUser(ctx, id, uid)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load booking failed"})
	}

	if err := h.Allocator.Release(ctx, d.EventID, id); err != nil {
		if errors.Is(err, booking.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel booking failed"})
	}

	// Repeating a cancel is a no-op; only the transition publishes.
	if d.Status != string(booking.StatusCancelled) {
		h.notifyCancelled(uid, d)
	}
	return c.NoContent(http.StatusNoContent)
}

// List returns the caller's booking history, newest first.
func (h *BookingHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	bookings, err := h.Bookings.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list bookings failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}

// Get returns one of the caller's bookings with its seats.
func (h *BookingHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	d, err := h.Bookings.GetByIDForUser(ctx, id, uid)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load booking failed"})
	}
	return c.JSON(http.StatusOK, d)
}

// ListForEvent lets the event's organizer see its bookings.
func (h *BookingHandler) ListForEvent(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	bookings, err := h.Bookings.ListByEventForOrganizer(ctx, id, uid)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEventNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list bookings failed"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}

// bookingError maps allocator sentinels to HTTP responses.
func bookingError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, booking.ErrEventNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	case errors.Is(err, booking.ErrSeatNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, booking.ErrSeatAlreadyBooked):
		resp := echo.Map{"error": err.Error()}
		if key, _, found := strings.Cut(err.Error(), ":"); found {
			resp["seat"] = key
		}
		return c.JSON(http.StatusConflict, resp)
	case errors.Is(err, booking.ErrSoldOut):
		return c.JSON(http.StatusConflict, echo.Map{"error": "sold out"})
	case errors.Is(err, booking.ErrDuplicateSeatRequest),
		errors.Is(err, booking.ErrNoSeatsSelected),
		errors.Is(err, booking.ErrEventNotSeated),
		errors.Is(err, booking.ErrInvalidQuantity),
		errors.Is(err, booking.ErrPriceNotConfigured):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create booking failed"})
	}
}

// notifyConfirmed publishes the confirmation event on a detached context so
// a slow broker cannot hold the response.
func (h *BookingHandler) notifyConfirmed(b *booking.Booking) {
	labels := make([]string, 0, len(b.Seats))
	for _, s := range b.Seats {
		labels = append(labels, s.Key())
	}
	ev := queue.BookingConfirmedEvent{
		BookingID:        b.ID,
		Reference:        b.Reference,
		UserID:           b.UserID,
		EventID:          b.EventID,
		SeatLabels:       labels,
		Quantity:         b.Quantity,
		TotalAmountCents: b.TotalCents,
		ConfirmedAt:      time.Now().UTC().Format(time.RFC3339),
	}
	if h.Events != nil {
		if e, err := h.Events.GetByID(context.Background(), b.EventID); err == nil {
			ev.EventTitle = e.Title
			ev.Venue = e.Venue.String
			ev.StartsAt = e.StartsAt.UTC().Format(time.RFC3339)
		}
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = h.publishConfirmed(ctx, ev)
	}()
}

func (h *BookingHandler) notifyCancelled(userID uint64, d *repository.BookingDetail) {
	labels := make([]string, 0, len(d.Seats))
	for _, s := range d.Seats {
		labels = append(labels, s.RowLabel+strconv.Itoa(s.SeatNumber))
	}
	ev := queue.BookingCancelledEvent{
		BookingID:   d.ID,
		Reference:   d.Reference,
		UserID:      userID,
		EventID:     d.EventID,
		SeatLabels:  labels,
		Quantity:    d.Quantity,
		CancelledAt: time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = h.publishCancelled(ctx, ev)
	}()
}
