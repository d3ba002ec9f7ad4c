package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Pedro4O4/event-ticketing/internal/layout"
	"github.com/Pedro4O4/event-ticketing/internal/repository"
)

// Seat availability states as rendered to seat-picker clients.
const (
	seatFree     = "FREE"
	seatBooked   = "BOOKED"
	seatDisabled = "DISABLED"
)

// PublicHandler serves the unauthenticated browsing surface: approved
// events, active theaters and per-event seat availability.
type PublicHandler struct {
	Events   *repository.EventRepo
	Theaters *repository.TheaterRepo
	Bookings *repository.BookingRepo
}

func NewPublicHandler(e *repository.EventRepo, t *repository.TheaterRepo, b *repository.BookingRepo) *PublicHandler {
	if e == nil || t == nil || b == nil {
		panic("nil repository passed to NewPublicHandler")
	}
	return &PublicHandler{Events: e, Theaters: t, Bookings: b}
}

// ListEvents returns approved events, optionally filtered by ?q= against
// title and venue.
func (h *PublicHandler) ListEvents(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	events, err := h.Events.ListApproved(ctx, c.QueryParam("q"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list events failed"})
	}
	out := make([]echo.Map, 0, len(events))
	for _, e := range events {
		out = append(out, eventResp(e, false))
	}
	return c.JSON(http.StatusOK, echo.Map{"events": out})
}

// GetEvent returns one approved event with its layout snapshot.
func (h *PublicHandler) GetEvent(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	e, err := h.Events.GetByID(ctx, id)
	if err != nil || e.Status != repository.EventApproved {
		if err != nil && !errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load event failed"})
		}
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	}
	return c.JSON(http.StatusOK, eventResp(e, true))
}

// ListTheaters returns active theaters with their seat aggregates.
func (h *PublicHandler) ListTheaters(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	theaters, err := h.Theaters.ListActive(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list theaters failed"})
	}
	out := make([]echo.Map, 0, len(theaters))
	for _, t := range theaters {
		out = append(out, theaterResp(t))
	}
	return c.JSON(http.StatusOK, echo.Map{"theaters": out})
}

// GetTheater returns one active theater with its layout.
func (h *PublicHandler) GetTheater(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid theater id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	t, err := h.Theaters.GetByID(ctx, id)
	if err != nil || !t.IsActive {
		if err != nil && !errors.Is(err, repository.ErrTheaterNotFound) {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load theater failed"})
		}
		return c.JSON(http.StatusNotFound, echo.Map{"error": "theater not found"})
	}
	return c.JSON(http.StatusOK, theaterResp(t))
}

// availabilitySeat is one seat in the availability response.
type availabilitySeat struct {
	Section    layout.Section  `json:"section"`
	Row        string          `json:"row"`
	Number     int             `json:"seatNumber"`
	SeatType   layout.SeatType `json:"seatType"`
	PriceCents uint32          `json:"priceCents"`
	Status     string          `json:"status"`
}

// SeatAvailability renders the full seat map of a seated event with each
// seat marked FREE, BOOKED or DISABLED.
func (h *PublicHandler) SeatAvailability(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	e, err := h.Events.GetByID(ctx, id)
	if err != nil || e.Status != repository.EventApproved {
		if err != nil && !errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load event failed"})
		}
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	}
	if !e.HasSeating {
		return c.JSON(http.StatusConflict, echo.Map{"error": "event has no seat map"})
	}

	var l layout.Layout
	if err := json.Unmarshal(e.Layout, &l); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "corrupt layout"})
	}
	var overrides []layout.SeatOverride
	if len(e.SeatConfig) > 0 {
		if err := json.Unmarshal(e.SeatConfig, &overrides); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "corrupt seat config"})
		}
	}
	var pricing map[layout.SeatType]uint32
	if len(e.SeatPricing) > 0 {
		if err := json.Unmarshal(e.SeatPricing, &pricing); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "corrupt seat pricing"})
		}
	}

	booked, err := h.Bookings.ListBookedSeats(ctx, e.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load bookings failed"})
	}
	taken := make(map[string]bool, len(booked))
	for _, s := range booked {
		taken[string(s.Section)+"/"+layout.SeatKey(s.RowLabel, s.SeatNumber)] = true
	}

	chart := layout.NewChart(&l, overrides)
	seats := make([]availabilitySeat, 0, chart.Size())
	for seat := range l.Seats() {
		key := layout.SeatKey(seat.Row, seat.Number)
		typ, ok := chart.SeatType(seat.Section, key)
		if !ok {
			continue
		}
		status := seatFree
		switch {
		case !chart.Bookable(seat.Section, key):
			status = seatDisabled
		case taken[string(seat.Section)+"/"+key]:
			status = seatBooked
		}
		seats = append(seats, availabilitySeat{
			Section:    seat.Section,
			Row:        seat.Row,
			Number:     seat.Number,
			SeatType:   typ,
			PriceCents: pricing[typ],
			Status:     status,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"event_id":          e.ID,
		"remaining_tickets": e.RemainingTickets,
		"seats":             seats,
	})
}
