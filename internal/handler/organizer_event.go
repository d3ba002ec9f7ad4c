package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Pedro4O4/event-ticketing/internal/layout"
	"github.com/Pedro4O4/event-ticketing/internal/repository"
)

// OrganizerEventHandler exposes event CRUD to organizers.  A seated event
// copies its theater's layout and seat config at creation time, so later
// theater edits never shift seats under sold bookings.
type OrganizerEventHandler struct {
	Events   *repository.EventRepo
	Theaters *repository.TheaterRepo
}

func NewOrganizerEventHandler(e *repository.EventRepo, t *repository.TheaterRepo) *OrganizerEventHandler {
	if e == nil || t == nil {
		panic("nil repository passed to NewOrganizerEventHandler")
	}
	return &OrganizerEventHandler{Events: e, Theaters: t}
}

type eventReq struct {
	Title            string                     `json:"title"`
	Description      string                     `json:"description"`
	Venue            string                     `json:"venue"`
	StartsAt         time.Time                  `json:"starts_at"`
	TheaterID        *uint64                    `json:"theater_id"`
	SeatPricing      map[layout.SeatType]uint32 `json:"seat_pricing"`
	TicketPriceCents uint32                     `json:"ticket_price_cents"`
	TotalTickets     int                        `json:"total_tickets"`
}

// Create submits a new event for admin approval.
func (h *OrganizerEventHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title required"})
	}
	if req.StartsAt.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	e := &repository.Event{
		OrganizerID:      uid,
		Title:            req.Title,
		StartsAt:         req.StartsAt.UTC(),
		Status:           repository.EventPending,
		TicketPriceCents: req.TicketPriceCents,
	}
	if req.Description != "" {
		e.Description.String, e.Description.Valid = req.Description, true
	}
	if req.Venue != "" {
		e.Venue.String, e.Venue.Valid = req.Venue, true
	}

	if req.TheaterID != nil {
		// Seated event: snapshot the theater's seating.
		t, err := h.Theaters.GetByIDAndOwner(ctx, *req.TheaterID, uid)
		if err != nil {
			if errors.Is(err, repository.ErrTheaterNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "theater not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load theater failed"})
		}
		if !t.IsActive {
			return c.JSON(http.StatusConflict, echo.Map{"error": "theater is deactivated"})
		}
		if len(req.SeatPricing) == 0 || req.SeatPricing[layout.SeatStandard] == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_pricing with a standard price required"})
		}
		pricingJSON, err := json.Marshal(req.SeatPricing)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat_pricing"})
		}
		e.TheaterID = &t.ID
		e.HasSeating = true
		e.Layout = t.Layout
		e.SeatConfig = t.SeatConfig
		e.SeatPricing = pricingJSON
		e.TotalSeats = t.TotalSeats
		e.VIPSeats = t.VIPSeats
		e.PremiumSeats = t.PremiumSeats
		e.TotalTickets = t.TotalSeats
		e.RemainingTickets = t.TotalSeats
	} else {
		// Counter-only event.
		if req.TotalTickets <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "total_tickets must be positive"})
		}
		if req.TicketPriceCents == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "ticket_price_cents required"})
		}
		e.TotalTickets = req.TotalTickets
		e.RemainingTickets = req.TotalTickets
	}

	if err := h.Events.Create(ctx, e); err != nil {
		if errors.Is(err, repository.ErrTheaterNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "theater not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create event failed"})
	}
	return c.JSON(http.StatusCreated, eventResp(e, true))
}

// List returns the caller's events with their approval status.
func (h *OrganizerEventHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	events, err := h.Events.ListByOrganizer(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list events failed"})
	}
	out := make([]echo.Map, 0, len(events))
	for _, e := range events {
		out = append(out, eventResp(e, false))
	}
	return c.JSON(http.StatusOK, echo.Map{"events": out})
}

// Get returns one of the caller's events including its layout snapshot.
func (h *OrganizerEventHandler) Get(c echo.Context) error {
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

	e, err := h.Events.GetByIDAndOrganizer(ctx, id, uid)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load event failed"})
	}
	return c.JSON(http.StatusOK, eventResp(e, true))
}

// Update edits an event.  Pending events may change anything including
// pricing; approved events only the descriptive fields, since seats may
// already be sold against the snapshot.
func (h *OrganizerEventHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	e, err := h.Events.GetByIDAndOrganizer(ctx, id, uid)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load event failed"})
	}

	e.Title = req.Title
	e.Description.String, e.Description.Valid = req.Description, req.Description != ""
	e.Venue.String, e.Venue.Valid = req.Venue, req.Venue != ""
	if !req.StartsAt.IsZero() {
		e.StartsAt = req.StartsAt.UTC()
	}

	if e.Status == repository.EventPending {
		if e.HasSeating {
			if len(req.SeatPricing) > 0 {
				pricingJSON, err := json.Marshal(req.SeatPricing)
				if err != nil {
					return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat_pricing"})
				}
				e.SeatPricing = pricingJSON
			}
		} else {
			if req.TotalTickets > 0 {
				e.TotalTickets = req.TotalTickets
				e.RemainingTickets = req.TotalTickets
			}
			if req.TicketPriceCents > 0 {
				e.TicketPriceCents = req.TicketPriceCents
			}
		}
	}

	if err := h.Events.UpdateByIDAndOrganizer(ctx, e); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update event failed"})
	}
	return c.JSON(http.StatusOK, eventResp(e, true))
}

// Delete removes an event with no confirmed bookings.
func (h *OrganizerEventHandler) Delete(c echo.Context) error {
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

	if err := h.Events.DeleteByIDAndOrganizer(ctx, id, uid); err != nil {
		switch {
		case errors.Is(err, repository.ErrEventNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "event has confirmed bookings"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete event failed"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// eventResp shapes an event for JSON output.  full includes the layout
// snapshot and pricing, which listings omit.
func eventResp(e *repository.Event, full bool) echo.Map {
	m := echo.Map{
		"id":                 e.ID,
		"title":              e.Title,
		"description":        e.Description.String,
		"venue":              e.Venue.String,
		"starts_at":          e.StartsAt,
		"status":             e.Status,
		"has_seating":        e.HasSeating,
		"ticket_price_cents": e.TicketPriceCents,
		"total_tickets":      e.TotalTickets,
		"remaining_tickets":  e.RemainingTickets,
		"total_seats":        e.TotalSeats,
		"vip_seats":          e.VIPSeats,
		"premium_seats":      e.PremiumSeats,
		"created_at":         e.CreatedAt,
	}
	if e.TheaterID != nil {
		m["theater_id"] = *e.TheaterID
	}
	if full && e.HasSeating {
		m["layout"] = e.Layout
		m["seat_config"] = e.SeatConfig
		m["seat_pricing"] = e.SeatPricing
	}
	return m
}
