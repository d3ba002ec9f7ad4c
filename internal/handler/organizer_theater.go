package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Pedro4O4/event-ticketing/internal/layout"
	"github.com/Pedro4O4/event-ticketing/internal/repository"
)

// OrganizerTheaterHandler exposes theater CRUD to organizers.  Every write
// validates the layout and seat config and recomputes the stored seat
// aggregates so listings never count seats on the fly.
type OrganizerTheaterHandler struct {
	Theaters *repository.TheaterRepo
}

func NewOrganizerTheaterHandler(t *repository.TheaterRepo) *OrganizerTheaterHandler {
	if t == nil {
		panic("nil repository passed to NewOrganizerTheaterHandler")
	}
	return &OrganizerTheaterHandler{Theaters: t}
}

type theaterReq struct {
	Name       string                `json:"name"`
	Address    string                `json:"address"`
	Layout     *layout.Layout        `json:"layout"`
	SeatConfig []layout.SeatOverride `json:"seatConfig"`
}

// validate checks the payload and returns the serialized layout, seat
// config and the derived aggregates.
func (req *theaterReq) validate() (layoutJSON, cfgJSON json.RawMessage, agg layout.Aggregates, err error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, nil, agg, errors.New("name required")
	}
	if req.Layout == nil {
		return nil, nil, agg, errors.New("layout required")
	}
	if err := req.Layout.Validate(); err != nil {
		return nil, nil, agg, err
	}
	if err := layout.ValidateOverrides(req.SeatConfig); err != nil {
		return nil, nil, agg, err
	}
	layoutJSON, err = json.Marshal(req.Layout)
	if err != nil {
		return nil, nil, agg, err
	}
	cfgJSON, err = json.Marshal(req.SeatConfig)
	if err != nil {
		return nil, nil, agg, err
	}
	return layoutJSON, cfgJSON, layout.Aggregate(req.Layout, req.SeatConfig), nil
}

// Create registers a new theater owned by the caller.
func (h *OrganizerTheaterHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req theaterReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	layoutJSON, cfgJSON, agg, err := req.validate()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	t := &repository.Theater{
		OwnerID:      uid,
		Name:         req.Name,
		Layout:       layoutJSON,
		SeatConfig:   cfgJSON,
		TotalSeats:   agg.TotalSeats,
		VIPSeats:     agg.VIPSeats,
		PremiumSeats: agg.PremiumSeats,
	}
	if req.Address != "" {
		t.Address.String, t.Address.Valid = req.Address, true
	}
	if err := h.Theaters.Create(ctx, t); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create theater failed"})
	}
	return c.JSON(http.StatusCreated, theaterResp(t))
}

// List returns the caller's theaters.
func (h *OrganizerTheaterHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	theaters, err := h.Theaters.ListByOwner(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list theaters failed"})
	}
	out := make([]echo.Map, 0, len(theaters))
	for _, t := range theaters {
		out = append(out, theaterResp(t))
	}
	return c.JSON(http.StatusOK, echo.Map{"theaters": out})
}

// Get returns one of the caller's theaters with its full layout.
func (h *OrganizerTheaterHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid theater id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	t, err := h.Theaters.GetByIDAndOwner(ctx, id, uid)
	if err != nil {
		if errors.Is(err, repository.ErrTheaterNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "theater not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load theater failed"})
	}
	return c.JSON(http.StatusOK, theaterResp(t))
}

// Update replaces the theater's name, address, layout and seat config.
// Events created earlier keep their own copies and are unaffected.
func (h *OrganizerTheaterHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid theater id"})
	}
	var req theaterReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	layoutJSON, cfgJSON, agg, err := req.validate()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	t, err := h.Theaters.GetByIDAndOwner(ctx, id, uid)
	if err != nil {
		if errors.Is(err, repository.ErrTheaterNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "theater not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load theater failed"})
	}
	t.Name = req.Name
	t.Address.String, t.Address.Valid = req.Address, req.Address != ""
	t.Layout = layoutJSON
	t.SeatConfig = cfgJSON
	t.TotalSeats = agg.TotalSeats
	t.VIPSeats = agg.VIPSeats
	t.PremiumSeats = agg.PremiumSeats
	if err := h.Theaters.UpdateByIDAndOwner(ctx, t); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update theater failed"})
	}
	return c.JSON(http.StatusOK, theaterResp(t))
}

// Delete removes a theater that no event references.
func (h *OrganizerTheaterHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid theater id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Theaters.DeleteByIDAndOwner(ctx, id, uid); err != nil {
		switch {
		case errors.Is(err, repository.ErrTheaterNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "theater not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "theater has events"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete theater failed"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}

func theaterResp(t *repository.Theater) echo.Map {
	return echo.Map{
		"id":            t.ID,
		"name":          t.Name,
		"address":       t.Address.String,
		"layout":        t.Layout,
		"seat_config":   t.SeatConfig,
		"total_seats":   t.TotalSeats,
		"vip_seats":     t.VIPSeats,
		"premium_seats": t.PremiumSeats,
		"is_active":     t.IsActive,
		"created_at":    t.CreatedAt,
		"updated_at":    t.UpdatedAt,
	}
}
