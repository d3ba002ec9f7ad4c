package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Pedro4O4/event-ticketing/internal/repository"
)

// AdminHandler covers the moderation surface: event approval, user
// management and theater deactivation.
type AdminHandler struct {
	Events   *repository.EventRepo
	Users    *repository.UserRepo
	Theaters *repository.TheaterRepo
	Tokens   *repository.TokenRepo
}

func NewAdminHandler(e *repository.EventRepo, u *repository.UserRepo, t *repository.TheaterRepo, tok *repository.TokenRepo) *AdminHandler {
	if e == nil || u == nil || t == nil || tok == nil {
		panic("nil repository passed to NewAdminHandler")
	}
	return &AdminHandler{Events: e, Users: u, Theaters: t, Tokens: tok}
}

// PendingEvents lists events awaiting review, oldest first.
func (h *AdminHandler) PendingEvents(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	events, err := h.Events.ListByStatus(ctx, repository.EventPending)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list events failed"})
	}
	out := make([]echo.Map, 0, len(events))
	for _, e := range events {
		out = append(out, eventResp(e, false))
	}
	return c.JSON(http.StatusOK, echo.Map{"events": out})
}

type reviewReq struct {
	Decision string `json:"decision"` // APPROVED | REJECTED
}

// ReviewEvent approves or rejects a pending event.
func (h *AdminHandler) ReviewEvent(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req reviewReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	decision := strings.ToUpper(strings.TrimSpace(req.Decision))
	if decision != repository.EventApproved && decision != repository.EventRejected {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "decision must be APPROVED or REJECTED"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	e, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load event failed"})
	}
	if e.Status != repository.EventPending {
		return c.JSON(http.StatusConflict, echo.Map{"error": "event already reviewed"})
	}
	if err := h.Events.UpdateStatus(ctx, id, decision); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update status failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "status": decision})
}

// ListUsers returns all user accounts.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list users failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users})
}

type activeReq struct {
	IsActive *bool `json:"is_active"`
}

// SetUserActive enables or disables an account.  Disabled users cannot log
// in; their existing refresh tokens are revoked.
func (h *AdminHandler) SetUserActive(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req activeReq
	if err := c.Bind(&req); err != nil || req.IsActive == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "is_active required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.SetActive(ctx, id, *req.IsActive); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update user failed"})
	}
	if !*req.IsActive {
		_ = h.Tokens.RevokeAllForUser(ctx, id)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "is_active": *req.IsActive})
}

// SetTheaterActive hides or restores a theater from public browsing.
func (h *AdminHandler) SetTheaterActive(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid theater id"})
	}
	var req activeReq
	if err := c.Bind(&req); err != nil || req.IsActive == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "is_active required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Theaters.SetActive(ctx, id, *req.IsActive); err != nil {
		if errors.Is(err, repository.ErrTheaterNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "theater not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update theater failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "is_active": *req.IsActive})
}
