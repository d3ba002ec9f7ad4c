package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pedro4O4/event-ticketing/internal/booking"
	"github.com/Pedro4O4/event-ticketing/internal/queue"
	"github.com/Pedro4O4/event-ticketing/internal/repository"
)

type fakeAllocator struct {
	allocate func(ctx context.Context, in booking.AllocateInput) (*booking.Booking, error)
	release  func(ctx context.Context, eventID, bookingID uint64) error
	lastIn   booking.AllocateInput
}

func (f *fakeAllocator) Allocate(ctx context.Context, in booking.AllocateInput) (*booking.Booking, error) {
	f.lastIn = in
	return f.allocate(ctx, in)
}

func (f *fakeAllocator) Release(ctx context.Context, eventID, bookingID uint64) error {
	return f.release(ctx, eventID, bookingID)
}

func newBookingTestHandler(fa *fakeAllocator, published chan queue.BookingConfirmedEvent) *BookingHandler {
	return &BookingHandler{
		Allocator: fa,
		publishConfirmed: func(ctx context.Context, ev queue.BookingConfirmedEvent) error {
			if published != nil {
				published <- ev
			}
			return nil
		},
		publishCancelled: func(ctx context.Context, ev queue.BookingCancelledEvent) error {
			return nil
		},
	}
}

func postBooking(h *BookingHandler, userID any, eventID, body string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/events/"+eventID+"/bookings", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(eventID)
	if userID != nil {
		c.Set("user_id", userID)
	}
	_ = h.Create(c)
	return rec
}

func TestCreateBooking_Seated(t *testing.T) {
	fa := &fakeAllocator{
		allocate: func(ctx context.Context, in booking.AllocateInput) (*booking.Booking, error) {
			return &booking.Booking{
				ID:         31,
				Reference:  "ref-31",
				UserID:     in.UserID,
				EventID:    in.EventID,
				Status:     booking.StatusConfirmed,
				Quantity:   2,
				TotalCents: 8500,
				Seats: []booking.SelectedSeat{
					{Section: "main", Row: "A", Number: 1, SeatType: "vip", PriceCents: 6000},
					{Section: "main", Row: "A", Number: 2, SeatType: "standard", PriceCents: 2500},
				},
			}, nil
		},
	}
	published := make(chan queue.BookingConfirmedEvent, 1)
	h := newBookingTestHandler(fa, published)

	rec := postBooking(h, float64(7), "5",
		`{"seats":[{"section":"main","row":"A","seatNumber":1},{"section":"main","row":"A","seatNumber":2}]}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, uint64(5), fa.lastIn.EventID)
	assert.Equal(t, uint64(7), fa.lastIn.UserID)
	assert.Len(t, fa.lastIn.Seats, 2)

	var got booking.Booking
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "ref-31", got.Reference)
	assert.Equal(t, uint32(8500), got.TotalCents)

	ev := <-published
	assert.Equal(t, uint64(31), ev.BookingID)
	assert.Equal(t, []string{"A1", "A2"}, ev.SeatLabels)
}

func TestCreateBooking_ErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"seat conflict", fmt.Errorf("A1: %w", booking.ErrSeatAlreadyBooked), http.StatusConflict, "A1"},
		{"sold out", booking.ErrSoldOut, http.StatusConflict, "sold out"},
		{"seat missing", fmt.Errorf("Z9: %w", booking.ErrSeatNotFound), http.StatusNotFound, "Z9"},
		{"event missing", booking.ErrEventNotFound, http.StatusNotFound, "event not found"},
		{"no seats", booking.ErrNoSeatsSelected, http.StatusBadRequest, ""},
		{"duplicate seat", fmt.Errorf("A1: %w", booking.ErrDuplicateSeatRequest), http.StatusBadRequest, ""},
		{"bad quantity", booking.ErrInvalidQuantity, http.StatusBadRequest, ""},
		{"not seated", booking.ErrEventNotSeated, http.StatusBadRequest, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fa := &fakeAllocator{
				allocate: func(ctx context.Context, in booking.AllocateInput) (*booking.Booking, error) {
					return nil, tc.err
				},
			}
			h := newBookingTestHandler(fa, nil)
			rec := postBooking(h, float64(7), "5", `{"quantity":1}`)
			assert.Equal(t, tc.wantCode, rec.Code)
			if tc.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tc.wantBody)
			}
		})
	}
}

type fakeBookings struct {
	detail *repository.BookingDetail
	err    error
}

func (f *fakeBookings) ListByUser(ctx context.Context, userID uint64) ([]*repository.BookingDetail, error) {
	return nil, nil
}

func (f *fakeBookings) GetByIDForUser(ctx context.Context, id, userID uint64) (*repository.BookingDetail, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.detail, nil
}

func (f *fakeBookings) ListByEventForOrganizer(ctx context.Context, eventID, organizerID uint64) ([]*repository.BookingDetail, error) {
	return nil, nil
}

func deleteBooking(h *BookingHandler, userID any, bookingID string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/v1/bookings/"+bookingID, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(bookingID)
	if userID != nil {
		c.Set("user_id", userID)
	}
	_ = h.Cancel(c)
	return rec
}

func cancelTestHandler(fa *fakeAllocator, fb *fakeBookings, cancelled chan queue.BookingCancelledEvent) *BookingHandler {
	return &BookingHandler{
		Allocator: fa,
		Bookings:  fb,
		publishCancelled: func(ctx context.Context, ev queue.BookingCancelledEvent) error {
			cancelled <- ev
			return nil
		},
	}
}

func TestCancelBooking(t *testing.T) {
	confirmed := func() *repository.BookingDetail {
		return &repository.BookingDetail{
			ID: 31, Reference: "ref-31", EventID: 5,
			Status: string(booking.StatusConfirmed), Quantity: 1,
			Seats: []repository.BookedSeat{{Section: "main", RowLabel: "A", SeatNumber: 1}},
		}
	}

	t.Run("releases and publishes", func(t *testing.T) {
		var gotEvent, gotBooking uint64
		fa := &fakeAllocator{release: func(ctx context.Context, eventID, bookingID uint64) error {
			gotEvent, gotBooking = eventID, bookingID
			return nil
		}}
		cancelled := make(chan queue.BookingCancelledEvent, 1)
		h := cancelTestHandler(fa, &fakeBookings{detail: confirmed()}, cancelled)

		rec := deleteBooking(h, float64(7), "31")
		require.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, uint64(5), gotEvent)
		assert.Equal(t, uint64(31), gotBooking)

		ev := <-cancelled
		assert.Equal(t, uint64(31), ev.BookingID)
		assert.Equal(t, []string{"A1"}, ev.SeatLabels)
	})

	t.Run("repeated cancel publishes nothing", func(t *testing.T) {
		fa := &fakeAllocator{release: func(ctx context.Context, eventID, bookingID uint64) error {
			return nil
		}}
		d := confirmed()
		d.Status = string(booking.StatusCancelled)
		cancelled := make(chan queue.BookingCancelledEvent, 1)
		h := cancelTestHandler(fa, &fakeBookings{detail: d}, cancelled)

		rec := deleteBooking(h, float64(7), "31")
		require.Equal(t, http.StatusNoContent, rec.Code)
		time.Sleep(50 * time.Millisecond)
		assert.Empty(t, cancelled, "no duplicate cancellation event")
	})

	t.Run("unknown booking", func(t *testing.T) {
		fa := &fakeAllocator{release: func(ctx context.Context, eventID, bookingID uint64) error {
			t.Fatal("release must not be called")
			return nil
		}}
		cancelled := make(chan queue.BookingCancelledEvent, 1)
		h := cancelTestHandler(fa, &fakeBookings{err: repository.ErrBookingNotFound}, cancelled)

		rec := deleteBooking(h, float64(7), "31")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCreateBooking_Validation(t *testing.T) {
	called := false
	fa := &fakeAllocator{
		allocate: func(ctx context.Context, in booking.AllocateInput) (*booking.Booking, error) {
			called = true
			return nil, nil
		},
	}
	h := newBookingTestHandler(fa, nil)

	t.Run("bad event id", func(t *testing.T) {
		rec := postBooking(h, float64(7), "nope", `{"quantity":1}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.False(t, called)
	})

	t.Run("missing user", func(t *testing.T) {
		rec := postBooking(h, nil, "5", `{"quantity":1}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, called)
	})
}
