package booking

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pedro4O4/event-ticketing/internal/layout"
)

// memStore is an in-memory EventStore.  WithTx holds a mutex for the whole
// transaction and restores a snapshot on error, mirroring the atomicity and
// per-event serialization the SQL store provides.
type memStore struct {
	mu       sync.Mutex
	nextID   uint64
	events   map[uint64]*EventState
	bookings map[uint64]*Booking

	failSetRemaining error // injected fault for atomicity tests
}

func newMemStore(events ...*EventState) *memStore {
	s := &memStore{
		events:   make(map[uint64]*EventState),
		bookings: make(map[uint64]*Booking),
	}
	for _, ev := range events {
		s.events[ev.ID] = ev
	}
	return s
}

func (s *memStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := s.snapshotEvents()
	bookings := s.snapshotBookings()
	nextID := s.nextID
	if err := fn(ctx); err != nil {
		s.events, s.bookings, s.nextID = events, bookings, nextID
		return err
	}
	return nil
}

func (s *memStore) snapshotEvents() map[uint64]*EventState {
	out := make(map[uint64]*EventState, len(s.events))
	for id, ev := range s.events {
		cp := *ev
		cp.Booked = append([]BookedSeat(nil), ev.Booked...)
		out[id] = &cp
	}
	return out
}

func (s *memStore) snapshotBookings() map[uint64]*Booking {
	out := make(map[uint64]*Booking, len(s.bookings))
	for id, b := range s.bookings {
		cp := *b
		cp.Seats = append([]SelectedSeat(nil), b.Seats...)
		out[id] = &cp
	}
	return out
}

func (s *memStore) GetEventForUpdate(_ context.Context, eventID uint64) (*EventState, error) {
	ev, ok := s.events[eventID]
	if !ok {
		return nil, ErrEventNotFound
	}
	cp := *ev
	cp.Booked = append([]BookedSeat(nil), ev.Booked...)
	return &cp, nil
}

func (s *memStore) CreateBooking(_ context.Context, b *Booking) error {
	s.nextID++
	b.ID = s.nextID
	cp := *b
	cp.Seats = append([]SelectedSeat(nil), b.Seats...)
	s.bookings[b.ID] = &cp
	return nil
}

func (s *memStore) AddBookedSeats(_ context.Context, eventID, bookingID uint64, seats []SelectedSeat) error {
	ev := s.events[eventID]
	for _, seat := range seats {
		for _, cur := range ev.Booked {
			if cur.Section == seat.Section && cur.Row == seat.Row && cur.Number == seat.Number {
				return ErrSeatAlreadyBooked
			}
		}
		ev.Booked = append(ev.Booked, BookedSeat{
			Section:   seat.Section,
			Row:       seat.Row,
			Number:    seat.Number,
			BookingID: bookingID,
		})
	}
	return nil
}

func (s *memStore) ReleaseBookedSeats(_ context.Context, eventID, bookingID uint64) (int, error) {
	ev := s.events[eventID]
	kept := ev.Booked[:0]
	released := 0
	for _, b := range ev.Booked {
		if b.BookingID == bookingID {
			released++
			continue
		}
		kept = append(kept, b)
	}
	ev.Booked = kept
	return released, nil
}

func (s *memStore) SetRemainingTickets(_ context.Context, eventID uint64, remaining int) error {
	if s.failSetRemaining != nil {
		return s.failSetRemaining
	}
	s.events[eventID].RemainingTickets = remaining
	return nil
}

func (s *memStore) GetBookingForUpdate(_ context.Context, bookingID uint64) (*Booking, error) {
	b, ok := s.bookings[bookingID]
	if !ok {
		return nil, ErrBookingNotFound
	}
	cp := *b
	cp.Seats = append([]SelectedSeat(nil), b.Seats...)
	return &cp, nil
}

func (s *memStore) MarkCancelled(_ context.Context, bookingID uint64) error {
	s.bookings[bookingID].Status = StatusCancelled
	return nil
}

func seatedEvent(id uint64) *EventState {
	return &EventState{
		ID:         id,
		HasSeating: true,
		Layout: &layout.Layout{
			Stage:     layout.Stage{Position: layout.StageTop, Width: 60, Height: 10},
			MainFloor: layout.FloorInfo{Rows: 3, SeatsPerRow: 4},
		},
		SeatConfig: []layout.SeatOverride{
			{Row: "B", SeatNumber: 1, SeatType: layout.SeatVIP, Section: layout.SectionMain, IsActive: true},
			{Row: "C", SeatNumber: 4, SeatType: layout.SeatStandard, Section: layout.SectionMain, IsActive: false},
		},
		Pricing: map[layout.SeatType]uint32{
			layout.SeatStandard: 2500,
			layout.SeatVIP:      6000,
		},
		RemainingTickets: 11,
	}
}

func seatReq(row string, n int) SeatRequest {
	return SeatRequest{Section: layout.SectionMain, Row: row, Number: n}
}

func TestAllocate_Seated(t *testing.T) {
	ctx := context.Background()

	t.Run("books seats and snapshots prices", func(t *testing.T) {
		store := newMemStore(seatedEvent(1))
		alloc := NewAllocator(store)

		b, err := alloc.Allocate(ctx, AllocateInput{
			EventID: 1, UserID: 7,
			Seats: []SeatRequest{seatReq("A", 1), seatReq("B", 1)},
		})
		require.NoError(t, err)
		require.NotNil(t, b)
		assert.NotZero(t, b.ID)
		assert.NotEmpty(t, b.Reference)
		assert.Equal(t, StatusConfirmed, b.Status)
		assert.Equal(t, 2, b.Quantity)
		assert.Equal(t, uint32(2500+6000), b.TotalCents)
		require.Len(t, b.Seats, 2)
		assert.Equal(t, layout.SeatStandard, b.Seats[0].SeatType)
		assert.Equal(t, uint32(2500), b.Seats[0].PriceCents)
		assert.Equal(t, layout.SeatVIP, b.Seats[1].SeatType)
		assert.Equal(t, uint32(6000), b.Seats[1].PriceCents)

		ev, err := store.GetEventForUpdate(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 9, ev.RemainingTickets)
		require.Len(t, ev.Booked, 2)
		for _, seat := range ev.Booked {
			assert.Equal(t, b.ID, seat.BookingID)
		}
	})

	t.Run("rejects unknown removed or disabled seats", func(t *testing.T) {
		ev := seatedEvent(1)
		ev.Layout.RemovedSeats = []string{"A2"}
		store := newMemStore(ev)
		alloc := NewAllocator(store)

		for _, req := range []SeatRequest{
			seatReq("Z", 1), // off the grid
			seatReq("A", 2), // removed
			seatReq("C", 4), // inactive seat config entry
			{Section: layout.SectionBalcony, Row: "A", Number: 1}, // no balcony
		} {
			_, err := alloc.Allocate(ctx, AllocateInput{EventID: 1, UserID: 7, Seats: []SeatRequest{req}})
			assert.ErrorIs(t, err, ErrSeatNotFound, "seat %s", req.Key())
		}
	})

	t.Run("rejects already booked seats with the conflicting key", func(t *testing.T) {
		store := newMemStore(seatedEvent(1))
		alloc := NewAllocator(store)

		_, err := alloc.Allocate(ctx, AllocateInput{EventID: 1, UserID: 7, Seats: []SeatRequest{seatReq("A", 1)}})
		require.NoError(t, err)

		_, err = alloc.Allocate(ctx, AllocateInput{EventID: 1, UserID: 8, Seats: []SeatRequest{seatReq("A", 1)}})
		assert.ErrorIs(t, err, ErrSeatAlreadyBooked)
		assert.Contains(t, err.Error(), "A1")
	})

	t.Run("unknown seat outranks a conflict in mixed requests", func(t *testing.T) {
		store := newMemStore(seatedEvent(1))
		alloc := NewAllocator(store)

		_, err := alloc.Allocate(ctx, AllocateInput{EventID: 1, UserID: 7, Seats: []SeatRequest{seatReq("A", 1)}})
		require.NoError(t, err)

		// A1 is now taken and Z9 does not exist; the unknown seat wins no
		// matter where it sits in the request.
		for _, seats := range [][]SeatRequest{
			{seatReq("A", 1), seatReq("Z", 9)},
			{seatReq("Z", 9), seatReq("A", 1)},
		} {
			_, err = alloc.Allocate(ctx, AllocateInput{EventID: 1, UserID: 8, Seats: seats})
			assert.ErrorIs(t, err, ErrSeatNotFound)
			assert.Contains(t, err.Error(), "Z9")
		}
	})

	t.Run("rejects duplicate keys within one request", func(t *testing.T) {
		store := newMemStore(seatedEvent(1))
		alloc := NewAllocator(store)

		_, err := alloc.Allocate(ctx, AllocateInput{
			EventID: 1, UserID: 7,
			Seats: []SeatRequest{seatReq("A", 1), seatReq("A", 1)},
		})
		assert.ErrorIs(t, err, ErrDuplicateSeatRequest)
	})

	t.Run("requires a seat selection", func(t *testing.T) {
		alloc := NewAllocator(newMemStore(seatedEvent(1)))
		_, err := alloc.Allocate(ctx, AllocateInput{EventID: 1, UserID: 7})
		assert.ErrorIs(t, err, ErrNoSeatsSelected)
	})

	t.Run("guards remaining tickets", func(t *testing.T) {
		ev := seatedEvent(1)
		ev.RemainingTickets = 1
		alloc := NewAllocator(newMemStore(ev))
		_, err := alloc.Allocate(ctx, AllocateInput{
			EventID: 1, UserID: 7,
			Seats: []SeatRequest{seatReq("A", 1), seatReq("A", 2)},
		})
		assert.ErrorIs(t, err, ErrSoldOut)
	})

	t.Run("fails when a seat type has no price", func(t *testing.T) {
		ev := seatedEvent(1)
		delete(ev.Pricing, layout.SeatVIP)
		alloc := NewAllocator(newMemStore(ev))
		_, err := alloc.Allocate(ctx, AllocateInput{EventID: 1, UserID: 7, Seats: []SeatRequest{seatReq("B", 1)}})
		assert.ErrorIs(t, err, ErrPriceNotConfigured)
	})

	t.Run("unknown event", func(t *testing.T) {
		alloc := NewAllocator(newMemStore())
		_, err := alloc.Allocate(ctx, AllocateInput{EventID: 99, UserID: 7, Seats: []SeatRequest{seatReq("A", 1)}})
		assert.ErrorIs(t, err, ErrEventNotFound)
	})
}

func TestAllocate_ConcurrentOverlap(t *testing.T) {
	store := newMemStore(seatedEvent(1))
	alloc := NewAllocator(store)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = alloc.Allocate(context.Background(), AllocateInput{
				EventID: 1, UserID: uint64(i + 1),
				Seats: []SeatRequest{seatReq("A", 1)},
			})
		}(i)
	}
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, ErrSeatAlreadyBooked):
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, won, "exactly one attempt must win")
	assert.Equal(t, 1, lost)

	ev, err := store.GetEventForUpdate(context.Background(), 1)
	require.NoError(t, err)
	occurrences := 0
	for _, b := range ev.Booked {
		if b.Row == "A" && b.Number == 1 {
			occurrences++
		}
	}
	assert.Equal(t, 1, occurrences, "seat A1 must be booked exactly once")
	assert.Equal(t, 10, ev.RemainingTickets)
}

func TestAllocate_FailedWriteCommitsNothing(t *testing.T) {
	store := newMemStore(seatedEvent(1))
	store.failSetRemaining = errors.New("connection lost")
	alloc := NewAllocator(store)

	_, err := alloc.Allocate(context.Background(), AllocateInput{
		EventID: 1, UserID: 7,
		Seats: []SeatRequest{seatReq("A", 1), seatReq("A", 2)},
	})
	require.Error(t, err)

	ev, gerr := store.GetEventForUpdate(context.Background(), 1)
	require.NoError(t, gerr)
	assert.Empty(t, ev.Booked, "no partial seat list update")
	assert.Equal(t, 11, ev.RemainingTickets)
	assert.Empty(t, store.bookings)
}

func TestAllocate_CounterOnly(t *testing.T) {
	ctx := context.Background()
	plain := func() *EventState {
		return &EventState{ID: 2, TicketPriceCents: 1500, RemainingTickets: 5}
	}

	t.Run("subtracts quantity", func(t *testing.T) {
		store := newMemStore(plain())
		alloc := NewAllocator(store)
		b, err := alloc.Allocate(ctx, AllocateInput{EventID: 2, UserID: 3, Quantity: 4})
		require.NoError(t, err)
		assert.Equal(t, 4, b.Quantity)
		assert.Equal(t, uint32(6000), b.TotalCents)
		assert.Empty(t, b.Seats)

		ev, _ := store.GetEventForUpdate(ctx, 2)
		assert.Equal(t, 1, ev.RemainingTickets)
	})

	t.Run("sold out guard", func(t *testing.T) {
		alloc := NewAllocator(newMemStore(plain()))
		_, err := alloc.Allocate(ctx, AllocateInput{EventID: 2, UserID: 3, Quantity: 6})
		assert.ErrorIs(t, err, ErrSoldOut)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		alloc := NewAllocator(newMemStore(plain()))
		_, err := alloc.Allocate(ctx, AllocateInput{EventID: 2, UserID: 3, Quantity: 0})
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})

	t.Run("rejects seat selections", func(t *testing.T) {
		alloc := NewAllocator(newMemStore(plain()))
		_, err := alloc.Allocate(ctx, AllocateInput{EventID: 2, UserID: 3, Seats: []SeatRequest{seatReq("A", 1)}})
		assert.ErrorIs(t, err, ErrEventNotSeated)
	})
}

func TestRelease(t *testing.T) {
	ctx := context.Background()

	t.Run("restores seats and counter, idempotent", func(t *testing.T) {
		store := newMemStore(seatedEvent(1))
		alloc := NewAllocator(store)

		b, err := alloc.Allocate(ctx, AllocateInput{
			EventID: 1, UserID: 7,
			Seats: []SeatRequest{seatReq("A", 1), seatReq("A", 2)},
		})
		require.NoError(t, err)

		require.NoError(t, alloc.Release(ctx, 1, b.ID))
		ev, _ := store.GetEventForUpdate(ctx, 1)
		assert.Empty(t, ev.Booked)
		assert.Equal(t, 11, ev.RemainingTickets, "remaining restored to pre-allocation value")

		got, err := store.GetBookingForUpdate(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, got.Status)

		// Second release is a no-op, not an error, and does not double-credit.
		require.NoError(t, alloc.Release(ctx, 1, b.ID))
		ev, _ = store.GetEventForUpdate(ctx, 1)
		assert.Equal(t, 11, ev.RemainingTickets)
	})

	t.Run("counter-only release restores quantity", func(t *testing.T) {
		store := newMemStore(&EventState{ID: 2, TicketPriceCents: 1000, RemainingTickets: 5})
		alloc := NewAllocator(store)
		b, err := alloc.Allocate(ctx, AllocateInput{EventID: 2, UserID: 3, Quantity: 3})
		require.NoError(t, err)

		require.NoError(t, alloc.Release(ctx, 2, b.ID))
		ev, _ := store.GetEventForUpdate(ctx, 2)
		assert.Equal(t, 5, ev.RemainingTickets)
	})

	t.Run("unknown booking or wrong event", func(t *testing.T) {
		store := newMemStore(seatedEvent(1), &EventState{ID: 2, RemainingTickets: 5})
		alloc := NewAllocator(store)
		assert.ErrorIs(t, alloc.Release(ctx, 1, 42), ErrBookingNotFound)

		b, err := alloc.Allocate(ctx, AllocateInput{EventID: 1, UserID: 7, Seats: []SeatRequest{seatReq("A", 1)}})
		require.NoError(t, err)
		assert.ErrorIs(t, alloc.Release(ctx, 2, b.ID), ErrBookingNotFound)
	})
}
