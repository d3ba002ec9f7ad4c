package layout

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validLayout() *Layout {
	return &Layout{
		Stage:     Stage{Position: StageTop, Width: 60, Height: 10},
		MainFloor: FloorInfo{Rows: 5, SeatsPerRow: 10},
	}
}

func TestValidate(t *testing.T) {
	t.Run("accepts a plain layout", func(t *testing.T) {
		assert.NoError(t, validLayout().Validate())
	})

	t.Run("rejects stage out of bounds", func(t *testing.T) {
		for _, stage := range []Stage{
			{Position: StageTop, Width: 19, Height: 10},
			{Position: StageTop, Width: 101, Height: 10},
			{Position: StageTop, Width: 60, Height: 4},
			{Position: StageTop, Width: 60, Height: 41},
		} {
			l := validLayout()
			l.Stage = stage
			assert.ErrorIs(t, l.Validate(), ErrInvalidLayout, "stage %+v", stage)
		}
	})

	t.Run("rejects negative grid dimensions", func(t *testing.T) {
		l := validLayout()
		l.MainFloor.Rows = -1
		assert.ErrorIs(t, l.Validate(), ErrInvalidLayout)

		l = validLayout()
		l.MainFloor.SeatsPerRow = -3
		assert.ErrorIs(t, l.Validate(), ErrInvalidLayout)
	})

	t.Run("ignores balcony unless enabled", func(t *testing.T) {
		l := validLayout()
		l.Balcony = FloorInfo{Rows: -2, SeatsPerRow: 4}
		assert.NoError(t, l.Validate())

		l.HasBalcony = true
		assert.ErrorIs(t, l.Validate(), ErrInvalidLayout)
	})
}

func TestGenerateRowLabels(t *testing.T) {
	labels := GenerateRowLabels(30, "")
	require.Len(t, labels, 30)
	assert.Equal(t, "A", labels[0])
	assert.Equal(t, "Z", labels[25])
	assert.Equal(t, []string{"R27", "R28", "R29", "R30"}, labels[26:])

	assert.Equal(t, []string{"BA", "BB"}, GenerateRowLabels(2, "B"))
	assert.Empty(t, GenerateRowLabels(0, ""))
	assert.Empty(t, GenerateRowLabels(-4, ""))
}

func TestSeats(t *testing.T) {
	t.Run("enumerates the full grid", func(t *testing.T) {
		l := validLayout()
		var seats []Seat
		for s := range l.Seats() {
			seats = append(seats, s)
		}
		require.Len(t, seats, 50)
		assert.Equal(t, Seat{Section: SectionMain, Row: "A", Number: 1}, seats[0])
		assert.Equal(t, Seat{Section: SectionMain, Row: "E", Number: 10}, seats[49])
	})

	t.Run("never yields removed seats", func(t *testing.T) {
		l := validLayout()
		l.RemovedSeats = []string{"A1", "C5", "E10"}
		count := 0
		for s := range l.Seats() {
			assert.NotContains(t, l.RemovedSeats, s.Key())
			count++
		}
		assert.Equal(t, 47, count)
	})

	t.Run("includes the balcony when enabled", func(t *testing.T) {
		l := validLayout()
		l.HasBalcony = true
		l.Balcony = FloorInfo{Rows: 2, SeatsPerRow: 4}
		balcony := 0
		for s := range l.Seats() {
			if s.Section == SectionBalcony {
				balcony++
			}
		}
		assert.Equal(t, 8, balcony)
	})

	t.Run("honors explicit row labels", func(t *testing.T) {
		l := validLayout()
		l.MainFloor = FloorInfo{Rows: 2, SeatsPerRow: 1, RowLabels: []string{"AA", "BB"}}
		var rows []string
		for s := range l.Seats() {
			rows = append(rows, s.Row)
		}
		assert.Equal(t, []string{"AA", "BB"}, rows)
	})

	t.Run("is restartable", func(t *testing.T) {
		l := validLayout()
		first, second := 0, 0
		for range l.Seats() {
			first++
		}
		for range l.Seats() {
			second++
		}
		assert.Equal(t, first, second)
	})
}

func TestChart(t *testing.T) {
	l := validLayout()
	l.RemovedSeats = []string{"B2"}
	l.DisabledSeats = []string{"C3"}
	l.SeatCategories = map[string]SeatType{"A1": SeatVIP}
	overrides := []SeatOverride{
		{Row: "D", SeatNumber: 4, SeatType: SeatPremium, Section: SectionMain, IsActive: true},
		{Row: "E", SeatNumber: 5, SeatType: SeatStandard, Section: SectionMain, IsActive: false},
	}
	c := NewChart(l, overrides)

	assert.Equal(t, 49, c.Size())
	assert.False(t, c.Has(SectionMain, "B2"), "removed seat must not exist")
	assert.False(t, c.Has(SectionBalcony, "A1"), "no balcony configured")

	typ, ok := c.SeatType(SectionMain, "A1")
	require.True(t, ok)
	assert.Equal(t, SeatVIP, typ)

	typ, ok = c.SeatType(SectionMain, "D4")
	require.True(t, ok)
	assert.Equal(t, SeatPremium, typ)

	// Disabled and inactive seats exist on the grid but are not bookable.
	assert.True(t, c.Has(SectionMain, "C3"))
	assert.False(t, c.Bookable(SectionMain, "C3"))
	assert.True(t, c.Has(SectionMain, "E5"))
	assert.False(t, c.Bookable(SectionMain, "E5"))
	assert.True(t, c.Bookable(SectionMain, "A2"))
}

func TestSeatOverrideJSONDefaults(t *testing.T) {
	var o SeatOverride
	require.NoError(t, json.Unmarshal([]byte(`{"row":"C","seatNumber":12}`), &o))
	assert.Equal(t, SeatStandard, o.SeatType)
	assert.Equal(t, SectionMain, o.Section)
	assert.True(t, o.IsActive)
	assert.Equal(t, "C12", o.Key())

	require.NoError(t, json.Unmarshal([]byte(`{"row":"C","seatNumber":12,"isActive":false,"seatType":"vip","section":"balcony"}`), &o))
	assert.False(t, o.IsActive)
	assert.Equal(t, SeatVIP, o.SeatType)
	assert.Equal(t, SectionBalcony, o.Section)
}

func TestValidateOverrides(t *testing.T) {
	good := []SeatOverride{{Row: "A", SeatNumber: 1, SeatType: SeatVIP, Section: SectionMain, IsActive: true}}
	assert.NoError(t, ValidateOverrides(good))

	for _, bad := range []SeatOverride{
		{Row: "", SeatNumber: 1, SeatType: SeatVIP, Section: SectionMain},
		{Row: "A", SeatNumber: 0, SeatType: SeatVIP, Section: SectionMain},
		{Row: "A", SeatNumber: 1, SeatType: "gold", Section: SectionMain},
		{Row: "A", SeatNumber: 1, SeatType: SeatVIP, Section: "mezzanine"},
	} {
		assert.ErrorIs(t, ValidateOverrides([]SeatOverride{bad}), ErrInvalidLayout, "%+v", bad)
	}
}

func TestAggregate(t *testing.T) {
	t.Run("subtracts inactive seats", func(t *testing.T) {
		l := validLayout() // 5 x 10
		overrides := []SeatOverride{
			{Row: "A", SeatNumber: 1, SeatType: SeatStandard, Section: SectionMain, IsActive: false},
			{Row: "A", SeatNumber: 2, SeatType: SeatStandard, Section: SectionMain, IsActive: false},
		}
		agg := Aggregate(l, overrides)
		assert.Equal(t, 48, agg.TotalSeats)
		assert.Zero(t, agg.VIPSeats)
		assert.Zero(t, agg.PremiumSeats)
	})

	t.Run("counts active vip and premium overrides", func(t *testing.T) {
		l := validLayout()
		l.HasBalcony = true
		l.Balcony = FloorInfo{Rows: 2, SeatsPerRow: 5}
		overrides := []SeatOverride{
			{Row: "A", SeatNumber: 1, SeatType: SeatVIP, Section: SectionMain, IsActive: true},
			{Row: "A", SeatNumber: 2, SeatType: SeatVIP, Section: SectionMain, IsActive: false},
			{Row: "B", SeatNumber: 1, SeatType: SeatPremium, Section: SectionBalcony, IsActive: true},
			{Row: "B", SeatNumber: 2, SeatType: SeatDisabled, Section: SectionMain, IsActive: true},
		}
		agg := Aggregate(l, overrides)
		// 50 + 10 minus one inactive vip and one disabled seat.
		assert.Equal(t, 58, agg.TotalSeats)
		assert.Equal(t, 1, agg.VIPSeats)
		assert.Equal(t, 1, agg.PremiumSeats)
	})

	t.Run("never goes negative", func(t *testing.T) {
		l := &Layout{Stage: Stage{Position: StageBottom, Width: 40, Height: 8}}
		overrides := []SeatOverride{{Row: "A", SeatNumber: 1, SeatType: SeatStandard, IsActive: false}}
		assert.Zero(t, Aggregate(l, overrides).TotalSeats)
	})
}
