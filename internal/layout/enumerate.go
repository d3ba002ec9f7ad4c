package layout

import "iter"

// Seats derives the concrete addressable seat set from the layout: every
// grid cell of the main floor, then of the balcony when enabled, minus the
// removed seats.  The sequence is lazy and recomputed from the layout on
// every call; there is no stored seat list to drift out of sync.
func (l *Layout) Seats() iter.Seq[Seat] {
	return func(yield func(Seat) bool) {
		removed := keySet(l.RemovedSeats)
		if !yieldFloor(l.MainFloor, SectionMain, removed, yield) {
			return
		}
		if l.HasBalcony {
			yieldFloor(l.Balcony, SectionBalcony, removed, yield)
		}
	}
}

func yieldFloor(f FloorInfo, section Section, removed map[string]struct{}, yield func(Seat) bool) bool {
	for r := 0; r < f.Rows; r++ {
		row := f.RowLabel(r)
		for n := 1; n <= f.SeatsPerRow; n++ {
			if _, gone := removed[SeatKey(row, n)]; gone {
				continue
			}
			if !yield(Seat{Section: section, Row: row, Number: n}) {
				return false
			}
		}
	}
	return true
}

func keySet(keys []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

type chartKey struct {
	section Section
	key     string
}

// Chart is a resolved view of a layout plus its SeatConfig overrides,
// indexed for the membership and type lookups the booking path needs.
// Build it once per request; the layout stays the source of truth.
type Chart struct {
	seats map[chartKey]SeatType
	dead  map[chartKey]struct{} // enumerable but not bookable
}

// NewChart enumerates the layout and applies seatCategories, disabledSeats
// and the SeatConfig overrides on top.
func NewChart(l *Layout, overrides []SeatOverride) *Chart {
	c := &Chart{
		seats: make(map[chartKey]SeatType),
		dead:  make(map[chartKey]struct{}),
	}
	disabled := keySet(l.DisabledSeats)
	for s := range l.Seats() {
		k := chartKey{s.Section, s.Key()}
		typ := SeatStandard
		if cat, ok := l.SeatCategories[s.Key()]; ok && cat != "" {
			typ = cat
		}
		c.seats[k] = typ
		if _, off := disabled[s.Key()]; off || typ == SeatDisabled {
			c.dead[k] = struct{}{}
		}
	}
	for _, o := range overrides {
		k := chartKey{o.Section, o.Key()}
		if _, ok := c.seats[k]; !ok {
			continue // override for a removed or out-of-grid seat
		}
		if o.SeatType != "" {
			c.seats[k] = o.SeatType
		}
		if !o.IsActive || o.SeatType == SeatDisabled {
			c.dead[k] = struct{}{}
		}
	}
	return c
}

// Has reports whether the seat exists on the grid (removed seats do not).
func (c *Chart) Has(section Section, key string) bool {
	_, ok := c.seats[chartKey{section, key}]
	return ok
}

// Bookable reports whether the seat exists and may be booked.
func (c *Chart) Bookable(section Section, key string) bool {
	k := chartKey{section, key}
	if _, ok := c.seats[k]; !ok {
		return false
	}
	_, off := c.dead[k]
	return !off
}

// SeatType returns the resolved type for an existing seat; standard when the
// seat has no override.  The second result mirrors Has.
func (c *Chart) SeatType(section Section, key string) (SeatType, bool) {
	t, ok := c.seats[chartKey{section, key}]
	return t, ok
}

// Size returns the number of enumerable seats in the chart.
func (c *Chart) Size() int {
	return len(c.seats)
}
