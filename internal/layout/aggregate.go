package layout

// Aggregates are the derived seat counts cached on theater and event
// records.  They are never mutated independently: every write path must
// recompute them from the current layout and seat config via Aggregate.
type Aggregates struct {
	TotalSeats   int `json:"totalSeats"`
	VIPSeats     int `json:"vipSeats"`
	PremiumSeats int `json:"premiumSeats"`
}

// Aggregate recomputes the cached seat counts from scratch.  Total capacity
// is the raw grid size (main floor plus balcony when enabled) minus every
// override that is inactive or typed disabled, floored at zero.  VIP and
// premium counts only consider active overrides.
func Aggregate(l *Layout, overrides []SeatOverride) Aggregates {
	total := l.MainFloor.Rows * l.MainFloor.SeatsPerRow
	if l.HasBalcony {
		total += l.Balcony.Rows * l.Balcony.SeatsPerRow
	}
	var agg Aggregates
	for _, o := range overrides {
		if !o.IsActive || o.SeatType == SeatDisabled {
			total--
			continue
		}
		switch o.SeatType {
		case SeatVIP:
			agg.VIPSeats++
		case SeatPremium:
			agg.PremiumSeats++
		}
	}
	if total < 0 {
		total = 0
	}
	agg.TotalSeats = total
	return agg
}
