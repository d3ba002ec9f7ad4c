// Package layout models the physical seat map of a theater: the stage, the
// main floor and optional balcony grids, aisles and corridors, removed and
// disabled seats, and per-seat category overrides.  The layout document is
// the single source of truth; the concrete seat set is always derived from
// it rather than stored separately.
package layout

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidLayout is returned by Validate when the geometry is out of
// bounds.  Handlers should translate this into an HTTP 400 response.
var ErrInvalidLayout = errors.New("invalid layout")

// Section identifies which floor a seat belongs to.
type Section string

const (
	SectionMain    Section = "main"
	SectionBalcony Section = "balcony"
)

// SeatType classifies a seat.  Standard is the default when no override
// exists.  Disabled seats occupy a grid cell but cannot be booked.
type SeatType string

const (
	SeatStandard   SeatType = "standard"
	SeatVIP        SeatType = "vip"
	SeatPremium    SeatType = "premium"
	SeatWheelchair SeatType = "wheelchair"
	SeatDisabled   SeatType = "disabled"
)

// StagePosition describes which edge of the room the stage sits on.
type StagePosition string

const (
	StageTop    StagePosition = "top"
	StageBottom StagePosition = "bottom"
	StageLeft   StagePosition = "left"
	StageRight  StagePosition = "right"
)

// Stage bounds.  Width is a percentage of the room, height is expressed in
// layout units; both are purely descriptive.
const (
	MinStageWidth  = 20
	MaxStageWidth  = 100
	MinStageHeight = 5
	MaxStageHeight = 40
)

// Stage describes the stage block drawn on the seat map.
type Stage struct {
	Position StagePosition `json:"position"`
	Width    int           `json:"width"`
	Height   int           `json:"height"`
}

// FloorInfo describes one rectangular seat grid (main floor or balcony).
// AislePositions lists seat indices rendered as gaps.  RowLabels, when
// present, override the generated A, B, C... sequence row by row.
type FloorInfo struct {
	Rows           int      `json:"rows"`
	SeatsPerRow    int      `json:"seatsPerRow"`
	AislePositions []int    `json:"aislePositions,omitempty"`
	RowLabels      []string `json:"rowLabels,omitempty"`
}

// RowLabel returns the label for the given zero-based row index, preferring
// an explicitly supplied label over the generated sequence.
func (f FloorInfo) RowLabel(i int) string {
	if i >= 0 && i < len(f.RowLabels) && f.RowLabels[i] != "" {
		return f.RowLabels[i]
	}
	return rowLabelAt(i, "")
}

// Label is a free-form annotation placed on the seat map (text or icon).
// Annotations are presentational and carry no invariants.
type Label struct {
	Text string `json:"text,omitempty"`
	Icon string `json:"icon,omitempty"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

// Layout is the full seat-map document for a theater.  RemovedSeats do not
// exist (excluded from enumeration); DisabledSeats exist but are not
// bookable.  Corridor maps go from row/column index to a gap size and are
// presentational only.
type Layout struct {
	Stage          Stage               `json:"stage"`
	MainFloor      FloorInfo           `json:"mainFloor"`
	HasBalcony     bool                `json:"hasBalcony"`
	Balcony        FloorInfo           `json:"balcony,omitempty"`
	RemovedSeats   []string            `json:"removedSeats,omitempty"`
	DisabledSeats  []string            `json:"disabledSeats,omitempty"`
	HCorridors     map[int]int         `json:"hCorridors,omitempty"`
	VCorridors     map[int]int         `json:"vCorridors,omitempty"`
	SeatCategories map[string]SeatType `json:"seatCategories,omitempty"`
	Labels         []Label             `json:"labels,omitempty"`
}

// Validate checks the geometric bounds of the layout.  Balcony fields are
// only validated when the balcony is enabled.  All violations wrap
// ErrInvalidLayout so callers can match with errors.Is.
func (l *Layout) Validate() error {
	if l.Stage.Width < MinStageWidth || l.Stage.Width > MaxStageWidth {
		return fmt.Errorf("%w: stage width %d outside [%d,%d]", ErrInvalidLayout, l.Stage.Width, MinStageWidth, MaxStageWidth)
	}
	if l.Stage.Height < MinStageHeight || l.Stage.Height > MaxStageHeight {
		return fmt.Errorf("%w: stage height %d outside [%d,%d]", ErrInvalidLayout, l.Stage.Height, MinStageHeight, MaxStageHeight)
	}
	if err := validateFloor("main floor", l.MainFloor); err != nil {
		return err
	}
	if l.HasBalcony {
		if err := validateFloor("balcony", l.Balcony); err != nil {
			return err
		}
	}
	return nil
}

func validateFloor(name string, f FloorInfo) error {
	if f.Rows < 0 {
		return fmt.Errorf("%w: %s rows must not be negative", ErrInvalidLayout, name)
	}
	if f.SeatsPerRow < 0 {
		return fmt.Errorf("%w: %s seats per row must not be negative", ErrInvalidLayout, name)
	}
	return nil
}

// Seat is one addressable seat derived from the layout.
type Seat struct {
	Section Section `json:"section"`
	Row     string  `json:"row"`
	Number  int     `json:"seatNumber"`
}

// Key returns the seat key, e.g. "C12".  Keys identify a seat within a
// section and must match exactly across theater, event and booking records.
func (s Seat) Key() string {
	return SeatKey(s.Row, s.Number)
}

// SeatKey builds the "{row}{seatNumber}" key used throughout the system.
func SeatKey(row string, number int) string {
	return row + strconv.Itoa(number)
}

// SeatOverride is one SeatConfig entry: a seat with a non-default type or an
// explicitly inactive seat.  Seats without an entry are active standard
// seats.
type SeatOverride struct {
	Row        string   `json:"row"`
	SeatNumber int      `json:"seatNumber"`
	SeatType   SeatType `json:"seatType"`
	Section    Section  `json:"section"`
	IsActive   bool     `json:"isActive"`
}

// Key returns the override's seat key.
func (o SeatOverride) Key() string {
	return SeatKey(o.Row, o.SeatNumber)
}

// UnmarshalJSON applies the documented defaults: isActive defaults to true
// when omitted, seatType to standard and section to main.
func (o *SeatOverride) UnmarshalJSON(data []byte) error {
	var raw struct {
		Row        string   `json:"row"`
		SeatNumber int      `json:"seatNumber"`
		SeatType   SeatType `json:"seatType"`
		Section    Section  `json:"section"`
		IsActive   *bool    `json:"isActive"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	o.Row = raw.Row
	o.SeatNumber = raw.SeatNumber
	o.SeatType = raw.SeatType
	o.Section = raw.Section
	if o.SeatType == "" {
		o.SeatType = SeatStandard
	}
	if o.Section == "" {
		o.Section = SectionMain
	}
	o.IsActive = raw.IsActive == nil || *raw.IsActive
	return nil
}

// ValidateOverrides checks that every SeatConfig entry is well formed.
func ValidateOverrides(overrides []SeatOverride) error {
	for _, o := range overrides {
		if o.Row == "" || o.SeatNumber < 1 {
			return fmt.Errorf("%w: seat config entry needs a row and a positive seat number", ErrInvalidLayout)
		}
		switch o.SeatType {
		case SeatStandard, SeatVIP, SeatPremium, SeatWheelchair, SeatDisabled:
		default:
			return fmt.Errorf("%w: unknown seat type %q", ErrInvalidLayout, o.SeatType)
		}
		switch o.Section {
		case SectionMain, SectionBalcony:
		default:
			return fmt.Errorf("%w: unknown section %q", ErrInvalidLayout, o.Section)
		}
	}
	return nil
}
