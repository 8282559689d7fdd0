package inputdisplay

import (
	"errors"
	"fmt"

	"github.com/ayusman/replayscan/internal/detector"
	"github.com/ayusman/replayscan/internal/hud"
)

// MaxRows is the number of rows the display shows per player.
const MaxRows = hud.InputRows

// Reading weights. Icons are matched reliably, the held-frames counters are
// not.
const (
	IconWeight   = 9
	NumberWeight = 1
	// MaxFrames is the largest counter value the display shows.
	MaxFrames = 99
)

// ErrAmbiguousDirection is returned when two different direction arrows are
// found on the same row.
var ErrAmbiguousDirection = errors.New("two directions found on one input row")

// RowFor returns the display row (1 to MaxRows) holding pixel row y of the
// input display region.
func RowFor(y int) int {
	row := int(float64(y)/hud.InputRowHeight()) + 1
	if row < 1 {
		return 1
	}
	if row > MaxRows {
		return MaxRows
	}
	return row
}

// Observation is the input display of both players at one frame.
type Observation struct {
	Frame int
	rows  [2][MaxRows + 1]*ObservationRow
}

// NewObservation returns an observation whose rows are all unread.
func NewObservation(frame int) *Observation {
	o := &Observation{Frame: frame}
	for _, p := range hud.Players {
		for r := 1; r <= MaxRows; r++ {
			o.rows[p][r] = NewObservationRow()
		}
	}
	return o
}

// Row returns row r (1 to MaxRows) of a player.
func (o *Observation) Row(p hud.Player, r int) *ObservationRow {
	return o.rows[p][r]
}

// AddButtons records button icons found in a player's button column. All
// buttons on one row form a single chord.
func (o *Observation) AddButtons(p hud.Player, matches []detector.Match) {
	chords := make(map[int]ButtonSet)
	var order []int
	for _, m := range matches {
		b, ok := ParseButton(m.Label)
		if !ok {
			continue
		}
		r := RowFor(m.Point.Y)
		if _, seen := chords[r]; !seen {
			order = append(order, r)
		}
		chords[r] |= ButtonSet(b)
	}
	for _, r := range order {
		o.rows[p][r].AddButtons(chords[r], IconWeight)
	}
}

// AddDirections records direction arrows found in a player's direction
// column.
func (o *Observation) AddDirections(p hud.Player, matches []detector.Match) error {
	found := make(map[int]Direction)
	for _, m := range matches {
		d, ok := ParseDirection(m.Label)
		if !ok {
			continue
		}
		r := RowFor(m.Point.Y)
		if prev, seen := found[r]; seen {
			if prev != d {
				return fmt.Errorf("%w: %s row %d shows %s and %s at frame %d", ErrAmbiguousDirection, p, r, prev, d, o.Frame)
			}
			continue
		}
		found[r] = d
		o.rows[p][r].AddDirection(d, IconWeight)
	}
	return nil
}

// AddNumbers records held-frames counters. Values the display cannot show
// are ignored.
func (o *Observation) AddNumbers(p hud.Player, numbers []detector.Number) {
	for _, n := range numbers {
		if n.Value < 0 || n.Value > MaxFrames {
			continue
		}
		o.rows[p][RowFor(n.Point.Y)].AddFrames(n.Value, NumberWeight)
	}
}

// Rows resolves every row of a player, row 1 first.
func (o *Observation) Rows(p hud.Player) []Row {
	out := make([]Row, MaxRows)
	for r := 1; r <= MaxRows; r++ {
		out[r-1] = o.rows[p][r].Best()
	}
	return out
}
