package inputdisplay

import (
	"gonum.org/v1/gonum/floats"

	"github.com/ayusman/replayscan/internal/likelihood"
)

// ObservationRow accumulates the readings of one display row.
type ObservationRow struct {
	Direction *likelihood.Map[Direction]
	Buttons   *likelihood.Map[ButtonSet]
	Frames    *likelihood.Map[int]
}

// NewObservationRow returns a row nobody has read yet.
func NewObservationRow() *ObservationRow {
	return &ObservationRow{
		Direction: likelihood.New[Direction](),
		Buttons:   likelihood.New[ButtonSet](),
		Frames:    likelihood.New[int](),
	}
}

func (r *ObservationRow) AddDirection(d Direction, w int64) { r.Direction.Add(d, w) }
func (r *ObservationRow) AddButtons(s ButtonSet, w int64)   { r.Buttons.Add(s, w) }
func (r *ObservationRow) AddFrames(n int, w int64)          { r.Frames.Add(n, w) }

// Read reports whether any part of the row was recognized.
func (r *ObservationRow) Read() bool {
	return r.Direction.Len() > 0 || r.Buttons.Len() > 0 || r.Frames.Len() > 0
}

// SameProbability estimates how likely both rows show the same input.
func (r *ObservationRow) SameProbability(o *ObservationRow) float64 {
	return floats.Prod([]float64{
		r.Direction.Similarity(o.Direction),
		r.Buttons.Similarity(o.Buttons),
		r.Frames.Similarity(o.Frames),
	})
}

// Best resolves the row to its most likely input. Parts that were never read
// stay at their zero value.
func (r *ObservationRow) Best() Row {
	var row Row
	if d, ok := r.Direction.MostLikely(); ok {
		row.Direction = d
	}
	if s, ok := r.Buttons.MostLikely(); ok {
		row.Buttons = s
	}
	if n, ok := r.Frames.MostLikely(); ok {
		row.Frames = n
	}
	return row
}

// Merge combines both rows as independent readings of the same input.
func (r *ObservationRow) Merge(o *ObservationRow) *ObservationRow {
	return &ObservationRow{
		Direction: r.Direction.Merge(o.Direction),
		Buttons:   r.Buttons.Merge(o.Buttons),
		Frames:    r.Frames.Merge(o.Frames),
	}
}

// MergeBest merges both rows and resolves the result.
func (r *ObservationRow) MergeBest(o *ObservationRow) Row {
	return r.Merge(o).Best()
}

func (r *ObservationRow) String() string {
	return r.Direction.String() + " " + r.Buttons.String() + " " + r.Frames.String()
}
