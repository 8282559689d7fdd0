package framemeter

import (
	"errors"
	"fmt"
	"math"

	"github.com/ayusman/replayscan/internal/hud"
)

// ErrPastPresentContradiction is returned when a column that cannot be a
// ghost follows a column that cannot be genuine. The probability model
// produced an impossible sample; it is never papered over.
var ErrPastPresentContradiction = errors.New("past and present columns overlap")

// CleanOptions tunes the per-sample cleanup.
type CleanOptions struct {
	// PastFoldWindow is how many trailing ghost columns are folded into the
	// head of the sample as the end of the previous window.
	PastFoldWindow int
	// EndOfWindowFill is the share of a window that must be present before a
	// sample is closed with a boundary sentinel.
	EndOfWindowFill float64
}

// DefaultCleanOptions returns the calibrated cleanup settings.
func DefaultCleanOptions() CleanOptions {
	return CleanOptions{PastFoldWindow: 20, EndOfWindowFill: 0.9}
}

// Observation is an ordered run of columns. A fresh sample holds the columns
// read from one video frame; the accumulated timeline is an Observation too.
// Boundary sentinels split it into meter windows.
type Observation struct {
	Frame   int
	Columns []Column
}

// NewObservation wraps the columns read at a frame.
func NewObservation(frame int, columns []Column) *Observation {
	return &Observation{Frame: frame, Columns: columns}
}

// Len returns the number of columns, sentinels included.
func (o *Observation) Len() int {
	if o == nil {
		return 0
	}
	return len(o.Columns)
}

// Clone returns a copy whose column slice can be modified independently.
func (o *Observation) Clone() *Observation {
	columns := make([]Column, len(o.Columns))
	copy(columns, o.Columns)
	return &Observation{Frame: o.Frame, Columns: columns}
}

// HasEndOfWindow reports whether the observation holds a boundary sentinel.
func (o *Observation) HasEndOfWindow() bool {
	for _, c := range o.Columns {
		if c.IsEndOfWindow() {
			return true
		}
	}
	return false
}

// StartsSequence reports whether the observation begins at the first meter
// position, i.e. it starts a new window rather than continuing one.
func (o *Observation) StartsSequence() bool {
	return o.Len() > 0 && o.Columns[0].Position == 0
}

// Windows splits the columns at boundary sentinels. An observation with n
// sentinels always yields n+1 windows, some possibly empty.
func (o *Observation) Windows() [][]Column {
	return splitWindows(o.Columns)
}

func splitWindows(columns []Column) [][]Column {
	windows := [][]Column{nil}
	for _, c := range columns {
		if c.IsEndOfWindow() {
			windows = append(windows, nil)
			continue
		}
		windows[len(windows)-1] = append(windows[len(windows)-1], c)
	}
	return windows
}

func joinWindows(windows [][]Column) []Column {
	var out []Column
	for i, w := range windows {
		if i > 0 {
			out = append(out, EndOfWindowColumn())
		}
		out = append(out, w...)
	}
	return out
}

// Clean runs the per-sample cleanup passes in order: trim the noisy tail, cut
// off the ghost tail, fold its last columns forward as the end of the
// previous window and tag a nearly full window.
func (o *Observation) Clean(opts CleanOptions) error {
	o.TrimTail()
	if o.Len() == 0 {
		return nil
	}
	past, err := o.PurgePast()
	if err != nil {
		return err
	}
	o.FoldPast(past, opts.PastFoldWindow)
	o.TagEndOfWindow(opts.EndOfWindowFill)
	return nil
}

// TrimTail drops the trailing run of noise columns.
func (o *Observation) TrimTail() {
	last := len(o.Columns) - 1
	for last >= 0 && o.Columns[last].IsUnknownOrNothing() {
		last--
	}
	o.Columns = o.Columns[:last+1]
}

// SplitPastPresent returns the index splitting the genuine head from the
// ghost tail. The split lies between the last column that cannot be a ghost
// and the first that cannot be genuine, at the point maximising
// P(head present) * P(tail past). Ties keep columns in the head.
func (o *Observation) SplitPastPresent() (int, error) {
	n := len(o.Columns)
	lo, hi := 0, n
	for i, c := range o.Columns {
		if c.PastProbability() == 0 {
			lo = i + 1
		}
	}
	for i, c := range o.Columns {
		if c.PresentProbability() == 0 {
			hi = i
			break
		}
	}
	if lo > hi {
		return 0, fmt.Errorf("%w: frame %d, genuine column at %d after ghost column at %d", ErrPastPresentContradiction, o.Frame, lo-1, hi)
	}

	// head[k] = P(columns[:k] present), tail[k] = P(columns[k:] past)
	head := make([]float64, n+1)
	tail := make([]float64, n+1)
	head[0], tail[n] = 1, 1
	for i := 0; i < n; i++ {
		head[i+1] = head[i] * o.Columns[i].PresentProbability()
	}
	for i := n - 1; i >= 0; i-- {
		tail[i] = tail[i+1] * o.Columns[i].PastProbability()
	}

	best, bestScore := lo, math.Inf(-1)
	for k := lo; k <= hi; k++ {
		if score := head[k] * tail[k]; score >= bestScore {
			best, bestScore = k, score
		}
	}
	return best, nil
}

// PurgePast truncates the observation at the genuine/ghost split and returns
// the ghost tail that was cut off.
func (o *Observation) PurgePast() ([]Column, error) {
	split, err := o.SplitPastPresent()
	if err != nil {
		return nil, err
	}
	past := make([]Column, len(o.Columns)-split)
	copy(past, o.Columns[split:])
	o.Columns = o.Columns[:split]
	return past, nil
}

// FoldPast prepends the last ghost columns, turned into present readings, as
// the end of the previous window followed by a boundary sentinel. At most
// window columns are folded, walking back from the end while columns are
// likely ghosts.
func (o *Observation) FoldPast(past []Column, window int) {
	start := len(past)
	for start > 0 && len(past)-start < window && past[start-1].PastProbability() >= PastThreshold {
		start--
	}
	if start == len(past) {
		return
	}

	columns := make([]Column, 0, len(past)-start+1+len(o.Columns))
	for _, c := range past[start:] {
		columns = append(columns, c.ToPresent())
	}
	columns = append(columns, EndOfWindowColumn())
	o.Columns = append(columns, o.Columns...)
}

// TagEndOfWindow closes the observation with a boundary sentinel once it
// covers at least fill of a window and carries no sentinel yet.
func (o *Observation) TagEndOfWindow(fill float64) {
	if o.HasEndOfWindow() {
		return
	}
	if float64(len(o.Columns)) >= fill*hud.MeterColumns {
		o.Columns = append(o.Columns, EndOfWindowColumn())
	}
}
