package framemeter

import (
	"sort"

	"github.com/cyclopcam/logs"
)

const (
	// RegionMergeThreshold is the largest frame distance at which two region
	// sampled observations are still expected to overlap.
	RegionMergeThreshold = 80
	// PointMergeThreshold is the same distance for point sampled
	// observations, whose columns carry much less evidence.
	PointMergeThreshold = 40
	// DefaultStaleFrames is how long the accumulated timeline may stay
	// unchanged before an observation that fails to align is discarded
	// instead of appended.
	DefaultStaleFrames = 80
	// DefaultMinSimilarity is the mean same-probability an alignment needs
	// over its shared positions.
	DefaultMinSimilarity = 0.5
)

// Merger aligns observations taken at different frames and combines them
// into one sequence.
//
// Alignment works on meter windows: an offset d maps window j of the newer
// observation onto window j+d of the older one, and the offset with the best
// total same-probability over shared positions wins. Positions are the
// alignment key, never frame numbers.
type Merger struct {
	Threshold     int
	StaleFrames   int
	MinSimilarity float64
	Log           logs.Log
}

// NewMerger returns a merger with the given frame threshold and the default
// fallback settings.
func NewMerger(threshold int, log logs.Log) *Merger {
	return &Merger{
		Threshold:     threshold,
		StaleFrames:   DefaultStaleFrames,
		MinSimilarity: DefaultMinSimilarity,
		Log:           log,
	}
}

func (m *Merger) debugf(format string, args ...interface{}) {
	if m.Log != nil {
		m.Log.Debugf(format, args...)
	}
}

// Merge combines two samples. It reports false when the frames are too far
// apart to share columns or no alignment exists.
func (m *Merger) Merge(a *Observation, frameA int, b *Observation, frameB int) (*Observation, bool) {
	if frameB-frameA > m.Threshold {
		return nil, false
	}
	columns, ok := m.align(a.Columns, b.Columns)
	if !ok {
		m.debugf("frame meter: no alignment between frames %d and %d", frameA, frameB)
		return nil, false
	}
	return NewObservation(frameB, columns), true
}

// Join combines two merged fragments, in frame order. Fragments that do not
// align are concatenated; duplicates are resolved when finalizing.
func (m *Merger) Join(a, b *Observation) *Observation {
	if a.Len() == 0 {
		return b.Clone()
	}
	if b.Len() == 0 {
		return a.Clone()
	}
	frame := a.Frame
	if b.Frame > frame {
		frame = b.Frame
	}
	if columns, ok := m.align(a.Columns, b.Columns); ok {
		return NewObservation(frame, columns)
	}
	m.debugf("frame meter: concatenating fragments ending at frames %d and %d", a.Frame, b.Frame)
	columns := make([]Column, 0, a.Len()+b.Len())
	columns = append(columns, a.Columns...)
	columns = append(columns, b.Columns...)
	return NewObservation(frame, columns)
}

// Lift turns a sample that merged with nothing into a fragment.
func (m *Merger) Lift(o *Observation) *Observation {
	return o.Clone()
}

// Extend merges a new sample into the accumulated sequence. Only the last
// next.Len() columns of the accumulator take part in the alignment. When no
// alignment exists a sample starting a fresh window is appended after a
// boundary, a sample arriving after sinceChange frames of stillness is
// dropped and anything else is appended as is.
func (m *Merger) Extend(acc, next *Observation, sinceChange int, newSeq bool) *Observation {
	if acc.Len() == 0 {
		if next == nil {
			return NewObservation(0, nil)
		}
		return next.Clone()
	}
	if next.Len() == 0 {
		return acc
	}

	n := next.Len()
	if n > acc.Len() {
		n = acc.Len()
	}
	head := acc.Columns[:acc.Len()-n]
	tail := acc.Columns[acc.Len()-n:]

	columns := make([]Column, 0, len(head)+n+next.Len())
	columns = append(columns, head...)

	if merged, ok := m.align(tail, next.Columns); ok {
		columns = append(columns, merged...)
		return NewObservation(next.Frame, columns)
	}

	columns = append(columns, tail...)
	switch {
	case newSeq:
		m.debugf("frame meter: frame %d starts a new window", next.Frame)
		if !columns[len(columns)-1].IsEndOfWindow() {
			columns = append(columns, EndOfWindowColumn())
		}
		columns = append(columns, next.Columns...)
	case sinceChange > m.StaleFrames:
		m.debugf("frame meter: dropping frame %d, nothing changed for %d frames", next.Frame, sinceChange)
		return acc
	default:
		m.debugf("frame meter: appending unaligned frame %d", next.Frame)
		columns = append(columns, next.Columns...)
	}
	return NewObservation(next.Frame, columns)
}

// align merges b into a. The returned slice is freshly allocated.
func (m *Merger) align(a, b []Column) ([]Column, bool) {
	aw := splitWindows(a)
	bw := splitWindows(b)

	offset, found := 0, false
	bestScore := 0.0
	for d := -(len(bw) - 1); d < len(aw); d++ {
		score, shared := 0.0, 0
		for j := range bw {
			i := j + d
			if i < 0 || i >= len(aw) {
				continue
			}
			s, n := overlap(aw[i], bw[j])
			score += s
			shared += n
		}
		if shared == 0 || score/float64(shared) < m.MinSimilarity {
			continue
		}
		if !found || score > bestScore {
			offset, bestScore, found = d, score, true
		}
	}

	if !found {
		var ok bool
		if offset, ok = continuity(aw, bw); !ok {
			return nil, false
		}
	}
	return joinWindows(combine(aw, bw, offset)), true
}

// overlap sums the same-probability of columns sharing a position.
func overlap(a, b []Column) (float64, int) {
	byPosition := make(map[int]Column, len(a))
	for _, c := range a {
		if _, ok := byPosition[c.Position]; !ok {
			byPosition[c.Position] = c
		}
	}
	score, shared := 0.0, 0
	for _, c := range b {
		if other, ok := byPosition[c.Position]; ok {
			score += other.SameProbability(c)
			shared++
		}
	}
	return score, shared
}

// continuity aligns observations that share no position by assuming the
// newer one carries on where the older one stopped.
func continuity(aw, bw [][]Column) (int, bool) {
	last := len(aw) - 1
	if len(aw[last]) == 0 {
		// a ends on a boundary: b either finishes the window before it or
		// opens the next one.
		if len(bw) > 1 && last >= 1 && len(aw[last-1]) > 0 && len(bw[0]) > 0 &&
			minPosition(bw[0]) > maxPosition(aw[last-1]) {
			return last - 1, true
		}
		return last, true
	}
	if len(bw[0]) > 0 && minPosition(bw[0]) > maxPosition(aw[last]) {
		return last, true
	}
	return 0, false
}

func minPosition(columns []Column) int {
	lo := columns[0].Position
	for _, c := range columns[1:] {
		if c.Position < lo {
			lo = c.Position
		}
	}
	return lo
}

func maxPosition(columns []Column) int {
	hi := columns[0].Position
	for _, c := range columns[1:] {
		if c.Position > hi {
			hi = c.Position
		}
	}
	return hi
}

// combine lays b's windows over a's with the given offset.
func combine(aw, bw [][]Column, offset int) [][]Column {
	first := 0
	if offset < 0 {
		first = offset
	}
	last := len(aw) - 1
	if end := len(bw) - 1 + offset; end > last {
		last = end
	}

	out := make([][]Column, 0, last-first+1)
	for k := first; k <= last; k++ {
		var x, y []Column
		if k >= 0 && k < len(aw) {
			x = aw[k]
		}
		if j := k - offset; j >= 0 && j < len(bw) {
			y = bw[j]
		}
		out = append(out, combineWindow(x, y))
	}
	return out
}

// combineWindow is a positional three-way merge: positions only one side has
// are kept, shared positions combine their evidence.
func combineWindow(x, y []Column) []Column {
	out := make([]Column, len(x), len(x)+len(y))
	copy(out, x)
	index := make(map[int]int, len(x))
	for i, c := range out {
		if _, ok := index[c.Position]; !ok {
			index[c.Position] = i
		}
	}
	for _, c := range y {
		if i, ok := index[c.Position]; ok {
			out[i] = out[i].merge(c)
			continue
		}
		index[c.Position] = len(out)
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}
