package inputdisplay

import (
	"math"
	"strconv"

	"github.com/cyclopcam/logs"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/ayusman/replayscan/internal/hud"
)

const (
	// MergeThreshold is the largest frame distance at which two samples of
	// the display are still expected to share rows.
	MergeThreshold = 150
	// MinOverlap is the smallest number of shared rows an alignment is
	// accepted on.
	MinOverlap = 4
	// DefaultMinSimilarity is the same-probability above which two rows count
	// as the same input.
	DefaultMinSimilarity = 0.5
)

// History is the reconstructed input list of both players, oldest input
// first. Row 1 of the newest sample is never part of it: that input is still
// being held and its counter is not final.
type History struct {
	Frame int
	Rows  [2][]Row
}

// Inputs returns a copy of a player's inputs.
func (h *History) Inputs(p hud.Player) []Row {
	out := make([]Row, len(h.Rows[p]))
	copy(out, h.Rows[p])
	return out
}

// Len returns the number of inputs of both players together.
func (h *History) Len() int {
	return len(h.Rows[hud.P1]) + len(h.Rows[hud.P2])
}

// Merger aligns two display samples by finding how many rows the display
// scrolled between them.
type Merger struct {
	Threshold     int
	MinSimilarity float64
	Log           logs.Log
}

// NewMerger returns a merger with the default settings.
func NewMerger(log logs.Log) *Merger {
	return &Merger{
		Threshold:     MergeThreshold,
		MinSimilarity: DefaultMinSimilarity,
		Log:           log,
	}
}

func (m *Merger) debugf(format string, args ...interface{}) {
	if m.Log != nil {
		m.Log.Debugf(format, args...)
	}
}

// Slide returns by how many rows a player's display scrolled from a to b. Row
// r of a is compared with row r+s of b, skipping row 1 whose counter is still
// running. Only pairs where at least one row was read count, and a pair where
// only one side was read is a mismatch. Every slide leaving at least
// MinOverlap rows is scored by its mean capped same-probability; the best
// accepted slide wins, the smallest on ties. A slide without any counted pair
// has nothing against it and scores 0.
func (m *Merger) Slide(a, b *Observation, p hud.Player) (int, bool) {
	best, bestScore := 0, -1.0
	for s := 0; MaxRows-1-s >= MinOverlap; s++ {
		counted, same := 0, 0
		score := 0.0
		for r := 2; r+s <= MaxRows; r++ {
			x, y := a.rows[p][r], b.rows[p][r+s]
			if !x.Read() && !y.Read() {
				continue
			}
			counted++
			if !x.Read() || !y.Read() {
				continue
			}
			prob := math.Min(x.SameProbability(y), 1)
			score += prob
			if prob >= m.MinSimilarity {
				same++
			}
		}
		if counted > 0 {
			if same < max(counted/2, 1) {
				continue
			}
			score /= float64(counted)
		}
		if score > bestScore {
			best, bestScore = s, score
		}
	}
	return best, bestScore >= 0
}

// Merge combines two samples taken at frameA < frameB. It reports false when
// they are too far apart or one player's display cannot be aligned.
func (m *Merger) Merge(a *Observation, frameA int, b *Observation, frameB int) (*History, bool) {
	if frameB-frameA > m.Threshold {
		return nil, false
	}
	h := &History{Frame: frameB}
	for _, p := range hud.Players {
		s, ok := m.Slide(a, b, p)
		if !ok {
			m.debugf("input display: %s has no alignment between frames %d and %d", p, frameA, frameB)
			return nil, false
		}
		h.Rows[p] = mergeRows(a, b, p, s)
	}
	return h, true
}

// mergeRows lays out a player's rows oldest first: rows only a still shows,
// rows both show, then rows only b shows.
func mergeRows(a, b *Observation, p hud.Player, s int) []Row {
	var rows []Row
	for r := MaxRows; r > MaxRows-s; r-- {
		rows = append(rows, a.rows[p][r].Best())
	}
	for r := MaxRows - s; r >= 2; r-- {
		rows = append(rows, a.rows[p][r].MergeBest(b.rows[p][r+s]))
	}
	for r := 1 + s; r >= 2; r-- {
		rows = append(rows, b.rows[p][r].Best())
	}
	return nonEmpty(rows)
}

func nonEmpty(rows []Row) []Row {
	out := rows[:0]
	for _, r := range rows {
		if !r.IsEmpty() {
			out = append(out, r)
		}
	}
	return out
}

// Lift turns a sample into a history on its own.
func (m *Merger) Lift(o *Observation) *History {
	h := &History{Frame: o.Frame}
	for _, p := range hud.Players {
		rows := make([]Row, 0, MaxRows-1)
		for r := MaxRows; r >= 2; r-- {
			rows = append(rows, o.rows[p][r].Best())
		}
		h.Rows[p] = nonEmpty(rows)
	}
	return h
}

// Join appends b to a. Inputs both histories agree on are kept once.
func (m *Merger) Join(a, b *History) *History {
	frame := a.Frame
	if b.Frame > frame {
		frame = b.Frame
	}
	h := &History{Frame: frame}
	for _, p := range hud.Players {
		h.Rows[p] = joinRows(a.Rows[p], b.Rows[p])
	}
	return h
}

// joinRows merges two input lists along their difflib alignment. Rows are
// matched on their full reading, held frames included; unmatched stretches of
// a come before those of b. Popular rows are not treated as junk, since a
// history repeats the same few inputs often.
func joinRows(a, b []Row) []Row {
	m := difflib.NewMatcherWithJunk(rowIDs(a), rowIDs(b), false, nil)
	var out []Row
	for _, op := range m.GetOpCodes() {
		switch op.Tag {
		case 'e', 'd':
			out = append(out, a[op.I1:op.I2]...)
		case 'i':
			out = append(out, b[op.J1:op.J2]...)
		case 'r':
			out = append(out, a[op.I1:op.I2]...)
			out = append(out, b[op.J1:op.J2]...)
		}
	}
	return out
}

func rowIDs(rows []Row) []string {
	keys := rowKeys(rows)
	for i, r := range rows {
		keys[i] += " " + strconv.Itoa(r.Frames)
	}
	return keys
}
