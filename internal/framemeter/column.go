// Package framemeter reconstructs the frame meter timeline from sparse,
// noisy samples of the HUD.
//
// A sample reads one Column per meter position. Columns hold a likelihood map
// per player instead of a single state, so repeated readings of the same
// position reinforce or contradict each other when merged. Resolved columns
// (from fixtures or point sampling) are degenerate single-value maps.
package framemeter

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/ayusman/replayscan/internal/hud"
	"github.com/ayusman/replayscan/internal/likelihood"
	"github.com/ayusman/replayscan/internal/state"
)

// EndOfWindowPosition is the position carried by window boundary sentinels.
// It lies outside the meter so sentinels never share a position with a
// real column.
const EndOfWindowPosition = hud.MeterColumns + 1

const (
	// PastThreshold is the past probability from which a column counts as a
	// ghost of the previous window.
	PastThreshold = 0.2
	// PresentThreshold is the present probability from which a column counts
	// as a genuine reading.
	PresentThreshold = 0.2
	// UnknownThreshold is the probability from which a column is noise.
	UnknownThreshold = 0.5
	// EndOfWindowThreshold is the probability from which a column is a
	// window boundary.
	EndOfWindowThreshold = 0.5

	// A dark "nothing" cell looks the same in both tenses, so it only lends a
	// little support to either.
	nothingConfuses = 1.0 / hud.MeterColumns
)

// ErrPositionMismatch is returned when merging columns of different positions.
var ErrPositionMismatch = errors.New("columns are at different positions")

// StateMap is the likelihood of each state for one player in one column.
type StateMap = likelihood.Map[state.State]

// Column is one frame meter position as seen in one or more samples.
type Column struct {
	Position int
	maps     [2]*StateMap
}

// NewColumn builds a column from one likelihood map per player. A nil map is
// treated as a single unknown observation.
func NewColumn(position int, p1, p2 *StateMap) Column {
	if p1 == nil {
		p1 = likelihood.New[state.State]()
	}
	if p2 == nil {
		p2 = likelihood.New[state.State]()
	}
	return Column{Position: position, maps: [2]*StateMap{p1, p2}}
}

// NewResolvedColumn builds a column whose states are known. The zero State
// stands for a reading nobody could classify.
func NewResolvedColumn(position int, p1, p2 state.State) Column {
	return NewColumn(position, certain(p1), certain(p2))
}

func certain(s state.State) *StateMap {
	if s.IsUnknown() {
		return likelihood.New[state.State]()
	}
	return likelihood.Certain(s, 1)
}

// EndOfWindowColumn returns the sentinel separating two meter windows.
func EndOfWindowColumn() Column {
	end := state.Of(state.EndOfWindow)
	return NewResolvedColumn(EndOfWindowPosition, end, end)
}

// Map returns the likelihood map of a player. Maps are shared between copies
// of a column and must not be mutated.
func (c Column) Map(p hud.Player) *StateMap {
	return c.maps[p]
}

// State returns the most likely state of a player, or the zero State when the
// unknown bucket dominates.
func (c Column) State(p hud.Player) state.State {
	s, ok := c.maps[p].MostLikely()
	if !ok {
		return state.State{}
	}
	return s
}

// SetState replaces a player's evidence with a single resolved state.
func (c *Column) SetState(p hud.Player, s state.State) {
	c.maps[p] = certain(s)
}

func (c Column) product(fn func(m *StateMap) float64) float64 {
	return floats.Prod([]float64{fn(c.maps[hud.P1]), fn(c.maps[hud.P2])})
}

// IsEndOfWindow reports whether the column is a window boundary sentinel.
func (c Column) IsEndOfWindow() bool {
	end := state.Of(state.EndOfWindow)
	return c.product(func(m *StateMap) float64 { return m.Likelihood(end) }) >= EndOfWindowThreshold
}

// UnknownOrNothingProbability is the probability that the column carries no
// information about either player.
func (c Column) UnknownOrNothingProbability() float64 {
	return c.product(func(m *StateMap) float64 {
		return m.LikelihoodUnknown() + m.Likelihood(state.Of(state.Nothing)) + m.Likelihood(state.PastOf(state.Nothing))
	})
}

// IsUnknownOrNothing reports whether the column is noise.
func (c Column) IsUnknownOrNothing() bool {
	return c.UnknownOrNothingProbability() >= UnknownThreshold
}

// PastProbability is the probability that every player's reading is a ghost.
func (c Column) PastProbability() float64 {
	return c.product(func(m *StateMap) float64 { return tenseProbability(m, state.Past) })
}

// PresentProbability is the probability that every player's reading is
// genuine.
func (c Column) PresentProbability() float64 {
	return c.product(func(m *StateMap) float64 { return tenseProbability(m, state.Present) })
}

// tenseProbability counts unknown weight as compatible with either tense.
func tenseProbability(m *StateMap, tense state.Temporal) float64 {
	if m.Total() == 0 {
		return 1
	}
	support := float64(m.Unknown())
	for _, s := range m.Keys() {
		switch {
		case s.Temporal == tense:
			support += float64(m.Weight(s))
		case s.IsNothing():
			support += float64(m.Weight(s)) * nothingConfuses
		}
	}
	return support / float64(m.Total())
}

// IsPast reports whether the column is a ghost: both players read past, or
// one reads past while the other shows nothing or cannot be read.
func (c Column) IsPast() bool {
	var past, loose [2]bool
	for _, p := range hud.Players {
		s, ok := c.maps[p].MostLikely()
		past[p] = ok && s.IsPast()
		loose[p] = !ok || s.IsNothing()
	}
	return (past[hud.P1] && past[hud.P2]) ||
		(past[hud.P1] && loose[hud.P2]) ||
		(past[hud.P2] && loose[hud.P1])
}

// MergeWith combines the evidence of two readings of the same position.
func (c Column) MergeWith(o Column) (Column, error) {
	if c.Position != o.Position {
		return Column{}, fmt.Errorf("%w: %d and %d", ErrPositionMismatch, c.Position, o.Position)
	}
	return c.merge(o), nil
}

// merge combines the evidence of o into c, keeping c's position.
func (c Column) merge(o Column) Column {
	return NewColumn(c.Position,
		c.maps[hud.P1].Merge(o.maps[hud.P1]),
		c.maps[hud.P2].Merge(o.maps[hud.P2]),
	)
}

// SameProbability estimates how likely both columns are readings of the same
// cell. Columns at different positions never are.
func (c Column) SameProbability(o Column) float64 {
	if c.Position != o.Position {
		return 0
	}
	return floats.Prod([]float64{
		c.maps[hud.P1].Similarity(o.maps[hud.P1]),
		c.maps[hud.P2].Similarity(o.maps[hud.P2]),
	})
}

// ToPresent returns the column with every ghost reading turned into the
// corresponding present state.
func (c Column) ToPresent() Column {
	toPresent := func(s state.State) state.State { return s.ToPresent() }
	return NewColumn(c.Position,
		c.maps[hud.P1].Transform(toPresent),
		c.maps[hud.P2].Transform(toPresent),
	)
}

// Differences describes where two columns disagree. Only known most likely
// states are compared.
func (c Column) Differences(o Column) []string {
	var diffs []string
	if c.Position != o.Position {
		diffs = append(diffs, fmt.Sprintf("position: %d != %d", c.Position, o.Position))
	}
	for _, p := range hud.Players {
		a, aok := c.maps[p].MostLikelyKnown()
		b, bok := o.maps[p].MostLikelyKnown()
		if aok != bok || a != b {
			diffs = append(diffs, fmt.Sprintf("%s: %s != %s", p, a, b))
		}
	}
	return diffs
}

func (c Column) String() string {
	return fmt.Sprintf("%d[%s|%s]", c.Position, c.maps[hud.P1], c.maps[hud.P2])
}
