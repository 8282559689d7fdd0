package framemeter

import (
	"sort"

	"github.com/ayusman/replayscan/internal/hud"
	"github.com/ayusman/replayscan/internal/state"
)

// FinalizeOptions tunes the final cleanup passes.
type FinalizeOptions struct {
	// SparseInvulnerabilityRun is the longest run of invulnerability states
	// treated as a misread and overwritten by the preceding state.
	SparseInvulnerabilityRun int
	// BridgeThresholds[i] is the unknown run length from which i+1 frames at
	// each end of the run are bridged from its neighbours. Shorter runs are
	// filled completely.
	BridgeThresholds []int
}

// DefaultFinalizeOptions returns the calibrated cleanup settings.
func DefaultFinalizeOptions() FinalizeOptions {
	return FinalizeOptions{
		SparseInvulnerabilityRun: 3,
		BridgeThresholds:         []int{3, 8, 97},
	}
}

// Slot is one frame of the finalized timeline.
type Slot struct {
	Window   int
	Position int
	States   [2]state.State
}

// Index returns the absolute frame index of the slot within the timeline.
func (s Slot) Index() int {
	return s.Window*hud.MeterColumns + s.Position
}

// Timeline is the finalized, per-player frame meter history. It holds exactly
// one slot per (window, position), ordered, without ghost or sentinel states.
type Timeline struct {
	Slots []Slot
}

// Len returns the number of slots.
func (t *Timeline) Len() int { return len(t.Slots) }

// States returns a player's states in order. Unknown slots read as Nothing.
func (t *Timeline) States(p hud.Player) []state.State {
	out := make([]state.State, len(t.Slots))
	for i, s := range t.Slots {
		st := s.States[p]
		if st.IsUnknown() {
			st = state.Of(state.Nothing)
		}
		out[i] = st
	}
	return out
}

// Types returns a player's state types in order. Unknown slots read as
// Nothing.
func (t *Timeline) Types(p hud.Player) []state.Type {
	states := t.States(p)
	out := make([]state.Type, len(states))
	for i, s := range states {
		out[i] = s.Type
	}
	return out
}

type windowKey struct {
	window   int
	position int
}

type keyedColumn struct {
	key    windowKey
	column Column
}

// Finalize turns the accumulated sequence into a timeline:
//  1. number windows by counting boundary sentinels, then drop the sentinels
//  2. drop ghost columns
//  3. keep one column per (window, position), preferring the first one that
//     is neither a ghost nor noise
//  4. insert unknown slots for positions never observed
//  5. resolve the most likely state; states that cannot be final are unknown
//  6. overwrite short invulnerability runs with the preceding state
//  7. fill unknown gaps from their neighbours
func Finalize(seq *Observation, opts FinalizeOptions) *Timeline {
	if seq.Len() == 0 {
		return &Timeline{}
	}

	var keyed []keyedColumn
	window := 0
	for _, c := range seq.Columns {
		if c.IsEndOfWindow() {
			window++
			continue
		}
		if c.IsPast() {
			continue
		}
		keyed = append(keyed, keyedColumn{key: windowKey{window, c.Position}, column: c})
	}
	if len(keyed) == 0 {
		return &Timeline{}
	}

	unique := dedupe(keyed)
	slots := densify(unique)

	for _, p := range hud.Players {
		suppressSparseInvulnerability(slots, p, opts.SparseInvulnerabilityRun)
		fillGaps(slots, p, opts.BridgeThresholds)
	}
	return &Timeline{Slots: slots}
}

func dedupe(keyed []keyedColumn) []keyedColumn {
	chosen := make(map[windowKey]int)
	var out []keyedColumn
	for _, kc := range keyed {
		i, seen := chosen[kc.key]
		if !seen {
			chosen[kc.key] = len(out)
			out = append(out, kc)
			continue
		}
		current := out[i].column
		if (current.IsPast() || current.IsUnknownOrNothing()) && !kc.column.IsPast() && !kc.column.IsUnknownOrNothing() {
			out[i] = kc
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].key.window != out[j].key.window {
			return out[i].key.window < out[j].key.window
		}
		return out[i].key.position < out[j].key.position
	})
	return out
}

func resolve(c Column, p hud.Player) state.State {
	s := c.State(p)
	if !s.ValidInFinal() {
		return state.State{}
	}
	return s
}

// densify resolves every column and fills positions never observed between
// the first and the last column with unknown slots.
func densify(columns []keyedColumn) []Slot {
	first, last := columns[0].key, columns[len(columns)-1].key
	byKey := make(map[windowKey]Column, len(columns))
	for _, kc := range columns {
		byKey[kc.key] = kc.column
	}

	var slots []Slot
	for w := first.window; w <= last.window; w++ {
		from, to := 0, hud.MeterColumns-1
		if w == first.window {
			from = first.position
		}
		if w == last.window {
			to = last.position
		}
		for pos := from; pos <= to; pos++ {
			slot := Slot{Window: w, Position: pos}
			if c, ok := byKey[windowKey{w, pos}]; ok {
				slot.States = [2]state.State{resolve(c, hud.P1), resolve(c, hud.P2)}
			}
			slots = append(slots, slot)
		}
	}
	return slots
}

func suppressSparseInvulnerability(slots []Slot, p hud.Player, maxRun int) {
	for i := 0; i < len(slots); {
		if !slots[i].States[p].IsInvulnerability() {
			i++
			continue
		}
		j := i
		for j < len(slots) && slots[j].States[p].IsInvulnerability() {
			j++
		}
		if i > 0 && j-i <= maxRun {
			for k := i; k < j; k++ {
				slots[k].States[p] = slots[i-1].States[p]
			}
		}
		i = j
	}
}

func fillGaps(slots []Slot, p hud.Player, thresholds []int) {
	for i := 0; i < len(slots); {
		if !slots[i].States[p].IsUnknown() {
			i++
			continue
		}
		j := i
		for j < len(slots) && slots[j].States[p].IsUnknown() {
			j++
		}
		fillGap(slots, p, i, j, thresholds)
		i = j
	}
}

// fillGap fills the unknown run slots[from:to].
func fillGap(slots []Slot, p hud.Player, from, to int, thresholds []int) {
	var before, after state.State
	hasBefore, hasAfter := from > 0, to < len(slots)
	if hasBefore {
		before = slots[from-1].States[p]
	}
	if hasAfter {
		after = slots[to].States[p]
	}

	fill := func(a, b int, s state.State) {
		for k := a; k < b; k++ {
			slots[k].States[p] = s
		}
	}

	length := to - from
	if hasBefore && before.CannotBeFollowedByUnknown() {
		fill(from, to, before)
		return
	}

	bridge := 0
	for _, t := range thresholds {
		if length >= t {
			bridge++
		}
	}
	if bridge == 0 {
		switch {
		case hasBefore:
			fill(from, to, before)
		case hasAfter:
			fill(from, to, after)
		}
		return
	}

	if hasBefore {
		fill(from, from+bridge, before)
	}
	if hasAfter {
		fill(to-bridge, to, after)
	}
}
