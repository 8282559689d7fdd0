package framemeter

import (
	"github.com/ayusman/replayscan/internal/hud"
	"github.com/ayusman/replayscan/internal/state"
)

var (
	startup  = state.Of(state.Startup)
	active   = state.Of(state.Active)
	recovery = state.Of(state.Recovery)
	hitStuck = state.Of(state.HitStuck)
	jump     = state.Of(state.JumpOrDash)
	nothing  = state.Of(state.Nothing)
	fullInv  = state.Of(state.FullInvulnerability1)
	unknown  = state.State{}
)

// pattern is a made-up match history without idle frames.
var pattern = []state.State{
	startup, startup, startup, startup, active, active,
	recovery, recovery, recovery, recovery, recovery, recovery, recovery,
	hitStuck, hitStuck, hitStuck, jump, jump, jump, jump, jump,
}

func truth(frame int) [2]state.State {
	return [2]state.State{
		pattern[frame%len(pattern)],
		pattern[(frame+7)%len(pattern)],
	}
}

// rawObservation is what a perfect reader sees at a frame: the current window
// up to the newest frame, then ghosts of the previous window.
func rawObservation(frame int) *Observation {
	window, head := frame/hud.MeterColumns, frame%hud.MeterColumns
	columns := make([]Column, hud.MeterColumns)
	for c := range columns {
		switch {
		case c <= head:
			s := truth(window*hud.MeterColumns + c)
			columns[c] = NewResolvedColumn(c, s[0], s[1])
		case window == 0:
			columns[c] = NewResolvedColumn(c, nothing, nothing)
		default:
			s := truth((window-1)*hud.MeterColumns + c)
			columns[c] = NewResolvedColumn(c, s[0].ToPast(), s[1].ToPast())
		}
	}
	return NewObservation(frame, columns)
}

func cleanObservation(frame int) *Observation {
	o := rawObservation(frame)
	if err := o.Clean(DefaultCleanOptions()); err != nil {
		panic(err)
	}
	return o
}

func positions(columns []Column) []int {
	out := make([]int, len(columns))
	for i, c := range columns {
		out[i] = c.Position
	}
	return out
}

func span(from, to int) []int {
	var out []int
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

func concat(parts ...[]int) []int {
	var out []int
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
