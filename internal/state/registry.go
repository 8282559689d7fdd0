package state

import (
	"fmt"
	"strings"

	"github.com/ayusman/replayscan/internal/hud"
)

// DefaultColorDistance is the largest squared BGR distance at which a pixel
// still matches a palette entry.
const DefaultColorDistance = 500

// Registry is the immutable table of every state, its priority and its
// reference color. Build it once with NewRegistry and pass it to the
// components that classify pixels.
type Registry struct {
	states   []State
	priority [typeCount][2]int
	palette  *Palette
	csv      map[string]State
}

// NewRegistry builds the state table.
func NewRegistry() *Registry {
	r := &Registry{
		csv: map[string]State{
			"STARTUP":                Of(Startup),
			"ACTIVE":                 Of(Active),
			"RECOVERY":               Of(Recovery),
			"NOTHING":                Of(Nothing),
			"HITSTUCK":               Of(HitStuck),
			"JUMP":                   Of(JumpOrDash),
			"PARRY":                  Of(ArmorParry),
			"FULL INVULNERABILITY":   Of(FullInvulnerability1),
			"STRIKE INVULNERABILITY": Of(StrikeInvulnerability1),
		},
	}

	for t := Unknown; t < typeCount; t++ {
		p := basePriority(t)
		r.priority[t][Present] = p
		r.priority[t][Past] = p + 1
		r.states = append(r.states, Of(t))
	}
	for t := Unknown + 1; t < typeCount; t++ {
		r.states = append(r.states, PastOf(t))
	}

	r.palette = newPalette(DefaultColorDistance, []PaletteEntry{
		{Of(Active), hud.BGR(99, 21, 189)},
		{Of(Startup), hud.BGR(148, 203, 12)},
		{Of(Recovery), hud.BGR(184, 119, 9)},
		{Of(FullInvulnerability1), hud.BGR(244, 241, 242)},
		{Of(FullInvulnerability2), hud.BGR(197, 194, 195)},
		{Of(HitStuck), hud.BGR(55, 255, 252)},
		{Of(NumberOfFrames2), hud.BGR(105, 82, 41)},
		{PastOf(Recovery), hud.BGR(134, 86, 5)},
		{PastOf(Active), hud.BGR(73, 12, 136)},
		{PastOf(Startup), hud.BGR(108, 146, 11)},
		{PastOf(JumpOrDash), hud.BGR(183, 195, 57)},
		{PastOf(HitStuck), hud.BGR(37, 192, 185)},
		{PastOf(FullInvulnerability1), hud.BGR(176, 176, 176)},
		{PastOf(FullInvulnerability2), hud.BGR(144, 144, 144)},
		{Of(Nothing), hud.BGR(27, 24, 25)},
		{Of(JumpOrDash), hud.BGR(249, 255, 82)},
		{Of(ArmorParry), hud.BGR(106, 16, 86)},
		{Of(StrikeInvulnerability2), hud.BGR(251, 209, 255)},
		{PastOf(StrikeInvulnerability2), hud.BGR(184, 155, 212)},
		{PastOf(ArmorParry), hud.BGR(76, 8, 60)},
	})
	return r
}

func basePriority(t Type) int {
	switch t {
	case Nothing:
		return 3
	case StrikeInvulnerability1, StrikeInvulnerability2:
		return 5
	case FullInvulnerability1, FullInvulnerability2:
		return 7
	case NumberOfFrames1, NumberOfFrames2:
		return 9
	case EndOfWindow:
		return 11
	default:
		return 1
	}
}

// Lookup returns the state for a type and tense.
func (r *Registry) Lookup(t Type, temporal Temporal) State {
	return State{Type: t, Temporal: temporal}
}

// States lists every known state, present variants first, in a fixed order.
func (r *Registry) States() []State {
	out := make([]State, len(r.states))
	copy(out, r.states)
	return out
}

// Priority orders states for tie-breaking and weights pixel evidence:
// structural states < nothing < invulnerability < digit overlays and
// sentinels. Ghost variants rank one above their present variant.
func (r *Registry) Priority(s State) int {
	if s.Type < 0 || s.Type >= typeCount {
		return 0
	}
	return r.priority[s.Type][s.Temporal]
}

// FromCSV maps a state name from a ground-truth fixture.
func (r *Registry) FromCSV(name string) (State, bool) {
	s, ok := r.csv[strings.ToUpper(strings.TrimSpace(name))]
	return s, ok
}

// Palette returns the reference color table.
func (r *Registry) Palette() *Palette {
	return r.palette
}

// PaletteEntry binds a state to the color the HUD draws it with.
type PaletteEntry struct {
	State State
	Color hud.Color
}

// Palette is an ordered color table. The first entry close enough wins.
type Palette struct {
	threshold int
	entries   []PaletteEntry
}

func newPalette(threshold int, entries []PaletteEntry) *Palette {
	return &Palette{threshold: threshold, entries: entries}
}

// Entries returns the table in match order.
func (p *Palette) Entries() []PaletteEntry {
	out := make([]PaletteEntry, len(p.entries))
	copy(out, p.entries)
	return out
}

// WithThreshold returns a copy of the palette using a different distance.
func (p *Palette) WithThreshold(threshold int) *Palette {
	return newPalette(threshold, p.entries)
}

// Threshold returns the largest accepted squared distance.
func (p *Palette) Threshold() int { return p.threshold }

// Classify returns the state whose reference color is within the threshold.
func (p *Palette) Classify(c hud.Color) (State, bool) {
	for _, e := range p.entries {
		if e.Color.DistanceSquared(c) <= p.threshold {
			return e.State, true
		}
	}
	return State{}, false
}

// ColorOf returns the reference color of a state.
func (p *Palette) ColorOf(s State) (hud.Color, bool) {
	for _, e := range p.entries {
		if e.State == s {
			return e.Color, true
		}
	}
	return hud.Color{}, false
}

// Validate fails when two entries are close enough to be confused.
func (p *Palette) Validate() error {
	for i := range p.entries {
		for j := i + 1; j < len(p.entries); j++ {
			a, b := p.entries[i], p.entries[j]
			if d := a.Color.DistanceSquared(b.Color); d <= p.threshold {
				return fmt.Errorf("palette colors for %s and %s are %d apart, threshold is %d", a.State, b.State, d, p.threshold)
			}
		}
	}
	return nil
}
