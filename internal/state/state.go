// Package state models the categorical conditions shown by the frame meter.
package state

import "fmt"

// Type is the kind of condition a frame meter column can show.
type Type int

// The zero Type is Unknown: a slot nothing could be read from.
const (
	Unknown Type = iota
	Active
	Startup
	Recovery
	FullInvulnerability1
	FullInvulnerability2
	HitStuck
	NumberOfFrames1
	NumberOfFrames2
	Nothing
	JumpOrDash
	ArmorParry
	StrikeInvulnerability1
	StrikeInvulnerability2
	EndOfWindow

	typeCount
)

var typeNames = [typeCount]string{
	Unknown:                "UNKNOWN",
	Active:                 "ACTIVE",
	Startup:                "STARTUP",
	Recovery:               "RECOVERY",
	FullInvulnerability1:   "FULL_INV_1",
	FullInvulnerability2:   "FULL_INV_2",
	HitStuck:               "HIT_STUCK",
	NumberOfFrames1:        "NUMBER_OF_FRAMES_1",
	NumberOfFrames2:        "NUMBER_OF_FRAMES_2",
	Nothing:                "NOTHING",
	JumpOrDash:             "JUMP",
	ArmorParry:             "ARMOR_PARRY",
	StrikeInvulnerability1: "STRIKE_INV_1",
	StrikeInvulnerability2: "STRIKE_INV_2",
	EndOfWindow:            "END_OF_WINDOW",
}

// ParseType returns the Type whose String is name.
func ParseType(name string) (Type, bool) {
	for t, n := range typeNames {
		if n == name {
			return Type(t), true
		}
	}
	return Unknown, false
}

func (t Type) String() string {
	if t < 0 || t >= typeCount {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return typeNames[t]
}

// Temporal tells a genuine reading apart from a ghost of the previous window.
type Temporal int

const (
	Present Temporal = iota
	Past
)

// State is a Type tagged with its temporal qualifier. States are plain values
// and compare with ==.
type State struct {
	Type     Type
	Temporal Temporal
}

// Of returns the present state of the given type.
func Of(t Type) State { return State{Type: t, Temporal: Present} }

// PastOf returns the ghost variant of the given type.
func PastOf(t Type) State { return State{Type: t, Temporal: Past} }

// IsUnknown reports whether nothing could be read.
func (s State) IsUnknown() bool { return s.Type == Unknown }

// IsPast reports whether s is a ghost reading.
func (s State) IsPast() bool { return s.Temporal == Past }

// IsPresent reports whether s is a genuine reading.
func (s State) IsPresent() bool { return s.Temporal == Present }

// IsNothing reports whether the slot shows no activity, in either tense.
func (s State) IsNothing() bool { return s.Type == Nothing }

// IsEndOfWindow reports whether s is the window boundary sentinel.
func (s State) IsEndOfWindow() bool { return s.Type == EndOfWindow }

// IsInvulnerability reports whether s is one of the invulnerability states.
func (s State) IsInvulnerability() bool {
	switch s.Type {
	case FullInvulnerability1, FullInvulnerability2, StrikeInvulnerability1, StrikeInvulnerability2:
		return true
	}
	return false
}

// ValidInFinal reports whether s may appear in a finalized timeline. Ghosts,
// digit overlays and sentinels never do.
func (s State) ValidInFinal() bool {
	if s.IsPast() {
		return false
	}
	switch s.Type {
	case Unknown, NumberOfFrames1, NumberOfFrames2, EndOfWindow:
		return false
	}
	return true
}

// CannotBeFollowedByUnknown reports whether a gap after s must be a
// continuation of s. Startup and active phases never stop without another
// state taking over.
func (s State) CannotBeFollowedByUnknown() bool {
	return s.Type == Active || s.Type == Startup
}

// ToPresent returns the present variant of s.
func (s State) ToPresent() State { return Of(s.Type) }

// ToPast returns the ghost variant of s.
func (s State) ToPast() State { return PastOf(s.Type) }

func (s State) String() string {
	if s.IsPast() {
		return s.Type.String() + "_PAST"
	}
	return s.Type.String()
}
