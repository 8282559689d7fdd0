// Package inputdisplay reads the on-screen input history of both players and
// reconciles samples taken at different frames into one list of inputs.
//
// The display shows up to MaxRows rows per player. Row 1 is the input being
// held right now; older inputs scroll down one row each time a new input
// starts.
package inputdisplay

import (
	"fmt"
	"strconv"
	"strings"
)

// Direction is a stick direction in numpad notation: 1 is down-back, 5 is
// neutral, 9 is up-forward. The zero value means no direction was read.
type Direction int

// ParseDirection reads a direction template label such as "2Direction" or a
// bare numpad digit.
func ParseDirection(label string) (Direction, bool) {
	s := strings.TrimSuffix(label, "Direction")
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > 9 {
		return 0, false
	}
	return Direction(n), true
}

func (d Direction) String() string {
	if d == 0 {
		return "-"
	}
	return strconv.Itoa(int(d))
}

// Button is one attack button.
type Button uint8

const (
	LightPunch Button = 1 << iota
	MediumPunch
	HeavyPunch
	LightKick
	MediumKick
	HeavyKick
)

var buttonOrder = []Button{LightPunch, MediumPunch, HeavyPunch, LightKick, MediumKick, HeavyKick}

var buttonLabels = map[string]Button{
	"LightPunch":  LightPunch,
	"MediumPunch": MediumPunch,
	"HeavyPunch":  HeavyPunch,
	"LightKick":   LightKick,
	"MediumKick":  MediumKick,
	"HeavyKick":   HeavyKick,
}

var buttonNotation = map[Button]string{
	LightPunch:  "lp",
	MediumPunch: "mp",
	HeavyPunch:  "hp",
	LightKick:   "lk",
	MediumKick:  "mk",
	HeavyKick:   "hk",
}

// ParseButton reads a button template label such as "LightKick".
func ParseButton(label string) (Button, bool) {
	b, ok := buttonLabels[label]
	return b, ok
}

// ButtonFromNotation reads a two-letter button code such as "lk". Case is
// ignored.
func ButtonFromNotation(code string) (Button, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	for b, n := range buttonNotation {
		if n == code {
			return b, nil
		}
	}
	return 0, fmt.Errorf("button notation %q not recognised", code)
}

func (b Button) String() string {
	if n, ok := buttonNotation[b]; ok {
		return n
	}
	return fmt.Sprintf("Button(%d)", uint8(b))
}

// ButtonSet is the set of buttons shown in one row. The zero value is the
// empty set.
type ButtonSet uint8

// Buttons builds a set.
func Buttons(bs ...Button) ButtonSet {
	var s ButtonSet
	for _, b := range bs {
		s |= ButtonSet(b)
	}
	return s
}

// Has reports whether b is in the set.
func (s ButtonSet) Has(b Button) bool { return s&ButtonSet(b) != 0 }

// Empty reports whether no button is in the set.
func (s ButtonSet) Empty() bool { return s == 0 }

// String joins the buttons in notation order, e.g. "lp+mk".
func (s ButtonSet) String() string {
	if s == 0 {
		return "-"
	}
	var parts []string
	for _, b := range buttonOrder {
		if s.Has(b) {
			parts = append(parts, b.String())
		}
	}
	return strings.Join(parts, "+")
}

// Row is one resolved input: a direction, the buttons pressed with it and
// how many frames it was held. Frames is 0 when the counter was not read.
type Row struct {
	Direction Direction
	Buttons   ButtonSet
	Frames    int
}

// IsEmpty reports whether the row shows no input at all.
func (r Row) IsEmpty() bool {
	return r.Direction == 0 && r.Buttons.Empty()
}

func (r Row) String() string {
	frames := "?"
	if r.Frames > 0 {
		frames = strconv.Itoa(r.Frames)
	}
	return fmt.Sprintf("%s %s %s", r.Direction, r.Buttons, frames)
}
