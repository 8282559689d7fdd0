// Package framedata holds the published frame data of every character: how
// many frames each move spends starting up, active and recovering.
package framedata

import (
	"fmt"
	"sort"
	"strings"
)

// MoveType is the category a move is listed under.
type MoveType string

const (
	Normal          MoveType = "normal"
	Special         MoveType = "special"
	Super           MoveType = "super"
	Throw           MoveType = "throw"
	Drive           MoveType = "drive"
	MovementSpecial MoveType = "movement-special"
	CommandGrab     MoveType = "command-grab"
	Taunt           MoveType = "taunt"
)

var moveTypes = []MoveType{Normal, Special, Super, Throw, Drive, MovementSpecial, CommandGrab, Taunt}

// ParseMoveType reads a move category. Case is ignored.
func ParseMoveType(s string) (MoveType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range moveTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// AttackLevel is where a move hits.
type AttackLevel string

const (
	High         AttackLevel = "H"
	Mid          AttackLevel = "M"
	Low          AttackLevel = "L"
	ThrowLevel   AttackLevel = "T"
	Overhead     AttackLevel = "O"
	SpecialLevel AttackLevel = "S"
	UnknownLevel AttackLevel = ""
)

func parseAttackLevel(s string) AttackLevel {
	switch l := AttackLevel(s); l {
	case High, Mid, Low, ThrowLevel, Overhead, SpecialLevel:
		return l
	}
	return UnknownLevel
}

// InputNotation is how a move is entered, in the three notations used by
// the game and the community.
type InputNotation struct {
	Plain  string
	Numpad string
	Easy   string
}

func (n InputNotation) String() string { return n.Numpad }

// Move is the frame data of one move.
type Move struct {
	Name          string
	Type          MoveType
	Input         InputNotation
	Startup       int
	Active        int
	Recovery      int
	Total         int
	AttackLevel   AttackLevel
	DamageScaling string
	Hitstun       *int
	Blockstun     *int
	Hitstop       *int
	CancelsInto   []string
}

// Signature returns the number of frames the frame meter shows for each
// phase: startup, active and recovery. The meter does not draw the frame the
// move becomes active on as startup, so one frame is taken off.
func (m *Move) Signature() [3]int {
	return [3]int{m.Startup - 1, m.Active, m.Recovery}
}

func (m *Move) String() string { return m.Name }

// Character is the move list of one character.
type Character struct {
	Name  string
	Moves map[string]*Move
}

// NewCharacter returns a character without moves.
func NewCharacter(name string) *Character {
	return &Character{Name: name, Moves: make(map[string]*Move)}
}

// AddMove adds or replaces a move.
func (c *Character) AddMove(m *Move) {
	c.Moves[m.Name] = m
}

// Move returns a move by name.
func (c *Character) Move(name string) (*Move, bool) {
	m, ok := c.Moves[name]
	return m, ok
}

// MoveList returns every move ordered by name.
func (c *Character) MoveList() []*Move {
	out := make([]*Move, 0, len(c.Moves))
	for _, m := range c.Moves {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// MovesOfType returns the moves of one category ordered by name.
func (c *Character) MovesOfType(t MoveType) []*Move {
	var out []*Move
	for _, m := range c.MoveList() {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

func (c *Character) String() string { return c.Name }

// Skip records a move that could not be loaded.
type Skip struct {
	Character string
	Move      string
	Reason    string
}

func (s Skip) String() string {
	return fmt.Sprintf("%s / %s: %s", s.Character, s.Move, s.Reason)
}

// Library is the frame data of every character.
type Library struct {
	Characters map[string]*Character
	Skipped    []Skip
}

// Character returns a character by name. An exact match is preferred over a
// case-insensitive one.
func (l *Library) Character(name string) (*Character, bool) {
	if c, ok := l.Characters[name]; ok {
		return c, true
	}
	for n, c := range l.Characters {
		if strings.EqualFold(n, name) {
			return c, true
		}
	}
	return nil, false
}

// Names returns the character names in alphabetical order.
func (l *Library) Names() []string {
	out := make([]string, 0, len(l.Characters))
	for n := range l.Characters {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
