package framedata

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/cyclopcam/logs"
	"github.com/tidwall/gjson"
)

var (
	// ErrFileNotFound is returned when the frame data file does not exist.
	ErrFileNotFound = errors.New("frame data file not found")
	// ErrInvalidJSON is returned when the frame data cannot be parsed at all.
	ErrInvalidJSON = errors.New("frame data is not valid JSON")
)

// Load reads a frame data file. See Parse for the format.
func Load(path string, log logs.Log) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to read frame data: %w", err)
	}
	return Parse(data, log)
}

// Parse reads frame data laid out as character -> "moves" -> category ->
// move name -> fields. Frame counts may be written as integers, digit strings
// or floats. A move missing a required field, or holding a value that is not
// a frame count, is skipped and reported in Library.Skipped. Characters
// without a move list and unknown categories are ignored.
func Parse(data []byte, log logs.Log) (*Library, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: expected an object of characters", ErrInvalidJSON)
	}

	lib := &Library{Characters: make(map[string]*Character)}
	root.ForEach(func(name, body gjson.Result) bool {
		moves := body.Get("moves")
		if !moves.IsObject() {
			return true
		}
		c := NewCharacter(name.String())
		moves.ForEach(func(category, list gjson.Result) bool {
			t, ok := ParseMoveType(category.String())
			if !ok {
				if log != nil {
					log.Debugf("framedata: %s: ignoring move category %q", c.Name, category.String())
				}
				return true
			}
			list.ForEach(func(moveName, fields gjson.Result) bool {
				m, err := parseMove(moveName.String(), t, fields)
				if err != nil {
					skip := Skip{Character: c.Name, Move: moveName.String(), Reason: err.Error()}
					lib.Skipped = append(lib.Skipped, skip)
					if log != nil {
						log.Warnf("framedata: skipping %v", skip)
					}
					return true
				}
				c.AddMove(m)
				return true
			})
			return true
		})
		lib.Characters[c.Name] = c
		return true
	})

	if log != nil {
		log.Infof("framedata: loaded %d characters, skipped %d moves", len(lib.Characters), len(lib.Skipped))
	}
	return lib, nil
}

func parseMove(name string, t MoveType, fields gjson.Result) (*Move, error) {
	if v := fields.Get("moveName"); v.Type != gjson.String {
		return nil, errors.New(`missing or invalid "moveName"`)
	}

	var counts [4]int
	for i, key := range []string{"startup", "active", "recovery", "total"} {
		v := fields.Get(key)
		if !v.Exists() {
			return nil, fmt.Errorf("missing %q", key)
		}
		n, ok := frameCount(v)
		if !ok {
			return nil, fmt.Errorf("invalid %q: %s", key, v.Raw)
		}
		counts[i] = n
	}

	m := &Move{
		Name: name,
		Type: t,
		Input: InputNotation{
			Plain:  fields.Get("plnCmd").String(),
			Numpad: fields.Get("numCmd").String(),
			Easy:   fields.Get("ezCmd").String(),
		},
		Startup:       counts[0],
		Active:        counts[1],
		Recovery:      counts[2],
		Total:         counts[3],
		AttackLevel:   parseAttackLevel(fields.Get("atkLvl").String()),
		DamageScaling: fields.Get("dmgScaling").String(),
		Hitstun:       optionalCount(fields.Get("hitstun")),
		Blockstun:     optionalCount(fields.Get("blockstun")),
		Hitstop:       optionalCount(fields.Get("hitstop")),
	}
	for _, v := range fields.Get("xx").Array() {
		if v.Type == gjson.String {
			m.CancelsInto = append(m.CancelsInto, v.Str)
		}
	}
	return m, nil
}

// frameCount coerces a JSON value to a frame count. Floats are truncated.
func frameCount(v gjson.Result) (int, bool) {
	switch v.Type {
	case gjson.Number:
		return int(v.Int()), true
	case gjson.String:
		if !isDigits(v.Str) {
			return 0, false
		}
		n, err := strconv.Atoi(v.Str)
		return n, err == nil
	default:
		return 0, false
	}
}

func optionalCount(v gjson.Result) *int {
	if v.Type != gjson.Number {
		return nil
	}
	n := int(v.Int())
	return &n
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
