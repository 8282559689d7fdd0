package framemeter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ayusman/replayscan/internal/hud"
	"github.com/ayusman/replayscan/internal/state"
)

var expectedColumns = []string{"P1-State", "P1-Number", "P2-State", "P2-Number"}

type run struct {
	state  state.State
	frames int
}

// ReadExpectedCSV reads a ground-truth frame meter. Each row holds a state and
// its length in frames per player; both players are expanded independently
// and laid out frame by frame. Names outside the fixture vocabulary are
// skipped.
func ReadExpectedCSV(r io.Reader, registry *state.Registry) (*Timeline, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read frame meter header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, name := range expectedColumns {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("frame meter csv is missing column %q", name)
		}
	}

	var runs [2][]run
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read frame meter line %d: %w", line, err)
		}
		for _, p := range hud.Players {
			prefix := p.String()
			st, ok := registry.FromCSV(record[index[prefix+"-State"]])
			if !ok {
				continue
			}
			frames, err := strconv.Atoi(strings.TrimSpace(record[index[prefix+"-Number"]]))
			if err != nil {
				return nil, fmt.Errorf("frame meter line %d: invalid %s frame count: %w", line, prefix, err)
			}
			runs[p] = append(runs[p], run{state: st, frames: frames})
		}
	}

	expanded := [2][]state.State{expand(runs[hud.P1]), expand(runs[hud.P2])}
	n := len(expanded[hud.P1])
	if len(expanded[hud.P2]) > n {
		n = len(expanded[hud.P2])
	}

	t := &Timeline{Slots: make([]Slot, n)}
	for i := range t.Slots {
		slot := Slot{Window: i / hud.MeterColumns, Position: i % hud.MeterColumns}
		for _, p := range hud.Players {
			if i < len(expanded[p]) {
				slot.States[p] = expanded[p][i]
			}
		}
		t.Slots[i] = slot
	}
	return t, nil
}

func expand(runs []run) []state.State {
	var out []state.State
	for _, r := range runs {
		for i := 0; i < r.frames; i++ {
			out = append(out, r.state)
		}
	}
	return out
}
