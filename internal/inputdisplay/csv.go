package inputdisplay

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// FinishRound marks the end of a round in ground-truth files.
const FinishRound = "FINISH_ROUND"

var expectedColumns = []string{"Directions", "Buttons", "Frames"}

// ReadExpectedCSV reads a ground-truth input list of one player. Buttons are
// written in two-letter notation separated by commas or plus signs; a
// non-numeric Frames cell means the counter is unknown. FINISH_ROUND rows are
// dropped.
func ReadExpectedCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read input display header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, name := range expectedColumns {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("input display csv is missing column %q", name)
		}
	}

	var rows []Row
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read input display line %d: %w", line, err)
		}
		buttons := strings.TrimSpace(record[index["Buttons"]])
		if buttons == FinishRound {
			continue
		}

		d, ok := ParseDirection(record[index["Directions"]])
		if !ok {
			return nil, fmt.Errorf("input display line %d: invalid direction %q", line, record[index["Directions"]])
		}
		row := Row{Direction: d}
		if n, err := strconv.Atoi(strings.TrimSpace(record[index["Frames"]])); err == nil && n >= 0 {
			row.Frames = n
		}
		if buttons != "" {
			for _, code := range strings.FieldsFunc(buttons, func(r rune) bool { return r == ',' || r == '+' }) {
				b, err := ButtonFromNotation(code)
				if err != nil {
					return nil, fmt.Errorf("input display line %d: %w", line, err)
				}
				row.Buttons |= ButtonSet(b)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// SimilarityRatio scores how closely two input lists agree, from 0 to 1, as
// twice the number of matching rows over the total number of rows. Rows are
// compared on direction and buttons only; the held-frames count of the last
// input of a sample is often still running.
func SimilarityRatio(expected, got []Row) float64 {
	if len(expected) == 0 && len(got) == 0 {
		return 1
	}
	return difflib.NewMatcher(rowKeys(expected), rowKeys(got)).Ratio()
}

func rowKeys(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Direction.String() + " " + r.Buttons.String()
	}
	return out
}
