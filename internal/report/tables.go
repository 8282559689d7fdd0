// Package report renders stored analysis results as terminal tables and
// plots.
package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/ayusman/replayscan/internal/framedata"
	"github.com/ayusman/replayscan/internal/store"
)

// ShortIDLength is how many characters of a run ID the tables show.
const ShortIDLength = 8

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// ShortID truncates a run ID for display.
func ShortID(id string) string {
	if len(id) <= ShortIDLength {
		return id
	}
	return id[:ShortIDLength]
}

func playerName(p int) string {
	return fmt.Sprintf("P%d", p+1)
}

// PrintRunSummary prints a one-line header for a run.
func PrintRunSummary(w io.Writer, r *store.Run) {
	fmt.Fprintf(w, "\nRun: %s  |  Video: %s  |  %s vs %s  |  Frames: %d @ %.0f fps  |  Status: %s\n\n",
		r.ID, r.Video, orDash(r.Characters[0]), orDash(r.Characters[1]), r.FrameCount, r.FPS, r.Status)
}

// PrintRuns lists stored runs.
func PrintRuns(w io.Writer, runs []*store.Run) error {
	table := newTable(w)
	table.Header("ID", "VIDEO", "P1", "P2", "DRIVER", "MODE", "FRAMES", "STATUS", "DURATION", "STARTED")
	for _, r := range runs {
		duration := "-"
		if r.FinishedAt != nil {
			duration = r.Duration().Round(time.Millisecond).String()
		}
		if err := table.Append(
			ShortID(r.ID),
			r.Video,
			orDash(r.Characters[0]),
			orDash(r.Characters[1]),
			r.Driver,
			r.SamplingMode,
			strconv.Itoa(r.FrameCount),
			string(r.Status),
			duration,
			r.StartedAt.Format(time.DateTime),
		); err != nil {
			return err
		}
	}
	return table.Render()
}

// PrintDetections lists the moves found in a run.
func PrintDetections(w io.Writer, detections []store.Detection) error {
	table := newTable(w)
	table.Header("PLAYER", "MOVE", "STATUS", "START", "END", "FRAMES")
	for _, d := range detections {
		if err := table.Append(
			playerName(d.Player),
			d.Move,
			d.Status,
			strconv.Itoa(d.StartSlot),
			strconv.Itoa(d.EndSlot),
			strconv.Itoa(d.EndSlot-d.StartSlot),
		); err != nil {
			return err
		}
	}
	return table.Render()
}

// StateRun is a stretch of identical states on one player's timeline.
type StateRun struct {
	Player int
	State  string
	Start  int
	Length int
}

// TimelineRuns collapses a timeline into runs of identical states, P1 first.
func TimelineRuns(slots []store.Slot) []StateRun {
	var out []StateRun
	for p := 0; p < 2; p++ {
		for _, s := range slots {
			if n := len(out); n > 0 && out[n-1].Player == p && out[n-1].State == s.States[p] &&
				out[n-1].Start+out[n-1].Length == s.Index {
				out[n-1].Length++
				continue
			}
			out = append(out, StateRun{Player: p, State: s.States[p], Start: s.Index, Length: 1})
		}
	}
	return out
}

// PrintTimeline lists the state runs of a timeline.
func PrintTimeline(w io.Writer, slots []store.Slot) error {
	table := newTable(w)
	table.Header("PLAYER", "STATE", "START", "LENGTH")
	for _, r := range TimelineRuns(slots) {
		if err := table.Append(playerName(r.Player), r.State, strconv.Itoa(r.Start), strconv.Itoa(r.Length)); err != nil {
			return err
		}
	}
	return table.Render()
}

// PrintInputs lists the input history of both players.
func PrintInputs(w io.Writer, inputs []store.InputRow) error {
	table := newTable(w)
	table.Header("PLAYER", "#", "DIRECTION", "BUTTONS", "FRAMES")
	for _, in := range inputs {
		direction := "-"
		if in.Direction != 0 {
			direction = strconv.Itoa(in.Direction)
		}
		if err := table.Append(
			playerName(in.Player),
			strconv.Itoa(in.Sequence),
			direction,
			in.Buttons,
			strconv.Itoa(in.Frames),
		); err != nil {
			return err
		}
	}
	return table.Render()
}

// PrintRounds lists the round transitions of a run.
func PrintRounds(w io.Writer, events []store.RoundEvent) error {
	table := newTable(w)
	table.Header("FRAME", "FROM", "TO", "WINNER")
	for _, e := range events {
		winner := "-"
		if e.Winner != nil {
			winner = playerName(*e.Winner)
		}
		if err := table.Append(strconv.Itoa(e.Frame), e.From, e.To, winner); err != nil {
			return err
		}
	}
	return table.Render()
}

// PrintMoveList lists a character's moves with the frame meter signature
// the move matcher looks for.
func PrintMoveList(w io.Writer, c *framedata.Character) error {
	table := newTable(w)
	table.Header("MOVE", "TYPE", "INPUT", "STARTUP", "ACTIVE", "RECOVERY", "TOTAL", "LEVEL", "SIGNATURE")
	for _, m := range c.MoveList() {
		sig := m.Signature()
		if err := table.Append(
			m.Name,
			string(m.Type),
			orDash(m.Input.Numpad),
			strconv.Itoa(m.Startup),
			strconv.Itoa(m.Active),
			strconv.Itoa(m.Recovery),
			strconv.Itoa(m.Total),
			orDash(string(m.AttackLevel)),
			fmt.Sprintf("%d/%d/%d", sig[0], sig[1], sig[2]),
		); err != nil {
			return err
		}
	}
	return table.Render()
}

// PrintSkipped lists the reference records that could not be loaded.
func PrintSkipped(w io.Writer, skipped []framedata.Skip) error {
	table := newTable(w)
	table.Header("CHARACTER", "MOVE", "REASON")
	for _, s := range skipped {
		if err := table.Append(s.Character, orDash(s.Move), s.Reason); err != nil {
			return err
		}
	}
	return table.Render()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
