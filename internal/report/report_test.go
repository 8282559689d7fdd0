package report

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/replayscan/internal/framedata"
	"github.com/ayusman/replayscan/internal/store"
)

func slots(p1, p2 []string) []store.Slot {
	out := make([]store.Slot, len(p1))
	for i := range p1 {
		out[i] = store.Slot{Index: i, Position: i, States: [2]string{p1[i], p2[i]}}
	}
	return out
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "0f8fad5b", ShortID("0f8fad5b-d9cb-469f-a165-70867728950e"))
	assert.Equal(t, "abc", ShortID("abc"))
}

func TestTimelineRuns(t *testing.T) {
	timeline := slots(
		[]string{"STARTUP", "STARTUP", "ACTIVE", "RECOVERY"},
		[]string{"NOTHING", "NOTHING", "NOTHING", "HIT_STUCK"},
	)

	got := TimelineRuns(timeline)
	want := []StateRun{
		{Player: 0, State: "STARTUP", Start: 0, Length: 2},
		{Player: 0, State: "ACTIVE", Start: 2, Length: 1},
		{Player: 0, State: "RECOVERY", Start: 3, Length: 1},
		{Player: 1, State: "NOTHING", Start: 0, Length: 3},
		{Player: 1, State: "HIT_STUCK", Start: 3, Length: 1},
	}
	assert.Equal(t, want, got)
}

func TestTimelineRuns_Gap(t *testing.T) {
	timeline := []store.Slot{
		{Index: 0, States: [2]string{"NOTHING", "NOTHING"}},
		{Index: 2, States: [2]string{"NOTHING", "NOTHING"}},
	}
	got := TimelineRuns(timeline)
	assert.Len(t, got, 4, "slots that are not adjacent start a new run")
}

func TestPrintTables(t *testing.T) {
	finished := time.Date(2024, 6, 1, 12, 0, 3, 0, time.UTC)
	winner := 0

	tests := []struct {
		name  string
		print func(*bytes.Buffer) error
		want  []string
	}{
		{
			name: "runs",
			print: func(b *bytes.Buffer) error {
				return PrintRuns(b, []*store.Run{{
					ID: "0f8fad5b-d9cb-469f-a165-70867728950e", Video: "match.mp4", FrameCount: 5400,
					Driver: "binary", SamplingMode: "region", Characters: [2]string{"Ryu", ""},
					Status: store.RunCompleted, StartedAt: finished.Add(-3 * time.Second), FinishedAt: &finished,
				}})
			},
			want: []string{"0f8fad5b", "match.mp4", "Ryu", "5400", "completed", "3s"},
		},
		{
			name: "detections",
			print: func(b *bytes.Buffer) error {
				return PrintDetections(b, []store.Detection{{Player: 1, Move: "Stand LP", Status: "PARTIALLY_HIT", StartSlot: 21, EndSlot: 37}})
			},
			want: []string{"P2", "Stand LP", "PARTIALLY_HIT", "21", "37", "16"},
		},
		{
			name: "timeline",
			print: func(b *bytes.Buffer) error {
				return PrintTimeline(b, slots([]string{"ACTIVE"}, []string{"NOTHING"}))
			},
			want: []string{"P1", "ACTIVE"},
		},
		{
			name: "inputs",
			print: func(b *bytes.Buffer) error {
				return PrintInputs(b, []store.InputRow{{Player: 0, Sequence: 3, Direction: 2, Buttons: "lp+mk", Frames: 4}})
			},
			want: []string{"P1", "lp+mk"},
		},
		{
			name: "rounds",
			print: func(b *bytes.Buffer) error {
				return PrintRounds(b, []store.RoundEvent{{Frame: 900, From: "ROUND_ENDING", To: "ROUND_ENDED", Winner: &winner}})
			},
			want: []string{"900", "ROUND_ENDING", "ROUND_ENDED", "P1"},
		},
		{
			name: "skipped",
			print: func(b *bytes.Buffer) error {
				return PrintSkipped(b, []framedata.Skip{{Character: "A.K.I.", Move: "Stand HP", Reason: `missing "startup"`}})
			},
			want: []string{"A.K.I.", "Stand HP", "startup"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, tt.print(&buf))
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}

func TestPrintMoveList(t *testing.T) {
	c := framedata.NewCharacter("Ryu")
	c.AddMove(&framedata.Move{
		Name: "Stand LP", Type: framedata.MoveType("normal"), Input: framedata.InputNotation{Numpad: "5LP"},
		Startup: 4, Active: 3, Recovery: 7, Total: 13, AttackLevel: framedata.High,
	})

	var buf bytes.Buffer
	require.NoError(t, PrintMoveList(&buf, c))
	out := buf.String()
	assert.Contains(t, out, "Stand LP")
	assert.Contains(t, out, "5LP")
	assert.Contains(t, out, "3/3/7")
}

func TestPrintRunSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintRunSummary(&buf, &store.Run{ID: "run-1", Video: "a.mp4", Characters: [2]string{"Ryu", "Ken"}, FrameCount: 600, FPS: 60, Status: store.RunRunning})
	assert.Contains(t, buf.String(), "Ryu vs Ken")
	assert.Contains(t, buf.String(), "600 @ 60 fps")
}

func TestNewTimelinePlot(t *testing.T) {
	timeline := slots(
		[]string{"STARTUP", "ACTIVE", "ACTIVE"},
		[]string{"NOTHING", "NOTHING", "HIT_STUCK"},
	)

	p, err := NewTimelinePlot("run", timeline, []store.Detection{{Player: 0, Move: "Stand LP", StartSlot: 0, EndSlot: 2}})
	require.NoError(t, err)

	ticks := p.Y.Tick.Marker.Ticks(p.Y.Min, p.Y.Max)
	var labels []string
	for _, tk := range ticks {
		labels = append(labels, tk.Label)
	}
	assert.Equal(t, []string{"MOVE", "ACTIVE", "STARTUP", "HIT_STUCK", "NOTHING"}, labels)
}

func TestPlotTimeline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timeline.png")
	timeline := slots([]string{"STARTUP", "ACTIVE"}, []string{"NOTHING", "NOTHING"})

	require.NoError(t, PlotTimeline(path, "run-1", timeline, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")), "expected a PNG file")
}

func TestPlotTimeline_Empty(t *testing.T) {
	err := PlotTimeline(filepath.Join(t.TempDir(), "empty.png"), "run", nil, nil)
	assert.True(t, errors.Is(err, ErrEmptyTimeline))
}
