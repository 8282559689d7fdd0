package e2e

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cyclopcam/logs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/ayusman/replayscan/internal/app"
	"github.com/ayusman/replayscan/internal/capture"
	"github.com/ayusman/replayscan/internal/character"
	"github.com/ayusman/replayscan/internal/config"
	"github.com/ayusman/replayscan/internal/detector"
	"github.com/ayusman/replayscan/internal/framedata"
	"github.com/ayusman/replayscan/internal/hud"
	"github.com/ayusman/replayscan/internal/hud/hudtest"
	"github.com/ayusman/replayscan/internal/report"
	"github.com/ayusman/replayscan/internal/state"
	"github.com/ayusman/replayscan/internal/store"
)

const frameDataPath = "../internal/framedata/testdata/frame_data.json"

// akiJab is the state sequence of A.K.I.'s Stand LP followed by idle frames.
func akiJab() []state.Type {
	var seq []state.Type
	for _, n := range []struct {
		t     state.Type
		count int
	}{{state.Startup, 5}, {state.Active, 2}, {state.Recovery, 7}, {state.Nothing, 16}} {
		for i := 0; i < n.count; i++ {
			seq = append(seq, n.t)
		}
	}
	return seq
}

func truth(frame int, p hud.Player) state.State {
	seq := akiJab()
	if p == hud.P2 {
		return state.Of(state.Nothing)
	}
	return state.Of(seq[frame%len(seq)])
}

// renderMatch draws a training mode screen where P1 repeats a jab. P2 loses
// a little life every time it lands.
func renderMatch(palette *state.Palette) func(n int) gocv.Mat {
	return func(n int) gocv.Mat {
		mat := hudtest.NewScreen()
		window, head := n/hud.MeterColumns, n%hud.MeterColumns
		for _, p := range hud.Players {
			states := make([]state.State, hud.MeterColumns)
			for c := range states {
				switch {
				case c <= head:
					states[c] = truth(window*hud.MeterColumns+c, p)
				case window == 0:
					states[c] = state.Of(state.Nothing)
				default:
					states[c] = truth((window-1)*hud.MeterColumns+c, p).ToPast()
				}
			}
			hudtest.PaintMeter(mat, palette, p, states)
		}
		hudtest.PaintLife(mat, hud.P1, 100)
		hudtest.PaintLife(mat, hud.P2, 100-float64(n/30))
		return mat
	}
}

func iconMatcher(label string) *detector.MockMatcher {
	m := detector.NewMockMatcher()
	m.SetMatches([]detector.Match{{Label: label, Score: 0.93}})
	return m
}

func TestE2E_AnalyzeStoreReport(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	tmpDir := t.TempDir()
	s, err := store.New(filepath.Join(tmpDir, "data.db"))
	require.NoError(t, err)
	defer s.Close()

	log := logs.NewTestingLog(t)
	lib, err := framedata.Load(frameDataPath, log)
	require.NoError(t, err)

	sensors := &app.Sensors{
		Characters: character.NewScanner(iconMatcher("p1_A.K.I."), iconMatcher("p2_Ryu"), log),
	}
	analyzer := app.New(app.Config{
		Store:     s,
		Tuning:    config.DefaultTuning(),
		FrameData: lib,
		Log:       log,
	}, sensors)

	source := capture.NewMockSource(600, 60, renderMatch(analyzer.Registry().Palette()))
	res, err := analyzer.Analyze(context.Background(), source, "training.mp4")
	require.NoError(t, err)

	t.Run("Characters", func(t *testing.T) {
		assert.Equal(t, character.Pair{"A.K.I.", "Ryu"}, res.Characters)
	})

	t.Run("StoredRun", func(t *testing.T) {
		run, err := s.Runs().FindByPrefix(report.ShortID(res.RunID))
		require.NoError(t, err)
		assert.Equal(t, store.RunCompleted, run.Status)
		assert.Equal(t, [2]string{"A.K.I.", "Ryu"}, run.Characters)
		assert.Equal(t, 600, run.FrameCount)
		assert.Equal(t, config.DriverBinary, run.Driver)
	})

	t.Run("StoredResults", func(t *testing.T) {
		saved, err := s.Results().Load(res.RunID)
		require.NoError(t, err)
		records := res.Records()
		assert.Len(t, saved.Timeline, len(records.Timeline))
		assert.Len(t, saved.Detections, len(records.Detections))
		assert.Len(t, saved.Rounds, len(records.Rounds))
		for _, d := range saved.Detections {
			assert.Equal(t, 0, d.Player, "P2 never leaves idle")
		}
	})

	t.Run("Report", func(t *testing.T) {
		runs, err := s.Runs().List()
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, report.PrintRuns(&buf, runs))
		assert.Contains(t, buf.String(), "training.mp4")
		assert.Contains(t, buf.String(), report.ShortID(res.RunID))
	})

	t.Run("Plot", func(t *testing.T) {
		saved, err := s.Results().Load(res.RunID)
		require.NoError(t, err)
		if len(saved.Timeline) == 0 {
			t.Skip("empty timeline")
		}
		out := filepath.Join(tmpDir, "timeline.png")
		require.NoError(t, report.PlotTimeline(out, "training.mp4", saved.Timeline, saved.Detections))
		info, err := os.Stat(out)
		require.NoError(t, err)
		assert.NotZero(t, info.Size())
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, s.Runs().Delete(res.RunID))
		saved, err := s.Results().Load(res.RunID)
		require.NoError(t, err)
		assert.Empty(t, saved.Timeline)
	})
}
