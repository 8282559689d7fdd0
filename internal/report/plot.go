package report

import (
	"errors"
	"fmt"
	"image/color"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ayusman/replayscan/internal/state"
	"github.com/ayusman/replayscan/internal/store"
)

// ErrEmptyTimeline is returned when there is nothing to plot.
var ErrEmptyTimeline = errors.New("empty timeline")

// Plot sizes.
const (
	PlotWidth  = 14 * vg.Inch
	PlotHeight = 6 * vg.Inch
)

// P2 lines are drawn slightly above P1 so overlapping states stay visible.
const p2Offset = 0.25

var playerColors = [2]color.RGBA{
	{R: 31, G: 119, B: 180, A: 255},
	{R: 214, G: 39, B: 40, A: 255},
}

// stateLevel places a state name on the y axis. Names that do not parse
// share the Unknown level.
func stateLevel(name string) float64 {
	t, _ := state.ParseType(name)
	return float64(t)
}

// NewTimelinePlot builds a step plot of both players' states over the
// timeline, with detected moves marked under it.
func NewTimelinePlot(title string, slots []store.Slot, detections []store.Detection) (*plot.Plot, error) {
	if len(slots) == 0 {
		return nil, ErrEmptyTimeline
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "State"

	levels := map[float64]string{}
	for player := 0; player < 2; player++ {
		pts := make(plotter.XYs, 0, len(slots))
		for _, s := range slots {
			level := stateLevel(s.States[player])
			levels[level] = s.States[player]
			pts = append(pts, plotter.XY{X: float64(s.Index), Y: level + float64(player)*p2Offset})
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s line: %w", playerName(player), err)
		}
		line.StepStyle = plotter.PostStep
		line.Color = playerColors[player]
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(playerName(player), line)
	}

	for player := 0; player < 2; player++ {
		var pts plotter.XYs
		for _, d := range detections {
			if d.Player == player {
				pts = append(pts, plotter.XY{X: float64(d.StartSlot), Y: -1 - float64(player)*p2Offset})
			}
		}
		if len(pts) == 0 {
			continue
		}
		scatter, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s moves: %w", playerName(player), err)
		}
		scatter.Color = playerColors[player]
		scatter.Radius = vg.Points(3)
		p.Add(scatter)
		p.Legend.Add(playerName(player)+" moves", scatter)
		levels[-1] = "MOVE"
	}

	p.Y.Tick.Marker = stateTicks(levels)
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

func stateTicks(levels map[float64]string) plot.ConstantTicks {
	ticks := make(plot.ConstantTicks, 0, len(levels))
	for v, label := range levels {
		ticks = append(ticks, plot.Tick{Value: v, Label: label})
	}
	sort.Slice(ticks, func(i, j int) bool { return ticks[i].Value < ticks[j].Value })
	return ticks
}

// PlotTimeline saves the timeline plot of a run. The image format follows
// the file extension.
func PlotTimeline(path, title string, slots []store.Slot, detections []store.Detection) error {
	p, err := NewTimelinePlot(title, slots, detections)
	if err != nil {
		return err
	}
	if err := p.Save(PlotWidth, PlotHeight, path); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}
	return nil
}
