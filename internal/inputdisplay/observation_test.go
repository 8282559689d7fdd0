package inputdisplay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/replayscan/internal/detector"
	"github.com/ayusman/replayscan/internal/hud"
)

func at(label string, y int) detector.Match {
	return detector.Match{Label: label, Point: hud.Point{X: 3, Y: y}, Score: 0.9}
}

func TestRowFor(t *testing.T) {
	tests := []struct {
		y    int
		want int
	}{
		{-5, 1},
		{0, 1},
		{33, 1},
		{34, 2},
		{340, 11},
		{644, 19},
		{700, 19},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RowFor(tt.y), "y=%d", tt.y)
	}
}

func TestObservation_AddButtons(t *testing.T) {
	o := NewObservation(10)
	o.AddButtons(hud.P1, []detector.Match{
		at("LightPunch", 40),
		at("MediumKick", 45),
		at("HeavyKick", 80),
		at("2Direction", 120),
	})

	rows := o.Rows(hud.P1)
	assert.Equal(t, Row{Buttons: Buttons(LightPunch, MediumKick)}, rows[1])
	assert.Equal(t, Row{Buttons: Buttons(HeavyKick)}, rows[2])
	assert.True(t, rows[3].IsEmpty(), "non-button labels are ignored")
	assert.EqualValues(t, IconWeight, o.Row(hud.P1, 2).Buttons.Weight(Buttons(LightPunch, MediumKick)))

	for _, r := range o.Rows(hud.P2) {
		assert.True(t, r.IsEmpty())
	}
}

func TestObservation_AddDirections(t *testing.T) {
	o := NewObservation(10)
	require.NoError(t, o.AddDirections(hud.P2, []detector.Match{at("2Direction", 40), at("2Direction", 42), at("6Direction", 80)}))

	assert.Equal(t, Direction(2), o.Rows(hud.P2)[1].Direction)
	assert.Equal(t, Direction(6), o.Rows(hud.P2)[2].Direction)
	assert.EqualValues(t, IconWeight, o.Row(hud.P2, 2).Direction.Weight(2), "duplicates are counted once")
}

func TestObservation_AddDirections_Ambiguous(t *testing.T) {
	o := NewObservation(10)
	err := o.AddDirections(hud.P1, []detector.Match{at("2Direction", 40), at("6Direction", 50)})
	assert.ErrorIs(t, err, ErrAmbiguousDirection)
}

func TestObservation_AddNumbers(t *testing.T) {
	o := NewObservation(10)
	o.AddNumbers(hud.P1, []detector.Number{
		{Value: 12, Point: hud.Point{Y: 40}},
		{Value: 150, Point: hud.Point{Y: 80}},
		{Value: -1, Point: hud.Point{Y: 120}},
	})

	assert.Equal(t, 12, o.Rows(hud.P1)[1].Frames)
	assert.EqualValues(t, NumberWeight, o.Row(hud.P1, 2).Frames.Weight(12))
	assert.Equal(t, 0, o.Rows(hud.P1)[2].Frames)
	assert.Equal(t, 0, o.Rows(hud.P1)[3].Frames)
}

func TestObservationRow_SameProbability(t *testing.T) {
	a := display(0, 30).Row(hud.P1, 4)
	b := display(0, 30).Row(hud.P1, 4)
	c := display(0, 30).Row(hud.P1, 5)

	assert.Greater(t, a.SameProbability(b), DefaultMinSimilarity)
	assert.Less(t, a.SameProbability(c), DefaultMinSimilarity)

	unread := NewObservationRow()
	assert.InDelta(t, 8.0, unread.SameProbability(NewObservationRow()), 1e-9)
}

func TestObservationRow_MergeBest(t *testing.T) {
	a := NewObservationRow()
	a.AddDirection(3, IconWeight)
	a.AddFrames(7, NumberWeight)

	b := NewObservationRow()
	b.AddDirection(3, IconWeight)
	b.AddButtons(Buttons(HeavyPunch), IconWeight)

	assert.Equal(t, Row{Direction: 3, Buttons: Buttons(HeavyPunch), Frames: 7}, a.MergeBest(b))
	assert.Equal(t, Row{Direction: 3, Frames: 7}, a.Best())
}
