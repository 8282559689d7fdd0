package inputdisplay

import "github.com/ayusman/replayscan/internal/hud"

// input returns the i-th input of a made-up input list. Neighbouring inputs
// always differ in direction, buttons and held frames.
func input(i int) Row {
	return Row{
		Direction: Direction(i%9 + 1),
		Buttons:   ButtonSet(1 << (i % 6)),
		Frames:    i + 1,
	}
}

func inputs(from, to int) []Row {
	var out []Row
	for i := from; i <= to; i++ {
		out = append(out, input(i))
	}
	return out
}

// display builds the observation shown once `upto` inputs were entered by
// P1: row r shows input upto-r. P2 stays idle and nothing is read for it.
func display(frame, upto int) *Observation {
	o := NewObservation(frame)
	for r := 1; r <= MaxRows; r++ {
		in := input(upto - r)
		row := o.Row(hud.P1, r)
		row.AddDirection(in.Direction, IconWeight)
		row.AddButtons(in.Buttons, IconWeight)
		row.AddFrames(in.Frames, NumberWeight)
	}
	return o
}

// partialDisplay is display for a round that started recently: only the
// newest `shown` rows hold inputs, the rest of the display is blank.
func partialDisplay(frame, upto, shown int) *Observation {
	o := NewObservation(frame)
	for r := 1; r <= shown && r <= MaxRows; r++ {
		in := input(upto - r)
		row := o.Row(hud.P1, r)
		row.AddDirection(in.Direction, IconWeight)
		row.AddButtons(in.Buttons, IconWeight)
		row.AddFrames(in.Frames, NumberWeight)
	}
	return o
}
