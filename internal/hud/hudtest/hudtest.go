// Package hudtest paints synthetic HUD frames for tests.
package hudtest

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/ayusman/replayscan/internal/hud"
	"github.com/ayusman/replayscan/internal/state"
)

// Colors used by the painters.
var (
	Black  = hud.BGR(0, 0, 0)
	White  = hud.BGR(255, 255, 255)
	Yellow = hud.BGR(0, 255, 255)
)

// NewScreen returns a black full-size capture frame. The caller owns it.
func NewScreen() gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), hud.ScreenHeight, hud.ScreenWidth, gocv.MatTypeCV8UC3)
}

func rect(r hud.Region) image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Fill paints a region with one color.
func Fill(mat gocv.Mat, r hud.Region, c hud.Color) {
	view := mat.Region(rect(r))
	defer view.Close()
	view.SetTo(gocv.NewScalar(float64(c.B), float64(c.G), float64(c.R), 0))
}

// Stamp copies img onto mat with its top-left corner at p.
func Stamp(mat gocv.Mat, img gocv.Mat, p hud.Point) {
	view := mat.Region(image.Rect(p.X, p.Y, p.X+img.Cols(), p.Y+img.Rows()))
	defer view.Close()
	img.CopyTo(&view)
}

// PaintMeter paints a player's frame meter, one state per column from the
// left. States without a palette color are left black.
func PaintMeter(mat gocv.Mat, palette *state.Palette, p hud.Player, states []state.State) {
	for i, s := range states {
		if i >= hud.MeterColumns {
			return
		}
		if c, ok := palette.ColorOf(s); ok {
			Fill(mat, hud.MeterColumnBounds(p, i), c)
		}
	}
}

// PaintLife paints a player's life bar filled to percent, from the outer
// edge towards the centre of the screen.
func PaintLife(mat gocv.Mat, p hud.Player, percent float64) {
	bar := hud.LifeBarP1
	filled := hud.Region{X: bar.X, Y: bar.Y, Width: int(float64(bar.Width) * percent / 100), Height: bar.Height}
	if filled.Empty() {
		return
	}
	Fill(mat, filled.For(p), Yellow)
}

// PaintWins lights the first wins round markers of a player.
func PaintWins(mat gocv.Mat, p hud.Player, wins, markers int) {
	area := hud.RoundMarkersP1
	width := area.Width / markers
	for i := 0; i < wins && i < markers; i++ {
		Fill(mat, hud.Region{X: area.X + i*width, Y: area.Y, Width: width, Height: area.Height}.For(p), White)
	}
}
