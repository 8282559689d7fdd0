// Package hud describes the calibrated on-screen layout of the match HUD.
//
// All coordinates assume a 1920x1080 capture. The second player's widgets are
// mirrored horizontally around the screen centre.
package hud

import "fmt"

// ScreenWidth is the capture width the layout was calibrated against.
const (
	ScreenWidth  = 1920
	ScreenHeight = 1080
)

// Player identifies one side of the match.
type Player int

const (
	P1 Player = iota
	P2
)

// Players lists both sides in display order.
var Players = [2]Player{P1, P2}

func (p Player) String() string {
	switch p {
	case P1:
		return "P1"
	case P2:
		return "P2"
	default:
		return fmt.Sprintf("Player(%d)", int(p))
	}
}

// Point is a pixel coordinate.
type Point struct {
	X int
	Y int
}

// Region is an axis-aligned rectangle in pixel coordinates.
type Region struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Mirror returns the region reflected around the vertical centre line.
func (r Region) Mirror() Region {
	return Region{X: ScreenWidth - r.X - r.Width, Y: r.Y, Width: r.Width, Height: r.Height}
}

// For returns the region as seen on the given player's side. Regions are
// calibrated for P1.
func (r Region) For(p Player) Region {
	if p == P2 {
		return r.Mirror()
	}
	return r
}

// Center returns the middle pixel of the region.
func (r Region) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Around returns a region of the given size centred on p.
func Around(p Point, width, height int) Region {
	return Region{X: p.X - width/2, Y: p.Y - height/2, Width: width, Height: height}
}

// Empty reports whether the region covers no pixels.
func (r Region) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

func (r Region) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", r.X, r.Y, r.Width, r.Height)
}

// Color is a pixel value in OpenCV channel order.
type Color struct {
	B uint8
	G uint8
	R uint8
}

// BGR builds a Color from OpenCV ordered channels.
func BGR(b, g, r uint8) Color {
	return Color{B: b, G: g, R: r}
}

// DistanceSquared returns the squared euclidean distance between two colors.
func (c Color) DistanceSquared(o Color) int {
	db := int(c.B) - int(o.B)
	dg := int(c.G) - int(o.G)
	dr := int(c.R) - int(o.R)
	return db*db + dg*dg + dr*dr
}

func (c Color) String() string {
	return fmt.Sprintf("bgr(%d,%d,%d)", c.B, c.G, c.R)
}

// Frame meter layout. Each player's meter is a strip of MeterColumns columns.
const (
	MeterColumns = 80
)

var (
	// MeterP1 is the first player's frame meter strip.
	MeterP1 = Region{X: 358, Y: 801, Width: 1203, Height: 27}
	// MeterP2 is the second player's frame meter strip. The meter is not
	// mirrored, it is stacked under the first player's.
	MeterP2 = Region{X: 358, Y: 841, Width: 1203, Height: 27}
)

// Meter returns the frame meter strip for a player.
func Meter(p Player) Region {
	if p == P2 {
		return MeterP2
	}
	return MeterP1
}

// MeterColumnWidth is the horizontal distance between two meter columns.
func MeterColumnWidth() float64 {
	return float64(MeterP1.Width) / MeterColumns
}

// MeterColumnCenter returns the centre pixel of a meter column.
func MeterColumnCenter(p Player, column int) Point {
	strip := Meter(p)
	gap := MeterColumnWidth()
	return Point{
		X: strip.X + int(gap*float64(column)+gap/2),
		Y: strip.Y + strip.Height/2,
	}
}

// MeterColumnBounds returns the full rectangle drawn for a meter column.
func MeterColumnBounds(p Player, column int) Region {
	strip := Meter(p)
	gap := MeterColumnWidth()
	left := strip.X + int(gap*float64(column))
	right := strip.X + int(gap*float64(column+1))
	return Region{X: left, Y: strip.Y, Width: right - left, Height: strip.Height}
}

// Input display layout. Rows are counted from the top, row 1 being the input
// currently held.
const (
	InputRows       = 19
	InputTop        = 228
	InputHeight     = 645
	InputButtonsX   = 123
	InputButtonsW   = 174
	InputDirectionX = 90
	InputDirectionW = 35
	InputFramesX    = 54
	InputFramesW    = 26
)

// InputButtons returns the region holding button icons for a player.
func InputButtons(p Player) Region {
	return Region{X: InputButtonsX, Y: InputTop, Width: InputButtonsW, Height: InputHeight}.For(p)
}

// InputDirections returns the region holding direction arrows for a player.
func InputDirections(p Player) Region {
	return Region{X: InputDirectionX, Y: InputTop, Width: InputDirectionW, Height: InputHeight}.For(p)
}

// InputFrames returns the region holding the held-frames counters for a player.
func InputFrames(p Player) Region {
	return Region{X: InputFramesX, Y: InputTop, Width: InputFramesW, Height: InputHeight}.For(p)
}

// InputRowHeight is the height of one input display row.
func InputRowHeight() float64 {
	return float64(InputHeight) / InputRows
}

// Life bars. The bars drain towards the screen centre.
var LifeBarP1 = Region{X: 150, Y: 62, Width: 690, Height: 22}

// LifeBar returns the life bar region for a player.
func LifeBar(p Player) Region {
	return LifeBarP1.For(p)
}

// CharacterIcon is the area scanned for character portrait templates.
var CharacterIconP1 = Region{X: 20, Y: 20, Width: 200, Height: 110}

// CharacterIcon returns the portrait area for a player.
func CharacterIcon(p Player) Region {
	return CharacterIconP1.For(p)
}

// RoundMarkersP1 covers the first player's round win markers next to the timer.
var RoundMarkersP1 = Region{X: 800, Y: 100, Width: 100, Height: 28}

// RoundMarkers returns the round win markers for a player.
func RoundMarkers(p Player) Region {
	return RoundMarkersP1.For(p)
}
