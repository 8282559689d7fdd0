// Package round follows the life bars and round win markers to tell where
// rounds start and end.
package round

import (
	"fmt"

	"github.com/ayusman/replayscan/internal/capture"
	"github.com/ayusman/replayscan/internal/hud"
)

// DefaultMaxLife is the life of characters missing from MaxLife.
const DefaultMaxLife = 10000

// MaxLife is the full life of characters whose life differs from the
// default.
var MaxLife = map[string]int{
	"Zangief": 11000,
	"Akuma":   9000,
}

// MaxLifeOf returns a character's full life.
func MaxLifeOf(character string) int {
	if life, ok := MaxLife[character]; ok {
		return life
	}
	return DefaultMaxLife
}

// Reading thresholds.
const (
	// KOPercent is the life percentage under which a player is knocked out.
	KOPercent = 5.0
	// MarkerBrightness is the gray level a lit round marker pixel exceeds.
	MarkerBrightness = 150
	// MarkerLitRatio is the share of bright pixels of a lit marker.
	MarkerLitRatio = 0.25
	// MarkersPerPlayer is how many round wins the HUD can show.
	MarkersPerPlayer = 2
)

// Life is the remaining life of a player, from 0 to 100 percent.
type Life float64

// KO reports whether the bar is empty enough to count as a knock out.
func (l Life) KO() bool { return float64(l) < KOPercent }

// Points converts the percentage into life points for a character.
func (l Life) Points(character string) int {
	return int(float64(l) / 100 * float64(MaxLifeOf(character)))
}

// ReadLife measures a player's life bar.
func ReadLife(frame *capture.Frame, p hud.Player) (Life, error) {
	ratio, err := capture.FillRatio(frame, hud.LifeBar(p), capture.LifeBarYellow)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s life bar: %w", p, err)
	}
	return Life(ratio * 100), nil
}

// ReadWins counts the lit round markers of a player. The marker area is
// split evenly between the markers.
func ReadWins(frame *capture.Frame, p hud.Player) (int, error) {
	area := hud.RoundMarkers(p)
	width := area.Width / MarkersPerPlayer
	wins := 0
	for i := 0; i < MarkersPerPlayer; i++ {
		marker := hud.Region{X: area.X + i*width, Y: area.Y, Width: width, Height: area.Height}
		ratio, err := capture.BrightRatio(frame, marker, MarkerBrightness)
		if err != nil {
			return 0, fmt.Errorf("failed to read %s round markers: %w", p, err)
		}
		if ratio > MarkerLitRatio {
			wins++
		}
	}
	return wins, nil
}
