// Package detector finds HUD icons and digits in frame regions.
package detector

import (
	"context"

	"gocv.io/x/gocv"

	"github.com/ayusman/replayscan/internal/hud"
)

// Match is one template found in an image. Point is the top-left corner of
// the match, relative to the searched image.
type Match struct {
	Label string
	Point hud.Point
	Score float64
}

// Matcher finds labelled templates in an image.
type Matcher interface {
	// Find returns the matches in img, ordered top to bottom then left to
	// right. Returns an empty slice if nothing matches.
	Find(img gocv.Mat) ([]Match, error)

	// Close releases any resources held by the matcher.
	Close() error
}

// Number is a number read from an image. Point is the top-left corner of its
// first digit, relative to the searched image.
type Number struct {
	Value int
	Point hud.Point
}

// NumberRecognizer reads the numbers shown in an image.
type NumberRecognizer interface {
	Numbers(ctx context.Context, img gocv.Mat) ([]Number, error)
}

// Config holds template matching options.
type Config struct {
	// Threshold is the minimum normalized correlation of a match (0.0-1.0).
	Threshold float64

	// Scale resizes templates after loading. HUD assets are captured at a
	// slightly smaller size than the recorded replays.
	Scale float64
}

// DefaultConfig returns a Config with the calibrated matching values.
func DefaultConfig() Config {
	return Config{
		Threshold: 0.7,
		Scale:     1.1,
	}
}
