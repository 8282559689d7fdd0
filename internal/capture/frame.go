package capture

import (
	"errors"
	"image"

	"gocv.io/x/gocv"

	"github.com/ayusman/replayscan/internal/hud"
)

// ErrEmptyRegion is returned when a region lies outside the frame.
var ErrEmptyRegion = errors.New("region is outside the frame")

// Frame is one decoded video frame in BGR channel order.
type Frame struct {
	Index int
	Mat   gocv.Mat
}

// NewFrame wraps a decoded Mat. The Frame takes ownership of mat.
func NewFrame(index int, mat gocv.Mat) *Frame {
	return &Frame{Index: index, Mat: mat}
}

// Close releases the frame's pixels.
func (f *Frame) Close() error {
	return f.Mat.Close()
}

// Width returns the frame width in pixels.
func (f *Frame) Width() int { return f.Mat.Cols() }

// Height returns the frame height in pixels.
func (f *Frame) Height() int { return f.Mat.Rows() }

// Pixel returns the color at p. The second result is false outside the frame.
func (f *Frame) Pixel(p hud.Point) (hud.Color, bool) {
	if p.X < 0 || p.Y < 0 || p.X >= f.Width() || p.Y >= f.Height() {
		return hud.Color{}, false
	}
	v := f.Mat.GetVecbAt(p.Y, p.X)
	return hud.BGR(v[0], v[1], v[2]), true
}

// Clip intersects r with the frame bounds.
func (f *Frame) Clip(r hud.Region) hud.Region {
	rect := image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height).Intersect(image.Rect(0, 0, f.Width(), f.Height()))
	return hud.Region{X: rect.Min.X, Y: rect.Min.Y, Width: rect.Dx(), Height: rect.Dy()}
}

// Colors returns the pixels of r in row-major order. Pixels outside the frame
// are skipped.
func (f *Frame) Colors(r hud.Region) []hud.Color {
	clipped := f.Clip(r)
	if clipped.Empty() {
		return nil
	}
	out := make([]hud.Color, 0, clipped.Width*clipped.Height)
	for y := clipped.Y; y < clipped.Y+clipped.Height; y++ {
		for x := clipped.X; x < clipped.X+clipped.Width; x++ {
			v := f.Mat.GetVecbAt(y, x)
			out = append(out, hud.BGR(v[0], v[1], v[2]))
		}
	}
	return out
}

// Crop copies the pixels of r into a new Mat. The caller is responsible for
// closing it.
func (f *Frame) Crop(r hud.Region) (gocv.Mat, error) {
	clipped := f.Clip(r)
	if clipped.Empty() {
		return gocv.NewMat(), ErrEmptyRegion
	}
	view := f.Mat.Region(image.Rect(clipped.X, clipped.Y, clipped.X+clipped.Width, clipped.Y+clipped.Height))
	defer view.Close()
	return view.Clone(), nil
}
