// Package capture provides frame access to recorded match videos using GoCV
// (OpenCV).
package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// maxGrabSkip is the longest forward jump served by grabbing frames instead
// of seeking. Seeking in compressed streams lands on key frames and decodes
// forward, which is slower than grabbing for short distances.
const maxGrabSkip = 48

var (
	// ErrVideoNotFound is returned when the video file does not exist.
	ErrVideoNotFound = errors.New("video file not found")
	// ErrVideoOpen is returned when the decoder cannot open the file.
	ErrVideoOpen = errors.New("failed to open video")
	// ErrVideoClosed is returned when reading from a closed video.
	ErrVideoClosed = errors.New("video is closed")
	// ErrFrameOutOfRange is returned for frame numbers outside the video.
	ErrFrameOutOfRange = errors.New("frame number out of range")
)

// Source provides random access to decoded frames.
type Source interface {
	FrameCount() int
	FPS() float64
	Frame(n int) (*Frame, error)
	Close() error
}

// Video is a Source backed by a video file on disk.
type Video struct {
	path       string
	capture    *gocv.VideoCapture
	mu         sync.Mutex
	frameCount int
	fps        float64
	width      int
	height     int
	// next is the frame the capture reads next, or -1 when unknown.
	next int
}

// OpenVideo opens a video file for reading. Every resource acquired is
// released again when opening fails.
func OpenVideo(path string) (*Video, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrVideoNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat video: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrVideoOpen, path)
	}

	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrVideoOpen, path, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%w: %s", ErrVideoOpen, path)
	}

	v := &Video{
		path:       path,
		capture:    capture,
		frameCount: int(capture.Get(gocv.VideoCaptureFrameCount)),
		fps:        capture.Get(gocv.VideoCaptureFPS),
		width:      int(capture.Get(gocv.VideoCaptureFrameWidth)),
		height:     int(capture.Get(gocv.VideoCaptureFrameHeight)),
	}
	if v.frameCount <= 0 {
		capture.Close()
		return nil, fmt.Errorf("%w: %s reports no frames", ErrVideoOpen, path)
	}

	return v, nil
}

// Path returns the file the video was opened from.
func (v *Video) Path() string { return v.path }

// FrameCount returns the number of frames reported by the container.
func (v *Video) FrameCount() int { return v.frameCount }

// FPS returns the frame rate reported by the container.
func (v *Video) FPS() float64 { return v.fps }

// Width returns the frame width in pixels.
func (v *Video) Width() int { return v.width }

// Height returns the frame height in pixels.
func (v *Video) Height() int { return v.height }

// Duration returns the play time of the video.
func (v *Video) Duration() time.Duration {
	if v.fps <= 0 {
		return 0
	}
	return time.Duration(float64(v.frameCount) / v.fps * float64(time.Second))
}

// Close releases the decoder. Closing twice is a no-op.
func (v *Video) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.capture == nil {
		return nil
	}
	err := v.capture.Close()
	v.capture = nil
	return err
}

// Frame decodes frame n. The caller is responsible for closing the returned
// Frame.
func (v *Video) Frame(n int) (*Frame, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.capture == nil {
		return nil, ErrVideoClosed
	}
	if n < 0 || n >= v.frameCount {
		return nil, fmt.Errorf("%w: %d not in [0,%d)", ErrFrameOutOfRange, n, v.frameCount)
	}

	if skip, seek := grabSkip(v.next, n); seek {
		v.capture.Set(gocv.VideoCapturePosFrames, float64(n))
	} else if skip > 0 {
		v.capture.Grab(skip)
	}

	mat := gocv.NewMat()
	if ok := v.capture.Read(&mat); !ok {
		mat.Close()
		v.next = -1
		return nil, fmt.Errorf("failed to read frame %d", n)
	}
	if mat.Empty() {
		mat.Close()
		v.next = -1
		return nil, fmt.Errorf("frame %d is empty", n)
	}
	v.next = n + 1

	return NewFrame(n, mat), nil
}

// grabSkip returns how many frames to grab to get from next to n, or seek
// when the capture has to be repositioned instead.
func grabSkip(next, n int) (skip int, seek bool) {
	if next < 0 {
		return 0, true
	}
	skip = n - next
	if skip < 0 || skip > maxGrabSkip {
		return 0, true
	}
	return skip, false
}

// Each calls fn for every frame in order, stopping at the first error.
func Each(ctx context.Context, src Source, fn func(*Frame) error) error {
	frames := make([]int, src.FrameCount())
	for i := range frames {
		frames[i] = i
	}
	return FramesAt(ctx, src, frames, fn)
}

// FramesAt calls fn for the given frame numbers in increasing order so the
// decoder only moves forward. Every frame is closed after fn returns.
func FramesAt(ctx context.Context, src Source, frames []int, fn func(*Frame) error) error {
	sorted := make([]int, len(frames))
	copy(sorted, frames)
	sort.Ints(sorted)

	for _, n := range sorted {
		if err := ctx.Err(); err != nil {
			return err
		}
		frame, err := src.Frame(n)
		if err != nil {
			return err
		}
		err = fn(frame)
		frame.Close()
		if err != nil {
			return err
		}
	}
	return nil
}
