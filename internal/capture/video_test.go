package capture

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gocv.io/x/gocv"
)

func TestOpenVideo_NotFound(t *testing.T) {
	_, err := OpenVideo(filepath.Join(t.TempDir(), "missing.mp4"))
	if !errors.Is(err, ErrVideoNotFound) {
		t.Fatalf("OpenVideo() error = %v, want ErrVideoNotFound", err)
	}
}

func TestOpenVideo_Directory(t *testing.T) {
	_, err := OpenVideo(t.TempDir())
	if !errors.Is(err, ErrVideoOpen) {
		t.Fatalf("OpenVideo() error = %v, want ErrVideoOpen", err)
	}
}

func TestOpenVideo_NotAVideo(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires the OpenCV video backend")
	}

	path := filepath.Join(t.TempDir(), "garbage.mp4")
	if err := os.WriteFile(path, []byte("definitely not a video"), 0644); err != nil {
		t.Fatal(err)
	}

	v, err := OpenVideo(path)
	if err == nil {
		v.Close()
		t.Fatal("OpenVideo() expected error for garbage file")
	}
	if !errors.Is(err, ErrVideoOpen) {
		t.Errorf("OpenVideo() error = %v, want ErrVideoOpen", err)
	}
}

func TestGrabSkip(t *testing.T) {
	tests := []struct {
		name     string
		next, n  int
		wantSkip int
		wantSeek bool
	}{
		{name: "next frame", next: 10, n: 10},
		{name: "short jump", next: 10, n: 14, wantSkip: 4},
		{name: "longest grab", next: 0, n: maxGrabSkip, wantSkip: maxGrabSkip},
		{name: "long jump", next: 0, n: maxGrabSkip + 1, wantSeek: true},
		{name: "backwards", next: 10, n: 9, wantSeek: true},
		{name: "position lost after failed read", next: -1, n: 3, wantSeek: true},
		{name: "position lost at start", next: -1, n: 0, wantSeek: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			skip, seek := grabSkip(tt.next, tt.n)
			if skip != tt.wantSkip || seek != tt.wantSeek {
				t.Errorf("grabSkip(%d, %d) = %d, %v, want %d, %v", tt.next, tt.n, skip, seek, tt.wantSkip, tt.wantSeek)
			}
		})
	}
}

func solidFrame(b, g, r float64) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(b, g, r, 0), 48, 64, gocv.MatTypeCV8UC3)
}

func TestMockSource(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	src := NewMockSource(10, 60, func(n int) gocv.Mat {
		return solidFrame(float64(n), 0, 0)
	})

	tests := []struct {
		name    string
		frame   int
		wantErr error
	}{
		{name: "first", frame: 0},
		{name: "last", frame: 9},
		{name: "negative", frame: -1, wantErr: ErrFrameOutOfRange},
		{name: "past end", frame: 10, wantErr: ErrFrameOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := src.Frame(tt.frame)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Frame(%d) error = %v, want %v", tt.frame, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Frame(%d) unexpected error: %v", tt.frame, err)
			}
			defer f.Close()

			if f.Index != tt.frame {
				t.Errorf("Index = %d, want %d", f.Index, tt.frame)
			}
			c, ok := f.Pixel(hudPoint(3, 3))
			if !ok || int(c.B) != tt.frame {
				t.Errorf("Pixel() = %v, %v, want blue %d", c, ok, tt.frame)
			}
		})
	}

	src.Close()
	if _, err := src.Frame(0); !errors.Is(err, ErrVideoClosed) {
		t.Errorf("Frame() after Close error = %v, want ErrVideoClosed", err)
	}
}

func TestFramesAt_ReadsInOrder(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	src := NewMockSource(100, 60, func(n int) gocv.Mat { return solidFrame(0, 0, 0) })
	var seen []int
	err := FramesAt(context.Background(), src, []int{50, 10, 30}, func(f *Frame) error {
		seen = append(seen, f.Index)
		return nil
	})
	if err != nil {
		t.Fatalf("FramesAt() error = %v", err)
	}

	want := []int{10, 30, 50}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("FramesAt() order = %v, want %v", seen, want)
		}
	}
}

func TestFramesAt_Cancelled(t *testing.T) {
	src := NewMockSource(5, 60, func(n int) gocv.Mat { return gocv.NewMat() })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Each(ctx, src, func(f *Frame) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Each() error = %v, want context.Canceled", err)
	}
	if len(src.Reads()) != 0 {
		t.Errorf("Each() read %d frames after cancel", len(src.Reads()))
	}
}
