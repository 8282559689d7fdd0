package round

import (
	"math"
	"testing"

	"gocv.io/x/gocv"

	"github.com/ayusman/replayscan/internal/capture"
	"github.com/ayusman/replayscan/internal/hud"
	"github.com/ayusman/replayscan/internal/hud/hudtest"
)

func TestReadLife(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	mat := hudtest.NewScreen()
	hudtest.PaintLife(mat, hud.P1, 50)
	hudtest.PaintLife(mat, hud.P2, 100)
	frame := capture.NewFrame(0, mat)
	defer frame.Close()

	tests := []struct {
		player hud.Player
		want   float64
	}{
		{player: hud.P1, want: 50},
		{player: hud.P2, want: 100},
	}
	for _, tt := range tests {
		t.Run(tt.player.String(), func(t *testing.T) {
			got, err := ReadLife(frame, tt.player)
			if err != nil {
				t.Fatalf("ReadLife() error = %v", err)
			}
			if math.Abs(float64(got)-tt.want) > 0.5 {
				t.Errorf("ReadLife() = %.2f, want %.2f", got, tt.want)
			}
		})
	}
}

func TestReadLife_Empty(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frame := capture.NewFrame(0, hudtest.NewScreen())
	defer frame.Close()

	got, err := ReadLife(frame, hud.P1)
	if err != nil {
		t.Fatalf("ReadLife() error = %v", err)
	}
	if !got.KO() {
		t.Errorf("ReadLife() = %.2f, expected a knock out", got)
	}
}

func TestReadWins(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	mat := hudtest.NewScreen()
	hudtest.PaintWins(mat, hud.P1, 1, MarkersPerPlayer)
	frame := capture.NewFrame(0, mat)
	defer frame.Close()

	if got, err := ReadWins(frame, hud.P1); err != nil || got != 1 {
		t.Errorf("ReadWins(P1) = %d, %v, want 1", got, err)
	}
	if got, err := ReadWins(frame, hud.P2); err != nil || got != 0 {
		t.Errorf("ReadWins(P2) = %d, %v, want 0", got, err)
	}
}

func TestReadWins_OutsideFrame(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frame := capture.NewFrame(0, gocv.NewMatWithSize(100, 100, gocv.MatTypeCV8UC3))
	defer frame.Close()

	if _, err := ReadWins(frame, hud.P1); err == nil {
		t.Error("ReadWins() expected an error for a frame smaller than the HUD")
	}
}
