package inputdisplay

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/ayusman/replayscan/internal/capture"
	"github.com/ayusman/replayscan/internal/detector"
	"github.com/ayusman/replayscan/internal/hud"
	"github.com/ayusman/replayscan/internal/search"
)

func blankSource(frames int) *capture.MockSource {
	return capture.NewMockSource(frames, 60, func(int) gocv.Mat {
		return gocv.NewMatWithSize(hud.ScreenHeight, hud.ScreenWidth, gocv.MatTypeCV8UC3)
	})
}

func TestSampler_Observe(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping gocv test in short mode")
	}

	buttons := detector.NewMockMatcher()
	buttons.SetMatches([]detector.Match{at("LightPunch", 40), at("HeavyKick", 41)})
	directions := detector.NewMockMatcher()
	directions.SetMatches([]detector.Match{at("3Direction", 40)})
	numbers := &detector.MockNumberRecognizer{Result: []detector.Number{{Value: 12, Point: hud.Point{Y: 40}}}}

	s := NewSampler(blankSource(10), buttons, directions, numbers, nil)
	obs, err := s.Observe(context.Background(), 4)
	require.NoError(t, err)

	assert.Equal(t, 4, obs.Frame)
	want := Row{Direction: 3, Buttons: Buttons(LightPunch, HeavyKick), Frames: 12}
	for _, p := range hud.Players {
		assert.Equal(t, want, obs.Rows(p)[1], "%s row 2", p)
		assert.True(t, obs.Rows(p)[0].IsEmpty())
	}
	assert.Equal(t, 2, buttons.Calls())
	assert.Equal(t, 2, directions.Calls())
}

func TestSampler_Observe_Errors(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping gocv test in short mode")
	}

	t.Run("matcher failure", func(t *testing.T) {
		buttons := detector.NewMockMatcher()
		buttons.SetError(errors.New("boom"))
		s := NewSampler(blankSource(10), buttons, detector.NewMockMatcher(), nil, nil)
		_, err := s.Observe(context.Background(), 0)
		assert.ErrorContains(t, err, "boom")
	})

	t.Run("ambiguous direction", func(t *testing.T) {
		directions := detector.NewMockMatcher()
		directions.SetMatches([]detector.Match{at("2Direction", 40), at("8Direction", 44)})
		s := NewSampler(blankSource(10), detector.NewMockMatcher(), directions, nil, nil)
		_, err := s.Observe(context.Background(), 0)
		assert.ErrorIs(t, err, ErrAmbiguousDirection)
	})

	t.Run("unreadable counters are skipped", func(t *testing.T) {
		numbers := &detector.MockNumberRecognizer{Err: errors.New("ocr down")}
		s := NewSampler(blankSource(10), detector.NewMockMatcher(), detector.NewMockMatcher(), numbers, nil)
		obs, err := s.Observe(context.Background(), 0)
		require.NoError(t, err)
		assert.Equal(t, 0, obs.Rows(hud.P1)[1].Frames)
	})

	t.Run("frame out of range", func(t *testing.T) {
		s := NewSampler(blankSource(10), detector.NewMockMatcher(), detector.NewMockMatcher(), nil, nil)
		_, err := s.Observe(context.Background(), 10)
		assert.ErrorIs(t, err, capture.ErrFrameOutOfRange)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		s := NewSampler(blankSource(10), detector.NewMockMatcher(), detector.NewMockMatcher(), nil, nil)
		_, err := s.Observe(ctx, 0)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestSubsystem_BinarySearch(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping gocv test in short mode")
	}

	// Every sample shows the same display, so all of them align.
	directions := detector.NewMockMatcher()
	directions.SetMatches([]detector.Match{at("6Direction", 40), at("2Direction", 80)})
	sub := Subsystem{
		Sampler: NewSampler(blankSource(300), detector.NewMockMatcher(), directions, nil, nil),
		Merger:  NewMerger(nil),
	}

	var driver search.PairMerger[*Observation, *History] = sub
	h, err := search.NewBinary(driver, nil).Run(context.Background(), 300)
	require.NoError(t, err)
	assert.Equal(t, []Row{{Direction: 2}, {Direction: 6}}, h.Inputs(hud.P1))
}
