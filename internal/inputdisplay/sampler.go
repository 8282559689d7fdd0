package inputdisplay

import (
	"context"
	"fmt"

	"github.com/cyclopcam/logs"

	"github.com/ayusman/replayscan/internal/capture"
	"github.com/ayusman/replayscan/internal/detector"
	"github.com/ayusman/replayscan/internal/hud"
)

// Sampler reads input display observations from video frames.
type Sampler struct {
	source     capture.Source
	buttons    detector.Matcher
	directions detector.Matcher
	numbers    detector.NumberRecognizer
	log        logs.Log
}

// NewSampler creates a sampler. numbers may be nil, in which case the
// held-frames counters are left unread.
func NewSampler(source capture.Source, buttons, directions detector.Matcher, numbers detector.NumberRecognizer, log logs.Log) *Sampler {
	return &Sampler{
		source:     source,
		buttons:    buttons,
		directions: directions,
		numbers:    numbers,
		log:        log,
	}
}

// Read builds the observation of both players' displays in a frame.
func (s *Sampler) Read(ctx context.Context, frame *capture.Frame) (*Observation, error) {
	obs := NewObservation(frame.Index)
	for _, p := range hud.Players {
		if err := s.readPlayer(ctx, frame, p, obs); err != nil {
			return nil, err
		}
	}
	return obs, nil
}

func (s *Sampler) readPlayer(ctx context.Context, frame *capture.Frame, p hud.Player, obs *Observation) error {
	matches, err := s.find(frame, hud.InputButtons(p), s.buttons)
	if err != nil {
		return fmt.Errorf("failed to read %s buttons: %w", p, err)
	}
	obs.AddButtons(p, matches)

	matches, err = s.find(frame, hud.InputDirections(p), s.directions)
	if err != nil {
		return fmt.Errorf("failed to read %s directions: %w", p, err)
	}
	if err := obs.AddDirections(p, matches); err != nil {
		return err
	}

	if s.numbers == nil {
		return nil
	}
	region, err := frame.Crop(hud.InputFrames(p))
	if err != nil {
		region.Close()
		return fmt.Errorf("failed to crop %s frame counters: %w", p, err)
	}
	defer region.Close()
	numbers, err := s.numbers.Numbers(ctx, region)
	if err != nil {
		if s.log != nil {
			s.log.Warnf("input display: %s frame counters unreadable at frame %d: %v", p, frame.Index, err)
		}
		return nil
	}
	obs.AddNumbers(p, numbers)
	return nil
}

func (s *Sampler) find(frame *capture.Frame, r hud.Region, m detector.Matcher) ([]detector.Match, error) {
	region, err := frame.Crop(r)
	if err != nil {
		region.Close()
		return nil, err
	}
	defer region.Close()
	return m.Find(region)
}

// Observe reads the observation at frame n.
func (s *Sampler) Observe(ctx context.Context, n int) (*Observation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	frame, err := s.source.Frame(n)
	if err != nil {
		return nil, fmt.Errorf("failed to read input display at frame %d: %w", n, err)
	}
	defer frame.Close()
	return s.Read(ctx, frame)
}

// Subsystem bundles a sampler and a merger for the binary search driver.
type Subsystem struct {
	*Sampler
	*Merger
}
