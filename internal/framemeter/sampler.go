package framemeter

import (
	"context"
	"fmt"

	"github.com/ayusman/replayscan/internal/capture"
	"github.com/ayusman/replayscan/internal/hud"
	"github.com/ayusman/replayscan/internal/likelihood"
	"github.com/ayusman/replayscan/internal/state"
)

// Mode selects how a meter column is read.
type Mode int

const (
	// RegionSampling classifies every pixel of a small patch around the
	// column centre and weighs each class by its priority.
	RegionSampling Mode = iota
	// PointSampling classifies the centre pixel only.
	PointSampling
)

func (m Mode) String() string {
	if m == PointSampling {
		return "point"
	}
	return "region"
}

// MergeThreshold returns the frame distance up to which two samples taken in
// this mode still overlap.
func (m Mode) MergeThreshold() int {
	if m == PointSampling {
		return PointMergeThreshold
	}
	return RegionMergeThreshold
}

// Default patch read around each column centre in region mode.
const (
	DefaultPatchWidth  = 5
	DefaultPatchHeight = 9
)

// Sampler reads frame meter observations from video frames.
type Sampler struct {
	source      capture.Source
	registry    *state.Registry
	palette     *state.Palette
	mode        Mode
	patchWidth  int
	patchHeight int
	clean       CleanOptions
}

// SamplerOption configures a Sampler.
type SamplerOption func(*Sampler)

// WithMode selects region or point sampling.
func WithMode(m Mode) SamplerOption {
	return func(s *Sampler) { s.mode = m }
}

// WithPatch sets the patch size read in region mode.
func WithPatch(width, height int) SamplerOption {
	return func(s *Sampler) {
		if width > 0 && height > 0 {
			s.patchWidth, s.patchHeight = width, height
		}
	}
}

// WithColorDistance overrides the palette matching distance.
func WithColorDistance(distance int) SamplerOption {
	return func(s *Sampler) {
		if distance > 0 {
			s.palette = s.palette.WithThreshold(distance)
		}
	}
}

// WithCleanOptions overrides the per-sample cleanup settings.
func WithCleanOptions(opts CleanOptions) SamplerOption {
	return func(s *Sampler) { s.clean = opts }
}

// NewSampler creates a sampler reading from source.
func NewSampler(source capture.Source, registry *state.Registry, opts ...SamplerOption) *Sampler {
	s := &Sampler{
		source:      source,
		registry:    registry,
		palette:     registry.Palette(),
		mode:        RegionSampling,
		patchWidth:  DefaultPatchWidth,
		patchHeight: DefaultPatchHeight,
		clean:       DefaultCleanOptions(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mode returns the sampling mode.
func (s *Sampler) Mode() Mode { return s.mode }

// Read builds the raw observation of every meter column in a frame.
func (s *Sampler) Read(frame *capture.Frame) *Observation {
	columns := make([]Column, hud.MeterColumns)
	for i := range columns {
		columns[i] = NewColumn(i, s.readCell(frame, hud.P1, i), s.readCell(frame, hud.P2, i))
	}
	return NewObservation(frame.Index, columns)
}

func (s *Sampler) readCell(frame *capture.Frame, p hud.Player, column int) *StateMap {
	center := hud.MeterColumnCenter(p, column)
	if s.mode == PointSampling {
		c, ok := frame.Pixel(center)
		if !ok {
			return likelihood.New[state.State]()
		}
		if st, ok := s.palette.Classify(c); ok {
			return likelihood.Certain(st, 1)
		}
		return likelihood.New[state.State]()
	}

	m := likelihood.Empty[state.State]()
	for _, c := range frame.Colors(hud.Around(center, s.patchWidth, s.patchHeight)) {
		if st, ok := s.palette.Classify(c); ok {
			m.Add(st, int64(s.registry.Priority(st)))
		} else {
			m.AddUnknown(1)
		}
	}
	if m.Total() == 0 {
		m.AddUnknown(1)
	}
	return m
}

// Observe reads and cleans the observation at frame n.
func (s *Sampler) Observe(ctx context.Context, n int) (*Observation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	frame, err := s.source.Frame(n)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame meter at frame %d: %w", n, err)
	}
	defer frame.Close()

	obs := s.Read(frame)
	if err := obs.Clean(s.clean); err != nil {
		return nil, err
	}
	return obs, nil
}

// Subsystem bundles a sampler and a merger for the search drivers.
type Subsystem struct {
	*Sampler
	*Merger
}

// StartsSequence reports whether a sample opens a new meter window.
func (Subsystem) StartsSequence(o *Observation) bool { return o.StartsSequence() }

// Len returns the length of the accumulated sequence.
func (Subsystem) Len(o *Observation) int { return o.Len() }
