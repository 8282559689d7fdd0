// Package search decides which frames of a replay are sampled and assembles
// the samples of one HUD subsystem into a single history.
//
// Two traversal strategies exist. Binary samples the first and last frames,
// then midpoints of ranges whose neighbouring samples could not be merged.
// Sequential samples every Gap frames and grows one accumulator. Both are
// generic over the subsystem's sample type O and merged fragment type F.
package search

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/cyclopcam/logs"
)

const (
	// DefaultWindow is the range span below which Binary stops subdividing.
	DefaultWindow = 60
	// DefaultGap is the distance between Sequential samples.
	DefaultGap = 20
	// TailMargin keeps the drivers away from the last frames of a video,
	// which decoders often fail to return.
	TailMargin = 5
)

// ErrTooShort is returned when a video has no frames left to sample after the
// tail margin.
var ErrTooShort = errors.New("video too short to sample")

// Observer reads one sample at a frame.
type Observer[O any] interface {
	Observe(ctx context.Context, frame int) (O, error)
}

// PairMerger merges samples pairwise, as Binary needs.
type PairMerger[O, F any] interface {
	Observer[O]
	// Merge combines two samples taken at frameA < frameB, or reports false
	// when they do not overlap.
	Merge(a O, frameA int, b O, frameB int) (F, bool)
	// Join combines two fragments in frame order.
	Join(a, b F) F
	// Lift turns a sample nobody merged with into a fragment.
	Lift(o O) F
}

// TailMerger grows an accumulator sample by sample, as Sequential needs.
type TailMerger[O, F any] interface {
	Observer[O]
	Extend(acc F, next O, sinceChange int, newSeq bool) F
	StartsSequence(o O) bool
	Len(acc F) int
}

type frameRange struct {
	start, end int
}

type framePair struct {
	first, second int
}

// Binary samples a video by subdivision.
type Binary[O, F any] struct {
	Subsystem PairMerger[O, F]
	// Window is the smallest range span that is still split when one of its
	// midpoint merges fails.
	Window int
	Log    logs.Log

	samples   map[int]O
	visited   []int
	fragments map[framePair]F
	merged    map[int]bool
}

// NewBinary returns a binary driver with the default window.
func NewBinary[O, F any](sub PairMerger[O, F], log logs.Log) *Binary[O, F] {
	return &Binary[O, F]{Subsystem: sub, Window: DefaultWindow, Log: log}
}

// Visited returns the sampled frames of the last run, in increasing order.
func (b *Binary[O, F]) Visited() []int {
	out := make([]int, len(b.visited))
	copy(out, b.visited)
	return out
}

// Run samples frames [0, final) and returns the joined history.
//
// Ranges are processed from an explicit stack so that the left half of a
// range is finished before its right half, exactly like the recursive form.
func (b *Binary[O, F]) Run(ctx context.Context, final int) (F, error) {
	var zero F
	if final <= TailMargin {
		return zero, fmt.Errorf("%w: %d frames", ErrTooShort, final)
	}
	b.samples = make(map[int]O)
	b.visited = nil
	b.fragments = make(map[framePair]F)
	b.merged = make(map[int]bool)

	if err := b.observe(ctx, 0); err != nil {
		return zero, err
	}
	if err := b.observe(ctx, final-TailMargin); err != nil {
		return zero, err
	}

	stack := []frameRange{{0, final - 1}}
	for len(stack) > 0 {
		r := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		mid := (r.start + r.end) / 2
		if err := b.observe(ctx, mid); err != nil {
			return zero, err
		}
		i := sort.SearchInts(b.visited, mid)
		left := b.merge(i-1, i)
		right := b.merge(i, i+1)

		if r.end-r.start < b.Window {
			continue
		}
		if !right {
			stack = append(stack, frameRange{mid + 1, r.end})
		}
		if !left {
			stack = append(stack, frameRange{r.start, mid - 1})
		}
	}

	b.debugf("binary search sampled %d frames into %d fragments", len(b.visited), len(b.fragments))
	return b.join(), nil
}

func (b *Binary[O, F]) debugf(format string, args ...interface{}) {
	if b.Log != nil {
		b.Log.Debugf(format, args...)
	}
}

func (b *Binary[O, F]) observe(ctx context.Context, frame int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := b.samples[frame]; ok {
		return nil
	}
	o, err := b.Subsystem.Observe(ctx, frame)
	if err != nil {
		return fmt.Errorf("failed to sample frame %d: %w", frame, err)
	}
	b.samples[frame] = o

	i := sort.SearchInts(b.visited, frame)
	b.visited = append(b.visited, 0)
	copy(b.visited[i+1:], b.visited[i:])
	b.visited[i] = frame
	return nil
}

// merge merges the samples at two indexes of the visited list. A missing
// neighbour counts as a failed merge.
func (b *Binary[O, F]) merge(i, j int) bool {
	if i < 0 || j >= len(b.visited) {
		return false
	}
	key := framePair{b.visited[i], b.visited[j]}
	if _, ok := b.fragments[key]; ok {
		return true
	}
	f, ok := b.Subsystem.Merge(b.samples[key.first], key.first, b.samples[key.second], key.second)
	if !ok {
		b.debugf("no merge between frames %d and %d", key.first, key.second)
		return false
	}
	b.fragments[key] = f
	b.merged[key.first] = true
	b.merged[key.second] = true
	return true
}

func (b *Binary[O, F]) join() F {
	for _, frame := range b.visited {
		if !b.merged[frame] {
			b.fragments[framePair{frame, frame}] = b.Subsystem.Lift(b.samples[frame])
		}
	}

	keys := make([]framePair, 0, len(b.fragments))
	for k := range b.fragments {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].first != keys[j].first {
			return keys[i].first < keys[j].first
		}
		return keys[i].second < keys[j].second
	})

	var acc F
	for i, k := range keys {
		if i == 0 {
			acc = b.fragments[k]
			continue
		}
		acc = b.Subsystem.Join(acc, b.fragments[k])
	}
	return acc
}

// Sequential samples a video at a fixed gap.
type Sequential[O, F any] struct {
	Subsystem TailMerger[O, F]
	Gap       int
	// OnStep, when set, runs after every sample with the sampled frame and
	// the accumulator.
	OnStep func(frame int, acc F)
	Log    logs.Log
}

// NewSequential returns a sequential driver with the default gap.
func NewSequential[O, F any](sub TailMerger[O, F], log logs.Log) *Sequential[O, F] {
	return &Sequential[O, F]{Subsystem: sub, Gap: DefaultGap, Log: log}
}

// Frames returns the frames a run over [0, final) samples.
func (s *Sequential[O, F]) Frames(final int) []int {
	gap := s.Gap
	if gap <= 0 {
		gap = DefaultGap
	}
	n := (final - TailMargin) / gap
	frames := make([]int, 0, max(n, 0))
	for i := 0; i < n; i++ {
		frames = append(frames, gap*i)
	}
	return frames
}

// Run samples frames [0, final) and returns the accumulator.
func (s *Sequential[O, F]) Run(ctx context.Context, final int) (F, error) {
	var acc F
	frames := s.Frames(final)
	if len(frames) == 0 {
		return acc, fmt.Errorf("%w: %d frames", ErrTooShort, final)
	}

	lastChanged := 0
	for _, frame := range frames {
		if err := ctx.Err(); err != nil {
			return acc, err
		}
		next, err := s.Subsystem.Observe(ctx, frame)
		if err != nil {
			return acc, fmt.Errorf("failed to sample frame %d: %w", frame, err)
		}

		before := s.Subsystem.Len(acc)
		acc = s.Subsystem.Extend(acc, next, frame-lastChanged, s.Subsystem.StartsSequence(next))
		if s.OnStep != nil {
			s.OnStep(frame, acc)
		}
		if s.Subsystem.Len(acc) != before {
			lastChanged = frame
		}
	}

	if s.Log != nil {
		s.Log.Debugf("sequential search sampled %d frames", len(frames))
	}
	return acc, nil
}
