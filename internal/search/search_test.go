package search

import (
	"context"
	"errors"
	"testing"

	"github.com/cyclopcam/logs"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chain is a fragment made of the sample frames it covers.
type chain []int

// pairs merges samples that are at most reach frames apart.
type pairs struct {
	reach    int
	observed []int
	lifted   int
	fail     map[int]bool
}

func (p *pairs) Observe(_ context.Context, frame int) (int, error) {
	if p.fail[frame] {
		return 0, errors.New("decoder error")
	}
	p.observed = append(p.observed, frame)
	return frame, nil
}

func (p *pairs) Merge(a int, frameA int, b int, frameB int) (chain, bool) {
	if frameB-frameA > p.reach {
		return nil, false
	}
	return chain{a, b}, true
}

func (p *pairs) Join(a, b chain) chain {
	out := append(chain{}, a...)
	if len(out) > 0 && len(b) > 0 && out[len(out)-1] == b[0] {
		b = b[1:]
	}
	return append(out, b...)
}

func (p *pairs) Lift(o int) chain {
	p.lifted++
	return chain{o}
}

func TestBinary_VisitingOrder(t *testing.T) {
	sub := &pairs{reach: 40}
	b := NewBinary[int, chain](sub, logs.NewTestingLog(t))

	got, err := b.Run(context.Background(), 205)
	require.NoError(t, err)

	if diff := cmp.Diff([]int{0, 200, 102, 50, 24, 76, 153, 127, 179}, sub.observed); diff != "" {
		t.Errorf("visiting order mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, chain{0, 24, 50, 76, 102, 127, 153, 179, 200}, got)
	assert.Equal(t, []int{0, 24, 50, 76, 102, 127, 153, 179, 200}, b.Visited())
	assert.Zero(t, sub.lifted)
}

func TestBinary_UnmergedSamplesAreLifted(t *testing.T) {
	sub := &pairs{reach: 0}
	b := NewBinary[int, chain](sub, nil)

	got, err := b.Run(context.Background(), 205)
	require.NoError(t, err)

	assert.Equal(t, chain{0, 24, 50, 76, 102, 127, 153, 179, 200}, got)
	assert.Equal(t, 9, sub.lifted)
}

func TestBinary_SmallWindowSubdividesFurther(t *testing.T) {
	sub := &pairs{reach: 0}
	b := NewBinary[int, chain](sub, nil)
	b.Window = 20

	_, err := b.Run(context.Background(), 205)
	require.NoError(t, err)
	assert.Greater(t, len(b.Visited()), 9)
	for i := 1; i < len(b.Visited()); i++ {
		assert.Less(t, b.Visited()[i-1], b.Visited()[i])
	}
}

func TestBinary_Errors(t *testing.T) {
	t.Run("too short", func(t *testing.T) {
		_, err := NewBinary[int, chain](&pairs{}, nil).Run(context.Background(), 5)
		assert.ErrorIs(t, err, ErrTooShort)
	})

	t.Run("sample failure", func(t *testing.T) {
		sub := &pairs{reach: 40, fail: map[int]bool{102: true}}
		_, err := NewBinary[int, chain](sub, nil).Run(context.Background(), 205)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "frame 102")
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		sub := &pairs{reach: 40}
		_, err := NewBinary[int, chain](sub, nil).Run(ctx, 205)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, sub.observed)
	})
}

// tail grows when a sample lands on a multiple of 40.
type tail struct {
	since  []int
	newSeq []bool
}

func (t *tail) Observe(_ context.Context, frame int) (int, error) { return frame, nil }

func (t *tail) Extend(acc []int, next int, sinceChange int, newSeq bool) []int {
	t.since = append(t.since, sinceChange)
	t.newSeq = append(t.newSeq, newSeq)
	if next%40 != 0 {
		return acc
	}
	return append(acc, next)
}

func (t *tail) StartsSequence(o int) bool { return o == 0 }

func (t *tail) Len(acc []int) int { return len(acc) }

func TestSequential_Run(t *testing.T) {
	sub := &tail{}
	s := NewSequential[int, []int](sub, logs.NewTestingLog(t))

	var steps []int
	s.OnStep = func(frame int, acc []int) { steps = append(steps, frame) }

	got, err := s.Run(context.Background(), 105)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 40, 80}, got)
	assert.Equal(t, []int{0, 20, 40, 60, 80}, steps)
	assert.Equal(t, []int{0, 20, 40, 20, 40}, sub.since)
	assert.Equal(t, []bool{true, false, false, false, false}, sub.newSeq)
}

func TestSequential_Frames(t *testing.T) {
	s := &Sequential[int, []int]{Gap: 20}
	assert.Equal(t, []int{0, 20, 40, 60, 80}, s.Frames(106))
	assert.Equal(t, []int{0, 20, 40, 60}, s.Frames(104))
	assert.Empty(t, s.Frames(20))
}

func TestSequential_Errors(t *testing.T) {
	_, err := NewSequential[int, []int](&tail{}, nil).Run(context.Background(), 10)
	assert.ErrorIs(t, err, ErrTooShort)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewSequential[int, []int](&tail{}, nil).Run(ctx, 200)
	assert.ErrorIs(t, err, context.Canceled)
}
