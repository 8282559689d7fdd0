package framemeter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/replayscan/internal/hud"
	"github.com/ayusman/replayscan/internal/state"
)

func sequence(p1 ...state.State) *Observation {
	columns := make([]Column, len(p1))
	for i, s := range p1 {
		columns[i] = NewResolvedColumn(i, s, recovery)
	}
	return NewObservation(0, columns)
}

func TestFinalize_SparseInvulnerability(t *testing.T) {
	timeline := Finalize(sequence(recovery, recovery, fullInv, recovery, recovery), DefaultFinalizeOptions())
	assert.Equal(t,
		[]state.State{recovery, recovery, recovery, recovery, recovery},
		timeline.States(hud.P1))
}

func TestFinalize_LongInvulnerabilityKept(t *testing.T) {
	timeline := Finalize(sequence(startup, fullInv, fullInv, fullInv, fullInv, recovery), DefaultFinalizeOptions())
	assert.Equal(t,
		[]state.State{startup, fullInv, fullInv, fullInv, fullInv, recovery},
		timeline.States(hud.P1))
}

func TestFinalize_GapFilling(t *testing.T) {
	u := unknown
	tests := []struct {
		name string
		in   []state.State
		want []state.State
	}{
		{
			name: "active continues through the gap",
			in:   []state.State{active, u, u, u, u, recovery},
			want: []state.State{active, active, active, active, active, recovery},
		},
		{
			name: "short gap takes the preceding state",
			in:   []state.State{recovery, u, u, jump},
			want: []state.State{recovery, recovery, recovery, jump},
		},
		{
			name: "three frames bridge one at each end",
			in:   []state.State{recovery, u, u, u, jump},
			want: []state.State{recovery, recovery, nothing, jump, jump},
		},
		{
			name: "eight frames bridge two at each end",
			in:   []state.State{recovery, u, u, u, u, u, u, u, u, jump},
			want: []state.State{recovery, recovery, recovery, nothing, nothing, nothing, nothing, jump, jump, jump},
		},
		{
			name: "leading gap takes the following state",
			in:   []state.State{u, u, jump},
			want: []state.State{jump, jump, jump},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timeline := Finalize(sequence(tt.in...), DefaultFinalizeOptions())
			assert.Equal(t, tt.want, timeline.States(hud.P1))
		})
	}
}

func TestFinalize_LongGapBridgesThree(t *testing.T) {
	in := []state.State{recovery}
	for i := 0; i < 97; i++ {
		in = append(in, unknown)
	}
	in = append(in, jump)

	seq := NewObservation(0, nil)
	for i, s := range in {
		if i > 0 && i%hud.MeterColumns == 0 {
			seq.Columns = append(seq.Columns, EndOfWindowColumn())
		}
		seq.Columns = append(seq.Columns, NewResolvedColumn(i%hud.MeterColumns, s, recovery))
	}

	got := Finalize(seq, DefaultFinalizeOptions()).States(hud.P1)
	require.Len(t, got, len(in))
	assert.Equal(t, []state.State{recovery, recovery, recovery, recovery, nothing}, got[:5])
	assert.Equal(t, []state.State{nothing, jump, jump, jump, jump}, got[len(got)-5:])
}

func TestFinalize_DropsSentinelsAndGhosts(t *testing.T) {
	seq := NewObservation(0, []Column{
		NewResolvedColumn(78, active, active),
		NewResolvedColumn(79, active.ToPast(), nothing),
		EndOfWindowColumn(),
		NewResolvedColumn(0, recovery, recovery),
	})
	timeline := Finalize(seq, DefaultFinalizeOptions())

	require.Equal(t, 3, timeline.Len())
	assert.Equal(t, Slot{Window: 0, Position: 78, States: [2]state.State{active, active}}, timeline.Slots[0])
	// The ghost column is gone; active cannot stop without another state.
	assert.Equal(t, active, timeline.Slots[1].States[hud.P1])
	assert.Equal(t, 79, timeline.Slots[1].Position)
	assert.Equal(t, Slot{Window: 1, Position: 0, States: [2]state.State{recovery, recovery}}, timeline.Slots[2])
	assert.Equal(t, hud.MeterColumns, timeline.Slots[2].Index())
}

func TestFinalize_DedupePrefersInformativeColumn(t *testing.T) {
	seq := NewObservation(0, []Column{
		NewResolvedColumn(0, startup, startup),
		NewResolvedColumn(1, nothing, unknown),
		NewResolvedColumn(2, recovery, recovery),
		NewResolvedColumn(1, active, active),
		NewResolvedColumn(2, jump, jump),
	})
	timeline := Finalize(seq, DefaultFinalizeOptions())

	require.Equal(t, 3, timeline.Len())
	assert.Equal(t, []state.State{startup, active, recovery}, timeline.States(hud.P1))
}

func TestFinalize_NonFinalStatesBecomeUnknown(t *testing.T) {
	digits := state.Of(state.NumberOfFrames2)
	timeline := Finalize(sequence(recovery, digits, jump), DefaultFinalizeOptions())
	assert.Equal(t, []state.State{recovery, recovery, jump}, timeline.States(hud.P1))
}

func TestFinalize_Empty(t *testing.T) {
	assert.Zero(t, Finalize(nil, DefaultFinalizeOptions()).Len())
	assert.Zero(t, Finalize(NewObservation(0, []Column{EndOfWindowColumn()}), DefaultFinalizeOptions()).Len())
}

func TestTimeline_Types(t *testing.T) {
	timeline := &Timeline{Slots: []Slot{
		{States: [2]state.State{active, unknown}},
		{States: [2]state.State{recovery, hitStuck}},
	}}
	assert.Equal(t, []state.Type{state.Active, state.Recovery}, timeline.Types(hud.P1))
	assert.Equal(t, []state.Type{state.Nothing, state.HitStuck}, timeline.Types(hud.P2))
}
