package framemeter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/replayscan/internal/hud"
	"github.com/ayusman/replayscan/internal/state"
)

func TestReadExpectedCSV(t *testing.T) {
	in := strings.Join([]string{
		"P1-State,P1-Number,P2-State,P2-Number",
		"Startup,4,Nothing,3",
		"active,2,Jump,78",
		"Recovery,76,Full Invulnerability,1",
		"Unreadable,9,Unreadable,9",
	}, "\n")

	timeline, err := ReadExpectedCSV(strings.NewReader(in), state.NewRegistry())
	require.NoError(t, err)
	require.Equal(t, 82, timeline.Len())

	p1 := timeline.States(hud.P1)
	assert.Equal(t, []state.State{startup, startup, startup, startup, active, active, recovery}, p1[:7])
	assert.Equal(t, recovery, p1[81])

	p2 := timeline.States(hud.P2)
	assert.Equal(t, []state.State{nothing, nothing, nothing, jump}, p2[:4])
	assert.Equal(t, fullInv, p2[81])

	last := timeline.Slots[81]
	assert.Equal(t, 1, last.Window)
	assert.Equal(t, 1, last.Position)
}

func TestReadExpectedCSV_UnevenPlayers(t *testing.T) {
	in := "P1-State,P1-Number,P2-State,P2-Number\nRecovery,3,Startup,1\n"

	timeline, err := ReadExpectedCSV(strings.NewReader(in), state.NewRegistry())
	require.NoError(t, err)
	require.Equal(t, 3, timeline.Len())
	assert.Equal(t, []state.State{startup, nothing, nothing}, timeline.States(hud.P2))
}

func TestReadExpectedCSV_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"missing column", "P1-State,P1-Number,P2-State\nRecovery,3,Startup\n"},
		{"bad count", "P1-State,P1-Number,P2-State,P2-Number\nRecovery,three,Startup,1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadExpectedCSV(strings.NewReader(tt.in), state.NewRegistry())
			assert.Error(t, err)
		})
	}
}
