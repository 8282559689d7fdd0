package inputdisplay

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadExpectedCSV(t *testing.T) {
	data := `Directions,Buttons,Frames
5,,12
2,"lp,mk",3
,FINISH_ROUND,
3,HK,?
6,lp+hp,1
`
	rows, err := ReadExpectedCSV(strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, []Row{
		{Direction: 5, Frames: 12},
		{Direction: 2, Buttons: Buttons(LightPunch, MediumKick), Frames: 3},
		{Direction: 3, Buttons: Buttons(HeavyKick)},
		{Direction: 6, Buttons: Buttons(LightPunch, HeavyPunch), Frames: 1},
	}, rows)
}

func TestReadExpectedCSV_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"missing column", "Directions,Buttons\n5,lp\n"},
		{"bad direction", "Directions,Buttons,Frames\n0,lp,1\n"},
		{"bad button", "Directions,Buttons,Frames\n5,zz,1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadExpectedCSV(strings.NewReader(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestSimilarityRatio(t *testing.T) {
	assert.Equal(t, 1.0, SimilarityRatio(nil, nil))
	assert.Equal(t, 1.0, SimilarityRatio(inputs(0, 5), inputs(0, 5)))

	got := inputs(0, 1)
	got[1].Direction = 9
	assert.InDelta(t, 0.5, SimilarityRatio(inputs(0, 1), got), 1e-9)

	// Held frames are not compared.
	got = inputs(0, 1)
	got[1].Frames = 0
	assert.Equal(t, 1.0, SimilarityRatio(inputs(0, 1), got))
}
