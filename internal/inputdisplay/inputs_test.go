package inputdisplay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDirection(t *testing.T) {
	tests := []struct {
		label string
		want  Direction
		ok    bool
	}{
		{"2Direction", 2, true},
		{"9Direction", 9, true},
		{"5", 5, true},
		{" 4 ", 4, true},
		{"0Direction", 0, false},
		{"10", 0, false},
		{"LightKick", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, ok := ParseDirection(tt.label)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseButton(t *testing.T) {
	b, ok := ParseButton("MediumKick")
	require.True(t, ok)
	assert.Equal(t, MediumKick, b)

	_, ok = ParseButton("2Direction")
	assert.False(t, ok)
}

func TestButtonFromNotation(t *testing.T) {
	b, err := ButtonFromNotation("LK")
	require.NoError(t, err)
	assert.Equal(t, LightKick, b)

	_, err = ButtonFromNotation("zz")
	assert.Error(t, err)
}

func TestButtonSet(t *testing.T) {
	s := Buttons(MediumKick, LightPunch)
	assert.True(t, s.Has(LightPunch))
	assert.False(t, s.Has(HeavyKick))
	assert.Equal(t, "lp+mk", s.String())
	assert.Equal(t, "-", ButtonSet(0).String())
	assert.True(t, ButtonSet(0).Empty())
}

func TestRow(t *testing.T) {
	assert.True(t, Row{Frames: 4}.IsEmpty())
	assert.False(t, Row{Direction: 5}.IsEmpty())
	assert.False(t, Row{Buttons: Buttons(HeavyPunch)}.IsEmpty())
	assert.Equal(t, "2 lp+mk 3", Row{Direction: 2, Buttons: Buttons(LightPunch, MediumKick), Frames: 3}.String())
	assert.Equal(t, "- hp ?", Row{Buttons: Buttons(HeavyPunch)}.String())
}
