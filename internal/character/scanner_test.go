package character

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
	"github.com/ayusman/replayscan/internal/hud/hudtest"
)

// scriptedMatcher returns one result per call, then nothing.
type scriptedMatcher struct {
	results [][]detector.Match
	calls   int
}

func (m *scriptedMatcher) Find(img gocv.Mat) ([]detector.Match, error) {
	m.calls++
	if m.calls > len(m.results) {
		return nil, nil
	}
	return m.results[m.calls-1], nil
}

func (m *scriptedMatcher) Close() error { return nil }

func screens(count int) *capture.MockSource {
	return capture.NewMockSource(count, 60, func(int) gocv.Mat { return hudtest.NewScreen() })
}

func TestTemplatePrefix(t *testing.T) {
	assert.Equal(t, "p1_", TemplatePrefix(hud.P1))
	assert.Equal(t, "p2_", TemplatePrefix(hud.P2))
}

func TestPair(t *testing.T) {
	pair := Pair{"Ryu", ""}
	assert.False(t, pair.Complete())
	assert.Equal(t, "Ryu vs ?", pair.String())

	pair[hud.P2] = "A.K.I."
	assert.True(t, pair.Complete())
	assert.Equal(t, "Ryu vs A.K.I.", pair.String())
}

func TestBestMatch(t *testing.T) {
	_, ok := bestMatch(nil)
	assert.False(t, ok)

	best, ok := bestMatch([]detector.Match{
		{Label: "p1_ken", Score: 0.71},
		{Label: "p1_ryu", Score: 0.93},
		{Label: "p1_luke", Score: 0.80},
	})
	require.True(t, ok)
	assert.Equal(t, "p1_ryu", best.Label)
}

func TestScanner_Scan(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	p1 := &scriptedMatcher{results: [][]detector.Match{
		{{Label: "p1_Ryu", Score: 0.9}},
	}}
	p2 := &scriptedMatcher{results: [][]detector.Match{
		nil,
		nil,
		{{Label: "p2_Ken", Score: 0.75}, {Label: "p2_A.K.I.", Score: 0.95}},
	}}
	source := screens(2000)
	scanner := NewScanner(p1, p2, nil)

	pair, err := scanner.Scan(context.Background(), source)
	require.NoError(t, err)
	assert.Equal(t, Pair{"Ryu", "A.K.I."}, pair)
	assert.Equal(t, []int{0, 300, 600}, source.Reads())
	require.NoError(t, scanner.Close())
}

func TestScanner_Scan_NotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	p1 := &scriptedMatcher{results: [][]detector.Match{{{Label: "p1_Ryu", Score: 0.9}}}}
	source := screens(250)
	scanner := NewScanner(p1, detector.NewMockMatcher(), nil)
	scanner.SetInterval(100)

	pair, err := scanner.Scan(context.Background(), source)
	assert.True(t, errors.Is(err, ErrCharacterNotFound), "got %v", err)
	assert.Equal(t, Pair{"Ryu", ""}, pair)
	assert.Equal(t, []int{0, 100, 200}, source.Reads())
}

func TestScanner_Scan_MatcherError(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	broken := detector.NewMockMatcher()
	broken.SetError(errors.New("no templates"))
	scanner := NewScanner(detector.NewMockMatcher(), broken, nil)

	_, err := scanner.Scan(context.Background(), screens(10))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "P2 icon")
}

func TestScanner_Scan_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scanner := NewScanner(detector.NewMockMatcher(), detector.NewMockMatcher(), nil)
	source := capture.NewMockSource(10, 60, nil)
	_, err := scanner.Scan(ctx, source)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, source.Reads())
}
