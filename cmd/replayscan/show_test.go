package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/replayscan/internal/store"
)

func TestPrintResults(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printResults(&buf, &store.Results{}))
	assert.Empty(t, buf.String())

	res := &store.Results{
		Timeline: []store.Slot{{Index: 0, States: [2]string{"STARTUP", "NOTHING"}}},
		Rounds:   []store.RoundEvent{{Frame: 30, From: "UNKNOWN", To: "IN_PROGRESS"}},
	}
	require.NoError(t, printResults(&buf, res))
	out := buf.String()
	assert.Contains(t, out, "Timeline")
	assert.Contains(t, out, "Rounds")
	assert.NotContains(t, out, "Moves")
	assert.NotContains(t, out, "Inputs")
}

func TestFindRun(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, st.Runs().Create(&store.Run{ID: "abcdef12-0000", Video: "a.mp4"}))
	require.NoError(t, st.Runs().Create(&store.Run{ID: "abcdff34-0000", Video: "b.mp4"}))

	run, err := findRun(st, "abcdef")
	require.NoError(t, err)
	assert.Equal(t, "a.mp4", run.Video)

	_, err = findRun(st, "abcd")
	assert.ErrorContains(t, err, "no single run")
}

func TestOrUnknown(t *testing.T) {
	assert.Equal(t, "?", orUnknown(""))
	assert.Equal(t, "Ryu", orUnknown("Ryu"))
}
