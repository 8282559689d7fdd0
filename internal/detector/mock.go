package detector

import (
	"context"

	"gocv.io/x/gocv"
)

// MockMatcher is a test implementation of the Matcher interface.
// It allows tests to control the matches.
type MockMatcher struct {
	matches []Match
	err     error
	calls   int
}

// NewMockMatcher creates a new MockMatcher instance.
func NewMockMatcher() *MockMatcher {
	return &MockMatcher{}
}

// SetMatches sets the matches that will be returned by Find.
func (m *MockMatcher) SetMatches(matches []Match) {
	m.matches = matches
}

// SetError sets the error that will be returned by Find.
func (m *MockMatcher) SetError(err error) {
	m.err = err
}

// Calls returns how many times Find ran.
func (m *MockMatcher) Calls() int {
	return m.calls
}

// Find returns the pre-configured matches or error.
func (m *MockMatcher) Find(img gocv.Mat) ([]Match, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.matches, nil
}

// Close is a no-op for the mock matcher.
func (m *MockMatcher) Close() error {
	return nil
}

// MockNumberRecognizer returns preset numbers.
type MockNumberRecognizer struct {
	Result []Number
	Err    error
}

// Numbers returns the preset numbers or error.
func (m *MockNumberRecognizer) Numbers(ctx context.Context, img gocv.Mat) ([]Number, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Result, nil
}
