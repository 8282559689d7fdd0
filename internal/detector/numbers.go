package detector

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"gocv.io/x/gocv"
)

// Digit grouping distances, in pixels.
const (
	// DuplicateDistance is the horizontal distance under which two digit
	// matches on the same line are the same glyph.
	DuplicateDistance = 10
	// DigitSpacing is the largest horizontal distance between two digits of
	// one number.
	DigitSpacing = 25
	// LineTolerance is the largest vertical distance between digits of one
	// number.
	LineTolerance = 2
)

// GroupDigits assembles single-digit matches into numbers. Matches whose label
// is not a digit are ignored. The input is ordered top to bottom then left to
// right, as Find returns it.
func GroupDigits(matches []Match) []Number {
	var digits []Match
	for _, m := range matches {
		if len(m.Label) == 1 && m.Label[0] >= '0' && m.Label[0] <= '9' {
			digits = append(digits, m)
		}
	}

	var numbers []Number
	var group []Match
	flush := func() {
		if len(group) == 0 {
			return
		}
		sort.SliceStable(group, func(i, j int) bool { return group[i].Point.X < group[j].Point.X })
		var b strings.Builder
		for _, d := range group {
			b.WriteString(d.Label)
		}
		value, err := strconv.Atoi(b.String())
		if err == nil {
			numbers = append(numbers, Number{Value: value, Point: group[0].Point})
		}
		group = nil
	}

	for i, d := range digits {
		if i == 0 {
			group = append(group, d)
			continue
		}
		prev := digits[i-1]
		dx, dy := abs(d.Point.X-prev.Point.X), abs(d.Point.Y-prev.Point.Y)
		switch {
		case dy <= LineTolerance && dx <= DuplicateDistance:
			continue
		case dy <= LineTolerance && dx <= DigitSpacing:
			group = append(group, d)
		default:
			flush()
			group = append(group, d)
		}
	}
	flush()
	return numbers
}

// TemplateNumberRecognizer reads numbers by matching digit templates labelled
// "0" to "9".
type TemplateNumberRecognizer struct {
	matcher Matcher
}

// NewTemplateNumberRecognizer creates a recognizer on top of a digit matcher.
func NewTemplateNumberRecognizer(m Matcher) *TemplateNumberRecognizer {
	return &TemplateNumberRecognizer{matcher: m}
}

// Numbers returns the numbers found in img.
func (r *TemplateNumberRecognizer) Numbers(ctx context.Context, img gocv.Mat) ([]Number, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	matches, err := r.matcher.Find(img)
	if err != nil {
		return nil, err
	}
	return GroupDigits(matches), nil
}

// Recognizers runs several recognizers over the same image and concatenates
// their readings. Every reading is kept; callers weigh them as evidence.
type Recognizers []NumberRecognizer

// Numbers returns the readings of every recognizer, in order.
func (rs Recognizers) Numbers(ctx context.Context, img gocv.Mat) ([]Number, error) {
	var out []Number
	for _, r := range rs {
		numbers, err := r.Numbers(ctx, img)
		if err != nil {
			return nil, err
		}
		out = append(out, numbers...)
	}
	return out, nil
}
