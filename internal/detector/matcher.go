package detector

import (
	"fmt"
	"sort"

	"gocv.io/x/gocv"

	"github.com/ayusman/replayscan/internal/hud"
)

// TemplateMatcher finds templates by normalized cross-correlation.
type TemplateMatcher struct {
	templates []*Template
	threshold float32
}

// NewTemplateMatcher creates a matcher over templates. The matcher takes
// ownership of the templates.
func NewTemplateMatcher(templates []*Template, threshold float64) *TemplateMatcher {
	return &TemplateMatcher{templates: templates, threshold: float32(threshold)}
}

// Labels returns the labels the matcher looks for.
func (m *TemplateMatcher) Labels() []string {
	labels := make([]string, len(m.templates))
	for i, t := range m.templates {
		labels[i] = t.Label
	}
	return labels
}

// Find searches img for every template.
//
// Algorithm:
// 1. Correlate each template over the image (TM_CCOEFF_NORMED)
// 2. Keep positions scoring at least the threshold
// 3. Per template, drop positions overlapping a stronger one
// 4. Sort the survivors top to bottom, then left to right
func (m *TemplateMatcher) Find(img gocv.Mat) ([]Match, error) {
	if img.Empty() {
		return nil, fmt.Errorf("cannot search an empty image")
	}

	var matches []Match
	for _, t := range m.templates {
		w, h := t.Size()
		if w > img.Cols() || h > img.Rows() {
			continue
		}
		if t.Mat.Channels() != img.Channels() {
			return nil, fmt.Errorf("template %s has %d channels, image has %d", t.Label, t.Mat.Channels(), img.Channels())
		}
		matches = append(matches, m.findTemplate(img, t)...)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Point.Y != matches[j].Point.Y {
			return matches[i].Point.Y < matches[j].Point.Y
		}
		return matches[i].Point.X < matches[j].Point.X
	})
	return matches, nil
}

func (m *TemplateMatcher) findTemplate(img gocv.Mat, t *Template) []Match {
	result := gocv.NewMat()
	defer result.Close()
	mask := gocv.NewMat()
	defer mask.Close()
	gocv.MatchTemplate(img, t.Mat, &result, gocv.TmCcoeffNormed, mask)

	var candidates []Match
	for y := 0; y < result.Rows(); y++ {
		for x := 0; x < result.Cols(); x++ {
			score := result.GetFloatAt(y, x)
			if score >= m.threshold {
				candidates = append(candidates, Match{Label: t.Label, Point: hud.Point{X: x, Y: y}, Score: float64(score)})
			}
		}
	}
	return suppress(candidates, t)
}

// suppress keeps the strongest of overlapping candidates of one template.
func suppress(candidates []Match, t *Template) []Match {
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })
	w, h := t.Size()

	var kept []Match
	for _, c := range candidates {
		overlaps := false
		for _, k := range kept {
			if abs(c.Point.X-k.Point.X) < w && abs(c.Point.Y-k.Point.Y) < h {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, c)
		}
	}
	return kept
}

// Close releases the templates.
func (m *TemplateMatcher) Close() error {
	CloseTemplates(m.templates)
	m.templates = nil
	return nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
