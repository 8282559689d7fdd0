// Package likelihood accumulates weighted, possibly contradictory readings of
// the same value.
//
// A Map holds an integer weight per hypothesis plus an "unknown" bucket for
// readings that could not be classified. Merging two maps multiplies their
// weights, treating both as independent evidence about the same slot.
package likelihood

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

const (
	// Merge results heavier than rescaleAbove are scaled down to roughly
	// rescaleTarget so repeated merges cannot overflow int64.
	rescaleAbove  = 1 << 40
	rescaleTarget = 1 << 20
)

// Map is a weighted-observation accumulator over values of type T.
//
// Invariant: Total() == sum of all value weights + Unknown().
type Map[T comparable] struct {
	keys    []T
	weights map[T]int64
	unknown int64
	total   int64
}

// Empty returns a map without any observation.
func Empty[T comparable]() *Map[T] {
	return &Map[T]{weights: make(map[T]int64)}
}

// New returns a map holding a single unknown observation, so that a slot
// nobody looked at yet is "could be anything" rather than "nothing".
func New[T comparable]() *Map[T] {
	m := Empty[T]()
	m.AddUnknown(1)
	return m
}

// Certain returns a map that observed v with weight w and nothing else.
func Certain[T comparable](v T, w int64) *Map[T] {
	m := Empty[T]()
	m.Add(v, w)
	return m
}

// Add records an observation of v. Negative weights are clipped to zero.
func (m *Map[T]) Add(v T, w int64) {
	if w < 0 {
		w = 0
	}
	if _, ok := m.weights[v]; !ok {
		m.keys = append(m.keys, v)
	}
	m.weights[v] += w
	m.total += w
}

// AddUnknown records an observation that could not be classified.
func (m *Map[T]) AddUnknown(w int64) {
	if w < 0 {
		w = 0
	}
	m.unknown += w
	m.total += w
}

// Total returns the sum of every weight including the unknown bucket.
func (m *Map[T]) Total() int64 { return m.total }

// Unknown returns the weight of the unknown bucket.
func (m *Map[T]) Unknown() int64 { return m.unknown }

// Len returns the number of distinct known values.
func (m *Map[T]) Len() int { return len(m.keys) }

// Keys returns the known values in insertion order.
func (m *Map[T]) Keys() []T {
	out := make([]T, len(m.keys))
	copy(out, m.keys)
	return out
}

// Has reports whether v was ever observed.
func (m *Map[T]) Has(v T) bool {
	_, ok := m.weights[v]
	return ok
}

// Weight returns the weight recorded for v. A value never observed gets the
// unknown weight: an unclassified reading is compatible with every value.
func (m *Map[T]) Weight(v T) int64 {
	if w, ok := m.weights[v]; ok {
		return w
	}
	return m.unknown
}

// Likelihood returns the share of the total weight observed for v.
func (m *Map[T]) Likelihood(v T) float64 {
	if m.total == 0 {
		return 0
	}
	return float64(m.weights[v]) / float64(m.total)
}

// LikelihoodUnknown returns the share of the total weight that is unknown.
func (m *Map[T]) LikelihoodUnknown() float64 {
	if m.total == 0 {
		return 0
	}
	return float64(m.unknown) / float64(m.total)
}

// MostLikelyKnown returns the heaviest known value, ignoring the unknown
// bucket. Ties go to the value observed first.
func (m *Map[T]) MostLikelyKnown() (T, bool) {
	var best T
	var bestWeight int64
	found := false
	for _, k := range m.keys {
		if w := m.weights[k]; w > bestWeight {
			best, bestWeight, found = k, w, true
		}
	}
	return best, found
}

// MostLikely returns the heaviest known value. The second result is false when
// nothing is known or the unknown bucket is strictly heavier.
func (m *Map[T]) MostLikely() (T, bool) {
	best, ok := m.MostLikelyKnown()
	if !ok || m.unknown > m.weights[best] {
		var zero T
		return zero, false
	}
	return best, true
}

// Merge combines two maps as independent evidence. The weight of every value
// in either map is the product of both weights, where a value missing from a
// map contributes that map's unknown weight. The unknown bucket is the product
// of both unknown buckets. Fully contradicting maps leave every product at
// zero; the result is then New, holding only an unknown weight of 1, so later
// evidence still decides the value.
func (m *Map[T]) Merge(o *Map[T]) *Map[T] {
	keys := make([]T, 0, len(m.keys)+len(o.keys))
	keys = append(keys, m.keys...)
	for _, k := range o.keys {
		if !m.Has(k) {
			keys = append(keys, k)
		}
	}

	products := make([]float64, len(keys))
	for i, k := range keys {
		products[i] = float64(m.Weight(k)) * float64(o.Weight(k))
	}
	unknown := float64(m.unknown) * float64(o.unknown)

	sum := floats.Sum(products) + unknown
	if sum == 0 {
		return New[T]()
	}
	scale := 1.0
	if sum > rescaleAbove {
		scale = sum / rescaleTarget
	}

	out := Empty[T]()
	for i, k := range keys {
		out.Add(k, scaleWeight(products[i], scale))
	}
	out.AddUnknown(scaleWeight(unknown, scale))
	return out
}

func scaleWeight(w, scale float64) int64 {
	if w <= 0 {
		return 0
	}
	scaled := int64(math.Round(w / scale))
	if scaled < 1 {
		return 1
	}
	return scaled
}

// Similarity estimates the probability that both maps observed the same
// underlying value. Unknown weight on either side counts as agreement with
// everything on the other side, so the result can exceed 1 for maps holding
// unknown observations.
func (m *Map[T]) Similarity(o *Map[T]) float64 {
	if m.total == 0 || o.total == 0 {
		return 0
	}
	var shared float64
	for _, k := range m.keys {
		if w, ok := o.weights[k]; ok {
			shared += float64(m.weights[k]) * float64(w)
		}
	}
	cross := float64(m.unknown)*float64(o.total) + float64(m.total)*float64(o.unknown)
	return (shared + cross) / (float64(m.total) * float64(o.total))
}

// Transform returns a copy of the map with every known value passed through
// fn. Values mapping to the same result have their weights summed.
func (m *Map[T]) Transform(fn func(T) T) *Map[T] {
	out := Empty[T]()
	for _, k := range m.keys {
		out.Add(fn(k), m.weights[k])
	}
	out.AddUnknown(m.unknown)
	return out
}

// Clone returns an independent copy.
func (m *Map[T]) Clone() *Map[T] {
	return m.Transform(func(v T) T { return v })
}

// Equal reports whether both maps hold the same weights. Insertion order is
// ignored.
func (m *Map[T]) Equal(o *Map[T]) bool {
	if m.unknown != o.unknown || m.total != o.total || len(m.keys) != len(o.keys) {
		return false
	}
	for k, w := range m.weights {
		if ow, ok := o.weights[k]; !ok || ow != w {
			return false
		}
	}
	return true
}

func (m *Map[T]) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%v:%d", k, m.weights[k])
	}
	if m.unknown > 0 {
		if len(m.keys) > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "?:%d", m.unknown)
	}
	b.WriteByte('}')
	return b.String()
}
