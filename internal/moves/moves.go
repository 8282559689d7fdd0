// Package moves recognises the moves a player performed from the states of
// their finalized frame meter.
package moves

import (
	"fmt"
	"sort"

	"github.com/ayusman/replayscan/internal/framedata"
	"github.com/ayusman/replayscan/internal/state"
)

// Status tells how much of a move was seen.
type Status string

const (
	// FullAnimation means startup, active and recovery all played out.
	FullAnimation Status = "FULL_ANIMATION"
	// PartiallyHit means the move was interrupted by the player getting hit.
	PartiallyHit Status = "PARTIALLY_HIT"
)

// MaxMismatch is the largest total deviation, noise included, a full match
// accepts.
const MaxMismatch = 3

// Run is a stretch of identical states. Start is the index of its first
// frame in the grouped sequence.
type Run struct {
	Type  state.Type
	Count int
	Start int
}

// Group collapses consecutive identical states into runs.
func Group(types []state.Type) []Run {
	var runs []Run
	for i, t := range types {
		if n := len(runs); n > 0 && runs[n-1].Type == t {
			runs[n-1].Count++
			continue
		}
		runs = append(runs, Run{Type: t, Count: 1, Start: i})
	}
	return runs
}

// Match is a move recognised at the start of a run sequence.
type Match struct {
	Move   *framedata.Move
	Status Status
	// Score is the total deviation of a full match. Partial matches are
	// exact and score 0.
	Score int
}

// Detection is a move found in a timeline. Start and End are frame indexes,
// End exclusive.
type Detection struct {
	Move   *framedata.Move
	Status Status
	Start  int
	End    int
}

func (d Detection) String() string {
	return fmt.Sprintf("%d-%d %s %s", d.Start, d.End, d.Move.Name, d.Status)
}

var phases = [3]state.Type{state.Startup, state.Active, state.Recovery}

func isPhase(t state.Type) bool {
	return t == state.Startup || t == state.Active || t == state.Recovery
}

// Matcher matches state runs against a character's move list.
type Matcher struct {
	moves   []*framedata.Move
	OnMatch func(d Detection)
}

// NewMatcher creates a matcher over the given moves. Moves are tried in name
// order so results never depend on map iteration.
func NewMatcher(moves []*framedata.Move) *Matcher {
	sorted := make([]*framedata.Move, 0, len(moves))
	for _, m := range moves {
		if m != nil {
			sorted = append(sorted, m)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return &Matcher{moves: sorted}
}

// NewCharacterMatcher creates a matcher over every move of a character.
func NewCharacterMatcher(c *framedata.Character) *Matcher {
	return NewMatcher(c.MoveList())
}

// Moves returns the candidate moves in matching order.
func (m *Matcher) Moves() []*framedata.Move {
	out := make([]*framedata.Move, len(m.moves))
	copy(out, m.moves)
	return out
}

// FullMatch matches runs that start with a complete startup, active,
// recovery sequence. Runs of other non-phase states in between count as
// noise; a phase out of order aborts. The move with the smallest total
// deviation wins if it is within MaxMismatch and no other move ties with it.
func (m *Matcher) FullMatch(runs []Run) (Match, bool) {
	if len(runs) == 0 || runs[0].Type != state.Startup {
		return Match{}, false
	}

	var observed [3]int
	next, noise := 0, 0
	for _, r := range runs {
		if next == len(phases) {
			break
		}
		switch {
		case r.Type == phases[next]:
			observed[next] = r.Count
			next++
		case isPhase(r.Type):
			return Match{}, false
		default:
			noise += r.Count
		}
	}
	if next != len(phases) {
		return Match{}, false
	}

	var best *framedata.Move
	bestScore, tied := MaxMismatch+1, false
	for _, mv := range m.moves {
		sig := mv.Signature()
		score := noise
		for i := range sig {
			score += abs(observed[i] - sig[i])
		}
		switch {
		case score < bestScore:
			best, bestScore, tied = mv, score, false
		case score == bestScore:
			tied = true
		}
	}
	if best == nil || tied {
		return Match{}, false
	}
	return Match{Move: best, Status: FullAnimation, Score: bestScore}, true
}

// PartialMatch matches a move interrupted by a hit: startup and active
// followed by hit stun, possibly after some recovery. Startup and active must
// equal the move's exactly and the recovery seen may not exceed the move's.
// Exactly one move has to fit.
func (m *Matcher) PartialMatch(runs []Run) (Match, bool) {
	if len(runs) < 3 || runs[0].Type != state.Startup || runs[1].Type != state.Active {
		return Match{}, false
	}
	recovery := 0
	switch {
	case runs[2].Type == state.HitStuck:
	case len(runs) > 3 && runs[2].Type == state.Recovery && runs[3].Type == state.HitStuck:
		recovery = runs[2].Count
	default:
		return Match{}, false
	}

	var found *framedata.Move
	for _, mv := range m.moves {
		sig := mv.Signature()
		if runs[0].Count != sig[0] || runs[1].Count != sig[1] || recovery > sig[2] {
			continue
		}
		if found != nil {
			return Match{}, false
		}
		found = mv
	}
	if found == nil {
		return Match{}, false
	}
	return Match{Move: found, Status: PartiallyHit}, true
}

// Find tries a full match first, then a partial one.
func (m *Matcher) Find(runs []Run) (Match, bool) {
	if match, ok := m.FullMatch(runs); ok {
		return match, true
	}
	return m.PartialMatch(runs)
}

// Detect scans a state sequence for moves. After a match the scan resumes
// three runs later, otherwise one run later.
func (m *Matcher) Detect(types []state.Type) []Detection {
	runs := Group(types)
	var out []Detection
	for i := 0; i < len(runs)-2; {
		match, ok := m.Find(runs[i:])
		if !ok {
			i++
			continue
		}
		d := Detection{Move: match.Move, Status: match.Status, Start: runs[i].Start}
		if match.Status == FullAnimation {
			sig := match.Move.Signature()
			d.End = d.Start + sig[0] + sig[1] + sig[2]
		} else {
			d.End = d.Start
			for j := i; j < len(runs) && j < i+5; j++ {
				d.End += runs[j].Count
				if runs[j].Type == state.HitStuck {
					break
				}
			}
		}
		out = append(out, d)
		if m.OnMatch != nil {
			m.OnMatch(d)
		}
		i += len(phases)
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
