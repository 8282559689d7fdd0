package round

import (
	"fmt"

	"github.com/cyclopcam/logs"

	"github.com/ayusman/replayscan/internal/hud"
)

// State is where the match stands.
type State int

const (
	Unknown State = iota
	PreRound
	InProgress
	Ending
	Ended
	MatchEnded
)

func (s State) String() string {
	switch s {
	case Unknown:
		return "UNKNOWN"
	case PreRound:
		return "PRE_ROUND"
	case InProgress:
		return "IN_PROGRESS"
	case Ending:
		return "ROUND_ENDING"
	case Ended:
		return "ROUND_ENDED"
	case MatchEnded:
		return "MATCH_ENDED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Idle frame limits of the input display.
const (
	// IdleEnding is how long the input display may stay unchanged before a
	// round is considered to be ending.
	IdleEnding = 120
	// IdleEnded is how long it may stay unchanged before the round is
	// considered over without seeing a new marker.
	IdleEnded = 180
	// WinsForMatch is the number of round wins that ends the match.
	WinsForMatch = 2
)

// Sample is what the tracker needs from one frame.
type Sample struct {
	Frame int
	Life  [2]Life
	Wins  [2]int
	// Inputs reports whether an input display was visible at all.
	Inputs bool
	// InputChanged reports whether the input display changed since the
	// previous sample.
	InputChanged bool
}

// Event is a state change.
type Event struct {
	Frame int
	From  State
	To    State
	// Winner is set on round ends confirmed by a new round marker.
	Winner *hud.Player
}

func (e Event) String() string {
	s := fmt.Sprintf("%d %s -> %s", e.Frame, e.From, e.To)
	if e.Winner != nil {
		s += " won by " + e.Winner.String()
	}
	return s
}

// Tracker runs the round state machine over samples in frame order.
type Tracker struct {
	Log logs.Log

	state     State
	rounds    int
	wins      [2]int
	idle      int
	lastFrame int
	started   bool
	events    []Event
}

// NewTracker returns a tracker in the Unknown state.
func NewTracker(log logs.Log) *Tracker {
	return &Tracker{Log: log}
}

// State returns the current state.
func (t *Tracker) State() State { return t.state }

// Rounds returns the number of rounds started after the first one.
func (t *Tracker) Rounds() int { return t.rounds }

// Wins returns the round wins seen so far.
func (t *Tracker) Wins() [2]int { return t.wins }

// Events returns every state change so far.
func (t *Tracker) Events() []Event {
	out := make([]Event, len(t.events))
	copy(out, t.events)
	return out
}

// Update feeds one sample. It reports whether a new round started.
func (t *Tracker) Update(s Sample) bool {
	elapsed := 0
	if t.started {
		elapsed = s.Frame - t.lastFrame
	}
	t.started = true
	t.lastFrame = s.Frame

	if s.InputChanged {
		t.idle = 0
	} else {
		t.idle += elapsed
	}

	var winner *hud.Player
	for _, p := range hud.Players {
		if s.Wins[p] > t.wins[p] {
			p := p
			winner = &p
			t.wins[p] = s.Wins[p]
		}
	}
	ko := s.Life[hud.P1].KO() || s.Life[hud.P2].KO()

	newRound := false
	switch t.state {
	case Unknown, PreRound:
		switch {
		case s.Inputs && (s.InputChanged || t.state == PreRound):
			t.move(s.Frame, InProgress, nil)
		case t.state == Unknown && s.Life[hud.P1] > 95 && s.Life[hud.P2] > 95:
			t.move(s.Frame, PreRound, nil)
		}
	case InProgress:
		switch {
		case winner != nil:
			t.move(s.Frame, Ended, winner)
		case ko:
			t.move(s.Frame, Ending, nil)
		case t.idle > IdleEnding:
			t.move(s.Frame, Ending, nil)
		}
	case Ending:
		switch {
		case winner != nil:
			t.move(s.Frame, Ended, winner)
		case t.idle > IdleEnded:
			t.move(s.Frame, Ended, nil)
		}
	case Ended:
		switch {
		case t.wins[hud.P1] >= WinsForMatch || t.wins[hud.P2] >= WinsForMatch:
			t.move(s.Frame, MatchEnded, nil)
		case s.InputChanged && !ko:
			t.rounds++
			newRound = true
			t.move(s.Frame, InProgress, nil)
		}
	}
	return newRound
}

func (t *Tracker) move(frame int, to State, winner *hud.Player) {
	e := Event{Frame: frame, From: t.state, To: to, Winner: winner}
	t.events = append(t.events, e)
	t.state = to
	if t.Log != nil {
		t.Log.Debugf("round: %v", e)
	}
}
