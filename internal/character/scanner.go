// Package character finds which characters are playing by matching the
// character icons shown next to the life bars.
package character

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cyclopcam/logs"

	"github.com/ayusman/replayscan/internal/capture"
	"github.com/ayusman/replayscan/internal/detector"
	"github.com/ayusman/replayscan/internal/hud"
)

// ErrCharacterNotFound is returned when the video ends before both icons
// were recognized.
var ErrCharacterNotFound = errors.New("character not found")

// DefaultInterval is the number of frames between two icon checks.
const DefaultInterval = 300

// TemplatePrefix returns the label prefix of a player's icon templates,
// e.g. "p1_" for P1 icons.
func TemplatePrefix(p hud.Player) string {
	return strings.ToLower(p.String()) + "_"
}

// Pair holds the character names of both players.
type Pair [2]string

// Complete reports whether both characters are known.
func (c Pair) Complete() bool {
	return c[hud.P1] != "" && c[hud.P2] != ""
}

func (c Pair) String() string {
	return fmt.Sprintf("%s vs %s", c.name(hud.P1), c.name(hud.P2))
}

func (c Pair) name(p hud.Player) string {
	if c[p] == "" {
		return "?"
	}
	return c[p]
}

// Scanner reads the character icons of a video.
type Scanner struct {
	matchers [2]detector.Matcher
	interval int
	log      logs.Log
}

// NewScanner creates a scanner from one icon matcher per player. Icon labels
// may carry the player prefix, it is stripped from the reported names.
func NewScanner(p1, p2 detector.Matcher, log logs.Log) *Scanner {
	return &Scanner{
		matchers: [2]detector.Matcher{p1, p2},
		interval: DefaultInterval,
		log:      log,
	}
}

// NewTemplateScanner builds a scanner over an icon template set, splitting
// it by player prefix.
func NewTemplateScanner(templates []*detector.Template, threshold float64, log logs.Log) *Scanner {
	return NewScanner(
		detector.NewTemplateMatcher(detector.WithPrefix(templates, TemplatePrefix(hud.P1)), threshold),
		detector.NewTemplateMatcher(detector.WithPrefix(templates, TemplatePrefix(hud.P2)), threshold),
		log,
	)
}

// SetInterval changes the number of frames between two checks.
func (s *Scanner) SetInterval(frames int) {
	if frames > 0 {
		s.interval = frames
	}
}

// Read looks for both icons in a single frame. Players whose icon is not
// found are left empty.
func (s *Scanner) Read(frame *capture.Frame) (Pair, error) {
	var pair Pair
	for _, p := range hud.Players {
		region, err := frame.Crop(hud.CharacterIcon(p))
		if err != nil {
			region.Close()
			return pair, fmt.Errorf("failed to crop %s icon: %w", p, err)
		}
		matches, err := s.matchers[p].Find(region)
		region.Close()
		if err != nil {
			return pair, fmt.Errorf("failed to match %s icon: %w", p, err)
		}
		if best, ok := bestMatch(matches); ok {
			pair[p] = strings.TrimPrefix(best.Label, TemplatePrefix(p))
		}
	}
	return pair, nil
}

// Scan checks the icons every interval frames from the start of the video
// until both characters are known. Characters found on different frames are
// combined; the first name seen for a player is kept.
func (s *Scanner) Scan(ctx context.Context, source capture.Source) (Pair, error) {
	var pair Pair
	for n := 0; n < source.FrameCount(); n += s.interval {
		if err := ctx.Err(); err != nil {
			return pair, err
		}
		frame, err := source.Frame(n)
		if err != nil {
			return pair, err
		}
		found, err := s.Read(frame)
		frame.Close()
		if err != nil {
			return pair, err
		}
		for _, p := range hud.Players {
			if pair[p] == "" && found[p] != "" {
				pair[p] = found[p]
				if s.log != nil {
					s.log.Debugf("Frame %d: %s plays %s", n, p, found[p])
				}
			}
		}
		if pair.Complete() {
			if s.log != nil {
				s.log.Infof("Characters: %s (frame %d)", pair, n)
			}
			return pair, nil
		}
	}
	return pair, fmt.Errorf("%w: %s after %d frames", ErrCharacterNotFound, pair, source.FrameCount())
}

// Close releases both matchers.
func (s *Scanner) Close() error {
	return errors.Join(s.matchers[hud.P1].Close(), s.matchers[hud.P2].Close())
}

func bestMatch(matches []detector.Match) (detector.Match, bool) {
	if len(matches) == 0 {
		return detector.Match{}, false
	}
	best := matches[0]
	for _, m := range matches[1:] {
		if m.Score > best.Score {
			best = m
		}
	}
	return best, true
}
