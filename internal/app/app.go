// Package app orchestrates the analysis of one replay video: it wires the
// HUD sensors to the search drivers, reconciles the samples and persists the
// results.
package app

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/cyclopcam/logs"

	"github.com/ayusman/replayscan/internal/character"
	"github.com/ayusman/replayscan/internal/config"
	"github.com/ayusman/replayscan/internal/detector"
	"github.com/ayusman/replayscan/internal/framedata"
	"github.com/ayusman/replayscan/internal/plugin"
	"github.com/ayusman/replayscan/internal/state"
	"github.com/ayusman/replayscan/internal/store"
)

// Template directories under the assets directory.
const (
	ButtonsDir    = "buttons"
	DirectionsDir = "directions"
	DigitsDir     = "digits"
	CharactersDir = "characters"
)

// Config holds configuration options for an analysis.
type Config struct {
	// Store receives the run and its results. Nil skips persistence.
	Store *store.Store
	// Tuning overrides the calibrated defaults. Nil uses the defaults.
	Tuning *config.Tuning
	// FrameData is the reference move data used to name moves. Nil skips
	// move detection.
	FrameData *framedata.Library
	// MaxFrame limits the analysis to the first frames of the video. Zero
	// analyzes the whole video.
	MaxFrame int
	Log      logs.Log
}

// Sensors are the template matchers and recognizers reading the HUD. Any of
// them may be nil; the matching part of the analysis is then skipped.
type Sensors struct {
	Buttons    detector.Matcher
	Directions detector.Matcher
	Numbers    detector.NumberRecognizer
	Characters *character.Scanner

	closers []func() error
}

// HasInputDisplay reports whether the input display can be read.
func (s *Sensors) HasInputDisplay() bool {
	return s != nil && s.Buttons != nil && s.Directions != nil
}

// Close releases every matcher.
func (s *Sensors) Close() error {
	if s == nil {
		return nil
	}
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	s.closers = nil
	return errors.Join(errs...)
}

// LoadSensors reads the template sets found under assetsDir and attaches the
// first digits plugin found in pluginDir, if any. Missing template
// directories leave the matching sensor nil.
func LoadSensors(assetsDir, pluginDir string, tuning *config.Tuning, log logs.Log) (*Sensors, error) {
	if tuning == nil {
		tuning = config.EmptyTuning()
	}
	s := &Sensors{}
	match := detector.Config{
		Threshold: tuning.GetMatchThreshold(),
		Scale:     tuning.GetTemplateScale(),
	}

	load := func(dir string) (*detector.TemplateMatcher, error) {
		templates, err := detector.LoadTemplates(filepath.Join(assetsDir, dir), match.Scale)
		if errors.Is(err, detector.ErrTemplateDirNotFound) {
			if log != nil {
				log.Warnf("No %s templates in %s", dir, assetsDir)
			}
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load %s templates: %w", dir, err)
		}
		m := detector.NewTemplateMatcher(templates, match.Threshold)
		s.closers = append(s.closers, m.Close)
		return m, nil
	}

	buttons, err := load(ButtonsDir)
	if err != nil {
		s.Close()
		return nil, err
	}
	if buttons != nil {
		s.Buttons = buttons
	}
	directions, err := load(DirectionsDir)
	if err != nil {
		s.Close()
		return nil, err
	}
	if directions != nil {
		s.Directions = directions
	}

	var numbers detector.Recognizers
	digits, err := load(DigitsDir)
	if err != nil {
		s.Close()
		return nil, err
	}
	if digits != nil {
		numbers = append(numbers, detector.NewTemplateNumberRecognizer(digits))
	}
	if pluginDir != "" {
		mgr := plugin.NewManager(pluginDir, log)
		if err := mgr.Discover(); err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to discover plugins: %w", err)
		}
		if p, err := mgr.ForKind(plugin.KindDigits); err == nil {
			if log != nil {
				log.Infof("Using %s plugin for frame counters", p.Manifest.Name)
			}
			numbers = append(numbers, detector.NewPluginNumberRecognizer(plugin.NewExecutor(tuning.GetPluginTimeout()), p))
		}
	}
	if len(numbers) > 0 {
		s.Numbers = numbers
	}

	icons, err := detector.LoadTemplates(filepath.Join(assetsDir, CharactersDir), match.Scale)
	switch {
	case errors.Is(err, detector.ErrTemplateDirNotFound):
		if log != nil {
			log.Warnf("No %s templates in %s", CharactersDir, assetsDir)
		}
	case err != nil:
		s.Close()
		return nil, fmt.Errorf("failed to load %s templates: %w", CharactersDir, err)
	default:
		s.Characters = character.NewTemplateScanner(icons, match.Threshold, log)
		s.Characters.SetInterval(tuning.GetCharacterInterval())
		s.closers = append(s.closers, s.Characters.Close)
	}

	return s, nil
}

// Analyzer runs analyses. It is not safe for concurrent use.
type Analyzer struct {
	config   Config
	tuning   *config.Tuning
	sensors  *Sensors
	registry *state.Registry
	log      logs.Log
}

// New creates an Analyzer reading the HUD with the given sensors.
func New(cfg Config, sensors *Sensors) *Analyzer {
	tuning := cfg.Tuning
	if tuning == nil {
		tuning = config.EmptyTuning()
	}
	if sensors == nil {
		sensors = &Sensors{}
	}
	return &Analyzer{
		config:   cfg,
		tuning:   tuning,
		sensors:  sensors,
		registry: state.NewRegistry(),
		log:      cfg.Log,
	}
}

// Registry returns the state registry shared by the analyses.
func (a *Analyzer) Registry() *state.Registry {
	return a.registry
}

func (a *Analyzer) infof(format string, args ...interface{}) {
	if a.log != nil {
		a.log.Infof(format, args...)
	}
}

func (a *Analyzer) warnf(format string, args ...interface{}) {
	if a.log != nil {
		a.log.Warnf(format, args...)
	}
}

func (a *Analyzer) debugf(format string, args ...interface{}) {
	if a.log != nil {
		a.log.Debugf(format, args...)
	}
}
