package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/ayusman/replayscan/internal/capture"
	"github.com/ayusman/replayscan/internal/character"
	"github.com/ayusman/replayscan/internal/config"
	"github.com/ayusman/replayscan/internal/framemeter"
	"github.com/ayusman/replayscan/internal/hud"
	"github.com/ayusman/replayscan/internal/inputdisplay"
	"github.com/ayusman/replayscan/internal/moves"
	"github.com/ayusman/replayscan/internal/round"
	"github.com/ayusman/replayscan/internal/search"
	"github.com/ayusman/replayscan/internal/store"
)

// Result is everything one analysis found.
type Result struct {
	RunID      string
	Video      string
	FrameCount int
	FPS        float64
	Characters character.Pair
	Timeline   *framemeter.Timeline
	Inputs     *inputdisplay.History
	Detections [2][]moves.Detection
	Rounds     []round.Event
	Elapsed    time.Duration
}

// AnalyzeFile opens a video and analyzes it.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) (*Result, error) {
	video, err := capture.OpenVideo(path)
	if err != nil {
		return nil, err
	}
	defer video.Close()
	return a.Analyze(ctx, video, path)
}

// Analyze runs every analysis step over source. When a store is configured
// the run is recorded before the first step and marked completed or failed
// at the end.
//
// Steps:
// 1. Find the characters from their icons
// 2. Rebuild the frame meter timeline with the configured search driver
// 3. Rebuild the input history with binary search
// 4. Follow the rounds from the life bars and round markers
// 5. Detect the moves of each player in the timeline
func (a *Analyzer) Analyze(ctx context.Context, source capture.Source, video string) (*Result, error) {
	start := time.Now()
	res := &Result{
		Video:      video,
		FrameCount: a.frameCount(source),
		FPS:        source.FPS(),
	}

	if err := a.createRun(res); err != nil {
		return nil, err
	}

	err := a.analyze(ctx, source, res)
	res.Elapsed = time.Since(start)
	if err != nil {
		if a.log != nil {
			a.log.Errorf("Analysis of %s failed: %v", video, err)
		}
		a.failRun(res.RunID, err)
		return nil, err
	}

	if err := a.saveRun(res); err != nil {
		return nil, err
	}
	a.infof("Analyzed %s in %s: %d slots, %d inputs, %d moves, %d round events",
		video, res.Elapsed.Round(time.Millisecond), res.Timeline.Len(), res.Inputs.Len(),
		len(res.Detections[hud.P1])+len(res.Detections[hud.P2]), len(res.Rounds))
	return res, nil
}

func (a *Analyzer) frameCount(source capture.Source) int {
	n := source.FrameCount()
	if a.config.MaxFrame > 0 && a.config.MaxFrame < n {
		return a.config.MaxFrame
	}
	return n
}

func (a *Analyzer) analyze(ctx context.Context, source capture.Source, res *Result) error {
	if a.sensors.Characters != nil {
		pair, err := a.sensors.Characters.Scan(ctx, source)
		if err != nil && !errors.Is(err, character.ErrCharacterNotFound) {
			return fmt.Errorf("failed to detect characters: %w", err)
		}
		if err != nil {
			a.warnf("%v", err)
		}
		res.Characters = pair
		if a.config.Store != nil && res.RunID != "" {
			if err := a.config.Store.Runs().SetCharacters(res.RunID, pair); err != nil {
				return fmt.Errorf("failed to record characters: %w", err)
			}
		}
	}

	timeline, err := a.readFrameMeter(ctx, source, res.FrameCount)
	if err != nil {
		return err
	}
	res.Timeline = timeline

	res.Inputs = &inputdisplay.History{}
	if a.sensors.HasInputDisplay() {
		history, err := a.readInputDisplay(ctx, source, res.FrameCount)
		if err != nil {
			return err
		}
		if history != nil {
			res.Inputs = history
		}
	}

	events, err := a.followRounds(ctx, source, res.FrameCount)
	if err != nil {
		return err
	}
	res.Rounds = events

	res.Detections = a.detectMoves(res.Characters, timeline)
	return nil
}

// MeterMergeThreshold returns the frame meter merge threshold for a sampling
// mode, unless the tuning sets one.
func MeterMergeThreshold(tuning *config.Tuning, mode framemeter.Mode) int {
	if t := tuning.GetMeterMergeThreshold(); t > 0 {
		return t
	}
	return mode.MergeThreshold()
}

func (a *Analyzer) samplingMode() framemeter.Mode {
	if a.tuning.GetSamplingMode() == config.SamplingPoint {
		return framemeter.PointSampling
	}
	return framemeter.RegionSampling
}

func (a *Analyzer) readFrameMeter(ctx context.Context, source capture.Source, final int) (*framemeter.Timeline, error) {
	mode := a.samplingMode()
	sampler := framemeter.NewSampler(source, a.registry,
		framemeter.WithMode(mode),
		framemeter.WithPatch(a.tuning.GetPatchWidth(), a.tuning.GetPatchHeight()),
		framemeter.WithColorDistance(a.tuning.GetColorDistance()),
		framemeter.WithCleanOptions(framemeter.CleanOptions{
			PastFoldWindow:  a.tuning.GetPastFoldWindow(),
			EndOfWindowFill: a.tuning.GetEndOfWindowFill(),
		}),
	)
	merger := framemeter.NewMerger(MeterMergeThreshold(a.tuning, mode), a.log)
	merger.StaleFrames = a.tuning.GetStaleFrames()
	merger.MinSimilarity = a.tuning.GetMinSimilarity()
	sub := framemeter.Subsystem{Sampler: sampler, Merger: merger}

	var seq *framemeter.Observation
	var err error
	switch a.tuning.GetDriver() {
	case config.DriverSequential:
		driver := search.NewSequential[*framemeter.Observation, *framemeter.Observation](sub, a.log)
		driver.Gap = a.tuning.GetSearchGap()
		driver.OnStep = func(frame int, acc *framemeter.Observation) {
			a.debugf("Frame meter: frame %d, %d columns", frame, acc.Len())
		}
		seq, err = driver.Run(ctx, final)
	default:
		driver := search.NewBinary[*framemeter.Observation, *framemeter.Observation](sub, a.log)
		driver.Window = a.tuning.GetSearchWindow()
		seq, err = driver.Run(ctx, final)
		if err == nil {
			a.debugf("Frame meter: sampled %d frames", len(driver.Visited()))
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read frame meter: %w", err)
	}

	timeline := framemeter.Finalize(seq, framemeter.FinalizeOptions{
		SparseInvulnerabilityRun: a.tuning.GetSparseInvulnerabilityRun(),
		BridgeThresholds:         a.tuning.GetBridgeThresholds(),
	})
	a.infof("Frame meter: %d slots (%s sampling, %s driver)", timeline.Len(), mode, a.tuning.GetDriver())
	return timeline, nil
}

func (a *Analyzer) inputSampler(source capture.Source) *inputdisplay.Sampler {
	return inputdisplay.NewSampler(source, a.sensors.Buttons, a.sensors.Directions, a.sensors.Numbers, a.log)
}

func (a *Analyzer) readInputDisplay(ctx context.Context, source capture.Source, final int) (*inputdisplay.History, error) {
	merger := inputdisplay.NewMerger(a.log)
	merger.Threshold = a.tuning.GetInputMergeThreshold()
	merger.MinSimilarity = a.tuning.GetInputMinSimilarity()
	sub := inputdisplay.Subsystem{Sampler: a.inputSampler(source), Merger: merger}

	driver := search.NewBinary[*inputdisplay.Observation, *inputdisplay.History](sub, a.log)
	driver.Window = a.tuning.GetSearchWindow()
	history, err := driver.Run(ctx, final)
	if err != nil {
		return nil, fmt.Errorf("failed to read input display: %w", err)
	}
	if history != nil {
		a.infof("Input display: %d P1 inputs, %d P2 inputs", len(history.Rows[hud.P1]), len(history.Rows[hud.P2]))
	}
	return history, nil
}

// RoundFrames returns the frames the round tracker samples.
func RoundFrames(final, interval int) []int {
	var frames []int
	for n := 0; n < final-search.TailMargin; n += interval {
		frames = append(frames, n)
	}
	return frames
}

func (a *Analyzer) followRounds(ctx context.Context, source capture.Source, final int) ([]round.Event, error) {
	tracker := round.NewTracker(a.log)
	var inputs *inputdisplay.Sampler
	if a.sensors.HasInputDisplay() {
		inputs = a.inputSampler(source)
	}

	var previousRows [2][]inputdisplay.Row
	var previousLife [2]round.Life
	first := true
	err := capture.FramesAt(ctx, source, RoundFrames(final, a.tuning.GetRoundInterval()), func(frame *capture.Frame) error {
		s := round.Sample{Frame: frame.Index}
		for _, p := range hud.Players {
			life, err := round.ReadLife(frame, p)
			if err != nil {
				return err
			}
			wins, err := round.ReadWins(frame, p)
			if err != nil {
				return err
			}
			s.Life[p], s.Wins[p] = life, wins
		}

		if inputs != nil {
			obs, err := inputs.Read(ctx, frame)
			if err != nil {
				return err
			}
			var rows [2][]inputdisplay.Row
			for _, p := range hud.Players {
				rows[p] = obs.Rows(p)
				s.Inputs = s.Inputs || len(rows[p]) > 0
				s.InputChanged = s.InputChanged || !slices.Equal(rows[p], previousRows[p])
			}
			previousRows = rows
		} else {
			// Without an input display, life changes stand in for activity.
			s.Inputs = true
			s.InputChanged = !first && s.Life != previousLife
		}
		previousLife = s.Life
		first = false

		if tracker.Update(s) {
			a.debugf("Round %d starts at frame %d", tracker.Rounds()+1, s.Frame)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to follow rounds: %w", err)
	}
	a.infof("Rounds: state %s, wins %v", tracker.State(), tracker.Wins())
	return tracker.Events(), nil
}

func (a *Analyzer) detectMoves(chars character.Pair, timeline *framemeter.Timeline) [2][]moves.Detection {
	var out [2][]moves.Detection
	if a.config.FrameData == nil || timeline.Len() == 0 {
		return out
	}
	for _, p := range hud.Players {
		if chars[p] == "" {
			continue
		}
		c, ok := a.config.FrameData.Character(chars[p])
		if !ok {
			a.warnf("No frame data for %s (%s)", chars[p], p)
			continue
		}
		matcher := moves.NewCharacterMatcher(c)
		matcher.OnMatch = func(d moves.Detection) {
			a.debugf("%s: %s", p, d)
		}
		out[p] = matcher.Detect(timeline.Types(p))
	}
	return out
}

func (a *Analyzer) createRun(res *Result) error {
	if a.config.Store == nil {
		return nil
	}
	tuning, err := json.Marshal(a.tuning)
	if err != nil {
		return fmt.Errorf("failed to encode tuning: %w", err)
	}
	run := &store.Run{
		Video:        res.Video,
		FrameCount:   res.FrameCount,
		FPS:          res.FPS,
		Driver:       a.tuning.GetDriver(),
		SamplingMode: a.tuning.GetSamplingMode(),
		Tuning:       string(tuning),
	}
	if err := a.config.Store.Runs().Create(run); err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	res.RunID = run.ID
	a.infof("Run %s: %s (%d frames)", run.ID, res.Video, res.FrameCount)
	return nil
}

func (a *Analyzer) failRun(id string, cause error) {
	if a.config.Store == nil || id == "" {
		return
	}
	if err := a.config.Store.Runs().Fail(id, cause); err != nil {
		a.warnf("Failed to mark run %s as failed: %v", id, err)
	}
}

func (a *Analyzer) saveRun(res *Result) error {
	if a.config.Store == nil {
		return nil
	}
	if err := a.config.Store.Results().Save(res.RunID, res.Records()); err != nil {
		a.failRun(res.RunID, err)
		return fmt.Errorf("failed to save results: %w", err)
	}
	if err := a.config.Store.Runs().Complete(res.RunID); err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// Records converts the result into its stored form.
func (r *Result) Records() *store.Results {
	out := &store.Results{}
	if r.Timeline != nil {
		for i, s := range r.Timeline.Slots {
			out.Timeline = append(out.Timeline, store.Slot{
				Index:    i,
				Window:   s.Window,
				Position: s.Position,
				States:   [2]string{s.States[hud.P1].String(), s.States[hud.P2].String()},
			})
		}
	}
	if r.Inputs != nil {
		for _, p := range hud.Players {
			for i, row := range r.Inputs.Rows[p] {
				out.Inputs = append(out.Inputs, store.InputRow{
					Player:    int(p),
					Sequence:  i,
					Direction: int(row.Direction),
					Buttons:   row.Buttons.String(),
					Frames:    row.Frames,
				})
			}
		}
	}
	for _, p := range hud.Players {
		for _, d := range r.Detections[p] {
			out.Detections = append(out.Detections, store.Detection{
				Player:    int(p),
				Move:      d.Move.Name,
				Status:    string(d.Status),
				StartSlot: d.Start,
				EndSlot:   d.End,
			})
		}
	}
	for _, e := range r.Rounds {
		ev := store.RoundEvent{Frame: e.Frame, From: e.From.String(), To: e.To.String()}
		if e.Winner != nil {
			w := int(*e.Winner)
			ev.Winner = &w
		}
		out.Rounds = append(out.Rounds, ev)
	}
	return out
}
