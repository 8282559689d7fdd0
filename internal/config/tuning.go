// Package config holds the calibrated tuning values of an analysis run.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tuning.defaults.json"

// Sampling modes accepted by SamplingMode.
const (
	SamplingRegion = "region"
	SamplingPoint  = "point"
)

// Search drivers accepted by Driver.
const (
	DriverBinary     = "binary"
	DriverSequential = "sequential"
)

// Tuning is the root configuration of an analysis. Fields left out of the
// JSON file fall back to the defaults returned by the Get* methods.
type Tuning struct {
	// Frame meter sampling
	SamplingMode    *string  `json:"sampling_mode,omitempty"` // "region" or "point"
	PatchWidth      *int     `json:"patch_width,omitempty"`
	PatchHeight     *int     `json:"patch_height,omitempty"`
	ColorDistance   *int     `json:"color_distance,omitempty"` // squared BGR distance
	PastFoldWindow  *int     `json:"past_fold_window,omitempty"`
	EndOfWindowFill *float64 `json:"end_of_window_fill,omitempty"`

	// Frame meter merging
	MeterMergeThreshold *int     `json:"meter_merge_threshold,omitempty"` // 0 uses the sampling mode default
	StaleFrames         *int     `json:"stale_frames,omitempty"`
	MinSimilarity       *float64 `json:"min_similarity,omitempty"`

	// Finalize passes
	SparseInvulnerabilityRun *int  `json:"sparse_invulnerability_run,omitempty"`
	BridgeThresholds         []int `json:"bridge_thresholds,omitempty"`

	// Search drivers
	Driver       *string `json:"driver,omitempty"` // "binary" or "sequential"
	SearchWindow *int    `json:"search_window,omitempty"`
	SearchGap    *int    `json:"search_gap,omitempty"`

	// Input display
	InputMergeThreshold *int     `json:"input_merge_threshold,omitempty"`
	InputMinSimilarity  *float64 `json:"input_min_similarity,omitempty"`

	// Template matching
	MatchThreshold *float64 `json:"match_threshold,omitempty"`
	TemplateScale  *float64 `json:"template_scale,omitempty"`

	// Characters and rounds
	CharacterInterval *int `json:"character_interval,omitempty"`
	RoundInterval     *int `json:"round_interval,omitempty"`

	// OCR plugins
	PluginTimeout *string `json:"plugin_timeout,omitempty"` // duration string like "10s"
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuning returns a Tuning with every field unset.
func EmptyTuning() *Tuning {
	return &Tuning{}
}

// DefaultTuning returns a Tuning with every field set to its default.
func DefaultTuning() *Tuning {
	empty := EmptyTuning()
	return &Tuning{
		SamplingMode:             ptrString(empty.GetSamplingMode()),
		PatchWidth:               ptrInt(empty.GetPatchWidth()),
		PatchHeight:              ptrInt(empty.GetPatchHeight()),
		ColorDistance:            ptrInt(empty.GetColorDistance()),
		PastFoldWindow:           ptrInt(empty.GetPastFoldWindow()),
		EndOfWindowFill:          ptrFloat64(empty.GetEndOfWindowFill()),
		MeterMergeThreshold:      ptrInt(empty.GetMeterMergeThreshold()),
		StaleFrames:              ptrInt(empty.GetStaleFrames()),
		MinSimilarity:            ptrFloat64(empty.GetMinSimilarity()),
		SparseInvulnerabilityRun: ptrInt(empty.GetSparseInvulnerabilityRun()),
		BridgeThresholds:         empty.GetBridgeThresholds(),
		Driver:                   ptrString(empty.GetDriver()),
		SearchWindow:             ptrInt(empty.GetSearchWindow()),
		SearchGap:                ptrInt(empty.GetSearchGap()),
		InputMergeThreshold:      ptrInt(empty.GetInputMergeThreshold()),
		InputMinSimilarity:       ptrFloat64(empty.GetInputMinSimilarity()),
		MatchThreshold:           ptrFloat64(empty.GetMatchThreshold()),
		TemplateScale:            ptrFloat64(empty.GetTemplateScale()),
		CharacterInterval:        ptrInt(empty.GetCharacterInterval()),
		RoundInterval:            ptrInt(empty.GetRoundInterval()),
		PluginTimeout:            ptrString(empty.GetPluginTimeout().String()),
	}
}

// LoadTuning loads a Tuning from a JSON file. The file must have a .json
// extension and stay under 1MB. Partial files are fine.
func LoadTuning(path string) (*Tuning, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuning()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultTuning loads DefaultConfigPath from the current directory
// or one of its parents. Panics if the file cannot be loaded, intended for
// test setup.
func MustLoadDefaultTuning() *Tuning {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuning(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configured values are usable.
func (c *Tuning) Validate() error {
	if c.SamplingMode != nil && *c.SamplingMode != SamplingRegion && *c.SamplingMode != SamplingPoint {
		return fmt.Errorf("sampling_mode must be %q or %q, got %q", SamplingRegion, SamplingPoint, *c.SamplingMode)
	}
	if c.Driver != nil && *c.Driver != DriverBinary && *c.Driver != DriverSequential {
		return fmt.Errorf("driver must be %q or %q, got %q", DriverBinary, DriverSequential, *c.Driver)
	}

	positive := []struct {
		name  string
		value *int
	}{
		{"patch_width", c.PatchWidth},
		{"patch_height", c.PatchHeight},
		{"color_distance", c.ColorDistance},
		{"stale_frames", c.StaleFrames},
		{"search_window", c.SearchWindow},
		{"search_gap", c.SearchGap},
		{"input_merge_threshold", c.InputMergeThreshold},
		{"character_interval", c.CharacterInterval},
		{"round_interval", c.RoundInterval},
	}
	for _, p := range positive {
		if p.value != nil && *p.value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", p.name, *p.value)
		}
	}
	if c.MeterMergeThreshold != nil && *c.MeterMergeThreshold < 0 {
		return fmt.Errorf("meter_merge_threshold must be non-negative, got %d", *c.MeterMergeThreshold)
	}
	if c.PastFoldWindow != nil && *c.PastFoldWindow < 0 {
		return fmt.Errorf("past_fold_window must be non-negative, got %d", *c.PastFoldWindow)
	}
	if c.SparseInvulnerabilityRun != nil && *c.SparseInvulnerabilityRun < 0 {
		return fmt.Errorf("sparse_invulnerability_run must be non-negative, got %d", *c.SparseInvulnerabilityRun)
	}

	ratios := []struct {
		name  string
		value *float64
	}{
		{"end_of_window_fill", c.EndOfWindowFill},
		{"min_similarity", c.MinSimilarity},
		{"input_min_similarity", c.InputMinSimilarity},
		{"match_threshold", c.MatchThreshold},
	}
	for _, r := range ratios {
		if r.value != nil && (*r.value < 0 || *r.value > 1) {
			return fmt.Errorf("%s must be between 0 and 1, got %f", r.name, *r.value)
		}
	}
	if c.TemplateScale != nil && *c.TemplateScale <= 0 {
		return fmt.Errorf("template_scale must be positive, got %f", *c.TemplateScale)
	}

	for i, t := range c.BridgeThresholds {
		if t <= 0 {
			return fmt.Errorf("bridge_thresholds[%d] must be positive, got %d", i, t)
		}
		if i > 0 && t <= c.BridgeThresholds[i-1] {
			return fmt.Errorf("bridge_thresholds must be increasing, got %v", c.BridgeThresholds)
		}
	}

	if c.PluginTimeout != nil && *c.PluginTimeout != "" {
		if _, err := time.ParseDuration(*c.PluginTimeout); err != nil {
			return fmt.Errorf("invalid plugin_timeout '%s': %w", *c.PluginTimeout, err)
		}
	}
	return nil
}

// GetSamplingMode returns the sampling_mode value or the default.
func (c *Tuning) GetSamplingMode() string {
	if c.SamplingMode == nil {
		return SamplingRegion
	}
	return *c.SamplingMode
}

// GetPatchWidth returns the patch_width value or the default.
func (c *Tuning) GetPatchWidth() int {
	if c.PatchWidth == nil {
		return 5
	}
	return *c.PatchWidth
}

// GetPatchHeight returns the patch_height value or the default.
func (c *Tuning) GetPatchHeight() int {
	if c.PatchHeight == nil {
		return 9
	}
	return *c.PatchHeight
}

// GetColorDistance returns the color_distance value or the default.
func (c *Tuning) GetColorDistance() int {
	if c.ColorDistance == nil {
		return 500
	}
	return *c.ColorDistance
}

// GetPastFoldWindow returns the past_fold_window value or the default.
func (c *Tuning) GetPastFoldWindow() int {
	if c.PastFoldWindow == nil {
		return 20
	}
	return *c.PastFoldWindow
}

// GetEndOfWindowFill returns the end_of_window_fill value or the default.
func (c *Tuning) GetEndOfWindowFill() float64 {
	if c.EndOfWindowFill == nil {
		return 0.9
	}
	return *c.EndOfWindowFill
}

// GetMeterMergeThreshold returns the meter_merge_threshold value or 0, which
// leaves the choice to the sampling mode.
func (c *Tuning) GetMeterMergeThreshold() int {
	if c.MeterMergeThreshold == nil {
		return 0
	}
	return *c.MeterMergeThreshold
}

// GetStaleFrames returns the stale_frames value or the default.
func (c *Tuning) GetStaleFrames() int {
	if c.StaleFrames == nil {
		return 80
	}
	return *c.StaleFrames
}

// GetMinSimilarity returns the min_similarity value or the default.
func (c *Tuning) GetMinSimilarity() float64 {
	if c.MinSimilarity == nil {
		return 0.5
	}
	return *c.MinSimilarity
}

// GetSparseInvulnerabilityRun returns the sparse_invulnerability_run value or
// the default.
func (c *Tuning) GetSparseInvulnerabilityRun() int {
	if c.SparseInvulnerabilityRun == nil {
		return 3
	}
	return *c.SparseInvulnerabilityRun
}

// GetBridgeThresholds returns a copy of bridge_thresholds or the default.
func (c *Tuning) GetBridgeThresholds() []int {
	if len(c.BridgeThresholds) == 0 {
		return []int{3, 8, 97}
	}
	out := make([]int, len(c.BridgeThresholds))
	copy(out, c.BridgeThresholds)
	return out
}

// GetDriver returns the driver value or the default.
func (c *Tuning) GetDriver() string {
	if c.Driver == nil {
		return DriverBinary
	}
	return *c.Driver
}

// GetSearchWindow returns the search_window value or the default.
func (c *Tuning) GetSearchWindow() int {
	if c.SearchWindow == nil {
		return 60
	}
	return *c.SearchWindow
}

// GetSearchGap returns the search_gap value or the default.
func (c *Tuning) GetSearchGap() int {
	if c.SearchGap == nil {
		return 20
	}
	return *c.SearchGap
}

// GetInputMergeThreshold returns the input_merge_threshold value or the
// default.
func (c *Tuning) GetInputMergeThreshold() int {
	if c.InputMergeThreshold == nil {
		return 150
	}
	return *c.InputMergeThreshold
}

// GetInputMinSimilarity returns the input_min_similarity value or the
// default.
func (c *Tuning) GetInputMinSimilarity() float64 {
	if c.InputMinSimilarity == nil {
		return 0.5
	}
	return *c.InputMinSimilarity
}

// GetMatchThreshold returns the match_threshold value or the default.
func (c *Tuning) GetMatchThreshold() float64 {
	if c.MatchThreshold == nil {
		return 0.7
	}
	return *c.MatchThreshold
}

// GetTemplateScale returns the template_scale value or the default.
func (c *Tuning) GetTemplateScale() float64 {
	if c.TemplateScale == nil {
		return 1.1
	}
	return *c.TemplateScale
}

// GetCharacterInterval returns the character_interval value or the default.
func (c *Tuning) GetCharacterInterval() int {
	if c.CharacterInterval == nil {
		return 300
	}
	return *c.CharacterInterval
}

// GetRoundInterval returns the round_interval value or the default.
func (c *Tuning) GetRoundInterval() int {
	if c.RoundInterval == nil {
		return 30
	}
	return *c.RoundInterval
}

// GetPluginTimeout parses and returns the plugin_timeout value.
func (c *Tuning) GetPluginTimeout() time.Duration {
	if c.PluginTimeout == nil || *c.PluginTimeout == "" {
		return 10 * time.Second
	}
	d, err := time.ParseDuration(*c.PluginTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}
