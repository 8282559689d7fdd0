package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ayusman/replayscan/internal/app"
	"github.com/ayusman/replayscan/internal/framedata"
	"github.com/ayusman/replayscan/internal/report"
)

var (
	analyzeAssetsDir string
	analyzePluginDir string
	analyzeFrameData string
	analyzeDriver    string
	analyzeSampling  string
	analyzeMaxFrame  int
	analyzeNoStore   bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <video>",
	Short: "Analyze a replay video and store the results",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeAssetsDir, "assets", "assets", "directory holding the template folders")
	analyzeCmd.Flags().StringVar(&analyzePluginDir, "plugins", "plugins", "directory holding recognizer plugins")
	analyzeCmd.Flags().StringVar(&analyzeFrameData, "frame-data", "", "frame data JSON used to detect moves")
	analyzeCmd.Flags().StringVar(&analyzeDriver, "driver", "", "search driver: binary or sequential (overrides the tuning)")
	analyzeCmd.Flags().StringVar(&analyzeSampling, "sampling", "", "frame meter sampling: region or point (overrides the tuning)")
	analyzeCmd.Flags().IntVar(&analyzeMaxFrame, "max-frame", 0, "stop reading at this frame (0 reads the whole video)")
	analyzeCmd.Flags().BoolVar(&analyzeNoStore, "no-store", false, "print the results without storing them")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	logger, err := newLog()
	if err != nil {
		return err
	}
	defer logger.Close()

	tuning, err := loadTuning()
	if err != nil {
		return err
	}
	if analyzeDriver != "" {
		tuning.Driver = &analyzeDriver
	}
	if analyzeSampling != "" {
		tuning.SamplingMode = &analyzeSampling
	}
	if err := tuning.Validate(); err != nil {
		return err
	}

	cfg := app.Config{Tuning: tuning, MaxFrame: analyzeMaxFrame, Log: logger}
	if analyzeFrameData != "" {
		lib, err := framedata.Load(analyzeFrameData, logger)
		if err != nil {
			return fmt.Errorf("load frame data: %w", err)
		}
		cfg.FrameData = lib
	}
	if !analyzeNoStore {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		cfg.Store = st
	}

	sensors, err := app.LoadSensors(analyzeAssetsDir, analyzePluginDir, tuning, logger)
	if err != nil {
		return err
	}
	defer sensors.Close()

	res, err := app.New(cfg, sensors).AnalyzeFile(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if cfg.Store != nil {
		run, err := cfg.Store.Runs().GetByID(res.RunID)
		if err != nil {
			return fmt.Errorf("query run: %w", err)
		}
		report.PrintRunSummary(os.Stdout, run)
	} else {
		fmt.Fprintf(os.Stdout, "%s: %s, %d frames\n", res.Video, res.Characters, res.FrameCount)
	}
	return printResults(os.Stdout, res.Records())
}
