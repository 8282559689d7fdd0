package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ayusman/replayscan/internal/report"
)

var plotOutput string

var plotCmd = &cobra.Command{
	Use:   "plot <id-prefix>",
	Short: "Plot the timeline and moves of a stored run",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlot,
}

func init() {
	plotCmd.Flags().StringVarP(&plotOutput, "output", "o", "timeline.png", "output image (png, svg or pdf)")
}

func runPlot(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := findRun(st, args[0])
	if err != nil {
		return err
	}
	res, err := st.Results().Load(run.ID)
	if err != nil {
		return fmt.Errorf("load results: %w", err)
	}

	title := fmt.Sprintf("%s (%s vs %s)", run.Video, orUnknown(run.Characters[0]), orUnknown(run.Characters[1]))
	if err := report.PlotTimeline(plotOutput, title, res.Timeline, res.Detections); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", plotOutput)
	return nil
}

func orUnknown(s string) string {
	if s == "" {
		return "?"
	}
	return s
}
