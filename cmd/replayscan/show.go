package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ayusman/replayscan/internal/report"
	"github.com/ayusman/replayscan/internal/store"
)

var showTimeline bool

var showCmd = &cobra.Command{
	Use:   "show <id-prefix>",
	Short: "Show a stored run by ID prefix",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showTimeline, "timeline", true, "print the frame meter timeline")
}

func findRun(st *store.Store, prefix string) (*store.Run, error) {
	run, err := st.Runs().FindByPrefix(prefix)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("no single run with ID prefix %q", prefix)
	}
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	return run, nil
}

func runShow(cmd *cobra.Command, args []string) error {
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

	report.PrintRunSummary(os.Stdout, run)
	if !showTimeline {
		res.Timeline = nil
	}
	return printResults(os.Stdout, res)
}

func printResults(w io.Writer, res *store.Results) error {
	if len(res.Timeline) > 0 {
		fmt.Fprintln(w, "\nTimeline")
		if err := report.PrintTimeline(w, res.Timeline); err != nil {
			return err
		}
	}
	if len(res.Detections) > 0 {
		fmt.Fprintln(w, "\nMoves")
		if err := report.PrintDetections(w, res.Detections); err != nil {
			return err
		}
	}
	if len(res.Inputs) > 0 {
		fmt.Fprintln(w, "\nInputs")
		if err := report.PrintInputs(w, res.Inputs); err != nil {
			return err
		}
	}
	if len(res.Rounds) > 0 {
		fmt.Fprintln(w, "\nRounds")
		if err := report.PrintRounds(w, res.Rounds); err != nil {
			return err
		}
	}
	return nil
}
