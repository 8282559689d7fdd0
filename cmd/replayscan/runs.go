package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ayusman/replayscan/internal/report"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored runs",
	Args:  cobra.NoArgs,
	RunE:  runRuns,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id-prefix>",
	Short: "Delete a stored run and its results",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	runsCmd.AddCommand(deleteCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.Runs().List()
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("No runs stored. Use 'replayscan analyze <video>' to analyze one.")
		return nil
	}
	return report.PrintRuns(os.Stdout, runs)
}

func runDelete(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := findRun(st, args[0])
	if err != nil {
		return err
	}
	if err := st.Runs().Delete(run.ID); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	fmt.Printf("Deleted run %s (%s)\n", report.ShortID(run.ID), run.Video)
	return nil
}
