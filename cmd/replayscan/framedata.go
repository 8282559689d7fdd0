package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ayusman/replayscan/internal/framedata"
	"github.com/ayusman/replayscan/internal/report"
)

var framedataCmd = &cobra.Command{
	Use:   "framedata <file> [character]",
	Short: "Check a frame data file or print a character's move list",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runFramedata,
}

func runFramedata(cmd *cobra.Command, args []string) error {
	logger, err := newLog()
	if err != nil {
		return err
	}
	defer logger.Close()

	lib, err := framedata.Load(args[0], logger)
	if err != nil {
		return fmt.Errorf("load frame data: %w", err)
	}

	if len(args) == 1 {
		fmt.Printf("%d characters: %s\n", len(lib.Characters), strings.Join(lib.Names(), ", "))
		if len(lib.Skipped) == 0 {
			return nil
		}
		fmt.Printf("\n%d moves skipped\n", len(lib.Skipped))
		return report.PrintSkipped(os.Stdout, lib.Skipped)
	}

	c, ok := lib.Character(args[1])
	if !ok {
		return fmt.Errorf("no character %q in %s", args[1], args[0])
	}
	return report.PrintMoveList(os.Stdout, c)
}
