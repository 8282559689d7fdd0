package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/cyclopcam/logs"
	"github.com/spf13/cobra"

	"github.com/ayusman/replayscan/internal/config"
	"github.com/ayusman/replayscan/internal/store"
)

var (
	dbPath     string
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "replayscan",
	Short: "Fighting game replay analyzer",
	Long: "Read the frame meter, input display, characters and rounds of a replay " +
		"video and detect the moves each player performed.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. An interrupt cancels the running analysis.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	defaultDB := filepath.Join(mustUserHome(), ".replayscan", "replayscan.db")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDB, "path to SQLite database")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a JSON tuning file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug messages")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(framedataCmd)
	rootCmd.AddCommand(plotCmd)
}

func mustUserHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

// quietLog drops debug messages.
type quietLog struct {
	logs.Log
}

func (quietLog) Debugf(format string, a ...interface{}) {}

func newLog() (logs.Log, error) {
	logger, err := logs.NewLog()
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	if verbose {
		return logger, nil
	}
	return quietLog{logger}, nil
}

func openStore() (*store.Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return st, nil
}

func loadTuning() (*config.Tuning, error) {
	if configPath == "" {
		return config.DefaultTuning(), nil
	}
	tuning, err := config.LoadTuning(configPath)
	if err != nil {
		return nil, fmt.Errorf("load tuning: %w", err)
	}
	return tuning, nil
}
