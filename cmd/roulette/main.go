// roulette is a terminal roulette table whose ball lands where the oracle says.
//
// Usage:
//
//	roulette play              - Play at a local table
//	roulette serve             - Start SSH server for remote play
//	roulette oracle            - Run the HTTP spin oracle
//	roulette simulate          - Run one spin headless and print its trace
//	roulette solve <number>    - Print a path that lands on a number
//	roulette paths <cmd>       - Manage recorded landing paths
//	roulette history           - Show recent spins
//
// Global flags:
//
//	--fps <rate>       - Set tick rate (default: 60)
//	--seed <value>     - Set RNG seed for reproducible outcomes
//	--db <path>        - Set database path (default: ~/.roulette/roulette.db)
//	--config <path>    - Use a custom roulette.yaml
//	--log-file <path>  - Write table logs to a file
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-roulette/internal/config"
	"github.com/vovakirdan/tui-roulette/internal/storage"
)

var (
	// Global flags
	flagFPS     int
	flagSeed    int64
	flagDBPath  string
	flagConfig  string
	flagLogFile string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "roulette",
	Short: "TUI Roulette - A roulette wheel in your terminal",
	Long: `TUI Roulette animates a roulette wheel whose ball always lands on the
number chosen by the spin oracle.

Available commands:
  play      - Play at a local table
  serve     - Start SSH server for remote play
  oracle    - Run the HTTP spin oracle
  simulate  - Run one spin without a screen
  solve     - Print a path that lands on a number
  paths     - List, export, import or explore recorded paths
  history   - Show recent spins

Examples:
  roulette play --bet 17
  roulette play --oracle http://localhost:8080
  roulette serve --ssh :2222
  roulette solve 32
  roulette paths explore --count 500`,
}

func init() {
	rootCmd.PersistentFlags().IntVar(&flagFPS, "fps", 60, "Tick rate (frames per second)")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "~/.roulette/roulette.db", "Path to paths and history database")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to custom roulette.yaml")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "Write table logs to this file")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(oracleCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(solveCmd)
	rootCmd.AddCommand(pathsCmd)
	rootCmd.AddCommand(historyCmd)
}

// loadConfig reads .env and the roulette config, then applies --seed.
func loadConfig() config.RouletteConfig {
	if err := config.LoadEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	cfg, err := config.LoadRoulette(flagConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if flagSeed != 0 {
		cfg.Paths.Seed = flagSeed
	}
	return cfg
}

// seed returns --seed, or a time-based seed when it is unset.
func seed() int64 {
	if flagSeed != 0 {
		return flagSeed
	}
	return time.Now().UnixNano()
}

// newLogger returns a timestamped stderr logger.
func newLogger(prefix string) *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
	})
}

// fileLogger logs to --log-file so the alt screen stays clean. The returned
// close func is never nil.
func fileLogger(prefix string) (*log.Logger, func()) {
	if flagLogFile == "" {
		return log.New(io.Discard), func() {}
	}
	f, err := os.OpenFile(flagLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: cannot open log file: %v\n", err)
		return log.New(io.Discard), func() {}
	}
	logger := log.NewWithOptions(f, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
	})
	return logger, func() { f.Close() }
}

// mustOpenStore opens the database or exits.
func mustOpenStore() *storage.Store {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	return store
}
