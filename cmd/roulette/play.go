package main

import (
	"context"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/tui-roulette/internal/core"
	"github.com/vovakirdan/tui-roulette/internal/oracle"
	"github.com/vovakirdan/tui-roulette/internal/paths"
	"github.com/vovakirdan/tui-roulette/internal/platform/tui"
	"github.com/vovakirdan/tui-roulette/internal/roulette"
	"github.com/vovakirdan/tui-roulette/internal/storage"
	"github.com/vovakirdan/tui-roulette/internal/wheel"
)

var (
	flagOracleURL string
	flagBet       int
	flagAmount    string
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play at a local table",
	Long: `Open a roulette table in the terminal.

Without --oracle the outcomes come from a local seeded oracle. With --oracle
every spin is requested from a remote oracle and the ball is steered to
the number it returns.

Controls:
  Space/Enter - Spin
  R           - Toggle recording of landing paths
  Ctrl+S      - Screenshot
  Q/Ctrl+C    - Quit

Examples:
  roulette play
  roulette play --bet 0 --amount 5
  roulette play --oracle http://localhost:8080 --log-file table.log`,
	Run: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&flagOracleURL, "oracle", "", "Remote oracle URL (overrides config and ROULETTE_ORACLE_URL)")
	playCmd.Flags().IntVar(&flagBet, "bet", 17, "Number to bet on")
	playCmd.Flags().StringVar(&flagAmount, "amount", "", "Bet amount (default from config)")
}

func runPlay(_ *cobra.Command, _ []string) {
	cfg := loadConfig()
	if flagOracleURL != "" {
		cfg.Oracle.URL = flagOracleURL
	}
	if flagAmount != "" {
		cfg.Oracle.BetAmount = flagAmount
	}
	if _, ok := wheel.IndexOf(flagBet); !ok {
		fmt.Fprintf(os.Stderr, "Error: %d is not on the wheel\n", flagBet)
		os.Exit(1)
	}
	bet, err := decimal.NewFromString(cfg.Oracle.BetAmount)
	if err != nil || !bet.IsPositive() {
		fmt.Fprintf(os.Stderr, "Error: invalid bet amount %q\n", cfg.Oracle.BetAmount)
		os.Exit(1)
	}

	width, height := 80, 24
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		width = w
		height = h
	}

	logger, closeLog := fileLogger("roulette")
	defer closeLog()

	s := seed()
	o, err := oracle.FromConfig(cfg, s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Paths and history need the database; the table still plays without it.
	var repo paths.Repository = paths.NewMemoryRepository()
	var history roulette.HistoryStore
	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open database: %v\n", err)
	} else {
		defer store.Close()
		repo = store
		history = store
	}

	table := roulette.NewTable(roulette.TableOptions{
		Config:     cfg,
		Store:      paths.NewStore(repo, cfg.StoreOptions()),
		History:    history,
		Logger:     logger,
		WheelStart: wheel.NormalizeAngle(float64(s % 1000)),
		BetNumber:  flagBet,
	})

	logger.Info("table opened", "oracle", cfg.Oracle.URL, "bet", flagBet, "amount", bet)

	runErr := tui.Run(tui.Options{
		Table:     table,
		Oracle:    o,
		Currency:  cfg.Oracle.Currency,
		BetAmount: bet,
		Logger:    logger,
		Context:   context.Background(),
		Config: core.RuntimeConfig{
			ScreenW:  width,
			ScreenH:  height,
			TickRate: flagFPS,
			Seed:     s,
		},
	})
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error running table: %v\n", runErr)
		os.Exit(1)
	}
}
