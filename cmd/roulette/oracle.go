package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/tui-roulette/internal/oracle"
	"github.com/vovakirdan/tui-roulette/internal/paths"
)

var flagListen string

var oracleCmd = &cobra.Command{
	Use:   "oracle",
	Short: "Run the HTTP spin oracle",
	Long: `Serve spin outcomes over HTTP for remote tables.

Each POST to /api/v1/spin settles a straight-up bet against an in-memory
balance and returns the winning index together with a path that lands on it
(unless oracle.attach_path is false).

Examples:
  roulette oracle
  roulette oracle --listen :9090 --seed 42`,
	Run: runOracle,
}

func init() {
	oracleCmd.Flags().StringVar(&flagListen, "listen", "", "Address to listen on (default from config)")
}

func runOracle(_ *cobra.Command, _ []string) {
	cfg := loadConfig()
	addr := cfg.Oracle.Listen
	if flagListen != "" {
		addr = flagListen
	}

	balance, err := decimal.NewFromString(cfg.Oracle.StartingBalance)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid starting balance: %v\n", err)
		os.Exit(1)
	}
	var solver *paths.Solver
	if cfg.Oracle.AttachPath {
		solver = cfg.NewSolver()
	}
	local := oracle.NewLocalOracle(seed(), balance, solver)

	logger := newLogger("roulette-oracle")
	srv := &http.Server{
		Addr:              addr,
		Handler:           oracle.NewServer(local, logger).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting oracle", "address", addr, "balance", balance)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
