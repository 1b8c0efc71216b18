package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/tui-roulette/internal/platform/tui"
)

var (
	flagHistoryLimit int
	flagHistoryPlain bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent spins",
	Long: `Browse the spin history recorded by local and SSH tables.

On a terminal the history opens in an interactive table; use --plain or
pipe the output for a text listing.

Examples:
  roulette history
  roulette history --plain --limit 50`,
	Run: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 20, "Number of spins to print in plain mode")
	historyCmd.Flags().BoolVar(&flagHistoryPlain, "plain", false, "Print a text listing instead of the interactive table")
}

func runHistory(_ *cobra.Command, _ []string) {
	store := mustOpenStore()
	defer store.Close()

	fd := int(os.Stdout.Fd())
	if !flagHistoryPlain && term.IsTerminal(fd) {
		width, height := 80, 24
		if w, h, err := term.GetSize(fd); err == nil {
			width, height = w, h
		}
		if err := tui.RunHistory(store, width, height); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	ctx := context.Background()
	spins, err := store.RecentSpins(ctx, flagHistoryLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error retrieving spins: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Recent spins")
	fmt.Println()

	if len(spins) == 0 {
		fmt.Println("No spins recorded yet.")
		fmt.Println()
		fmt.Println("Play 'roulette play' to record the first spin!")
		return
	}

	fmt.Printf("  %-8s  %-4s  %-5s  %-11s  %-6s  %-10s  %s\n", "Spin", "Win", "Land", "Path", "Ticks", "Balance", "Date")
	fmt.Printf("  %-8s  %-4s  %-5s  %-11s  %-6s  %-10s  %s\n", "----", "---", "----", "----", "-----", "-------", "----")
	for _, s := range spins {
		id := s.SpinID
		if len(id) > 8 {
			id = id[:8]
		}
		land := fmt.Sprint(s.LandedNumber)
		if s.Mismatch {
			land += "!"
		}
		fmt.Printf("  %-8s  %-4d  %-5s  %-11s  %-6d  %-10s  %s\n",
			id, s.WinningNumber, land, s.Source, s.Ticks, s.Balance.StringFixed(2),
			s.CreatedAt.Format("2006-01-02 15:04"))
	}

	stats, err := store.Stats(ctx)
	if err == nil {
		fmt.Println()
		fmt.Printf("Total: %d spins, %d mismatches\n", stats.Spins, stats.Mismatches)
	}
}
