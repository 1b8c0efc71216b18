package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-roulette/internal/paths"
	"github.com/vovakirdan/tui-roulette/internal/wheel"
)

var (
	flagExploreCount int
	flagPathsFile    string
)

var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Manage recorded landing paths",
	Long: `Inspect and grow the table of recorded landing paths.

Subcommands:
  list     - Show how many paths are recorded per number
  export   - Write all paths as JSON
  import   - Read paths from JSON
  explore  - Simulate jittered spins and record where they land

Examples:
  roulette paths list
  roulette paths export --file paths.json
  roulette paths import --file paths.json
  roulette paths explore --count 1000`,
}

var pathsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show recorded paths per number",
	Run:   runPathsList,
}

var pathsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write recorded paths as JSON",
	Run:   runPathsExport,
}

var pathsImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Read recorded paths from JSON",
	Long: `Import paths from a JSON array as written by 'roulette paths export'.
The whole file is rejected if any record is invalid.`,
	Run: runPathsImport,
}

var pathsExploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Record landings of simulated jittered spins",
	Run:   runPathsExplore,
}

func init() {
	pathsExportCmd.Flags().StringVar(&flagPathsFile, "file", "", "Output file (default stdout)")
	pathsImportCmd.Flags().StringVar(&flagPathsFile, "file", "", "Input file (default stdin)")
	pathsExploreCmd.Flags().IntVar(&flagExploreCount, "count", 370, "Number of candidate spins to simulate")

	pathsCmd.AddCommand(pathsListCmd)
	pathsCmd.AddCommand(pathsExportCmd)
	pathsCmd.AddCommand(pathsImportCmd)
	pathsCmd.AddCommand(pathsExploreCmd)
}

func runPathsList(_ *cobra.Command, _ []string) {
	store := mustOpenStore()
	defer store.Close()

	counts, err := store.PathCounts(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading paths: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("  %-6s  %-6s  %s\n", "Number", "Color", "Paths")
	fmt.Printf("  %-6s  %-6s  %s\n", "------", "-----", "-----")
	covered := 0
	for _, seg := range wheel.Segments() {
		n := counts[seg.Number]
		if n > 0 {
			covered++
		}
		fmt.Printf("  %-6d  %-6s  %d\n", seg.Number, wheel.ColorOf(seg.Number), n)
	}
	fmt.Println()
	fmt.Printf("Covered: %d of %d numbers\n", covered, wheel.SegmentCount)
}

func runPathsExport(_ *cobra.Command, _ []string) {
	cfg := loadConfig()
	store := mustOpenStore()
	defer store.Close()

	var w io.Writer = os.Stdout
	if flagPathsFile != "" {
		f, err := os.Create(flagPathsFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}

	if err := paths.NewStore(store, cfg.StoreOptions()).ExportAll(context.Background(), w); err != nil {
		fmt.Fprintf(os.Stderr, "Error exporting paths: %v\n", err)
		os.Exit(1)
	}
}

func runPathsImport(_ *cobra.Command, _ []string) {
	cfg := loadConfig()
	store := mustOpenStore()
	defer store.Close()

	var r io.Reader = os.Stdin
	if flagPathsFile != "" {
		f, err := os.Open(flagPathsFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		r = f
	}

	n, err := paths.NewStore(store, cfg.StoreOptions()).ImportAll(context.Background(), r)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error importing paths: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Imported %d paths\n", n)
}

func runPathsExplore(_ *cobra.Command, _ []string) {
	cfg := loadConfig()
	store := mustOpenStore()
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := newLogger("roulette-explore")
	explorer := &paths.Explorer{
		Store:        paths.NewStore(store, cfg.StoreOptions()),
		Params:       cfg.PhysicsParams(),
		BaseAngle:    cfg.Spin.BaseAngle,
		BaseVelocity: cfg.Spin.BaseVelocity,
		MaxTicks:     cfg.Spin.MaxTicks,
		Workers:      cfg.Paths.ExploreWorkers,
	}

	logger.Info("exploring", "candidates", flagExploreCount, "seed", cfg.Paths.Seed)
	report, err := explorer.Explore(ctx, flagExploreCount)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error exploring: %v\n", err)
		os.Exit(1)
	}
	logger.Info("exploration finished",
		"simulated", report.Simulated,
		"recorded", report.Recorded,
		"failed", report.Failed,
		"covered", report.Covered(),
	)
}
