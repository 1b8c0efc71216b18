package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-roulette/internal/physics"
)

var solveCmd = &cobra.Command{
	Use:   "solve <number>",
	Short: "Print a path that lands on a number",
	Long: `Compute the launch angle that makes the base path settle on a number,
then verify it by simulation.

Examples:
  roulette solve 0
  roulette solve 32 --config ./fast-wheel.yaml`,
	Args: cobra.ExactArgs(1),
	Run:  runSolve,
}

func runSolve(_ *cobra.Command, args []string) {
	number, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %q is not a number\n", args[0])
		os.Exit(1)
	}

	cfg := loadConfig()
	path, err := cfg.NewSolver().SolveNumber(number)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	res, err := physics.Simulate(cfg.PhysicsParams(), path, 0, cfg.Spin.MaxTicks)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error verifying path: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Number:        %d\n", number)
	fmt.Printf("Angle:         %.12f\n", path.InitialAngle)
	fmt.Printf("Velocity:      %.12f\n", path.InitialVelocity)
	fmt.Printf("Outer frames:  %d\n", path.OuterPhaseFrames)
	fmt.Printf("Lands on:      %d after %d ticks\n", res.LandedNumber, res.Ticks)
}
