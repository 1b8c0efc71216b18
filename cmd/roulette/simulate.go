package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-roulette/internal/physics"
	"github.com/vovakirdan/tui-roulette/internal/wheel"
)

var (
	flagAngle     float64
	flagVelocity  float64
	flagFrames    int
	flagWheelFrom float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run one spin without a screen",
	Long: `Simulate a spin tick by tick and print the phase trace and landing.

Unset path flags fall back to the base path from roulette.yaml. The initial
angle is relative to the wheel, so --wheel does not change the landing.

Examples:
  roulette simulate
  roulette simulate --angle 1.2 --velocity 0.25 --frames 150
  roulette simulate --wheel 3.1`,
	Run: runSimulate,
}

func init() {
	simulateCmd.Flags().Float64Var(&flagAngle, "angle", -1, "Initial angle relative to the wheel (default from config)")
	simulateCmd.Flags().Float64Var(&flagVelocity, "velocity", 0, "Initial angular velocity per tick (default from config)")
	simulateCmd.Flags().IntVar(&flagFrames, "frames", 0, "Outer phase frames (default from config)")
	simulateCmd.Flags().Float64Var(&flagWheelFrom, "wheel", 0, "Wheel rotation at launch")
}

func runSimulate(_ *cobra.Command, _ []string) {
	cfg := loadConfig()

	path := cfg.BasePath()
	if flagAngle >= 0 {
		path.InitialAngle = flagAngle
	}
	if flagVelocity != 0 {
		path.InitialVelocity = flagVelocity
	}
	if flagFrames != 0 {
		path.OuterPhaseFrames = flagFrames
	}
	if err := path.Validate(cfg.Spin.MaxOuterFrames); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	res, err := physics.Simulate(cfg.PhysicsParams(), path, flagWheelFrom, cfg.Spin.MaxTicks)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Path: angle %.6f  velocity %.6f  outer frames %d\n",
		path.InitialAngle, path.InitialVelocity, path.OuterPhaseFrames)
	fmt.Println()

	fmt.Printf("  %-8s  %s\n", "Tick", "Phase")
	fmt.Printf("  %-8s  %s\n", "----", "-----")
	for _, pc := range res.Phases {
		name := pc.Phase.String()
		if pc.Phase == physics.PhaseNone {
			name = "landed"
		}
		fmt.Printf("  %-8d  %s\n", pc.Tick, name)
	}

	fmt.Println()
	fmt.Printf("Landed:   %d %s (index %d)\n", res.LandedNumber, wheel.ColorOf(res.LandedNumber), res.LandedIndex)
	fmt.Printf("Ticks:    %d\n", res.Ticks)
	fmt.Printf("Bounces:  %d\n", res.Bounces)
	fmt.Printf("Margin:   %.4f rad from the pocket edge\n", wheel.EdgeDistance(res.SettleAngle))
	fmt.Printf("Outer:    %.3f rad travelled\n", res.OuterDistance)
}
