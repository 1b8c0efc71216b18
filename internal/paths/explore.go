package paths

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/tui-roulette/internal/physics"
	"github.com/vovakirdan/tui-roulette/internal/wheel"
)

// Explorer grows a store's coverage by simulating approximate candidates
// offline and recording where each one landed.
type Explorer struct {
	Store        *Store
	Params       physics.Params
	BaseAngle    float64
	BaseVelocity float64
	MaxTicks     int
	Workers      int // Parallel simulations, GOMAXPROCS when zero
}

// Exploration summarises one Explore run.
type Exploration struct {
	Simulated int
	Recorded  int
	Failed    int         // Candidates that exhausted the tick budget
	Landings  map[int]int // Landing number -> count
}

// Covered returns how many distinct numbers were observed.
func (e Exploration) Covered() int {
	return len(e.Landings)
}

// Explore simulates count candidates aimed round-robin at every number.
// Candidates are drawn before any simulation starts, so a given store seed
// always records the same entries in the same order.
func (e *Explorer) Explore(ctx context.Context, count int) (Exploration, error) {
	report := Exploration{Landings: make(map[int]int)}
	if count <= 0 {
		return report, nil
	}

	candidates := make([]Path, count)
	for i := range candidates {
		number := wheel.NumberAt(i % wheel.SegmentCount)
		candidates[i] = e.Store.Approximate(number, e.BaseAngle, e.BaseVelocity)
	}

	results := make([]physics.Result, count)
	landed := make([]bool, count)

	g, gctx := errgroup.WithContext(ctx)
	workers := e.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(workers)

	for i, p := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := physics.Simulate(e.Params, p, 0, e.MaxTicks)
			if err != nil {
				// A stalled candidate is reported, not fatal.
				return nil
			}
			results[i] = res
			landed[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, fmt.Errorf("paths: explore: %w", err)
	}

	for i, p := range candidates {
		report.Simulated++
		if !landed[i] {
			report.Failed++
			continue
		}
		number := results[i].LandedNumber
		if err := e.Store.Record(ctx, p, number); err != nil {
			return report, err
		}
		report.Recorded++
		report.Landings[number]++
	}
	return report, nil
}
