package paths

import (
	"errors"
	"fmt"
	"sync"

	"github.com/vovakirdan/tui-roulette/internal/physics"
	"github.com/vovakirdan/tui-roulette/internal/wheel"
)

// ErrUnsolvable is returned when no verified path could be produced.
var ErrUnsolvable = errors.New("paths: no verified path for segment")

// Solver computes paths that land on a chosen segment.
//
// The ball's motion does not depend on its launch angle, and the landing
// segment is read relative to the wheel, so shifting InitialAngle shifts the
// final relative angle by the same amount. One reference run therefore fixes
// the angle for every segment.
type Solver struct {
	params     physics.Params
	base       Path
	maxTicks   int
	edgeMargin float64

	once   sync.Once
	settle float64
	err    error
}

// NewSolver creates a solver that keeps base's velocity and outer frames and
// only chooses the angle. Landings closer than edgeMargin to a segment edge
// are rejected.
func NewSolver(p physics.Params, base Path, maxTicks int, edgeMargin float64) *Solver {
	base.InitialAngle = 0
	return &Solver{
		params:     p,
		base:       base,
		maxTicks:   maxTicks,
		edgeMargin: edgeMargin,
	}
}

// Base returns the velocity and frame count every solved path shares.
func (s *Solver) Base() Path {
	return s.base
}

func (s *Solver) reference() (float64, error) {
	s.once.Do(func() {
		res, err := physics.Simulate(s.params, s.base, 0, s.maxTicks)
		if err != nil {
			s.err = fmt.Errorf("paths: reference run: %w", err)
			return
		}
		s.settle = res.SettleAngle
	})
	return s.settle, s.err
}

// Solve returns a verified path landing on the center of segment index.
func (s *Solver) Solve(index int) (Path, error) {
	if !wheel.ValidIndex(index) {
		return Path{}, fmt.Errorf("%w: index %d out of range", ErrUnsolvable, index)
	}
	settle, err := s.reference()
	if err != nil {
		return Path{}, err
	}

	p := s.base
	p.InitialAngle = wheel.NormalizeAngle(wheel.SegmentCenter(index) - settle)

	res, err := physics.Simulate(s.params, p, 0, s.maxTicks)
	if err != nil {
		return Path{}, fmt.Errorf("paths: verify index %d: %w", index, err)
	}
	if res.LandedIndex != index {
		return Path{}, fmt.Errorf("%w: index %d verified on %d", ErrUnsolvable, index, res.LandedIndex)
	}
	if d := wheel.EdgeDistance(res.SettleAngle); d < s.edgeMargin {
		return Path{}, fmt.Errorf("%w: index %d lands %.4f rad from an edge", ErrUnsolvable, index, d)
	}
	return p, nil
}

// SolveNumber is Solve addressed by printed number.
func (s *Solver) SolveNumber(number int) (Path, error) {
	idx, ok := wheel.IndexOf(number)
	if !ok {
		return Path{}, fmt.Errorf("%w: %d", ErrUnknownNumber, number)
	}
	return s.Solve(idx)
}
