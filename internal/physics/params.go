// Package physics implements the roulette ball simulator: a fixed-step state
// machine that carries the ball around the outer track, drops it onto the
// inner track, bounces it to rest and glues it into a pocket.
//
// Every quantity is expressed per tick (one nominal 1/60s frame). Radii are
// fractions of the wheel radius. Nothing in this package reads the clock or
// draws random numbers, so equal inputs always replay to equal landings.
package physics

import (
	"errors"
	"fmt"
	"math"
)

// Params holds the fixed constants of the dynamical system.
// Only a spin's Path varies between spins; these never change mid-spin.
type Params struct {
	WheelSpeed      float64 // Wheel rotation per tick (radians)
	OuterRadius     float64 // Radius of the outer track
	InnerRadius     float64 // Radius of the pocket ring
	OuterFriction   float64 // Angular velocity multiplier per outer tick, in (0, 1)
	InnerFriction   float64 // Angular velocity multiplier per inner tick, in (0, 1)
	FallSpeed       float64 // Radius lost per falling tick
	Gravity         float64 // Vertical velocity lost per inner tick
	LaunchVelocity  float64 // Upward velocity on entering the inner track
	MaxHeight       float64 // Height of the outer ceiling
	BounceDamping   float64 // Floor bounce restitution, in [0, 1)
	CeilingDamping  float64 // Ceiling bounce restitution, in [0, 1)
	BounceThreshold float64 // Impact speed below which the ball comes to rest
	StopVelocity    float64 // Angular speed below which the ball may stick
	MinBounces      int     // Bounces required before the ball may stick
}

// DefaultParams returns the tuning used by the shipped configuration.
func DefaultParams() Params {
	return Params{
		WheelSpeed:      0.01,
		OuterRadius:     0.88,
		InnerRadius:     0.62,
		OuterFriction:   0.992,
		InnerFriction:   0.975,
		FallSpeed:       0.01,
		Gravity:         0.0015,
		LaunchVelocity:  0.03,
		MaxHeight:       0.2,
		BounceDamping:   0.6,
		CeilingDamping:  0.5,
		BounceThreshold: 0.01,
		StopVelocity:    0.001,
		MinBounces:      3,
	}
}

// ErrInvalidParams is returned by Params.Validate.
var ErrInvalidParams = errors.New("physics: invalid parameters")

// Validate checks the constraints that guarantee every spin terminates.
func (p Params) Validate() error {
	check := func(ok bool, format string, args ...any) error {
		if ok {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrInvalidParams, fmt.Sprintf(format, args...))
	}

	checks := []error{
		check(finite(p.WheelSpeed), "wheel speed must be finite"),
		check(p.InnerRadius > 0 && p.InnerRadius < p.OuterRadius,
			"inner radius %v must be in (0, outer radius %v)", p.InnerRadius, p.OuterRadius),
		check(p.OuterFriction > 0 && p.OuterFriction < 1, "outer friction %v must be in (0, 1)", p.OuterFriction),
		check(p.InnerFriction > 0 && p.InnerFriction < 1, "inner friction %v must be in (0, 1)", p.InnerFriction),
		check(p.FallSpeed > 0, "fall speed must be positive"),
		check(p.Gravity > 0, "gravity must be positive"),
		check(p.LaunchVelocity >= 0, "launch velocity must not be negative"),
		check(p.MaxHeight > 0, "max height must be positive"),
		check(p.BounceDamping >= 0 && p.BounceDamping < 1, "bounce damping %v must be in [0, 1)", p.BounceDamping),
		check(p.CeilingDamping >= 0 && p.CeilingDamping < 1, "ceiling damping %v must be in [0, 1)", p.CeilingDamping),
		check(p.BounceThreshold > p.Gravity, "bounce threshold must exceed gravity"),
		check(p.StopVelocity > 0, "stop velocity must be positive"),
		check(p.MinBounces >= 0, "min bounces must not be negative"),
	}
	return errors.Join(checks...)
}

// Path is the set of initial conditions for one spin.
//
// InitialAngle is measured from the wheel's rotation at the moment the spin
// starts, so a path lands on the same segment whatever the wheel's phase.
type Path struct {
	InitialAngle     float64 `json:"initialAngle" yaml:"initial_angle"`
	InitialVelocity  float64 `json:"initialVelocity" yaml:"initial_velocity"`
	OuterPhaseFrames int     `json:"outerPhaseFrames" yaml:"outer_phase_frames"`
}

// ErrInvalidPath is returned by Path.Validate.
var ErrInvalidPath = errors.New("physics: invalid path")

// Validate rejects paths that cannot be simulated or would stall the outer phase.
func (p Path) Validate(maxOuterFrames int) error {
	if !finite(p.InitialAngle) || !finite(p.InitialVelocity) {
		return fmt.Errorf("%w: non-finite angle or velocity", ErrInvalidPath)
	}
	if p.OuterPhaseFrames < 1 {
		return fmt.Errorf("%w: outer phase frames %d must be positive", ErrInvalidPath, p.OuterPhaseFrames)
	}
	if maxOuterFrames > 0 && p.OuterPhaseFrames > maxOuterFrames {
		return fmt.Errorf("%w: outer phase frames %d exceed limit %d", ErrInvalidPath, p.OuterPhaseFrames, maxOuterFrames)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
