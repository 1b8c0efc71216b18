// Package config provides YAML-based configuration loading for the roulette
// table: wheel geometry, ball physics, spin defaults, path store and oracle.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vovakirdan/tui-roulette/internal/paths"
	"github.com/vovakirdan/tui-roulette/internal/physics"
	"github.com/vovakirdan/tui-roulette/internal/wheel"
)

// RouletteConfig contains all configuration for the roulette table.
type RouletteConfig struct {
	Wheel   WheelConfig   `yaml:"wheel"`
	Physics PhysicsConfig `yaml:"physics"`
	Spin    SpinConfig    `yaml:"spin"`
	Paths   PathsConfig   `yaml:"paths"`
	Oracle  OracleConfig  `yaml:"oracle"`
}

// WheelConfig defines the wheel geometry.
type WheelConfig struct {
	Segments    int     `yaml:"segments"` // Must be 37
	Speed       float64 `yaml:"speed"`    // Radians per tick
	OuterRadius float64 `yaml:"outer_radius"`
	InnerRadius float64 `yaml:"inner_radius"`
}

// PhysicsConfig defines the ball dynamics.
type PhysicsConfig struct {
	OuterFriction   float64 `yaml:"outer_friction"`
	InnerFriction   float64 `yaml:"inner_friction"`
	FallSpeed       float64 `yaml:"fall_speed"`
	Gravity         float64 `yaml:"gravity"`
	LaunchVelocity  float64 `yaml:"launch_velocity"`
	MaxHeight       float64 `yaml:"max_height"`
	BounceDamping   float64 `yaml:"bounce_damping"`
	CeilingDamping  float64 `yaml:"ceiling_damping"`
	BounceThreshold float64 `yaml:"bounce_threshold"`
	StopVelocity    float64 `yaml:"stop_velocity"`
	MinBounces      int     `yaml:"min_bounces"`
}

// SpinConfig defines the base launch and the limits applied to every spin.
type SpinConfig struct {
	BaseAngle        float64 `yaml:"base_angle"`
	BaseVelocity     float64 `yaml:"base_velocity"`
	OuterPhaseFrames int     `yaml:"outer_phase_frames"`
	MaxOuterFrames   int     `yaml:"max_outer_frames"` // Paths with more outer frames are rejected
	MaxTicks         int     `yaml:"max_ticks"`        // Headless simulation budget
	EdgeMargin       float64 `yaml:"edge_margin"`      // Solver rejects landings this close to an edge
	AngleJitter      float64 `yaml:"angle_jitter"`
	VelocityJitter   float64 `yaml:"velocity_jitter"`
}

// PathsConfig defines how spin paths are sourced and recorded.
type PathsConfig struct {
	Solve          bool  `yaml:"solve"`           // Use the solver before falling back to jitter
	RecordLandings bool  `yaml:"record_landings"` // Store every observed landing
	Seed           int64 `yaml:"seed"`
	ExploreWorkers int   `yaml:"explore_workers"` // 0 = GOMAXPROCS
}

// OracleConfig defines the outcome oracle.
type OracleConfig struct {
	URL             string        `yaml:"url"` // Remote oracle; empty for the local one
	Listen          string        `yaml:"listen"`
	Currency        string        `yaml:"currency"`
	StartingBalance string        `yaml:"starting_balance"`
	BetAmount       string        `yaml:"bet_amount"`
	AttachPath      bool          `yaml:"attach_path"` // Local oracle sends solved paths
	Timeout         time.Duration `yaml:"timeout"`
	Retries         int           `yaml:"retries"`
}

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Validate checks the configuration for values the engine cannot run with.
func (c RouletteConfig) Validate() error {
	var errs []error
	if c.Wheel.Segments != wheel.SegmentCount {
		errs = append(errs, fmt.Errorf("%w: wheel.segments must be %d, got %d",
			ErrInvalidConfig, wheel.SegmentCount, c.Wheel.Segments))
	}
	if err := c.PhysicsParams().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalidConfig, err))
	}
	if err := c.BasePath().Validate(c.Spin.MaxOuterFrames); err != nil {
		errs = append(errs, fmt.Errorf("%w: spin base path: %w", ErrInvalidConfig, err))
	}
	if c.Spin.MaxTicks <= 0 {
		errs = append(errs, fmt.Errorf("%w: spin.max_ticks must be positive", ErrInvalidConfig))
	}
	if c.Spin.EdgeMargin < 0 || c.Spin.EdgeMargin >= wheel.SegmentAngleWidth()/2 {
		errs = append(errs, fmt.Errorf("%w: spin.edge_margin must be in [0, %.4f)",
			ErrInvalidConfig, wheel.SegmentAngleWidth()/2))
	}
	if c.Spin.AngleJitter < 0 || c.Spin.VelocityJitter < 0 {
		errs = append(errs, fmt.Errorf("%w: jitter must not be negative", ErrInvalidConfig))
	}
	if _, err := decimal.NewFromString(c.Oracle.StartingBalance); err != nil {
		errs = append(errs, fmt.Errorf("%w: oracle.starting_balance: %w", ErrInvalidConfig, err))
	}
	if bet, err := decimal.NewFromString(c.Oracle.BetAmount); err != nil || !bet.IsPositive() {
		errs = append(errs, fmt.Errorf("%w: oracle.bet_amount must be a positive amount", ErrInvalidConfig))
	}
	return errors.Join(errs...)
}

// PhysicsParams converts the wheel and physics sections to simulator constants.
func (c RouletteConfig) PhysicsParams() physics.Params {
	return physics.Params{
		WheelSpeed:      c.Wheel.Speed,
		OuterRadius:     c.Wheel.OuterRadius,
		InnerRadius:     c.Wheel.InnerRadius,
		OuterFriction:   c.Physics.OuterFriction,
		InnerFriction:   c.Physics.InnerFriction,
		FallSpeed:       c.Physics.FallSpeed,
		Gravity:         c.Physics.Gravity,
		LaunchVelocity:  c.Physics.LaunchVelocity,
		MaxHeight:       c.Physics.MaxHeight,
		BounceDamping:   c.Physics.BounceDamping,
		CeilingDamping:  c.Physics.CeilingDamping,
		BounceThreshold: c.Physics.BounceThreshold,
		StopVelocity:    c.Physics.StopVelocity,
		MinBounces:      c.Physics.MinBounces,
	}
}

// BasePath returns the configured base launch.
func (c RouletteConfig) BasePath() physics.Path {
	return physics.Path{
		InitialAngle:     c.Spin.BaseAngle,
		InitialVelocity:  c.Spin.BaseVelocity,
		OuterPhaseFrames: c.Spin.OuterPhaseFrames,
	}
}

// StoreOptions returns the path store tuning.
func (c RouletteConfig) StoreOptions() paths.Options {
	return paths.Options{
		Seed:           c.Paths.Seed,
		AngleJitter:    c.Spin.AngleJitter,
		VelocityJitter: c.Spin.VelocityJitter,
		OuterFrames:    c.Spin.OuterPhaseFrames,
		MaxOuterFrames: c.Spin.MaxOuterFrames,
	}
}

// NewSolver builds a solver from the configuration.
func (c RouletteConfig) NewSolver() *paths.Solver {
	return paths.NewSolver(c.PhysicsParams(), c.BasePath(), c.Spin.MaxTicks, c.Spin.EdgeMargin)
}
