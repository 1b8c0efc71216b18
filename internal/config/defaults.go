package config

import (
	_ "embed"
	"time"
)

//go:embed defaults/roulette.yaml
var defaultRouletteYAML []byte

// DefaultRouletteConfig returns the default roulette configuration.
func DefaultRouletteConfig() RouletteConfig {
	return RouletteConfig{
		Wheel: WheelConfig{
			Segments:    37,
			Speed:       0.01,
			OuterRadius: 0.88,
			InnerRadius: 0.62,
		},
		Physics: PhysicsConfig{
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
		},
		Spin: SpinConfig{
			BaseAngle:        4.0307811203308,
			BaseVelocity:     0.22999430561133852,
			OuterPhaseFrames: 120,
			MaxOuterFrames:   600,
			MaxTicks:         20000,
			EdgeMargin:       0.01,
			AngleJitter:      0.1,
			VelocityJitter:   0.02,
		},
		Paths: PathsConfig{
			Solve:          true,
			RecordLandings: true,
			Seed:           1,
		},
		Oracle: OracleConfig{
			Listen:          ":8080",
			Currency:        "usd",
			StartingBalance: "1000",
			BetAmount:       "10",
			AttachPath:      true,
			Timeout:         5 * time.Second,
			Retries:         3,
		},
	}
}

// DefaultYAML returns the embedded default configuration file.
func DefaultYAML() []byte {
	return defaultRouletteYAML
}
