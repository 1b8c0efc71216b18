package physics

import (
	"math"

	"github.com/vovakirdan/tui-roulette/internal/wheel"
)

// Phase is the motion law currently applied to the ball.
type Phase int

const (
	PhaseNone    Phase = iota // Not spinning; see BallState.Stuck
	PhaseOuter                // Rolling on the outer track
	PhaseFalling              // Dropping toward the pocket ring
	PhaseInner                // Bouncing over the pockets
)

// String returns a human-readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseNone:
		return "none"
	case PhaseOuter:
		return "outer"
	case PhaseFalling:
		return "falling"
	case PhaseInner:
		return "inner"
	default:
		return "unknown"
	}
}

// Event reports what changed during a Step.
type Event int

const (
	EventNone    Event = iota
	EventFall          // Outer -> Falling
	EventInner         // Falling -> Inner
	EventBounce        // Floor bounce
	EventCeiling       // Ceiling bounce
	EventLanded        // Inner -> stuck
)

// String returns a human-readable event name.
func (e Event) String() string {
	switch e {
	case EventNone:
		return "none"
	case EventFall:
		return "fall"
	case EventInner:
		return "inner"
	case EventBounce:
		return "bounce"
	case EventCeiling:
		return "ceiling"
	case EventLanded:
		return "landed"
	default:
		return "unknown"
	}
}

// WheelState is the rotation of the wheel, which never stops turning.
type WheelState struct {
	Rotation float64
}

// Advance returns the wheel turned by speed radians.
func (w WheelState) Advance(speed float64) WheelState {
	w.Rotation = wheel.NormalizeAngle(w.Rotation + speed)
	return w
}

// BallState is the complete mutable state of the ball for one spin.
type BallState struct {
	Phase            Phase
	Stuck            bool    // Set on landing; Phase is back to PhaseNone
	Angle            float64 // Absolute angle, unbounded
	AngularVelocity  float64 // Radians per tick
	Radius           float64
	Height           float64 // Vertical offset above the track, inner phase only
	VerticalVelocity float64
	BounceCount      int

	LandedIndex int     // Segment the ball rests in, -1 until stuck
	SettleAngle float64 // Wheel-relative angle at the instant of sticking
	TargetIndex int     // Segment the spin was asked to reach, -1 if unknown

	OuterFrames int // Outer ticks requested by the path
	OuterTicks  int // Outer ticks elapsed
	Ticks       int // Ticks since launch
}

// NewBallState returns an idle ball that is not on the wheel.
func NewBallState() BallState {
	return BallState{LandedIndex: -1, TargetIndex: -1}
}

// Active reports whether a spin is in flight.
func (b BallState) Active() bool {
	return b.Phase != PhaseNone
}

// RelativeAngle returns the ball's angle measured from the wheel's zero edge.
func (b BallState) RelativeAngle(w WheelState) float64 {
	return wheel.NormalizeAngle(b.Angle - w.Rotation)
}

// Launch returns a fresh ball rolling on the outer track at the path's
// initial conditions.
func Launch(target int, path Path, w WheelState, p Params) BallState {
	return BallState{
		Phase:           PhaseOuter,
		Angle:           w.Rotation + path.InitialAngle,
		AngularVelocity: path.InitialVelocity,
		Radius:          p.OuterRadius,
		LandedIndex:     -1,
		TargetIndex:     target,
		OuterFrames:     path.OuterPhaseFrames,
	}
}

// Step advances the ball by exactly one tick against the wheel's current
// (already advanced) rotation.
func Step(b BallState, w WheelState, p Params) (BallState, Event) {
	switch b.Phase {
	case PhaseOuter:
		return stepOuter(b, p)
	case PhaseFalling:
		return stepFalling(b, p)
	case PhaseInner:
		return stepInner(b, w, p)
	}

	// Glued to its pocket, turning with the wheel.
	if b.Stuck {
		b.Angle = w.Rotation + wheel.SegmentCenter(b.LandedIndex)
		b.Radius = p.InnerRadius
	}
	return b, EventNone
}

func stepOuter(b BallState, p Params) (BallState, Event) {
	b.Ticks++
	b.Angle += b.AngularVelocity
	b.AngularVelocity *= p.OuterFriction
	b.Radius = p.OuterRadius
	b.OuterTicks++

	if b.OuterTicks >= b.OuterFrames {
		b.Phase = PhaseFalling
		return b, EventFall
	}
	return b, EventNone
}

func stepFalling(b BallState, p Params) (BallState, Event) {
	b.Ticks++
	b.Radius -= p.FallSpeed

	if b.Radius <= p.InnerRadius {
		b.Radius = p.InnerRadius
		b.Height = 0
		b.VerticalVelocity = p.LaunchVelocity
		b.Phase = PhaseInner
		return b, EventInner
	}
	return b, EventNone
}

func stepInner(b BallState, w WheelState, p Params) (BallState, Event) {
	b.Ticks++
	ev := EventNone

	b.Angle += b.AngularVelocity
	b.AngularVelocity *= p.InnerFriction

	b.VerticalVelocity -= p.Gravity
	b.Height += b.VerticalVelocity

	if b.Height <= 0 {
		b.Height = 0
		impact := -b.VerticalVelocity
		if impact > p.BounceThreshold || b.BounceCount < p.MinBounces {
			b.VerticalVelocity = impact * p.BounceDamping
			b.BounceCount++
			ev = EventBounce
		} else {
			b.VerticalVelocity = 0
		}
	} else if b.Height >= p.MaxHeight && b.VerticalVelocity > 0 {
		b.Height = p.MaxHeight
		b.VerticalVelocity = -b.VerticalVelocity * p.CeilingDamping
		b.BounceCount++
		ev = EventCeiling
	}

	b.Radius = p.InnerRadius + (p.OuterRadius-p.InnerRadius)*(b.Height/p.MaxHeight)

	if math.Abs(b.AngularVelocity) < p.StopVelocity && b.Height == 0 && b.BounceCount >= p.MinBounces {
		return settle(b, w, p), EventLanded
	}
	return b, ev
}

// settle fixes the landed segment from the wheel's rotation at this instant.
func settle(b BallState, w WheelState, p Params) BallState {
	b.SettleAngle = b.RelativeAngle(w)
	b.LandedIndex = wheel.SegmentAt(b.SettleAngle)
	b.Phase = PhaseNone
	b.Stuck = true
	b.AngularVelocity = 0
	b.VerticalVelocity = 0
	b.Height = 0
	b.Angle = w.Rotation + wheel.SegmentCenter(b.LandedIndex)
	b.Radius = p.InnerRadius
	return b
}
