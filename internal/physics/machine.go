package physics

import (
	"errors"
	"fmt"

	"github.com/vovakirdan/tui-roulette/internal/wheel"
)

// Machine owns the ball state of one table and enforces that at most one
// spin is in flight.
type Machine struct {
	params Params
	state  BallState
}

// NewMachine creates an idle machine.
func NewMachine(p Params) *Machine {
	return &Machine{
		params: p,
		state:  NewBallState(),
	}
}

// Spin launches the ball toward target along path.
// The call is ignored, and false returned, while a spin is in flight.
func (m *Machine) Spin(target int, path Path, w WheelState) bool {
	if m.state.Active() {
		return false
	}
	m.state = Launch(target, path, w, m.params)
	return true
}

// Step advances the ball one tick against the already-advanced wheel.
func (m *Machine) Step(w WheelState) Event {
	var ev Event
	m.state, ev = Step(m.state, w, m.params)
	return ev
}

// State returns a copy of the current ball state.
func (m *Machine) State() BallState {
	return m.state
}

// Active reports whether a spin is in flight.
func (m *Machine) Active() bool {
	return m.state.Active()
}

// Params returns the constants the machine runs with.
func (m *Machine) Params() Params {
	return m.params
}

// ErrNoLanding is returned when a headless run exhausts its tick budget.
var ErrNoLanding = errors.New("physics: ball did not land within tick budget")

// PhaseChange marks the tick on which the ball entered a phase.
type PhaseChange struct {
	Phase Phase
	Tick  int
}

// Result summarises a headless simulation.
type Result struct {
	LandedIndex   int
	LandedNumber  int
	SettleAngle   float64 // Wheel-relative angle when the ball stuck
	Ticks         int
	WheelEnd      float64
	Bounces       int
	Phases        []PhaseChange
	BouncePeaks   []float64 // Highest point of each arc between floor contacts
	OuterDistance float64   // Radians travelled on the outer track
}

// Simulate runs a spin from launch to landing without rendering.
// The wheel starts at wheelStart and advances before every ball step,
// exactly as the live loop does.
func Simulate(p Params, path Path, wheelStart float64, maxTicks int) (Result, error) {
	w := WheelState{Rotation: wheel.NormalizeAngle(wheelStart)}
	b := Launch(-1, path, w, p)

	res := Result{
		LandedIndex: -1,
		Phases:      []PhaseChange{{Phase: PhaseOuter, Tick: 0}},
	}
	launchAngle := b.Angle
	var arcPeak float64

	for tick := 1; tick <= maxTicks; tick++ {
		w = w.Advance(p.WheelSpeed)

		var ev Event
		b, ev = Step(b, w, p)

		if b.Height > arcPeak {
			arcPeak = b.Height
		}
		if b.Height == 0 && arcPeak > 0 {
			res.BouncePeaks = append(res.BouncePeaks, arcPeak)
			arcPeak = 0
		}

		switch ev {
		case EventFall:
			res.Phases = append(res.Phases, PhaseChange{Phase: PhaseFalling, Tick: tick})
			res.OuterDistance = b.Angle - launchAngle
		case EventInner:
			res.Phases = append(res.Phases, PhaseChange{Phase: PhaseInner, Tick: tick})
		case EventLanded:
			res.Phases = append(res.Phases, PhaseChange{Phase: PhaseNone, Tick: tick})
			res.LandedIndex = b.LandedIndex
			res.LandedNumber = wheel.NumberAt(b.LandedIndex)
			res.SettleAngle = b.SettleAngle
			res.Ticks = tick
			res.WheelEnd = w.Rotation
			res.Bounces = b.BounceCount
			return res, nil
		}
	}

	return res, fmt.Errorf("%w: %d ticks", ErrNoLanding, maxTicks)
}
