// Package roulette runs one roulette table: the per-tick animation loop, the
// spin orchestrator that turns an outcome into a ball path and reports the
// landing, and the renderer that draws the wheel into a screen buffer.
//
// Nothing here knows about Bubble Tea. The platform layer calls Tick at its
// frame rate and Render after every tick.
package roulette

import "github.com/vovakirdan/tui-roulette/internal/physics"

// Loop owns the wheel and the ball of one table.
type Loop struct {
	params  physics.Params
	wheel   physics.WheelState
	machine *physics.Machine
	ticks   uint64
}

// NewLoop creates an idle loop with the wheel at wheelStart radians.
func NewLoop(p physics.Params, wheelStart float64) *Loop {
	return &Loop{
		params:  p,
		wheel:   physics.WheelState{}.Advance(wheelStart),
		machine: physics.NewMachine(p),
	}
}

// Tick advances one frame: the wheel turns first, then the ball steps
// against the new rotation.
func (l *Loop) Tick() physics.Event {
	l.ticks++
	l.wheel = l.wheel.Advance(l.params.WheelSpeed)
	return l.machine.Step(l.wheel)
}

// Spin launches the ball from the current wheel rotation.
// Returns false when a spin is already in flight.
func (l *Loop) Spin(target int, path physics.Path) bool {
	return l.machine.Spin(target, path, l.wheel)
}

// Active reports whether a spin is in flight.
func (l *Loop) Active() bool {
	return l.machine.Active()
}

func (l *Loop) Wheel() physics.WheelState { return l.wheel }
func (l *Loop) Ball() physics.BallState   { return l.machine.State() }
func (l *Loop) Params() physics.Params    { return l.params }
func (l *Loop) Ticks() uint64             { return l.ticks }
