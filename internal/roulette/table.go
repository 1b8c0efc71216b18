package roulette

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-roulette/internal/config"
	"github.com/vovakirdan/tui-roulette/internal/core"
	"github.com/vovakirdan/tui-roulette/internal/oracle"
	"github.com/vovakirdan/tui-roulette/internal/paths"
	"github.com/vovakirdan/tui-roulette/internal/physics"
	"github.com/vovakirdan/tui-roulette/internal/wheel"
)

// maxResults is the length of the recent results strip.
const maxResults = 12

// Table is one playable roulette table: loop, orchestrator, renderer and
// the HUD state shown beside the wheel.
type Table struct {
	loop     *Loop
	orch     *Orchestrator
	renderer Renderer
	hud      HUD
}

// TableOptions configures NewTable.
type TableOptions struct {
	Config     config.RouletteConfig
	Store      *paths.Store
	History    HistoryStore // May be nil
	Logger     *log.Logger
	WheelStart float64
	BetNumber  int
}

// NewTable builds a table from configuration.
func NewTable(opts TableOptions) *Table {
	cfg := opts.Config
	loop := NewLoop(cfg.PhysicsParams(), opts.WheelStart)

	var solver *paths.Solver
	if cfg.Paths.Solve {
		solver = cfg.NewSolver()
	}

	orch := NewOrchestrator(loop, opts.Store, solver, opts.History, opts.Logger, Settings{
		RecordLandings: cfg.Paths.RecordLandings,
		MaxOuterFrames: cfg.Spin.MaxOuterFrames,
		MaxTicks:       cfg.Spin.MaxTicks,
		BaseAngle:      cfg.Spin.BaseAngle,
		BaseVelocity:   cfg.Spin.BaseVelocity,
	})

	return &Table{
		loop: loop,
		orch: orch,
		hud: HUD{
			Balance:   cfg.Oracle.StartingBalance,
			Currency:  cfg.Oracle.Currency,
			BetNumber: opts.BetNumber,
			Recording: cfg.Paths.RecordLandings,
		},
	}
}

// Tick advances one frame and reports a landing on the tick it happens.
func (t *Table) Tick() (Landing, bool) {
	ev := t.loop.Tick()
	l, ok := t.orch.Observe(ev)
	if ok {
		t.pushResult(l.WinningNumber)
		color := wheel.ColorOf(l.WinningNumber)
		t.hud.Status = fmt.Sprintf("%d %s", l.WinningNumber, color)
		if l.Mismatch {
			t.hud.Status += fmt.Sprintf(" (expected %d)", wheel.NumberAt(l.ExpectedIndex))
		}
	}
	return l, ok
}

// Begin launches the spin described by an oracle response.
func (t *Table) Begin(ctx context.Context, resp oracle.SpinResponse) (<-chan Landing, error) {
	ch, err := t.orch.RequestOutcome(ctx, resp)
	if err != nil {
		return nil, err
	}
	t.hud.Balance = resp.NewBalance.StringFixed(2)
	t.hud.Source = t.orch.pending.source
	t.hud.Status = "no more bets"
	return ch, nil
}

// Busy reports whether a spin is in flight.
func (t *Table) Busy() bool {
	return t.orch.Busy()
}

// ToggleRecording flips recording of observed landings and returns the new state.
func (t *Table) ToggleRecording() bool {
	on := !t.orch.Recording()
	t.orch.SetRecording(on)
	t.hud.Recording = on
	return on
}

// SetStatus replaces the HUD status line.
func (t *Table) SetStatus(s string) {
	t.hud.Status = s
}

// BetNumber returns the number the player bets on.
func (t *Table) BetNumber() int {
	return t.hud.BetNumber
}

// Render draws the current frame.
func (t *Table) Render(dst *core.Screen) {
	t.renderer.Render(dst, t.loop.Wheel(), t.loop.Ball(), t.loop.Params(), t.hud)
}

// Ball returns the current ball state.
func (t *Table) Ball() physics.BallState {
	return t.loop.Ball()
}

// Results returns recent winning numbers, most recent first.
func (t *Table) Results() []int {
	return append([]int(nil), t.hud.Results...)
}

func (t *Table) pushResult(n int) {
	t.hud.Results = append([]int{n}, t.hud.Results...)
	if len(t.hud.Results) > maxResults {
		t.hud.Results = t.hud.Results[:maxResults]
	}
}
