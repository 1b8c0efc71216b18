package roulette

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vovakirdan/tui-roulette/internal/oracle"
	"github.com/vovakirdan/tui-roulette/internal/paths"
	"github.com/vovakirdan/tui-roulette/internal/physics"
	"github.com/vovakirdan/tui-roulette/internal/storage"
	"github.com/vovakirdan/tui-roulette/internal/wheel"
)

var (
	// ErrInvalidIndex is returned for winning indices outside the wheel.
	ErrInvalidIndex = errors.New("roulette: winning index out of range")
	// ErrInvalidPath is returned when a supplied path cannot be simulated.
	ErrInvalidPath = errors.New("roulette: invalid spin path")
	// ErrSpinActive is returned while a previous spin has not landed.
	ErrSpinActive = errors.New("roulette: spin already in progress")
	// ErrSpinAborted is returned when a landing channel closes without a result.
	ErrSpinAborted = errors.New("roulette: spin aborted")
)

// Source says where a spin's path came from.
type Source string

const (
	SourceServer      Source = "server"
	SourceRecorded    Source = "recorded"
	SourceSolved      Source = "solved"
	SourceApproximate Source = "approximate"
)

// Landing reports where a spin came to rest.
type Landing struct {
	SpinID        string
	WinningIndex  int // Segment the ball actually rests in
	WinningNumber int
	ExpectedIndex int // Segment the spin was asked to reach
	Mismatch      bool
	Ticks         int
	Source        Source
	Path          paths.Path
}

// HistoryStore persists finished spins.
type HistoryStore interface {
	SaveSpin(ctx context.Context, e storage.SpinEntry) (int64, error)
}

// Settings tunes an Orchestrator.
type Settings struct {
	RecordLandings bool
	MaxOuterFrames int
	MaxTicks       int // Budget for predicting a path's landing
	BaseAngle      float64
	BaseVelocity   float64
}

// Orchestrator turns spin outcomes into ball paths and reports landings.
// It is driven from the table's single update goroutine.
type Orchestrator struct {
	loop     *Loop
	store    *paths.Store
	solver   *paths.Solver // nil disables solving
	history  HistoryStore  // nil disables history
	logger   *log.Logger
	settings Settings

	pending *pendingSpin
}

type pendingSpin struct {
	ctx      context.Context
	ch       chan Landing
	spinID   string
	expected int
	source   Source
	path     paths.Path
	balance  decimal.Decimal
}

// NewOrchestrator wires an orchestrator to a loop. solver, history and logger may be nil.
func NewOrchestrator(loop *Loop, store *paths.Store, solver *paths.Solver, history HistoryStore, logger *log.Logger, s Settings) *Orchestrator {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Orchestrator{
		loop:     loop,
		store:    store,
		solver:   solver,
		history:  history,
		logger:   logger,
		settings: s,
	}
}

// Recording reports whether observed landings are stored.
func (o *Orchestrator) Recording() bool {
	return o.settings.RecordLandings
}

// SetRecording enables or disables storing observed landings.
func (o *Orchestrator) SetRecording(on bool) {
	o.settings.RecordLandings = on
}

// Busy reports whether a spin is in flight or awaiting its landing report.
func (o *Orchestrator) Busy() bool {
	return o.pending != nil || o.loop.Active()
}

// RequestSpin launches a spin that should land on winningIndex.
//
// A non-nil serverPath is authoritative. Otherwise the path is taken from the
// store, then the solver, then a jittered approximation. The returned channel
// receives exactly one Landing when the ball sticks and is then closed.
func (o *Orchestrator) RequestSpin(ctx context.Context, winningIndex int, serverPath *paths.Path) (<-chan Landing, error) {
	return o.begin(ctx, winningIndex, serverPath, uuid.NewString(), decimal.Zero)
}

// RequestOutcome launches the spin described by an oracle response.
func (o *Orchestrator) RequestOutcome(ctx context.Context, resp oracle.SpinResponse) (<-chan Landing, error) {
	id := resp.SpinID
	if id == "" {
		id = uuid.NewString()
	}
	return o.begin(ctx, resp.WinningIndex, resp.SpinPath, id, resp.NewBalance)
}

func (o *Orchestrator) begin(ctx context.Context, winningIndex int, serverPath *paths.Path, spinID string, balance decimal.Decimal) (<-chan Landing, error) {
	if !wheel.ValidIndex(winningIndex) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidIndex, winningIndex)
	}
	if serverPath != nil {
		if err := serverPath.Validate(o.settings.MaxOuterFrames); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPath, err)
		}
	}
	if o.Busy() {
		return nil, ErrSpinActive
	}

	path, source := o.choosePath(ctx, winningIndex, serverPath)

	if predicted, ok := o.predict(path); ok && predicted != winningIndex {
		o.logger.Warn("path does not reach winning segment",
			"spin_id", spinID, "source", source, "winning_index", winningIndex, "predicted_index", predicted)
	}

	if !o.loop.Spin(winningIndex, path) {
		return nil, ErrSpinActive
	}

	ch := make(chan Landing, 1)
	o.pending = &pendingSpin{
		ctx:      context.WithoutCancel(ctx),
		ch:       ch,
		spinID:   spinID,
		expected: winningIndex,
		source:   source,
		path:     path,
		balance:  balance,
	}
	o.logger.Debug("spin started",
		"spin_id", spinID, "winning_number", wheel.NumberAt(winningIndex), "source", source,
		"angle", path.InitialAngle, "velocity", path.InitialVelocity, "frames", path.OuterPhaseFrames)
	return ch, nil
}

// choosePath picks the first usable path source.
func (o *Orchestrator) choosePath(ctx context.Context, index int, serverPath *paths.Path) (paths.Path, Source) {
	if serverPath != nil {
		return *serverPath, SourceServer
	}

	number := wheel.NumberAt(index)
	if p, ok, err := o.store.Lookup(ctx, number); err != nil {
		o.logger.Warn("path lookup failed", "number", number, "err", err)
	} else if ok {
		// Recordings made under other physics settings no longer land where they did.
		if predicted, ok := o.predict(p); !ok || predicted == index {
			return p, SourceRecorded
		}
		o.logger.Warn("recorded path is stale", "number", number)
	}

	if o.solver != nil {
		p, err := o.solver.Solve(index)
		if err == nil {
			return p, SourceSolved
		}
		o.logger.Warn("solver failed", "index", index, "err", err)
	}

	o.logger.Warn("using approximate path; landing is not guaranteed", "number", number)
	return o.store.Approximate(number, o.settings.BaseAngle, o.settings.BaseVelocity), SourceApproximate
}

// predict simulates path headless. ok is false when prediction is disabled
// or the ball does not land within budget.
func (o *Orchestrator) predict(p paths.Path) (int, bool) {
	if o.settings.MaxTicks <= 0 {
		return -1, false
	}
	res, err := physics.Simulate(o.loop.Params(), p, 0, o.settings.MaxTicks)
	if err != nil {
		return -1, false
	}
	return res.LandedIndex, true
}

// Observe completes the pending spin once the loop reports a landing.
// It returns the landing and true on the tick the ball sticks.
func (o *Orchestrator) Observe(ev physics.Event) (Landing, bool) {
	if ev != physics.EventLanded || o.pending == nil {
		return Landing{}, false
	}
	p := o.pending
	o.pending = nil

	ball := o.loop.Ball()
	landing := Landing{
		SpinID:        p.spinID,
		WinningIndex:  ball.LandedIndex,
		WinningNumber: wheel.NumberAt(ball.LandedIndex),
		ExpectedIndex: p.expected,
		Mismatch:      ball.LandedIndex != p.expected,
		Ticks:         ball.Ticks,
		Source:        p.source,
		Path:          p.path,
	}

	if landing.Mismatch {
		o.logger.Error("ball landed on the wrong segment",
			"spin_id", p.spinID, "expected_number", wheel.NumberAt(p.expected),
			"landed_number", landing.WinningNumber, "source", p.source)
	} else {
		o.logger.Info("ball landed", "spin_id", p.spinID, "number", landing.WinningNumber, "ticks", landing.Ticks)
	}

	o.persist(p, landing)

	p.ch <- landing
	close(p.ch)
	return landing, true
}

func (o *Orchestrator) persist(p *pendingSpin, l Landing) {
	if o.settings.RecordLandings && p.source != SourceRecorded {
		if err := o.store.Record(p.ctx, p.path, l.WinningNumber); err != nil {
			o.logger.Warn("cannot record landing", "spin_id", p.spinID, "err", err)
		}
	}
	if o.history != nil {
		_, err := o.history.SaveSpin(p.ctx, storage.SpinEntry{
			SpinID:        p.spinID,
			WinningNumber: wheel.NumberAt(p.expected),
			LandedNumber:  l.WinningNumber,
			Mismatch:      l.Mismatch,
			Source:        string(p.source),
			Path:          p.path,
			Ticks:         l.Ticks,
			Balance:       p.balance,
		})
		if err != nil {
			o.logger.Warn("cannot save spin history", "spin_id", p.spinID, "err", err)
		}
	}
}

// AwaitLanding blocks until the spin behind ch lands or ctx is done.
func AwaitLanding(ctx context.Context, ch <-chan Landing) (Landing, error) {
	select {
	case l, ok := <-ch:
		if !ok {
			return Landing{}, ErrSpinAborted
		}
		return l, nil
	case <-ctx.Done():
		return Landing{}, ctx.Err()
	}
}
