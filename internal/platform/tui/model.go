package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"github.com/vovakirdan/tui-roulette/internal/core"
	"github.com/vovakirdan/tui-roulette/internal/oracle"
	"github.com/vovakirdan/tui-roulette/internal/roulette"
)

// outcomeMsg carries the oracle's answer to a spin request.
type outcomeMsg struct {
	resp oracle.SpinResponse
	err  error
}

// landingMsg is delivered once the ball settles.
type landingMsg struct {
	landing roulette.Landing
	err     error
}

// Options configures a table Model.
type Options struct {
	Table     *roulette.Table
	Oracle    oracle.Oracle
	Currency  string
	BetAmount decimal.Decimal
	Config    core.RuntimeConfig

	// Logger and Context may be nil.
	Logger  *log.Logger
	Context context.Context

	// ScreenshotDir defaults to ~/.roulette/screenshots.
	ScreenshotDir string
}

// Model is the Bubble Tea model for one roulette table.
type Model struct {
	table         *roulette.Table
	oracle        oracle.Oracle
	screen        *core.Screen
	keys          *KeyMapper
	config        core.RuntimeConfig
	logger        *log.Logger
	ctx           context.Context
	currency      string
	bet           decimal.Decimal
	screenshotDir string
	inputFrame    core.InputFrame
	requesting    bool
	quitting      bool
}

// NewModel creates a table model.
func NewModel(opts Options) Model {
	cfg := opts.Config
	if cfg.TickRate <= 0 {
		cfg.TickRate = core.DefaultConfig().TickRate
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	dir := opts.ScreenshotDir
	if dir == "" {
		dir = filepath.Join(os.Getenv("HOME"), ".roulette", "screenshots")
	}

	return Model{
		table:         opts.Table,
		oracle:        opts.Oracle,
		screen:        core.NewScreen(cfg.ScreenW, cfg.ScreenH),
		keys:          NewKeyMapper(),
		config:        cfg,
		logger:        logger,
		ctx:           ctx,
		currency:      opts.Currency,
		bet:           opts.BetAmount,
		screenshotDir: dir,
		inputFrame:    core.NewInputFrame(),
	}
}

// Init starts the tick loop.
func (m Model) Init() tea.Cmd {
	return tickCmd(m.config.TickRate)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case TickMsg:
		return m.handleTick()

	case outcomeMsg:
		return m.handleOutcome(msg)

	case landingMsg:
		return m.handleLanding(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.keys.MapKeyToFrame(msg, &m.inputFrame) {
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.config.ScreenW = msg.Width
	m.config.ScreenH = msg.Height
	m.screen.Resize(msg.Width, msg.Height)
	return m, nil
}

// handleTick applies the frame's actions and advances the table one tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{tickCmd(m.config.TickRate)}

	if m.inputFrame.Has(core.ActionRecord) {
		on := m.table.ToggleRecording()
		m.logger.Info("recording toggled", "on", on)
	}
	if m.inputFrame.Has(core.ActionScreenshot) {
		if path, err := m.saveScreenshot(); err != nil {
			m.logger.Warn("screenshot failed", "error", err)
		} else {
			m.table.SetStatus("saved " + filepath.Base(path))
		}
	}
	if m.inputFrame.Has(core.ActionSpin) {
		if m.requesting || m.table.Busy() {
			m.table.SetStatus("spin in progress")
		} else {
			m.requesting = true
			m.table.SetStatus("placing bet...")
			cmds = append(cmds, m.spinCmd())
		}
	}
	m.inputFrame.Clear()

	m.table.Tick()

	return m, tea.Batch(cmds...)
}

// spinCmd asks the oracle for an outcome off the UI goroutine.
func (m Model) spinCmd() tea.Cmd {
	ctx := m.ctx
	o := m.oracle
	req := oracle.StraightUp(m.table.BetNumber(), m.bet, m.currency)
	return func() tea.Msg {
		resp, err := o.Spin(ctx, req)
		return outcomeMsg{resp: resp, err: err}
	}
}

func (m Model) handleOutcome(msg outcomeMsg) (tea.Model, tea.Cmd) {
	m.requesting = false
	if msg.err != nil {
		m.logger.Error("spin request failed", "error", msg.err)
		m.table.SetStatus(msg.err.Error())
		return m, nil
	}

	ch, err := m.table.Begin(m.ctx, msg.resp)
	if err != nil {
		m.logger.Error("spin rejected", "spin", msg.resp.SpinID, "error", err)
		m.table.SetStatus(err.Error())
		return m, nil
	}

	ctx := m.ctx
	return m, func() tea.Msg {
		l, err := roulette.AwaitLanding(ctx, ch)
		return landingMsg{landing: l, err: err}
	}
}

func (m Model) handleLanding(msg landingMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.logger.Warn("landing not observed", "error", msg.err)
		return m, nil
	}
	l := msg.landing
	m.logger.Info("ball landed",
		"spin", l.SpinID,
		"number", l.WinningNumber,
		"source", l.Source,
		"ticks", l.Ticks,
	)
	return m, nil
}

// saveScreenshot writes the current frame to the screenshot directory.
func (m *Model) saveScreenshot() (string, error) {
	m.table.Render(m.screen)

	if err := os.MkdirAll(m.screenshotDir, 0o755); err != nil {
		return "", err
	}

	timestamp := time.Now().Format("20060102_150405")
	path := filepath.Join(m.screenshotDir, fmt.Sprintf("roulette_%s.txt", timestamp))
	if err := os.WriteFile(path, []byte(m.screen.String()), 0o600); err != nil {
		return "", err
	}
	return path, nil
}

// View renders the current state to a string for display.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	m.table.Render(m.screen)
	return RenderScreen(m.screen)
}

// Run starts the Bubble Tea program for a local table.
func Run(opts Options) error {
	p := tea.NewProgram(
		NewModel(opts),
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	return err
}
