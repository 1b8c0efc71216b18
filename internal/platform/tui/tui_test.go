package tui

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/vovakirdan/tui-roulette/internal/config"
	"github.com/vovakirdan/tui-roulette/internal/core"
	"github.com/vovakirdan/tui-roulette/internal/oracle"
	"github.com/vovakirdan/tui-roulette/internal/paths"
	"github.com/vovakirdan/tui-roulette/internal/roulette"
	"github.com/vovakirdan/tui-roulette/internal/storage"
)

func TestKeyMapper(t *testing.T) {
	km := NewKeyMapper()

	tests := []struct {
		name   string
		msg    tea.KeyMsg
		action core.Action
		quit   bool
	}{
		{"space spins", tea.KeyMsg{Type: tea.KeySpace}, core.ActionSpin, false},
		{"enter spins", tea.KeyMsg{Type: tea.KeyEnter}, core.ActionSpin, false},
		{"r records", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}}, core.ActionRecord, false},
		{"ctrl+s screenshots", tea.KeyMsg{Type: tea.KeyCtrlS}, core.ActionScreenshot, false},
		{"q quits", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}, core.ActionQuit, true},
		{"ctrl+c quits", tea.KeyMsg{Type: tea.KeyCtrlC}, core.ActionQuit, true},
		{"other keys ignored", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}}, core.ActionNone, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			action, quit := km.MapKey(tc.msg)
			if action != tc.action || quit != tc.quit {
				t.Errorf("MapKey(%q) = (%v, %v), expected (%v, %v)", tc.msg.String(), action, quit, tc.action, tc.quit)
			}
		})
	}
}

func newTestModel(t *testing.T) (Model, *roulette.Table) {
	t.Helper()
	cfg := config.DefaultRouletteConfig()
	table := roulette.NewTable(roulette.TableOptions{
		Config:    cfg,
		Store:     paths.NewStore(paths.NewMemoryRepository(), cfg.StoreOptions()),
		BetNumber: 17,
	})
	m := NewModel(Options{
		Table:         table,
		Oracle:        oracle.NewLocalOracle(1, decimal.NewFromInt(1000), cfg.NewSolver()),
		Currency:      "usd",
		BetAmount:     decimal.NewFromInt(10),
		Config:        core.RuntimeConfig{ScreenW: 80, ScreenH: 24, TickRate: 60, Seed: 1},
		ScreenshotDir: t.TempDir(),
	})
	return m, table
}

func step(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update() returned %T", next)
	}
	return nm, cmd
}

func TestModelSpinLandsAndReports(t *testing.T) {
	m, table := newTestModel(t)

	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeySpace})
	m, _ = step(t, m, TickMsg(time.Now()))
	if !m.requesting {
		t.Fatal("spin key did not start an oracle request")
	}

	// A second request while one is outstanding is refused.
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeySpace})
	m, _ = step(t, m, TickMsg(time.Now()))

	outcome, ok := m.spinCmd()().(outcomeMsg)
	if !ok || outcome.err != nil {
		t.Fatalf("spin command returned %+v", outcome)
	}
	m, await := step(t, m, outcome)
	if m.requesting || await == nil || !table.Busy() {
		t.Fatal("outcome did not launch the ball")
	}

	for range 20000 {
		if !table.Busy() {
			break
		}
		m, _ = step(t, m, TickMsg(time.Now()))
	}
	if table.Busy() {
		t.Fatal("ball never landed")
	}

	landing, ok := await().(landingMsg)
	if !ok || landing.err != nil {
		t.Fatalf("await returned %+v", landing)
	}
	if landing.landing.WinningNumber != outcome.resp.WinningNumber() {
		t.Errorf("landed on %d, oracle said %d", landing.landing.WinningNumber, outcome.resp.WinningNumber())
	}
	if res := table.Results(); len(res) != 1 || res[0] != landing.landing.WinningNumber {
		t.Errorf("results = %v", res)
	}
	m, _ = step(t, m, landing)

	if view := m.View(); !strings.Contains(view, outcome.resp.NewBalance.StringFixed(2)) {
		t.Errorf("view does not show the new balance %s", outcome.resp.NewBalance.StringFixed(2))
	}
}

type failingOracle struct{}

func (failingOracle) Spin(context.Context, oracle.SpinRequest) (oracle.SpinResponse, error) {
	return oracle.SpinResponse{}, oracle.ErrInsufficientBalance
}

func TestModelReportsOracleErrors(t *testing.T) {
	m, table := newTestModel(t)
	m.oracle = failingOracle{}

	outcome := m.spinCmd()().(outcomeMsg)
	m, cmd := step(t, m, outcome)
	if cmd != nil || table.Busy() {
		t.Error("failed request should not launch the ball")
	}
	if !strings.Contains(m.View(), "insufficient") {
		t.Error("view does not report the oracle error")
	}
}

func TestModelScreenshot(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	step(t, m, TickMsg(time.Now()))

	entries, err := os.ReadDir(m.screenshotDir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("screenshot dir has %d entries (%v)", len(entries), err)
	}
	data, err := os.ReadFile(m.screenshotDir + "/" + entries[0].Name())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "ROULETTE") {
		t.Error("screenshot does not contain the HUD")
	}
}

func TestModelQuit(t *testing.T) {
	m, _ := newTestModel(t)
	m, cmd := step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil || !m.quitting || m.View() != "" {
		t.Error("q should quit with an empty view")
	}
}

type fakeLister struct {
	spins []storage.SpinEntry
	err   error
}

func (f fakeLister) RecentSpins(context.Context, int) ([]storage.SpinEntry, error) {
	return f.spins, f.err
}

func (f fakeLister) Stats(context.Context) (*storage.SpinStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	stats := &storage.SpinStats{Spins: len(f.spins)}
	for _, s := range f.spins {
		if s.Mismatch {
			stats.Mismatches++
		}
	}
	return stats, nil
}

func TestHistoryModel(t *testing.T) {
	lister := fakeLister{spins: []storage.SpinEntry{
		{SpinID: "b1c2d3e4-0000", WinningNumber: 17, LandedNumber: 17, Source: "solved", Balance: decimal.NewFromInt(990), CreatedAt: time.Now()},
		{SpinID: "a1b2c3d4-0000", WinningNumber: 5, LandedNumber: 24, Mismatch: true, Source: "approximate", Balance: decimal.NewFromInt(1000), CreatedAt: time.Now()},
	}}

	m := NewHistoryModel(lister, 120, 30)
	if got := len(m.table.Rows()); got != 2 {
		t.Fatalf("rows = %d, expected 2", got)
	}
	view := m.View()
	for _, want := range []string{"SPIN HISTORY - all spins", "mismatches 1", "b1c2d3e4", "990.00"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(HistoryModel)
	if got := m.table.Rows(); len(got) != 1 || got[0][2] != "24!" {
		t.Errorf("mismatch filter rows = %v", got)
	}
}

func TestHistoryModelEmptyAndErrors(t *testing.T) {
	if view := NewHistoryModel(nil, 60, 20).View(); !strings.Contains(view, "No spins recorded yet") {
		t.Error("nil source should show the empty message")
	}
	view := NewHistoryModel(fakeLister{err: errors.New("disk gone")}, 60, 20).View()
	if !strings.Contains(view, "disk gone") {
		t.Error("load error not shown")
	}
}
