package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tui-roulette/internal/storage"
)

// History layout constants
const (
	minWidthForStats = 80  // Minimum width to show the stats sidebar
	statsWidth       = 22  // Width of the stats sidebar
	maxSpins         = 200 // Max spins to load
)

// SpinLister is the read side of the spin history.
type SpinLister interface {
	RecentSpins(ctx context.Context, limit int) ([]storage.SpinEntry, error)
	Stats(ctx context.Context) (*storage.SpinStats, error)
}

// historyFilter selects which spins are listed.
type historyFilter int

const (
	filterAll historyFilter = iota
	filterMismatches
	filterCount
)

func (f historyFilter) String() string {
	if f == filterMismatches {
		return "mismatches"
	}
	return "all spins"
}

// HistoryKeyMap defines the key bindings for the history screen.
type HistoryKeyMap struct {
	Up         key.Binding
	Down       key.Binding
	NextFilter key.Binding
	Reload     key.Binding
	Quit       key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k HistoryKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.NextFilter, k.Reload, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k HistoryKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.NextFilter},
		{k.Reload, k.Quit},
	}
}

// DefaultHistoryKeyMap returns default key bindings.
func DefaultHistoryKeyMap() HistoryKeyMap {
	return HistoryKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "scroll down"),
		),
		NextFilter: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "filter"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// HistoryModel is the Bubble Tea model for browsing past spins.
type HistoryModel struct {
	source    SpinLister
	spins     []storage.SpinEntry
	stats     *storage.SpinStats
	filter    historyFilter
	loadErr   error
	table     table.Model
	help      help.Model
	keys      HistoryKeyMap
	width     int
	height    int
	quitting  bool
	showStats bool
}

// NewHistoryModel creates a history model and loads the newest spins.
func NewHistoryModel(source SpinLister, width, height int) HistoryModel {
	h := help.New()
	h.ShowAll = false

	m := HistoryModel{
		source:    source,
		keys:      DefaultHistoryKeyMap(),
		help:      h,
		width:     width,
		height:    height,
		showStats: width >= minWidthForStats,
	}
	m.table = m.createTable()
	m.load()
	return m
}

func (m *HistoryModel) createTable() table.Model {
	columns := []table.Column{
		{Title: "Spin", Width: 10},
		{Title: "Win", Width: 4},
		{Title: "Land", Width: 4},
		{Title: "Path", Width: 11},
		{Title: "Ticks", Width: 6},
		{Title: "Balance", Width: 10},
		{Title: "Date", Width: 12},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(max(m.height-8, 3)),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

// load fetches spins and stats from the source.
func (m *HistoryModel) load() {
	m.loadErr = nil
	if m.source == nil {
		m.spins, m.stats = nil, nil
		m.updateTableRows()
		return
	}

	ctx := context.Background()
	spins, err := m.source.RecentSpins(ctx, maxSpins)
	if err != nil {
		m.loadErr = err
		spins = nil
	}
	m.spins = spins

	stats, err := m.source.Stats(ctx)
	if err != nil && m.loadErr == nil {
		m.loadErr = err
	}
	m.stats = stats
	m.updateTableRows()
}

// visible returns the spins that pass the current filter.
func (m HistoryModel) visible() []storage.SpinEntry {
	if m.filter == filterAll {
		return m.spins
	}
	var out []storage.SpinEntry
	for _, s := range m.spins {
		if s.Mismatch {
			out = append(out, s)
		}
	}
	return out
}

func (m *HistoryModel) updateTableRows() {
	spins := m.visible()
	rows := make([]table.Row, len(spins))
	for i, s := range spins {
		id := s.SpinID
		if len(id) > 8 {
			id = id[:8]
		}
		land := strconv.Itoa(s.LandedNumber)
		if s.Mismatch {
			land += "!"
		}
		rows[i] = table.Row{
			id,
			strconv.Itoa(s.WinningNumber),
			land,
			s.Source,
			strconv.Itoa(s.Ticks),
			s.Balance.StringFixed(2),
			s.CreatedAt.Format("Jan 02 15:04"),
		}
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

// Init initializes the history model.
func (m HistoryModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the history screen.
func (m HistoryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.NextFilter):
			m.filter = (m.filter + 1) % filterCount
			m.updateTableRows()
			return m, nil

		case key.Matches(msg, m.keys.Reload):
			m.load()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.showStats = m.width >= minWidthForStats
		m.table = m.createTable()
		m.updateTableRows()
		m.help.Width = msg.Width
		return m, nil
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the history screen.
func (m HistoryModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229"))
	title := fmt.Sprintf("SPIN HISTORY - %s", m.filter)
	b.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Center, titleStyle.Render(title)))
	b.WriteString("\n\n")

	tableStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)
	content := tableStyle.Render(m.renderTableContent())

	if m.showStats {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, m.renderStats(), "  ", content))
	} else {
		b.WriteString(content)
	}

	b.WriteString("\n")
	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

func (m HistoryModel) renderStats() string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(statsWidth).
		Padding(0, 1)

	var sb strings.Builder
	sb.WriteString("Stats\n")
	sb.WriteString(strings.Repeat("-", statsWidth-4))
	sb.WriteString("\n")
	if m.stats == nil {
		sb.WriteString("n/a\n")
		return style.Render(sb.String())
	}
	fmt.Fprintf(&sb, "spins      %d\n", m.stats.Spins)
	fmt.Fprintf(&sb, "mismatches %d\n", m.stats.Mismatches)
	if !m.stats.LastSpin.IsZero() {
		fmt.Fprintf(&sb, "last %s\n", m.stats.LastSpin.Format("Jan 02 15:04"))
	}
	return style.Render(sb.String())
}

func (m HistoryModel) renderTableContent() string {
	emptyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Italic(true).
		Padding(2, 4)

	if m.loadErr != nil {
		return emptyStyle.Render(fmt.Sprintf("Could not load history:\n%v", m.loadErr))
	}
	if len(m.visible()) == 0 {
		return emptyStyle.Render("No spins recorded yet.\nPlay a round to fill the history!")
	}
	return m.table.View()
}

// RunHistory runs the history browser.
func RunHistory(source SpinLister, width, height int) error {
	p := tea.NewProgram(
		NewHistoryModel(source, width, height),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
