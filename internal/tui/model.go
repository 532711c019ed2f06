package tui

import (
	"context"
	"strings"

	"codeberg.org/mutker/vcmclient/internal/app"
	"codeberg.org/mutker/vcmclient/internal/display"
	"codeberg.org/mutker/vcmclient/internal/transport"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type promptMode int

const (
	promptNone promptMode = iota
	promptModule
	promptDACIndex
	promptDACVoltage
)

func (p promptMode) label() string {
	switch p {
	case promptModule:
		return "Module id: "
	case promptDACIndex:
		return "DAC (0-11 or all): "
	case promptDACVoltage:
		return "Voltage (0.0-1.0 or random): "
	default:
		return ""
	}
}

// Layout constants, in lines.
const (
	headerHeight = 2
	footerHeight = 2
	diagTitle    = 1
	minPane      = 3

	defaultWidth  = 100
	defaultHeight = 40
)

// Model is the interactive dashboard. All controller calls happen inside
// Update, so bubbletea's event loop is the single UI goroutine.
type Model struct {
	ctx    context.Context
	ctrl   *app.Controller
	events <-chan transport.Event

	table table.Model
	diag  viewport.Model
	input textinput.Model

	prompt      promptMode
	dacIndex    string
	diagVersion uint64

	width    int
	height   int
	showHelp bool
	quitting bool
}

// eventMsg carries one transport event into Update.
type eventMsg transport.Event

// eventsClosedMsg reports that the transport has shut down.
type eventsClosedMsg struct{}

// NewModel creates a dashboard driving ctrl with events from the transport.
func NewModel(ctx context.Context, ctrl *app.Controller, events <-chan transport.Event) Model {
	t := table.New(
		table.WithColumns(display.Columns()),
		table.WithRows(display.Rows(ctrl.Store().All())),
		table.WithFocused(true),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(display.ColorMuted).
		BorderBottom(true).
		Bold(true).
		Foreground(display.ColorPrimary)
	s.Selected = s.Selected.
		Foreground(display.ColorPrimary).
		Background(display.ColorMuted).
		Bold(false)
	t.SetStyles(s)

	in := textinput.New()
	in.CharLimit = 32

	m := Model{
		ctx:    ctx,
		ctrl:   ctrl,
		events: events,
		table:  t,
		diag:   viewport.New(defaultWidth, minPane),
		input:  in,
	}
	m.resize(defaultWidth, defaultHeight)
	m.refresh()

	return m
}

// Init starts listening for transport events.
func (m Model) Init() tea.Cmd {
	return waitForEvent(m.events)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.prompt != promptNone {
			cmd = m.handlePromptKey(msg)
		} else if handled, c := m.HandleKeyMsg(msg); handled {
			cmd = c
		} else {
			m.table, cmd = m.table.Update(msg)
		}

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case eventMsg:
		m.ctrl.Handle(m.ctx, transport.Event(msg))
		cmd = waitForEvent(m.events)

	case eventsClosedMsg:
		m.quitting = true
		return m, tea.Quit
	}

	m.refresh()
	return m, cmd
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderDashboard()
}

// waitForEvent blocks on the next transport event.
func waitForEvent(events <-chan transport.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *Model) startPrompt(p promptMode) tea.Cmd {
	m.prompt = p
	m.input.Prompt = p.label()
	m.input.Reset()
	m.table.Blur()
	return m.input.Focus()
}

func (m *Model) endPrompt() {
	m.prompt = promptNone
	m.dacIndex = ""
	m.input.Reset()
	m.input.Blur()
	m.table.Focus()
}

func (m *Model) handlePromptKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case KeyQuitAlt:
		m.quitting = true
		return tea.Quit

	case KeyCancel:
		m.endPrompt()
		return nil

	case KeySubmit:
		value := strings.TrimSpace(m.input.Value())
		switch m.prompt {
		case promptModule:
			m.endPrompt()
			_ = m.ctrl.ChangeModule(m.ctx, value)
		case promptDACIndex:
			m.dacIndex = value
			m.prompt = promptDACVoltage
			m.input.Prompt = promptDACVoltage.label()
			m.input.Reset()
		case promptDACVoltage:
			index := m.dacIndex
			m.endPrompt()
			_ = m.ctrl.SetDAC(m.ctx, index, value)
		}
		return nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

// resize splits the height between the metric table and the diagnostics
// pane, giving the table two thirds.
func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	avail := height - headerHeight - footerHeight - diagTitle
	tableHeight := max(avail*2/3, minPane)
	diagHeight := max(avail-tableHeight, minPane)

	m.table.SetHeight(tableHeight)
	m.table.SetWidth(width)
	m.diag.Width = width
	m.diag.Height = diagHeight
	m.input.Width = max(width-len(promptDACVoltage.label())-1, 10)
	m.diagVersion = 0
}

// refresh copies the store into the table and, when new diagnostics have
// arrived, rebuilds the diagnostics pane scrolled to the bottom.
func (m *Model) refresh() {
	m.table.SetRows(display.Rows(m.ctrl.Store().All()))

	d := m.ctrl.Diagnostics()
	if v := d.Version(); v != m.diagVersion || v == 0 {
		entries := d.All()
		lines := make([]string, len(entries))
		for i, e := range entries {
			lines[i] = display.Styled(e)
		}
		m.diag.SetContent(strings.Join(lines, "\n"))
		m.diag.GotoBottom()
		m.diagVersion = v
	}
}
