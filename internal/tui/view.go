package tui

import (
	"fmt"
	"strings"

	"codeberg.org/mutker/vcmclient/internal/app"
	"codeberg.org/mutker/vcmclient/internal/display"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(display.ColorInfo)

	paneTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(display.ColorPrimary)

	helpBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(display.ColorInfo).
			Padding(1, 2)

	helpKeyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(display.ColorPrimary).
			Width(12)
)

type helpBinding struct {
	Key  string
	Desc string
}

var helpBindings = []helpBinding{
	{Key: "m", Desc: "Change module"},
	{Key: "d", Desc: "Set DAC voltage"},
	{Key: "b", Desc: "Reboot module"},
	{Key: "R", Desc: "Request rebirth"},
	{Key: "l", Desc: "Toggle data logging"},
	{Key: "s", Desc: "Cycle show level"},
	{Key: "r", Desc: "Redraw"},
	{Key: "up / down", Desc: "Move in metric table"},
	{Key: "PgUp / PgDn", Desc: "Scroll diagnostics"},
	{Key: "Esc", Desc: "Cancel prompt / close help"},
	{Key: "?", Desc: "Toggle this help"},
	{Key: "q / Ctrl+C", Desc: "Quit"},
}

func (m Model) renderDashboard() string {
	var b strings.Builder

	b.WriteString(renderHeader(m.ctrl.Status()))
	b.WriteString("\n\n")
	b.WriteString(m.table.View())
	b.WriteString("\n")
	b.WriteString(paneTitleStyle.Render("Diagnostics"))
	b.WriteString("\n")
	b.WriteString(m.diag.View())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	return b.String()
}

func renderHeader(st app.Status) string {
	snap := st.Session

	alive := display.OfflineStyle.Render("OFFLINE")
	if snap.Alive {
		alive = display.OnlineStyle.Render("ONLINE")
	}

	compat := display.UnsetStyle.Render("unknown")
	switch {
	case snap.Alive && snap.Compatible:
		compat = display.OnlineStyle.Render("yes")
	case snap.Alive:
		compat = display.OfflineStyle.Render("no")
	}

	parts := []string{
		titleStyle.Render("VCM Client"),
		fmt.Sprintf("%s %d (%s)", display.LabelStyle.Render("module"), snap.Module, snap.NodeID),
		alive,
		display.LabelStyle.Render("compatible ") + compat,
		display.LabelStyle.Render("logging ") + st.Logging.String(),
		display.LabelStyle.Render("show ") + st.Show.String(),
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderFooter() string {
	if m.prompt != promptNone {
		return m.input.View() + "\n" + display.LabelStyle.Render("enter to submit, esc to cancel")
	}

	hints := []string{
		"m module",
		"d dac",
		"b reboot",
		"R rebirth",
		"l " + strings.ToLower(m.ctrl.Status().Logging.Label()),
		"? help",
		"q quit",
	}
	return "\n" + display.LabelStyle.Render(strings.Join(hints, "  "))
}

func (m Model) renderHelp() string {
	lines := []string{paneTitleStyle.Render("Keyboard Shortcuts"), ""}
	for _, hb := range helpBindings {
		lines = append(lines, helpKeyStyle.Render(hb.Key)+hb.Desc)
	}
	lines = append(lines, "", display.LabelStyle.Render("Press ? to close"))

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		helpBoxStyle.Render(strings.Join(lines, "\n")),
	)
}
