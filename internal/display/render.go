package display

import (
	"strings"

	"codeberg.org/mutker/vcmclient/internal/metrics"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

const (
	TimestampLayout = "2006-01-02 15:04:05.000"

	nameWidth      = 36
	timestampWidth = 23
	valueWidth     = 24
)

// Columns are the metric table columns.
func Columns() []table.Column {
	return []table.Column{
		{Title: "Name", Width: nameWidth},
		{Title: "Timestamp", Width: timestampWidth},
		{Title: "Value", Width: valueWidth},
	}
}

// Row formats one metric. Unset metrics have empty timestamp and value.
func Row(m metrics.Metric) table.Row {
	if !m.IsSet() {
		return table.Row{m.Name, "", ""}
	}
	return table.Row{m.Name, m.Timestamp.Format(TimestampLayout), m.Value.String()}
}

// Rows formats every metric in order.
func Rows(ms []metrics.Metric) []table.Row {
	rows := make([]table.Row, len(ms))
	for i, m := range ms {
		rows[i] = Row(m)
	}
	return rows
}

// Render draws ms as a text table with a header row.
func Render(ms []metrics.Metric) string {
	cols := Columns()
	cell := func(s string, width int) string {
		return lipgloss.NewStyle().Width(width).MaxWidth(width).Render(s)
	}

	var b strings.Builder

	hdr := make([]string, len(cols))
	for i, c := range cols {
		hdr[i] = cell(c.Title, c.Width)
	}
	b.WriteString(HeaderStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, join(hdr)...)))
	b.WriteString("\n")

	for _, row := range Rows(ms) {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = cell(row[i], c.Width)
		}
		b.WriteString(strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, join(cells)...), " "))
		b.WriteString("\n")
	}

	return b.String()
}

func join(cells []string) []string {
	out := make([]string, 0, 2*len(cells))
	for i, c := range cells {
		if i > 0 {
			out = append(out, " ")
		}
		out = append(out, c)
	}
	return out
}
