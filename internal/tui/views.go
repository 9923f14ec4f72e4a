package tui

import (
	"fmt"

	"chainsight/internal/domain"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
)

func newSignalsTable() table.Model {
	columns := []table.Column{
		{Title: "Date", Width: 12},
		{Title: "Action", Width: 8},
		{Title: "State", Width: 10},
		{Title: "Z-Score", Width: 9},
		{Title: "Return", Width: 10},
		{Title: "vs HODL", Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	t.SetStyles(tableStyles())
	return t
}

func newMetricsTable() table.Model {
	columns := []table.Column{
		{Title: "Metric", Width: 18},
		{Title: "Value", Width: 16},
		{Title: "Date", Width: 12},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	t.SetStyles(tableStyles())
	return t
}

func tableStyles() table.Styles {
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
	return s
}

// updateSignalRows fills the signals table, newest run first.
func updateSignalRows(t table.Model, runs []domain.StrategyRun) table.Model {
	rows := make([]table.Row, 0, len(runs))
	for i := len(runs) - 1; i >= 0; i-- {
		run := runs[i]
		rows = append(rows, table.Row{
			run.ExecutedAt.Format("2006-01-02"),
			string(run.Action),
			run.State,
			fmt.Sprintf("%+.3f", run.CombinedZScore),
			fmt.Sprintf("%+.1f%%", run.TotalReturn),
			fmt.Sprintf("%+.1f%%", run.Outperformance),
		})
	}
	t.SetRows(rows)
	return t
}

func updateMetricRows(t table.Model, obs []domain.MetricObservation) table.Model {
	rows := make([]table.Row, 0, len(obs))
	for _, o := range obs {
		rows = append(rows, table.Row{
			o.Metric,
			fmt.Sprintf("%g", o.Value),
			o.Date.Format("2006-01-02"),
		})
	}
	t.SetRows(rows)
	return t
}

func newAdvisorInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "Ask about the market or the current signal..."
	ti.CharLimit = 500
	ti.Width = 60
	ti.Prompt = "> "
	return ti
}
