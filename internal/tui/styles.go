package tui

import (
	"fmt"

	"chainsight/internal/domain"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	helpStyle  = lipgloss.NewStyle().Faint(true)
	labelStyle = lipgloss.NewStyle().Faint(true)
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	longStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	cashStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	replyStyle = lipgloss.NewStyle().PaddingLeft(2)
)

// formatChange renders a signed percentage with a direction marker.
func formatChange(pct float64) string {
	s := fmt.Sprintf("%+.2f%%", pct)
	if pct > 0 {
		return s + " ▲"
	}
	if pct < 0 {
		return s + " ▼"
	}
	return s
}

// stateStyle picks the color for a position state label. States holding
// BTC render green, states out of the market render orange.
func stateStyle(state string) lipgloss.Style {
	switch state {
	case domain.StateLong, domain.StateHoldBTC:
		return longStyle
	default:
		return cashStyle
	}
}
