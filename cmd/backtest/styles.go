package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Style definitions.
var (
	// TitleStyle for headers.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// HelpStyle for help text.
	HelpStyle = lipgloss.NewStyle().Faint(true)

	// ErrorStyle for error messages.
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

// FormatChange formats a value with an arrow showing its direction relative to previous.
func FormatChange(current, previous float64) string {
	s := fmt.Sprintf("%.2f", current)

	switch {
	case previous == 0:
		return s
	case current > previous:
		return s + " ▲"
	case current < previous:
		return s + " ▼"
	default:
		return s
	}
}
