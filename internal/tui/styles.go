package tui

import "github.com/charmbracelet/lipgloss"

// Styles contains all lipgloss styles for the review screen.
type Styles struct {
	Title    lipgloss.Style
	Reviewer lipgloss.Style

	ItemID   lipgloss.Style
	Meta     lipgloss.Style
	Story    lipgloss.Style
	Sender   lipgloss.Style
	TurnText lipgloss.Style

	FieldActive   lipgloss.Style
	FieldInactive lipgloss.Style
	ScoreSelected lipgloss.Style
	ScoreEmpty    lipgloss.Style

	ProgressFilled lipgloss.Style
	ProgressEmpty  lipgloss.Style

	StatusOK    lipgloss.Style
	StatusError lipgloss.Style
	Reviewed    lipgloss.Style

	Footer    lipgloss.Style
	FooterKey lipgloss.Style

	Prompt lipgloss.Style
	Help   lipgloss.Style
}

// DefaultStyles returns the default styles.
func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Reviewer: lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),

		ItemID:   lipgloss.NewStyle().Bold(true),
		Meta:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Story:    lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Italic(true),
		Sender:   lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		TurnText: lipgloss.NewStyle().Foreground(lipgloss.Color("252")),

		FieldActive:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		FieldInactive: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		ScoreSelected: lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		ScoreEmpty:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")),

		ProgressFilled: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		ProgressEmpty:  lipgloss.NewStyle().Foreground(lipgloss.Color("240")),

		StatusOK:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		StatusError: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Reviewed:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),

		Footer:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")).MarginTop(1),
		FooterKey: lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),

		Prompt: lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		Help:   lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
	}
}
