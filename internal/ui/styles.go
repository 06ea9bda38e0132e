// Package ui renders the chat panel in a terminal: message bubbles, the
// draft input and the bubbletea program that mounts the overlay.
package ui

import "github.com/charmbracelet/lipgloss"

var (
	Primary     = lipgloss.Color("#101F38")
	Accent      = lipgloss.Color("#8BC34A")
	Muted       = lipgloss.Color("#6b7686")
	Card        = lipgloss.Color("#e1e4e8")
	Destructive = lipgloss.Color("#e53935")
	Info        = lipgloss.Color("#2196F3")
)

// Styles groups the lipgloss styles of the chat panel.
type Styles struct {
	OwnBubble   lipgloss.Style
	OtherBubble lipgloss.Style
	Sender      lipgloss.Style
	Meta        lipgloss.Style
	Read        lipgloss.Style
	Failed      lipgloss.Style
	Header      lipgloss.Style
	Badge       lipgloss.Style
	Notice      lipgloss.Style
	Help        lipgloss.Style
	InputBorder lipgloss.Style
}

// DefaultStyles returns the panel styles.
func DefaultStyles() Styles {
	return Styles{
		OwnBubble:   lipgloss.NewStyle().Foreground(Primary).Background(Accent).Padding(0, 1),
		OtherBubble: lipgloss.NewStyle().Foreground(Primary).Background(Card).Padding(0, 1),
		Sender:      lipgloss.NewStyle().Bold(true).Foreground(Muted),
		Meta:        lipgloss.NewStyle().Foreground(Muted),
		Read:        lipgloss.NewStyle().Foreground(Info),
		Failed:      lipgloss.NewStyle().Foreground(Destructive).Bold(true),
		Header:      lipgloss.NewStyle().Bold(true).Padding(0, 1),
		Badge:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffffff")).Background(Destructive).Padding(0, 1),
		Notice:      lipgloss.NewStyle().Foreground(Destructive),
		Help:        lipgloss.NewStyle().Foreground(Muted),
		InputBorder: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(Muted),
	}
}
