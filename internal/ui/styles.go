package ui

import "github.com/charmbracelet/lipgloss"

// Styles are the Lip Gloss styles used by the interactive views.
type Styles struct {
	Title, Success, Pending, Accent, Muted, Error lipgloss.Style
	Selected, Done, Busy, Help, Border           lipgloss.Style
}

// TUIStyles derives the interactive styles from the active theme palette.
func TUIStyles() Styles {
	t := current
	plain := renderer.NewStyle()
	border := plain.Border(lipgloss.RoundedBorder()).Padding(0, 1)
	if t.Name != "mono" {
		border = border.BorderForeground(lipgloss.Color("8"))
	}
	return Styles{
		Title:    t.Title,
		Success:  t.Success,
		Pending:  t.Pending,
		Accent:   t.Accent,
		Muted:    t.Faint,
		Error:    t.Error.Bold(t.Name != "mono"),
		Selected: plain.Bold(true).Reverse(true),
		Done:     plain.Faint(true).Strikethrough(true),
		Busy:     plain.Faint(true),
		Help:     plain.Faint(true),
		Border:   border,
	}
}
