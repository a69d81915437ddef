package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme bundles palette, symbols and box borders.
// All UI helpers pull from `current`.
type Theme struct {
	Name                                                 string
	Title, Muted, Faint, Accent, Success, Error, Pending lipgloss.Style
	BoxUnchecked, BoxChecked                             string
	CornerTL, CornerTR, CornerBL, CornerBR               string
	H, V                                                 string
	SymDone, SymPending, SymDelete                       string
}

var current = classic()

func fg(c string) lipgloss.Style { return renderer.NewStyle().Foreground(lipgloss.Color(c)) }

func classic() Theme {
	return Theme{
		Name:  "classic",
		Title: renderer.NewStyle().Bold(true), Muted: fg("8"), Faint: renderer.NewStyle().Faint(true),
		Accent: fg("4"), Success: fg("2"), Error: fg("1"), Pending: fg("3"),
		BoxUnchecked: "☐", BoxChecked: "☑",
		CornerTL: "┌", CornerTR: "┐", CornerBL: "└", CornerBR: "┘",
		H: "─", V: "│",
		SymDone: "✔", SymPending: "•", SymDelete: "✕",
	}
}

func neon() Theme {
	t := classic()
	t.Name = "neon"
	t.Title = fg("13").Bold(true)
	t.Accent, t.Pending = fg("14"), fg("11")
	t.BoxUnchecked, t.BoxChecked = "◻", "◼"
	t.CornerTL, t.CornerTR, t.CornerBL, t.CornerBR = "╭", "╮", "╰", "╯"
	return t
}

// mono has no colors or attributes at all.
func mono() Theme {
	plain := renderer.NewStyle()
	return Theme{
		Name:  "mono",
		Title: plain, Muted: plain, Faint: plain, Accent: plain,
		Success: plain, Error: plain, Pending: plain,
		BoxUnchecked: "[ ]", BoxChecked: "[x]",
		CornerTL: "+", CornerTR: "+", CornerBL: "+", CornerBR: "+",
		H: "-", V: "|",
		SymDone: "x", SymPending: "-", SymDelete: "x",
	}
}

// SetTheme switches the active theme. Unknown names leave it unchanged.
func SetTheme(name string) error {
	switch strings.ToLower(name) {
	case "classic", "":
		current = classic()
	case "neon":
		current = neon()
	case "mono":
		current = mono()
	default:
		return fmt.Errorf("unknown theme %q", name)
	}
	return nil
}

// Current returns the active theme.
func Current() Theme { return current }
