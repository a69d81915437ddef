package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

const symCross = "✖"

// renderer is bound to stdout; its profile decides whether styles emit escapes.
var (
	renderer = lipgloss.NewRenderer(os.Stdout)
	detected = renderer.ColorProfile()
)

// SetColorForcing overrides terminal detection. disable wins over force.
func SetColorForcing(force, disable bool) {
	switch {
	case disable:
		renderer.SetColorProfile(termenv.Ascii)
	case force:
		renderer.SetColorProfile(termenv.ANSI256)
	default:
		renderer.SetColorProfile(detected)
	}
}

// IsTTY reports whether stdout is a terminal.
func IsTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// C renders s in a palette style of the current theme.
func C(style lipgloss.Style, s string) string { return style.Render(s) }

func Dim(s string) string { return current.Faint.Render(s) }

func OK(w io.Writer, msg string) {
	fmt.Fprintln(w, current.Success.Render(current.SymDone+" "+msg))
}

func Fail(w io.Writer, msg string) {
	fmt.Fprintln(w, current.Error.Render(symCross+" "+msg))
}
