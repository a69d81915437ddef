// Package tui is the interactive todo list: one Item view per todo, hosted by
// a List that owns the collection.
package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

// Run starts the Bubble Tea program and blocks until the user quits.
func Run(ctx context.Context, client API, logger *log.Logger) error {
	m := NewList(client, logger)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	m.shutdown()
	return nil
}
