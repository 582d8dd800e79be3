// Package tui is the interactive terminal console for the fleet API.
// It renders the fleet list and fleet detail view-models with Bubble Tea;
// all HTTP work runs inside tea.Cmds and reports back as messages.
package tui

import tea "github.com/charmbracelet/bubbletea"

// View is one screen of the console.
type View interface {
	Init() tea.Cmd
	Update(tea.Msg) (View, tea.Cmd)
	View() string
}
