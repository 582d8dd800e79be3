package tui

import (
	"context"
	"fmt"

	"fleet-console/internal/viewmodel"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// App switches between the fleet list and fleet detail screens.
type App struct {
	list    *FleetListView
	detail  *FleetDetailView
	current View
}

var _ tea.Model = (*App)(nil)

// NewApp builds the console over the two view-models.
func NewApp(ctx context.Context, list *viewmodel.FleetList, detail *viewmodel.FleetDetail) *App {
	listView := NewFleetListView(ctx, list)
	return &App{
		list:    listView,
		detail:  NewFleetDetailView(ctx, detail),
		current: listView,
	}
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return a.list.Init()
}

// Update implements tea.Model. Keys go to the current screen; every other
// message goes to both screens, which ignore what is not theirs.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.current == a.list && key.Matches(msg, keys.Quit) {
			return a, tea.Quit
		}
		var cmd tea.Cmd
		a.current, cmd = a.current.Update(msg)
		return a, cmd

	case OpenFleetMsg:
		a.current = a.detail
		return a, a.detail.Open(msg.FleetID)

	case BackMsg:
		a.current = a.list
		return a, nil
	}

	_, listCmd := a.list.Update(msg)
	_, detailCmd := a.detail.Update(msg)
	return a, tea.Batch(listCmd, detailCmd)
}

// View implements tea.Model.
func (a *App) View() string {
	return a.current.View()
}

// Run starts the console and blocks until the user quits or ctx is done.
func Run(ctx context.Context, list *viewmodel.FleetList, detail *viewmodel.FleetDetail) error {
	p := tea.NewProgram(NewApp(ctx, list, detail), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("console: %w", err)
	}
	return nil
}
