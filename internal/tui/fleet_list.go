package tui

import (
	"context"
	"fmt"
	"strings"

	"fleet-console/internal/api"
	"fleet-console/internal/viewmodel"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// FleetListView renders the fleet list screen.
type FleetListView struct {
	ctx context.Context
	vm  *viewmodel.FleetList

	Selected  int
	loading   bool
	status    string
	statusErr bool

	spinner spinner.Model
	help    help.Model
}

var _ View = (*FleetListView)(nil)

// NewFleetListView creates the list screen over a fleet list view-model.
func NewFleetListView(ctx context.Context, vm *viewmodel.FleetList) *FleetListView {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccent))

	return &FleetListView{
		ctx:     ctx,
		vm:      vm,
		spinner: s,
		help:    help.New(),
	}
}

// Init fetches the fleets.
func (v *FleetListView) Init() tea.Cmd {
	v.loading = true
	return tea.Batch(v.spinner.Tick, fetchFleetsCmd(v.ctx, v.vm))
}

// Update implements View.
func (v *FleetListView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.help.Width = msg.Width
		return v, nil

	case spinner.TickMsg:
		if !v.loading {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case FleetsLoadedMsg:
		v.loading = false
		if msg.Err != nil {
			v.setStatus(fmt.Sprintf("Failed to load fleets: %v", msg.Err), true)
		} else {
			v.setStatus(fmt.Sprintf("%d fleets", len(v.vm.Fleets())), false)
		}
		v.clamp()
		return v, nil

	case FleetRemovedMsg:
		v.loading = false
		if msg.Err != nil {
			v.setStatus(fmt.Sprintf("Delete of fleet %d failed: %v", msg.FleetID, msg.Err), true)
		} else {
			v.setStatus(fmt.Sprintf("Fleet %d deleted", msg.FleetID), false)
		}
		v.clamp()
		return v, nil

	case tea.KeyMsg:
		return v.handleKey(msg)
	}

	return v, nil
}

func (v *FleetListView) handleKey(msg tea.KeyMsg) (View, tea.Cmd) {
	fleets := v.vm.Fleets()

	switch {
	case key.Matches(msg, keys.Down):
		if v.Selected < len(fleets)-1 {
			v.Selected++
		}
	case key.Matches(msg, keys.Up):
		if v.Selected > 0 {
			v.Selected--
		}
	case key.Matches(msg, keys.Refresh):
		v.loading = true
		v.setStatus("Refreshing…", false)
		return v, tea.Batch(v.spinner.Tick, fetchFleetsCmd(v.ctx, v.vm))
	case key.Matches(msg, keys.Delete):
		fleet := v.selectedFleet(fleets)
		if fleet == nil {
			return v, nil
		}
		v.loading = true
		v.setStatus(fmt.Sprintf("Deleting %s…", fleet.Name), false)
		return v, tea.Batch(v.spinner.Tick, removeFleetCmd(v.ctx, v.vm, fleet.ID))
	case key.Matches(msg, keys.Open):
		fleet := v.selectedFleet(fleets)
		if fleet == nil {
			return v, nil
		}
		return v, openFleetCmd(fleet.ID)
	}

	return v, nil
}

// View implements View.
func (v *FleetListView) View() string {
	var b strings.Builder

	title := Styles.Title.Render("Fleets")
	if v.loading {
		title += " " + v.spinner.View()
	}
	b.WriteString(title + "\n\n")

	fleets := v.vm.Fleets()
	if len(fleets) == 0 {
		b.WriteString(Styles.Empty.Render("No fleets") + "\n")
	}
	for i, fleet := range fleets {
		line := fmt.Sprintf("%-5d %s", fleet.ID, fleet.Name)
		if fleet.Description != "" {
			line += Styles.Muted.Render("  " + fleet.Description)
		}
		if i == v.Selected {
			b.WriteString(Styles.Selected.Render("> ") + Styles.Selected.Render(line) + "\n")
		} else {
			b.WriteString("  " + Styles.Normal.Render(line) + "\n")
		}
	}

	b.WriteString("\n" + renderStatus(v.status, v.statusErr))
	b.WriteString("\n" + v.help.View(fleetListHelp))

	return Styles.Frame.Render(b.String())
}

func (v *FleetListView) selectedFleet(fleets []*api.Fleet) *api.Fleet {
	if v.Selected < 0 || v.Selected >= len(fleets) {
		return nil
	}
	return fleets[v.Selected]
}

func (v *FleetListView) setStatus(status string, isErr bool) {
	v.status = status
	v.statusErr = isErr
}

// clamp keeps the cursor on a row after the list shrinks.
func (v *FleetListView) clamp() {
	n := len(v.vm.Fleets())
	if v.Selected >= n {
		v.Selected = n - 1
	}
	if v.Selected < 0 {
		v.Selected = 0
	}
}

func renderStatus(status string, isErr bool) string {
	if status == "" {
		return ""
	}
	if isErr {
		return Styles.Error.Render(status)
	}
	return Styles.Status.Render(status)
}
