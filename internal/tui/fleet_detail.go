package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fleet-console/internal/viewmodel"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// FleetDetailView renders one fleet and its drivers.
type FleetDetailView struct {
	ctx context.Context
	vm  *viewmodel.FleetDetail

	fleetID   int64
	Selected  int
	loading   bool
	status    string
	statusErr bool

	spinner spinner.Model
	help    help.Model
}

var _ View = (*FleetDetailView)(nil)

// NewFleetDetailView creates the detail screen over a fleet detail view-model.
func NewFleetDetailView(ctx context.Context, vm *viewmodel.FleetDetail) *FleetDetailView {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccent))

	return &FleetDetailView{
		ctx:     ctx,
		vm:      vm,
		fleetID: -1,
		spinner: s,
		help:    help.New(),
	}
}

// Init implements View. Nothing loads until Open picks a fleet.
func (v *FleetDetailView) Init() tea.Cmd {
	return nil
}

// Open starts loading a fleet and its drivers.
func (v *FleetDetailView) Open(fleetID int64) tea.Cmd {
	v.fleetID = fleetID
	v.Selected = 0
	v.loading = true
	v.setStatus("", false)
	return tea.Batch(v.spinner.Tick, loadFleetCmd(v.ctx, v.vm, fleetID))
}

// Update implements View.
func (v *FleetDetailView) Update(msg tea.Msg) (View, tea.Cmd) {
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

	case FleetLoadedMsg:
		if errors.Is(msg.Err, viewmodel.ErrSuperseded) {
			return v, nil
		}
		v.loading = false
		if msg.Err != nil {
			v.setStatus(fmt.Sprintf("Failed to load fleet %d: %v", msg.FleetID, msg.Err), true)
		} else {
			v.setStatus(fmt.Sprintf("%d drivers", len(v.vm.Drivers())), false)
		}
		v.clamp()
		return v, nil

	case DriversLoadedMsg:
		if errors.Is(msg.Err, viewmodel.ErrSuperseded) {
			return v, nil
		}
		v.loading = false
		if msg.Err != nil {
			v.setStatus(fmt.Sprintf("Failed to load drivers: %v", msg.Err), true)
		} else {
			v.setStatus(fmt.Sprintf("%d drivers", len(v.vm.Drivers())), false)
		}
		v.clamp()
		return v, nil

	case DriverDismissedMsg:
		v.loading = false
		if msg.Err != nil {
			v.setStatus(fmt.Sprintf("Dismiss of driver %d failed: %v", msg.DriverID, msg.Err), true)
		} else {
			v.setStatus(fmt.Sprintf("Driver %d dismissed", msg.DriverID), false)
		}
		v.clamp()
		return v, nil

	case tea.KeyMsg:
		return v.handleKey(msg)
	}

	return v, nil
}

func (v *FleetDetailView) handleKey(msg tea.KeyMsg) (View, tea.Cmd) {
	drivers := v.vm.Drivers()

	switch {
	case key.Matches(msg, keys.Down):
		if v.Selected < len(drivers)-1 {
			v.Selected++
		}
	case key.Matches(msg, keys.Up):
		if v.Selected > 0 {
			v.Selected--
		}
	case key.Matches(msg, keys.Refresh):
		v.loading = true
		return v, tea.Batch(v.spinner.Tick, loadDriversCmd(v.ctx, v.vm))
	case key.Matches(msg, keys.Dismiss):
		if v.Selected < 0 || v.Selected >= len(drivers) {
			return v, nil
		}
		driver := drivers[v.Selected]
		v.loading = true
		v.setStatus(fmt.Sprintf("Dismissing %s…", driver.DisplayName()), false)
		return v, tea.Batch(v.spinner.Tick, dismissDriverCmd(v.ctx, v.vm, v.vm.FleetID(), driver.ID))
	case key.Matches(msg, keys.Back):
		return v, backCmd
	}

	return v, nil
}

// View implements View.
func (v *FleetDetailView) View() string {
	var b strings.Builder

	title := Styles.Title.Render("Fleet: " + v.vm.FleetName())
	if v.loading {
		title += " " + v.spinner.View()
	}
	b.WriteString(title + "\n")
	if fleet := v.vm.Fleet(); fleet != nil && fleet.Description != "" {
		b.WriteString(Styles.Muted.Render(fleet.Description) + "\n")
	}
	b.WriteString("\n")

	drivers := v.vm.Drivers()
	switch {
	case v.vm.State() == viewmodel.Failed && len(drivers) == 0:
		b.WriteString(Styles.Empty.Render("Nothing to show") + "\n")
	case len(drivers) == 0 && !v.loading:
		b.WriteString(Styles.Empty.Render("No drivers in this fleet") + "\n")
	}
	for i, driver := range drivers {
		line := fmt.Sprintf("%-5d %s", driver.ID, driver.DisplayName())
		if driver.Username != "" && driver.Username != driver.DisplayName() {
			line += Styles.Muted.Render("  @" + driver.Username)
		}
		if i == v.Selected {
			b.WriteString(Styles.Selected.Render("> ") + Styles.Selected.Render(line) + "\n")
		} else {
			b.WriteString("  " + Styles.Normal.Render(line) + "\n")
		}
	}

	b.WriteString("\n" + renderStatus(v.status, v.statusErr))
	b.WriteString("\n" + v.help.View(fleetDetailHelp))

	return Styles.Frame.Render(b.String())
}

func (v *FleetDetailView) setStatus(status string, isErr bool) {
	v.status = status
	v.statusErr = isErr
}

func (v *FleetDetailView) clamp() {
	n := len(v.vm.Drivers())
	if v.Selected >= n {
		v.Selected = n - 1
	}
	if v.Selected < 0 {
		v.Selected = 0
	}
}
